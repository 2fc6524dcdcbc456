package models

// RestoreResult summarizes a completed scenario restore.
type RestoreResult struct {
	OK            bool   `json:"ok"`
	RestoredUnits int64  `json:"restored_units"`
	BackupPath    string `json:"backup_path"`
}
