package scenario

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kvasnier/c2-demo/internal/models"
	"github.com/kvasnier/c2-demo/internal/storage"
)

// Pipeline restores the live dataset from a seed file, capturing a durable
// snapshot of current state first. Restores are serialized by an in-process
// mutex: two interleaved delete/insert phases would corrupt the dataset.
type Pipeline struct {
	seedPath  string
	backupDir string
	scope     storage.Scope
	store     storage.Storage
	logger    *zap.Logger

	mu sync.Mutex
}

// NewPipeline creates a restore pipeline. A nil logger disables logging.
func NewPipeline(seedPath, backupDir string, scope storage.Scope, store storage.Storage, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		seedPath:  seedPath,
		backupDir: backupDir,
		scope:     scope,
		store:     store,
		logger:    logger,
	}
}

// Restore runs the two-phase protocol: durable snapshot of the live dataset,
// then atomic replace from the parsed seed. Seed absence or emptiness is
// reported before anything is touched; a failure inside the replace phase
// rolls back completely, leaving the snapshot as the only record of the
// attempt.
func (p *Pipeline) Restore(ctx context.Context) (*models.RestoreResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	statements, err := ParseSeed(p.seedPath, p.scope)
	if err != nil {
		return nil, err
	}
	p.logger.Info("seed parsed",
		zap.String("seed_path", p.seedPath),
		zap.Int("statements", len(statements)),
		zap.String("scope", string(p.scope)),
	)

	backupPath, err := p.snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("capturing snapshot: %w", err)
	}
	p.logger.Info("snapshot written", zap.String("backup_path", backupPath))

	if err := p.store.ReplaceAll(ctx, p.scope, statements); err != nil {
		p.logger.Error("restore failed, live dataset rolled back",
			zap.String("backup_path", backupPath),
			zap.Error(err),
		)
		return nil, fmt.Errorf("replacing live dataset: %w", err)
	}

	count, err := p.store.CountUnits(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting restored units: %w", err)
	}
	p.logger.Info("scenario restored",
		zap.Int64("restored_units", count),
		zap.String("backup_path", backupPath),
	)
	return &models.RestoreResult{OK: true, RestoredUnits: count, BackupPath: backupPath}, nil
}

// snapshot serializes the current live dataset, ordered by creation time
// ascending, and writes it durably to the backup directory.
func (p *Pipeline) snapshot(ctx context.Context) (string, error) {
	units, err := p.store.ListUnits(ctx)
	if err != nil {
		return "", fmt.Errorf("listing units: %w", err)
	}
	sort.SliceStable(units, func(i, j int) bool {
		return units[i].CreatedAt.Before(units[j].CreatedAt)
	})

	statements := make([]string, 0, len(units))
	for _, u := range units {
		statements = append(statements, UnitStatement(u))
	}

	if p.scope.IncludesPOIs() {
		pois, err := p.store.ListPOIs(ctx)
		if err != nil {
			return "", fmt.Errorf("listing pois: %w", err)
		}
		sort.SliceStable(pois, func(i, j int) bool {
			return pois[i].CreatedAt.Before(pois[j].CreatedAt)
		})
		for _, poi := range pois {
			statements = append(statements, POIStatement(poi))
		}
	}

	return WriteSnapshot(p.backupDir, statements, time.Now())
}
