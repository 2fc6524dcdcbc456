package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kvasnier/c2-demo/internal/intent"
	"github.com/kvasnier/c2-demo/internal/models"
	"github.com/kvasnier/c2-demo/internal/scenario"
	"github.com/kvasnier/c2-demo/internal/storage"
	"github.com/kvasnier/c2-demo/internal/vocab"
	"github.com/kvasnier/c2-demo/pkg/geo"
	"github.com/kvasnier/c2-demo/pkg/utils"
)

func (s *Server) handleListUnits(w http.ResponseWriter, r *http.Request) {
	units, err := s.storage.ListUnits(r.Context())
	if err != nil {
		s.logger.Error("list units failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	features := make([]*models.Feature, 0, len(units))
	for _, u := range units {
		features = append(features, u.ToFeature())
	}
	s.respondJSON(w, http.StatusOK, models.NewFeatureCollection(features))
}

func (s *Server) handleCreateUnit(w http.ResponseWriter, r *http.Request) {
	var input models.UnitInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(input.Name) == "" {
		s.respondValidation(w, "name", input.Name, "")
		return
	}

	side, err := vocab.NormalizeSide(input.Side)
	if err != nil {
		s.respondVocabError(w, err)
		return
	}
	unitType, err := vocab.NormalizeUnitType(input.UnitType)
	if err != nil {
		s.respondVocabError(w, err)
		return
	}
	echelon, err := vocab.NormalizeEchelon(input.Echelon)
	if err != nil {
		s.respondVocabError(w, err)
		return
	}
	if !geo.ValidLatLon(input.Lat, input.Lon) {
		s.respondValidation(w, "lat", "", "latitude must be in [-90, 90] and longitude in [-180, 180]")
		return
	}

	unit := &models.Unit{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(input.Name),
		Side:      side,
		UnitType:  unitType,
		Echelon:   echelon,
		SIDC:      input.SIDC,
		Lat:       input.Lat,
		Lon:       input.Lon,
		CreatedAt: time.Now().UTC(),
	}
	s.logger.Debug("create unit request", zap.String("name", unit.Name), zap.String("unit_type", unit.UnitType))
	if err := s.storage.InsertUnit(r.Context(), unit); err != nil {
		s.logger.Error("create unit failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, unit.ToFeature())
}

func (s *Server) handleListPOIs(w http.ResponseWriter, r *http.Request) {
	pois, err := s.storage.ListPOIs(r.Context())
	if err != nil {
		s.logger.Error("list pois failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	features := make([]*models.Feature, 0, len(pois))
	for _, p := range pois {
		features = append(features, p.ToFeature())
	}
	s.respondJSON(w, http.StatusOK, models.NewFeatureCollection(features))
}

func (s *Server) handleCreatePOI(w http.ResponseWriter, r *http.Request) {
	var input models.POIInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(input.Label) == "" {
		s.respondValidation(w, "label", input.Label, "")
		return
	}
	if !geo.ValidLatLon(input.Lat, input.Lon) {
		s.respondValidation(w, "lat", "", "latitude must be in [-90, 90] and longitude in [-180, 180]")
		return
	}

	poi := &models.POI{
		ID:        uuid.New().String(),
		Label:     strings.TrimSpace(input.Label),
		Category:  input.Category,
		Lat:       input.Lat,
		Lon:       input.Lon,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.storage.InsertPOI(r.Context(), poi); err != nil {
		s.logger.Error("create poi failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, poi.ToFeature())
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	last := req.LastUserContent()
	it := intent.Classify(utils.NormalizeText(last))
	s.logger.Debug("chat request", zap.String("intent", string(it)))

	reply, actions := s.responder.Build(r.Context(), it, last)
	if actions == nil {
		actions = []models.ChatAction{}
	}
	s.respondJSON(w, http.StatusOK, &models.ChatResponse{Reply: reply, Actions: actions})
}

func (s *Server) handleScenarioReset(w http.ResponseWriter, r *http.Request) {
	result, err := s.pipeline.Restore(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, scenario.ErrSeedNotFound):
			s.respondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, scenario.ErrSeedEmpty):
			s.respondError(w, http.StatusConflict, err.Error())
		default:
			s.logger.Error("scenario reset failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	unitCount, err := s.storage.CountUnits(ctx)
	if err != nil {
		s.logger.Error("status: count units failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	pois, err := s.storage.ListPOIs(ctx)
	if err != nil {
		s.logger.Error("status: list pois failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]interface{}{
		"units": unitCount,
		"pois":  len(pois),
	}
	resp["config"] = map[string]interface{}{
		"driver":        s.config.Storage.Driver,
		"seed_path":     s.config.Scenario.SeedPath,
		"backup_dir":    s.config.Scenario.BackupDir,
		"restore_scope": s.config.Scenario.RestoreScope,
	}
	if s.config.Storage.Driver == "sqlite" {
		diskBytes, err := storage.DiskUsageBytes(s.config.Storage.DatabasePath, s.config.Scenario.BackupDir)
		if err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondVocabError maps a vocabulary rejection to 422 with the offending
// field and a did-you-mean hint when one is close enough.
func (s *Server) respondVocabError(w http.ResponseWriter, err error) {
	var ve *vocab.ValidationError
	if errors.As(err, &ve) {
		s.respondValidation(w, ve.Field, ve.Value, ve.Hint)
		return
	}
	s.respondError(w, http.StatusUnprocessableEntity, err.Error())
}

func (s *Server) respondValidation(w http.ResponseWriter, field, value, hint string) {
	body := map[string]string{
		"error": "validation failed",
		"field": field,
		"value": value,
	}
	if hint != "" {
		body["hint"] = hint
	}
	s.respondJSON(w, http.StatusUnprocessableEntity, body)
}
