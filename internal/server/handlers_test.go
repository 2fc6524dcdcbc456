package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kvasnier/c2-demo/internal/chat"
	"github.com/kvasnier/c2-demo/internal/config"
	"github.com/kvasnier/c2-demo/internal/models"
	"github.com/kvasnier/c2-demo/internal/scenario"
	"github.com/kvasnier/c2-demo/internal/storage"
)

const (
	testRefLat = 48.247165
	testRefLon = 39.950965
)

type testEnv struct {
	server   *Server
	store    *storage.SQLiteStorage
	seedPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "c2.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	seedPath := filepath.Join(dir, "baseline.sql")
	backupDir := filepath.Join(dir, "backups")
	pipeline := scenario.NewPipeline(seedPath, backupDir, storage.ScopeUnits, store, nil)
	responder := chat.NewResponder(store, testRefLat, testRefLon, "/media/intercept.mkv", nil)

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.DatabasePath = filepath.Join(dir, "c2.db")
	cfg.Scenario.SeedPath = seedPath
	cfg.Scenario.BackupDir = backupDir

	srv := NewServer(store, pipeline, responder, cfg, zap.NewNop())
	return &testEnv{server: srv, store: store, seedPath: seedPath}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHandleCreateUnit_ThenList(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/units", models.UnitInput{
		Name:     "1-IN-ALPHA",
		Side:     "friend",
		UnitType: "infantry",
		Echelon:  "section",
		Lat:      48.25,
		Lon:      39.95,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}
	var feature models.Feature
	decodeBody(t, rec, &feature)
	if feature.Type != "Feature" {
		t.Errorf("Type = %s", feature.Type)
	}
	if feature.Geometry.Coordinates != [2]float64{39.95, 48.25} {
		t.Errorf("Coordinates = %v, want [lon, lat]", feature.Geometry.Coordinates)
	}
	if feature.Properties["side"] != "FRIEND" || feature.Properties["unit_type"] != "INFANTRY" {
		t.Errorf("properties not normalized: %v", feature.Properties)
	}

	rec = env.do(t, http.MethodGet, "/units", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var fc models.FeatureCollection
	decodeBody(t, rec, &fc)
	if fc.Type != "FeatureCollection" || len(fc.Features) != 1 {
		t.Errorf("collection = %+v", fc)
	}
}

func TestHandleCreateUnit_AliasNormalization(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/units", models.UnitInput{
		Name:     "RECON-1",
		Side:     "ennemy",
		UnitType: "drone",
		Echelon:  "sec",
		Lat:      48.0,
		Lon:      39.0,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var feature models.Feature
	decodeBody(t, rec, &feature)
	if feature.Properties["side"] != "ENEMY" {
		t.Errorf("side = %v, want ENEMY", feature.Properties["side"])
	}
	if feature.Properties["unit_type"] != "UAS" {
		t.Errorf("unit_type = %v, want UAS", feature.Properties["unit_type"])
	}
	if feature.Properties["echelon"] != "SECTION" {
		t.Errorf("echelon = %v, want SECTION", feature.Properties["echelon"])
	}
}

func TestHandleCreateUnit_InvalidVocab(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/units", models.UnitInput{
		Name:     "X",
		Side:     "ENEMMY",
		UnitType: "INFANTRY",
		Echelon:  "SECTION",
		Lat:      48.0,
		Lon:      39.0,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["field"] != "side" || body["value"] != "ENEMMY" {
		t.Errorf("body = %v", body)
	}
	if body["hint"] != "ENEMY" {
		t.Errorf("hint = %q, want ENEMY", body["hint"])
	}
}

func TestHandleCreateUnit_BadCoordinates(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/units", models.UnitInput{
		Name:     "X",
		Side:     "FRIEND",
		UnitType: "INFANTRY",
		Echelon:  "SECTION",
		Lat:      91.0,
		Lon:      39.0,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestHandleCreateUnit_MissingName(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/units", models.UnitInput{
		Side:     "FRIEND",
		UnitType: "INFANTRY",
		Echelon:  "SECTION",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestHandleCreateUnit_MalformedBody(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/units", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	env.server.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandlePOIs(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/pois", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"features":[]`) {
		t.Errorf("empty list should encode features as [], got %s", rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/pois", models.POIInput{
		Label:    "BRIDGE-7",
		Category: "infrastructure",
		Lat:      48.3,
		Lon:      39.8,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var feature models.Feature
	decodeBody(t, rec, &feature)
	if feature.Properties["label"] != "BRIDGE-7" {
		t.Errorf("properties = %v", feature.Properties)
	}

	rec = env.do(t, http.MethodPost, "/pois", models.POIInput{Label: "", Lat: 0, Lon: 0})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("blank label status = %d, want 422", rec.Code)
	}
}

func chatBody(contents ...string) models.ChatRequest {
	var req models.ChatRequest
	for _, c := range contents {
		req.Messages = append(req.Messages, models.ChatMessage{Role: models.RoleUser, Content: c})
	}
	return req
}

func TestHandleChat_ReconList(t *testing.T) {
	env := newTestEnv(t)
	seedUnit := fmt.Sprintf(
		"INSERT INTO units (id, name, side, unit_type, echelon, sidc, lat, lon, created_at) VALUES ('u1', 'UAV-REC-001', 'FRIEND', 'UAS_RECON', 'SECTION', '', %f, %f, '2026-03-01 08:00:00+00:00');",
		testRefLat+0.02, testRefLon,
	)
	if err := os.WriteFile(env.seedPath, []byte(seedUnit+"\n"), 0600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if rec := env.do(t, http.MethodPost, "/scenario/reset", nil); rec.Code != http.StatusOK {
		t.Fatalf("reset status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec := env.do(t, http.MethodPost, "/chat", chatBody("Liste les drônes dispo"))
	if rec.Code != http.StatusOK {
		t.Fatalf("chat status = %d", rec.Code)
	}
	var resp models.ChatResponse
	decodeBody(t, rec, &resp)
	if !strings.Contains(resp.Reply, "[UAV-REC-001](/map/uav-recon/UAV-REC-001)") {
		t.Errorf("reply missing asset link: %q", resp.Reply)
	}
	if resp.Actions == nil {
		t.Error("actions should encode as [], not null")
	}
}

func TestHandleChat_ConfirmEnemy(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/chat", chatBody("je confirme l'ennemi"))
	if rec.Code != http.StatusOK {
		t.Fatalf("chat status = %d", rec.Code)
	}
	var resp models.ChatResponse
	decodeBody(t, rec, &resp)
	if len(resp.Actions) != 1 || resp.Actions[0].Type != "confirm_hq_enemy" {
		t.Fatalf("actions = %+v", resp.Actions)
	}
	if resp.Actions[0].Payload["name"] != "RUS-HQ-COMINT" {
		t.Errorf("payload = %v", resp.Actions[0].Payload)
	}
}

func TestHandleChat_LastUserMessageWins(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/chat", chatBody("liste les drones", "place une unité ici"))
	var resp models.ChatResponse
	decodeBody(t, rec, &resp)
	if len(resp.Actions) != 1 || resp.Actions[0].Type != "place_unit" {
		t.Fatalf("actions = %+v, want place_unit from the last message", resp.Actions)
	}
}

func TestHandleScenarioReset_SeedErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/scenario/reset", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing seed status = %d, want 404", rec.Code)
	}

	if err := os.WriteFile(env.seedPath, []byte("-- nothing here\n"), 0600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	rec = env.do(t, http.MethodPost, "/scenario/reset", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("empty seed status = %d, want 409", rec.Code)
	}
}

func TestHandleScenarioReset_Success(t *testing.T) {
	env := newTestEnv(t)
	var lines []string
	for i := 0; i < 3; i++ {
		lines = append(lines, fmt.Sprintf(
			"INSERT INTO units (id, name, side, unit_type, echelon, sidc, lat, lon, created_at) VALUES ('u%d', 'U-%d', 'FRIEND', 'INFANTRY', 'SECTION', '', 48.0, 39.0, '2026-03-01 08:00:0%d+00:00');",
			i, i, i,
		))
	}
	if err := os.WriteFile(env.seedPath, []byte(strings.Join(lines, "\n")+"\n"), 0600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/scenario/reset", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var result models.RestoreResult
	decodeBody(t, rec, &result)
	if !result.OK || result.RestoredUnits != 3 {
		t.Errorf("result = %+v", result)
	}
	if result.BackupPath == "" {
		t.Error("backup path missing from result")
	}
}

func TestHandleStatus(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	decodeBody(t, rec, &body)
	if _, ok := body["units"]; !ok {
		t.Errorf("body missing units count: %v", body)
	}
	if _, ok := body["config"]; !ok {
		t.Errorf("body missing config section: %v", body)
	}
}
