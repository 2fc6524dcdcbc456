// Package chat assembles replies and action payloads for classified chat intents.
package chat

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/kvasnier/c2-demo/internal/intent"
	"github.com/kvasnier/c2-demo/internal/models"
	"github.com/kvasnier/c2-demo/internal/storage"
	"github.com/kvasnier/c2-demo/internal/vocab"
	"github.com/kvasnier/c2-demo/pkg/geo"
	"github.com/kvasnier/c2-demo/pkg/utils"
)

const (
	// maxReconAssets caps the asset listing reply.
	maxReconAssets = 12
	// reconLinkPrefix builds per-asset map links the UI resolves.
	reconLinkPrefix = "/map/uav-recon/"
	// hqName is the scenario command post referenced by confirmation flows.
	hqName = "RUS-HQ-COMINT"
	// publicMediaPrefix is where local media files are served from.
	publicMediaPrefix = "/media/"
)

// Responder builds a reply and zero or more action payloads per intent,
// consulting the spatial store for data-backed intents.
type Responder struct {
	store    storage.Storage
	refLat   float64
	refLon   float64
	mediaRef string
	logger   *zap.Logger
}

// NewResponder creates a responder. refLat/refLon is the fixed reference
// point distances are measured from; mediaRef is the configured external
// media reference. A nil logger disables logging.
func NewResponder(store storage.Storage, refLat, refLon float64, mediaRef string, logger *zap.Logger) *Responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Responder{store: store, refLat: refLat, refLon: refLon, mediaRef: mediaRef, logger: logger}
}

// Build returns the reply and actions for a classified intent. The reply is
// always non-empty; store failures degrade to a "no assets" reply rather
// than surfacing an error to the conversational interface.
func (r *Responder) Build(ctx context.Context, it intent.Intent, lastUser string) (string, []models.ChatAction) {
	switch it {
	case intent.ReconList:
		return r.buildReconList(ctx)
	case intent.ReconMissionOrder:
		return "Ordre de mission généré pour le drone de reconnaissance sélectionné. Vérifie le brouillon avant envoi.",
			[]models.ChatAction{{Type: "draft_recon_order", Payload: map[string]any{}}}
	case intent.WatchNewData:
		return r.buildWatchNewData()
	case intent.ConfirmEnemy:
		return fmt.Sprintf("%s confirmé ENEMY. La carte est mise à jour.", hqName),
			[]models.ChatAction{{Type: "confirm_hq_enemy", Payload: map[string]any{"name": hqName}}}
	case intent.AssetReference:
		return "Drones disponibles pour tasking :",
			[]models.ChatAction{{Type: "suggest_uav", Payload: map[string]any{
				"uavs": []map[string]any{
					{"name": "UAV-ALPHA", "status": "available", "range_km": 80},
					{"name": "UAV-BRAVO", "status": "tasked", "range_km": 120},
				},
			}}}
	case intent.PlaceUnitSuggestion:
		return "Proposition de placement d'une unité amie.",
			[]models.ChatAction{{Type: "place_unit", Payload: map[string]any{
				"side":  vocab.SideFriend,
				"kind":  vocab.UnitInfantry,
				"lat":   48.8566,
				"lng":   2.3522,
				"label": "UNIT-MOCK",
			}}}
	default:
		return r.buildFallback(lastUser)
	}
}

// buildReconList lists reconnaissance assets ordered by distance from the
// reference point. Availability over correctness: a failing or empty query
// yields a degraded reply, never an error.
func (r *Responder) buildReconList(ctx context.Context) (string, []models.ChatAction) {
	units, err := r.store.NearestUnitsByType(ctx, vocab.UASRecon, r.refLat, r.refLon, maxReconAssets)
	if err != nil {
		r.logger.Warn("recon asset query failed, degrading reply", zap.Error(err))
		units = nil
	}
	if len(units) == 0 {
		return "Aucun drone de reconnaissance disponible pour le moment.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d drone(s) de reconnaissance, du plus proche au plus éloigné :\n", len(units))
	for _, u := range units {
		dist := geo.HaversineKm(r.refLat, r.refLon, u.Lat, u.Lon)
		fmt.Fprintf(&b, "- [%s](%s%s) — %.1f km\n", u.Name, reconLinkPrefix, u.Name, dist)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (r *Responder) buildWatchNewData() (string, []models.ChatAction) {
	mediaPath := resolveMediaPath(r.mediaRef)
	reply := fmt.Sprintf(
		"Nouvelle donnée reçue : [intercept_communication](%s)\nAnalyse préliminaire : émissions COMINT attribuées au poste de commandement %s. Dis \"confirme ennemi\" pour mettre à jour la carte.",
		mediaPath, hqName,
	)
	return reply, nil
}

func (r *Responder) buildFallback(lastUser string) (string, []models.ChatAction) {
	if strings.TrimSpace(lastUser) == "" {
		return "Je peux lister les drones dispo, générer un ordre de mission, ou placer une unité.", nil
	}
	return fmt.Sprintf("Reçu : %s\nJe peux lister les drones dispo, générer un ordre de mission, ou placer une unité.",
		utils.Truncate(lastUser, 120)), nil
}

// resolveMediaPath rewrites a local filesystem reference to the public media
// path using only its final segment, so filesystem layout never leaks into
// replies. URLs and already-public paths pass through unchanged.
func resolveMediaPath(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if strings.HasPrefix(ref, publicMediaPrefix) {
		return ref
	}
	return publicMediaPrefix + filepath.Base(ref)
}
