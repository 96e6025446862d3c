package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/alexjvillani/afl-assistant/internal/api/respond"
	"github.com/alexjvillani/afl-assistant/internal/awards"
	"github.com/alexjvillani/afl-assistant/internal/cache"
)

// GetPlayerAwards aggregates how many rows of each award point at a player.
//
// Query: award=a,b (optional; default all awards).
func (h *Handler) GetPlayerAwards(w http.ResponseWriter, r *http.Request) {
	playerID := strings.TrimSpace(chi.URLParam(r, "playerID"))
	if playerID == "" {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_PLAYER", "player id is required")
		return
	}

	var ids []string
	for _, id := range strings.Split(r.URL.Query().Get("award"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	list, err := awards.LookupAll(ids)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusNotFound, "UNKNOWN_AWARD", "Unknown award", err.Error())
		return
	}

	ttl := cache.TTLPlayerAward
	entry, err := h.cache.Fetch(cache.PlayerAwardsKey(playerID, ids), ttl, func() ([]byte, error) {
		counts, err := h.store.CountAwards(r.Context(), playerID, list)
		if err != nil {
			return nil, err
		}
		total := 0
		for _, n := range counts {
			total += n
		}
		return json.Marshal(map[string]interface{}{
			"player_id": playerID,
			"counts":    counts,
			"total":     total,
		})
	})
	if err != nil {
		h.logger.Error("Count awards failed", "player_id", playerID, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to count awards")
		return
	}
	respond.Cached(w, r, entry, ttl)
}
