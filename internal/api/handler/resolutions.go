package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/alexjvillani/afl-assistant/internal/api/respond"
	"github.com/alexjvillani/afl-assistant/internal/awards"
	"github.com/alexjvillani/afl-assistant/internal/cache"
	"github.com/alexjvillani/afl-assistant/internal/config"
	"github.com/alexjvillani/afl-assistant/internal/identity"
)

const (
	defaultListLimit = 500
	maxListLimit     = 5000
)

// ListAwards returns the award registry.
func (h *Handler) ListAwards(w http.ResponseWriter, r *http.Request) {
	type awardInfo struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Table       string `json:"table"`
		CountColumn string `json:"count_column"`
		Source      string `json:"source"`
	}
	out := make([]awardInfo, 0, len(config.AwardRegistry))
	for _, id := range config.AwardIDs() {
		a := config.AwardRegistry[id]
		out = append(out, awardInfo{a.ID, a.Name, a.Table, a.CountColumn, a.Source})
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{"awards": out})
}

// GetResolutions lists stored resolutions of one award, typically filtered
// to ambiguous or no_match rows for manual alias curation.
//
// Query: award (required), quality, limit.
func (h *Handler) GetResolutions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	award, ok := h.awardParam(w, q.Get("award"))
	if !ok {
		return
	}

	quality := identity.MatchQuality(q.Get("quality"))
	if quality != "" && !quality.Valid() {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_QUALITY",
			"Unknown match quality", fmt.Sprintf("want one of %v", identity.Qualities))
		return
	}

	limit := defaultListLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respond.WriteError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	ttl := cache.TTLResolutions
	entry, err := h.cache.Fetch(cache.ResolutionsKey(award.ID, string(quality), limit), ttl, func() ([]byte, error) {
		records, err := h.store.ListResolutions(r.Context(), award, awards.ListFilter{Quality: quality, Limit: limit})
		if err != nil {
			return nil, err
		}
		if records == nil {
			records = []identity.ResolutionRecord{}
		}
		return json.Marshal(map[string]interface{}{
			"award":       award.ID,
			"quality":     quality,
			"count":       len(records),
			"resolutions": records,
		})
	})
	if err != nil {
		h.logger.Error("List resolutions failed", "award", award.ID, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to read resolutions")
		return
	}
	respond.Cached(w, r, entry, ttl)
}

// awardParam resolves an award id, writing the error response on failure.
func (h *Handler) awardParam(w http.ResponseWriter, id string) (config.AwardConfig, bool) {
	if id == "" {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_AWARD", "award query parameter is required")
		return config.AwardConfig{}, false
	}
	award, err := awards.Lookup(id)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusNotFound, "UNKNOWN_AWARD", "Unknown award "+id,
			fmt.Sprintf("known awards: %v", config.AwardIDs()))
		return config.AwardConfig{}, false
	}
	return award, true
}
