package handler

import (
	"net/http"
	"strings"

	"github.com/alexjvillani/afl-assistant/internal/api/respond"
	"github.com/alexjvillani/afl-assistant/internal/identity"
	"github.com/alexjvillani/afl-assistant/internal/provider"
)

// Resolve runs one mention through the in-memory resolver without writing
// anything. Useful when curating aliases.
//
// Query: name (required), year, club.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	if h.resolver == nil {
		respond.WriteError(w, http.StatusServiceUnavailable, "RESOLVER_UNAVAILABLE", "Registry not loaded")
		return
	}

	q := r.URL.Query()
	name := q.Get("name")
	if strings.TrimSpace(name) == "" {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_NAME", "name query parameter is required")
		return
	}

	var year *int
	if raw := q.Get("year"); raw != "" {
		y, ok := provider.ExtractYear(raw)
		if !ok {
			respond.WriteError(w, http.StatusBadRequest, "INVALID_YEAR", "year must be an integer")
			return
		}
		year = &y
	}
	var club *string
	if c := strings.TrimSpace(q.Get("club")); c != "" {
		club = &c
	}

	res := h.resolver.Resolve(name, year, club)
	candidates := h.resolver.Candidates(name)
	if candidates == nil {
		candidates = []identity.PlayerRecord{}
	}
	out := map[string]interface{}{
		"raw_name":      name,
		"key":           h.resolver.Key(name),
		"match_quality": res.Quality,
		"candidates":    candidates,
		"player_id":     nil,
	}
	if res.Quality.Resolved() {
		out["player_id"] = res.PlayerID
	}
	if club != nil {
		// null tells the curator the hint gave no club evidence
		out["club_code"] = nil
		if code, ok := h.resolver.ClubCode(*club); ok {
			out["club_code"] = code
		}
	}
	respond.WriteJSONObject(w, http.StatusOK, out)
}
