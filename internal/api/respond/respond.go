// Package respond writes the review API's JSON responses.
package respond

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/alexjvillani/afl-assistant/internal/cache"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Detail  string `json:"detail,omitempty"`
	} `json:"error"`
}

// Cached writes a cache entry, or a bare 304 when the request's
// If-None-Match already names its ETag.
func Cached(w http.ResponseWriter, r *http.Request, e cache.Entry, ttl time.Duration) {
	h := w.Header()
	h.Set("ETag", e.ETag)
	h.Set("Vary", "Accept-Encoding")
	h.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(ttl.Seconds())))
	if e.Hit {
		h.Set("X-Cache", "HIT")
	} else {
		h.Set("X-Cache", "MISS")
	}
	if cache.Matches(r.Header.Get("If-None-Match"), e.ETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	h.Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(e.Data)
}

// WriteError sends a JSON error with a machine-readable code.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteErrorDetail(w, status, code, message, "")
}

func WriteErrorDetail(w http.ResponseWriter, status int, code, message, detail string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	body.Error.Detail = detail
	w.Header().Set("Cache-Control", "no-store")
	WriteJSONObject(w, status, body)
}

// WriteJSONObject encodes v uncached.
func WriteJSONObject(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
