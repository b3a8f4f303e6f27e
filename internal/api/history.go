package api

import (
	"fmt"
	"net/http"
	"strconv"
)

const maxHistoryLimit = 200

// handleGetHistory returns the journalled change events of a supply.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "change journal is disabled")
		return
	}

	d, ok := s.lookupSupply(w, r)
	if !ok {
		return
	}
	limit, err := parseHistoryLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	entries, err := s.history.History(r.Context(), d.Name(), limit)
	if err != nil {
		s.logger.Error("reading change journal failed", "supply", d.Name(), "error", err)
		writeInternalError(w, "failed to read history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"supply":  d.Name(),
		"entries": entries,
		"count":   len(entries),
	})
}

// parseHistoryLimit parses the limit query parameter. Zero means the
// journal's default.
func parseHistoryLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("invalid limit")
	}
	if limit > maxHistoryLimit {
		return 0, fmt.Errorf("limit exceeds maximum")
	}
	return limit, nil
}
