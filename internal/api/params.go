package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/psusim/psusim/internal/supply"
)

// paramView is the JSON form of a configuration parameter.
type paramView struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description"`
	Target      string `json:"target"`
}

// setParamRequest is the body of PUT /params/{key}.
type setParamRequest struct {
	Value *string `json:"value"`
}

func newParamView(p supply.Param, value string) paramView {
	return paramView{
		Key:         string(p),
		Value:       value,
		Description: p.Description(),
		Target:      string(p.Target()),
	}
}

// handleListParams lists every configuration parameter.
func (s *Server) handleListParams(w http.ResponseWriter, _ *http.Request) {
	values := s.sim.ParamValues()
	views := make([]paramView, 0, len(values))
	for _, p := range supply.Params() {
		views = append(views, newParamView(p, values[p]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"params": views})
}

// handleGetParam returns one configuration parameter.
func (s *Server) handleGetParam(w http.ResponseWriter, r *http.Request) {
	p, err := supply.ParseParam(chi.URLParam(r, "key"))
	if err != nil {
		writeSupplyError(w, err)
		return
	}
	value, err := s.sim.Param(string(p))
	if err != nil {
		writeSupplyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newParamView(p, value))
}

// handleSetParam applies a configuration update.
func (s *Server) handleSetParam(w http.ResponseWriter, r *http.Request) {
	p, err := supply.ParseParam(chi.URLParam(r, "key"))
	if err != nil {
		writeSupplyError(w, err)
		return
	}

	var req setParamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Value == nil {
		writeBadRequest(w, "value is required")
		return
	}

	if err := s.sim.ApplyParam(string(p), *req.Value); err != nil {
		writeSupplyError(w, err)
		return
	}
	s.logger.Info("parameter updated", "param", p, "caller", callerFromContext(r.Context()))

	value, err := s.sim.Param(string(p))
	if err != nil {
		writeSupplyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newParamView(p, value))
}
