package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/psusim/psusim/internal/supply"
)

// maxPathParamLen limits path parameter length.
const maxPathParamLen = 256

// supplyView is the JSON form of a supply.
type supplyView struct {
	Name       string         `json:"name"`
	Kind       supply.Kind    `json:"kind"`
	Type       string         `json:"type"`
	SuppliedTo []string       `json:"supplied_to"`
	Properties []string       `json:"properties"`
	Writable   []string       `json:"writable"`
	Values     map[string]any `json:"values,omitempty"`
}

// propertyView is the JSON form of one property reading.
type propertyView struct {
	Supply      string `json:"supply"`
	Property    string `json:"property"`
	Value       any    `json:"value"`
	Description string `json:"description,omitempty"`
	Writable    bool   `json:"writable"`
}

// setPropertyRequest is the body of PUT .../properties/{property}.
type setPropertyRequest struct {
	Value *int64 `json:"value"`
}

func newSupplyView(d *supply.Device, withValues bool) supplyView {
	v := supplyView{
		Name:       d.Name(),
		Kind:       d.Kind(),
		Type:       d.Kind().Type(),
		SuppliedTo: d.SuppliedTo(),
		Properties: propertyNames(d.Properties()),
		Writable:   propertyNames(d.Writable()),
	}
	if v.SuppliedTo == nil {
		v.SuppliedTo = []string{}
	}
	if withValues {
		v.Values = make(map[string]any, len(v.Properties))
		for _, r := range d.Snapshot() {
			v.Values[string(r.Property)] = r.Value.Any()
		}
	}
	return v
}

func propertyNames(props []supply.Property) []string {
	names := make([]string, len(props))
	for i, p := range props {
		names[i] = string(p)
	}
	return names
}

func newPropertyView(d *supply.Device, p supply.Property, val supply.Value) propertyView {
	pv := propertyView{
		Supply:   d.Name(),
		Property: string(p),
		Value:    val.Any(),
		Writable: supply.IsWritable(d.Kind(), p),
	}
	if !val.IsString() {
		pv.Description = supply.Describe(p, val.Int())
	}
	return pv
}

// handleListSupplies lists every supply with its property lists.
func (s *Server) handleListSupplies(w http.ResponseWriter, _ *http.Request) {
	devices := s.sim.Devices()
	views := make([]supplyView, 0, len(devices))
	for _, d := range devices {
		views = append(views, newSupplyView(d, false))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"supplies": views,
		"count":    len(views),
	})
}

// handleGetSupply returns one supply with its current values.
func (s *Server) handleGetSupply(w http.ResponseWriter, r *http.Request) {
	d, ok := s.lookupSupply(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSupplyView(d, true))
}

// handleGetProperty reads one property.
func (s *Server) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	d, p, ok := s.lookupProperty(w, r)
	if !ok {
		return
	}
	val, err := d.Get(p)
	if err != nil {
		writeSupplyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPropertyView(d, p, val))
}

// handleSetProperty writes one property through the access policy.
func (s *Server) handleSetProperty(w http.ResponseWriter, r *http.Request) {
	d, p, ok := s.lookupProperty(w, r)
	if !ok {
		return
	}

	var req setPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Value == nil {
		writeBadRequest(w, "value is required")
		return
	}

	if err := s.sim.Write(d.Kind(), p, *req.Value); err != nil {
		writeSupplyError(w, err)
		return
	}
	s.logger.Info("property written",
		"supply", d.Name(),
		"property", p,
		"value", *req.Value,
		"caller", callerFromContext(r.Context()),
	)

	val, err := d.Get(p)
	if err != nil {
		writeSupplyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPropertyView(d, p, val))
}

func (s *Server) lookupSupply(w http.ResponseWriter, r *http.Request) (*supply.Device, bool) {
	name := chi.URLParam(r, "name")
	if name == "" || len(name) > maxPathParamLen {
		writeBadRequest(w, "invalid supply name")
		return nil, false
	}
	d, err := s.sim.LookupByName(name)
	if err != nil {
		writeSupplyError(w, err)
		return nil, false
	}
	return d, true
}

func (s *Server) lookupProperty(w http.ResponseWriter, r *http.Request) (*supply.Device, supply.Property, bool) {
	d, ok := s.lookupSupply(w, r)
	if !ok {
		return nil, "", false
	}
	p, err := supply.ParseProperty(chi.URLParam(r, "property"))
	if err != nil {
		writeSupplyError(w, err)
		return nil, "", false
	}
	return d, p, true
}
