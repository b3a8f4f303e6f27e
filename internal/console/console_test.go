package console

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psusim/psusim/internal/history"
	"github.com/psusim/psusim/internal/host"
	"github.com/psusim/psusim/internal/supply"
)

type fakeHistory struct {
	entries []history.Entry
	supply  string
}

func (f *fakeHistory) History(_ context.Context, name string, limit int) ([]history.Entry, error) {
	f.supply = name
	if limit < len(f.entries) {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func newConsole(t *testing.T, hist HistoryReader) (*Console, *supply.Simulator) {
	t.Helper()
	h := host.New(host.Options{})
	sim := supply.New(h, h, supply.Options{Sleep: func(time.Duration) {}})
	require.NoError(t, sim.Start(context.Background()))
	return New(sim, hist), sim
}

func run(t *testing.T, c *Console, line string) string {
	t.Helper()
	var buf bytes.Buffer
	assert.True(t, c.Exec(context.Background(), &buf, line))
	return buf.String()
}

func TestExecQuit(t *testing.T) {
	c, _ := newConsole(t, nil)
	for _, cmd := range []string{"quit", "exit", "q", "  QUIT "} {
		assert.False(t, c.Exec(context.Background(), &bytes.Buffer{}, cmd), cmd)
	}
}

func TestExecBlankAndUnknown(t *testing.T) {
	c, _ := newConsole(t, nil)

	assert.Empty(t, run(t, c, "   "))
	assert.Contains(t, run(t, c, "frobnicate"), "Unknown command: frobnicate")
	assert.Contains(t, run(t, c, "help"), "psusim Commands")
}

func TestList(t *testing.T) {
	c, _ := newConsole(t, nil)

	out := run(t, c, "list")

	assert.Contains(t, out, "DUMMY_AC")
	assert.Contains(t, out, "Mains")
	assert.Contains(t, out, "DUMMY_BAT")
	assert.Contains(t, out, "Battery")
}

func TestShowAndGet(t *testing.T) {
	c, _ := newConsole(t, nil)

	show := run(t, c, "show DUMMY_BAT")
	assert.Contains(t, show, "model_name")
	assert.Contains(t, show, "Dummy battery")
	assert.Contains(t, show, "4 (Full)")

	assert.Equal(t, "DUMMY_BAT.capacity = 100\n", run(t, c, "get DUMMY_BAT capacity"))
	assert.Equal(t, "DUMMY_BAT.health = 1 (Good)\n", run(t, c, "get DUMMY_BAT health"))
	assert.Contains(t, run(t, c, "get DUMMY_AC capacity"), "Error:")
	assert.Contains(t, run(t, c, "get NOPE capacity"), "Error:")
	assert.Contains(t, run(t, c, "get DUMMY_BAT"), "Usage:")
}

func TestSupplyByKind(t *testing.T) {
	hist := &fakeHistory{}
	c, sim := newConsole(t, hist)
	require.NoError(t, sim.ApplyParam("battery_name", "BAT1"))

	assert.Equal(t, "BAT1.capacity = 100\n", run(t, c, "get battery capacity"))
	assert.Equal(t, "DUMMY_AC.online = 0\n", run(t, c, "set ac online 0"))
	assert.Contains(t, run(t, c, "show battery"), "Dummy battery")

	run(t, c, "history battery")
	assert.Equal(t, "BAT1", hist.supply)

	assert.Contains(t, run(t, c, "get DUMMY_BAT capacity"), "not found")
	assert.Contains(t, run(t, c, "get solar capacity"), "not found")
}

func TestSet(t *testing.T) {
	c, sim := newConsole(t, nil)

	assert.Equal(t, "DUMMY_BAT.capacity = 42\n", run(t, c, "set DUMMY_BAT capacity 42"))
	v, err := sim.Get(supply.KindBattery, supply.PropCapacity)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Int())

	assert.Contains(t, run(t, c, "set DUMMY_AC capacity 1"), "not writable")
	assert.Contains(t, run(t, c, "set DUMMY_BAT capacity lots"), "not an integer")
	assert.Contains(t, run(t, c, "set DUMMY_BAT model_name 1"), "Error:")
}

func TestParam(t *testing.T) {
	c, sim := newConsole(t, nil)

	list := run(t, c, "param")
	assert.Contains(t, list, "battery_manufacturer")
	assert.Contains(t, list, "Linux")

	assert.Equal(t, "battery_model_name = Super Cell 9000\n", run(t, c, "param battery_model_name Super Cell 9000"))
	v, err := sim.Get(supply.KindBattery, supply.PropModelName)
	require.NoError(t, err)
	assert.Equal(t, "Super Cell 9000", v.Str())

	assert.Equal(t, "ac_name = DUMMY_AC\n", run(t, c, "param ac_name"))
	assert.Contains(t, run(t, c, "param voltage"), "Error:")
	assert.Contains(t, run(t, c, "param voltage 5"), "Error:")
}

func TestHistory(t *testing.T) {
	disabled, _ := newConsole(t, nil)
	assert.Contains(t, run(t, disabled, "history DUMMY_BAT"), "disabled")

	hist := &fakeHistory{entries: []history.Entry{
		{ID: "ev-2", CreatedAt: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC), Properties: map[string]any{"capacity": 1.0}},
		{ID: "ev-1", CreatedAt: time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)},
	}}
	c, _ := newConsole(t, hist)

	out := run(t, c, "history DUMMY_BAT 1")
	assert.Contains(t, out, "ev-2")
	assert.NotContains(t, out, "ev-1")
	assert.Contains(t, run(t, c, "history DUMMY_BAT"), "ev-1")
	assert.Contains(t, run(t, c, "history DUMMY_BAT zero"), "invalid limit")
	assert.Contains(t, run(t, c, "history"), "Usage:")

	empty, _ := newConsole(t, &fakeHistory{})
	assert.Contains(t, run(t, empty, "history DUMMY_BAT"), "No events")
}

func TestStatus(t *testing.T) {
	c, sim := newConsole(t, nil)

	assert.Contains(t, run(t, c, "status"), "Simulator: up")
	sim.Shutdown()
	assert.Contains(t, run(t, c, "status"), "Simulator: down")
}

func TestParamValue(t *testing.T) {
	tests := []struct {
		line, key, want string
	}{
		{"param ac_name AC0", "ac_name", "AC0"},
		{"  p   battery_model_name  Big  Cell ", "battery_model_name", "Big  Cell"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, paramValue(tt.line, tt.key))
	}
}
