package main

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psusim/psusim/internal/api"
	"github.com/psusim/psusim/internal/auth"
	"github.com/psusim/psusim/internal/infrastructure/config"
	"github.com/psusim/psusim/internal/infrastructure/logging"
	"github.com/psusim/psusim/internal/supply"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandTree(t *testing.T) {
	cmd := newRootCmd()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "console", "token", "version"} {
		assert.Contains(t, names, want)
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "psusim "+version))
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("PSUSIM_JWT_SECRET", testSecret)

	out, err := execute(t, "token", "--subject", "rig-7", "--role", "viewer")
	require.NoError(t, err)

	claims, err := auth.ParseToken(strings.TrimSpace(out), testSecret)
	require.NoError(t, err)
	assert.Equal(t, "rig-7", claims.Subject)
	assert.Equal(t, auth.RoleViewer, claims.Role)
}

func TestTokenCommandRejectsBadRole(t *testing.T) {
	t.Setenv("PSUSIM_JWT_SECRET", testSecret)

	_, err := execute(t, "token", "--role", "admin")
	assert.ErrorIs(t, err, auth.ErrInvalidRole)
}

func TestTokenCommandNeedsSecret(t *testing.T) {
	t.Setenv("PSUSIM_JWT_SECRET", "")

	_, err := execute(t, "token")
	assert.ErrorIs(t, err, errNoSecret)
}

func TestIdentityFromConfig(t *testing.T) {
	id := identityFromConfig(config.SupplyConfig{
		ACName:              "MAINS",
		BatteryName:         "BAT1",
		BatteryModelName:    "Model X",
		BatteryManufacturer: "Acme",
		BatterySerialNumber: "SN-1",
	})
	assert.Equal(t, supply.Identity{
		ACName:       "MAINS",
		BatteryName:  "BAT1",
		ModelName:    "Model X",
		Manufacturer: "Acme",
		SerialNumber: "SN-1",
	}, id)
}

func TestStackRunJournalsChanges(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Database.Enabled = true
	cfg.Database.Path = filepath.Join(t.TempDir(), "psusim.db")
	cfg.API.Enabled = false
	cfg.MQTT.Enabled = false
	cfg.InfluxDB.Enabled = false

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var slept time.Duration
	s, err := newStack(ctx, cfg, logging.Discard(), stackOptions{
		sleep: func(d time.Duration) { slept = d },
	})
	require.NoError(t, err)
	defer s.close()
	require.NotNil(t, s.journal)

	err = s.run(ctx, func(ctx context.Context, _ context.CancelFunc) error {
		assert.True(t, s.sim.Initialized())
		return s.sim.Write(supply.KindBattery, supply.PropCapacity, 42)
	})
	require.NoError(t, err)

	assert.False(t, s.sim.Initialized())
	assert.Equal(t, cfg.GetShutdownGrace(), slept)
	assert.Empty(t, s.host.Registered())

	entries, err := s.journal.History(ctx, cfg.Supply.BatteryName, 10)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(entries), 2)

	// Newest first: the shutdown event, then the capacity write.
	assert.EqualValues(t, 0, entries[0].Properties["online"])
	assert.EqualValues(t, 42, entries[1].Properties["capacity"])
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestStackRunDeliversShutdownToWebSocket(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Database.Enabled = false
	cfg.MQTT.Enabled = false
	cfg.InfluxDB.Enabled = false
	cfg.API.Enabled = true
	cfg.API.Host = "127.0.0.1"
	cfg.API.Port = freePort(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := newStack(ctx, cfg, logging.Discard(), stackOptions{sleep: func(time.Duration) {}})
	require.NoError(t, err)
	defer s.close()

	url := fmt.Sprintf("ws://127.0.0.1:%d/api/v1/ws", cfg.API.Port)
	var ws *websocket.Conn
	err = s.run(ctx, func(ctx context.Context, _ context.CancelFunc) error {
		require.Eventually(t, func() bool {
			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			if err != nil {
				return false
			}
			ws = conn
			return true
		}, 5*time.Second, 20*time.Millisecond)

		require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
		require.NoError(t, ws.WriteJSON(api.WSRequest{Type: api.WSTypeWatch, Supplies: []string{"battery"}}))
		var ack api.WSMessage
		require.NoError(t, ws.ReadJSON(&ack))
		require.Equal(t, api.WSTypeAck, ack.Type)
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, ws)
	defer ws.Close()

	var ev api.WSMessage
	require.NoError(t, ws.ReadJSON(&ev), "the offline event arrives before the connection closes")
	assert.Equal(t, api.ChannelSupplyChanged, ev.Type)
	require.NotNil(t, ev.Event)
	assert.Equal(t, cfg.Supply.BatteryName, ev.Event.Supply)
	assert.EqualValues(t, 0, ev.Event.Properties["online"])
	assert.EqualValues(t, supply.StatusDischarging, ev.Event.Properties["status"])

	_, _, err = ws.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestNewStackFailsOnUnusableDatabasePath(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	// The parent "directory" is a regular file.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	cfg.Database.Path = filepath.Join(blocker, "psusim.db")
	cfg.API.Enabled = false

	_, err = newStack(context.Background(), cfg, logging.Discard(), stackOptions{})
	assert.Error(t, err)
}
