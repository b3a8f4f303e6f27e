package mqtt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/psusim/psusim/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "psusim-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// offlineClient returns a client that never connected.
func offlineClient() *Client {
	return &Client{cfg: testConfig(), subscriptions: make(map[string]subscription)}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "sim"
	cfg.Auth.Password = "pw"

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want tcp://127.0.0.1:1883", opts.Servers)
	}
	if opts.ClientID != "psusim-test" {
		t.Errorf("ClientID = %q, want psusim-test", opts.ClientID)
	}
	if opts.Username != "sim" || opts.Password != "pw" {
		t.Errorf("credentials = %q/%q, want sim/pw", opts.Username, opts.Password)
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect = false, want true")
	}
	if opts.TLSConfig != nil {
		t.Error("TLSConfig set without TLS enabled")
	}
}

func TestBuildClientOptions_TLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := buildClientOptions(cfg)

	if opts.Servers[0].Scheme != "ssl" {
		t.Errorf("scheme = %q, want ssl", opts.Servers[0].Scheme)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("expected TLS 1.2 minimum")
	}
}

func TestStatusPayload(t *testing.T) {
	online := statusPayload("psusim", "online", "")
	if !strings.Contains(online, `"status":"online"`) || strings.Contains(online, "reason") {
		t.Errorf("online payload = %s", online)
	}

	offline := statusPayload("psusim", "offline", "graceful_shutdown")
	if !strings.Contains(offline, `"reason":"graceful_shutdown"`) {
		t.Errorf("offline payload = %s", offline)
	}
}

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on unconnected client error = %v, want nil", err)
	}
}

func TestOfflineClientValidation(t *testing.T) {
	client := offlineClient()
	noop := func(string, []byte) error { return nil }

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"publish empty topic", client.Publish("", nil, 1, false), ErrInvalidTopic},
		{"publish bad qos", client.Publish("t", nil, 3, false), ErrInvalidQoS},
		{"publish too large", client.Publish("t", make([]byte, maxPayloadSize+1), 1, false), ErrPublishFailed},
		{"publish disconnected", client.Publish("t", []byte("x"), 1, false), ErrNotConnected},
		{"subscribe empty topic", client.Subscribe("", 1, noop), ErrInvalidTopic},
		{"subscribe bad qos", client.Subscribe("t", 3, noop), ErrInvalidQoS},
		{"subscribe nil handler", client.Subscribe("t", 1, nil), ErrSubscribeFailed},
		{"subscribe disconnected", client.Subscribe("t", 1, noop), ErrNotConnected},
		{"unsubscribe empty", client.Unsubscribe(""), ErrInvalidTopic},
		{"unsubscribe disconnected", client.Unsubscribe("t"), ErrNotConnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("error = %v, want %v", tt.err, tt.want)
			}
		})
	}

	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", client.SubscriptionCount())
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() = %v, want ErrNotConnected", err)
	}
}

func TestWrapHandler_RecoversPanic(t *testing.T) {
	client := offlineClient()
	logger := &recordingLogger{}
	client.SetLogger(logger)

	h := client.wrapHandler(func(string, []byte) error { panic("boom") })
	h(nil, fakeMessage{topic: "psusim/param/ac_name"})

	if logger.errors != 1 {
		t.Errorf("logged errors = %d, want 1", logger.errors)
	}

	h = client.wrapHandler(func(string, []byte) error { return errors.New("bad") })
	h(nil, fakeMessage{topic: "psusim/param/ac_name"})
	if logger.warns != 1 {
		t.Errorf("logged warnings = %d, want 1", logger.warns)
	}
}

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}
	tests := []struct {
		got  string
		want string
	}{
		{topics.Status(), "psusim/status"},
		{topics.SupplyState("DUMMY_BAT"), "psusim/supply/DUMMY_BAT/state"},
		{topics.SupplyEvent("DUMMY_AC"), "psusim/supply/DUMMY_AC/event"},
		{topics.SupplySet("DUMMY_BAT", "capacity"), "psusim/supply/DUMMY_BAT/set/capacity"},
		{topics.Param("ac_name"), "psusim/param/ac_name"},
		{topics.AllSupplySets(), "psusim/supply/+/set/+"},
		{topics.AllParams(), "psusim/param/+"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("topic = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestParseSupplySet(t *testing.T) {
	tests := []struct {
		topic    string
		name     string
		property string
		ok       bool
	}{
		{"psusim/supply/DUMMY_BAT/set/capacity", "DUMMY_BAT", "capacity", true},
		{"psusim/supply/DUMMY_BAT/state", "", "", false},
		{"psusim/supply//set/capacity", "", "", false},
		{"other/supply/X/set/capacity", "", "", false},
	}
	for _, tt := range tests {
		name, property, ok := ParseSupplySet(tt.topic)
		if name != tt.name || property != tt.property || ok != tt.ok {
			t.Errorf("ParseSupplySet(%q) = %q, %q, %v", tt.topic, name, property, ok)
		}
	}
}

func TestParseParam(t *testing.T) {
	if key, ok := ParseParam("psusim/param/battery_name"); !ok || key != "battery_name" {
		t.Errorf("ParseParam() = %q, %v", key, ok)
	}
	if _, ok := ParseParam("psusim/param/"); ok {
		t.Error("ParseParam() accepted empty key")
	}
	if _, ok := ParseParam("psusim/param/a/b"); ok {
		t.Error("ParseParam() accepted nested key")
	}
}

type recordingLogger struct {
	errors int
	warns  int
}

func (l *recordingLogger) Error(string, ...any) { l.errors++ }
func (l *recordingLogger) Warn(string, ...any)  { l.warns++ }

// fakeMessage implements pahomqtt.Message for handler tests.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}
