package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
supply:
  ac_name: "TEST_AC"
  battery_name: "TEST_BAT"
  battery_serial_number: "SN-1"
  shutdown_grace: 1
notify:
  payload_format: "cbor"
database:
  path: "/tmp/test.db"
mqtt:
  enabled: true
  broker:
    host: "broker.local"
    port: 1883
  qos: 1
api:
  port: 9090
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Supply.ACName != "TEST_AC" {
		t.Errorf("Supply.ACName = %q, want %q", cfg.Supply.ACName, "TEST_AC")
	}
	if cfg.Supply.BatterySerialNumber != "SN-1" {
		t.Errorf("Supply.BatterySerialNumber = %q, want %q", cfg.Supply.BatterySerialNumber, "SN-1")
	}
	// Unset fields keep their defaults.
	if cfg.Supply.BatteryModelName != "Dummy battery" {
		t.Errorf("Supply.BatteryModelName = %q, want default", cfg.Supply.BatteryModelName)
	}
	if cfg.Notify.PayloadFormat != "cbor" {
		t.Errorf("Notify.PayloadFormat = %q, want cbor", cfg.Notify.PayloadFormat)
	}
	if !cfg.MQTT.Enabled || cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT = %+v, want enabled with host broker.local", cfg.MQTT)
	}
	if cfg.GetShutdownGrace() != time.Second {
		t.Errorf("GetShutdownGrace() = %v, want 1s", cfg.GetShutdownGrace())
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Supply.BatteryName != "DUMMY_BAT" {
		t.Errorf("Supply.BatteryName = %q, want DUMMY_BAT", cfg.Supply.BatteryName)
	}
	if cfg.GetShutdownGrace() != 3*time.Second {
		t.Errorf("GetShutdownGrace() = %v, want 3s", cfg.GetShutdownGrace())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
supply:
  ac_name: ""
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected validation error for empty supply.ac_name, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	validJWTSecret := "test-secret-key-at-least-32-chars!"

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "valid JWT secret", mutate: func(c *Config) { c.Security.JWT.Secret = validJWTSecret }},
		{name: "missing AC name", mutate: func(c *Config) { c.Supply.ACName = "" }, wantErr: true},
		{name: "missing battery name", mutate: func(c *Config) { c.Supply.BatteryName = "" }, wantErr: true},
		{name: "negative grace", mutate: func(c *Config) { c.Supply.ShutdownGrace = -1 }, wantErr: true},
		{name: "zero queue", mutate: func(c *Config) { c.Notify.QueueSize = 0 }, wantErr: true},
		{name: "bad payload format", mutate: func(c *Config) { c.Notify.PayloadFormat = "xml" }, wantErr: true},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "database disabled without path", mutate: func(c *Config) {
			c.Database.Enabled = false
			c.Database.Path = ""
		}},
		{name: "invalid QoS", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{name: "invalid port low", mutate: func(c *Config) { c.API.Port = 0 }, wantErr: true},
		{name: "invalid port high", mutate: func(c *Config) { c.API.Port = 70000 }, wantErr: true},
		{name: "JWT secret too short", mutate: func(c *Config) { c.Security.JWT.Secret = "short" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
		Security: SecurityConfig{JWT: JWTConfig{AccessTokenTTL: 15}},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}
	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}
	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
	if got := cfg.GetAccessTokenTTL(); got != 15*time.Minute {
		t.Errorf("GetAccessTokenTTL() = %v, want 15m", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("PSUSIM_AC_NAME", "ENV_AC")
	t.Setenv("PSUSIM_BATTERY_SERIAL_NUMBER", "ENV-SN")
	t.Setenv("PSUSIM_DATABASE_PATH", "/custom/path.db")
	t.Setenv("PSUSIM_MQTT_HOST", "mqtt.example.com")
	t.Setenv("PSUSIM_MQTT_USERNAME", "testuser")
	t.Setenv("PSUSIM_MQTT_PASSWORD", "testpass")
	t.Setenv("PSUSIM_API_HOST", "192.168.1.1")
	t.Setenv("PSUSIM_API_PORT", "9999")
	t.Setenv("PSUSIM_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("PSUSIM_LOG_LEVEL", "debug")
	t.Setenv("PSUSIM_JWT_SECRET", "jwt-secret")

	applyEnvOverrides(cfg)

	checks := []struct {
		name string
		got  string
		want string
	}{
		{"Supply.ACName", cfg.Supply.ACName, "ENV_AC"},
		{"Supply.BatterySerialNumber", cfg.Supply.BatterySerialNumber, "ENV-SN"},
		{"Database.Path", cfg.Database.Path, "/custom/path.db"},
		{"MQTT.Broker.Host", cfg.MQTT.Broker.Host, "mqtt.example.com"},
		{"MQTT.Auth.Username", cfg.MQTT.Auth.Username, "testuser"},
		{"MQTT.Auth.Password", cfg.MQTT.Auth.Password, "testpass"},
		{"API.Host", cfg.API.Host, "192.168.1.1"},
		{"InfluxDB.Token", cfg.InfluxDB.Token, "secret-token"},
		{"Logging.Level", cfg.Logging.Level, "debug"},
		{"Security.JWT.Secret", cfg.Security.JWT.Secret, "jwt-secret"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}
	if cfg.API.Port != 9999 {
		t.Errorf("API.Port = %d, want 9999", cfg.API.Port)
	}
}

func TestApplyEnvOverrides_BadPortIgnored(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("PSUSIM_API_PORT", "not-a-port")
	applyEnvOverrides(cfg)
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port = %d, want 8080", cfg.API.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Supply.ACName != "DUMMY_AC" {
		t.Errorf("defaultConfig Supply.ACName = %q, want DUMMY_AC", cfg.Supply.ACName)
	}
	if cfg.Supply.BatterySerialNumber != "" {
		t.Errorf("defaultConfig Supply.BatterySerialNumber = %q, want empty (runtime default)", cfg.Supply.BatterySerialNumber)
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.Enabled {
		t.Error("defaultConfig should leave MQTT disabled")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("defaultConfig API.Port = %d, want 8080", cfg.API.Port)
	}
}
