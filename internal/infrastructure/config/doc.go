// Package config handles loading and validating psusim configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (MQTT password, InfluxDB token, JWT secret) should be
//     set via environment variables
//   - Without security.jwt.secret the HTTP API accepts unauthenticated writes;
//     bind it to localhost in that case
//
// Usage:
//
//	cfg, err := config.Load("configs/psusim.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Supply.BatteryName)
package config
