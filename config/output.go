package config

import "fmt"

// OutputConfig selects the report files written after an allocation.
type OutputConfig struct {
	// Dir receives pharmacies.csv, assignments.csv and the optional extras.
	Dir    string `json:"dir"`
	Header bool   `json:"header"`
	JSON   bool   `json:"json"`
	Chart  bool   `json:"chart"`
}

// SetDefaults applies sane defaults.
func (c *OutputConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "."
	}
}

// HTTPConfig defines the API listener.
type HTTPConfig struct {
	Addr                string `json:"addr"`
	ReadTimeoutSeconds  int    `json:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `json:"write_timeout_seconds"`
	// MaxBodyMB bounds the size of allocation requests.
	MaxBodyMB int `json:"max_body_mb"`
	// Token, when set, is required as "Bearer <token>" on every request.
	Token string `json:"token"`
}

// SetDefaults applies sane defaults.
func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ReadTimeoutSeconds == 0 {
		c.ReadTimeoutSeconds = 30
	}
	if c.WriteTimeoutSeconds == 0 {
		c.WriteTimeoutSeconds = 120
	}
	if c.MaxBodyMB == 0 {
		c.MaxBodyMB = 32
	}
}

// Validate checks mandatory fields.
func (c HTTPConfig) Validate() error {
	if c.ReadTimeoutSeconds < 0 || c.WriteTimeoutSeconds < 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.MaxBodyMB < 0 {
		return fmt.Errorf("max_body_mb must be positive")
	}
	return nil
}
