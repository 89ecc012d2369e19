package config

import (
	"strings"
	"time"

	"github.com/clipsyelt-svg/Project/internal/domain/model"
)

// IntakeConfig controls URL acceptance, the submission policy and listing limits.
type IntakeConfig struct {
	// AllowedHosts is the host allow-list used by the URL validator.
	AllowedHosts []string `env:"INTAKE_ALLOWED_HOSTS" envDefault:"youtube.com,youtu.be,twitch.tv,kick.com"`

	// MaxURLLength rejects longer submissions as malformed.
	MaxURLLength int `env:"INTAKE_MAX_URL_LENGTH" envDefault:"2048"`

	// StrictHostMatch requires an exact or subdomain match instead of substring containment.
	StrictHostMatch bool `env:"INTAKE_STRICT_HOST_MATCH" envDefault:"false"`

	// RateLimit is the number of submissions allowed per client per RateWindow.
	// Zero disables the submission policy.
	RateLimit int `env:"INTAKE_RATE_LIMIT" envDefault:"0"`

	// RateWindow is the fixed window length for RateLimit.
	RateWindow time.Duration `env:"INTAKE_RATE_WINDOW" envDefault:"1m"`

	// ListDefaultLimit is used when a caller asks for no or a non-positive limit.
	ListDefaultLimit int `env:"LIST_DEFAULT_LIMIT" envDefault:"20"`

	// ListMaxLimit caps any requested limit. Values above the store's page cap are lowered to it.
	ListMaxLimit int `env:"LIST_MAX_LIMIT" envDefault:"100"`
}

// Sanitize applies guardrails to intake configuration values.
func (c *IntakeConfig) Sanitize() {
	hosts := make([]string, 0, len(c.AllowedHosts))
	for _, h := range c.AllowedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			hosts = append(hosts, h)
		}
	}
	c.AllowedHosts = hosts

	if c.MaxURLLength < 1 {
		c.MaxURLLength = 2048
	}
	if c.RateLimit < 0 {
		c.RateLimit = 0
	}
	if c.RateWindow < time.Second {
		c.RateWindow = time.Second
	}
	if c.ListMaxLimit < 1 || c.ListMaxLimit > model.MaxJobListLimit {
		c.ListMaxLimit = model.MaxJobListLimit
	}
	if c.ListDefaultLimit < 1 {
		c.ListDefaultLimit = 20
	}
	if c.ListDefaultLimit > c.ListMaxLimit {
		c.ListDefaultLimit = c.ListMaxLimit
	}
}

// RateLimitEnabled reports whether submissions are throttled.
func (c *IntakeConfig) RateLimitEnabled() bool {
	return c.RateLimit > 0
}
