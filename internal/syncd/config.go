package syncd

import (
	"fmt"
	"time"
)

// Config holds the syncd server settings.
type Config struct {
	Address           string   // listen address
	DatabasePath      string   // path to the server's sqlite database
	TokenHashes       []string // bcrypt hashes of accepted device tokens
	RateLimitCount    int      // requests per interval per IP
	RateLimitInterval Duration // rate limit window
}

// Duration wraps time.Duration so TOML accepts "30s" style strings.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func GetDefaultConfig_Toml() string {
	return fmt.Sprintf(`Address=":5080"            # Listen address for the sync API
DatabasePath="syncd.db"    # Path to the server database
TokenHashes=[]             # bcrypt hashes of accepted device tokens (see 'gridsync hash-token')
RateLimitCount=%d          # Requests per interval per IP
RateLimitInterval="%s"     # Rate limit window
`, defaultRateCount, defaultRateInterval)
}

const (
	defaultRateCount    = 120
	defaultRateInterval = 30 * time.Second
)

func (c *Config) withDefaults() Config {
	out := *c
	if out.Address == "" {
		out.Address = ":5080"
	}
	if out.DatabasePath == "" {
		out.DatabasePath = "syncd.db"
	}
	if out.RateLimitCount <= 0 {
		out.RateLimitCount = defaultRateCount
	}
	if out.RateLimitInterval <= 0 {
		out.RateLimitInterval = Duration(defaultRateInterval)
	}
	return out
}
