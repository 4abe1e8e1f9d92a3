package client

// Config holds connection settings for one automation bridge.
type Config struct {
	// BaseURL is the bridge endpoint, e.g. http://localhost:7010.
	BaseURL string `mapstructure:"base_url" default:""`
	// Email is the platform account email.
	Email string `mapstructure:"email" default:""`
	// Password is the platform account password.
	Password string `mapstructure:"password" default:""`
	// TimeoutSeconds is the per-request timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"120"`
	// RetryMax is the number of HTTP retries for transient failures.
	RetryMax int `mapstructure:"retry_max" default:"2"`
}
