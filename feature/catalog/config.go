package catalog

// Config holds configuration for the Open Library client.
type Config struct {
	// BaseURL is the root of the catalog API.
	BaseURL string `mapstructure:"base_url" default:"https://openlibrary.org"`
	// RateLimitMS is the minimum wall-clock interval between consecutive
	// requests, in milliseconds, measured from completion of the previous one.
	RateLimitMS int `mapstructure:"rate_limit_ms" default:"1000"`
	// BackoffMS is the base retry backoff in milliseconds; attempt N sleeps
	// N x BackoffMS before the next try.
	BackoffMS int `mapstructure:"backoff_ms" default:"500"`
	// MaxRetries is the maximum number of attempts per request.
	MaxRetries int `mapstructure:"max_retries" default:"3"`
	// TimeoutSeconds is the per-request HTTP timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"10"`
}
