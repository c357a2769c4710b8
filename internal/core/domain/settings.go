package domain

import (
	"fmt"
	"net/url"
	"time"
)

// Default client settings.
const (
	DefaultAPIURL            = "http://localhost:8080"
	DefaultAPITimeout        = 30 * time.Second
	DefaultRequestsPerSecond = 5.0
	DefaultPollInterval      = time.Second
	DefaultJobTimeout        = 3600 * time.Second
)

// ClientSettings configure how the client talks to the remote API.
type ClientSettings struct {
	// APIURL is the base URL of the remote analysis API.
	APIURL string

	// APITimeout bounds a single HTTP request.
	APITimeout time.Duration

	// RequestsPerSecond throttles outgoing requests.
	RequestsPerSecond float64

	// PollInterval is the period between status polls.
	PollInterval time.Duration

	// JobTimeout is the ceiling after which a job is marked timed out.
	JobTimeout time.Duration

	// ContextWindowSize is the default slide memory for new jobs.
	ContextWindowSize int

	// Username is the default account used for login.
	Username string

	// LogFile receives JSON logs when set.
	LogFile string
}

// DefaultClientSettings returns sensible defaults.
func DefaultClientSettings() ClientSettings {
	return ClientSettings{
		APIURL:            DefaultAPIURL,
		APITimeout:        DefaultAPITimeout,
		RequestsPerSecond: DefaultRequestsPerSecond,
		PollInterval:      DefaultPollInterval,
		JobTimeout:        DefaultJobTimeout,
		ContextWindowSize: DefaultContextWindowSize,
	}
}

// Validate checks the settings for consistency.
func (s ClientSettings) Validate() error {
	u, err := url.Parse(s.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: api url must be an absolute http(s) URL, got %q", ErrInvalidInput, s.APIURL)
	}
	if s.APITimeout <= 0 {
		return fmt.Errorf("%w: api timeout must be positive", ErrInvalidInput)
	}
	if s.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: requests per second must be positive", ErrInvalidInput)
	}
	if s.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", ErrInvalidInput)
	}
	if s.JobTimeout < s.PollInterval {
		return fmt.Errorf("%w: job timeout must not be shorter than the poll interval", ErrInvalidInput)
	}
	if s.ContextWindowSize < MinContextWindowSize || s.ContextWindowSize > MaxContextWindowSize {
		return fmt.Errorf("%w: context window size must be between %d and %d",
			ErrInvalidInput, MinContextWindowSize, MaxContextWindowSize)
	}
	return nil
}
