package pms

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

// AuthScheme selects how credentials are attached to outbound requests
type AuthScheme string

const (
	AuthNone   AuthScheme = "none"
	AuthBearer AuthScheme = "bearer"
	AuthAPIKey AuthScheme = "api_key"
	AuthBasic  AuthScheme = "basic"
)

// DefaultAPIKeyHeader is used when an API-key connection names no header
const DefaultAPIKeyHeader = "X-Api-Key"

// defaultTimeoutSeconds is the per-attempt timeout when none is configured
const defaultTimeoutSeconds = 30

// Errors for connection configuration
var (
	ErrConfigMissingBaseURL    = errors.New("pms: base URL is required")
	ErrConfigInvalidBaseURL    = errors.New("pms: base URL must be an absolute http(s) URL")
	ErrConfigMissingPropertyID = errors.New("pms: property ID is required")
	ErrConfigMissingToken      = errors.New("pms: bearer token is required")
	ErrConfigMissingAPIKey     = errors.New("pms: API key is required")
	ErrConfigMissingBasicAuth  = errors.New("pms: username and password are required")
	ErrConfigUnknownAuthScheme = errors.New("pms: unknown auth scheme")
	ErrConfigProviderMismatch  = errors.New("pms: configuration is for a different provider")
)

// AuthConfig holds the credentials for one connection
type AuthConfig struct {
	Scheme AuthScheme
	// Token is the bearer access token
	Token string
	// APIKey and APIKeyHeader are used by AuthAPIKey
	APIKey       string
	APIKeyHeader string
	// Username and Password are used by AuthBasic
	Username string
	Password string
}

// Validate checks that the credentials required by the scheme are present
func (a *AuthConfig) Validate() error {
	switch a.Scheme {
	case AuthNone:
		return nil
	case AuthBearer:
		if a.Token == "" {
			return ErrConfigMissingToken
		}
	case AuthAPIKey:
		if a.APIKey == "" {
			return ErrConfigMissingAPIKey
		}
		if a.APIKeyHeader == "" {
			a.APIKeyHeader = DefaultAPIKeyHeader
		}
	case AuthBasic:
		if a.Username == "" || a.Password == "" {
			return ErrConfigMissingBasicAuth
		}
	default:
		return ErrConfigUnknownAuthScheme
	}
	return nil
}

// Apply attaches the credentials to req
func (a AuthConfig) Apply(req *http.Request) {
	switch a.Scheme {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+a.Token)
	case AuthAPIKey:
		req.Header.Set(a.APIKeyHeader, a.APIKey)
	case AuthBasic:
		req.SetBasicAuth(a.Username, a.Password)
	}
}

// ConnectionConfig is the immutable configuration of one (hotel, provider) connection
type ConnectionConfig struct {
	Provider integration.ProviderKey
	// HotelID is the local hotel; uuid.Nil registers the connection as the provider default
	HotelID uuid.UUID
	// BaseURL is the vendor API root (REST/SOAP) or GraphQL endpoint
	BaseURL string
	// PropertyID is the vendor's identifier for the hotel
	PropertyID string
	Auth       AuthConfig
	// TimeoutSeconds is the per-attempt request timeout
	TimeoutSeconds int
	// Retry overrides the vendor's default retry policy when set
	Retry *RetryOptions
	// RateLimit overrides the vendor's declared budget when non-zero
	RateLimit integration.RateLimit
	// WebhookSecret verifies inbound webhook signatures
	WebhookSecret string
	// RetryableFaults lists SOAP fault codes retried with backoff (SOAP vendors only)
	RetryableFaults []string
}

// Validate validates the connection configuration and fills defaults
func (c *ConnectionConfig) Validate() error {
	if !c.Provider.IsValid() {
		return integration.ErrInvalidProvider
	}
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrConfigInvalidBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.PropertyID == "" {
		return ErrConfigMissingPropertyID
	}
	if c.Auth.Scheme == "" {
		c.Auth.Scheme = AuthNone
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.Retry != nil {
		c.Retry.normalize()
	}
	return nil
}

// Timeout returns the per-attempt timeout
func (c *ConnectionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// retryOr returns the configured retry policy or fallback
func (c *ConnectionConfig) retryOr(fallback RetryOptions) RetryOptions {
	if c.Retry != nil {
		return c.Retry.clone()
	}
	return fallback
}

// rateLimitOr returns the configured budget or the vendor's declared one
func (c *ConnectionConfig) rateLimitOr(declared integration.RateLimit) integration.RateLimit {
	if c.RateLimit.PerMinute > 0 || c.RateLimit.PerHour > 0 {
		return c.RateLimit
	}
	return declared
}
