package config

import (
	"strings"
	"time"
)

const (
	apiURLVar      = "PROMPTSTUDIO_API_URL"
	httpTimeoutVar = "PROMPTSTUDIO_HTTP_TIMEOUT"
)

type APIConfig interface {
	GetAPIBaseURL() string
	GetHTTPTimeout() time.Duration
}

type API struct{}

var _ APIConfig = API{}

func (API) GetAPIBaseURL() string {
	return strings.TrimRight(GetEnv(apiURLVar, "http://localhost:5119"), "/")
}

// GetHTTPTimeout is zero unless configured, leaving deadlines to the transport
// and the caller's context.
func (API) GetHTTPTimeout() time.Duration {
	return GetEnvDuration(httpTimeoutVar, 0)
}
