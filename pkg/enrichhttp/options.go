package enrichhttp

import (
	"net/http"

	"github.com/JailtonJunior94/otel-enrichment/pkg/enrichment"
	"github.com/JailtonJunior94/otel-enrichment/pkg/observability"
	"github.com/JailtonJunior94/otel-enrichment/pkg/observability/noop"
	"go.opentelemetry.io/otel/attribute"
)

// HeaderRequestID is the header used to read and echo the request ID.
const HeaderRequestID = "X-Request-ID"

type (
	settings struct {
		target     enrichment.Target
		attributes []AttributesFunc
		logger     observability.Logger
		requestID  bool
	}

	// Option configures the enrichment middleware.
	Option func(settings *settings)

	// AttributesFunc extracts extra span attributes from a request.
	AttributesFunc func(r *http.Request) []attribute.KeyValue
)

func defaultSettings() *settings {
	return &settings{
		target:    enrichment.AllChildren,
		logger:    noop.NewLogger(),
		requestID: true,
	}
}

// WithTarget sets which spans started while handling the request are
// enriched. Defaults to AllChildren.
func WithTarget(target enrichment.Target) Option {
	return func(settings *settings) {
		settings.target = target
	}
}

// WithAttributes adds request-derived attributes to the scope.
func WithAttributes(fn AttributesFunc) Option {
	return func(settings *settings) {
		if fn != nil {
			settings.attributes = append(settings.attributes, fn)
		}
	}
}

// WithLogger sets the logger used to report scopes that could not be opened
// or closed.
func WithLogger(logger observability.Logger) Option {
	return func(settings *settings) {
		if logger != nil {
			settings.logger = logger
		}
	}
}

// WithoutRequestID disables the request ID attribute and response header.
func WithoutRequestID() Option {
	return func(settings *settings) {
		settings.requestID = false
	}
}
