// Package enrichhttp opens an enrichment scope around each HTTP request, so
// every span started by the handler carries the request's identity.
package enrichhttp

import (
	"net/http"
	"strings"

	"github.com/JailtonJunior94/otel-enrichment/pkg/enrichment"
	"github.com/JailtonJunior94/otel-enrichment/pkg/observability"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// AttributeRequestID is the span attribute holding the request ID.
	AttributeRequestID = attribute.Key("http.request.id")

	maxRequestIDLength = 128
)

// Middleware returns a net/http middleware that opens an enrichment scope for
// the lifetime of each request.
//
// The http.route attribute is resolved when a span starts, so with chi the
// pattern matched by the router is recorded even though the middleware runs
// before routing completes.
func Middleware(options ...Option) func(http.Handler) http.Handler {
	settings := defaultSettings()
	for _, option := range options {
		option(settings)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.URLPath(r.URL.Path),
			}

			if settings.requestID {
				requestID := requestIDFrom(r)
				w.Header().Set(HeaderRequestID, requestID)
				attrs = append(attrs, AttributeRequestID.String(requestID))
			}

			for _, fn := range settings.attributes {
				attrs = append(attrs, fn(r)...)
			}

			ctx, scope, err := enrichment.Begin(r.Context(), requestAction(r, attrs), settings.target)
			if err != nil {
				settings.logger.Warn(r.Context(), "failed to open request enrichment scope", observability.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			defer func() {
				if err := scope.Close(); err != nil {
					settings.logger.Warn(ctx, "failed to close request enrichment scope", observability.Error(err))
				}
			}()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestAction(r *http.Request, attrs []attribute.KeyValue) enrichment.Action {
	routing := chi.RouteContext(r.Context())

	return func(span trace.Span) {
		span.SetAttributes(attrs...)
		if routing == nil {
			return
		}
		if pattern := routing.RoutePattern(); pattern != "" {
			span.SetAttributes(semconv.HTTPRoute(pattern))
		}
	}
}

// requestIDFrom reuses the caller's request ID when present, otherwise
// generates a new one.
func requestIDFrom(r *http.Request) string {
	if id := sanitizeHeaderValue(r.Header.Get(HeaderRequestID)); id != "" {
		return id
	}
	return uuid.NewString()
}

// sanitizeHeaderValue removes CR and LF characters to prevent header injection.
func sanitizeHeaderValue(value string) string {
	value = strings.ReplaceAll(value, "\r", "")
	value = strings.ReplaceAll(value, "\n", "")
	value = strings.TrimSpace(value)
	if len(value) > maxRequestIDLength {
		value = value[:maxRequestIDLength]
	}
	return value
}
