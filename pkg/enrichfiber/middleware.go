// Package enrichfiber opens an enrichment scope around each Fiber request.
// Handlers must start spans from c.UserContext() to be enriched.
package enrichfiber

import (
	"github.com/JailtonJunior94/otel-enrichment/pkg/enrichment"
	"github.com/JailtonJunior94/otel-enrichment/pkg/observability"
	"github.com/JailtonJunior94/otel-enrichment/pkg/observability/noop"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// HeaderRequestID is the header used to read and echo the request ID.
	HeaderRequestID = "X-Request-ID"
	// LocalsRequestID is the key for storing the request ID in Fiber locals.
	LocalsRequestID = "request-id"
	// AttributeRequestID is the span attribute holding the request ID.
	AttributeRequestID = attribute.Key("http.request.id")
)

// Config defines the config for the enrichment middleware.
type Config struct {
	// Next skips the middleware when it returns true.
	Next func(c *fiber.Ctx) bool
	// Target selects which spans are enriched. Defaults to AllChildren.
	Target enrichment.Target
	// Attributes adds request-derived attributes to the scope.
	Attributes func(c *fiber.Ctx) []attribute.KeyValue
	// Logger reports scopes that could not be opened or closed.
	Logger observability.Logger
}

// ConfigDefault is the default config.
var ConfigDefault = Config{
	Target: enrichment.AllChildren,
}

// configDefault fills the fields left unset in the caller's config.
func configDefault(config ...Config) Config {
	if len(config) < 1 {
		cfg := ConfigDefault
		cfg.Logger = noop.NewLogger()
		return cfg
	}

	cfg := config[0]
	if cfg.Target == 0 {
		cfg.Target = ConfigDefault.Target
	}
	if cfg.Logger == nil {
		cfg.Logger = noop.NewLogger()
	}
	return cfg
}

// New creates the enrichment middleware.
func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		requestID := requestIDFrom(c)
		c.Set(HeaderRequestID, requestID)
		c.Locals(LocalsRequestID, requestID)

		attrs := []attribute.KeyValue{
			semconv.HTTPRequestMethodKey.String(utils.CopyString(c.Method())),
			semconv.URLPath(utils.CopyString(c.Path())),
			AttributeRequestID.String(requestID),
		}
		if cfg.Attributes != nil {
			attrs = append(attrs, cfg.Attributes(c)...)
		}

		userCtx := c.UserContext()
		ctx, scope, err := enrichment.Begin(userCtx, requestAction(c, attrs), cfg.Target)
		if err != nil {
			cfg.Logger.Warn(userCtx, "failed to open request enrichment scope", observability.Error(err))
			return c.Next()
		}
		defer func() {
			if err := scope.Close(); err != nil {
				cfg.Logger.Warn(ctx, "failed to close request enrichment scope", observability.Error(err))
			}
		}()

		c.SetUserContext(ctx)
		return c.Next()
	}
}

// GetRequestID returns the request ID stored by the middleware.
func GetRequestID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	requestID, _ := c.Locals(LocalsRequestID).(string)
	return requestID
}

func requestAction(c *fiber.Ctx, attrs []attribute.KeyValue) enrichment.Action {
	return func(span trace.Span) {
		span.SetAttributes(attrs...)
		if route := c.Route(); route != nil && route.Path != "" {
			span.SetAttributes(semconv.HTTPRoute(route.Path))
		}
	}
}

func requestIDFrom(c *fiber.Ctx) string {
	if id := c.Get(HeaderRequestID); id != "" && len(id) <= 128 && utils.Trim(id, ' ') == id {
		return utils.CopyString(id)
	}
	return uuid.NewString()
}
