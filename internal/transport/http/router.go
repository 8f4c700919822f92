package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"certledger/internal/platform/health"
	"certledger/internal/registry/handler"
	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/platform/httputil"
	"certledger/pkg/platform/middleware/caller"
	request "certledger/pkg/platform/middleware/request"
	"certledger/pkg/platform/middleware/requesttime"
	"certledger/pkg/platform/validation"
)

// Deps are the pieces the router mounts. Metrics and MetricsHandler are
// optional; without a handler /metrics is not exposed.
type Deps struct {
	Registry       *handler.Handler
	Health         *health.Handler
	Tokens         caller.TokenValidator
	Metrics        *request.Metrics
	MetricsHandler http.Handler
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// NewRouter wires all public endpoints with middleware.
func NewRouter(d Deps) http.Handler {
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(d.Logger))
	r.Use(request.Logger(d.Logger))
	r.Use(request.LatencyMiddleware(d.Metrics))
	r.Use(request.Timeout(timeout))
	r.Use(request.ContentTypeJSON)
	r.Use(request.BodyLimit(validation.MaxBodySize))
	r.Use(requesttime.Middleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "route not found"))
	})

	d.Health.Register(r)
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}
	d.Registry.Register(r, caller.RequireCaller(d.Tokens, d.Logger))

	return r
}
