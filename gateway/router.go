package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pullmarket/gateway/middleware"
)

// Config assembles the public HTTP surface: a health probe, the Prometheus
// scrape endpoint and the rate-limited JSON-RPC mount.
type Config struct {
	RPCHandler  http.Handler
	RateLimiter *middleware.RateLimiter
}

// New builds the gateway router.
func New(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", promhttp.Handler())

	if cfg.RPCHandler != nil {
		rpcHandler := cfg.RPCHandler
		if cfg.RateLimiter != nil {
			rpcHandler = cfg.RateLimiter.Middleware()(rpcHandler)
		}
		r.Handle("/rpc", rpcHandler)
	}

	return r
}
