package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/snarg/callengine/internal/config"
	"github.com/snarg/callengine/internal/database"
	"github.com/snarg/callengine/internal/jobqueue"
	"github.com/snarg/callengine/internal/mediastream"
	"github.com/snarg/callengine/internal/metrics"
	"github.com/snarg/callengine/internal/orchestrator"
)

// Server is the HTTP front door: the initiate API, the carrier webhooks,
// the optional realtime media stream, and process health/metrics.
type Server struct {
	http *http.Server
	log  zerolog.Logger
}

// ServerOptions are the dependencies NewServer wires into routes.
type ServerOptions struct {
	Config    *config.Config
	DB        *database.DB
	Queue     *jobqueue.Queue
	Orch      *orchestrator.Orchestrator
	Version   string
	StartTime time.Time
	Log       zerolog.Logger
}

func NewServer(opts ServerOptions) *Server {
	r := chi.NewRouter()

	var corsOrigins []string
	if opts.Config.CORSOrigins != "" {
		for _, o := range strings.Split(opts.Config.CORSOrigins, ",") {
			if s := strings.TrimSpace(o); s != "" {
				corsOrigins = append(corsOrigins, s)
			}
		}
	}

	r.Use(RequestID)
	r.Use(CORSWithOrigins(corsOrigins))
	r.Use(RateLimiter(opts.Config.RateLimitRPS, opts.Config.RateLimitBurst))
	r.Use(Recoverer)
	r.Use(Logger(opts.Log))

	// Unauthenticated: health and metrics, like the teacher's convention.
	health := NewHealthHandler(opts.DB, opts.Queue, opts.Version, opts.StartTime)
	r.Get("/healthz", health.ServeHTTP)
	if opts.Config.MetricsEnabled {
		r.Get("/metrics", promhttp.Handler().ServeHTTP)
	}

	// Carrier webhooks: no bearer auth (the carrier doesn't hold our
	// tokens), but not left wide open either — callId path segments are
	// unguessable UUIDs, matching spec §6/§7's protocol-error handling
	// (malformed or unknown call-id gets safe markup, not a 401).
	webhooks := NewWebhookHandler(opts.Orch, opts.Log)
	r.Group(func(r chi.Router) {
		if opts.Config.MetricsEnabled {
			r.Use(metrics.InstrumentHandler)
		}
		webhooks.Routes(r)
	})

	if opts.Config.MediaStreamEnabled {
		msHandler := mediastream.New(opts.Orch, opts.Log)
		mountMediaStream(r, msHandler)
	}

	// Initiator-facing API: bearer auth, write-token-gated, rate limited
	// by the global middleware above.
	r.Group(func(r chi.Router) {
		r.Use(MaxBodySize(1 << 20))
		if opts.Config.MetricsEnabled {
			r.Use(metrics.InstrumentHandler)
		}
		r.Use(BearerAuth(opts.Config.AuthToken, opts.Config.WriteToken))
		r.Use(WriteAuth(opts.Config.WriteToken))
		// Not opts.Config.WriteTimeout: that's 0 by design so webhook/WS
		// connections stay open. The initiate API is a normal synchronous
		// request and needs its own bound.
		r.Use(ResponseTimeout(opts.Config.ResponseSoftTimeout))

		NewInitiateHandler(opts.Orch, opts.Log).Routes(r)
	})

	srv := &http.Server{
		Addr:        opts.Config.HTTPAddr,
		Handler:     r,
		ReadTimeout: opts.Config.ReadTimeout,
		IdleTimeout: opts.Config.IdleTimeout,
		// Unbounded write timeout: webhook connections and the realtime
		// media-stream WebSocket are long-lived.
		WriteTimeout: 0,
	}

	return &Server{http: srv, log: opts.Log}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
