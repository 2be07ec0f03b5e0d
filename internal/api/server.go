// Package api exposes the simulation over HTTP and a WebSocket tick stream.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"zonix/internal/fno"
	"zonix/internal/market"
	"zonix/internal/performance"
	"zonix/internal/store"
	"zonix/internal/stream"
	"zonix/internal/tape"
)

// Deps are the components the API reads from. Tape and History are optional.
type Deps struct {
	Engine   *market.Engine
	Analyzer *fno.Analyzer
	Hub      *stream.Hub
	Tape     *tape.Tape
	History  store.HistoryStore
	Logger   zerolog.Logger
}

// Options configures the HTTP surface.
type Options struct {
	CORSOrigins []string
	// RateLimit and RateBurst bound the F&O endpoints, which regenerate
	// analytics on a cache miss.
	RateLimit float64
	RateBurst int
}

// DefaultOptions returns permissive CORS and the default F&O rate limit.
func DefaultOptions() Options {
	return Options{CORSOrigins: []string{"*"}, RateLimit: 20, RateBurst: 40}
}

// Server serves the REST and WebSocket API.
type Server struct {
	deps    Deps
	opts    Options
	logger  zerolog.Logger
	limiter *performance.RateLimiter
	router  *gin.Engine
	started time.Time
}

// NewServer builds the router. Engine, Analyzer and Hub are required.
func NewServer(deps Deps, opts Options) *Server {
	if opts.RateLimit <= 0 || opts.RateBurst < 1 {
		d := DefaultOptions()
		opts.RateLimit, opts.RateBurst = d.RateLimit, d.RateBurst
	}
	s := &Server{
		deps:    deps,
		opts:    opts,
		logger:  deps.Logger.With().Str("component", "api").Logger(),
		limiter: performance.NewRateLimiter(opts.RateLimit, opts.RateBurst),
		started: time.Now(),
	}
	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.logger))
	router.Use(cors.New(corsConfig(s.opts.CORSOrigins)))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ZONIX simulation API is running"})
	})

	v1 := router.Group("/api/v1")
	v1.GET("/health", s.health)
	v1.GET("/snapshot", s.snapshot)
	v1.GET("/nationwide", s.nationwide)
	v1.GET("/states", s.states)
	v1.GET("/states/:code", s.state)
	v1.GET("/states/:code/districts", s.stateDistricts)
	v1.GET("/districts", s.districts)
	v1.GET("/tape", s.tape)
	v1.GET("/tape/:symbol", s.tapeSymbol)
	v1.GET("/history", s.sessions)
	v1.GET("/history/:symbol", s.history)
	v1.GET("/ws", s.ws)

	fnoGroup := v1.Group("/fno/:symbol", rateLimit(s.limiter))
	fnoGroup.GET("/futures", s.futures)
	fnoGroup.GET("/options", s.options)

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info().Msg("API stopped")
	return nil
}
