package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	zerrors "zonix/internal/errors"
	"zonix/internal/logging"
	"zonix/internal/models"
	"zonix/internal/performance"
)

func (s *Server) health(c *gin.Context) {
	snap := s.deps.Engine.Snapshot()
	resp := gin.H{
		"status":       "ok",
		"session":      snap.SessionID,
		"sequence":     snap.Sequence,
		"uptime":       time.Since(s.started).Round(time.Second).String(),
		"memory":       performance.MemoryStats(),
		"hub":          s.deps.Hub.GetMetrics(),
		"hub_running":  s.deps.Hub.IsStarted(),
		"fno_computes": s.deps.Analyzer.Computes(),
		"history":      s.deps.History != nil,
	}
	if circuit, ok := s.deps.Analyzer.CacheCircuit(); ok {
		resp["fno_cache"] = gin.H{
			"circuit":      circuit,
			"failure_rate": circuit.FailureRate(),
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) snapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Engine.Snapshot())
}

func (s *Server) nationwide(c *gin.Context) {
	snap := s.deps.Engine.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"symbol":    models.BharatSymbol,
		"sequence":  snap.Sequence,
		"timestamp": snap.Timestamp,
		"index":     snap.Nationwide,
	})
}

func (s *Server) states(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Engine.Snapshot().States)
}

func (s *Server) state(c *gin.Context) {
	code := strings.ToUpper(c.Param("code"))
	st, ok := s.deps.Engine.Snapshot().State(code)
	if !ok {
		abortWithError(c, zerrors.Wrapf(zerrors.ErrUnknownState, "state %q", code))
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) stateDistricts(c *gin.Context) {
	code := strings.ToUpper(c.Param("code"))
	snap := s.deps.Engine.Snapshot()
	if _, ok := snap.State(code); !ok {
		abortWithError(c, zerrors.Wrapf(zerrors.ErrUnknownState, "state %q", code))
		return
	}
	c.JSON(http.StatusOK, snap.DistrictsOf(code))
}

func (s *Server) districts(c *gin.Context) {
	snap := s.deps.Engine.Snapshot()
	code := strings.ToUpper(c.Query("state"))
	if code == "" {
		c.JSON(http.StatusOK, snap.Districts)
		return
	}
	if _, ok := snap.State(code); !ok {
		abortWithError(c, zerrors.Wrapf(zerrors.ErrUnknownState, "state %q", code))
		return
	}
	c.JSON(http.StatusOK, snap.DistrictsOf(code))
}

// spotFor resolves an F&O underlying to its live index value.
func spotFor(snap *models.Snapshot, symbol string) (float64, error) {
	if spot, ok := snap.Spot(symbol); ok {
		return spot, nil
	}
	return 0, zerrors.Wrapf(zerrors.ErrUnknownSymbol, "symbol %q", symbol)
}

func (s *Server) futures(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	spot, err := spotFor(s.deps.Engine.Snapshot(), symbol)
	if err != nil {
		abortWithError(c, err)
		return
	}
	chain, err := s.deps.Analyzer.Futures(c.Request.Context(), symbol, spot)
	if err != nil {
		abortWithError(c, err)
		return
	}
	log := logging.WithSymbol(logging.FromContext(c.Request.Context()), symbol)
	log.Debug().Float64("spot", spot).Int("contracts", len(chain.Contracts)).Msg("Served futures")
	c.JSON(http.StatusOK, chain)
}

func (s *Server) options(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	spot, err := spotFor(s.deps.Engine.Snapshot(), symbol)
	if err != nil {
		abortWithError(c, err)
		return
	}
	chain, err := s.deps.Analyzer.Options(c.Request.Context(), symbol, spot)
	if err != nil {
		abortWithError(c, err)
		return
	}
	log := logging.WithSymbol(logging.FromContext(c.Request.Context()), symbol)
	log.Debug().Float64("spot", spot).Float64("max_pain", chain.MaxPain).Msg("Served option chain")
	c.JSON(http.StatusOK, chain)
}

func (s *Server) tape(c *gin.Context) {
	if s.deps.Tape == nil {
		abortWithError(c, zerrors.Wrap(zerrors.ErrDataNotFound, "ticker tape disabled"))
		return
	}
	c.JSON(http.StatusOK, s.deps.Tape.Ticks())
}

func (s *Server) tapeSymbol(c *gin.Context) {
	if s.deps.Tape == nil {
		abortWithError(c, zerrors.Wrap(zerrors.ErrDataNotFound, "ticker tape disabled"))
		return
	}
	symbol := strings.ToUpper(c.Param("symbol"))
	t, ok := s.deps.Tape.Tick(symbol)
	if !ok {
		abortWithError(c, zerrors.Wrapf(zerrors.ErrUnknownSymbol, "symbol %q", symbol))
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) history(c *gin.Context) {
	if s.deps.History == nil {
		abortWithError(c, zerrors.ErrHistoryDisabled)
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			abortWithError(c, zerrors.NewValidationError("limit", raw, "must be a non-negative integer"))
			return
		}
		limit = n
	}
	points, err := s.deps.History.History(c.Request.Context(), strings.ToUpper(c.Param("symbol")), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}

func (s *Server) sessions(c *gin.Context) {
	if s.deps.History == nil {
		abortWithError(c, zerrors.ErrHistoryDisabled)
		return
	}
	sessions, err := s.deps.History.Sessions(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}
