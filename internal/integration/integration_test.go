// Package integration provides end-to-end tests of a live simulation session:
// scheduler, engine, hub, API and history archive running together.
package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"zonix/internal/api"
	"zonix/internal/cli"
	"zonix/internal/config"
	"zonix/internal/models"
	"zonix/internal/scheduler"
)

type session struct {
	rt     *cli.Runtime
	sched  *scheduler.Scheduler
	server *httptest.Server
	cancel context.CancelFunc
}

func startSession(t *testing.T) *session {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Simulation.Seed = 42
	cfg.Simulation.TickInterval = 20 * time.Millisecond
	cfg.Tape.Enabled = true
	cfg.Tape.Interval = 20 * time.Millisecond
	cfg.History.Enabled = true
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")
	cfg.History.BatchSize = 4

	ctx, cancel := context.WithCancel(context.Background())
	rt, err := cli.NewRuntime(ctx, cfg, zerolog.Nop(), cli.RuntimeOptions{History: true})
	if err != nil {
		cancel()
		t.Fatalf("Failed to build runtime: %v", err)
	}
	if err := rt.Hub.Start(ctx); err != nil {
		t.Fatalf("Failed to start hub: %v", err)
	}

	sched, err := scheduler.New(zerolog.Nop(),
		scheduler.EngineJob(rt.Engine, cfg.Simulation.TickInterval),
		scheduler.TapeJob(rt.Tape, rt.Hub, cfg.Tape.Interval),
	)
	if err != nil {
		t.Fatalf("Failed to create scheduler: %v", err)
	}

	server := api.NewServer(api.Deps{
		Engine:   rt.Engine,
		Analyzer: rt.Analyzer,
		Hub:      rt.Hub,
		Tape:     rt.Tape,
		History:  rt.HistoryStore(),
		Logger:   zerolog.Nop(),
	}, api.DefaultOptions())

	s := &session{rt: rt, sched: sched, server: httptest.NewServer(server.Handler()), cancel: cancel}
	t.Cleanup(s.stop)
	return s
}

func (s *session) stop() {
	_ = s.sched.Shutdown()
	s.server.Close()
	s.rt.Hub.Stop()
	_ = s.rt.Close()
	s.cancel()
}

func (s *session) getJSON(t *testing.T, path string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(s.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// TestLiveSession runs the scheduled engine and checks that every surface
// reflects the same evolving market.
func TestLiveSession(t *testing.T) {
	s := startSession(t)

	wsURL := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial WebSocket: %v", err)
	}
	defer conn.Close()

	var hello api.Message
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&hello); err != nil || hello.Type != "hello" {
		t.Fatalf("Expected hello, got %+v (%v)", hello, err)
	}

	s.sched.Start()

	// Both the district engine and the tape reach the stream.
	seen := map[models.InstrumentKind]bool{}
	for !(seen[models.KindNationwide] && seen[models.KindState] && seen[models.KindMutualFund]) {
		var msg api.Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("Stream ended early: %v (seen %v)", err, seen)
		}
		if msg.Type == "tick" && msg.Tick != nil {
			seen[msg.Tick.Kind] = true
		}
	}

	waitFor(t, 5*time.Second, "engine steps", func() bool {
		return s.rt.Engine.Snapshot().Sequence >= 5
	})

	var snap models.Snapshot
	if code := s.getJSON(t, "/api/v1/snapshot", &snap); code != http.StatusOK {
		t.Fatalf("snapshot status %d", code)
	}
	if snap.SessionID != hello.Session {
		t.Errorf("snapshot session %s, stream session %s", snap.SessionID, hello.Session)
	}
	bounds := s.rt.Engine.Config().Bounds
	for _, d := range snap.Districts {
		if d.Price < bounds.Min || d.Price > bounds.Max {
			t.Errorf("district %s/%s price %.2f outside band", d.StateCode, d.Name, d.Price)
		}
	}

	var chain models.OptionChain
	if code := s.getJSON(t, "/api/v1/fno/BHARAT/options", &chain); code != http.StatusOK {
		t.Fatalf("options status %d", code)
	}
	if len(chain.Strikes) != 11 {
		t.Errorf("expected 11 strikes, got %d", len(chain.Strikes))
	}
	if chain.MaxPain < chain.Strikes[0].Strike || chain.MaxPain > chain.Strikes[10].Strike {
		t.Errorf("max pain %.2f outside chain", chain.MaxPain)
	}

	if err := s.sched.Shutdown(); err != nil {
		t.Fatalf("Scheduler shutdown: %v", err)
	}
	if err := s.rt.History.Flush(); err != nil {
		t.Fatalf("History flush: %v", err)
	}

	var points []map[string]interface{}
	if code := s.getJSON(t, "/api/v1/history/BHARAT?limit=1000", &points); code != http.StatusOK {
		t.Fatalf("history status %d", code)
	}
	if uint64(len(points)) != s.rt.Engine.Snapshot().Sequence {
		t.Errorf("archived %d points, engine ran %d steps", len(points), s.rt.Engine.Snapshot().Sequence)
	}
}

// TestSchedulerShutdownStopsEngine checks no step runs after shutdown.
func TestSchedulerShutdownStopsEngine(t *testing.T) {
	s := startSession(t)
	s.sched.Start()

	waitFor(t, 5*time.Second, "first step", func() bool {
		return s.rt.Engine.Snapshot().Sequence >= 1
	})
	if err := s.sched.Shutdown(); err != nil {
		t.Fatalf("Scheduler shutdown: %v", err)
	}

	seq := s.rt.Engine.Snapshot().Sequence
	time.Sleep(100 * time.Millisecond)
	if got := s.rt.Engine.Snapshot().Sequence; got != seq {
		t.Errorf("engine advanced from %d to %d after shutdown", seq, got)
	}
}
