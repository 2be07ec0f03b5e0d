package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"zonix/internal/api"
	"zonix/internal/scheduler"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the live simulation with the HTTP and WebSocket API",
		Long: `Run the district engine and the ticker tape on their schedules and serve
snapshots, indices, F&O analytics and the live tick stream.

Endpoints live under /api/v1; the tick stream is at /api/v1/ws.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = app.Config.Server.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, app, addr, !noHistory)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not archive index snapshots")

	return cmd
}

func runServe(ctx context.Context, app *App, addr string, history bool) error {
	cfg := app.Config
	logger := app.Logger

	rt, err := NewRuntime(ctx, cfg, logger, RuntimeOptions{History: history})
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.Hub.Start(ctx); err != nil {
		return err
	}
	defer rt.Hub.Stop()

	jobs := []scheduler.Job{scheduler.EngineJob(rt.Engine, cfg.Simulation.TickInterval)}
	if rt.Tape != nil {
		jobs = append(jobs, scheduler.TapeJob(rt.Tape, rt.Hub, cfg.Tape.Interval))
	}
	sched, err := scheduler.New(logger, jobs...)
	if err != nil {
		return err
	}
	sched.Start()
	defer func() {
		if err := sched.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("Scheduler shutdown failed")
		}
	}()

	server := api.NewServer(api.Deps{
		Engine:   rt.Engine,
		Analyzer: rt.Analyzer,
		Hub:      rt.Hub,
		Tape:     rt.Tape,
		History:  rt.HistoryStore(),
		Logger:   logger,
	}, api.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		RateLimit:   cfg.Server.RateLimit,
		RateBurst:   cfg.Server.RateBurst,
	})

	logger.Info().
		Str("addr", addr).
		Str("session", rt.Engine.SessionID()).
		Dur("tick", cfg.Simulation.TickInterval).
		Bool("tape", rt.Tape != nil).
		Bool("history", rt.History != nil).
		Msg("Simulation started")

	return server.Run(ctx, addr)
}
