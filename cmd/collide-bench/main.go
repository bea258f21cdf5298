// cmd/collide-bench/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/opd-ai/go-collide/pkg/api"
	"github.com/opd-ai/go-collide/pkg/config"
	"github.com/opd-ai/go-collide/pkg/debugdraw"
	"github.com/opd-ai/go-collide/pkg/event"
	"github.com/opd-ai/go-collide/pkg/health"
	"github.com/opd-ai/go-collide/pkg/logging"
	"github.com/opd-ai/go-collide/pkg/metrics"
	"github.com/opd-ai/go-collide/pkg/world"
)

type options struct {
	configPath    string
	createDefault bool
	preset        string
	bodies        int
	steps         int
	seed          int64
	pngPath       string
	serveAddr     string
	stepRate      float64
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("collide-bench", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "collide.yaml", "Path to configuration file (.yaml, .yml or .json)")
	fs.BoolVar(&o.createDefault, "default", false, "Create default configuration file and exit")
	fs.StringVar(&o.preset, "preset", "", "Apply a named preset (arena, crowd, open_world)")
	fs.IntVar(&o.bodies, "bodies", 1000, "Number of random bodies")
	fs.IntVar(&o.steps, "steps", 100, "Number of steps to run")
	fs.Int64Var(&o.seed, "seed", 1, "Random seed for the scene")
	fs.StringVar(&o.pngPath, "png", "", "Write a snapshot of the final step to this PNG file")
	fs.StringVar(&o.serveAddr, "serve", "", "Serve the API on this address and keep stepping until interrupted")
	fs.Float64Var(&o.stepRate, "rate", 60, "Steps per second in serve mode")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.bodies < 0 || o.steps < 0 {
		return o, errors.New("bodies and steps must not be negative")
	}
	if o.stepRate <= 0 {
		return o, errors.New("rate must be positive")
	}
	return o, nil
}

func main() {
	logger := logging.NewLogger()
	ctx := context.Background()

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logger.Error(ctx, "Invalid arguments", err)
		os.Exit(2)
	}

	if opts.createDefault {
		if err := config.SaveConfig(config.DefaultConfig(), opts.configPath); err != nil {
			logger.Error(ctx, "Failed to create default configuration", err,
				"config_path", opts.configPath,
			)
			os.Exit(1)
		}
		logger.Info(ctx, "Created default configuration file",
			"config_path", opts.configPath,
		)
		return
	}

	cfg, err := loadConfig(ctx, logger, opts)
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", err,
			"config_path", opts.configPath,
		)
		os.Exit(1)
	}

	// LogLevel already carries any COLLIDE_LOG_LEVEL override
	logger = logging.NewLoggerWithLevel(cfg.LogLevel)
	defer logger.Sync()

	if err := run(ctx, logger, cfg, opts); err != nil {
		logger.Error(ctx, "Benchmark failed", err)
		os.Exit(1)
	}
}

func loadConfig(ctx context.Context, logger *logging.Logger, opts options) (*config.WorldConfig, error) {
	var cfg *config.WorldConfig
	if _, err := os.Stat(opts.configPath); os.IsNotExist(err) {
		logger.Info(ctx, "Configuration file not found, using default configuration",
			"config_path", opts.configPath,
		)
		cfg = config.DefaultConfig()
	} else {
		cfg, err = config.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
	}

	if opts.preset != "" {
		if err := config.ApplyPreset(cfg, opts.preset); err != nil {
			return nil, err
		}
	}

	if err := config.ApplyEnvironmentOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// contactCounter tallies collision events from the bus
type contactCounter struct {
	started atomic.Uint64
	ended   atomic.Uint64
	blocked atomic.Uint64
}

func (c *contactCounter) subscribe(bus *event.Bus) {
	bus.Subscribe(event.CollisionStarted, func(event.Event) { c.started.Add(1) })
	bus.Subscribe(event.CollisionEnded, func(event.Event) { c.ended.Add(1) })
	bus.Subscribe(event.SweepBlocked, func(event.Event) { c.blocked.Add(1) })
}

func run(ctx context.Context, logger *logging.Logger, cfg *config.WorldConfig, opts options) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	bus := event.NewEventBus()
	var counter contactCounter
	counter.subscribe(bus)

	w, err := world.New(cfg,
		world.WithLogger(logger),
		world.WithRecorder(metrics.NewRecorder(reg)),
		world.WithEventBus(bus),
	)
	if err != nil {
		return err
	}

	sc := newScene(opts.seed, cfg.Field)
	if err := sc.populate(w, opts.bodies); err != nil {
		return err
	}

	logger.Info(ctx, "Scene populated",
		"bodies", w.Len(),
		"index", string(cfg.Index),
		"workers", cfg.Workers,
		"seed", opts.seed,
	)

	if opts.serveAddr != "" {
		return serve(ctx, logger, w, sc, reg, opts)
	}

	var contacts []world.Contact
	var total motion
	start := time.Now()
	for i := 0; i < opts.steps; i++ {
		m, err := sc.animate(w)
		if err != nil {
			return err
		}
		total.swept += m.swept
		total.blocked += m.blocked
		total.moved += m.moved

		contacts, err = w.Step(ctx)
		if err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	stats := w.Stats()
	perStep := time.Duration(0)
	if opts.steps > 0 {
		perStep = elapsed / time.Duration(opts.steps)
	}
	logger.Info(ctx, "Benchmark complete",
		"steps", stats.Steps,
		"bodies", stats.Bodies,
		"elapsed", elapsed,
		"per_step", perStep,
		"last_pairs", stats.LastPairs,
		"last_contacts", stats.LastContacts,
		"collisions_started", counter.started.Load(),
		"collisions_ended", counter.ended.Load(),
		"sweeps", total.swept,
		"sweeps_blocked", total.blocked,
		"sweep_events", counter.blocked.Load(),
		"teleports", total.moved,
	)

	if opts.pngPath != "" {
		if err := debugdraw.SavePNG(opts.pngPath, w, contacts, debugdraw.Options{DrawBounds: true}); err != nil {
			return logging.WrapError(err, "write snapshot")
		}
		logger.Info(ctx, "Snapshot written", "path", opts.pngPath)
	}
	return nil
}

// serve exposes the world over HTTP and steps it at opts.stepRate until
// SIGINT or SIGTERM
func serve(ctx context.Context, logger *logging.Logger, w *world.World, sc *scene, reg *prometheus.Registry, opts options) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	period := time.Duration(float64(time.Second) / opts.stepRate)
	checker := health.NewHealthChecker()
	checker.AddCheck(health.NewStepFreshnessCheck(w, 10*period+time.Second))
	checker.AddCheck(health.NewStepLatencyCheck(w, period))
	checker.AddCheck(health.NewRuntimeHealthCheck(500, 10000, nil))

	server := &http.Server{
		Addr: opts.serveAddr,
		Handler: api.NewRouter(api.RouterConfig{
			World:    w,
			Health:   checker,
			Gatherer: reg,
			Logger:   logger,
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info(ctx, "Starting API server", "address", opts.serveAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "API server failed", err)
			stop()
		}
	}()

	limiter := rate.NewLimiter(rate.Limit(opts.stepRate), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			break
		}
		if _, err := sc.animate(w); err != nil {
			return err
		}
		if _, err := w.Step(ctx); err != nil && ctx.Err() == nil {
			return err
		}
	}

	logger.Info(context.Background(), "Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
