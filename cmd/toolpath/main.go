package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/hairbrush/toolpath/internal/cache"
	"github.com/hairbrush/toolpath/internal/config"
	"github.com/hairbrush/toolpath/internal/dispatcher"
	"github.com/hairbrush/toolpath/internal/influx"
	"github.com/hairbrush/toolpath/internal/logging"
	"github.com/hairbrush/toolpath/internal/monitor"
	intOtel "github.com/hairbrush/toolpath/internal/otel"
	"github.com/hairbrush/toolpath/internal/storage"
	"github.com/hairbrush/toolpath/internal/worker"
	"github.com/hairbrush/toolpath/pkg/core"
)

// Version and BuildDate can be set at build time via ldflags.
var (
	Version   = "0.0.1"
	BuildDate = "unknown"
)

var (
	sessionStart = time.Now()

	// Logger is the shared slog logger, set up in run().
	Logger *slog.Logger
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		usage()
		return nil
	}

	if err := config.Load("."); err != nil {
		// defaults are already registered; a missing file is fine
		fmt.Fprintln(os.Stderr, err)
	}

	logManager, logFile, err := setupLogging()
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}
	Logger = logManager.Logger()
	Logger.Info("Starting up...", "version", Version, "buildDate", BuildDate)

	otelProvider, err := setupOtel()
	if err != nil {
		return err
	}
	defer otelProvider.Shutdown(context.Background())

	storageCfg := config.GetStorageConfig()
	backend, err := storage.NewBackend(storageCfg, logManager)
	if err != nil {
		return fmt.Errorf("failed to create storage backend: %w", err)
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	defer backend.Close()
	Logger.Info("Storage backend initialized", "type", storageCfg.Type)

	deps := worker.Dependencies{
		LogManager: logManager,
		Machine:    config.GetMachineConfig(),
		Cache:      cache.NewToolpathCache(),
	}

	influxCfg := config.GetInfluxConfig()
	if influxCfg.Enabled {
		backupPath := filepath.Join(viper.GetString("logsDir"), "session_stats.lp.gz")
		influxManager := influx.NewManager(zerolog.New(os.Stderr).With().Timestamp().Logger(), backupPath)
		if err := influxManager.Connect(); err != nil {
			Logger.Warn("InfluxDB unavailable, session stats stay local", "error", err)
		} else {
			deps.Telemetry = influxManager
		}
	}

	eventDispatcher, err := dispatcher.New(logging.NewDispatcherLogger(Logger))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}

	manager := worker.NewManager(deps, backend)
	manager.RegisterHandlers(eventDispatcher)

	statusMonitor := monitor.NewService(monitor.Dependencies{
		LogManager:    logManager,
		WorkerManager: manager,
		StatusDir:     viper.GetString("logsDir"),
	})

	switch strings.ToLower(args[0]) {
	case "compile":
		if err := statusMonitor.Start(); err != nil {
			return err
		}
		defer statusMonitor.Stop()
		if len(args) < 3 {
			return fmt.Errorf("usage: toolpath compile <name> <strokes.json>")
		}
		return runCompile(eventDispatcher, manager, backend, args[1], args[2])
	case "analyze":
		if len(args) < 3 {
			return fmt.Errorf("usage: toolpath analyze <name> <toolpath.g>")
		}
		if err := statusMonitor.Start(); err != nil {
			return err
		}
		defer statusMonitor.Stop()
		return runAnalyze(eventDispatcher, manager, args[1], args[2])
	case "list":
		return runList(eventDispatcher)
	case "get":
		if len(args) < 2 {
			return fmt.Errorf("usage: toolpath get <name>")
		}
		return runGet(eventDispatcher, args[1])
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: toolpath delete <name>")
		}
		return backend.DeleteToolpath(args[1])
	case "version":
		fmt.Printf("toolpath %s (built %s)\n", Version, BuildDate)
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: toolpath <command> [args]

commands:
  compile <name> <strokes.json>   compile strokes, archive, print wire text
  analyze <name> <toolpath.g>     parse wire text, archive, print statistics
  list                            list archived toolpaths
  get <name>                      print archived wire text
  delete <name>                   remove a toolpath from the archive
  version                         print version`)
}

// setupLogging creates the session log file and the slog manager.
// Console output is reserved for wire text, so logs go to the file.
func setupLogging() (*logging.SlogManager, *os.File, error) {
	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create logs dir: %w", err)
	}

	logPath := logging.LogFilePath(logsDir, "toolpath", sessionStart)
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	manager := logging.NewSlogManager()
	manager.Setup(logFile, viper.GetString("logLevel"), func() []slog.Attr {
		return []slog.Attr{
			slog.String("version", Version),
			slog.String("session", sessionStart.Format("20060102_150405")),
		}
	})
	return manager, logFile, nil
}

func setupOtel() (*intOtel.Provider, error) {
	otelCfg := config.GetOTelConfig()

	cfg := intOtel.Config{
		Enabled:      otelCfg.Enabled,
		ServiceName:  "toolpath",
		BatchTimeout: 5 * time.Second,
		Endpoint:     otelCfg.Endpoint,
		Insecure:     otelCfg.Insecure,
	}

	if otelCfg.Enabled {
		otelLogPath := filepath.Join(viper.GetString("logsDir"), "toolpath_otel.log")
		otelLogFile, err := os.OpenFile(otelLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open otel log file: %w", err)
		}
		cfg.LogWriter = otelLogFile
	}

	provider, err := intOtel.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create otel provider: %w", err)
	}
	return provider, nil
}

func runCompile(d *dispatcher.Dispatcher, m *worker.Manager, backend storage.Backend, name, strokesPath string) error {
	data, err := os.ReadFile(strokesPath)
	if err != nil {
		return fmt.Errorf("failed to read strokes file: %w", err)
	}

	status, err := runJob(d, m, "compile", name, string(data))
	if err != nil {
		return err
	}

	tp, _, err := backend.GetToolpath(name)
	if err != nil {
		return fmt.Errorf("compiled toolpath missing from archive: %w", err)
	}

	// Wire text on stdout, everything else on stderr.
	fmt.Print(tp.Source)
	if !strings.HasSuffix(tp.Source, "\n") {
		fmt.Println()
	}

	fmt.Fprintf(os.Stderr, "compiled %q: %d lines, %d segments in %s\n",
		name, status.TotalLines, tp.Segments, status.FinishedAt.Sub(status.StartedAt).Round(time.Millisecond))
	if exported := m.GetExportedFilePath(); exported != "" {
		fmt.Fprintf(os.Stderr, "exported %s\n", exported)
	}
	return nil
}

func runAnalyze(d *dispatcher.Dispatcher, m *worker.Manager, name, gcodePath string) error {
	data, err := os.ReadFile(gcodePath)
	if err != nil {
		return fmt.Errorf("failed to read toolpath file: %w", err)
	}

	status, err := runJob(d, m, "analyze", name, string(data))
	if err != nil {
		return err
	}

	result, err := d.Dispatch(dispatcher.Request{Kind: "archive:get", Args: []string{name}})
	if err != nil {
		return err
	}
	tp := result.(core.Toolpath)

	s := tp.Stats
	fmt.Printf("toolpath %q\n", name)
	fmt.Printf("  lines:    %d\n", status.TotalLines)
	fmt.Printf("  segments: %d\n", tp.Segments)
	fmt.Printf("  bounds:   X %.2f..%.2f  Y %.2f..%.2f  Z %.2f..%.2f\n",
		s.Bounds.MinX, s.Bounds.MaxX, s.Bounds.MinY, s.Bounds.MaxY, s.Bounds.MinZ, s.Bounds.MaxZ)
	fmt.Printf("  distance: %.2f mm total (%.2f draw, %.2f travel)\n",
		s.TotalDistance, s.DrawDistance, s.TravelDistance)
	fmt.Printf("  layers:   %d\n", s.LayerCount)
	fmt.Printf("  moves:    %d (%d brush commands)\n", s.MoveCount, s.BrushCommands)
	fmt.Printf("  est time: %s\n", s.EstimatedDuration.Round(time.Second))
	return nil
}

// runJob dispatches a job request and waits for the job to finish.
func runJob(d *dispatcher.Dispatcher, m *worker.Manager, kind, name, payload string) (worker.Status, error) {
	result, err := d.Dispatch(dispatcher.Request{
		Kind:      kind,
		Args:      []string{name, payload},
		Submitted: time.Now(),
	})
	if err != nil {
		return worker.Status{}, err
	}

	jobID := result.(string)
	job, ok := m.GetJob(jobID)
	if !ok {
		return worker.Status{}, fmt.Errorf("job %s vanished", jobID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	if err := job.Wait(ctx); err != nil {
		return worker.Status{}, fmt.Errorf("waiting for job %s: %w", jobID, err)
	}

	status := job.Status()
	if status.State != worker.StateCompleted {
		return status, fmt.Errorf("job %s %s: %s", jobID, status.State, status.Error)
	}
	return status, nil
}

func runList(d *dispatcher.Dispatcher) error {
	result, err := d.Dispatch(dispatcher.Request{Kind: "archive:list"})
	if err != nil {
		return err
	}

	toolpaths := result.([]core.Toolpath)
	if len(toolpaths) == 0 {
		fmt.Println("archive is empty")
		return nil
	}

	for _, tp := range toolpaths {
		fmt.Printf("%-30s %6d segments  %8.2f mm  %s\n",
			tp.Name, tp.Segments, tp.Stats.TotalDistance, tp.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runGet(d *dispatcher.Dispatcher, name string) error {
	result, err := d.Dispatch(dispatcher.Request{Kind: "archive:get", Args: []string{name}})
	if err != nil {
		return err
	}

	tp := result.(core.Toolpath)
	fmt.Print(tp.Source)
	if !strings.HasSuffix(tp.Source, "\n") {
		fmt.Println()
	}
	return nil
}
