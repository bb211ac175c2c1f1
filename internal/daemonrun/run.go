package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"archivist/internal/config"
	"archivist/internal/daemon"
	"archivist/internal/downloader"
	"archivist/internal/engine"
	"archivist/internal/logging"
	"archivist/internal/scheduler"
	"archivist/internal/sink"
	"archivist/internal/source"
	"archivist/internal/state"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel  string
	LogFormat string
}

// Built bundles the collaborators a single invocation of the CLI wires
// together, along with a Close that releases them in reverse order.
type Built struct {
	Logger *slog.Logger
	Store  *state.Store
	Source *source.Client
	Sink   *sink.Telegram
	Engine *engine.Engine

	Location    *time.Location
	DailyHour   int
	DailyMinute int
}

// Close releases the sink connection and state store. Safe to call once.
func (b *Built) Close() {
	if b.Sink != nil {
		_ = b.Sink.Disconnect(context.Background())
	}
	if b.Store != nil {
		_ = b.Store.Close()
	}
}

// Build wires the state store, source adapter, sink, and sync engine from
// cfg. Callers (the CLI's sync:run/sync:daemon/health:check commands) must
// call Close on the result.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Built, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	store, err := state.Open(ctx, cfg.StateDBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	bundle, err := source.ParseCookies(cfg.SourceCookiesJSON)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("parse source cookies: %w", err)
	}
	src := source.New(bundle, cfg.SourceWebBearerToken, logger)

	dl := downloader.New()

	apiID, err := strconv.Atoi(strings.TrimSpace(cfg.SinkAPIID))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("SINK_API_ID must be numeric: %w", err)
	}
	snk, err := sink.NewTelegram(sink.TelegramConfig{
		APIID:         apiID,
		APIHash:       cfg.SinkAPIHash,
		StringSession: cfg.SinkStringSession,
	}, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("build telegram sink: %w", err)
	}

	syncEngine := engine.New(engine.Config{
		Accounts:            cfg.SourceUsers,
		PageLimit:           cfg.BackfillPagesPerRun,
		MaxMediaPerRun:      cfg.MaxMediaPerRun,
		DownloadDir:         cfg.DownloadTmpDir,
		LockTTL:             cfg.JobLockTTL,
		RateLimitCooldown:   cfg.RateLimitCooldown,
		MaxUploadVideoBytes: cfg.MaxUploadVideoBytes,
	}, store, src, dl, snk, logger)

	dailyHour, dailyMinute := cfg.DailyAtHourMinute()

	return &Built{
		Logger:      logger,
		Store:       store,
		Source:      src,
		Sink:        snk,
		Engine:      syncEngine,
		Location:    loc,
		DailyHour:   dailyHour,
		DailyMinute: dailyMinute,
	}, nil
}

// NewLogger builds the process-wide logger from Options.
func NewLogger(opts Options) *slog.Logger {
	return logging.New(logging.Options{
		Writer: os.Stdout,
		Format: opts.LogFormat,
		Level:  logging.ParseLevel(opts.LogLevel),
	})
}

// Run wires every collaborator and blocks running the Scheduler's tick loop
// until the process receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := NewLogger(opts)
	logDependencySnapshot(logger, cfg)

	built, err := Build(signalCtx, cfg, logger)
	if err != nil {
		logger.Error("wire daemon collaborators", logging.Error(err))
		return err
	}
	defer built.Close()

	sched := scheduler.New(scheduler.Config{
		Location:    built.Location,
		DailyHour:   built.DailyHour,
		DailyMinute: built.DailyMinute,
		Tick:        cfg.SchedulerTick,
		RunOnStart:  cfg.SchedulerRunOnStart,
	}, built.Engine, logger)

	lockPath := filepath.Join(filepath.Dir(cfg.StateDBPath), "archivist.lock")
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	d, err := daemon.New(sched, lockPath, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed", logging.Error(err))
		return err
	}
	defer d.Stop()

	logger.Info("archivist daemon running",
		logging.String("timezone", cfg.Timezone),
		logging.String("sync_daily_at", cfg.SyncDailyAt),
	)

	<-signalCtx.Done()
	logger.Info("archivist daemon shutting down")
	return nil
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("dependency snapshot",
		logging.EventType("dependency_snapshot"),
		logging.Int("source_account_count", len(cfg.SourceUsers)),
		logging.Bool("source_cookies_present", strings.TrimSpace(cfg.SourceCookiesJSON) != ""),
		logging.Bool("source_bearer_override_present", strings.TrimSpace(cfg.SourceWebBearerToken) != ""),
		logging.Bool("sink_api_id_present", strings.TrimSpace(cfg.SinkAPIID) != ""),
		logging.Bool("sink_api_hash_present", strings.TrimSpace(cfg.SinkAPIHash) != ""),
		logging.Bool("sink_string_session_present", strings.TrimSpace(cfg.SinkStringSession) != ""),
		logging.String("state_db_path", cfg.StateDBPath),
		logging.String("download_tmp_dir", cfg.DownloadTmpDir),
	)
}
