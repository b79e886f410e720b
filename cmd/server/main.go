package main

import (
    "context"
    "errors"
    "fmt"
    "io"
    "log/slog"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/jessevdk/go-flags"

    "github.com/example/concierge-orchestrator/internal/agents"
    "github.com/example/concierge-orchestrator/internal/api"
    "github.com/example/concierge-orchestrator/internal/config"
    "github.com/example/concierge-orchestrator/internal/ledger"
    "github.com/example/concierge-orchestrator/internal/logging"
    "github.com/example/concierge-orchestrator/internal/orchestrator"
    "github.com/example/concierge-orchestrator/internal/providers/calendar"
    "github.com/example/concierge-orchestrator/internal/providers/llm"
    "github.com/example/concierge-orchestrator/internal/providers/omnidim"
    "github.com/example/concierge-orchestrator/internal/tools"
)

func main() {
    cfg, err := config.Load(os.Args[1:])
    if err != nil {
        var ferr *flags.Error
        if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
            fmt.Println(ferr.Message)
            return
        }
        fmt.Fprintln(os.Stderr, err)
        os.Exit(2)
    }
    log := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()
    if err := run(ctx, cfg, log); err != nil {
        log.Error("server exited", "error", err)
        os.Exit(1)
    }
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
    client := llm.NewFromEnv(ctx, logging.Named("llm"))
    if c, ok := client.(io.Closer); ok { defer c.Close() }
    planner := &agents.LLMPlanner{Client: client}

    led, err := newLedger(ctx, cfg, log)
    if err != nil { return err }
    defer led.Close()

    hub := orchestrator.NewHub()
    correlator := &orchestrator.Correlator{
        Calendar: newCalendar(cfg, log),
        Location: calendarLocation(cfg, log),
        Ledger:   led,
        Hub:      hub,
        Log:      logging.Named("webhook"),
    }

    var coordinator orchestrator.Coordinator
    var demo *orchestrator.DemoSimulator
    if cfg.DemoMode {
        log.Info("demo mode enabled; calls are simulated")
        demo = &orchestrator.DemoSimulator{
            Correlator:    correlator,
            CallbackDelay: cfg.DemoCallbackDelay,
            ResponseDelay: cfg.DemoResponseDelay,
            Ledger:        led,
            Hub:           hub,
            Log:           logging.Named("demo"),
        }
        coordinator = demo
    } else {
        coordinator = newCoordinator(cfg, planner, led, hub)
    }

    srv := &api.Server{
        Coordinator: coordinator,
        Correlator:  correlator,
        Planner:     planner,
        Hub:         hub,
        Ledger:      led,
        Log:         logging.Named("api"),
    }
    httpSrv := &http.Server{Addr: cfg.Addr(), Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}

    errCh := make(chan error, 1)
    go func() {
        log.Info("server listening", "addr", cfg.Addr(), "strategy", cfg.Strategy, "demo", cfg.DemoMode)
        errCh <- httpSrv.ListenAndServe()
    }()

    select {
    case err := <-errCh:
        if errors.Is(err, http.ErrServerClosed) { return nil }
        return err
    case <-ctx.Done():
    }
    log.Info("shutting down")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    err = httpSrv.Shutdown(shutdownCtx)
    if demo != nil { demo.Wait() }
    return err
}

func newCoordinator(cfg *config.Config, planner agents.Planner, led ledger.Ledger, hub *orchestrator.Hub) orchestrator.Coordinator {
    platform := omnidim.NewClient(cfg.RegistryBaseURL, cfg.DispatchBaseURL, cfg.HTTPTimeout)
    direct := &orchestrator.DirectCoordinator{
        Provisioner: &agents.Provisioner{Registry: platform, WebhookURL: cfg.WebhookURL, Log: logging.Named("provisioner")},
        Platform:    platform,
        Phone:       orchestrator.PhonePolicy{UseFixed: cfg.PhonePolicy == config.PhonePolicyFixed, Default: cfg.DefaultPhoneNumber, Fixed: cfg.DemoPhoneNumber},
        Ledger:      led,
        Hub:         hub,
        Log:         logging.Named("dispatch"),
    }
    if cfg.Strategy != config.StrategyStepwise {
        if cfg.PlanSteps { direct.Planner = planner }
        return direct
    }

    httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
    reg := tools.NewRegistry(
        &tools.DispatchCallTool{Dispatch: direct.Call},
        &tools.WebSearchTool{BaseURL: cfg.SearchURL, HTTP: httpClient},
        &tools.FetchPageTool{HTTP: httpClient},
        &tools.NoteTool{},
    )
    return &orchestrator.StepwiseCoordinator{
        Planner:  planner,
        Executor: &agents.ToolExecutor{Registry: reg, Log: logging.Named("executor")},
        Hub:      hub,
        Log:      logging.Named("stepwise"),
    }
}

func newLedger(ctx context.Context, cfg *config.Config, log *slog.Logger) (ledger.Ledger, error) {
    if cfg.LedgerRedisAddr == "" { return ledger.NewMemoryLedger(), nil }
    l, err := ledger.NewRedisLedger(ctx, ledger.RedisConfig{
        Address:  cfg.LedgerRedisAddr,
        Password: cfg.LedgerRedisPassword,
        TTL:      cfg.LedgerTTL,
    })
    if err != nil { return nil, err }
    log.Info("dispatch ledger backed by redis", "addr", cfg.LedgerRedisAddr)
    return l, nil
}

// newCalendar returns nil when no calendar is configured; callbacks then
// resolve to "calendar not configured".
func newCalendar(cfg *config.Config, log *slog.Logger) calendar.EventCreator {
    if !cfg.CalendarConfigured() {
        log.Warn("Google Calendar is not configured; appointments will not be booked",
            "calendar_id_set", cfg.CalendarID != "", "credentials_set", cfg.CredentialsFile != "")
        return nil
    }
    return calendar.NewGoogleCreator(cfg.CalendarID, cfg.CredentialsFile, cfg.CalendarTimeZone)
}

func calendarLocation(cfg *config.Config, log *slog.Logger) *time.Location {
    loc, err := time.LoadLocation(cfg.CalendarTimeZone)
    if err != nil {
        log.Warn("unknown calendar time zone, using UTC", "tz", cfg.CalendarTimeZone, "error", err)
        return time.UTC
    }
    return loc
}
