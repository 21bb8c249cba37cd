package apply

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/uptimectlhq/uptimectl/internal/config"
	"github.com/uptimectlhq/uptimectl/internal/events"
	"github.com/uptimectlhq/uptimectl/internal/manifest"
	"github.com/uptimectlhq/uptimectl/internal/metrics"
	"github.com/uptimectlhq/uptimectl/internal/reconcile"
	"github.com/uptimectlhq/uptimectl/internal/uptimerobot"
	"github.com/uptimectlhq/uptimectl/pkg/types"
)

// Dependencies provides optional overrides for testing.
type Dependencies struct {
	HTTPClient *http.Client
	Logger     *log.Logger
	Stdout     io.Writer
	Now        func() time.Time
	NewRunID   func() string
}

// MonitorReport is the per-monitor outcome line of a run.
type MonitorReport struct {
	Monitor string `json:"monitor"`
	Changed bool   `json:"changed"`
	Action  string `json:"action,omitempty"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// RunReport is the full outcome of one apply run.
type RunReport struct {
	RunID     string           `json:"run_id"`
	StartedAt time.Time        `json:"started_at"`
	Monitors  []MonitorReport  `json:"monitors"`
	Changed   int              `json:"changed"`
	Failed    int              `json:"failed"`
	API       metrics.Snapshot `json:"api"`
}

// Run executes the apply workflow: load config and manifest, reconcile every
// declared monitor, and report the outcome. It returns an error if any
// monitor failed to converge.
func Run(ctx context.Context, args []string, deps Dependencies) error {
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard, "", 0)
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewRunID == nil {
		deps.NewRunID = uuid.NewString
	}

	flags := flag.NewFlagSet("apply", flag.ContinueOnError)
	configPath := flags.String("config", config.DefaultConfigPath, "Path to uptimectl configuration file")
	manifestPath := flags.String("f", "monitors.yaml", "Path to the monitor manifest")
	output := flags.String("o", "text", "Output format: text or json")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *output != "text" && *output != "json" {
		return fmt.Errorf("unknown output format %q", *output)
	}

	cfg, err := loadConfig(ctx, *configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	m, err := manifest.Load(ctx, *manifestPath)
	if err != nil {
		return err
	}

	report, err := applyManifest(ctx, cfg, m, deps)
	if err != nil {
		return err
	}

	if err := writeReport(deps.Stdout, *output, report); err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d monitors failed", report.Failed, len(report.Monitors))
	}
	return nil
}

// loadConfig falls back to defaults when the default config path does not
// exist, so the credential can come purely from the environment.
func loadConfig(ctx context.Context, path string) (config.Config, error) {
	cfg, err := config.Load(ctx, path)
	if err != nil {
		if path == config.DefaultConfigPath && errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
		return cfg, err
	}
	return cfg, nil
}

func applyManifest(ctx context.Context, cfg config.Config, m manifest.Manifest, deps Dependencies) (RunReport, error) {
	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout()}
	}

	rpm := cfg.RequestsPerMinute()
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)

	metricsStore := metrics.NewStore()
	client, err := uptimerobot.NewClient(
		uptimerobot.Config{
			APIKey:  cfg.API.Key,
			BaseURL: cfg.API.URL,
		},
		uptimerobot.Dependencies{
			HTTPClient: httpClient,
			Limiter:    limiter,
			Metrics:    metricsStore,
			Logger:     deps.Logger,
		},
	)
	if err != nil {
		return RunReport{}, fmt.Errorf("init API client: %w", err)
	}

	reconciler := reconcile.NewReconciler(client, reconcile.Dependencies{
		Events: events.NewLogRecorder(deps.Logger),
		Logger: deps.Logger,
		Now:    deps.Now,
	})

	report := RunReport{
		RunID:     deps.NewRunID(),
		StartedAt: deps.Now().UTC(),
		Monitors:  make([]MonitorReport, len(m.Monitors)),
	}
	deps.Logger.Printf("run %s: applying %d monitor(s)", report.RunID, len(m.Monitors))

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(cfg.Concurrency())
	for i, spec := range m.Monitors {
		i, spec := i, spec
		grp.Go(func() error {
			result, err := reconciler.Reconcile(grpCtx, spec)
			report.Monitors[i] = monitorReport(spec, result, err)
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return report, err
	}

	for _, mr := range report.Monitors {
		if mr.Error != "" {
			report.Failed++
		}
		if mr.Changed {
			report.Changed++
		}
	}
	report.API = metricsStore.Snapshot()
	return report, nil
}

func monitorReport(spec types.MonitorSpec, result reconcile.Result, err error) MonitorReport {
	if err != nil {
		return MonitorReport{
			Monitor: spec.DisplayName(),
			Message: "failed",
			Error:   err.Error(),
		}
	}
	status := "absent"
	if result.Record != nil {
		status = result.Record.Status.Label()
	}
	return MonitorReport{
		Monitor: spec.DisplayName(),
		Changed: result.Changed,
		Action:  string(result.Action),
		Status:  status,
		Message: "success",
	}
}

func writeReport(w io.Writer, format string, report RunReport) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	for _, mr := range report.Monitors {
		if mr.Error != "" {
			fmt.Fprintf(w, "monitor %q: failed: %s\n", mr.Monitor, mr.Error)
			continue
		}
		fmt.Fprintf(w, "monitor %q: changed=%t action=%s status=%s\n", mr.Monitor, mr.Changed, mr.Action, mr.Status)
	}
	fmt.Fprintf(w, "run %s: %d monitor(s), %d changed, %d failed (%d api calls, %d mutations)\n",
		report.RunID, len(report.Monitors), report.Changed, report.Failed,
		report.API.CallsTotal, report.API.MutationsTotal)
	return nil
}
