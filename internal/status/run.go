package status

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

	"golang.org/x/time/rate"

	"github.com/uptimectlhq/uptimectl/internal/config"
	"github.com/uptimectlhq/uptimectl/internal/manifest"
	"github.com/uptimectlhq/uptimectl/internal/reconcile"
	"github.com/uptimectlhq/uptimectl/internal/uptimerobot"
	"github.com/uptimectlhq/uptimectl/pkg/types"
)

// Dependencies provides optional overrides for testing.
type Dependencies struct {
	HTTPClient *http.Client
	Logger     *log.Logger
	Stdout     io.Writer
}

// MonitorStatus is the reported remote state of one declared monitor.
type MonitorStatus struct {
	Monitor string `json:"monitor"`
	ID      string `json:"id,omitempty"`
	URL     string `json:"url,omitempty"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

// Run resolves every monitor in the manifest and prints its current remote
// state. No mutating call is ever issued.
func Run(ctx context.Context, args []string, deps Dependencies) error {
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard, "", 0)
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}

	flags := flag.NewFlagSet("status", flag.ContinueOnError)
	configPath := flags.String("config", config.DefaultConfigPath, "Path to uptimectl configuration file")
	manifestPath := flags.String("f", "monitors.yaml", "Path to the monitor manifest")
	output := flags.String("o", "text", "Output format: text or json")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *output != "text" && *output != "json" {
		return fmt.Errorf("unknown output format %q", *output)
	}

	cfg, err := config.Load(ctx, *configPath)
	if err != nil {
		if *configPath == config.DefaultConfigPath && errors.Is(err, fs.ErrNotExist) {
			cfg = config.Default()
		} else {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	m, err := manifest.Load(ctx, *manifestPath)
	if err != nil {
		return err
	}

	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout()}
	}
	rpm := cfg.RequestsPerMinute()
	client, err := uptimerobot.NewClient(
		uptimerobot.Config{APIKey: cfg.API.Key, BaseURL: cfg.API.URL},
		uptimerobot.Dependencies{
			HTTPClient: httpClient,
			Limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm),
			Logger:     deps.Logger,
		},
	)
	if err != nil {
		return fmt.Errorf("init API client: %w", err)
	}

	resolver := reconcile.NewResolver(client)
	statuses := make([]MonitorStatus, 0, len(m.Monitors))
	for _, spec := range m.Monitors {
		statuses = append(statuses, lookup(ctx, client, resolver, spec))
	}

	return write(deps.Stdout, *output, statuses)
}

func lookup(ctx context.Context, client *uptimerobot.Client, resolver *reconcile.Resolver, spec types.MonitorSpec) MonitorStatus {
	out := MonitorStatus{Monitor: spec.DisplayName()}

	res, err := resolver.Resolve(ctx, spec)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	if !res.Found {
		out.Status = "absent"
		return out
	}

	record := res.Record
	if record == nil {
		records, err := client.ListMonitors(ctx, uptimerobot.Filter{ID: res.ID})
		if err != nil {
			out.Error = err.Error()
			return out
		}
		if len(records) == 0 {
			out.Status = "absent"
			out.ID = res.ID
			return out
		}
		record = &records[0]
	}

	out.ID = record.ID
	out.URL = record.URL
	out.Status = record.Status.Label()
	return out
}

func write(w io.Writer, format string, statuses []MonitorStatus) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(statuses)
	}
	for _, s := range statuses {
		if s.Error != "" {
			fmt.Fprintf(w, "monitor %q: error: %s\n", s.Monitor, s.Error)
			continue
		}
		if s.ID == "" {
			fmt.Fprintf(w, "monitor %q: %s\n", s.Monitor, s.Status)
			continue
		}
		fmt.Fprintf(w, "monitor %q: id=%s status=%s url=%s\n", s.Monitor, s.ID, s.Status, s.URL)
	}
	return nil
}
