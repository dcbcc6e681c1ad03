// Command eventctl inspects the event catalog and resolution engine offline.
//
// Usage:
//
//	eventctl regions
//	eventctl validate --catalog events.yaml
//	eventctl resolve genshin-spiral-abyss --region asia --at 2026-02-04T12:00:00Z
//	eventctl events --region america
//	eventctl export --out events.ics
//	eventctl notify plan
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/eventclock/internal/aggregate"
	"github.com/albapepper/eventclock/internal/catalog"
	"github.com/albapepper/eventclock/internal/config"
	"github.com/albapepper/eventclock/internal/cycle"
	"github.com/albapepper/eventclock/internal/event"
	"github.com/albapepper/eventclock/internal/feed"
	"github.com/albapepper/eventclock/internal/ics"
	"github.com/albapepper/eventclock/internal/logging"
	"github.com/albapepper/eventclock/internal/notifications"
	"github.com/albapepper/eventclock/internal/prefs"
	"github.com/albapepper/eventclock/internal/region"
	"github.com/albapepper/eventclock/internal/resolve"
)

var (
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg    *config.Config
)

// Shared flags.
var (
	catalogPath string
	regionName  string
	atFlag      string
	verbose     bool
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	var err error
	if cfg, err = config.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:   "eventctl",
		Short: "Eventclock catalog and resolution CLI",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger, _ = logging.NewWithWriter(os.Stderr, logging.Options{Level: "debug"})
			}
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&catalogPath, "catalog", cfg.CatalogPath, "Catalog YAML (empty: embedded)")
	root.PersistentFlags().StringVar(&regionName, "region", "", "Region name (default: DEFAULT_REGION)")
	root.PersistentFlags().StringVar(&atFlag, "at", "", "Evaluate at this RFC3339 instant instead of now")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging to stderr")

	root.AddCommand(regionsCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(resolveCmd())
	root.AddCommand(eventsCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(notifyCmd())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// regions / validate
// --------------------------------------------------------------------------

func regionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List built-in regions",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "NAME\tUTC OFFSET\tRESET HOUR")
			for _, name := range config.RegionNames() {
				p := config.RegionRegistry[name]
				fmt.Fprintf(tw, "%s\t%+g\t%02d:00\n", p.Name, p.UTCOffsetHours, p.ResetHour)
			}
			return tw.Flush()
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Parse the catalog and resolve every definition once",
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := catalog.Load(catalogPath)
			if err != nil {
				return err
			}
			now, err := evalTime()
			if err != nil {
				return err
			}
			var failed int
			for _, name := range config.RegionNames() {
				_, errs := resolve.All(defs, config.RegionRegistry[name], now)
				for _, e := range errs {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", name, e)
				}
				failed += len(errs)
			}
			if failed > 0 {
				return fmt.Errorf("%d resolution failures", failed)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d definitions OK\n", len(defs))
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// resolve
// --------------------------------------------------------------------------

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [id...]",
		Short: "Resolve permanent definitions for a region",
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := catalog.Load(catalogPath)
			if err != nil {
				return err
			}
			profile, err := selectRegion()
			if err != nil {
				return err
			}
			now, err := evalTime()
			if err != nil {
				return err
			}

			want := make(map[string]bool, len(args))
			for _, id := range args {
				want[id] = true
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tGAME\tSTATUS\tSTART\tEXPIRY")
			matched := 0
			for _, def := range defs {
				if len(want) > 0 && !want[def.ID] {
					continue
				}
				matched++
				occ, err := resolve.Resolve(def, profile, now)
				if err != nil {
					fmt.Fprintf(tw, "%s\t%s\terror: %v\t\t\n", def.ID, def.GameName, err)
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", def.ID, def.GameName, occ.Status,
					localTime(occ.Start, profile), localTime(occ.Expiry, profile))
				if cw, ok := def.Recurrence.(event.ComplexWindow); ok {
					fmt.Fprintf(tw, "\t\twindow\t%s\t\n", windowSummary(cw.ForViewer(profile.UTCOffsetHours)))
				}
			}
			if len(want) > 0 && matched == 0 {
				return fmt.Errorf("no definition matches %s", strings.Join(args, ", "))
			}
			return tw.Flush()
		},
	}
}

// --------------------------------------------------------------------------
// events / export
// --------------------------------------------------------------------------

func eventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Show all events bucketed by urgency",
		RunE: func(cmd *cobra.Command, args []string) error {
			agg, err := buildAggregator(cmd.Context())
			if err != nil {
				return err
			}
			snap := agg.Snapshot()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Region %s (UTC%+g, reset %02d:00)\n", snap.Region.Name, snap.Region.UTCOffsetHours, snap.Region.ResetHour)
			for _, g := range snap.Groups {
				fmt.Fprintf(out, "\n%s\n", g.Bucket)
				tw := newTable(out)
				for _, e := range g.Events {
					fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", e.GameName, e.Name, e.EventType, remaining(e.Expiry, snap.ComputedAt))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}
			if snap.Rejected > 0 {
				fmt.Fprintf(out, "\n%d external records rejected\n", snap.Rejected)
			}
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write active events as an iCalendar file",
		RunE: func(cmd *cobra.Command, args []string) error {
			agg, err := buildAggregator(cmd.Context())
			if err != nil {
				return err
			}
			snap := agg.Snapshot()
			data := ics.Export(snap.Events(), snap.Region.Name, snap.ComputedAt)
			if outPath == "" || outPath == "-" {
				_, err := io.WriteString(cmd.OutOrStdout(), data)
				return err
			}
			return os.WriteFile(outPath, []byte(data), 0o644)
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default: stdout)")
	return cmd
}

// --------------------------------------------------------------------------
// notify
// --------------------------------------------------------------------------

func notifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Inspect reminder scheduling",
	}
	cmd.AddCommand(notifyPlanCmd())
	return cmd
}

func notifyPlanCmd() *cobra.Command {
	var statePath string
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the reminders the saved preferences would schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := prefs.Open(statePath)
			if err != nil {
				return err
			}
			defer store.Close()

			p, err := store.LoadNotificationPreferences()
			if err != nil {
				return err
			}
			agg, err := buildAggregator(cmd.Context())
			if err != nil {
				return err
			}
			snap := agg.Snapshot()
			desired := notifications.ComputeDesiredSet(snap.Events(), p, snap.ComputedAt)

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "IDENTIFIER\tTRIGGER\tMESSAGE")
			for _, d := range desired {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Identifier(), localTime(d.TriggerAt, snap.Region), d.Payload.Body)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if !p.GlobalEnabled {
				fmt.Fprintln(cmd.OutOrStdout(), "notifications are globally disabled")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&statePath, "state", cfg.StateDBPath, "State database path")
	return cmd
}

// --------------------------------------------------------------------------
// helpers
// --------------------------------------------------------------------------

// buildAggregator loads the catalog, fetches external events when
// EVENTS_API_URL is set, and computes one snapshot.
func buildAggregator(ctx context.Context) (*aggregate.Aggregator, error) {
	defs, err := catalog.Load(catalogPath)
	if err != nil {
		return nil, err
	}
	profile, err := selectRegion()
	if err != nil {
		return nil, err
	}
	now, err := evalTime()
	if err != nil {
		return nil, err
	}

	var fetcher aggregate.Fetcher
	if cfg.EventsAPIURL != "" {
		fetcher = feed.NewClient(cfg.EventsAPIURL, cfg.EventsAPIKey, cfg.EventsAPIRPM, logger)
	}

	agg := aggregate.New(fetcher, defs, profile, logger, aggregate.WithClock(func() time.Time { return now }))
	if err := agg.Refresh(ctx); err != nil {
		logger.Warn("Fetching external events failed", "error", err)
	}
	return agg, nil
}

func selectRegion() (region.Profile, error) {
	name := regionName
	if name == "" {
		name = cfg.DefaultRegion
	}
	p, ok := config.LookupRegion(name)
	if !ok {
		return region.Profile{}, fmt.Errorf("unknown region %q (want one of %s)", name, strings.Join(config.RegionNames(), ", "))
	}
	return p, nil
}

func evalTime() (time.Time, error) {
	if atFlag == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, atFlag)
	if err != nil {
		return time.Time{}, fmt.Errorf("--at: %w", err)
	}
	return t.UTC(), nil
}

func localTime(t time.Time, p region.Profile) string {
	return t.In(p.Location()).Format("2006-01-02 15:04 MST")
}

func remaining(expiry, now time.Time) string {
	d := expiry.Sub(now)
	if d <= 0 {
		return "expired"
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	if days > 0 {
		return fmt.Sprintf("%dd %dh left", days, hours)
	}
	return fmt.Sprintf("%dh %dm left", hours, int(d.Minutes())%60)
}

// windowSummary renders a converted window, e.g. "Mon,Fri 22:00 - Tue,Sat 05:00 UTC+08:00".
func windowSummary(w cycle.Window) string {
	days := func(ds []time.Weekday) string {
		names := make([]string, len(ds))
		for i, d := range ds {
			names[i] = d.String()[:3]
		}
		return strings.Join(names, ",")
	}
	end := w.EndDays
	if len(end) == 0 {
		end = w.StartDays
	}
	return fmt.Sprintf("%s %s - %s %s %s", days(w.StartDays), w.Start, days(end), w.End, w.Server)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
