package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"schedcheck/internal/config"
	"schedcheck/internal/ics"
	appLog "schedcheck/internal/log"
	"schedcheck/internal/model"
	"schedcheck/internal/overlap"
	"schedcheck/internal/store"
)

const rangeLayout = "Mon 2006-01-02 15:04 MST"

// app carries what every command needs once flags and config are read.
type app struct {
	cfg   *config.Config
	store *store.Store
}

func main() {
	if err := newCLI(&app{}).Run(os.Args); err != nil {
		appLog.Error("schedcheck failed", err)
		appLog.Sync()
		os.Exit(exitInvalid)
	}
}

func newCLI(a *app) *cli.App {
	return &cli.App{
		Name:  "schedcheck",
		Usage: "Expand weekly schedules and detect overlapping time ranges",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config `FILE`",
				Value:   "schedcheck.yaml",
			},
			&cli.StringFlag{
				Name:    "schedules",
				Aliases: []string{"f"},
				Usage:   "Schedule records `FILE` (overrides config)",
			},
			&cli.StringFlag{
				Name:  "timezone",
				Usage: "IANA `ZONE` for dates and hours (overrides config)",
			},
		},
		Before: func(c *cli.Context) error {
			return a.setup(c)
		},
		After: func(c *cli.Context) error {
			appLog.Sync()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:    "expand",
				Aliases: []string{"e"},
				Usage:   "Print the time ranges of a schedule",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "schedule", Aliases: []string{"s"}, Usage: "Schedule `ID` or name", Required: true},
				},
				Action: a.expand,
			}, {
				Name:    "check",
				Aliases: []string{"k"},
				Usage:   "Check a candidate schedule against a base schedule or calendar",
				Flags:   checkFlags(),
				Action:  a.check,
			}, {
				Name:  "export",
				Usage: "Write the time ranges of a schedule as an iCalendar file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "schedule", Aliases: []string{"s"}, Usage: "Schedule `ID` or name", Required: true},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output `FILE`", Required: true},
				},
				Action: a.export,
			}, {
				Name:   "watch",
				Usage:  "Re-run check on the configured cron schedule until interrupted",
				Flags:  checkFlags(),
				Action: a.watch,
			},
		},
	}
}

func checkFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "base", Aliases: []string{"b"}, Usage: "Base schedule `ID` or name"},
		&cli.StringFlag{Name: "base-ics", Usage: "Use busy events from an iCalendar `FILE` or http(s) URL as the base"},
		&cli.StringFlag{Name: "candidate", Aliases: []string{"n"}, Usage: "Candidate schedule `ID` or name", Required: true},
		&cli.BoolFlag{Name: "intersect", Aliases: []string{"i"}, Usage: "Also flag base ranges strictly inside a candidate range"},
	}
}

func (a *app) setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if v := c.String("schedules"); v != "" {
		cfg.Schedules = v
	}
	if v := c.String("timezone"); v != "" {
		cfg.Timezone = v
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	appLog.Debug("effective config",
		"timezone", cfg.Timezone,
		"source_timezone", cfg.SourceTimezone,
		"max_days", cfg.MaxDays,
		"intersect", cfg.Intersect,
		"schedules", cfg.Schedules,
		"recheck", cfg.Recheck,
	)

	a.cfg = cfg
	return a.reload()
}

func (a *app) reload() error {
	st, err := store.Load(a.cfg.Schedules, store.Options{SourceLocation: a.cfg.SourceLocation()})
	if err != nil {
		return fmt.Errorf("load schedules: %w", err)
	}
	a.store = st
	return nil
}

func (a *app) expand(c *cli.Context) error {
	s, err := resolve(a.store, c.String("schedule"))
	if err != nil {
		return err
	}
	ranges, err := expandSchedule(s, a.cfg)
	if err != nil {
		return err
	}
	if len(ranges) == 0 {
		logNoRanges(s, a.cfg.Location())
		return cli.Exit("", exitNoRanges)
	}

	loc := a.cfg.Location()
	for i, r := range ranges {
		fmt.Fprintf(c.App.Writer, "%d. %s - %s\n", i+1, r.Start.In(loc).Format(rangeLayout), r.End.In(loc).Format(rangeLayout))
	}
	return nil
}

func (a *app) check(c *cli.Context) error {
	req, err := a.request(c)
	if err != nil {
		return err
	}
	code := a.runCheck(c.Context, c.App.Writer, req)
	if code != exitOK {
		return cli.Exit("", code)
	}
	return nil
}

func (a *app) export(c *cli.Context) error {
	s, err := resolve(a.store, c.String("schedule"))
	if err != nil {
		return err
	}
	ranges, err := expandSchedule(s, a.cfg)
	if err != nil {
		return err
	}
	if len(ranges) == 0 {
		logNoRanges(s, a.cfg.Location())
		return cli.Exit("", exitNoRanges)
	}

	stamp := s.UpdatedAt
	if stamp.IsZero() {
		stamp = time.Now()
	}
	body, err := ics.Export(s, ranges, stamp)
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.String("out"), body, 0o644); err != nil {
		return err
	}

	appLog.Info("exported schedule", "schedule_id", s.ID, "ranges", len(ranges), "out", c.String("out"))
	return nil
}

// checkRequest names the two sides of a check.
type checkRequest struct {
	base      *model.Schedule
	baseICS   string
	candidate string
	intersect bool
}

func (a *app) request(c *cli.Context) (checkRequest, error) {
	req := checkRequest{
		baseICS:   c.String("base-ics"),
		candidate: c.String("candidate"),
		intersect: c.Bool("intersect") || a.cfg.Intersect,
	}
	if (c.String("base") == "") == (req.baseICS == "") {
		return req, errors.New("provide exactly one of --base or --base-ics")
	}
	if q := c.String("base"); q != "" {
		base, err := resolve(a.store, q)
		if err != nil {
			return req, err
		}
		req.base = &base
	}
	return req, nil
}

func (a *app) runCheck(ctx context.Context, w io.Writer, req checkRequest) int {
	cand, err := resolve(a.store, req.candidate)
	if err != nil {
		appLog.Error("resolve candidate", err, "query", req.candidate)
		return exitInvalid
	}

	var baseRanges []model.TimeRange
	baseID := req.baseICS
	if req.base != nil {
		baseID = req.base.ID
		baseRanges, err = expandSchedule(*req.base, a.cfg)
	} else {
		baseRanges, err = a.readICS(ctx, req.baseICS, cand)
	}
	if err != nil {
		appLog.Error("prepare base", err, "base", baseID)
		return exitInvalid
	}

	report, err := overlap.CheckAgainst(baseRanges, cand, a.cfg.ExpandConfig(), overlap.Options{Intersect: req.intersect})
	if req.base != nil {
		report.Base = *req.base
	}
	code := outcome(err, report)
	switch code {
	case exitNoRanges:
		logNoRanges(cand, a.cfg.Location())
	case exitInvalid:
		appLog.Error("check failed", err, "base", baseID, "candidate", cand.ID)
	default:
		printReport(w, report, a.cfg.Location())
		logReport(baseID, report)
	}
	return code
}

// readICS loads busy ranges from a calendar file or an http(s) URL.
// Recurring events are expanded over the span of cand's ranges.
func (a *app) readICS(ctx context.Context, path string, cand model.Schedule) ([]model.TimeRange, error) {
	var opts ics.ReadOptions
	if ranges, err := expandSchedule(cand, a.cfg); err == nil && len(ranges) > 0 {
		opts.Start = ranges[0].Start
		for _, r := range ranges {
			if r.End.After(opts.End) {
				opts.End = r.End
			}
		}
	}

	var body []byte
	if ics.IsURL(path) {
		res, err := ics.NewFetcher(a.cfg.ICSCache, nil).Fetch(ctx, path)
		if err != nil {
			return nil, err
		}
		body = res.Body
	} else {
		var err error
		if body, err = os.ReadFile(path); err != nil {
			return nil, err
		}
	}
	res, err := ics.ReadRanges(body, opts)
	if err != nil {
		return nil, fmt.Errorf("read calendar: %w", err)
	}
	if res.Skipped > 0 {
		appLog.Warn("skipped calendar events", "skipped", res.Skipped)
	}
	if len(res.Truncated) > 0 {
		appLog.Warn("recurring events hit the occurrence cap", "uids", strings.Join(res.Truncated, ","))
	}
	return res.Ranges, nil
}
