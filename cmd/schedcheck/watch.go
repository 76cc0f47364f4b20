package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"

	appLog "schedcheck/internal/log"
)

// watch re-reads the schedule file and re-runs the check on cfg.Recheck
// until SIGINT or SIGTERM.
func (a *app) watch(c *cli.Context) error {
	req, err := a.request(c)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sched := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := sched.AddFunc(a.cfg.Recheck, func() { a.recheck(ctx, c, req) }); err != nil {
		return err
	}

	appLog.Info("watching", "recheck", a.cfg.Recheck, "candidate", req.candidate, "schedules", a.cfg.Schedules)
	a.recheck(ctx, c, req)
	sched.Start()

	<-ctx.Done()
	appLog.Info("signal received, shutting down")
	<-sched.Stop().Done()
	return nil
}

func (a *app) recheck(ctx context.Context, c *cli.Context, req checkRequest) {
	if err := a.reload(); err != nil {
		appLog.Error("reload schedules", err, "schedules", a.cfg.Schedules)
		return
	}
	if req.base != nil {
		base, err := resolve(a.store, req.base.ID)
		if err != nil {
			appLog.Error("resolve base", err, "base", req.base.ID)
			return
		}
		req.base = &base
	}
	code := a.runCheck(ctx, c.App.Writer, req)
	appLog.Debug("recheck done", "exit_code", code)
}
