package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
)

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Run one sync cycle across all domains",
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			result := a.sync.RunCycle(ctx)

			w := newTable()
			fmt.Fprintln(w, "DOMAIN\tENTITIES\tRESULT")
			for _, outcome := range result.Outcomes {
				status := "ok"
				if outcome.Err != nil {
					status = outcome.Err.Error()
				}
				fmt.Fprintf(w, "%s\t%d\t%s\n", outcome.Domain, outcome.EntityCount, status)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if !result.OK() {
				return fmt.Errorf("sync finished with failures")
			}
			fmt.Printf("Synced in %s\n", result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))
			return nil
		}),
	}
}

func daemonCommand() *cli.Command {
	return &cli.Command{
		Name:  "daemon",
		Usage: "Run the background sync loop",
		Commands: []*cli.Command{
			daemonStartCommand(),
			daemonStopCommand(),
			daemonStatusCommand(),
		},
	}
}

func daemonStartCommand() *cli.Command {
	return &cli.Command{
		Name:  "start",
		Usage: "Start the sync loop in the foreground",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Time between sync cycles (overrides ICLOUDCTL_SYNC_INTERVAL)",
			},
			&cli.StringFlag{
				Name:  "schedule",
				Usage: "Cron expression, takes precedence over the interval",
			},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			interval := a.cfg.SyncInterval
			if v := cmd.Duration("interval"); v > 0 {
				interval = v
			}
			schedule := a.cfg.SyncSchedule
			if v := cmd.String("schedule"); v != "" {
				schedule = v
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.daemon.Run(ctx, interval, schedule)
		}),
	}
}

func daemonStopCommand() *cli.Command {
	return &cli.Command{
		Name:  "stop",
		Usage: "Signal the running daemon to shut down",
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			return a.daemon.Stop()
		}),
	}
}

func daemonStatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show daemon liveness and per-domain sync state",
		Flags: []cli.Flag{jsonFlag()},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			status, err := a.daemon.Status(ctx)
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(status)
			}

			if status.Running {
				fmt.Printf("Daemon running (pid %d, since %s)\n", status.PID, formatTime(status.StartedAt))
				if status.Schedule != "" {
					fmt.Printf("Schedule: %s\n", status.Schedule)
				} else {
					fmt.Printf("Interval: %s\n", status.Interval)
				}
			} else {
				fmt.Println("Daemon not running.")
			}

			if len(status.Domains) == 0 {
				fmt.Println("No sync history.")
				return nil
			}

			w := newTable()
			fmt.Fprintln(w, "DOMAIN\tLAST SUCCESS\tENTITIES\tLAST ERROR")
			for _, domain := range status.Domains {
				lastErr := "-"
				if domain.LastError != "" {
					lastErr = domain.LastError
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
					domain.Domain, formatTime(domain.LastSuccessAt), domain.EntityCount, lastErr)
			}
			return w.Flush()
		}),
	}
}
