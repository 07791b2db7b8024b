package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"icloudctl/internal/application"
	"icloudctl/internal/domain/model"
)

func calendarCommand() *cli.Command {
	return &cli.Command{
		Name:    "calendar",
		Aliases: []string{"cal"},
		Usage:   "List and manage calendar events",
		Commands: []*cli.Command{
			calendarListCommand(),
			calendarShowCommand(),
			calendarAddCommand(),
			calendarDeleteCommand(),
		},
	}
}

func calendarListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List events for a day or range (default: next 7 days)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "date",
				Usage: "Single day: YYYY-MM-DD, today, tomorrow or yesterday",
			},
			&cli.StringFlag{
				Name:  "from",
				Usage: "Range start (YYYY-MM-DD or shortcut)",
			},
			&cli.StringFlag{
				Name:  "to",
				Usage: "Range end, exclusive (YYYY-MM-DD or shortcut)",
			},
			liveFlag(),
			jsonFlag(),
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			from, to, err := eventRange(cmd)
			if err != nil {
				return err
			}

			events, err := a.calendar.Events(ctx, from, to, cmd.Bool("live"))
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(events)
			}

			if len(events) == 0 {
				fmt.Printf("No events between %s and %s.\n", formatTime(from), formatTime(to))
				return nil
			}

			w := newTable()
			fmt.Fprintln(w, "ID\tSTART\tEND\tCALENDAR\tTITLE")
			for _, ev := range events {
				start, end := formatTime(ev.Start), formatTime(ev.End)
				if ev.AllDay {
					start = ev.Start.Local().Format("2006-01-02") + " (all day)"
					end = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", ev.ID, start, end, ev.Calendar, ev.Title)
			}
			return w.Flush()
		}),
	}
}

func eventRange(cmd *cli.Command) (time.Time, time.Time, error) {
	now := time.Now()

	if date := cmd.String("date"); date != "" {
		return application.DayRange(date, now)
	}

	from := now
	if v := cmd.String("from"); v != "" {
		parsed, err := application.ParseDay(v, now)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = parsed
	}

	to := from.AddDate(0, 0, 7)
	if v := cmd.String("to"); v != "" {
		parsed, err := application.ParseDay(v, now)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = parsed.AddDate(0, 0, 1)
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to must not be before --from")
	}
	return from, to, nil
}

func calendarShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one event",
		ArgsUsage: "<event-id>",
		Flags:     []cli.Flag{jsonFlag()},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("event id is required")
			}
			ev, err := a.calendar.Event(ctx, id)
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(ev)
			}
			fmt.Printf("Title:    %s\n", ev.Title)
			fmt.Printf("Calendar: %s\n", ev.Calendar)
			fmt.Printf("Start:    %s\n", formatTime(ev.Start))
			fmt.Printf("End:      %s\n", formatTime(ev.End))
			if ev.Location != "" {
				fmt.Printf("Location: %s\n", ev.Location)
			}
			if ev.Notes != "" {
				fmt.Printf("Notes:    %s\n", ev.Notes)
			}
			return nil
		}),
	}
}

func calendarAddCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Create an event",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Usage: "Event title", Required: true},
			&cli.StringFlag{Name: "start", Usage: "Start time (2006-01-02 15:04)", Required: true},
			&cli.StringFlag{Name: "end", Usage: "End time (2006-01-02 15:04)"},
			&cli.DurationFlag{Name: "duration", Usage: "Length when --end is omitted", Value: time.Hour},
			&cli.StringFlag{Name: "calendar", Usage: "Target calendar name"},
			&cli.StringFlag{Name: "location", Usage: "Event location"},
			&cli.StringFlag{Name: "notes", Usage: "Event notes"},
			&cli.BoolFlag{Name: "all-day", Usage: "Create an all-day event"},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			start, err := parseEventTime(cmd.String("start"))
			if err != nil {
				return err
			}
			end := start.Add(cmd.Duration("duration"))
			if v := cmd.String("end"); v != "" {
				if end, err = parseEventTime(v); err != nil {
					return err
				}
			}
			if cmd.Bool("all-day") {
				start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
				end = start.AddDate(0, 0, 1)
			}

			created, err := a.calendar.Add(ctx, model.Event{
				Title:    cmd.String("title"),
				Calendar: cmd.String("calendar"),
				Location: cmd.String("location"),
				Notes:    cmd.String("notes"),
				Start:    start,
				End:      end,
				AllDay:   cmd.Bool("all-day"),
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created event %s\n", created.ID)
			return nil
		}),
	}
}

// parseEventTime accepts a timestamp or a bare day, interpreted in local time.
func parseEventTime(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"} {
		if parsed, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return parsed, nil
		}
	}
	return application.ParseDay(value, time.Now())
}

func calendarDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete an event",
		ArgsUsage: "<event-id>",
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("event id is required")
			}
			if err := a.calendar.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Printf("Deleted event %s\n", id)
			return nil
		}),
	}
}
