package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"icloudctl/internal/application"
	"icloudctl/internal/domain/model"
)

func remindersCommand() *cli.Command {
	return &cli.Command{
		Name:    "reminders",
		Aliases: []string{"rem"},
		Usage:   "List and manage reminders",
		Commands: []*cli.Command{
			remindersListCommand(),
			remindersAddCommand(),
			remindersCompleteCommand(),
			remindersDeleteCommand(),
		},
	}
}

func remindersListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List reminders",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "all", Usage: "Include completed reminders"},
			liveFlag(),
			jsonFlag(),
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			reminders, err := a.reminders.List(ctx, cmd.Bool("all"), cmd.Bool("live"))
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(reminders)
			}

			if len(reminders) == 0 {
				fmt.Println("No reminders.")
				return nil
			}

			w := newTable()
			fmt.Fprintln(w, "ID\tLIST\tTITLE\tDUE\tPRIORITY\tDONE")
			for _, rem := range reminders {
				done := ""
				if rem.Completed {
					done = "✓"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					rem.ID, rem.List, rem.Title, formatTime(rem.DueDate), rem.Priority, done)
			}
			return w.Flush()
		}),
	}
}

func remindersAddCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Create a reminder",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Usage: "Reminder title", Required: true},
			&cli.StringFlag{Name: "list", Usage: "Target list name"},
			&cli.StringFlag{Name: "notes", Usage: "Description"},
			&cli.StringFlag{Name: "due", Usage: "Due date (YYYY-MM-DD or shortcut)"},
			&cli.StringFlag{Name: "priority", Usage: "high, medium or low"},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			var due time.Time
			if v := cmd.String("due"); v != "" {
				parsed, err := application.ParseDay(v, time.Now())
				if err != nil {
					return err
				}
				due = parsed
			}

			priority, err := parsePriority(cmd.String("priority"))
			if err != nil {
				return err
			}

			created, err := a.reminders.Add(ctx, model.Reminder{
				Title:       cmd.String("title"),
				List:        cmd.String("list"),
				Description: cmd.String("notes"),
				DueDate:     due,
				Priority:    priority,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created reminder %s\n", created.ID)
			return nil
		}),
	}
}

func parsePriority(value string) (model.ReminderPriority, error) {
	switch value {
	case "":
		return model.PriorityNone, nil
	case "high":
		return model.PriorityHigh, nil
	case "medium":
		return model.PriorityMedium, nil
	case "low":
		return model.PriorityLow, nil
	default:
		return model.PriorityNone, fmt.Errorf("invalid priority %q: use high, medium or low", value)
	}
}

func remindersCompleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "complete",
		Usage:     "Mark a reminder as done",
		ArgsUsage: "<reminder-id>",
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("reminder id is required")
			}
			if err := a.reminders.Complete(ctx, id); err != nil {
				return err
			}
			fmt.Printf("Completed reminder %s\n", id)
			return nil
		}),
	}
}

func remindersDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a reminder",
		ArgsUsage: "<reminder-id>",
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("reminder id is required")
			}
			if err := a.reminders.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Printf("Deleted reminder %s\n", id)
			return nil
		}),
	}
}
