package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"icloudctl/internal/domain/model"
)

func notesCommand() *cli.Command {
	return &cli.Command{
		Name:  "notes",
		Usage: "List, read, create and search notes",
		Commands: []*cli.Command{
			notesListCommand(),
			notesShowCommand(),
			notesCreateCommand(),
			notesSearchCommand(),
		},
	}
}

func notesListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List notes, most recently modified first",
		Flags: []cli.Flag{liveFlag(), jsonFlag()},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			notes, err := a.notes.List(ctx, cmd.Bool("live"))
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(notes)
			}
			return printNoteTable(notes)
		}),
	}
}

func printNoteTable(notes []model.Note) error {
	if len(notes) == 0 {
		fmt.Println("No notes.")
		return nil
	}
	w := newTable()
	fmt.Fprintln(w, "ID\tMODIFIED\tFOLDER\tSUBJECT")
	for _, note := range notes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", note.ID, formatTime(note.ModifiedAt), note.Folder, note.Subject)
	}
	return w.Flush()
}

func notesShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print one note",
		ArgsUsage: "<note-id>",
		Flags:     []cli.Flag{jsonFlag()},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("note id is required")
			}
			note, err := a.notes.Show(ctx, id)
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(note)
			}
			fmt.Printf("%s\n", note.Subject)
			if note.Folder != "" {
				fmt.Printf("Folder: %s\n", note.Folder)
			}
			fmt.Printf("Modified: %s\n\n", formatTime(note.ModifiedAt))
			fmt.Println(note.Body)
			return nil
		}),
	}
}

func notesCreateCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a note",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "subject", Usage: "Note subject", Required: true},
			&cli.StringFlag{Name: "body", Usage: "Note body"},
			&cli.StringFlag{Name: "folder", Usage: "Target folder"},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			created, err := a.notes.Create(ctx, model.Note{
				Subject: cmd.String("subject"),
				Body:    cmd.String("body"),
				Folder:  cmd.String("folder"),
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created note %s\n", created.ID)
			return nil
		}),
	}
}

func notesSearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search notes by subject and body",
		ArgsUsage: "<query>",
		Flags:     []cli.Flag{jsonFlag()},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			query := cmd.Args().First()
			if query == "" {
				return fmt.Errorf("search query is required")
			}
			notes, err := a.notes.Search(ctx, query)
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(notes)
			}
			return printNoteTable(notes)
		}),
	}
}
