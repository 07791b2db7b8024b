package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	icloudadapter "icloudctl/internal/adapter/driven/icloud"
	sqliteadapter "icloudctl/internal/adapter/driven/sqlite"
	"icloudctl/internal/application"
	"icloudctl/internal/config"
)

// app is the composition root: configuration, database, adapters and the
// application services, wired once per invocation.
type app struct {
	cfg *config.Config
	db  *sqliteadapter.DB

	sessions  *application.SessionManager
	sync      *application.SyncService
	daemon    *application.DaemonService
	calendar  *application.CalendarService
	reminders *application.RemindersService
	notes     *application.NotesService
	findmy    *application.FindMyService
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		db.Close()
		return nil, err
	}

	credStore := sqliteadapter.NewCredentialRepo(db, cfg.SecretKey)
	sessionStore := sqliteadapter.NewSessionRepo(db, cfg.SecretKey)
	cacheStore := sqliteadapter.NewCacheRepo(db)
	stateStore := sqliteadapter.NewSyncStateRepo(db)

	client := icloudadapter.NewClient(icloudadapter.Options{
		AuthBaseURL:  cfg.AuthBaseURL,
		SetupBaseURL: cfg.SetupBaseURL,
	})

	sm := application.NewSessionManager(client, credStore, sessionStore)
	gw := application.NewGateway(client, sm)
	syncSvc := application.NewSyncService(gw, cacheStore, stateStore, cfg.AccountID)

	return &app{
		cfg:       cfg,
		db:        db,
		sessions:  sm,
		sync:      syncSvc,
		daemon:    application.NewDaemonService(syncSvc, stateStore, cfg.StatePath),
		calendar:  application.NewCalendarService(gw, cacheStore, stateStore, cfg.AccountID),
		reminders: application.NewRemindersService(gw, cacheStore, stateStore, cfg.AccountID),
		notes:     application.NewNotesService(gw, cacheStore, stateStore, cfg.AccountID),
		findmy:    application.NewFindMyService(gw, cacheStore, stateStore, cfg.AccountID),
	}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// withApp wires the composition root around a command action.
func withApp(fn func(ctx context.Context, cmd *cli.Command, a *app) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		return fn(ctx, cmd, a)
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "icloudctl",
		Usage: "iCloud from the terminal: calendar, reminders, notes and Find My, backed by a local cache",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level := slog.LevelInfo
			if cmd.Bool("verbose") {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return ctx, nil
		},
		Commands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			statusCommand(),
			calendarCommand(),
			remindersCommand(),
			notesCommand(),
			findmyCommand(),
			syncCommand(),
			daemonCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Authenticate with the account and persist the session",
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			sess, err := a.sessions.Login(ctx, a.cfg.AccountID, &terminalPrompt{})
			if err != nil {
				return err
			}
			if !a.cfg.HasSecretKey() {
				fmt.Fprintln(os.Stderr, "warning: ICLOUDCTL_SECRET_KEY not set; session will not survive this process")
			}
			fmt.Printf("Logged in as %s (trusted device: %t)\n", sess.AccountID, sess.Trusted)
			return nil
		}),
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Discard the session and all stored credentials",
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			if err := a.sessions.Logout(ctx, a.cfg.AccountID); err != nil {
				return err
			}
			fmt.Printf("Logged out %s\n", a.cfg.AccountID)
			return nil
		}),
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show authentication state without touching the network",
		Flags: []cli.Flag{jsonFlag()},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			st, err := a.sessions.Status(ctx, a.cfg.AccountID)
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(st)
			}
			fmt.Printf("Account:        %s\n", st.AccountID)
			fmt.Printf("Authenticated:  %t\n", st.Authenticated)
			fmt.Printf("Session cached: %t\n", st.SessionCached)
			fmt.Printf("Password saved: %t\n", st.PasswordStored)
			fmt.Printf("Trusted device: %t\n", st.TrustedDevice)
			return nil
		}),
	}
}
