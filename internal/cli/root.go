// Package cli is the streakd command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/streakd/internal/app"
	"github.com/sandeepkv93/streakd/internal/config"
	"github.com/sandeepkv93/streakd/internal/engine"
	"github.com/sandeepkv93/streakd/internal/reminder"
	"github.com/sandeepkv93/streakd/internal/storage"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

type Option func(*runtime)

// WithClock replaces time.Now for every command.
func WithClock(now func() time.Time) Option {
	return func(r *runtime) { r.now = now }
}

// WithLogOutput sends command logs to w instead of stderr.
func WithLogOutput(w io.Writer) Option {
	return func(r *runtime) { r.logOut = w }
}

// runtime is the state shared by one invocation: flags, config and the
// lazily opened store.
type runtime struct {
	configPath string
	dbPath     string
	timezone   string

	now    func() time.Time
	logOut io.Writer

	cfg   config.Config
	log   *slog.Logger
	store *storage.SQLiteStore
	app   *app.App
}

func NewRootCmd(opts ...Option) *cobra.Command {
	r := &runtime{now: time.Now, logOut: os.Stderr}
	for _, opt := range opts {
		opt(r)
	}

	root := &cobra.Command{
		Use:   "streakd",
		Short: "streakd - recurring activities, carry-over and streaks",
		Long: `streakd schedules one-off and repeating activities, carries unfinished
work forward to today once per day, and keeps a daily completion streak.

Data lives in a local SQLite database. Settings come from streakd.yaml
(searched in $XDG_CONFIG_HOME/streakd, ~/.config/streakd and the working
directory) and STREAKD_* environment variables.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&r.configPath, "config", "", "config file (default: search for streakd.yaml)")
	root.PersistentFlags().StringVar(&r.dbPath, "db", "", "SQLite database path (overrides db_path)")
	root.PersistentFlags().StringVar(&r.timezone, "tz", "", "IANA timezone for day boundaries (overrides timezone)")

	root.AddCommand(
		newAddCmd(r),
		newListCmd(r),
		newDoneCmd(r, true),
		newDoneCmd(r, false),
		newMoveCmd(r),
		newDeleteCmd(r),
		newEditCmd(r),
		newSubtaskCmd(r),
		newSyncCmd(r),
		newStreakCmd(r),
		newImportCmd(r),
		newExecCmd(r),
		newTUICmd(r),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "streakd %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
		},
	}
}

// gatewayFunc builds the reminder gateway once config is known.
type gatewayFunc func(config.Config) reminder.Gateway

// with opens the store, runs fn and closes the store again. Without a
// gateway, reminder requests are dropped; the TUI reschedules them from the
// store when it starts.
func (r *runtime) with(cmd *cobra.Command, gateway gatewayFunc, fn func(*app.App) error) (err error) {
	a, err := r.open(cmd.Context(), gateway)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := r.close(); err == nil {
			err = cerr
		}
	}()
	return fn(a)
}

func (r *runtime) open(ctx context.Context, makeGateway gatewayFunc) (*app.App, error) {
	cfg, err := config.Load(r.configPath)
	if err != nil {
		return nil, err
	}
	if r.dbPath != "" {
		cfg.DBPath = r.dbPath
	}
	if r.timezone != "" {
		cfg.Timezone = r.timezone
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cal, err := cfg.Calendar()
	if err != nil {
		return nil, err
	}
	r.cfg = cfg
	r.log = cfg.Logger(r.logOut)

	store, err := storage.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBPath, err)
	}
	var gateway reminder.Gateway
	if makeGateway != nil {
		gateway = makeGateway(cfg)
	}
	e, err := engine.New(store, store.Settings(), gateway,
		engine.WithCalendar(cal),
		engine.WithHorizon(cfg.Horizon),
		engine.WithCarryOverChain(cfg.CarryOverChain),
		engine.WithLogger(r.log),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	r.store = store
	r.app = app.New(e, r.log)
	r.app.Now = r.now
	r.log.Debug("store opened", "db", cfg.DBPath, "config", cfg.File, "tz", cal.Location().String())
	return r.app, nil
}

func (r *runtime) close() error {
	if r.store == nil {
		return nil
	}
	err := r.store.Close()
	r.store = nil
	r.app = nil
	return err
}
