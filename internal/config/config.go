// Package config loads streakd settings from defaults, an optional
// streakd.yaml and STREAKD_* environment variables, in increasing order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sandeepkv93/streakd/internal/calendar"
	"github.com/sandeepkv93/streakd/internal/model"
)

const (
	EnvPrefix = "STREAKD"
	FileName  = "streakd"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	DBPath          string
	Timezone        string
	WeekStart       string
	Horizon         model.Horizon
	CarryOverChain  bool
	SchedulerBuffer int
	LogLevel        string
	// DesktopNotifications forwards fired reminders to notify-send or
	// osascript while the TUI runs.
	DesktopNotifications bool
	// File is the config file that was read, empty when none was found.
	File string
}

func Default() Config {
	h := model.DefaultHorizon()
	return Config{
		DBPath:          "streakd.db",
		Timezone:        "Local",
		WeekStart:       "sunday",
		Horizon:         h,
		CarryOverChain:  false,
		SchedulerBuffer: 64,
		LogLevel:        "info",
	}
}

// Load reads configuration. An explicit path must exist; without one the
// usual directories are searched and a missing file means defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		for _, dir := range searchDirs() {
			v.AddConfigPath(dir)
		}
	}

	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("timezone", cfg.Timezone)
	v.SetDefault("week_start", cfg.WeekStart)
	v.SetDefault("horizon.months", cfg.Horizon.Months)
	v.SetDefault("horizon.max_occurrences", cfg.Horizon.MaxOccurrences)
	v.SetDefault("carryover.chain", cfg.CarryOverChain)
	v.SetDefault("scheduler.buffer", cfg.SchedulerBuffer)
	v.SetDefault("log.level", cfg.LogLevel)
	v.SetDefault("notifications.desktop", cfg.DesktopNotifications)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("config: read %s: %w", describe(path), err)
		}
	}
	cfg.File = v.ConfigFileUsed()

	cfg.DBPath = strings.TrimSpace(v.GetString("db_path"))
	cfg.Timezone = strings.TrimSpace(v.GetString("timezone"))
	cfg.WeekStart = strings.TrimSpace(v.GetString("week_start"))
	cfg.Horizon = model.Horizon{
		Months:         v.GetInt("horizon.months"),
		MaxOccurrences: v.GetInt("horizon.max_occurrences"),
	}
	cfg.CarryOverChain = v.GetBool("carryover.chain")
	cfg.SchedulerBuffer = v.GetInt("scheduler.buffer")
	cfg.LogLevel = strings.TrimSpace(v.GetString("log.level"))
	cfg.DesktopNotifications = v.GetBool("notifications.desktop")

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func describe(path string) string {
	if path == "" {
		return FileName + ".yaml"
	}
	return path
}

func searchDirs() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "streakd"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "streakd"))
	}
	return append(dirs, ".")
}

func (c Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := calendar.ParseWeekday(c.WeekStart); err != nil {
		errs = append(errs, fmt.Errorf("week_start: %w", err))
	}
	if err := c.Horizon.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.SchedulerBuffer <= 0 {
		errs = append(errs, fmt.Errorf("scheduler.buffer must be positive, got %d", c.SchedulerBuffer))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func (c Config) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c Config) Calendar() (calendar.Calendar, error) {
	loc, err := c.Location()
	if err != nil {
		return calendar.Calendar{}, err
	}
	wd, err := calendar.ParseWeekday(c.WeekStart)
	if err != nil {
		return calendar.Calendar{}, err
	}
	return calendar.New(loc, wd), nil
}

func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return lvl, fmt.Errorf("log.level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// Logger builds the text logger the commands write to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	lvl, err := c.Level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
