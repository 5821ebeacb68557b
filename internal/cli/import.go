package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/streakd/internal/app"
	"github.com/sandeepkv93/streakd/internal/calendar"
	"github.com/sandeepkv93/streakd/internal/commands"
	"github.com/sandeepkv93/streakd/internal/engine"
)

// proposalFile is one entry of an import file.
type proposalFile struct {
	Name     string `yaml:"name"`
	Duration string `yaml:"duration"`
	Date     string `yaml:"date"`
}

func newImportCmd(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Create activities from a YAML list of proposals",
		Long: `Create one-off activities from a YAML list, for example one produced by a
planning assistant:

  - name: Read chapter 3
    duration: 45m
    date: 2026-03-12 18:00
  - name: Call the bank
    date: tomorrow

date accepts YYYY-MM-DD, "YYYY-MM-DD HH:MM" or any day 'streakd add --on'
understands, and defaults to today. Entries that fail are reported and
skipped; the rest are still created.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			var entries []proposalFile
			if err := yaml.Unmarshal(raw, &entries); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			return r.with(cmd, nil, func(a *app.App) error {
				now := a.Now()
				proposals := make([]engine.Proposal, 0, len(entries))
				var bad []error
				for i, e := range entries {
					p, err := toProposal(a.Calendar(), now, e)
					if err != nil {
						bad = append(bad, fmt.Errorf("entry %d (%q): %w", i+1, e.Name, err))
						continue
					}
					proposals = append(proposals, p)
				}
				res, err := a.Engine.Import(cmd.Context(), proposals, now)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				cal := a.Calendar()
				for _, act := range res.Created {
					fmt.Fprintf(out, "Imported %q on %s (#%s)\n", act.Name, cal.DayKey(act.Date), short(act.ID))
				}
				for _, f := range res.Failed {
					bad = append(bad, fmt.Errorf("proposal %q: %w", f.Name, f.Err))
				}
				for _, err := range bad {
					fmt.Fprintf(cmd.ErrOrStderr(), "skipped: %v\n", err)
				}
				if len(res.Created) == 0 && len(bad) > 0 {
					return errors.New("nothing imported")
				}
				return nil
			})
		},
	}
}

func toProposal(cal calendar.Calendar, now time.Time, e proposalFile) (engine.Proposal, error) {
	p := engine.Proposal{Name: strings.TrimSpace(e.Name)}
	if e.Duration != "" {
		d, err := time.ParseDuration(e.Duration)
		if err != nil {
			return p, fmt.Errorf("duration: %w", err)
		}
		p.Duration = d
	}
	date := strings.TrimSpace(e.Date)
	if t, err := time.ParseInLocation("2006-01-02 15:04", date, cal.Location()); err == nil {
		p.SuggestedDate = t
		return p, nil
	}
	day, err := commands.ResolveDay(cal, now, date)
	if err != nil {
		return p, err
	}
	p.SuggestedDate = day
	return p, nil
}
