package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ybieul/saas-barbearia/services/booking-service/internal/civil"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/model"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/storage"
)

type calendarFile struct {
	TenantID      string             `yaml:"tenant_id"`
	Professionals []professionalYAML `yaml:"professionals"`
}

type professionalYAML struct {
	ID          string      `yaml:"id"`
	WeeklyRules []ruleYAML  `yaml:"weekly_rules"`
	Breaks      []breakYAML `yaml:"breaks"`
}

type ruleYAML struct {
	Day    weekday `yaml:"day"`
	Start  string  `yaml:"start"`
	End    string  `yaml:"end"`
	Active *bool   `yaml:"active"`
}

type breakYAML struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
	Label string `yaml:"label"`
}

// weekday accepts 0..6 (Sunday first) or an English day name.
type weekday time.Weekday

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

func (w *weekday) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: day must be a scalar", node.Line)
	}
	value := strings.ToLower(strings.TrimSpace(node.Value))
	if n, err := strconv.Atoi(value); err == nil {
		if n < 0 || n > 6 {
			return fmt.Errorf("line %d: day must be 0..6, got %d", node.Line, n)
		}
		*w = weekday(n)
		return nil
	}
	d, ok := weekdayNames[value]
	if !ok {
		return fmt.Errorf("line %d: unknown day %q", node.Line, node.Value)
	}
	*w = weekday(d)
	return nil
}

// parseCalendarFile decodes and validates a calendar import. Professionals
// missing from the file keep their current calendar.
func parseCalendarFile(r io.Reader) (string, []model.Calendar, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f calendarFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return "", nil, errors.New("calendar file is empty")
		}
		return "", nil, fmt.Errorf("decode calendar file: %w", err)
	}
	f.TenantID = strings.TrimSpace(f.TenantID)
	if f.TenantID == "" {
		return "", nil, errors.New("tenant_id is required")
	}
	if len(f.Professionals) == 0 {
		return "", nil, errors.New("no professionals listed")
	}

	seen := make(map[string]bool, len(f.Professionals))
	cals := make([]model.Calendar, 0, len(f.Professionals))
	for i, p := range f.Professionals {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return "", nil, fmt.Errorf("professionals[%d]: id is required", i)
		}
		if seen[id] {
			return "", nil, fmt.Errorf("professional %s listed twice", id)
		}
		seen[id] = true

		cal, err := p.calendar(id)
		if err != nil {
			return "", nil, fmt.Errorf("professional %s: %w", id, err)
		}
		cals = append(cals, cal)
	}
	return f.TenantID, cals, nil
}

func (p professionalYAML) calendar(id string) (model.Calendar, error) {
	cal := model.Calendar{ProfessionalID: id}
	days := make(map[time.Weekday]bool, len(p.WeeklyRules))
	for _, r := range p.WeeklyRules {
		start, err := civil.ParseClock(r.Start)
		if err != nil {
			return cal, err
		}
		end, err := civil.ParseClock(r.End)
		if err != nil {
			return cal, err
		}
		rule := model.WeeklyRule{
			Weekday: time.Weekday(r.Day),
			Start:   start,
			End:     end,
			Active:  r.Active == nil || *r.Active,
		}
		if err := rule.Validate(); err != nil {
			return cal, err
		}
		if days[rule.Weekday] {
			return cal, fmt.Errorf("%s has more than one rule", rule.Weekday)
		}
		days[rule.Weekday] = true
		cal.Rules = append(cal.Rules, rule)
	}
	for _, b := range p.Breaks {
		start, err := civil.ParseClock(b.Start)
		if err != nil {
			return cal, err
		}
		end, err := civil.ParseClock(b.End)
		if err != nil {
			return cal, err
		}
		br := model.RecurringBreak{Start: start, End: end, Label: strings.TrimSpace(b.Label)}
		if err := br.Validate(); err != nil {
			return cal, err
		}
		cal.Breaks = append(cal.Breaks, br)
	}
	return cal, nil
}

func newImportCalendarCmd(v *viper.Viper) *cobra.Command {
	var (
		file   string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "import-calendar",
		Short: "Replace weekly rules and breaks from a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fh, err := os.Open(file)
			if err != nil {
				return err
			}
			defer fh.Close()

			tenantID, cals, err := parseCalendarFile(fh)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range cals {
				fmt.Fprintf(out, "%s: %d weekly rules, %d breaks\n", c.ProfessionalID, len(c.Rules), len(c.Breaks))
			}
			if dryRun {
				fmt.Fprintln(out, "dry run, nothing written")
				return nil
			}

			ctx, cancel, pool, err := openPool(cmd, v)
			if err != nil {
				return err
			}
			defer cancel()
			defer pool.Close()

			if err := storage.NewScheduleRepository(pool).ImportCalendars(ctx, tenantID, cals); err != nil {
				return err
			}
			fmt.Fprintf(out, "imported %d calendars for tenant %s\n", len(cals), tenantID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "calendar YAML file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate only")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
