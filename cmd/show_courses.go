package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/SamuelLeutner/fetch-canvas-grades/config"
	appErrors "github.com/SamuelLeutner/fetch-canvas-grades/errors"
	"github.com/SamuelLeutner/fetch-canvas-grades/report"
	"github.com/SamuelLeutner/fetch-canvas-grades/services"
)

const dateLayout = "2006-01-02"

func newShowCoursesCmd() *cobra.Command {
	var filter, startDate string

	cmd := &cobra.Command{
		Use:   "show-courses",
		Short: "List the courses your API token can access",
		RunE: func(cmd *cobra.Command, args []string) error {
			since, err := parseStartDate(startDate, time.Now())
			if err != nil {
				return err
			}

			s, err := openSession(cmd.Flags())
			if err != nil {
				return err
			}
			defer s.log.Sync() //nolint:errcheck

			courses, err := s.client.ListCourses(cmd.Context())
			if err != nil {
				return err
			}
			report.New(os.Stdout).Courses(services.FilterCourses(courses, filter, since))
			return nil
		},
	}

	cmd.Flags().String("api-url", config.DefaultAPIURL, "Base URL of the Canvas instance")
	cmd.Flags().StringVar(&filter, "filter", "", "Only show courses whose name contains this text (case-insensitive)")
	cmd.Flags().StringVar(&startDate, "start-date", "", "Only show courses created on or after this date, YYYY-MM-DD (default: one year ago)")
	return cmd
}

func parseStartDate(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return now.AddDate(-1, 0, 0), nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.CloneWrap(appErrors.ErrValidation,
			fmt.Sprintf("invalid --start-date %q, expected YYYY-MM-DD", raw), err)
	}
	return t, nil
}
