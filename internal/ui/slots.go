package ui

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/autoplan/internal/dateutil"
	"github.com/me/autoplan/internal/interval"
	"github.com/me/autoplan/internal/slots"
)

func (a *App) slotsCmd() *cobra.Command {
	var (
		days      int
		startDate string
		endDate   string
	)

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Show the free slots on the calendar",
		Long: `Fetch events from every discovered calendar and show the free slots
inside the configured working hours.

By default the scheduling horizon starting today is shown; --start and
--end select an explicit date range instead.`,
		Example: `  autoplan slots
  autoplan slots --days 3
  autoplan slots --start 2026-02-02 --end 2026-02-06`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.config.RequireCalDAV(); err != nil {
				return err
			}
			cal, err := a.calendarClient()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := cal.Connect(ctx); err != nil {
				return fmt.Errorf("connecting to calendar server: %w", err)
			}

			loc := a.config.Location()
			now := time.Now().In(loc)

			var start, end time.Time
			if startDate != "" || endDate != "" {
				dr, err := dateutil.NewDateRange(startDate, endDate, loc)
				if err != nil {
					return err
				}
				start, end = dr.Start, dr.End
			} else {
				if days <= 0 {
					days = a.config.Schedule.HorizonDays
				}
				start, end = dateutil.Horizon(now, days)
			}

			var busy []interval.Busy
			for _, name := range cal.Calendars() {
				events, err := cal.Events(ctx, start, end.AddDate(0, 0, 1), name)
				if err != nil {
					fmt.Printf("%s could not get events from calendar %q: %v\n", formatWarn("!"), name, err)
					continue
				}
				busy = append(busy, events...)
			}

			finder := slots.NewFinder(
				a.config.Schedule.WorkStartHour,
				a.config.Schedule.WorkEndHour,
				a.config.Schedule.MinSlotMinutes,
				loc,
			)
			free := finder.Find(busy, start, end, now)

			if len(free) == 0 {
				fmt.Println("No free slots in the requested window.")
				return nil
			}

			total := 0
			var currentDay string
			for _, s := range free {
				day := s.Start.Format("Monday, January 2")
				if day != currentDay {
					if currentDay != "" {
						fmt.Println()
					}
					fmt.Println(formatHeader(day))
					currentDay = day
				}
				fmt.Printf("  %s  %s\n",
					formatSlot(fmt.Sprintf("%s - %s", s.Start.Format("15:04"), s.End.Format("15:04"))),
					formatMuted(fmt.Sprintf("%dm", s.DurationMinutes())),
				)
				total += s.DurationMinutes()
			}

			fmt.Printf("\n%d slot(s), %dh %dm free\n", len(free), total/60, total%60)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Days to look ahead (from config if not set)")
	cmd.Flags().StringVar(&startDate, "start", "", "Start date (YYYY-MM-DD, defaults to today)")
	cmd.Flags().StringVar(&endDate, "end", "", "End date (YYYY-MM-DD, defaults to start date)")

	return cmd
}
