package ui

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (a *App) calendarsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calendars",
		Short: "List the calendars discovered on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.config.RequireCalDAV(); err != nil {
				return err
			}
			cal, err := a.calendarClient()
			if err != nil {
				return err
			}
			if err := cal.Connect(cmd.Context()); err != nil {
				return fmt.Errorf("connecting to calendar server: %w", err)
			}

			names := cal.Calendars()
			if len(names) == 0 {
				fmt.Println("No calendars found.")
				return nil
			}

			fmt.Println(formatHeader("Calendars:"))
			for _, name := range names {
				line := "  " + formatSlot(name)
				if strings.EqualFold(name, a.config.CalDAV.DefaultCalendar) {
					line += formatMuted(" (default)")
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}
