package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/pantry-sync-api/internal/models"
	"github.com/noah-isme/pantry-sync-api/internal/service"
)

func newGridCommand() *cobra.Command {
	var first, last string

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Print the appointment slots of one day window",
		Args:  cobra.NoArgs,
		// grid needs neither config nor logger
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, v := range []string{first, last} {
				if _, err := service.ParseClock(v); err != nil {
					return fmt.Errorf("invalid time %q: %w", v, err)
				}
			}
			var days [models.DaysPerDistribution]models.DayBounds
			days[0] = models.DayBounds{First: &first, Last: &last}

			slots := service.GenerateGrid(days).Day(1)
			if len(slots) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no slots")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(slots, " "))
			return nil
		},
	}

	cmd.Flags().StringVar(&first, "first", "", "first appointment time (HH:MM)")
	cmd.Flags().StringVar(&last, "last", "", "last appointment time (HH:MM)")
	_ = cmd.MarkFlagRequired("first")
	_ = cmd.MarkFlagRequired("last")
	return cmd
}
