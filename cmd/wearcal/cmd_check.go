package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func checkCmd() *cobra.Command {
	var (
		user    string
		dateStr string
		window  int
	)

	cmd := &cobra.Command{
		Use:   "check OUTFIT_ID [OUTFIT_ID...]",
		Short: "Dry-run the gap-day advisory without scheduling anything",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			uid, err := resolveUser(user)
			if err != nil {
				return err
			}

			st := newStore(logger)
			defer func() { _ = st.Close() }()
			engine := newEngine(st, logger)

			date := time.Now()
			if dateStr != "" {
				date, err = time.Parse(time.DateOnly, dateStr)
				if err != nil {
					return fmt.Errorf("check: parsing --date: %w", err)
				}
			}
			if window <= 0 {
				window = cfg.Advisor.GapWindowDays
			}

			verdict := engine.Advise(cmd.Context(), uid, args, date, window)
			if !verdict.Warn {
				fmt.Println("All clear: no recently worn items in the selection.")
				return nil
			}
			printAdvisory(verdict)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "acting user (defaults to closet.user_id)")
	cmd.Flags().StringVar(&dateStr, "date", "", "candidate date (YYYY-MM-DD), default today")
	cmd.Flags().IntVar(&window, "window", 0, "gap-day window in days (defaults to advisor.gap_window_days)")
	return cmd
}
