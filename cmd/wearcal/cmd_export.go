package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wardrobeapp/wearcal/internal/calendar"
	"github.com/wardrobeapp/wearcal/internal/ics"
)

func exportICSCmd() *cobra.Command {
	var (
		user    string
		fromStr string
		toStr   string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "export-ics",
		Short: "Export a date range of the outfit calendar as iCalendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			uid, err := resolveUser(user)
			if err != nil {
				return err
			}

			st := newStore(logger)
			defer func() { _ = st.Close() }()

			period, err := parseRange(fromStr, toStr)
			if err != nil {
				return fmt.Errorf("export-ics: %w", err)
			}

			occasions, err := st.ListOccasions(cmd.Context(), uid, period)
			if err != nil {
				return fmt.Errorf("export-ics: loading occasions: %w", err)
			}
			entries, err := st.ListEntries(cmd.Context(), uid, period)
			if err != nil {
				return fmt.Errorf("export-ics: loading entries: %w", err)
			}

			days := calendar.BucketByDay(entries, occasions, period, cfg.View.VisibleLimit)
			payload := ics.Export(days)

			if outPath == "" {
				fmt.Print(payload)
				return nil
			}
			if err := os.WriteFile(outPath, []byte(payload), 0o644); err != nil {
				return fmt.Errorf("export-ics: writing %s: %w", outPath, err)
			}
			fmt.Printf("Wrote %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "acting user (defaults to closet.user_id)")
	cmd.Flags().StringVar(&fromStr, "from", "", "range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toStr, "to", "", "range end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&outPath, "out", "", "output file (default stdout)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
