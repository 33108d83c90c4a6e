package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wardrobeapp/wearcal/internal/calendar"
	"github.com/wardrobeapp/wearcal/internal/models"
)

func weekCmd() *cobra.Command {
	return viewCmd("week", "Show the week's outfit calendar", models.WeekOf)
}

func monthCmd() *cobra.Command {
	return viewCmd("month", "Show the month's outfit calendar", models.MonthOf)
}

func viewCmd(use, short string, periodOf func(time.Time) models.Period) *cobra.Command {
	var (
		user    string
		dateStr string
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			uid, err := resolveUser(user)
			if err != nil {
				return err
			}

			st := newStore(logger)
			defer func() { _ = st.Close() }()

			anchor := time.Now()
			if dateStr != "" {
				anchor, err = time.Parse(time.DateOnly, dateStr)
				if err != nil {
					return fmt.Errorf("%s: parsing --date: %w", use, err)
				}
			}
			period := periodOf(anchor)

			occasions, err := st.ListOccasions(cmd.Context(), uid, period)
			if err != nil {
				return fmt.Errorf("%s: loading occasions: %w", use, err)
			}
			entries, err := st.ListEntries(cmd.Context(), uid, period)
			if err != nil {
				return fmt.Errorf("%s: loading entries: %w", use, err)
			}

			days := calendar.BucketByDay(entries, occasions, period, cfg.View.VisibleLimit)
			printDays(days)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "acting user (defaults to closet.user_id)")
	cmd.Flags().StringVar(&dateStr, "date", "", "anchor date (YYYY-MM-DD), default today")
	return cmd
}

func printDays(days map[time.Time]*calendar.DaySummary) {
	if len(days) == 0 {
		fmt.Println("Nothing planned in this period.")
		return
	}

	dates := make([]time.Time, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	for _, d := range dates {
		s := days[d]
		fmt.Printf("%s — %d occasion(s), %d outfit(s)\n", d.Format("Mon 2006-01-02"), s.OccasionCount, s.OutfitCount)
		for _, item := range s.Visible {
			name := models.DailyOccasionName
			if item.Occasion != nil {
				name = item.Occasion.Name
			}
			switch {
			case item.Entry == nil:
				fmt.Printf("    %s (no outfit yet)\n", name)
			default:
				fmt.Printf("    %s: %d outfit(s)\n", name, len(item.Entry.OutfitIDs))
			}
		}
		if s.Overflow > 0 {
			fmt.Printf("    … and %d more\n", s.Overflow)
		}
	}
}
