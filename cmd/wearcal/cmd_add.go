package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wardrobeapp/wearcal/internal/advisor"
	"github.com/wardrobeapp/wearcal/internal/scheduler"
)

func addCmd() *cobra.Command {
	var (
		user       string
		occasionID string
		daily      bool
		dateStr    string
		window     int
		confirm    bool
	)

	cmd := &cobra.Command{
		Use:   "add OUTFIT_ID [OUTFIT_ID...]",
		Short: "Schedule one or more outfits on an occasion or a daily slot",
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

			var date time.Time
			if dateStr != "" {
				date, err = time.Parse(time.DateOnly, dateStr)
				if err != nil {
					return fmt.Errorf("add: parsing --date: %w", err)
				}
			}
			if window <= 0 {
				window = cfg.Advisor.GapWindowDays
			}

			result, err := engine.AddOutfits(cmd.Context(), uid, scheduler.AddRequest{
				OutfitIDs:  args,
				OccasionID: occasionID,
				Daily:      daily,
				Date:       date,
				WindowDays: window,
				Confirmed:  confirm,
			})
			if err != nil {
				return fmt.Errorf("add: %w", err)
			}

			if result.Advisory != nil {
				printAdvisory(*result.Advisory)
				fmt.Println("Nothing was scheduled. Re-run with --confirm to schedule anyway.")
				return nil
			}

			fmt.Printf("Scheduled %d outfit(s) for %s (entry %s)\n",
				len(result.Entry.OutfitIDs), result.Entry.UsedAt.Format(time.DateOnly), result.Entry.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "acting user (defaults to closet.user_id)")
	cmd.Flags().StringVar(&occasionID, "occasion", "", "occasion to bind the outfits to")
	cmd.Flags().BoolVar(&daily, "daily", false, "bind as the day's daily outfit")
	cmd.Flags().StringVar(&dateStr, "date", "", "date (YYYY-MM-DD), required with --daily")
	cmd.Flags().IntVar(&window, "window", 0, "gap-day window in days (defaults to advisor.gap_window_days)")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "schedule even if recently worn items are flagged")
	return cmd
}

func printAdvisory(v advisor.Verdict) {
	fmt.Printf("Heads up: %d item(s) were worn within the last %d day(s):\n", len(v.AffectedItems), v.WindowDays)
	for _, item := range v.AffectedItems {
		fmt.Printf("  - %s (%s): worn %dx, last on %s\n",
			item.Item.Name, item.Item.Category, item.TimesWorn, item.LastWorn.Format(time.DateOnly))
	}
}
