package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wardrobeapp/wearcal/internal/closet"
	"github.com/wardrobeapp/wearcal/internal/models"
)

func occasionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "occasions",
		Short: "Create, list, and delete occasions",
	}
	cmd.AddCommand(occasionsCreateCmd(), occasionsListCmd(), occasionsDeleteCmd())
	return cmd
}

func occasionsCreateCmd() *cobra.Command {
	var (
		user        string
		typeID      string
		description string
		dateStr     string
		startStr    string
		endStr      string
	)

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create an occasion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			uid, err := resolveUser(user)
			if err != nil {
				return err
			}

			st := newStore(logger)
			defer func() { _ = st.Close() }()
			engine := newEngine(st, logger)

			date, err := time.Parse(time.DateOnly, dateStr)
			if err != nil {
				return fmt.Errorf("occasions create: parsing --date: %w", err)
			}
			fields := closet.OccasionFields{
				OccasionTypeID: typeID,
				Name:           args[0],
				Description:    description,
				Date:           date,
			}
			if startStr != "" {
				fields.StartTime, err = time.Parse(time.RFC3339, startStr)
				if err != nil {
					return fmt.Errorf("occasions create: parsing --start: %w", err)
				}
			}
			if endStr != "" {
				fields.EndTime, err = time.Parse(time.RFC3339, endStr)
				if err != nil {
					return fmt.Errorf("occasions create: parsing --end: %w", err)
				}
			}

			occ, err := engine.CreateOccasion(cmd.Context(), uid, fields)
			if err != nil {
				return fmt.Errorf("occasions create: %w", err)
			}
			fmt.Printf("Created occasion %q on %s (%s)\n", occ.Name, occ.Date.Format(time.DateOnly), occ.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "acting user (defaults to closet.user_id)")
	cmd.Flags().StringVar(&typeID, "type", "", "occasion type id")
	cmd.Flags().StringVar(&description, "description", "", "free-text description")
	cmd.Flags().StringVar(&dateStr, "date", "", "date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&startStr, "start", "", "start time (RFC 3339)")
	cmd.Flags().StringVar(&endStr, "end", "", "end time (RFC 3339)")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func occasionsListCmd() *cobra.Command {
	var (
		user    string
		fromStr string
		toStr   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List occasions in a date range",
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
				return fmt.Errorf("occasions list: %w", err)
			}

			occasions, err := st.ListOccasions(cmd.Context(), uid, period)
			if err != nil {
				return fmt.Errorf("occasions list: %w", err)
			}

			for _, o := range occasions {
				marker := ""
				if o.IsDailyPlaceholder() {
					marker = " [daily]"
				}
				fmt.Printf("%s  %s%s  (%s)\n", o.Date.Format(time.DateOnly), o.Name, marker, o.ID)
			}
			if len(occasions) == 0 {
				fmt.Println("No occasions found.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "acting user (defaults to closet.user_id)")
	cmd.Flags().StringVar(&fromStr, "from", "", "range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toStr, "to", "", "range end (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func occasionsDeleteCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "delete OCCASION_ID",
		Short: "Delete an occasion and all entries bound to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			uid, err := resolveUser(user)
			if err != nil {
				return err
			}

			st := newStore(logger)
			defer func() { _ = st.Close() }()
			engine := newEngine(st, logger)

			if err := engine.DeleteOccasion(cmd.Context(), uid, args[0]); err != nil {
				return fmt.Errorf("occasions delete: %w", err)
			}
			fmt.Println("Deleted occasion and its calendar entries.")
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "acting user (defaults to closet.user_id)")
	return cmd
}

func parseRange(fromStr, toStr string) (period models.Period, err error) {
	period.Start, err = time.Parse(time.DateOnly, fromStr)
	if err != nil {
		return period, fmt.Errorf("parsing --from: %w", err)
	}
	period.End, err = time.Parse(time.DateOnly, toStr)
	if err != nil {
		return period, fmt.Errorf("parsing --to: %w", err)
	}
	return period, nil
}
