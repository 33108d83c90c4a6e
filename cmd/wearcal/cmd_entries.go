package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func entriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Manage calendar entries",
	}
	cmd.AddCommand(entriesDeleteCmd())
	return cmd
}

func entriesDeleteCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "delete ENTRY_ID",
		Short: "Remove one entry, leaving its occasion and outfits in place",
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

			if err := engine.DeleteEntry(cmd.Context(), uid, args[0]); err != nil {
				return fmt.Errorf("entries delete: %w", err)
			}
			fmt.Println("Deleted entry.")
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "acting user (defaults to closet.user_id)")
	return cmd
}
