package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired challenges from the SQLite store",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		repo := s.ChallengeRepo()
		n, err := repo.PurgeExpired(ctx)
		if err != nil {
			return fmt.Errorf("purge: %w", err)
		}
		remaining, err := repo.Count(ctx)
		if err != nil {
			return fmt.Errorf("count: %w", err)
		}
		fmt.Printf("Deleted %d expired challenges, %d remain.\n", n, remaining)
		return nil
	},
}
