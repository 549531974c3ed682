package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/persenaut/challenges/internal/challenge"
	"github.com/persenaut/challenges/internal/ui/theme"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently stored challenges",
	Long: `Show stored challenges, newest first.

With --tematica and --nivel only unexpired challenges of that pair are shown,
from the configured backend. Without them every pair in the SQLite store is
listed, expired rows included.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		themeVal, _ := cmd.Flags().GetString("tematica")
		level, _ := cmd.Flags().GetString("nivel")
		limit, _ := cmd.Flags().GetInt("limit")
		full, _ := cmd.Flags().GetBool("full")
		ctx := context.Background()

		var records []challenge.StoredQuestion
		if themeVal != "" || level != "" {
			a, logger, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			defer a.Close()

			records, err = a.Handler().Recent(ctx, themeVal, level, limit)
			if err != nil {
				return err
			}
		} else {
			s, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			records, err = s.ChallengeRepo().List(ctx, "", "", limit)
			if err != nil {
				return fmt.Errorf("list challenges: %w", err)
			}
		}

		if len(records) == 0 {
			fmt.Println("No challenges stored.")
			return nil
		}

		for _, r := range records {
			fmt.Println(theme.Title.Render(fmt.Sprintf("%s · %s", r.Theme, r.Level)) + "  " +
				theme.Hint.Render(r.CreatedAt.Local().Format("2006-01-02 15:04:05")))
			if full {
				fmt.Println(theme.RenderQuestion(r.Text))
			} else {
				fmt.Println("  " + theme.Body.Render(truncate(firstLine(r.Text), 96)))
			}
			fmt.Println(theme.Field("  ID", r.ID))
		}
		return nil
	},
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func init() {
	historyCmd.Flags().String("tematica", "", "Theme to show")
	historyCmd.Flags().String("nivel", "", "Level to show")
	historyCmd.Flags().IntP("limit", "n", 10, "Number of challenges to show")
	historyCmd.Flags().Bool("full", false, "Print the whole question")
}
