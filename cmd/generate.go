package cmd

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/persenaut/challenges/internal/challenge"
	"github.com/persenaut/challenges/internal/ui/theme"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate and store one challenge",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		themeVal, _ := cmd.Flags().GetString("tematica")
		level, _ := cmd.Flags().GetString("nivel")

		a, logger, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck
		defer a.Close()

		out, err := a.Generate(ctx, challenge.Request{Theme: themeVal, Level: level})
		if err != nil {
			var exhausted *challenge.UniquenessExhausted
			if errors.As(err, &exhausted) {
				fmt.Println(theme.Failure.Render(fmt.Sprintf("No unique challenge after %d attempts.", exhausted.Attempts)))
				fmt.Println(theme.Hint.Render("Last rejected candidate:"))
				fmt.Println(theme.RenderQuestion(exhausted.LastAttempt))
			}
			return err
		}

		fmt.Println(theme.Title.Render(fmt.Sprintf("%s · %s", out.Theme, out.Level)))
		fmt.Println(theme.RenderQuestion(out.Challenge))
		fmt.Println(theme.Field("ID", out.ID))
		fmt.Println(theme.Field("Model", out.Model))
		fmt.Println(theme.Field("Attempts", fmt.Sprint(out.Attempts)))
		return nil
	},
}

func init() {
	generateCmd.Flags().String("tematica", "", "Theme of the challenge (required)")
	generateCmd.Flags().String("nivel", "", "Level of the challenge (required)")
	_ = generateCmd.MarkFlagRequired("tematica")
	_ = generateCmd.MarkFlagRequired("nivel")
}
