package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tubepost/internal/botcheck"
	"tubepost/internal/pipeline"
	"tubepost/internal/recovery"
	"tubepost/internal/transcript"
)

var (
	generateOutput  string
	generateNoSolve bool
	generateVerbose bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <youtube-url>",
	Short: "Generate a blog post from a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, args[0])
	},
}

func init() {
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "write the post as markdown to this file")
	generateCmd.Flags().BoolVar(&generateNoSolve, "no-solve", false, "fail immediately on a bot challenge instead of opening a browser")
	generateCmd.Flags().BoolVarP(&generateVerbose, "verbose", "v", false, "verbose logging")
}

func runGenerate(cmd *cobra.Command, url string) error {
	if transcript.ExtractVideoID(url) == "" {
		return fmt.Errorf("not a recognizable YouTube video URL: %s", url)
	}

	a := newApp(generateVerbose)
	ctx := cmd.Context()

	if _, err := a.provisionCookies(ctx); err != nil {
		color.Yellow("cookie provisioning failed: %v", err)
	}

	gen, err := a.generator()
	if err != nil {
		return err
	}

	var rec pipeline.RecoveryRunner
	if !generateNoSolve {
		rec = a.recoveryFlow()
	}

	fmt.Println("Generating blog post...")
	result, err := gen.GenerateWithRecovery(ctx, url, rec)
	if err != nil {
		return describeFailure(err)
	}

	color.Green("Done. Transcript source: %s", result.TranscriptSource)

	markdown := renderMarkdown(result)
	if generateOutput != "" {
		if err := os.WriteFile(generateOutput, []byte(markdown), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Printf("Wrote %s\n", generateOutput)
		return nil
	}
	fmt.Println()
	fmt.Println(markdown)
	return nil
}

func renderMarkdown(result *pipeline.Result) string {
	out := fmt.Sprintf("# %s\n\n", result.Post.Title)
	if result.Post.Description != "" {
		out += fmt.Sprintf("> %s\n\n", result.Post.Description)
	}
	out += result.Post.Content + "\n"
	return out
}

// describeFailure adds remediation hints to the well-known failure modes.
func describeFailure(err error) error {
	var botErr *botcheck.BotDetectionError
	switch {
	case errors.As(err, &botErr):
		return fmt.Errorf("YouTube requires verification for %s; run `tubepost solve %s` and retry", botErr.URL, botErr.URL)
	case errors.Is(err, pipeline.ErrRecoveryExhausted):
		return fmt.Errorf("verification did not stick; wait a while or refresh cookies on another network: %w", err)
	case errors.Is(err, recovery.ErrBrowserUnavailable):
		return fmt.Errorf("%w; run `tubepost solve` on a machine with Chrome and a display, then `tubepost cookies import` here", err)
	case errors.Is(err, transcript.ErrNoTranscript):
		return fmt.Errorf("%w and no speech backend could take over", err)
	default:
		return err
	}
}
