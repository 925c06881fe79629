package cli

import (
	"github.com/spf13/cobra"

	"tubepost/internal/version"
)

var rootCmd = &cobra.Command{
	Use:     "tubepost",
	Short:   "Turn a YouTube video into a blog post",
	Version: version.Version,
	Long: `tubepost converts YouTube videos into blog posts.

It fetches the transcript directly when captions exist, falls back to
downloading the audio and transcribing it, and hands the text to an LLM
to write the article. When YouTube demands human verification, the solve
command opens a browser so you can clear the challenge and refresh the
session cookies.`,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(cookiesCmd())
	rootCmd.AddCommand(configCmd())
}

func Execute() error {
	return rootCmd.Execute()
}
