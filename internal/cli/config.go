package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tubepost/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration (with env overrides, secrets redacted)",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg := config.LoadOrDefault()
				redact(&cfg.Transcription.AssemblyAIKey)
				redact(&cfg.Transcription.DeepgramKey)
				redact(&cfg.Blog.APIKey)
				redact(&cfg.Cookies.SupabaseKey)
				redact(&cfg.Cookies.InlineB64)

				out, err := yaml.Marshal(cfg)
				if err != nil {
					return err
				}
				fmt.Print(string(out))
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := config.SavePath()
				if err != nil {
					return err
				}
				fmt.Println(path)
				if !config.Exists() {
					fmt.Println("(file does not exist yet; defaults are in effect)")
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write the default config file",
			RunE: func(cmd *cobra.Command, args []string) error {
				if config.Exists() {
					path, _ := config.SavePath()
					return fmt.Errorf("config already exists at %s", path)
				}
				if err := config.Default().Save(); err != nil {
					return err
				}
				path, _ := config.SavePath()
				fmt.Printf("Wrote %s\n", path)
				return nil
			},
		},
	)
	return cmd
}

func redact(s *string) {
	if *s != "" {
		*s = "<redacted>"
	}
}
