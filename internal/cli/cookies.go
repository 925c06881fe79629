package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tubepost/internal/cookies"
)

func cookiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cookies",
		Short: "Manage the yt-dlp cookie file",
	}
	cmd.AddCommand(cookiesProvisionCmd(), cookiesStatusCmd(), cookiesImportCmd())
	return cmd
}

func cookiesProvisionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Materialize cookies from the configured source (remote blob, inline, or local)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp(true)
			source, err := a.provisionCookies(cmd.Context())
			if err != nil {
				return err
			}
			switch source {
			case cookies.SourceNone:
				fmt.Println("No cookie source configured; nothing to do.")
			default:
				color.Green("Cookies provisioned from %s source -> %s", source, a.store.Path())
			}
			return nil
		},
	}
}

func cookiesStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the cookie file state",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp(false)
			fmt.Printf("Path: %s\n", a.store.Path())

			records, err := a.store.Load()
			if err != nil {
				return err
			}
			if records == nil {
				color.Yellow("No cookie file present.")
				return nil
			}

			now := time.Now().Unix()
			expired := 0
			session := 0
			for _, rec := range records {
				switch {
				case rec.Expires == 0:
					session++
				case rec.Expires < now:
					expired++
				}
			}
			fmt.Printf("Cookies: %d total, %d session, %d expired\n", len(records), session, expired)
			if expired > len(records)/2 && len(records) > 0 {
				color.Yellow("More than half the cookies are expired; consider `tubepost solve <url>`.")
			}
			return nil
		},
	}
}

func cookiesImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a Netscape-format cookie file (e.g. from a browser export)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp(false)
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := a.store.WriteRaw(data); err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			color.Green("Imported %s -> %s", args[0], a.store.Path())
			return nil
		},
	}
}
