package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/minios-linux/locdiff/i18n"
	"github.com/minios-linux/locdiff/settings"
	"github.com/minios-linux/locdiff/translate"
	"github.com/spf13/cobra"
)

// ---------------------------------------------------------------------------
// auth (set / remove / list)
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage driver API keys",
		Long: `Manage API keys for the translation drivers.

Keys are stored in $XDG_DATA_HOME/locdiff/auth.json (mode 0600). The
--api-key flag and the ` + settings.EnvAPIKey + ` environment variable take
precedence over stored keys.

Examples:
  locdiff auth set --driver groq               Store a Groq API key
  locdiff auth set --driver custom-openai --base-url http://llm.local/v1
  locdiff auth remove --driver groq            Remove the Groq key
  locdiff auth remove                          Remove all credentials
  locdiff auth list                            Show stored credentials`,
	}

	cmd.AddCommand(
		newAuthSetCmd(),
		newAuthRemoveCmd(),
		newAuthListCmd(),
	)

	return cmd
}

// keyDrivers are the drivers that can use a stored API key.
func keyDrivers() []string {
	var out []string
	for _, name := range translate.Names() {
		if name != translate.DriverCopy {
			out = append(out, name)
		}
	}
	return out
}

func completeKeyDrivers(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return keyDrivers(), cobra.ShellCompDirectiveNoFileComp
}

func newAuthSetCmd() *cobra.Command {
	var driver, baseURL string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store an API key for a driver",
		Long:  `Read an API key from standard input and store it for --driver.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(keyDrivers(), driver) {
				return fmt.Errorf(i18n.T("unknown driver %q (valid: %s)"), driver, strings.Join(keyDrivers(), ", "))
			}
			if driver == translate.ProviderCustomOpenAI && baseURL == "" {
				baseURL = settings.BaseURL(driver)
				if baseURL == "" {
					return errors.New(i18n.T("custom-openai requires --base-url"))
				}
			}

			var existing string
			if info := settings.Load()[driver]; info != nil {
				existing = info.Key
			}
			if existing != "" {
				fmt.Fprintf(os.Stderr, i18n.T("  Current key: %s%s%s")+"\n", colorYellow, settings.MaskKey(existing), colorReset)
				fmt.Fprint(os.Stderr, i18n.T("  Enter new key to replace, or press Enter to keep: "))
			} else {
				fmt.Fprint(os.Stderr, i18n.T("  Enter API key: "))
			}

			key, err := readLine(os.Stdin)
			if err != nil {
				return err
			}
			if key == "" {
				if existing != "" {
					logInfo("%s", i18n.T("Keeping existing key"))
					return nil
				}
				if driver != translate.ProviderCustomOpenAI && driver != translate.ProviderOllama {
					return errors.New(i18n.T("no API key provided"))
				}
			}

			if err := settings.SetAPIKey(driver, key, baseURL); err != nil {
				return fmt.Errorf(i18n.T("saving API key: %w"), err)
			}
			logSuccess(i18n.T("%s credentials saved"), driver)
			return nil
		},
	}

	cmd.Flags().StringVar(&driver, "driver", "", "Driver name (required)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Endpoint URL (custom-openai)")
	_ = cmd.MarkFlagRequired("driver")
	_ = cmd.RegisterFlagCompletionFunc("driver", completeKeyDrivers)

	return cmd
}

func newAuthRemoveCmd() *cobra.Command {
	var driver string

	cmd := &cobra.Command{
		Use:     "remove",
		Aliases: []string{"rm", "logout"},
		Short:   "Remove stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if driver != "" {
				if err := settings.Remove(driver); err != nil {
					return err
				}
				logSuccess(i18n.T("%s credentials removed"), driver)
				return nil
			}
			if err := settings.Save(settings.Store{}); err != nil {
				return err
			}
			logSuccess("%s", i18n.T("All credentials removed"))
			return nil
		},
	}

	cmd.Flags().StringVar(&driver, "driver", "", "Driver name (default: all)")
	_ = cmd.RegisterFlagCompletionFunc("driver", completeKeyDrivers)

	return cmd
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show stored credentials",
		Run: func(cmd *cobra.Command, args []string) {
			store := settings.Load()

			fmt.Fprintf(os.Stderr, "\n%s%s%s\n", colorBlue, i18n.T("Stored Credentials"), colorReset)
			fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))

			names := keyDrivers()
			for name := range store {
				if !slices.Contains(names, name) {
					names = append(names, name)
				}
			}
			sort.Strings(names)

			for _, name := range names {
				fmt.Fprintf(os.Stderr, "  %-14s %s\n", name, credentialStatus(store[name]))
			}

			fmt.Fprintln(os.Stderr)
			if env := os.Getenv(settings.EnvAPIKey); env != "" {
				fmt.Fprintf(os.Stderr, "  %s: %s%s%s %s\n", settings.EnvAPIKey, colorGreen, settings.MaskKey(env), colorReset, i18n.T("(overrides stored keys)"))
			} else {
				fmt.Fprintf(os.Stderr, "  %s: %s%s%s\n", settings.EnvAPIKey, colorRed, i18n.T("not set"), colorReset)
			}
			fmt.Fprintln(os.Stderr)
		},
	}
}

func credentialStatus(info *settings.Info) string {
	if info == nil || (info.Key == "" && info.BaseURL == "") {
		return colorRed + i18n.T("not configured") + colorReset
	}
	status := colorGreen + i18n.T("configured") + colorReset
	if info.Key != "" {
		status += fmt.Sprintf(" (key: %s)", settings.MaskKey(info.Key))
	} else {
		status += " " + i18n.T("(no key)")
	}
	if info.BaseURL != "" {
		status += fmt.Sprintf("\n  %14s endpoint: %s", "", info.BaseURL)
	}
	return status
}

func readLine(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", nil
	}
	return strings.TrimSpace(scanner.Text()), nil
}
