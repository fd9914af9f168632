package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var settingsCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"settings"},
	Short:   "Manage client settings",
	Long: `View and change the settings stored in the config file.

Use "config keys" to list every key that "config set" accepts.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a single setting",
	Long: `Set a single setting. Durations use Go syntax ("30s", "5m") and
watch.databases takes a comma-separated list.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsTokenCmd = &cobra.Command{
	Use:   "set-token",
	Short: "Store a bearer token without echoing it",
	Long: `Prompt for a bearer token and store it as server.token. When stdin is
not a terminal the token is read from the first line of stdin.`,
	Args: cobra.NoArgs,
	RunE: runSettingsToken,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsTokenCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  URL: %s\n", settings.Server.URL)
	switch {
	case settings.Server.OAuth.Enabled():
		cmd.Printf("  Auth: oauth2 client %s via %s\n", settings.Server.OAuth.ClientID, settings.Server.OAuth.TokenURL)
	case settings.Server.Token != "":
		cmd.Printf("  Auth: bearer token %s\n", maskSecret(settings.Server.Token))
	case settings.Server.Username != "":
		cmd.Printf("  Auth: basic, user %s\n", settings.Server.Username)
	default:
		cmd.Println("  Auth: none")
	}
	cmd.Println()

	cmd.Println("[Watch]")
	if len(settings.Watch.Databases) > 0 {
		cmd.Printf("  Databases: %s\n", strings.Join(settings.Watch.Databases, ", "))
	} else {
		cmd.Println("  Databases: (none)")
	}
	cmd.Printf("  Local interval: %s\n", settings.Watch.LocalInterval)
	cmd.Printf("  Remote interval: %s\n", settings.Watch.RemoteInterval)
	if settings.Watch.PageLimit > 0 {
		cmd.Printf("  Page limit: %d\n", settings.Watch.PageLimit)
	}
	cmd.Println()

	cmd.Println("[Transport]")
	cmd.Printf("  Rate: %g req/s (burst %d)\n", settings.Transport.Rate, settings.Transport.Burst)
	cmd.Printf("  Timeout: %s\n", settings.Transport.Timeout)
	cmd.Println()

	cmd.Println("[Cache]")
	cmd.Printf("  Enabled: %t\n", settings.Cache.Enabled)
	if settings.Cache.Path != "" {
		cmd.Printf("  Path: %s\n", settings.Cache.Path)
	}
	cmd.Println()

	cmd.Printf("Config file: %s\n", settingsService.Path())
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	if isSecretKey(key) {
		value = maskSecret(value)
	}
	cmd.Printf("%s = %s\n", key, value)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runSettingsToken(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Print("Token: ")
	token := readPassword(cmd.InOrStdin())
	cmd.Println()
	if token == "" {
		return errors.New("no token entered")
	}

	if err := settingsService.Set("server.token", token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	cmd.Printf("Token %s stored in %s\n", maskSecret(token), settingsService.Path())
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	reader := bufio.NewReader(in)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func isSecretKey(key string) bool {
	return key == "server.token" || key == "server.password" || key == "server.oauth.client_secret"
}

func maskSecret(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
