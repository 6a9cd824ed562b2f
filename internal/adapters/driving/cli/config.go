package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/testbrief/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and edit the config file",
	Long: `Read and edit ~/.testbrief/config.toml. Environment variables and .env
files override values set here.`,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one value, or all values when no key is given",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:     "set [key] [value]",
	Short:   "Set a value",
	Example: "  testbrief config set jira.url https://example.atlassian.net\n  testbrief config set pipeline.concurrency 4",
	Args:    cobra.ExactArgs(2),
	RunE:    runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	if len(args) == 1 {
		val, ok := configStore.Get(args[0])
		if !ok {
			return fmt.Errorf("%s is not set", args[0])
		}
		cmd.Println(displayValue(args[0], val))
		return nil
	}

	keys := configStore.Keys()
	if len(keys) == 0 {
		cmd.Println("No values set in " + configStore.Path())
		return nil
	}
	for _, k := range keys {
		val, _ := configStore.Get(k)
		cmd.Printf("%s = %s\n", k, displayValue(k, val))
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}
	key := args[0]
	if !config.IsFileKey(key) {
		return fmt.Errorf("unknown key %q; known keys: %s", key, strings.Join(config.FileKeys(), ", "))
	}
	if err := configStore.Set(key, parseValue(args[1])); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	cmd.Printf("%s = %s\n", strings.ToLower(key), displayValue(key, parseValue(args[1])))
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}
	cmd.Println(configStore.Path())
	return nil
}

// parseValue stores numbers as numbers so typed getters work.
func parseValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// displayValue masks secrets.
func displayValue(key string, val any) string {
	s := fmt.Sprint(val)
	k := strings.ToLower(key)
	if strings.HasSuffix(k, "token") || strings.HasSuffix(k, "api_key") {
		return maskSecret(s)
	}
	return s
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
