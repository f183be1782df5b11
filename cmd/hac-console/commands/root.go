package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/moolen/hac-console/internal/config"
	"github.com/moolen/hac-console/internal/logging"
	"github.com/spf13/cobra"
)

const Version = "0.1.0"

var (
	logLevelFlags []string // Supports multiple --log-level flags
	configPath    string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "hac-console",
	Short: "hac-console - workspace console and e2e tooling",
	Long: `hac-console serves a small workspace console for applications and
snapshots, and bundles the GitHub and cluster helpers used by its e2e suite.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLog(logLevelFlags); err != nil {
			return err
		}
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Supports per-package log levels: --log-level debug --log-level github=debug
	rootCmd.PersistentFlags().StringSliceVar(&logLevelFlags, "log-level",
		[]string{"info"},
		"Log level for packages. Use 'default=level' for default, or 'package=level' for per-package.\n"+
			"Examples: --log-level debug (all), --log-level github=debug --log-level console=warn")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a YAML config file (environment variables override it)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(githubCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(cleanCmd)
}

// setupLog initializes the logging system with parsed log level flags.
// Priority: CLI flags > LOG_LEVEL_* environment variables
func setupLog(flags []string) error {
	defaultLevel, packageLevels, err := parseLogLevelFlags(flags, os.Environ())
	if err != nil {
		return err
	}
	return logging.Initialize(defaultLevel, packageLevels)
}

// parseLogLevelFlags merges LOG_LEVEL_* variables from environ with flags.
//
// CLI format: ["debug"], ["default=info", "github=debug"]
// Env vars: LOG_LEVEL_GITHUB=debug (package name uppercased, dots to underscores)
func parseLogLevelFlags(flags, environ []string) (string, map[string]string, error) {
	result := make(map[string]string)

	for _, envPair := range environ {
		key, level, ok := strings.Cut(envPair, "=")
		if !ok || !strings.HasPrefix(key, "LOG_LEVEL_") {
			continue
		}
		result[convertEnvKeyToPackageName(key)] = level
	}

	for _, flag := range flags {
		pkg, level, ok := strings.Cut(flag, "=")
		if !ok {
			result["default"] = flag
			continue
		}
		result[pkg] = level
	}

	defaultLevel := "info"
	if level, exists := result["default"]; exists {
		defaultLevel = level
		delete(result, "default")
	}

	if !logging.ValidLevel(defaultLevel) {
		return "", nil, fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error, fatal)", defaultLevel)
	}
	for pkg, level := range result {
		if !logging.ValidLevel(level) {
			return "", nil, fmt.Errorf("invalid log level for package %q: %s", pkg, level)
		}
	}

	return defaultLevel, result, nil
}

// convertEnvKeyToPackageName converts LOG_LEVEL_GITHUB_CLIENT -> github.client
func convertEnvKeyToPackageName(envKey string) string {
	name := strings.TrimPrefix(envKey, "LOG_LEVEL_")
	return strings.ToLower(strings.ReplaceAll(name, "_", "."))
}
