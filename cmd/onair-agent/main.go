// Command onair-agent polls a remote on-air status and mirrors it on a GPIO
// line, a terminal display and MQTT.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sweeney/onair-agent/internal/config"
	"github.com/sweeney/onair-agent/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := config.New()
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "onair-agent",
		Short:         "On-air indicator agent",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := applyConfigFile(cmd.Flags(), cfg, configPath); err != nil {
				return err
			}
			if err := cfg.Log.Validate(); err != nil {
				return fmt.Errorf("invalid log settings: %w", err)
			}
			l, err := logger.Init(cfg.Log.Format, cfg.Log.Level)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			zap.ReplaceGlobals(l)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = zap.L().Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file; flags given on the command line take precedence")
	registerLoggingFlags(rootCmd, cfg)

	rootCmd.AddCommand(
		newRunCommand(cfg),
		newServeCommand(),
		newPrintStatusCommand(cfg),
		newVersionCommand(),
	)
	return rootCmd
}

func registerLoggingFlags(cmd *cobra.Command, cfg *config.Config) {
	cmd.PersistentFlags().StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "format of the logs: console or json")
	cmd.PersistentFlags().StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "log level")
}

// applyConfigFile overlays the YAML file onto cfg and then re-applies every
// flag set on the command line, so flags win over the file.
func applyConfigFile(flags *pflag.FlagSet, cfg *config.Config, path string) error {
	if path == "" {
		return nil
	}

	changed := map[string]string{}
	flags.Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	if err := config.LoadFile(cfg, path); err != nil {
		return err
	}

	for name, value := range changed {
		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("re-apply --%s: %w", name, err)
		}
	}
	return nil
}
