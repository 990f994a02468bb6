// Command pmsctl runs PMS syncs, connection probes and schema migrations from the shell.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/infrastructure/config"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/infrastructure/logger"
)

var version = "dev"

type rootOptions struct {
	configPath string
	logLevel   string
	jsonOutput bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "pmsctl",
		Short:         "Operate the PMS integration engine",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default: ./config.toml or /etc/pms-sync/config.toml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVarP(&opts.jsonOutput, "json", "j", false, "print results as JSON")

	root.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print version info",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "pmsctl %s\n", version)
			},
		},
		newSyncCmd(opts),
		newTestConnectionCmd(opts),
		newWebhookCmd(opts),
		newMigrateCmd(opts),
	)
	return root
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadFile(o.configPath)
	}
	return config.Load()
}

// newLogger writes to stderr so stdout stays parseable
func (o *rootOptions) newLogger() (*zap.Logger, error) {
	return logger.New(logger.Config{Level: o.logLevel, Format: "console", Output: "stderr", Service: "pmsctl"})
}

func (o *rootOptions) print(w io.Writer, v any, text func(io.Writer)) error {
	if !o.jsonOutput {
		text(w)
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
