// Package cli is the rotabot command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rotabot/internal/app"
	logx "rotabot/pkg/logx"
)

type rootOptions struct {
	ConfigPath string
	LogLevel   string
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "rotabot",
		Short:         "Rotating chore schedule kept in a chat",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "./config.yaml", "path to config (JSON or YAML)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level for one-shot commands")

	cmd.AddCommand(
		newRunCmd(opts),
		newResetCmd(opts),
		newTopUpCmd(opts),
		newScheduleCmd(opts),
		newSwapCmd(opts),
		newSkipCmd(opts),
		newValidateCmd(opts),
	)
	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// withLocal opens the ledger for a one-shot command and closes it afterwards.
func withLocal(opts *rootOptions, fn func(l *app.Local) error) error {
	l, err := app.OpenLocal(opts.ConfigPath, logx.NewConsole(opts.LogLevel))
	if err != nil {
		return err
	}
	defer func() { _ = l.Close() }()
	return fn(l)
}
