// SPDX-FileCopyrightText: 2020 jecoz
//
// SPDX-License-Identifier: BSD-3-Clause

// Command queueworker composes queue processing services described in
// intent files and prints either the resource graph or the API inputs
// that create it.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jecoz/queueworker"
	"github.com/jecoz/queueworker/internal/config"
	"github.com/jecoz/queueworker/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	exitError       = 1
	exitConfigError = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "error * %v\n", err)
		return exitCode(err)
	}
	return 0
}

func exitCode(err error) int {
	if queueworker.IsConfigError(err) {
		return exitConfigError
	}
	return exitError
}

type app struct {
	stdout  io.Writer
	stderr  io.Writer
	cfgFile string
	cfg     *config.Config
	log     *zap.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:           "queueworker",
		Short:         "Compose queue processing services",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logging.New(logging.Config{
				Service:     "queueworker",
				Level:       cfg.LogLevel,
				Development: cfg.Development,
				Output:      a.stderr,
			})
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "configuration file (default ./queueworker.yaml)")
	pf.String("log-level", "info", "debug, info, warn or error")
	pf.String("format", config.FormatJSON, "output format, json or yaml")
	pf.Bool("remove-default-desired-count", false, "leave the desired count unset when the intent omits it")

	root.AddCommand(a.composeCmd(), a.renderCmd())
	return root
}
