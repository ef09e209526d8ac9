// Command cipsolve is a command-line front end over the solver core: read
// a problem and an optional parameter file, run the search engine, and
// report the outcome.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/operator-framework/cipcore/internal/cipsignal"
	"github.com/operator-framework/cipcore/internal/cipversion"
	"github.com/operator-framework/cipcore/internal/cliconfig"
	"github.com/operator-framework/cipcore/internal/engineerr"
)

func main() {
	logger := logrus.New()
	root := newRootCommand(logger)
	if err := root.ExecuteContext(cipsignal.Context()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if engineerr.IsFatal(engineerr.Cause(err)) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCommand(logger *logrus.Logger) *cobra.Command {
	var configPath string
	cfg := cliconfig.Default()
	root := &cobra.Command{
		Use:           "cipsolve",
		Short:         "Branch-and-bound constraint integer programming solver core",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return nil
			}
			loaded, err := cliconfig.Load(configPath)
			if err != nil {
				return engineerr.Wrap(err, "cipsolve", "load config file")
			}
			cfg = loaded
			if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
				logger.SetLevel(level)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "bootstrap config file (YAML)")
	root.AddCommand(newSolveCommand(logger, &cfg))
	root.AddCommand(newParamsCommand(logger))
	root.AddCommand(newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), cipversion.String())
			return nil
		},
	}
}
