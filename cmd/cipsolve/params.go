package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/operator-framework/cipcore/internal/engineerr"
	"github.com/operator-framework/cipcore/pkg/params"
)

func newParamsCommand(logger *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "inspect and validate parameter files",
	}
	cmd.AddCommand(newParamsListCommand(logger))
	return cmd
}

func newParamsListCommand(logger *logrus.Logger) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "load a parameter file and print every known parameter",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := params.New()
			if path != "" {
				if err := store.ReadFile(path, logger); err != nil {
					return engineerr.Wrap(err, "cipsolve.params.list", "load parameter file")
				}
			}
			for _, name := range store.SortedNames() {
				p, err := store.Describe(name)
				if err != nil {
					return engineerr.Wrap(err, "cipsolve.params.list", name)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %s\n", p.Name, p.Kind, p.Description)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "parameter file to load before listing")
	return cmd
}
