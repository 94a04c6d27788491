package main

import (
	"github.com/spf13/cobra"
)

func rootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:           "agentloop",
		Short:         "Answer questions with a tool-using language model agent",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "agentloop.yaml", "path to the configuration file")

	cmd.AddCommand(runCmd(&cfgPath))
	cmd.AddCommand(validateCmd(&cfgPath))

	return cmd
}
