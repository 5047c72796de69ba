package cmd

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "recall",
		Short:        "Memory engine for conversational coding tools",
		SilenceUsage: true,
	}

	cmd.AddCommand(
		newServerCmd(),
	)

	return cmd
}
