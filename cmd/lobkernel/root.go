package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newRootCmd(log zerolog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "lobkernel",
		Short:         "Offline deterministic limit-order-book simulation kernel",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newReplayCmd(log))
	root.AddCommand(newGenCmd(log))
	root.AddCommand(newSimulateCmd(log))

	return root
}
