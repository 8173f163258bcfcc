package main

import (
	"github.com/spf13/cobra"

	"v2vfabric/internal/wire"
)

func loadsetCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "loadset [gufi]",
		Short: "Fetch an existing authorization's load set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gufi, err := wire.ParseGUFI(args[0])
			if err != nil {
				return err
			}
			base, _ := cmd.Flags().GetString("authority")
			ls, err := newAuthorityClient(base).LoadSet(gufi)
			if err != nil {
				return err
			}
			return emitLoadSet(cmd, ls, outFile)
		},
	}

	cmd.Flags().StringVar(&outFile, "out", "", "write the load set to this file instead of stdout")
	return cmd
}
