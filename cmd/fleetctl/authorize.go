package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"v2vfabric/internal/geo"
	"v2vfabric/internal/wire"
)

func authorizeCmd() *cobra.Command {
	var nbf, exp string
	var west, south, east, north float64
	var operator, outFile string

	cmd := &cobra.Command{
		Use:   "authorize [gufi]",
		Short: "Request a new authorization and print (or save) its load set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gufi, err := wire.ParseGUFI(args[0])
			if err != nil {
				return err
			}
			nbfT, err := time.Parse(time.RFC3339, nbf)
			if err != nil {
				return fmt.Errorf("fleetctl: parsing --nbf: %w", err)
			}
			expT, err := time.Parse(time.RFC3339, exp)
			if err != nil {
				return fmt.Errorf("fleetctl: parsing --exp: %w", err)
			}
			bbox := geo.BBox{West: float32(west), South: float32(south), East: float32(east), North: float32(north)}

			base, _ := cmd.Flags().GetString("authority")
			ls, err := newAuthorityClient(base).Authorize(gufi, nbfT, expT, bbox, operator)
			if err != nil {
				return err
			}
			return emitLoadSet(cmd, ls, outFile)
		},
	}

	cmd.Flags().StringVar(&nbf, "nbf", "", "not-before, RFC3339")
	cmd.Flags().StringVar(&exp, "exp", "", "expiration, RFC3339")
	cmd.Flags().Float64Var(&west, "west", 0, "bbox west longitude")
	cmd.Flags().Float64Var(&south, "south", 0, "bbox south latitude")
	cmd.Flags().Float64Var(&east, "east", 0, "bbox east longitude")
	cmd.Flags().Float64Var(&north, "north", 0, "bbox north latitude")
	cmd.Flags().StringVar(&operator, "operator", "", "operator id granting this authorization")
	cmd.Flags().StringVar(&outFile, "out", "", "write the load set to this file instead of stdout")
	_ = cmd.MarkFlagRequired("nbf")
	_ = cmd.MarkFlagRequired("exp")

	return cmd
}

func emitLoadSet(cmd *cobra.Command, ls any, outFile string) error {
	b, err := json.MarshalIndent(ls, "", "  ")
	if err != nil {
		return err
	}
	if outFile == "" {
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	}
	return os.WriteFile(outFile, b, 0o600)
}
