// Command fleetctl is the operator/vehicle CLI for the credentialing
// fabric: it authorizes vehicles against a running authorityd, fetches
// or saves load sets, lists public keys, and runs a transceiver in
// baseline or black-hat mode.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{Use: "fleetctl", Short: "Operate and fly a V2V credentialing fabric vehicle"}
	rootCmd.PersistentFlags().String("authority", "http://127.0.0.1:8090", "authority server base URL")

	rootCmd.AddCommand(authorizeCmd())
	rootCmd.AddCommand(loadsetCmd())
	rootCmd.AddCommand(keysCmd())
	rootCmd.AddCommand(runCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
