package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func keysCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "keys", Short: "List public token/message keys known to the authority"}
	cmd.AddCommand(tokenKeysCmd(), messageKeysCmd())
	return cmd
}

func tokenKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token-keys",
		Short: "List token-key epochs' public halves",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, _ := cmd.Flags().GetString("authority")
			keys, err := newAuthorityClient(base).TokenKeys()
			if err != nil {
				return err
			}
			return printJSON(cmd, keys)
		},
	}
}

func messageKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "message-keys",
		Short: "List root-key epochs' public halves",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, _ := cmd.Flags().GetString("authority")
			keys, err := newAuthorityClient(base).MessageKeys()
			if err != nil {
				return err
			}
			return printJSON(cmd, keys)
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
