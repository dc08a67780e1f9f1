package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the admin token against the server",
	Args:  cobra.NoArgs,
	RunE:  runVerify,
}

func runVerify(cmd *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	if err := client.Verify(cmd.Context()); err != nil {
		return err
	}

	if !quiet {
		fmt.Fprintln(cmd.OutOrStdout(), "Token verified.")
	}
	return nil
}
