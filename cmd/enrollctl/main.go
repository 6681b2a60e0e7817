// Command enrollctl is the operator CLI: it reconciles and settles payments
// against the same stores and provider the server uses, and prices
// registrations offline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "enrollctl",
		Short:         "Operate the enroll payment lifecycle",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(pollCmd())
	rootCmd.AddCommand(cancelCmd())
	rootCmd.AddCommand(refundCmd())
	rootCmd.AddCommand(priceCmd())
	return rootCmd
}
