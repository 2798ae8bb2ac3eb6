// Command gg20-cli is the driver spec.md §6 names as deliberately
// out-of-core: it owns share-file I/O and the in-process round simulation
// used to exercise protocols/ceygen and protocols/sign from the shell,
// but none of the protocol logic itself.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gg20-cli",
	Short: "Driver for the GG20 threshold-ECDSA ceygen/sign protocols",
}

func init() {
	rootCmd.AddCommand(ceygenCmd)
	rootCmd.AddCommand(signCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
