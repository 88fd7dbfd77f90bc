// Command clawnode is both the protocol daemon (clawnode serve) and a
// thin client over its REST surface (clawnode wallet ..., clawnode
// escrow ..., etc.), following the teacher's cmd/cli convention of one
// file per domain noun, each exporting a *cobra.Command wired in its
// own init().
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// clientFlags holds the REST-client-side configuration shared by every
// write/query subcommand. serve's own flags are defined in serve.go.
type clientFlags struct {
	apiBase     string
	keystoreDir string
	keyID       string
	passphrase  string
}

var flags clientFlags

var rootCmd = &cobra.Command{
	Use:   "clawnode",
	Short: "clawnet node daemon and REST client",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.apiBase, "api", "http://localhost:8080/v1", "base URL of a running node's REST API")
	rootCmd.PersistentFlags().StringVar(&flags.keystoreDir, "keystore", "./data/keys", "keystore directory")
	rootCmd.PersistentFlags().StringVar(&flags.keyID, "key", "", "keystore key id used to sign commands")
	rootCmd.PersistentFlags().StringVar(&flags.passphrase, "passphrase", "", "passphrase unlocking --key")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(walletCmd)
	rootCmd.AddCommand(identityCmd)
	rootCmd.AddCommand(escrowCmd)
	rootCmd.AddCommand(marketCmd)
	rootCmd.AddCommand(contractCmd)
	rootCmd.AddCommand(reputationCmd)
	rootCmd.AddCommand(daoCmd)
	rootCmd.AddCommand(nodeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
