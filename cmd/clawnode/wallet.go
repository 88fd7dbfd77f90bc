package main

import (
	"github.com/spf13/cobra"

	"github.com/claw-network/clawnet/internal/reducers"
)

var walletCmd = &cobra.Command{Use: "wallet", Short: "Wallet commands"}

var walletMintCmd = &cobra.Command{
	Use:   "mint --to <did> --amount <amount> --nonce <n>",
	Short: "Mint tokens to an address (dev-faucet-gated, spec §4.6)",
	RunE: func(cmd *cobra.Command, args []string) error {
		to, _ := cmd.Flags().GetString("to")
		amount, _ := cmd.Flags().GetString("amount")
		nonce, _ := cmd.Flags().GetUint64("nonce")
		return submitCommand("wallet.mint", nonce, nil, reducers.WalletMintPayload{To: to, Amount: amount})
	},
}

var walletTransferCmd = &cobra.Command{
	Use:   "transfer --to <did> --amount <amount> --nonce <n>",
	Short: "Transfer tokens from the signing identity to another address",
	RunE: func(cmd *cobra.Command, args []string) error {
		did, _, _, err := loadSigner()
		if err != nil {
			return err
		}
		to, _ := cmd.Flags().GetString("to")
		amount, _ := cmd.Flags().GetString("amount")
		fee, _ := cmd.Flags().GetString("fee")
		memo, _ := cmd.Flags().GetString("memo")
		nonce, _ := cmd.Flags().GetUint64("nonce")
		return submitCommand("wallet.transfer", nonce, nil, reducers.WalletTransferPayload{
			From: did, To: to, Amount: amount, Fee: fee, Memo: memo,
		})
	},
}

var walletBalanceCmd = &cobra.Command{
	Use:   "balance <address>",
	Short: "Query a wallet's balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getQuery("/wallet/" + args[0] + "/balance")
	},
}

var walletHistoryCmd = &cobra.Command{
	Use:   "history <address>",
	Short: "Query a wallet's event history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getQuery("/wallet/" + args[0] + "/history")
	},
}

func init() {
	walletMintCmd.Flags().String("to", "", "recipient DID")
	walletMintCmd.Flags().String("amount", "", "amount to mint")
	walletMintCmd.Flags().Uint64("nonce", 0, "issuer nonce for this event")

	walletTransferCmd.Flags().String("to", "", "recipient DID")
	walletTransferCmd.Flags().String("amount", "", "amount to transfer")
	walletTransferCmd.Flags().String("fee", "0", "network fee")
	walletTransferCmd.Flags().String("memo", "", "optional memo")
	walletTransferCmd.Flags().Uint64("nonce", 0, "issuer nonce for this event")

	walletCmd.AddCommand(walletMintCmd, walletTransferCmd, walletBalanceCmd, walletHistoryCmd)
}
