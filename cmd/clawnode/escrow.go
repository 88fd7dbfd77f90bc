package main

import (
	"github.com/spf13/cobra"

	"github.com/claw-network/clawnet/internal/reducers"
)

var escrowCmd = &cobra.Command{Use: "escrow", Short: "Escrow commands"}

func mustNonce(cmd *cobra.Command) uint64 {
	n, _ := cmd.Flags().GetUint64("nonce")
	return n
}

func mustPrev(cmd *cobra.Command) *string {
	p, _ := cmd.Flags().GetString("prev")
	return prevPtr(p)
}

var escrowCreateCmd = &cobra.Command{
	Use:   "create <id> --depositor <did> --beneficiary <did> --amount <amount> --rules <rules> --nonce <n>",
	Short: "Create a new escrow (spec §4.6)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		depositor, _ := cmd.Flags().GetString("depositor")
		beneficiary, _ := cmd.Flags().GetString("beneficiary")
		arbiter, _ := cmd.Flags().GetString("arbiter")
		amount, _ := cmd.Flags().GetString("amount")
		rules, _ := cmd.Flags().GetString("rules")
		return submitCommand("wallet.escrow.create", mustNonce(cmd), nil, reducers.EscrowCreatePayload{
			ID: args[0], Depositor: depositor, Beneficiary: beneficiary, Arbiter: arbiter,
			Amount: amount, ReleaseRules: rules,
		})
	},
}

var escrowFundCmd = &cobra.Command{
	Use:  "fund <id> --amount <amount> --prev <hash> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, _ := cmd.Flags().GetString("amount")
		return submitCommand("wallet.escrow.fund", mustNonce(cmd), mustPrev(cmd), reducers.EscrowFundPayload{ID: args[0], Amount: amount})
	},
}

var escrowReleaseCmd = &cobra.Command{
	Use:  "release <id> --amount <amount> --prev <hash> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, _ := cmd.Flags().GetString("amount")
		return submitCommand("wallet.escrow.release", mustNonce(cmd), mustPrev(cmd), reducers.EscrowReleasePayload{ID: args[0], Amount: amount})
	},
}

var escrowRefundCmd = &cobra.Command{
	Use:  "refund <id> --amount <amount> --prev <hash> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, _ := cmd.Flags().GetString("amount")
		return submitCommand("wallet.escrow.refund", mustNonce(cmd), mustPrev(cmd), reducers.EscrowRefundPayload{ID: args[0], Amount: amount})
	},
}

var escrowExpireCmd = &cobra.Command{
	Use:  "expire <id> --prev <hash> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submitCommand("wallet.escrow.expire", mustNonce(cmd), mustPrev(cmd), reducers.EscrowRefundPayload{ID: args[0]})
	},
}

var escrowDisputeCmd = &cobra.Command{
	Use:  "dispute <id> --prev <hash> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		return submitCommand("wallet.escrow.dispute", mustNonce(cmd), mustPrev(cmd), reducers.EscrowDisputePayload{ID: args[0], Reason: reason})
	},
}

var escrowResolveCmd = &cobra.Command{
	Use:  "resolve <id> --to-beneficiary <amount> --to-depositor <amount> --prev <hash> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		toBeneficiary, _ := cmd.Flags().GetString("to-beneficiary")
		toDepositor, _ := cmd.Flags().GetString("to-depositor")
		return submitCommand("wallet.escrow.resolve", mustNonce(cmd), mustPrev(cmd), reducers.EscrowResolvePayload{
			ID: args[0], ToBeneficiary: toBeneficiary, ToDepositor: toDepositor,
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{escrowCreateCmd, escrowFundCmd, escrowReleaseCmd, escrowRefundCmd, escrowExpireCmd, escrowDisputeCmd, escrowResolveCmd} {
		c.Flags().Uint64("nonce", 0, "issuer nonce for this event")
	}
	for _, c := range []*cobra.Command{escrowFundCmd, escrowReleaseCmd, escrowRefundCmd, escrowExpireCmd, escrowDisputeCmd, escrowResolveCmd} {
		c.Flags().String("prev", "", "escrow's current lastEventHash (resource chain, spec §4.7)")
	}
	escrowCreateCmd.Flags().String("depositor", "", "depositor DID")
	escrowCreateCmd.Flags().String("beneficiary", "", "beneficiary DID")
	escrowCreateCmd.Flags().String("arbiter", "", "optional arbiter DID")
	escrowCreateCmd.Flags().String("amount", "", "escrow amount")
	escrowCreateCmd.Flags().String("rules", "", "release rules descriptor")
	escrowFundCmd.Flags().String("amount", "", "amount to fund")
	escrowReleaseCmd.Flags().String("amount", "", "amount to release")
	escrowRefundCmd.Flags().String("amount", "", "amount to refund")
	escrowDisputeCmd.Flags().String("reason", "", "optional reason")
	escrowResolveCmd.Flags().String("to-beneficiary", "0", "amount awarded to beneficiary")
	escrowResolveCmd.Flags().String("to-depositor", "0", "amount returned to depositor")

	escrowCmd.AddCommand(escrowCreateCmd, escrowFundCmd, escrowReleaseCmd, escrowRefundCmd, escrowExpireCmd, escrowDisputeCmd, escrowResolveCmd)
}
