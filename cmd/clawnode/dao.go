package main

import (
	"github.com/spf13/cobra"

	"github.com/claw-network/clawnet/internal/reducers"
)

var daoCmd = &cobra.Command{Use: "dao", Short: "DAO governance commands"}

var proposalCreateCmd = &cobra.Command{
	Use:  "create <id> --kind <kind> --quorum <f> --pass-threshold <f> --timelock-delay <ms> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		quorum, _ := cmd.Flags().GetFloat64("quorum")
		pass, _ := cmd.Flags().GetFloat64("pass-threshold")
		delay, _ := cmd.Flags().GetInt64("timelock-delay")
		return submitCommand("dao.proposal.create", mustNonce(cmd), nil, reducers.ProposalCreatePayload{
			ID: args[0], Kind: kind, Quorum: quorum, PassThreshold: pass, TimelockDelay: delay,
		})
	},
}

var proposalAdvanceCmd = &cobra.Command{
	Use:  "advance <id> --total-voting-power <f> --prev <hash> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		total, _ := cmd.Flags().GetFloat64("total-voting-power")
		return submitCommand("dao.proposal.advance", mustNonce(cmd), mustPrev(cmd), reducers.ProposalAdvancePayload{ID: args[0], TotalVotingPower: total})
	},
}

var voteCastCmd = &cobra.Command{
	Use:  "cast <proposalId> --support --prev <hash> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		support, _ := cmd.Flags().GetBool("support")
		tokens, _ := cmd.Flags().GetString("tokens")
		mult, _ := cmd.Flags().GetFloat64("reputation-multiplier")
		return submitCommand("dao.vote.cast", mustNonce(cmd), mustPrev(cmd), reducers.VoteCastPayload{
			ProposalID: args[0], Support: support, Tokens: tokens, ReputationMultiplier: mult,
		})
	},
}

var delegateSetCmd = &cobra.Command{
	Use:  "delegate-set <delegate> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submitCommand("dao.delegate.set", mustNonce(cmd), nil, reducers.DelegateSetPayload{Delegate: args[0]})
	},
}

var delegateRevokeCmd = &cobra.Command{
	Use: "delegate-revoke --nonce <n>",
	RunE: func(cmd *cobra.Command, args []string) error {
		return submitCommand("dao.delegate.revoke", mustNonce(cmd), nil, struct{}{})
	},
}

var treasuryDepositCmd = &cobra.Command{
	Use:  "treasury-deposit --amount <amount> --nonce <n>",
	RunE: func(cmd *cobra.Command, args []string) error {
		did, _, _, err := loadSigner()
		if err != nil {
			return err
		}
		amount, _ := cmd.Flags().GetString("amount")
		return submitCommand("dao.treasury.deposit", mustNonce(cmd), nil, reducers.TreasuryDepositPayload{From: did, Amount: amount})
	},
}

var treasurySpendCmd = &cobra.Command{
	Use:  "treasury-spend --to <did> --amount <amount> --nonce <n>",
	RunE: func(cmd *cobra.Command, args []string) error {
		to, _ := cmd.Flags().GetString("to")
		amount, _ := cmd.Flags().GetString("amount")
		return submitCommand("dao.treasury.spend", mustNonce(cmd), nil, reducers.TreasurySpendPayload{To: to, Amount: amount})
	},
}

var timelockQueueCmd = &cobra.Command{
	Use:  "timelock-queue <proposalId> --prev <hash> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submitCommand("dao.timelock.queue", mustNonce(cmd), mustPrev(cmd), reducers.TimelockPayload{ProposalID: args[0]})
	},
}

var timelockExecuteCmd = &cobra.Command{
	Use:  "timelock-execute <proposalId> --prev <hash> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submitCommand("dao.timelock.execute", mustNonce(cmd), mustPrev(cmd), reducers.TimelockPayload{ProposalID: args[0]})
	},
}

var timelockCancelCmd = &cobra.Command{
	Use:  "timelock-cancel <proposalId> --prev <hash> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submitCommand("dao.timelock.cancel", mustNonce(cmd), mustPrev(cmd), reducers.TimelockPayload{ProposalID: args[0]})
	},
}

func init() {
	withNonce := []*cobra.Command{
		proposalCreateCmd, proposalAdvanceCmd, voteCastCmd, delegateSetCmd, delegateRevokeCmd,
		treasuryDepositCmd, treasurySpendCmd, timelockQueueCmd, timelockExecuteCmd, timelockCancelCmd,
	}
	for _, c := range withNonce {
		c.Flags().Uint64("nonce", 0, "issuer nonce for this event")
	}
	for _, c := range []*cobra.Command{proposalAdvanceCmd, voteCastCmd, timelockQueueCmd, timelockExecuteCmd, timelockCancelCmd} {
		c.Flags().String("prev", "", "proposal's current lastEventHash (resource chain, spec §4.7)")
	}

	proposalCreateCmd.Flags().String("kind", "", "proposal kind")
	proposalCreateCmd.Flags().Float64("quorum", 0, "fraction of total voting power required")
	proposalCreateCmd.Flags().Float64("pass-threshold", 0.5, "fraction of cast votes required to pass")
	proposalCreateCmd.Flags().Int64("timelock-delay", 0, "milliseconds a passed proposal must wait before execution")
	proposalAdvanceCmd.Flags().Float64("total-voting-power", 0, "total voting power outstanding, for quorum evaluation")

	voteCastCmd.Flags().Bool("support", true, "vote for (true) or against (false)")
	voteCastCmd.Flags().String("tokens", "", "tokens backing this vote; defaults to the voter's current balance")
	voteCastCmd.Flags().Float64("reputation-multiplier", 0, "overrides the voter's derived reputation multiplier")

	treasuryDepositCmd.Flags().String("amount", "", "amount to deposit")
	treasurySpendCmd.Flags().String("to", "", "recipient DID")
	treasurySpendCmd.Flags().String("amount", "", "amount to spend")

	daoCmd.AddCommand(
		proposalCreateCmd, proposalAdvanceCmd, voteCastCmd, delegateSetCmd, delegateRevokeCmd,
		treasuryDepositCmd, treasurySpendCmd, timelockQueueCmd, timelockExecuteCmd, timelockCancelCmd,
	)
}
