package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/claw-network/clawnet/internal/reducers"
)

var contractCmd = &cobra.Command{Use: "contract", Short: "Milestone-based service contract commands"}

func decodeMilestones(s string) ([]reducers.ContractMilestone, error) {
	var m []reducers.ContractMilestone
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}

var contractCreateCmd = &cobra.Command{
	Use:  "create <id> --client <did> --provider <did> --total <amount> --milestones <json> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _ := cmd.Flags().GetString("client")
		provider, _ := cmd.Flags().GetString("provider")
		arbiter, _ := cmd.Flags().GetString("arbiter")
		total, _ := cmd.Flags().GetString("total")
		milestonesRaw, _ := cmd.Flags().GetString("milestones")
		milestones, err := decodeMilestones(milestonesRaw)
		if err != nil {
			return err
		}
		return submitCommand("contract.create", mustNonce(cmd), nil, reducers.ContractCreatePayload{
			ID: args[0], Client: client, Provider: provider, Arbiter: arbiter,
			TotalAmount: total, Milestones: milestones,
		})
	},
}

var contractSignCmd = &cobra.Command{
	Use:  "sign <id> --prev <hash> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submitCommand("contract.sign", mustNonce(cmd), mustPrev(cmd), reducers.ContractSignPayload{ID: args[0]})
	},
}

var contractCancelCmd = &cobra.Command{
	Use:  "cancel <id> --prev <hash> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submitCommand("contract.cancel", mustNonce(cmd), mustPrev(cmd), reducers.ContractCancelPayload{ID: args[0]})
	},
}

var contractFundCmd = &cobra.Command{
	Use:  "fund <id> --escrow <escrowId> --prev <hash> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		escrowID, _ := cmd.Flags().GetString("escrow")
		return submitCommand("contract.fund", mustNonce(cmd), mustPrev(cmd), reducers.ContractFundPayload{ID: args[0], EscrowID: escrowID})
	},
}

var milestoneSubmitCmd = &cobra.Command{
	Use:  "submit <id> --milestone <milestoneId> --prev <hash> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		milestoneID, _ := cmd.Flags().GetString("milestone")
		return submitCommand("contract.milestone.submit", mustNonce(cmd), mustPrev(cmd), reducers.ContractMilestonePayload{ID: args[0], MilestoneID: milestoneID})
	},
}

var milestoneApproveCmd = &cobra.Command{
	Use:  "approve <id> --milestone <milestoneId> --prev <hash> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		milestoneID, _ := cmd.Flags().GetString("milestone")
		return submitCommand("contract.milestone.approve", mustNonce(cmd), mustPrev(cmd), reducers.ContractMilestonePayload{ID: args[0], MilestoneID: milestoneID})
	},
}

var milestoneRejectCmd = &cobra.Command{
	Use:  "reject <id> --milestone <milestoneId> --prev <hash> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		milestoneID, _ := cmd.Flags().GetString("milestone")
		return submitCommand("contract.milestone.reject", mustNonce(cmd), mustPrev(cmd), reducers.ContractMilestonePayload{ID: args[0], MilestoneID: milestoneID})
	},
}

var contractCompleteCmd = &cobra.Command{
	Use:  "complete <id> --prev <hash> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submitCommand("contract.complete", mustNonce(cmd), mustPrev(cmd), reducers.ContractCompletePayload{ID: args[0]})
	},
}

var contractDisputeCmd = &cobra.Command{
	Use:  "dispute <id> --prev <hash> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		return submitCommand("contract.dispute", mustNonce(cmd), mustPrev(cmd), reducers.ContractDisputePayload{ID: args[0], Reason: reason})
	},
}

var contractDisputeResolveCmd = &cobra.Command{
	Use:  "dispute-resolve <id> --to-provider <amount> --to-client <amount> --final <Completed|Cancelled> --prev <hash> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		toProvider, _ := cmd.Flags().GetString("to-provider")
		toClient, _ := cmd.Flags().GetString("to-client")
		final, _ := cmd.Flags().GetString("final")
		return submitCommand("contract.dispute.resolve", mustNonce(cmd), mustPrev(cmd), reducers.ContractDisputeResolvePayload{
			ID: args[0], ToProvider: toProvider, ToClient: toClient, FinalState: final,
		})
	},
}

var contractTerminateCmd = &cobra.Command{
	Use:  "terminate <id> --prev <hash> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submitCommand("contract.terminate", mustNonce(cmd), mustPrev(cmd), reducers.ContractTerminatePayload{ID: args[0]})
	},
}

var contractListCmd = &cobra.Command{
	Use: "list [--party <did>]",
	RunE: func(cmd *cobra.Command, args []string) error {
		party, _ := cmd.Flags().GetString("party")
		q := ""
		if party != "" {
			q = "?party=" + party
		}
		return getQuery("/contracts" + q)
	},
}

var contractGetCmd = &cobra.Command{
	Use:  "get <id>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getQuery("/contracts/" + args[0])
	},
}

func init() {
	allMilestoneCmds := []*cobra.Command{
		contractCreateCmd, contractSignCmd, contractCancelCmd, contractFundCmd,
		milestoneSubmitCmd, milestoneApproveCmd, milestoneRejectCmd,
		contractCompleteCmd, contractDisputeCmd, contractDisputeResolveCmd, contractTerminateCmd,
	}
	for _, c := range allMilestoneCmds {
		c.Flags().Uint64("nonce", 0, "issuer nonce for this event")
	}
	for _, c := range []*cobra.Command{
		contractSignCmd, contractCancelCmd, contractFundCmd, milestoneSubmitCmd, milestoneApproveCmd,
		milestoneRejectCmd, contractCompleteCmd, contractDisputeCmd, contractDisputeResolveCmd, contractTerminateCmd,
	} {
		c.Flags().String("prev", "", "contract's current lastEventHash (resource chain, spec §4.7)")
	}

	contractCreateCmd.Flags().String("client", "", "client DID")
	contractCreateCmd.Flags().String("provider", "", "provider DID")
	contractCreateCmd.Flags().String("arbiter", "", "optional arbiter DID")
	contractCreateCmd.Flags().String("total", "", "total contract amount")
	contractCreateCmd.Flags().String("milestones", "[]", "JSON array of {id,amount}")

	contractFundCmd.Flags().String("escrow", "", "escrow id backing this contract")
	milestoneSubmitCmd.Flags().String("milestone", "", "milestone id")
	milestoneApproveCmd.Flags().String("milestone", "", "milestone id")
	milestoneRejectCmd.Flags().String("milestone", "", "milestone id")
	contractDisputeCmd.Flags().String("reason", "", "optional reason")
	contractDisputeResolveCmd.Flags().String("to-provider", "0", "amount awarded to provider")
	contractDisputeResolveCmd.Flags().String("to-client", "0", "amount returned to client")
	contractDisputeResolveCmd.Flags().String("final", "Cancelled", "Completed or Cancelled")
	contractListCmd.Flags().String("party", "", "filter by client or provider DID")

	contractCmd.AddCommand(
		contractCreateCmd, contractSignCmd, contractCancelCmd, contractFundCmd,
		milestoneSubmitCmd, milestoneApproveCmd, milestoneRejectCmd,
		contractCompleteCmd, contractDisputeCmd, contractDisputeResolveCmd, contractTerminateCmd,
		contractListCmd, contractGetCmd,
	)
}
