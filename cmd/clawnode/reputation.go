package main

import (
	"github.com/spf13/cobra"

	"github.com/claw-network/clawnet/internal/reducers"
)

var reputationCmd = &cobra.Command{Use: "reputation", Short: "Reputation commands"}

var reputationRecordCmd = &cobra.Command{
	Use:  "record --subject <did> --dimension <dim> --score <n> --ref <id> --nonce <n>",
	Short: "Record a per-dimension reputation rating for subject (spec §4.11)",
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		dimension, _ := cmd.Flags().GetString("dimension")
		score, _ := cmd.Flags().GetInt("score")
		ref, _ := cmd.Flags().GetString("ref")
		comment, _ := cmd.Flags().GetString("comment")
		nonce, _ := cmd.Flags().GetUint64("nonce")
		return submitCommand("reputation.record", nonce, nil, reducers.ReputationRecordPayload{
			Subject: subject, Dimension: reducers.ReputationDimension(dimension), Score: score, Ref: ref, Comment: comment,
		})
	},
}

var reputationGetCmd = &cobra.Command{
	Use:  "get <subject>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getQuery("/reputation/" + args[0])
	},
}

func init() {
	reputationRecordCmd.Flags().String("subject", "", "DID being rated")
	reputationRecordCmd.Flags().String("dimension", "", "quality|fulfillment|transaction|behavior|social")
	reputationRecordCmd.Flags().Int("score", 0, "rating score")
	reputationRecordCmd.Flags().String("ref", "", "the order/contract/delivery this rating is about")
	reputationRecordCmd.Flags().String("comment", "", "optional free-text comment")
	reputationRecordCmd.Flags().Uint64("nonce", 0, "issuer nonce for this event")

	reputationCmd.AddCommand(reputationRecordCmd, reputationGetCmd)
}
