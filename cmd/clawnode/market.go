package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/claw-network/clawnet/internal/reducers"
)

var marketCmd = &cobra.Command{Use: "market", Short: "Market (listing/bid/delivery) commands"}

var listingPublishCmd = &cobra.Command{
	Use:  "publish <id> --kind info|task|capability --metadata <json> --pricing <json> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		metaRaw, _ := cmd.Flags().GetString("metadata")
		pricingRaw, _ := cmd.Flags().GetString("pricing")
		meta, err := decodeJSONMap(metaRaw)
		if err != nil {
			return err
		}
		pricing, err := decodeJSONMap(pricingRaw)
		if err != nil {
			return err
		}
		return submitCommand("listing.publish", mustNonce(cmd), nil, reducers.ListingPublishPayload{
			ID: args[0], Kind: reducers.ListingKind(kind), Metadata: meta, Pricing: pricing,
		})
	},
}

var listingRemoveCmd = &cobra.Command{
	Use:  "remove <id> --prev <hash> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submitCommand("listing.remove", mustNonce(cmd), mustPrev(cmd), reducers.ListingRemovePayload{ID: args[0]})
	},
}

var listingListCmd = &cobra.Command{
	Use: "list [--kind info|task|capability]",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		q := ""
		if kind != "" {
			q = "?kind=" + kind
		}
		return getQuery("/market/listings" + q)
	},
}

var listingGetCmd = &cobra.Command{
	Use:  "get <id>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getQuery("/market/listings/" + args[0])
	},
}

var bidSubmitCmd = &cobra.Command{
	Use:  "submit <id> --listing <listingId> --amount <amount> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		listingID, _ := cmd.Flags().GetString("listing")
		amount, _ := cmd.Flags().GetString("amount")
		return submitCommand("bid.submit", mustNonce(cmd), nil, reducers.BidSubmitPayload{ID: args[0], ListingID: listingID, Amount: amount})
	},
}

var bidAcceptCmd = &cobra.Command{
	Use:  "accept <bidId> --order <orderId> --escrow <escrowId> --prev <hash> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orderID, _ := cmd.Flags().GetString("order")
		escrowID, _ := cmd.Flags().GetString("escrow")
		arbiter, _ := cmd.Flags().GetString("arbiter")
		return submitCommand("bid.accept", mustNonce(cmd), mustPrev(cmd), reducers.BidAcceptPayload{
			BidID: args[0], OrderID: orderID, EscrowID: escrowID, Arbiter: arbiter,
		})
	},
}

var deliverySubmitCmd = &cobra.Command{
	Use:  "submit <id> --order <orderId> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orderID, _ := cmd.Flags().GetString("order")
		return submitCommand("delivery.submit", mustNonce(cmd), nil, reducers.DeliverySubmitPayload{ID: args[0], OrderID: orderID})
	},
}

var deliveryConfirmCmd = &cobra.Command{
	Use:  "confirm <id> --prev <hash> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submitCommand("delivery.confirm", mustNonce(cmd), mustPrev(cmd), reducers.DeliveryConfirmPayload{ID: args[0]})
	},
}

var deliveryRejectCmd = &cobra.Command{
	Use:  "reject <id> --prev <hash> --nonce <n>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		return submitCommand("delivery.reject", mustNonce(cmd), mustPrev(cmd), reducers.DeliveryRejectPayload{ID: args[0], Reason: reason})
	},
}

func decodeJSONMap(s string) (map[string]any, error) {
	if s == "" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func init() {
	listingCmd := &cobra.Command{Use: "listing", Short: "Listing commands"}
	bidCmd := &cobra.Command{Use: "bid", Short: "Bid commands"}
	deliveryCmd := &cobra.Command{Use: "delivery", Short: "Delivery commands"}

	listingPublishCmd.Flags().Uint64("nonce", 0, "issuer nonce for this event")
	listingPublishCmd.Flags().String("kind", "", "info|task|capability")
	listingPublishCmd.Flags().String("metadata", "", "JSON object")
	listingPublishCmd.Flags().String("pricing", "", "JSON object")
	listingRemoveCmd.Flags().Uint64("nonce", 0, "issuer nonce for this event")
	listingRemoveCmd.Flags().String("prev", "", "listing's current lastEventHash")
	listingListCmd.Flags().String("kind", "", "filter by info|task|capability")

	bidSubmitCmd.Flags().Uint64("nonce", 0, "issuer nonce for this event")
	bidSubmitCmd.Flags().String("listing", "", "listing id being bid on")
	bidSubmitCmd.Flags().String("amount", "", "bid amount")
	bidAcceptCmd.Flags().Uint64("nonce", 0, "issuer nonce for this event")
	bidAcceptCmd.Flags().String("prev", "", "bid's current lastEventHash")
	bidAcceptCmd.Flags().String("order", "", "id to assign the resulting order")
	bidAcceptCmd.Flags().String("escrow", "", "id to assign the resulting escrow")
	bidAcceptCmd.Flags().String("arbiter", "", "optional arbiter DID")

	deliverySubmitCmd.Flags().Uint64("nonce", 0, "issuer nonce for this event")
	deliverySubmitCmd.Flags().String("order", "", "order id this delivery fulfills")
	deliveryConfirmCmd.Flags().Uint64("nonce", 0, "issuer nonce for this event")
	deliveryConfirmCmd.Flags().String("prev", "", "delivery's current lastEventHash")
	deliveryRejectCmd.Flags().Uint64("nonce", 0, "issuer nonce for this event")
	deliveryRejectCmd.Flags().String("prev", "", "delivery's current lastEventHash")
	deliveryRejectCmd.Flags().String("reason", "", "optional reason")

	listingCmd.AddCommand(listingPublishCmd, listingRemoveCmd, listingListCmd, listingGetCmd)
	bidCmd.AddCommand(bidSubmitCmd, bidAcceptCmd)
	deliveryCmd.AddCommand(deliverySubmitCmd, deliveryConfirmCmd, deliveryRejectCmd)

	marketCmd.AddCommand(listingCmd, bidCmd, deliveryCmd)
}
