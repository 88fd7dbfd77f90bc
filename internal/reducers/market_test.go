package reducers

import "testing"

func TestTaskMarketFullFlow(t *testing.T) {
	s := New()
	s, _ = ApplyWalletMint(s, mustMarshal(t, WalletMintPayload{To: "claw-client", Amount: "1000"}))

	publish := ListingPublishPayload{ID: "lst-1", Kind: ListingTask, Metadata: map[string]any{"title": "index a corpus"}, Pricing: map[string]any{"fixedPrice": "500"}}
	if err := CanApplyListingPublish(s, publish); err != nil {
		t.Fatalf("can publish: %v", err)
	}
	s, _ = ApplyListingPublish(s, "claw-client", "h1", mustMarshal(t, publish))

	bid := BidSubmitPayload{ID: "bid-1", ListingID: "lst-1", Amount: "500"}
	if err := CanApplyBidSubmit(s, bid); err != nil {
		t.Fatalf("can bid: %v", err)
	}
	s, _ = ApplyBidSubmit(s, "claw-bidder", mustMarshal(t, bid))

	accept := BidAcceptPayload{BidID: "bid-1", OrderID: "ord-1", EscrowID: "esc-1"}
	if err := CanApplyBidAccept(s, "claw-client", accept); err != nil {
		t.Fatalf("can accept: %v", err)
	}
	s, err := ApplyBidAccept(s, "h2", mustMarshal(t, accept))
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if s.Listings["lst-1"].Status != ListingSold {
		t.Fatalf("expected Sold, got %s", s.Listings["lst-1"].Status)
	}
	if s.Escrows["esc-1"].Amount != "500" {
		t.Fatalf("expected escrow amount 500, got %s", s.Escrows["esc-1"].Amount)
	}

	submit := DeliverySubmitPayload{ID: "del-1", OrderID: "ord-1"}
	if err := CanApplyDeliverySubmit(s, "claw-bidder", submit); err != nil {
		t.Fatalf("can submit delivery: %v", err)
	}
	s, _ = ApplyDeliverySubmit(s, mustMarshal(t, submit))

	confirm := DeliveryConfirmPayload{ID: "del-1"}
	if err := CanApplyDeliveryConfirm(s, "claw-client", confirm); err != nil {
		t.Fatalf("can confirm: %v", err)
	}
	s, err = ApplyDeliveryConfirm(s, "h3", mustMarshal(t, confirm))
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if s.Wallets["claw-bidder"].Available != "500" {
		t.Fatalf("expected bidder (provider) available 500, got %s", s.Wallets["claw-bidder"].Available)
	}
	if s.Escrows["esc-1"].State != EscrowReleased {
		t.Fatalf("expected escrow Released, got %s", s.Escrows["esc-1"].State)
	}
}

func TestDeliveryRejectAllowsRetry(t *testing.T) {
	s := New()
	s, _ = ApplyWalletMint(s, mustMarshal(t, WalletMintPayload{To: "claw-client", Amount: "1000"}))
	publish := ListingPublishPayload{ID: "lst-1", Kind: ListingTask}
	s, _ = ApplyListingPublish(s, "claw-client", "h1", mustMarshal(t, publish))
	bid := BidSubmitPayload{ID: "bid-1", ListingID: "lst-1", Amount: "500"}
	s, _ = ApplyBidSubmit(s, "claw-bidder", mustMarshal(t, bid))
	accept := BidAcceptPayload{BidID: "bid-1", OrderID: "ord-1", EscrowID: "esc-1"}
	s, _ = ApplyBidAccept(s, "h2", mustMarshal(t, accept))

	submit := DeliverySubmitPayload{ID: "del-1", OrderID: "ord-1"}
	s, _ = ApplyDeliverySubmit(s, mustMarshal(t, submit))
	reject := DeliveryRejectPayload{ID: "del-1", Reason: "incomplete"}
	if err := CanApplyDeliveryReject(s, "claw-client", reject); err != nil {
		t.Fatalf("can reject: %v", err)
	}
	s, _ = ApplyDeliveryReject(s, mustMarshal(t, reject))
	if s.Deliveries["del-1"].Status != DeliveryRejected {
		t.Fatalf("expected Rejected, got %s", s.Deliveries["del-1"].Status)
	}

	if err := CanApplyDeliverySubmit(s, "claw-bidder", submit); err != nil {
		t.Fatalf("expected retry submit to be allowed: %v", err)
	}
}
