package reducers

import (
	"encoding/json"

	"github.com/claw-network/clawnet/internal/clawerr"
)

// Events handled by this file: listing.publish, listing.remove,
// bid.submit, bid.accept, delivery.submit, delivery.confirm,
// delivery.reject (spec §4.8.4). The three listing kinds (info, task,
// capability) share this shape and differ only in their metadata/
// pricing payload, which reducers treat as opaque.

// ListingPublishPayload is the payload of listing.publish.
type ListingPublishPayload struct {
	ID       string         `json:"id"`
	Kind     ListingKind    `json:"kind"`
	Metadata map[string]any `json:"metadata"`
	Pricing  map[string]any `json:"pricing"`
}

func validListingKind(k ListingKind) bool {
	return k == ListingInfo || k == ListingTask || k == ListingCapability
}

// CanApplyListingPublish requires no existing listing with this id and a
// recognized listing kind.
func CanApplyListingPublish(s *State, p ListingPublishPayload) error {
	if _, exists := s.Listings[p.ID]; exists {
		return clawerr.Conflictf("reducers.listing.publish", "listing %s already exists", p.ID)
	}
	if !validListingKind(p.Kind) {
		return clawerr.Invalidf("reducers.listing.publish", "unrecognized listing kind %q", p.Kind)
	}
	return nil
}

// ApplyListingPublish creates the listing in Active state.
func ApplyListingPublish(s *State, issuer, eventHash string, payload json.RawMessage) (*State, error) {
	var p ListingPublishPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.listing.publish", "decode payload", err)
	}
	next := s.Clone()
	next.Listings[p.ID] = &Listing{
		ID: p.ID, Seller: issuer, Kind: p.Kind, Metadata: p.Metadata, Pricing: p.Pricing,
		Status: ListingActive, LastEventHash: eventHash,
	}
	return next, nil
}

// ListingRemovePayload is the payload of listing.remove.
type ListingRemovePayload struct {
	ID string `json:"id"`
}

// CanApplyListingRemove requires the issuer be the seller, the listing
// be Active, and no accepted bid (spec §4.8.4: "by seller, if no
// accepted bid").
func CanApplyListingRemove(s *State, issuer string, p ListingRemovePayload) error {
	l, ok := s.Listings[p.ID]
	if !ok {
		return clawerr.NotFoundf("reducers.listing.remove", "no listing %s", p.ID)
	}
	if l.Seller != issuer {
		return clawerr.Unauthorizedf("reducers.listing.remove", "issuer %s is not seller of listing %s", issuer, p.ID)
	}
	if l.Status != ListingActive {
		return clawerr.Conflictf("reducers.listing.remove", "listing %s is not Active (status=%s)", p.ID, l.Status)
	}
	for _, b := range s.Bids {
		if b.ListingID == p.ID && b.Status == BidAccepted {
			return clawerr.Conflictf("reducers.listing.remove", "listing %s has an accepted bid", p.ID)
		}
	}
	return nil
}

// ApplyListingRemove marks the listing Withdrawn.
func ApplyListingRemove(s *State, eventHash string, payload json.RawMessage) (*State, error) {
	var p ListingRemovePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.listing.remove", "decode payload", err)
	}
	next := s.Clone()
	l := *next.Listings[p.ID]
	l.Status = ListingWithdrawn
	l.LastEventHash = eventHash
	next.Listings[p.ID] = &l
	return next, nil
}

// BidSubmitPayload is the payload of bid.submit (task market).
type BidSubmitPayload struct {
	ID        string `json:"id"`
	ListingID string `json:"listingId"`
	Amount    string `json:"amount"`
}

// CanApplyBidSubmit requires an Active task listing, no existing bid
// with this id, and a positive amount.
func CanApplyBidSubmit(s *State, p BidSubmitPayload) error {
	if _, exists := s.Bids[p.ID]; exists {
		return clawerr.Conflictf("reducers.bid.submit", "bid %s already exists", p.ID)
	}
	l, ok := s.Listings[p.ListingID]
	if !ok {
		return clawerr.NotFoundf("reducers.bid.submit", "no listing %s", p.ListingID)
	}
	if l.Kind != ListingTask {
		return clawerr.Invalidf("reducers.bid.submit", "listing %s is not a task listing", p.ListingID)
	}
	if l.Status != ListingActive {
		return clawerr.Conflictf("reducers.bid.submit", "listing %s is not Active", p.ListingID)
	}
	if !isPositiveAmount(p.Amount) {
		return clawerr.Invalidf("reducers.bid.submit", "amount must be positive")
	}
	return nil
}

// ApplyBidSubmit records the bid as Open.
func ApplyBidSubmit(s *State, issuer string, payload json.RawMessage) (*State, error) {
	var p BidSubmitPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.bid.submit", "decode payload", err)
	}
	next := s.Clone()
	next.Bids[p.ID] = &Bid{ID: p.ID, ListingID: p.ListingID, Bidder: issuer, Amount: p.Amount, Status: BidOpen}
	return next, nil
}

// BidAcceptPayload is the payload of bid.accept.
type BidAcceptPayload struct {
	BidID     string `json:"bidId"`
	OrderID   string `json:"orderId"`
	EscrowID  string `json:"escrowId"`
	Arbiter   string `json:"arbiter,omitempty"`
}

// CanApplyBidAccept requires issuer be the listing's seller, the bid be
// Open against that listing, the listing be Active, and no existing
// order/escrow with the given ids.
func CanApplyBidAccept(s *State, issuer string, p BidAcceptPayload) error {
	b, ok := s.Bids[p.BidID]
	if !ok {
		return clawerr.NotFoundf("reducers.bid.accept", "no bid %s", p.BidID)
	}
	if b.Status != BidOpen {
		return clawerr.Conflictf("reducers.bid.accept", "bid %s is not Open", p.BidID)
	}
	l, ok := s.Listings[b.ListingID]
	if !ok {
		return clawerr.NotFoundf("reducers.bid.accept", "no listing %s", b.ListingID)
	}
	if l.Seller != issuer {
		return clawerr.Unauthorizedf("reducers.bid.accept", "issuer %s is not seller of listing %s", issuer, b.ListingID)
	}
	if l.Status != ListingActive {
		return clawerr.Conflictf("reducers.bid.accept", "listing %s is not Active", b.ListingID)
	}
	if _, exists := s.Orders[p.OrderID]; exists {
		return clawerr.Conflictf("reducers.bid.accept", "order %s already exists", p.OrderID)
	}
	if _, exists := s.Escrows[p.EscrowID]; exists {
		return clawerr.Conflictf("reducers.bid.accept", "escrow %s already exists", p.EscrowID)
	}
	w := getOrCreateWallet(s, l.Seller)
	if cmp, ok := cmpAmount(w.Available, b.Amount); !ok || cmp < 0 {
		return clawerr.Conflictf("reducers.bid.accept", "client has insufficient balance to fund escrow")
	}
	return nil
}

// ApplyBidAccept accepts the bid, rejects sibling bids, moves the
// listing to Sold, creates an order, and atomically funds an escrow
// whose beneficiary is the accepted bidder (the provider) with a
// milestone-approval release rule (spec §4.8.4: "atomically funds an
// escrow whose beneficiary is the provider and release rule is
// milestone approval"). The listing's seller is the client soliciting
// the task and is the one who funds the escrow as depositor.
func ApplyBidAccept(s *State, eventHash string, payload json.RawMessage) (*State, error) {
	var p BidAcceptPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.bid.accept", "decode payload", err)
	}
	b := s.Bids[p.BidID]
	l := s.Listings[b.ListingID]

	next := s.Clone()

	for id, other := range next.Bids {
		if other.ListingID == b.ListingID && id != p.BidID && other.Status == BidOpen {
			rejected := *other
			rejected.Status = BidRejected
			next.Bids[id] = &rejected
		}
	}
	accepted := *next.Bids[p.BidID]
	accepted.Status = BidAccepted
	next.Bids[p.BidID] = &accepted

	ll := *l
	ll.Status = ListingSold
	ll.LastEventHash = eventHash
	next.Listings[b.ListingID] = &ll

	next.Orders[p.OrderID] = &Order{
		ID: p.OrderID, ListingID: b.ListingID, BidID: p.BidID, Buyer: l.Seller, Seller: b.Bidder, EscrowID: p.EscrowID,
	}

	createPayload, _ := json.Marshal(EscrowCreatePayload{
		ID: p.EscrowID, Depositor: l.Seller, Beneficiary: b.Bidder, Arbiter: p.Arbiter,
		Amount: b.Amount, ReleaseRules: "milestone-approval",
	})
	return ApplyEscrowCreate(next, eventHash, createPayload)
}

// DeliverySubmitPayload is the payload of delivery.submit.
type DeliverySubmitPayload struct {
	ID      string `json:"id"`
	OrderID string `json:"orderId"`
}

// CanApplyDeliverySubmit requires issuer be the order's seller and no
// existing delivery with this id in a non-rejected state blocking retry.
func CanApplyDeliverySubmit(s *State, issuer string, p DeliverySubmitPayload) error {
	o, ok := s.Orders[p.OrderID]
	if !ok {
		return clawerr.NotFoundf("reducers.delivery.submit", "no order %s", p.OrderID)
	}
	if o.Seller != issuer {
		return clawerr.Unauthorizedf("reducers.delivery.submit", "issuer %s is not seller of order %s", issuer, p.OrderID)
	}
	if d, exists := s.Deliveries[p.ID]; exists && d.Status != DeliveryRejected {
		return clawerr.Conflictf("reducers.delivery.submit", "delivery %s already exists", p.ID)
	}
	return nil
}

// ApplyDeliverySubmit records the delivery as Submitted (retries reuse
// the id per spec §4.8.4's "delivery.reject -> delivery.submit (retry)").
func ApplyDeliverySubmit(s *State, payload json.RawMessage) (*State, error) {
	var p DeliverySubmitPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.delivery.submit", "decode payload", err)
	}
	next := s.Clone()
	next.Deliveries[p.ID] = &Delivery{ID: p.ID, OrderID: p.OrderID, Status: DeliverySubmitted}
	return next, nil
}

// DeliveryConfirmPayload is the payload of delivery.confirm.
type DeliveryConfirmPayload struct {
	ID string `json:"id"`
}

// CanApplyDeliveryConfirm requires issuer be the order's buyer and the
// delivery be Submitted.
func CanApplyDeliveryConfirm(s *State, issuer string, p DeliveryConfirmPayload) error {
	d, ok := s.Deliveries[p.ID]
	if !ok {
		return clawerr.NotFoundf("reducers.delivery.confirm", "no delivery %s", p.ID)
	}
	if d.Status != DeliverySubmitted {
		return clawerr.Conflictf("reducers.delivery.confirm", "delivery %s is not Submitted", p.ID)
	}
	o, ok := s.Orders[d.OrderID]
	if !ok {
		return clawerr.NotFoundf("reducers.delivery.confirm", "no order %s", d.OrderID)
	}
	if o.Buyer != issuer {
		return clawerr.Unauthorizedf("reducers.delivery.confirm", "issuer %s is not buyer of order %s", issuer, d.OrderID)
	}
	e, ok := s.Escrows[o.EscrowID]
	if !ok {
		return clawerr.NotFoundf("reducers.delivery.confirm", "no escrow %s", o.EscrowID)
	}
	if e.State != EscrowActive {
		return clawerr.Conflictf("reducers.delivery.confirm", "escrow %s is not Active", o.EscrowID)
	}
	return nil
}

// ApplyDeliveryConfirm marks the delivery Confirmed and releases the
// order's escrow in full to the seller (info-market "on-confirm"
// release rule, spec §4.8.4).
func ApplyDeliveryConfirm(s *State, eventHash string, payload json.RawMessage) (*State, error) {
	var p DeliveryConfirmPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.delivery.confirm", "decode payload", err)
	}
	d := s.Deliveries[p.ID]
	o := s.Orders[d.OrderID]
	e := s.Escrows[o.EscrowID]
	remaining, ok := escrowRemaining(e)
	if !ok {
		return nil, clawerr.Invalidf("reducers.delivery.confirm", "corrupt escrow amounts")
	}

	next := s.Clone()
	dd := *next.Deliveries[p.ID]
	dd.Status = DeliveryConfirmed
	next.Deliveries[p.ID] = &dd

	releasePayload, _ := json.Marshal(EscrowReleasePayload{ID: o.EscrowID, Amount: remaining})
	return ApplyEscrowRelease(next, eventHash, releasePayload)
}

// DeliveryRejectPayload is the payload of delivery.reject.
type DeliveryRejectPayload struct {
	ID     string `json:"id"`
	Reason string `json:"reason,omitempty"`
}

// CanApplyDeliveryReject requires issuer be the order's buyer and the
// delivery be Submitted.
func CanApplyDeliveryReject(s *State, issuer string, p DeliveryRejectPayload) error {
	d, ok := s.Deliveries[p.ID]
	if !ok {
		return clawerr.NotFoundf("reducers.delivery.reject", "no delivery %s", p.ID)
	}
	if d.Status != DeliverySubmitted {
		return clawerr.Conflictf("reducers.delivery.reject", "delivery %s is not Submitted", p.ID)
	}
	o, ok := s.Orders[d.OrderID]
	if !ok {
		return clawerr.NotFoundf("reducers.delivery.reject", "no order %s", d.OrderID)
	}
	if o.Buyer != issuer {
		return clawerr.Unauthorizedf("reducers.delivery.reject", "issuer %s is not buyer of order %s", issuer, d.OrderID)
	}
	return nil
}

// ApplyDeliveryReject marks the delivery Rejected, allowing a later
// delivery.submit with the same id to retry.
func ApplyDeliveryReject(s *State, payload json.RawMessage) (*State, error) {
	var p DeliveryRejectPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.delivery.reject", "decode payload", err)
	}
	next := s.Clone()
	d := *next.Deliveries[p.ID]
	d.Status = DeliveryRejected
	next.Deliveries[p.ID] = &d
	return next, nil
}
