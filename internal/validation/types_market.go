package validation

import (
	"encoding/json"

	"github.com/claw-network/clawnet/internal/reducers"
)

func registerMarket(r Registry) {
	r["listing.publish"] = TypeHandler{
		Resource: func(payload json.RawMessage) (ResourceRef, bool, error) {
			p, err := decodePayload[reducers.ListingPublishPayload](payload, "listing.publish")
			if err != nil {
				return ResourceRef{}, false, err
			}
			return idRef("listing", p.ID, "listing.publish")
		},
		IsCreate: true,
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.ListingPublishPayload](payload, "listing.publish")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyListingPublish(s, p); err != nil {
				return nil, err
			}
			return reducers.ApplyListingPublish(s, issuer, eventHash, payload)
		},
	}

	r["listing.remove"] = TypeHandler{
		Resource: func(payload json.RawMessage) (ResourceRef, bool, error) {
			p, err := decodePayload[reducers.ListingRemovePayload](payload, "listing.remove")
			if err != nil {
				return ResourceRef{}, false, err
			}
			return idRef("listing", p.ID, "listing.remove")
		},
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.ListingRemovePayload](payload, "listing.remove")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyListingRemove(s, issuer, p); err != nil {
				return nil, err
			}
			return reducers.ApplyListingRemove(s, eventHash, payload)
		},
	}

	r["bid.submit"] = TypeHandler{
		Resource: func(payload json.RawMessage) (ResourceRef, bool, error) {
			p, err := decodePayload[reducers.BidSubmitPayload](payload, "bid.submit")
			if err != nil {
				return ResourceRef{}, false, err
			}
			return idRef("bid", p.ID, "bid.submit")
		},
		IsCreate: true,
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.BidSubmitPayload](payload, "bid.submit")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyBidSubmit(s, p); err != nil {
				return nil, err
			}
			return reducers.ApplyBidSubmit(s, issuer, payload)
		},
	}

	r["bid.accept"] = TypeHandler{
		Resource: func(payload json.RawMessage) (ResourceRef, bool, error) {
			p, err := decodePayload[reducers.BidAcceptPayload](payload, "bid.accept")
			if err != nil {
				return ResourceRef{}, false, err
			}
			return idRef("bid", p.BidID, "bid.accept")
		},
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.BidAcceptPayload](payload, "bid.accept")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyBidAccept(s, issuer, p); err != nil {
				return nil, err
			}
			return reducers.ApplyBidAccept(s, eventHash, payload)
		},
	}

	r["delivery.submit"] = TypeHandler{
		Resource: func(payload json.RawMessage) (ResourceRef, bool, error) {
			p, err := decodePayload[reducers.DeliverySubmitPayload](payload, "delivery.submit")
			if err != nil {
				return ResourceRef{}, false, err
			}
			return idRef("delivery", p.ID, "delivery.submit")
		},
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.DeliverySubmitPayload](payload, "delivery.submit")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyDeliverySubmit(s, issuer, p); err != nil {
				return nil, err
			}
			return reducers.ApplyDeliverySubmit(s, payload)
		},
	}

	r["delivery.confirm"] = TypeHandler{
		Resource: func(payload json.RawMessage) (ResourceRef, bool, error) {
			p, err := decodePayload[reducers.DeliveryConfirmPayload](payload, "delivery.confirm")
			if err != nil {
				return ResourceRef{}, false, err
			}
			return idRef("delivery", p.ID, "delivery.confirm")
		},
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.DeliveryConfirmPayload](payload, "delivery.confirm")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyDeliveryConfirm(s, issuer, p); err != nil {
				return nil, err
			}
			return reducers.ApplyDeliveryConfirm(s, eventHash, payload)
		},
	}

	r["delivery.reject"] = TypeHandler{
		Resource: func(payload json.RawMessage) (ResourceRef, bool, error) {
			p, err := decodePayload[reducers.DeliveryRejectPayload](payload, "delivery.reject")
			if err != nil {
				return ResourceRef{}, false, err
			}
			return idRef("delivery", p.ID, "delivery.reject")
		},
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.DeliveryRejectPayload](payload, "delivery.reject")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyDeliveryReject(s, issuer, p); err != nil {
				return nil, err
			}
			return reducers.ApplyDeliveryReject(s, payload)
		},
	}
}
