package validation

import (
	"encoding/json"

	"github.com/claw-network/clawnet/internal/reducers"
)

func registerEscrow(r Registry) {
	r["wallet.escrow.create"] = TypeHandler{
		Resource: func(payload json.RawMessage) (ResourceRef, bool, error) {
			p, err := decodePayload[reducers.EscrowCreatePayload](payload, "wallet.escrow.create")
			if err != nil {
				return ResourceRef{}, false, err
			}
			return idRef("escrow", p.ID, "wallet.escrow.create")
		},
		IsCreate: true,
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.EscrowCreatePayload](payload, "wallet.escrow.create")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyEscrowCreate(s, issuer, p); err != nil {
				return nil, err
			}
			return reducers.ApplyEscrowCreate(s, eventHash, payload)
		},
	}

	r["wallet.escrow.fund"] = TypeHandler{
		Resource: func(payload json.RawMessage) (ResourceRef, bool, error) {
			p, err := decodePayload[reducers.EscrowFundPayload](payload, "wallet.escrow.fund")
			if err != nil {
				return ResourceRef{}, false, err
			}
			return idRef("escrow", p.ID, "wallet.escrow.fund")
		},
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.EscrowFundPayload](payload, "wallet.escrow.fund")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyEscrowFund(s, issuer, p); err != nil {
				return nil, err
			}
			return reducers.ApplyEscrowFund(s, eventHash, payload)
		},
	}

	r["wallet.escrow.release"] = TypeHandler{
		Resource: func(payload json.RawMessage) (ResourceRef, bool, error) {
			p, err := decodePayload[reducers.EscrowReleasePayload](payload, "wallet.escrow.release")
			if err != nil {
				return ResourceRef{}, false, err
			}
			return idRef("escrow", p.ID, "wallet.escrow.release")
		},
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.EscrowReleasePayload](payload, "wallet.escrow.release")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyEscrowRelease(s, issuer, p); err != nil {
				return nil, err
			}
			return reducers.ApplyEscrowRelease(s, eventHash, payload)
		},
	}

	r["wallet.escrow.refund"] = TypeHandler{
		Resource: func(payload json.RawMessage) (ResourceRef, bool, error) {
			p, err := decodePayload[reducers.EscrowRefundPayload](payload, "wallet.escrow.refund")
			if err != nil {
				return ResourceRef{}, false, err
			}
			return idRef("escrow", p.ID, "wallet.escrow.refund")
		},
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.EscrowRefundPayload](payload, "wallet.escrow.refund")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyEscrowRefund(s, issuer, p); err != nil {
				return nil, err
			}
			return reducers.ApplyEscrowRefund(s, eventHash, payload)
		},
	}

	r["wallet.escrow.expire"] = TypeHandler{
		Resource: func(payload json.RawMessage) (ResourceRef, bool, error) {
			p, err := decodePayload[reducers.EscrowRefundPayload](payload, "wallet.escrow.expire")
			if err != nil {
				return ResourceRef{}, false, err
			}
			return idRef("escrow", p.ID, "wallet.escrow.expire")
		},
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.EscrowRefundPayload](payload, "wallet.escrow.expire")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyEscrowExpire(s, p, nowMs); err != nil {
				return nil, err
			}
			return reducers.ApplyEscrowExpire(s, eventHash, payload)
		},
	}

	r["wallet.escrow.dispute"] = TypeHandler{
		Resource: func(payload json.RawMessage) (ResourceRef, bool, error) {
			p, err := decodePayload[reducers.EscrowDisputePayload](payload, "wallet.escrow.dispute")
			if err != nil {
				return ResourceRef{}, false, err
			}
			return idRef("escrow", p.ID, "wallet.escrow.dispute")
		},
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.EscrowDisputePayload](payload, "wallet.escrow.dispute")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyEscrowDispute(s, issuer, p); err != nil {
				return nil, err
			}
			return reducers.ApplyEscrowDispute(s, eventHash, payload)
		},
	}

	r["wallet.escrow.resolve"] = TypeHandler{
		Resource: func(payload json.RawMessage) (ResourceRef, bool, error) {
			p, err := decodePayload[reducers.EscrowResolvePayload](payload, "wallet.escrow.resolve")
			if err != nil {
				return ResourceRef{}, false, err
			}
			return idRef("escrow", p.ID, "wallet.escrow.resolve")
		},
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.EscrowResolvePayload](payload, "wallet.escrow.resolve")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyEscrowResolve(s, issuer, p); err != nil {
				return nil, err
			}
			return reducers.ApplyEscrowResolve(s, eventHash, payload)
		},
	}
}
