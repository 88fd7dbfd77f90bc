package validation

import (
	"encoding/json"

	"github.com/claw-network/clawnet/internal/reducers"
)

func registerWallet(r Registry) {
	r["wallet.mint"] = TypeHandler{
		Resource: func(json.RawMessage) (ResourceRef, bool, error) { return ResourceRef{}, false, nil },
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.WalletMintPayload](payload, "wallet.mint")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyWalletMint(p.Amount); err != nil {
				return nil, err
			}
			return reducers.ApplyWalletMint(s, payload)
		},
	}

	r["wallet.transfer"] = TypeHandler{
		Resource: func(json.RawMessage) (ResourceRef, bool, error) { return ResourceRef{}, false, nil },
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.WalletTransferPayload](payload, "wallet.transfer")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyWalletTransfer(s, issuer, p); err != nil {
				return nil, err
			}
			return reducers.ApplyWalletTransfer(s, payload)
		},
	}
}
