package reducers

import (
	"encoding/json"

	"github.com/claw-network/clawnet/internal/clawerr"
)

// Events handled by this file: wallet.mint, wallet.transfer, wallet.fee
// (spec §4.8.2). wallet.escrow.* events are handled in escrow.go.

// MinFee is the minimum fee a transfer must carry, per spec §4.8.2.
const MinFee = "0"

// WalletMintPayload is the payload of wallet.mint (dev-faucet-gated or
// protocol-privileged; the issuer's privilege is checked by validation,
// not this reducer).
type WalletMintPayload struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// CanApplyWalletMint requires a well-formed positive amount.
func CanApplyWalletMint(amount string) error {
	if !isPositiveAmount(amount) {
		return clawerr.Invalidf("reducers.wallet.mint", "amount must be positive, got %q", amount)
	}
	return nil
}

func getOrCreateWallet(s *State, address string) *Wallet {
	if w, ok := s.Wallets[address]; ok {
		return w
	}
	return &Wallet{Address: address, Available: "0", Locked: "0", TotalIn: "0", TotalOut: "0"}
}

// ApplyWalletMint credits to.available and to.totalIn.
func ApplyWalletMint(s *State, payload json.RawMessage) (*State, error) {
	var p WalletMintPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.wallet.mint", "decode payload", err)
	}
	next := s.Clone()
	w := *getOrCreateWallet(next, p.To)
	avail, ok := addAmount(w.Available, p.Amount)
	if !ok {
		return nil, clawerr.Invalidf("reducers.wallet.mint", "bad amount %q", p.Amount)
	}
	totalIn, _ := addAmount(w.TotalIn, p.Amount)
	w.Available = avail
	w.TotalIn = totalIn
	next.Wallets[p.To] = &w
	return next, nil
}

// WalletTransferPayload is the payload of wallet.transfer.
type WalletTransferPayload struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
	Fee    string `json:"fee"`
	Memo   string `json:"memo,omitempty"`
}

// CanApplyWalletTransfer enforces spec §4.8.2's transfer rules: issuer
// owns from, amount >= 1, fee >= MinFee, and sufficient available
// balance to cover amount+fee.
func CanApplyWalletTransfer(s *State, issuer string, p WalletTransferPayload) error {
	if issuer != p.From {
		return clawerr.Unauthorizedf("reducers.wallet.transfer", "issuer %s does not own from address %s", issuer, p.From)
	}
	if !isPositiveAmount(p.Amount) {
		return clawerr.Invalidf("reducers.wallet.transfer", "amount must be positive, got %q", p.Amount)
	}
	if cmp, ok := cmpAmount(p.Fee, MinFee); !ok || cmp < 0 {
		return clawerr.Invalidf("reducers.wallet.transfer", "fee %q below minimum %q", p.Fee, MinFee)
	}
	w := getOrCreateWallet(s, p.From)
	required, ok := addAmount(p.Amount, p.Fee)
	if !ok {
		return clawerr.Invalidf("reducers.wallet.transfer", "bad amount/fee")
	}
	if cmp, ok := cmpAmount(w.Available, required); !ok || cmp < 0 {
		return clawerr.Conflictf("reducers.wallet.transfer", "insufficient balance: available %q, required %q", w.Available, required)
	}
	return nil
}

// ApplyWalletTransfer debits from (amount+fee), credits to (amount), and
// credits the treasury (fee), per spec §4.8.2's effect description.
func ApplyWalletTransfer(s *State, payload json.RawMessage) (*State, error) {
	var p WalletTransferPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.wallet.transfer", "decode payload", err)
	}
	next := s.Clone()

	from := *getOrCreateWallet(next, p.From)
	required, ok := addAmount(p.Amount, p.Fee)
	if !ok {
		return nil, clawerr.Invalidf("reducers.wallet.transfer", "bad amount/fee")
	}
	fromAvail, ok := subAmount(from.Available, required)
	if !ok {
		return nil, clawerr.Conflictf("reducers.wallet.transfer", "insufficient balance")
	}
	fromOut, _ := addAmount(from.TotalOut, required)
	from.Available = fromAvail
	from.TotalOut = fromOut
	next.Wallets[p.From] = &from

	to := *getOrCreateWallet(next, p.To)
	toAvail, _ := addAmount(to.Available, p.Amount)
	toIn, _ := addAmount(to.TotalIn, p.Amount)
	to.Available = toAvail
	to.TotalIn = toIn
	next.Wallets[p.To] = &to

	if isPositiveAmount(p.Fee) {
		bal, _ := addAmount(next.Treasury.Balance, p.Fee)
		next.Treasury = Treasury{Balance: bal}
	}

	return next, nil
}
