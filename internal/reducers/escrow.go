package reducers

import (
	"encoding/json"

	"github.com/claw-network/clawnet/internal/clawerr"
)

// Events handled by this file: wallet.escrow.create, .fund, .release,
// .refund, .expire, .dispute, .resolve (spec §4.8.3). State machine:
// Active -> {Released, Refunded, Expired, Disputed}; Disputed ->
// {Released, Refunded}; all other states are terminal.

// EscrowCreatePayload is the payload of wallet.escrow.create.
type EscrowCreatePayload struct {
	ID           string `json:"id"`
	Depositor    string `json:"depositor"`
	Beneficiary  string `json:"beneficiary"`
	Arbiter      string `json:"arbiter,omitempty"`
	Amount       string `json:"amount"`
	ReleaseRules string `json:"releaseRules"`
	ExpiresAt    int64  `json:"expiresAt,omitempty"`
}

// CanApplyEscrowCreate requires depositor==issuer, amount>=1, non-empty
// release rules, no existing escrow with this id, and sufficient
// available balance to lock the amount.
func CanApplyEscrowCreate(s *State, issuer string, p EscrowCreatePayload) error {
	if _, exists := s.Escrows[p.ID]; exists {
		return clawerr.Conflictf("reducers.escrow.create", "escrow %s already exists", p.ID)
	}
	if issuer != p.Depositor {
		return clawerr.Unauthorizedf("reducers.escrow.create", "issuer %s is not depositor %s", issuer, p.Depositor)
	}
	if !isPositiveAmount(p.Amount) {
		return clawerr.Invalidf("reducers.escrow.create", "amount must be positive, got %q", p.Amount)
	}
	if p.ReleaseRules == "" {
		return clawerr.Invalidf("reducers.escrow.create", "releaseRules must be non-empty")
	}
	w := getOrCreateWallet(s, p.Depositor)
	if cmp, ok := cmpAmount(w.Available, p.Amount); !ok || cmp < 0 {
		return clawerr.Conflictf("reducers.escrow.create", "insufficient balance to lock %q", p.Amount)
	}
	return nil
}

// ApplyEscrowCreate moves amount from depositor.available to
// depositor.locked and creates the escrow in Active state.
func ApplyEscrowCreate(s *State, eventHash string, payload json.RawMessage) (*State, error) {
	var p EscrowCreatePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.escrow.create", "decode payload", err)
	}
	next := s.Clone()

	dep := *getOrCreateWallet(next, p.Depositor)
	avail, ok := subAmount(dep.Available, p.Amount)
	if !ok {
		return nil, clawerr.Conflictf("reducers.escrow.create", "insufficient balance")
	}
	locked, _ := addAmount(dep.Locked, p.Amount)
	dep.Available = avail
	dep.Locked = locked
	next.Wallets[p.Depositor] = &dep

	next.Escrows[p.ID] = &Escrow{
		ID: p.ID, Depositor: p.Depositor, Beneficiary: p.Beneficiary, Arbiter: p.Arbiter,
		Amount: p.Amount, ReleasedToBeneficiary: "0", RefundedToDepositor: "0",
		State: EscrowActive, ReleaseRules: p.ReleaseRules, ExpiresAt: p.ExpiresAt,
		LastEventHash: eventHash,
	}
	return next, nil
}

// EscrowFundPayload is the payload of wallet.escrow.fund.
type EscrowFundPayload struct {
	ID     string `json:"id"`
	Amount string `json:"amount"`
}

// CanApplyEscrowFund requires the same depositor, an Active escrow, and
// sufficient available balance.
func CanApplyEscrowFund(s *State, issuer string, p EscrowFundPayload) error {
	e, ok := s.Escrows[p.ID]
	if !ok {
		return clawerr.NotFoundf("reducers.escrow.fund", "no escrow %s", p.ID)
	}
	if e.Depositor != issuer {
		return clawerr.Unauthorizedf("reducers.escrow.fund", "issuer %s is not depositor of escrow %s", issuer, p.ID)
	}
	if e.State != EscrowActive {
		return clawerr.Conflictf("reducers.escrow.fund", "escrow %s is not Active (state=%s)", p.ID, e.State)
	}
	if !isPositiveAmount(p.Amount) {
		return clawerr.Invalidf("reducers.escrow.fund", "amount must be positive")
	}
	w := getOrCreateWallet(s, e.Depositor)
	if cmp, ok := cmpAmount(w.Available, p.Amount); !ok || cmp < 0 {
		return clawerr.Conflictf("reducers.escrow.fund", "insufficient balance to add %q", p.Amount)
	}
	return nil
}

// ApplyEscrowFund adds amount to the escrow and moves it from the
// depositor's available to locked balance.
func ApplyEscrowFund(s *State, eventHash string, payload json.RawMessage) (*State, error) {
	var p EscrowFundPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.escrow.fund", "decode payload", err)
	}
	next := s.Clone()
	e := *next.Escrows[p.ID]

	dep := *getOrCreateWallet(next, e.Depositor)
	avail, ok := subAmount(dep.Available, p.Amount)
	if !ok {
		return nil, clawerr.Conflictf("reducers.escrow.fund", "insufficient balance")
	}
	locked, _ := addAmount(dep.Locked, p.Amount)
	dep.Available = avail
	dep.Locked = locked
	next.Wallets[e.Depositor] = &dep

	amt, _ := addAmount(e.Amount, p.Amount)
	e.Amount = amt
	e.LastEventHash = eventHash
	next.Escrows[p.ID] = &e
	return next, nil
}

// EscrowReleasePayload is the payload of wallet.escrow.release.
type EscrowReleasePayload struct {
	ID     string `json:"id"`
	Amount string `json:"amount"` // partial release allowed
}

func escrowRemaining(e *Escrow) (string, bool) {
	released, ok := addAmount(e.ReleasedToBeneficiary, e.RefundedToDepositor)
	if !ok {
		return "", false
	}
	return subAmount(e.Amount, released)
}

// CanApplyEscrowRelease requires an escrow in Active state (a Disputed
// escrow is settled through resolve instead; release is for the
// depositor/arbiter "manual" path per spec §4.8.3), caller is depositor
// or arbiter, and amount does not exceed the remaining balance.
func CanApplyEscrowRelease(s *State, issuer string, p EscrowReleasePayload) error {
	e, ok := s.Escrows[p.ID]
	if !ok {
		return clawerr.NotFoundf("reducers.escrow.release", "no escrow %s", p.ID)
	}
	if e.State != EscrowActive {
		return clawerr.Conflictf("reducers.escrow.release", "escrow %s not releasable from state %s", p.ID, e.State)
	}
	if issuer != e.Depositor && issuer != e.Arbiter {
		return clawerr.Unauthorizedf("reducers.escrow.release", "issuer %s may not release escrow %s", issuer, p.ID)
	}
	if !isPositiveAmount(p.Amount) {
		return clawerr.Invalidf("reducers.escrow.release", "amount must be positive")
	}
	remaining, ok := escrowRemaining(e)
	if !ok {
		return clawerr.Invalidf("reducers.escrow.release", "corrupt escrow amounts")
	}
	if cmp, ok := cmpAmount(remaining, p.Amount); !ok || cmp < 0 {
		return clawerr.Conflictf("reducers.escrow.release", "release %q exceeds remaining %q", p.Amount, remaining)
	}
	return nil
}

// ApplyEscrowRelease transfers amount from the escrow's locked balance
// to the beneficiary's available balance, and marks the escrow Released
// if fully disbursed.
func ApplyEscrowRelease(s *State, eventHash string, payload json.RawMessage) (*State, error) {
	var p EscrowReleasePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.escrow.release", "decode payload", err)
	}
	next := s.Clone()
	e := *next.Escrows[p.ID]

	dep := *getOrCreateWallet(next, e.Depositor)
	depLocked, ok := subAmount(dep.Locked, p.Amount)
	if !ok {
		return nil, clawerr.Conflictf("reducers.escrow.release", "insufficient locked balance")
	}
	dep.Locked = depLocked
	next.Wallets[e.Depositor] = &dep

	ben := *getOrCreateWallet(next, e.Beneficiary)
	benAvail, _ := addAmount(ben.Available, p.Amount)
	benIn, _ := addAmount(ben.TotalIn, p.Amount)
	ben.Available = benAvail
	ben.TotalIn = benIn
	next.Wallets[e.Beneficiary] = &ben

	released, _ := addAmount(e.ReleasedToBeneficiary, p.Amount)
	e.ReleasedToBeneficiary = released
	e.LastEventHash = eventHash
	if remaining, ok := escrowRemaining(&e); ok && remaining == "0" {
		e.State = EscrowReleased
	}
	next.Escrows[p.ID] = &e
	return next, nil
}

// EscrowRefundPayload is the payload of wallet.escrow.refund, symmetric
// to release (spec §4.8.3).
type EscrowRefundPayload struct {
	ID     string `json:"id"`
	Amount string `json:"amount"`
}

// CanApplyEscrowRefund mirrors CanApplyEscrowRelease with depositor as
// the credited party.
func CanApplyEscrowRefund(s *State, issuer string, p EscrowRefundPayload) error {
	e, ok := s.Escrows[p.ID]
	if !ok {
		return clawerr.NotFoundf("reducers.escrow.refund", "no escrow %s", p.ID)
	}
	if e.State != EscrowActive {
		return clawerr.Conflictf("reducers.escrow.refund", "escrow %s not refundable from state %s", p.ID, e.State)
	}
	if issuer != e.Depositor && issuer != e.Arbiter {
		return clawerr.Unauthorizedf("reducers.escrow.refund", "issuer %s may not refund escrow %s", issuer, p.ID)
	}
	if !isPositiveAmount(p.Amount) {
		return clawerr.Invalidf("reducers.escrow.refund", "amount must be positive")
	}
	remaining, ok := escrowRemaining(e)
	if !ok {
		return clawerr.Invalidf("reducers.escrow.refund", "corrupt escrow amounts")
	}
	if cmp, ok := cmpAmount(remaining, p.Amount); !ok || cmp < 0 {
		return clawerr.Conflictf("reducers.escrow.refund", "refund %q exceeds remaining %q", p.Amount, remaining)
	}
	return nil
}

// ApplyEscrowRefund transfers amount from the escrow's locked balance
// back to the depositor's available balance.
func ApplyEscrowRefund(s *State, eventHash string, payload json.RawMessage) (*State, error) {
	var p EscrowRefundPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.escrow.refund", "decode payload", err)
	}
	next := s.Clone()
	e := *next.Escrows[p.ID]

	dep := *getOrCreateWallet(next, e.Depositor)
	depLocked, ok := subAmount(dep.Locked, p.Amount)
	if !ok {
		return nil, clawerr.Conflictf("reducers.escrow.refund", "insufficient locked balance")
	}
	depAvail, _ := addAmount(dep.Available, p.Amount)
	dep.Locked = depLocked
	dep.Available = depAvail
	next.Wallets[e.Depositor] = &dep

	refunded, _ := addAmount(e.RefundedToDepositor, p.Amount)
	e.RefundedToDepositor = refunded
	e.LastEventHash = eventHash
	if remaining, ok := escrowRemaining(&e); ok && remaining == "0" {
		e.State = EscrowRefunded
	}
	next.Escrows[p.ID] = &e
	return next, nil
}

// CanApplyEscrowExpire requires the escrow be Active with expiresAt set
// and past.
func CanApplyEscrowExpire(s *State, p EscrowRefundPayload, nowMs int64) error {
	e, ok := s.Escrows[p.ID]
	if !ok {
		return clawerr.NotFoundf("reducers.escrow.expire", "no escrow %s", p.ID)
	}
	if e.State != EscrowActive {
		return clawerr.Conflictf("reducers.escrow.expire", "escrow %s not expirable from state %s", p.ID, e.State)
	}
	if e.ExpiresAt == 0 || nowMs < e.ExpiresAt {
		return clawerr.Conflictf("reducers.escrow.expire", "escrow %s has not reached its expiry", p.ID)
	}
	return nil
}

// ApplyEscrowExpire refunds the remaining balance to the depositor — the
// default expiry policy per spec §4.8.3 ("default policy is refund to
// depositor unless overridden").
func ApplyEscrowExpire(s *State, eventHash string, payload json.RawMessage) (*State, error) {
	var p EscrowRefundPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.escrow.expire", "decode payload", err)
	}
	e := s.Escrows[p.ID]
	remaining, ok := escrowRemaining(e)
	if !ok {
		return nil, clawerr.Invalidf("reducers.escrow.expire", "corrupt escrow amounts")
	}
	next := s.Clone()
	full := EscrowRefundPayload{ID: p.ID, Amount: remaining}
	raw, _ := json.Marshal(full)
	applied, err := ApplyEscrowRefund(next, eventHash, raw)
	if err != nil {
		return nil, err
	}
	e2 := *applied.Escrows[p.ID]
	e2.State = EscrowExpired
	applied.Escrows[p.ID] = &e2
	return applied, nil
}

// EscrowDisputePayload is the payload of wallet.escrow.dispute.
type EscrowDisputePayload struct {
	ID     string `json:"id"`
	Reason string `json:"reason,omitempty"`
}

// CanApplyEscrowDispute requires an Active escrow and caller is
// depositor or beneficiary ("either party").
func CanApplyEscrowDispute(s *State, issuer string, p EscrowDisputePayload) error {
	e, ok := s.Escrows[p.ID]
	if !ok {
		return clawerr.NotFoundf("reducers.escrow.dispute", "no escrow %s", p.ID)
	}
	if e.State != EscrowActive {
		return clawerr.Conflictf("reducers.escrow.dispute", "escrow %s not disputable from state %s", p.ID, e.State)
	}
	if issuer != e.Depositor && issuer != e.Beneficiary {
		return clawerr.Unauthorizedf("reducers.escrow.dispute", "issuer %s is not a party to escrow %s", issuer, p.ID)
	}
	return nil
}

// ApplyEscrowDispute transitions the escrow to Disputed.
func ApplyEscrowDispute(s *State, eventHash string, payload json.RawMessage) (*State, error) {
	var p EscrowDisputePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.escrow.dispute", "decode payload", err)
	}
	next := s.Clone()
	e := *next.Escrows[p.ID]
	e.State = EscrowDisputed
	e.LastEventHash = eventHash
	next.Escrows[p.ID] = &e
	return next, nil
}

// EscrowResolvePayload is the payload of wallet.escrow.resolve: the
// arbiter routes the remaining balance between beneficiary and
// depositor.
type EscrowResolvePayload struct {
	ID               string `json:"id"`
	ToBeneficiary    string `json:"toBeneficiary"`
	ToDepositor      string `json:"toDepositor"`
}

// CanApplyEscrowResolve requires a Disputed escrow, issuer is the
// arbiter, and the split sums to exactly the remaining balance.
func CanApplyEscrowResolve(s *State, issuer string, p EscrowResolvePayload) error {
	e, ok := s.Escrows[p.ID]
	if !ok {
		return clawerr.NotFoundf("reducers.escrow.resolve", "no escrow %s", p.ID)
	}
	if e.State != EscrowDisputed {
		return clawerr.Conflictf("reducers.escrow.resolve", "escrow %s is not Disputed", p.ID)
	}
	if e.Arbiter == "" || issuer != e.Arbiter {
		return clawerr.Unauthorizedf("reducers.escrow.resolve", "issuer %s is not arbiter of escrow %s", issuer, p.ID)
	}
	if !isNonNegativeAmount(p.ToBeneficiary) || !isNonNegativeAmount(p.ToDepositor) {
		return clawerr.Invalidf("reducers.escrow.resolve", "split amounts must be non-negative")
	}
	split, ok := addAmount(p.ToBeneficiary, p.ToDepositor)
	if !ok {
		return clawerr.Invalidf("reducers.escrow.resolve", "bad split amounts")
	}
	remaining, ok := escrowRemaining(e)
	if !ok {
		return clawerr.Invalidf("reducers.escrow.resolve", "corrupt escrow amounts")
	}
	if split != remaining {
		return clawerr.Conflictf("reducers.escrow.resolve", "split %q does not sum to remaining %q", split, remaining)
	}
	return nil
}

// ApplyEscrowResolve disburses the arbiter's split and moves the escrow
// to Refunded (if fully disbursed to the depositor) or Released
// otherwise — spec §4.8.3 treats any disputed split as terminal, so a
// mixed split settles as Released to record the beneficiary received funds,
// mirroring spec §8 scenario 6 which calls the outcome "terminal
// (Cancelled)" at the contract layer while the escrow itself records
// both a release and a refund amount.
func ApplyEscrowResolve(s *State, eventHash string, payload json.RawMessage) (*State, error) {
	var p EscrowResolvePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.escrow.resolve", "decode payload", err)
	}
	next := s.Clone()
	e := *next.Escrows[p.ID]

	if isPositiveAmount(p.ToBeneficiary) {
		ben := *getOrCreateWallet(next, e.Beneficiary)
		benAvail, _ := addAmount(ben.Available, p.ToBeneficiary)
		benIn, _ := addAmount(ben.TotalIn, p.ToBeneficiary)
		ben.Available = benAvail
		ben.TotalIn = benIn
		next.Wallets[e.Beneficiary] = &ben
		released, _ := addAmount(e.ReleasedToBeneficiary, p.ToBeneficiary)
		e.ReleasedToBeneficiary = released
	}
	if isPositiveAmount(p.ToDepositor) {
		dep := *getOrCreateWallet(next, e.Depositor)
		depAvail, _ := addAmount(dep.Available, p.ToDepositor)
		dep.Available = depAvail
		next.Wallets[e.Depositor] = &dep
		refunded, _ := addAmount(e.RefundedToDepositor, p.ToDepositor)
		e.RefundedToDepositor = refunded
	}

	dep := *getOrCreateWallet(next, e.Depositor)
	split, _ := addAmount(p.ToBeneficiary, p.ToDepositor)
	depLocked, ok := subAmount(dep.Locked, split)
	if ok {
		dep.Locked = depLocked
		next.Wallets[e.Depositor] = &dep
	}

	switch {
	case p.ToDepositor == "0":
		e.State = EscrowReleased
	case p.ToBeneficiary == "0":
		e.State = EscrowRefunded
	default:
		// Mixed split: no dedicated terminal state for a resolution that
		// pays both sides, so it's recorded as Released by convention.
		e.State = EscrowReleased
	}
	e.LastEventHash = eventHash
	next.Escrows[p.ID] = &e
	return next, nil
}
