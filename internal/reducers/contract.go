package reducers

import (
	"encoding/json"

	"github.com/claw-network/clawnet/internal/clawerr"
)

// Events handled by this file: contract.create, .sign, .fund,
// .milestone.submit, .milestone.approve, .milestone.reject, .complete,
// .dispute, .dispute.resolve, .cancel, .terminate (spec §4.8.5).

// ContractCreatePayload is the payload of contract.create.
type ContractCreatePayload struct {
	ID          string             `json:"id"`
	Client      string             `json:"client"`
	Provider    string             `json:"provider"`
	Arbiter     string             `json:"arbiter,omitempty"`
	TotalAmount string             `json:"totalAmount"`
	Milestones  []ContractMilestone `json:"milestones"`
	DeadlineAt  int64              `json:"deadlineAt,omitempty"`
}

// ContractMilestone is one milestone as carried in contract.create's
// payload, before it gains reducer-tracked state.
type ContractMilestone struct {
	ID     string `json:"id"`
	Amount string `json:"amount"`
}

// CanApplyContractCreate requires no existing contract with this id,
// distinct client/provider, and milestone amounts summing exactly to
// totalAmount (spec §4.8.5, invariant P7).
func CanApplyContractCreate(s *State, p ContractCreatePayload) error {
	if _, exists := s.Contracts[p.ID]; exists {
		return clawerr.Conflictf("reducers.contract.create", "contract %s already exists", p.ID)
	}
	if p.Client == "" || p.Provider == "" || p.Client == p.Provider {
		return clawerr.Invalidf("reducers.contract.create", "client and provider must be distinct non-empty DIDs")
	}
	if len(p.Milestones) == 0 {
		return clawerr.Invalidf("reducers.contract.create", "at least one milestone required")
	}
	sum := zeroAmount()
	for _, m := range p.Milestones {
		if !isPositiveAmount(m.Amount) {
			return clawerr.Invalidf("reducers.contract.create", "milestone %s amount must be positive", m.ID)
		}
		var ok bool
		sum, ok = addAmount(sum, m.Amount)
		if !ok {
			return clawerr.Invalidf("reducers.contract.create", "bad milestone amount")
		}
	}
	if sum != p.TotalAmount {
		return clawerr.Conflictf("reducers.contract.create", "milestone amounts sum to %q, totalAmount is %q", sum, p.TotalAmount)
	}
	return nil
}

// ApplyContractCreate creates the contract in Draft state with each
// milestone Pending.
func ApplyContractCreate(s *State, eventHash string, payload json.RawMessage) (*State, error) {
	var p ContractCreatePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.contract.create", "decode payload", err)
	}
	milestones := make([]Milestone, len(p.Milestones))
	for i, m := range p.Milestones {
		milestones[i] = Milestone{ID: m.ID, Amount: m.Amount, State: MilestonePending}
	}
	next := s.Clone()
	next.Contracts[p.ID] = &Contract{
		ID: p.ID, Client: p.Client, Provider: p.Provider, Arbiter: p.Arbiter,
		TotalAmount: p.TotalAmount, Milestones: milestones, State: ContractDraft,
		DeadlineAt: p.DeadlineAt, LastEventHash: eventHash,
	}
	return next, nil
}

// ContractSignPayload is the payload of contract.sign.
type ContractSignPayload struct {
	ID string `json:"id"`
}

// CanApplyContractSign requires a Draft contract and issuer be client or
// provider.
func CanApplyContractSign(s *State, issuer string, p ContractSignPayload) error {
	c, ok := s.Contracts[p.ID]
	if !ok {
		return clawerr.NotFoundf("reducers.contract.sign", "no contract %s", p.ID)
	}
	if c.State != ContractDraft {
		return clawerr.Conflictf("reducers.contract.sign", "contract %s is not Draft", p.ID)
	}
	if issuer != c.Client && issuer != c.Provider {
		return clawerr.Unauthorizedf("reducers.contract.sign", "issuer %s is not a party to contract %s", issuer, p.ID)
	}
	return nil
}

// ApplyContractSign records the signature and advances to Signed once
// both parties have signed.
func ApplyContractSign(s *State, issuer, eventHash string, payload json.RawMessage) (*State, error) {
	var p ContractSignPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.contract.sign", "decode payload", err)
	}
	next := s.Clone()
	c := *next.Contracts[p.ID]
	if issuer == c.Client {
		c.ClientSigned = true
	}
	if issuer == c.Provider {
		c.ProviderSigned = true
	}
	if c.ClientSigned && c.ProviderSigned {
		c.State = ContractSigned
	}
	c.LastEventHash = eventHash
	next.Contracts[p.ID] = &c
	return next, nil
}

// ContractCancelPayload is the payload of contract.cancel.
type ContractCancelPayload struct {
	ID string `json:"id"`
}

// CanApplyContractCancel requires Draft or Signed state (before fund)
// and issuer be client or provider.
func CanApplyContractCancel(s *State, issuer string, p ContractCancelPayload) error {
	c, ok := s.Contracts[p.ID]
	if !ok {
		return clawerr.NotFoundf("reducers.contract.cancel", "no contract %s", p.ID)
	}
	if c.State != ContractDraft && c.State != ContractSigned {
		return clawerr.Conflictf("reducers.contract.cancel", "contract %s cannot be cancelled from state %s", p.ID, c.State)
	}
	if issuer != c.Client && issuer != c.Provider {
		return clawerr.Unauthorizedf("reducers.contract.cancel", "issuer %s is not a party to contract %s", issuer, p.ID)
	}
	return nil
}

// ApplyContractCancel moves the contract to Cancelled.
func ApplyContractCancel(s *State, eventHash string, payload json.RawMessage) (*State, error) {
	var p ContractCancelPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.contract.cancel", "decode payload", err)
	}
	next := s.Clone()
	c := *next.Contracts[p.ID]
	c.State = ContractCancelled
	c.LastEventHash = eventHash
	next.Contracts[p.ID] = &c
	return next, nil
}

// ContractFundPayload is the payload of contract.fund.
type ContractFundPayload struct {
	ID       string `json:"id"`
	EscrowID string `json:"escrowId"`
}

// CanApplyContractFund requires a Signed contract, issuer is the client,
// no existing escrow with this id, and sufficient client balance.
func CanApplyContractFund(s *State, issuer string, p ContractFundPayload) error {
	c, ok := s.Contracts[p.ID]
	if !ok {
		return clawerr.NotFoundf("reducers.contract.fund", "no contract %s", p.ID)
	}
	if c.State != ContractSigned {
		return clawerr.Conflictf("reducers.contract.fund", "contract %s is not Signed", p.ID)
	}
	if issuer != c.Client {
		return clawerr.Unauthorizedf("reducers.contract.fund", "only the client may fund contract %s", p.ID)
	}
	if _, exists := s.Escrows[p.EscrowID]; exists {
		return clawerr.Conflictf("reducers.contract.fund", "escrow %s already exists", p.EscrowID)
	}
	w := getOrCreateWallet(s, c.Client)
	if cmp, ok := cmpAmount(w.Available, c.TotalAmount); !ok || cmp < 0 {
		return clawerr.Conflictf("reducers.contract.fund", "client has insufficient balance")
	}
	return nil
}

// ApplyContractFund creates the backing escrow for totalAmount (rule
// "milestone-approval", arbiter inherited from the contract) and moves
// the contract to Active.
func ApplyContractFund(s *State, eventHash string, payload json.RawMessage) (*State, error) {
	var p ContractFundPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.contract.fund", "decode payload", err)
	}
	c := s.Contracts[p.ID]

	createPayload, _ := json.Marshal(EscrowCreatePayload{
		ID: p.EscrowID, Depositor: c.Client, Beneficiary: c.Provider, Arbiter: c.Arbiter,
		Amount: c.TotalAmount, ReleaseRules: "milestone-approval",
	})
	next, err := ApplyEscrowCreate(s.Clone(), eventHash, createPayload)
	if err != nil {
		return nil, err
	}

	c2 := *next.Contracts[p.ID]
	c2.EscrowID = p.EscrowID
	c2.State = ContractActive
	c2.LastEventHash = eventHash
	next.Contracts[p.ID] = &c2
	return next, nil
}

// ContractMilestonePayload is the payload shared by milestone.submit,
// milestone.approve, and milestone.reject.
type ContractMilestonePayload struct {
	ID          string `json:"id"`
	MilestoneID string `json:"milestoneId"`
}

func findMilestone(c *Contract, milestoneID string) (int, bool) {
	for i := range c.Milestones {
		if c.Milestones[i].ID == milestoneID {
			return i, true
		}
	}
	return -1, false
}

// CanApplyMilestoneSubmit requires an Active contract, issuer is the
// provider, and the milestone is Pending.
func CanApplyMilestoneSubmit(s *State, issuer string, p ContractMilestonePayload) error {
	c, ok := s.Contracts[p.ID]
	if !ok {
		return clawerr.NotFoundf("reducers.contract.milestone.submit", "no contract %s", p.ID)
	}
	if c.State != ContractActive {
		return clawerr.Conflictf("reducers.contract.milestone.submit", "contract %s is not Active", p.ID)
	}
	if issuer != c.Provider {
		return clawerr.Unauthorizedf("reducers.contract.milestone.submit", "only the provider may submit milestones")
	}
	i, ok := findMilestone(c, p.MilestoneID)
	if !ok {
		return clawerr.NotFoundf("reducers.contract.milestone.submit", "no milestone %s", p.MilestoneID)
	}
	if c.Milestones[i].State != MilestonePending {
		return clawerr.Conflictf("reducers.contract.milestone.submit", "milestone %s is not Pending", p.MilestoneID)
	}
	return nil
}

// ApplyMilestoneSubmit moves the milestone to InProgress and the
// contract to MilestoneInProgress.
func ApplyMilestoneSubmit(s *State, eventHash string, payload json.RawMessage) (*State, error) {
	var p ContractMilestonePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.contract.milestone.submit", "decode payload", err)
	}
	next := s.Clone()
	c := *next.Contracts[p.ID]
	c.Milestones = append([]Milestone{}, c.Milestones...)
	i, _ := findMilestone(&c, p.MilestoneID)
	c.Milestones[i].State = MilestoneInProgress
	c.State = ContractMilestoneInProgress
	c.LastEventHash = eventHash
	next.Contracts[p.ID] = &c
	return next, nil
}

// CanApplyMilestoneApprove requires a MilestoneInProgress contract,
// issuer is client or arbiter, and the milestone is InProgress.
func CanApplyMilestoneApprove(s *State, issuer string, p ContractMilestonePayload) error {
	c, ok := s.Contracts[p.ID]
	if !ok {
		return clawerr.NotFoundf("reducers.contract.milestone.approve", "no contract %s", p.ID)
	}
	if c.State != ContractMilestoneInProgress {
		return clawerr.Conflictf("reducers.contract.milestone.approve", "contract %s is not MilestoneInProgress", p.ID)
	}
	if issuer != c.Client && issuer != c.Arbiter {
		return clawerr.Unauthorizedf("reducers.contract.milestone.approve", "issuer %s may not approve milestones", issuer)
	}
	i, ok := findMilestone(c, p.MilestoneID)
	if !ok {
		return clawerr.NotFoundf("reducers.contract.milestone.approve", "no milestone %s", p.MilestoneID)
	}
	if c.Milestones[i].State != MilestoneInProgress {
		return clawerr.Conflictf("reducers.contract.milestone.approve", "milestone %s is not InProgress", p.MilestoneID)
	}
	return nil
}

// ApplyMilestoneApprove releases the milestone's amount from the
// backing escrow to the provider, marks the milestone Approved, and
// moves the contract to Active or, if this was the last unapproved
// milestone, Completed.
func ApplyMilestoneApprove(s *State, eventHash string, payload json.RawMessage) (*State, error) {
	var p ContractMilestonePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.contract.milestone.approve", "decode payload", err)
	}
	c := s.Contracts[p.ID]
	i, _ := findMilestone(c, p.MilestoneID)
	amount := c.Milestones[i].Amount

	releasePayload, _ := json.Marshal(EscrowReleasePayload{ID: c.EscrowID, Amount: amount})
	next, err := ApplyEscrowRelease(s.Clone(), eventHash, releasePayload)
	if err != nil {
		return nil, err
	}

	c2 := *next.Contracts[p.ID]
	c2.Milestones = append([]Milestone{}, c2.Milestones...)
	j, _ := findMilestone(&c2, p.MilestoneID)
	c2.Milestones[j].State = MilestoneApproved

	allApproved := true
	for _, m := range c2.Milestones {
		if m.State != MilestoneApproved {
			allApproved = false
			break
		}
	}
	if allApproved {
		c2.State = ContractCompleted
	} else {
		c2.State = ContractActive
	}
	c2.LastEventHash = eventHash
	next.Contracts[p.ID] = &c2
	return next, nil
}

// CanApplyMilestoneReject mirrors CanApplyMilestoneApprove.
func CanApplyMilestoneReject(s *State, issuer string, p ContractMilestonePayload) error {
	return CanApplyMilestoneApprove(s, issuer, p)
}

// ApplyMilestoneReject returns the milestone to Pending and the
// contract to Active (spec §4.8.5: "milestone returns to Pending").
func ApplyMilestoneReject(s *State, eventHash string, payload json.RawMessage) (*State, error) {
	var p ContractMilestonePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.contract.milestone.reject", "decode payload", err)
	}
	next := s.Clone()
	c := *next.Contracts[p.ID]
	c.Milestones = append([]Milestone{}, c.Milestones...)
	i, _ := findMilestone(&c, p.MilestoneID)
	c.Milestones[i].State = MilestonePending
	c.State = ContractActive
	c.LastEventHash = eventHash
	next.Contracts[p.ID] = &c
	return next, nil
}

// ContractDisputePayload is the payload of contract.dispute.
type ContractDisputePayload struct {
	ID     string `json:"id"`
	Reason string `json:"reason,omitempty"`
}

// CanApplyContractDispute requires Active or MilestoneInProgress state
// and issuer be either party.
func CanApplyContractDispute(s *State, issuer string, p ContractDisputePayload) error {
	c, ok := s.Contracts[p.ID]
	if !ok {
		return clawerr.NotFoundf("reducers.contract.dispute", "no contract %s", p.ID)
	}
	if c.State != ContractActive && c.State != ContractMilestoneInProgress {
		return clawerr.Conflictf("reducers.contract.dispute", "contract %s cannot be disputed from state %s", p.ID, c.State)
	}
	if issuer != c.Client && issuer != c.Provider {
		return clawerr.Unauthorizedf("reducers.contract.dispute", "issuer %s is not a party to contract %s", issuer, p.ID)
	}
	return nil
}

// ApplyContractDispute moves the contract to Disputed and, if its
// escrow is still Active, disputes the escrow too so the arbiter can
// resolve both together.
func ApplyContractDispute(s *State, eventHash string, payload json.RawMessage) (*State, error) {
	var p ContractDisputePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.contract.dispute", "decode payload", err)
	}
	next := s.Clone()
	c := *next.Contracts[p.ID]

	if e, ok := next.Escrows[c.EscrowID]; ok && e.State == EscrowActive {
		disputePayload, _ := json.Marshal(EscrowDisputePayload{ID: c.EscrowID})
		var err error
		next, err = ApplyEscrowDispute(next, eventHash, disputePayload)
		if err != nil {
			return nil, err
		}
	}

	c.State = ContractDisputed
	c.LastEventHash = eventHash
	next.Contracts[p.ID] = &c
	return next, nil
}

// ContractDisputeResolvePayload is the payload of contract.dispute.resolve.
type ContractDisputeResolvePayload struct {
	ID            string `json:"id"`
	ToProvider    string `json:"toProvider"`
	ToClient      string `json:"toClient"`
	FinalState    string `json:"finalState"` // "Completed" or "Cancelled"
}

// CanApplyContractDisputeResolve requires a Disputed contract and
// issuer be the arbiter; the escrow-level split validation is performed
// by CanApplyEscrowResolve against the contract's escrow.
func CanApplyContractDisputeResolve(s *State, issuer string, p ContractDisputeResolvePayload) error {
	c, ok := s.Contracts[p.ID]
	if !ok {
		return clawerr.NotFoundf("reducers.contract.dispute.resolve", "no contract %s", p.ID)
	}
	if c.State != ContractDisputed {
		return clawerr.Conflictf("reducers.contract.dispute.resolve", "contract %s is not Disputed", p.ID)
	}
	if c.Arbiter == "" || issuer != c.Arbiter {
		return clawerr.Unauthorizedf("reducers.contract.dispute.resolve", "issuer %s is not arbiter of contract %s", issuer, p.ID)
	}
	if p.FinalState != string(ContractCompleted) && p.FinalState != string(ContractCancelled) {
		return clawerr.Invalidf("reducers.contract.dispute.resolve", "finalState must be Completed or Cancelled")
	}
	return CanApplyEscrowResolve(s, issuer, EscrowResolvePayload{ID: c.EscrowID, ToBeneficiary: p.ToProvider, ToDepositor: p.ToClient})
}

// ApplyContractDisputeResolve resolves the backing escrow per the given
// split and moves the contract to the arbiter-chosen terminal state
// (spec §8 scenario 6: a partial resolution still leaves the contract
// terminal).
func ApplyContractDisputeResolve(s *State, eventHash string, payload json.RawMessage) (*State, error) {
	var p ContractDisputeResolvePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.contract.dispute.resolve", "decode payload", err)
	}
	c := s.Contracts[p.ID]

	resolvePayload, _ := json.Marshal(EscrowResolvePayload{ID: c.EscrowID, ToBeneficiary: p.ToProvider, ToDepositor: p.ToClient})
	next, err := ApplyEscrowResolve(s.Clone(), eventHash, resolvePayload)
	if err != nil {
		return nil, err
	}

	c2 := *next.Contracts[p.ID]
	c2.State = ContractState(p.FinalState)
	c2.LastEventHash = eventHash
	next.Contracts[p.ID] = &c2
	return next, nil
}

// ContractCompletePayload is the payload of contract.complete, an
// explicit confirmation event a party may issue once every milestone is
// already Approved — the state transition itself happens automatically
// inside ApplyMilestoneApprove, so this only validates that the
// contract has in fact reached that point.
type ContractCompletePayload struct {
	ID string `json:"id"`
}

// CanApplyContractComplete requires the contract already be Completed.
func CanApplyContractComplete(s *State, p ContractCompletePayload) error {
	c, ok := s.Contracts[p.ID]
	if !ok {
		return clawerr.NotFoundf("reducers.contract.complete", "no contract %s", p.ID)
	}
	if c.State != ContractCompleted {
		return clawerr.Conflictf("reducers.contract.complete", "contract %s is not Completed", p.ID)
	}
	return nil
}

// ApplyContractComplete is a no-op state transition that only stamps
// the confirming event as the contract's latest event hash.
func ApplyContractComplete(s *State, eventHash string, payload json.RawMessage) (*State, error) {
	var p ContractCompletePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.contract.complete", "decode payload", err)
	}
	next := s.Clone()
	c := *next.Contracts[p.ID]
	c.LastEventHash = eventHash
	next.Contracts[p.ID] = &c
	return next, nil
}

// ContractTerminatePayload is the payload of contract.terminate.
type ContractTerminatePayload struct {
	ID string `json:"id"`
}

// CanApplyContractTerminate requires Active state, the deadline has
// passed, and any party may call it.
func CanApplyContractTerminate(s *State, issuer string, p ContractTerminatePayload, nowMs int64) error {
	c, ok := s.Contracts[p.ID]
	if !ok {
		return clawerr.NotFoundf("reducers.contract.terminate", "no contract %s", p.ID)
	}
	if c.State != ContractActive {
		return clawerr.Conflictf("reducers.contract.terminate", "contract %s is not Active", p.ID)
	}
	if issuer != c.Client && issuer != c.Provider && issuer != c.Arbiter {
		return clawerr.Unauthorizedf("reducers.contract.terminate", "issuer %s is not a party to contract %s", issuer, p.ID)
	}
	if c.DeadlineAt == 0 || nowMs < c.DeadlineAt {
		return clawerr.Conflictf("reducers.contract.terminate", "contract %s has not reached its deadline", p.ID)
	}
	return nil
}

// ApplyContractTerminate refunds the remaining escrow balance to the
// client and moves the contract to Cancelled.
func ApplyContractTerminate(s *State, eventHash string, payload json.RawMessage) (*State, error) {
	var p ContractTerminatePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.contract.terminate", "decode payload", err)
	}
	c := s.Contracts[p.ID]
	e := s.Escrows[c.EscrowID]
	remaining, ok := escrowRemaining(e)
	if !ok {
		return nil, clawerr.Invalidf("reducers.contract.terminate", "corrupt escrow amounts")
	}

	next := s.Clone()
	if isPositiveAmount(remaining) {
		refundPayload, _ := json.Marshal(EscrowRefundPayload{ID: c.EscrowID, Amount: remaining})
		var err error
		next, err = ApplyEscrowRefund(next, eventHash, refundPayload)
		if err != nil {
			return nil, err
		}
	}

	c2 := *next.Contracts[p.ID]
	c2.State = ContractCancelled
	c2.LastEventHash = eventHash
	next.Contracts[p.ID] = &c2
	return next, nil
}
