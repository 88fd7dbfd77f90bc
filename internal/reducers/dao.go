package reducers

import (
	"encoding/json"
	"math"
	"math/big"

	"github.com/claw-network/clawnet/internal/clawerr"
)

// Events handled by this file: dao.proposal.create, dao.proposal.advance,
// dao.vote.cast, dao.delegate.set, dao.delegate.revoke,
// dao.treasury.deposit, dao.treasury.spend, dao.timelock.queue,
// dao.timelock.execute, dao.timelock.cancel (spec §4.8.7). Proposal
// state machine: Discussion -> Voting -> {Passed|Rejected} -> Queued ->
// Executed.

// ProposalCreatePayload is the payload of dao.proposal.create.
type ProposalCreatePayload struct {
	ID            string  `json:"id"`
	Kind          string  `json:"kind"`
	Quorum        float64 `json:"quorum"`
	PassThreshold float64 `json:"passThreshold"`
	TimelockDelay int64   `json:"timelockDelay,omitempty"`
}

// CanApplyProposalCreate requires no existing proposal with this id and
// sane threshold parameters.
func CanApplyProposalCreate(s *State, p ProposalCreatePayload) error {
	if _, exists := s.Proposals[p.ID]; exists {
		return clawerr.Conflictf("reducers.dao.proposal.create", "proposal %s already exists", p.ID)
	}
	if p.Quorum < 0 || p.PassThreshold < 0 || p.PassThreshold > 1 {
		return clawerr.Invalidf("reducers.dao.proposal.create", "quorum/passThreshold out of range")
	}
	return nil
}

// ApplyProposalCreate creates the proposal in Discussion state.
func ApplyProposalCreate(s *State, issuer, eventHash string, payload json.RawMessage) (*State, error) {
	var p ProposalCreatePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.dao.proposal.create", "decode payload", err)
	}
	next := s.Clone()
	next.Proposals[p.ID] = &Proposal{
		ID: p.ID, Proposer: issuer, Kind: p.Kind, Quorum: p.Quorum, PassThreshold: p.PassThreshold,
		State: ProposalDiscussion, Voters: map[string]bool{}, TimelockDelay: p.TimelockDelay,
		LastEventHash: eventHash,
	}
	return next, nil
}

// ProposalAdvancePayload is the payload of dao.proposal.advance, used to
// move Discussion->Voting and to tally Voting->{Passed,Rejected}.
type ProposalAdvancePayload struct {
	ID            string  `json:"id"`
	TotalVotingPower float64 `json:"totalVotingPower"`
}

// CanApplyProposalAdvance requires the proposal be Discussion or Voting.
func CanApplyProposalAdvance(s *State, p ProposalAdvancePayload) error {
	pr, ok := s.Proposals[p.ID]
	if !ok {
		return clawerr.NotFoundf("reducers.dao.proposal.advance", "no proposal %s", p.ID)
	}
	if pr.State != ProposalDiscussion && pr.State != ProposalVoting {
		return clawerr.Conflictf("reducers.dao.proposal.advance", "proposal %s cannot advance from state %s", p.ID, pr.State)
	}
	return nil
}

// ApplyProposalAdvance moves Discussion to Voting, or tallies a Voting
// proposal against quorum and pass threshold to Passed/Rejected.
func ApplyProposalAdvance(s *State, eventHash string, payload json.RawMessage) (*State, error) {
	var p ProposalAdvancePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.dao.proposal.advance", "decode payload", err)
	}
	next := s.Clone()
	pr := *next.Proposals[p.ID]

	switch pr.State {
	case ProposalDiscussion:
		pr.State = ProposalVoting
	case ProposalVoting:
		turnout := pr.VotesFor + pr.VotesAgainst
		met := p.TotalVotingPower == 0 || turnout/p.TotalVotingPower >= pr.Quorum
		var passed bool
		if turnout > 0 {
			passed = met && (pr.VotesFor/turnout) >= pr.PassThreshold
		}
		if passed {
			pr.State = ProposalPassed
		} else {
			pr.State = ProposalRejected
		}
	}
	pr.LastEventHash = eventHash
	next.Proposals[p.ID] = &pr
	return next, nil
}

// VoteCastPayload is the payload of dao.vote.cast.
type VoteCastPayload struct {
	ProposalID string  `json:"proposalId"`
	Support    bool    `json:"support"`
	Tokens     string  `json:"tokens"`
	ReputationMultiplier float64 `json:"reputationMultiplier"`
}

// VotingPower computes spec §4.8.7's formula: sqrt(tokens) *
// reputationMultiplier + delegated. Delegated power is resolved by the
// caller (the committer, which can see the full delegation graph); this
// function takes it as an argument to stay pure.
func VotingPower(tokens string, reputationMultiplier, delegated float64) float64 {
	n, ok := parseAmount(tokens)
	if !ok {
		return delegated
	}
	tf := new(big.Float).SetInt(n)
	f64, _ := tf.Float64()
	mult := reputationMultiplier
	if mult <= 0 {
		mult = 1
	}
	return math.Sqrt(f64)*mult + delegated
}

// CanApplyVoteCast requires the proposal be Voting and the issuer not
// have already voted.
func CanApplyVoteCast(s *State, issuer string, p VoteCastPayload) error {
	pr, ok := s.Proposals[p.ProposalID]
	if !ok {
		return clawerr.NotFoundf("reducers.dao.vote.cast", "no proposal %s", p.ProposalID)
	}
	if pr.State != ProposalVoting {
		return clawerr.Conflictf("reducers.dao.vote.cast", "proposal %s is not in Voting", p.ProposalID)
	}
	if pr.Voters[issuer] {
		return clawerr.Conflictf("reducers.dao.vote.cast", "issuer %s already voted on proposal %s", issuer, p.ProposalID)
	}
	return nil
}

// ApplyVoteCast records the vote with its resolved power.
func ApplyVoteCast(s *State, eventHash string, payload json.RawMessage, power float64) (*State, error) {
	var p VoteCastPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.dao.vote.cast", "decode payload", err)
	}
	next := s.Clone()
	pr := *next.Proposals[p.ProposalID]
	pr.Voters = make(map[string]bool, len(pr.Voters)+1)
	for k, v := range s.Proposals[p.ProposalID].Voters {
		pr.Voters[k] = v
	}
	if p.Support {
		pr.VotesFor += power
	} else {
		pr.VotesAgainst += power
	}
	pr.LastEventHash = eventHash
	next.Proposals[p.ProposalID] = &pr
	return next, nil
}

// DelegateSetPayload is the payload of dao.delegate.set.
type DelegateSetPayload struct {
	Delegate string `json:"delegate"`
}

// CanApplyDelegateSet requires delegate != issuer.
func CanApplyDelegateSet(issuer string, p DelegateSetPayload) error {
	if issuer == p.Delegate {
		return clawerr.Invalidf("reducers.dao.delegate.set", "cannot delegate to self")
	}
	return nil
}

// ApplyDelegateSet records or overwrites the issuer's delegation.
func ApplyDelegateSet(s *State, issuer string, payload json.RawMessage) (*State, error) {
	var p DelegateSetPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.dao.delegate.set", "decode payload", err)
	}
	next := s.Clone()
	next.Delegations[issuer] = &Delegation{Delegator: issuer, Delegate: p.Delegate}
	return next, nil
}

// CanApplyDelegateRevoke requires an existing delegation from issuer.
func CanApplyDelegateRevoke(s *State, issuer string) error {
	if _, ok := s.Delegations[issuer]; !ok {
		return clawerr.NotFoundf("reducers.dao.delegate.revoke", "no delegation from %s", issuer)
	}
	return nil
}

// ApplyDelegateRevoke removes the issuer's delegation.
func ApplyDelegateRevoke(s *State, issuer string) (*State, error) {
	next := s.Clone()
	delete(next.Delegations, issuer)
	return next, nil
}

// TreasuryDepositPayload is the payload of dao.treasury.deposit.
type TreasuryDepositPayload struct {
	From   string `json:"from"`
	Amount string `json:"amount"`
}

// CanApplyTreasuryDeposit requires a positive amount and sufficient
// depositor balance.
func CanApplyTreasuryDeposit(s *State, issuer string, p TreasuryDepositPayload) error {
	if issuer != p.From {
		return clawerr.Unauthorizedf("reducers.dao.treasury.deposit", "issuer %s is not from address %s", issuer, p.From)
	}
	if !isPositiveAmount(p.Amount) {
		return clawerr.Invalidf("reducers.dao.treasury.deposit", "amount must be positive")
	}
	w := getOrCreateWallet(s, p.From)
	if cmp, ok := cmpAmount(w.Available, p.Amount); !ok || cmp < 0 {
		return clawerr.Conflictf("reducers.dao.treasury.deposit", "insufficient balance")
	}
	return nil
}

// ApplyTreasuryDeposit moves amount from the depositor's available
// balance into the treasury.
func ApplyTreasuryDeposit(s *State, payload json.RawMessage) (*State, error) {
	var p TreasuryDepositPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.dao.treasury.deposit", "decode payload", err)
	}
	next := s.Clone()
	w := *getOrCreateWallet(next, p.From)
	avail, ok := subAmount(w.Available, p.Amount)
	if !ok {
		return nil, clawerr.Conflictf("reducers.dao.treasury.deposit", "insufficient balance")
	}
	w.Available = avail
	next.Wallets[p.From] = &w
	bal, _ := addAmount(next.Treasury.Balance, p.Amount)
	next.Treasury = Treasury{Balance: bal}
	return next, nil
}

// TreasurySpendPayload is the payload of dao.treasury.spend, executed
// only via a passed timelock (spec §4.8.7 composes with dao.timelock.*).
type TreasurySpendPayload struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// CanApplyTreasurySpend requires a positive amount not exceeding the
// treasury balance.
func CanApplyTreasurySpend(s *State, p TreasurySpendPayload) error {
	if !isPositiveAmount(p.Amount) {
		return clawerr.Invalidf("reducers.dao.treasury.spend", "amount must be positive")
	}
	if cmp, ok := cmpAmount(s.Treasury.Balance, p.Amount); !ok || cmp < 0 {
		return clawerr.Conflictf("reducers.dao.treasury.spend", "insufficient treasury balance")
	}
	return nil
}

// ApplyTreasurySpend moves amount from the treasury to the recipient's
// available balance.
func ApplyTreasurySpend(s *State, payload json.RawMessage) (*State, error) {
	var p TreasurySpendPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.dao.treasury.spend", "decode payload", err)
	}
	next := s.Clone()
	bal, ok := subAmount(next.Treasury.Balance, p.Amount)
	if !ok {
		return nil, clawerr.Conflictf("reducers.dao.treasury.spend", "insufficient treasury balance")
	}
	next.Treasury = Treasury{Balance: bal}
	w := *getOrCreateWallet(next, p.To)
	avail, _ := addAmount(w.Available, p.Amount)
	w.Available = avail
	next.Wallets[p.To] = &w
	return next, nil
}

// TimelockPayload is the payload shared by dao.timelock.queue/execute/cancel.
type TimelockPayload struct {
	ProposalID string `json:"proposalId"`
}

// CanApplyTimelockQueue requires the proposal be Passed.
func CanApplyTimelockQueue(s *State, p TimelockPayload) error {
	pr, ok := s.Proposals[p.ProposalID]
	if !ok {
		return clawerr.NotFoundf("reducers.dao.timelock.queue", "no proposal %s", p.ProposalID)
	}
	if pr.State != ProposalPassed {
		return clawerr.Conflictf("reducers.dao.timelock.queue", "proposal %s is not Passed", p.ProposalID)
	}
	return nil
}

// ApplyTimelockQueue moves the proposal to Queued and stamps the queue
// time so execute can enforce the configured delay.
func ApplyTimelockQueue(s *State, eventHash string, payload json.RawMessage, nowMs int64) (*State, error) {
	var p TimelockPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.dao.timelock.queue", "decode payload", err)
	}
	next := s.Clone()
	pr := *next.Proposals[p.ProposalID]
	pr.State = ProposalQueued
	pr.QueuedAt = nowMs
	pr.LastEventHash = eventHash
	next.Proposals[p.ProposalID] = &pr
	return next, nil
}

// CanApplyTimelockExecute requires the proposal be Queued and its delay
// elapsed.
func CanApplyTimelockExecute(s *State, p TimelockPayload, nowMs int64) error {
	pr, ok := s.Proposals[p.ProposalID]
	if !ok {
		return clawerr.NotFoundf("reducers.dao.timelock.execute", "no proposal %s", p.ProposalID)
	}
	if pr.State != ProposalQueued {
		return clawerr.Conflictf("reducers.dao.timelock.execute", "proposal %s is not Queued", p.ProposalID)
	}
	if nowMs < pr.QueuedAt+pr.TimelockDelay {
		return clawerr.Conflictf("reducers.dao.timelock.execute", "proposal %s timelock delay has not elapsed", p.ProposalID)
	}
	return nil
}

// ApplyTimelockExecute moves the proposal to Executed. Any treasury
// spend or other side effect the proposal authorized is applied by a
// separate event carrying its own domain precondition (e.g.
// dao.treasury.spend), referencing this proposal as justification; the
// timelock reducer itself only gates the schedule.
func ApplyTimelockExecute(s *State, eventHash string, payload json.RawMessage) (*State, error) {
	var p TimelockPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.dao.timelock.execute", "decode payload", err)
	}
	next := s.Clone()
	pr := *next.Proposals[p.ProposalID]
	pr.State = ProposalExecuted
	pr.LastEventHash = eventHash
	next.Proposals[p.ProposalID] = &pr
	return next, nil
}

// ReputationMultiplierFor derives a voting-power multiplier in [0.5,1.5]
// from the average of a subject's per-dimension reputation averages,
// defaulting to 1 when the subject has no reputation record yet.
func ReputationMultiplierFor(s *State, subject string) float64 {
	rec, ok := s.Reputations[subject]
	if !ok || len(rec.Averages) == 0 {
		return 1
	}
	var sum float64
	for _, v := range rec.Averages {
		sum += v
	}
	overall := sum / float64(len(rec.Averages))
	return 0.5 + (overall/5)*1
}

// TokensOf returns an address's spendable-plus-locked balance as a
// decimal string, used as the "tokens" input to VotingPower.
func TokensOf(s *State, address string) string {
	w, ok := s.Wallets[address]
	if !ok {
		return zeroAmount()
	}
	total, ok := addAmount(w.Available, w.Locked)
	if !ok {
		return zeroAmount()
	}
	return total
}

// DelegatedPowerFor sums the voting power of every address that has
// delegated to delegate, one hop only: spec leaves delegation
// transitivity unspecified (§9 Open Questions), and a single-hop model
// keeps the power graph acyclic without a delegation-cycle check.
func DelegatedPowerFor(s *State, delegate string) float64 {
	var total float64
	for delegator, d := range s.Delegations {
		if d.Delegate != delegate {
			continue
		}
		tokens := TokensOf(s, delegator)
		mult := ReputationMultiplierFor(s, delegator)
		total += VotingPower(tokens, mult, 0)
	}
	return total
}

// CanApplyTimelockCancel requires the proposal be Queued.
func CanApplyTimelockCancel(s *State, p TimelockPayload) error {
	pr, ok := s.Proposals[p.ProposalID]
	if !ok {
		return clawerr.NotFoundf("reducers.dao.timelock.cancel", "no proposal %s", p.ProposalID)
	}
	if pr.State != ProposalQueued {
		return clawerr.Conflictf("reducers.dao.timelock.cancel", "proposal %s is not Queued", p.ProposalID)
	}
	return nil
}

// ApplyTimelockCancel moves the proposal back to Rejected, withdrawing
// its execution.
func ApplyTimelockCancel(s *State, eventHash string, payload json.RawMessage) (*State, error) {
	var p TimelockPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.dao.timelock.cancel", "decode payload", err)
	}
	next := s.Clone()
	pr := *next.Proposals[p.ProposalID]
	pr.State = ProposalRejected
	pr.LastEventHash = eventHash
	next.Proposals[p.ProposalID] = &pr
	return next, nil
}
