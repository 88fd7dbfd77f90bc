package validation

import (
	"encoding/json"

	"github.com/claw-network/clawnet/internal/reducers"
)

func registerDAO(r Registry) {
	proposalResource := func(op string, field string) func(json.RawMessage) (ResourceRef, bool, error) {
		return func(payload json.RawMessage) (ResourceRef, bool, error) {
			var m map[string]json.RawMessage
			if err := json.Unmarshal(payload, &m); err != nil {
				return ResourceRef{}, false, err
			}
			var id string
			if raw, ok := m[field]; ok {
				_ = json.Unmarshal(raw, &id)
			}
			return idRef("dao.proposal", id, op)
		}
	}

	r["dao.proposal.create"] = TypeHandler{
		Resource: proposalResource("dao.proposal.create", "id"),
		IsCreate: true,
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.ProposalCreatePayload](payload, "dao.proposal.create")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyProposalCreate(s, p); err != nil {
				return nil, err
			}
			return reducers.ApplyProposalCreate(s, issuer, eventHash, payload)
		},
	}

	r["dao.proposal.advance"] = TypeHandler{
		Resource: proposalResource("dao.proposal.advance", "id"),
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.ProposalAdvancePayload](payload, "dao.proposal.advance")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyProposalAdvance(s, p); err != nil {
				return nil, err
			}
			return reducers.ApplyProposalAdvance(s, eventHash, payload)
		},
	}

	r["dao.vote.cast"] = TypeHandler{
		Resource: proposalResource("dao.vote.cast", "proposalId"),
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.VoteCastPayload](payload, "dao.vote.cast")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyVoteCast(s, issuer, p); err != nil {
				return nil, err
			}
			tokens := p.Tokens
			if tokens == "" {
				tokens = reducers.TokensOf(s, issuer)
			}
			mult := p.ReputationMultiplier
			if mult <= 0 {
				mult = reducers.ReputationMultiplierFor(s, issuer)
			}
			delegated := reducers.DelegatedPowerFor(s, issuer)
			power := reducers.VotingPower(tokens, mult, delegated)
			next, err := reducers.ApplyVoteCast(s, eventHash, payload, power)
			if err != nil {
				return nil, err
			}
			next.Proposals[p.ProposalID].Voters[issuer] = true
			return next, nil
		},
	}

	r["dao.delegate.set"] = TypeHandler{
		Resource: func(json.RawMessage) (ResourceRef, bool, error) { return ResourceRef{}, false, nil },
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.DelegateSetPayload](payload, "dao.delegate.set")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyDelegateSet(issuer, p); err != nil {
				return nil, err
			}
			return reducers.ApplyDelegateSet(s, issuer, payload)
		},
	}

	r["dao.delegate.revoke"] = TypeHandler{
		Resource: func(json.RawMessage) (ResourceRef, bool, error) { return ResourceRef{}, false, nil },
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			if err := reducers.CanApplyDelegateRevoke(s, issuer); err != nil {
				return nil, err
			}
			return reducers.ApplyDelegateRevoke(s, issuer)
		},
	}

	r["dao.treasury.deposit"] = TypeHandler{
		Resource: func(json.RawMessage) (ResourceRef, bool, error) { return ResourceRef{}, false, nil },
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.TreasuryDepositPayload](payload, "dao.treasury.deposit")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyTreasuryDeposit(s, issuer, p); err != nil {
				return nil, err
			}
			return reducers.ApplyTreasuryDeposit(s, payload)
		},
	}

	r["dao.treasury.spend"] = TypeHandler{
		Resource: func(json.RawMessage) (ResourceRef, bool, error) { return ResourceRef{}, false, nil },
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.TreasurySpendPayload](payload, "dao.treasury.spend")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyTreasurySpend(s, p); err != nil {
				return nil, err
			}
			return reducers.ApplyTreasurySpend(s, payload)
		},
	}

	r["dao.timelock.queue"] = TypeHandler{
		Resource: proposalResource("dao.timelock.queue", "proposalId"),
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.TimelockPayload](payload, "dao.timelock.queue")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyTimelockQueue(s, p); err != nil {
				return nil, err
			}
			return reducers.ApplyTimelockQueue(s, eventHash, payload, nowMs)
		},
	}

	r["dao.timelock.execute"] = TypeHandler{
		Resource: proposalResource("dao.timelock.execute", "proposalId"),
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.TimelockPayload](payload, "dao.timelock.execute")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyTimelockExecute(s, p, nowMs); err != nil {
				return nil, err
			}
			return reducers.ApplyTimelockExecute(s, eventHash, payload)
		},
	}

	r["dao.timelock.cancel"] = TypeHandler{
		Resource: proposalResource("dao.timelock.cancel", "proposalId"),
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.TimelockPayload](payload, "dao.timelock.cancel")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyTimelockCancel(s, p); err != nil {
				return nil, err
			}
			return reducers.ApplyTimelockCancel(s, eventHash, payload)
		},
	}
}
