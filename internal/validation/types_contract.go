package validation

import (
	"encoding/json"

	"github.com/claw-network/clawnet/internal/reducers"
)

func registerContract(r Registry) {
	contractResource := func(op string) func(json.RawMessage) (ResourceRef, bool, error) {
		return func(payload json.RawMessage) (ResourceRef, bool, error) {
			p, err := decodePayload[struct {
				ID string `json:"id"`
			}](payload, op)
			if err != nil {
				return ResourceRef{}, false, err
			}
			return idRef("contract", p.ID, op)
		}
	}
	milestoneContractResource := func(op string) func(json.RawMessage) (ResourceRef, bool, error) {
		return func(payload json.RawMessage) (ResourceRef, bool, error) {
			p, err := decodePayload[reducers.ContractMilestonePayload](payload, op)
			if err != nil {
				return ResourceRef{}, false, err
			}
			return idRef("contract", p.ID, op)
		}
	}

	r["contract.create"] = TypeHandler{
		Resource: contractResource("contract.create"),
		IsCreate: true,
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.ContractCreatePayload](payload, "contract.create")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyContractCreate(s, p); err != nil {
				return nil, err
			}
			return reducers.ApplyContractCreate(s, eventHash, payload)
		},
	}

	r["contract.sign"] = TypeHandler{
		Resource: contractResource("contract.sign"),
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.ContractSignPayload](payload, "contract.sign")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyContractSign(s, issuer, p); err != nil {
				return nil, err
			}
			return reducers.ApplyContractSign(s, issuer, eventHash, payload)
		},
	}

	r["contract.cancel"] = TypeHandler{
		Resource: contractResource("contract.cancel"),
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.ContractCancelPayload](payload, "contract.cancel")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyContractCancel(s, issuer, p); err != nil {
				return nil, err
			}
			return reducers.ApplyContractCancel(s, eventHash, payload)
		},
	}

	r["contract.fund"] = TypeHandler{
		Resource: contractResource("contract.fund"),
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.ContractFundPayload](payload, "contract.fund")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyContractFund(s, issuer, p); err != nil {
				return nil, err
			}
			return reducers.ApplyContractFund(s, eventHash, payload)
		},
	}

	r["contract.milestone.submit"] = TypeHandler{
		Resource: milestoneContractResource("contract.milestone.submit"),
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.ContractMilestonePayload](payload, "contract.milestone.submit")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyMilestoneSubmit(s, issuer, p); err != nil {
				return nil, err
			}
			return reducers.ApplyMilestoneSubmit(s, eventHash, payload)
		},
	}

	r["contract.milestone.approve"] = TypeHandler{
		Resource: milestoneContractResource("contract.milestone.approve"),
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.ContractMilestonePayload](payload, "contract.milestone.approve")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyMilestoneApprove(s, issuer, p); err != nil {
				return nil, err
			}
			return reducers.ApplyMilestoneApprove(s, eventHash, payload)
		},
	}

	r["contract.milestone.reject"] = TypeHandler{
		Resource: milestoneContractResource("contract.milestone.reject"),
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.ContractMilestonePayload](payload, "contract.milestone.reject")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyMilestoneReject(s, issuer, p); err != nil {
				return nil, err
			}
			return reducers.ApplyMilestoneReject(s, eventHash, payload)
		},
	}

	r["contract.complete"] = TypeHandler{
		Resource: contractResource("contract.complete"),
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.ContractCompletePayload](payload, "contract.complete")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyContractComplete(s, p); err != nil {
				return nil, err
			}
			return reducers.ApplyContractComplete(s, eventHash, payload)
		},
	}

	r["contract.dispute"] = TypeHandler{
		Resource: contractResource("contract.dispute"),
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.ContractDisputePayload](payload, "contract.dispute")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyContractDispute(s, issuer, p); err != nil {
				return nil, err
			}
			return reducers.ApplyContractDispute(s, eventHash, payload)
		},
	}

	r["contract.dispute.resolve"] = TypeHandler{
		Resource: contractResource("contract.dispute.resolve"),
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.ContractDisputeResolvePayload](payload, "contract.dispute.resolve")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyContractDisputeResolve(s, issuer, p); err != nil {
				return nil, err
			}
			return reducers.ApplyContractDisputeResolve(s, eventHash, payload)
		},
	}

	r["contract.terminate"] = TypeHandler{
		Resource: contractResource("contract.terminate"),
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.ContractTerminatePayload](payload, "contract.terminate")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyContractTerminate(s, issuer, p, nowMs); err != nil {
				return nil, err
			}
			return reducers.ApplyContractTerminate(s, eventHash, payload)
		},
	}
}
