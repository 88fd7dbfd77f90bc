package validation

import (
	"encoding/json"

	"github.com/claw-network/clawnet/internal/reducers"
)

// reputation.record is issuer-scoped rather than resource-chained: many
// independent raters target the same subject concurrently, and forcing
// them onto one hash chain would serialize unrelated reviews behind
// each other's prev pointer. Per-issuer nonce ordering plus the
// reducer's (issuer,ref,dimension) uniqueness check are sufficient.
func registerReputation(r Registry) {
	r["reputation.record"] = TypeHandler{
		Resource: func(json.RawMessage) (ResourceRef, bool, error) { return ResourceRef{}, false, nil },
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			p, err := decodePayload[reducers.ReputationRecordPayload](payload, "reputation.record")
			if err != nil {
				return nil, err
			}
			if err := reducers.CanApplyReputationRecord(s, issuer, p); err != nil {
				return nil, err
			}
			return reducers.ApplyReputationRecord(s, issuer, eventHash, payload)
		},
	}
}
