package validation

import (
	"encoding/json"

	"github.com/claw-network/clawnet/internal/reducers"
)

func registerIdentity(r Registry) {
	r["identity.register"] = TypeHandler{
		Resource: func(payload json.RawMessage) (ResourceRef, bool, error) {
			p, err := decodePayload[reducers.IdentityRegisterPayload](payload, "identity.register")
			if err != nil {
				return ResourceRef{}, false, err
			}
			return idRef("identity", p.DID, "identity.register")
		},
		IsCreate: true,
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			if err := reducers.CanApplyIdentityRegister(s, issuer); err != nil {
				return nil, err
			}
			return reducers.ApplyIdentityRegister(s, eventHash, payload)
		},
	}

	r["identity.rotateKey"] = TypeHandler{
		Resource: func(json.RawMessage) (ResourceRef, bool, error) { return ResourceRef{}, false, nil },
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			if err := reducers.CanApplyIdentityRotateKey(s, issuer); err != nil {
				return nil, err
			}
			return reducers.ApplyIdentityRotateKey(s, issuer, eventHash, payload)
		},
	}

	r["identity.revoke"] = TypeHandler{
		Resource: func(json.RawMessage) (ResourceRef, bool, error) { return ResourceRef{}, false, nil },
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			if err := reducers.CanApplyIdentityRevoke(s, issuer); err != nil {
				return nil, err
			}
			return reducers.ApplyIdentityRevoke(s, issuer, eventHash)
		},
	}

	r["identity.capability.add"] = TypeHandler{
		Resource: func(json.RawMessage) (ResourceRef, bool, error) { return ResourceRef{}, false, nil },
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			if err := reducers.CanApplyIdentityCapabilityAdd(s, issuer); err != nil {
				return nil, err
			}
			return reducers.ApplyIdentityCapabilityAdd(s, issuer, eventHash, payload)
		},
	}

	r["identity.platformLink.add"] = TypeHandler{
		Resource: func(json.RawMessage) (ResourceRef, bool, error) { return ResourceRef{}, false, nil },
		Handle: func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error) {
			if err := reducers.CanApplyIdentityPlatformLinkAdd(s, issuer); err != nil {
				return nil, err
			}
			return reducers.ApplyIdentityPlatformLinkAdd(s, issuer, eventHash, payload)
		},
	}
}
