package reducers

import (
	"encoding/json"

	"github.com/claw-network/clawnet/internal/clawerr"
)

// Events handled by this file: identity.register, identity.rotateKey,
// identity.revoke, identity.capability.add, identity.platformLink.add
// (spec §4.8.1).

// IdentityRegisterPayload is the payload of identity.register.
type IdentityRegisterPayload struct {
	DID       string `json:"did"`
	PublicKey string `json:"publicKey"`
}

// IdentityRotateKeyPayload is the payload of identity.rotateKey. OldKeySig
// is the old key's signature authorizing the new key, carried inline per
// spec §4.8.1 ("carries a signature from the old key authorizing the new
// key, encoded in payload"). Neither this reducer nor the validation
// pipeline verifies that signature; it is carried as given.
type IdentityRotateKeyPayload struct {
	NewPublicKey string `json:"newPublicKey"`
	OldKeySig    string `json:"oldKeySig"`
}

// IdentityRevokePayload is the payload of identity.revoke.
type IdentityRevokePayload struct {
	Reason string `json:"reason,omitempty"`
}

// IdentityCapabilityAddPayload is the payload of identity.capability.add.
type IdentityCapabilityAddPayload struct {
	Capability string `json:"capability"`
}

// IdentityPlatformLinkAddPayload is the payload of identity.platformLink.add.
type IdentityPlatformLinkAddPayload struct {
	Platform string `json:"platform"`
}

// CanApplyIdentityRegister requires no prior record for the DID.
func CanApplyIdentityRegister(s *State, issuer string) error {
	if _, ok := s.Identities[issuer]; ok {
		return clawerr.Conflictf("reducers.identity.register", "identity %s already registered", issuer)
	}
	return nil
}

// ApplyIdentityRegister returns a new State with the DID registered.
func ApplyIdentityRegister(s *State, eventHash string, payload json.RawMessage) (*State, error) {
	var p IdentityRegisterPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.identity.register", "decode payload", err)
	}
	next := s.Clone()
	next.Identities[p.DID] = &Identity{
		DID:           p.DID,
		PublicKey:     p.PublicKey,
		LastEventHash: eventHash,
	}
	return next, nil
}

// CanApplyIdentityRotateKey requires a live, non-revoked identity. It
// only checks domain state; identity.rotateKey is issuer-scoped, so no
// resource prev chain is checked for it.
func CanApplyIdentityRotateKey(s *State, issuer string) error {
	id, ok := s.Identities[issuer]
	if !ok {
		return clawerr.NotFoundf("reducers.identity.rotateKey", "no identity %s", issuer)
	}
	if id.Revoked {
		return clawerr.Conflictf("reducers.identity.rotateKey", "identity %s is revoked", issuer)
	}
	return nil
}

// ApplyIdentityRotateKey updates the identity's public key.
func ApplyIdentityRotateKey(s *State, issuer, eventHash string, payload json.RawMessage) (*State, error) {
	var p IdentityRotateKeyPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.identity.rotateKey", "decode payload", err)
	}
	next := s.Clone()
	old := next.Identities[issuer]
	updated := *old
	updated.PublicKey = p.NewPublicKey
	updated.LastEventHash = eventHash
	next.Identities[issuer] = &updated
	return next, nil
}

// CanApplyIdentityRevoke requires a live identity.
func CanApplyIdentityRevoke(s *State, issuer string) error {
	id, ok := s.Identities[issuer]
	if !ok {
		return clawerr.NotFoundf("reducers.identity.revoke", "no identity %s", issuer)
	}
	if id.Revoked {
		return clawerr.Conflictf("reducers.identity.revoke", "identity %s already revoked", issuer)
	}
	return nil
}

// ApplyIdentityRevoke marks the identity terminal.
func ApplyIdentityRevoke(s *State, issuer, eventHash string) (*State, error) {
	next := s.Clone()
	old := next.Identities[issuer]
	updated := *old
	updated.Revoked = true
	updated.LastEventHash = eventHash
	next.Identities[issuer] = &updated
	return next, nil
}

// CanApplyIdentityCapabilityAdd requires a live identity.
func CanApplyIdentityCapabilityAdd(s *State, issuer string) error {
	id, ok := s.Identities[issuer]
	if !ok {
		return clawerr.NotFoundf("reducers.identity.capability.add", "no identity %s", issuer)
	}
	if id.Revoked {
		return clawerr.Conflictf("reducers.identity.capability.add", "identity %s is revoked", issuer)
	}
	return nil
}

// ApplyIdentityCapabilityAdd appends a capability tag, de-duplicated.
func ApplyIdentityCapabilityAdd(s *State, issuer, eventHash string, payload json.RawMessage) (*State, error) {
	var p IdentityCapabilityAddPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.identity.capability.add", "decode payload", err)
	}
	next := s.Clone()
	old := next.Identities[issuer]
	updated := *old
	for _, c := range updated.Capabilities {
		if c == p.Capability {
			updated.LastEventHash = eventHash
			next.Identities[issuer] = &updated
			return next, nil
		}
	}
	updated.Capabilities = append(append([]string{}, updated.Capabilities...), p.Capability)
	updated.LastEventHash = eventHash
	next.Identities[issuer] = &updated
	return next, nil
}

// CanApplyIdentityPlatformLinkAdd requires a live identity.
func CanApplyIdentityPlatformLinkAdd(s *State, issuer string) error {
	return CanApplyIdentityCapabilityAdd(s, issuer)
}

// ApplyIdentityPlatformLinkAdd appends a platform link, de-duplicated.
func ApplyIdentityPlatformLinkAdd(s *State, issuer, eventHash string, payload json.RawMessage) (*State, error) {
	var p IdentityPlatformLinkAddPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.identity.platformLink.add", "decode payload", err)
	}
	next := s.Clone()
	old := next.Identities[issuer]
	updated := *old
	for _, pl := range updated.Platforms {
		if pl == p.Platform {
			updated.LastEventHash = eventHash
			next.Identities[issuer] = &updated
			return next, nil
		}
	}
	updated.Platforms = append(append([]string{}, updated.Platforms...), p.Platform)
	updated.LastEventHash = eventHash
	next.Identities[issuer] = &updated
	return next, nil
}
