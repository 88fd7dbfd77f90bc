package reducers

import (
	"encoding/json"
	"fmt"

	"github.com/claw-network/clawnet/internal/clawerr"
)

// Event handled by this file: reputation.record (spec §4.8.6).

// ReputationRecordPayload is the payload of reputation.record.
type ReputationRecordPayload struct {
	Subject   string              `json:"subject"`
	Dimension ReputationDimension `json:"dimension"`
	Score     int                 `json:"score"`
	Ref       string              `json:"ref,omitempty"`
	Comment   string              `json:"comment,omitempty"`
}

func validDimension(d ReputationDimension) bool {
	switch d {
	case DimQuality, DimFulfillment, DimTransaction, DimBehavior, DimSocial:
		return true
	}
	return false
}

func reviewKey(issuer string, p ReputationRecordPayload) string {
	return fmt.Sprintf("%s|%s|%s", issuer, p.Ref, p.Dimension)
}

// CanApplyReputationRecord requires issuer != subject, a recognized
// dimension, score in 1..5, and uniqueness of (issuer, ref, dimension)
// when ref is present (spec §4.8.6: "a valid ref ... is REQUIRED when
// present, and each (issuer, ref, dimension) triple is unique").
func CanApplyReputationRecord(s *State, issuer string, p ReputationRecordPayload) error {
	if issuer == p.Subject {
		return clawerr.Invalidf("reducers.reputation.record", "issuer may not rate itself")
	}
	if !validDimension(p.Dimension) {
		return clawerr.Invalidf("reducers.reputation.record", "unrecognized dimension %q", p.Dimension)
	}
	if p.Score < 1 || p.Score > 5 {
		return clawerr.Invalidf("reducers.reputation.record", "score must be in 1..5, got %d", p.Score)
	}
	if p.Ref != "" {
		if s.ReviewsSeen[reviewKey(issuer, p)] {
			return clawerr.Conflictf("reducers.reputation.record", "issuer %s already reviewed ref %s on dimension %s", issuer, p.Ref, p.Dimension)
		}
	}
	return nil
}

// ApplyReputationRecord appends the entry to the subject's record and
// updates the running arithmetic mean for that dimension.
func ApplyReputationRecord(s *State, issuer, eventHash string, payload json.RawMessage) (*State, error) {
	var p ReputationRecordPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "reducers.reputation.record", "decode payload", err)
	}
	next := s.Clone()

	rec, ok := next.Reputations[p.Subject]
	var updated ReputationRecord
	if ok {
		updated = *rec
		updated.Entries = append(append([]ReputationEntry{}, rec.Entries...), ReputationEntry{
			Issuer: issuer, Dimension: p.Dimension, Score: p.Score, Ref: p.Ref, Comment: p.Comment, EventHash: eventHash,
		})
		updated.Averages = make(map[ReputationDimension]float64, len(rec.Averages))
		for k, v := range rec.Averages {
			updated.Averages[k] = v
		}
	} else {
		updated = ReputationRecord{
			Subject: p.Subject,
			Entries: []ReputationEntry{{Issuer: issuer, Dimension: p.Dimension, Score: p.Score, Ref: p.Ref, Comment: p.Comment, EventHash: eventHash}},
			Averages: map[ReputationDimension]float64{},
		}
	}

	var sum float64
	var count int
	for _, e := range updated.Entries {
		if e.Dimension == p.Dimension {
			sum += float64(e.Score)
			count++
		}
	}
	updated.Averages[p.Dimension] = sum / float64(count)
	next.Reputations[p.Subject] = &updated

	if p.Ref != "" {
		next.ReviewsSeen[reviewKey(issuer, p)] = true
	}
	return next, nil
}
