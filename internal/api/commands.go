package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/claw-network/clawnet/internal/clawerr"
	"github.com/claw-network/clawnet/internal/envelope"
)

type commandHandlers struct {
	committer CommitSubmitter
	timeout   time.Duration
}

type submitResponse struct {
	Hash                string `json:"hash"`
	ResultingResourceID string `json:"resultingResourceId,omitempty"`
	Committed           bool   `json:"committed"`
}

// submitEnvelope is the single funnel every spec §6.1 command passes
// through: decode the signed envelope the client built, hand it to the
// committer, and wait for commit or rejection (spec §5's REST
// suspension point).
func (h *commandHandlers) submitEnvelope(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, clawerr.Wrap(clawerr.Invalid, "api.submitEnvelope", "read body", err))
		return
	}
	env, err := envelope.Unmarshal(body)
	if err != nil {
		writeError(w, clawerr.Wrap(clawerr.Invalid, "api.submitEnvelope", "parse envelope", err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.committer.Submit(ctx, env)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{
		Hash:      env.Hash,
		Committed: res.Committed,
	})
}
