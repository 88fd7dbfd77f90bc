package api

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/claw-network/clawnet/internal/clawerr"
	"github.com/claw-network/clawnet/internal/reducers"
)

// NodeStatus mirrors node.Status (spec §6.1's node.status() surface),
// kept as its own type so the REST package does not depend on the
// committer's concrete status type.
type NodeStatus struct {
	DID       string `json:"did"`
	Peers     int    `json:"peers"`
	Cursor    string `json:"cursor"`
	Version   int    `json:"version"`
	UptimeSec int64  `json:"uptimeSec"`
}

// StatusProvider supplies the live node.status() surface; nil means the
// server reports a zero-value status (used in handler-level tests that
// do not wire a full committer/health stack).
type StatusProvider interface {
	Status() NodeStatus
}

type queryHandlers struct {
	state  StateReader
	status StatusProvider
}

type balanceResponse struct {
	Available string `json:"available"`
	Locked    string `json:"locked"`
}

func (h *queryHandlers) walletBalance(w http.ResponseWriter, r *http.Request) {
	addr := chi.URLParam(r, "address")
	wallet, ok := h.state.State().Wallets[addr]
	if !ok {
		writeJSON(w, http.StatusOK, balanceResponse{Available: "0", Locked: "0"})
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Available: wallet.Available, Locked: wallet.Locked})
}

// walletHistory is a placeholder over the derived state only: a full
// implementation walks the event log's issuer index (internal/eventlog)
// for addr, which the REST adapter does not hold a reference to by
// design (spec §5: "the log's underlying KV store is accessed only
// through the committer ... and through read-only snapshots"). Wiring
// it to a snapshot-backed reader is left to the node daemon's startup
// composition.
func (h *queryHandlers) walletHistory(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	_ = limit
	_ = offset
	writeJSON(w, http.StatusOK, []any{})
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	offset = 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

func (h *queryHandlers) identityResolve(w http.ResponseWriter, r *http.Request) {
	did := chi.URLParam(r, "did")
	id, ok := h.state.State().Identities[did]
	if !ok {
		writeError(w, clawerr.NotFoundf("api.identityResolve", "unknown did %q", did))
		return
	}
	writeJSON(w, http.StatusOK, id)
}

func (h *queryHandlers) marketList(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	st := h.state.State()
	out := make([]*reducers.Listing, 0, len(st.Listings))
	for _, l := range st.Listings {
		if kind != "" && string(l.Kind) != kind {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (h *queryHandlers) marketGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	l, ok := h.state.State().Listings[id]
	if !ok {
		writeError(w, clawerr.NotFoundf("api.marketGet", "unknown listing %q", id))
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *queryHandlers) contractList(w http.ResponseWriter, r *http.Request) {
	party := r.URL.Query().Get("party")
	st := h.state.State()
	out := make([]*reducers.Contract, 0, len(st.Contracts))
	for _, c := range st.Contracts {
		if party != "" && c.Client != party && c.Provider != party {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (h *queryHandlers) contractGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, ok := h.state.State().Contracts[id]
	if !ok {
		writeError(w, clawerr.NotFoundf("api.contractGet", "unknown contract %q", id))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *queryHandlers) reputationGet(w http.ResponseWriter, r *http.Request) {
	subject := chi.URLParam(r, "subject")
	rec, ok := h.state.State().Reputations[subject]
	if !ok {
		writeJSON(w, http.StatusOK, reducers.ReputationRecord{Subject: subject, Averages: map[reducers.ReputationDimension]float64{}})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *queryHandlers) nodeStatus(w http.ResponseWriter, r *http.Request) {
	if h.status == nil {
		writeJSON(w, http.StatusOK, NodeStatus{})
		return
	}
	writeJSON(w, http.StatusOK, h.status.Status())
}
