package walletsurface

import "github.com/gorilla/mux"

// Register wires the push-surface routes onto r, following the
// teacher's routes.Register(r, controller) shape.
func Register(r *mux.Router, ctrl *Controller) {
	r.Use(Logger)
	r.HandleFunc("/ws/wallet/{address}/stream", ctrl.Stream)
}

// NewRouter builds a ready-to-serve mux.Router plus the Hub driving it,
// for callers (cmd/clawnode) that just want to mount the whole surface.
func NewRouter(state StateReader) (*mux.Router, *Hub) {
	hub := NewHub(state)
	ctrl := NewController(hub)
	r := mux.NewRouter()
	Register(r, ctrl)
	return r, hub
}
