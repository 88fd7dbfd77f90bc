package walletsurface

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Single-node dev surface; a reverse proxy in front of this node is
	// expected to enforce an origin policy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Controller holds the handlers of the websocket push surface.
type Controller struct {
	hub *Hub
}

func NewController(hub *Hub) *Controller {
	return &Controller{hub: hub}
}

// Stream upgrades the connection and subscribes it to balance pushes for
// the address in the URL, until the client disconnects.
func (c *Controller) Stream(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("walletsurface: upgrade failed")
		return
	}
	c.hub.register(conn, address)
	defer func() {
		c.hub.unregister(conn)
		conn.Close()
	}()

	// This handler only pushes; reading just detects client-initiated
	// close so the connection can be unregistered promptly.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
