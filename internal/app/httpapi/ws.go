package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/marketrun/platform/internal/app/domain/order"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers send the app origin; CORS policy is enforced at the HTTP
	// layer, so accept the upgrade here.
	CheckOrigin: func(*http.Request) bool { return true },
}

const (
	trackPollInterval = 3 * time.Second
	trackWriteTimeout = 10 * time.Second
)

// trackingUpdate is one websocket frame pushed to the tracking screen.
type trackingUpdate struct {
	OrderID    string               `json:"order_id"`
	Status     order.Status         `json:"status"`
	Steps      []order.TrackingStep `json:"steps"`
	AgentName  string               `json:"agent_name,omitempty"`
	AgentPhone string               `json:"agent_phone,omitempty"`
}

// trackOrder streams tracking updates for one order until it reaches a
// terminal state or the client disconnects. The first frame carries the
// current timeline; later frames are sent only when a new step lands.
func (h *handler) trackOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	o, err := h.app.Orders.Get(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warnf("websocket upgrade failed for order %s", o.ID)
		return
	}
	defer conn.Close()

	// Drain client frames so pings and close messages are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.sendTrackingUpdate(conn, o); err != nil {
		return
	}
	if order.Terminal(o.Status) {
		return
	}

	ticker := time.NewTicker(trackPollInterval)
	defer ticker.Stop()

	lastSteps := len(o.TrackingSteps)
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			current, err := h.app.Orders.Get(r.Context(), actor, o.ID)
			if err != nil {
				h.log.WithError(err).Warnf("tracking reload for order %s failed", o.ID)
				return
			}
			if len(current.TrackingSteps) == lastSteps && current.AgentName == o.AgentName {
				continue
			}
			if err := h.sendTrackingUpdate(conn, current); err != nil {
				return
			}
			o = current
			lastSteps = len(current.TrackingSteps)
			if order.Terminal(current.Status) {
				return
			}
		}
	}
}

func (h *handler) sendTrackingUpdate(conn *websocket.Conn, o order.Order) error {
	_ = conn.SetWriteDeadline(time.Now().Add(trackWriteTimeout))
	return conn.WriteJSON(trackingUpdate{
		OrderID:    o.ID,
		Status:     o.Status,
		Steps:      o.TrackingSteps,
		AgentName:  o.AgentName,
		AgentPhone: o.AgentPhone,
	})
}
