package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"storefront/internal/domains/notification/model"
	"storefront/pkg/eventbus"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the edge server only listens for local front-ends
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamHandler relays bus events to WebSocket clients
type StreamHandler struct {
	bus    *eventbus.Bus
	events []string
}

func NewStreamHandler(bus *eventbus.Bus) *StreamHandler {
	return &StreamHandler{
		bus:    bus,
		events: []string{eventbus.CartChanged, eventbus.FavoritesChanged},
	}
}

// ServeWS handles GET /events
func (h *StreamHandler) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("event stream upgrade failed")
		return
	}

	send := make(chan []byte, sendBuffer)
	done := make(chan struct{})
	unsubscribes := make([]func(), 0, len(h.events))
	for _, name := range h.events {
		event := name
		unsubscribes = append(unsubscribes, h.bus.Subscribe(event, func() {
			frame, err := json.Marshal(model.StreamEvent{Event: event, At: time.Now()})
			if err != nil {
				return
			}
			select {
			case send <- frame:
			default:
				// slow client, drop the frame; it will refresh on the next one
			}
		}))
	}

	log.Debug().Str("remote", c.Request.RemoteAddr).Msg("event stream connected")
	go writePump(conn, send, done)
	readPump(conn)

	for _, unsubscribe := range unsubscribes {
		unsubscribe()
	}
	close(done)
	log.Debug().Str("remote", c.Request.RemoteAddr).Msg("event stream closed")
}

// readPump discards client frames and returns when the connection drops
func readPump(conn *websocket.Conn) {
	defer conn.Close()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("event stream read error")
			}
			return
		}
	}
}

func writePump(conn *websocket.Conn, send <-chan []byte, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case frame := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
