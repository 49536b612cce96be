package http

import (
	"log/slog"
	"net/http"
	"time"

	"levelup-gatekeeper/internal/app"
	"levelup-gatekeeper/internal/domain"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// FeedSource is the subscription side of the progression feed.
type FeedSource interface {
	Subscribe(guildID string) (<-chan domain.ProgressEvent, func())
}

type WSHandler struct {
	feed     FeedSource
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(feed FeedSource, log *slog.Logger) *WSHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WSHandler{
		feed: feed,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS streams progression events of one guild (?guildId=) or of all guilds.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	guildID := r.URL.Query().Get("guildId")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, cancel := h.feed.Subscribe(guildID)
	defer cancel()

	// The feed is write-only; reading detects the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(outboundMessage[map[string]string]{Type: "subscribed", Payload: map[string]string{"guildId": guildID}}); err != nil {
		return
	}

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(outboundMessage[domain.ProgressEvent]{Type: string(event.Type), Payload: event}); err != nil {
				h.log.Debug("ws write error", "error", err)
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// NewMux wires the health check and the progression feed.
func NewMux(feed *app.Feed, log *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws/progress", NewWSHandler(feed, log).ServeWS)
	return mux
}
