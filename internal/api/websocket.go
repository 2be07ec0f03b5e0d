package api

import (
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"zonix/internal/models"
	"zonix/internal/stream"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message is the envelope written to WebSocket clients.
type Message struct {
	Type    string       `json:"type"`
	Session string       `json:"session,omitempty"`
	Tick    *models.Tick `json:"tick,omitempty"`
}

// parseSymbols reads ?symbols=MH,KA into a sorted, de-duplicated list. An
// empty list means every symbol.
func parseSymbols(raw string) []string {
	set := make(map[string]bool)
	for _, s := range strings.Split(raw, ",") {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || s == stream.AllSymbols {
			continue
		}
		set[s] = true
	}
	symbols := make([]string, 0, len(set))
	for s := range set {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// subscribe returns one channel carrying the requested symbols, or every
// tick when symbols is empty. The channel closes when the hub stops; the
// returned func releases the subscription.
func subscribe(hub *stream.Hub, symbols []string) (<-chan models.Tick, func()) {
	if len(symbols) == 0 {
		ch := hub.Subscribe(stream.AllSymbols)
		return ch, func() { hub.Unsubscribe(stream.AllSymbols, ch) }
	}

	chans := hub.SubscribeMultiple(symbols)
	merged := make(chan models.Tick, len(chans))
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for _, ch := range chans {
		wg.Add(1)
		go func(ch <-chan models.Tick) {
			defer wg.Done()
			for tick := range ch {
				select {
				case merged <- tick:
				case <-stop:
				}
			}
		}(ch)
	}
	go func() {
		wg.Wait()
		close(merged)
	}()

	return merged, func() {
		close(stop)
		for symbol, ch := range chans {
			hub.Unsubscribe(symbol, ch)
		}
	}
}

// ws upgrades the request and forwards hub ticks until the client goes
// away or the hub stops.
func (s *Server) ws(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		s.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	symbols := parseSymbols(c.Query("symbols"))
	ticks, release := subscribe(s.deps.Hub, symbols)
	defer release()

	log := s.logger.With().Str("remote", conn.RemoteAddr().String()).Int("symbols", len(symbols)).Logger()
	log.Info().Msg("WebSocket client connected")
	defer log.Info().Msg("WebSocket client disconnected")

	// The read side only handles control frames and notices the close.
	gone := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(Message{Type: "hello", Session: s.deps.Engine.SessionID()}); err != nil {
		return
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			return
		case tick, ok := <-ticks:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "hub stopped"), time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(Message{Type: "tick", Tick: &tick}); err != nil {
				log.Debug().Err(err).Msg("WebSocket write failed")
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
