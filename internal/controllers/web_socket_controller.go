package controllers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"storymap/internal/config"
	"storymap/internal/journey"
	"storymap/internal/metrics"
	"storymap/internal/store"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// upgrader configures the WebSocket connection.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the map is served from anywhere during authoring
	},
}

// clientMessage is what the map client sends over the playback socket.
type clientMessage struct {
	Action string `json:"action"` // step | next | prev | play | stop | snapshot
	Target *int   `json:"target,omitempty"`
}

type outbound struct {
	data  []byte
	frame bool
}

// journeySession is one connected map client and its player.
type journeySession struct {
	id     string
	conn   *websocket.Conn
	player *journey.Player
	log    *logrus.Entry

	mu    sync.Mutex
	queue []outbound
	wake  chan struct{}
}

func newJourneySession(conn *websocket.Conn) *journeySession {
	id := uuid.NewString()
	return &journeySession{
		id:   id,
		conn: conn,
		log:  logrus.WithField("session", id),
		wake: make(chan struct{}, 1),
	}
}

// push queues a message for the writer without blocking the player.
// Messages keep their order. A route frame replaces a route frame still
// waiting at the tail, so a slow client skips animation frames but never
// loses a control event.
func (s *journeySession) push(v any, frame bool) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.WithError(err).Error("journey session: failed to encode message")
		return
	}
	s.mu.Lock()
	if n := len(s.queue); frame && n > 0 && s.queue[n-1].frame {
		s.queue[n-1].data = data
	} else {
		s.queue = append(s.queue, outbound{data: data, frame: frame})
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *journeySession) enqueue(v any) { s.push(v, false) }

func (s *journeySession) emit(ev journey.Event) { s.push(ev, ev.Kind == journey.EventRoute) }

func (s *journeySession) drain() []outbound {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.queue
	s.queue = nil
	return out
}

func (s *journeySession) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case <-s.wake:
			for _, msg := range s.drain() {
				s.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := s.conn.WriteMessage(websocket.TextMessage, msg.data); err != nil {
					s.log.WithError(err).Debug("journey session: write failed")
					return
				}
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *journeySession) readPump() {
	s.conn.SetReadLimit(4096)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg clientMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.WithError(err).Info("journey session: connection closed unexpectedly")
			}
			return
		}
		s.handle(msg)
	}
}

func (s *journeySession) handle(msg clientMessage) {
	switch msg.Action {
	case "step":
		if msg.Target == nil {
			s.enqueue(gin.H{"kind": "error", "error": "step requires a target"})
			return
		}
		s.player.SetStep(*msg.Target)
	case "next":
		s.player.Next()
	case "prev":
		s.player.Prev()
	case "play":
		s.player.Play()
	case "stop":
		s.player.Stop()
	case "snapshot":
		s.enqueue(gin.H{"kind": "snapshot", "snapshot": s.player.Snapshot()})
	default:
		s.enqueue(gin.H{"kind": "error", "error": "unknown action " + msg.Action})
	}
}

// JourneyHub tracks open playback sessions so they can be reloaded when
// the content files change.
type JourneyHub struct {
	sessions map[*journeySession]bool
	mu       sync.Mutex
}

func NewJourneyHub() *JourneyHub {
	return &JourneyHub{sessions: make(map[*journeySession]bool)}
}

func (h *JourneyHub) register(s *journeySession) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s] = true
	metrics.JourneySessions.Inc()
	s.log.Info("journey session opened")
}

func (h *JourneyHub) unregister(s *journeySession) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[s]; ok {
		delete(h.sessions, s)
		metrics.JourneySessions.Dec()
		s.log.Info("journey session closed")
	}
}

// Count returns the number of open sessions.
func (h *JourneyHub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Reload rebuilds the journey from disk and pushes it to every session.
// Its signature matches store.Watch's callback.
func (h *JourneyHub) Reload(change store.Change) {
	h.mu.Lock()
	sessions := make([]*journeySession, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()
	if len(sessions) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	j, err := loadJourney(ctx)
	if err != nil {
		logrus.WithError(err).Warn("JourneyHub: reload failed, keeping previous data")
		return
	}
	logrus.WithFields(logrus.Fields{"change": change, "sessions": len(sessions)}).Info("JourneyHub: reloading sessions")
	for _, s := range sessions {
		s.player.Reload(j)
	}
}

// Journeys is the process-wide session hub.
var Journeys = NewJourneyHub()

// HandleJourneyWebSocket upgrades to a playback session. The client sends
// clientMessage actions and receives journey.Event commands.
func HandleJourneyWebSocket(c *gin.Context) {
	j, err := loadJourney(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("HandleJourneyWebSocket: failed to load journey")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load journey"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("HandleJourneyWebSocket: upgrade failed")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := newJourneySession(conn)
	s.player = journey.NewPlayer(ctx, j, config.App.Timing(), s.emit)

	Journeys.register(s)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writePump(ctx)
	}()

	s.enqueue(gin.H{
		"kind":     "ready",
		"session":  s.id,
		"snapshot": s.player.Snapshot(),
		"segments": j.Segments,
	})
	s.readPump()

	Journeys.unregister(s)
	s.player.Close()
	cancel()
	<-done
	conn.Close()
}
