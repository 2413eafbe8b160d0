// Package server bridges a local browser renderer to the rules engine over a
// WebSocket. Clients send JSON commands; every client receives the engine events,
// the match view after each change and the visible score-delta annotations.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/influencer-game/influencer-server-go/internal/game"
	"github.com/influencer-game/influencer-server-go/internal/game/catalog"
	"github.com/influencer-game/influencer-server-go/internal/game/deck"
	"github.com/influencer-game/influencer-server-go/internal/game/indicator"
	"github.com/influencer-game/influencer-server-go/internal/game/rules"
	"github.com/influencer-game/influencer-server-go/internal/game/state"
	"github.com/influencer-game/influencer-server-go/internal/game/tokens"
	"github.com/influencer-game/influencer-server-go/internal/game/watchers"
)

// Inbound message types.
const (
	MsgStartMatch = "start_match"
	MsgAction     = "action"
	MsgView       = "view"
	MsgReset      = "reset"
	MsgReplay     = "replay"
)

// Outbound message types.
const (
	MsgState   = "state"
	MsgEvent   = "event"
	MsgError   = "error"
	MsgCatalog = "catalog"
	MsgFrame   = "frame"
)

// Replay steps.
const (
	StepLoad     = "load"
	StepStart    = "start"
	StepNext     = "next"
	StepPrevious = "previous"
	StepSkip     = "skip"
	StepFrame    = "frame"
)

const (
	sendBuffer   = 256
	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local renderer only
	},
}

// Command is a message from a client.
type Command struct {
	Type    string             `json:"type"`
	Players []game.PlayerSetup `json:"players,omitempty"`
	// NetworkCards switches the network cards of the server deck on or off for
	// one match. Unset keeps the server deck.
	NetworkCards *bool              `json:"network_cards,omitempty"`
	Action       *game.PlayerAction `json:"action,omitempty"`
	// Replay commands: Step is one of the Step constants, Count is the skip
	// distance or the frame index.
	MatchID string `json:"match_id,omitempty"`
	Step    string `json:"step,omitempty"`
	Count   int    `json:"count,omitempty"`
}

// Message is a message to clients.
type Message struct {
	Type       string                                  `json:"type"`
	View       *game.View                              `json:"view,omitempty"`
	Indicators map[state.PlayerID]indicator.Annotation `json:"indicators,omitempty"`
	Stats      map[state.PlayerID]watchers.PlayerStats `json:"stats,omitempty"`
	Event      *rules.Event                            `json:"event,omitempty"`
	Catalog    *Catalog                                `json:"catalog,omitempty"`
	Frame      *game.Frame                             `json:"frame,omitempty"`
	Replay     *ReplayInfo                             `json:"replay,omitempty"`
	Reason     rules.Reason                            `json:"reason,omitempty"`
	Error      string                                  `json:"error,omitempty"`
}

// Catalog is the static reference data a renderer needs to draw a match.
type Catalog struct {
	Interests    []catalog.InterestInfo   `json:"interests"`
	NetworkCards []catalog.NetworkCardDef `json:"network_cards"`
	Tokens       []TokenInfo              `json:"tokens"`
}

// TokenInfo describes a token type. Target is "card" or "profile".
type TokenInfo struct {
	Type    tokens.Type `json:"type"`
	Tooltip string      `json:"tooltip"`
	Target  string      `json:"target"`
}

// ReplayInfo describes the replay a frame message belongs to.
type ReplayInfo struct {
	MatchID string    `json:"match_id"`
	Frames  int       `json:"frames"`
	SavedAt time.Time `json:"saved_at"`
}

// Options configures a Server.
type Options struct {
	Engine *game.Engine
	Board  *indicator.Board
	Logger *zap.Logger
	Clock  clockwork.Clock
	// Composition is the deck used by start_match.
	Composition *deck.Composition
	Stats       *watchers.MatchStats
	// ReplayDirectory receives the replay of every finished match when set. The
	// engine must record replays.
	ReplayDirectory string
}

// Server is the WebSocket hub. Every connected client sees the same match.
type Server struct {
	engine *game.Engine
	board  *indicator.Board
	logger *zap.Logger
	clock  clockwork.Clock
	comp   *deck.Composition
	stats  *watchers.MatchStats
	replay string

	mu      sync.RWMutex
	clients map[*client]bool
	handles []int
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	// replay is the recording this client is browsing. Only readPump touches it.
	replay *game.Replay
}

// New creates a server and subscribes it to the engine events.
func New(opts Options) *Server {
	s := &Server{
		engine:  opts.Engine,
		board:   opts.Board,
		logger:  opts.Logger,
		clock:   opts.Clock,
		comp:    opts.Composition,
		stats:   opts.Stats,
		replay:  opts.ReplayDirectory,
		clients: make(map[*client]bool),
	}
	if s.board == nil {
		s.board = indicator.NewBoard(nil, indicator.DefaultTTL)
	}
	if s.stats == nil {
		s.stats = watchers.NewMatchStats()
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	bus := s.engine.Events()
	s.handles = []int{
		s.stats.Attach(bus),
		bus.SubscribeTyped(rules.EventScoreChanged, s.recordScore),
		bus.Subscribe(s.onEvent),
	}
	return s
}

// Close detaches the server from the engine and disconnects every client.
func (s *Server) Close() {
	for _, h := range s.handles {
		s.engine.Events().Unsubscribe(h)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
}

// Handler serves the WebSocket endpoint at /ws and a health check at /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		if s.logger != nil {
			s.logger.Info("starting WebSocket server", zap.String("address", addr))
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.Close()
		return err
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("websocket upgrade failed", zap.Error(err))
		}
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	s.mu.Lock()
	s.clients[c] = true
	s.mu.Unlock()
	if s.logger != nil {
		s.logger.Info("client connected", zap.String("client_id", c.id))
	}

	go s.writePump(c)
	go s.readPump(c)

	s.sendTo(c, Message{Type: MsgCatalog, Catalog: newCatalog()})
	if view, err := s.engine.View(); err == nil {
		s.sendTo(c, s.stateMessage(view))
	}
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	if s.clients[c] {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()
	if s.logger != nil {
		s.logger.Info("client disconnected", zap.String("client_id", c.id))
	}
}

func (s *Server) readPump(c *client) {
	defer func() {
		s.unregister(c)
		c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			if s.logger != nil {
				s.logger.Debug("malformed command", zap.String("client_id", c.id), zap.Error(err))
			}
			s.sendTo(c, Message{Type: MsgError, Error: "malformed command: " + err.Error()})
			continue
		}
		s.handleCommand(c, cmd)
	}
}

func (s *Server) writePump(c *client) {
	defer c.conn.Close()

	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (s *Server) handleCommand(c *client, cmd Command) {
	var err error
	switch cmd.Type {
	case MsgStartMatch:
		comp := s.comp
		if cmd.NetworkCards != nil {
			base := deck.StandardComposition(true)
			if s.comp != nil {
				base = *s.comp
			}
			toggled := base.WithNetworkCards(*cmd.NetworkCards)
			comp = &toggled
		}
		_, err = s.engine.StartMatch(game.MatchConfig{
			Players:      cmd.Players,
			NetworkCards: comp == nil,
			Composition:  comp,
		})
		if err == nil {
			s.board.Reset()
		}
	case MsgAction:
		if cmd.Action == nil {
			s.sendTo(c, Message{Type: MsgError, Reason: rules.ReasonUnknownAction, Error: "action command without action"})
			return
		}
		err = s.engine.ProcessAction(*cmd.Action)
	case MsgView:
		view, verr := s.engine.View()
		if verr != nil {
			s.sendError(c, verr)
			return
		}
		s.sendTo(c, s.stateMessage(view))
		return
	case MsgReset:
		s.engine.Reset()
		s.board.Reset()
		s.stats.Reset()
		s.broadcast(Message{Type: MsgState})
		return
	case MsgReplay:
		s.handleReplay(c, cmd)
		return
	default:
		s.sendTo(c, Message{Type: MsgError, Reason: rules.ReasonUnknownAction, Error: "unknown command " + cmd.Type})
		return
	}

	if err != nil {
		s.sendError(c, err)
		return
	}
	s.broadcastState()
}

// handleReplay moves the client's replay cursor and sends the frame under it.
func (s *Server) handleReplay(c *client, cmd Command) {
	if cmd.Step == StepLoad {
		if s.replay == "" {
			s.sendTo(c, Message{Type: MsgError, Error: "replays are not saved by this server"})
			return
		}
		if cmd.MatchID == "" || filepath.Base(cmd.MatchID) != cmd.MatchID {
			s.sendTo(c, Message{Type: MsgError, Error: "invalid match id " + strconv.Quote(cmd.MatchID)})
			return
		}
		replay, err := game.LoadReplayFromFile(s.replay, cmd.MatchID)
		if err != nil {
			s.sendTo(c, Message{Type: MsgError, Error: err.Error()})
			return
		}
		c.replay = replay
	}
	if c.replay == nil {
		s.sendTo(c, Message{Type: MsgError, Error: "no replay loaded"})
		return
	}

	var frame *game.Frame
	switch cmd.Step {
	case StepLoad, StepStart:
		c.replay.Start()
		frame = c.replay.Next()
	case StepNext:
		frame = c.replay.Next()
	case StepPrevious:
		frame = c.replay.Previous()
	case StepSkip:
		frame = c.replay.Skip(cmd.Count)
	case StepFrame:
		frame = c.replay.FrameAt(cmd.Count)
	default:
		s.sendTo(c, Message{Type: MsgError, Reason: rules.ReasonUnknownAction, Error: "unknown replay step " + cmd.Step})
		return
	}
	if frame == nil {
		s.sendTo(c, Message{Type: MsgError, Error: "no frame at cursor"})
		return
	}
	s.sendTo(c, Message{
		Type:  MsgFrame,
		Frame: frame,
		Replay: &ReplayInfo{
			MatchID: c.replay.MatchID,
			Frames:  c.replay.Size(),
			SavedAt: c.replay.SavedAt,
		},
	})
}

func (s *Server) recordScore(ev rules.Event) {
	s.board.Record(indicator.ScoreEvent{
		Player: state.PlayerID(ev.PlayerID),
		Delta:  ev.Amount,
		At:     ev.Timestamp,
	})
}

// onEvent forwards engine events to every client and saves finished matches.
func (s *Server) onEvent(ev rules.Event) {
	s.broadcast(Message{Type: MsgEvent, Event: &ev})
	if ev.Type == rules.EventGameOver && s.replay != "" {
		s.saveReplay(ev.MatchID)
	}
}

func (s *Server) saveReplay(matchID string) {
	replay := s.engine.Replay()
	if replay == nil || replay.MatchID != matchID {
		return
	}
	path, err := replay.SaveToFile(s.replay, s.clock.Now())
	if s.logger == nil {
		return
	}
	if err != nil {
		s.logger.Error("failed to save replay", zap.String("match_id", matchID), zap.Error(err))
		return
	}
	s.logger.Info("replay saved",
		zap.String("match_id", matchID),
		zap.String("path", path),
		zap.Int("frames", replay.Size()),
	)
}

func newCatalog() *Catalog {
	out := &Catalog{
		Interests:    catalog.Interests(),
		NetworkCards: catalog.NetworkCards(),
	}
	for _, t := range tokens.AllTypes() {
		target := "card"
		if t.ProfileToken() {
			target = "profile"
		}
		out.Tokens = append(out.Tokens, TokenInfo{Type: t, Tooltip: t.Tooltip(), Target: target})
	}
	return out
}

func (s *Server) stateMessage(view *game.View) Message {
	return Message{
		Type:       MsgState,
		View:       view,
		Indicators: s.board.Current(),
		Stats:      s.stats.Summary(len(view.Players)),
	}
}

func (s *Server) broadcastState() {
	view, err := s.engine.View()
	if err != nil {
		return
	}
	s.broadcast(s.stateMessage(view))
}

func (s *Server) sendError(c *client, err error) {
	msg := Message{Type: MsgError, Error: err.Error()}
	var cfgErr *game.ConfigurationError
	if !errors.As(err, &cfgErr) {
		msg.Reason = game.ReasonOf(err)
	}
	s.sendTo(c, msg)
}

func (s *Server) encode(msg Message) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to encode message", zap.String("type", msg.Type), zap.Error(err))
		}
		return nil
	}
	return data
}

func (s *Server) sendTo(c *client, msg Message) {
	data := s.encode(msg)
	if data == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
		if s.logger != nil {
			s.logger.Warn("client send buffer full, dropping message", zap.String("client_id", c.id))
		}
	}
}

func (s *Server) broadcast(msg Message) {
	data := s.encode(msg)
	if data == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			if s.logger != nil {
				s.logger.Warn("client send buffer full, dropping message", zap.String("client_id", c.id))
			}
		}
	}
}
