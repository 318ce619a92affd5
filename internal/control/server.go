package control

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/aurapanel/aurapanel/internal/hover"
	"github.com/aurapanel/aurapanel/internal/model"
	"github.com/aurapanel/aurapanel/internal/monitor"
	"github.com/aurapanel/aurapanel/internal/popover"
	"github.com/aurapanel/aurapanel/internal/registry"
	"github.com/aurapanel/aurapanel/internal/store"
	"github.com/aurapanel/aurapanel/internal/windows"
)

// Engine bundles the controllers the channel dispatches into.
type Engine struct {
	Windows  *windows.Controller
	Popovers *popover.Controller
	Monitors *monitor.Registry
	Store    *store.Store
	Hover    *hover.Manager
}

type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) send(msg Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(msg)
}

// Server terminates child connections and dispatches their commands.
type Server struct {
	logger   *slog.Logger
	engine   Engine
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]bool
	ln      net.Listener
	http    *http.Server
}

// NewServer returns a control server over the engine.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger: logger,
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The listener is loopback-only; children are local.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]bool),
	}
}

// Start listens on the loopback address. Pass port 0 for an ephemeral port;
// Addr reports the bound address.
func (s *Server) Start(addr string) error {
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bind control listener: %w", err)
	}

	r := chi.NewRouter()
	r.Get("/ws", s.handleWS)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.mu.Lock()
	s.ln = ln
	s.http = &http.Server{Handler: r}
	s.mu.Unlock()

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("control server stopped", "error", err)
		}
	}()

	s.logger.Info("control server listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound listener address, empty before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Stop closes the listener and every client connection.
func (s *Server) Stop() {
	s.mu.Lock()
	srv := s.http
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		_ = c.conn.Close()
	}
	if srv != nil {
		_ = srv.Close()
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn}

	s.mu.Lock()
	s.clients[c] = true
	s.mu.Unlock()
	s.logger.Debug("child connected", "remote", r.RemoteAddr)

	go s.readLoop(c)
}

func (s *Server) readLoop(c *client) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		_ = c.conn.Close()
	}()

	for {
		var req Request
		if err := c.conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("child read failed", "error", err)
			}
			return
		}

		result, err := s.dispatch(req)
		msg := Message{Type: messageResponse, ID: req.ID, OK: err == nil}
		if err != nil {
			msg.Error = err.Error()
		} else if result != nil {
			raw, merr := json.Marshal(result)
			if merr != nil {
				msg.OK = false
				msg.Error = merr.Error()
			} else {
				msg.Result = raw
			}
		}
		if err := c.send(msg); err != nil {
			return
		}
	}
}

func decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode params: %w", err)
	}
	return v, nil
}

// dispatch maps a command onto the engine. The returned value is marshalled
// into the response's result field.
func (s *Server) dispatch(req Request) (any, error) {
	switch req.Command {
	case CmdCreateInlineWindow:
		p, err := decode[CreateInlineWindowParams](req.Params)
		if err != nil {
			return nil, err
		}
		flags := p.Flags()
		return nil, s.engine.Windows.Create(windows.CreateOptions{
			ID:       p.ID,
			Position: p.Position,
			Kind:     p.Kind,
			Flags:    &flags,
			URL:      p.URL,
		})

	case CmdUpdateWindowPosition:
		p, err := decode[UpdateWindowPositionParams](req.Params)
		if err != nil {
			return nil, err
		}
		id, err := inlineWindowID(p.Label)
		if err != nil {
			return nil, err
		}
		return nil, s.engine.Windows.UpdatePosition(id, p.Position)

	case CmdShowWindow, CmdHideWindow, CmdCloseWindow:
		p, err := decode[WindowLabelParams](req.Params)
		if err != nil {
			return nil, err
		}
		id, err := inlineWindowID(p.Label)
		if err != nil {
			return nil, err
		}
		switch req.Command {
		case CmdShowWindow:
			return nil, s.engine.Windows.Show(id)
		case CmdHideWindow:
			return nil, s.engine.Windows.Hide(id)
		default:
			return nil, s.engine.Windows.Close(id, false)
		}

	case CmdGetMonitors:
		return s.engine.Monitors.List()

	case CmdGetWindows:
		return s.engine.Windows.Records(), nil

	case CmdOpenPopover:
		p, err := decode[OpenPopoverParams](req.Params)
		if err != nil {
			return nil, err
		}
		opts := popover.OpenOptions{
			ID:      p.ID,
			Anchor:  p.Anchor,
			Width:   p.Width,
			Height:  p.Height,
			Align:   p.Align,
			OffsetY: p.OffsetY,
		}
		if p.Exclusive != nil {
			opts.Exclusive = popover.Exclusive{All: p.Exclusive.All, Prefix: p.Exclusive.Prefix}
		}
		return s.engine.Popovers.Open(opts)

	case CmdClosePopover:
		p, err := decode[PopoverIDParams](req.Params)
		if err != nil {
			return nil, err
		}
		s.engine.Popovers.Close(p.ID)
		return nil, nil

	case CmdCloseAllPopovers:
		s.engine.Popovers.CloseAll()
		return nil, nil

	case CmdGetOpenPopovers:
		return s.engine.Popovers.ListOpen(), nil

	case CmdSetWindowSize:
		p, err := decode[SetWindowSizeParams](req.Params)
		if err != nil {
			return nil, err
		}
		id, role, ok := model.IDFromLabel(p.Label)
		if !ok {
			return nil, fmt.Errorf("%w: %s", registry.ErrNotFound, p.Label)
		}
		if role == model.RolePopover {
			return nil, s.engine.Popovers.SetSize(id, p.Width, p.Height)
		}
		return nil, s.engine.Windows.SetSize(id, p.Width, p.Height)

	case CmdStoreSet:
		p, err := decode[StoreParams](req.Params)
		if err != nil {
			return nil, err
		}
		if err := s.engine.Store.Set(p.Key, p.Value); err != nil {
			return nil, err
		}
		s.Broadcast(EventStoreChanged, StoreChangedPayload{Key: p.Key, Value: p.Value})
		return nil, nil

	case CmdStoreGet:
		p, err := decode[StoreParams](req.Params)
		if err != nil {
			return nil, err
		}
		value, ok := s.engine.Store.Get(p.Key)
		if !ok {
			return nil, nil
		}
		return value, nil

	case CmdStoreDelete:
		p, err := decode[StoreParams](req.Params)
		if err != nil {
			return nil, err
		}
		if err := s.engine.Store.Delete(p.Key); err != nil {
			return nil, err
		}
		s.Broadcast(EventStoreChanged, StoreChangedPayload{Key: p.Key})
		return nil, nil

	case CmdStoreKeys:
		return s.engine.Store.Keys(), nil

	case CmdRegisterTrigger:
		p, err := decode[TriggerParams](req.Params)
		if err != nil {
			return nil, err
		}
		s.engine.Hover.RegisterTrigger(p.ID, p.Bounds)
		return nil, nil

	case CmdUnregisterTrigger:
		p, err := decode[TriggerParams](req.Params)
		if err != nil {
			return nil, err
		}
		s.engine.Hover.UnregisterTrigger(p.ID)
		return nil, nil

	case CmdUpdateTriggerBounds:
		p, err := decode[TriggerParams](req.Params)
		if err != nil {
			return nil, err
		}
		s.engine.Hover.UpdateTriggerBounds(p.ID, p.Bounds)
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown command %q", req.Command)
	}
}

func inlineWindowID(label string) (string, error) {
	id, role, ok := model.IDFromLabel(label)
	if !ok || role != model.RoleInlineWindow {
		return "", fmt.Errorf("%w: %s", registry.ErrNotFound, label)
	}
	return id, nil
}

// ClientCount reports the number of connected children.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Broadcast pushes an event to every connected child.
func (s *Server) Broadcast(event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("event payload marshal failed", "event", event, "error", err)
		return
	}
	msg := Message{Type: messageEvent, Event: event, Payload: raw}

	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		if err := c.send(msg); err != nil {
			s.logger.Debug("event send failed", "event", event, "error", err)
		}
	}
}
