package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"textinput/internal/logging"
	"textinput/internal/settings"
)

// Handler processes IPC messages
type Handler interface {
	// HandleMessage processes a message and returns a response
	HandleMessage(ctx context.Context, client *Client, msg *Message) (*Message, error)
}

// HandlerFunc is a function that implements Handler
type HandlerFunc func(ctx context.Context, client *Client, msg *Message) (*Message, error)

func (f HandlerFunc) HandleMessage(ctx context.Context, client *Client, msg *Message) (*Message, error) {
	return f(ctx, client, msg)
}

// Server is the IPC server that manages client connections
type Server struct {
	mu          sync.RWMutex
	listener    net.Listener
	cfg         ServerConfig
	handler     Handler
	clients     map[string]*Client
	subscribers map[string]*subscription
	startedAt   time.Time
	uid         int
	logger      *slog.Logger

	// Shutdown coordination
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool

	nextRequestID atomic.Uint32
	eventChan     chan *Event
}

// Client represents a connected client
type Client struct {
	mu           sync.Mutex
	ID           string
	conn         net.Conn
	Permission   PermissionLevel
	User         int
	Cred         *PeerCredentials
	Version      string
	Name         string
	handshaken   bool
	ConnectedAt  time.Time
	LastActivity time.Time

	limiter *rateLimiter
	writeMu sync.Mutex
}

// ResolveUser replaces settings.UserCurrent with the connection's user.
func (c *Client) ResolveUser(user int) int {
	if user == settings.UserCurrent {
		return c.User
	}
	return user
}

// Allowed reports whether the client may access table for user. Reads of
// the client's own user are always allowed; writes to the system table
// need read-write; everything else needs full control.
func (c *Client) Allowed(table string, user int, write bool) bool {
	if c.ResolveUser(user) != c.User {
		return c.Permission >= PermFullControl
	}
	if !write {
		return true
	}
	if table == settings.TableSystem {
		return c.Permission >= PermReadWrite
	}
	return c.Permission >= PermFullControl
}

// subscription tracks event subscriptions. Empty sets match everything.
type subscription struct {
	id       string
	clientID string
	user     int
	all      bool
	tables   map[string]bool
	names    map[string]bool
}

func newSubscription(client *Client, req *SubscribeRequest) *subscription {
	sub := &subscription{
		id:       uuid.NewString(),
		clientID: client.ID,
		user:     client.User,
		all:      client.Permission >= PermFullControl,
		tables:   make(map[string]bool),
		names:    make(map[string]bool),
	}
	for _, t := range req.Tables {
		sub.tables[t] = true
	}
	for _, n := range req.Names {
		sub.names[n] = true
	}
	return sub
}

func (s *subscription) matches(ev *Event) bool {
	c := ev.Change
	if c == nil {
		return true
	}
	if !s.all && c.User != s.user {
		return false
	}
	if len(s.tables) > 0 && !s.tables[c.Table] {
		return false
	}
	if len(s.names) > 0 && !s.names[c.Name] {
		return false
	}
	return true
}

// ServerConfig configures the IPC server
type ServerConfig struct {
	SocketPath     string // Unix socket path
	Version        string // Server version
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxConnections int
	Logger         *slog.Logger

	// DefaultPerm applies to peers other than root and the daemon's user.
	DefaultPerm PermissionLevel

	// RequestRate and RequestBurst bound each client's settings requests.
	// Pings and subscriptions are not counted. Zero rate disables the limit.
	RequestRate  float64
	RequestBurst int
}

// DefaultServerConfig returns sensible defaults
func DefaultServerConfig(runtimeDir string) ServerConfig {
	return ServerConfig{
		SocketPath:     filepath.Join(runtimeDir, "settingsd.sock"),
		Version:        "1.0.0",
		DefaultPerm:    PermReadWrite,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxConnections: 100,
		RequestRate:    200,
		RequestBurst:   400,
	}
}

// NewServer creates a new IPC server
func NewServer(cfg ServerConfig, handler Handler) (*Server, error) {
	if cfg.SocketPath == "" {
		return nil, errors.New("socket path is required")
	}
	def := DefaultServerConfig(filepath.Dir(cfg.SocketPath))
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.DefaultPerm == 0 {
		cfg.DefaultPerm = def.DefaultPerm
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = def.MaxConnections
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		cfg:         cfg,
		handler:     handler,
		clients:     make(map[string]*Client),
		subscribers: make(map[string]*subscription),
		uid:         os.Getuid(),
		logger:      logging.Component(cfg.Logger, "ipc"),
		ctx:         ctx,
		cancel:      cancel,
		eventChan:   make(chan *Event, 100),
	}, nil
}

// Start begins listening for connections
func (s *Server) Start() error {
	socketDir := filepath.Dir(s.cfg.SocketPath)
	if err := os.MkdirAll(socketDir, 0700); err != nil {
		return fmt.Errorf("create socket directory: %w", err)
	}

	if IsSocketListening(s.cfg.SocketPath) {
		return fmt.Errorf("socket %s is already in use", s.cfg.SocketPath)
	}
	if err := CleanupSocket(s.cfg.SocketPath); err != nil {
		return fmt.Errorf("remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", s.cfg.SocketPath)
	if err != nil {
		return fmt.Errorf("listen on socket: %w", err)
	}

	// Other users connect too; access is decided per request from the
	// peer credentials.
	if err := os.Chmod(s.cfg.SocketPath, 0666); err != nil {
		listener.Close()
		return fmt.Errorf("set socket permissions: %w", err)
	}

	s.listener = listener
	s.startedAt = time.Now()
	s.running.Store(true)

	s.wg.Add(2)
	go s.eventBroadcaster()
	go s.acceptLoop()

	s.logger.Info("listening", "socket", s.cfg.SocketPath)
	return nil
}

// Stop notifies subscribers, closes every connection and removes the socket.
func (s *Server) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	shutdown := &Event{Type: EventDaemonShutdown, Timestamp: time.Now()}
	s.mu.RLock()
	for clientID := range s.subscribers {
		if client, ok := s.clients[clientID]; ok {
			s.sendEvent(client, shutdown)
		}
	}
	s.mu.RUnlock()

	s.cancel()

	if s.listener != nil {
		s.listener.Close()
	}

	s.mu.Lock()
	for _, client := range s.clients {
		client.conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.logger.Warn("timed out waiting for connections to close")
	}

	os.Remove(s.cfg.SocketPath)
	s.logger.Info("stopped")
	return nil
}

// SocketPath returns the socket path
func (s *Server) SocketPath() string {
	return s.cfg.SocketPath
}

// Version returns the server version reported in handshakes.
func (s *Server) Version() string {
	return s.cfg.Version
}

// StartedAt returns when Start succeeded.
func (s *Server) StartedAt() time.Time {
	return s.startedAt
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// SubscriberCount returns the number of active subscriptions.
func (s *Server) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

// Broadcast queues an event for subscribed clients. Events are dropped
// when the queue is full or the server is stopped.
func (s *Server) Broadcast(event *Event) {
	if !s.running.Load() {
		return
	}
	select {
	case s.eventChan <- event:
	default:
		s.logger.Warn("event queue full, dropping event", "type", event.Type)
	}
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("accept failed", "error", err)
			continue
		}

		if s.ClientCount() >= s.cfg.MaxConnections {
			s.logger.Warn("connection limit reached", "max", s.cfg.MaxConnections)
			conn.Close()
			continue
		}

		client := s.newClient(conn)

		s.mu.Lock()
		s.clients[client.ID] = client
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handleConnection(client)
	}
}

// newClient derives the connection's user and permission from the peer
// credentials. The daemon's own user and root get full control. Without
// credentials the peer is taken to be the daemon's user.
func (s *Server) newClient(conn net.Conn) *Client {
	now := time.Now()
	client := &Client{
		ID:           uuid.NewString(),
		conn:         conn,
		User:         s.uid,
		Permission:   s.cfg.DefaultPerm,
		ConnectedAt:  now,
		LastActivity: now,
		limiter:      newRateLimiter(s.cfg.RequestRate, s.cfg.RequestBurst),
	}

	cred, err := GetPeerCredentials(conn)
	if err != nil {
		s.logger.Debug("peer credentials unavailable", "error", err)
	} else {
		client.Cred = cred
		client.User = cred.UID
	}
	if client.User == 0 || client.User == s.uid {
		client.Permission = PermFullControl
	}
	return client
}

func (s *Server) handleConnection(client *Client) {
	defer s.wg.Done()
	defer logging.RecoverPanic(s.logger, "ipc connection")
	defer func() {
		s.mu.Lock()
		delete(s.clients, client.ID)
		delete(s.subscribers, client.ID)
		s.mu.Unlock()
		client.conn.Close()
		s.logger.Debug("client disconnected", "client", client.ID)
	}()

	s.logger.Debug("client connected",
		"client", client.ID,
		"user", client.User,
		"permission", client.Permission.String(),
	)

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		client.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

		msg, err := ReadMessage(client.conn)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				if s.sendPing(client) != nil {
					return
				}
				continue
			}
			s.logger.Debug("read failed", "client", client.ID, "error", err)
			return
		}

		client.mu.Lock()
		client.LastActivity = time.Now()
		client.mu.Unlock()

		response, err := s.processMessage(client, msg)
		if err != nil {
			response = NewErrorMessage(msg.Header.RequestID, errorCode(err), err.Error())
		}

		if response != nil {
			if err := s.sendMessage(client, response); err != nil {
				return
			}
		}
	}
}

func (s *Server) processMessage(client *Client, msg *Message) (*Message, error) {
	switch msg.Header.Type {
	case MsgPing:
		return NewMessage(MsgPong, msg.Header.RequestID, nil), nil

	case MsgPong:
		return nil, nil

	case MsgHandshake:
		return s.handleHandshake(client, msg)
	}

	client.mu.Lock()
	ok := client.handshaken
	client.mu.Unlock()
	if !ok {
		return NewErrorMessage(msg.Header.RequestID, ErrCodePermissionDenied, "handshake required"), nil
	}

	switch msg.Header.Type {
	case MsgSubscribe:
		return s.handleSubscribe(client, msg)

	case MsgUnsubscribe:
		return s.handleUnsubscribe(client, msg)
	}

	if !client.limiter.Allow() {
		s.logger.Warn("client rate limited", "client", client.ID, "user", client.User)
		return NewErrorMessage(msg.Header.RequestID, ErrCodeRateLimited, ErrRateLimited.Error()), nil
	}

	if s.handler != nil {
		return s.handler.HandleMessage(s.ctx, client, msg)
	}
	return NewErrorMessage(msg.Header.RequestID, ErrCodeInvalidRequest, "no handler"), nil
}

func (s *Server) handleHandshake(client *Client, msg *Message) (*Message, error) {
	var req HandshakeRequest
	if err := Decode(msg.Payload, &req); err != nil {
		return NewErrorMessage(msg.Header.RequestID, ErrCodeInvalidRequest, "invalid handshake"), nil
	}
	if req.ProtocolVersion > ProtocolVersion {
		return NewErrorMessage(msg.Header.RequestID, ErrCodeInvalidRequest,
			fmt.Sprintf("unsupported protocol version %d", req.ProtocolVersion)), nil
	}

	client.mu.Lock()
	client.Version = req.ClientVersion
	client.Name = req.ClientName
	client.handshaken = true
	client.mu.Unlock()

	s.logger.Debug("handshake", "client", client.ID, "name", req.ClientName, "version", req.ClientVersion)

	return NewResponse(MsgHandshakeAck, msg.Header.RequestID, &HandshakeResponse{
		ServerVersion:   s.cfg.Version,
		ProtocolVersion: ProtocolVersion,
		SessionID:       client.ID,
		Permission:      client.Permission,
		User:            client.User,
	})
}

func (s *Server) handleSubscribe(client *Client, msg *Message) (*Message, error) {
	var req SubscribeRequest
	if len(msg.Payload) > 0 {
		if err := Decode(msg.Payload, &req); err != nil {
			return NewErrorMessage(msg.Header.RequestID, ErrCodeInvalidRequest, "invalid subscribe request"), nil
		}
	}
	for _, t := range req.Tables {
		if !settings.ValidTable(t) {
			return NewErrorMessage(msg.Header.RequestID, ErrCodeInvalidRequest,
				fmt.Sprintf("unknown table %q", t)), nil
		}
	}

	sub := newSubscription(client, &req)
	s.mu.Lock()
	s.subscribers[client.ID] = sub
	s.mu.Unlock()

	return NewResponse(MsgSubscribeResp, msg.Header.RequestID, &SubscribeResponse{
		Success:        true,
		SubscriptionID: sub.id,
	})
}

func (s *Server) handleUnsubscribe(client *Client, msg *Message) (*Message, error) {
	s.mu.Lock()
	delete(s.subscribers, client.ID)
	s.mu.Unlock()

	return NewMessage(MsgUnsubscribeResp, msg.Header.RequestID, nil), nil
}

func (s *Server) eventBroadcaster() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case event := <-s.eventChan:
			var targets []*Client
			s.mu.RLock()
			for clientID, sub := range s.subscribers {
				if !sub.matches(event) {
					continue
				}
				if client, ok := s.clients[clientID]; ok {
					targets = append(targets, client)
				}
			}
			s.mu.RUnlock()

			for _, client := range targets {
				s.sendEvent(client, event)
			}
		}
	}
}

func (s *Server) sendEvent(client *Client, event *Event) {
	payload, err := Encode(event)
	if err != nil {
		s.logger.Error("encode event", "error", err)
		return
	}

	msg := NewMessage(MsgEvent, s.nextRequestID.Add(1), payload)
	if err := s.sendMessage(client, msg); err != nil {
		s.logger.Debug("send event failed", "client", client.ID, "error", err)
	}
}

func (s *Server) sendMessage(client *Client, msg *Message) error {
	client.writeMu.Lock()
	defer client.writeMu.Unlock()

	client.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	return msg.Write(client.conn)
}

func (s *Server) sendPing(client *Client) error {
	return s.sendMessage(client, NewMessage(MsgPing, s.nextRequestID.Add(1), nil))
}
