package ipc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"textinput/internal/logging"
	"textinput/internal/settings"
)

var _ settings.Provider = (*IPCClient)(nil)

// IPCClient is the client for communicating with the settings daemon. It
// implements settings.Provider, so a settings.Resolver can sit directly on
// top of it.
//
// With AutoReconnect set the client dials lazily on the first request and
// redials after the connection drops, restoring any subscription.
type IPCClient struct {
	mu         sync.RWMutex
	conn       net.Conn
	sessionID  string
	version    string
	permission PermissionLevel
	user       int

	connectMu sync.Mutex
	connected atomic.Bool
	writeMu   sync.Mutex

	pending   map[uint32]chan *Message
	pendingMu sync.Mutex
	nextReqID atomic.Uint32

	eventChan    chan *Event
	eventHandler EventHandler
	eventMu      sync.RWMutex
	subscription *SubscribeRequest

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once

	config ClientConfig
	logger *slog.Logger
}

// ClientConfig configures the IPC client
type ClientConfig struct {
	SocketPath     string
	ClientName     string
	ClientVersion  string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	AutoReconnect  bool
	Logger         *slog.Logger
}

// DefaultClientConfig returns sensible defaults
func DefaultClientConfig(runtimeDir string) ClientConfig {
	return ClientConfig{
		SocketPath:     filepath.Join(runtimeDir, "settingsd.sock"),
		ClientName:     "settingsctl",
		ClientVersion:  "1.0.0",
		ConnectTimeout: 5 * time.Second,
		RequestTimeout: 10 * time.Second,
		AutoReconnect:  true,
	}
}

// EventHandler is called when events are received
type EventHandler func(event *Event)

// NewClient creates a new IPC client
func NewClient(cfg ClientConfig) *IPCClient {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &IPCClient{
		pending:   make(map[uint32]chan *Message),
		eventChan: make(chan *Event, 100),
		ctx:       ctx,
		cancel:    cancel,
		config:    cfg,
		logger:    logging.Component(cfg.Logger, "ipc-client"),
	}
}

// Connect dials the daemon and performs the handshake. It is a no-op
// when already connected.
func (c *IPCClient) Connect(ctx context.Context) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	if c.connected.Load() {
		return nil
	}
	if c.ctx.Err() != nil {
		return ErrClosed
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.wg.Add(1)
	go c.readLoop(conn)

	// Requests from other goroutines wait on connectMu until the
	// handshake is done.
	if err := c.handshake(ctx); err != nil {
		c.disconnect(conn)
		return fmt.Errorf("handshake: %w", err)
	}
	c.connected.Store(true)

	c.eventMu.RLock()
	sub := c.subscription
	c.eventMu.RUnlock()
	if sub != nil {
		if _, err := c.roundTrip(ctx, MsgSubscribe, sub); err != nil {
			c.logger.Warn("restore subscription failed", "error", err)
		}
	}

	c.logger.Debug("connected", "socket", c.config.SocketPath, "session", c.SessionID())
	return nil
}

func (c *IPCClient) dial(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{Timeout: c.config.ConnectTimeout}

	conn, err := dialer.DialContext(ctx, "unix", c.config.SocketPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED) {
			return nil, fmt.Errorf("%w: %s", ErrDaemonNotRunning, c.config.SocketPath)
		}
		return nil, err
	}
	return conn, nil
}

// Close closes the connection to the daemon and the event channel.
func (c *IPCClient) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()
		if conn != nil {
			c.disconnect(conn)
		}

		done := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			close(c.eventChan)
		case <-time.After(2 * time.Second):
			c.logger.Warn("reader did not stop")
		}
	})
	return nil
}

// disconnect tears down conn if it is still the current connection and
// fails its pending requests.
func (c *IPCClient) disconnect(conn net.Conn) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.connected.Store(false)
	c.mu.Unlock()

	conn.Close()

	c.pendingMu.Lock()
	for _, ch := range c.pending {
		close(ch)
	}
	c.pending = make(map[uint32]chan *Message)
	c.pendingMu.Unlock()
}

// IsConnected returns whether the client is connected
func (c *IPCClient) IsConnected() bool {
	return c.connected.Load()
}

// SessionID returns the session ID assigned by the server
func (c *IPCClient) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// ServerVersion returns the version reported by the daemon.
func (c *IPCClient) ServerVersion() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Permission returns the access level granted by the daemon.
func (c *IPCClient) Permission() PermissionLevel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.permission
}

// User returns the user the daemon maps settings.UserCurrent to.
func (c *IPCClient) User() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// SetEventHandler sets the handler for streamed events
func (c *IPCClient) SetEventHandler(handler EventHandler) {
	c.eventMu.Lock()
	defer c.eventMu.Unlock()
	c.eventHandler = handler
}

// Events returns the event channel for streaming events. It is closed by
// Close.
func (c *IPCClient) Events() <-chan *Event {
	return c.eventChan
}

func (c *IPCClient) handshake(ctx context.Context) error {
	resp, err := c.roundTrip(ctx, MsgHandshake, &HandshakeRequest{
		ClientVersion:   c.config.ClientVersion,
		ClientName:      c.config.ClientName,
		ProtocolVersion: ProtocolVersion,
	})
	if err != nil {
		return err
	}

	if resp.Header.Type != MsgHandshakeAck {
		return fmt.Errorf("unexpected response type: %d", resp.Header.Type)
	}

	var ack HandshakeResponse
	if err := Decode(resp.Payload, &ack); err != nil {
		return err
	}

	c.mu.Lock()
	c.sessionID = ack.SessionID
	c.version = ack.ServerVersion
	c.permission = ack.Permission
	c.user = ack.User
	c.mu.Unlock()

	return nil
}

// request connects when needed, sends payload and decodes a response of
// type want into out.
func (c *IPCClient) request(ctx context.Context, msgType MessageType, payload any, want MessageType, out any) error {
	if !c.connected.Load() {
		if !c.config.AutoReconnect {
			return ErrNotConnected
		}
		if err := c.Connect(ctx); err != nil {
			return err
		}
	}

	resp, err := c.roundTrip(ctx, msgType, payload)
	if err != nil {
		return err
	}
	if resp.Header.Type != want {
		return fmt.Errorf("unexpected response type: %d", resp.Header.Type)
	}
	if out != nil && len(resp.Payload) > 0 {
		if err := Decode(resp.Payload, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// roundTrip sends a request on the current connection and waits for the
// response with the same request ID. Error responses become *RemoteError.
func (c *IPCClient) roundTrip(ctx context.Context, msgType MessageType, payload any) (*Message, error) {
	var data []byte
	if payload != nil {
		var err error
		if data, err = Encode(payload); err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
	}

	reqID := c.nextReqID.Add(1)
	msg := NewMessage(msgType, reqID, data)

	respChan := make(chan *Message, 1)
	c.pendingMu.Lock()
	c.pending[reqID] = respChan
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, reqID)
		c.pendingMu.Unlock()
	}()

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return nil, ErrNotConnected
	}

	if err := c.write(conn, msg); err != nil {
		c.disconnect(conn)
		return nil, fmt.Errorf("write message: %w", err)
	}

	timer := time.NewTimer(c.config.RequestTimeout)
	defer timer.Stop()

	select {
	case resp, ok := <-respChan:
		if !ok {
			return nil, ErrConnectionLost
		}
		if resp.Header.Type == MsgError {
			return nil, decodeError(resp)
		}
		return resp, nil
	case <-timer.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.ctx.Done():
		return nil, ErrClosed
	}
}

func (c *IPCClient) write(conn net.Conn, msg *Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(c.config.RequestTimeout))
	return msg.Write(conn)
}

func (c *IPCClient) readLoop(conn net.Conn) {
	defer c.wg.Done()
	defer c.disconnect(conn)

	for {
		msg, err := ReadMessage(conn)
		if err != nil {
			if c.ctx.Err() == nil {
				c.logger.Debug("connection closed", "error", err)
			}
			return
		}
		c.handleMessage(conn, msg)
	}
}

func (c *IPCClient) handleMessage(conn net.Conn, msg *Message) {
	switch msg.Header.Type {
	case MsgPing:
		if err := c.write(conn, NewMessage(MsgPong, msg.Header.RequestID, nil)); err != nil {
			c.logger.Debug("pong failed", "error", err)
		}

	case MsgEvent:
		var event Event
		if err := Decode(msg.Payload, &event); err != nil {
			c.logger.Debug("malformed event", "error", err)
			return
		}
		select {
		case c.eventChan <- &event:
		default:
			c.logger.Warn("event channel full, dropping event", "type", event.Type)
		}

		c.eventMu.RLock()
		handler := c.eventHandler
		c.eventMu.RUnlock()
		if handler != nil {
			go handler(&event)
		}

	default:
		c.pendingMu.Lock()
		if ch, ok := c.pending[msg.Header.RequestID]; ok {
			select {
			case ch <- msg:
			default:
			}
		}
		c.pendingMu.Unlock()
	}
}

// Call implements settings.Provider.
func (c *IPCClient) Call(ctx context.Context, req settings.CallRequest) (settings.CallResult, error) {
	var resp CallResponse
	err := c.request(ctx, MsgCall, &CallRequest{
		Method: req.Method,
		Name:   req.Name,
		Value:  req.Value,
		User:   req.User,
	}, MsgCallResp, &resp)
	if err != nil {
		return settings.CallResult{}, err
	}
	return settings.CallResult{Value: resp.Value, Found: resp.Found}, nil
}

// Query implements settings.Provider.
func (c *IPCClient) Query(ctx context.Context, table, name string, user int) (string, bool, error) {
	var resp QueryResponse
	err := c.request(ctx, MsgQuery, &QueryRequest{Table: table, Name: name, User: user}, MsgQueryResp, &resp)
	if err != nil {
		return "", false, err
	}
	return resp.Value, resp.Found, nil
}

// Insert implements settings.Provider.
func (c *IPCClient) Insert(ctx context.Context, table, name, value string, user int) error {
	return c.request(ctx, MsgInsert, &InsertRequest{
		Table: table,
		Name:  name,
		Value: value,
		User:  user,
	}, MsgInsertResp, nil)
}

// Delete removes a setting and reports whether it existed.
func (c *IPCClient) Delete(ctx context.Context, table, name string, user int) (bool, error) {
	var resp DeleteResponse
	err := c.request(ctx, MsgDelete, &DeleteRequest{Table: table, Name: name, User: user}, MsgDeleteResp, &resp)
	if err != nil {
		return false, err
	}
	return resp.Deleted, nil
}

// List returns every setting of table for user, ordered by name.
func (c *IPCClient) List(ctx context.Context, table string, user int) (*ListResponse, error) {
	var resp ListResponse
	if err := c.request(ctx, MsgList, &ListRequest{Table: table, User: user}, MsgListResp, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status requests the daemon status
func (c *IPCClient) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.request(ctx, MsgStatusRequest, nil, MsgStatusResponse, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ping checks that the daemon answers.
func (c *IPCClient) Ping(ctx context.Context) error {
	return c.request(ctx, MsgPing, nil, MsgPong, nil)
}

// Subscribe asks for change events on tables and names; empty filters
// match everything. Events arrive on Events and the event handler. The
// subscription is restored after a reconnect.
func (c *IPCClient) Subscribe(ctx context.Context, tables, names []string) (string, error) {
	req := &SubscribeRequest{Tables: tables, Names: names}

	var resp SubscribeResponse
	if err := c.request(ctx, MsgSubscribe, req, MsgSubscribeResp, &resp); err != nil {
		return "", err
	}

	c.eventMu.Lock()
	c.subscription = req
	c.eventMu.Unlock()

	return resp.SubscriptionID, nil
}

// Unsubscribe cancels the subscription.
func (c *IPCClient) Unsubscribe(ctx context.Context) error {
	c.eventMu.Lock()
	c.subscription = nil
	c.eventMu.Unlock()

	return c.request(ctx, MsgUnsubscribe, nil, MsgUnsubscribeResp, nil)
}
