package ipc

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"textinput/internal/logging"
	"textinput/internal/settings"
	"textinput/internal/store"
)

// Backend is the storage behind a SettingsHandler.
type Backend interface {
	settings.Provider
	Delete(ctx context.Context, table, name string, user int) (bool, error)
	List(ctx context.Context, table string, user int) ([]store.Setting, error)
	Users(ctx context.Context) ([]int, error)
	Check(ctx context.Context) (*store.Report, error)
}

var _ Backend = (*store.Store)(nil)

// SettingsHandler serves settings requests from a Backend.
type SettingsHandler struct {
	mu        sync.RWMutex
	backend   Backend
	version   string
	startedAt time.Time
	server    *Server
	logger    *slog.Logger
}

// SettingsHandlerConfig configures the settings handler
type SettingsHandlerConfig struct {
	Backend Backend
	Version string
	Logger  *slog.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(cfg SettingsHandlerConfig) *SettingsHandler {
	return &SettingsHandler{
		backend:   cfg.Backend,
		version:   cfg.Version,
		startedAt: time.Now(),
		logger:    logging.Component(cfg.Logger, "handler"),
	}
}

// SetServer attaches the server whose connection counts are reported in
// status responses.
func (h *SettingsHandler) SetServer(s *Server) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.server = s
}

// HandleMessage processes an IPC message
func (h *SettingsHandler) HandleMessage(ctx context.Context, client *Client, msg *Message) (*Message, error) {
	switch msg.Header.Type {
	case MsgStatusRequest:
		return h.handleStatus(ctx, client, msg)
	case MsgCall:
		return h.handleCall(ctx, client, msg)
	case MsgQuery:
		return h.handleQuery(ctx, client, msg)
	case MsgInsert:
		return h.handleInsert(ctx, client, msg)
	case MsgDelete:
		return h.handleDelete(ctx, client, msg)
	case MsgList:
		return h.handleList(ctx, client, msg)
	default:
		return NewErrorMessage(msg.Header.RequestID, ErrCodeInvalidRequest,
			fmt.Sprintf("unknown message type: %d", msg.Header.Type)), nil
	}
}

func (h *SettingsHandler) handleStatus(ctx context.Context, client *Client, msg *Message) (*Message, error) {
	h.mu.RLock()
	srv := h.server
	h.mu.RUnlock()

	resp := &StatusResponse{
		Version:   h.version,
		Uptime:    time.Since(h.startedAt),
		StartedAt: h.startedAt,
	}
	if srv != nil {
		resp.Clients = srv.ClientCount()
		resp.Subscribers = srv.SubscriberCount()
	}

	report, err := h.backend.Check(ctx)
	if err != nil {
		h.logger.Warn("database check failed", "error", err)
	} else {
		resp.DatabaseStatus = DatabaseStatus{
			SchemaVersion: report.SchemaVersion,
			IntegrityOK:   report.OK(),
			Settings:      report.Settings,
		}
	}
	if client.Permission >= PermFullControl {
		if users, err := h.backend.Users(ctx); err == nil {
			resp.DatabaseStatus.Users = users
		}
	}

	return NewResponse(MsgStatusResponse, msg.Header.RequestID, resp)
}

// methodTable splits a GET_/PUT_ method into its table and direction.
func methodTable(method string) (table string, write, ok bool) {
	switch {
	case strings.HasPrefix(method, settings.MethodGetPrefix):
		return strings.TrimPrefix(method, settings.MethodGetPrefix), false, true
	case strings.HasPrefix(method, settings.MethodPutPrefix):
		return strings.TrimPrefix(method, settings.MethodPutPrefix), true, true
	}
	return "", false, false
}

func (h *SettingsHandler) handleCall(ctx context.Context, client *Client, msg *Message) (*Message, error) {
	var req CallRequest
	if err := Decode(msg.Payload, &req); err != nil {
		return NewErrorMessage(msg.Header.RequestID, ErrCodeInvalidRequest, "invalid call request"), nil
	}

	user := client.ResolveUser(req.User)
	if table, write, ok := methodTable(req.Method); ok && !client.Allowed(table, user, write) {
		return h.denied(client, msg, table, user), nil
	}

	res, err := h.backend.Call(ctx, settings.CallRequest{
		Method: req.Method,
		Name:   req.Name,
		Value:  req.Value,
		User:   user,
	})
	if err != nil {
		return nil, err
	}

	return NewResponse(MsgCallResp, msg.Header.RequestID, &CallResponse{Value: res.Value, Found: res.Found})
}

func (h *SettingsHandler) handleQuery(ctx context.Context, client *Client, msg *Message) (*Message, error) {
	var req QueryRequest
	if err := Decode(msg.Payload, &req); err != nil {
		return NewErrorMessage(msg.Header.RequestID, ErrCodeInvalidRequest, "invalid query request"), nil
	}

	user := client.ResolveUser(req.User)
	if !client.Allowed(req.Table, user, false) {
		return h.denied(client, msg, req.Table, user), nil
	}

	value, found, err := h.backend.Query(ctx, req.Table, req.Name, user)
	if err != nil {
		return nil, err
	}

	return NewResponse(MsgQueryResp, msg.Header.RequestID, &QueryResponse{Value: value, Found: found})
}

func (h *SettingsHandler) handleInsert(ctx context.Context, client *Client, msg *Message) (*Message, error) {
	var req InsertRequest
	if err := Decode(msg.Payload, &req); err != nil {
		return NewErrorMessage(msg.Header.RequestID, ErrCodeInvalidRequest, "invalid insert request"), nil
	}

	user := client.ResolveUser(req.User)
	if !client.Allowed(req.Table, user, true) {
		return h.denied(client, msg, req.Table, user), nil
	}

	if err := h.backend.Insert(ctx, req.Table, req.Name, req.Value, user); err != nil {
		return nil, err
	}

	return NewMessage(MsgInsertResp, msg.Header.RequestID, nil), nil
}

func (h *SettingsHandler) handleDelete(ctx context.Context, client *Client, msg *Message) (*Message, error) {
	var req DeleteRequest
	if err := Decode(msg.Payload, &req); err != nil {
		return NewErrorMessage(msg.Header.RequestID, ErrCodeInvalidRequest, "invalid delete request"), nil
	}

	user := client.ResolveUser(req.User)
	if !client.Allowed(req.Table, user, true) {
		return h.denied(client, msg, req.Table, user), nil
	}

	deleted, err := h.backend.Delete(ctx, req.Table, req.Name, user)
	if err != nil {
		return nil, err
	}

	return NewResponse(MsgDeleteResp, msg.Header.RequestID, &DeleteResponse{Deleted: deleted})
}

func (h *SettingsHandler) handleList(ctx context.Context, client *Client, msg *Message) (*Message, error) {
	var req ListRequest
	if err := Decode(msg.Payload, &req); err != nil {
		return NewErrorMessage(msg.Header.RequestID, ErrCodeInvalidRequest, "invalid list request"), nil
	}

	user := client.ResolveUser(req.User)
	if !client.Allowed(req.Table, user, false) {
		return h.denied(client, msg, req.Table, user), nil
	}

	rows, err := h.backend.List(ctx, req.Table, user)
	if err != nil {
		return nil, err
	}

	resp := &ListResponse{Table: req.Table, User: user, Settings: make([]SettingInfo, 0, len(rows))}
	for _, r := range rows {
		resp.Settings = append(resp.Settings, SettingInfo{
			Name:      r.Name,
			Value:     r.Value,
			UpdatedAt: r.UpdatedAt,
		})
	}

	return NewResponse(MsgListResp, msg.Header.RequestID, resp)
}

func (h *SettingsHandler) denied(client *Client, msg *Message, table string, user int) *Message {
	h.logger.Warn("permission denied",
		"client", client.ID,
		"peer_user", client.User,
		"table", table,
		"user", user,
		"type", msg.Header.Type,
	)
	return NewErrorMessage(msg.Header.RequestID, ErrCodePermissionDenied,
		fmt.Sprintf("%s access to %s for user %d denied", client.Permission, table, user))
}

// BroadcastChanges returns a store change hook that streams each change to
// the server's subscribers.
func BroadcastChanges(s *Server) func(store.Change) {
	return func(c store.Change) {
		s.Broadcast(&Event{
			Type:      EventSettingChanged,
			Timestamp: c.At,
			Change: &ChangeEvent{
				Table:   c.Table,
				User:    c.User,
				Name:    c.Name,
				Value:   c.Value,
				Deleted: c.Deleted,
				Version: c.Version,
			},
		})
	}
}
