// Package ipc carries settings requests between the settings daemon and
// its clients over a Unix socket.
//
// The protocol is designed for:
// - Request/response pattern for provider calls and table queries
// - Event streaming for change notifications
// - Protocol versioning for compatibility
package ipc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Protocol version for compatibility checking
const (
	ProtocolVersion = 1
	ProtocolMagic   = 0x54495043 // "TIPC"
)

// MaxPayload bounds the payload of a single message.
const MaxPayload = 4 * 1024 * 1024

// MessageType identifies the type of IPC message
type MessageType uint16

const (
	// Control messages (0x00xx)
	MsgPing         MessageType = 0x0001
	MsgPong         MessageType = 0x0002
	MsgHandshake    MessageType = 0x0003
	MsgHandshakeAck MessageType = 0x0004
	MsgError        MessageType = 0x0005

	// Status messages (0x01xx)
	MsgStatusRequest  MessageType = 0x0100
	MsgStatusResponse MessageType = 0x0101

	// Provider calls (0x02xx)
	MsgCall     MessageType = 0x0200
	MsgCallResp MessageType = 0x0201

	// Table operations (0x03xx)
	MsgQuery      MessageType = 0x0300
	MsgQueryResp  MessageType = 0x0301
	MsgInsert     MessageType = 0x0302
	MsgInsertResp MessageType = 0x0303
	MsgDelete     MessageType = 0x0304
	MsgDeleteResp MessageType = 0x0305
	MsgList       MessageType = 0x0306
	MsgListResp   MessageType = 0x0307

	// Event streaming (0x05xx)
	MsgSubscribe       MessageType = 0x0500
	MsgSubscribeResp   MessageType = 0x0501
	MsgUnsubscribe     MessageType = 0x0502
	MsgUnsubscribeResp MessageType = 0x0503
	MsgEvent           MessageType = 0x0504
)

// EventType identifies the type of streamed event
type EventType uint16

const (
	EventSettingChanged EventType = 0x0001
	EventDaemonShutdown EventType = 0x0002
)

// PermissionLevel defines client access levels
type PermissionLevel uint8

const (
	// PermReadOnly may read its own user's settings.
	PermReadOnly PermissionLevel = 0x01
	// PermReadWrite may also write its own user's system settings.
	PermReadWrite PermissionLevel = 0x02
	// PermFullControl may read and write every table for every user.
	PermFullControl PermissionLevel = 0x03
)

func (p PermissionLevel) String() string {
	switch p {
	case PermReadOnly:
		return "read-only"
	case PermReadWrite:
		return "read-write"
	case PermFullControl:
		return "full-control"
	}
	return fmt.Sprintf("PermissionLevel(%d)", uint8(p))
}

// ParsePermission parses the names produced by PermissionLevel.String.
func ParsePermission(s string) (PermissionLevel, error) {
	for _, p := range []PermissionLevel{PermReadOnly, PermReadWrite, PermFullControl} {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown permission level %q", s)
}

// Header is the fixed-size message header (16 bytes)
type Header struct {
	Magic     uint32      // Protocol magic number
	Version   uint8       // Protocol version
	Flags     uint8       // Message flags
	Type      MessageType // Message type
	RequestID uint32      // Request ID for correlation
	Length    uint32      // Payload length (not including header)
}

// HeaderSize is the size of the header in bytes
const HeaderSize = 16

// Header flags
const (
	FlagJSON uint8 = 0x04
)

// Message wraps a header and payload
type Message struct {
	Header  Header
	Payload []byte
}

// NewMessage creates a new message with the given type and payload
func NewMessage(msgType MessageType, requestID uint32, payload []byte) *Message {
	return &Message{
		Header: Header{
			Magic:     ProtocolMagic,
			Version:   ProtocolVersion,
			Flags:     FlagJSON,
			Type:      msgType,
			RequestID: requestID,
			Length:    uint32(len(payload)),
		},
		Payload: payload,
	}
}

// Write writes the header to a writer
func (h *Header) Write(w io.Writer) error {
	buf := make([]byte, HeaderSize)
	h.put(buf)
	_, err := w.Write(buf)
	return err
}

func (h *Header) put(buf []byte) {
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	buf[4] = h.Version
	buf[5] = h.Flags
	binary.BigEndian.PutUint16(buf[6:8], uint16(h.Type))
	binary.BigEndian.PutUint32(buf[8:12], h.RequestID)
	binary.BigEndian.PutUint32(buf[12:16], h.Length)
}

// ReadHeader reads a header from a reader
func ReadHeader(r io.Reader) (*Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	h := &Header{
		Magic:     binary.BigEndian.Uint32(buf[0:4]),
		Version:   buf[4],
		Flags:     buf[5],
		Type:      MessageType(binary.BigEndian.Uint16(buf[6:8])),
		RequestID: binary.BigEndian.Uint32(buf[8:12]),
		Length:    binary.BigEndian.Uint32(buf[12:16]),
	}

	if h.Magic != ProtocolMagic {
		return nil, fmt.Errorf("invalid magic number: %x", h.Magic)
	}

	if h.Version > ProtocolVersion {
		return nil, fmt.Errorf("unsupported protocol version: %d", h.Version)
	}

	return h, nil
}

// Write writes the message to a writer as a single buffer so concurrent
// writers on a stream socket never interleave.
func (m *Message) Write(w io.Writer) error {
	m.Header.Length = uint32(len(m.Payload))
	buf := make([]byte, HeaderSize+len(m.Payload))
	m.Header.put(buf)
	copy(buf[HeaderSize:], m.Payload)
	_, err := w.Write(buf)
	return err
}

// ReadMessage reads a complete message from a reader
func ReadMessage(r io.Reader) (*Message, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	m := &Message{Header: *h}
	if h.Length > 0 {
		if h.Length > MaxPayload {
			return nil, fmt.Errorf("payload too large: %d bytes", h.Length)
		}
		m.Payload = make([]byte, h.Length)
		if _, err := io.ReadFull(r, m.Payload); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Request/Response payloads

// HandshakeRequest is sent by the client to initiate connection
type HandshakeRequest struct {
	ClientVersion   string `json:"client_version"`
	ClientName      string `json:"client_name"`
	ProtocolVersion uint8  `json:"protocol_version"`
}

// HandshakeResponse is sent by the server to acknowledge connection
type HandshakeResponse struct {
	ServerVersion   string          `json:"server_version"`
	ProtocolVersion uint8           `json:"protocol_version"`
	SessionID       string          `json:"session_id"`
	Permission      PermissionLevel `json:"permission"`
	// User is the user ID the server resolved for the connection; it
	// replaces settings.UserCurrent in requests.
	User int `json:"user"`
}

// ErrorResponse is sent when an operation fails
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeUnknown          = 1
	ErrCodeInvalidRequest   = 2
	ErrCodeNotFound         = 3
	ErrCodePermissionDenied = 4
	ErrCodeInternal         = 5
	ErrCodeUnsupported      = 6
	ErrCodeRateLimited      = 7
)

// StatusResponse contains daemon status
type StatusResponse struct {
	Version        string         `json:"version"`
	Uptime         time.Duration  `json:"uptime"`
	StartedAt      time.Time      `json:"started_at"`
	Clients        int            `json:"clients"`
	Subscribers    int            `json:"subscribers"`
	DatabaseStatus DatabaseStatus `json:"database_status"`
}

// DatabaseStatus contains database health info
type DatabaseStatus struct {
	SchemaVersion int            `json:"schema_version"`
	IntegrityOK   bool           `json:"integrity_ok"`
	Settings      map[string]int `json:"settings"`
	Users         []int          `json:"users"`
}

// CallRequest invokes a provider method such as GET_system.
type CallRequest struct {
	Method string `json:"method"`
	Name   string `json:"name"`
	Value  string `json:"value,omitempty"`
	User   int    `json:"user"`
}

// CallResponse carries the result of a provider call.
type CallResponse struct {
	Value string `json:"value,omitempty"`
	Found bool   `json:"found"`
}

// QueryRequest reads one row of a table.
type QueryRequest struct {
	Table string `json:"table"`
	Name  string `json:"name"`
	User  int    `json:"user"`
}

// QueryResponse is the row read by a QueryRequest.
type QueryResponse struct {
	Value string `json:"value,omitempty"`
	Found bool   `json:"found"`
}

// InsertRequest writes one row of a table.
type InsertRequest struct {
	Table string `json:"table"`
	Name  string `json:"name"`
	Value string `json:"value"`
	User  int    `json:"user"`
}

// DeleteRequest removes one row of a table.
type DeleteRequest struct {
	Table string `json:"table"`
	Name  string `json:"name"`
	User  int    `json:"user"`
}

// DeleteResponse reports whether a row was removed.
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// ListRequest lists a table for one user.
type ListRequest struct {
	Table string `json:"table"`
	User  int    `json:"user"`
}

// SettingInfo is one listed setting.
type SettingInfo struct {
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListResponse contains the listed settings ordered by name.
type ListResponse struct {
	Table    string        `json:"table"`
	User     int           `json:"user"`
	Settings []SettingInfo `json:"settings"`
}

// SubscribeRequest requests change notifications. Empty filters match
// everything.
type SubscribeRequest struct {
	Tables []string `json:"tables,omitempty"`
	Names  []string `json:"names,omitempty"`
}

// SubscribeResponse acknowledges subscription
type SubscribeResponse struct {
	Success        bool   `json:"success"`
	SubscriptionID string `json:"subscription_id"`
}

// Event is a streamed event
type Event struct {
	Type      EventType    `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	Change    *ChangeEvent `json:"change,omitempty"`
}

// ChangeEvent describes a settings write.
type ChangeEvent struct {
	Table   string `json:"table"`
	User    int    `json:"user"`
	Name    string `json:"name"`
	Value   string `json:"value,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
	Version int64  `json:"version"`
}

// Encode encodes a payload to JSON bytes
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Decode decodes JSON bytes to a payload
func Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// NewErrorMessage creates an error message
func NewErrorMessage(requestID uint32, code int, message string) *Message {
	payload, _ := Encode(&ErrorResponse{
		Code:    code,
		Message: message,
	})
	return NewMessage(MsgError, requestID, payload)
}

// NewResponse creates a response message
func NewResponse(msgType MessageType, requestID uint32, v any) (*Message, error) {
	payload, err := Encode(v)
	if err != nil {
		return nil, err
	}
	return NewMessage(msgType, requestID, payload), nil
}
