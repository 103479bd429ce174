package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// MessageType tags the WebSocket event kinds the session normalizes to.
type MessageType int

const (
	// MessageText is a text frame.
	MessageText MessageType = iota + 1
	// MessageBinary is a binary frame.
	MessageBinary
	// MessageClose is an observed close event.
	MessageClose
)

// String implements fmt.Stringer.
func (t MessageType) String() string {
	switch t {
	case MessageText:
		return "text"
	case MessageBinary:
		return "binary"
	case MessageClose:
		return "close"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Message is the tagged union of WebSocket events. Only the fields matching
// Type are populated.
type Message struct {
	Type   MessageType
	Text   string
	Data   []byte
	Code   int
	Reason string
}

// WebSocketSession wraps one test connection with close-latching semantics:
// once a close is observed, further receives replay it without touching the
// transport. Calls are expected to be issued sequentially by a single test
// goroutine.
type WebSocketSession struct {
	conn        *websocket.Conn
	closed      bool
	closeSeen   bool
	closeCode   int
	closeReason string
}

// NewWebSocketSession wraps an established connection.
func NewWebSocketSession(conn *websocket.Conn) *WebSocketSession {
	return &WebSocketSession{conn: conn}
}

// WSConnect dials the test server's GraphQL route with the requested
// subprotocols. Callers must release the session with Close.
func (c *Client) WSConnect(ctx context.Context, path string, protocols ...string) (*WebSocketSession, error) {
	wsURL := "ws" + strings.TrimPrefix(c.server.URL, "http") + path
	dialer := websocket.Dialer{
		Subprotocols:     protocols,
		HandshakeTimeout: 10 * time.Second,
	}
	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("websocket dial %s: %w", path, err)
	}
	return NewWebSocketSession(conn), nil
}

// SendText writes a text frame.
func (s *WebSocketSession) SendText(payload string) error {
	return s.conn.WriteMessage(websocket.TextMessage, []byte(payload))
}

// SendJSON writes the JSON encoding of payload as a text frame.
func (s *WebSocketSession) SendJSON(payload interface{}) error {
	return s.conn.WriteJSON(payload)
}

// SendBytes writes a binary frame.
func (s *WebSocketSession) SendBytes(payload []byte) error {
	return s.conn.WriteMessage(websocket.BinaryMessage, payload)
}

// Receive reads the next event. After a close has been observed it replays
// the same close message instead of reading again. A ctx deadline, when set,
// bounds the read.
func (s *WebSocketSession) Receive(ctx context.Context) (Message, error) {
	if s.closed {
		return Message{Type: MessageClose, Code: s.closeCode, Reason: s.closeReason}, nil
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := s.conn.SetReadDeadline(deadline); err != nil {
			return Message{}, err
		}
	}

	frameType, data, err := s.conn.ReadMessage()
	if err != nil {
		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) {
			s.closed = true
			s.closeSeen = true
			s.closeCode = closeErr.Code
			s.closeReason = closeErr.Text
			return Message{Type: MessageClose, Code: closeErr.Code, Reason: closeErr.Text}, nil
		}
		return Message{}, err
	}

	switch frameType {
	case websocket.TextMessage:
		return Message{Type: MessageText, Text: string(data)}, nil
	case websocket.BinaryMessage:
		return Message{Type: MessageBinary, Data: data}, nil
	default:
		return Message{}, fmt.Errorf("unexpected frame type %d", frameType)
	}
}

// ReceiveJSON reads the next event, fails unless it is a text frame, and
// decodes its payload into v.
func (s *WebSocketSession) ReceiveJSON(ctx context.Context, v interface{}) error {
	message, err := s.Receive(ctx)
	if err != nil {
		return err
	}
	if message.Type != MessageText {
		return fmt.Errorf("expected a text frame, got %s", message.Type)
	}
	return json.Unmarshal([]byte(message.Text), v)
}

// Close requests closure of the underlying connection and marks the session
// closed unconditionally.
func (s *WebSocketSession) Close() error {
	s.closed = true
	deadline := time.Now().Add(time.Second)
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return s.conn.Close()
}

// AcceptedSubprotocol reports the subprotocol negotiated during the
// handshake.
func (s *WebSocketSession) AcceptedSubprotocol() string {
	return s.conn.Subprotocol()
}

// Closed reports whether the session has been closed locally or a close was
// observed from the peer.
func (s *WebSocketSession) Closed() bool {
	return s.closed
}

// CloseCode returns the close code observed from the peer. It panics when no
// close frame has been observed; accessing it earlier is a test bug.
func (s *WebSocketSession) CloseCode() int {
	if !s.closeSeen {
		panic("websocket session: close code requested before a close frame was observed")
	}
	return s.closeCode
}

// CloseReason returns the close reason observed from the peer, if any.
func (s *WebSocketSession) CloseReason() string {
	return s.closeReason
}
