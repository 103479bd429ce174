package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const transportWSProtocol = "graphql-transport-ws"

// wsMessage mirrors the graphql-transport-ws envelope.
type wsMessage struct {
	ID      string                 `json:"id,omitempty"`
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

func wsTestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func connect(t *testing.T, c *Client, protocols ...string) *WebSocketSession {
	t.Helper()
	session, err := c.WSConnect(wsTestContext(t), "/graphql", protocols...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func initTransportWS(t *testing.T, ctx context.Context, session *WebSocketSession) {
	t.Helper()
	require.NoError(t, session.SendJSON(wsMessage{Type: "connection_init", Payload: map[string]interface{}{}}))
	var ack wsMessage
	require.NoError(t, session.ReceiveJSON(ctx, &ack))
	require.Equal(t, "connection_ack", ack.Type)
}

func TestSubprotocolNegotiation(t *testing.T) {
	c := newClient(t, Options{})
	session := connect(t, c, transportWSProtocol)
	assert.Equal(t, transportWSProtocol, session.AcceptedSubprotocol())
	assert.False(t, session.Closed())
}

func TestSubscriptionOverTransportWS(t *testing.T) {
	c := newClient(t, Options{})
	ctx := wsTestContext(t)
	session := connect(t, c, transportWSProtocol)
	initTransportWS(t, ctx, session)

	subscribe := wsMessage{
		ID:   "1",
		Type: "subscribe",
		Payload: map[string]interface{}{
			"query": `subscription { echo(message: "hi", count: 2) }`,
		},
	}
	require.NoError(t, session.SendJSON(subscribe))

	for i := 0; i < 2; i++ {
		var next wsMessage
		require.NoError(t, session.ReceiveJSON(ctx, &next))
		require.Equal(t, "next", next.Type)
		require.Equal(t, "1", next.ID)
		assert.Equal(t, map[string]interface{}{"echo": "hi"}, next.Payload["data"])
	}

	var complete wsMessage
	require.NoError(t, session.ReceiveJSON(ctx, &complete))
	assert.Equal(t, "complete", complete.Type)
	assert.Equal(t, "1", complete.ID)
}

func TestCloseMarksSessionClosed(t *testing.T) {
	c := newClient(t, Options{})
	ctx := wsTestContext(t)
	session := connect(t, c, transportWSProtocol)

	require.NoError(t, session.Close())
	assert.True(t, session.Closed())

	// Receives after a local close synthesize a close message without
	// touching the transport.
	message, err := session.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, MessageClose, message.Type)
}

func TestCloseCodePanicsBeforeAnyClose(t *testing.T) {
	c := newClient(t, Options{})
	session := connect(t, c, transportWSProtocol)

	assert.Panics(t, func() { session.CloseCode() })
}

// closingServer upgrades one connection, plays the scripted frames, then
// sends a close frame with the given code and reason.
func closingServer(t *testing.T, frames []wsFrame, code int, reason string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		for _, frame := range frames {
			if err := conn.WriteMessage(frame.kind, frame.data); err != nil {
				t.Errorf("write frame: %v", err)
				return
			}
		}
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		// Drain until the peer closes so the close handshake completes.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		_ = conn.Close()
	}))
	t.Cleanup(ts.Close)
	return ts
}

type wsFrame struct {
	kind int
	data []byte
}

func dialSession(t *testing.T, ts *httptest.Server) *WebSocketSession {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	session := NewWebSocketSession(conn)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestReceiveLatchesObservedClose(t *testing.T) {
	ts := closingServer(t, []wsFrame{{websocket.TextMessage, []byte(`{"ok":true}`)}}, 4400, "going away")
	session := dialSession(t, ts)
	ctx := wsTestContext(t)

	first, err := session.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, MessageText, first.Type)
	assert.Equal(t, `{"ok":true}`, first.Text)

	closeMsg, err := session.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, MessageClose, closeMsg.Type)
	assert.Equal(t, 4400, closeMsg.Code)
	assert.Equal(t, "going away", closeMsg.Reason)

	assert.True(t, session.Closed())
	assert.Equal(t, 4400, session.CloseCode())
	assert.Equal(t, "going away", session.CloseReason())

	// Repeat receives replay the same close without another transport read.
	again, err := session.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, closeMsg, again)
}

func TestReceiveJSONDecodesTextFrames(t *testing.T) {
	ts := closingServer(t, []wsFrame{{websocket.TextMessage, []byte(`{"value":42}`)}}, websocket.CloseNormalClosure, "")
	session := dialSession(t, ts)

	var decoded struct {
		Value int `json:"value"`
	}
	require.NoError(t, session.ReceiveJSON(wsTestContext(t), &decoded))
	assert.Equal(t, 42, decoded.Value)
}

func TestReceiveJSONRejectsBinaryFrames(t *testing.T) {
	ts := closingServer(t, []wsFrame{{websocket.BinaryMessage, []byte{0x01, 0x02}}}, websocket.CloseNormalClosure, "")
	session := dialSession(t, ts)

	var decoded map[string]interface{}
	err := session.ReceiveJSON(wsTestContext(t), &decoded)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text frame")
}

func TestReceiveReturnsBinaryFrames(t *testing.T) {
	ts := closingServer(t, []wsFrame{{websocket.BinaryMessage, []byte{0xde, 0xad}}}, websocket.CloseNormalClosure, "")
	session := dialSession(t, ts)

	message, err := session.Receive(wsTestContext(t))
	require.NoError(t, err)
	assert.Equal(t, MessageBinary, message.Type)
	assert.Equal(t, []byte{0xde, 0xad}, message.Data)
}

func TestSendTextAndBytesReachPeer(t *testing.T) {
	received := make(chan wsFrame, 2)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for i := 0; i < 2; i++ {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- wsFrame{kind, data}
		}
	}))
	t.Cleanup(ts.Close)

	session := dialSession(t, ts)
	require.NoError(t, session.SendText("hello"))
	require.NoError(t, session.SendBytes([]byte{0x01}))

	first := <-received
	assert.Equal(t, websocket.TextMessage, first.kind)
	assert.Equal(t, "hello", string(first.data))
	second := <-received
	assert.Equal(t, websocket.BinaryMessage, second.kind)
	assert.Equal(t, []byte{0x01}, second.data)
}
