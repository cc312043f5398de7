// Package xrpl implements the XRP Ledger provider: connection lifecycle,
// balances, payments, trust lines, currency issuance with cold-wallet
// bootstrapping, NFT operations, and ledger event streams.
package xrpl

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sigweihq/walletkit/pkg/constants"
	"github.com/sigweihq/walletkit/pkg/logger"
	"github.com/sigweihq/walletkit/pkg/types"
)

// Client is the raw ledger network client the provider drives. The websocket
// implementation below is the production client; tests substitute mocks.
type Client interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool

	// Request performs one RPC call. Ledger-side error responses surface as
	// *RPCError so callers can branch on the error code.
	Request(ctx context.Context, payload map[string]any) (map[string]any, error)

	// Autofill fills Sequence, Fee, and LastLedgerSequence on a transaction
	// that lacks them.
	Autofill(ctx context.Context, tx map[string]any) (map[string]any, error)

	// On registers a callback for a client event or stream message type.
	// Registration is last-write-wins per event name.
	On(event string, cb types.EventCallback)

	// Off removes a callback.
	Off(event string)
}

// RPCError is a ledger-side error response.
type RPCError struct {
	Code    string
	Message string
}

func (e *RPCError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsRPCErrorCode reports whether err is a ledger error with the given code.
func IsRPCErrorCode(err error, code string) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == code
}

// WebSocketClient talks JSON-RPC to a rippled server over a websocket,
// correlating responses by request id and dispatching stream messages to
// registered handlers.
type WebSocketClient struct {
	endpoint string
	log      logger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	closing   bool

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan map[string]any

	handlersMu sync.RWMutex
	handlers   map[string]types.EventCallback
}

func NewWebSocketClient(endpoint string, log logger.Logger) *WebSocketClient {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &WebSocketClient{
		endpoint: endpoint,
		log:      log,
		pending:  make(map[string]chan map[string]any),
		handlers: make(map[string]types.EventCallback),
	}
}

func (c *WebSocketClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	if _, err := url.Parse(c.endpoint); err != nil {
		return &types.NetworkOperationError{Op: "connect", Err: fmt.Errorf("invalid endpoint %s: %w", c.endpoint, err)}
	}

	dialer := websocket.Dialer{HandshakeTimeout: constants.WebSocketDialTimeout}
	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return &types.NetworkOperationError{Op: "connect", Err: err}
	}

	c.conn = conn
	c.connected = true
	c.closing = false
	go c.readLoop(conn)

	c.log.Debug("ledger websocket opened", map[string]any{"endpoint": c.endpoint})
	c.emit(string(types.EventConnected), map[string]any{"endpoint": c.endpoint})
	return nil
}

func (c *WebSocketClient) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return nil
	}
	c.closing = true
	c.connected = false
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	err := conn.Close()
	c.failPending(fmt.Errorf("connection closed"))
	c.emit(string(types.EventDisconnected), map[string]any{"endpoint": c.endpoint})
	return err
}

func (c *WebSocketClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *WebSocketClient) Request(ctx context.Context, payload map[string]any) (map[string]any, error) {
	c.mu.Lock()
	conn := c.conn
	ok := c.connected
	c.mu.Unlock()
	if !ok {
		return nil, &types.NetworkOperationError{Op: "request", Err: fmt.Errorf("websocket not connected")}
	}

	id := uuid.NewString()
	msg := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		msg[k] = v
	}
	msg["id"] = id

	ch := make(chan map[string]any, 1)
	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	c.writeMu.Lock()
	err := conn.WriteJSON(msg)
	c.writeMu.Unlock()
	if err != nil {
		return nil, &types.NetworkOperationError{Op: "request", Err: err}
	}

	timer := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		timer, cancel = context.WithTimeout(ctx, constants.RequestTimeout)
		defer cancel()
	}

	select {
	case resp := <-ch:
		return parseResponse(resp)
	case <-timer.Done():
		return nil, &types.NetworkOperationError{Op: "request", Err: timer.Err()}
	}
}

func parseResponse(resp map[string]any) (map[string]any, error) {
	if status, _ := resp["status"].(string); status == "error" {
		code, _ := resp["error"].(string)
		message, _ := resp["error_message"].(string)
		return nil, &RPCError{Code: code, Message: message}
	}
	if result, ok := resp["result"].(map[string]any); ok {
		return result, nil
	}
	return resp, nil
}

// Autofill fills Sequence, Fee, and LastLedgerSequence when absent.
func (c *WebSocketClient) Autofill(ctx context.Context, tx map[string]any) (map[string]any, error) {
	filled := make(map[string]any, len(tx)+3)
	for k, v := range tx {
		filled[k] = v
	}

	account, _ := filled["Account"].(string)
	if account == "" {
		return nil, &types.NetworkOperationError{Op: "autofill", Err: fmt.Errorf("transaction has no Account")}
	}

	if _, ok := filled["Sequence"]; !ok {
		info, err := c.Request(ctx, map[string]any{
			"command":      "account_info",
			"account":      account,
			"ledger_index": "current",
		})
		if err != nil {
			return nil, &types.NetworkOperationError{Op: "autofill", Err: err}
		}
		data, _ := info["account_data"].(map[string]any)
		seq, _ := data["Sequence"].(float64)
		filled["Sequence"] = uint32(seq)
	}

	if _, ok := filled["Fee"]; !ok {
		fee, err := c.Request(ctx, map[string]any{"command": "fee"})
		if err != nil {
			return nil, &types.NetworkOperationError{Op: "autofill", Err: err}
		}
		drops, _ := fee["drops"].(map[string]any)
		base, _ := drops["open_ledger_fee"].(string)
		if base == "" {
			base = "12"
		}
		filled["Fee"] = base
	}

	if _, ok := filled["LastLedgerSequence"]; !ok {
		ledger, err := c.Request(ctx, map[string]any{"command": "ledger_current"})
		if err != nil {
			return nil, &types.NetworkOperationError{Op: "autofill", Err: err}
		}
		current, _ := ledger["ledger_current_index"].(float64)
		filled["LastLedgerSequence"] = uint32(current) + 20
	}

	return filled, nil
}

func (c *WebSocketClient) On(event string, cb types.EventCallback) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.handlers[event] = cb
}

func (c *WebSocketClient) Off(event string) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	delete(c.handlers, event)
}

func (c *WebSocketClient) emit(event string, msg map[string]any) {
	c.handlersMu.RLock()
	cb := c.handlers[event]
	c.handlersMu.RUnlock()
	if cb != nil {
		cb(msg)
	}
}

func (c *WebSocketClient) failPending(err error) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for id, ch := range c.pending {
		select {
		case ch <- map[string]any{"status": "error", "error": "connectionClosed", "error_message": err.Error()}:
		default:
		}
		delete(c.pending, id)
	}
}

func (c *WebSocketClient) readLoop(conn *websocket.Conn) {
	for {
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			c.mu.Lock()
			closing := c.closing
			c.connected = false
			c.mu.Unlock()

			c.failPending(err)
			if !closing {
				c.log.Warn("ledger websocket read failed", map[string]any{"error": err.Error()})
				c.emit(string(types.EventError), map[string]any{"error": err.Error()})
			}
			return
		}

		if id, _ := msg["id"].(string); id != "" {
			c.pendingMu.Lock()
			ch := c.pending[id]
			c.pendingMu.Unlock()
			if ch != nil {
				select {
				case ch <- msg:
				default:
				}
			}
			continue
		}

		if msgType, _ := msg["type"].(string); msgType != "" {
			c.emit(msgType, msg)
		}
	}
}
