// ABOUTME: Framed JSON-RPC client for probing MCP devices over TCP
// ABOUTME: Correlates responses by id and tolerates interleaved notifications

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harper/mcp-probe/internal/db"
	"github.com/harper/mcp-probe/internal/framing"
	"github.com/harper/mcp-probe/internal/jsonrpc"
	"github.com/harper/mcp-probe/internal/logger"
	"github.com/harper/mcp-probe/internal/mcp"
)

const (
	DefaultDialTimeout = 10 * time.Second
	DefaultCallTimeout = 10 * time.Second
)

// Options configure a Client beyond its target address.
type Options struct {
	Framing     framing.Mode
	MaxFrame    int
	DialTimeout time.Duration
	CallTimeout time.Duration
	ClientName  string
	Capture     *db.DB
}

// Client issues request/response exchanges over one TCP connection.
// One logical caller at a time; the internal mutex serializes callers
// that share an instance and guards the id allocator.
type Client struct {
	addr string
	opts Options

	mu      sync.Mutex
	conn    net.Conn
	framer  framing.Framer
	state   State
	nextID  uint64
	probeID string

	notifications chan *jsonrpc.Notification

	serverInfo         mcp.ServerInfo
	serverCapabilities json.RawMessage
}

func New(host string, port int, opts Options) *Client {
	if opts.Framing == "" {
		opts.Framing = framing.ModeNewline
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = DefaultDialTimeout
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	if opts.ClientName == "" {
		opts.ClientName = "mcp-probe"
	}
	return &Client{
		addr:          net.JoinHostPort(host, fmt.Sprintf("%d", port)),
		opts:          opts,
		state:         StateUninitialized,
		notifications: make(chan *jsonrpc.Notification, 32),
	}
}

// Notifications exposes out-of-band messages observed while waiting for
// responses. Entries are dropped if the channel is full; a caller that
// cares must drain it.
func (c *Client) Notifications() <-chan *jsonrpc.Notification {
	return c.notifications
}

// State returns the current session lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ServerInfo returns the identity recorded from the initialize exchange.
func (c *Client) ServerInfo() mcp.ServerInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverInfo
}

// ServerCapabilities returns the capability set recorded from initialize.
func (c *Client) ServerCapabilities() json.RawMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverCapabilities
}

// Connect opens the TCP stream. Refusal and dial timeout come back as
// transport errors. Reconnecting after Disconnect is allowed.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return fmt.Errorf("already connected to %s", c.addr)
	}

	dialer := net.Dialer{Timeout: c.opts.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return &TransportError{Op: "dial " + c.addr, Err: err}
	}

	c.conn = conn
	switch c.opts.Framing {
	case framing.ModeLengthPrefix:
		c.framer = framing.NewLengthPrefixFramer(conn, c.opts.MaxFrame)
	default:
		c.framer = framing.NewNewlineFramer(conn, c.opts.MaxFrame)
	}
	c.state = StateUninitialized
	c.probeID = "probe_" + uuid.New().String()[:8]

	if c.opts.Capture != nil {
		if err := c.opts.Capture.CreateProbe(c.probeID, c.addr, string(c.opts.Framing)); err != nil {
			logger.Warn("[%s] failed to record probe run: %v", c.probeID, err)
		}
	}

	logger.Debug("[%s] connected to %s (%s framing)", c.probeID, c.addr, c.opts.Framing)
	return nil
}

// Disconnect closes the socket. Safe to call repeatedly and on a client
// that never connected; afterwards the state is UNINITIALIZED. The id
// counter is preserved so a reconnect on the same logical session never
// reuses an identifier still awaiting a response.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		c.state = StateUninitialized
		return
	}

	c.state = StateShuttingDown
	if err := c.conn.Close(); err != nil {
		logger.Debug("[%s] close: %v", c.probeID, err)
	}
	c.conn = nil
	c.framer = nil
	c.state = StateShutdown

	if c.opts.Capture != nil {
		if err := c.opts.Capture.CloseProbe(c.probeID); err != nil {
			logger.Warn("[%s] failed to close probe record: %v", c.probeID, err)
		}
	}

	c.state = StateUninitialized
	logger.Debug("[%s] disconnected", c.probeID)
}

// ResetIDs restarts the identifier counter. Only call between sessions:
// reusing an id while a response is still pending breaks correlation.
func (c *Client) ResetIDs() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID = 0
}

// SendRequest writes one request and blocks until the response whose id
// matches arrives. Notification frames observed in between go to the side
// channel and are never mistaken for the response, so a peer emitting
// progress events indefinitely cannot make the call hang past its
// deadline.
func (c *Client) SendRequest(ctx context.Context, method string, params interface{}) (*jsonrpc.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendRequestLocked(ctx, method, params)
}

func (c *Client) sendRequestLocked(ctx context.Context, method string, params interface{}) (*jsonrpc.Response, error) {
	if c.conn == nil {
		return nil, ErrNotConnected
	}

	c.nextID++
	id := jsonrpc.NumberID(c.nextID)

	req := jsonrpc.Request{
		JSONRPC: jsonrpc.Version,
		Method:  method,
		ID:      id,
	}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params for %s: %w", method, err)
		}
		req.Params = data
	}

	frame, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request %s: %w", method, err)
	}

	deadline := time.Now().Add(c.opts.CallTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, &TransportError{Op: "set deadline", Err: err}
	}
	defer c.conn.SetDeadline(time.Time{})

	c.capture(db.DirectionProbeToDevice, frame)
	if err := c.framer.WriteFrame(frame); err != nil {
		c.state = StateError
		return nil, &TransportError{Op: "send " + method, Err: err}
	}

	for {
		raw, err := c.framer.ReadFrame()
		if err != nil {
			if IsTimeout(err) {
				return nil, &TransportError{
					Op:  fmt.Sprintf("await response to %s (id %s, deadline %s)", method, *id, deadline.Format(time.RFC3339)),
					Err: err,
				}
			}
			return nil, &TransportError{Op: "read frame", Err: err}
		}

		c.capture(db.DirectionDeviceToProbe, raw)

		msg, err := jsonrpc.DecodeMessage(raw)
		if err != nil {
			// Abandon this read but leave the connection up; one bad
			// frame does not prove the stream is unusable.
			return nil, &ProtocolError{Op: "decode frame", Err: err}
		}

		switch m := msg.(type) {
		case *jsonrpc.Notification:
			select {
			case c.notifications <- m:
			default:
				logger.Debug("[%s] notification channel full, dropping %s", c.probeID, m.Method)
			}
		case *jsonrpc.Response:
			if jsonrpc.IDEqual(m.ID, id) {
				return m, nil
			}
			// Response to an abandoned earlier call; correlation is by
			// id, not send order.
			logger.Debug("[%s] ignoring stale response id %s while awaiting %s", c.probeID, rawID(m.ID), *id)
		case *jsonrpc.Request:
			logger.Debug("[%s] ignoring device-initiated request %s", c.probeID, m.Method)
		}
	}
}

// sendNotificationLocked writes a one-way message; no response expected.
func (c *Client) sendNotificationLocked(method string, params interface{}) error {
	if c.conn == nil {
		return ErrNotConnected
	}

	note := jsonrpc.Notification{JSONRPC: jsonrpc.Version, Method: method}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("marshal params for %s: %w", method, err)
		}
		note.Params = data
	}

	frame, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("marshal notification %s: %w", method, err)
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.CallTimeout)); err != nil {
		return &TransportError{Op: "set deadline", Err: err}
	}
	defer c.conn.SetWriteDeadline(time.Time{})

	c.capture(db.DirectionProbeToDevice, frame)
	if err := c.framer.WriteFrame(frame); err != nil {
		return &TransportError{Op: "send " + method, Err: err}
	}
	return nil
}

// Initialize performs the handshake: initialize request, capability
// recording, then the initialized notification. The session reports
// ACTIVE only after that notification is on the wire; any mid-sequence
// failure leaves ERROR_STATE and a failure return, never a panic.
func (c *Client) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}

	c.state = StateInitializing

	params := mcp.InitializeParams{
		ProtocolVersion: mcp.ProtocolVersion,
		ClientInfo: mcp.ClientInfo{
			Name:    c.opts.ClientName,
			Version: "1.0.0",
		},
		Capabilities: mcp.DefaultCapabilities,
	}

	resp, err := c.sendRequestLocked(ctx, mcp.MethodInitialize, params)
	if err != nil {
		c.state = StateError
		return fmt.Errorf("initialize exchange: %w", err)
	}
	if resp.Error != nil {
		c.state = StateError
		return fmt.Errorf("device rejected initialize: %d %s", resp.Error.Code, resp.Error.Message)
	}

	var result mcp.InitializeResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		c.state = StateError
		return &ProtocolError{Op: "parse initialize result", Err: err}
	}
	c.serverInfo = result.ServerInfo
	c.serverCapabilities = result.Capabilities
	c.state = StateInitialized

	if err := c.sendNotificationLocked(mcp.MethodInitialized, nil); err != nil {
		c.state = StateError
		return fmt.Errorf("initialized notification: %w", err)
	}

	c.state = StateActive
	logger.Info("[%s] session active: %s v%s (protocol %s)",
		c.probeID, result.ServerInfo.Name, result.ServerInfo.Version, result.ProtocolVersion)
	return nil
}

// Ping verifies the device answers on the session.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.SendRequest(ctx, mcp.MethodPing, nil)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return fmt.Errorf("ping rejected: %d %s", resp.Error.Code, resp.Error.Message)
	}
	return nil
}

// ListTools discovers the device's tool catalog.
func (c *Client) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	resp, err := c.SendRequest(ctx, mcp.MethodListTools, nil)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("tools/list rejected: %d %s", resp.Error.Code, resp.Error.Message)
	}

	var result mcp.ListToolsResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, &ProtocolError{Op: "parse tools/list result", Err: err}
	}
	return result.Tools, nil
}

// ToolResult carries either the parsed tool output or the device's error
// object, verbatim. Raw preserves the exact result bytes so callers can
// inspect the device's serialization.
type ToolResult struct {
	Result   *mcp.CallToolResult
	Raw      json.RawMessage
	RPCError *jsonrpc.Error
}

// CallTool invokes a device tool. A well-formed JSON-RPC error response
// is a normal return value, not a Go error; only transport failure,
// timeout, or a malformed frame produce one.
func (c *Client) CallTool(ctx context.Context, name string, arguments interface{}) (*ToolResult, error) {
	var args json.RawMessage
	if arguments != nil {
		data, err := json.Marshal(arguments)
		if err != nil {
			return nil, fmt.Errorf("marshal arguments for %s: %w", name, err)
		}
		args = data
	}

	resp, err := c.SendRequest(ctx, mcp.MethodCallTool, mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, err
	}

	if resp.Error != nil {
		return &ToolResult{RPCError: resp.Error}, nil
	}

	var result mcp.CallToolResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, &ProtocolError{Op: "parse tools/call result", Err: err}
	}
	return &ToolResult{Result: &result, Raw: resp.Result}, nil
}

func (c *Client) capture(direction db.MessageDirection, frame []byte) {
	if c.opts.Capture == nil {
		return
	}
	if err := c.opts.Capture.LogMessage(c.probeID, direction, frame); err != nil {
		logger.Warn("[%s] failed to capture %s frame: %v", c.probeID, direction, err)
	}
}

func rawID(id *json.RawMessage) string {
	if id == nil {
		return "<none>"
	}
	return string(*id)
}
