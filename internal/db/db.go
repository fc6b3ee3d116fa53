// ABOUTME: SQLite capture of every JSON-RPC exchange with the device
// ABOUTME: Provides probe-run tracking, message logging, and query helpers

package db

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harper/mcp-probe/internal/jsonrpc"
	"github.com/harper/mcp-probe/internal/logger"
)

//go:embed schema.sql
var schemaSQL string

type DB struct {
	conn *sql.DB
}

type MessageDirection string

const (
	DirectionProbeToDevice MessageDirection = "probe_to_device"
	DirectionDeviceToProbe MessageDirection = "device_to_probe"
)

// Open opens or creates the capture database.
func Open(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL so the consumer thread's writes never block readers
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Debug("capture database initialized at %s", dbPath)
	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// CreateProbe records the start of a probe run against a target.
func (db *DB) CreateProbe(probeID, target, framing string) error {
	_, err := db.conn.Exec(
		"INSERT INTO probes (id, target, framing) VALUES (?, ?, ?)",
		probeID, target, framing,
	)
	if err != nil {
		return fmt.Errorf("failed to create probe record: %w", err)
	}
	return nil
}

// CloseProbe marks a probe run as finished.
func (db *DB) CloseProbe(probeID string) error {
	_, err := db.conn.Exec(
		"UPDATE probes SET closed_at = CURRENT_TIMESTAMP WHERE id = ?",
		probeID,
	)
	if err != nil {
		return fmt.Errorf("failed to close probe record: %w", err)
	}
	return nil
}

// LogMessage captures one raw frame with its direction and the envelope
// fields worth querying on.
func (db *DB) LogMessage(probeID string, direction MessageDirection, rawMessage []byte) error {
	var messageType, method, jsonrpcID string

	if msg, err := jsonrpc.DecodeMessage(rawMessage); err == nil {
		switch m := msg.(type) {
		case *jsonrpc.Request:
			messageType = "request"
			method = m.Method
			jsonrpcID = string(*m.ID)
		case *jsonrpc.Notification:
			messageType = "notification"
			method = m.Method
		case *jsonrpc.Response:
			messageType = "response"
			if m.ID != nil {
				jsonrpcID = string(*m.ID)
			}
		}
	}

	_, err := db.conn.Exec(
		`INSERT INTO messages (probe_id, direction, message_type, method, jsonrpc_id, raw_message)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		probeID, direction, messageType, method, jsonrpcID, string(rawMessage),
	)
	if err != nil {
		return fmt.Errorf("failed to log message: %w", err)
	}
	return nil
}

// Message represents one captured frame.
type Message struct {
	ID          int64
	ProbeID     string
	Direction   MessageDirection
	MessageType string
	Method      string
	JSONRPCId   string
	RawMessage  string
	Timestamp   time.Time
}

// GetProbeMessages retrieves all frames captured for a probe run in order.
func (db *DB) GetProbeMessages(probeID string) ([]Message, error) {
	rows, err := db.conn.Query(
		`SELECT id, probe_id, direction, message_type, method, jsonrpc_id, raw_message, timestamp
		 FROM messages WHERE probe_id = ? ORDER BY id ASC`,
		probeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		var messageType, method, jsonrpcID sql.NullString

		err := rows.Scan(&m.ID, &m.ProbeID, &m.Direction, &messageType, &method, &jsonrpcID, &m.RawMessage, &m.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		m.MessageType = messageType.String
		m.Method = method.String
		m.JSONRPCId = jsonrpcID.String

		messages = append(messages, m)
	}

	return messages, rows.Err()
}

// Probe represents one recorded probe run.
type Probe struct {
	ID        string
	Target    string
	Framing   string
	CreatedAt time.Time
	ClosedAt  *time.Time
}

// GetAllProbes retrieves every recorded probe run, newest first.
func (db *DB) GetAllProbes() ([]Probe, error) {
	rows, err := db.conn.Query(
		`SELECT id, target, framing, created_at, closed_at
		 FROM probes ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query probes: %w", err)
	}
	defer rows.Close()

	var probes []Probe
	for rows.Next() {
		var p Probe
		var closedAt sql.NullTime

		if err := rows.Scan(&p.ID, &p.Target, &p.Framing, &p.CreatedAt, &closedAt); err != nil {
			return nil, fmt.Errorf("failed to scan probe: %w", err)
		}

		if closedAt.Valid {
			p.ClosedAt = &closedAt.Time
		}

		probes = append(probes, p)
	}

	return probes, rows.Err()
}
