package database

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/snarg/callengine/internal/callmodel"
)

// ErrCallNotFound is returned when a call-id has no matching row.
var ErrCallNotFound = errors.New("database: call not found")

// ErrClientNotFound is returned when a client-id has no matching row.
var ErrClientNotFound = errors.New("database: client not found")

// InsertCall creates the initial persisted row for a newly initiated call.
func (db *DB) InsertCall(ctx context.Context, c *callmodel.Call) error {
	history, _ := json.Marshal(c.History)
	recordings, _ := json.Marshal(c.Recordings)
	events, _ := json.Marshal(c.RecordingEvents)
	result, _ := json.Marshal(c.Result)

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO calls (id, carrier_sid, client_id, status, started_at, history, recordings, recording_events, result)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, c.ID, c.CarrierSID, c.ClientID, string(c.Status), c.StartedAt, history, recordings, events, result)
	return err
}

// UpdateStatus sets a call's status and, for terminal statuses, its
// ended_at timestamp. answeredAt is applied only when non-nil.
func (db *DB) UpdateStatus(ctx context.Context, callID string, status callmodel.Status, answeredAt, endedAt *time.Time) error {
	ct, err := db.Pool.Exec(ctx, `
		UPDATE calls SET status = $2,
			answered_at = COALESCE($3, answered_at),
			ended_at = COALESCE($4, ended_at)
		WHERE id = $1
	`, callID, string(status), answeredAt, endedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrCallNotFound
	}
	return nil
}

// SetCarrierSID records the carrier-assigned call-sid once known.
func (db *DB) SetCarrierSID(ctx context.Context, callID, carrierSID string) error {
	ct, err := db.Pool.Exec(ctx, `UPDATE calls SET carrier_sid = $2 WHERE id = $1`, callID, carrierSID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrCallNotFound
	}
	return nil
}

// AppendTurn persists one ConversationTurn in near-real-time (see
// SPEC_FULL.md's conversation-history-persistence resolution). Best-effort:
// callers log failures rather than retrying inline.
func (db *DB) AppendTurn(ctx context.Context, callID string, turn callmodel.ConversationTurn) error {
	payload, err := json.Marshal(turn)
	if err != nil {
		return err
	}
	ct, err := db.Pool.Exec(ctx, `
		UPDATE calls SET history = history || $2::jsonb WHERE id = $1
	`, callID, "["+string(payload)+"]")
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrCallNotFound
	}
	return nil
}

// AppendRecordingEvent appends to the recording-events audit trail.
func (db *DB) AppendRecordingEvent(ctx context.Context, callID string, ev callmodel.RecordingEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = db.Pool.Exec(ctx, `
		UPDATE calls SET recording_events = recording_events || $2::jsonb WHERE id = $1
	`, callID, "["+string(payload)+"]")
	return err
}

// AppendRecording appends a processed Recording to the call.
func (db *DB) AppendRecording(ctx context.Context, callID string, rec callmodel.Recording) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = db.Pool.Exec(ctx, `
		UPDATE calls SET recordings = recordings || $2::jsonb WHERE id = $1
	`, callID, "["+string(payload)+"]")
	return err
}

// Finalize writes the full conversation history and result and marks the
// call terminal. This is the authoritative end-of-call write that
// overwrites any prior per-turn writes (SPEC_FULL.md persistence decision).
func (db *DB) Finalize(ctx context.Context, c *callmodel.Call) error {
	history, _ := json.Marshal(c.History)
	result, _ := json.Marshal(c.Result)
	endedAt := c.EndedAt
	_, err := db.Pool.Exec(ctx, `
		UPDATE calls SET status = $2, history = $3, result = $4, ended_at = $5
		WHERE id = $1
	`, c.ID, string(c.Status), history, result, endedAt)
	return err
}

// GetCall loads a call by id.
func (db *DB) GetCall(ctx context.Context, callID string) (*callmodel.Call, error) {
	var c callmodel.Call
	var status string
	var history, recordings, events, result []byte

	err := db.Pool.QueryRow(ctx, `
		SELECT id, carrier_sid, client_id, status, started_at, answered_at, ended_at, history, recordings, recording_events, result
		FROM calls WHERE id = $1
	`, callID).Scan(&c.ID, &c.CarrierSID, &c.ClientID, &status, &c.StartedAt, &c.AnsweredAt, &c.EndedAt, &history, &recordings, &events, &result)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCallNotFound
	}
	if err != nil {
		return nil, err
	}

	c.Status = callmodel.Status(status)
	_ = json.Unmarshal(history, &c.History)
	_ = json.Unmarshal(recordings, &c.Recordings)
	_ = json.Unmarshal(events, &c.RecordingEvents)
	_ = json.Unmarshal(result, &c.Result)
	return &c, nil
}

// GetCallByCarrierSID loads a call by carrier-assigned sid, used by
// webhook handlers that only carry CallSid.
func (db *DB) GetCallByCarrierSID(ctx context.Context, carrierSID string) (*callmodel.Call, error) {
	var callID string
	err := db.Pool.QueryRow(ctx, `SELECT id FROM calls WHERE carrier_sid = $1`, carrierSID).Scan(&callID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCallNotFound
	}
	if err != nil {
		return nil, err
	}
	return db.GetCall(ctx, callID)
}

// GetClient loads a client by id.
func (db *DB) GetClient(ctx context.Context, clientID string) (*callmodel.Client, error) {
	var c callmodel.Client
	err := db.Pool.QueryRow(ctx, `
		SELECT id, name, phone, debt_amount, contract_number, partial_payment_amount, company
		FROM clients WHERE id = $1
	`, clientID).Scan(&c.ID, &c.Name, &c.Phone, &c.DebtAmount, &c.ContractNumber, &c.PartialPaymentAmount, &c.Company)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
