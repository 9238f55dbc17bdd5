package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Log appends rows to the audit_log table. Writes are best-effort at
// the call sites; the engine logs and drops an Append error instead of
// failing the student's event.
type Log struct{ db *sql.DB }

func NewLog(db *sql.DB) *Log { return &Log{db: db} }

// Append records one event. The key is the natural key of the subject
// (session or question id); data is JSON-encoded as given.
func (l *Log) Append(ctx context.Context, typ, key string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO audit_log (typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4)`,
		typ, key, string(payload), time.Now().Unix())
	return err
}
