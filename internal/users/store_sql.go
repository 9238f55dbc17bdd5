package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SQLStore works with both SQLite (modernc) and Postgres (pgx stdlib).
// Placeholders use $1 syntax, which modernc/sqlite accepts as well.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" | "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) Create(ctx context.Context, u *User) (err error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	for _, r := range u.Roles {
		if !ValidRole(r) {
			return fmt.Errorf("%w: %s", ErrInvalidRole, r)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if u.TelegramID != 0 {
		var one int
		err = tx.QueryRowContext(ctx,
			`SELECT 1 FROM users WHERE telegram_id=$1`, u.TelegramID).Scan(&one)
		if err == nil {
			return fmt.Errorf("%w: telegram_id %d", ErrExists, u.TelegramID)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		err = nil
	}
	if u.Username != "" {
		var one int
		err = tx.QueryRowContext(ctx,
			`SELECT 1 FROM users WHERE username=$1`, u.Username).Scan(&one)
		if err == nil {
			return fmt.Errorf("%w: username %s", ErrExists, u.Username)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		err = nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, telegram_id, username, first_name, last_name,
		                   phone_number, password_hash, is_registered, is_blocked,
		                   preferred_level, preferred_direction, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		u.ID, nullIfZero(u.TelegramID), u.Username, u.FirstName, u.LastName,
		u.PhoneNumber, u.PasswordHash, u.IsRegistered, u.IsBlocked,
		u.PreferredLevel, u.PreferredDirection, u.CreatedAt.Unix())
	if err != nil {
		return err
	}
	for _, r := range u.Roles {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role) VALUES ($1,$2)`, u.ID, r); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) GetByID(ctx context.Context, id string) (*User, error) {
	return s.getBy(ctx, `id=$1`, id)
}

func (s *SQLStore) GetByTelegramID(ctx context.Context, telegramID int64) (*User, error) {
	return s.getBy(ctx, `telegram_id=$1`, telegramID)
}

func (s *SQLStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	if username == "" {
		return nil, ErrNotFound
	}
	return s.getBy(ctx, `username=$1`, username)
}

func (s *SQLStore) getBy(ctx context.Context, cond string, arg any) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, telegram_id, username, first_name, last_name,
		       phone_number, password_hash, is_registered, is_blocked,
		       preferred_level, preferred_direction, created_at
		FROM users WHERE `+cond, arg)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if u.Roles, err = s.roles(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *SQLStore) roles(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role FROM user_roles WHERE user_id=$1 ORDER BY role`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateProfile(ctx context.Context, u *User) error {
	if u.Username != "" {
		var one int
		err := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM users WHERE username=$1 AND id<>$2`, u.Username, u.ID).Scan(&one)
		if err == nil {
			return fmt.Errorf("%w: username %s", ErrExists, u.Username)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET username=$1, first_name=$2, last_name=$3,
		       phone_number=$4, is_registered=$5
		WHERE id=$6`,
		u.Username, u.FirstName, u.LastName, u.PhoneNumber, u.IsRegistered, u.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLStore) SetPreferences(ctx context.Context, id, level, direction string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET preferred_level=$1, preferred_direction=$2 WHERE id=$3`,
		level, direction, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLStore) SetBlocked(ctx context.Context, id string, blocked bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET is_blocked=$1 WHERE id=$2`, blocked, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLStore) SetPassword(ctx context.Context, id, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash=$1 WHERE id=$2`, passwordHash, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLStore) GrantRole(ctx context.Context, id, role string) error {
	if !ValidRole(role) {
		return fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE id=$1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	err = s.db.QueryRowContext(ctx,
		`SELECT 1 FROM user_roles WHERE user_id=$1 AND role=$2`, id, role).Scan(&one)
	if err == nil {
		return nil // already granted
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role) VALUES ($1,$2)`, id, role)
	return err
}

func (s *SQLStore) RevokeRole(ctx context.Context, id, role string) error {
	if !ValidRole(role) {
		return fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM user_roles WHERE user_id=$1 AND role=$2`, id, role)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLStore) List(ctx context.Context, role string) ([]User, error) {
	q := `
		SELECT id, telegram_id, username, first_name, last_name,
		       phone_number, password_hash, is_registered, is_blocked,
		       preferred_level, preferred_direction, created_at
		FROM users`
	args := []any{}
	if role != "" {
		q += ` WHERE id IN (SELECT user_id FROM user_roles WHERE role=$1)`
		args = append(args, role)
	}
	q += ` ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// One pass over user_roles instead of a query per user.
	rr, err := s.db.QueryContext(ctx, `SELECT user_id, role FROM user_roles ORDER BY role`)
	if err != nil {
		return nil, err
	}
	defer rr.Close()
	byUser := map[string][]string{}
	for rr.Next() {
		var id, r string
		if err := rr.Scan(&id, &r); err != nil {
			return nil, err
		}
		byUser[id] = append(byUser[id], r)
	}
	if err := rr.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Roles = byUser[out[i].ID]
	}
	return out, nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanUser(r rowScanner) (*User, error) {
	var (
		u    User
		tgID sql.NullInt64
		ts   int64
	)
	if err := r.Scan(&u.ID, &tgID, &u.Username, &u.FirstName, &u.LastName,
		&u.PhoneNumber, &u.PasswordHash, &u.IsRegistered, &u.IsBlocked,
		&u.PreferredLevel, &u.PreferredDirection, &ts); err != nil {
		return nil, err
	}
	if tgID.Valid {
		u.TelegramID = tgID.Int64
	}
	u.CreatedAt = time.Unix(ts, 0)
	return &u, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullIfZero(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
