package vocab

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) CreateUnit(ctx context.Context, level, name string, number int) (u Unit, err error) {
	if !ValidLevel(level) {
		return Unit{}, ErrInvalidLevel
	}
	if number < 0 || number > MaxUnitsPerLevel {
		return Unit{}, fmt.Errorf("unit number %d out of range", number)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Unit{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if number == 0 {
		rows, qerr := tx.QueryContext(ctx, `SELECT unit_number FROM units WHERE level=$1`, level)
		if qerr != nil {
			err = qerr
			return Unit{}, err
		}
		taken := map[int]bool{}
		for rows.Next() {
			var n int
			if err = rows.Scan(&n); err != nil {
				rows.Close()
				return Unit{}, err
			}
			taken[n] = true
		}
		if err = rows.Err(); err != nil {
			rows.Close()
			return Unit{}, err
		}
		rows.Close()
		for n := 1; n <= MaxUnitsPerLevel; n++ {
			if !taken[n] {
				number = n
				break
			}
		}
		if number == 0 {
			err = ErrUnitLimit
			return Unit{}, err
		}
	}

	u = Unit{
		ID:        uuid.NewString(),
		Level:     level,
		Number:    number,
		Name:      name,
		CreatedAt: time.Now(),
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO units (id,level,unit_number,name,created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		u.ID, u.Level, u.Number, u.Name, u.CreatedAt.Unix())
	if err != nil {
		return Unit{}, err
	}
	return u, nil
}

func (s *SQLStore) Units(ctx context.Context, level string) ([]Unit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,level,unit_number,name,created_at
		FROM units WHERE level=$1 ORDER BY unit_number`, level)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Unit
	for rows.Next() {
		var u Unit
		var created int64
		if err := rows.Scan(&u.ID, &u.Level, &u.Number, &u.Name, &created); err != nil {
			return nil, err
		}
		u.CreatedAt = time.Unix(created, 0)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetUnit(ctx context.Context, id string) (Unit, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,level,unit_number,name,created_at FROM units WHERE id=$1`, id)
	var u Unit
	var created int64
	if err := row.Scan(&u.ID, &u.Level, &u.Number, &u.Name, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Unit{}, ErrNotFound
		}
		return Unit{}, err
	}
	u.CreatedAt = time.Unix(created, 0)
	return u, nil
}

func (s *SQLStore) DeleteUnit(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM units WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) CreateWordList(ctx context.Context, wl WordList, words []Word) (out WordList, err error) {
	if wl.Name == "" {
		return WordList{}, errors.New("word list name required")
	}
	for i, w := range words {
		if w.Turkish == "" || w.Uzbek == "" {
			return WordList{}, fmt.Errorf("%w: entry %d", ErrEmptyWord, i+1)
		}
	}

	if wl.ID == "" {
		wl.ID = uuid.NewString()
	}
	wl.CreatedAt = time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return WordList{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	_, err = tx.ExecContext(ctx, `INSERT INTO word_lists (id,unit_id,owner_id,name,created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		wl.ID, wl.UnitID, nullIfEmpty(wl.OwnerID), wl.Name, wl.CreatedAt.Unix())
	if err != nil {
		return WordList{}, err
	}
	for i := range words {
		if words[i].ID == "" {
			words[i].ID = uuid.NewString()
		}
		words[i].WordListID = wl.ID
		_, err = tx.ExecContext(ctx, `INSERT INTO words (id,word_list_id,turkish,uzbek,example_sentence,note)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			words[i].ID, wl.ID, words[i].Turkish, words[i].Uzbek, words[i].ExampleSentence, words[i].Note)
		if err != nil {
			return WordList{}, err
		}
	}
	return wl, nil
}

func (s *SQLStore) WordLists(ctx context.Context, unitID string) ([]WordList, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,unit_id,owner_id,name,created_at
		FROM word_lists WHERE unit_id=$1 ORDER BY created_at`, unitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []WordList
	for rows.Next() {
		wl, err := scanWordList(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, wl)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetWordList(ctx context.Context, id string) (WordList, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,unit_id,owner_id,name,created_at FROM word_lists WHERE id=$1`, id)
	wl, err := scanWordList(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return WordList{}, ErrNotFound
		}
		return WordList{}, err
	}
	return wl, nil
}

func (s *SQLStore) DeleteWordList(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM word_lists WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Words(ctx context.Context, wordListID string) ([]Word, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,word_list_id,turkish,uzbek,example_sentence,note
		FROM words WHERE word_list_id=$1 ORDER BY turkish`, wordListID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWords(rows)
}

func (s *SQLStore) WordsForLevel(ctx context.Context, level string) ([]Word, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT w.id,w.word_list_id,w.turkish,w.uzbek,w.example_sentence,w.note
		FROM words w
		JOIN word_lists wl ON w.word_list_id = wl.id
		JOIN units u ON wl.unit_id = u.id
		WHERE u.level=$1`, level)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWords(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWordList(r rowScanner) (WordList, error) {
	var wl WordList
	var owner sql.NullString
	var created int64
	if err := r.Scan(&wl.ID, &wl.UnitID, &owner, &wl.Name, &created); err != nil {
		return WordList{}, err
	}
	wl.OwnerID = owner.String
	wl.CreatedAt = time.Unix(created, 0)
	return wl, nil
}

func collectWords(rows *sql.Rows) ([]Word, error) {
	var out []Word
	for rows.Next() {
		var w Word
		if err := rows.Scan(&w.ID, &w.WordListID, &w.Turkish, &w.Uzbek, &w.ExampleSentence, &w.Note); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
