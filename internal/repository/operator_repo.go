package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"distillation_monitor/internal/models"
)

// ErrOperatorExists is returned by Create when the username is taken.
var ErrOperatorExists = errors.New("operator already exists")

// OperatorSQLite keeps the control-room operators allowed to drive the
// transmission, with their registration and last sign-in times.
type OperatorSQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewOperatorSQLite(db *sql.DB) *OperatorSQLite {
	return &OperatorSQLite{db: db, now: time.Now}
}

var _ Operators = (*OperatorSQLite)(nil)

const (
	insertOperatorSQL           = `INSERT INTO operators (username, password_hash, created_at) VALUES (?, ?, ?)`
	selectOperatorByUsernameSQL = `SELECT id, username, password_hash, created_at, last_sign_in_at FROM operators WHERE username = ?`
	updateOperatorSignInSQL     = `UPDATE operators SET last_sign_in_at = ? WHERE id = ?`
)

// Create registers an operator and returns its ID.
func (r *OperatorSQLite) Create(ctx context.Context, username, passwordHash string) (int, error) {
	res, err := r.db.ExecContext(ctx, insertOperatorSQL, username, passwordHash, r.now().UTC().Format(timestampLayout))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %q", ErrOperatorExists, username)
		}
		return 0, fmt.Errorf("insert operator %q: %w", username, err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for operator %q: %w", username, err)
	}
	return int(lastID), nil
}

// GetByUsername returns (nil, nil) when no operator has that name.
func (r *OperatorSQLite) GetByUsername(ctx context.Context, username string) (*models.Operator, error) {
	var (
		op         models.Operator
		lastSignIn sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, selectOperatorByUsernameSQL, username).
		Scan(&op.ID, &op.Username, &op.PasswordHash, &op.CreatedAt, &lastSignIn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select operator %q: %w", username, err)
	}
	op.CreatedAt = op.CreatedAt.UTC()
	if lastSignIn.Valid {
		t := lastSignIn.Time.UTC()
		op.LastSignInAt = &t
	}
	return &op, nil
}

// RecordSignIn stamps the operator's last successful sign-in.
func (r *OperatorSQLite) RecordSignIn(ctx context.Context, id int, at time.Time) error {
	res, err := r.db.ExecContext(ctx, updateOperatorSignInSQL, at.UTC().Format(timestampLayout), id)
	if err != nil {
		return fmt.Errorf("record sign-in for operator %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("record sign-in for operator %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
