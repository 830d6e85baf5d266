package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"distillation_monitor/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

var operatorClock = time.Date(2026, 2, 10, 7, 30, 0, 0, time.UTC)

func newMockOperatorRepo(t *testing.T) (*OperatorSQLite, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	repo := NewOperatorSQLite(db)
	repo.now = func() time.Time { return operatorClock }
	cleanup := func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	}
	return repo, mock, cleanup
}

func TestOperatorSQLite_Create(t *testing.T) {
	created := operatorClock.Format(timestampLayout)
	tests := []struct {
		name       string
		username   string
		mockExpect func(sqlmock.Sqlmock)
		wantID     int
		wantErr    string
		wantIs     error
	}{
		{
			name:     "success",
			username: "shift-a",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(insertOperatorSQL)).
					WithArgs("shift-a", "h123", created).
					WillReturnResult(sqlmock.NewResult(42, 1))
			},
			wantID: 42,
		},
		{
			name:     "username taken",
			username: "shift-b",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(insertOperatorSQL)).
					WithArgs("shift-b", "h123", created).
					WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: operators.username (2067)"))
			},
			wantErr: "shift-b",
			wantIs:  ErrOperatorExists,
		},
		{
			name:     "exec error",
			username: "shift-c",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(insertOperatorSQL)).
					WithArgs("shift-c", "h123", created).
					WillReturnError(errors.New("database is locked"))
			},
			wantErr: "insert operator",
		},
		{
			name:     "last insert id error",
			username: "shift-d",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(insertOperatorSQL)).
					WithArgs("shift-d", "h123", created).
					WillReturnResult(sqlmock.NewErrorResult(errors.New("no last id")))
			},
			wantErr: "get last insert id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := newMockOperatorRepo(t)
			defer cleanup()

			tt.mockExpect(mock)

			id, err := repo.Create(context.Background(), tt.username, "h123")
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
					t.Fatalf("expected %v, got %v", tt.wantIs, err)
				}
				if id != 0 {
					t.Fatalf("expected id=0 on error, got %d", id)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != tt.wantID {
				t.Fatalf("unexpected id: want %d, got %d", tt.wantID, id)
			}
		})
	}
}

func TestOperatorSQLite_GetByUsername(t *testing.T) {
	signedIn := operatorClock.Add(time.Hour)
	columns := []string{"id", "username", "password_hash", "created_at", "last_sign_in_at"}

	tests := []struct {
		name       string
		username   string
		mockExpect func(sqlmock.Sqlmock)
		want       *models.Operator
		wantErr    string
	}{
		{
			name:     "never signed in",
			username: "shift-a",
			mockExpect: func(m sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(columns).AddRow(7, "shift-a", "h123", operatorClock, nil)
				m.ExpectQuery(regexp.QuoteMeta(selectOperatorByUsernameSQL)).
					WithArgs("shift-a").
					WillReturnRows(rows)
			},
			want: &models.Operator{ID: 7, Username: "shift-a", PasswordHash: "h123", CreatedAt: operatorClock},
		},
		{
			name:     "signed in before",
			username: "shift-b",
			mockExpect: func(m sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(columns).AddRow(8, "shift-b", "h456", operatorClock, signedIn)
				m.ExpectQuery(regexp.QuoteMeta(selectOperatorByUsernameSQL)).
					WithArgs("shift-b").
					WillReturnRows(rows)
			},
			want: &models.Operator{ID: 8, Username: "shift-b", PasswordHash: "h456", CreatedAt: operatorClock, LastSignInAt: &signedIn},
		},
		{
			name:     "not found",
			username: "missing",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectOperatorByUsernameSQL)).
					WithArgs("missing").
					WillReturnError(sql.ErrNoRows)
			},
		},
		{
			name:     "query error",
			username: "shift-c",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectOperatorByUsernameSQL)).
					WithArgs("shift-c").
					WillReturnError(errors.New("db query failed"))
			},
			wantErr: "select operator",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := newMockOperatorRepo(t)
			defer cleanup()

			tt.mockExpect(mock)

			op, err := repo.GetByUsername(context.Background(), tt.username)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				if op != nil {
					t.Fatalf("expected nil operator on error, got %+v", op)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want == nil {
				if op != nil {
					t.Fatalf("expected nil operator, got %+v", op)
				}
				return
			}
			if op == nil || op.ID != tt.want.ID || op.Username != tt.want.Username ||
				op.PasswordHash != tt.want.PasswordHash || !op.CreatedAt.Equal(tt.want.CreatedAt) {
				t.Fatalf("unexpected operator: want %+v, got %+v", tt.want, op)
			}
			switch {
			case tt.want.LastSignInAt == nil && op.LastSignInAt != nil:
				t.Fatalf("expected no sign-in time, got %v", op.LastSignInAt)
			case tt.want.LastSignInAt != nil && (op.LastSignInAt == nil || !op.LastSignInAt.Equal(*tt.want.LastSignInAt)):
				t.Fatalf("sign-in time: want %v, got %v", tt.want.LastSignInAt, op.LastSignInAt)
			}
		})
	}
}

func TestOperatorSQLite_RecordSignIn(t *testing.T) {
	at := operatorClock.Add(2 * time.Hour)

	t.Run("stamps the row", func(t *testing.T) {
		repo, mock, cleanup := newMockOperatorRepo(t)
		defer cleanup()
		mock.ExpectExec(regexp.QuoteMeta(updateOperatorSignInSQL)).
			WithArgs(at.Format(timestampLayout), 7).
			WillReturnResult(sqlmock.NewResult(0, 1))

		if err := repo.RecordSignIn(context.Background(), 7, at); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("unknown operator", func(t *testing.T) {
		repo, mock, cleanup := newMockOperatorRepo(t)
		defer cleanup()
		mock.ExpectExec(regexp.QuoteMeta(updateOperatorSignInSQL)).
			WithArgs(at.Format(timestampLayout), 99).
			WillReturnResult(sqlmock.NewResult(0, 0))

		if err := repo.RecordSignIn(context.Background(), 99, at); !errors.Is(err, sql.ErrNoRows) {
			t.Fatalf("expected sql.ErrNoRows, got %v", err)
		}
	})

	t.Run("exec error", func(t *testing.T) {
		repo, mock, cleanup := newMockOperatorRepo(t)
		defer cleanup()
		mock.ExpectExec(regexp.QuoteMeta(updateOperatorSignInSQL)).
			WithArgs(at.Format(timestampLayout), 7).
			WillReturnError(errors.New("disk I/O error"))

		if err := repo.RecordSignIn(context.Background(), 7, at); err == nil || !strings.Contains(err.Error(), "record sign-in") {
			t.Fatalf("expected wrapped error, got %v", err)
		}
	})
}
