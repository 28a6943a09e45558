package userrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/GlebRadaev/venuebooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
)

var (
	columns   = []string{"id", "name", "email", "password_hash", "balance", "role", "is_verified", "created_at"}
	createdAt = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	repo := New(mockDB)
	t.Cleanup(mockDB.Close)

	return repo, mockDB
}

func TestRepository_FindByEmail(t *testing.T) {
	repo, mock := NewMock(t)
	query := regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE email = $1")

	tests := []struct {
		name      string
		email     string
		mockSetup func()
		expectErr bool
		result    *domain.User
	}{
		{
			name:  "User found",
			email: "ali@example.com",
			mockSetup: func() {
				rows := pgxmock.NewRows(columns).
					AddRow(1, "Ali", "ali@example.com", "hash", 1000.0, "user", false, createdAt)
				mock.ExpectQuery(query).WithArgs("ali@example.com").WillReturnRows(rows)
			},
			result: &domain.User{
				ID:           1,
				Name:         "Ali",
				Email:        "ali@example.com",
				PasswordHash: "hash",
				Balance:      1000,
				Role:         "user",
				CreatedAt:    createdAt,
			},
		},
		{
			name:  "User not found",
			email: "nobody@example.com",
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs("nobody@example.com").WillReturnError(pgx.ErrNoRows)
			},
			result: nil,
		},
		{
			name:  "Database error",
			email: "ali@example.com",
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs("ali@example.com").WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.FindByEmail(context.Background(), tt.email)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.result, result)
			}
		})
	}
}

func TestRepository_FindByID(t *testing.T) {
	repo, mock := NewMock(t)
	query := regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE id = $1")

	tests := []struct {
		name      string
		id        int
		mockSetup func()
		expectErr bool
		expectNil bool
	}{
		{
			name: "User found",
			id:   3,
			mockSetup: func() {
				rows := pgxmock.NewRows(columns).
					AddRow(3, "Sara", "sara@example.com", "hash", 10000.0, "admin", true, createdAt)
				mock.ExpectQuery(query).WithArgs(3).WillReturnRows(rows)
			},
		},
		{
			name: "User not found",
			id:   4,
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(4).WillReturnError(pgx.ErrNoRows)
			},
			expectNil: true,
		},
		{
			name: "Database error",
			id:   5,
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(5).WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.FindByID(context.Background(), tt.id)
			switch {
			case tt.expectErr:
				assert.Error(t, err)
			case tt.expectNil:
				assert.NoError(t, err)
				assert.Nil(t, result)
			default:
				assert.NoError(t, err)
				assert.Equal(t, tt.id, result.ID)
				assert.True(t, result.IsVerified)
			}
		})
	}
}

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)
	query := regexp.QuoteMeta(`
		INSERT INTO users (name, email, password_hash, balance, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`)

	tests := []struct {
		name      string
		user      *domain.User
		mockSetup func()
		expectErr bool
	}{
		{
			name: "Create user successfully",
			user: &domain.User{Name: "Ali", Email: "ali@example.com", PasswordHash: "hash", Balance: 1000, Role: "user"},
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs("Ali", "ali@example.com", "hash", 1000.0, "user").
					WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(1, createdAt))
			},
		},
		{
			name: "Duplicate email",
			user: &domain.User{Name: "Ali", Email: "ali@example.com", PasswordHash: "hash", Balance: 1000, Role: "user"},
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs("Ali", "ali@example.com", "hash", 1000.0, "user").
					WillReturnError(errors.New("duplicate key value violates unique constraint"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.Create(context.Background(), tt.user)
			if tt.expectErr {
				assert.Error(t, err)
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, 1, result.ID)
				assert.Equal(t, createdAt, result.CreatedAt)
			}
		})
	}
}

func TestRepository_Update(t *testing.T) {
	repo, mock := NewMock(t)
	query := regexp.QuoteMeta(`
		UPDATE users
		SET name = $1, email = $2, password_hash = $3
		WHERE id = $4
		RETURNING ` + userColumns)

	user := &domain.User{ID: 1, Name: "Ali Khan", Email: "ali@example.com", PasswordHash: "hash"}

	mock.ExpectQuery(query).
		WithArgs("Ali Khan", "ali@example.com", "hash", 1).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(1, "Ali Khan", "ali@example.com", "hash", 700.0, "user", true, createdAt))
	updated, err := repo.Update(context.Background(), user)
	assert.NoError(t, err)
	assert.Equal(t, 700.0, updated.Balance)

	mock.ExpectQuery(query).
		WithArgs("Ali Khan", "ali@example.com", "hash", 1).
		WillReturnError(pgx.ErrNoRows)
	updated, err = repo.Update(context.Background(), user)
	assert.NoError(t, err)
	assert.Nil(t, updated)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SetVerified(t *testing.T) {
	repo, mock := NewMock(t)
	query := regexp.QuoteMeta("UPDATE users SET is_verified = TRUE WHERE id = $1")

	tests := []struct {
		name      string
		mockSetup func()
		expected  bool
		expectErr bool
	}{
		{
			name: "Verified",
			mockSetup: func() {
				mock.ExpectExec(query).WithArgs(1).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
			expected: true,
		},
		{
			name: "Unknown user",
			mockSetup: func() {
				mock.ExpectExec(query).WithArgs(1).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			expected: false,
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectExec(query).WithArgs(1).WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			ok, err := repo.SetVerified(context.Background(), 1)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, ok)
			}
		})
	}
}
