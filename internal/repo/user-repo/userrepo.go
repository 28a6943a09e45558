package userrepo

import (
	"context"
	"errors"

	"github.com/GlebRadaev/venuebooking/internal/domain"
	"github.com/GlebRadaev/venuebooking/internal/pg"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const userColumns = "id, name, email, password_hash, balance, role, is_verified, created_at"

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Balance, &user.Role, &user.IsVerified, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (repo *Repository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := scanUser(repo.db.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find user by email", zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (repo *Repository) FindByID(ctx context.Context, id int) (*domain.User, error) {
	user, err := scanUser(repo.db.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find user by id", zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (repo *Repository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (name, email, password_hash, balance, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := repo.db.QueryRow(ctx, query, user.Name, user.Email, user.PasswordHash, user.Balance, user.Role).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		zap.L().Error("can't save user", zap.Error(err))
		return nil, err
	}
	return user, nil
}

// Update writes profile fields only. Balance changes go through the ledger.
func (repo *Repository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
		UPDATE users
		SET name = $1, email = $2, password_hash = $3
		WHERE id = $4
		RETURNING ` + userColumns
	updated, err := scanUser(repo.db.QueryRow(ctx, query, user.Name, user.Email, user.PasswordHash, user.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't update user", zap.Error(err))
		return nil, err
	}
	return updated, nil
}

func (repo *Repository) SetVerified(ctx context.Context, id int) (bool, error) {
	tag, err := repo.db.Exec(ctx, "UPDATE users SET is_verified = TRUE WHERE id = $1", id)
	if err != nil {
		zap.L().Error("can't verify user", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
