package venuerepo

import (
	"context"
	"errors"

	"github.com/GlebRadaev/venuebooking/internal/domain"
	"github.com/GlebRadaev/venuebooking/internal/pg"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const venueColumns = "id, name, location, day_price, night_price, capacity, status, images, latitude, longitude, created_at, updated_at"

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func scanVenue(row pgx.Row) (*domain.Venue, error) {
	var v domain.Venue
	err := row.Scan(&v.ID, &v.Name, &v.Location, &v.DayPrice, &v.NightPrice, &v.Capacity, &v.Status, &v.Images, &v.Latitude, &v.Longitude, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// List returns all venues, or only those in location when it is not empty.
func (r *Repository) List(ctx context.Context, location string) ([]domain.Venue, error) {
	query := "SELECT " + venueColumns + " FROM venues ORDER BY id"
	args := []any{}
	if location != "" {
		query = "SELECT " + venueColumns + " FROM venues WHERE location = $1 ORDER BY id"
		args = append(args, location)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		zap.L().Error("can't get venues", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	venues := make([]domain.Venue, 0)
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			zap.L().Error("can't scan venue row", zap.Error(err))
			return nil, err
		}
		venues = append(venues, *v)
	}
	if err := rows.Err(); err != nil {
		zap.L().Error("can't iterate venue rows", zap.Error(err))
		return nil, err
	}
	return venues, nil
}

func (r *Repository) FindByID(ctx context.Context, id int) (*domain.Venue, error) {
	v, err := scanVenue(r.db.QueryRow(ctx, "SELECT "+venueColumns+" FROM venues WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find venue", zap.Error(err))
		return nil, err
	}
	return v, nil
}

func (r *Repository) Create(ctx context.Context, venue *domain.Venue) (*domain.Venue, error) {
	query := `
		INSERT INTO venues (name, location, day_price, night_price, capacity, status, images, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		venue.Name, venue.Location, venue.DayPrice, venue.NightPrice, venue.Capacity,
		venue.Status, venue.Images, venue.Latitude, venue.Longitude,
	).Scan(&venue.ID, &venue.CreatedAt, &venue.UpdatedAt)
	if err != nil {
		zap.L().Error("can't save venue", zap.Error(err))
		return nil, err
	}
	return venue, nil
}

// Update never touches status.
func (r *Repository) Update(ctx context.Context, venue *domain.Venue) (*domain.Venue, error) {
	query := `
		UPDATE venues
		SET name = $1, location = $2, day_price = $3, night_price = $4, capacity = $5,
			images = $6, latitude = $7, longitude = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING ` + venueColumns
	updated, err := scanVenue(r.db.QueryRow(ctx, query,
		venue.Name, venue.Location, venue.DayPrice, venue.NightPrice, venue.Capacity,
		venue.Images, venue.Latitude, venue.Longitude, venue.ID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't update venue", zap.Error(err))
		return nil, err
	}
	return updated, nil
}

func (r *Repository) Delete(ctx context.Context, id int) (bool, error) {
	tag, err := r.db.Exec(ctx, "DELETE FROM venues WHERE id = $1", id)
	if err != nil {
		zap.L().Error("can't delete venue", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) SetStatus(ctx context.Context, id int, status string) (bool, error) {
	tag, err := r.db.Exec(ctx, "UPDATE venues SET status = $1, updated_at = NOW() WHERE id = $2", status, id)
	if err != nil {
		zap.L().Error("can't set venue status", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
