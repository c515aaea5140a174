package locations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists locations.
type Repository interface {
	Create(ctx context.Context, loc Location) error
	List(ctx context.Context) ([]Location, error)
	Get(ctx context.Context, id string) (Location, error)
}

// DB is the subset of *pgxpool.Pool the repository uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ DB = (*pgxpool.Pool)(nil)

// PostgresRepository stores locations in PostgreSQL.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectLocation = `SELECT id, name, description, latitude, longitude, behavior, documented, created_by, created_at
        FROM locations`

// Create inserts a location record.
func (r *PostgresRepository) Create(ctx context.Context, loc Location) error {
	locID, err := uuid.Parse(loc.ID)
	if err != nil {
		return fmt.Errorf("parse location id: %w", err)
	}
	var createdBy *uuid.UUID
	if loc.CreatedBy != "" {
		id, err := uuid.Parse(loc.CreatedBy)
		if err != nil {
			return fmt.Errorf("parse creator id: %w", err)
		}
		createdBy = &id
	}
	_, err = r.db.Exec(ctx, `INSERT INTO locations (id, name, description, latitude, longitude, behavior, documented, created_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		locID, loc.Name, loc.Description, loc.Latitude, loc.Longitude, loc.Behavior, loc.Documented, createdBy, loc.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

// List returns every location in submission order.
func (r *PostgresRepository) List(ctx context.Context) ([]Location, error) {
	rows, err := r.db.Query(ctx, selectLocation+` ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	out := []Location{}
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locations: %w", err)
	}
	return out, nil
}

// Get fetches a location by identifier. Malformed identifiers are reported as not found.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Location, error) {
	locID, err := uuid.Parse(id)
	if err != nil {
		return Location{}, ErrNotFound
	}
	loc, err := scanLocation(r.db.QueryRow(ctx, selectLocation+` WHERE id = $1`, locID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Location{}, ErrNotFound
	}
	return loc, err
}

func scanLocation(row pgx.Row) (Location, error) {
	var (
		loc       Location
		id        uuid.UUID
		createdBy *uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&id, &loc.Name, &loc.Description, &loc.Latitude, &loc.Longitude,
		&loc.Behavior, &loc.Documented, &createdBy, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Location{}, err
		}
		return Location{}, fmt.Errorf("scan location: %w", err)
	}
	loc.ID = id.String()
	if createdBy != nil {
		loc.CreatedBy = createdBy.String()
	}
	loc.CreatedAt = createdAt.UTC()
	return loc, nil
}
