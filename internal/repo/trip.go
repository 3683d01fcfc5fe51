// Package repo contains all database access logic for the trip-sharing API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tripshare/backend/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, and unit
// tests to pass a pgxmock pool. On a pgx.Tx, Begin opens a savepoint.
type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TripRepo defines the persistence operations for the Trip aggregate.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// Create inserts the trip row and all of its child rows in one
	// transaction and returns the generated id.
	Create(ctx context.Context, trip domain.Trip) (uuid.UUID, error)

	// GetByID returns the full aggregate with each child list sorted by
	// position. Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// GetAuthor returns only the author reference, which is nil for
	// anonymous trips. Returns domain.ErrNotFound if the trip does not exist.
	GetAuthor(ctx context.Context, id uuid.UUID) (*uuid.UUID, error)

	// List returns one page of trips matching f, newest first, plus the
	// total number of matches. Child collections are not loaded.
	List(ctx context.Context, f domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error)

	// Update applies the set fields of c. Every child collection that is set
	// is deleted and reinserted, even when the new collection is empty.
	// Returns domain.ErrNotFound if the trip does not exist.
	Update(ctx context.Context, id uuid.UUID, c domain.TripChanges) error

	// Delete removes a trip and, through ON DELETE CASCADE, its children.
	// Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, destination, cost_cents, currency, booking_method, start_date, end_date,
		details, is_public, author_id, author_name, created_at, updated_at`

// Create inserts a new trip and its children atomically.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (id uuid.UUID, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return uuid.Nil, storeErr("repo.TripRepo.Create: begin", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	const q = `
		INSERT INTO trips (destination, cost_cents, currency, booking_method, start_date, end_date,
		                   details, is_public, author_id, author_name)
		VALUES (@destination, @cost_cents, @currency, @booking_method, @start_date, @end_date,
		        @details, @is_public, @author_id, @author_name)
		RETURNING id`

	args := pgx.NamedArgs{
		"destination":    trip.Destination,
		"cost_cents":     trip.CostCents,
		"currency":       trip.Currency,
		"booking_method": trip.BookingMethod,
		"start_date":     trip.StartDate, // nil becomes NULL
		"end_date":       trip.EndDate,
		"details":        trip.Details,
		"is_public":      trip.IsPublic,
		"author_id":      trip.AuthorID,
		"author_name":    trip.AuthorName,
	}

	var rawID pgtype.UUID
	if err = tx.QueryRow(ctx, q, args).Scan(&rawID); err != nil {
		if isForeignKeyViolation(err) {
			// author_id is the only foreign key on trips: the session outlived its account.
			return uuid.Nil, fmt.Errorf("repo.TripRepo.Create: %w: author account no longer exists", domain.ErrUnauthorized)
		}
		return uuid.Nil, storeErr("repo.TripRepo.Create", err)
	}
	id = uuid.UUID(rawID.Bytes)

	if err = insertPoints(ctx, tx, id, trip.Points); err != nil {
		return uuid.Nil, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	if err = insertPhotos(ctx, tx, id, trip.Photos); err != nil {
		return uuid.Nil, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	if err = insertPlaces(ctx, tx, id, trip.Places); err != nil {
		return uuid.Nil, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return uuid.Nil, storeErr("repo.TripRepo.Create: commit", err)
	}
	return id, nil
}

// GetByID retrieves a trip and its child collections.
func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	q := `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	trip, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, storeErr("repo.TripRepo.GetByID", err)
	}

	if trip.Points, err = listPoints(ctx, r.db, id); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	if trip.Photos, err = listPhotos(ctx, r.db, id); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	if trip.Places, err = listPlaces(ctx, r.db, id); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return trip, nil
}

// GetAuthor retrieves the author reference of a trip.
func (r *pgTripRepo) GetAuthor(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	const q = `SELECT author_id FROM trips WHERE id = @id`

	var author pgtype.UUID
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}).Scan(&author); err != nil {
		return nil, storeErr("repo.TripRepo.GetAuthor", err)
	}
	return uuidPtr(author), nil
}

// List returns a page of trips ordered by created_at descending.
// COUNT(*) OVER() returns the unpaginated total in the same query.
func (r *pgTripRepo) List(ctx context.Context, f domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	var where []string
	args := pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()}
	if f.PublicOnly {
		where = append(where, "is_public")
	}
	if f.AuthorID != nil {
		where = append(where, "author_id = @author_id")
		args["author_id"] = *f.AuthorID
	}
	if f.AuthorName != nil {
		where = append(where, "author_name = @author_name")
		args["author_name"] = *f.AuthorName
	}

	q := `SELECT ` + tripColumns + `, COUNT(*) OVER() AS total FROM trips`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC, id LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, 0, storeErr("repo.TripRepo.List", err)
	}
	defer rows.Close()

	trips := []domain.Trip{}
	var total int64
	for rows.Next() {
		t, err := scanTrip(rows, &total)
		if err != nil {
			return nil, 0, storeErr("repo.TripRepo.List: scan", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storeErr("repo.TripRepo.List: rows", err)
	}
	return trips, total, nil
}

// Update applies a partial update. Scalar fields and every supplied child
// collection are written in one transaction, so a reader sees either the
// previous aggregate or the updated one.
func (r *pgTripRepo) Update(ctx context.Context, id uuid.UUID, c domain.TripChanges) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return storeErr("repo.TripRepo.Update: begin", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// updated_at is always touched so a vanished trip shows up as zero rows.
	set := []string{"updated_at = now()"}
	args := pgx.NamedArgs{"id": id}
	assign := func(column string, value any) {
		set = append(set, column+" = @"+column)
		args[column] = value
	}
	if c.Destination.Set {
		assign("destination", c.Destination.Value)
	}
	if c.CostCents.Set {
		assign("cost_cents", c.CostCents.Value)
	}
	if c.Currency.Set {
		assign("currency", c.Currency.Value)
	}
	if c.BookingMethod.Set {
		assign("booking_method", c.BookingMethod.Value)
	}
	if c.StartDate.Set {
		assign("start_date", c.StartDate.Value)
	}
	if c.EndDate.Set {
		assign("end_date", c.EndDate.Value)
	}
	if c.Details.Set {
		assign("details", c.Details.Value)
	}
	if c.IsPublic.Set {
		assign("is_public", c.IsPublic.Value)
	}

	q := `UPDATE trips SET ` + strings.Join(set, ", ") + ` WHERE id = @id`
	tag, err := tx.Exec(ctx, q, args)
	if err != nil {
		return storeErr("repo.TripRepo.Update", err)
	}
	if tag.RowsAffected() == 0 {
		err = fmt.Errorf("repo.TripRepo.Update: %w", domain.ErrNotFound)
		return err
	}

	if c.Points.Set {
		if err = replacePoints(ctx, tx, id, c.Points.Value); err != nil {
			return fmt.Errorf("repo.TripRepo.Update: %w", err)
		}
	}
	if c.Photos.Set {
		if err = replacePhotos(ctx, tx, id, c.Photos.Value); err != nil {
			return fmt.Errorf("repo.TripRepo.Update: %w", err)
		}
	}
	if c.Places.Set {
		if err = replacePlaces(ctx, tx, id, c.Places.Value); err != nil {
			return fmt.Errorf("repo.TripRepo.Update: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return storeErr("repo.TripRepo.Update: commit", err)
	}
	return nil
}

// Delete removes a trip by primary key. Child rows go with it.
func (r *pgTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM trips WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return storeErr("repo.TripRepo.Delete", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scanTrip to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanTrip maps a single row of tripColumns into a domain.Trip. Extra
// destinations are appended after the trip columns (e.g. a window total).
func scanTrip(s scanner, extra ...any) (domain.Trip, error) {
	var (
		t         domain.Trip
		id        pgtype.UUID
		authorID  pgtype.UUID
		startDate pgtype.Timestamptz
		endDate   pgtype.Timestamptz
	)

	dest := []any{
		&id, &t.Destination, &t.CostCents, &t.Currency, &t.BookingMethod, &startDate, &endDate,
		&t.Details, &t.IsPublic, &authorID, &t.AuthorName, &t.CreatedAt, &t.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.AuthorID = uuidPtr(authorID)
	t.StartDate = timePtr(startDate)
	t.EndDate = timePtr(endDate)
	return t, nil
}

// storeErr translates driver errors into domain sentinels and wraps
// everything else as domain.ErrPersistence.
func storeErr(op string, err error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case isForeignKeyViolation(err):
		// A child insert lost its parent trip to a concurrent delete.
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case errors.As(err, &pgErr) && pgErr.Code == "23505":
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	default:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistence, err)
	}
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func uuidPtr(u pgtype.UUID) *uuid.UUID {
	if !u.Valid {
		return nil
	}
	id := uuid.UUID(u.Bytes)
	return &id
}

func timePtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}
