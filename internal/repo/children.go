package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tripshare/backend/internal/domain"
)

// Child rows (points, photos, places) are always written inside the
// transaction that owns the parent trip. Positions are assigned from the
// index in the supplied slice; any position the caller set is ignored.
// Each insert is a single statement over unnest() so a collection of any
// size costs one round trip.

func replacePoints(ctx context.Context, tx pgx.Tx, tripID uuid.UUID, points []domain.Point) error {
	if _, err := tx.Exec(ctx, `DELETE FROM trip_points WHERE trip_id = @trip_id`, pgx.NamedArgs{"trip_id": tripID}); err != nil {
		return storeErr("replacePoints: delete", err)
	}
	return insertPoints(ctx, tx, tripID, points)
}

func insertPoints(ctx context.Context, tx pgx.Tx, tripID uuid.UUID, points []domain.Point) error {
	if len(points) == 0 {
		return nil
	}
	lats := make([]float64, len(points))
	lngs := make([]float64, len(points))
	positions := make([]int32, len(points))
	for i, p := range points {
		lats[i], lngs[i], positions[i] = p.Lat, p.Lng, int32(i)
	}

	const q = `
		INSERT INTO trip_points (trip_id, lat, lng, position)
		SELECT @trip_id, u.lat, u.lng, u.position
		FROM unnest(@lats::float8[], @lngs::float8[], @positions::int4[]) AS u(lat, lng, position)`

	_, err := tx.Exec(ctx, q, pgx.NamedArgs{
		"trip_id":   tripID,
		"lats":      lats,
		"lngs":      lngs,
		"positions": positions,
	})
	if err != nil {
		return storeErr("insertPoints", err)
	}
	return nil
}

func replacePhotos(ctx context.Context, tx pgx.Tx, tripID uuid.UUID, photos []domain.Photo) error {
	if _, err := tx.Exec(ctx, `DELETE FROM trip_photos WHERE trip_id = @trip_id`, pgx.NamedArgs{"trip_id": tripID}); err != nil {
		return storeErr("replacePhotos: delete", err)
	}
	return insertPhotos(ctx, tx, tripID, photos)
}

func insertPhotos(ctx context.Context, tx pgx.Tx, tripID uuid.UUID, photos []domain.Photo) error {
	if len(photos) == 0 {
		return nil
	}
	urls := make([]string, len(photos))
	captions := make([]*string, len(photos))
	positions := make([]int32, len(photos))
	for i, p := range photos {
		urls[i], captions[i], positions[i] = p.URL, p.Caption, int32(i)
	}

	const q = `
		INSERT INTO trip_photos (trip_id, url, caption, position)
		SELECT @trip_id, u.url, u.caption, u.position
		FROM unnest(@urls::text[], @captions::text[], @positions::int4[]) AS u(url, caption, position)`

	_, err := tx.Exec(ctx, q, pgx.NamedArgs{
		"trip_id":   tripID,
		"urls":      urls,
		"captions":  captions,
		"positions": positions,
	})
	if err != nil {
		return storeErr("insertPhotos", err)
	}
	return nil
}

func replacePlaces(ctx context.Context, tx pgx.Tx, tripID uuid.UUID, places []domain.Place) error {
	if _, err := tx.Exec(ctx, `DELETE FROM trip_places WHERE trip_id = @trip_id`, pgx.NamedArgs{"trip_id": tripID}); err != nil {
		return storeErr("replacePlaces: delete", err)
	}
	return insertPlaces(ctx, tx, tripID, places)
}

func insertPlaces(ctx context.Context, tx pgx.Tx, tripID uuid.UUID, places []domain.Place) error {
	if len(places) == 0 {
		return nil
	}
	n := len(places)
	names, types := make([]string, n), make([]string, n)
	notes, addresses, urls := make([]*string, n), make([]*string, n), make([]*string, n)
	positions := make([]int32, n)
	for i, p := range places {
		names[i], types[i] = p.Name, string(p.Type)
		notes[i], addresses[i], urls[i] = p.Notes, p.Address, p.URL
		positions[i] = int32(i)
	}

	const q = `
		INSERT INTO trip_places (trip_id, name, type, notes, address, url, position)
		SELECT @trip_id, u.name, u.type, u.notes, u.address, u.url, u.position
		FROM unnest(@names::text[], @types::text[], @notes::text[], @addresses::text[], @urls::text[], @positions::int4[])
		     AS u(name, type, notes, address, url, position)`

	_, err := tx.Exec(ctx, q, pgx.NamedArgs{
		"trip_id":   tripID,
		"names":     names,
		"types":     types,
		"notes":     notes,
		"addresses": addresses,
		"urls":      urls,
		"positions": positions,
	})
	if err != nil {
		return storeErr("insertPlaces", err)
	}
	return nil
}

// Reads sort by position; the id tiebreak keeps sparse or duplicate
// positions in a stable order.

func listPoints(ctx context.Context, q db, tripID uuid.UUID) ([]domain.Point, error) {
	rows, err := q.Query(ctx, `
		SELECT lat, lng, position FROM trip_points
		WHERE trip_id = @trip_id ORDER BY position, id`, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, storeErr("listPoints", err)
	}
	defer rows.Close()

	points := []domain.Point{}
	for rows.Next() {
		var (
			p   domain.Point
			pos int32
		)
		if err := rows.Scan(&p.Lat, &p.Lng, &pos); err != nil {
			return nil, storeErr("listPoints: scan", err)
		}
		p.Position = int(pos)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("listPoints: rows", err)
	}
	return points, nil
}

func listPhotos(ctx context.Context, q db, tripID uuid.UUID) ([]domain.Photo, error) {
	rows, err := q.Query(ctx, `
		SELECT id, url, caption, position FROM trip_photos
		WHERE trip_id = @trip_id ORDER BY position, id`, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, storeErr("listPhotos", err)
	}
	defer rows.Close()

	photos := []domain.Photo{}
	for rows.Next() {
		var (
			p       domain.Photo
			id      pgtype.UUID
			caption pgtype.Text
			pos     int32
		)
		if err := rows.Scan(&id, &p.URL, &caption, &pos); err != nil {
			return nil, storeErr("listPhotos: scan", err)
		}
		p.ID = uuid.UUID(id.Bytes)
		p.Caption = textPtr(caption)
		p.Position = int(pos)
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("listPhotos: rows", err)
	}
	return photos, nil
}

func listPlaces(ctx context.Context, q db, tripID uuid.UUID) ([]domain.Place, error) {
	rows, err := q.Query(ctx, `
		SELECT id, name, type, notes, address, url, position FROM trip_places
		WHERE trip_id = @trip_id ORDER BY position, id`, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, storeErr("listPlaces", err)
	}
	defer rows.Close()

	places := []domain.Place{}
	for rows.Next() {
		var (
			p                   domain.Place
			id                  pgtype.UUID
			typ                 string
			notes, address, url pgtype.Text
			pos                 int32
		)
		if err := rows.Scan(&id, &p.Name, &typ, &notes, &address, &url, &pos); err != nil {
			return nil, storeErr("listPlaces: scan", err)
		}
		p.ID = uuid.UUID(id.Bytes)
		p.Type = domain.PlaceType(typ)
		p.Notes, p.Address, p.URL = textPtr(notes), textPtr(address), textPtr(url)
		p.Position = int(pos)
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("listPlaces: rows", err)
	}
	return places, nil
}
