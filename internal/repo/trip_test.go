package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripshare/backend/internal/domain"
	"github.com/tripshare/backend/internal/repo"
	"github.com/tripshare/backend/testutil"
)

// newTestTx opens a transaction against the test database. The transaction
// is rolled back when the test finishes, giving free per-test isolation.
//
// Requires TEST_DATABASE_URL to be set; TestMain applies the migrations.
func newTestTx(t *testing.T) pgx.Tx {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")

	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})
	return tx
}

// newTestRepos returns trip and user repos sharing one rolled-back tx.
func newTestRepos(t *testing.T) (repo.TripRepo, repo.UserRepo) {
	t.Helper()
	tx := newTestTx(t)
	return repo.NewTripRepo(tx), repo.NewUserRepo(tx)
}

// createAuthor inserts a user so trips can reference it.
func createAuthor(t *testing.T, users repo.UserRepo, email string) domain.User {
	t.Helper()
	u, err := users.Create(context.Background(), domain.User{Email: email, Name: "Ada", Role: domain.RoleUser})
	require.NoError(t, err)
	return u
}

func ptr[T any](v T) *T { return &v }

// tripFixture returns a domain.Trip with sensible defaults for use in tests.
// Callers can override individual fields after calling this function.
func tripFixture(author *domain.User) domain.Trip {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	t := domain.Trip{
		Destination:   "Lisbon",
		CostCents:     98000,
		Currency:      "EUR",
		BookingMethod: "direct",
		StartDate:     &start,
		Details:       "Tram 28 at dawn",
		IsPublic:      true,
		AuthorName:    domain.AnonymousAuthor,
		Points: []domain.Point{
			{Lat: 38.71, Lng: -9.14},
			{Lat: 38.69, Lng: -9.21},
		},
		Photos: []domain.Photo{
			{URL: "/uploads/a.jpg", Caption: ptr("Alfama")},
			{URL: "/uploads/b.jpg"},
		},
		Places: []domain.Place{
			{Name: "Time Out Market", Type: domain.PlaceRestaurant},
			{Name: "Belem Tower", Type: domain.PlaceAttraction, URL: ptr("https://example.com")},
		},
	}
	if author != nil {
		t.AuthorID = &author.ID
		t.AuthorName = author.Name
	}
	return t
}

func TestTripRepo_CreateAndGet(t *testing.T) {
	trips, users := newTestRepos(t)
	ctx := context.Background()
	author := createAuthor(t, users, "ada@example.com")

	input := tripFixture(&author)
	id, err := trips.Create(ctx, input)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id, "ID should be DB-generated UUID")

	got, err := trips.GetByID(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, input.Destination, got.Destination)
	assert.Equal(t, int64(98000), got.CostCents)
	assert.Equal(t, "EUR", got.Currency)
	require.NotNil(t, got.StartDate)
	assert.True(t, got.StartDate.Equal(*input.StartDate))
	assert.Nil(t, got.EndDate)
	require.NotNil(t, got.AuthorID)
	assert.Equal(t, author.ID, *got.AuthorID)
	assert.Equal(t, "Ada", got.AuthorName)
	assert.False(t, got.CreatedAt.IsZero(), "CreatedAt should be set by DB")

	require.Len(t, got.Points, 2)
	assert.Equal(t, 0, got.Points[0].Position)
	assert.Equal(t, 1, got.Points[1].Position)
	assert.InDelta(t, 38.69, got.Points[1].Lat, 1e-9)

	require.Len(t, got.Photos, 2)
	assert.Equal(t, "/uploads/a.jpg", got.Photos[0].URL)
	require.NotNil(t, got.Photos[0].Caption)
	assert.Equal(t, "Alfama", *got.Photos[0].Caption)
	assert.Nil(t, got.Photos[1].Caption)

	require.Len(t, got.Places, 2)
	assert.Equal(t, domain.PlaceAttraction, got.Places[1].Type)
	assert.Equal(t, 1, got.Places[1].Position)
}

func TestTripRepo_Create_Anonymous(t *testing.T) {
	trips, _ := newTestRepos(t)
	ctx := context.Background()

	input := tripFixture(nil)
	input.Points, input.Photos, input.Places = nil, nil, nil
	id, err := trips.Create(ctx, input)
	require.NoError(t, err)

	got, err := trips.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got.AuthorID)
	assert.Equal(t, domain.AnonymousAuthor, got.AuthorName)
	assert.Empty(t, got.Points)
	assert.NotNil(t, got.Points, "empty collections are returned as empty slices")
}

func TestTripRepo_GetByID_NotFound(t *testing.T) {
	trips, _ := newTestRepos(t)

	_, err := trips.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_GetAuthor(t *testing.T) {
	trips, users := newTestRepos(t)
	ctx := context.Background()
	author := createAuthor(t, users, "ada@example.com")

	id, err := trips.Create(ctx, tripFixture(&author))
	require.NoError(t, err)

	got, err := trips.GetAuthor(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, author.ID, *got)

	_, err = trips.GetAuthor(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_List_Filters(t *testing.T) {
	trips, users := newTestRepos(t)
	ctx := context.Background()
	ada := createAuthor(t, users, "ada@example.com")

	public := tripFixture(&ada)
	private := tripFixture(&ada)
	private.Destination = "Porto"
	private.IsPublic = false
	anon := tripFixture(nil)
	anon.Destination = "Faro"

	for _, tr := range []domain.Trip{public, private, anon} {
		_, err := trips.Create(ctx, tr)
		require.NoError(t, err)
	}
	page := domain.NewPaginationParams(nil, nil)

	mine, total, err := trips.List(ctx, domain.TripFilter{AuthorID: &ada.ID}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, mine, 2)

	byName, total, err := trips.List(ctx, domain.TripFilter{PublicOnly: true, AuthorName: ptr("Ada")}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, byName, 1)
	assert.Equal(t, "Lisbon", byName[0].Destination)
	assert.Nil(t, byName[0].Places, "list items carry no child collections")
}

func TestTripRepo_List_Pagination(t *testing.T) {
	trips, _ := newTestRepos(t)
	ctx := context.Background()

	for range 3 {
		_, err := trips.Create(ctx, tripFixture(nil))
		require.NoError(t, err)
	}
	page, limit := 2, 2
	got, total, err := trips.List(ctx, domain.TripFilter{AuthorName: ptr(domain.AnonymousAuthor)},
		domain.NewPaginationParams(&page, &limit))
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, got, 1)
}

func TestTripRepo_Update_ScalarsOnly(t *testing.T) {
	trips, users := newTestRepos(t)
	ctx := context.Background()
	author := createAuthor(t, users, "ada@example.com")

	id, err := trips.Create(ctx, tripFixture(&author))
	require.NoError(t, err)

	err = trips.Update(ctx, id, domain.TripChanges{
		Destination: domain.Some("Sintra"),
		StartDate:   domain.Some[*time.Time](nil),
	})
	require.NoError(t, err)

	got, err := trips.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Sintra", got.Destination)
	assert.Nil(t, got.StartDate, "explicit nil clears the date")
	assert.Equal(t, int64(98000), got.CostCents, "absent fields are untouched")
	assert.Len(t, got.Places, 2, "absent collections are untouched")
}

func TestTripRepo_Update_ReplacesCollections(t *testing.T) {
	trips, users := newTestRepos(t)
	ctx := context.Background()
	author := createAuthor(t, users, "ada@example.com")

	id, err := trips.Create(ctx, tripFixture(&author))
	require.NoError(t, err)

	err = trips.Update(ctx, id, domain.TripChanges{
		Points: domain.Some([]domain.Point{}),
		Places: domain.Some([]domain.Place{{Name: "Pasteis de Belem", Type: domain.PlaceRestaurant}}),
	})
	require.NoError(t, err)

	got, err := trips.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, got.Points, "an empty set collection clears it")
	require.Len(t, got.Places, 1)
	assert.Equal(t, "Pasteis de Belem", got.Places[0].Name)
	assert.Equal(t, 0, got.Places[0].Position)
	assert.Len(t, got.Photos, 2)
}

func TestTripRepo_Update_NotFound(t *testing.T) {
	trips, _ := newTestRepos(t)

	err := trips.Update(context.Background(), uuid.New(), domain.TripChanges{Destination: domain.Some("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_Delete_Cascades(t *testing.T) {
	tx := newTestTx(t)
	trips, users := repo.NewTripRepo(tx), repo.NewUserRepo(tx)
	ctx := context.Background()
	author := createAuthor(t, users, "ada@example.com")

	id, err := trips.Create(ctx, tripFixture(&author))
	require.NoError(t, err)

	require.NoError(t, trips.Delete(ctx, id))

	var children int
	err = tx.QueryRow(ctx, `
		SELECT (SELECT count(*) FROM trip_points WHERE trip_id = $1)
		     + (SELECT count(*) FROM trip_photos WHERE trip_id = $1)
		     + (SELECT count(*) FROM trip_places WHERE trip_id = $1)`, id).Scan(&children)
	require.NoError(t, err)
	assert.Zero(t, children)

	assert.ErrorIs(t, trips.Delete(ctx, id), domain.ErrNotFound)
}
