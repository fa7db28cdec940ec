package repository

import (
	"context"
	"testing"
	"time"

	"familytree/internal/database"
	"familytree/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteRepo(t *testing.T) *SQLitePersonsRepository {
	t.Helper()
	db, err := database.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.EnsureSQLiteSchema(db))
	return NewSQLitePersonsRepository(db)
}

func strp(s string) *string { return &s }
func boolp(b bool) *bool    { return &b }
func datep(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestSQLiteInsertThenGet_Roundtrip(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	in := &domain.Person{
		FirstName:   strp("Jane"),
		LastName:    strp("Doe"),
		BirthDate:   datep(1990, time.January, 1),
		IsMale:      boolp(false),
		DataOwnerID: strp("owner-1"),
	}
	id, err := repo.Insert(ctx, in)
	require.NoError(t, err)
	require.Positive(t, id)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Jane", *got.FirstName)
	assert.Equal(t, "Doe", *got.LastName)
	assert.True(t, got.BirthDate.Equal(*in.BirthDate))
	assert.Nil(t, got.DeathDate)
	assert.False(t, *got.IsMale)
	assert.Equal(t, "owner-1", *got.DataOwnerID)
	assert.Equal(t, int64(1), got.RowVersion)
}

func TestSQLiteGetByID_NotFound(t *testing.T) {
	repo := newSQLiteRepo(t)

	_, err := repo.GetByID(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteFamilyScenario(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	tomID, err := repo.Insert(ctx, &domain.Person{FirstName: strp("Tom"), IsMale: boolp(true)})
	require.NoError(t, err)
	amyID, err := repo.Insert(ctx, &domain.Person{FirstName: strp("Amy"), IsMale: boolp(false)})
	require.NoError(t, err)
	kidID, err := repo.Insert(ctx, &domain.Person{
		FirstName: strp("Kid"),
		FatherID:  &tomID,
		MotherID:  &amyID,
	})
	require.NoError(t, err)

	kid, err := repo.GetByID(ctx, kidID)
	require.NoError(t, err)
	require.NotNil(t, kid.Father)
	require.NotNil(t, kid.Mother)
	assert.Equal(t, tomID, kid.Father.ID)
	assert.Equal(t, "Tom", *kid.Father.FirstName)
	assert.Equal(t, amyID, kid.Mother.ID)
	assert.Equal(t, "Amy", *kid.Mother.FirstName)

	children, err := repo.FindChildren(ctx, tomID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, kidID, children[0].ID)

	children, err = repo.FindChildren(ctx, amyID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, kidID, children[0].ID)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// insertion order
	assert.Equal(t, tomID, all[0].ID)
	assert.Equal(t, kidID, all[2].ID)
	require.NotNil(t, all[2].Father)
	assert.Equal(t, "Tom", *all[2].Father.FirstName)
}

func TestSQLiteInsert_RejectsUnknownParent(t *testing.T) {
	repo := newSQLiteRepo(t)

	missing := int64(42)
	_, err := repo.Insert(context.Background(), &domain.Person{
		FirstName: strp("Orphan"),
		FatherID:  &missing,
	})
	assert.Error(t, err)
}

func TestSQLiteUpdate_BumpsRowVersion(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	id, err := repo.Insert(ctx, &domain.Person{FirstName: strp("Tom")})
	require.NoError(t, err)

	loaded, err := repo.GetByID(ctx, id)
	require.NoError(t, err)

	loaded.FirstName = strp("Thomas")
	loaded.DeathDate = datep(2020, time.March, 2)
	require.NoError(t, repo.Update(ctx, loaded))

	reloaded, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Thomas", *reloaded.FirstName)
	require.NotNil(t, reloaded.DeathDate)
	assert.Equal(t, int64(2), reloaded.RowVersion)
}

func TestSQLiteUpdate_StaleVersionConflicts(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	id, err := repo.Insert(ctx, &domain.Person{FirstName: strp("Tom")})
	require.NoError(t, err)

	first, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, id)
	require.NoError(t, err)

	first.FirstName = strp("Thomas")
	require.NoError(t, repo.Update(ctx, first))

	second.FirstName = strp("Tommy")
	assert.ErrorIs(t, repo.Update(ctx, second), ErrConflict)
}

func TestSQLiteDelete(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	id, err := repo.Insert(ctx, &domain.Person{FirstName: strp("Tom")})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, id))

	_, err = repo.GetByID(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, id), ErrNotFound)

	exists, err := repo.Exists(ctx, id)
	require.NoError(t, err)
	assert.False(t, exists)
}
