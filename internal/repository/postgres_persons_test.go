package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"familytree/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresPersonsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewPostgresPersonsRepository(db)
	return db, mock, repo
}

func personWithParentsColumns() []string {
	return []string{
		"id", "first_name", "last_name", "birth_date", "death_date", "is_male",
		"father_id", "mother_id", "data_owner_id", "row_version",
		"f_id", "f_first_name", "f_last_name", "f_birth_date", "f_death_date", "f_is_male",
		"m_id", "m_first_name", "m_last_name", "m_birth_date", "m_death_date", "m_is_male",
	}
}

func TestPostgresGetByID_Success(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	birth := time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(personWithParentsColumns()).AddRow(
		3, "Kid", nil, birth, nil, nil,
		1, 2, "owner-1", 1,
		1, "Tom", "Smith", nil, nil, true,
		2, "Amy", "Smith", nil, nil, false,
	)

	mock.ExpectQuery(`SELECT`).WithArgs(int64(3)).WillReturnRows(rows)

	p, err := repo.GetByID(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, int64(3), p.ID)
	assert.Equal(t, "Kid", *p.FirstName)
	assert.Nil(t, p.LastName)
	assert.True(t, p.BirthDate.Equal(birth))
	assert.Nil(t, p.IsMale)
	require.NotNil(t, p.Father)
	assert.Equal(t, int64(1), p.Father.ID)
	assert.Equal(t, "Tom", *p.Father.FirstName)
	assert.True(t, *p.Father.IsMale)
	require.NotNil(t, p.Mother)
	assert.Equal(t, "Amy", *p.Mother.FirstName)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetByID_NotFound(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WithArgs(int64(9999)).WillReturnError(sql.ErrNoRows)

	p, err := repo.GetByID(context.Background(), 9999)

	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsert_ReturnsAssignedID(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO persons`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	id, err := repo.Insert(context.Background(), &domain.Person{FirstName: strp("Tom")})

	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdate_StaleVersionConflicts(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE persons`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &domain.Person{ID: 1, RowVersion: 1})

	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdate_Success(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE persons`).WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), &domain.Person{ID: 1, RowVersion: 1})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDelete_NotFound(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM persons`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 5), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresExists(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(context.Background(), 5)

	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindChildren(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	cols := []string{
		"id", "first_name", "last_name", "birth_date", "death_date", "is_male",
		"father_id", "mother_id", "data_owner_id", "row_version",
	}
	rows := sqlmock.NewRows(cols).
		AddRow(3, "Kid", nil, nil, nil, nil, 1, 2, nil, 1).
		AddRow(4, "Sib", nil, nil, nil, true, 1, nil, nil, 1)

	mock.ExpectQuery(`SELECT`).WithArgs(int64(1)).WillReturnRows(rows)

	children, err := repo.FindChildren(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "Kid", *children[0].FirstName)
	assert.Equal(t, "Sib", *children[1].FirstName)
	require.NoError(t, mock.ExpectationsWereMet())
}
