package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"familytree/internal/domain"
)

// SQLitePersonsRepository persons repository on the embedded SQLite backend.
// Same SQL shape as the Postgres implementation; dates travel as ISO-8601
// text because SQLite has no native date type.
type SQLitePersonsRepository struct {
	db *sql.DB
}

func NewSQLitePersonsRepository(db *sql.DB) *SQLitePersonsRepository {
	return &SQLitePersonsRepository{db: db}
}

var _ PersonsRepository = (*SQLitePersonsRepository)(nil)

const sqliteDateLayout = "2006-01-02"

func sqliteDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(sqliteDateLayout)
}

func parseSQLiteDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(sqliteDateLayout, s.String)
	if err != nil {
		return nil, fmt.Errorf("invalid stored date %q: %w", s.String, err)
	}
	return &t, nil
}

func (r *SQLitePersonsRepository) ListAll(ctx context.Context) ([]domain.Person, error) {
	query := `SELECT` + personColumns + personJoins + ` ORDER BY p.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list persons: %w", err)
	}
	defer rows.Close()

	var persons []domain.Person
	for rows.Next() {
		p, err := scanSQLitePersonWithParents(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		persons = append(persons, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list persons: %w", err)
	}
	return persons, nil
}

func (r *SQLitePersonsRepository) GetByID(ctx context.Context, id int64) (*domain.Person, error) {
	query := `SELECT` + personColumns + personJoins + ` WHERE p.id = ?`
	p, err := scanSQLitePersonWithParents(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return p, nil
}

func (r *SQLitePersonsRepository) FindChildren(ctx context.Context, id int64) ([]domain.Person, error) {
	query := `
		SELECT id, first_name, last_name, birth_date, death_date, is_male,
		       father_id, mother_id, data_owner_id, row_version
		FROM persons
		WHERE father_id = ? OR mother_id = ?
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, id, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find children: %w", err)
	}
	defer rows.Close()

	var children []domain.Person
	for rows.Next() {
		p, err := scanSQLitePerson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to find children: %w", err)
	}
	return children, nil
}

func (r *SQLitePersonsRepository) Insert(ctx context.Context, p *domain.Person) (int64, error) {
	query := `
		INSERT INTO persons (first_name, last_name, birth_date, death_date,
		                     is_male, father_id, mother_id, data_owner_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		p.FirstName, p.LastName, sqliteDate(p.BirthDate), sqliteDate(p.DeathDate),
		p.IsMale, p.FatherID, p.MotherID, p.DataOwnerID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert person: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to insert person: %w", err)
	}
	return id, nil
}

func (r *SQLitePersonsRepository) Update(ctx context.Context, p *domain.Person) error {
	query := `
		UPDATE persons
		SET first_name = ?, last_name = ?, birth_date = ?, death_date = ?,
		    is_male = ?, father_id = ?, mother_id = ?, data_owner_id = ?,
		    row_version = row_version + 1
		WHERE id = ? AND row_version = ?`
	res, err := r.db.ExecContext(ctx, query,
		p.FirstName, p.LastName, sqliteDate(p.BirthDate), sqliteDate(p.DeathDate),
		p.IsMale, p.FatherID, p.MotherID, p.DataOwnerID,
		p.ID, p.RowVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update person: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update person: %w", err)
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

func (r *SQLitePersonsRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM persons WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLitePersonsRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM persons WHERE id = ?)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check person existence: %w", err)
	}
	return exists, nil
}

func scanSQLitePerson(s rowScanner) (*domain.Person, error) {
	var (
		p           domain.Person
		firstName   sql.NullString
		lastName    sql.NullString
		birthDate   sql.NullString
		deathDate   sql.NullString
		isMale      sql.NullBool
		fatherID    sql.NullInt64
		motherID    sql.NullInt64
		dataOwnerID sql.NullString
	)
	if err := s.Scan(
		&p.ID, &firstName, &lastName, &birthDate, &deathDate, &isMale,
		&fatherID, &motherID, &dataOwnerID, &p.RowVersion,
	); err != nil {
		return nil, err
	}
	if err := fillSQLiteOptional(&p, firstName, lastName, birthDate, deathDate, isMale); err != nil {
		return nil, err
	}
	if fatherID.Valid {
		p.FatherID = &fatherID.Int64
	}
	if motherID.Valid {
		p.MotherID = &motherID.Int64
	}
	if dataOwnerID.Valid {
		p.DataOwnerID = &dataOwnerID.String
	}
	return &p, nil
}

func scanSQLitePersonWithParents(s rowScanner) (*domain.Person, error) {
	var (
		p           domain.Person
		firstName   sql.NullString
		lastName    sql.NullString
		birthDate   sql.NullString
		deathDate   sql.NullString
		isMale      sql.NullBool
		fatherID    sql.NullInt64
		motherID    sql.NullInt64
		dataOwnerID sql.NullString

		fID, mID                       sql.NullInt64
		fFirst, fLast, mFirst, mLast   sql.NullString
		fBirth, fDeath, mBirth, mDeath sql.NullString
		fMale, mMale                   sql.NullBool
	)
	if err := s.Scan(
		&p.ID, &firstName, &lastName, &birthDate, &deathDate, &isMale,
		&fatherID, &motherID, &dataOwnerID, &p.RowVersion,
		&fID, &fFirst, &fLast, &fBirth, &fDeath, &fMale,
		&mID, &mFirst, &mLast, &mBirth, &mDeath, &mMale,
	); err != nil {
		return nil, err
	}
	if err := fillSQLiteOptional(&p, firstName, lastName, birthDate, deathDate, isMale); err != nil {
		return nil, err
	}
	if fatherID.Valid {
		p.FatherID = &fatherID.Int64
	}
	if motherID.Valid {
		p.MotherID = &motherID.Int64
	}
	if dataOwnerID.Valid {
		p.DataOwnerID = &dataOwnerID.String
	}
	if fID.Valid {
		father := domain.Person{ID: fID.Int64}
		if err := fillSQLiteOptional(&father, fFirst, fLast, fBirth, fDeath, fMale); err != nil {
			return nil, err
		}
		p.Father = &father
	}
	if mID.Valid {
		mother := domain.Person{ID: mID.Int64}
		if err := fillSQLiteOptional(&mother, mFirst, mLast, mBirth, mDeath, mMale); err != nil {
			return nil, err
		}
		p.Mother = &mother
	}
	return &p, nil
}

func fillSQLiteOptional(p *domain.Person, first, last sql.NullString, birth, death sql.NullString, isMale sql.NullBool) error {
	if first.Valid {
		p.FirstName = &first.String
	}
	if last.Valid {
		p.LastName = &last.String
	}
	var err error
	if p.BirthDate, err = parseSQLiteDate(birth); err != nil {
		return err
	}
	if p.DeathDate, err = parseSQLiteDate(death); err != nil {
		return err
	}
	if isMale.Valid {
		p.IsMale = &isMale.Bool
	}
	return nil
}
