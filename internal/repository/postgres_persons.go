package repository

import (
	"context"
	"database/sql"
	"fmt"

	"familytree/internal/domain"
)

// PostgresPersonsRepository persons repository backed by PostgreSQL.
type PostgresPersonsRepository struct {
	db *sql.DB
}

func NewPostgresPersonsRepository(db *sql.DB) *PostgresPersonsRepository {
	return &PostgresPersonsRepository{db: db}
}

var _ PersonsRepository = (*PostgresPersonsRepository)(nil)

// personColumns is the projection shared by every read: the person row plus
// the self-joined father and mother rows (nullable as a whole).
const personColumns = `
	p.id, p.first_name, p.last_name, p.birth_date, p.death_date, p.is_male,
	p.father_id, p.mother_id, p.data_owner_id, p.row_version,
	f.id, f.first_name, f.last_name, f.birth_date, f.death_date, f.is_male,
	m.id, m.first_name, m.last_name, m.birth_date, m.death_date, m.is_male`

const personJoins = `
	FROM persons p
	LEFT JOIN persons f ON f.id = p.father_id
	LEFT JOIN persons m ON m.id = p.mother_id`

func (r *PostgresPersonsRepository) ListAll(ctx context.Context) ([]domain.Person, error) {
	query := `SELECT` + personColumns + personJoins + ` ORDER BY p.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list persons: %w", err)
	}
	defer rows.Close()

	var persons []domain.Person
	for rows.Next() {
		p, err := scanPersonWithParents(rows)
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

func (r *PostgresPersonsRepository) GetByID(ctx context.Context, id int64) (*domain.Person, error) {
	query := `SELECT` + personColumns + personJoins + ` WHERE p.id = $1`
	p, err := scanPersonWithParents(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return p, nil
}

func (r *PostgresPersonsRepository) FindChildren(ctx context.Context, id int64) ([]domain.Person, error) {
	query := `
		SELECT id, first_name, last_name, birth_date, death_date, is_male,
		       father_id, mother_id, data_owner_id, row_version
		FROM persons
		WHERE father_id = $1 OR mother_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find children: %w", err)
	}
	defer rows.Close()

	var children []domain.Person
	for rows.Next() {
		p, err := scanPerson(rows)
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

func (r *PostgresPersonsRepository) Insert(ctx context.Context, p *domain.Person) (int64, error) {
	query := `
		INSERT INTO persons (first_name, last_name, birth_date, death_date,
		                     is_male, father_id, mother_id, data_owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		p.FirstName, p.LastName, p.BirthDate, p.DeathDate,
		p.IsMale, p.FatherID, p.MotherID, p.DataOwnerID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert person: %w", err)
	}
	return id, nil
}

func (r *PostgresPersonsRepository) Update(ctx context.Context, p *domain.Person) error {
	query := `
		UPDATE persons
		SET first_name = $1, last_name = $2, birth_date = $3, death_date = $4,
		    is_male = $5, father_id = $6, mother_id = $7, data_owner_id = $8,
		    row_version = row_version + 1
		WHERE id = $9 AND row_version = $10`
	res, err := r.db.ExecContext(ctx, query,
		p.FirstName, p.LastName, p.BirthDate, p.DeathDate,
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

func (r *PostgresPersonsRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM persons WHERE id = $1`, id)
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

func (r *PostgresPersonsRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM persons WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check person existence: %w", err)
	}
	return exists, nil
}
