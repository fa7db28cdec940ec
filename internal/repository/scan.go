package repository

import (
	"database/sql"

	"familytree/internal/domain"
)

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanPerson scans the bare persons projection (no joined parents).
func scanPerson(s rowScanner) (*domain.Person, error) {
	var (
		p           domain.Person
		firstName   sql.NullString
		lastName    sql.NullString
		birthDate   sql.NullTime
		deathDate   sql.NullTime
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
	fillOptional(&p, firstName, lastName, birthDate, deathDate, isMale)
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

// scanPersonWithParents scans the personColumns projection: the person row
// followed by the (possibly all-NULL) father and mother sub-rows.
func scanPersonWithParents(s rowScanner) (*domain.Person, error) {
	var (
		p           domain.Person
		firstName   sql.NullString
		lastName    sql.NullString
		birthDate   sql.NullTime
		deathDate   sql.NullTime
		isMale      sql.NullBool
		fatherID    sql.NullInt64
		motherID    sql.NullInt64
		dataOwnerID sql.NullString

		fID, mID                       sql.NullInt64
		fFirst, fLast, mFirst, mLast   sql.NullString
		fBirth, fDeath, mBirth, mDeath sql.NullTime
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
	fillOptional(&p, firstName, lastName, birthDate, deathDate, isMale)
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
		fillOptional(&father, fFirst, fLast, fBirth, fDeath, fMale)
		p.Father = &father
	}
	if mID.Valid {
		mother := domain.Person{ID: mID.Int64}
		fillOptional(&mother, mFirst, mLast, mBirth, mDeath, mMale)
		p.Mother = &mother
	}
	return &p, nil
}

func fillOptional(p *domain.Person, first, last sql.NullString, birth, death sql.NullTime, isMale sql.NullBool) {
	if first.Valid {
		p.FirstName = &first.String
	}
	if last.Valid {
		p.LastName = &last.String
	}
	if birth.Valid {
		t := birth.Time
		p.BirthDate = &t
	}
	if death.Valid {
		t := death.Time
		p.DeathDate = &t
	}
	if isMale.Valid {
		p.IsMale = &isMale.Bool
	}
}
