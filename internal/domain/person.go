package domain

import "time"

// Person is the single entity of the family register.
// All attributes except the identifier are optional; is_male is tri-state
// (nil = unknown). FatherID/MotherID are self-references to other persons.
// Father/Mother carry the resolved parent rows when the query asked for them;
// they are never persisted.
type Person struct {
	ID          int64      `json:"id"`
	FirstName   *string    `json:"first_name,omitempty"`
	LastName    *string    `json:"last_name,omitempty"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	DeathDate   *time.Time `json:"death_date,omitempty"`
	IsMale      *bool      `json:"is_male,omitempty"`
	FatherID    *int64     `json:"father_id,omitempty"`
	MotherID    *int64     `json:"mother_id,omitempty"`
	DataOwnerID *string    `json:"data_owner_id,omitempty"`
	RowVersion  int64      `json:"row_version"`

	Father *Person `json:"father,omitempty"`
	Mother *Person `json:"mother,omitempty"`
}

// PersonDetail is the detail view model: the person plus every person that
// records them as father or mother. Children are derived, not stored.
type PersonDetail struct {
	Person   *Person  `json:"person"`
	Children []Person `json:"children"`
}
