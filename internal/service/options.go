package service

import (
	"fmt"
	"strconv"
	"time"

	"familytree/internal/domain"
)

// SelectOption one entry of a form choice list.
type SelectOption struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected,omitempty"`
}

// FormOptions the selectable father/mother/sex choices for the person form.
type FormOptions struct {
	Fathers []SelectOption `json:"fathers"`
	Mothers []SelectOption `json:"mothers"`
	Sexes   []SelectOption `json:"sexes"`
}

// BuildFormOptions derives the form choice lists from the current register.
// Persons with known-male sex become father candidates, known-female mother
// candidates; unknown sex appears in neither. Both parent lists lead with a
// blank "no recorded parent" option. selected (the person being edited, or
// the rejected submission) marks the pre-selected entries; nil preselects
// nothing beyond the blanks.
func BuildFormOptions(persons []domain.Person, selected *domain.Person) FormOptions {
	var selFather, selMother *int64
	var selSex *bool
	if selected != nil {
		selFather = selected.FatherID
		selMother = selected.MotherID
		selSex = selected.IsMale
	}

	fathers := []SelectOption{{Value: "", Label: "", Selected: selFather == nil}}
	mothers := []SelectOption{{Value: "", Label: "", Selected: selMother == nil}}
	for _, p := range persons {
		if p.IsMale == nil {
			continue
		}
		opt := SelectOption{
			Value: strconv.FormatInt(p.ID, 10),
			Label: ParentLabel(p),
		}
		if *p.IsMale {
			opt.Selected = selFather != nil && *selFather == p.ID
			fathers = append(fathers, opt)
		} else {
			opt.Selected = selMother != nil && *selMother == p.ID
			mothers = append(mothers, opt)
		}
	}

	sexes := []SelectOption{
		{Value: "", Label: "", Selected: selSex == nil},
		{Value: "true", Label: "Male", Selected: selSex != nil && *selSex},
		{Value: "false", Label: "Female", Selected: selSex != nil && !*selSex},
	}

	return FormOptions{Fathers: fathers, Mothers: mothers, Sexes: sexes}
}

// ParentLabel renders the display label of a parent candidate:
// first name, then last name, then "(born M/D/YYYY)", each only if present.
func ParentLabel(p domain.Person) string {
	label := ""
	if p.FirstName != nil {
		label = *p.FirstName
	}
	if p.LastName != nil {
		label += " " + *p.LastName
	}
	if p.BirthDate != nil {
		label += " (born " + formatShortDate(*p.BirthDate) + ")"
	}
	return label
}

func formatShortDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", int(t.Month()), t.Day(), t.Year())
}
