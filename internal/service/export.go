package service

import (
	"fmt"
	"time"

	"familytree/internal/domain"

	"github.com/xuri/excelize/v2"
)

// PeopleExportHeader column order of the register export.
var PeopleExportHeader = []string{
	"ID",
	"First Name",
	"Last Name",
	"Birth Date",
	"Death Date",
	"Sex",
	"Father",
	"Mother",
	"Data Owner",
}

// GeneratePeopleExport renders the register as an Excel workbook: one header
// row plus one row per person, parents shown with their display labels.
func GeneratePeopleExport(persons []domain.Person) ([]byte, error) {
	f := excelize.NewFile()
	// No defer Close() here: WriteToBuffer needs the file open.

	sheetName := "People"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	for col, h := range PeopleExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, p := range persons {
		values := []any{
			p.ID,
			strOrEmpty(p.FirstName),
			strOrEmpty(p.LastName),
			dateOrEmpty(p.BirthDate),
			dateOrEmpty(p.DeathDate),
			sexLabel(p.IsMale),
			parentOrEmpty(p.Father),
			parentOrEmpty(p.Mother),
			strOrEmpty(p.DataOwnerID),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to build cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dateOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func sexLabel(isMale *bool) string {
	switch {
	case isMale == nil:
		return ""
	case *isMale:
		return "Male"
	default:
		return "Female"
	}
}

func parentOrEmpty(p *domain.Person) string {
	if p == nil {
		return ""
	}
	return ParentLabel(*p)
}
