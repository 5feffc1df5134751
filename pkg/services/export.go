package services

import (
	"fmt"
	"io"

	"DemoHub/models"

	"github.com/xuri/excelize/v2"
)

const usersSheet = "Users"

var usersHeader = []any{"ID", "Email", "Name", "Provider", "Admin", "Created At", "Updated At"}

// WriteUsersXLSX renders users as a single-sheet workbook.
func WriteUsersXLSX(w io.Writer, users []models.User) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", usersSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(usersSheet, "A1", &usersHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, u := range users {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			u.ID,
			u.Email,
			u.DisplayName(),
			u.Provider,
			u.IsAdmin,
			u.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			u.UpdatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := f.SetSheetRow(usersSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(usersSheet, "B", "C", 28); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
