// Package report renders admin exports.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/bagstore/storefront/internal/workflow"
)

const activitySheet = "Activities"

var activityHeaders = []string{"Date", "Admin ID", "Action", "Entity", "Entity ID", "Description", "IP Address"}

// WriteActivitiesXLSX writes one row per activity below a header row.
func WriteActivitiesXLSX(w io.Writer, activities []workflow.ActivityView) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", activitySheet); err != nil {
		return err
	}
	for i, h := range activityHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(activitySheet, cell, h)
	}

	for i, a := range activities {
		row := i + 2
		ip := ""
		if a.IPAddress != nil {
			ip = *a.IPAddress
		}
		f.SetCellValue(activitySheet, fmt.Sprintf("A%d", row), a.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
		f.SetCellValue(activitySheet, fmt.Sprintf("B%d", row), a.AdminID)
		f.SetCellValue(activitySheet, fmt.Sprintf("C%d", row), string(a.Action))
		f.SetCellValue(activitySheet, fmt.Sprintf("D%d", row), a.EntityType)
		f.SetCellValue(activitySheet, fmt.Sprintf("E%d", row), a.EntityID)
		f.SetCellValue(activitySheet, fmt.Sprintf("F%d", row), a.Description)
		f.SetCellValue(activitySheet, fmt.Sprintf("G%d", row), ip)
	}

	f.SetColWidth(activitySheet, "A", "A", 20)
	f.SetColWidth(activitySheet, "F", "F", 60)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write activity export: %w", err)
	}
	return nil
}
