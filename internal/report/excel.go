package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/clintrovert/praxis/pkg/types"
)

// SheetName is the single sheet the consolidated report is written to.
const SheetName = "Issues"

// Columns is the report header, in output order. Renaming or reordering
// breaks downstream BI imports.
var Columns = []string{
	"Project Key",
	"Key",
	"Issue Type",
	"Summary",
	"Creation Date",
	"Creation Month",
	"Creation Year",
	"Updated",
	"Reporter Name",
	"Reporter AccountID",
	"Assignee Name",
	"Assignee AccountID",
	"Status",
	"Priority",
	"Resolution",
	"Components",
	"Labels",
	"Fix Versions",
	"Linked Issues (Keys)",
	"Original Estimate (s)",
	"Link",
}

// Write saves all rows as a single-sheet xlsx file at path.
func Write(rows []types.NormalizedRow, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, column := range Columns {
		header[i] = column
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		values := []interface{}{
			row.ProjectKey,
			row.IssueKey,
			row.IssueType,
			row.Summary,
			row.CreatedDate,
			row.CreatedMonth,
			row.CreatedYear,
			row.UpdatedDate,
			row.ReporterName,
			row.ReporterAccountID,
			row.AssigneeName,
			row.AssigneeAccountID,
			row.Status,
			row.Priority,
			row.Resolution,
			row.Components,
			row.Labels,
			row.FixVersions,
			strings.Join(row.LinkedIssueKeys, ", "),
			row.OriginalEstimateSeconds,
			row.BrowseURL,
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}
