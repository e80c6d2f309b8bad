package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"wyngai/internal/domain"
)

const (
	sheetSummary    = "Summary"
	sheetLines      = "Line Items"
	sheetDetections = "Detections"
)

// WriteXLSX renders the full case result as a three-sheet workbook and
// writes it to w.
func WriteXLSX(w io.Writer, result *domain.CaseResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	if err := writeSummarySheet(f, result); err != nil {
		return err
	}
	if err := writeLinesSheet(f, result); err != nil {
		return err
	}
	if err := writeDetectionsSheet(f, result); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, result *domain.CaseResult) error {
	rows := [][]interface{}{
		{"Case ID", result.CaseID.String()},
		{"Confidence", result.Confidence},
		{"Files Analyzed", len(result.Claims)},
		{"Files Unreadable", len(result.OCRFailures)},
		{"Detections", len(result.Detections)},
	}

	if s := result.Summary; s != nil {
		h := &s.Header
		rows = append(rows,
			[]interface{}{"Document Type", string(h.DocType)},
			[]interface{}{"Provider", h.ProviderName},
			[]interface{}{"Provider NPI", h.ProviderNPI},
			[]interface{}{"Payer", h.Payer},
			[]interface{}{"Claim ID", h.ClaimID},
			[]interface{}{"Account ID", h.AccountID},
		)
		if h.ServiceDates != nil {
			rows = append(rows, []interface{}{"Service Dates", h.ServiceDates.Start + " to " + h.ServiceDates.End})
		}
		if t := s.Totals; t != nil {
			rows = append(rows,
				[]interface{}{"Total Billed", formatMoney(t.Billed)},
				[]interface{}{"Total Allowed", formatMoney(t.Allowed)},
				[]interface{}{"Plan Paid", formatMoney(t.PlanPaid)},
				[]interface{}{"Patient Resp", formatMoney(t.PatientResp)},
			)
		}
		if len(s.Notes) > 0 {
			rows = append(rows, []interface{}{"Notes", strings.Join(s.Notes, "; ")})
		}
	}

	for i, row := range rows {
		cell := "A" + strconv.Itoa(i+1)
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return fmt.Errorf("summary row %d: %w", i+1, err)
		}
	}
	return nil
}

func writeLinesSheet(f *excelize.File, result *domain.CaseResult) error {
	if _, err := f.NewSheet(sheetLines); err != nil {
		return fmt.Errorf("creating sheet %s: %w", sheetLines, err)
	}

	header := make([]interface{}, len(lineColumns))
	for i, c := range lineColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetLines, "A1", &header); err != nil {
		return err
	}

	var items []domain.LineItem
	if result.Summary != nil {
		items = result.Summary.LineItems
	}
	for i := range items {
		strs := lineItemToRow(&items[i])
		row := make([]interface{}, len(strs))
		for j, v := range strs {
			row[j] = v
		}
		cell := "A" + strconv.Itoa(i+2)
		if err := f.SetSheetRow(sheetLines, cell, &row); err != nil {
			return fmt.Errorf("line row %d: %w", i+2, err)
		}
	}
	return nil
}

func writeDetectionsSheet(f *excelize.File, result *domain.CaseResult) error {
	if _, err := f.NewSheet(sheetDetections); err != nil {
		return fmt.Errorf("creating sheet %s: %w", sheetDetections, err)
	}

	header := make([]interface{}, len(detectionColumns))
	for i, c := range detectionColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetDetections, "A1", &header); err != nil {
		return err
	}

	for i := range result.Detections {
		strs := detectionToRow(&result.Detections[i])
		row := make([]interface{}, len(strs))
		for j, v := range strs {
			row[j] = v
		}
		cell := "A" + strconv.Itoa(i+2)
		if err := f.SetSheetRow(sheetDetections, cell, &row); err != nil {
			return fmt.Errorf("detection row %d: %w", i+2, err)
		}
	}
	return nil
}
