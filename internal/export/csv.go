// Package export renders a case analysis result as downloadable CSV or XLSX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"wyngai/internal/domain"
	"wyngai/internal/validate"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// lineColumns defines the line-item CSV header row.
var lineColumns = []string{
	"Line ID",
	"Code",
	"Code System",
	"Modifiers",
	"Description",
	"Units",
	"Date of Service",
	"Place of Service",
	"Revenue Code",
	"Charge",
	"Allowed",
	"Plan Paid",
	"Patient Resp",
	"Confidence",
	"Low Confidence",
}

// detectionColumns defines the detection CSV header row.
var detectionColumns = []string{
	"Rule",
	"Severity",
	"Explanation",
	"Line Refs",
	"Codes",
	"Amounts",
	"Dates",
	"Citations",
}

// Writer wraps csv.Writer for exporting case results as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteLineItems writes the line-item header followed by one row per line.
func (w *Writer) WriteLineItems(items []domain.LineItem) error {
	if err := w.csv.Write(lineColumns); err != nil {
		return err
	}
	for i := range items {
		if err := w.csv.Write(lineItemToRow(&items[i])); err != nil {
			return err
		}
	}
	return nil
}

// WriteDetections writes the detection header followed by one row per finding.
func (w *Writer) WriteDetections(detections []domain.Detection) error {
	if err := w.csv.Write(detectionColumns); err != nil {
		return err
	}
	for i := range detections {
		if err := w.csv.Write(detectionToRow(&detections[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

func lineItemToRow(item *domain.LineItem) []string {
	row := make([]string, len(lineColumns))
	row[0] = item.LineID
	row[1] = item.Code
	row[2] = string(item.CodeSystem)
	row[3] = strings.Join(item.Modifiers, " ")
	row[4] = item.Description
	if item.Units != nil {
		row[5] = strconv.Itoa(*item.Units)
	}
	row[6] = item.DateOfService
	row[7] = item.PlaceOfService
	row[8] = item.RevenueCode
	row[9] = formatMoney(item.Charge)
	row[10] = formatMoney(item.Allowed)
	row[11] = formatMoney(item.PlanPaid)
	row[12] = formatMoney(item.PatientResp)
	row[13] = strconv.FormatFloat(item.Confidence, 'f', 2, 64)
	row[14] = formatBool(item.LowConfidence)
	return row
}

func detectionToRow(d *domain.Detection) []string {
	row := make([]string, len(detectionColumns))
	row[0] = d.RuleKey
	row[1] = string(d.Severity)
	row[2] = d.Explanation
	row[3] = joinInts(d.Evidence.LineRefs)
	row[4] = strings.Join(d.Evidence.Codes, " ")
	row[5] = joinAmounts(d.Evidence.Amounts)
	row[6] = strings.Join(d.Evidence.Dates, " ")
	row[7] = joinCitations(d.Citations)
	return row
}

// formatMoney renders integer cents, or empty for an absent amount.
func formatMoney(cents *int64) string {
	if cents == nil {
		return ""
	}
	return validate.FormatCents(*cents)
}

func formatBool(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func joinInts(refs []int) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = strconv.Itoa(r)
	}
	return strings.Join(parts, " ")
}

func joinAmounts(amounts []int64) string {
	parts := make([]string, len(amounts))
	for i, a := range amounts {
		parts[i] = validate.FormatCents(a)
	}
	return strings.Join(parts, " ")
}

func joinCitations(citations []domain.Citation) string {
	parts := make([]string, len(citations))
	for i := range citations {
		c := &citations[i]
		if c.Section != "" {
			parts[i] = fmt.Sprintf("%s (%s %s)", c.Title, c.Authority, c.Section)
		} else {
			parts[i] = fmt.Sprintf("%s (%s)", c.Title, c.Authority)
		}
	}
	return strings.Join(parts, "; ")
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a case label for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for the Content-Disposition
// header. Format: {sanitized_label}_{YYYY-MM-DD}.{ext}
func BuildFilename(label, ext string) string {
	sanitized := SanitizeFilename(label)
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.%s", sanitized, date, ext)
}
