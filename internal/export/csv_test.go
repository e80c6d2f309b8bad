package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wyngai/internal/domain"
)

func i64(v int64) *int64 { return &v }

func sampleLine() domain.LineItem {
	units := 2
	return domain.LineItem{
		LineID:        "line_001",
		Code:          "99213",
		CodeSystem:    domain.CodeSystemCPT,
		Modifiers:     []string{"25"},
		Description:   "Office visit, established patient",
		Units:         &units,
		DateOfService: "2025-03-01",
		Charge:        i64(15000),
		Allowed:       i64(12000),
		PatientResp:   i64(3000),
		Confidence:    0.92,
	}
}

func TestWriteLineItems(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteLineItems([]domain.LineItem{sampleLine()}))
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	header := rows[0]
	assert.Len(t, header, 15)
	assert.Equal(t, "Line ID", header[0])
	assert.Equal(t, "Low Confidence", header[14])

	row := rows[1]
	assert.Equal(t, "line_001", row[0])
	assert.Equal(t, "99213", row[1])
	assert.Equal(t, "CPT", row[2])
	assert.Equal(t, "25", row[3])
	assert.Equal(t, "2", row[5])
	assert.Equal(t, "$150.00", row[9])
	assert.Equal(t, "$120.00", row[10])
	assert.Equal(t, "", row[11], "absent amounts stay empty")
	assert.Equal(t, "$30.00", row[12])
	assert.Equal(t, "No", row[14])
}

func TestWriteDetections(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	detections := []domain.Detection{{
		RuleKey:     "duplicate_service_lines",
		Severity:    domain.SeverityHigh,
		Explanation: "The same service appears twice",
		Evidence: domain.Evidence{
			LineRefs: []int{0, 1},
			Codes:    []string{"99213"},
			Amounts:  []int64{15000, 15000},
			Dates:    []string{"2025-03-01"},
		},
		Citations: []domain.Citation{
			{Title: "Claims processing guidance", Authority: "CMS", Section: "Ch. 1"},
			{Title: "Patient billing standards", Authority: "HFMA"},
		},
	}}
	require.NoError(t, w.WriteDetections(detections))
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	row := rows[1]
	assert.Equal(t, "duplicate_service_lines", row[0])
	assert.Equal(t, "high", row[1])
	assert.Equal(t, "0 1", row[3])
	assert.Equal(t, "99213", row[4])
	assert.Equal(t, "$150.00 $150.00", row[5])
	assert.Equal(t, "Claims processing guidance (CMS Ch. 1); Patient billing standards (HFMA)", row[7])
}

func TestWriteLineItems_EmptyStillWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteLineItems(nil))
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	rows, err := r.ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "my case", "my_case"},
		{"special chars", "bill: ER visit (March)!", "bill_ER_visit_March"},
		{"collapses underscores", "a___b", "a_b"},
		{"preserves hyphens", "case-2025-03", "case-2025-03"},
		{"trims edges", "__edge__", "edge"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestBuildFilename(t *testing.T) {
	name := BuildFilename("ER visit", "csv")
	assert.Regexp(t, `^ER_visit_\d{4}-\d{2}-\d{2}\.csv$`, name)

	name = BuildFilename("ER visit", "xlsx")
	assert.Regexp(t, `\.xlsx$`, name)
}
