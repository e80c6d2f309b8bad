package extract_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wyngai/internal/domain"
	"wyngai/internal/extract"
)

var testNow = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func TestExtractHeader_LabeledFields(t *testing.T) {
	text := "Provider: General Hospital of Springfield\n" +
		"Payer: Aetna\n" +
		"NPI: 1234567893\n" +
		"TIN: 12-3456789\n" +
		"Claim Number: CLM-2025-00042\n" +
		"Account #: ACCT-9981\n" +
		"Service Dates: 01/10/2025 to 01/12/2025\n" +
		"Total Charges: $1,250.00\n" +
		"Allowed Amount: $900.00\n" +
		"Plan Paid: $700.00\n" +
		"Patient Responsibility: $200.00\n"

	id := uuid.New()
	header := extract.ExtractHeaderAt(id, domain.DocTypeEOB, text, testNow)

	assert.Equal(t, id, header.ArtifactID)
	assert.Equal(t, domain.DocTypeEOB, header.DocType)
	assert.Equal(t, "General Hospital of Springfield", header.ProviderName)
	assert.Equal(t, "Aetna", header.Payer)
	assert.Equal(t, "1234567893", header.ProviderNPI)
	assert.Equal(t, "12-3456789", header.ProviderTIN)
	assert.Equal(t, "CLM-2025-00042", header.ClaimID)
	assert.Equal(t, "ACCT-9981", header.AccountID)

	require.NotNil(t, header.ServiceDates)
	assert.Equal(t, "2025-01-10", header.ServiceDates.Start)
	assert.Equal(t, "2025-01-12", header.ServiceDates.End)

	require.NotNil(t, header.Totals)
	require.NotNil(t, header.Totals.Billed)
	assert.Equal(t, int64(125000), *header.Totals.Billed)
	require.NotNil(t, header.Totals.Allowed)
	assert.Equal(t, int64(90000), *header.Totals.Allowed)
	require.NotNil(t, header.Totals.PlanPaid)
	assert.Equal(t, int64(70000), *header.Totals.PlanPaid)
	require.NotNil(t, header.Totals.PatientResp)
	assert.Equal(t, int64(20000), *header.Totals.PatientResp)
}

func TestExtractHeader_StructuralProviderFallback(t *testing.T) {
	text := "RIVERSIDE MEDICAL CENTER\n123 Main St\nAmount Due: $50.00\n"
	header := extract.ExtractHeaderAt(uuid.New(), domain.DocTypeBill, text, testNow)
	assert.Equal(t, "RIVERSIDE MEDICAL CENTER", header.ProviderName)
}

func TestExtractHeader_PayerDictionaryFallback(t *testing.T) {
	text := "Statement from Blue Cross covering your recent visit\n"
	header := extract.ExtractHeaderAt(uuid.New(), domain.DocTypeEOB, text, testNow)
	assert.Equal(t, "Blue Cross", header.Payer)
}

func TestExtractHeader_SingleServiceDate(t *testing.T) {
	text := "Date of Service: 03/05/2025\n"
	header := extract.ExtractHeaderAt(uuid.New(), domain.DocTypeBill, text, testNow)
	require.NotNil(t, header.ServiceDates)
	assert.Equal(t, "2025-03-05", header.ServiceDates.Start)
	assert.Equal(t, "2025-03-05", header.ServiceDates.End)
}

func TestExtractHeader_FutureDateRejected(t *testing.T) {
	text := "Date of Service: 03/05/2031\n"
	header := extract.ExtractHeaderAt(uuid.New(), domain.DocTypeBill, text, testNow)
	assert.Nil(t, header.ServiceDates)
}

func TestExtractHeader_InvalidNPIOmitted(t *testing.T) {
	text := "NPI: 12345678901\n"
	header := extract.ExtractHeaderAt(uuid.New(), domain.DocTypeBill, text, testNow)
	assert.Empty(t, header.ProviderNPI)
}

func TestExtractHeader_NoTotalsNilStruct(t *testing.T) {
	header := extract.ExtractHeaderAt(uuid.New(), domain.DocTypeLetter, "Dear Member,\nYour claim was denied.\n", testNow)
	assert.Nil(t, header.Totals)
}

func TestExtractRemarkCodes(t *testing.T) {
	text := "Adjustments: CO-45 applied. PR 1 deductible. Remark N130 and M80 noted. CO-45 again."
	codes := extract.ExtractRemarkCodes(text)
	assert.Equal(t, []string{"CO-45", "PR-1", "N130", "M80"}, codes)
}

func TestExtractRemarkCodes_Empty(t *testing.T) {
	assert.Empty(t, extract.ExtractRemarkCodes("no remark codes here"))
}
