package importer

import (
	"strings"
	"testing"

	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrStr(s string) *string { return &s }
func ptrInt(i int) *int       { return &i }

func validMinimalWorkspace() *Workspace {
	return &Workspace{
		Contacts: []ContactImport{{Ref: "ada", Name: "Ada", Email: "ada@example.com"}},
		Deals:    []DealImport{{Ref: "d1", Title: "Engine", Value: 100, ContactRef: "ada"}},
	}
}

func joinErrs(errs []error) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "\n")
}

func TestValidateWorkspace_ValidMinimal(t *testing.T) {
	errs := ValidateWorkspace(validMinimalWorkspace(), domain.DefaultStageRegistry())
	assert.Empty(t, errs)
}

func TestValidateWorkspace_DuplicateRefs(t *testing.T) {
	ws := validMinimalWorkspace()
	ws.Contacts = append(ws.Contacts, ContactImport{Ref: "ada", Name: "Other", Email: "o@example.com"})
	ws.Deals = append(ws.Deals, DealImport{Ref: "d1", Title: "Again", Value: 1, ContactRef: "ada"})

	errs := ValidateWorkspace(ws, domain.DefaultStageRegistry())
	require.Len(t, errs, 2)
	assert.Contains(t, joinErrs(errs), `contacts[1]: duplicate ref "ada"`)
	assert.Contains(t, joinErrs(errs), `deals[1]: duplicate ref "d1"`)
}

func TestValidateWorkspace_DealProblems(t *testing.T) {
	ws := validMinimalWorkspace()
	ws.Deals[0].Stage = "won"
	ws.Deals[0].Probability = ptrInt(150)
	ws.Deals[0].ExpectedCloseDate = ptrStr("next week")

	msg := joinErrs(ValidateWorkspace(ws, domain.DefaultStageRegistry()))
	assert.Contains(t, msg, "expected_close_date")
	assert.Contains(t, msg, "stage")
	assert.Contains(t, msg, "probability")
}

func TestValidateWorkspace_ActivityRefs(t *testing.T) {
	ws := validMinimalWorkspace()
	ws.Activities = []ActivityImport{
		{Description: "Call", Date: "2026-01-02", ContactRef: "ghost"},
		{Description: "Mail", Date: "2026-01-02", ContactRef: "ada", DealRef: "nope"},
		{Description: "", Date: "yesterday", ContactRef: "ada"},
		{Type: "fax", Description: "Fax", Date: "2026-01-02T10:00:00Z", ContactRef: "ada", DealRef: "d1"},
	}

	errs := ValidateWorkspace(ws, domain.DefaultStageRegistry())
	msg := joinErrs(errs)
	assert.Contains(t, msg, `activities[0].contact_ref "ghost"`)
	assert.Contains(t, msg, `activities[1].deal_ref "nope"`)
	assert.Contains(t, msg, `activities[2].date: invalid date "yesterday"`)
	assert.Contains(t, msg, "activities[3]")
	assert.Len(t, errs, 4)
}

func TestConvert_DefaultsAndRefs(t *testing.T) {
	ws := validMinimalWorkspace()
	ws.Deals = append(ws.Deals, DealImport{Title: "No ref", Value: 5, Stage: "closed", ContactRef: "ada", ExpectedCloseDate: ptrStr("2026-09-30")})
	ws.Activities = []ActivityImport{{Description: "Call", Date: "2026-01-02", ContactRef: "ada", DealRef: "d1"}}

	out, err := Convert(ws, domain.DefaultStageRegistry())
	require.NoError(t, err)
	require.Len(t, out.Deals, 2)
	assert.Equal(t, "lead", out.Deals[0].Deal.StageID)
	assert.Equal(t, 10, out.Deals[0].Deal.Probability)
	assert.Equal(t, 100, out.Deals[1].Deal.Probability)
	assert.NotEmpty(t, out.Deals[1].Ref, "missing refs are generated")
	require.NotNil(t, out.Deals[1].Deal.ExpectedCloseDate)
	assert.Equal(t, "2026-09-30", out.Deals[1].Deal.ExpectedCloseDate.Format(dateLayout))

	require.Len(t, out.Activities, 1)
	assert.Equal(t, "d1", out.Activities[0].DealRef)
	assert.Equal(t, 2026, out.Activities[0].Activity.Date.Year())
}
