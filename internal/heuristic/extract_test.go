package heuristic

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_PassportSample(t *testing.T) {
	out := Extract("Name: JOHN DOE\nPassport No.: A1234567\nDate of Birth: 1990-01-02\nAddress: 123 Main St")

	assert.Equal(t, "JOHN DOE", out[FieldName])
	assert.Equal(t, "A1234567", out[FieldIDNumber])
	assert.Equal(t, "1990-01-02", out[FieldDateOfBirth])
	assert.Equal(t, "123 Main St", out[FieldAddress])
	assert.NotContains(t, out, FieldPossibleDocumentNumber)
}

func TestExtract_ContactSample(t *testing.T) {
	out := Extract("Full Name: Jane Smith\nEmail: jane@example.com\nPhone: +1 555-123-4567")

	assert.Equal(t, "Jane Smith", out[FieldName])
	assert.Equal(t, "jane@example.com", out[FieldEmail])
	assert.Equal(t, "+1 555-123-4567", out[FieldPhone])
}

func TestExtract_FirstMatchWins(t *testing.T) {
	out := Extract("Name: ALICE\nSurname: BOB\nDOB: 01/02/1980\nDate of Birth: 03/04/1990")

	assert.Equal(t, "ALICE", out[FieldName])
	assert.Equal(t, "01/02/1980", out[FieldDateOfBirth])
	assert.Equal(t, "01/02/1980", out[FieldAnyDate])
}

func TestExtract_AddressContinuation(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"appends wrapped line", "Address: 12 Long Road\nSpringfield District 9", "12 Long Road, Springfield District 9"},
		{"short next line", "Address: 123 Main St\nCity", "123 Main St"},
		{"next line is a label", "Address: 12 Long Road\nDate of Birth: 01/02/1980", "12 Long Road"},
		{"next line is punctuation", "Residence: 4 Elm\n--------------", "4 Elm"},
		{"last line", "Addr: 9 Oak Lane", "9 Oak Lane"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text)[FieldAddress])
		})
	}
}

func TestExtract_Identifiers(t *testing.T) {
	out := Extract("Driver's License: D1234-5678\nExpiry Date: 2030-12-31")

	assert.Equal(t, "D1234-5678", out[FieldDriversLicense])
	assert.Equal(t, "2030-12-31", out[FieldExpiryDate])
	assert.NotContains(t, out, FieldIDNumber)
	assert.NotContains(t, out, FieldPossibleDocumentNumber)
}

func TestExtract_PossibleDocumentNumber(t *testing.T) {
	out := Extract("ID CARD\nX9Y8Z7W6")

	assert.Equal(t, "X9Y8Z7W6", out[FieldPossibleDocumentNumber])
	assert.NotContains(t, out, FieldIDNumber)
}

func TestExtract_LabelInsideWordIgnored(t *testing.T) {
	out := Extract("Username: jdoe")
	assert.NotContains(t, out, FieldName)
}

func TestExtract_Empty(t *testing.T) {
	out := Extract("")
	require.NotNil(t, out)
	assert.Empty(t, out)
}

func TestExtract_Deterministic(t *testing.T) {
	text := "Surname: DOE\nGiven Names: JOHN\nID Number: 99-1234/X\nEmail: j@d.io\nAddress: 1 First St\nApartment 22, Uptown"
	first := Extract(text)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Extract(text))
	}
	assert.Equal(t, map[string]string{
		FieldName:     "DOE",
		FieldIDNumber: "99-1234/X",
		FieldEmail:    "j@d.io",
		FieldAddress:  "1 First St, Apartment 22, Uptown",
	}, first)
}

func TestRules_OrderAndCopy(t *testing.T) {
	rules := Rules()
	require.NotEmpty(t, rules)

	fields := make([]string, len(rules))
	for i, r := range rules {
		fields[i] = r.Field
	}
	assert.Equal(t, []string{
		FieldName, FieldDateOfBirth, FieldIDNumber, FieldDriversLicense, FieldPassportNumber,
		FieldEmail, FieldPhone, FieldAddress, FieldExpiryDate, FieldAnyDate,
	}, fields)

	rules[0] = Rule{Field: "mutated", Pattern: regexp.MustCompile(`(x)`)}
	assert.Equal(t, FieldName, Rules()[0].Field)
}

func TestExtractWith_CustomRules(t *testing.T) {
	rules := []Rule{
		{Field: "sex", Pattern: regexp.MustCompile(`(?i)\bSex[:\s]*([MF])\b`)},
		{Field: "sex", Pattern: regexp.MustCompile(`(?i)\bGender[:\s]*(\w+)`)},
	}
	out := ExtractWith(rules, "Gender: Female\nSex: F")

	assert.Equal(t, "Female", out["sex"])
}

func TestExtract_EmptyLabelDoesNotCapture(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		field string
		want  string
	}{
		{"name on the next line", "Name:\nJOHN DOE", FieldName, ""},
		{"later labeled name", "Surname:\nGiven Names: JOHN", FieldName, "JOHN"},
		{"dash separator", "Name -\nSex: M", FieldName, ""},
		{"spaced separator", "Name :  JOHN DOE", FieldName, "JOHN DOE"},
		{"empty address then filled", "Address:\nResidence: 4 Elm Street", FieldAddress, "4 Elm Street"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Extract(tt.text)
			if tt.want == "" {
				assert.NotContains(t, out, tt.field)
				return
			}
			assert.Equal(t, tt.want, out[tt.field])
		})
	}
}

func TestExtract_Phone(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"seven digits", "Phone: 5551234", "5551234"},
		{"international", "Tel: +44 (20) 7946-0958", "+44 (20) 7946-0958"},
		{"six digits", "Ref: 12-3456", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Extract(tt.text)
			if tt.want == "" {
				assert.NotContains(t, out, FieldPhone)
				return
			}
			assert.Equal(t, tt.want, out[FieldPhone])
		})
	}
}

func TestExtract_PossibleDocumentNumberNeedsDigit(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"words only", "Expiry Date: 2030-12-31\nAddress", ""},
		{"skips short tokens", "REF AB12\nSERIAL K7Q2M9X", "K7Q2M9X"},
		{"digits only", "NATIONAL 123456", "123456"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Extract(tt.text)
			if tt.want == "" {
				assert.NotContains(t, out, FieldPossibleDocumentNumber)
				return
			}
			assert.Equal(t, tt.want, out[FieldPossibleDocumentNumber])
		})
	}
}
