// Package heuristic extracts labeled identity fields from canonical OCR text
// with an ordered list of regular-expression rules. It never touches the
// network and is used when the reasoning service yields no fields.
package heuristic

import (
	"regexp"
	"strings"
)

// Field names produced by the default rules.
const (
	FieldName                   = "name"
	FieldDateOfBirth            = "date_of_birth"
	FieldIDNumber               = "id_number"
	FieldDriversLicense         = "drivers_license"
	FieldPassportNumber         = "passport_number"
	FieldEmail                  = "email"
	FieldPhone                  = "phone"
	FieldAddress                = "address"
	FieldExpiryDate             = "expiry_date"
	FieldAnyDate                = "any_date"
	FieldPossibleDocumentNumber = "possible_document_number"
)

// dateToken accepts D/M/Y, D-M-Y and Y-M-D.
const dateToken = `\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}|\d{4}-\d{1,2}-\d{1,2}`

// Free-text values must start past the separator, so a bare label such as
// "Name:" never captures its own colon.
const (
	freeSep   = `\s*[:\-]?\s*`
	freeValue = `[^:\-\s].*`
)

// Rule maps one line pattern to one field. Pattern must have a single
// capture group holding the value. Label is the alternation of label words
// the rule keys on, empty for unlabeled tokens such as email.
type Rule struct {
	Field   string
	Label   string
	Pattern *regexp.Regexp
	// Post turns the captured value into the stored one. next is the line
	// following the match, or "" on the last line.
	Post func(value, next string) string
}

// labeled builds a case-insensitive rule of the form label + sep + value.
func labeled(field, label, sep, value string, post func(string, string) string) Rule {
	return Rule{
		Field:   field,
		Label:   label,
		Pattern: regexp.MustCompile(`(?i)\b(?:` + label + `)` + sep + `(` + value + `)`),
		Post:    post,
	}
}

const (
	labelName     = `Full\s*Name|Given\s*Names|Surname|Name`
	labelDOB      = `Date\s*of\s*Birth|DOB|Birth\s*Date`
	labelID       = `ID\s*No\.?|ID\s*Number|Identification|NIN|SSN|TIN|PAN|Passport\s*No\.?|Document\s*No\.?|Document\s*Number`
	labelDL       = `Driver'?s?\s*License|DL`
	labelPassport = `Passport`
	labelAddress  = `Address|Addr|Residence|Street`
	labelExpiry   = `Expiry\s*Date|Expiry|Expires`
	// labelOther starts a new field even though no rule extracts it.
	labelOther = `Date|ID|Document|Email|Phone|Tel|Mobile|Sex|Gender|Nationality`
)

var defaultRules = []Rule{
	labeled(FieldName, labelName, freeSep, freeValue, nil),
	labeled(FieldDateOfBirth, labelDOB, `[:\-\s]*`, dateToken, nil),
	labeled(FieldIDNumber, labelID, `[:\-\s]*`, `[A-Z0-9\-/]{4,40}`, nil),
	labeled(FieldDriversLicense, labelDL, `[:\-\s]*`, `[A-Z0-9\-]{4,30}`, nil),
	labeled(FieldPassportNumber, labelPassport, `[:\-\s]*`, `[A-Z0-9\-]{4,20}`, nil),
	{
		Field:   FieldEmail,
		Pattern: regexp.MustCompile(`([a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,})`),
	},
	{
		Field:   FieldPhone,
		// At least seven digits, separated by spaces, hyphens or parentheses.
		Pattern: regexp.MustCompile(`(\+?(?:\d[\s\-()]*){6,}\d)`),
	},
	labeled(FieldAddress, labelAddress, freeSep, freeValue, appendContinuation),
	labeled(FieldExpiryDate, labelExpiry, `[:\-\s]*`, dateToken, nil),
	{
		Field:   FieldAnyDate,
		Pattern: regexp.MustCompile(`\b(` + dateToken + `)\b`),
	},
}

// labelStart matches a line that opens with any known label.
var labelStart = regexp.MustCompile(`(?i)^(?:` + strings.Join([]string{
	labelName, labelDOB, labelID, labelDL, labelPassport, labelAddress, labelExpiry, labelOther,
}, "|") + `)\b`)

var reHasAlnum = regexp.MustCompile(`[A-Za-z0-9]`)

// reBareToken is a last-resort document number candidate. Only tokens of
// at least minBareToken characters count.
var reBareToken = regexp.MustCompile(`(?i)\b[A-Z]*\d[A-Z0-9]*\b`)

const minBareToken = 6

// appendContinuation joins a wrapped address line onto the captured value.
func appendContinuation(value, next string) string {
	if len(next) < 10 || !reHasAlnum.MatchString(next) || labelStart.MatchString(next) {
		return value
	}
	return value + ", " + next
}

// Rules returns a copy of the default rule list in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(defaultRules))
	copy(out, defaultRules)
	return out
}
