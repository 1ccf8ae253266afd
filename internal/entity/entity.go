// Package entity defines the PII entity taxonomy shared by the detection
// and transform pipelines: the closed set of entity types, the per-type
// placeholder prefixes and human-readable labels, and the mapping from the
// NER model's native labels to domain types.
package entity

import "strings"

// Type classifies a detected PII span.
type Type string

// Statistically-derived categories (mapped from NER model labels).
const (
	PersonName       Type = "PERSON_NAME"
	Location         Type = "LOCATION"
	Organization     Type = "ORGANIZATION"
	DateTime         Type = "DATE_TIME"
	FinancialAmount  Type = "FINANCIAL_AMOUNT"
	Facility         Type = "FACILITY_NAME"
	NationalityGroup Type = "NATIONALITY_GROUP"
	EventName        Type = "EVENT_NAME"
	LegalDocument    Type = "LEGAL_DOCUMENT"
	LanguageName     Type = "LANGUAGE_NAME"
	ArtworkTitle     Type = "ARTWORK_TITLE"
)

// Pattern-derived categories.
const (
	Email             Type = "EMAIL"
	Phone             Type = "PHONE"
	CreditCard        Type = "CREDIT_CARD"
	SSN               Type = "SSN"
	ZipCode           Type = "ZIP_CODE"
	AccountID         Type = "ACCOUNT_ID"
	Passport          Type = "PASSPORT"
	DriverLicense     Type = "DRIVER_LICENSE"
	IPAddress         Type = "IP_ADDRESS"
	URL               Type = "URL"
	MedicalID         Type = "MEDICAL_ID"
	Address           Type = "ADDRESS"
	AccountNumber     Type = "ACCOUNT_NUMBER"
	EmployeeID        Type = "EMPLOYEE_ID"
	ApplicationNumber Type = "APPLICATION_NUMBER"
	BankAccount       Type = "BANK_ACCOUNT"
)

// Span is one detected entity as half-open byte offsets into the source
// text. Invariant: 0 <= Start < End <= len(source). Immutable once produced.
type Span struct {
	Text  string `json:"text"`
	Type  Type   `json:"type"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Info carries the per-type presentation data used by the transform engine.
type Info struct {
	Prefix string // placeholder prefix for pseudonymization, e.g. "mobNo"
	Label  string // human-friendly label, e.g. "Phone Number"
}

var registry = map[Type]Info{
	PersonName:        {Prefix: "name", Label: "Person Name"},
	Location:          {Prefix: "location", Label: "Location"},
	Organization:      {Prefix: "company", Label: "Organization"},
	DateTime:          {Prefix: "date", Label: "Date/Time"},
	FinancialAmount:   {Prefix: "amount", Label: "Financial Amount"},
	Facility:          {Prefix: "facility", Label: "Facility"},
	NationalityGroup:  {Prefix: "group", Label: "Nationality/Group"},
	EventName:         {Prefix: "event", Label: "Event"},
	LegalDocument:     {Prefix: "document", Label: "Legal Document"},
	LanguageName:      {Prefix: "language", Label: "Language"},
	ArtworkTitle:      {Prefix: "artwork", Label: "Artwork Title"},
	Email:             {Prefix: "email", Label: "Email Address"},
	Phone:             {Prefix: "mobNo", Label: "Phone Number"},
	CreditCard:        {Prefix: "credit_card", Label: "Credit Card"},
	SSN:               {Prefix: "ssn", Label: "Social Security Number"},
	ZipCode:           {Prefix: "zipcode", Label: "ZIP Code"},
	AccountID:         {Prefix: "account_id", Label: "Account ID"},
	Passport:          {Prefix: "passport", Label: "Passport Number"},
	DriverLicense:     {Prefix: "driver_license", Label: "Driver License"},
	IPAddress:         {Prefix: "ip_address", Label: "IP Address"},
	URL:               {Prefix: "url", Label: "Website URL"},
	MedicalID:         {Prefix: "medical_id", Label: "Medical ID"},
	Address:           {Prefix: "physical_address", Label: "Physical Address"},
	AccountNumber:     {Prefix: "account_number", Label: "Account Number"},
	EmployeeID:        {Prefix: "employee_id", Label: "Employee ID"},
	ApplicationNumber: {Prefix: "application_number", Label: "Application Number"},
	BankAccount:       {Prefix: "bank_account", Label: "Bank Account"},
}

// modelLabels maps the NER model's native labels to domain types.
// Unknown labels are not PII and are discarded by the detector.
var modelLabels = map[string]Type{
	"PERSON":      PersonName,
	"GPE":         Location,
	"ORG":         Organization,
	"DATE":        DateTime,
	"MONEY":       FinancialAmount,
	"FAC":         Facility,
	"NORP":        NationalityGroup,
	"EVENT":       EventName,
	"LAW":         LegalDocument,
	"LANGUAGE":    LanguageName,
	"WORK_OF_ART": ArtworkTitle,
}

// Prefix returns the pseudonym placeholder prefix for a type. Types outside
// the registry fall back to the lowercased type name.
func Prefix(t Type) string {
	if info, ok := registry[t]; ok {
		return info.Prefix
	}
	return strings.ToLower(string(t))
}

// Label returns the human-friendly display label for a type. Types outside
// the registry fall back to a title-cased rendering of the type name.
func Label(t Type) string {
	if info, ok := registry[t]; ok {
		return info.Label
	}
	words := strings.Split(strings.ToLower(string(t)), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// FromModelLabel resolves a NER model label to a domain type.
func FromModelLabel(label string) (Type, bool) {
	t, ok := modelLabels[strings.ToUpper(strings.TrimSpace(label))]
	return t, ok
}
