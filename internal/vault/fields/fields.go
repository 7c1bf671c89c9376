// Package fields is the closed catalog of storable field identifiers.
//
// Every identifier belongs to exactly one domain (person or business) and
// exactly one group. Groups carry the portability and completeness rules the
// validator and committer enforce; the catalog itself is pure metadata with no
// side effects.
package fields

import "strings"

// Identifier names one storable field. Fixed identifiers are the constants
// below; custom and document fields are open-ended under the "custom." and
// "document." prefixes and are never portable.
type Identifier string

// Person identity fields.
const (
	FirstName           Identifier = "id.first_name"
	MiddleName          Identifier = "id.middle_name"
	LastName            Identifier = "id.last_name"
	Dob                 Identifier = "id.dob"
	Ssn4                Identifier = "id.ssn4"
	Ssn9                Identifier = "id.ssn9"
	Itin                Identifier = "id.itin"
	Email               Identifier = "id.email"
	PhoneNumber         Identifier = "id.phone_number"
	AddressLine1        Identifier = "id.address_line1"
	AddressLine2        Identifier = "id.address_line2"
	City                Identifier = "id.city"
	State               Identifier = "id.state"
	Zip                 Identifier = "id.zip"
	Country             Identifier = "id.country"
	Nationality         Identifier = "id.nationality"
	UsLegalStatus       Identifier = "id.us_legal_status"
	VisaKind            Identifier = "id.visa_kind"
	VisaExpiration      Identifier = "id.visa_expiration"
	DriversLicenseNum   Identifier = "id.drivers_license_number"
	DriversLicenseState Identifier = "id.drivers_license_state"
)

// Investor profile fields (person domain).
const (
	InvestorOccupation      Identifier = "investor_profile.occupation"
	InvestorEmployer        Identifier = "investor_profile.employer"
	InvestorAnnualIncome    Identifier = "investor_profile.annual_income"
	InvestorNetWorth        Identifier = "investor_profile.net_worth"
	InvestorInvestmentGoals Identifier = "investor_profile.investment_goals"
	InvestorRiskTolerance   Identifier = "investor_profile.risk_tolerance"
	InvestorDeclarations    Identifier = "investor_profile.declarations"
	InvestorFundingSources  Identifier = "investor_profile.funding_sources"
)

// Business fields.
const (
	BusinessName           Identifier = "business.name"
	BusinessDba            Identifier = "business.dba"
	BusinessTin            Identifier = "business.tin"
	BusinessWebsite        Identifier = "business.website"
	BusinessPhoneNumber    Identifier = "business.phone_number"
	BusinessAddressLine1   Identifier = "business.address_line1"
	BusinessAddressLine2   Identifier = "business.address_line2"
	BusinessCity           Identifier = "business.city"
	BusinessState          Identifier = "business.state"
	BusinessZip            Identifier = "business.zip"
	BusinessCountry        Identifier = "business.country"
	BusinessCorpType       Identifier = "business.corporation_type"
	BusinessFormationDate  Identifier = "business.formation_date"
	BusinessFormationState Identifier = "business.formation_state"
	BeneficialOwners       Identifier = "business.beneficial_owners"
	KycedBeneficialOwners  Identifier = "business.kyced_beneficial_owners"
)

// Open-ended prefixes.
const (
	customPrefix   = "custom."
	documentPrefix = "document."
)

// Custom builds a free-form custom field identifier.
func Custom(name string) Identifier { return Identifier(customPrefix + name) }

// Document builds a document field identifier (e.g. "drivers_license.front").
func Document(slug string) Identifier { return Identifier(documentPrefix + slug) }

// IsCustom reports whether the identifier is a free-form custom field.
func (f Identifier) IsCustom() bool { return strings.HasPrefix(string(f), customPrefix) }

// IsDocument reports whether the identifier is a document field.
func (f Identifier) IsDocument() bool { return strings.HasPrefix(string(f), documentPrefix) }

func (f Identifier) String() string { return string(f) }

// Domain partitions the catalog between person and business vaults.
type Domain string

const (
	DomainPerson   Domain = "person"
	DomainBusiness Domain = "business"
)

// Known reports whether f is a fixed catalog identifier or a well-formed
// custom/document identifier.
func Known(f Identifier) bool {
	if _, ok := meta[f]; ok {
		return true
	}
	if f.IsCustom() && len(f) > len(customPrefix) {
		return true
	}
	if f.IsDocument() && len(f) > len(documentPrefix) {
		return true
	}
	return false
}

// DomainOf returns the domain a field belongs to. Custom and document fields
// attach to whichever subject owns them, so they match either domain; the
// validator treats them as domain-neutral.
func DomainOf(f Identifier) (Domain, bool) {
	if m, ok := meta[f]; ok {
		return m.domain, true
	}
	return "", false
}

// DomainNeutral reports whether f may be written to subjects of any domain.
func DomainNeutral(f Identifier) bool { return f.IsCustom() || f.IsDocument() }

// StoresPlaintext reports whether f is exempt from PII sealing and keeps a
// plaintext companion alongside the sealed payload. Only a business's legal
// name qualifies; it is routinely needed for display and matching.
func StoresPlaintext(f Identifier) bool { return f == BusinessName }
