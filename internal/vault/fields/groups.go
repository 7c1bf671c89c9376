package fields

// GroupID identifies a field group. Composite groups (Name, Address…) are
// replaced wholesale: writing any member clears unwritten members in the same
// batch. Rankable groups (Ssn, BeneficialOwner) carry a completeness order
// that forbids in-scope downgrades and drives commit-time reconciliation.
type GroupID string

const (
	GroupName            GroupID = "name"
	GroupDob             GroupID = "dob"
	GroupSsn             GroupID = "ssn"
	GroupItin            GroupID = "itin"
	GroupEmail           GroupID = "email"
	GroupPhone           GroupID = "phone"
	GroupAddress         GroupID = "address"
	GroupNationality     GroupID = "nationality"
	GroupLegalStatus     GroupID = "legal_status"
	GroupDriversLicense  GroupID = "drivers_license"
	GroupInvestorProfile GroupID = "investor_profile"
	GroupBusinessName    GroupID = "business_name"
	GroupBusinessTin     GroupID = "business_tin"
	GroupBusinessWebsite GroupID = "business_website"
	GroupBusinessPhone   GroupID = "business_phone"
	GroupBusinessAddress GroupID = "business_address"
	GroupBusinessCorp    GroupID = "business_corp"
	GroupBeneficialOwner GroupID = "beneficial_owner"
	GroupDocument        GroupID = "document"
	GroupCustom          GroupID = "custom"
)

type fieldMeta struct {
	domain Domain
	group  GroupID
	// rank is the completeness rank within a rankable group; 0 means the
	// group is not rankable.
	rank uint8
}

type groupMeta struct {
	// portable marks the group eligible for promotion to the global tier.
	portable bool
	// composite groups replace all members as a unit on any member write.
	composite bool
	// rankable groups order members by completeness.
	rankable bool
	// terminalTop: once the top-ranked member is portable, an equal-rank
	// candidate from another scope does not replace it (first commit wins),
	// and in-scope rewrites of any member are rejected.
	terminalTop bool
}

var groups = map[GroupID]groupMeta{
	GroupName:            {portable: true, composite: true},
	GroupDob:             {portable: true},
	GroupSsn:             {portable: true, rankable: true},
	GroupItin:            {portable: true},
	GroupEmail:           {portable: true},
	GroupPhone:           {portable: true},
	GroupAddress:         {portable: true, composite: true},
	GroupNationality:     {portable: true},
	GroupLegalStatus:     {portable: true, composite: true},
	GroupDriversLicense:  {portable: true, composite: true},
	GroupInvestorProfile: {portable: true, composite: true},
	GroupBusinessName:    {portable: true, composite: true},
	GroupBusinessTin:     {portable: true},
	GroupBusinessWebsite: {portable: true},
	GroupBusinessPhone:   {portable: true},
	GroupBusinessAddress: {portable: true, composite: true},
	GroupBusinessCorp:    {portable: true, composite: true},
	GroupBeneficialOwner: {portable: true, rankable: true, terminalTop: true},
	GroupDocument:        {},
	GroupCustom:          {},
}

var meta = map[Identifier]fieldMeta{
	FirstName:           {domain: DomainPerson, group: GroupName},
	MiddleName:          {domain: DomainPerson, group: GroupName},
	LastName:            {domain: DomainPerson, group: GroupName},
	Dob:                 {domain: DomainPerson, group: GroupDob},
	Ssn4:                {domain: DomainPerson, group: GroupSsn, rank: 1},
	Ssn9:                {domain: DomainPerson, group: GroupSsn, rank: 2},
	Itin:                {domain: DomainPerson, group: GroupItin},
	Email:               {domain: DomainPerson, group: GroupEmail},
	PhoneNumber:         {domain: DomainPerson, group: GroupPhone},
	AddressLine1:        {domain: DomainPerson, group: GroupAddress},
	AddressLine2:        {domain: DomainPerson, group: GroupAddress},
	City:                {domain: DomainPerson, group: GroupAddress},
	State:               {domain: DomainPerson, group: GroupAddress},
	Zip:                 {domain: DomainPerson, group: GroupAddress},
	Country:             {domain: DomainPerson, group: GroupAddress},
	Nationality:         {domain: DomainPerson, group: GroupNationality},
	UsLegalStatus:       {domain: DomainPerson, group: GroupLegalStatus},
	VisaKind:            {domain: DomainPerson, group: GroupLegalStatus},
	VisaExpiration:      {domain: DomainPerson, group: GroupLegalStatus},
	DriversLicenseNum:   {domain: DomainPerson, group: GroupDriversLicense},
	DriversLicenseState: {domain: DomainPerson, group: GroupDriversLicense},

	InvestorOccupation:      {domain: DomainPerson, group: GroupInvestorProfile},
	InvestorEmployer:        {domain: DomainPerson, group: GroupInvestorProfile},
	InvestorAnnualIncome:    {domain: DomainPerson, group: GroupInvestorProfile},
	InvestorNetWorth:        {domain: DomainPerson, group: GroupInvestorProfile},
	InvestorInvestmentGoals: {domain: DomainPerson, group: GroupInvestorProfile},
	InvestorRiskTolerance:   {domain: DomainPerson, group: GroupInvestorProfile},
	InvestorDeclarations:    {domain: DomainPerson, group: GroupInvestorProfile},
	InvestorFundingSources:  {domain: DomainPerson, group: GroupInvestorProfile},

	BusinessName:           {domain: DomainBusiness, group: GroupBusinessName},
	BusinessDba:            {domain: DomainBusiness, group: GroupBusinessName},
	BusinessTin:            {domain: DomainBusiness, group: GroupBusinessTin},
	BusinessWebsite:        {domain: DomainBusiness, group: GroupBusinessWebsite},
	BusinessPhoneNumber:    {domain: DomainBusiness, group: GroupBusinessPhone},
	BusinessAddressLine1:   {domain: DomainBusiness, group: GroupBusinessAddress},
	BusinessAddressLine2:   {domain: DomainBusiness, group: GroupBusinessAddress},
	BusinessCity:           {domain: DomainBusiness, group: GroupBusinessAddress},
	BusinessState:          {domain: DomainBusiness, group: GroupBusinessAddress},
	BusinessZip:            {domain: DomainBusiness, group: GroupBusinessAddress},
	BusinessCountry:        {domain: DomainBusiness, group: GroupBusinessAddress},
	BusinessCorpType:       {domain: DomainBusiness, group: GroupBusinessCorp},
	BusinessFormationDate:  {domain: DomainBusiness, group: GroupBusinessCorp},
	BusinessFormationState: {domain: DomainBusiness, group: GroupBusinessCorp},
	BeneficialOwners:       {domain: DomainBusiness, group: GroupBeneficialOwner, rank: 1},
	KycedBeneficialOwners:  {domain: DomainBusiness, group: GroupBeneficialOwner, rank: 2},
}

// GroupOf returns the group a field belongs to.
func GroupOf(f Identifier) GroupID {
	if m, ok := meta[f]; ok {
		return m.group
	}
	if f.IsDocument() {
		return GroupDocument
	}
	return GroupCustom
}

// IsPortableEligible reports whether a field may be promoted to the global
// tier at commit time. Custom and document fields never are.
func IsPortableEligible(f Identifier) bool {
	return groups[GroupOf(f)].portable
}

// CompletenessRank returns the completeness rank of a rankable-group member
// (higher = more complete). ok is false for fields outside rankable groups.
func CompletenessRank(f Identifier) (rank uint8, ok bool) {
	m, present := meta[f]
	if !present || m.rank == 0 {
		return 0, false
	}
	return m.rank, true
}

// IsRankable reports whether the group has a completeness order.
func IsRankable(g GroupID) bool { return groups[g].rankable }

// IsTerminalTop reports whether the group's highest rank is a terminal,
// write-once state.
func IsTerminalTop(g GroupID) bool { return groups[g].terminalTop }

// ReplaceGroupMembers returns the co-members of f's group that must be treated
// as replaced-as-a-unit when f is written: for composite groups every other
// member, for rankable groups every other ranked member, and an empty set for
// single-member and open-ended groups.
func ReplaceGroupMembers(f Identifier) map[Identifier]struct{} {
	g := GroupOf(f)
	gm := groups[g]
	if !gm.composite && !gm.rankable {
		return nil
	}
	members := make(map[Identifier]struct{})
	for id, m := range meta {
		if m.group == g && id != f {
			members[id] = struct{}{}
		}
	}
	return members
}

// GroupMembers returns every fixed member of a group.
func GroupMembers(g GroupID) []Identifier {
	var members []Identifier
	for id, m := range meta {
		if m.group == g {
			members = append(members, id)
		}
	}
	return members
}
