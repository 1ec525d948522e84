package taxlot

import "fmt"

// EquityType identifies the compensation flavor a lot was acquired under. The
// basis-correction rules differ for each.
type EquityType int

const (
	// RSU shares vest with a basis equal to the FMV at vest.
	RSU EquityType = iota
	// NSO shares are exercised with a basis of strike plus recognized income.
	NSO
	// ESPP shares are purchased at a discount under an employee stock
	// purchase plan; dispositions split into qualifying and disqualifying.
	ESPP
	// ISO shares carry a dual basis: strike for regular tax, FMV at exercise
	// for AMT.
	ISO
)

func (t EquityType) String() string {
	switch t {
	case RSU:
		return "RSU"
	case NSO:
		return "NSO"
	case ESPP:
		return "ESPP"
	case ISO:
		return "ISO"
	default:
		return "unknown"
	}
}

// ParseEquityType parses a string into an EquityType.
func ParseEquityType(s string) (EquityType, error) {
	switch s {
	case "RSU":
		return RSU, nil
	case "NSO":
		return NSO, nil
	case "ESPP":
		return ESPP, nil
	case "ISO":
		return ISO, nil
	default:
		return 0, fmt.Errorf("unknown equity type: %q", s)
	}
}

// matchPriority orders equity types for same-acquisition-date ambiguity:
// ESPP before ISO before NSO before RSU. An RSU lot is the least precise
// fallback and must never shadow a real ESPP or ISO lot.
func (t EquityType) matchPriority() int {
	switch t {
	case ESPP:
		return 0
	case ISO:
		return 1
	case NSO:
		return 2
	default:
		return 3
	}
}

// MatchMethod selects how sold shares are allocated across acquisition lots.
type MatchMethod int

const (
	// MatchFIFO consumes lots oldest acquisition date first.
	MatchFIFO MatchMethod = iota
	// MatchSpecific uses the sale's pre-assigned lot only.
	MatchSpecific
)

func (m MatchMethod) String() string {
	switch m {
	case MatchFIFO:
		return "fifo"
	case MatchSpecific:
		return "specific"
	default:
		return "unknown"
	}
}

// ParseMatchMethod parses a string into a MatchMethod.
func ParseMatchMethod(s string) (MatchMethod, error) {
	switch s {
	case "fifo":
		return MatchFIFO, nil
	case "specific":
		return MatchSpecific, nil
	default:
		return 0, fmt.Errorf("unknown match method: %q", s)
	}
}

// HoldingPeriod is the capital-gain character of a disposal.
type HoldingPeriod int

const (
	ShortTerm HoldingPeriod = iota
	LongTerm
)

func (h HoldingPeriod) String() string {
	if h == LongTerm {
		return "LONG_TERM"
	}
	return "SHORT_TERM"
}

// Form8949Category is the IRS Form 8949 box, determined by holding period and
// whether the broker reported basis on a 1099-B.
type Form8949Category string

const (
	CategoryA Form8949Category = "A" // short-term, basis reported
	CategoryB Form8949Category = "B" // short-term, basis not reported
	CategoryC Form8949Category = "C" // short-term, no 1099-B
	CategoryD Form8949Category = "D" // long-term, basis reported
	CategoryE Form8949Category = "E" // long-term, basis not reported
	CategoryF Form8949Category = "F" // long-term, no 1099-B
)

// form8949Category looks up the category from the holding period and the
// 1099-B reporting status of the sale.
func form8949Category(period HoldingPeriod, basisReported, has1099B bool) Form8949Category {
	switch {
	case !has1099B && period == ShortTerm:
		return CategoryC
	case !has1099B:
		return CategoryF
	case basisReported && period == ShortTerm:
		return CategoryA
	case basisReported:
		return CategoryD
	case period == ShortTerm:
		return CategoryB
	default:
		return CategoryE
	}
}

// FilingStatus is the federal (and CA-conformed) filing status.
type FilingStatus int

const (
	Single FilingStatus = iota
	MarriedJoint
	MarriedSeparate
	HeadOfHousehold
)

func (s FilingStatus) String() string {
	switch s {
	case Single:
		return "single"
	case MarriedJoint:
		return "married_joint"
	case MarriedSeparate:
		return "married_separate"
	case HeadOfHousehold:
		return "head_of_household"
	default:
		return "unknown"
	}
}

// ParseFilingStatus parses a string into a FilingStatus.
func ParseFilingStatus(s string) (FilingStatus, error) {
	switch s {
	case "single":
		return Single, nil
	case "married_joint":
		return MarriedJoint, nil
	case "married_separate":
		return MarriedSeparate, nil
	case "head_of_household":
		return HeadOfHousehold, nil
	default:
		return 0, fmt.Errorf("unknown filing status: %q", s)
	}
}
