package taxlot

import (
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Bracket is one rung of a progressive rate ladder. A zero Upper means the
// bracket is unbounded.
type Bracket struct {
	Upper Money
	Rate  decimal.Decimal
}

// StatusParams holds every per-filing-status parameter for one tax year.
type StatusParams struct {
	Brackets            []Bracket // federal ordinary income
	LTCGBrackets        []Bracket // preferential rate ladder (0/15/20)
	StandardDeduction   Money
	AMTExemption        Money
	AMTPhaseoutStart    Money
	NIITThreshold       Money
	CABrackets          []Bracket
	CAStandardDeduction Money
}

// TaxYearTable carries the federal and California parameters for one year.
// Missing years are a configuration error for that computation only.
type TaxYearTable struct {
	Year   int
	Status map[FilingStatus]StatusParams

	// AMT26To28 is the AMT base above which the 28% rate applies; it is
	// halved for married filing separately.
	AMT26To28   Money
	AMTLowRate  decimal.Decimal // 0.26
	AMTHighRate decimal.Decimal // 0.28
	// AMTPhaseoutRate is the exemption reduction per dollar of AMTI above
	// the phaseout start (25 cents on the dollar).
	AMTPhaseoutRate decimal.Decimal

	NIITRate decimal.Decimal // 0.038

	SALTCap           Money
	CapitalLossCap    Money // per-year net capital loss deduction limit
	CapitalLossCapMFS Money
	MedicalFloorRate  decimal.Decimal // 7.5% of AGI
	CharitableCapRate decimal.Decimal // 60% of AGI
	CASurtaxThreshold Money           // CA mental health services surtax
	CASurtaxRate      decimal.Decimal // 1%
}

// params returns the per-status parameters for the given filing status.
func (t *TaxYearTable) params(status FilingStatus) (StatusParams, error) {
	p, ok := t.Status[status]
	if !ok {
		return StatusParams{}, Errorf(KindConfiguration, "no %d table for filing status %s", t.Year, status)
	}
	return p, nil
}

// amt28Threshold returns the 26/28 breakpoint, halved for MFS.
func (t *TaxYearTable) amt28Threshold(status FilingStatus) Money {
	if status == MarriedSeparate {
		return t.AMT26To28.MulRate(decimal.NewFromFloat(0.5))
	}
	return t.AMT26To28
}

// capitalLossCap returns the §1211(b) annual limit for the filing status.
func (t *TaxYearTable) capitalLossCap(status FilingStatus) Money {
	if status == MarriedSeparate {
		return t.CapitalLossCapMFS
	}
	return t.CapitalLossCap
}

// Tables is the registry of per-year parameter tables.
type Tables struct {
	years map[int]*TaxYearTable
}

// DefaultTables returns the registry preloaded with the built-in years.
func DefaultTables() *Tables {
	t := &Tables{years: map[int]*TaxYearTable{}}
	for _, y := range builtinTables() {
		t.years[y.Year] = y
	}
	return t
}

// ForYear returns the table for a tax year, or a configuration error when the
// year is unknown.
func (t *Tables) ForYear(year int) (*TaxYearTable, error) {
	table, ok := t.years[year]
	if !ok {
		return nil, Errorf(KindConfiguration, "no tax table for year %d", year)
	}
	return table, nil
}

// LoadTablesFile merges year tables from a YAML file over the defaults.
// Years present in the file replace built-in years entirely.
func LoadTablesFile(path string) (*Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tax tables %q: %w", path, err)
	}
	defer f.Close()
	return LoadTables(f)
}

// LoadTables reads YAML year tables and merges them over the defaults.
func LoadTables(r io.Reader) (*Tables, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read tax tables: %w", err)
	}
	var doc yamlTablesDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse tax tables: %w", err)
	}

	tables := DefaultTables()
	for _, y := range doc.Years {
		table, err := y.toTable()
		if err != nil {
			return nil, err
		}
		tables.years[table.Year] = table
	}
	return tables, nil
}

// --- YAML schema ---

type yamlTablesDoc struct {
	Years []yamlYear `yaml:"years"`
}

type yamlYear struct {
	Year            int                        `yaml:"year"`
	Statuses        map[string]yamlStatusParam `yaml:"filing_statuses"`
	AMT26To28       float64                    `yaml:"amt_28_threshold"`
	AMTLowRate      float64                    `yaml:"amt_low_rate"`
	AMTHighRate     float64                    `yaml:"amt_high_rate"`
	AMTPhaseoutRate float64                    `yaml:"amt_phaseout_rate"`
	NIITRate        float64                    `yaml:"niit_rate"`
	SALTCap         float64                    `yaml:"salt_cap"`
	CapitalLossCap  float64                    `yaml:"capital_loss_cap"`
	CapLossCapMFS   float64                    `yaml:"capital_loss_cap_mfs"`
	MedicalFloor    float64                    `yaml:"medical_floor_rate"`
	CharitableCap   float64                    `yaml:"charitable_cap_rate"`
	CASurtaxAbove   float64                    `yaml:"ca_surtax_threshold"`
	CASurtaxRate    float64                    `yaml:"ca_surtax_rate"`
}

type yamlStatusParam struct {
	Brackets     []yamlBracket `yaml:"brackets"`
	LTCGBrackets []yamlBracket `yaml:"ltcg_brackets"`
	StandardDed  float64       `yaml:"standard_deduction"`
	AMTExemption float64       `yaml:"amt_exemption"`
	AMTPhaseout  float64       `yaml:"amt_phaseout_start"`
	NIIT         float64       `yaml:"niit_threshold"`
	CABrackets   []yamlBracket `yaml:"ca_brackets"`
	CAStdDed     float64       `yaml:"ca_standard_deduction"`
}

type yamlBracket struct {
	// Upper 0 (or omitted) marks the top, unbounded bracket.
	Upper float64 `yaml:"upper"`
	Rate  float64 `yaml:"rate"`
}

func (y yamlYear) toTable() (*TaxYearTable, error) {
	if y.Year == 0 {
		return nil, Errorf(KindConfiguration, "tax table entry without a year")
	}
	table := &TaxYearTable{
		Year:              y.Year,
		Status:            map[FilingStatus]StatusParams{},
		AMT26To28:         USD(y.AMT26To28),
		AMTLowRate:        decimal.NewFromFloat(y.AMTLowRate),
		AMTHighRate:       decimal.NewFromFloat(y.AMTHighRate),
		AMTPhaseoutRate:   decimal.NewFromFloat(y.AMTPhaseoutRate),
		NIITRate:          decimal.NewFromFloat(y.NIITRate),
		SALTCap:           USD(y.SALTCap),
		CapitalLossCap:    USD(y.CapitalLossCap),
		CapitalLossCapMFS: USD(y.CapLossCapMFS),
		MedicalFloorRate:  decimal.NewFromFloat(y.MedicalFloor),
		CharitableCapRate: decimal.NewFromFloat(y.CharitableCap),
		CASurtaxThreshold: USD(y.CASurtaxAbove),
		CASurtaxRate:      decimal.NewFromFloat(y.CASurtaxRate),
	}
	for name, sp := range y.Statuses {
		status, err := ParseFilingStatus(name)
		if err != nil {
			return nil, Errorf(KindConfiguration, "tax table %d: %v", y.Year, err)
		}
		table.Status[status] = StatusParams{
			Brackets:            toBrackets(sp.Brackets),
			LTCGBrackets:        toBrackets(sp.LTCGBrackets),
			StandardDeduction:   USD(sp.StandardDed),
			AMTExemption:        USD(sp.AMTExemption),
			AMTPhaseoutStart:    USD(sp.AMTPhaseout),
			NIITThreshold:       USD(sp.NIIT),
			CABrackets:          toBrackets(sp.CABrackets),
			CAStandardDeduction: USD(sp.CAStdDed),
		}
	}
	return table, nil
}

func toBrackets(in []yamlBracket) []Bracket {
	out := make([]Bracket, 0, len(in))
	for _, b := range in {
		out = append(out, Bracket{Upper: USD(b.Upper), Rate: decimal.NewFromFloat(b.Rate)})
	}
	return out
}

// --- built-in years ---

// br builds a bounded bracket, top an unbounded one.
func br(upper, rate float64) Bracket {
	return Bracket{Upper: USD(upper), Rate: decimal.NewFromFloat(rate)}
}
func top(rate float64) Bracket { return Bracket{Rate: decimal.NewFromFloat(rate)} }

func builtinTables() []*TaxYearTable {
	common := func(year int) *TaxYearTable {
		return &TaxYearTable{
			Year:              year,
			Status:            map[FilingStatus]StatusParams{},
			AMTLowRate:        decimal.NewFromFloat(0.26),
			AMTHighRate:       decimal.NewFromFloat(0.28),
			AMTPhaseoutRate:   decimal.NewFromFloat(0.25),
			NIITRate:          decimal.NewFromFloat(0.038),
			SALTCap:           USD(10000),
			CapitalLossCap:    USD(3000),
			CapitalLossCapMFS: USD(1500),
			MedicalFloorRate:  decimal.NewFromFloat(0.075),
			CharitableCapRate: decimal.NewFromFloat(0.60),
			CASurtaxThreshold: USD(1000000),
			CASurtaxRate:      decimal.NewFromFloat(0.01),
		}
	}

	caSingle2023 := []Bracket{
		br(10412, 0.01), br(24684, 0.02), br(38959, 0.04), br(54081, 0.06),
		br(68350, 0.08), br(349137, 0.093), br(418961, 0.103), br(698271, 0.113),
		top(0.123),
	}
	caJoint2023 := []Bracket{
		br(20824, 0.01), br(49368, 0.02), br(77918, 0.04), br(108162, 0.06),
		br(136700, 0.08), br(698274, 0.093), br(837922, 0.103), br(1396542, 0.113),
		top(0.123),
	}
	caHoH2023 := []Bracket{
		br(20839, 0.01), br(49371, 0.02), br(63644, 0.04), br(78765, 0.06),
		br(93037, 0.08), br(474824, 0.093), br(569790, 0.103), br(949649, 0.113),
		top(0.123),
	}

	y2023 := common(2023)
	y2023.AMT26To28 = USD(220700)
	y2023.Status[Single] = StatusParams{
		Brackets: []Bracket{
			br(11000, 0.10), br(44725, 0.12), br(95375, 0.22), br(182100, 0.24),
			br(231250, 0.32), br(578125, 0.35), top(0.37),
		},
		LTCGBrackets:        []Bracket{br(44625, 0), br(492300, 0.15), top(0.20)},
		StandardDeduction:   USD(13850),
		AMTExemption:        USD(81300),
		AMTPhaseoutStart:    USD(578150),
		NIITThreshold:       USD(200000),
		CABrackets:          caSingle2023,
		CAStandardDeduction: USD(5363),
	}
	y2023.Status[MarriedJoint] = StatusParams{
		Brackets: []Bracket{
			br(22000, 0.10), br(89450, 0.12), br(190750, 0.22), br(364200, 0.24),
			br(462500, 0.32), br(693750, 0.35), top(0.37),
		},
		LTCGBrackets:        []Bracket{br(89250, 0), br(553850, 0.15), top(0.20)},
		StandardDeduction:   USD(27700),
		AMTExemption:        USD(126500),
		AMTPhaseoutStart:    USD(1156300),
		NIITThreshold:       USD(250000),
		CABrackets:          caJoint2023,
		CAStandardDeduction: USD(10726),
	}
	y2023.Status[MarriedSeparate] = StatusParams{
		Brackets: []Bracket{
			br(11000, 0.10), br(44725, 0.12), br(95375, 0.22), br(182100, 0.24),
			br(231250, 0.32), br(346875, 0.35), top(0.37),
		},
		LTCGBrackets:        []Bracket{br(44625, 0), br(276900, 0.15), top(0.20)},
		StandardDeduction:   USD(13850),
		AMTExemption:        USD(63250),
		AMTPhaseoutStart:    USD(578150),
		NIITThreshold:       USD(125000),
		CABrackets:          caSingle2023,
		CAStandardDeduction: USD(5363),
	}
	y2023.Status[HeadOfHousehold] = StatusParams{
		Brackets: []Bracket{
			br(15700, 0.10), br(59850, 0.12), br(95350, 0.22), br(182100, 0.24),
			br(231250, 0.32), br(578100, 0.35), top(0.37),
		},
		LTCGBrackets:        []Bracket{br(59750, 0), br(523050, 0.15), top(0.20)},
		StandardDeduction:   USD(20800),
		AMTExemption:        USD(81300),
		AMTPhaseoutStart:    USD(578150),
		NIITThreshold:       USD(200000),
		CABrackets:          caHoH2023,
		CAStandardDeduction: USD(10726),
	}

	caSingle2024 := []Bracket{
		br(10756, 0.01), br(25499, 0.02), br(40245, 0.04), br(55866, 0.06),
		br(70606, 0.08), br(360659, 0.093), br(432787, 0.103), br(721314, 0.113),
		top(0.123),
	}
	caJoint2024 := []Bracket{
		br(21512, 0.01), br(50998, 0.02), br(80490, 0.04), br(111732, 0.06),
		br(141212, 0.08), br(721318, 0.093), br(865574, 0.103), br(1442628, 0.113),
		top(0.123),
	}
	caHoH2024 := []Bracket{
		br(21527, 0.01), br(51000, 0.02), br(65744, 0.04), br(81364, 0.06),
		br(96107, 0.08), br(490493, 0.093), br(588593, 0.103), br(980987, 0.113),
		top(0.123),
	}

	y2024 := common(2024)
	y2024.AMT26To28 = USD(232600)
	y2024.Status[Single] = StatusParams{
		Brackets: []Bracket{
			br(11600, 0.10), br(47150, 0.12), br(100525, 0.22), br(191950, 0.24),
			br(243725, 0.32), br(609350, 0.35), top(0.37),
		},
		LTCGBrackets:        []Bracket{br(47025, 0), br(518900, 0.15), top(0.20)},
		StandardDeduction:   USD(14600),
		AMTExemption:        USD(85700),
		AMTPhaseoutStart:    USD(609350),
		NIITThreshold:       USD(200000),
		CABrackets:          caSingle2024,
		CAStandardDeduction: USD(5540),
	}
	y2024.Status[MarriedJoint] = StatusParams{
		Brackets: []Bracket{
			br(23200, 0.10), br(94300, 0.12), br(201050, 0.22), br(383900, 0.24),
			br(487450, 0.32), br(731200, 0.35), top(0.37),
		},
		LTCGBrackets:        []Bracket{br(94050, 0), br(583750, 0.15), top(0.20)},
		StandardDeduction:   USD(29200),
		AMTExemption:        USD(133300),
		AMTPhaseoutStart:    USD(1218700),
		NIITThreshold:       USD(250000),
		CABrackets:          caJoint2024,
		CAStandardDeduction: USD(11080),
	}
	y2024.Status[MarriedSeparate] = StatusParams{
		Brackets: []Bracket{
			br(11600, 0.10), br(47150, 0.12), br(100525, 0.22), br(191950, 0.24),
			br(243725, 0.32), br(365600, 0.35), top(0.37),
		},
		LTCGBrackets:        []Bracket{br(47025, 0), br(291850, 0.15), top(0.20)},
		StandardDeduction:   USD(14600),
		AMTExemption:        USD(66650),
		AMTPhaseoutStart:    USD(609350),
		NIITThreshold:       USD(125000),
		CABrackets:          caSingle2024,
		CAStandardDeduction: USD(5540),
	}
	y2024.Status[HeadOfHousehold] = StatusParams{
		Brackets: []Bracket{
			br(16550, 0.10), br(63100, 0.12), br(100500, 0.22), br(191950, 0.24),
			br(243700, 0.32), br(609350, 0.35), top(0.37),
		},
		LTCGBrackets:        []Bracket{br(63000, 0), br(551350, 0.15), top(0.20)},
		StandardDeduction:   USD(21900),
		AMTExemption:        USD(85700),
		AMTPhaseoutStart:    USD(609350),
		NIITThreshold:       USD(200000),
		CABrackets:          caHoH2024,
		CAStandardDeduction: USD(11080),
	}

	caSingle2025 := []Bracket{
		br(11079, 0.01), br(26264, 0.02), br(41452, 0.04), br(57542, 0.06),
		br(72724, 0.08), br(371478, 0.093), br(445770, 0.103), br(742955, 0.113),
		top(0.123),
	}
	caJoint2025 := []Bracket{
		br(22158, 0.01), br(52528, 0.02), br(82904, 0.04), br(115084, 0.06),
		br(145448, 0.08), br(742956, 0.093), br(891540, 0.103), br(1485910, 0.113),
		top(0.123),
	}
	caHoH2025 := []Bracket{
		br(22173, 0.01), br(52530, 0.02), br(67716, 0.04), br(83804, 0.06),
		br(98990, 0.08), br(505222, 0.093), br(606296, 0.103), br(1010444, 0.113),
		top(0.123),
	}

	y2025 := common(2025)
	y2025.AMT26To28 = USD(239100)
	y2025.Status[Single] = StatusParams{
		Brackets: []Bracket{
			br(11925, 0.10), br(48475, 0.12), br(103350, 0.22), br(197300, 0.24),
			br(250525, 0.32), br(626350, 0.35), top(0.37),
		},
		LTCGBrackets:        []Bracket{br(48350, 0), br(533400, 0.15), top(0.20)},
		StandardDeduction:   USD(15000),
		AMTExemption:        USD(88100),
		AMTPhaseoutStart:    USD(626350),
		NIITThreshold:       USD(200000),
		CABrackets:          caSingle2025,
		CAStandardDeduction: USD(5706),
	}
	y2025.Status[MarriedJoint] = StatusParams{
		Brackets: []Bracket{
			br(23850, 0.10), br(96950, 0.12), br(206700, 0.22), br(394600, 0.24),
			br(501050, 0.32), br(751600, 0.35), top(0.37),
		},
		LTCGBrackets:        []Bracket{br(96700, 0), br(600050, 0.15), top(0.20)},
		StandardDeduction:   USD(30000),
		AMTExemption:        USD(137000),
		AMTPhaseoutStart:    USD(1252700),
		NIITThreshold:       USD(250000),
		CABrackets:          caJoint2025,
		CAStandardDeduction: USD(11412),
	}
	y2025.Status[MarriedSeparate] = StatusParams{
		Brackets: []Bracket{
			br(11925, 0.10), br(48475, 0.12), br(103350, 0.22), br(197300, 0.24),
			br(250525, 0.32), br(375800, 0.35), top(0.37),
		},
		LTCGBrackets:        []Bracket{br(48350, 0), br(300000, 0.15), top(0.20)},
		StandardDeduction:   USD(15000),
		AMTExemption:        USD(68500),
		AMTPhaseoutStart:    USD(626350),
		NIITThreshold:       USD(125000),
		CABrackets:          caSingle2025,
		CAStandardDeduction: USD(5706),
	}
	y2025.Status[HeadOfHousehold] = StatusParams{
		Brackets: []Bracket{
			br(17000, 0.10), br(64850, 0.12), br(103350, 0.22), br(197300, 0.24),
			br(250500, 0.32), br(626350, 0.35), top(0.37),
		},
		LTCGBrackets:        []Bracket{br(64750, 0), br(566700, 0.15), top(0.20)},
		StandardDeduction:   USD(22500),
		AMTExemption:        USD(88100),
		AMTPhaseoutStart:    USD(626350),
		NIITThreshold:       USD(200000),
		CABrackets:          caHoH2025,
		CAStandardDeduction: USD(11412),
	}

	return []*TaxYearTable{y2023, y2024, y2025}
}
