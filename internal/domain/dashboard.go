package domain

// ============================================================
// Live dashboard snapshot
// ============================================================

// Assumptions are the behavioral inputs the backend applies when it
// computes a live snapshot.
type Assumptions struct {
	NMDEffectiveMaturityYears int     `json:"nmd_effective_maturity_years" yaml:"nmd_effective_maturity_years"`
	NMDDepositBeta            float64 `json:"nmd_deposit_beta" yaml:"nmd_deposit_beta"`
	PrepaymentRate            float64 `json:"prepayment_rate" yaml:"prepayment_rate"`
}

// DefaultAssumptions mirrors what the backend applies when nothing is sent.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		NMDEffectiveMaturityYears: 5,
		NMDDepositBeta:            0.5,
		PrepaymentRate:            0.0,
	}
}

// MaxNMDMaturityYears caps the behavioural maturity of non-maturity deposits.
const MaxNMDMaturityYears = 30

// Validate checks the ranges accepted by the live-data endpoint.
func (a Assumptions) Validate() error {
	if a.NMDEffectiveMaturityYears < 1 || a.NMDEffectiveMaturityYears > MaxNMDMaturityYears {
		return &ErrValidation{Field: "nmd_effective_maturity_years", Message: "must be between 1 and 30"}
	}
	if a.NMDDepositBeta < 0 || a.NMDDepositBeta > 1 {
		return &ErrValidation{Field: "nmd_deposit_beta", Message: "must be between 0 and 1"}
	}
	if a.PrepaymentRate < 0 || a.PrepaymentRate > 1 {
		return &ErrValidation{Field: "prepayment_rate", Message: "must be between 0 and 1"}
	}
	return nil
}

// YieldCurvePoint is one tenor on a curve. Rate is a percentage.
type YieldCurvePoint struct {
	Name     string  `json:"name"`
	Rate     float64 `json:"rate"`
	Scenario string  `json:"scenario,omitempty"`
}

// ScenarioSeriesPoint is one x-axis point of the scenario comparison chart,
// holding one value per scenario name.
type ScenarioSeriesPoint struct {
	Time   string             `json:"time"`
	Values map[string]float64 `json:"data"`
}

// GapRow is one row of a repricing or maturity gap table.
type GapRow struct {
	Bucket      string  `json:"bucket"`
	Assets      float64 `json:"assets"`
	Liabilities float64 `json:"liabilities"`
	Gap         float64 `json:"gap"`
}

// EVEScenarioResult is one row of the EVE scenario table. A zero value is
// a real result (the Base Case delta) and is always sent.
type EVEScenarioResult struct {
	ScenarioName string  `json:"scenario_name"`
	EVEValue     float64 `json:"eve_value"`
}

// NIIScenarioResult is one row of the NII scenario table.
type NIIScenarioResult struct {
	ScenarioName string  `json:"scenario_name"`
	NIIValue     float64 `json:"nii_value"`
}

// DashboardSnapshot is the live-data payload after normalisation: every
// collection is non-nil so the view never sees null.
type DashboardSnapshot struct {
	EVESensitivity        float64               `json:"eve_sensitivity"`
	NIISensitivity        float64               `json:"nii_sensitivity"`
	PortfolioValue        float64               `json:"portfolio_value"`
	YieldCurveData        []YieldCurvePoint     `json:"yield_curve_data"`
	ScenarioData          []ScenarioSeriesPoint `json:"scenario_data"`
	TotalLoans            int                   `json:"total_loans"`
	TotalDeposits         int                   `json:"total_deposits"`
	TotalDerivatives      int                   `json:"total_derivatives"`
	TotalAssetsValue      float64               `json:"total_assets_value"`
	TotalLiabilitiesValue float64               `json:"total_liabilities_value"`
	NetInterestIncome     float64               `json:"net_interest_income"`
	EconomicValueOfEquity float64               `json:"economic_value_of_equity"`
	NIIRepricingGap       []GapRow              `json:"nii_repricing_gap"`
	EVEMaturityGap        []GapRow              `json:"eve_maturity_gap"`
	EVEScenarios          []EVEScenarioResult   `json:"eve_scenarios"`
	NIIScenarios          []NIIScenarioResult   `json:"nii_scenarios"`
	LoanComposition       map[string]float64    `json:"loan_composition"`
	DepositComposition    map[string]float64    `json:"deposit_composition"`
	DerivativeComposition map[string]float64    `json:"derivative_composition"`
	CurrentAssumptions    *Assumptions          `json:"current_assumptions"`
}

// Normalize fills every absent collection with an empty one and restores
// default assumptions when the backend omitted them.
func (s *DashboardSnapshot) Normalize() {
	if s.YieldCurveData == nil {
		s.YieldCurveData = []YieldCurvePoint{}
	}
	if s.ScenarioData == nil {
		s.ScenarioData = []ScenarioSeriesPoint{}
	}
	for i := range s.ScenarioData {
		if s.ScenarioData[i].Values == nil {
			s.ScenarioData[i].Values = map[string]float64{}
		}
	}
	if s.NIIRepricingGap == nil {
		s.NIIRepricingGap = []GapRow{}
	}
	if s.EVEMaturityGap == nil {
		s.EVEMaturityGap = []GapRow{}
	}
	if s.EVEScenarios == nil {
		s.EVEScenarios = []EVEScenarioResult{}
	}
	if s.NIIScenarios == nil {
		s.NIIScenarios = []NIIScenarioResult{}
	}
	if s.LoanComposition == nil {
		s.LoanComposition = map[string]float64{}
	}
	if s.DepositComposition == nil {
		s.DepositComposition = map[string]float64{}
	}
	if s.DerivativeComposition == nil {
		s.DerivativeComposition = map[string]float64{}
	}
	if s.CurrentAssumptions == nil {
		a := DefaultAssumptions()
		s.CurrentAssumptions = &a
	}
}

// Overview is what the dashboard screen needs in one round trip.
type Overview struct {
	Snapshot    *DashboardSnapshot    `json:"snapshot"`
	Composition *PortfolioComposition `json:"composition"`
	YieldCurves []YieldCurvePoint     `json:"yield_curves"`
	Pies        OverviewPies          `json:"pies"`
	Tones       SensitivityTones      `json:"tones"`
	Warnings    []string              `json:"warnings,omitempty"`
}

// OverviewPies are the snapshot's composition maps as pie slices.
type OverviewPies struct {
	Loans       []PieSlice `json:"loans"`
	Deposits    []PieSlice `json:"deposits"`
	Derivatives []PieSlice `json:"derivatives"`
}

// SensitivityTones colour the EVE and NII sensitivity figures.
type SensitivityTones struct {
	EVE string `json:"eve"`
	NII string `json:"nii"`
}
