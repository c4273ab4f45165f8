package plan

// RiskLevel buckets a numeric risk score for display and triage.
type RiskLevel string

const (
	// RiskLow marks phases safe to refactor with routine review.
	RiskLow RiskLevel = "low"

	// RiskMedium marks phases that need test coverage before changes.
	RiskMedium RiskLevel = "medium"

	// RiskHigh marks phases with heavy coupling or central modules.
	RiskHigh RiskLevel = "high"

	// RiskCritical marks phases containing cycles or load-bearing hubs.
	RiskCritical RiskLevel = "critical"
)

const (
	riskCriticalFloor = 50
	riskHighFloor     = 30
	riskMediumFloor   = 10
)

// RiskFor buckets a risk score into a RiskLevel.
func RiskFor(score float64) RiskLevel {
	switch {
	case score >= riskCriticalFloor:
		return RiskCritical
	case score >= riskHighFloor:
		return RiskHigh
	case score >= riskMediumFloor:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Category describes a module's or phase's position in the dependency
// structure. Cycle members are atomic: they must be refactored together.
type Category string

const (
	CategoryLeaf         Category = "leaf"
	CategoryCore         Category = "core"
	CategoryIntermediate Category = "intermediate"
	CategoryCycle        Category = "cycle"
)

// Phase is one batch of modules sharing a dependency level. Every module a
// phase member depends on sits in an earlier phase, and members of the same
// phase are mutually independent unless they share a cycle. Phases are
// immutable once produced; Prerequisites references earlier phases by their
// Order index only.
type Phase struct {
	Order          int       `json:"order"`
	Modules        []string  `json:"modules"`
	CanParallelize bool      `json:"can_parallelize"`
	RiskLevel      RiskLevel `json:"risk_level"`
	RiskScore      float64   `json:"risk_score"`
	Prerequisites  []int     `json:"prerequisites"`
	Category       Category  `json:"category"`
}

// Plan is an ordered refactoring plan over a module dependency graph.
type Plan struct {
	Phases        []Phase    `json:"phases"`
	TotalModules  int        `json:"total_modules"`
	EstimatedRisk RiskLevel  `json:"estimated_risk"`
	Cycles        [][]string `json:"cycles"`
	LeafNodes     []string   `json:"leaf_nodes"`
	CoreNodes     []string   `json:"core_nodes"`
}
