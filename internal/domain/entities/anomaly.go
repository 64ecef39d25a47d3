package entities

// Workflow statuses reported by the anomaly runner.
const (
	StatusAlert  = "ALERT"
	StatusNormal = "Normal"
)

// FailureRateAlert is the outcome of a failure-rate check for one entity.
type FailureRateAlert struct {
	Entity      string
	WindowHours int
	Rate        float64 // Percent, 0-100
	Threshold   float64 // Percent, 0-100
	Failed      int
	Total       int
	IsAlert     bool
	Message     string
	MatchingIDs []string // Failed transactions inside the window
}

// AmountOutlierSet is the outcome of an amount outlier check.
type AmountOutlierSet struct {
	Records          []TransactionRecord
	Lower            float64
	Upper            float64
	Mean             float64
	StdDev           float64
	Multiplier       float64
	InsufficientData bool
	Message          string
}

// IsAlert reports whether any outlier was found.
func (s AmountOutlierSet) IsAlert() bool {
	return len(s.Records) > 0
}

// WorkflowResult is one row of an anomaly run summary.
type WorkflowResult struct {
	Workflow string `json:"workflow"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

// AnomalyReport bundles both checks of one anomaly run.
type AnomalyReport struct {
	Results     []WorkflowResult
	FailureRate *FailureRateAlert
	Outliers    *AmountOutlierSet
}
