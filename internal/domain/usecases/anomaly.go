package usecases

import (
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/0xcro3dile/txnsight/internal/domain/entities"
)

// DefaultFailedStatus is the transaction_status value counted as a failure.
const DefaultFailedStatus = "Failed"

// NoRecentDataMessage is reported when a failure-rate window holds no rows.
const NoRecentDataMessage = "no recent data"

// AnomalyDetector runs statistical checks over an in-memory table snapshot.
// It never touches storage.
type AnomalyDetector struct {
	entityColumn string
	failedStatus string
	now          func() time.Time
}

// NewAnomalyDetector creates a detector grouping on entityColumn
// (mall_name when empty) and counting failedStatus as failures.
func NewAnomalyDetector(entityColumn, failedStatus string) *AnomalyDetector {
	if entityColumn == "" {
		entityColumn = entities.ColMallName
	}
	if failedStatus == "" {
		failedStatus = DefaultFailedStatus
	}
	return &AnomalyDetector{
		entityColumn: entityColumn,
		failedStatus: failedStatus,
		now:          time.Now,
	}
}

// WithClock returns a copy of d that reads the current time from now.
func (d *AnomalyDetector) WithClock(now func() time.Time) *AnomalyDetector {
	c := *d
	c.now = now
	return &c
}

// EntityColumn returns the column failure rates are grouped on.
func (d *AnomalyDetector) EntityColumn() string {
	return d.entityColumn
}

// DetectFailureRate computes the failed share of entity's transactions
// dated within the last windowHours. It alerts when the rate reaches thresholdPct.
func (d *AnomalyDetector) DetectFailureRate(
	records []entities.TransactionRecord,
	entity string,
	windowHours int,
	thresholdPct float64,
) entities.FailureRateAlert {
	result := entities.FailureRateAlert{
		Entity:      entity,
		WindowHours: windowHours,
		Threshold:   thresholdPct,
		MatchingIDs: []string{},
	}

	cutoff := d.now().Add(-time.Duration(windowHours) * time.Hour)
	for _, r := range records {
		if r.EntityValue(d.entityColumn) != entity || r.Date.Before(cutoff) {
			continue
		}
		result.Total++
		if r.Status == d.failedStatus {
			result.Failed++
			result.MatchingIDs = append(result.MatchingIDs, r.TransactionID)
		}
	}

	if result.Total == 0 {
		result.Message = NoRecentDataMessage
		return result
	}

	result.Rate = float64(result.Failed) / float64(result.Total) * 100
	result.IsAlert = result.Rate >= thresholdPct
	if result.IsAlert {
		result.Message = fmt.Sprintf("ALERT: High failed transaction rate for %s! %.2f%% failed in the last %d hours (%d/%d).",
			entity, result.Rate, windowHours, result.Failed, result.Total)
	} else {
		result.Message = fmt.Sprintf("Normal failure rate for %s: %.2f%% failed in the last %d hours (%d/%d), threshold %.2f%%.",
			entity, result.Rate, windowHours, result.Failed, result.Total, thresholdPct)
	}
	return result
}

// DetectAmountOutliers returns records whose amount lies strictly outside
// mean ± multiplier·σ, using the sample standard deviation. The lower bound
// is clamped at zero. Fewer than two records is insufficient data.
func (d *AnomalyDetector) DetectAmountOutliers(
	records []entities.TransactionRecord,
	multiplier float64,
) entities.AmountOutlierSet {
	result := entities.AmountOutlierSet{
		Records:    []entities.TransactionRecord{},
		Multiplier: multiplier,
	}
	if len(records) < 2 {
		result.InsufficientData = true
		result.Message = fmt.Sprintf("insufficient data for outlier detection (%d transactions)", len(records))
		return result
	}

	amounts := make(stats.Float64Data, len(records))
	for i, r := range records {
		amounts[i] = r.Amount.InexactFloat64()
	}

	mean, err := stats.Mean(amounts)
	if err != nil {
		result.InsufficientData = true
		result.Message = err.Error()
		return result
	}
	std, err := stats.StandardDeviationSample(amounts)
	if err != nil {
		result.InsufficientData = true
		result.Message = err.Error()
		return result
	}

	result.Mean = mean
	result.StdDev = std
	result.Lower = math.Max(0, mean-multiplier*std)
	result.Upper = mean + multiplier*std

	for i, r := range records {
		if amounts[i] < result.Lower || amounts[i] > result.Upper {
			result.Records = append(result.Records, r)
		}
	}

	if result.IsAlert() {
		result.Message = fmt.Sprintf("Found %d transactions with unusual amounts (outside %.2f - %.2f).",
			len(result.Records), result.Lower, result.Upper)
	} else {
		result.Message = fmt.Sprintf("No unusual transaction amounts found (range %.2f - %.2f).",
			result.Lower, result.Upper)
	}
	return result
}
