package usecases

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/0xcro3dile/txnsight/internal/domain/apperrors"
	"github.com/0xcro3dile/txnsight/internal/domain/entities"
	"github.com/0xcro3dile/txnsight/internal/domain/ports"
)

// AnomalyParams configures one anomaly run.
type AnomalyParams struct {
	Entity        string  // Entity value checked for failure rate, e.g. "Z Mall"
	WindowHours   int     // Look-back window for failure rate
	ThresholdPct  float64 // Alert when failure rate >= this percentage
	StdMultiplier float64 // Outlier bound in standard deviations
}

// AnomalyUseCase runs both anomaly checks over the stored table.
type AnomalyUseCase struct {
	store    ports.TransactionStore
	detector *AnomalyDetector
	params   AnomalyParams
	logger   *zap.Logger
}

// NewAnomalyUseCase creates an AnomalyUseCase with fixed parameters.
func NewAnomalyUseCase(
	store ports.TransactionStore,
	detector *AnomalyDetector,
	params AnomalyParams,
	logger *zap.Logger,
) *AnomalyUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnomalyUseCase{
		store:    store,
		detector: detector,
		params:   params,
		logger:   logger.Named("anomaly"),
	}
}

// FailureRateWorkflow names the failure-rate check in run summaries.
func (p AnomalyParams) FailureRateWorkflow() string {
	return fmt.Sprintf("Failed Transaction Rate (%s, last %dh, >%s%%)",
		p.Entity, p.WindowHours, strconv.FormatFloat(p.ThresholdPct, 'f', -1, 64))
}

// OutlierWorkflow names the amount outlier check in run summaries.
func (p AnomalyParams) OutlierWorkflow() string {
	return fmt.Sprintf("Unusual Transaction Amounts (Overall, >%s Std Dev)",
		strconv.FormatFloat(p.StdMultiplier, 'f', -1, 64))
}

// Run loads a table snapshot and runs the failure-rate and outlier checks.
// An empty table yields an empty report.
func (uc *AnomalyUseCase) Run(ctx context.Context) (*entities.AnomalyReport, error) {
	records, err := uc.store.LoadAll(ctx)
	if err != nil {
		if apperrors.KindOf(err) != "" {
			return nil, err
		}
		return nil, apperrors.Store("anomaly.load", "loading transactions", err)
	}

	report := &entities.AnomalyReport{Results: []entities.WorkflowResult{}}
	if len(records) == 0 {
		uc.logger.Info("no transactions to check")
		return report, nil
	}

	rate := uc.detector.DetectFailureRate(records, uc.params.Entity, uc.params.WindowHours, uc.params.ThresholdPct)
	report.FailureRate = &rate
	report.Results = append(report.Results, entities.WorkflowResult{
		Workflow: uc.params.FailureRateWorkflow(),
		Status:   statusOf(rate.IsAlert),
		Message:  rate.Message,
	})

	outliers := uc.detector.DetectAmountOutliers(records, uc.params.StdMultiplier)
	report.Outliers = &outliers
	report.Results = append(report.Results, entities.WorkflowResult{
		Workflow: uc.params.OutlierWorkflow(),
		Status:   statusOf(outliers.IsAlert()),
		Message:  outliers.Message,
	})

	uc.logger.Info("anomaly run complete",
		zap.Int("transactions", len(records)),
		zap.Bool("failure_rate_alert", rate.IsAlert),
		zap.Int("outliers", len(outliers.Records)))
	return report, nil
}

func statusOf(alert bool) string {
	if alert {
		return entities.StatusAlert
	}
	return entities.StatusNormal
}
