package usecases

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/txnsight/internal/domain/apperrors"
	"github.com/0xcro3dile/txnsight/internal/domain/entities"
)

var defaultParams = AnomalyParams{
	Entity:        "Z Mall",
	WindowHours:   168,
	ThresholdPct:  10,
	StdMultiplier: 2.5,
}

func TestAnomalyParams_WorkflowNames(t *testing.T) {
	assert.Equal(t, "Failed Transaction Rate (Z Mall, last 168h, >10%)", defaultParams.FailureRateWorkflow())
	assert.Equal(t, "Unusual Transaction Amounts (Overall, >2.5 Std Dev)", defaultParams.OutlierWorkflow())
}

func TestAnomalyUseCase_Run(t *testing.T) {
	store := &mockTxStore{}
	for i := 0; i < 20; i++ {
		status := "Completed"
		if i%5 == 0 {
			status = "Failed"
		}
		store.records = append(store.records, txn(fmt.Sprintf("T%d", i), "10", "Z Mall", status, fixedNow.Add(-time.Hour)))
	}
	store.records = append(store.records, txn("BIG", "1000", "Y Mall", "Completed", fixedNow))
	uc := NewAnomalyUseCase(store, fixedDetector(), defaultParams, nil)

	report, err := uc.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.Equal(t, entities.StatusAlert, report.Results[0].Status)
	assert.Contains(t, report.Results[0].Message, "20.00%")
	assert.Equal(t, entities.StatusAlert, report.Results[1].Status)
	require.NotNil(t, report.Outliers)
	require.Len(t, report.Outliers.Records, 1)
	assert.Equal(t, "BIG", report.Outliers.Records[0].TransactionID)
	require.NotNil(t, report.FailureRate)
	assert.Len(t, report.FailureRate.MatchingIDs, 4)
}

func TestAnomalyUseCase_NormalStatuses(t *testing.T) {
	store := &mockTxStore{records: []entities.TransactionRecord{
		txn("A", "10", "Z Mall", "Completed", fixedNow),
		txn("B", "11", "Z Mall", "Completed", fixedNow),
	}}
	uc := NewAnomalyUseCase(store, fixedDetector(), defaultParams, nil)

	report, err := uc.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.Equal(t, entities.StatusNormal, report.Results[0].Status)
	assert.Equal(t, entities.StatusNormal, report.Results[1].Status)
}

func TestAnomalyUseCase_EmptyTable(t *testing.T) {
	uc := NewAnomalyUseCase(&mockTxStore{}, fixedDetector(), defaultParams, nil)

	report, err := uc.Run(context.Background())

	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Nil(t, report.Outliers)
}

func TestAnomalyUseCase_StoreFailure(t *testing.T) {
	uc := NewAnomalyUseCase(&mockTxStore{loadErr: errors.New("no such table")}, fixedDetector(), defaultParams, nil)

	_, err := uc.Run(context.Background())

	assert.ErrorIs(t, err, apperrors.ErrStore)
}
