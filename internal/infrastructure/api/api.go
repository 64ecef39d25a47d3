// Package api holds the request and response shapes shared by the HTTP
// front ends, and the mapping from pipeline errors to status codes.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/0xcro3dile/txnsight/internal/domain/apperrors"
	"github.com/0xcro3dile/txnsight/internal/domain/entities"
)

// Routes served by every front end.
const (
	PathQuery   = "/query"
	PathAnomaly = "/run_anomaly_detection"
	PathHealth  = "/health"
)

// NotReadyMessage is returned while retrieval components are unavailable.
const NotReadyMessage = "Retrieval components are not loaded. Run ingestion and restart the server."

// QueryService answers free-text queries.
type QueryService interface {
	Query(ctx context.Context, text string) (*entities.QueryResponse, error)
	Ready() bool
}

// AnomalyService runs the anomaly workflows.
type AnomalyService interface {
	Run(ctx context.Context) (*entities.AnomalyReport, error)
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	QueryText string `json:"query_text" form:"query_text"`
}

// Text returns the trimmed query text.
func (r QueryRequest) Text() string {
	return strings.TrimSpace(r.QueryText)
}

// QueryPayload is the body of a successful POST /query.
type QueryPayload struct {
	Message      string                     `json:"message,omitempty"`
	Transactions []entities.TransactionView `json:"transactions"`
}

// AnomalyPayload is the body of a successful POST /run_anomaly_detection.
type AnomalyPayload struct {
	AnomalyResults      []entities.WorkflowResult         `json:"anomaly_results"`
	UnusualTransactions []entities.UnusualTransactionView `json:"unusual_transactions"`
}

// HealthPayload is the body of GET /health.
type HealthPayload struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
}

// ErrorPayload is the body of every non-2xx response.
type ErrorPayload struct {
	Error string `json:"error"`
}

// NewQueryPayload projects a query response, highest score first.
func NewQueryPayload(resp *entities.QueryResponse) QueryPayload {
	out := QueryPayload{Transactions: []entities.TransactionView{}}
	if resp == nil {
		return out
	}
	out.Message = resp.Message
	for _, st := range resp.Transactions {
		out.Transactions = append(out.Transactions, entities.NewScoredView(st))
	}
	return out
}

// NewAnomalyPayload projects an anomaly report.
func NewAnomalyPayload(report *entities.AnomalyReport) AnomalyPayload {
	out := AnomalyPayload{
		AnomalyResults:      []entities.WorkflowResult{},
		UnusualTransactions: []entities.UnusualTransactionView{},
	}
	if report == nil {
		return out
	}
	out.AnomalyResults = append(out.AnomalyResults, report.Results...)
	if report.Outliers != nil {
		for _, r := range report.Outliers.Records {
			out.UnusualTransactions = append(out.UnusualTransactions, entities.NewUnusualTransactionView(r))
		}
	}
	return out
}

// NewHealthPayload reports readiness.
func NewHealthPayload(ready bool) HealthPayload {
	if ready {
		return HealthPayload{Status: "ok", Ready: true}
	}
	return HealthPayload{Status: "degraded", Ready: false}
}

// StatusCode maps a pipeline error to an HTTP status.
func StatusCode(err error) int {
	switch {
	case err == nil, apperrors.IsNoData(err):
		return http.StatusOK
	case apperrors.IsNotReady(err):
		return http.StatusServiceUnavailable
	case apperrors.IsInput(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrorMessage is the client-facing text for err. Store and index
// details stay in the logs.
func ErrorMessage(err error) string {
	switch apperrors.KindOf(err) {
	case apperrors.KindNotReady:
		return NotReadyMessage
	case apperrors.KindInput:
		var e *apperrors.Error
		if errors.As(err, &e) && e.Message != "" {
			return e.Message
		}
		return err.Error()
	default:
		return "Internal error while processing the request."
	}
}
