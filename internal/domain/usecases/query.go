package usecases

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/0xcro3dile/txnsight/internal/domain/apperrors"
	"github.com/0xcro3dile/txnsight/internal/domain/entities"
)

// NoMatchesMessage is returned when a query finds nothing.
const NoMatchesMessage = "No relevant transactions found for your query."

// Searcher is the retrieval surface the query use case needs.
type Searcher interface {
	Search(ctx context.Context, text string, k int) ([]entities.SearchResult, error)
	Fetch(ctx context.Context, ids []string) ([]entities.TransactionRecord, error)
	Ready() bool
}

// QueryUseCase answers free-text transaction queries.
type QueryUseCase struct {
	retriever Searcher
	topK      int
	logger    *zap.Logger
}

// NewQueryUseCase creates a QueryUseCase returning at most topK results.
func NewQueryUseCase(retriever Searcher, topK int, logger *zap.Logger) *QueryUseCase {
	if topK <= 0 {
		topK = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryUseCase{retriever: retriever, topK: topK, logger: logger.Named("query")}
}

// Ready reports whether queries can be served.
func (uc *QueryUseCase) Ready() bool {
	return uc.retriever.Ready()
}

// Query searches, fetches the matching records and orders them by score, highest first.
func (uc *QueryUseCase) Query(ctx context.Context, text string) (*entities.QueryResponse, error) {
	// 1. Semantic search
	hits, err := uc.retriever.Search(ctx, text, uc.topK)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return &entities.QueryResponse{Transactions: []entities.ScoredTransaction{}, Message: NoMatchesMessage}, nil
	}

	// 2. Fetch details; first hit wins on duplicate ids
	scores := make(map[string]float64, len(hits))
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		if _, ok := scores[h.TransactionID]; ok {
			continue
		}
		scores[h.TransactionID] = h.Score
		ids = append(ids, h.TransactionID)
	}

	records, err := uc.retriever.Fetch(ctx, ids)
	if err != nil {
		if apperrors.IsNoData(err) {
			uc.logger.Warn("search hits missing from store", zap.Strings("ids", ids))
			return &entities.QueryResponse{Transactions: []entities.ScoredTransaction{}, Message: NoMatchesMessage}, nil
		}
		return nil, err
	}

	// 3. Merge and sort
	out := make([]entities.ScoredTransaction, 0, len(records))
	for _, r := range records {
		out = append(out, entities.ScoredTransaction{Record: r, Score: scores[r.TransactionID]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	uc.logger.Debug("query answered", zap.Int("hits", len(hits)), zap.Int("results", len(out)))
	return &entities.QueryResponse{Transactions: out}, nil
}
