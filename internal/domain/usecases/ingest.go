package usecases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/0xcro3dile/txnsight/internal/domain/apperrors"
	"github.com/0xcro3dile/txnsight/internal/domain/ports"
)

// IngestReport summarizes one ingest run.
type IngestReport struct {
	RunID    string
	Path     string
	Clean    CleanReport
	Stored   int
	Indexed  int
	Dim      int
	Model    string
	Duration time.Duration
}

// IngestUseCase runs load, clean, persist and index in sequence.
// Each stage consumes the previous stage's output only.
type IngestUseCase struct {
	loader    ports.RecordLoader
	cleaner   *Cleaner
	persister *Persister
	indexer   *Indexer
	logger    *zap.Logger
}

// NewIngestUseCase creates an IngestUseCase with injected stages.
func NewIngestUseCase(
	loader ports.RecordLoader,
	cleaner *Cleaner,
	persister *Persister,
	indexer *Indexer,
	logger *zap.Logger,
) *IngestUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestUseCase{
		loader:    loader,
		cleaner:   cleaner,
		persister: persister,
		indexer:   indexer,
		logger:    logger.Named("ingest"),
	}
}

// Run ingests the raw file at path. If cleaning leaves no rows,
// nothing is written and a NoData error is returned.
func (uc *IngestUseCase) Run(ctx context.Context, path string) (*IngestReport, error) {
	report := &IngestReport{RunID: uuid.NewString(), Path: path}
	log := uc.logger.With(zap.String("run_id", report.RunID), zap.String("path", path))
	start := time.Now()

	// 1. Load raw rows
	raw, err := uc.loader.Load(ctx, path)
	if err != nil {
		log.Error("loading raw input failed", zap.Error(err))
		return report, err
	}
	log.Info("loaded raw input", zap.Int("rows", len(raw)))

	// 2. Clean
	records, cleanReport := uc.cleaner.Clean(raw)
	report.Clean = cleanReport
	if len(records) == 0 {
		log.Warn("no valid transactions after cleaning")
		return report, apperrors.NoData("ingest.clean", "no valid transactions after cleaning")
	}

	// 3. Persist
	summaries, err := uc.persister.Persist(ctx, records)
	if err != nil {
		log.Error("persisting transactions failed", zap.Error(err))
		return report, err
	}
	report.Stored = len(summaries)

	// 4. Index
	snap, err := uc.indexer.Build(ctx, summaries)
	if err != nil {
		log.Error("building index failed", zap.Error(err))
		return report, err
	}
	report.Indexed = snap.Index.Len()
	report.Dim = snap.Index.Dim()
	report.Model = snap.Model
	report.Duration = time.Since(start)

	log.Info("ingest complete",
		zap.Int("stored", report.Stored),
		zap.Int("indexed", report.Indexed),
		zap.Duration("took", report.Duration))
	return report, nil
}
