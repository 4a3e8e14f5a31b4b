package service

import (
	"context"
	"io"

	"farmacia-data/internal/domain"
	"farmacia-data/internal/importer"
	"farmacia-data/internal/metrics"
	"farmacia-data/internal/repository"

	"go.uber.org/zap"
)

// ImportSummary 批量导入结果
type ImportSummary struct {
	Kind    importer.Kind       `json:"kind"`
	Created int                 `json:"created"`
	Skipped []string            `json:"skipped"`
	Errors  []importer.RowError `json:"errors"`
}

// ImportService Excel 批量导入（按名称去重，已存在的跳过，不更新）
type ImportService struct {
	store   repository.Store
	cache   *SnapshotCache
	logger  *zap.Logger
	metrics *metrics.Recorder
}

func NewImportService(st repository.Store, cache *SnapshotCache, logger *zap.Logger, rec *metrics.Recorder) *ImportService {
	return &ImportService{store: st, cache: cache, logger: logger, metrics: rec}
}

func (s *ImportService) Import(ctx context.Context, sess domain.Session, kind importer.Kind, r io.Reader) (*ImportSummary, error) {
	k, err := importer.ParseKind(string(kind))
	if err != nil {
		return nil, err
	}
	if k == importer.KindResidents {
		return s.importResidents(ctx, sess, r)
	}
	return s.importInventory(ctx, sess, r)
}

func (s *ImportService) importInventory(ctx context.Context, sess domain.Session, r io.Reader) (*ImportSummary, error) {
	if err := sess.Require(sess.CanOperate(), "import inventory"); err != nil {
		return nil, err
	}
	// 去重基于最新数据，不走缓存
	items, err := s.store.ListInventory(ctx)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]struct{}, len(items))
	for _, it := range items {
		existing[it.Name] = struct{}{}
	}

	batch, err := importer.ParseInventory(r, existing)
	if err != nil {
		return nil, err
	}
	sum := &ImportSummary{Kind: importer.KindInventory, Skipped: batch.Skipped, Errors: batch.Errors}
	for i := range batch.Records {
		if err := s.store.CreateInventoryItem(ctx, &batch.Records[i]); err != nil {
			s.finish(ctx, sum)
			return sum, err
		}
		sum.Created++
	}
	s.finish(ctx, sum)
	s.logger.Info("Inventory imported",
		zap.Int("created", sum.Created),
		zap.Int("skipped", len(sum.Skipped)),
		zap.Int("invalid", len(sum.Errors)),
		zap.String("user", sess.Username),
	)
	return sum, nil
}

func (s *ImportService) importResidents(ctx context.Context, sess domain.Session, r io.Reader) (*ImportSummary, error) {
	if err := sess.Require(sess.CanManageResidents(), "import residents"); err != nil {
		return nil, err
	}
	residents, err := s.store.ListResidents(ctx)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]struct{}, len(residents))
	for _, res := range residents {
		existing[res.Name] = struct{}{}
	}

	batch, err := importer.ParseResidents(r, existing)
	if err != nil {
		return nil, err
	}
	sum := &ImportSummary{Kind: importer.KindResidents, Skipped: batch.Skipped, Errors: batch.Errors}
	for i := range batch.Records {
		if err := s.store.CreateResident(ctx, &batch.Records[i]); err != nil {
			s.finish(ctx, sum)
			return sum, err
		}
		sum.Created++
	}
	s.finish(ctx, sum)
	s.logger.Info("Residents imported",
		zap.Int("created", sum.Created),
		zap.Int("skipped", len(sum.Skipped)),
		zap.String("user", sess.Username),
	)
	return sum, nil
}

func (s *ImportService) finish(ctx context.Context, sum *ImportSummary) {
	if sum.Skipped == nil {
		sum.Skipped = []string{}
	}
	if sum.Errors == nil {
		sum.Errors = []importer.RowError{}
	}
	if sum.Created > 0 {
		s.cache.Invalidate(ctx)
	}
	kind := string(sum.Kind)
	s.metrics.Imported(kind, "created", sum.Created)
	s.metrics.Imported(kind, "skipped", len(sum.Skipped))
	s.metrics.Imported(kind, "invalid", len(sum.Errors))
}
