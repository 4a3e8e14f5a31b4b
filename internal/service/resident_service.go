package service

import (
	"context"
	"fmt"
	"strings"

	"farmacia-data/internal/domain"
	"farmacia-data/internal/repository"

	"go.uber.org/zap"
)

// ResidentService 住户管理
type ResidentService struct {
	store  repository.Store
	cache  *SnapshotCache
	logger *zap.Logger
}

func NewResidentService(st repository.Store, cache *SnapshotCache, logger *zap.Logger) *ResidentService {
	return &ResidentService{store: st, cache: cache, logger: logger}
}

func (s *ResidentService) List(ctx context.Context, sess domain.Session) ([]domain.Resident, error) {
	if err := sess.Require(sess.CanViewResidents(), "view residents"); err != nil {
		return nil, err
	}
	snap, err := s.cache.Load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Residents, nil
}

func (s *ResidentService) Create(ctx context.Context, sess domain.Session, r domain.Resident) (*domain.Resident, error) {
	if err := sess.Require(sess.CanManageResidents(), "manage residents"); err != nil {
		return nil, err
	}
	r.ID = ""
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.CreateResident(ctx, &r); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	s.logger.Info("Resident created", zap.String("resident_id", r.ID), zap.String("user", sess.Username))
	return &r, nil
}

func (s *ResidentService) Update(ctx context.Context, sess domain.Session, r domain.Resident) (*domain.Resident, error) {
	if err := sess.Require(sess.CanManageResidents(), "manage residents"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(r.ID) == "" {
		return nil, fmt.Errorf("%w: id is required", domain.ErrInvalidInput)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpdateResident(ctx, &r); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return &r, nil
}

// Delete 历史流水保留（报表中成为孤立记录）
func (s *ResidentService) Delete(ctx context.Context, sess domain.Session, id string) error {
	if err := sess.Require(sess.CanManageResidents(), "manage residents"); err != nil {
		return err
	}
	if err := s.store.DeleteResident(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	s.logger.Info("Resident deleted", zap.String("resident_id", id), zap.String("user", sess.Username))
	return nil
}
