package pdf

import (
	"context"

	"ricemill-backend/internal/logger"
	"ricemill-backend/internal/models"

	"go.uber.org/zap"
)

// Service renders slips through a Renderer and keeps the result in a Cache.
// A slip changes only through update, delete or undo, and each of those
// invalidates its entry.
type Service struct {
	renderer Renderer
	cache    Cache
}

func NewService(r Renderer, c Cache) *Service {
	if c == nil {
		c = NopCache{}
	}
	return &Service{renderer: r, cache: c}
}

// Document returns the PDF for s, rendering it on a cache miss. Cache errors
// are logged and otherwise ignored.
func (s *Service) Document(ctx context.Context, slip *models.PurchaseSlip) ([]byte, error) {
	if doc, ok, err := s.cache.Get(ctx, slip.ID); err != nil {
		logger.L().Warn("pdf cache read failed", zap.Uint("slip_id", slip.ID), zap.Error(err))
	} else if ok {
		return doc, nil
	}

	doc, err := s.renderer.Render(ctx, slip.View())
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, slip.ID, doc); err != nil {
		logger.L().Warn("pdf cache write failed", zap.Uint("slip_id", slip.ID), zap.Error(err))
	}
	return doc, nil
}

func (s *Service) Invalidate(ctx context.Context, id uint) error {
	return s.cache.Invalidate(ctx, id)
}
