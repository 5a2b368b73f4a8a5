package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/cd-sync-api/internal/models"
	"github.com/noah-isme/cd-sync-api/internal/repository"
	appErrors "github.com/noah-isme/cd-sync-api/pkg/errors"
)

const (
	cacheKeyCapturePrefix = "cd:schema:capture:"
	cacheKeyAllFields     = "cd:schema:fields"
)

type schemaFetcher interface {
	GetCaptureFields(ctx context.Context, captureFormKey string) ([]models.CaptureField, error)
	GetAllFields(ctx context.Context) (models.FormFieldMap, error)
}

// SchemaService provides cache-aside access to the remote form schema. Cache
// failures degrade to a direct fetch; the remote API stays the source of
// truth.
type SchemaService struct {
	fetcher schemaFetcher
	cache   *repository.CacheRepository
	ttl     time.Duration
	logger  *zap.Logger
}

// NewSchemaService constructs the service.
func NewSchemaService(fetcher schemaFetcher, cache *repository.CacheRepository, ttl time.Duration, logger *zap.Logger) *SchemaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SchemaService{fetcher: fetcher, cache: cache, ttl: ttl, logger: logger}
}

// CaptureFields returns the capture-field definitions for one remote form.
func (s *SchemaService) CaptureFields(ctx context.Context, captureFormKey string) ([]models.CaptureField, error) {
	key := cacheKeyCapturePrefix + captureFormKey

	var cached []models.CaptureField
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Sugar().Warnw("schema cache read failed", "key", key, "error", err)
	}

	fields, err := s.fetcher.GetCaptureFields(ctx, captureFormKey)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, fields, s.ttl); err != nil {
		s.logger.Sugar().Warnw("schema cache write failed", "key", key, "error", err)
	}
	return fields, nil
}

// AllFields returns the account-wide form field definitions.
func (s *SchemaService) AllFields(ctx context.Context) (models.FormFieldMap, error) {
	var cached models.FormFieldMap
	if err := s.cache.Get(ctx, cacheKeyAllFields, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Sugar().Warnw("schema cache read failed", "key", cacheKeyAllFields, "error", err)
	}

	fields, err := s.fetcher.GetAllFields(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, cacheKeyAllFields, fields, s.ttl); err != nil {
		s.logger.Sugar().Warnw("schema cache write failed", "key", cacheKeyAllFields, "error", err)
	}
	return fields, nil
}
