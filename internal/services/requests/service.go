package requests

import (
	"context"
	"fmt"
	"time"

	"github.com/BearBump/TrackRelay/internal/cache"
	"github.com/BearBump/TrackRelay/internal/edi"
	"github.com/BearBump/TrackRelay/internal/models"
	"github.com/pkg/errors"
)

type Repository interface {
	GetRequest(ctx context.Context, documentNumber, requestType string) (*models.Request, error)
}

// Service reads original request payloads with a cache-aside layer on the
// raw body. Requests are immutable, so a cached body never goes stale; the
// cache is best-effort and the database is always the fallback.
type Service struct {
	repo    Repository
	cache   cache.BytesCache
	bodyTTL time.Duration
}

func New(repo Repository, c cache.BytesCache, bodyTTL time.Duration) *Service {
	return &Service{repo: repo, cache: c, bodyTTL: bodyTTL}
}

// GetPKGINF loads and parses the PKGINF payload for a document.
func (s *Service) GetPKGINF(ctx context.Context, documentNumber string) (*edi.PKGINF, error) {
	if documentNumber == "" {
		return nil, errors.New("documentNumber is required")
	}

	key := bodyKey(documentNumber)
	if s.cache != nil && s.bodyTTL > 0 {
		if b, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			if p, err := edi.ParsePKGINF(b); err == nil {
				return p, nil
			}
			// A cached body that no longer parses is treated as a miss.
		}
	}

	req, err := s.repo.GetRequest(ctx, documentNumber, models.RequestTypePKGINF)
	if err != nil {
		return nil, err
	}

	p, err := edi.ParsePKGINF([]byte(req.RequestBody))
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.bodyTTL > 0 {
		_ = s.cache.Set(ctx, key, []byte(req.RequestBody), s.bodyTTL)
	}
	return p, nil
}

func bodyKey(documentNumber string) string {
	return fmt.Sprintf("request:%s:%s", documentNumber, models.RequestTypePKGINF)
}
