package usecase

import (
	"context"
	"fmt"
	"time"

	"NeuroFeat/internal/domain/models"
	drepo "NeuroFeat/internal/domain/repository"
	pkgcache "NeuroFeat/pkg/cache"
)

// CorpusRequest selects stored sessions and the features to compute on them.
type CorpusRequest struct {
	SessionIDs []string
	From       time.Time
	To         time.Time
	Limit      int
	Features   []string
	Backend    string
}

// CorpusFeaturizer loads labeled signals from the corpus store and runs them
// through the batch scheduler.
type CorpusFeaturizer struct {
	store   drepo.CorpusStore
	feat    *Featurizer
	metrics drepo.Metrics
	cache   pkgcache.Service
}

// NewCorpusFeaturizer creates a corpus featurizer over a store. The cache is
// optional and only shortcuts session listings.
func NewCorpusFeaturizer(store drepo.CorpusStore, feat *Featurizer, metrics drepo.Metrics, cache pkgcache.Service) *CorpusFeaturizer {
	return &CorpusFeaturizer{store: store, feat: feat, metrics: metrics, cache: cache}
}

// Sessions lists session IDs with stored segments in the time range.
func (c *CorpusFeaturizer) Sessions(ctx context.Context, from, to time.Time, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 1000
	}
	key := fmt.Sprintf("corpus:sessions:%d:%d:%d", from.Unix(), to.Unix(), limit)
	if c.cache != nil {
		var v interface{}
		if err := c.cache.Get(ctx, key, &v); err == nil {
			if ids, ok := v.([]string); ok {
				return ids, nil
			}
		}
	}
	ids, err := c.store.ListSessions(ctx, from, to, limit)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		_ = c.cache.Set(ctx, key, ids, 30*time.Second)
	}
	return ids, nil
}

// Featurize loads the requested sessions and produces their feature table.
// When no session IDs are given every session in the time range is used.
func (c *CorpusFeaturizer) Featurize(ctx context.Context, req CorpusRequest) (*models.FeatureTable, error) {
	sessionIDs := req.SessionIDs
	if len(sessionIDs) == 0 {
		ids, err := c.Sessions(ctx, req.From, req.To, req.Limit)
		if err != nil {
			c.metrics.RecordError("corpus_list")
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		sessionIDs = ids
	}
	if len(sessionIDs) == 0 {
		return nil, fmt.Errorf("no sessions in range")
	}

	start := time.Now()
	signals, err := c.store.GetSignals(ctx, sessionIDs, req.From, req.To)
	if err != nil {
		c.metrics.RecordError("corpus_load")
		return nil, fmt.Errorf("load signals: %w", err)
	}
	c.metrics.RecordLatency("corpus_load", time.Since(start).Seconds())
	if len(signals) == 0 {
		return nil, fmt.Errorf("no signals for sessions %v", sessionIDs)
	}

	return c.feat.Featurize(ctx, &models.Dataset{Signals: signals}, FeatureRequest{
		Features: req.Features,
		Backend:  req.Backend,
	})
}
