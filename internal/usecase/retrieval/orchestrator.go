// Package retrieval orchestrates semantic and structured retrieval into one
// context for answer synthesis.
package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cinerag/internal/domain"
	"github.com/kailas-cloud/cinerag/internal/repository/cache"
	"github.com/kailas-cloud/cinerag/internal/usecase/semantic"
)

const (
	// semanticLimit bounds each vector search; structured results are capped
	// separately after deduplication.
	semanticLimit = 5

	structuredCap = 10

	// keywordLimit bounds the keyword fallback searches per query.
	keywordLimit = 3

	// The aggregate drifts slowly, so an hour of staleness is acceptable.
	statsTTL = time.Hour
)

// MovieRepo is the consumer interface for structured lookups (ISP).
type MovieRepo interface {
	ByTitle(ctx context.Context, title string) ([]domain.Movie, error)
	ByDirector(ctx context.Context, director string) ([]domain.Movie, error)
	ByYear(ctx context.Context, year int) ([]domain.Movie, error)
	ByGenre(ctx context.Context, genre string) ([]domain.Movie, error)
	ByActor(ctx context.Context, actor string) ([]domain.Movie, error)
	ByMinRating(ctx context.Context, minRating float64) ([]domain.Movie, error)
	ByKeyword(ctx context.Context, keyword string) ([]domain.Movie, error)
	Statistics(ctx context.Context) (domain.Statistics, error)
}

// SemanticSearcher is the consumer interface for similarity retrieval (ISP).
type SemanticSearcher interface {
	Search(ctx context.Context, query string, limit int) (semantic.Result, domain.TokenUsage, error)
}

// resultCache is the consumer interface for the result cache (ISP).
type resultCache interface {
	Get(ctx context.Context, key string) ([]byte, cache.Status)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// Orchestrator gathers retrieval context according to the classified intent.
type Orchestrator struct {
	movies   MovieRepo
	semantic SemanticSearcher
	cache    resultCache
	logger   *zap.Logger
}

// New creates a retrieval orchestrator.
func New(movies MovieRepo, sem SemanticSearcher, c resultCache, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{movies: movies, semantic: sem, cache: c, logger: logger}
}

// Gather runs every retrieval path the intent calls for. A failed path is
// logged and skipped, never fatal: partial context is valid context, and the
// synthesizer handles an empty one.
func (o *Orchestrator) Gather(ctx context.Context, query string, analysis domain.IntentAnalysis) (domain.RetrievalContext, domain.TokenUsage) {
	var (
		rc    domain.RetrievalContext
		usage domain.TokenUsage
	)

	if analysis.Intent == domain.IntentSemanticSearch || analysis.Intent == domain.IntentHybrid {
		result, semUsage, err := o.semantic.Search(ctx, query, semanticLimit)
		usage = usage.Add(semUsage)
		if err != nil {
			o.logger.Warn("Semantic retrieval failed", zap.String("query", query), zap.Error(err))
		} else {
			rc.SemanticMovies = result.Movies
			rc.SemanticReviews = result.Reviews
		}
	}

	if analysis.Intent == domain.IntentStructuredQuery || analysis.Intent == domain.IntentHybrid {
		rc.StructuredMovies = o.gatherStructured(ctx, analysis)
	}

	if analysis.NeedsStatistics {
		stats, err := o.Statistics(ctx)
		if err != nil {
			o.logger.Warn("Statistics retrieval failed", zap.Error(err))
		} else {
			rc.Statistics = &stats
		}
	}

	return rc, usage
}

// Statistics returns the catalog aggregate, cached for an hour.
func (o *Orchestrator) Statistics(ctx context.Context) (domain.Statistics, error) {
	key := cache.Key("stats", "catalog")

	if data, status := o.cache.Get(ctx, key); status == cache.Hit {
		var stats domain.Statistics
		if err := json.Unmarshal(data, &stats); err == nil {
			return stats, nil
		}
		o.logger.Warn("Failed to parse cached statistics", zap.String("key", key))
	}

	stats, err := o.movies.Statistics(ctx)
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("compute statistics: %w", err)
	}

	if data, err := json.Marshal(stats); err == nil {
		o.cache.Set(ctx, key, data, statsTTL)
	}
	return stats, nil
}

// gatherStructured runs one lookup per present filter in a fixed priority
// order, then a keyword fallback. Over-fetching is deliberate: recall first,
// dedupe and cap after.
func (o *Orchestrator) gatherStructured(ctx context.Context, analysis domain.IntentAnalysis) []domain.Movie {
	var combined []domain.Movie
	f := analysis.Filters

	if f.Title != nil {
		combined = append(combined, o.lookup(ctx, "title", func() ([]domain.Movie, error) {
			return o.movies.ByTitle(ctx, *f.Title)
		})...)
	}
	if f.Director != nil {
		combined = append(combined, o.lookup(ctx, "director", func() ([]domain.Movie, error) {
			return o.movies.ByDirector(ctx, *f.Director)
		})...)
	}
	if f.Year != nil {
		combined = append(combined, o.lookup(ctx, "year", func() ([]domain.Movie, error) {
			return o.movies.ByYear(ctx, *f.Year)
		})...)
	}
	if f.Genre != nil {
		combined = append(combined, o.lookup(ctx, "genre", func() ([]domain.Movie, error) {
			return o.movies.ByGenre(ctx, *f.Genre)
		})...)
	}
	if f.Actor != nil {
		combined = append(combined, o.lookup(ctx, "actor", func() ([]domain.Movie, error) {
			return o.movies.ByActor(ctx, *f.Actor)
		})...)
	}
	if f.MinRating != nil {
		combined = append(combined, o.lookup(ctx, "min_rating", func() ([]domain.Movie, error) {
			return o.movies.ByMinRating(ctx, *f.MinRating)
		})...)
	}

	keywords := analysis.Keywords
	if len(keywords) > keywordLimit {
		keywords = keywords[:keywordLimit]
	}
	for _, kw := range keywords {
		combined = append(combined, o.lookup(ctx, "keyword", func() ([]domain.Movie, error) {
			return o.movies.ByKeyword(ctx, kw)
		})...)
	}

	return dedupe(combined, structuredCap)
}

func (o *Orchestrator) lookup(_ context.Context, kind string, fn func() ([]domain.Movie, error)) []domain.Movie {
	movies, err := fn()
	if err != nil {
		o.logger.Warn("Structured lookup failed", zap.String("filter", kind), zap.Error(err))
		return nil
	}
	return movies
}

// dedupe keeps the first occurrence of each movie id, preserving lookup
// priority order, and truncates to the limit.
func dedupe(movies []domain.Movie, limit int) []domain.Movie {
	seen := make(map[int64]struct{}, len(movies))
	var unique []domain.Movie
	for _, m := range movies {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		unique = append(unique, m)
		if len(unique) == limit {
			break
		}
	}
	return unique
}
