// Package semantic retrieves movies and reviews by embedding similarity.
package semantic

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cinerag/internal/domain"
	"github.com/kailas-cloud/cinerag/internal/repository/cache"
)

// queryPrefix biases the embedding model toward retrieval-style queries.
// It is applied to search queries only, never to indexed documents.
const queryPrefix = "Search query: "

// Queries repeat within a session but the catalog changes underneath, so the
// result TTL is short.
const searchTTL = 5 * time.Minute

// VectorRepo is the consumer interface for nearest-neighbor search (ISP).
type VectorRepo interface {
	SearchMovies(ctx context.Context, vec []float32, limit int) ([]domain.ScoredMovie, error)
	SearchReviews(ctx context.Context, vec []float32, limit int) ([]domain.ScoredReview, error)
}

// resultCache is the consumer interface for the result cache (ISP).
type resultCache interface {
	Get(ctx context.Context, key string) ([]byte, cache.Status)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// Result is one semantic retrieval outcome: similar movies plus relevant reviews.
type Result struct {
	Movies  []domain.ScoredMovie
	Reviews []domain.ScoredReview
}

// Retriever embeds a query and searches the vector columns.
type Retriever struct {
	repo   VectorRepo
	embed  domain.Embedder
	cache  resultCache
	logger *zap.Logger
}

// New creates a semantic retriever.
func New(repo VectorRepo, embed domain.Embedder, c resultCache, logger *zap.Logger) *Retriever {
	return &Retriever{repo: repo, embed: embed, cache: c, logger: logger}
}

// Search returns the movies and reviews closest to the query. Movie results
// are served from the result cache when possible; review search always runs
// (the embedding cache absorbs the repeat vectorization).
func (r *Retriever) Search(ctx context.Context, query string, limit int) (Result, domain.TokenUsage, error) {
	var (
		result Result
		usage  domain.TokenUsage
		vec    []float32
	)

	movieKey := cache.Key("search:movies", query+":"+strconv.Itoa(limit))
	if data, status := r.cache.Get(ctx, movieKey); status == cache.Hit {
		if err := json.Unmarshal(data, &result.Movies); err != nil {
			r.logger.Warn("Failed to parse cached search results", zap.String("key", movieKey), zap.Error(err))
			result.Movies = nil
		}
	}

	if result.Movies == nil {
		embRes, err := r.embedQuery(ctx, query)
		if err != nil {
			return Result{}, usage, err
		}
		vec = embRes.Embedding
		usage = usage.Add(domain.TokenUsage{PromptTokens: embRes.PromptTokens, TotalTokens: embRes.TotalTokens})

		result.Movies, err = r.repo.SearchMovies(ctx, vec, limit)
		if err != nil {
			return Result{}, usage, fmt.Errorf("search movies: %w", err)
		}
		// A nil slice marshals to null, which reads back as a miss. Keep the
		// slice non-nil so empty result sets are cached too.
		if result.Movies == nil {
			result.Movies = []domain.ScoredMovie{}
		}

		if data, err := json.Marshal(result.Movies); err == nil {
			r.cache.Set(ctx, movieKey, data, searchTTL)
		}
	}

	if vec == nil {
		embRes, err := r.embedQuery(ctx, query)
		if err != nil {
			return Result{}, usage, err
		}
		vec = embRes.Embedding
		usage = usage.Add(domain.TokenUsage{PromptTokens: embRes.PromptTokens, TotalTokens: embRes.TotalTokens})
	}

	reviews, err := r.repo.SearchReviews(ctx, vec, limit)
	if err != nil {
		return Result{}, usage, fmt.Errorf("search reviews: %w", err)
	}
	result.Reviews = reviews

	return result, usage, nil
}

func (r *Retriever) embedQuery(ctx context.Context, query string) (domain.EmbeddingResult, error) {
	res, err := r.embed.Embed(ctx, queryPrefix+query)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed query: %w", err)
	}
	return res, nil
}
