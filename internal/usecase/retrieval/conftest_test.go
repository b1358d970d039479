package retrieval

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cinerag/internal/domain"
	"github.com/kailas-cloud/cinerag/internal/repository/cache"
	"github.com/kailas-cloud/cinerag/internal/usecase/semantic"
)

// fakeMovieRepo records which lookups ran, in order.
type fakeMovieRepo struct {
	byFilter map[string][]domain.Movie
	errs     map[string]error
	stats    domain.Statistics
	statsErr error

	calls      []string
	statsCalls int
}

func (f *fakeMovieRepo) get(kind string) ([]domain.Movie, error) {
	f.calls = append(f.calls, kind)
	if err := f.errs[kind]; err != nil {
		return nil, err
	}
	return f.byFilter[kind], nil
}

func (f *fakeMovieRepo) ByTitle(_ context.Context, _ string) ([]domain.Movie, error) {
	return f.get("title")
}

func (f *fakeMovieRepo) ByDirector(_ context.Context, _ string) ([]domain.Movie, error) {
	return f.get("director")
}

func (f *fakeMovieRepo) ByYear(_ context.Context, _ int) ([]domain.Movie, error) {
	return f.get("year")
}

func (f *fakeMovieRepo) ByGenre(_ context.Context, _ string) ([]domain.Movie, error) {
	return f.get("genre")
}

func (f *fakeMovieRepo) ByActor(_ context.Context, _ string) ([]domain.Movie, error) {
	return f.get("actor")
}

func (f *fakeMovieRepo) ByMinRating(_ context.Context, _ float64) ([]domain.Movie, error) {
	return f.get("min_rating")
}

func (f *fakeMovieRepo) ByKeyword(_ context.Context, kw string) ([]domain.Movie, error) {
	return f.get("keyword:" + kw)
}

func (f *fakeMovieRepo) Statistics(_ context.Context) (domain.Statistics, error) {
	f.statsCalls++
	if f.statsErr != nil {
		return domain.Statistics{}, f.statsErr
	}
	return f.stats, nil
}

type fakeSemantic struct {
	result semantic.Result
	usage  domain.TokenUsage
	err    error
	calls  int
}

func (f *fakeSemantic) Search(_ context.Context, _ string, _ int) (semantic.Result, domain.TokenUsage, error) {
	f.calls++
	return f.result, f.usage, f.err
}

type fakeCache struct {
	data map[string][]byte
}

func (f *fakeCache) Get(_ context.Context, key string) ([]byte, cache.Status) {
	if data, ok := f.data[key]; ok {
		return data, cache.Hit
	}
	return nil, cache.Miss
}

func (f *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) {
	if f.data == nil {
		f.data = map[string][]byte{}
	}
	f.data[key] = value
}

func newTestOrchestrator(repo *fakeMovieRepo, sem *fakeSemantic) (*Orchestrator, *fakeCache) {
	fc := &fakeCache{}
	return New(repo, sem, fc, zap.NewNop()), fc
}

func movie(id int64, title string) domain.Movie {
	return domain.Movie{ID: id, Title: title}
}

func strptr(s string) *string { return &s }

func intptr(i int) *int { return &i }

func floatptr(f float64) *float64 { return &f }
