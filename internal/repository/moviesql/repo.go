// Package moviesql implements structured lookups over the relational catalog.
// Pure reads: one function per filter dimension, case-insensitive partial
// match everywhere except year (exact) and rating (threshold). No caching —
// these lookups are cheap and the filter space is too variable for good ROI.
package moviesql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/kailas-cloud/cinerag/internal/domain"
)

const movieColumns = "id, title, year, director, genre, plot, rating, runtime_minutes, actors"

// Repo reads movies from the relational store.
type Repo struct {
	db *sql.DB
}

// New creates a movie repository.
func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// ByID returns a single movie or domain.ErrNotFound.
func (r *Repo) ByID(ctx context.Context, id int64) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies WHERE id = $1`, movieColumns)

	var m domain.Movie
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.Title, &m.Year, &m.Director, &m.Genre,
		&m.Plot, &m.Rating, &m.RuntimeMinutes, pq.Array(&m.Cast),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Movie{}, fmt.Errorf("movie %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Movie{}, fmt.Errorf("query movie by id: %w", err)
	}
	return m, nil
}

// ByTitle returns movies whose title partially matches, best rated first.
func (r *Repo) ByTitle(ctx context.Context, title string) ([]domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies
		WHERE LOWER(title) LIKE LOWER($1)
		ORDER BY rating DESC`, movieColumns)
	return r.queryMovies(ctx, query, "%"+title+"%")
}

// ByDirector returns movies by a director, newest first.
func (r *Repo) ByDirector(ctx context.Context, director string) ([]domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies
		WHERE LOWER(director) LIKE LOWER($1)
		ORDER BY year DESC`, movieColumns)
	return r.queryMovies(ctx, query, "%"+director+"%")
}

// ByYear returns movies from an exact year, best rated first.
func (r *Repo) ByYear(ctx context.Context, year int) ([]domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies
		WHERE year = $1
		ORDER BY rating DESC`, movieColumns)
	return r.queryMovies(ctx, query, year)
}

// ByGenre returns movies of a genre, best rated first.
func (r *Repo) ByGenre(ctx context.Context, genre string) ([]domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies
		WHERE LOWER(genre) LIKE LOWER($1)
		ORDER BY rating DESC`, movieColumns)
	return r.queryMovies(ctx, query, "%"+genre+"%")
}

// ByActor returns movies featuring an actor, best rated first.
func (r *Repo) ByActor(ctx context.Context, actor string) ([]domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies
		WHERE EXISTS (
			SELECT 1 FROM unnest(actors) AS a
			WHERE LOWER(a) LIKE LOWER($1)
		)
		ORDER BY rating DESC`, movieColumns)
	return r.queryMovies(ctx, query, "%"+actor+"%")
}

// ByMinRating returns movies rated at or above the threshold, best rated first.
func (r *Repo) ByMinRating(ctx context.Context, minRating float64) ([]domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies
		WHERE rating >= $1
		ORDER BY rating DESC`, movieColumns)
	return r.queryMovies(ctx, query, minRating)
}

// ByKeyword returns movies whose title or plot contains the keyword, best rated first.
func (r *Repo) ByKeyword(ctx context.Context, keyword string) ([]domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies
		WHERE LOWER(title) LIKE LOWER($1) OR LOWER(plot) LIKE LOWER($1)
		ORDER BY rating DESC`, movieColumns)
	return r.queryMovies(ctx, query, "%"+keyword+"%")
}

// Statistics computes the catalog aggregate.
func (r *Repo) Statistics(ctx context.Context) (domain.Statistics, error) {
	const query = `SELECT
			COUNT(*),
			COALESCE(AVG(rating), 0),
			COALESCE(MIN(year), 0),
			COALESCE(MAX(year), 0),
			COUNT(DISTINCT director),
			COUNT(DISTINCT genre)
		FROM movies`

	var stats domain.Statistics
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalMovies,
		&stats.AvgRating,
		&stats.EarliestYear,
		&stats.LatestYear,
		&stats.UniqueDirectors,
		&stats.UniqueGenres,
	)
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("query statistics: %w", err)
	}
	return stats, nil
}

func (r *Repo) queryMovies(ctx context.Context, query string, args ...any) ([]domain.Movie, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query movies: %w", err)
	}
	defer rows.Close()

	var movies []domain.Movie
	for rows.Next() {
		var m domain.Movie
		if err := rows.Scan(
			&m.ID, &m.Title, &m.Year, &m.Director, &m.Genre,
			&m.Plot, &m.Rating, &m.RuntimeMinutes, pq.Array(&m.Cast),
		); err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movies: %w", err)
	}
	return movies, nil
}
