// Package movievector implements similarity search over pgvector columns.
// Distance is cosine (<=> operator); similarity reported to callers is
// 1 - distance so that higher means closer.
package movievector

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/kailas-cloud/cinerag/internal/domain"
)

// Repo runs nearest-neighbor queries against the catalog embeddings.
type Repo struct {
	db *sql.DB
}

// New creates a vector search repository.
func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// SearchMovies returns the movies whose plot embeddings are closest to the
// query vector, most similar first.
func (r *Repo) SearchMovies(ctx context.Context, vec []float32, limit int) ([]domain.ScoredMovie, error) {
	const query = `SELECT
			id, title, year, director, genre, plot, rating, runtime_minutes, actors,
			1 - (plot_embedding <=> $1::vector) AS similarity
		FROM movies
		WHERE plot_embedding IS NOT NULL
		ORDER BY plot_embedding <=> $1::vector
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, vectorLiteral(vec), limit)
	if err != nil {
		return nil, fmt.Errorf("search movies: %w", err)
	}
	defer rows.Close()

	var movies []domain.ScoredMovie
	for rows.Next() {
		var m domain.ScoredMovie
		if err := rows.Scan(
			&m.ID, &m.Title, &m.Year, &m.Director, &m.Genre,
			&m.Plot, &m.Rating, &m.RuntimeMinutes, pq.Array(&m.Cast),
			&m.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scan scored movie: %w", err)
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scored movies: %w", err)
	}
	return movies, nil
}

// SearchReviews returns the reviews whose embeddings are closest to the
// query vector, most similar first. Each review carries its movie title.
func (r *Repo) SearchReviews(ctx context.Context, vec []float32, limit int) ([]domain.ScoredReview, error) {
	const query = `SELECT
			r.id, r.movie_id, m.title, r.reviewer_name, r.review_text, r.rating,
			1 - (r.review_embedding <=> $1::vector) AS similarity
		FROM reviews r
		JOIN movies m ON m.id = r.movie_id
		WHERE r.review_embedding IS NOT NULL
		ORDER BY r.review_embedding <=> $1::vector
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, vectorLiteral(vec), limit)
	if err != nil {
		return nil, fmt.Errorf("search reviews: %w", err)
	}
	defer rows.Close()

	var reviews []domain.ScoredReview
	for rows.Next() {
		var rev domain.ScoredReview
		if err := rows.Scan(
			&rev.ID, &rev.MovieID, &rev.MovieTitle, &rev.Reviewer,
			&rev.Text, &rev.Rating, &rev.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scan scored review: %w", err)
		}
		reviews = append(reviews, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scored reviews: %w", err)
	}
	return reviews, nil
}

// vectorLiteral renders a float32 slice in pgvector input syntax.
func vectorLiteral(vec []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
