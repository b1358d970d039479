package chat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/cinerag/internal/domain"
)

// EmptyContextSentinel is what the synthesizer sees when retrieval found
// nothing. The system prompt instructs the model to admit it.
const EmptyContextSentinel = "No relevant information found in the database."

const (
	plotTruncateLen   = 200
	reviewTruncateLen = 150
	maxReviewsShown   = 3
	maxCastShown      = 3
)

// FormatContext renders the retrieval context into the labeled plain-text
// block the synthesizer consumes.
func FormatContext(rc domain.RetrievalContext) string {
	if rc.Empty() {
		return EmptyContextSentinel
	}

	var parts []string

	if len(rc.SemanticMovies) > 0 {
		parts = append(parts, "=== SEMANTICALLY SIMILAR MOVIES ===")
		for _, m := range rc.SemanticMovies {
			parts = append(parts,
				fmt.Sprintf("- %s (%d) by %s", m.Title, m.Year, m.Director),
				fmt.Sprintf("  Genre: %s | Rating: %s/10 | Similarity: %.1f%%",
					m.Genre, formatRating(m.Rating), m.Similarity*100),
				"  Cast: "+formatCast(m.Cast),
				"  Plot: "+truncate(m.Plot, plotTruncateLen)+"...",
			)
		}
	}

	if len(rc.SemanticReviews) > 0 {
		parts = append(parts, "\n=== RELEVANT REVIEWS ===")
		reviews := rc.SemanticReviews
		if len(reviews) > maxReviewsShown {
			reviews = reviews[:maxReviewsShown]
		}
		for _, r := range reviews {
			parts = append(parts,
				fmt.Sprintf("- Review for '%s' by %s:", r.MovieTitle, r.Reviewer),
				fmt.Sprintf("  %q (Rating: %s/10)",
					truncate(r.Text, reviewTruncateLen)+"...", formatRating(r.Rating)),
			)
		}
	}

	if len(rc.StructuredMovies) > 0 {
		parts = append(parts, "\n=== MATCHING MOVIES FROM DATABASE ===")
		for _, m := range rc.StructuredMovies {
			parts = append(parts,
				fmt.Sprintf("- %s (%d) by %s", m.Title, m.Year, m.Director),
				"  Cast: "+formatCast(m.Cast),
				fmt.Sprintf("  Genre: %s | Rating: %s/10 | Runtime: %d min",
					m.Genre, formatRating(m.Rating), m.RuntimeMinutes),
			)
		}
	}

	if rc.Statistics != nil {
		s := rc.Statistics
		parts = append(parts,
			"\n=== DATABASE STATISTICS ===",
			fmt.Sprintf("Total movies: %d", s.TotalMovies),
			fmt.Sprintf("Average rating: %.1f/10", s.AvgRating),
			fmt.Sprintf("Year range: %d - %d", s.EarliestYear, s.LatestYear),
			fmt.Sprintf("Unique directors: %d", s.UniqueDirectors),
		)
	}

	return strings.Join(parts, "\n")
}

func formatCast(cast []string) string {
	if len(cast) == 0 {
		return "Unknown cast"
	}
	if len(cast) > maxCastShown {
		cast = cast[:maxCastShown]
	}
	return strings.Join(cast, ", ")
}

func formatRating(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// truncate cuts at a rune boundary so multi-byte text never splits.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
