package domain

// Movie is a catalog record. The core only reads it.
type Movie struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Year           int      `json:"year"`
	Director       string   `json:"director"`
	Genre          string   `json:"genre"`
	Plot           string   `json:"plot"`
	Rating         float64  `json:"rating"`
	RuntimeMinutes int      `json:"runtime_minutes"`
	Cast           []string `json:"actors"`
}

// Review is a catalog review joined with its movie title.
type Review struct {
	ID         int64   `json:"id"`
	MovieID    int64   `json:"movie_id"`
	MovieTitle string  `json:"movie_title"`
	Reviewer   string  `json:"reviewer_name"`
	Text       string  `json:"review_text"`
	Rating     float64 `json:"rating"`
}

// ScoredMovie is a movie with a similarity score in [0,1], higher = closer.
type ScoredMovie struct {
	Movie
	Similarity float64 `json:"similarity"`
}

// ScoredReview is a review with a similarity score in [0,1], higher = closer.
type ScoredReview struct {
	Review
	Similarity float64 `json:"similarity"`
}

// Statistics is the aggregate over the whole catalog.
type Statistics struct {
	TotalMovies     int     `json:"total_movies"`
	AvgRating       float64 `json:"avg_rating"`
	EarliestYear    int     `json:"earliest_year"`
	LatestYear      int     `json:"latest_year"`
	UniqueDirectors int     `json:"unique_directors"`
	UniqueGenres    int     `json:"unique_genres"`
}
