package models

import (
	"fmt"
	"strings"
)

// Placeholders substituted for empty CSV fields.
const (
	Unknown = "Desconocido"
	None    = "Ninguna"
)

// Movie is one row of the IMDb dataset. Every field stays text, including
// the numeric-looking ones; identity is the row's position in the corpus.
type Movie struct {
	Title             string `json:"title"`
	OriginalTitle     string `json:"original_title"`
	Year              string `json:"year"`
	DatePublished     string `json:"date_published"`
	Genre             string `json:"genre"`
	Duration          string `json:"duration"`
	Country           string `json:"country"`
	Language          string `json:"language"`
	Director          string `json:"director"`
	Writer            string `json:"writer"`
	ProductionCompany string `json:"production_company"`
	Actors            string `json:"actors"`
	Description       string `json:"description"`
	AvgVote           string `json:"avg_vote"`
	Votes             string `json:"votes"`
}

// Columns lists the CSV header names that map onto Movie, in field order.
var Columns = []string{
	"title", "original_title", "year", "date_published", "genre", "duration",
	"country", "language", "director", "writer", "production_company",
	"actors", "description", "avg_vote", "votes",
}

// MovieFromFields builds a Movie from a header->value map, substituting
// placeholders for missing or empty values.
func MovieFromFields(f map[string]string) Movie {
	get := func(k, placeholder string) string {
		if v := strings.TrimSpace(f[k]); v != "" {
			return v
		}
		return placeholder
	}
	return Movie{
		Title:             get("title", Unknown),
		OriginalTitle:     get("original_title", Unknown),
		Year:              get("year", Unknown),
		DatePublished:     get("date_published", Unknown),
		Genre:             get("genre", Unknown),
		Duration:          get("duration", Unknown),
		Country:           get("country", Unknown),
		Language:          get("language", Unknown),
		Director:          get("director", Unknown),
		Writer:            get("writer", Unknown),
		ProductionCompany: get("production_company", Unknown),
		Actors:            get("actors", Unknown),
		Description:       get("description", None),
		AvgVote:           get("avg_vote", Unknown),
		Votes:             get("votes", Unknown),
	}
}

// Fields returns the values in Columns order.
func (m Movie) Fields() []string {
	return []string{
		m.Title, m.OriginalTitle, m.Year, m.DatePublished, m.Genre, m.Duration,
		m.Country, m.Language, m.Director, m.Writer, m.ProductionCompany,
		m.Actors, m.Description, m.AvgVote, m.Votes,
	}
}

// Document renders the movie as the descriptive text that was embedded to
// produce the embedding matrix. Changing it invalidates existing vectors.
func (m Movie) Document() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Título: %s. ", m.Title)
	fmt.Fprintf(&b, "Título original: %s. ", m.OriginalTitle)
	fmt.Fprintf(&b, "Año de publicación: %s. ", m.Year)
	fmt.Fprintf(&b, "Fecha publicada: %s. ", m.DatePublished)
	fmt.Fprintf(&b, "Género: %s. ", m.Genre)
	fmt.Fprintf(&b, "Duración: %s minutos. ", m.Duration)
	fmt.Fprintf(&b, "País: %s. ", m.Country)
	fmt.Fprintf(&b, "Idioma: %s. ", m.Language)
	fmt.Fprintf(&b, "Director: %s. ", m.Director)
	fmt.Fprintf(&b, "Guionista: %s. ", m.Writer)
	fmt.Fprintf(&b, "Productora: %s. ", m.ProductionCompany)
	fmt.Fprintf(&b, "Actores principales: %s. ", m.Actors)
	fmt.Fprintf(&b, "Descripción: %s. ", m.Description)
	fmt.Fprintf(&b, "Voto promedio: %s. ", m.AvgVote)
	fmt.Fprintf(&b, "Cantidad de votos: %s.", m.Votes)
	return b.String()
}

// SearchResult is one ranked corpus hit.
type SearchResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
	Movie Movie   `json:"movie"`
}

// AskRequest is the body of POST /ask, both inbound and towards the backend.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is the success body of POST /ask.
type AskResponse struct {
	Answer string `json:"answer"`
}
