// Package domain defines the core models of the movies API: the Movie record
// served over HTTP, the closed Genre enumeration, and the raw/validated
// payload types that separate untrusted input from data the store accepts.
package domain

import "encoding/json"

// Genre is one of the fixed, closed set of movie genre tags.
type Genre string

const (
	GenreAction    Genre = "Action"
	GenreAdventure Genre = "Adventure"
	GenreComedy    Genre = "Comedy"
	GenreCrime     Genre = "Crime"
	GenreDrama     Genre = "Drama"
	GenreFantasy   Genre = "Fantasy"
	GenreHorror    Genre = "Horror"
	GenreThriller  Genre = "Thriller"
	GenreSciFi     Genre = "Sci-fi"
)

// Genres lists every accepted genre in declaration order.
var Genres = []Genre{
	GenreAction,
	GenreAdventure,
	GenreComedy,
	GenreCrime,
	GenreDrama,
	GenreFantasy,
	GenreHorror,
	GenreThriller,
	GenreSciFi,
}

// Valid reports whether g is a member of the closed genre set. The
// comparison is exact (case-sensitive).
func (g Genre) Valid() bool {
	for _, v := range Genres {
		if g == v {
			return true
		}
	}
	return false
}

// DefaultRate is applied on create when the payload omits "rate".
const DefaultRate = 5.5

// Movie is a single stored record.
//
// Fields:
//   - ID: UUIDv4 string, generated on create and never changed.
//   - Title, Director: free text.
//   - Year: release year in [1900, 2024].
//   - Duration: runtime in minutes (> 0).
//   - Rate: score in [0, 10].
//   - Poster: absolute URL of the poster image.
//   - Genre: ordered genre tags.
type Movie struct {
	ID       string  `json:"id"       example:"dcdd0fad-a94c-4810-8acc-5f108d3b18c3"`
	Title    string  `json:"title"    example:"The Shawshank Redemption"`
	Year     int     `json:"year"     example:"1994"`
	Director string  `json:"director" example:"Frank Darabont"`
	Duration int     `json:"duration" example:"142"`
	Poster   string  `json:"poster"   example:"https://i.ebayimg.com/images/g/4goAAOSwMyBe7hnQ/s-l1200.webp"`
	Genre    []Genre `json:"genre"`
	Rate     float64 `json:"rate"     example:"9.3"`
}

// Clone returns a deep copy of m so callers never share the genre slice
// with stored state.
func (m Movie) Clone() Movie {
	out := m
	if m.Genre != nil {
		out.Genre = append([]Genre(nil), m.Genre...)
	}
	return out
}

// HasGenre reports whether any of m's genres satisfies match.
func (m Movie) HasGenre(match func(Genre) bool) bool {
	for _, g := range m.Genre {
		if match(g) {
			return true
		}
	}
	return false
}

// MovieInput is an untrusted request body. Every field is kept as raw JSON
// so the validator can distinguish an absent field (nil) from a present one
// of the wrong type (including JSON null). Unknown fields are dropped.
type MovieInput struct {
	Title    json.RawMessage `json:"title"    swaggertype:"string"`
	Year     json.RawMessage `json:"year"     swaggertype:"integer"`
	Director json.RawMessage `json:"director" swaggertype:"string"`
	Duration json.RawMessage `json:"duration" swaggertype:"integer"`
	Rate     json.RawMessage `json:"rate"     swaggertype:"number"`
	Poster   json.RawMessage `json:"poster"   swaggertype:"string"`
	Genre    json.RawMessage `json:"genre"    swaggertype:"array,string"`
}

// UnmarshalJSON fills in from exactly-named keys only. Keys that differ in
// case ("Title", "YEAR") are unknown and ignored; for a repeated key the
// last occurrence wins.
func (in *MovieInput) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*in = MovieInput{
		Title:    obj["title"],
		Year:     obj["year"],
		Director: obj["director"],
		Duration: obj["duration"],
		Rate:     obj["rate"],
		Poster:   obj["poster"],
		Genre:    obj["genre"],
	}
	return nil
}

// MovieData is a fully validated create payload. Rate is already defaulted.
type MovieData struct {
	Title    string
	Year     int
	Director string
	Duration int
	Rate     float64
	Poster   string
	Genre    []Genre
}

// MoviePatch is a validated partial update. A nil field was not supplied
// and leaves the stored value untouched.
type MoviePatch struct {
	Title    *string
	Year     *int
	Director *string
	Duration *int
	Rate     *float64
	Poster   *string
	Genre    []Genre
	// GenreSet distinguishes an explicit empty genre list from an absent one.
	GenreSet bool
}

// Empty reports whether the patch carries no fields.
func (p MoviePatch) Empty() bool {
	return p.Title == nil && p.Year == nil && p.Director == nil &&
		p.Duration == nil && p.Rate == nil && p.Poster == nil && !p.GenreSet
}

// Apply returns a copy of m with every present field of p overwritten.
// The ID is never touched.
func (p MoviePatch) Apply(m Movie) Movie {
	out := m.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Year != nil {
		out.Year = *p.Year
	}
	if p.Director != nil {
		out.Director = *p.Director
	}
	if p.Duration != nil {
		out.Duration = *p.Duration
	}
	if p.Rate != nil {
		out.Rate = *p.Rate
	}
	if p.Poster != nil {
		out.Poster = *p.Poster
	}
	if p.GenreSet {
		out.Genre = append([]Genre{}, p.Genre...)
	}
	return out
}
