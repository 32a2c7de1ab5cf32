// Package repo implements the data layer for domain entities. This file
// provides MovieStore, the in-memory owner of every movie record for the
// lifetime of the process.
//
// The store is seeded once from the bundled JSON document and never writes
// back to disk. Gin serves requests concurrently, so every read and every
// read-modify-write sequence runs under a single sync.RWMutex: reads share
// the lock, create/update/delete take it exclusively.
//
// Error semantics:
//   - Get, Update and Delete return ErrNotFound when no record has the id.
//   - Records handed out are deep copies; mutating them never affects the
//     stored state.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/tbourn/go-movies-api/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// MovieStore is a mutex-guarded, ordered collection of movies. The zero value
// is not usable; construct with NewMovieStore.
type MovieStore struct {
	mu      sync.RWMutex
	movies  []domain.Movie
	version uint64

	// newID is swapped in tests to force id collisions.
	newID func() string
}

// NewMovieStore returns a store holding a copy of seed, in order.
func NewMovieStore(seed []domain.Movie) *MovieStore {
	movies := make([]domain.Movie, 0, len(seed))
	for _, m := range seed {
		movies = append(movies, m.Clone())
	}
	return &MovieStore{movies: movies, newID: uuid.NewString}
}

// LoadMovies reads the JSON array of movies at path. It is called once at
// startup to seed the store.
func LoadMovies(path string) ([]domain.Movie, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var movies []domain.Movie
	if err := json.Unmarshal(raw, &movies); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	seen := make(map[string]struct{}, len(movies))
	for i, m := range movies {
		if m.ID == "" {
			return nil, fmt.Errorf("decode %s: movie %d has no id", path, i)
		}
		if _, dup := seen[m.ID]; dup {
			return nil, fmt.Errorf("decode %s: duplicate id %q", path, m.ID)
		}
		seen[m.ID] = struct{}{}
	}
	return movies, nil
}

// List returns every movie in insertion order. When genre is non-empty only
// movies carrying that genre tag are returned; the comparison is a full-tag
// match under Unicode case folding, so "action" and "Action" are equivalent.
// The result is never nil.
func (s *MovieStore) List(_ context.Context, genre string) []domain.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Movie, 0, len(s.movies))
	if genre == "" {
		for _, m := range s.movies {
			out = append(out, m.Clone())
		}
		return out
	}

	fold := cases.Fold()
	want := fold.String(genre)
	match := func(g domain.Genre) bool { return fold.String(string(g)) == want }
	for _, m := range s.movies {
		if m.HasGenre(match) {
			out = append(out, m.Clone())
		}
	}
	return out
}

// Get returns the movie with the given id or ErrNotFound.
func (s *MovieStore) Get(_ context.Context, id string) (*domain.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	m := s.movies[i].Clone()
	return &m, nil
}

// Create appends a new movie built from already-validated data and returns
// it. The id is a fresh UUIDv4, unique among the stored records.
func (s *MovieStore) Create(_ context.Context, data domain.MovieData) *domain.Movie {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for s.indexOf(id) >= 0 {
		id = s.newID()
	}
	m := domain.Movie{
		ID:       id,
		Title:    data.Title,
		Year:     data.Year,
		Director: data.Director,
		Duration: data.Duration,
		Rate:     data.Rate,
		Poster:   data.Poster,
		Genre:    append([]domain.Genre{}, data.Genre...),
	}
	s.movies = append(s.movies, m)
	s.version++

	out := m.Clone()
	return &out
}

// Update merges the present fields of patch onto the stored movie, keeping
// its id, and returns the result. An empty patch leaves the version
// unchanged. It returns ErrNotFound when no movie has the id.
func (s *MovieStore) Update(_ context.Context, id string, patch domain.MoviePatch) (*domain.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	if patch.Empty() {
		out := s.movies[i].Clone()
		return &out, nil
	}
	updated := patch.Apply(s.movies[i])
	s.movies[i] = updated
	s.version++

	out := updated.Clone()
	return &out, nil
}

// Delete removes the movie with the given id, preserving the order of the
// remaining records. It returns ErrNotFound when no movie has the id.
func (s *MovieStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	s.movies = append(s.movies[:i], s.movies[i+1:]...)
	s.version++
	return nil
}

// Stats returns the number of stored movies and a counter bumped on every
// mutation. Together they identify a snapshot of the collection, which the
// HTTP layer turns into a weak ETag.
func (s *MovieStore) Stats(_ context.Context) (count int, version uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.movies), s.version
}

// indexOf is a linear scan by exact id. Callers must hold s.mu.
func (s *MovieStore) indexOf(id string) int {
	for i := range s.movies {
		if s.movies[i].ID == id {
			return i
		}
	}
	return -1
}
