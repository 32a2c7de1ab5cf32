// Package services – MovieService
//
// This file implements MovieService, which owns the validate-then-mutate
// protocol for movie records. Write operations always run the validator
// first, so a rejected request never touches the store. Store misses are
// translated into ErrMovieNotFound so handlers can map them to HTTP results
// consistently.
//
// Creation can optionally be made idempotent: when a key is supplied and a
// DB handle is configured, the created movie id is recorded and a retry with
// the same key replays the original movie instead of creating another one.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-movies-api/internal/domain"
	"github.com/tbourn/go-movies-api/internal/repo"
	"github.com/tbourn/go-movies-api/internal/validate"
)

const (
	// idempotencyScope namespaces idempotency keys used by movie creation.
	idempotencyScope = "movies"

	tracerName = "services/MovieService"
)

// MovieRepo defines the store contract required by MovieService.
type MovieRepo interface {
	// List returns all movies, optionally filtered by genre (case-insensitive).
	List(ctx context.Context, genre string) []domain.Movie
	// Get returns a movie by id or repo.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Movie, error)
	// Create appends a movie built from validated data.
	Create(ctx context.Context, data domain.MovieData) *domain.Movie
	// Update merges a validated patch onto a movie or returns repo.ErrNotFound.
	Update(ctx context.Context, id string, patch domain.MoviePatch) (*domain.Movie, error)
	// Delete removes a movie or returns repo.ErrNotFound.
	Delete(ctx context.Context, id string) error
	// Stats returns the record count and mutation version.
	Stats(ctx context.Context) (count int, version uint64)
}

var (
	movieOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movies_operations_total",
			Help: "Movie service operations by kind and outcome.",
		},
		[]string{"op", "outcome"},
	)

	movieRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "movies_records",
			Help: "Number of movie records currently held in memory.",
		},
	)
)

func init() {
	prometheus.MustRegister(movieOps, movieRecords)
}

// MovieService provides list/get/create/update/delete over the movie store.
type MovieService struct {
	// Repo is the in-memory movie store.
	Repo MovieRepo
	// DB holds idempotency records. Nil disables idempotent creation.
	DB *gorm.DB
	// IdempotencyTTL bounds how long a recorded key can be replayed.
	IdempotencyTTL time.Duration
}

// NewMovieService constructs a MovieService. db may be nil.
func NewMovieService(r MovieRepo, db *gorm.DB, ttl time.Duration) *MovieService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	s := &MovieService{Repo: r, DB: db, IdempotencyTTL: ttl}
	s.syncGauge(context.Background())
	return s
}

// List returns every movie, or only those tagged with genre when it is non-empty.
func (s *MovieService) List(ctx context.Context, genre string) []domain.Movie {
	out := s.Repo.List(ctx, genre)
	movieOps.WithLabelValues("list", "ok").Inc()
	return out
}

// Get returns a single movie or ErrMovieNotFound.
func (s *MovieService) Get(ctx context.Context, id string) (*domain.Movie, error) {
	m, err := s.Repo.Get(ctx, id)
	return m, s.observe("get", mapNotFound(err))
}

// Create validates in against the full schema and stores a new movie.
// On validation failure it returns a *validate.Error and stores nothing.
func (s *MovieService) Create(ctx context.Context, in domain.MovieInput) (*domain.Movie, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Create")
	defer span.End()

	res := validate.ValidateFull(in)
	if !res.OK {
		return nil, s.observe("create", res.Err())
	}
	m := s.Repo.Create(ctx, res.Data)
	span.SetAttributes(attribute.String("movie.id", m.ID))
	s.syncGauge(ctx)
	return m, s.observe("create", nil)
}

// CreateIdempotent behaves like Create but records the outcome under key.
// A later call with the same key, within IdempotencyTTL, returns the
// originally created movie with replayed=true and creates nothing.
//
// An empty key, or a service without DB, falls back to Create.
func (s *MovieService) CreateIdempotent(ctx context.Context, key string, in domain.MovieInput) (m *domain.Movie, replayed bool, err error) {
	if key == "" || s.DB == nil {
		m, err = s.Create(ctx, in)
		return m, false, err
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "CreateIdempotent",
		trace.WithAttributes(attribute.Int("idempotency.key_len", len(key))),
	)
	defer span.End()

	if prev, ok, err := s.replay(ctx, key); ok || err != nil {
		span.SetAttributes(attribute.Bool("idempotency.replayed", ok))
		return prev, ok, err
	}

	m, err = s.Create(ctx, in)
	if err != nil {
		return nil, false, err
	}

	_, err = repo.CreateIdempotency(ctx, s.DB, idempotencyScope, key, m.ID, 201, s.IdempotencyTTL)
	switch {
	case err == nil:
		return m, false, nil
	case errors.Is(err, repo.ErrDuplicate):
		// A concurrent request with the same key won the race: undo ours and
		// answer with theirs.
		_ = s.Repo.Delete(ctx, m.ID)
		s.syncGauge(ctx)
		prev, ok, rerr := s.replay(ctx, key)
		if rerr != nil {
			return nil, false, rerr
		}
		if !ok {
			return nil, false, ErrReplayConflict
		}
		return prev, true, nil
	default:
		// The movie exists; failing to record the key only loses replay.
		return m, false, nil
	}
}

// replay looks up a recorded key. ok reports whether a replayable movie was found.
func (s *MovieService) replay(ctx context.Context, key string) (*domain.Movie, bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, idempotencyScope, key, time.Now().UTC())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	m, err := s.Repo.Get(ctx, rec.MovieID)
	if err != nil {
		return nil, false, s.observe("replay", ErrReplayConflict)
	}
	movieOps.WithLabelValues("replay", "ok").Inc()
	return m, true, nil
}

// Update validates in against the partial schema and merges it onto the
// movie with the given id. Validation runs before the lookup, so an invalid
// payload is reported even for an unknown id.
func (s *MovieService) Update(ctx context.Context, id string, in domain.MovieInput) (*domain.Movie, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Update",
		trace.WithAttributes(attribute.String("movie.id", id)),
	)
	defer span.End()

	res := validate.ValidatePartial(in)
	if !res.OK {
		return nil, s.observe("update", res.Err())
	}
	m, err := s.Repo.Update(ctx, id, res.Data)
	return m, recordSpan(span, s.observe("update", mapNotFound(err)))
}

// Delete removes the movie with the given id or returns ErrMovieNotFound.
func (s *MovieService) Delete(ctx context.Context, id string) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("movie.id", id)),
	)
	defer span.End()

	err := recordSpan(span, mapNotFound(s.Repo.Delete(ctx, id)))
	if err == nil {
		s.syncGauge(ctx)
	}
	return s.observe("delete", err)
}

// Stats exposes the store's count and mutation version.
func (s *MovieService) Stats(ctx context.Context) (count int, version uint64) {
	return s.Repo.Stats(ctx)
}

func (s *MovieService) syncGauge(ctx context.Context) {
	if s.Repo == nil {
		return
	}
	n, _ := s.Repo.Stats(ctx)
	movieRecords.Set(float64(n))
}

// observe counts the outcome of op and returns err unchanged.
func (s *MovieService) observe(op string, err error) error {
	outcome := "ok"
	var verr *validate.Error
	switch {
	case err == nil:
	case errors.As(err, &verr):
		outcome = "invalid"
	case errors.Is(err, ErrMovieNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrReplayConflict):
		outcome = "conflict"
	default:
		outcome = "error"
	}
	movieOps.WithLabelValues(op, outcome).Inc()
	return err
}

// recordSpan marks span as failed for unexpected errors and returns err.
// Validation and not-found outcomes are client errors and leave it unset.
func recordSpan(span trace.Span, err error) error {
	var verr *validate.Error
	if err == nil || errors.As(err, &verr) || errors.Is(err, ErrMovieNotFound) {
		return err
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func mapNotFound(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return ErrMovieNotFound
	}
	return err
}
