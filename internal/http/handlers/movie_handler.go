// Movie HTTP handlers.
//
// This file exposes the REST endpoints of the movies resource:
//   - GET    /movies        (list, optional ?genre=, weak ETag)
//   - GET    /movies/{id}   (fetch)
//   - POST   /movies        (create, optional Idempotency-Key)
//   - PATCH  /movies/{id}   (partial update)
//   - DELETE /movies/{id}   (remove)
//
// Handlers are transport-thin: they decode the body, call MovieService and
// translate its errors into status codes.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-movies-api/internal/domain"
	"github.com/tbourn/go-movies-api/internal/http/middleware"
	"github.com/tbourn/go-movies-api/internal/services"
	"github.com/tbourn/go-movies-api/internal/validate"
)

// HeaderReplayed marks a POST answered from a recorded Idempotency-Key.
const HeaderReplayed = "Idempotency-Replayed"

// MovieService is the application contract consumed by the handlers.
// Implementations must be safe for concurrent use.
type MovieService interface {
	// List returns all movies, or those tagged with genre (case-insensitive).
	List(ctx context.Context, genre string) []domain.Movie
	// Get returns one movie or services.ErrMovieNotFound.
	Get(ctx context.Context, id string) (*domain.Movie, error)
	// CreateIdempotent validates and stores a movie. With a non-empty key a
	// repeat returns the first result and replayed=true.
	CreateIdempotent(ctx context.Context, key string, in domain.MovieInput) (m *domain.Movie, replayed bool, err error)
	// Update validates a partial payload and merges it onto the movie.
	Update(ctx context.Context, id string, in domain.MovieInput) (*domain.Movie, error)
	// Delete removes a movie or returns services.ErrMovieNotFound.
	Delete(ctx context.Context, id string) error
	// Stats returns the record count and mutation version.
	Stats(ctx context.Context) (count int, version uint64)
}

// Handlers groups the movie endpoints.
type Handlers struct {
	movies MovieService
}

// New constructs Handlers bound to svc.
func New(svc MovieService) *Handlers {
	return &Handlers{movies: svc}
}

// ListMovies godoc
// @ID          listMovies
// @Summary     List movies
// @Description Returns every movie, or only those tagged with the given genre (case-insensitive). Supports weak ETag via If-None-Match.
// @Tags        Movies
// @Produce     json
//
// @Param       genre          query   string  false "Genre filter"                example(drama)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/"movies-12-0")
//
// @Success     200  {array}   domain.Movie
// @Header      200  {string}  ETag "Weak ETag for the current collection state"
// @Success     304  {string}  string "Not Modified"
// @Router      /movies [get]
func (h *Handlers) ListMovies(c *gin.Context) {
	ctx := c.Request.Context()

	count, version := h.movies.Stats(ctx)
	etag := `W/"movies-` + strconv.Itoa(count) + "-" + strconv.FormatUint(version, 10) + `"`
	c.Header("ETag", etag)
	c.Header("Cache-Control", "no-cache")
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return
	}

	ok(c, http.StatusOK, h.movies.List(ctx, c.Query("genre")))
}

// GetMovie godoc
// @ID          getMovie
// @Summary     Get a movie
// @Tags        Movies
// @Produce     json
//
// @Param       id   path  string  true  "Movie ID"  example(dcdd0fad-a94c-4810-8acc-5f108d3b18c3)
//
// @Success     200  {object}  domain.Movie
// @Failure     404  {object}  handlers.ErrorResponse "Movie not found"
// @Router      /movies/{id} [get]
func (h *Handlers) GetMovie(c *gin.Context) {
	m, err := h.movies.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// CreateMovie godoc
// @ID          createMovie
// @Summary     Create a movie
// @Description Validates the full movie schema and stores a new record. "rate" defaults to 5.5. A repeated Idempotency-Key returns the original movie with Idempotency-Replayed: true.
// @Tags        Movies
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string             false "Client-chosen retry key"  example(create-0001)
// @Param       body             body    domain.MovieInput  true  "Movie"
//
// @Success     201  {object}  domain.Movie
// @Header      201  {string}  Idempotency-Replayed "true when answered from a recorded key"
// @Failure     400  {object}  handlers.ValidationErrorResponse "Validation failed"
// @Failure     409  {object}  handlers.ErrorResponse "Recorded movie no longer exists"
// @Failure     413  {object}  handlers.ErrorResponse "Body too large"
// @Router      /movies [post]
func (h *Handlers) CreateMovie(c *gin.Context) {
	in, okBody := decodeMovieInput(c)
	if !okBody {
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)

	m, replayed, err := h.movies.CreateIdempotent(c.Request.Context(), key, in)
	if err != nil {
		failService(c, err)
		return
	}
	if replayed {
		c.Header(HeaderReplayed, "true")
	}
	ok(c, http.StatusCreated, m)
}

// UpdateMovie godoc
// @ID          updateMovie
// @Summary     Update a movie
// @Description Validates the supplied fields only and merges them onto the stored movie. The id never changes.
// @Tags        Movies
// @Accept      json
// @Produce     json
//
// @Param       id    path  string             true  "Movie ID"  example(dcdd0fad-a94c-4810-8acc-5f108d3b18c3)
// @Param       body  body  domain.MovieInput  true  "Fields to change"
//
// @Success     200  {object}  domain.Movie
// @Failure     400  {object}  handlers.ValidationErrorResponse "Validation failed"
// @Failure     404  {object}  handlers.ErrorResponse "Movie not found"
// @Router      /movies/{id} [patch]
func (h *Handlers) UpdateMovie(c *gin.Context) {
	in, okBody := decodeMovieInput(c)
	if !okBody {
		return
	}
	m, err := h.movies.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// DeleteMovie godoc
// @ID          deleteMovie
// @Summary     Delete a movie
// @Tags        Movies
// @Produce     json
//
// @Param       id   path  string  true  "Movie ID"  example(dcdd0fad-a94c-4810-8acc-5f108d3b18c3)
//
// @Success     200  {object}  handlers.MessageResponse
// @Failure     404  {object}  handlers.ErrorResponse "Movie not found"
// @Router      /movies/{id} [delete]
func (h *Handlers) DeleteMovie(c *gin.Context) {
	if err := h.movies.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: msgMovieDeleted})
}

// decodeMovieInput reads the body into a MovieInput. An empty body counts as
// {}. Anything other than a JSON object is a 400; an oversized body is a 413.
// On failure the response is already written.
func decodeMovieInput(c *gin.Context) (domain.MovieInput, bool) {
	var in domain.MovieInput

	raw, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "request body too large")
			return in, false
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable request body")
		return in, false
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return in, true
	}
	// json.Unmarshal accepts null into a struct; only objects are valid here.
	if raw[0] != '{' {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "request body must be a JSON object")
		return in, false
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return in, false
	}
	return in, true
}

// failService maps service errors onto HTTP responses.
func failService(c *gin.Context, err error) {
	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		failValidation(c, verr)
	case errors.Is(err, services.ErrMovieNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, msgMovieNotFound)
	case errors.Is(err, services.ErrReplayConflict):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
