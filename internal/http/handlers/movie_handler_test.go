package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-movies-api/internal/domain"
	"github.com/tbourn/go-movies-api/internal/http/middleware"
	"github.com/tbourn/go-movies-api/internal/repo"
	"github.com/tbourn/go-movies-api/internal/services"
	"github.com/tbourn/go-movies-api/internal/validate"
)

// ---------- fixtures ----------

const validMovieJSON = `{
	"title": "Inception",
	"year": 2010,
	"director": "Christopher Nolan",
	"duration": 148,
	"poster": "https://example.com/inception.jpg",
	"genre": ["Action", "Sci-fi"]
}`

func seedMovies() []domain.Movie {
	return []domain.Movie{
		{
			ID: "m-1", Title: "The Godfather", Year: 1972, Director: "Francis Ford Coppola",
			Duration: 175, Poster: "https://example.com/godfather.jpg",
			Genre: []domain.Genre{domain.GenreCrime, domain.GenreDrama}, Rate: 9.2,
		},
		{
			ID: "m-2", Title: "Gladiator", Year: 2000, Director: "Ridley Scott",
			Duration: 155, Poster: "https://example.com/gladiator.jpg",
			Genre: []domain.Genre{domain.GenreAction, domain.GenreAdventure, domain.GenreDrama}, Rate: 8.5,
		},
		{
			ID: "m-3", Title: "Interstellar", Year: 2014, Director: "Christopher Nolan",
			Duration: 169, Poster: "https://example.com/interstellar.jpg",
			Genre: []domain.Genre{domain.GenreAdventure, domain.GenreSciFi}, Rate: 8.6,
		},
	}
}

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:movie_handlers_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := repo.OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// newMovieRouter wires the handlers over a real service, store and DB.
func newMovieRouter(t *testing.T) (*gin.Engine, *repo.MovieStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repo.NewMovieStore(seedMovies())
	svc := services.NewMovieService(store, newHandlerDB(t), time.Hour)
	h := New(svc)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))
	r.GET("/movies", h.ListMovies)
	r.GET("/movies/:id", h.GetMovie)
	r.POST("/movies", h.CreateMovie)
	r.PATCH("/movies/:id", h.UpdateMovie)
	r.DELETE("/movies/:id", h.DeleteMovie)
	return r, store
}

func do(r http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	var rd *bytes.Buffer
	if body != "" {
		rd = bytes.NewBufferString(body)
	} else {
		rd = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

// ---------- list ----------

func TestListMovies_AllAndGenreFilter(t *testing.T) {
	r, _ := newMovieRouter(t)

	w := do(r, http.MethodGet, "/movies", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if all := decode[[]domain.Movie](t, w); len(all) != 3 || all[0].ID != "m-1" {
		t.Fatalf("unexpected list: %+v", all)
	}

	w = do(r, http.MethodGet, "/movies?genre=dRaMa", "", nil)
	drama := decode[[]domain.Movie](t, w)
	if len(drama) != 2 || drama[0].ID != "m-1" || drama[1].ID != "m-2" {
		t.Fatalf("unexpected drama list: %+v", drama)
	}

	w = do(r, http.MethodGet, "/movies?genre=sci-fi", "", nil)
	if scifi := decode[[]domain.Movie](t, w); len(scifi) != 1 || scifi[0].ID != "m-3" {
		t.Fatalf("unexpected sci-fi list: %+v", scifi)
	}

	w = do(r, http.MethodGet, "/movies?genre=Musical", "", nil)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %d %q", w.Code, w.Body.String())
	}
}

func TestListMovies_ETag(t *testing.T) {
	r, _ := newMovieRouter(t)

	w := do(r, http.MethodGet, "/movies", "", nil)
	etag := w.Header().Get("ETag")
	if !strings.HasPrefix(etag, `W/"movies-3-`) {
		t.Fatalf("unexpected ETag %q", etag)
	}

	w = do(r, http.MethodGet, "/movies", "", map[string]string{"If-None-Match": etag})
	if w.Code != http.StatusNotModified || w.Body.Len() != 0 {
		t.Fatalf("expected empty 304, got %d %q", w.Code, w.Body.String())
	}

	if w := do(r, http.MethodPatch, "/movies/m-1", `{"rate": 9.9}`, nil); w.Code != http.StatusOK {
		t.Fatalf("patch status=%d", w.Code)
	}

	w = do(r, http.MethodGet, "/movies", "", map[string]string{"If-None-Match": etag})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 after mutation, got %d", w.Code)
	}
	if w.Header().Get("ETag") == etag {
		t.Fatalf("ETag did not change after mutation")
	}
}

// ---------- get ----------

func TestGetMovie_FoundAndNotFound(t *testing.T) {
	r, _ := newMovieRouter(t)

	w := do(r, http.MethodGet, "/movies/m-2", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if m := decode[domain.Movie](t, w); m.Title != "Gladiator" {
		t.Fatalf("unexpected movie: %+v", m)
	}

	w = do(r, http.MethodGet, "/movies/nope", "", map[string]string{"X-Request-ID": "rid-404"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	er := decode[ErrorResponse](t, w)
	if er.Message != "Movie not found" || er.Code != ErrCodeNotFound || er.RequestID != "rid-404" {
		t.Fatalf("unexpected body: %+v", er)
	}
}

// ---------- create ----------

func TestCreateMovie_Success(t *testing.T) {
	r, store := newMovieRouter(t)

	w := do(r, http.MethodPost, "/movies", validMovieJSON, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	m := decode[domain.Movie](t, w)
	if _, err := uuid.Parse(m.ID); err != nil {
		t.Fatalf("id not a uuid: %q", m.ID)
	}
	if m.Rate != domain.DefaultRate || m.Title != "Inception" || len(m.Genre) != 2 {
		t.Fatalf("unexpected movie: %+v", m)
	}
	if w.Header().Get(HeaderReplayed) != "" {
		t.Fatalf("fresh create must not be marked replayed")
	}

	if n, _ := store.Stats(context.Background()); n != 4 {
		t.Fatalf("expected 4 movies, got %d", n)
	}
	if w := do(r, http.MethodGet, "/movies/"+m.ID, "", nil); w.Code != http.StatusOK {
		t.Fatalf("created movie not retrievable: %d", w.Code)
	}
}

func TestCreateMovie_IgnoresClientID(t *testing.T) {
	r, _ := newMovieRouter(t)

	body := strings.Replace(validMovieJSON, `"title"`, `"id": "m-1", "title"`, 1)
	w := do(r, http.MethodPost, "/movies", body, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d", w.Code)
	}
	if m := decode[domain.Movie](t, w); m.ID == "m-1" {
		t.Fatalf("client-supplied id must be ignored")
	}
}

func TestCreateMovie_ValidationErrors(t *testing.T) {
	r, store := newMovieRouter(t)

	w := do(r, http.MethodPost, "/movies", `{"title": 12, "year": 1800, "genre": ["Action", "Romance"], "poster": "nope"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	vr := decode[ValidationErrorResponse](t, w)
	if vr.Code != ErrCodeValidation || vr.RequestID == "" {
		t.Fatalf("unexpected envelope: %+v", vr.ErrorResponse)
	}
	got := map[string]string{}
	for _, fe := range vr.Error {
		got[fe.Field] = fe.Code
	}
	want := map[string]string{
		"title":    validate.CodeInvalidType,
		"year":     validate.CodeTooSmall,
		"director": validate.CodeRequired,
		"duration": validate.CodeRequired,
		"poster":   validate.CodeInvalidURL,
		"genre[1]": validate.CodeInvalidEnum,
	}
	for f, code := range want {
		if got[f] != code {
			t.Errorf("field %s: want %s, got %q (all: %v)", f, code, got[f], got)
		}
	}
	if n, _ := store.Stats(context.Background()); n != 3 {
		t.Fatalf("rejected create changed the store: %d", n)
	}
}

func TestCreateMovie_EmptyBodyIsEmptyObject(t *testing.T) {
	r, _ := newMovieRouter(t)

	w := do(r, http.MethodPost, "/movies", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	if vr := decode[ValidationErrorResponse](t, w); vr.Code != ErrCodeValidation || len(vr.Error) != 6 {
		t.Fatalf("expected six required errors, got %+v", vr.Error)
	}
}

func TestCreateMovie_BadBodies(t *testing.T) {
	r, _ := newMovieRouter(t)

	for _, body := range []string{`[1,2]`, `null`, `"movie"`, `42`, `{"title":`} {
		w := do(r, http.MethodPost, "/movies", body, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d", body, w.Code)
		}
		if er := decode[ErrorResponse](t, w); er.Code != ErrCodeBadRequest {
			t.Fatalf("%s: code=%q", body, er.Code)
		}
	}
}

func TestCreateMovie_TooLarge(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := New(services.NewMovieService(repo.NewMovieStore(nil), nil, 0))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 16)
		c.Next()
	})
	r.POST("/movies", h.CreateMovie)

	w := do(r, http.MethodPost, "/movies", validMovieJSON, nil)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status=%d", w.Code)
	}
	if er := decode[ErrorResponse](t, w); er.Code != ErrCodeTooLarge {
		t.Fatalf("code=%q", er.Code)
	}
}

func TestCreateMovie_IdempotentReplay(t *testing.T) {
	r, store := newMovieRouter(t)
	hdr := map[string]string{middleware.HeaderIdempotencyKey: "create-0001"}

	w1 := do(r, http.MethodPost, "/movies", validMovieJSON, hdr)
	if w1.Code != http.StatusCreated {
		t.Fatalf("first status=%d", w1.Code)
	}
	w2 := do(r, http.MethodPost, "/movies", validMovieJSON, hdr)
	if w2.Code != http.StatusCreated {
		t.Fatalf("replay status=%d", w2.Code)
	}
	if w2.Header().Get(HeaderReplayed) != "true" {
		t.Fatalf("replay header missing")
	}
	if decode[domain.Movie](t, w1).ID != decode[domain.Movie](t, w2).ID {
		t.Fatalf("replay returned a different movie")
	}
	if n, _ := store.Stats(context.Background()); n != 4 {
		t.Fatalf("replay created a second record: %d", n)
	}

	// The recorded movie is gone: replay cannot be honored.
	id := decode[domain.Movie](t, w1).ID
	if w := do(r, http.MethodDelete, "/movies/"+id, "", nil); w.Code != http.StatusOK {
		t.Fatalf("delete status=%d", w.Code)
	}
	w3 := do(r, http.MethodPost, "/movies", validMovieJSON, hdr)
	if w3.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w3.Code)
	}
	if er := decode[ErrorResponse](t, w3); er.Code != ErrCodeConflict {
		t.Fatalf("code=%q", er.Code)
	}
}

// ---------- update ----------

func TestUpdateMovie_MergesPresentFields(t *testing.T) {
	r, _ := newMovieRouter(t)

	w := do(r, http.MethodPatch, "/movies/m-1", `{"id": "hijack", "year": 1973, "genre": ["Crime"]}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	m := decode[domain.Movie](t, w)
	if m.ID != "m-1" || m.Year != 1973 || m.Title != "The Godfather" || len(m.Genre) != 1 || m.Rate != 9.2 {
		t.Fatalf("unexpected merge: %+v", m)
	}

	if got := decode[domain.Movie](t, do(r, http.MethodGet, "/movies/m-1", "", nil)); got.Year != 1973 {
		t.Fatalf("update not persisted: %+v", got)
	}
}

func TestUpdateMovie_EmptyBodyLeavesRecord(t *testing.T) {
	r, _ := newMovieRouter(t)

	w := do(r, http.MethodPatch, "/movies/m-2", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if m := decode[domain.Movie](t, w); m.Title != "Gladiator" || m.Year != 2000 {
		t.Fatalf("record changed: %+v", m)
	}
}

func TestCreateMovie_KeysAreCaseSensitive(t *testing.T) {
	r, store := newMovieRouter(t)

	body := `{"TITLE":"Heat","Year":1995,"director":"Michael Mann","duration":170,
		"poster":"https://example.com/heat.jpg","genre":["Crime"]}`
	w := do(r, http.MethodPost, "/movies", body, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	got := map[string]string{}
	for _, fe := range decode[ValidationErrorResponse](t, w).Error {
		got[fe.Field] = fe.Code
	}
	if len(got) != 2 || got["title"] != validate.CodeRequired || got["year"] != validate.CodeRequired {
		t.Fatalf("expected title and year required, got %v", got)
	}
	if n, _ := store.Stats(context.Background()); n != 3 {
		t.Fatalf("rejected create changed the store: %d", n)
	}
}

func TestUpdateMovie_WrongCaseKeysIgnored(t *testing.T) {
	r, _ := newMovieRouter(t)

	w := do(r, http.MethodPatch, "/movies/m-1", `{"Title":"Hijacked","YEAR":5}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if m := decode[domain.Movie](t, w); m.Title != "The Godfather" || m.Year != 1972 {
		t.Fatalf("wrong-case keys changed the record: %+v", m)
	}

	w = do(r, http.MethodPatch, "/movies/m-1", `{"title":"Part II","Title":5}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if m := decode[domain.Movie](t, w); m.Title != "Part II" {
		t.Fatalf("title = %q", m.Title)
	}
}

func TestUpdateMovie_EmptyPatchKeepsETag(t *testing.T) {
	r, _ := newMovieRouter(t)

	before := do(r, http.MethodGet, "/movies", "", nil).Header().Get("ETag")
	if w := do(r, http.MethodPatch, "/movies/m-1", `{}`, nil); w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if after := do(r, http.MethodGet, "/movies", "", nil).Header().Get("ETag"); after != before {
		t.Fatalf("empty patch changed ETag: %s -> %s", before, after)
	}
}

func TestUpdateMovie_Invalid(t *testing.T) {
	r, _ := newMovieRouter(t)

	w := do(r, http.MethodPatch, "/movies/m-1", `{"year": 2030, "rate": 11}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	if vr := decode[ValidationErrorResponse](t, w); len(vr.Error) != 2 {
		t.Fatalf("expected 2 field errors, got %+v", vr.Error)
	}
	if m := decode[domain.Movie](t, do(r, http.MethodGet, "/movies/m-1", "", nil)); m.Year != 1972 {
		t.Fatalf("rejected patch mutated record: %+v", m)
	}
}

func TestUpdateMovie_NotFound(t *testing.T) {
	r, _ := newMovieRouter(t)

	w := do(r, http.MethodPatch, "/movies/nope", `{"year": 2001}`, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	if er := decode[ErrorResponse](t, w); er.Message != "Movie not found" {
		t.Fatalf("unexpected body: %+v", er)
	}
}

// ---------- delete ----------

func TestDeleteMovie(t *testing.T) {
	r, _ := newMovieRouter(t)

	w := do(r, http.MethodDelete, "/movies/m-3", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if mr := decode[MessageResponse](t, w); mr.Message != "Movie deleted" {
		t.Fatalf("unexpected body: %+v", mr)
	}
	if w := do(r, http.MethodGet, "/movies/m-3", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("deleted movie still served: %d", w.Code)
	}
	if w := do(r, http.MethodDelete, "/movies/m-3", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d", w.Code)
	}
	if all := decode[[]domain.Movie](t, do(r, http.MethodGet, "/movies", "", nil)); len(all) != 2 {
		t.Fatalf("expected 2 movies, got %d", len(all))
	}
}

// ---------- error mapping ----------

type brokenService struct{ MovieService }

func (brokenService) Get(context.Context, string) (*domain.Movie, error) {
	return nil, errors.New("store offline")
}

func TestGetMovie_InternalError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := New(brokenService{})

	r := gin.New()
	r.GET("/movies/:id", h.GetMovie)

	w := do(r, http.MethodGet, "/movies/m-1", "", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	if er := decode[ErrorResponse](t, w); er.Code != ErrCodeInternal {
		t.Fatalf("code=%q", er.Code)
	}
}
