// Package validate enforces the movie schema against untrusted input.
//
// Two entry points exist:
//   - ValidateFull for create: every required field must be present and
//     well-typed; "rate" defaults to 5.5 when omitted.
//   - ValidatePartial for update: every field is optional, but any field that
//     is present must satisfy the same type, range and enum rules.
//
// Both are pure functions. They never stop at the first problem: the
// returned Result lists every failing field so clients can fix a payload in
// one round trip.
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/tbourn/go-movies-api/internal/domain"
)

// Issue codes carried by FieldError.Code.
const (
	CodeRequired     = "required"
	CodeInvalidType  = "invalid_type"
	CodeTooSmall     = "too_small"
	CodeTooBig       = "too_big"
	CodeInvalidURL   = "invalid_string"
	CodeInvalidEnum  = "invalid_enum_value"
	CodeNotAnInteger = "not_integer"
)

// Schema bounds.
const (
	MinYear = 1900
	MaxYear = 2024
	MinRate = 0.0
	MaxRate = 10.0
)

// maxSafeInteger is the largest integer a JSON number carries exactly.
const maxSafeInteger = 1<<53 - 1

// FieldError describes a single failing field.
type FieldError struct {
	// Field is the JSON path of the offending value, e.g. "year" or "genre[1]".
	Field string `json:"field"   example:"year"`
	// Code is a stable, machine-readable issue kind.
	Code string `json:"code"    example:"too_small"`
	// Message is human-readable.
	Message string `json:"message" example:"Number must be greater than or equal to 1900"`
}

// Error aggregates every FieldError of a rejected payload.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid movie: " + strings.Join(parts, "; ")
}

// Has reports whether any error refers to field (exact match or an element
// of it, e.g. "genre" matches "genre[0]").
func (e *Error) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field || strings.HasPrefix(f.Field, field+"[") {
			return true
		}
	}
	return false
}

// Result is the tagged outcome of a validation: either OK with Data, or not
// OK with at least one entry in Errors.
type Result[T any] struct {
	OK     bool
	Data   T
	Errors []FieldError
}

// Err returns the failures as an *Error, or nil when the result is OK.
func (r Result[T]) Err() error {
	if r.OK {
		return nil
	}
	return &Error{Fields: r.Errors}
}

// ValidateFull validates a create payload.
func ValidateFull(in domain.MovieInput) Result[domain.MovieData] {
	var (
		c   collector
		out domain.MovieData
	)

	if v, ok := c.requireString(in.Title, "title", "Movie title is required", "Movie title must be String"); ok {
		c.checkTitle(v)
		out.Title = v
	}
	if v, ok := c.requireInt(in.Year, "year"); ok {
		c.checkYear(v)
		out.Year = v
	}
	if v, ok := c.requireString(in.Director, "director", "Required", "Expected string"); ok {
		out.Director = v
	}
	if v, ok := c.requireInt(in.Duration, "duration"); ok {
		c.checkDuration(v)
		out.Duration = v
	}
	out.Rate = domain.DefaultRate
	if in.Rate != nil {
		if v, ok := c.number(in.Rate, "rate"); ok {
			c.checkRate(v)
			out.Rate = v
		}
	}
	if v, ok := c.requireString(in.Poster, "poster", "Required", "Expected string"); ok {
		c.checkPoster(v)
		out.Poster = v
	}
	if in.Genre == nil {
		c.add("genre", CodeRequired, "Movie genre is required")
	} else if v, ok := c.genres(in.Genre); ok {
		out.Genre = v
	}

	return finish(c, out)
}

// ValidatePartial validates an update payload. Absent fields are skipped;
// no defaults are applied.
func ValidatePartial(in domain.MovieInput) Result[domain.MoviePatch] {
	var (
		c   collector
		out domain.MoviePatch
	)

	if in.Title != nil {
		if v, ok := c.str(in.Title, "title", "Movie title must be String"); ok {
			c.checkTitle(v)
			out.Title = &v
		}
	}
	if in.Year != nil {
		if v, ok := c.integer(in.Year, "year"); ok {
			c.checkYear(v)
			out.Year = &v
		}
	}
	if in.Director != nil {
		if v, ok := c.str(in.Director, "director", "Expected string"); ok {
			out.Director = &v
		}
	}
	if in.Duration != nil {
		if v, ok := c.integer(in.Duration, "duration"); ok {
			c.checkDuration(v)
			out.Duration = &v
		}
	}
	if in.Rate != nil {
		if v, ok := c.number(in.Rate, "rate"); ok {
			c.checkRate(v)
			out.Rate = &v
		}
	}
	if in.Poster != nil {
		if v, ok := c.str(in.Poster, "poster", "Expected string"); ok {
			c.checkPoster(v)
			out.Poster = &v
		}
	}
	if in.Genre != nil {
		if v, ok := c.genres(in.Genre); ok {
			out.Genre = v
			out.GenreSet = true
		}
	}

	return finish(c, out)
}

func finish[T any](c collector, data T) Result[T] {
	if len(c.errs) > 0 {
		var zero T
		return Result[T]{OK: false, Data: zero, Errors: c.errs}
	}
	return Result[T]{OK: true, Data: data}
}

// collector accumulates field errors across all checks.
type collector struct {
	errs []FieldError
}

func (c *collector) add(field, code, msg string) {
	c.errs = append(c.errs, FieldError{Field: field, Code: code, Message: msg})
}

func (c *collector) requireString(raw json.RawMessage, field, missingMsg, typeMsg string) (string, bool) {
	if raw == nil {
		c.add(field, CodeRequired, missingMsg)
		return "", false
	}
	return c.str(raw, field, typeMsg)
}

func (c *collector) requireInt(raw json.RawMessage, field string) (int, bool) {
	if raw == nil {
		c.add(field, CodeRequired, "Required")
		return 0, false
	}
	return c.integer(raw, field)
}

func (c *collector) str(raw json.RawMessage, field, typeMsg string) (string, bool) {
	if kindOf(raw) != '"' {
		c.add(field, CodeInvalidType, typeMsg)
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		c.add(field, CodeInvalidType, typeMsg)
		return "", false
	}
	return s, true
}

func (c *collector) number(raw json.RawMessage, field string) (float64, bool) {
	if kindOf(raw) != '0' {
		c.add(field, CodeInvalidType, "Expected number, received "+describe(raw))
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil || math.IsInf(f, 0) {
		c.add(field, CodeInvalidType, "Expected number, received "+describe(raw))
		return 0, false
	}
	return f, true
}

func (c *collector) integer(raw json.RawMessage, field string) (int, bool) {
	f, ok := c.number(raw, field)
	if !ok {
		return 0, false
	}
	if f != math.Trunc(f) || math.Abs(f) > maxSafeInteger {
		c.add(field, CodeNotAnInteger, "Expected integer, received float")
		return 0, false
	}
	return int(f), true
}

func (c *collector) genres(raw json.RawMessage) ([]domain.Genre, bool) {
	const typeMsg = "Movie genre must be an array of enum Genre"
	if kindOf(raw) != '[' {
		c.add("genre", CodeInvalidType, typeMsg)
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		c.add("genre", CodeInvalidType, typeMsg)
		return nil, false
	}

	out := make([]domain.Genre, 0, len(items))
	valid := true
	for i, item := range items {
		field := fmt.Sprintf("genre[%d]", i)
		var s string
		if kindOf(item) != '"' || json.Unmarshal(item, &s) != nil {
			c.add(field, CodeInvalidType, "Expected "+enumList()+", received "+describe(item))
			valid = false
			continue
		}
		g := domain.Genre(s)
		if !g.Valid() {
			c.add(field, CodeInvalidEnum, fmt.Sprintf("Invalid enum value. Expected %s, received '%s'", enumList(), s))
			valid = false
			continue
		}
		out = append(out, g)
	}
	return out, valid
}

func (c *collector) checkTitle(v string) {
	if v == "" {
		c.add("title", CodeTooSmall, "String must contain at least 1 character(s)")
	}
}

func (c *collector) checkYear(v int) {
	switch {
	case v < MinYear:
		c.add("year", CodeTooSmall, fmt.Sprintf("Number must be greater than or equal to %d", MinYear))
	case v > MaxYear:
		c.add("year", CodeTooBig, fmt.Sprintf("Number must be less than or equal to %d", MaxYear))
	}
}

func (c *collector) checkDuration(v int) {
	if v <= 0 {
		c.add("duration", CodeTooSmall, "Number must be greater than 0")
	}
}

func (c *collector) checkRate(v float64) {
	switch {
	case v < MinRate:
		c.add("rate", CodeTooSmall, "Number must be greater than or equal to 0")
	case v > MaxRate:
		c.add("rate", CodeTooBig, "Number must be less than or equal to 10")
	}
}

func (c *collector) checkPoster(v string) {
	if !isURL(v) {
		c.add("poster", CodeInvalidURL, "Poster must be a valid URL")
	}
}

// isURL accepts absolute URLs with a scheme and either a host or an opaque
// part (e.g. "mailto:x@y").
func isURL(s string) bool {
	if strings.TrimSpace(s) != s || s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return false
	}
	return u.Host != "" || u.Opaque != ""
}

// kindOf classifies a raw JSON value by its first significant byte:
// '"' string, '0' number, '[' array, '{' object, 't'/'f' bool, 'n' null.
func kindOf(raw json.RawMessage) byte {
	b := bytes.TrimSpace(raw)
	if len(b) == 0 {
		return 0
	}
	switch ch := b[0]; {
	case ch == '-' || (ch >= '0' && ch <= '9'):
		return '0'
	default:
		return ch
	}
}

func describe(raw json.RawMessage) string {
	switch kindOf(raw) {
	case '"':
		return "string"
	case '0':
		return "number"
	case '[':
		return "array"
	case '{':
		return "object"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "undefined"
	}
}

func enumList() string {
	quoted := make([]string, len(domain.Genres))
	for i, g := range domain.Genres {
		quoted[i] = "'" + string(g) + "'"
	}
	return strings.Join(quoted, " | ")
}
