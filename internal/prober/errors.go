package prober

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorKind classifies a probe failure for the analyzer façade.
type ErrorKind int

const (
	ErrParseErrorAt ErrorKind = iota
	ErrPostgresError
	ErrConnectionError
	ErrTimeout
	ErrInternal
)

// ProbeError is the error kind surfaced to the analyzer façade (§7). Token
// is set only for ErrParseErrorAt.
type ProbeError struct {
	Kind    ErrorKind
	Message string
	Token   string
}

func (e *ProbeError) Error() string {
	if e.Kind == ErrParseErrorAt {
		return fmt.Sprintf("Error parsing query at %q", e.Token)
	}
	return e.Message
}

var syntaxErrorPattern = regexp.MustCompile(`syntax error at or near "([^"]*)"`)

// classifyError maps a raw error from the database client into the kinds
// the analyzer façade distinguishes.
func classifyError(err error) *ProbeError {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if m := syntaxErrorPattern.FindStringSubmatch(pgErr.Message); m != nil {
			return &ProbeError{Kind: ErrParseErrorAt, Token: m[1]}
		}
		return &ProbeError{Kind: ErrPostgresError, Message: pgErr.Message}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProbeError{Kind: ErrTimeout, Message: "probe exceeded its deadline"}
	}
	return &ProbeError{Kind: ErrConnectionError, Message: err.Error()}
}
