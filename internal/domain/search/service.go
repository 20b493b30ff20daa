package search

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/radis/radis/internal/platform/query"
	"github.com/rs/zerolog"
)

// DefaultMaxQueryLength is the longest query, in characters, accepted by a
// Service built without WithMaxQueryLength.
const DefaultMaxQueryLength = 1000

// ErrQueryTooLong is returned when a query exceeds the configured length.
var ErrQueryTooLong = errors.New("query too long")

// ValidatedQuery is the outcome of repairing and parsing one user query.
type ValidatedQuery struct {
	Raw   string     `json:"raw"`
	Node  query.Node `json:"-"`
	Fixes []string   `json:"fixes"`
	Query string     `json:"query"` // canonical text, "" when Empty
	Empty bool       `json:"empty"`
}

// Fixed reports whether any repair was applied to the raw query.
func (v *ValidatedQuery) Fixed() bool { return len(v.Fixes) > 0 }

// Option configures a Service.
type Option func(*Service)

// WithMaxQueryLength limits the number of characters of a raw query. Zero
// disables the limit.
func WithMaxQueryLength(n int) Option {
	return func(s *Service) {
		s.maxQueryLength = n
	}
}

// Service validates and repairs search queries before they reach a search
// backend.
type Service struct {
	parser         *query.Parser
	maxQueryLength int
	logger         zerolog.Logger
}

// NewService creates a Service. A nil parser means query.NewParser().
func NewService(parser *query.Parser, logger zerolog.Logger, opts ...Option) *Service {
	if parser == nil {
		parser = query.NewParser()
	}
	s := &Service{
		parser:         parser,
		maxQueryLength: DefaultMaxQueryLength,
		logger:         logger.With().Str("component", "query-validator").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate repairs and parses raw. An input that cannot be salvaged is not an
// error; it yields a ValidatedQuery with Empty set.
func (s *Service) Validate(ctx context.Context, raw string) (*ValidatedQuery, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.maxQueryLength > 0 {
		if n := utf8.RuneCountInString(raw); n > s.maxQueryLength {
			return nil, fmt.Errorf("%w: %d characters, limit is %d", ErrQueryTooLong, n, s.maxQueryLength)
		}
	}

	node, fixes, err := s.parser.Parse(raw)
	if err != nil {
		s.logger.Error().Err(err).Str("query", raw).Msg("repaired query rejected by grammar")
		return nil, fmt.Errorf("validate query: %w", err)
	}

	v := &ValidatedQuery{
		Raw:   raw,
		Node:  node,
		Fixes: fixes,
		Query: query.Unparse(node),
		Empty: node == nil,
	}

	if v.Fixed() {
		s.logger.Debug().
			Str("query", raw).
			Str("fixed_query", v.Query).
			Strs("fixes", fixes).
			Msg("query repaired")
	}
	if v.Empty {
		s.logger.Info().Str("query", raw).Msg("query is empty after repairs")
	}
	return v, nil
}

// ValidateAll validates queries in order and stops at the first error.
func (s *Service) ValidateAll(ctx context.Context, queries []string) ([]*ValidatedQuery, error) {
	results := make([]*ValidatedQuery, 0, len(queries))
	for i, q := range queries {
		v, err := s.Validate(ctx, q)
		if err != nil {
			return results, fmt.Errorf("query %d: %w", i+1, err)
		}
		results = append(results, v)
	}
	return results, nil
}
