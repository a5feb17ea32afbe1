// Package registry selects the best language parser for a crash's
// stderr text: parsers are held in registration order and scanned
// linearly for the highest CanParse confidence.
package registry

import "github.com/tsugix/tsugix/internal/model"

// Parser is the method set of langparser.Parser the registry depends
// on; every langparser.Parser satisfies it.
type Parser interface {
	Language() string
	CanParse(stderr string) model.Confidence
	Parse(stderr string) model.ParseResult
}

// Registry holds parsers in registration order and selects the best
// match for a given stderr blob.
type Registry struct {
	parsers []Parser
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

// Register appends a parser. Registration order is the tie-break order:
// when two parsers report the same confidence tier, the one registered
// first wins (stable selection).
func (r *Registry) Register(p Parser) {
	r.parsers = append(r.parsers, p)
}

// Parsers returns the registered parsers in registration order.
func (r *Registry) Parsers() []Parser {
	out := make([]Parser, len(r.parsers))
	copy(out, r.parsers)
	return out
}

// Best scans every registered parser once and returns the one reporting
// the highest confidence for stderr, along with that confidence. Ties
// are broken by registration order (the earlier parser is kept). A
// result of (nil, ConfidenceNone) means no parser recognized the text.
func (r *Registry) Best(stderr string) (Parser, model.Confidence) {
	var best Parser
	bestScore := model.ConfidenceNone

	for _, p := range r.parsers {
		score := p.CanParse(stderr)
		if score > bestScore {
			bestScore = score
			best = p
		}
	}

	if bestScore == model.ConfidenceNone {
		return nil, model.ConfidenceNone
	}
	return best, bestScore
}

// ByLanguage returns the parser registered under the given language
// name, or nil if none matches.
func (r *Registry) ByLanguage(language string) Parser {
	for _, p := range r.parsers {
		if p.Language() == language {
			return p
		}
	}
	return nil
}
