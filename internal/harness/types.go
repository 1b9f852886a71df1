package harness

import (
	"errors"

	"github.com/roach88/jcrq/internal/compiler"
	"github.com/roach88/jcrq/internal/parser"
	"github.com/roach88/jcrq/internal/store"
)

// Error kinds reported by ErrorKind.
const (
	KindSyntax             = "syntax"
	KindUnresolvedProperty = "unresolved_property"
	KindUnresolvedType     = "unresolved_type"
	KindUnsupported        = "unsupported"
	KindOther              = "error"
)

var errorKinds = []string{KindSyntax, KindUnresolvedProperty, KindUnresolvedType, KindUnsupported, KindOther}

// ErrorKind classifies a compile error.
func ErrorKind(err error) string {
	var syntaxErr *parser.SyntaxError
	switch {
	case errors.As(err, &syntaxErr):
		return KindSyntax
	case compiler.IsUnresolvedProperty(err):
		return KindUnresolvedProperty
	case compiler.IsUnresolvedType(err):
		return KindUnresolvedType
	case compiler.IsUnsupported(err):
		return KindUnsupported
	default:
		return KindOther
	}
}

// Outcome is the compilation of one case.
type Outcome struct {
	Case        string      `json:"case"`
	Syntax      string      `json:"syntax"`
	Where       string      `json:"where"`
	Params      []any       `json:"params"`
	NoMatch     bool        `json:"no_match"`
	SQL         string      `json:"sql,omitempty"`
	Fingerprint string      `json:"fingerprint,omitempty"`
	Expanded    []string    `json:"expanded"`
	Error       string      `json:"error,omitempty"`
	Message     string      `json:"message,omitempty"`
	Rows        []store.Row `json:"rows,omitempty"`
}

// Failed reports whether the case did not compile.
func (o Outcome) Failed() bool {
	return o.Error != ""
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Outcomes are the case compilations in case order.
	Outcomes []Outcome `json:"outcomes"`

	// Errors are the failed expectations and assertions.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Outcomes: []Outcome{},
		Errors:   []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddOutcome appends a case outcome.
func (r *Result) AddOutcome(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
}

// Outcome returns the outcome of the named case.
func (r *Result) Outcome(name string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Case == name {
			return o, true
		}
	}
	return Outcome{}, false
}
