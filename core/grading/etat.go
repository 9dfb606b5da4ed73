// Package grading holds the teaching-unit (UE) validation rules used on report cards.
//
// Every function in this package is pure and total: malformed or missing input
// degrades to a defined fallback (an absent average, or NotValidated) instead of an error.
package grading

import "strings"

// Etat is the validation state of a subject or of a teaching unit.
type Etat string

const (
	Validated    Etat = "VA"
	NotValidated Etat = "NV"
	Conditional  Etat = "C"

	// retakeToken is the legacy "rattrapage" state. It is never surfaced and always counts as failing.
	retakeToken = "R"
)

// Etats lists every state the normalizer can produce.
var Etats = []Etat{Validated, NotValidated, Conditional}

func (e Etat) String() string { return string(e) }

// Label returns the wording printed on report cards.
func (e Etat) Label() string {
	switch e {
	case Validated:
		return "Validé"
	case Conditional:
		return "Validé sous condition"
	default:
		return "Non validé"
	}
}

// NormalizeEtat maps a raw state token onto one of Validated, NotValidated or Conditional.
// Unknown tokens, the empty string and the retake token "R" all give NotValidated:
// unrecognized input must never validate a subject.
func NormalizeEtat(s string) Etat {
	switch tok := strings.ToUpper(strings.TrimSpace(s)); tok {
	case retakeToken:
		return NotValidated
	case string(Validated):
		return Validated
	case string(Conditional):
		return Conditional
	default:
		return NotValidated
	}
}

// isEtatToken reports whether s is exactly one of the canonical state tokens.
func isEtatToken(s string) bool {
	switch Etat(s) {
	case Validated, NotValidated, Conditional:
		return true
	}
	return false
}
