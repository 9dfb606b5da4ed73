package grading

import (
	"math"
	"math/rand"
	"testing"

	"github.com/volatiletech/null/v8"
)

func TestGetEtatUE(t *testing.T) {
	tests := []struct {
		name    string
		states  []Etat
		average interface{}
		want    Etat
	}{
		{name: "all validated, no average", states: []Etat{Validated, Validated}, want: Validated},
		{name: "one failing subject beats a high average", states: []Etat{Validated, NotValidated}, average: 18, want: NotValidated},
		{name: "conditional at threshold", states: []Etat{Validated, Conditional}, average: 10, want: Validated},
		{name: "conditional below threshold", states: []Etat{Validated, Conditional}, average: 9.99, want: NotValidated},
		{name: "no subjects, no average", states: []Etat{}, want: Validated},
		{name: "nil subjects, no average", states: nil, want: Validated},
		{name: "conditional, no average", states: []Etat{Conditional}, want: NotValidated},
		{name: "all validated, low average", states: []Etat{Validated, Validated}, average: 4, want: NotValidated},
		{name: "all validated, good average", states: []Etat{Validated}, average: "15,5", want: Validated},
		{name: "no subjects, low average", states: nil, average: 8, want: NotValidated},
		{name: "no subjects, passing average", states: nil, average: 10, want: Validated},
		{name: "failing subject, no average", states: []Etat{NotValidated}, want: NotValidated},
		{name: "failing subject last", states: []Etat{Validated, Conditional, NotValidated}, average: 20, want: NotValidated},
		{name: "dash average is absent", states: []Etat{Validated}, average: "-", want: Validated},
		{name: "state token average is absent", states: []Etat{Conditional}, average: "VA", want: NotValidated},
		{name: "NaN average is absent", states: []Etat{Validated}, average: math.NaN(), want: Validated},
		{name: "null average is absent", states: []Etat{Validated}, average: null.Float64{}, want: Validated},
		{name: "string average at threshold", states: []Etat{Conditional, Conditional}, average: "10,0", want: Validated},
		{name: "unknown state, no average", states: []Etat{"X"}, want: NotValidated},
		{name: "unknown state with average", states: []Etat{Validated, "X"}, average: 19, want: NotValidated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetEtatUE(tt.states, tt.average); got != tt.want {
				t.Errorf("GetEtatUE(%v, %v) = %v; want %v", tt.states, tt.average, got, tt.want)
			}
		})
	}
}

// Randomized inputs must always give a canonical verdict, deterministically, and a
// NotValidated subject must always fail the unit.
func TestGetEtatUE_randomized(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	tokens := []string{"VA", "NV", "C", "R", "", "x", "va", "c "}
	averages := []interface{}{nil, "", "-", "VA", "12,5", "9,99", "abc", 10, 9.5, math.Inf(1), math.NaN(), json0()}

	for i := 0; i < 2000; i++ {
		n := rnd.Intn(6)
		states := make([]Etat, n)
		hasFailing := false
		for j := range states {
			states[j] = NormalizeEtat(tokens[rnd.Intn(len(tokens))])
			if states[j] == NotValidated {
				hasFailing = true
			}
		}
		avg := averages[rnd.Intn(len(averages))]

		got := GetEtatUE(states, avg)
		if again := GetEtatUE(states, avg); again != got {
			t.Fatalf("GetEtatUE(%v, %v) not deterministic: %v then %v", states, avg, got, again)
		}
		if got != Validated && got != NotValidated {
			t.Fatalf("GetEtatUE(%v, %v) = %v; unit verdict must be VA or NV", states, avg, got)
		}
		if hasFailing && got != NotValidated {
			t.Fatalf("GetEtatUE(%v, %v) = %v; want NV with a failing subject", states, avg, got)
		}
	}
}

func json0() interface{} { return float64(0) }
