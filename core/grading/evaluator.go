package grading

// PassMark is the inclusive unit average needed to validate a unit whose subjects are all validated or conditional.
const PassMark = 10.0

// GetEtatUE computes the verdict of a teaching unit from the states of its subjects and its reported average.
//
// Rules, first match wins:
//  1. any NotValidated subject fails the unit, whatever the average;
//  2. without a numeric average, the unit is Validated only if every subject is Validated;
//  3. with an average, and every subject Validated or Conditional, the unit is Validated iff average >= PassMark;
//  4. otherwise NotValidated.
//
// An empty states slice is vacuously all-validated.
func GetEtatUE(states []Etat, ueAverage interface{}) Etat {
	allValidated, allValidatedOrConditional := true, true
	for _, s := range states {
		switch s {
		case NotValidated:
			return NotValidated
		case Validated:
		case Conditional:
			allValidated = false
		default:
			allValidated = false
			allValidatedOrConditional = false
		}
	}

	avg := ParseUeAverage(ueAverage)
	if !avg.Valid {
		if allValidated {
			return Validated
		}
		return NotValidated
	}
	if allValidatedOrConditional {
		if avg.Float64 >= PassMark {
			return Validated
		}
		return NotValidated
	}
	return NotValidated
}
