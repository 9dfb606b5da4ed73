package grading

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/volatiletech/null/v8"
)

// noGradeToken marks a subject graded with a state only.
const noGradeToken = "-"

// ParseUeAverage normalizes a raw average into a finite number, or an invalid null.Float64 when absent.
//
// Accepted inputs: nil, Go numeric types, json.Number, strings (a comma decimal separator is allowed),
// null.Float64, null.String and pointers to string or float64.
// Blank strings, "-" and the state tokens VA, NV and C carry no numeric grade and are absent,
// as are NaN, ±Inf and anything that does not parse.
func ParseUeAverage(v interface{}) null.Float64 {
	switch val := v.(type) {
	case nil:
		return null.Float64{}
	case float64:
		return finite(val)
	case float32:
		return finite(float64(val))
	case int:
		return null.Float64From(float64(val))
	case int8:
		return null.Float64From(float64(val))
	case int16:
		return null.Float64From(float64(val))
	case int32:
		return null.Float64From(float64(val))
	case int64:
		return null.Float64From(float64(val))
	case uint:
		return null.Float64From(float64(val))
	case uint8:
		return null.Float64From(float64(val))
	case uint16:
		return null.Float64From(float64(val))
	case uint32:
		return null.Float64From(float64(val))
	case uint64:
		return null.Float64From(float64(val))
	case json.Number:
		return parseString(string(val))
	case string:
		return parseString(val)
	case *string:
		if val == nil {
			return null.Float64{}
		}
		return parseString(*val)
	case *float64:
		if val == nil {
			return null.Float64{}
		}
		return finite(*val)
	case null.Float64:
		if !val.Valid {
			return null.Float64{}
		}
		return finite(val.Float64)
	case null.String:
		if !val.Valid {
			return null.Float64{}
		}
		return parseString(val.String)
	default:
		return null.Float64{}
	}
}

func parseString(s string) null.Float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == noGradeToken || isEtatToken(s) {
		return null.Float64{}
	}
	f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return null.Float64{}
	}
	return finite(f)
}

func finite(f float64) null.Float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return null.Float64{}
	}
	return null.Float64From(f)
}
