package grading

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/volatiletech/null/v8"
)

// UeAverageRow is one row of the averages report: the average of one student for one teaching unit
// (or for one subject when the report is run at subject level).
type UeAverageRow struct {
	CodeApprenant FlexString  `json:"CODE_APPRENANT"`
	CodeUE        string      `json:"CODE_UE,omitempty"`
	CodeMatiere   string      `json:"CODE_MATIERE,omitempty"` // used when CODE_UE is empty
	NomMatiere    string      `json:"NOM_MATIERE,omitempty"`
	MoyenneUE     interface{} `json:"MOYENNE_UE,omitempty"`
	Moyenne       interface{} `json:"MOYENNE,omitempty"`
}

// Code returns the unit code of the row, or its subject code for subject-level rows.
func (r UeAverageRow) Code() string {
	if r.CodeUE != "" {
		return r.CodeUE
	}
	return r.CodeMatiere
}

// RawAverage returns the unit-level average when reported, the subject-level one otherwise.
func (r UeAverageRow) RawAverage() interface{} {
	if r.MoyenneUE != nil {
		return r.MoyenneUE
	}
	return r.Moyenne
}

// GetUeAverage returns the parsed average of the first row matching unitCode, or an invalid
// null.Float64 when nothing matches or the matched average is absent.
//
// Codes and names are compared trimmed and case-insensitively. An empty studentID matches any
// student; a non-empty one is compared by plain string equality.
//
// A row matches when its code equals unitCode OR, when subjectName is given, its subject name equals
// subjectName. Either condition alone is enough, so a row whose code differs but whose name matches
// is still returned. Rows are scanned in order and the first match wins.
func GetUeAverage(rows []UeAverageRow, unitCode, studentID, subjectName string) null.Float64 {
	code := normalizeKey(unitCode)
	name := normalizeKey(subjectName)

	for _, row := range rows {
		if studentID != "" && row.CodeApprenant.String() != studentID {
			continue
		}
		if normalizeKey(row.Code()) == code || (name != "" && normalizeKey(row.NomMatiere) == name) {
			return ParseUeAverage(row.RawAverage())
		}
	}
	return null.Float64{}
}

func normalizeKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// FlexString decodes a JSON string or number into its string form; report identifiers come both ways.
type FlexString string

func (s FlexString) String() string { return string(s) }

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = FlexString(num.String())
	return nil
}
