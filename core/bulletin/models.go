package bulletin

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/GithubESPI/bulletins/core"
	"github.com/GithubESPI/bulletins/core/grading"
)

// Job statuses
const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

type (
	Period struct {
		Code  string `json:"code"`
		Label string `json:"label"`
	}

	Student struct {
		ID        string `json:"id"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Group     string `json:"group"`
	}

	// SubjectStateRow is the state (and optional grade) of one student in one subject.
	SubjectStateRow struct {
		StudentID   string      `json:"student_id"`
		UnitCode    string      `json:"unit_code"`
		UnitName    string      `json:"unit_name"`
		SubjectCode string      `json:"subject_code"`
		SubjectName string      `json:"subject_name"`
		Etat        string      `json:"etat"`    // raw token
		Average     interface{} `json:"average"` // raw grade
	}

	SubjectResult struct {
		Code    string       `json:"code"`
		Name    string       `json:"name"`
		Average null.Float64 `json:"average"`
		Etat    grading.Etat `json:"etat"`
	}

	UnitResult struct {
		Code     string          `json:"code"`
		Name     string          `json:"name"`
		Average  null.Float64    `json:"average"`
		Etat     grading.Etat    `json:"etat"`
		Subjects []SubjectResult `json:"subjects"`
	}

	Bulletin struct {
		Student     Student      `json:"student"`
		Period      Period       `json:"period"`
		School      string       `json:"school"`
		Units       []UnitResult `json:"units"`
		GeneratedAt time.Time    `json:"generated_at"` // UTC
	}

	Job struct {
		ID           string    `json:"id"`
		Period       string    `json:"period"`
		Status       string    `json:"status"`
		StudentCount int       `json:"student_count"`
		ArchiveName  string    `json:"archive_name"`
		Error        string    `json:"error"`
		CreatedAt    time.Time `json:"created_at"`  // UTC
		FinishedAt   time.Time `json:"finished_at"` // UTC; zero while running
	}

	// Archive is a generated ZIP of bulletins.
	Archive struct {
		Name    string
		Content []byte
	}
)

// ValidatedUnits counts the units of the bulletin with a Validated verdict.
func (b Bulletin) ValidatedUnits() int {
	var n int
	for _, u := range b.Units {
		if u.Etat == grading.Validated {
			n++
		}
	}
	return n
}

func (j Job) IsFinished() bool {
	return j.Status == StatusDone || j.Status == StatusFailed
}

// NewGeneration contains information needed to generate the bulletins of a period.
type NewGeneration struct {
	Period     string   `json:"period" validate:"required,code"`
	Label      string   `json:"label"`
	StudentIDs []string `json:"student_ids" validate:"omitempty,dive,code"`
	Notify     bool     `json:"notify"`
}

func (ng *NewGeneration) Validate(validate *validator.Validate) error {
	ng.Period = core.CleanString(ng.Period)
	ng.Label = core.CleanString(ng.Label)
	if ng.Label == "" {
		ng.Label = ng.Period
	}
	for i, id := range ng.StudentIDs {
		ng.StudentIDs[i] = core.CleanString(id)
	}
	return validate.Struct(ng)
}

// EvaluateRequest carries raw subject states and a raw unit average.
type EvaluateRequest struct {
	States  []string    `json:"states"`
	Average interface{} `json:"average"`
}

type QueryFilter struct {
	Period string `json:"period" query:"period"`
	Status string `json:"status" query:"status" validate:"omitempty,oneof=running done failed"`
}

// IsEmpty reports whether the filter matches every job.
func (qf *QueryFilter) IsEmpty() bool {
	return qf.Period == "" && qf.Status == ""
}

func (qf *QueryFilter) Clean() {
	qf.Period = core.CleanString(qf.Period)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
