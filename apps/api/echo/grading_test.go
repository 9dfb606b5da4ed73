package echoapi

import (
	"net/http"
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/GithubESPI/bulletins/core/grading"
)

func Test_gradingApi_evaluate(t *testing.T) {
	app := setup(t)
	path := "/v1/grading/evaluate"

	runHTTPTests(t, app, []httpTest{
		{
			name:     "all validated without average",
			method:   http.MethodPost,
			path:     path,
			body:     []byte(`{"states":["VA"," va "]}`),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, EvaluateResponse{Etat: grading.Validated}),
		},
		{
			name:     "conditional with passing string average",
			method:   http.MethodPost,
			path:     path,
			body:     []byte(`{"states":["VA","C"],"average":"10,0"}`),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, EvaluateResponse{Etat: grading.Validated}),
		},
		{
			name:     "conditional with failing average",
			method:   http.MethodPost,
			path:     path,
			body:     []byte(`{"states":["C"],"average":9.99}`),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, EvaluateResponse{Etat: grading.NotValidated}),
		},
		{
			name:     "conditional without average",
			method:   http.MethodPost,
			path:     path,
			body:     []byte(`{"states":["C"],"average":"-"}`),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, EvaluateResponse{Etat: grading.NotValidated}),
		},
		{
			name:     "retake fails whatever the average",
			method:   http.MethodPost,
			path:     path,
			body:     []byte(`{"states":["VA","R"],"average":20}`),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, EvaluateResponse{Etat: grading.NotValidated}),
		},
		{
			name:     "no subjects",
			method:   http.MethodPost,
			path:     path,
			body:     []byte(`{}`),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, EvaluateResponse{Etat: grading.Validated}),
		},
	})
}

func Test_gradingApi_ueAverage(t *testing.T) {
	app := setup(t)
	path := "/v1/grading/ue-average"
	rows := `[
		{"CODE_APPRENANT": 41, "CODE_UE": "U1", "MOYENNE_UE": "8"},
		{"CODE_APPRENANT": 42, "CODE_UE": "U1", "MOYENNE_UE": "14.0"},
		{"CODE_APPRENANT": "42", "CODE_MATIERE": "M9", "NOM_MATIERE": "Anglais", "MOYENNE": "12,5"},
		{"CODE_APPRENANT": "42", "CODE_UE": "U3", "MOYENNE_UE": "NaN"}
	]`

	runHTTPTests(t, app, []httpTest{
		{
			name:     "student and unit",
			method:   http.MethodPost,
			path:     path,
			body:     []byte(`{"rows":` + rows + `,"unit_code":"u1","student_id":" 42 "}`),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, UeAverageResponse{Average: null.Float64From(14)}),
		},
		{
			name:     "any student",
			method:   http.MethodPost,
			path:     path,
			body:     []byte(`{"rows":` + rows + `,"unit_code":"U1"}`),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, UeAverageResponse{Average: null.Float64From(8)}),
		},
		{
			name:     "subject name fallback",
			method:   http.MethodPost,
			path:     path,
			body:     []byte(`{"rows":` + rows + `,"unit_code":"UX","student_id":"42","subject_name":"anglais"}`),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, UeAverageResponse{Average: null.Float64From(12.5)}),
		},
		{
			name:     "non finite average",
			method:   http.MethodPost,
			path:     path,
			body:     []byte(`{"rows":` + rows + `,"unit_code":"U3","student_id":"42"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"average":null}`),
		},
		{
			name:     "no match",
			method:   http.MethodPost,
			path:     path,
			body:     []byte(`{"rows":[],"unit_code":"U1"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"average":null}`),
		},
		{
			name:     "blank unit code",
			method:   http.MethodPost,
			path:     path,
			body:     []byte(`{"rows":[],"unit_code":"  "}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"unit_code":"this field cannot be blank"}`),
		},
	})
}
