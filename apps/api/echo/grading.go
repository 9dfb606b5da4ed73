package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/GithubESPI/bulletins/core"
	"github.com/GithubESPI/bulletins/core/bulletin"
	"github.com/GithubESPI/bulletins/core/grading"
)

type gradingApi struct {
	svc      *bulletin.Service
	validate *validator.Validate
}

func registerGradingAPI(g *echo.Group, svc *bulletin.Service, validate *validator.Validate) {
	api := gradingApi{
		svc:      svc,
		validate: validate,
	}

	gg := g.Group("/grading")
	gg.POST("/evaluate", api.evaluate)
	gg.POST("/ue-average", api.ueAverage)
}

// Handlers

func (api *gradingApi) evaluate(ctx echo.Context) error {
	var data bulletin.EvaluateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EvaluateRequest")
	}
	return ctx.JSON(http.StatusOK, EvaluateResponse{Etat: api.svc.Evaluate(data)})
}

func (api *gradingApi) ueAverage(ctx echo.Context) error {
	var data UeAverageRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UeAverageRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	avg := grading.GetUeAverage(data.Rows, data.UnitCode, data.StudentID, data.SubjectName)
	return ctx.JSON(http.StatusOK, UeAverageResponse{Average: avg})
}

type (
	EvaluateResponse struct {
		Etat grading.Etat `json:"etat"`
	}

	UeAverageRequest struct {
		Rows        []grading.UeAverageRow `json:"rows"`
		UnitCode    string                 `json:"unit_code" validate:"notblank"`
		StudentID   string                 `json:"student_id"`
		SubjectName string                 `json:"subject_name"`
	}

	UeAverageResponse struct {
		Average null.Float64 `json:"average"`
	}
)

func (r *UeAverageRequest) Validate(validate *validator.Validate) error {
	r.StudentID = core.CleanString(r.StudentID)
	return validate.Struct(r)
}
