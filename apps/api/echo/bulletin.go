package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/GithubESPI/bulletins/core"
	"github.com/GithubESPI/bulletins/core/bulletin"
)

const jobIDHeader = "X-Job-ID"

type bulletinApi struct {
	svc      *bulletin.Service
	validate *validator.Validate
}

func registerBulletinAPI(g *echo.Group, svc *bulletin.Service, validate *validator.Validate) {
	api := bulletinApi{
		svc:      svc,
		validate: validate,
	}

	bg := g.Group("/bulletins")
	bg.POST("", api.generate)
	bg.GET("/jobs", api.queryJobs)
	bg.GET("/jobs/:id", api.retrieveJob)
	bg.GET("/:period/students/:id", api.preview)
}

// Handlers

func (api *bulletinApi) generate(ctx echo.Context) error {
	var data bulletin.NewGeneration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGeneration")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	job, archive, err := api.svc.Generate(ctx.Request().Context(), data)
	if job.ID != "" {
		ctx.Response().Header().Set(jobIDHeader, job.ID)
	}
	if err != nil {
		return errors.Wrap(err, "generating bulletins")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", archive.Name))
	return ctx.Blob(http.StatusOK, "application/zip", archive.Content)
}

func (api *bulletinApi) queryJobs(ctx echo.Context) error {
	filter := new(bulletin.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []bulletin.Job{})
	}
	filter.Clean()
	if err := api.validate.Struct(filter); err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	jobs, err := api.svc.QueryJobs(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying jobs")
	}
	if jobs == nil {
		jobs = []bulletin.Job{}
	}
	return ctx.JSON(http.StatusOK, jobs)
}

func (api *bulletinApi) retrieveJob(ctx echo.Context) error {
	job, err := api.svc.GetJob(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting job")
	}
	return ctx.JSON(http.StatusOK, job)
}

func (api *bulletinApi) preview(ctx echo.Context) error {
	code := core.CleanString(ctx.Param("period"))
	if err := api.validate.Var(code, "code"); err != nil {
		return errHttpNotFound
	}
	period := bulletin.Period{Code: code, Label: core.CleanString(ctx.QueryParam("label"))}
	if period.Label == "" {
		period.Label = period.Code
	}

	b, err := api.svc.Preview(ctx.Request().Context(), period, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "building bulletin")
	}
	if ctx.QueryParam("format") == "json" {
		return ctx.JSON(http.StatusOK, b)
	}

	buf := new(bytes.Buffer)
	if err = bulletin.Render(buf, b); err != nil {
		return errors.Wrap(err, "rendering bulletin")
	}
	return ctx.HTMLBlob(http.StatusOK, buf.Bytes())
}
