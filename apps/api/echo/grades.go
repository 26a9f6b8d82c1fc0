package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bmukendi/kongamano/core/program"
)

type gradeApi struct {
	deps *ServerDeps
}

func registerGradeAPI(g *echo.Group, deps *ServerDeps) {
	api := gradeApi{deps: deps}

	gg := g.Group("/grades")
	gg.GET("", api.query)
	gg.POST("", api.create)
	gg.GET("/averages", api.averages)
	gg.GET("/:id", api.retrieve)
	gg.PUT("/:id", api.update)
	gg.DELETE("/:id", api.destroy)

	ag := g.Group("/abstractgrades")
	ag.GET("", api.queryAbstract)
	ag.POST("", api.createAbstract)
	ag.GET("/averages", api.abstractAverages)
	ag.GET("/completed/:user_id", api.completed)
	ag.GET("/:id", api.retrieveAbstract)
	ag.PUT("/:id", api.updateAbstract)
	ag.DELETE("/:id", api.destroyAbstract)
}

type gradeResponse struct {
	ID                string  `json:"id"`
	AccountID         string  `json:"user_id"`
	GraderName        *string `json:"grader_name"`
	PresentationID    string  `json:"presentation_id"`
	PresentationTitle *string `json:"presentation_title"`
	Criteria1         int     `json:"criteria_1"`
	Criteria2         int     `json:"criteria_2"`
	Criteria3         int     `json:"criteria_3"`
}

func newGradeResponse(grade program.Grade) gradeResponse {
	return gradeResponse{
		ID:                grade.ID,
		AccountID:         grade.AccountID,
		GraderName:        grade.GraderName,
		PresentationID:    grade.PresentationID,
		PresentationTitle: grade.PresentationTitle,
		Criteria1:         grade.Criteria1,
		Criteria2:         grade.Criteria2,
		Criteria3:         grade.Criteria3,
	}
}

type abstractGradeResponse struct {
	ID                string  `json:"id"`
	AccountID         string  `json:"user_id"`
	GraderName        *string `json:"grader_name"`
	PresentationID    string  `json:"presentation_id"`
	PresentationTitle *string `json:"presentation_title"`
	Criteria1         float64 `json:"criteria_1"`
	Criteria2         float64 `json:"criteria_2"`
	Criteria3         float64 `json:"criteria_3"`
}

func newAbstractGradeResponse(grade program.AbstractGrade) abstractGradeResponse {
	return abstractGradeResponse{
		ID:                grade.ID,
		AccountID:         grade.AccountID,
		GraderName:        grade.GraderName,
		PresentationID:    grade.PresentationID,
		PresentationTitle: grade.PresentationTitle,
		Criteria1:         grade.Criteria1,
		Criteria2:         grade.Criteria2,
		Criteria3:         grade.Criteria3,
	}
}

// Grades

func (api *gradeApi) query(ctx echo.Context) error {
	grades, err := api.deps.ProgramSvc.QueryAllGrades(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}

	resp := make([]gradeResponse, 0, len(grades))
	for _, grade := range grades {
		resp = append(resp, newGradeResponse(grade))
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *gradeApi) create(ctx echo.Context) error {
	var data program.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	grade, err := api.deps.ProgramSvc.CreateGrade(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating grade")
	}
	return ctx.JSON(http.StatusCreated, newGradeResponse(grade))
}

func (api *gradeApi) retrieve(ctx echo.Context) error {
	grade, err := api.deps.ProgramSvc.GetGrade(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding grade by ID")
	}
	return ctx.JSON(http.StatusOK, newGradeResponse(grade))
}

func (api *gradeApi) update(ctx echo.Context) error {
	var data program.UpdateGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGrade")
	}

	grade, err := api.deps.ProgramSvc.UpdateGrade(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating grade")
	}
	return ctx.JSON(http.StatusOK, newGradeResponse(grade))
}

func (api *gradeApi) destroy(ctx echo.Context) error {
	id := ctx.Param("id")
	if _, err := api.deps.ProgramSvc.GetGrade(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "finding grade by ID")
	}
	if err := api.deps.ProgramSvc.DeleteGrade(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *gradeApi) averages(ctx echo.Context) error {
	averages, err := api.deps.ProgramSvc.GradeAverages(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying grade averages")
	}
	if averages == nil {
		averages = []program.GradeAverage{}
	}
	return ctx.JSON(http.StatusOK, averages)
}

// Abstract grades

func (api *gradeApi) queryAbstract(ctx echo.Context) error {
	grades, err := api.deps.ProgramSvc.QueryAllAbstractGrades(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying abstract grades")
	}

	resp := make([]abstractGradeResponse, 0, len(grades))
	for _, grade := range grades {
		resp = append(resp, newAbstractGradeResponse(grade))
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *gradeApi) createAbstract(ctx echo.Context) error {
	var data program.NewAbstractGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAbstractGrade")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	grade, err := api.deps.ProgramSvc.CreateAbstractGrade(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating abstract grade")
	}
	return ctx.JSON(http.StatusCreated, newAbstractGradeResponse(grade))
}

func (api *gradeApi) retrieveAbstract(ctx echo.Context) error {
	grade, err := api.deps.ProgramSvc.GetAbstractGrade(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding abstract grade by ID")
	}
	return ctx.JSON(http.StatusOK, newAbstractGradeResponse(grade))
}

func (api *gradeApi) updateAbstract(ctx echo.Context) error {
	var data program.UpdateAbstractGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAbstractGrade")
	}

	grade, err := api.deps.ProgramSvc.UpdateAbstractGrade(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating abstract grade")
	}
	return ctx.JSON(http.StatusOK, newAbstractGradeResponse(grade))
}

func (api *gradeApi) destroyAbstract(ctx echo.Context) error {
	id := ctx.Param("id")
	if _, err := api.deps.ProgramSvc.GetAbstractGrade(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "finding abstract grade by ID")
	}
	if err := api.deps.ProgramSvc.DeleteAbstractGrade(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting abstract grade")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *gradeApi) abstractAverages(ctx echo.Context) error {
	averages, err := api.deps.ProgramSvc.AbstractGradeAverages(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying abstract grade averages")
	}
	if averages == nil {
		averages = []program.GradeAverage{}
	}
	return ctx.JSON(http.StatusOK, averages)
}

// completed lists the presentations a grader is done with, deduplicated.
func (api *gradeApi) completed(ctx echo.Context) error {
	completed, err := api.deps.ProgramSvc.CompletedPresentations(ctx.Request().Context(), ctx.Param("user_id"))
	if err != nil {
		return errors.Wrap(err, "querying completed presentations")
	}
	if completed == nil {
		completed = []string{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"completed": completed})
}
