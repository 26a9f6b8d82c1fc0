package echoapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bmukendi/kongamano/core"
	"github.com/bmukendi/kongamano/core/program"
)

type presentationApi struct {
	deps *ServerDeps
}

func registerPresentationAPI(g *echo.Group, deps *ServerDeps) {
	api := presentationApi{deps: deps}

	pg := g.Group("/presentations")
	pg.GET("", api.query)
	pg.POST("", api.create)
	pg.GET("/recent", api.recent)
	pg.GET("/type/:category", api.byCategory)
	pg.GET("/day/:day", api.byDay)
	pg.POST("/order", api.order)
	pg.GET("/:id", api.retrieve)
	pg.PUT("/:id", api.update)
	pg.DELETE("/:id", api.destroy)
}

// presentationResponse mirrors the original presentation serializer: time is
// the resolved effective time, room and type come from the hosting block.
type presentationResponse struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	Abstract   string              `json:"abstract"`
	Subject    string              `json:"subject"`
	Time       *string             `json:"time"`
	Room       *string             `json:"room"`
	Type       *string             `json:"type"`
	NumInBlock *int                `json:"num_in_block"`
	Presenters []program.Presenter `json:"presenters"`
	ScheduleID *string             `json:"schedule_id"`
}

func newPresentationResponse(pres program.Presentation) presentationResponse {
	resp := presentationResponse{
		ID:         pres.ID,
		Title:      pres.Title,
		Abstract:   pres.Abstract,
		Subject:    pres.Subject,
		Time:       core.FormatLocalDatetime(pres.EffectiveTime()),
		NumInBlock: pres.NumInBlock,
		Presenters: pres.Presenters,
		ScheduleID: pres.ScheduleID,
	}
	if resp.Presenters == nil {
		resp.Presenters = []program.Presenter{}
	}
	if pres.Schedule != nil {
		room, blockType := pres.Schedule.Location, pres.Schedule.BlockType
		resp.Room, resp.Type = &room, &blockType
	}
	return resp
}

func presentationList(pres []program.Presentation) []presentationResponse {
	resp := make([]presentationResponse, 0, len(pres))
	for _, p := range pres {
		resp = append(resp, newPresentationResponse(p))
	}
	return resp
}

func (api *presentationApi) query(ctx echo.Context) error {
	pres, err := api.deps.ProgramSvc.QueryAllPresentations(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying presentations")
	}
	return ctx.JSON(http.StatusOK, presentationList(pres))
}

func (api *presentationApi) create(ctx echo.Context) error {
	var data struct {
		Title    string  `json:"title"`
		Abstract string  `json:"abstract"`
		Subject  string  `json:"subject"`
		Time     *string `json:"time"`
	}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding presentation")
	}

	t, err := parseRequiredDatetime(data.Time, "time")
	if err != nil {
		return err
	}
	np := program.NewPresentation{
		Title:    data.Title,
		Abstract: data.Abstract,
		Subject:  data.Subject,
		Time:     t,
	}
	if err = np.Validate(api.deps.Validate); err != nil {
		return err
	}

	pres, err := api.deps.ProgramSvc.CreatePresentation(ctx.Request().Context(), np)
	if err != nil {
		return errors.Wrap(err, "creating presentation")
	}
	return ctx.JSON(http.StatusCreated, newPresentationResponse(pres))
}

func (api *presentationApi) retrieve(ctx echo.Context) error {
	pres, err := api.deps.ProgramSvc.GetPresentation(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding presentation by ID")
	}
	return ctx.JSON(http.StatusOK, newPresentationResponse(pres))
}

// recent lists the presentations still ahead of now, soonest first.
func (api *presentationApi) recent(ctx echo.Context) error {
	pres, err := api.deps.ProgramSvc.Upcoming(ctx.Request().Context(), time.Now())
	if err != nil {
		return errors.Wrap(err, "querying upcoming presentations")
	}
	return ctx.JSON(http.StatusOK, presentationList(pres))
}

func (api *presentationApi) byCategory(ctx echo.Context) error {
	pres, err := api.deps.ProgramSvc.ByCategory(ctx.Request().Context(), ctx.Param("category"))
	if err != nil {
		return errors.Wrap(err, "querying presentations by category")
	}
	return ctx.JSON(http.StatusOK, presentationList(pres))
}

type dayGroupResponse struct {
	Block         blockResponse          `json:"block"`
	Presentations []presentationResponse `json:"presentations"`
}

// byDay groups the day's poster blocks with their ordered presentations.
func (api *presentationApi) byDay(ctx echo.Context) error {
	groups, err := api.deps.ProgramSvc.GroupByDay(ctx.Request().Context(), ctx.Param("day"))
	if err != nil {
		return errors.Wrap(err, "grouping presentations by day")
	}

	resp := make([]dayGroupResponse, 0, len(groups))
	for _, group := range groups {
		resp = append(resp, dayGroupResponse{
			Block:         newBlockResponse(group.Block),
			Presentations: presentationList(group.Presentations),
		})
	}
	return ctx.JSON(http.StatusOK, resp)
}

// order applies a reorder batch. Gated inline on the exact organizer label;
// unlike the page guards this endpoint always answers JSON.
func (api *presentationApi) order(ctx echo.Context) error {
	acct, err := getContextAccount(ctx, api.deps.AccountSvc)
	if err != nil || !acct.IsOrganizer() {
		return ctx.JSON(http.StatusForbidden, echo.Map{
			"error":  "forbidden",
			"reason": guardOrganizer + "_required",
		})
	}

	var data struct {
		Orders *[]program.OrderEntry `json:"orders"`
	}
	if err = ctx.Bind(&data); err != nil || data.Orders == nil {
		return core.NewValidationError(nil, core.FieldError{Field: "orders", Error: "must be a list"})
	}

	updated, err := api.deps.ProgramSvc.ApplyOrder(ctx.Request().Context(), *data.Orders)
	if err != nil {
		return errors.Wrap(err, "applying presentation order")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"ok": true, "updated": updated})
}

// presentationUpdateRequest distinguishes absent fields from explicit clears
// for time and the schedule link.
type presentationUpdateRequest struct {
	Title         *string         `json:"title"`
	Abstract      *string         `json:"abstract"`
	Subject       *string         `json:"subject"`
	Time          json.RawMessage `json:"time"`
	ScheduleID    json.RawMessage `json:"schedule_id"`
	ScheduleIDAlt json.RawMessage `json:"scheduleId"`
}

func (api *presentationApi) update(ctx echo.Context) error {
	var data presentationUpdateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to presentationUpdateRequest")
	}

	up := program.UpdatePresentation{
		Title:    data.Title,
		Abstract: data.Abstract,
		Subject:  data.Subject,
	}

	if len(data.Time) > 0 {
		val, _, err := parseNullableID(data.Time, "time")
		if err != nil {
			return err
		}
		up.TimeSet = true
		if val != nil {
			t := core.ParseLocalDatetime(*val)
			if t.IsZero() {
				return core.NewValidationError(nil, core.FieldError{Field: "time", Error: "invalid datetime"})
			}
			up.Time = &t
		}
	}

	rawSchedule := data.ScheduleID
	if len(rawSchedule) == 0 {
		rawSchedule = data.ScheduleIDAlt
	}
	if len(rawSchedule) > 0 {
		val, _, err := parseNullableID(rawSchedule, "schedule_id")
		if err != nil {
			return err
		}
		up.ScheduleIDSet = true
		if val != nil {
			if _, err = uuid.Parse(*val); err != nil {
				return core.NewValidationError(nil, core.FieldError{Field: "schedule_id", Error: "invalid block ID"})
			}
			up.ScheduleID = val
		}
	}

	pres, err := api.deps.ProgramSvc.UpdatePresentation(ctx.Request().Context(), ctx.Param("id"), up)
	if err != nil {
		return errors.Wrap(err, "updating presentation")
	}
	return ctx.JSON(http.StatusOK, newPresentationResponse(pres))
}

func (api *presentationApi) destroy(ctx echo.Context) error {
	id := ctx.Param("id")
	if _, err := api.deps.ProgramSvc.GetPresentation(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "finding presentation by ID")
	}
	if err := api.deps.ProgramSvc.DeletePresentation(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting presentation")
	}
	return ctx.NoContent(http.StatusNoContent)
}
