package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bmukendi/kongamano/core"
	"github.com/bmukendi/kongamano/core/program"
)

type scheduleApi struct {
	deps *ServerDeps
}

func registerScheduleAPI(g *echo.Group, deps *ServerDeps) {
	api := scheduleApi{deps: deps}

	bg := g.Group("/block-schedule")
	bg.GET("", api.query)
	bg.POST("", api.create)
	bg.GET("/days", api.days)
	bg.GET("/day/:day", api.byDay)
	bg.GET("/:id", api.retrieve)
	bg.PUT("/:id", api.update)
	bg.DELETE("/:id", api.destroy)
}

// blockResponse mirrors the original block serializer; times are naive local
// datetimes and length is derived minutes.
type blockResponse struct {
	ID          string   `json:"id"`
	Day         string   `json:"day"`
	StartTime   *string  `json:"start_time"`
	EndTime     *string  `json:"end_time"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Length      *float64 `json:"length"`
	BlockType   string   `json:"block_type"`
	SubLength   *int     `json:"sub_length"`
}

func newBlockResponse(block program.TimeBlock) blockResponse {
	resp := blockResponse{
		ID:          block.ID,
		Day:         block.Day,
		StartTime:   core.FormatLocalDatetime(&block.StartTime),
		EndTime:     core.FormatLocalDatetime(&block.EndTime),
		Title:       block.Title,
		Description: block.Description,
		Location:    block.Location,
		BlockType:   block.BlockType,
		SubLength:   block.SubLength,
	}
	if !block.StartTime.IsZero() && !block.EndTime.IsZero() {
		length := block.Length()
		resp.Length = &length
	}
	return resp
}

func blockList(blocks []program.TimeBlock) []blockResponse {
	resp := make([]blockResponse, 0, len(blocks))
	for _, block := range blocks {
		resp = append(resp, newBlockResponse(block))
	}
	return resp
}

// blockRequest accepts the original wire's snake_case keys and their
// camelCase/shorthand aliases.
type blockRequest struct {
	Day          *string `json:"day"`
	Title        *string `json:"title"`
	StartTime    *string `json:"start_time"`
	StartTimeAlt *string `json:"startTime"`
	EndTime      *string `json:"end_time"`
	EndTimeAlt   *string `json:"endTime"`
	Description  *string `json:"description"`
	Location     *string `json:"location"`
	BlockType    *string `json:"block_type"`
	BlockTypeAlt *string `json:"type"`
	SubLength    *int    `json:"sub_length"`
}

func coalesce(vals ...*string) *string {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func (api *scheduleApi) create(ctx echo.Context) error {
	var data blockRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to blockRequest")
	}

	nb := program.NewTimeBlock{}
	if data.Day != nil {
		nb.Day = *data.Day
	}
	if data.Title != nil {
		nb.Title = *data.Title
	}
	if data.Description != nil {
		nb.Description = *data.Description
	}
	if data.Location != nil {
		nb.Location = *data.Location
	}
	if bt := coalesce(data.BlockType, data.BlockTypeAlt); bt != nil {
		nb.BlockType = *bt
	}
	nb.SubLength = data.SubLength

	start, err := parseRequiredDatetime(coalesce(data.StartTime, data.StartTimeAlt), "start_time")
	if err != nil {
		return err
	}
	end, err := parseRequiredDatetime(coalesce(data.EndTime, data.EndTimeAlt), "end_time")
	if err != nil {
		return err
	}
	nb.StartTime, nb.EndTime = start, end

	if err = nb.Validate(api.deps.Validate); err != nil {
		return err
	}

	block, err := api.deps.ProgramSvc.CreateBlock(ctx.Request().Context(), nb)
	if err != nil {
		return errors.Wrap(err, "creating block")
	}
	return ctx.JSON(http.StatusCreated, newBlockResponse(block))
}

func parseRequiredDatetime(val *string, field string) (time.Time, error) {
	if val == nil || *val == "" {
		return time.Time{}, core.NewValidationError(nil, core.FieldError{Field: field, Error: "this field is required"})
	}
	t := core.ParseLocalDatetime(*val)
	if t.IsZero() {
		return time.Time{}, core.NewValidationError(nil, core.FieldError{Field: field, Error: "invalid datetime"})
	}
	return t, nil
}

func (api *scheduleApi) query(ctx echo.Context) error {
	blocks, err := api.deps.ProgramSvc.QueryAllBlocks(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying blocks")
	}
	return ctx.JSON(http.StatusOK, blockList(blocks))
}

func (api *scheduleApi) retrieve(ctx echo.Context) error {
	block, err := api.deps.ProgramSvc.GetBlock(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding block by ID")
	}
	return ctx.JSON(http.StatusOK, newBlockResponse(block))
}

func (api *scheduleApi) byDay(ctx echo.Context) error {
	blocks, err := api.deps.ProgramSvc.BlocksByDay(ctx.Request().Context(), ctx.Param("day"))
	if err != nil {
		return errors.Wrap(err, "querying blocks by day")
	}
	return ctx.JSON(http.StatusOK, blockList(blocks))
}

func (api *scheduleApi) days(ctx echo.Context) error {
	days, err := api.deps.ProgramSvc.Days(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying days")
	}
	if days == nil {
		days = []string{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"days": days})
}

func (api *scheduleApi) update(ctx echo.Context) error {
	var data blockRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to blockRequest")
	}

	ub := program.UpdateTimeBlock{
		Day:         data.Day,
		Title:       data.Title,
		Description: data.Description,
		Location:    data.Location,
		BlockType:   coalesce(data.BlockType, data.BlockTypeAlt),
		SubLength:   data.SubLength,
	}
	// an unparseable datetime on update leaves the stored one alone
	if val := coalesce(data.StartTime, data.StartTimeAlt); val != nil {
		if t := core.ParseLocalDatetime(*val); !t.IsZero() {
			ub.StartTime = &t
		}
	}
	if val := coalesce(data.EndTime, data.EndTimeAlt); val != nil {
		if t := core.ParseLocalDatetime(*val); !t.IsZero() {
			ub.EndTime = &t
		}
	}

	block, err := api.deps.ProgramSvc.UpdateBlock(ctx.Request().Context(), ctx.Param("id"), ub)
	if err != nil {
		return errors.Wrap(err, "updating block")
	}
	return ctx.JSON(http.StatusOK, newBlockResponse(block))
}

func (api *scheduleApi) destroy(ctx echo.Context) error {
	id := ctx.Param("id")
	if _, err := api.deps.ProgramSvc.GetBlock(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "finding block by ID")
	}
	if err := api.deps.ProgramSvc.DeleteBlock(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting block")
	}
	return ctx.NoContent(http.StatusNoContent)
}
