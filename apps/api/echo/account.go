package echoapi

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bmukendi/kongamano/core"
	"github.com/bmukendi/kongamano/core/account"
)

type accountApi struct {
	deps *ServerDeps
}

func registerAccountAPI(g *echo.Group, deps *ServerDeps) {
	api := accountApi{deps: deps}

	ug := g.Group("/users")
	ug.GET("", api.query)
	ug.POST("", api.create)
	ug.POST("/import", api.importRoster,
		guardMiddleware(guardOrganizer, account.Account.IsOrganizer, deps.AccountSvc, deps.Conf))
	ug.GET("/:id", api.retrieve)
	ug.PUT("/:id", api.update)
	ug.DELETE("/:id", api.destroy)

	g.GET("/me", api.me)
}

func (api *accountApi) query(ctx echo.Context) error {
	accts, err := api.deps.AccountSvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying accounts")
	}
	if accts == nil {
		accts = []account.Account{}
	}
	return ctx.JSON(http.StatusOK, accts)
}

func (api *accountApi) create(ctx echo.Context) error {
	var data account.NewAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAccount")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	acct, err := api.deps.AccountSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating account")
	}
	return ctx.JSON(http.StatusCreated, acct)
}

func (api *accountApi) retrieve(ctx echo.Context) error {
	acct, err := api.deps.AccountSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding account by ID")
	}
	return ctx.JSON(http.StatusOK, acct)
}

// updateUserRequest tolerates the original wire quirks: auth may arrive as a
// list (comma-joined on save) and presentation_id distinguishes absent from
// an explicit null.
type updateUserRequest struct {
	FirstName      *string         `json:"firstname"`
	LastName       *string         `json:"lastname"`
	Email          *string         `json:"email"`
	Activity       *string         `json:"activity"`
	Auth           json.RawMessage `json:"auth"`
	PresentationID json.RawMessage `json:"presentation_id"`
}

func parseAuthField(raw json.RawMessage) (*string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		joined := strings.Join(list, ",")
		return &joined, nil
	}
	return nil, core.NewValidationError(nil, core.FieldError{Field: "auth", Error: "must be a string or a list of strings"})
}

// parseNullableID returns (value, set): absent means unchanged, null or ""
// means an explicit clear.
func parseNullableID(raw json.RawMessage, field string) (*string, bool, error) {
	if len(raw) == 0 {
		return nil, false, nil
	}
	if string(raw) == "null" {
		return nil, true, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false, core.NewValidationError(nil, core.FieldError{Field: field, Error: "must be a string or null"})
	}
	if s == "" {
		return nil, true, nil
	}
	return &s, true, nil
}

func (api *accountApi) update(ctx echo.Context) error {
	var data updateUserRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to updateUserRequest")
	}

	auth, err := parseAuthField(data.Auth)
	if err != nil {
		return err
	}
	presentationID, presentationIDSet, err := parseNullableID(data.PresentationID, "presentation_id")
	if err != nil {
		return err
	}

	acct, err := api.deps.AccountSvc.Update(ctx.Request().Context(), ctx.Param("id"), account.UpdateAccount{
		FirstName:         data.FirstName,
		LastName:          data.LastName,
		Email:             data.Email,
		Activity:          data.Activity,
		Auth:              auth,
		PresentationID:    presentationID,
		PresentationIDSet: presentationIDSet,
	})
	if err != nil {
		return errors.Wrap(err, "updating account")
	}
	return ctx.JSON(http.StatusOK, acct)
}

func (api *accountApi) destroy(ctx echo.Context) error {
	id := ctx.Param("id")
	if _, err := api.deps.AccountSvc.GetByID(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "finding account by ID")
	}
	if err := api.deps.AccountSvc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting account")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *accountApi) importRoster(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile("csv_file")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "csv_file", Error: "no CSV file provided"})
	}
	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".csv") {
		return core.NewValidationError(nil, core.FieldError{Field: "csv_file", Error: "file must be a .csv"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = file.Close() }()

	added, warnings, err := api.deps.AccountSvc.ImportRoster(ctx.Request().Context(), file)
	if err != nil {
		return errors.Wrap(err, "importing roster")
	}
	if warnings == nil {
		warnings = []string{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"added": added, "warnings": warnings})
}

func (api *accountApi) me(ctx echo.Context) error {
	ident := getContextIdentity(ctx)
	if ident == nil {
		return ctx.JSON(http.StatusUnauthorized, echo.Map{"authenticated": false})
	}

	payload := echo.Map{
		"authenticated":  true,
		"name":           ident.Name,
		"email":          ident.Email,
		"picture":        ident.Picture,
		"account_exists": false,
	}

	acct, err := getContextAccount(ctx, api.deps.AccountSvc)
	if err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return ctx.JSON(http.StatusOK, payload)
		}
		return errors.Wrap(err, "resolving account")
	}

	payload["account_exists"] = true
	payload["user_id"] = acct.ID
	payload["auth"] = acct.Auth
	payload["presentation_id"] = acct.PresentationID
	payload["activity"] = acct.Activity
	return ctx.JSON(http.StatusOK, payload)
}
