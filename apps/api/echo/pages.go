package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bmukendi/kongamano/core/account"
	"github.com/bmukendi/kongamano/core/program"
)

// Page-equivalent routes. Rendering lives in the frontend; these return the
// payloads the pages are built from, behind the same guards the pages had.
type pageApi struct {
	deps *ServerDeps
}

func registerPageRoutes(e *echo.Echo, deps *ServerDeps) {
	api := pageApi{deps: deps}

	banned := bannedRedirectMiddleware(deps.AccountSvc, deps.Conf)
	organizer := guardMiddleware(guardOrganizer, account.Account.IsOrganizer, deps.AccountSvc, deps.Conf)
	grader := guardMiddleware(guardAbstractGrader, account.Account.CanGradeAbstracts, deps.AccountSvc, deps.Conf)
	presenter := guardMiddleware(guardPresenter, account.Account.CanPresent, deps.AccountSvc, deps.Conf)

	e.GET("/", api.home, banned)
	e.GET("/dashboard", api.dashboard, banned)
	e.GET("/schedule", api.schedule, banned)
	e.GET("/fizzbuzz", api.fizzbuzz)
	e.GET("/abstract-grader", api.abstractGrader, banned, grader)
	e.GET("/organizer/users", api.organizerUsers, banned, organizer)
	e.GET("/organizer/presentations", api.organizerPresentations, banned, organizer)
	e.GET("/profile", api.profile, banned, presenter)
	e.GET("/signup", api.signupPage)
	e.POST("/signup", api.signup)
	e.GET("/google/login", api.login)
	e.GET("/google/logout", api.logout)
}

func (api *pageApi) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Kongamano!")
}

func (api *pageApi) dashboard(ctx echo.Context) error {
	payload := echo.Map{"page": "dashboard", "authenticated": false}
	if ident := getContextIdentity(ctx); ident != nil {
		payload["authenticated"] = true
		payload["name"] = ident.Name
		if acct, err := getContextAccount(ctx, api.deps.AccountSvc); err == nil {
			payload["user"] = acct
		} else if errors.Cause(err) != account.ErrNotFound {
			return errors.Wrap(err, "resolving account")
		}
	}
	return ctx.JSON(http.StatusOK, payload)
}

func (api *pageApi) schedule(ctx echo.Context) error {
	days, err := api.deps.ProgramSvc.Days(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying days")
	}
	if days == nil {
		days = []string{}
	}

	var isOrganizer bool
	if acct, err := getContextAccount(ctx, api.deps.AccountSvc); err == nil {
		isOrganizer = acct.IsOrganizer()
	} else if errors.Cause(err) != account.ErrNotFound {
		return errors.Wrap(err, "resolving account")
	}

	return ctx.JSON(http.StatusOK, echo.Map{"days": days, "is_organizer": isOrganizer})
}

// fizzbuzz is the banned landing page. Unguarded on purpose.
func (api *pageApi) fizzbuzz(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "fizzbuzz")
}

func (api *pageApi) abstractGrader(ctx echo.Context) error {
	acct, err := getContextAccount(ctx, api.deps.AccountSvc)
	if err != nil {
		return errors.Wrap(err, "resolving account")
	}

	completed, err := api.deps.ProgramSvc.CompletedPresentations(ctx.Request().Context(), acct.ID)
	if err != nil {
		return errors.Wrap(err, "querying completed presentations")
	}
	if completed == nil {
		completed = []string{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"page": "abstract-grader", "completed": completed})
}

func (api *pageApi) organizerUsers(ctx echo.Context) error {
	accts, err := api.deps.AccountSvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying accounts")
	}
	if accts == nil {
		accts = []account.Account{}
	}
	return ctx.JSON(http.StatusOK, accts)
}

func (api *pageApi) organizerPresentations(ctx echo.Context) error {
	pres, err := api.deps.ProgramSvc.QueryAllPresentations(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying presentations")
	}
	return ctx.JSON(http.StatusOK, presentationList(pres))
}

func (api *pageApi) profile(ctx echo.Context) error {
	acct, err := getContextAccount(ctx, api.deps.AccountSvc)
	if err != nil {
		return errors.Wrap(err, "resolving account")
	}

	payload := echo.Map{"user": acct}
	if acct.PresentationID != nil {
		pres, err := api.deps.ProgramSvc.GetPresentation(ctx.Request().Context(), *acct.PresentationID)
		if err == nil {
			payload["presentation"] = newPresentationResponse(pres)
		} else if errors.Cause(err) != program.ErrPresentationNotFound {
			return errors.Wrap(err, "finding presentation")
		}
	}
	return ctx.JSON(http.StatusOK, payload)
}

func (api *pageApi) signupPage(ctx echo.Context) error {
	ident := getContextIdentity(ctx)
	if ident == nil {
		return ctx.Redirect(http.StatusFound, api.deps.Conf.Frontend.LoginPath)
	}
	return ctx.JSON(http.StatusOK, echo.Map{"email": ident.Email, "name": ident.Name})
}

// signup creates an account for the current session identity. The email comes
// from the session, never from the form.
func (api *pageApi) signup(ctx echo.Context) error {
	ident := getContextIdentity(ctx)
	if ident == nil {
		return ctx.Redirect(http.StatusFound, api.deps.Conf.Frontend.LoginPath)
	}

	var data struct {
		FirstName string `json:"firstname"`
		LastName  string `json:"lastname"`
		Activity  string `json:"activity"`
	}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding signup form")
	}

	na := account.NewAccount{
		FirstName: data.FirstName,
		LastName:  data.LastName,
		Email:     ident.Email,
		Activity:  data.Activity,
	}
	if err := na.Validate(api.deps.Validate); err != nil {
		return err
	}

	acct, err := api.deps.AccountSvc.Create(ctx.Request().Context(), na)
	if err != nil {
		return errors.Wrap(err, "creating account")
	}
	return ctx.JSON(http.StatusCreated, acct)
}

// login is only the redirect target of the external OAuth flow; the flow
// itself terminates at the frontend.
func (api *pageApi) login(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"login": "external"})
}

// logout clears the session cookie and sends the client home.
func (api *pageApi) logout(ctx echo.Context) error {
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
	})
	return ctx.Redirect(http.StatusFound, "/")
}
