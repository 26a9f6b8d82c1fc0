package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bmukendi/kongamano/core"
	"github.com/bmukendi/kongamano/core/account"
)

// guard reasons; the forbidden body carries "<reason>_required"
const (
	guardOrganizer      = "organizer"
	guardAbstractGrader = "abstract_grader"
	guardPresenter      = "presenter"
)

type guardOutcome int

const (
	guardAllow guardOutcome = iota
	guardAuthenticate
	guardSignup
	guardForbidden
)

// decideGuard is the pure access decision: no session means authenticate, a
// session without an account means signup, and an account is checked against
// the guard's predicate.
func decideGuard(ident *account.Identity, acct *account.Account, allowed func(account.Account) bool) guardOutcome {
	if ident == nil {
		return guardAuthenticate
	}
	if acct == nil {
		return guardSignup
	}
	if allowed(*acct) {
		return guardAllow
	}
	return guardForbidden
}

// wantsJSON sniffs machine clients: a JSON request body or the XHR marker
// header. Everything else is treated as a browser.
func wantsJSON(req *http.Request) bool {
	if strings.Contains(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return true
	}
	return req.Header.Get("X-Requested-With") == "XMLHttpRequest"
}

// guardMiddleware gates a route on the given predicate, mapping the outcome:
// authenticate and signup redirect to the frontend flows, forbidden is a JSON
// 403 for machine clients and a dashboard redirect for browsers.
func guardMiddleware(reason string, allowed func(account.Account) bool, svc *account.Service, conf *core.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ident := getContextIdentity(ctx)

			var acct *account.Account
			if ident != nil {
				a, err := getContextAccount(ctx, svc)
				if err == nil {
					acct = &a
				} else if errors.Cause(err) != account.ErrNotFound {
					return errors.Wrap(err, "resolving account")
				}
			}

			switch decideGuard(ident, acct, allowed) {
			case guardAllow:
				return next(ctx)
			case guardAuthenticate:
				return ctx.Redirect(http.StatusFound, conf.Frontend.LoginPath)
			case guardSignup:
				return ctx.Redirect(http.StatusFound, conf.Frontend.SignupPath)
			default:
				return forbid(ctx, reason, conf)
			}
		}
	}
}

func forbid(ctx echo.Context, reason string, conf *core.Config) error {
	if wantsJSON(ctx.Request()) {
		return ctx.JSON(http.StatusForbidden, echo.Map{
			"error":  "forbidden",
			"reason": reason + "_required",
		})
	}
	return ctx.Redirect(http.StatusFound, conf.Frontend.DashboardPath)
}

// bannedRedirectMiddleware is the inverse-shaped guard: anonymous and
// accountless requests pass through untouched, only a banned account is
// diverted to the banned landing page.
func bannedRedirectMiddleware(svc *account.Service, conf *core.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if getContextIdentity(ctx) == nil {
				return next(ctx)
			}

			acct, err := getContextAccount(ctx, svc)
			if err != nil {
				if errors.Cause(err) == account.ErrNotFound {
					return next(ctx)
				}
				return errors.Wrap(err, "resolving account")
			}
			if acct.IsBanned() {
				return ctx.Redirect(http.StatusFound, conf.Frontend.BannedPath)
			}
			return next(ctx)
		}
	}
}
