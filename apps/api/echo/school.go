package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/jukutrack/core"
	"github.com/trezcool/jukutrack/core/school"
)

type schoolApi struct {
	svc      school.ServiceInterface
	conf     *core.Config
	validate *validator.Validate
}

// registerSchoolAPI wires the auth and school-administration routes. The
// school routes stay open; accounts are issued by the operator, not signed up.
func registerSchoolAPI(app *echo.Echo, deps ServerDeps) {
	api := schoolApi{
		svc:      deps.SchoolSvc,
		conf:     deps.Conf,
		validate: deps.Validate,
	}

	ag := app.Group("/auth")
	ag.POST("/login", api.login)
	ag.GET("/status", api.status)
	ag.GET("/logout", api.logout)

	sg := app.Group("/schools")
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.DELETE("/:id", api.destroy)
}

type LoginRequest struct {
	SchoolID string `json:"schoolId" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (api *schoolApi) login(ctx echo.Context) error {
	data := new(LoginRequest)
	if err := ctx.Bind(data); err != nil {
		return errAuthenticationFailed
	}
	if err := api.validate.StructCtx(ctx.Request().Context(), data); err != nil {
		return errAuthenticationFailed
	}

	claims, err := authenticate(ctx, data.SchoolID, data.Password, api.svc, api.conf)
	if err != nil {
		return err
	}
	token, err := GenerateToken(claims, api.conf)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	setTokenCookie(ctx, token, api.conf.Server.JWTExpirationDelta)
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "schoolId": claims.Subject})
}

// status reports the session state from the token cookie; it never errors so
// the login page can poll it without tripping the guard.
func (api *schoolApi) status(ctx echo.Context) error {
	cookie, err := ctx.Cookie(tokenCookieName)
	if err != nil || cookie.Value == "" {
		return ctx.JSON(http.StatusOK, echo.Map{"loggedIn": false})
	}
	claims, err := ParseToken(cookie.Value, api.conf)
	if err != nil {
		return ctx.JSON(http.StatusOK, echo.Map{"loggedIn": false})
	}
	return ctx.JSON(http.StatusOK, echo.Map{"loggedIn": true, "schoolId": claims.Subject})
}

func (api *schoolApi) logout(ctx echo.Context) error {
	clearTokenCookie(ctx)
	return ctx.Redirect(http.StatusFound, loginPagePath)
}

func (api *schoolApi) query(ctx echo.Context) error {
	schools, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying schools")
	}
	return ctx.JSON(http.StatusOK, schools)
}

func (api *schoolApi) create(ctx echo.Context) error {
	data := new(school.NewSchool)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	sch, err := api.svc.Create(ctx.Request().Context(), *data)
	if err != nil {
		return errors.Wrap(err, "creating school")
	}
	return ctx.JSON(http.StatusCreated, sch)
}

func (api *schoolApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting school")
	}
	return ctx.NoContent(http.StatusNoContent)
}
