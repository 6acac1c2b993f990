package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/quizadmin/core"
	"github.com/trezcool/quizadmin/core/user"
)

type (
	userAPI struct {
		tokens *tokenIssuer
		deps   *Deps
	}

	tokenResp struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}

	newUserResp struct {
		User              user.User `json:"user"`
		TemporaryPassword string    `json:"temporary_password"`
	}

	passwordResetReq struct {
		Email string `json:"email" validate:"required,email"`
	}

	successResp struct {
		Success string `json:"success"`
	}
)

const (
	passwordResetRequested = "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."
	passwordResetDone = "Password has been reset with the new password."
)

func registerUserAPI(v1 *echo.Group, auth echo.MiddlewareFunc, tokens *tokenIssuer, deps *Deps) {
	api := &userAPI{tokens: tokens, deps: deps}
	adminOnly := roleMiddleware(user.CanEditTemplates)

	v1.POST("/users/login", api.login)
	v1.POST("/users/password-reset", api.requestPasswordReset)
	v1.POST("/users/password-reset/confirm", api.confirmPasswordReset)

	users := v1.Group("/users", auth)
	users.GET("", api.list, adminOnly)
	users.POST("", api.create, adminOnly)
	users.GET("/me", api.me)
	users.PUT("/me/password", api.changePassword)
	users.PUT("/me/language", api.setLanguage)
}

func (api *userAPI) login(ctx echo.Context) error {
	var data user.LoginUser
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := api.deps.Validate.Struct(data); err != nil {
		return err
	}

	usr, err := api.deps.UserSvc.Authenticate(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		return err
	}
	token, err := api.tokens.Generate(usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tokenResp{Token: token, User: usr})
}

func (api *userAPI) requestPasswordReset(ctx echo.Context) error {
	var data passwordResetReq
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if err := api.deps.Validate.Struct(data); err != nil {
		return err
	}

	if err := api.deps.UserSvc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		// do not tell callers which accounts exist
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, successResp{Success: passwordResetRequested})
}

func (api *userAPI) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetPassword
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if _, err := api.deps.UserSvc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, successResp{Success: passwordResetDone})
}

func (api *userAPI) list(ctx echo.Context) error {
	var filter user.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return err
	}
	var ord Ordering
	ord.Bind(ctx)

	users, err := api.deps.UserSvc.Query(ctx.Request().Context(), &filter, ord.Orderings...)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userAPI) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	usr, pwd, err := api.deps.UserSvc.CreateWithTemporaryPassword(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, newUserResp{User: usr, TemporaryPassword: pwd})
}

func (api *userAPI) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userAPI) changePassword(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data user.ChangePassword
	if err = ctx.Bind(&data); err != nil {
		return err
	}
	if usr, err = api.deps.UserSvc.ChangePassword(ctx.Request().Context(), usr.ID, data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userAPI) setLanguage(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data user.SetLanguage
	if err = ctx.Bind(&data); err != nil {
		return err
	}
	if usr, err = api.deps.UserSvc.SetLanguage(ctx.Request().Context(), usr.ID, data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}
