package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/quizadmin/core/notification"
	"github.com/trezcool/quizadmin/core/user"
)

type (
	notificationAPI struct {
		deps *Deps
	}

	templateBody struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}

	previewResp struct {
		notification.Notification
		ValidRecipient bool `json:"valid_recipient"`
	}

	sendResp struct {
		Notification notification.Notification `json:"notification"`
		Log          notification.LogEntry     `json:"log"`
	}
)

var errSessionID = echo.NewHTTPError(http.StatusBadRequest, "invalid session id")

func registerTemplateAPI(v1 *echo.Group, auth echo.MiddlewareFunc, deps *Deps) {
	api := &notificationAPI{deps: deps}

	templates := v1.Group("/templates", auth, roleMiddleware(user.CanEditTemplates))
	templates.GET("", api.listTemplates)
	templates.GET("/placeholders", api.placeholders)
	templates.GET("/:kind/:lang", api.getTemplate)
	templates.PUT("/:kind/:lang", api.saveTemplate)
	templates.POST("/:kind/:lang/reset", api.resetTemplate)
}

func registerSessionAPI(v1 *echo.Group, auth echo.MiddlewareFunc, deps *Deps) {
	api := &notificationAPI{deps: deps}

	sessions := v1.Group("/sessions/:id", auth, roleMiddleware(user.CanSendNotifications))
	sessions.GET("/notification", api.preview)
	sessions.POST("/notification", api.send)
	sessions.GET("/notifications", api.history)
}

func parseKindParam(ctx echo.Context) (notification.Kind, error) {
	kind, err := notification.ParseKind(ctx.Param("kind"))
	if err != nil {
		return "", echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return kind, nil
}

func parseSessionID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, errSessionID
	}
	return id, nil
}

func (api *notificationAPI) listTemplates(ctx echo.Context) error {
	tmpls, err := api.deps.Store.List(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tmpls)
}

func (api *notificationAPI) placeholders(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.deps.Store.PlaceholderNames())
}

func (api *notificationAPI) getTemplate(ctx echo.Context) error {
	kind, err := parseKindParam(ctx)
	if err != nil {
		return err
	}
	tmpl, err := api.deps.Store.Get(ctx.Request().Context(), kind, ctx.Param("lang"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tmpl)
}

func (api *notificationAPI) saveTemplate(ctx echo.Context) error {
	kind, err := parseKindParam(ctx)
	if err != nil {
		return err
	}
	var data templateBody
	if err = ctx.Bind(&data); err != nil {
		return err
	}
	tmpl, err := api.deps.Store.Save(ctx.Request().Context(), notification.SaveTemplate{
		Kind:     kind.String(),
		Language: ctx.Param("lang"),
		Subject:  data.Subject,
		Body:     data.Body,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tmpl)
}

func (api *notificationAPI) resetTemplate(ctx echo.Context) error {
	kind, err := parseKindParam(ctx)
	if err != nil {
		return err
	}
	tmpl, err := api.deps.Store.Reset(ctx.Request().Context(), kind, ctx.Param("lang"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tmpl)
}

func (api *notificationAPI) preview(ctx echo.Context) error {
	id, err := parseSessionID(ctx)
	if err != nil {
		return err
	}
	n, err := api.deps.Composer.Compose(ctx.Request().Context(), id, ctx.QueryParam("lang"), ctx.QueryParam("override"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, previewResp{Notification: n, ValidRecipient: notification.ValidRecipient(n.Recipient)})
}

func (api *notificationAPI) send(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	id, err := parseSessionID(ctx)
	if err != nil {
		return err
	}
	var req notification.DraftRequest
	if err = ctx.Bind(&req); err != nil {
		return err
	}
	req.SessionID = id
	req.SentBy = usr.ID

	n, entry, err := api.deps.Dispatcher.Send(ctx.Request().Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sendResp{Notification: n, Log: entry})
}

func (api *notificationAPI) history(ctx echo.Context) error {
	id, err := parseSessionID(ctx)
	if err != nil {
		return err
	}
	entries, err := api.deps.Dispatcher.History(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entries)
}
