package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/adminzone/backend/core/audit"
)

type auditApi struct {
	svc *audit.Service
}

func registerAuditAPI(g *echo.Group, svc *audit.Service, mws ...echo.MiddlewareFunc) {
	api := auditApi{svc: svc}

	ag := g.Group("/audit", mws...)
	ag.GET("", api.query)
	ag.GET("/user/:username", api.queryByUser)
}

func (api *auditApi) query(ctx echo.Context) error {
	var filter audit.QueryFilter
	if err := bindQuery(ctx, &filter); err != nil {
		return err
	}
	return api.respond(ctx, filter)
}

func (api *auditApi) queryByUser(ctx echo.Context) error {
	return api.respond(ctx, audit.QueryFilter{Username: ctx.Param("username")})
}

func (api *auditApi) respond(ctx echo.Context, filter audit.QueryFilter) error {
	page, err := bindPage(ctx)
	if err != nil {
		return err
	}
	entries, err := api.svc.Query(ctx.Request().Context(), filter, page)
	if err != nil {
		return errors.Wrap(err, "querying audit log")
	}
	return ctx.JSON(http.StatusOK, entries)
}
