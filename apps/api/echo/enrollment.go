package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/adminzone/backend/core/enrollment"
)

type enrollmentApi struct {
	svc      *enrollment.Service
	validate *validator.Validate
}

func registerEnrollmentAPI(g *echo.Group, svc *enrollment.Service, validate *validator.Validate, mws ...echo.MiddlewareFunc) {
	api := enrollmentApi{svc: svc, validate: validate}

	eg := g.Group("/enrollments", mws...)
	eg.GET("", api.query)
	eg.POST("", api.create)
	eg.GET("/:studentId/:courseId", api.retrieve)
	eg.PUT("/:studentId/:courseId", api.update)
	eg.PATCH("/:studentId/:courseId", api.update)
	eg.DELETE("/:studentId/:courseId", api.destroy)
}

// keyParams returns the (studentId, courseId) key of the enrollment in path.
func (api *enrollmentApi) keyParams(ctx echo.Context) (studentID, courseID int64, err error) {
	if studentID, err = int64Param(ctx, "studentId", enrollment.ErrNotFound); err != nil {
		return
	}
	courseID, err = int64Param(ctx, "courseId", enrollment.ErrNotFound)
	return
}

func (api *enrollmentApi) create(ctx echo.Context) error {
	var data enrollment.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	enr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating enrollment")
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *enrollmentApi) query(ctx echo.Context) error {
	var filter enrollment.QueryFilter
	if err := bindQuery(ctx, &filter); err != nil {
		return err
	}
	page, err := bindPage(ctx)
	if err != nil {
		return err
	}

	enrollments, err := api.svc.Query(ctx.Request().Context(), filter, page)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *enrollmentApi) retrieve(ctx echo.Context) error {
	studentID, courseID, err := api.keyParams(ctx)
	if err != nil {
		return err
	}
	enr, err := api.svc.Get(ctx.Request().Context(), studentID, courseID)
	if err != nil {
		return errors.Wrap(err, "getting enrollment")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollmentApi) update(ctx echo.Context) error {
	studentID, courseID, err := api.keyParams(ctx)
	if err != nil {
		return err
	}
	var data enrollment.UpdateEnrollment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEnrollment")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	enr, err := api.svc.Update(ctx.Request().Context(), studentID, courseID, data)
	if err != nil {
		return errors.Wrap(err, "updating enrollment")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollmentApi) destroy(ctx echo.Context) error {
	studentID, courseID, err := api.keyParams(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), studentID, courseID); err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	return ctx.NoContent(http.StatusNoContent)
}
