package echoapi

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/adminzone/backend/core/export"
	"github.com/adminzone/backend/core/student"
)

const (
	mimeTextCSV        = "text/csv; charset=utf-8"
	mimeApplicationPDF = "application/pdf"
)

type exportApi struct {
	svc *export.Service
}

func registerExportAPI(g *echo.Group, svc *export.Service, mws ...echo.MiddlewareFunc) {
	api := exportApi{svc: svc}

	eg := g.Group("/export", mws...)
	eg.GET("/csv/:type", api.csv)
	eg.GET("/transcript/:studentId", api.transcript)
	eg.POST("/transcript/:studentId/email", api.emailTranscript)
}

func attachment(ctx echo.Context, filename string) {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+filename)
}

func (api *exportApi) csv(ctx echo.Context) error {
	kind := ctx.Param("type")
	if !export.IsKind(kind) {
		return export.ErrUnknownKind
	}

	buf := new(bytes.Buffer)
	if err := api.svc.WriteCSV(ctx.Request().Context(), kind, buf); err != nil {
		return errors.Wrap(err, "exporting "+kind)
	}
	attachment(ctx, export.CSVFilename(kind))
	return ctx.Blob(http.StatusOK, mimeTextCSV, buf.Bytes())
}

func (api *exportApi) transcript(ctx echo.Context) error {
	studentID, err := int64Param(ctx, "studentId", student.ErrNotFound)
	if err != nil {
		return err
	}
	tr, err := api.svc.Transcript(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "building transcript")
	}

	buf := new(bytes.Buffer)
	if err = tr.WritePDF(buf); err != nil {
		return errors.Wrap(err, "rendering transcript")
	}
	attachment(ctx, tr.Filename())
	return ctx.Blob(http.StatusOK, mimeApplicationPDF, buf.Bytes())
}

func (api *exportApi) emailTranscript(ctx echo.Context) error {
	studentID, err := int64Param(ctx, "studentId", student.ErrNotFound)
	if err != nil {
		return err
	}
	if err = api.svc.EmailTranscript(ctx.Request().Context(), studentID); err != nil {
		return errors.Wrap(err, "emailing transcript")
	}
	return ctx.JSON(http.StatusAccepted, echo.Map{"message": "Foaia matricola a fost trimisa"})
}
