package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/adminzone/backend/core"
)

var (
	orderingParam   = "ordering"
	errInvalidQuery = errors.New("invalid query parameters")
)

// Ordering binds `?ordering=-data,id`: comma separated fields, "-" for descending.
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindQuery binds the query params of ctx to dest; unparsable values are reported as validation errors.
func bindQuery(ctx echo.Context, dest interface{}) error {
	if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, dest); err != nil {
		return core.NewValidationError(errInvalidQuery)
	}
	return nil
}

func bindPage(ctx echo.Context) (core.PageRequest, error) {
	var page core.PageRequest
	err := bindQuery(ctx, &page)
	return page, err
}

// int64Param returns the path param name as an int64; non-numeric ids do not match any resource.
func int64Param(ctx echo.Context, name string, notFound error) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, notFound
	}
	return id, nil
}
