package echoapi

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/academic"
	"github.com/trezcool/portal/core/directory"
)

var orderingParam = "ordering"

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
		if field != "" {
			ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
		}
	}
}

// bindPeriod reads the optional semester & schoolYear query params.
func bindPeriod(ctx echo.Context) academic.PeriodQuery {
	return academic.PeriodQuery{
		Semester:   ctx.QueryParam("semester"),
		SchoolYear: ctx.QueryParam("schoolYear"),
	}
}

func bindFacultyFilter(ctx echo.Context) (*directory.QueryFilter, error) {
	filter := &directory.QueryFilter{
		Search:     core.CleanString(ctx.QueryParam("search")),
		Department: core.CleanString(ctx.QueryParam("department")),
	}
	if v := ctx.QueryParam("isActive"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return nil, core.NewValidationError(
				errors.New("invalid isActive"),
				core.FieldError{Field: "isActive", Error: "must be true or false"},
			)
		}
		filter.IsActive = &active
	}
	return filter, nil
}

// bindAndValidate decodes the request body into data and runs its validate tags.
func bindAndValidate(ctx echo.Context, validate *validator.Validate, data interface{}) error {
	if err := ctx.Bind(data); err != nil {
		return errors.Wrap(core.NewBadRequest("malformed request body"), err.Error())
	}
	if err := validate.Struct(data); err != nil {
		return err
	}
	return nil
}
