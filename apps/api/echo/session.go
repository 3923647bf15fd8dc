package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/academic"
	"github.com/trezcool/portal/core/records"
)

type (
	sessionApi struct {
		resolver *academic.Resolver
		validate *validator.Validate
	}

	sessionUser struct {
		ID        string `json:"id"`
		Role      string `json:"role"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		StudentID string `json:"studentId,omitempty"`
		FacultyID string `json:"facultyId,omitempty"`
	}

	PeriodRequest struct {
		Semester   string `json:"semester" validate:"required,semester"`
		SchoolYear string `json:"schoolYear" validate:"required,schoolyear"`
	}
)

func registerSessionAPI(g *echo.Group, resolver *academic.Resolver, validate *validator.Validate) {
	api := sessionApi{resolver: resolver, validate: validate}

	sg := g.Group("/session")
	sg.GET("", api.retrieve)
	sg.PUT("/period", api.storePeriod)
}

func (api *sessionApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	prof, err := api.resolver.Stored(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "reading stored period")
	}

	var period *academic.Period
	if p := prof.Period(); p.Complete() {
		period = &p
	}
	return respond(ctx, http.StatusOK, echo.Map{
		"user": sessionUser{
			ID:        claims.Subject,
			Role:      claims.Role,
			Name:      claims.Name,
			Email:     claims.Email,
			StudentID: claims.StudentID,
			FacultyID: claims.FacultyID,
		},
		"period": period,
	})
}

func (api *sessionApi) storePeriod(ctx echo.Context) error {
	var data PeriodRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(core.NewBadRequest("malformed request body"), err.Error())
	}
	data.Semester = records.NormalizeSemester(data.Semester)
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	p := academic.Period{Semester: data.Semester, SchoolYear: data.SchoolYear}
	if err := api.resolver.Store(ctx.Request().Context(), claims.Subject, p); err != nil {
		return errors.Wrap(err, "storing period")
	}
	return respond(ctx, http.StatusOK, echo.Map{"period": p})
}
