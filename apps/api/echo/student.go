package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core/academic"
	"github.com/trezcool/portal/core/student"
)

type studentApi struct {
	svc      *student.Service
	resolver *academic.Resolver
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, svc *student.Service, resolver *academic.Resolver, validate *validator.Validate) {
	api := studentApi{svc: svc, resolver: resolver, validate: validate}

	g.GET("/enrollment-status", api.enrollmentStatus)
	g.GET("/schedule", api.schedule)

	sg := g.Group("/students")
	sg.POST("/validate", api.validateStudent)
	sg.GET("/:studentId/grades", api.grades)
}

// resolve returns the student the request is about and the period it is scoped to.
func (api *studentApi) resolve(ctx echo.Context, requested string) (string, academic.Resolution, error) {
	studentID, err := studentScope(ctx, requested)
	if err != nil {
		return "", academic.Resolution{}, err
	}
	claims, _ := getContextClaims(ctx)
	res, err := api.resolver.Resolve(ctx.Request().Context(), claims.Subject, bindPeriod(ctx))
	if err != nil {
		return "", academic.Resolution{}, errors.Wrap(err, "resolving academic period")
	}
	return studentID, res, nil
}

func (api *studentApi) enrollmentStatus(ctx echo.Context) error {
	studentID, res, err := api.resolve(ctx, ctx.QueryParam("studentId"))
	if err != nil {
		return err
	}
	status, err := api.svc.EnrollmentStatus(ctx.Request().Context(), studentID, res.Period)
	if err != nil {
		return errors.Wrap(err, "computing enrollment status")
	}
	return respond(ctx, http.StatusOK, echo.Map{
		"isEnrolled": status.IsEnrolled,
		"status":     status.Status,
		"semester":   status.Semester,
		"schoolYear": status.SchoolYear,
		"courseId":   status.CourseID,
	})
}

func (api *studentApi) validateStudent(ctx echo.Context) error {
	var data student.ValidateInput
	if err := bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}
	v, err := api.svc.Validate(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "validating student")
	}
	resp := echo.Map{"valid": v.Valid}
	if v.Student != nil {
		resp["student"] = v.Student
	}
	return respond(ctx, http.StatusOK, resp)
}

func (api *studentApi) grades(ctx echo.Context) error {
	studentID, res, err := api.resolve(ctx, ctx.Param("studentId"))
	if err != nil {
		return err
	}
	grades, err := api.svc.Grades(ctx.Request().Context(), studentID, res.Period)
	if err != nil {
		return errors.Wrap(err, "listing student grades")
	}
	return respond(ctx, http.StatusOK, echo.Map{"grades": grades, "period": res.Period})
}

func (api *studentApi) schedule(ctx echo.Context) error {
	studentID, res, err := api.resolve(ctx, ctx.QueryParam("studentId"))
	if err != nil {
		return err
	}
	items, err := api.svc.Schedule(ctx.Request().Context(), studentID, res.Period)
	if err != nil {
		return errors.Wrap(err, "listing student schedule")
	}
	return respond(ctx, http.StatusOK, echo.Map{
		"schedule":         items,
		"academicSettings": api.resolver.AcademicSettings(ctx.Request().Context(), res),
	})
}
