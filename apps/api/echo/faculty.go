package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core/academic"
	"github.com/trezcool/portal/core/class"
	"github.com/trezcool/portal/core/directory"
	"github.com/trezcool/portal/core/grade"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type facultyApi struct {
	classSvc *class.Service
	gradeSvc *grade.Service
	dirSvc   *directory.Service
	resolver *academic.Resolver
	validate *validator.Validate
}

func registerFacultyAPI(
	g *echo.Group,
	classSvc *class.Service,
	gradeSvc *grade.Service,
	dirSvc *directory.Service,
	resolver *academic.Resolver,
	validate *validator.Validate,
) {
	api := facultyApi{
		classSvc: classSvc,
		gradeSvc: gradeSvc,
		dirSvc:   dirSvc,
		resolver: resolver,
		validate: validate,
	}

	fg := g.Group("/faculty", roleMiddleware(RoleFaculty, RoleAdmin))
	fg.GET("", api.query)
	fg.GET("/:facultyId/schedule", api.schedule)
	fg.GET("/classes", api.classes)

	// per-class endpoints
	cg := fg.Group("/classes/:classId", classOwnerMiddleware(classSvc, "classId"))
	cg.GET("/grades", api.grades)
	cg.POST("/grades", api.submitGrade)
	cg.POST("/grades/finalize", api.finalize)
	cg.GET("/grades/export", api.export)
}

// facultyScope returns the faculty id a request may act on: faculty only see their own.
func facultyScope(ctx echo.Context, requested string) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}
	if claims.IsAdmin() {
		if requested == "" {
			return "", errMissingFacultyID
		}
		return requested, nil
	}
	if claims.FacultyID == "" || (requested != "" && requested != claims.FacultyID) {
		return "", errHttpForbidden
	}
	return claims.FacultyID, nil
}

func (api *facultyApi) query(ctx echo.Context) error {
	filter, err := bindFacultyFilter(ctx)
	if err != nil {
		return err
	}
	var ord Ordering
	ord.Bind(ctx)

	fs, err := api.dirSvc.Query(ctx.Request().Context(), filter, ord.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying faculty")
	}
	return respond(ctx, http.StatusOK, echo.Map{"faculty": fs})
}

func (api *facultyApi) schedule(ctx echo.Context) error {
	facultyID, err := facultyScope(ctx, ctx.Param("facultyId"))
	if err != nil {
		return err
	}
	claims, _ := getContextClaims(ctx)
	res, err := api.resolver.Resolve(ctx.Request().Context(), claims.Subject, bindPeriod(ctx))
	if err != nil {
		return errors.Wrap(err, "resolving academic period")
	}

	slots, err := api.dirSvc.Schedule(ctx.Request().Context(), facultyID, res.Period)
	if err != nil {
		return errors.Wrap(err, "listing faculty schedule")
	}
	return respond(ctx, http.StatusOK, echo.Map{"schedule": slots, "period": res.Period})
}

func (api *facultyApi) classes(ctx echo.Context) error {
	facultyID, err := facultyScope(ctx, ctx.QueryParam("facultyId"))
	if err != nil {
		return err
	}
	claims, _ := getContextClaims(ctx)
	res, err := api.resolver.Resolve(ctx.Request().Context(), claims.Subject, bindPeriod(ctx))
	if err != nil {
		return errors.Wrap(err, "resolving academic period")
	}

	classes, err := api.classSvc.FacultyClasses(ctx.Request().Context(), facultyID, res.Period)
	if err != nil {
		return errors.Wrap(err, "listing faculty classes")
	}
	return respond(ctx, http.StatusOK, echo.Map{
		"classes":          classes,
		"academicSettings": api.resolver.AcademicSettings(ctx.Request().Context(), res),
	})
}

func (api *facultyApi) grades(ctx echo.Context) error {
	cg, err := api.gradeSvc.ClassGrades(ctx.Request().Context(), ctx.Param("classId"))
	if err != nil {
		return errors.Wrap(err, "listing class grades")
	}
	return respond(ctx, http.StatusOK, echo.Map{
		"classId":     cg.ClassID,
		"class":       cg.Class,
		"enrollments": cg.Enrollments,
		"isFinalized": cg.IsFinalized,
	})
}

func (api *facultyApi) submitGrade(ctx echo.Context) error {
	var data grade.Submission
	if err := bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}
	enr, err := api.gradeSvc.Submit(ctx.Request().Context(), ctx.Param("classId"), data)
	if err != nil {
		return errors.Wrap(err, "submitting grade")
	}
	return respond(ctx, http.StatusOK, echo.Map{"enrollment": enr})
}

func (api *facultyApi) finalize(ctx echo.Context) error {
	res, err := api.gradeSvc.Finalize(ctx.Request().Context(), ctx.Param("classId"))
	if err != nil {
		return errors.Wrap(err, "finalizing grades")
	}
	return respond(ctx, http.StatusOK, echo.Map{"classId": res.ClassID, "message": res.Message})
}

func (api *facultyApi) export(ctx echo.Context) error {
	var buf bytes.Buffer
	name, err := api.gradeSvc.Export(ctx.Request().Context(), ctx.Param("classId"), &buf)
	if err != nil {
		return errors.Wrap(err, "exporting grades")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return ctx.Blob(http.StatusOK, xlsxMIME, buf.Bytes())
}
