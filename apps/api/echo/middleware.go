package echoapi

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core/class"
	"github.com/trezcool/portal/services/upstream"
)

// requestIDMiddleware tags every request with an X-Request-ID (kept when the caller sends one)
// and carries it into the request context for outbound upstream calls.
func requestIDMiddleware() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: func() string { return uuid.New().String() }}),
		func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(ctx echo.Context) error {
				id := ctx.Response().Header().Get(echo.HeaderXRequestID)
				req := ctx.Request()
				ctx.SetRequest(req.WithContext(upstream.WithRequestID(req.Context(), id)))
				return next(ctx)
			}
		},
	}
}

// issuerMiddleware runs after the JWT middleware.
func issuerMiddleware(issuer string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if !claims.validIssuer(issuer) {
				return errUnauthorized
			}
			return next(ctx)
		}
	}
}

func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// classOwnerMiddleware lets admins through and faculty only into the classes they teach.
func classOwnerMiddleware(svc *class.Service, param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin() {
				return next(ctx)
			}
			if claims.Role != RoleFaculty || claims.FacultyID == "" {
				return errHttpForbidden
			}

			rec, err := svc.Get(ctx.Request().Context(), ctx.Param(param))
			if err != nil {
				return errors.Wrap(err, "getting class")
			}
			if rec.FacultyID != claims.FacultyID {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

// studentScope returns the student id a request may act on: students only ever see their own records.
func studentScope(ctx echo.Context, requested string) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}
	if claims.Role == RoleStudent {
		if requested != "" && requested != claims.StudentID {
			return "", errHttpForbidden
		}
		requested = claims.StudentID
	}
	if requested == "" {
		return "", errMissingStudentID
	}
	return requested, nil
}
