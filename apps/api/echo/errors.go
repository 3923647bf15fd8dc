package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/records"
)

var (
	errUnauthorized     = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpForbidden    = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errMissingStudentID = core.NewMissingFieldError("studentId", "student id")
	errMissingFacultyID = core.NewMissingFieldError("facultyId", "faculty id")
)

// failure is the error envelope.
type failure struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message string
		var details interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = "missing or malformed jwt"
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if m, ok := origErr.Message.(string); ok {
				message = m
			}
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = "invalid input"
			details = fldErrs
		case *core.ValidationError:
			if flds := origErr.FieldMap(); flds != nil {
				details = flds
			}
			code = http.StatusBadRequest
			message = origErr.Error()
		case *records.NotFoundError:
			code = http.StatusNotFound
			message = origErr.Error()
		case *records.ValidationError:
			code = http.StatusUnprocessableEntity
			message = origErr.Error()
			details = origErr.Fields
		case *records.UnavailableError:
			code = http.StatusBadGateway
			message = "academic records service unavailable"
			logger.Error(message, err, requestFields(ctx))
		case *records.UpstreamError:
			if origErr.Status >= 400 && origErr.Status < 500 {
				code = origErr.Status
				message = origErr.Message
				break
			}
			code = http.StatusInternalServerError
			logServerError(logger, ctx, err)
		default: // any other error is a server error
			code = http.StatusInternalServerError
			logServerError(logger, ctx, err)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if code == http.StatusInternalServerError && ctx.Echo().Debug {
			message = err.Error()
		}
		resp := failure{Error: http.StatusText(code), Message: message, Details: details}
		if resp.Message == resp.Error {
			resp.Message = ""
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, resp)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

func logServerError(logger core.Logger, ctx echo.Context, err error) {
	msg := http.StatusText(http.StatusInternalServerError)
	args := []interface{}{errors.Wrap(err, msg), requestFields(ctx)}
	if claims, cErr := getContextClaims(ctx); cErr == nil {
		args = append(args, claims.Identity())
	}
	logger.Error(msg, args...)
}

func requestFields(ctx echo.Context) map[string]interface{} {
	return map[string]interface{}{
		"request_id": ctx.Response().Header().Get(echo.HeaderXRequestID),
		"method":     ctx.Request().Method,
		"path":       ctx.Path(),
	}
}
