package echoapi

import "github.com/labstack/echo/v4"

// respond sends the success envelope: data's keys next to "success": true.
func respond(ctx echo.Context, code int, data echo.Map) error {
	if data == nil {
		data = echo.Map{}
	}
	data["success"] = true
	return ctx.JSON(code, data)
}
