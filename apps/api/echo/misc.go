package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core/academic"
	"github.com/trezcool/portal/services/upstream"
)

type (
	miscApi struct {
		upstream *upstream.Client
		resolver *academic.Resolver
		validate *validator.Validate
	}

	ChatMessage struct {
		Role    string `json:"role" validate:"required,oneof=user assistant"`
		Content string `json:"content" validate:"required,max=4000"`
	}

	ChatRequest struct {
		Message string        `json:"message" validate:"required,max=4000"`
		History []ChatMessage `json:"history" validate:"max=50,dive"`
	}
)

func registerMiscAPI(g *echo.Group, up *upstream.Client, resolver *academic.Resolver, validate *validator.Validate) {
	api := miscApi{upstream: up, resolver: resolver, validate: validate}

	g.GET("/academic-periods", api.academicPeriods)
	g.POST("/chat", api.chat)

	dg := g.Group("/debug", roleMiddleware(RoleAdmin))
	dg.GET("/cache", api.cacheStats)
	dg.GET("/upstream", api.pingUpstream)
}

func (api *miscApi) academicPeriods(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	res, err := api.resolver.Resolve(ctx.Request().Context(), claims.Subject, bindPeriod(ctx))
	if err != nil {
		return errors.Wrap(err, "resolving academic period")
	}
	as := api.resolver.AcademicSettings(ctx.Request().Context(), res)
	return respond(ctx, http.StatusOK, echo.Map{
		"semesters":   as.Semesters,
		"schoolYears": as.SchoolYears,
		"current":     res.Period,
		"source":      res.Source,
	})
}

func (api *miscApi) chat(ctx echo.Context) error {
	var data ChatRequest
	if err := bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	history := data.History
	if history == nil {
		history = []ChatMessage{}
	}
	resp, err := api.upstream.Chat(ctx.Request().Context(), map[string]interface{}{
		"message": data.Message,
		"history": history,
		"user_id": claims.Subject,
		"role":    claims.Role,
	})
	if err != nil {
		return errors.Wrap(err, "forwarding chat message")
	}
	return respond(ctx, http.StatusOK, echo.Map{
		"reply": resp.String("reply", "message", "response", "content"),
	})
}

func (api *miscApi) cacheStats(ctx echo.Context) error {
	return respond(ctx, http.StatusOK, echo.Map{"cache": api.upstream.Cache().Stats()})
}

func (api *miscApi) pingUpstream(ctx echo.Context) error {
	latency, err := api.upstream.Ping(ctx.Request().Context())
	resp := echo.Map{"reachable": err == nil, "latencyMs": latency.Milliseconds()}
	if err != nil {
		resp["error"] = err.Error()
	}
	return respond(ctx, http.StatusOK, resp)
}
