package echoapi

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/class"
)

const maxBannerBytes = 5 << 20

var bannerExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}

type (
	classApi struct {
		svc      *class.Service
		validate *validator.Validate
	}

	ClassPatchRequest struct {
		Settings *class.SettingsPatch `json:"settings" validate:"required"`
	}
)

func registerClassAPI(g *echo.Group, svc *class.Service, validate *validator.Validate) {
	api := classApi{svc: svc, validate: validate}

	cg := g.Group("/classes")
	cg.GET("/:id", api.retrieve)
	cg.PATCH("/:id", api.updateSettings, roleMiddleware(RoleFaculty, RoleAdmin), classOwnerMiddleware(svc, "id"))
	cg.POST("/:id/banner", api.uploadBanner, roleMiddleware(RoleFaculty, RoleAdmin), classOwnerMiddleware(svc, "id"))
}

func (api *classApi) retrieve(ctx echo.Context) error {
	rec, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting class")
	}
	return respond(ctx, http.StatusOK, echo.Map{"class": rec})
}

func (api *classApi) updateSettings(ctx echo.Context) error {
	var data ClassPatchRequest
	if err := bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}
	rec, err := api.svc.UpdateSettings(ctx.Request().Context(), ctx.Param("id"), *data.Settings)
	if err != nil {
		return errors.Wrap(err, "updating class settings")
	}
	return respond(ctx, http.StatusOK, echo.Map{"class": rec})
}

func (api *classApi) uploadBanner(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewMissingFieldError("file", "banner image")
	}
	if fh.Size > maxBannerBytes {
		return core.NewValidationError(errors.New("banner image too large"), core.FieldError{Field: "file", Error: "must be at most 5MB"})
	}
	if !bannerExts[strings.ToLower(filepath.Ext(fh.Filename))] {
		return core.NewValidationError(errors.New("unsupported banner image"), core.FieldError{Field: "file", Error: "must be a png, jpg, gif or webp image"})
	}

	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer f.Close()

	rec, err := api.svc.UploadBanner(ctx.Request().Context(), ctx.Param("id"), filepath.Base(fh.Filename), f)
	if err != nil {
		return errors.Wrap(err, "uploading class banner")
	}
	return respond(ctx, http.StatusOK, echo.Map{"class": rec})
}
