// Package class serves class records and performs the upstream's full-record class writes.
package class

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/academic"
	"github.com/trezcool/portal/core/records"
	"github.com/trezcool/portal/services/upstream"
)

type Upstream interface {
	Class(ctx context.Context, id string) (records.Raw, error)
	UpdateClass(ctx context.Context, id string, payload interface{}) (records.Raw, error)
	InvalidateClass(id string)
	FacultyClassIDs(ctx context.Context, facultyID, semester, schoolYear string) ([]string, error)
	UploadAttachment(ctx context.Context, fileName string, content io.Reader, fields map[string]string) (records.Raw, error)
}

type Service struct {
	upstream Upstream
	logger   core.Logger
}

func NewService(up Upstream, logger core.Logger) *Service {
	return &Service{upstream: up, logger: logger}
}

// Get returns the class, served from the response cache when fresh.
func (svc *Service) Get(ctx context.Context, id string) (records.ClassRecord, error) {
	raw, err := svc.fetch(ctx, id)
	if err != nil {
		return records.ClassRecord{}, err
	}
	return records.NormalizeClass(raw), nil
}

// FacultyClasses returns the classes a faculty member teaches in period.
// Classes that fail to load are left out.
func (svc *Service) FacultyClasses(ctx context.Context, facultyID string, period academic.Period) ([]records.ClassRecord, error) {
	ids, err := svc.upstream.FacultyClassIDs(ctx, facultyID, period.Semester, period.SchoolYear)
	if err != nil {
		return nil, errors.Wrap(err, "class.upstream.FacultyClassIDs")
	}
	return upstream.GetBatch(ctx, svc.logger, ids, svc.Get), nil
}

// UpdateSettings merges patch into the class's current settings and submits the whole class record.
// The write never happens when the read fails; upstream validation errors are returned as is.
func (svc *Service) UpdateSettings(ctx context.Context, id string, patch SettingsPatch) (records.ClassRecord, error) {
	raw, err := svc.fetch(ctx, id)
	if err != nil {
		return records.ClassRecord{}, err
	}

	settings := MergeSettings(raw.Value("settings"), patch)
	payload := BuildPayload(raw, settings)

	updated, err := svc.upstream.UpdateClass(ctx, id, payload)
	svc.upstream.InvalidateClass(id)
	if err != nil {
		return records.ClassRecord{}, errors.Wrap(err, "class.upstream.UpdateClass")
	}

	if updated.String("id") != "" {
		return records.NormalizeClass(updated), nil
	}
	rec := records.NormalizeClass(raw)
	rec.Settings = records.NormalizeSettings(map[string]interface{}(settings))
	return rec, nil
}

// UploadBanner stores the image upstream and sets it as the class banner.
func (svc *Service) UploadBanner(ctx context.Context, id, fileName string, content io.Reader) (records.ClassRecord, error) {
	if _, err := svc.fetch(ctx, id); err != nil {
		return records.ClassRecord{}, err
	}

	resp, err := svc.upstream.UploadAttachment(ctx, fileName, content, map[string]string{"class_id": id, "kind": "banner"})
	if err != nil {
		return records.ClassRecord{}, errors.Wrap(err, "class.upstream.UploadAttachment")
	}
	url := resp.String("url", "file_url", "path", "data.url")
	if url == "" {
		return records.ClassRecord{}, &records.UpstreamError{Status: 200, Message: "upload returned no url", Endpoint: "POST /attachments"}
	}

	var patch SettingsPatch
	patch.BannerImage = &url
	return svc.UpdateSettings(ctx, id, patch)
}

func (svc *Service) fetch(ctx context.Context, id string) (records.Raw, error) {
	raw, err := svc.upstream.Class(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "class.upstream.Class")
	}
	if len(raw) == 0 {
		return nil, &records.NotFoundError{Kind: "class", ID: id}
	}
	return raw, nil
}
