// Package grade reads and writes a class's term grades. The finalize lock lives upstream.
package grade

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/records"
)

type (
	Upstream interface {
		Class(ctx context.Context, id string) (records.Raw, error)
		ClassEnrollments(ctx context.Context, classID string) ([]records.Raw, error)
		SubmitGrade(ctx context.Context, enrollmentID string, body interface{}) (records.Raw, error)
		FinalizeGrades(ctx context.Context, classID string) (records.Raw, error)
	}

	// Submission is one term grade for one enrollment.
	Submission struct {
		EnrollmentID string   `json:"enrollmentId" validate:"required,max=64"`
		Term         string   `json:"term" validate:"required,gradeterm"`
		Grade        *float64 `json:"grade" validate:"required,min=0,max=100"`
	}

	ClassGrades struct {
		ClassID     string                     `json:"classId"`
		Class       records.ClassInfo          `json:"class"`
		Enrollments []records.EnrollmentRecord `json:"enrollments"`
		IsFinalized bool                       `json:"isFinalized"`
	}

	FinalizeResult struct {
		ClassID string `json:"classId"`
		Message string `json:"message"`
	}

	Service struct {
		upstream Upstream
		logger   core.Logger
		now      func() time.Time
	}
)

func NewService(up Upstream, logger core.Logger) *Service {
	return &Service{upstream: up, logger: logger, now: time.Now}
}

// ClassGrades lists the class's enrollments with their grades.
func (svc *Service) ClassGrades(ctx context.Context, classID string) (ClassGrades, error) {
	raw, err := svc.upstream.Class(ctx, classID)
	if err != nil {
		return ClassGrades{}, errors.Wrap(err, "grade.upstream.Class")
	}
	rows, err := svc.upstream.ClassEnrollments(ctx, classID)
	if err != nil {
		return ClassGrades{}, errors.Wrap(err, "grade.upstream.ClassEnrollments")
	}

	cg := ClassGrades{
		ClassID:     classID,
		Class:       records.NormalizeClassInfo(records.Unwrap(raw)),
		Enrollments: make([]records.EnrollmentRecord, 0, len(rows)),
		IsFinalized: len(rows) > 0,
	}
	for _, row := range rows {
		enr := records.NormalizeEnrollment(row)
		if enr.ClassID == "" {
			enr.ClassID = classID
		}
		cg.IsFinalized = cg.IsFinalized && enr.IsFinalized
		cg.Enrollments = append(cg.Enrollments, enr)
	}
	return cg, nil
}

// Submit records a term grade. The enrollment must belong to the class; everything else,
// including the finalize lock, is for the upstream to decide.
func (svc *Service) Submit(ctx context.Context, classID string, sub Submission) (records.EnrollmentRecord, error) {
	rows, err := svc.upstream.ClassEnrollments(ctx, classID)
	if err != nil {
		return records.EnrollmentRecord{}, errors.Wrap(err, "grade.upstream.ClassEnrollments")
	}
	if !containsEnrollment(rows, sub.EnrollmentID) {
		return records.EnrollmentRecord{}, &records.NotFoundError{Kind: "enrollment", ID: sub.EnrollmentID}
	}

	body := map[string]interface{}{
		"class_id": classID,
		"term":     sub.Term,
		"grade":    *sub.Grade,
	}
	resp, err := svc.upstream.SubmitGrade(ctx, sub.EnrollmentID, body)
	if err != nil {
		return records.EnrollmentRecord{}, errors.Wrap(err, "grade.upstream.SubmitGrade")
	}

	enr := records.NormalizeEnrollment(resp)
	if enr.EnrollmentID == "" {
		enr.EnrollmentID = sub.EnrollmentID
	}
	if enr.ClassID == "" {
		enr.ClassID = classID
	}
	return enr, nil
}

// Finalize locks every grade of the class.
func (svc *Service) Finalize(ctx context.Context, classID string) (FinalizeResult, error) {
	resp, err := svc.upstream.FinalizeGrades(ctx, classID)
	if err != nil {
		return FinalizeResult{}, errors.Wrap(err, "grade.upstream.FinalizeGrades")
	}
	return FinalizeResult{ClassID: classID, Message: resp.StringOr("Grades finalized", "message")}, nil
}

var exportHeader = []interface{}{
	"Enrollment ID", "Student ID", "Student Name", "Prelim", "Midterm", "Finals", "Average", "Remarks", "Finalized",
}

// Export writes the class grade sheet as an xlsx workbook and returns its file name.
func (svc *Service) Export(ctx context.Context, classID string, w io.Writer) (string, error) {
	cg, err := svc.ClassGrades(ctx, classID)
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Grades"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return "", errors.Wrap(err, "grade.SetSheetName")
	}
	if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return "", errors.Wrap(err, "grade.SetSheetRow(header)")
	}
	for i, enr := range cg.Enrollments {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", errors.Wrap(err, "grade.CoordinatesToCellName")
		}
		row := []interface{}{
			enr.EnrollmentID,
			enr.StudentID,
			enr.StudentName,
			cellValue(enr.PrelimGrade.Float64, enr.PrelimGrade.Valid),
			cellValue(enr.MidtermGrade.Float64, enr.MidtermGrade.Valid),
			cellValue(enr.FinalsGrade.Float64, enr.FinalsGrade.Valid),
			cellValue(enr.TotalAverage.Float64, enr.TotalAverage.Valid),
			enr.Remarks.String,
			enr.IsFinalized,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return "", errors.Wrap(err, "grade.SetSheetRow")
		}
	}

	if err := f.Write(w); err != nil {
		return "", errors.Wrap(err, "grade.Write")
	}
	name := fmt.Sprintf("grades-%s-%s.xlsx", classID, svc.now().Format("20060102"))
	svc.logger.Info("grade sheet exported", map[string]interface{}{"class_id": classID, "rows": len(cg.Enrollments)})
	return name, nil
}

func cellValue(v float64, valid bool) interface{} {
	if !valid {
		return ""
	}
	return v
}

func containsEnrollment(rows []records.Raw, id string) bool {
	for _, row := range rows {
		if records.NormalizeEnrollment(row).EnrollmentID == id {
			return true
		}
	}
	return false
}
