package enrollment

import (
	"context"

	"github.com/pkg/errors"

	"github.com/adminzone/backend/core"
	"github.com/adminzone/backend/core/audit"
	"github.com/adminzone/backend/core/course"
	"github.com/adminzone/backend/core/student"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("enrollment")
	ErrExists   = core.NewDuplicateError("courseId", "the student is already enrolled in this course")
)

type (
	Repository interface {
		CreateEnrollment(ctx context.Context, enr Enrollment, exec ...core.DBExecutor) error
		GetEnrollment(ctx context.Context, studentID, courseID int64, exec ...core.DBExecutor) (Enrollment, error)
		QueryEnrollments(ctx context.Context, filter QueryFilter, page core.PageRequest, exec ...core.DBExecutor) ([]Enrollment, int64, error)
		QueryAllEnrollments(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Enrollment, error)
		UpdateEnrollment(ctx context.Context, enr Enrollment, exec ...core.DBExecutor) error
		DeleteEnrollment(ctx context.Context, studentID, courseID int64, exec ...core.DBExecutor) error
	}

	Service struct {
		db          core.DB
		repo        Repository
		studentRepo student.Repository
		courseRepo  course.Repository
		auditor     audit.Recorder
	}
)

func NewService(
	db core.DB,
	repo Repository,
	studentRepo student.Repository,
	courseRepo course.Repository,
	auditor audit.Recorder,
) *Service {
	return &Service{
		db:          db,
		repo:        repo,
		studentRepo: studentRepo,
		courseRepo:  courseRepo,
		auditor:     auditor,
	}
}

// payload is the audited form of an enrollment.
func payload(studentID, courseID int64, grade *float64) map[string]interface{} {
	return map[string]interface{}{
		"studentId":  studentID,
		"courseId":   courseID,
		"notaFinala": grade,
	}
}

func (svc *Service) Create(ctx context.Context, ne NewEnrollment) (Enrollment, error) {
	var enr Enrollment
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if _, err := svc.studentRepo.GetStudent(ctx, ne.StudentID, tx); err != nil {
			return err
		}
		if _, err := svc.courseRepo.GetCourse(ctx, ne.CourseID, tx); err != nil {
			return err
		}

		_, err := svc.repo.GetEnrollment(ctx, ne.StudentID, ne.CourseID, tx)
		switch {
		case err == nil:
			return ErrExists
		case errors.Cause(err) != ErrNotFound:
			return errors.Wrap(err, "checking enrollment")
		}

		err = svc.repo.CreateEnrollment(ctx, Enrollment{
			StudentID:  ne.StudentID,
			CourseID:   ne.CourseID,
			FinalGrade: ne.FinalGrade,
		}, tx)
		if err != nil {
			return errors.Wrap(err, "creating enrollment")
		}
		if enr, err = svc.repo.GetEnrollment(ctx, ne.StudentID, ne.CourseID, tx); err != nil {
			return errors.Wrap(err, "reloading enrollment")
		}

		return svc.auditor.Record(ctx, tx, audit.ActionCreate, EntityName, nil, payload(ne.StudentID, ne.CourseID, ne.FinalGrade))
	})
	return enr, err
}

func (svc *Service) Get(ctx context.Context, studentID, courseID int64) (Enrollment, error) {
	return svc.repo.GetEnrollment(ctx, studentID, courseID)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, page core.PageRequest) (core.Page[Enrollment], error) {
	page = page.Clean(core.DefaultPageSize, core.MaxPageSize)

	enrollments, total, err := svc.repo.QueryEnrollments(ctx, filter, page)
	if err != nil {
		return core.Page[Enrollment]{}, errors.Wrap(err, "querying enrollments")
	}
	return core.NewPage(enrollments, page, total), nil
}

func (svc *Service) QueryAll(ctx context.Context, filter QueryFilter) ([]Enrollment, error) {
	return svc.repo.QueryAllEnrollments(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, studentID, courseID int64, ue UpdateEnrollment) (Enrollment, error) {
	var enr Enrollment
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		existing, err := svc.repo.GetEnrollment(ctx, studentID, courseID, tx)
		if err != nil {
			return err
		}

		existing.FinalGrade = ue.FinalGrade
		if err = svc.repo.UpdateEnrollment(ctx, existing, tx); err != nil {
			return errors.Wrap(err, "updating enrollment")
		}
		enr = existing

		return svc.auditor.Record(ctx, tx, audit.ActionUpdate, EntityName, nil, payload(studentID, courseID, ue.FinalGrade))
	})
	return enr, err
}

func (svc *Service) Delete(ctx context.Context, studentID, courseID int64) error {
	return core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		before, err := svc.repo.GetEnrollment(ctx, studentID, courseID, tx)
		if err != nil {
			return err
		}
		if err = svc.repo.DeleteEnrollment(ctx, studentID, courseID, tx); err != nil {
			return errors.Wrap(err, "deleting enrollment")
		}
		return svc.auditor.Record(ctx, tx, audit.ActionDelete, EntityName, nil, before)
	})
}
