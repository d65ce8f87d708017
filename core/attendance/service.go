package attendance

import (
	"context"

	"github.com/pkg/errors"

	"github.com/adminzone/backend/core"
	"github.com/adminzone/backend/core/audit"
	"github.com/adminzone/backend/core/course"
	"github.com/adminzone/backend/core/student"
)

var ErrNotFound = core.NewNotFoundError("attendance record")

type (
	Repository interface {
		// LockTriple holds a lock on triple until the transaction behind exec ends.
		LockTriple(ctx context.Context, triple Triple, exec ...core.DBExecutor) error
		CountByTriple(ctx context.Context, triple Triple, excludedID *int64, exec ...core.DBExecutor) (int64, error)
		CreateAttendance(ctx context.Context, att Attendance, exec ...core.DBExecutor) (Attendance, error)
		GetAttendance(ctx context.Context, id int64, exec ...core.DBExecutor) (Attendance, error)
		QueryAttendance(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, page core.PageRequest, exec ...core.DBExecutor) ([]Attendance, int64, error)
		QueryAllAttendance(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Attendance, error)
		UpdateAttendance(ctx context.Context, att Attendance, exec ...core.DBExecutor) (Attendance, error)
		DeleteAttendance(ctx context.Context, id int64, exec ...core.DBExecutor) error
		// QueryStats counts, per student, the "present" records of each semester.
		QueryStats(ctx context.Context, page core.PageRequest, exec ...core.DBExecutor) ([]Stats, int64, error)
	}

	Service struct {
		db          core.DB
		repo        Repository
		studentRepo student.Repository
		courseRepo  course.Repository
		rule        *AdmissionRule
		auditor     audit.Recorder
	}
)

func NewService(
	db core.DB,
	repo Repository,
	studentRepo student.Repository,
	courseRepo course.Repository,
	rule *AdmissionRule,
	auditor audit.Recorder,
) *Service {
	return &Service{
		db:          db,
		repo:        repo,
		studentRepo: studentRepo,
		courseRepo:  courseRepo,
		rule:        rule,
		auditor:     auditor,
	}
}

// checkReferences returns the NotFound error of the first missing student or course.
func (svc *Service) checkReferences(ctx context.Context, tx core.DBExecutor, studentID, courseID int64) error {
	if _, err := svc.studentRepo.GetStudent(ctx, studentID, tx); err != nil {
		return err
	}
	if _, err := svc.courseRepo.GetCourse(ctx, courseID, tx); err != nil {
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, na NewAttendance) (Attendance, error) {
	var att Attendance
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if err := svc.checkReferences(ctx, tx, na.StudentID, na.CourseID); err != nil {
			return err
		}

		newAtt := Attendance{
			StudentID: na.StudentID,
			CourseID:  na.CourseID,
			Date:      na.Date,
			Semester:  na.Semester,
			Status:    na.Status,
		}
		if err := svc.rule.CheckAndAdmit(ctx, tx, newAtt.Triple(), nil); err != nil {
			return err
		}

		created, err := svc.repo.CreateAttendance(ctx, newAtt, tx)
		if err != nil {
			return errors.Wrap(err, "creating attendance record")
		}
		att = created

		return svc.auditor.Record(ctx, tx, audit.ActionCreate, EntityName, &att.ID, na)
	})
	return att, err
}

func (svc *Service) Get(ctx context.Context, id int64) (Attendance, error) {
	return svc.repo.GetAttendance(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, page core.PageRequest) (core.Page[Attendance], error) {
	filter.Clean()
	page = page.Clean(core.DefaultPageSize, core.MaxPageSize)

	records, total, err := svc.repo.QueryAttendance(ctx, filter, ordering, page)
	if err != nil {
		return core.Page[Attendance]{}, errors.Wrap(err, "querying attendance records")
	}
	return core.NewPage(records, page, total), nil
}

func (svc *Service) QueryAll(ctx context.Context, filter QueryFilter) ([]Attendance, error) {
	filter.Clean()
	return svc.repo.QueryAllAttendance(ctx, filter)
}

// Update modifies a record. The admission rule only runs when the record moves to another Triple;
// edits keeping the triple (date, status) are never rejected.
func (svc *Service) Update(ctx context.Context, id int64, ua UpdateAttendance) (Attendance, error) {
	var att Attendance
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		existing, err := svc.repo.GetAttendance(ctx, id, tx)
		if err != nil {
			return err
		}

		updated := existing
		updated.StudentID = ua.StudentID
		updated.CourseID = ua.CourseID
		updated.Date = ua.Date
		updated.Semester = ua.Semester
		updated.Status = ua.Status

		if updated.Triple() != existing.Triple() {
			if err = svc.checkReferences(ctx, tx, updated.StudentID, updated.CourseID); err != nil {
				return err
			}
			if err = svc.rule.CheckAndAdmit(ctx, tx, updated.Triple(), &existing.ID); err != nil {
				return err
			}
		}

		if att, err = svc.repo.UpdateAttendance(ctx, updated, tx); err != nil {
			return errors.Wrap(err, "updating attendance record")
		}
		return svc.auditor.Record(ctx, tx, audit.ActionUpdate, EntityName, &att.ID, ua)
	})
	return att, err
}

func (svc *Service) Delete(ctx context.Context, id int64) error {
	return core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		before, err := svc.repo.GetAttendance(ctx, id, tx)
		if err != nil {
			return err
		}
		if err = svc.repo.DeleteAttendance(ctx, id, tx); err != nil {
			return errors.Wrap(err, "deleting attendance record")
		}
		return svc.auditor.Record(ctx, tx, audit.ActionDelete, EntityName, &before.ID, before)
	})
}

func (svc *Service) Stats(ctx context.Context, page core.PageRequest) (core.Page[Stats], error) {
	page = page.Clean(core.DefaultPageSize, core.MaxPageSize)

	stats, total, err := svc.repo.QueryStats(ctx, page)
	if err != nil {
		return core.Page[Stats]{}, errors.Wrap(err, "querying attendance stats")
	}
	return core.NewPage(stats, page, total), nil
}
