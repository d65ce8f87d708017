package course

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/adminzone/backend/core"
	"github.com/adminzone/backend/core/audit"
)

var ErrNotFound = core.NewNotFoundError("course")

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		GetCourse(ctx context.Context, id int64, exec ...core.DBExecutor) (Course, error)
		QueryCourses(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, page core.PageRequest, exec ...core.DBExecutor) ([]Course, int64, error)
		QueryAllCourses(ctx context.Context, exec ...core.DBExecutor) ([]Course, error)
		UpdateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		DeleteCourse(ctx context.Context, id int64, exec ...core.DBExecutor) error
	}

	Service struct {
		db      core.DB
		repo    Repository
		auditor audit.Recorder
	}
)

func NewService(db core.DB, repo Repository, auditor audit.Recorder) *Service {
	return &Service{db: db, repo: repo, auditor: auditor}
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	var crs Course
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		now := time.Now().UTC()
		created, err := svc.repo.CreateCourse(ctx, Course{
			Name:      nc.Name,
			Professor: nc.Professor,
			Credits:   nc.Credits,
			Semester:  nc.Semester,
			CreatedAt: now,
			UpdatedAt: now,
		}, tx)
		if err != nil {
			return errors.Wrap(err, "creating course")
		}
		crs = created

		return svc.auditor.Record(ctx, tx, audit.ActionCreate, EntityName, &crs.ID, nc)
	})
	return crs, err
}

func (svc *Service) Get(ctx context.Context, id int64) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, page core.PageRequest) (core.Page[Course], error) {
	filter.Clean()
	page = page.Clean(core.DefaultPageSize, core.MaxPageSize)

	courses, total, err := svc.repo.QueryCourses(ctx, filter, ordering, page)
	if err != nil {
		return core.Page[Course]{}, errors.Wrap(err, "querying courses")
	}
	return core.NewPage(courses, page, total), nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryAllCourses(ctx)
}

func (svc *Service) Update(ctx context.Context, id int64, uc UpdateCourse) (Course, error) {
	var crs Course
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		existing, err := svc.repo.GetCourse(ctx, id, tx)
		if err != nil {
			return err
		}

		existing.Name = uc.Name
		existing.Professor = uc.Professor
		existing.Credits = uc.Credits
		existing.Semester = uc.Semester
		existing.UpdatedAt = time.Now().UTC()

		if crs, err = svc.repo.UpdateCourse(ctx, existing, tx); err != nil {
			return errors.Wrap(err, "updating course")
		}
		return svc.auditor.Record(ctx, tx, audit.ActionUpdate, EntityName, &crs.ID, uc)
	})
	return crs, err
}

// Delete removes a course with its enrollments and attendance records.
func (svc *Service) Delete(ctx context.Context, id int64) error {
	return core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		before, err := svc.repo.GetCourse(ctx, id, tx)
		if err != nil {
			return err
		}
		if err = svc.repo.DeleteCourse(ctx, id, tx); err != nil {
			return errors.Wrap(err, "deleting course")
		}
		return svc.auditor.Record(ctx, tx, audit.ActionDelete, EntityName, &before.ID, before)
	})
}
