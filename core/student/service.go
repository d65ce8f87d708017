package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/adminzone/backend/core"
	"github.com/adminzone/backend/core/audit"
)

var (
	// errors
	ErrNotFound    = core.NewNotFoundError("student")
	ErrEmailExists = core.NewDuplicateError("email", "a student with this email already exists")
)

type (
	Repository interface {
		// CheckEmailUniqueness returns ErrEmailExists if another student (not excludedID) uses email.
		CheckEmailUniqueness(ctx context.Context, email string, excludedID int64, exec ...core.DBExecutor) error
		CreateStudent(ctx context.Context, st Student, exec ...core.DBExecutor) (Student, error)
		GetStudent(ctx context.Context, id int64, exec ...core.DBExecutor) (Student, error)
		QueryStudents(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, page core.PageRequest, exec ...core.DBExecutor) ([]Student, int64, error)
		QueryAllStudents(ctx context.Context, exec ...core.DBExecutor) ([]Student, error)
		UpdateStudent(ctx context.Context, st Student, exec ...core.DBExecutor) (Student, error)
		DeleteStudent(ctx context.Context, id int64, exec ...core.DBExecutor) error
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

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	var st Student
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if err := svc.repo.CheckEmailUniqueness(ctx, ns.Email, 0, tx); err != nil {
			return err
		}

		now := time.Now().UTC()
		created, err := svc.repo.CreateStudent(ctx, Student{
			LastName:    ns.LastName,
			FirstName:   ns.FirstName,
			Email:       ns.Email,
			Phone:       ns.Phone,
			YearOfStudy: ns.YearOfStudy,
			CreatedAt:   now,
			UpdatedAt:   now,
		}, tx)
		if err != nil {
			return errors.Wrap(err, "creating student")
		}
		st = created

		return svc.auditor.Record(ctx, tx, audit.ActionCreate, EntityName, &st.ID, ns)
	})
	return st, err
}

func (svc *Service) Get(ctx context.Context, id int64) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, page core.PageRequest) (core.Page[Student], error) {
	filter.Clean()
	page = page.Clean(core.DefaultPageSize, core.MaxPageSize)

	students, total, err := svc.repo.QueryStudents(ctx, filter, ordering, page)
	if err != nil {
		return core.Page[Student]{}, errors.Wrap(err, "querying students")
	}
	return core.NewPage(students, page, total), nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryAllStudents(ctx)
}

func (svc *Service) Update(ctx context.Context, id int64, us UpdateStudent) (Student, error) {
	var st Student
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		existing, err := svc.repo.GetStudent(ctx, id, tx)
		if err != nil {
			return err
		}
		if err = svc.repo.CheckEmailUniqueness(ctx, us.Email, id, tx); err != nil {
			return err
		}

		existing.LastName = us.LastName
		existing.FirstName = us.FirstName
		existing.Email = us.Email
		existing.Phone = us.Phone
		existing.YearOfStudy = us.YearOfStudy
		existing.UpdatedAt = time.Now().UTC()

		if st, err = svc.repo.UpdateStudent(ctx, existing, tx); err != nil {
			return errors.Wrap(err, "updating student")
		}
		return svc.auditor.Record(ctx, tx, audit.ActionUpdate, EntityName, &st.ID, us)
	})
	return st, err
}

// Delete removes a student with their enrollments and attendance records.
func (svc *Service) Delete(ctx context.Context, id int64) error {
	return core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		before, err := svc.repo.GetStudent(ctx, id, tx)
		if err != nil {
			return err
		}
		if err = svc.repo.DeleteStudent(ctx, id, tx); err != nil {
			return errors.Wrap(err, "deleting student")
		}
		return svc.auditor.Record(ctx, tx, audit.ActionDelete, EntityName, &before.ID, before)
	})
}
