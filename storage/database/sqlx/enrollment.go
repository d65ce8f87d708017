package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/adminzone/backend/core"
	"github.com/adminzone/backend/core/enrollment"
)

type enrollmentRepository struct {
	repository
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(exec core.DBExecutor) *enrollmentRepository {
	return &enrollmentRepository{repository{exec: exec}}
}

func (repo enrollmentRepository) selectEnrollments() sq.SelectBuilder {
	return qb.Select(
		"e.student_id",
		studentFullName+" AS student_name",
		"e.course_id",
		"c.name AS course_name",
		"c.credits AS course_credits",
		"c.semester AS course_semester",
		"e.final_grade",
	).
		From("enrollments e").
		Join("students s ON s.id = e.student_id").
		Join("courses c ON c.id = e.course_id")
}

func (repo enrollmentRepository) filter(f enrollment.QueryFilter) sq.And {
	conds := sq.And{}
	if f.StudentID != nil {
		conds = append(conds, sq.Eq{"e.student_id": *f.StudentID})
	}
	if f.CourseID != nil {
		conds = append(conds, sq.Eq{"e.course_id": *f.CourseID})
	}
	return conds
}

func (repo enrollmentRepository) CreateEnrollment(ctx context.Context, enr enrollment.Enrollment, exec ...core.DBExecutor) error {
	query := qb.Insert("enrollments").
		Columns("student_id", "course_id", "final_grade").
		Values(enr.StudentID, enr.CourseID, enr.FinalGrade)

	if _, err := repo.execute(ctx, repo.getExec(exec), query); err != nil {
		return errors.Wrap(err, "inserting enrollment")
	}
	return nil
}

func (repo enrollmentRepository) GetEnrollment(ctx context.Context, studentID, courseID int64, exec ...core.DBExecutor) (enrollment.Enrollment, error) {
	var enr enrollment.Enrollment
	query := repo.selectEnrollments().Where(sq.Eq{"e.student_id": studentID, "e.course_id": courseID})
	if err := repo.get(ctx, repo.getExec(exec), &enr, query); err != nil {
		return enrollment.Enrollment{}, repo.trapNoRowsErr(err, enrollment.ErrNotFound)
	}
	return enr, nil
}

func (repo enrollmentRepository) QueryEnrollments(
	ctx context.Context,
	filter enrollment.QueryFilter,
	page core.PageRequest,
	exec ...core.DBExecutor,
) ([]enrollment.Enrollment, int64, error) {
	e := repo.getExec(exec)
	conds := repo.filter(filter)

	total, err := repo.count(ctx, e, qb.Select("COUNT(*)").From("enrollments e").Where(conds))
	if err != nil {
		return nil, 0, err
	}

	query := repo.selectEnrollments().
		Where(conds).
		OrderBy("e.student_id ASC", "e.course_id ASC").
		Limit(page.Limit()).
		Offset(page.Offset())

	enrollments := make([]enrollment.Enrollment, 0)
	if err = repo.selectAll(ctx, e, &enrollments, query); err != nil {
		return nil, 0, errors.Wrap(err, "selecting enrollments")
	}
	return enrollments, total, nil
}

func (repo enrollmentRepository) QueryAllEnrollments(ctx context.Context, filter enrollment.QueryFilter, exec ...core.DBExecutor) ([]enrollment.Enrollment, error) {
	query := repo.selectEnrollments().
		Where(repo.filter(filter)).
		OrderBy("e.student_id ASC", "e.course_id ASC")

	enrollments := make([]enrollment.Enrollment, 0)
	if err := repo.selectAll(ctx, repo.getExec(exec), &enrollments, query); err != nil {
		return nil, errors.Wrap(err, "selecting enrollments")
	}
	return enrollments, nil
}

func (repo enrollmentRepository) UpdateEnrollment(ctx context.Context, enr enrollment.Enrollment, exec ...core.DBExecutor) error {
	query := qb.Update("enrollments").
		Set("final_grade", enr.FinalGrade).
		Where(sq.Eq{"student_id": enr.StudentID, "course_id": enr.CourseID})

	affected, err := repo.execute(ctx, repo.getExec(exec), query)
	if err != nil {
		return errors.Wrap(err, "updating enrollment")
	}
	if affected == 0 {
		return enrollment.ErrNotFound
	}
	return nil
}

func (repo enrollmentRepository) DeleteEnrollment(ctx context.Context, studentID, courseID int64, exec ...core.DBExecutor) error {
	query := qb.Delete("enrollments").Where(sq.Eq{"student_id": studentID, "course_id": courseID})

	affected, err := repo.execute(ctx, repo.getExec(exec), query)
	if err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	if affected == 0 {
		return enrollment.ErrNotFound
	}
	return nil
}
