package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/adminzone/backend/core"
	"github.com/adminzone/backend/core/course"
)

var courseOrderingFields = map[string]string{
	"id":              "id",
	"denumire":        "name",
	"profesorTitular": "professor",
	"nrCredite":       "credits",
	"semester":        "semester",
	"createdAt":       "created_at",
}

type courseRepository struct {
	repository
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(exec core.DBExecutor) *courseRepository {
	return &courseRepository{repository{exec: exec}}
}

func (repo courseRepository) selectCourses() sq.SelectBuilder {
	return qb.Select("id", "name", "professor", "credits", "semester", "created_at", "updated_at").From("courses")
}

func (repo courseRepository) filter(f course.QueryFilter) sq.And {
	conds := sq.And{}
	if f.Search != "" {
		conds = append(conds, likeAny(f.Search, "name", "professor"))
	}
	if f.Semester != nil {
		conds = append(conds, sq.Eq{"semester": *f.Semester})
	}
	return conds
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	query := qb.Insert("courses").
		Columns("name", "professor", "credits", "semester", "created_at", "updated_at").
		Values(crs.Name, crs.Professor, crs.Credits, crs.Semester, crs.CreatedAt.UTC(), crs.UpdatedAt.UTC())

	id, err := repo.insertReturningID(ctx, repo.getExec(exec), query)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	crs.ID = id
	return crs, nil
}

func (repo courseRepository) GetCourse(ctx context.Context, id int64, exec ...core.DBExecutor) (course.Course, error) {
	var crs course.Course
	if err := repo.get(ctx, repo.getExec(exec), &crs, repo.selectCourses().Where(sq.Eq{"id": id})); err != nil {
		return course.Course{}, repo.trapNoRowsErr(err, course.ErrNotFound)
	}
	return crs, nil
}

func (repo courseRepository) QueryCourses(
	ctx context.Context,
	filter course.QueryFilter,
	ordering []core.DBOrdering,
	page core.PageRequest,
	exec ...core.DBExecutor,
) ([]course.Course, int64, error) {
	e := repo.getExec(exec)
	conds := repo.filter(filter)

	total, err := repo.count(ctx, e, qb.Select("COUNT(*)").From("courses").Where(conds))
	if err != nil {
		return nil, 0, err
	}

	query := repo.selectCourses().
		Where(conds).
		OrderBy(append(core.SafeOrderings(ordering, courseOrderingFields), "id ASC")...).
		Limit(page.Limit()).
		Offset(page.Offset())

	courses := make([]course.Course, 0)
	if err = repo.selectAll(ctx, e, &courses, query); err != nil {
		return nil, 0, errors.Wrap(err, "selecting courses")
	}
	return courses, total, nil
}

func (repo courseRepository) QueryAllCourses(ctx context.Context, exec ...core.DBExecutor) ([]course.Course, error) {
	courses := make([]course.Course, 0)
	if err := repo.selectAll(ctx, repo.getExec(exec), &courses, repo.selectCourses().OrderBy("id ASC")); err != nil {
		return nil, errors.Wrap(err, "selecting courses")
	}
	return courses, nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	query := qb.Update("courses").
		SetMap(map[string]interface{}{
			"name":       crs.Name,
			"professor":  crs.Professor,
			"credits":    crs.Credits,
			"semester":   crs.Semester,
			"updated_at": crs.UpdatedAt.UTC(),
		}).
		Where(sq.Eq{"id": crs.ID})

	affected, err := repo.execute(ctx, repo.getExec(exec), query)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if affected == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return crs, nil
}

func (repo courseRepository) DeleteCourse(ctx context.Context, id int64, exec ...core.DBExecutor) error {
	affected, err := repo.execute(ctx, repo.getExec(exec), qb.Delete("courses").Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if affected == 0 {
		return course.ErrNotFound
	}
	return nil
}
