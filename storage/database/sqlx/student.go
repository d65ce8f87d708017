package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/adminzone/backend/core"
	"github.com/adminzone/backend/core/student"
)

var studentOrderingFields = map[string]string{
	"id":        "id",
	"nume":      "last_name",
	"prenume":   "first_name",
	"email":     "email",
	"anStudiu":  "year_of_study",
	"createdAt": "created_at",
}

type studentRepository struct {
	repository
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(exec core.DBExecutor) *studentRepository {
	return &studentRepository{repository{exec: exec}}
}

func (repo studentRepository) selectStudents() sq.SelectBuilder {
	return qb.Select("id", "last_name", "first_name", "email", "phone", "year_of_study", "created_at", "updated_at").
		From("students")
}

func (repo studentRepository) filter(f student.QueryFilter) sq.And {
	conds := sq.And{}
	if f.Search != "" {
		conds = append(conds, likeAny(f.Search, "last_name", "first_name", "email"))
	}
	if f.YearOfStudy != nil {
		conds = append(conds, sq.Eq{"year_of_study": *f.YearOfStudy})
	}
	return conds
}

func (repo studentRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedID int64, exec ...core.DBExecutor) error {
	query := qb.Select("COUNT(*)").From("students").Where(sq.Eq{"email": email})
	if excludedID > 0 {
		query = query.Where(sq.NotEq{"id": excludedID})
	}
	count, err := repo.count(ctx, repo.getExec(exec), query)
	if err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if count > 0 {
		return student.ErrEmailExists
	}
	return nil
}

func (repo studentRepository) CreateStudent(ctx context.Context, st student.Student, exec ...core.DBExecutor) (student.Student, error) {
	query := qb.Insert("students").
		Columns("last_name", "first_name", "email", "phone", "year_of_study", "created_at", "updated_at").
		Values(st.LastName, st.FirstName, st.Email, st.Phone, st.YearOfStudy, st.CreatedAt.UTC(), st.UpdatedAt.UTC())

	id, err := repo.insertReturningID(ctx, repo.getExec(exec), query)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	st.ID = id
	return st, nil
}

func (repo studentRepository) GetStudent(ctx context.Context, id int64, exec ...core.DBExecutor) (student.Student, error) {
	var st student.Student
	err := repo.get(ctx, repo.getExec(exec), &st, repo.selectStudents().Where(sq.Eq{"id": id}))
	if err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, student.ErrNotFound)
	}
	return st, nil
}

func (repo studentRepository) QueryStudents(
	ctx context.Context,
	filter student.QueryFilter,
	ordering []core.DBOrdering,
	page core.PageRequest,
	exec ...core.DBExecutor,
) ([]student.Student, int64, error) {
	e := repo.getExec(exec)
	conds := repo.filter(filter)

	total, err := repo.count(ctx, e, qb.Select("COUNT(*)").From("students").Where(conds))
	if err != nil {
		return nil, 0, err
	}

	query := repo.selectStudents().
		Where(conds).
		OrderBy(append(core.SafeOrderings(ordering, studentOrderingFields), "id ASC")...).
		Limit(page.Limit()).
		Offset(page.Offset())

	students := make([]student.Student, 0)
	if err = repo.selectAll(ctx, e, &students, query); err != nil {
		return nil, 0, errors.Wrap(err, "selecting students")
	}
	return students, total, nil
}

func (repo studentRepository) QueryAllStudents(ctx context.Context, exec ...core.DBExecutor) ([]student.Student, error) {
	students := make([]student.Student, 0)
	if err := repo.selectAll(ctx, repo.getExec(exec), &students, repo.selectStudents().OrderBy("id ASC")); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	return students, nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, st student.Student, exec ...core.DBExecutor) (student.Student, error) {
	query := qb.Update("students").
		SetMap(map[string]interface{}{
			"last_name":     st.LastName,
			"first_name":    st.FirstName,
			"email":         st.Email,
			"phone":         st.Phone,
			"year_of_study": st.YearOfStudy,
			"updated_at":    st.UpdatedAt.UTC(),
		}).
		Where(sq.Eq{"id": st.ID})

	affected, err := repo.execute(ctx, repo.getExec(exec), query)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if affected == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return st, nil
}

func (repo studentRepository) DeleteStudent(ctx context.Context, id int64, exec ...core.DBExecutor) error {
	affected, err := repo.execute(ctx, repo.getExec(exec), qb.Delete("students").Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if affected == 0 {
		return student.ErrNotFound
	}
	return nil
}
