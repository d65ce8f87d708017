package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/adminzone/backend/core"
	"github.com/adminzone/backend/core/attendance"
)

var attendanceOrderingFields = map[string]string{
	"id":        "a.id",
	"data":      "a.attended_on",
	"semester":  "a.semester",
	"status":    "a.status",
	"studentId": "a.student_id",
	"courseId":  "a.course_id",
}

const (
	studentFullName         = "s.last_name || ' ' || s.first_name"
	studentFullNameReversed = "s.first_name || ' ' || s.last_name"
)

type attendanceRepository struct {
	repository
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(exec core.DBExecutor) *attendanceRepository {
	return &attendanceRepository{repository{exec: exec}}
}

func (repo attendanceRepository) fromAttendance(query sq.SelectBuilder) sq.SelectBuilder {
	return query.
		From("attendance a").
		Join("students s ON s.id = a.student_id").
		Join("courses c ON c.id = a.course_id")
}

func (repo attendanceRepository) selectAttendance() sq.SelectBuilder {
	return repo.fromAttendance(qb.Select(
		"a.id",
		"a.student_id",
		studentFullName+" AS student_name",
		"a.course_id",
		"c.name AS course_name",
		"a.attended_on",
		"a.semester",
		"a.status",
	))
}

func (repo attendanceRepository) filter(f attendance.QueryFilter) sq.And {
	conds := sq.And{}
	if f.StudentID != nil {
		conds = append(conds, sq.Eq{"a.student_id": *f.StudentID})
	}
	if f.CourseID != nil {
		conds = append(conds, sq.Eq{"a.course_id": *f.CourseID})
	}
	if f.Semester != nil {
		conds = append(conds, sq.Eq{"a.semester": *f.Semester})
	}
	if f.Status != "" {
		conds = append(conds, sq.Eq{"a.status": f.Status})
	}
	if !f.DateFrom.IsZero() {
		conds = append(conds, sq.GtOrEq{"a.attended_on": f.DateFrom})
	}
	if !f.DateTo.IsZero() {
		conds = append(conds, sq.LtOrEq{"a.attended_on": f.DateTo})
	}
	if f.Search != "" {
		conds = append(conds, likeAny(f.Search, studentFullName, studentFullNameReversed, "c.name"))
	}
	if f.Student != "" {
		conds = append(conds, likeAny(f.Student, studentFullName, studentFullNameReversed))
	}
	if f.Course != "" {
		conds = append(conds, likeAny(f.Course, "c.name"))
	}
	return conds
}

// LockTriple takes a transaction-scoped advisory lock on postgres.
// sqlite3 needs none: write transactions are opened with _txlock=immediate and never overlap.
func (repo attendanceRepository) LockTriple(ctx context.Context, triple attendance.Triple, exec ...core.DBExecutor) error {
	e := repo.getExec(exec)
	if e.DriverName() != "postgres" {
		return nil
	}
	_, err := e.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", triple.String())
	return err
}

func (repo attendanceRepository) CountByTriple(ctx context.Context, triple attendance.Triple, excludedID *int64, exec ...core.DBExecutor) (int64, error) {
	query := qb.Select("COUNT(*)").
		From("attendance").
		Where(sq.Eq{
			"student_id": triple.StudentID,
			"course_id":  triple.CourseID,
			"semester":   triple.Semester,
		})
	if excludedID != nil {
		query = query.Where(sq.NotEq{"id": *excludedID})
	}
	return repo.count(ctx, repo.getExec(exec), query)
}

func (repo attendanceRepository) CreateAttendance(ctx context.Context, att attendance.Attendance, exec ...core.DBExecutor) (attendance.Attendance, error) {
	e := repo.getExec(exec)
	query := qb.Insert("attendance").
		Columns("student_id", "course_id", "attended_on", "semester", "status").
		Values(att.StudentID, att.CourseID, att.Date, att.Semester, att.Status)

	id, err := repo.insertReturningID(ctx, e, query)
	if err != nil {
		return attendance.Attendance{}, errors.Wrap(err, "inserting attendance record")
	}
	return repo.GetAttendance(ctx, id, e)
}

func (repo attendanceRepository) GetAttendance(ctx context.Context, id int64, exec ...core.DBExecutor) (attendance.Attendance, error) {
	var att attendance.Attendance
	if err := repo.get(ctx, repo.getExec(exec), &att, repo.selectAttendance().Where(sq.Eq{"a.id": id})); err != nil {
		return attendance.Attendance{}, repo.trapNoRowsErr(err, attendance.ErrNotFound)
	}
	return att, nil
}

func (repo attendanceRepository) QueryAttendance(
	ctx context.Context,
	filter attendance.QueryFilter,
	ordering []core.DBOrdering,
	page core.PageRequest,
	exec ...core.DBExecutor,
) ([]attendance.Attendance, int64, error) {
	e := repo.getExec(exec)
	conds := repo.filter(filter)

	total, err := repo.count(ctx, e, repo.fromAttendance(qb.Select("COUNT(*)")).Where(conds))
	if err != nil {
		return nil, 0, err
	}

	orderBy := core.SafeOrderings(ordering, attendanceOrderingFields)
	if len(orderBy) == 0 {
		orderBy = append(orderBy, "a.attended_on DESC")
	}
	query := repo.selectAttendance().
		Where(conds).
		OrderBy(append(orderBy, "a.id DESC")...).
		Limit(page.Limit()).
		Offset(page.Offset())

	records := make([]attendance.Attendance, 0)
	if err = repo.selectAll(ctx, e, &records, query); err != nil {
		return nil, 0, errors.Wrap(err, "selecting attendance records")
	}
	return records, total, nil
}

func (repo attendanceRepository) QueryAllAttendance(ctx context.Context, filter attendance.QueryFilter, exec ...core.DBExecutor) ([]attendance.Attendance, error) {
	query := repo.selectAttendance().
		Where(repo.filter(filter)).
		OrderBy("a.attended_on ASC", "a.id ASC")

	records := make([]attendance.Attendance, 0)
	if err := repo.selectAll(ctx, repo.getExec(exec), &records, query); err != nil {
		return nil, errors.Wrap(err, "selecting attendance records")
	}
	return records, nil
}

func (repo attendanceRepository) UpdateAttendance(ctx context.Context, att attendance.Attendance, exec ...core.DBExecutor) (attendance.Attendance, error) {
	e := repo.getExec(exec)
	query := qb.Update("attendance").
		SetMap(map[string]interface{}{
			"student_id":  att.StudentID,
			"course_id":   att.CourseID,
			"attended_on": att.Date,
			"semester":    att.Semester,
			"status":      att.Status,
		}).
		Where(sq.Eq{"id": att.ID})

	affected, err := repo.execute(ctx, e, query)
	if err != nil {
		return attendance.Attendance{}, errors.Wrap(err, "updating attendance record")
	}
	if affected == 0 {
		return attendance.Attendance{}, attendance.ErrNotFound
	}
	return repo.GetAttendance(ctx, att.ID, e)
}

func (repo attendanceRepository) DeleteAttendance(ctx context.Context, id int64, exec ...core.DBExecutor) error {
	affected, err := repo.execute(ctx, repo.getExec(exec), qb.Delete("attendance").Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting attendance record")
	}
	if affected == 0 {
		return attendance.ErrNotFound
	}
	return nil
}

func (repo attendanceRepository) QueryStats(ctx context.Context, page core.PageRequest, exec ...core.DBExecutor) ([]attendance.Stats, int64, error) {
	e := repo.getExec(exec)

	total, err := repo.count(ctx, e, qb.Select("COUNT(*)").From("students"))
	if err != nil {
		return nil, 0, err
	}

	presentIn := func(semester int) sq.Sqlizer {
		return sq.Expr(
			"COALESCE(SUM(CASE WHEN a.semester = ? AND a.status = ? THEN 1 ELSE 0 END), 0)",
			semester, attendance.StatusPresent,
		)
	}
	query := qb.Select("s.id AS student_id", studentFullName+" AS student_name").
		Column(sq.Alias(presentIn(1), "semester1_count")).
		Column(sq.Alias(presentIn(2), "semester2_count")).
		From("students s").
		LeftJoin("attendance a ON a.student_id = s.id").
		GroupBy("s.id", "s.last_name", "s.first_name").
		OrderBy("s.id ASC").
		Limit(page.Limit()).
		Offset(page.Offset())

	stats := make([]attendance.Stats, 0)
	if err = repo.selectAll(ctx, e, &stats, query); err != nil {
		return nil, 0, errors.Wrap(err, "selecting attendance stats")
	}
	return stats, total, nil
}
