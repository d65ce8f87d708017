package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/adminzone/backend/core/attendance"
	"github.com/adminzone/backend/core/enrollment"
)

var csvHeaders = map[string][]string{
	KindStudents:    {"ID", "Nume", "Prenume", "Email", "Telefon", "An Studiu"},
	KindCourses:     {"ID", "Denumire", "Profesor", "Credite", "Semestru"},
	KindAttendance:  {"ID", "Data", "Semestru", "ID Student", "Student", "ID Curs", "Curs", "Status"},
	KindEnrollments: {"ID Student", "Student", "ID Curs", "Curs", "Nota Finala"},
}

// IsKind reports whether kind names a CSV export.
func IsKind(kind string) bool {
	_, ok := csvHeaders[kind]
	return ok
}

// CSVFilename is the attachment name of the kind export.
func CSVFilename(kind string) string {
	return kind + ".csv"
}

// WriteCSV writes every row of kind to w, header first.
func (svc *Service) WriteCSV(ctx context.Context, kind string, w io.Writer) error {
	header, ok := csvHeaders[kind]
	if !ok {
		return ErrUnknownKind
	}

	rows, err := svc.csvRows(ctx, kind)
	if err != nil {
		return errors.Wrapf(err, "exporting %s", kind)
	}

	cw := csv.NewWriter(w)
	if err = cw.Write(header); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	if err = cw.WriteAll(rows); err != nil {
		return errors.Wrap(err, "writing csv rows")
	}
	return nil
}

func (svc *Service) csvRows(ctx context.Context, kind string) ([][]string, error) {
	itoa := func(i int64) string { return strconv.FormatInt(i, 10) }

	var rows [][]string
	switch kind {
	case KindStudents:
		students, err := svc.students.QueryAll(ctx)
		if err != nil {
			return nil, err
		}
		for _, s := range students {
			rows = append(rows, []string{itoa(s.ID), s.LastName, s.FirstName, s.Email, s.Phone, strconv.Itoa(s.YearOfStudy)})
		}

	case KindCourses:
		courses, err := svc.courses.QueryAll(ctx)
		if err != nil {
			return nil, err
		}
		for _, c := range courses {
			rows = append(rows, []string{itoa(c.ID), c.Name, c.Professor, strconv.Itoa(c.Credits), strconv.Itoa(c.Semester)})
		}

	case KindAttendance:
		records, err := svc.attendance.QueryAll(ctx, attendance.QueryFilter{})
		if err != nil {
			return nil, err
		}
		for _, a := range records {
			rows = append(rows, []string{
				itoa(a.ID), a.Date.String(), strconv.Itoa(a.Semester),
				itoa(a.StudentID), a.StudentName,
				itoa(a.CourseID), a.CourseName,
				a.Status,
			})
		}

	case KindEnrollments:
		enrollments, err := svc.enrollments.QueryAll(ctx, enrollment.QueryFilter{})
		if err != nil {
			return nil, err
		}
		for _, e := range enrollments {
			rows = append(rows, []string{itoa(e.StudentID), e.StudentName, itoa(e.CourseID), e.CourseName, formatGrade(e.FinalGrade, "")})
		}
	}
	return rows, nil
}

// formatGrade renders a grade with two decimals, or missing if there is none.
func formatGrade(grade *float64, missing string) string {
	if grade == nil {
		return missing
	}
	return strconv.FormatFloat(*grade, 'f', 2, 64)
}
