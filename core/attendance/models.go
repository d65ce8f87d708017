package attendance

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/adminzone/backend/core"
)

const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusExcused = "excused"

	// EntityName tags attendance records in the audit log.
	EntityName = "Attendance"
)

var (
	Statuses = []string{StatusPresent, StatusAbsent, StatusExcused}

	errMissingDate = errors.New("this field is required")
)

// Triple is the key bounding the number of attendance records.
type Triple struct {
	StudentID int64
	CourseID  int64
	Semester  int
}

func (t Triple) String() string {
	return fmt.Sprintf("attendance:%d:%d:%d", t.StudentID, t.CourseID, t.Semester)
}

type Attendance struct {
	ID          int64     `db:"id" json:"id"`
	StudentID   int64     `db:"student_id" json:"studentId"`
	StudentName string    `db:"student_name" json:"studentName"`
	CourseID    int64     `db:"course_id" json:"courseId"`
	CourseName  string    `db:"course_name" json:"courseName"`
	Date        core.Date `db:"attended_on" json:"data"`
	Semester    int       `db:"semester" json:"semester"`
	Status      string    `db:"status" json:"status"`
}

func (a Attendance) Triple() Triple {
	return Triple{StudentID: a.StudentID, CourseID: a.CourseID, Semester: a.Semester}
}

type NewAttendance struct {
	StudentID int64     `json:"studentId" validate:"required,gt=0"`
	CourseID  int64     `json:"courseId" validate:"required,gt=0"`
	Date      core.Date `json:"data"`
	Semester  int       `json:"semester" validate:"semester"`
	Status    string    `json:"status" validate:"attendance_status"`
}

func (na *NewAttendance) Validate(validate *validator.Validate) error {
	na.Status = core.CleanString(na.Status, true /* lower */)
	if err := validate.Struct(na); err != nil {
		return err
	}
	if na.Date.IsZero() {
		return core.NewValidationError(errMissingDate, core.FieldError{Field: "data", Error: errMissingDate.Error()})
	}
	return nil
}

type UpdateAttendance NewAttendance

func (ua *UpdateAttendance) Validate(validate *validator.Validate) error {
	return (*NewAttendance)(ua).Validate(validate)
}

type QueryFilter struct {
	StudentID *int64    `query:"studentId"`
	CourseID  *int64    `query:"courseId"`
	Semester  *int      `query:"semester"`
	Status    string    `query:"status"`
	DateFrom  core.Date `query:"from"`
	DateTo    core.Date `query:"to"`
	// Search does a case-insensitive match on the student's full name or the course name.
	Search string `query:"q"`
	// Student and Course match the student's full name and the course name respectively.
	Student string `query:"student"`
	Course  string `query:"course"`
}

func (f *QueryFilter) Clean() {
	f.Status = core.CleanString(f.Status, true /* lower */)
	f.Search = core.CleanString(f.Search, true /* lower */)
	f.Student = core.CleanString(f.Student, true /* lower */)
	f.Course = core.CleanString(f.Course, true /* lower */)
}

// Stats counts the "present" records of a student per semester.
type Stats struct {
	StudentID      int64  `db:"student_id" json:"studentId"`
	StudentName    string `db:"student_name" json:"studentName"`
	Semester1Count int64  `db:"semester1_count" json:"semester1Count"`
	Semester2Count int64  `db:"semester2_count" json:"semester2Count"`
}
