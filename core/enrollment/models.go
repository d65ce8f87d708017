package enrollment

import (
	"math"

	"github.com/go-playground/validator/v10"
)

// EntityName tags enrollments in the audit log.
const EntityName = "Enrollment"

// Enrollment links a student to a course. It is keyed by (StudentID, CourseID).
type Enrollment struct {
	StudentID      int64    `db:"student_id" json:"studentId"`
	StudentName    string   `db:"student_name" json:"studentName"`
	CourseID       int64    `db:"course_id" json:"courseId"`
	CourseName     string   `db:"course_name" json:"courseName"`
	CourseCredits  int      `db:"course_credits" json:"nrCredite"`
	CourseSemester int      `db:"course_semester" json:"semester"`
	FinalGrade     *float64 `db:"final_grade" json:"notaFinala"`
}

type NewEnrollment struct {
	StudentID  int64    `json:"studentId" validate:"required,gt=0"`
	CourseID   int64    `json:"courseId" validate:"required,gt=0"`
	FinalGrade *float64 `json:"notaFinala" validate:"omitempty,min=1,max=10"`
}

func (ne *NewEnrollment) Validate(validate *validator.Validate) error {
	ne.FinalGrade = roundGrade(ne.FinalGrade)
	return validate.Struct(ne)
}

type UpdateEnrollment struct {
	FinalGrade *float64 `json:"notaFinala" validate:"omitempty,min=1,max=10"`
}

func (ue *UpdateEnrollment) Validate(validate *validator.Validate) error {
	ue.FinalGrade = roundGrade(ue.FinalGrade)
	return validate.Struct(ue)
}

type QueryFilter struct {
	StudentID *int64 `query:"studentId"`
	CourseID  *int64 `query:"courseId"`
}

// roundGrade keeps two decimals.
func roundGrade(g *float64) *float64 {
	if g == nil {
		return nil
	}
	r := math.Round(*g*100) / 100
	return &r
}
