package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/adminzone/backend/core"
)

// EntityName tags students in the audit log.
const EntityName = "Student"

type Student struct {
	ID          int64     `db:"id" json:"id"`
	LastName    string    `db:"last_name" json:"nume"`
	FirstName   string    `db:"first_name" json:"prenume"`
	Email       string    `db:"email" json:"email"`
	Phone       string    `db:"phone" json:"telefon"`
	YearOfStudy int       `db:"year_of_study" json:"anStudiu"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"` // UTC
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"` // UTC
}

func (s Student) FullName() string {
	return s.LastName + " " + s.FirstName
}

type NewStudent struct {
	LastName    string `json:"nume" validate:"required,max=100"`
	FirstName   string `json:"prenume" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email,max=150"`
	Phone       string `json:"telefon" validate:"omitempty,max=20"`
	YearOfStudy int    `json:"anStudiu" validate:"required,min=1,max=6"`
}

func (ns *NewStudent) clean() {
	ns.LastName = core.CleanString(ns.LastName)
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Phone = core.CleanString(ns.Phone)
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.clean()
	return validate.Struct(ns)
}

type UpdateStudent NewStudent

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	(*NewStudent)(us).clean()
	return validate.Struct(us)
}

type QueryFilter struct {
	// Search does a case-insensitive match on one of Student.LastName, Student.FirstName or Student.Email.
	Search      string `query:"q"`
	YearOfStudy *int   `query:"anStudiu"`
}

func (f *QueryFilter) Clean() {
	f.Search = core.CleanString(f.Search, true /* lower */)
}
