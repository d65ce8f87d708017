package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/adminzone/backend/core"
)

// EntityName tags courses in the audit log.
const EntityName = "Course"

type Course struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"denumire"`
	Professor string    `db:"professor" json:"profesorTitular"`
	Credits   int       `db:"credits" json:"nrCredite"`
	Semester  int       `db:"semester" json:"semester"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"` // UTC
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"` // UTC
}

type NewCourse struct {
	Name      string `json:"denumire" validate:"required,max=150"`
	Professor string `json:"profesorTitular" validate:"required,max=100"`
	Credits   int    `json:"nrCredite" validate:"required,min=1"`
	Semester  int    `json:"semester" validate:"semester"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Professor = core.CleanString(nc.Professor)
	return validate.Struct(nc)
}

type UpdateCourse NewCourse

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	return (*NewCourse)(uc).Validate(validate)
}

type QueryFilter struct {
	// Search does a case-insensitive match on one of Course.Name or Course.Professor.
	Search   string `query:"q"`
	Semester *int   `query:"semester"`
}

func (f *QueryFilter) Clean() {
	f.Search = core.CleanString(f.Search, true /* lower */)
}
