package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/adminzone/backend/core"
	"github.com/adminzone/backend/core/attendance"
	"github.com/adminzone/backend/core/audit"
	"github.com/adminzone/backend/core/course"
	"github.com/adminzone/backend/core/enrollment"
	"github.com/adminzone/backend/core/export"
	"github.com/adminzone/backend/core/student"
	"github.com/adminzone/backend/core/user"
	emailsvc "github.com/adminzone/backend/services/email"
	logsvc "github.com/adminzone/backend/services/logger"
	"github.com/adminzone/backend/storage/database"
	sqlxrepos "github.com/adminzone/backend/storage/database/sqlx"
)

// PrepareDB opens a migrated sqlite3 database in a temporary directory, closed at the end of t.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("PrepareDB() failed to open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db); err != nil {
		t.Fatalf("PrepareDB() failed to migrate: %v", err)
	}
	return db
}

// Env is a fully wired application over a test database.
type Env struct {
	Conf       *core.Config
	DB         *sqlx.DB
	Logger     core.Logger
	Mailer     *emailsvc.ConsoleService
	Validate   *validator.Validate
	Translator ut.Translator
	Admission  *attendance.AdmissionRule

	AuditRepo      audit.Repository
	StudentRepo    student.Repository
	CourseRepo     course.Repository
	EnrollmentRepo enrollment.Repository
	AttendanceRepo attendance.Repository
	UserRepo       user.Repository

	AuditSvc      *audit.Service
	StudentSvc    *student.Service
	CourseSvc     *course.Service
	EnrollmentSvc *enrollment.Service
	AttendanceSvc *attendance.Service
	UserSvc       *user.Service
	ExportSvc     *export.Service
}

func NewEnv(t *testing.T) *Env {
	t.Helper()

	conf := core.NewTestConfig("")
	db := PrepareDB(t)
	logger := logsvc.NewRollbarLogger(zap.NewNop(), conf)

	env := &Env{
		Conf:   conf,
		DB:     db,
		Logger: logger,
		Mailer: emailsvc.NewConsoleServiceMock(conf, logger),

		AuditRepo:      sqlxrepos.NewAuditRepository(db),
		StudentRepo:    sqlxrepos.NewStudentRepository(db),
		CourseRepo:     sqlxrepos.NewCourseRepository(db),
		EnrollmentRepo: sqlxrepos.NewEnrollmentRepository(db),
		AttendanceRepo: sqlxrepos.NewAttendanceRepository(db),
		UserRepo:       sqlxrepos.NewUserRepository(db),
	}

	env.Validate, env.Translator = NewTranslatedValidator()
	env.Admission = attendance.NewAdmissionRule(env.AttendanceRepo, conf)
	env.AuditSvc = audit.NewService(env.AuditRepo, logger)
	env.StudentSvc = student.NewService(db, env.StudentRepo, env.AuditSvc)
	env.CourseSvc = course.NewService(db, env.CourseRepo, env.AuditSvc)
	env.EnrollmentSvc = enrollment.NewService(db, env.EnrollmentRepo, env.StudentRepo, env.CourseRepo, env.AuditSvc)
	env.AttendanceSvc = attendance.NewService(db, env.AttendanceRepo, env.StudentRepo, env.CourseRepo, env.Admission, env.AuditSvc)
	env.UserSvc = user.NewService(db, env.UserRepo, env.AuditSvc)
	env.ExportSvc = export.NewService(env.StudentSvc, env.CourseSvc, env.AttendanceSvc, env.EnrollmentSvc, env.Mailer, logger)
	return env
}

// NewValidator returns a validator with every custom validation registered.
func NewValidator() *validator.Validate {
	validate, _ := NewTranslatedValidator()
	return validate
}

func NewTranslatedValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	attendance.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

// AuditEntries returns every audit entry, newest first.
func (env *Env) AuditEntries(t *testing.T) []audit.Entry {
	t.Helper()
	entries, _, err := env.AuditRepo.QueryEntries(context.Background(), audit.QueryFilter{}, core.PageRequest{Size: 1000})
	if err != nil {
		t.Fatalf("AuditEntries() failed: %v", err)
	}
	return entries
}

func CreateUser(t *testing.T, repo user.Repository, uname, pwd string, enabled bool, roles ...string) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	usr := user.User{
		Username:  uname,
		Enabled:   enabled,
		Roles:     user.NormalizeRoles(roles),
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateStudent(t *testing.T, repo student.Repository, lastName, firstName, email string) student.Student {
	t.Helper()

	tstamp := time.Now().UTC()
	st, err := repo.CreateStudent(context.Background(), student.Student{
		LastName:    lastName,
		FirstName:   firstName,
		Email:       email,
		YearOfStudy: 1,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return st
}

func CreateCourse(t *testing.T, repo course.Repository, name string, credits, semester int) course.Course {
	t.Helper()

	tstamp := time.Now().UTC()
	crs, err := repo.CreateCourse(context.Background(), course.Course{
		Name:      name,
		Professor: "Prof. Ionescu",
		Credits:   credits,
		Semester:  semester,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

// CreateAttendance inserts records directly, bypassing the admission rule.
func CreateAttendance(t *testing.T, repo attendance.Repository, studentID, courseID int64, semester, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		_, err := repo.CreateAttendance(context.Background(), attendance.Attendance{
			StudentID: studentID,
			CourseID:  courseID,
			Date:      core.NewDate(2024, time.October, 1+i),
			Semester:  semester,
			Status:    attendance.StatusPresent,
		})
		if err != nil {
			t.Fatalf("CreateAttendance() failed: %v", err)
		}
	}
}
