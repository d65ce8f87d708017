package dig_container

import (
	"fmt"
	"log"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	echoapi "github.com/adminzone/backend/apps/api/echo"
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

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newZap(conf *core.Config) *zap.Logger {
	zl, err := logsvc.NewZap(conf)
	if err != nil {
		log.Fatalf("setting up zap: %v", err)
	}
	return zl
}

func newLogger(zl *zap.Logger, conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(zl.Named("api"), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDBLogger(zl *zap.Logger, conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(zl.Named("db"), conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DB, core.DBExecutor) {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db, db
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	attendance.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

func newAuditRecorder(svc *audit.Service) audit.Recorder {
	return svc
}

func newExportService(
	students *student.Service,
	courses *course.Service,
	records *attendance.Service,
	enrollments *enrollment.Service,
	emailSvc core.EmailService,
	logger core.Logger,
) *export.Service {
	return export.NewService(students, courses, records, enrollments, emailSvc, logger)
}

type depsParam struct {
	dig.In

	Validate   *validator.Validate
	Translator ut.Translator

	AuditSvc      *audit.Service
	StudentSvc    *student.Service
	CourseSvc     *course.Service
	EnrollmentSvc *enrollment.Service
	AttendanceSvc *attendance.Service
	UserSvc       *user.Service
	ExportSvc     *export.Service
}

func newDeps(p depsParam) *echoapi.Deps {
	return &echoapi.Deps{
		Validate:      p.Validate,
		Translator:    p.Translator,
		AuditSvc:      p.AuditSvc,
		StudentSvc:    p.StudentSvc,
		CourseSvc:     p.CourseSvc,
		EnrollmentSvc: p.EnrollmentSvc,
		AttendanceSvc: p.AttendanceSvc,
		UserSvc:       p.UserSvc,
		ExportSvc:     p.ExportSvc,
	}
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newZap))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(emailsvc.NewEmailService))
	must(c.Provide(newValidator))

	// repositories
	must(c.Provide(sqlxrepos.NewAuditRepository, dig.As(new(audit.Repository))))
	must(c.Provide(sqlxrepos.NewStudentRepository, dig.As(new(student.Repository))))
	must(c.Provide(sqlxrepos.NewCourseRepository, dig.As(new(course.Repository))))
	must(c.Provide(sqlxrepos.NewEnrollmentRepository, dig.As(new(enrollment.Repository))))
	must(c.Provide(sqlxrepos.NewAttendanceRepository, dig.As(new(attendance.Repository))))
	must(c.Provide(sqlxrepos.NewUserRepository, dig.As(new(user.Repository))))

	// services
	must(c.Provide(audit.NewService))
	must(c.Provide(newAuditRecorder))
	must(c.Provide(attendance.NewAdmissionRule))
	must(c.Provide(student.NewService))
	must(c.Provide(course.NewService))
	must(c.Provide(enrollment.NewService))
	must(c.Provide(attendance.NewService))
	must(c.Provide(user.NewService))
	must(c.Provide(newExportService))

	must(c.Provide(newDeps))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
