package export

import (
	"bytes"
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/adminzone/backend/core"
	"github.com/adminzone/backend/core/attendance"
	"github.com/adminzone/backend/core/course"
	"github.com/adminzone/backend/core/enrollment"
	"github.com/adminzone/backend/core/student"
)

// Kinds of CSV exports
const (
	KindStudents    = "students"
	KindCourses     = "courses"
	KindAttendance  = "attendance"
	KindEnrollments = "enrollments"
)

var (
	Kinds = []string{KindStudents, KindCourses, KindAttendance, KindEnrollments}

	// errors
	ErrUnknownKind = core.NewNotFoundError("export type")
)

type (
	StudentSource interface {
		Get(ctx context.Context, id int64) (student.Student, error)
		QueryAll(ctx context.Context) ([]student.Student, error)
	}

	CourseSource interface {
		QueryAll(ctx context.Context) ([]course.Course, error)
	}

	AttendanceSource interface {
		QueryAll(ctx context.Context, filter attendance.QueryFilter) ([]attendance.Attendance, error)
	}

	EnrollmentSource interface {
		QueryAll(ctx context.Context, filter enrollment.QueryFilter) ([]enrollment.Enrollment, error)
	}

	Service struct {
		students    StudentSource
		courses     CourseSource
		attendance  AttendanceSource
		enrollments EnrollmentSource
		emailSvc    core.EmailService
		logger      core.Logger
		now         func() time.Time
	}
)

func NewService(
	students StudentSource,
	courses CourseSource,
	attendance AttendanceSource,
	enrollments EnrollmentSource,
	emailSvc core.EmailService,
	logger core.Logger,
) *Service {
	return &Service{
		students:    students,
		courses:     courses,
		attendance:  attendance,
		enrollments: enrollments,
		emailSvc:    emailSvc,
		logger:      logger,
		now:         time.Now,
	}
}

// Transcript gathers the student and their enrollments.
func (svc *Service) Transcript(ctx context.Context, studentID int64) (Transcript, error) {
	st, err := svc.students.Get(ctx, studentID)
	if err != nil {
		return Transcript{}, err
	}
	enrollments, err := svc.enrollments.QueryAll(ctx, enrollment.QueryFilter{StudentID: &st.ID})
	if err != nil {
		return Transcript{}, errors.Wrap(err, "querying enrollments")
	}
	now := svc.now().UTC()
	return Transcript{
		Student:     st,
		Enrollments: enrollments,
		GeneratedOn: core.NewDate(now.Year(), now.Month(), now.Day()),
	}, nil
}

// EmailTranscript sends the PDF transcript of the student to their email address.
func (svc *Service) EmailTranscript(ctx context.Context, studentID int64) error {
	tr, err := svc.Transcript(ctx, studentID)
	if err != nil {
		return err
	}

	buf := new(bytes.Buffer)
	if err = tr.WritePDF(buf); err != nil {
		return errors.Wrap(err, "rendering transcript")
	}

	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: tr.Student.FullName(), Address: tr.Student.Email}},
		Subject: "Foaie matricola",
		TextContent: fmt.Sprintf(
			"Buna ziua %s,\r\n\r\nGasiti atasata foaia matricola generata la data de %s.\r\n",
			tr.Student.FirstName, tr.GeneratedOn,
		),
	}
	msg.Attach(tr.Filename(), "application/pdf", buf.Bytes())
	svc.emailSvc.SendMessages(msg)

	svc.logger.Info(fmt.Sprintf("transcript of student #%d sent to %s", tr.Student.ID, tr.Student.Email))
	return nil
}
