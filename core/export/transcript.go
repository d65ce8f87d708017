package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/adminzone/backend/core"
	"github.com/adminzone/backend/core/enrollment"
	"github.com/adminzone/backend/core/student"
)

// Transcript is the academic record ("foaie matricola") of a student.
type Transcript struct {
	Student     student.Student
	Enrollments []enrollment.Enrollment
	GeneratedOn core.Date
}

// Average returns the arithmetic mean of the graded enrollments.
// ok is false when no enrollment is graded.
func (t Transcript) Average() (avg float64, ok bool) {
	var sum float64
	var count int
	for _, e := range t.Enrollments {
		if e.FinalGrade != nil {
			sum += *e.FinalGrade
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

func (t Transcript) Filename() string {
	name := foldDiacritics(t.Student.LastName + "_" + t.Student.FirstName)
	return "Matricola_" + strings.ReplaceAll(name, " ", "_") + ".pdf"
}

// WritePDF renders the transcript as an A4 PDF document.
func (t Transcript) WritePDF(w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(t.GeneratedOn.Time)
	pdf.SetTitle("Foaie matricola", false)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(foldDiacritics(s)) }

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	contentW := pageW - left - right

	// title
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(0, 0, 255)
	pdf.CellFormat(contentW, 10, "FOAIE MATRICOLA", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	// student
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(0, 0, 0)
	for _, line := range []string{
		"Student: " + t.Student.FullName(),
		"Email: " + t.Student.Email,
		"An Studiu: " + strconv.Itoa(t.Student.YearOfStudy),
		"Data generarii: " + t.GeneratedOn.String(),
	} {
		pdf.CellFormat(contentW, 7, text(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	// grades
	widths := []float64{contentW * 4 / 9, contentW * 1.5 / 9, contentW * 1.5 / 9, contentW * 2 / 9}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetFillColor(192, 192, 192)
	for i, header := range []string{"Materie", "Semestru", "Credite", "Nota Finala"} {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 12)
	for _, e := range t.Enrollments {
		pdf.CellFormat(widths[0], 7, text(e.CourseName), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, strconv.Itoa(e.CourseSemester), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 7, strconv.Itoa(e.CourseCredits), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[3], 7, formatGrade(e.FinalGrade, "-"), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	if avg, ok := t.Average(); ok {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 18)
		pdf.SetTextColor(0, 0, 255)
		pdf.CellFormat(contentW, 10, fmt.Sprintf("Media Generala: %.2f", avg), "", 1, "R", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "writing pdf")
	}
	return nil
}

// foldDiacritics strips combining marks: "Știință" becomes "Stiinta".
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}
