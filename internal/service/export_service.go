package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arielvz/portal-alumnos-api/internal/models"
	appErrors "github.com/arielvz/portal-alumnos-api/pkg/errors"
	"github.com/arielvz/portal-alumnos-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title, subtitle string) ([]byte, error)
}

// ExportFile is a rendered transcript ready to stream to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders the reconciled course history as a downloadable
// transcript.
type ExportService struct {
	grades *GradesService
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(grades *GradesService, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{grades: grades, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// Transcript renders the student's full course history in the requested
// format.
func (s *ExportService) Transcript(ctx context.Context, expediente, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if s.grades == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "grades service unavailable")
	}

	overview, rows, err := s.grades.Snapshot(ctx, expediente)
	if err != nil {
		return nil, err
	}

	dataset := transcriptDataset(rows)
	title := fmt.Sprintf("Historial academico %s", expediente)
	subtitle := overview.Student.Name
	if overview.CurrentPeriod != "" {
		subtitle = fmt.Sprintf("%s - %s", overview.Student.Name, overview.CurrentPeriod)
	}

	var payload []byte
	contentType := "text/csv"
	switch format {
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title, subtitle)
		contentType = "application/pdf"
	default:
		payload, err = s.csv.Render(dataset)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "transcript rendering failed")
	}

	return &ExportFile{
		Filename:    fmt.Sprintf("historial_%s_%s.%s", expediente, s.now().UTC().Format("20060102_150405"), format),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

func transcriptDataset(rows []models.ReconciledRow) export.Dataset {
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		grade := ""
		if row.Grade != nil {
			grade = fmt.Sprintf("%.2f", *row.Grade)
		}
		term := ""
		if row.Term != nil {
			term = *row.Term
		}
		group := ""
		if row.Group != nil {
			group = *row.Group
		}
		dataRows = append(dataRows, map[string]string{
			"Code":   row.Code,
			"Course": row.Name,
			"Group":  group,
			"Term":   term,
			"Grade":  grade,
			"Status": string(row.Status),
		})
	}
	return export.Dataset{
		Headers: []string{"Code", "Course", "Group", "Term", "Grade", "Status"},
		Rows:    dataRows,
	}
}
