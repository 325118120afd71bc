package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type importReportEmailData struct {
	baseEmailData
	Vendor    string
	Imported  int
	FailedIDs []string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

// renderImportReport returns the subject and body of an import report.
func renderImportReport(report ImportReport) (string, string, error) {
	subject := fmt.Sprintf(subjectImportReportFmt, report.Vendor)
	heading := "Import abgeschlossen"
	if len(report.FailedIDs) > 0 {
		subject = fmt.Sprintf(subjectImportReportFailedFmt, report.Vendor, len(report.FailedIDs))
		heading = "Import mit Fehlern abgeschlossen"
	}

	content, err := renderEmailTemplate("import_report.html", importReportEmailData{
		baseEmailData: baseEmailData{Title: heading, Heading: heading},
		Vendor:        report.Vendor,
		Imported:      report.Imported,
		FailedIDs:     report.FailedIDs,
	})
	if err != nil {
		return "", "", err
	}
	return subject, content, nil
}
