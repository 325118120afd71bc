package email

import (
	"strings"
	"testing"
)

func TestRenderImportReportListsFailedIDs(t *testing.T) {
	subject, body, err := renderImportReport(ImportReport{
		Vendor:    "PROPSTACK",
		Imported:  12,
		FailedIDs: []string{"4711", "<b>0815</b>"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if subject != "Import aus PROPSTACK: 2 Objekte nicht übernommen" {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(body, "<li>4711</li>") {
		t.Fatalf("expected failed id in body, got %s", body)
	}
	if strings.Contains(body, "<b>0815</b>") {
		t.Fatal("ids must be html escaped")
	}
	if !strings.Contains(body, "12 Objekte wurden übernommen") {
		t.Fatal("expected imported count")
	}
}

func TestRenderImportReportWithoutFailures(t *testing.T) {
	subject, body, err := renderImportReport(ImportReport{Vendor: "ONOFFICE", Imported: 3})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if subject != "Import aus ONOFFICE abgeschlossen" {
		t.Fatalf("unexpected subject %q", subject)
	}
	if strings.Contains(body, "<ul>") {
		t.Fatal("no failure list expected")
	}
}
