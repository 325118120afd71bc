package email

const (
	subjectImportReportFmt       = "Import aus %s abgeschlossen"
	subjectImportReportFailedFmt = "Import aus %s: %d Objekte nicht übernommen"
)
