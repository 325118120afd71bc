package email

import "context"

// Attachment represents a file attachment for an email.
type Attachment struct {
	Content  []byte
	FileName string // e.g. "Standortanalyse.pdf"
	MIMEType string
}

// ImportReport summarises a finished CRM import for the account owner.
type ImportReport struct {
	Vendor    string
	Imported  int
	FailedIDs []string
}

type Sender interface {
	SendImportReportEmail(ctx context.Context, toEmail string, report ImportReport) error
	SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error
}

type NoopSender struct{}

func (NoopSender) SendImportReportEmail(ctx context.Context, toEmail string, report ImportReport) error {
	return nil
}

func (NoopSender) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return nil
}

var (
	_ Sender = NoopSender{}
	_ Sender = (*SMTPSender)(nil)
)
