// Package notification sends notifications in response to domain events.
// Domain modules publish events and never talk to the mail provider directly.
package notification

import (
	"context"

	"areabutler_backend/internal/email"
	"areabutler_backend/internal/events"
	"areabutler_backend/platform/logger"
)

// Module subscribes to domain events and dispatches notifications.
type Module struct {
	sender email.Sender
	log    *logger.Logger
}

// New creates a new notification module.
func New(sender email.Sender, log *logger.Logger) *Module {
	return &Module{sender: sender, log: log}
}

func (m *Module) Name() string { return "notification" }

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ListingsImported{}.EventName(), m)
	bus.Subscribe(events.SnapshotExported{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.ListingsImported:
		return m.handleListingsImported(ctx, e)
	case events.SnapshotExported:
		m.log.Info("snapshot exported", "eventId", e.EventID(), "snapshotId", e.SnapshotID, "userId", e.UserID, "format", e.Format, "fileKey", e.FileKey)
		return nil
	default:
		m.log.Debug("unhandled event", "event", event.EventName())
		return nil
	}
}

// handleListingsImported mails the owner the ids of records that could not be
// imported. Fully successful imports stay silent.
func (m *Module) handleListingsImported(ctx context.Context, e events.ListingsImported) error {
	if len(e.FailedIDs) == 0 {
		return nil
	}
	if e.UserEmail == "" {
		m.log.Warn("import report not sent, owner has no email", "userId", e.UserID, "failed", len(e.FailedIDs))
		return nil
	}

	report := email.ImportReport{Vendor: e.Vendor, Imported: e.Imported, FailedIDs: e.FailedIDs}
	if err := m.sender.SendImportReportEmail(ctx, e.UserEmail, report); err != nil {
		m.log.Error("failed to send import report",
			"eventId", e.EventID(),
			"userId", e.UserID,
			"email", e.UserEmail,
			"error", err,
		)
		return err
	}
	m.log.Info("import report sent", "eventId", e.EventID(), "userId", e.UserID, "email", e.UserEmail, "failed", len(e.FailedIDs))
	return nil
}
