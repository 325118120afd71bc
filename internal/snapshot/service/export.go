package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"areabutler_backend/internal/adapters/storage"
	"areabutler_backend/internal/events"
	"areabutler_backend/internal/exports"
	"areabutler_backend/internal/location"
	"areabutler_backend/internal/pdf"
	"areabutler_backend/internal/snapshot/domain"
	"areabutler_backend/platform/metrics"

	"github.com/google/uuid"
)

const exportFileBase = "Standortanalyse"

// ExportResult is either a stored file (Download set), inline content
// (Content set) or the shaped tables for TABLES.
type ExportResult struct {
	Format      domain.ExportFormat
	FileName    string
	ContentType string
	Content     []byte
	Download    *storage.PresignedURL
	Tables      *exports.ExportData
	Pages       []exports.Page
}

// Export shapes the snapshot's entity groups and renders them in format.
func (s *Service) Export(ctx context.Context, userID, id uuid.UUID, format domain.ExportFormat, preset exports.Preset) (ExportResult, error) {
	snapshot, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return ExportResult{}, err
	}
	cfg, err := s.EffectiveConfig(ctx, snapshot)
	if err != nil {
		return ExportResult{}, err
	}
	groups, err := s.deriveGroups(ctx, snapshot, &cfg, GroupOptions{})
	if err != nil {
		return ExportResult{}, err
	}

	data := exports.Shape(groups, &cfg, exports.LegendFromCatalog(location.DefaultCatalog()), exports.LimitsFor(preset))
	metrics.SnapshotExportsTotal.WithLabelValues(string(format)).Inc()

	result := ExportResult{Format: format}
	switch format {
	case domain.ExportTables:
		result.Tables = &data
		result.Pages = exports.Paginate(data, pdf.RowsPerPage)
		return result, nil
	case domain.ExportCSV:
		var buf bytes.Buffer
		if err := exports.WriteCSV(&buf, data); err != nil {
			return ExportResult{}, err
		}
		result.FileName = exportFileBase + ".csv"
		result.ContentType = "text/csv; charset=utf-8"
		result.Content = buf.Bytes()
	default:
		doc := pdf.SnapshotDocument{
			Address:   snapshot.Location.Address,
			CreatedAt: time.Now(),
			Data:      data,
			ShareURL:  s.ShareURL(snapshot.Token),
		}
		if cfg.PrimaryColor != nil {
			doc.PrimaryColor = *cfg.PrimaryColor
		}
		if s.exportCfg != nil {
			doc.BrandName = s.exportCfg.GetExportBrandName()
			doc.ContactPhone = s.exportCfg.GetExportContactPhone()
		}
		content, err := s.renderPDF(doc)
		if err != nil {
			return ExportResult{}, err
		}
		result.FileName = exportFileBase + ".pdf"
		result.ContentType = "application/pdf"
		result.Content = content
	}

	if s.storage == nil {
		return result, nil
	}
	return s.store(ctx, snapshot, result)
}

// store uploads the rendered file and swaps the inline content for a download link.
func (s *Service) store(ctx context.Context, snapshot domain.Snapshot, result ExportResult) (ExportResult, error) {
	folder := "snapshots/" + snapshot.ID.String()
	fileKey, err := s.storage.UploadFile(ctx, s.bucket, folder, result.FileName, result.ContentType,
		bytes.NewReader(result.Content), int64(len(result.Content)))
	if err != nil {
		return ExportResult{}, fmt.Errorf("store export: %w", err)
	}

	export := domain.Export{
		ID:         uuid.New(),
		SnapshotID: snapshot.ID,
		Format:     result.Format,
		FileKey:    fileKey,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.CreateExport(ctx, export); err != nil {
		_ = s.storage.DeleteObject(ctx, s.bucket, fileKey)
		return ExportResult{}, err
	}

	download, err := s.storage.GenerateDownloadURL(ctx, s.bucket, fileKey, result.FileName)
	if err != nil {
		return ExportResult{}, err
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.SnapshotExported{
			BaseEvent:  events.NewBaseEvent(),
			SnapshotID: snapshot.ID,
			UserID:     snapshot.UserID,
			Format:     string(result.Format),
			FileKey:    fileKey,
		})
	}

	result.Content = nil
	result.Download = download
	return result, nil
}

// PruneExports deletes export records and files created before the cutoff.
// Files that fail to delete are logged; their records are gone either way.
func (s *Service) PruneExports(ctx context.Context, before time.Time) (int, error) {
	deleted, err := s.repo.DeleteExportsBefore(ctx, before)
	if err != nil {
		return 0, err
	}
	if s.storage != nil {
		for _, e := range deleted {
			if err := s.storage.DeleteObject(ctx, s.bucket, e.FileKey); err != nil {
				s.log.Warn("export file not deleted", "fileKey", e.FileKey, "error", err)
			}
		}
	}
	return len(deleted), nil
}
