// Package attachments ingests uploaded resume files: it screens the
// upload, stores the content and binds the attachment record to the
// subject's most relevant session.
package attachments

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"hirebot/internal/common/errors"
	"hirebot/internal/common/logger"
	"hirebot/internal/common/metrics"
	"hirebot/internal/models"
	"hirebot/internal/storage"
	"hirebot/internal/store"
	"hirebot/internal/transport"
)

// allowedExtensions is the resume format allow-list.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
}

// allowedMIMEs accepts uploads whose name lost its extension but whose
// declared type is still a resume format.
var allowedMIMEs = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// Fetcher resolves and streams the uploaded file from the messaging
// platform.
type Fetcher interface {
	FileURL(ctx context.Context, fileID string) (string, error)
}

// Downloader streams a resolved file link.
type Downloader interface {
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// Handler validates and stores uploads.
type Handler struct {
	fetcher    Fetcher
	downloader Downloader
	files      *storage.FileStore
	sessions   *store.SessionStore
	maxBytes   int64
	logger     logger.Logger
}

func NewHandler(fetcher Fetcher, downloader Downloader, files *storage.FileStore, sessions *store.SessionStore, maxBytes int64, log logger.Logger) *Handler {
	return &Handler{
		fetcher:    fetcher,
		downloader: downloader,
		files:      files,
		sessions:   sessions,
		maxBytes:   maxBytes,
		logger:     log,
	}
}

// Screen rejects uploads before any byte is fetched. It checks the
// format allow-list (extension or declared MIME type) and the size
// limit.
func (h *Handler) Screen(ev transport.DocumentEvent) error {
	ext := strings.ToLower(filepath.Ext(ev.FileName))
	if !allowedExtensions[ext] && !allowedMIMEs[ev.MIMEType] {
		metrics.ValidationFailures.WithLabelValues("attachment").Inc()
		return errors.NewAttachmentRejectedError(
			fmt.Sprintf("Unsupported file type %q. Please upload a PDF, DOC or DOCX file.", ext))
	}
	if ev.FileSize > h.maxBytes {
		metrics.ValidationFailures.WithLabelValues("attachment").Inc()
		return errors.NewAttachmentRejectedError(
			fmt.Sprintf("File is too large (%s). The limit is %s.", HumanSize(ev.FileSize), HumanSize(h.maxBytes)))
	}
	return nil
}

// Ingest downloads the screened upload, stores it and attaches it to
// the session. A previously attached file is removed once the new
// record is committed. The returned session reflects the final state.
func (h *Handler) Ingest(ctx context.Context, ev transport.DocumentEvent, sess *models.Session) (*models.Session, error) {
	url, err := h.fetcher.FileURL(ctx, ev.FileID)
	if err != nil {
		return nil, errors.NewFileStorageFailedError(fmt.Errorf("resolve file link: %w", err))
	}

	body, err := h.downloader.Download(ctx, url)
	if err != nil {
		return nil, errors.NewFileStorageFailedError(fmt.Errorf("download file: %w", err))
	}
	defer body.Close()

	storedName := storage.StorageName(canonicalName(ev))
	// The declared size was checked in Screen, but the stream itself is
	// the authority. One extra byte past the ceiling marks an over-read.
	counted := &countingReader{r: io.LimitReader(body, h.maxBytes+1)}
	path, err := h.files.Save(storedName, counted)
	if err != nil {
		return nil, err
	}
	if counted.n > h.maxBytes {
		h.files.Remove(path)
		metrics.ValidationFailures.WithLabelValues("attachment").Inc()
		return nil, errors.NewAttachmentRejectedError(
			fmt.Sprintf("File is too large. The limit is %s.", HumanSize(h.maxBytes)))
	}

	var previousPath string
	updated, err := h.sessions.Update(ctx, sess.SubjectID, sess.QuestionSetID, func(s *models.Session) error {
		if s.Attachment != nil {
			previousPath = s.Attachment.FilePath
		}
		s.Attachment = &models.Attachment{
			FileName:   ev.FileName,
			FilePath:   path,
			UploadedAt: time.Now().UTC(),
		}
		s.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		h.files.Remove(path)
		if err == store.ErrNotFound {
			return nil, errors.NewSessionNotFoundError(sess.SubjectID)
		}
		return nil, errors.NewStoreQueryFailedError("sessions", err)
	}

	if previousPath != "" && previousPath != path {
		if err := h.files.Remove(previousPath); err != nil {
			h.logger.Warn("Stale attachment cleanup failed", map[string]interface{}{
				"path":  previousPath,
				"error": err.Error(),
			})
		}
	}

	h.logger.Info("Attachment ingested", map[string]interface{}{
		"subject_id":      sess.SubjectID,
		"question_set_id": sess.QuestionSetID,
		"file_name":       ev.FileName,
		"bytes":           ev.FileSize,
	})
	return updated, nil
}

// countingReader tracks how many bytes passed through the download.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// canonicalName restores the extension on uploads that were accepted
// by MIME type alone, so the stored file keeps a recognizable format.
func canonicalName(ev transport.DocumentEvent) string {
	if allowedExtensions[strings.ToLower(filepath.Ext(ev.FileName))] {
		return ev.FileName
	}
	switch ev.MIMEType {
	case "application/pdf":
		return ev.FileName + ".pdf"
	case "application/msword":
		return ev.FileName + ".doc"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return ev.FileName + ".docx"
	}
	return ev.FileName
}

// HumanSize renders a byte count the way people read it.
func HumanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/float64(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/float64(1<<10))
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
