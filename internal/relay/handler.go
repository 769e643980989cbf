// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relay implements the POST /convert endpoint: it accepts a file and
// a target format, hands the file to the conversion provider, and returns the
// provider's download URL.
package relay

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/convert-relay/pkg/types"
)

// Response messages. Clients match on these strings.
const (
	MsgMissingParams = "File and target format are required."
	MsgFailed        = "File conversion failed."
	MsgTooLarge      = "File exceeds the maximum upload size."
)

// Form field names.
const (
	FieldFile         = "file"
	FieldTargetFormat = "target_format"
)

// Converter turns a named file into a download URL for the target format.
type Converter interface {
	Convert(ctx context.Context, name string, data []byte, targetFormat string) (string, error)
}

// Storage parks an upload on disk for the duration of a request.
type Storage interface {
	Save(fh *multipart.FileHeader) (types.Upload, error)
	Read(u types.Upload) ([]byte, error)
	Remove(u types.Upload) error
}

// Handler serves conversion requests.
type Handler struct {
	converter Converter
	storage   Storage
	logger    *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(converter Converter, storage Storage, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		converter: converter,
		storage:   storage,
		logger:    logger,
	}
}

// Convert handles POST /convert.
func (h *Handler) Convert(c *gin.Context) {
	// FormFile parses the multipart body; PostForm reads from the parsed form.
	fh, err := c.FormFile(FieldFile)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": MsgTooLarge})
			return
		}
		fh = nil
	}
	targetFormat := c.PostForm(FieldTargetFormat)
	if fh == nil || targetFormat == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": MsgMissingParams})
		return
	}

	u, err := h.storage.Save(fh)
	if err != nil {
		h.fail(c, fh.Filename, targetFormat, err)
		return
	}
	defer func() {
		if err := h.storage.Remove(u); err != nil {
			h.logger.Warn("temp file cleanup failed", "path", u.Path, "error", err)
		}
	}()

	data, err := h.storage.Read(u)
	if err != nil {
		h.fail(c, u.OriginalName, targetFormat, err)
		return
	}

	// The provider call outlives a client disconnect; only the HTTP client
	// timeout bounds it.
	ctx := context.WithoutCancel(c.Request.Context())
	url, err := h.converter.Convert(ctx, u.OriginalName, data, targetFormat)
	if err != nil {
		h.fail(c, u.OriginalName, targetFormat, err)
		return
	}

	h.logger.Info("conversion relayed",
		"file", u.OriginalName,
		"size", u.Size,
		"target_format", targetFormat,
	)
	c.JSON(http.StatusOK, types.ConversionResult{DownloadURL: url})
}

func (h *Handler) fail(c *gin.Context, file, targetFormat string, err error) {
	h.logger.Error("error during conversion",
		"file", file,
		"target_format", targetFormat,
		"error", err,
	)
	c.JSON(http.StatusInternalServerError, gin.H{
		"message": MsgFailed,
		"error":   err.Error(),
	})
}
