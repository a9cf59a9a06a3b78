package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/personnel-directory/messaging-api/internal/core/ports"
)

const mediaField = "media_file"

// MediaHandler streams stored attachments.
type MediaHandler struct {
	blobs ports.BlobStore
}

func NewMediaHandler(blobs ports.BlobStore) *MediaHandler {
	return &MediaHandler{blobs: blobs}
}

// Download handles GET /v1/media/:id.
//
// @Summary      Download a message attachment
// @Tags         media
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        id   path  string  true  "Media id"
// @Success      200  {file}    binary
// @Failure      404  {object}  errorResponse
// @Router       /v1/media/{id} [get]
func (h *MediaHandler) Download(c echo.Context) error {
	rc, info, err := h.blobs.Open(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	defer rc.Close()

	header := c.Response().Header()
	header.Set(echo.HeaderContentLength, strconv.FormatInt(info.Size, 10))
	if info.Name != "" {
		header.Set(echo.HeaderContentDisposition, mime.FormatMediaType("inline", map[string]string{"filename": info.Name}))
	}
	contentType := info.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return c.Stream(http.StatusOK, contentType, rc)
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// readUpload returns the attachment of a multipart request, or nil when the
// request carries none.
func readUpload(c echo.Context) (*ports.MediaUpload, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	fh, err := c.FormFile(mediaField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid media upload")
	}
	return loadUpload(fh)
}

func loadUpload(fh *multipart.FileHeader) (*ports.MediaUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	contentType := fh.Header.Get(echo.HeaderContentType)
	if contentType == "" || contentType == echo.MIMEOctetStream {
		contentType = http.DetectContentType(data)
	}
	return &ports.MediaUpload{
		FileName:    fh.Filename,
		ContentType: contentType,
		Size:        fh.Size,
		Data:        data,
	}, nil
}
