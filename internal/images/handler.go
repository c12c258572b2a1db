package images

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"image-gateway/internal/shared/server/middleware"
	"image-gateway/internal/shared/server/respond"
	"image-gateway/internal/shared/storage/object"
	"image-gateway/internal/shared/upload"
)

// formOverhead leaves room for the text fields around the file part.
const formOverhead = 1 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc    *Service
	Buffer *upload.Buffer
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, buf *upload.Buffer) *Handler {
	return &Handler{Svc: svc, Buffer: buf}
}

// RegisterRoutes attaches image routes to the router group.
func (h *Handler) RegisterRoutes(rg gin.IRoutes) {
	rg.GET("/images", h.list)
	rg.POST("/upload", h.upload)
	rg.DELETE("/images/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	views, err := h.Svc.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch images", err.Error())
		return
	}
	respond.OK(c, views)
}

func (h *Handler) upload(c *gin.Context) {
	if h.Buffer.MaxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Buffer.MaxBytes+formOverhead)
	}
	defer upload.CleanupForm(c.Request)

	fh, err := upload.FormFile(c.Request, "file")
	if err != nil {
		if errors.Is(err, upload.ErrTooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "file exceeds upload limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "no file uploaded", nil)
		return
	}

	file, err := h.Buffer.Accept(fh)
	if err != nil {
		if errors.Is(err, upload.ErrTooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "file exceeds upload limit", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to buffer upload", err.Error())
		return
	}
	defer file.Release()

	userID := strings.TrimSpace(c.PostForm("user_id"))
	if userID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "user_id is required", nil)
		return
	}
	middleware.SetUserID(c, userID)

	res, err := h.Svc.Upload(c.Request.Context(), UploadInput{
		UserID:    userID,
		File:      file,
		Latitude:  parseCoordinate(c.PostForm("latitude")),
		Longitude: parseCoordinate(c.PostForm("longitude")),
		Analysis:  optionalText(c.PostForm("analysis")),
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrStorage):
			code := "storage_error"
			if errors.Is(err, object.ErrObjectExists) {
				code = "storage_conflict"
			}
			respond.Error(c, http.StatusInternalServerError, code, "failed to upload image to storage", err.Error())
		case errors.Is(err, ErrPersist):
			respond.Error(c, http.StatusInternalServerError, "db_error", "failed to save image record", err.Error())
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to upload image", err.Error())
		}
		return
	}

	middleware.SetImageID(c, res.Image.ID)
	respond.OK(c, toUploadResponse(res))
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	middleware.SetImageID(c, id)

	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "image not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete image", err.Error())
		}
		return
	}
	respond.Success(c)
}

// parseCoordinate returns nil for absent, unparseable or non-finite input.
func parseCoordinate(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func optionalText(raw string) *string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return &raw
}
