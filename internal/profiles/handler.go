package profiles

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"image-gateway/internal/shared/server/middleware"
	"image-gateway/internal/shared/server/respond"
	"image-gateway/internal/shared/upload"
)

const formOverhead = 1 << 20

type Handler struct {
	Svc    *Service
	Buffer *upload.Buffer
}

func NewHandler(svc *Service, buf *upload.Buffer) *Handler {
	return &Handler{Svc: svc, Buffer: buf}
}

func (h *Handler) RegisterRoutes(rg gin.IRoutes) {
	rg.POST("/upload-profile", h.upload)
	rg.GET("/profile-image/:user_id", h.get)
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

	url, err := h.Svc.UploadProfileImage(c.Request.Context(), userID, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrStorage):
			respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to upload profile image to storage", err.Error())
		default:
			respond.Error(c, http.StatusInternalServerError, "db_error", "failed to save profile image", err.Error())
		}
		return
	}

	respond.OK(c, gin.H{
		"message":         "profile image uploaded",
		"profileImageUrl": url,
	})
}

func (h *Handler) get(c *gin.Context) {
	userID := c.Param("user_id")
	middleware.SetUserID(c, userID)

	url, err := h.Svc.ProfileImageURL(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
		case errors.Is(err, ErrNoProfileImage):
			respond.Error(c, http.StatusNotFound, "not_found", "profile image not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch profile image", err.Error())
		}
		return
	}
	respond.OK(c, gin.H{"profileImageUrl": url})
}
