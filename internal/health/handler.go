package health

import (
	"github.com/gin-gonic/gin"

	"image-gateway/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg gin.IRoutes) {
	rg.GET("/health", h.health)
	rg.GET("/conexao", h.connection)
}

func (h *Handler) health(c *gin.Context) {
	respond.OK(c, h.Svc.Status())
}

// connection answers the legacy connectivity probe.
func (h *Handler) connection(c *gin.Context) {
	respond.OK(c, gin.H{"status": "connection ok"})
}
