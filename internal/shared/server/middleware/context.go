package middleware

import "github.com/gin-gonic/gin"

const (
	userIDKey  = "userId"
	imageIDKey = "imageId"
)

// SetUserID records the caller-supplied user identifier for request logging.
func SetUserID(c *gin.Context, userID string) {
	if userID != "" {
		c.Set(userIDKey, userID)
	}
}

// UserIDFromContext returns the identifier recorded by SetUserID.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(userIDKey)
}

// SetImageID records the image a request operates on.
func SetImageID(c *gin.Context, imageID string) {
	if imageID != "" {
		c.Set(imageIDKey, imageID)
	}
}

// ImageIDFromContext returns the identifier recorded by SetImageID.
func ImageIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(imageIDKey)
}
