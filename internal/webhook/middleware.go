package webhook

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyHeader carries the plaintext webhook key.
const APIKeyHeader = "X-Webhook-API-Key"

const (
	ctxUserID    = "webhookUserID"
	ctxUserEmail = "webhookUserEmail"
	ctxKeyID     = "webhookKeyID"
)

// KeyLookup resolves an active key by hash.
type KeyLookup interface {
	GetByHash(ctx context.Context, keyHash string) (APIKey, error)
}

// APIKeyAuthMiddleware validates the X-Webhook-API-Key header
// and sets the key owner on the gin context.
func APIKeyAuthMiddleware(keys KeyLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader(APIKeyHeader)
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			return
		}

		key, err := keys.GetByHash(c.Request.Context(), HashKey(apiKey))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}

		c.Set(ctxUserID, key.UserID)
		c.Set(ctxUserEmail, key.UserEmail)
		c.Set(ctxKeyID, key.ID)
		c.Next()
	}
}
