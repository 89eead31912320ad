package http

import (
	"github.com/gin-gonic/gin"

	"github.com/yanqian/faq-chatbot/internal/domain/conversation"
)

const sessionClaimsKey = "session_claims"

func setClaims(c *gin.Context, claims conversation.Claims) {
	c.Set(sessionClaimsKey, claims)
}

func getClaims(c *gin.Context) (conversation.Claims, bool) {
	value, ok := c.Get(sessionClaimsKey)
	if !ok {
		return conversation.Claims{}, false
	}
	claims, ok := value.(conversation.Claims)
	return claims, ok
}
