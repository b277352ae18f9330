package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chaptered/core/internal/http/response"
	"github.com/chaptered/core/internal/pkg/allowlist"
)

// AuthHandler exposes the one public auth endpoint the core owns: verified-email
// lookup. It never issues or verifies credentials itself; that is an external
// identity provider's job. This only answers "is this email on the allowlist".
type AuthHandler struct {
	allowed *allowlist.Allowlist
}

func NewAuthHandler(allowed *allowlist.Allowlist) *AuthHandler {
	return &AuthHandler{allowed: allowed}
}

// VerifyEmail handles POST /api/auth/verify-email.
func (ah *AuthHandler) VerifyEmail(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	response.RespondOK(c, gin.H{"is_verified": ah.allowed.IsVerified(req.Email)})
}
