package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/victorydiv/etsyapp/internal/config"
	"github.com/victorydiv/etsyapp/internal/middleware"
)

// AuthHandler 单操作员登录，凭据来自配置
type AuthHandler struct {
	cfg config.JWTConfig
}

func NewAuthHandler(cfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	if h.cfg.AdminUser == "" || req.Username != h.cfg.AdminUser || req.Password != h.cfg.AdminPassword {
		c.JSON(http.StatusUnauthorized, gin.H{"code": 40101, "message": "invalid credentials"})
		return
	}

	token, err := middleware.GenerateToken(h.cfg.Secret, h.cfg.Issuer, h.cfg.AccessTokenExpire,
		req.Username, req.Username, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	respondOK(c, gin.H{"token": token, "expires_in": int(h.cfg.AccessTokenExpire.Seconds())})
}
