package http

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/okris/Parley/internal/accounts"
	"github.com/okris/Parley/internal/config"
	"github.com/okris/Parley/internal/domain"
)

type AccountHandlers struct {
	Store *accounts.Store
	Cfg   *config.Config
}

func (h *AccountHandlers) Login(c *gin.Context) {
	var body struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username required"})
		return
	}

	acc, err := h.Store.Register(body.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUsernameTooLong) || errors.Is(err, domain.ErrUsernameEmpty) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	sess := sessions.Default(c)
	sess.Set("user_id", string(acc.User.ID))
	if err := sess.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":     acc.User.ID,
		"friendCode": acc.FriendCode,
	})
}

func (h *AccountHandlers) Session(c *gin.Context) {
	acc, ok := h.sessionAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no active session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"userId":   acc.User.ID,
		"username": acc.User.Username,
		"avatar":   acc.User.Avatar,
	})
}

func (h *AccountHandlers) UploadAvatar(c *gin.Context) {
	acc, ok := h.sessionAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no active session"})
		return
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}
	if file.Size > h.Cfg.AvatarMaxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	if err := os.MkdirAll(h.Cfg.AvatarDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
		return
	}
	ext := filepath.Ext(file.Filename)
	name := string(acc.User.ID) + ext
	dst := filepath.Join(h.Cfg.AvatarDir, name)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("avatar save")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	url := "/avatars/" + name
	if err := h.Store.SetAvatar(acc.User.ID, url); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	log.Info().Str("module", "adapters.http").Str("user", string(acc.User.ID)).Str("url", url).Msg("avatar uploaded")
	c.JSON(http.StatusOK, gin.H{"avatarUrl": url})
}

func (h *AccountHandlers) FriendLookup(c *gin.Context) {
	code := domain.FriendCode(c.Param("code"))
	acc, ok := h.Store.ByCode(code)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown friend code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"userId":   acc.User.ID,
		"username": acc.User.Username,
		"avatar":   acc.User.Avatar,
	})
}

func (h *AccountHandlers) sessionAccount(c *gin.Context) (accounts.Account, bool) {
	sess := sessions.Default(c)
	raw, _ := sess.Get("user_id").(string)
	if raw == "" {
		return accounts.Account{}, false
	}
	return h.Store.Get(domain.UserID(raw))
}
