package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/go-kasir/httpx"
	"github.com/diewo77/go-kasir/internal/models"
	"github.com/diewo77/go-kasir/validation"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserHandler covers the admin back-office user screens. Role enforcement
// happens at the router; every endpoint here assumes an ADMIN caller.
type UserHandler struct{ DB *gorm.DB }

func NewUserHandler(db *gorm.DB) *UserHandler { return &UserHandler{DB: db} }

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	if err := h.DB.Order("id asc").Find(&users).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_users", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": users, "total": len(users)})
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	v := validation.Violations{}
	validation.Required("username", req.Username, v)
	validation.Required("password", req.Password, v)
	validation.OneOf("level", req.Level, models.Levels, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	var count int64
	if err := h.DB.Model(&models.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_user", nil)
		return
	}
	if count > 0 {
		httpx.JSONError(w, http.StatusConflict, "username_taken", nil)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_user", nil)
		return
	}
	user := models.User{Username: req.Username, Password: string(hash), Level: req.Level}
	if err := h.DB.Create(&user).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_user", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
		Level    string `json:"level"`
		Password string `json:"password,omitempty"` // optional reset
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	v := validation.Violations{}
	validation.Required("username", req.Username, v)
	validation.OneOf("level", req.Level, models.Levels, v)
	if req.ID == 0 {
		v["id"] = "required"
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	var user models.User
	if err := h.DB.First(&user, req.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_user", nil)
		return
	}
	var count int64
	if err := h.DB.Model(&models.User{}).Where("username = ? AND id <> ?", req.Username, req.ID).Count(&count).Error; err == nil && count > 0 {
		httpx.JSONError(w, http.StatusConflict, "username_taken", nil)
		return
	}
	user.Username = req.Username
	user.Level = req.Level
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_user", nil)
			return
		}
		user.Password = string(hash)
	}
	if err := h.DB.Save(&user).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_user", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := parseID(r)
	if id == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	res := h.DB.Delete(&models.User{}, id)
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_user", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// parseID reads the id from query (?id=) or form body, mirroring the
// update/delete routing style used across the handlers.
func parseID(r *http.Request) uint {
	idStr := r.URL.Query().Get("id")
	if idStr == "" {
		if err := r.ParseForm(); err == nil {
			idStr = r.Form.Get("id")
		}
	}
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return 0
	}
	return uint(id)
}
