package admin

import (
	handlershared "github.com/blane-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminLogin 管理员登录
func (h *Handler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	result, err := h.AuthService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_login_success", "admin_id", result.Admin.ID)
	handlershared.Success(c, gin.H{
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"admin":      result.Admin,
	})
}

// GetAdminProfile 当前管理员信息与权限
func (h *Handler) GetAdminProfile(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	admin, err := h.AuthService.Profile(adminID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	policies, err := h.AuthzService.GetAdminPolicies(adminID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	handlershared.Success(c, gin.H{
		"admin":    admin,
		"roles":    roles,
		"policies": policies,
	})
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangeAdminPassword 修改密码（已签发 Token 全部失效）
func (h *Handler) ChangeAdminPassword(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.AuthService.ChangePassword(c.Request.Context(), adminID, req.OldPassword, req.NewPassword); err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_password_changed", "admin_id", adminID)
	handlershared.Success(c, nil)
}

// SetAdminRolesRequest 设置管理员角色
type SetAdminRolesRequest struct {
	Roles []string `json:"roles" binding:"required"`
}

// SetAdminRoles 覆盖指定管理员的预置角色
func (h *Handler) SetAdminRoles(c *gin.Context) {
	operatorID, ok := getAdminID(c)
	if !ok {
		return
	}
	targetID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req SetAdminRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if _, err := h.AuthService.Profile(targetID); err != nil {
		respondServiceError(c, err)
		return
	}
	if err := h.AuthzService.SetAdminRoles(targetID, req.Roles); err != nil {
		respondServiceError(c, err)
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(targetID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_roles_updated", "operator_id", operatorID, "admin_id", targetID, "roles", roles)
	handlershared.Success(c, gin.H{"admin_id": targetID, "roles": roles})
}
