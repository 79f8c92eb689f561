package utils

import (
	"slices"

	"github.com/lavrelin/offtrix-sub000/config"
)

// CheckAuth 检查用户是否有权限
func CheckAuth(userID string, roles []string) bool {
	authConfig := config.Cfg.Commands.Auth

	// 检查是否为开发者
	if slices.Contains(authConfig.Developers, userID) {
		return true
	}

	// 检查是否拥有管理员角色
	for _, role := range roles {
		if slices.Contains(authConfig.AdminsRoles, role) {
			return true
		}
	}

	return false
}

// IsPrivileged reports whether the user bypasses rate limiting and may
// moderate, based on the developer list alone. Role-based checks need the
// member's roles and go through CheckAuth.
func IsPrivileged(userID string) bool {
	return slices.Contains(config.Cfg.Commands.Auth.Developers, userID)
}
