package authz

import "fmt"

// 预置角色名称
const (
	RoleReadonlyAuditor    = "readonly_auditor"
	RoleSettlementOperator = "settlement_operator"
	RoleFinance            = "finance"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 系统预置角色矩阵
// readonly_auditor 只读；settlement_operator 可推进结算状态；finance 另可维护费率与配置。
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: RoleReadonlyAuditor,
			Policies: []Policy{
				{Object: "/admin/*", Action: "GET"},
			},
		},
		{
			Role:     RoleSettlementOperator,
			Inherits: []string{RoleReadonlyAuditor},
			Policies: []Policy{
				{Object: "/admin/settlements/mark-processed", Action: "POST"},
				{Object: "/admin/settlements/mark-complete", Action: "POST"},
				{Object: "/admin/settlements/:id/revert", Action: "POST"},
				{Object: "/admin/settlements/:id", Action: "PATCH"},
				{Object: "/admin/settlements/:id/dates", Action: "PATCH"},
				{Object: "/admin/bookings/:kind/:id/confirm-payment", Action: "POST"},
				{Object: "/admin/bookings/:kind/:id/cancel", Action: "POST"},
			},
		},
		{
			Role:     RoleFinance,
			Inherits: []string{RoleSettlementOperator},
			Policies: []Policy{
				{Object: "/admin/commission-rates", Action: "*"},
				{Object: "/admin/commission-rates/:id", Action: "*"},
				{Object: "/admin/commission-rates/:id/deactivate", Action: "POST"},
				{Object: "/admin/commission-settings", Action: "*"},
				{Object: "/admin/vendors/:id/custom-commission-rate", Action: "PUT"},
			},
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略（幂等）
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return errServiceUnavailable
	}
	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return err
		}
		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}
		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			if _, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}

// IsBuiltinRole 判断是否为预置角色
func IsBuiltinRole(role string) bool {
	normalized, err := NormalizeRole(role)
	if err != nil {
		return false
	}
	for _, seed := range BuiltinRoleSeeds() {
		if normalized == rolePrefix+seed.Role {
			return true
		}
	}
	return false
}
