package authz

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap roles failed: %v", err)
	}
	return svc
}

func assertEnforce(t *testing.T, svc *Service, adminID uint, obj, act string, want bool) {
	t.Helper()
	allow, err := svc.EnforceAdmin(adminID, obj, act)
	if err != nil {
		t.Fatalf("enforce %s %s failed: %v", act, obj, err)
	}
	if allow != want {
		t.Fatalf("enforce %s %s = %v, want %v", act, obj, allow, want)
	}
}

func TestBuiltinRoleMatrix(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.SetAdminRoles(1, []string{RoleReadonlyAuditor}); err != nil {
		t.Fatalf("set auditor failed: %v", err)
	}
	if err := svc.SetAdminRoles(2, []string{RoleSettlementOperator}); err != nil {
		t.Fatalf("set operator failed: %v", err)
	}
	if err := svc.SetAdminRoles(3, []string{RoleFinance}); err != nil {
		t.Fatalf("set finance failed: %v", err)
	}

	assertEnforce(t, svc, 1, "/api/v1/admin/settlements/5", "GET", true)
	assertEnforce(t, svc, 1, "/api/v1/admin/settlements/mark-processed", "POST", false)

	assertEnforce(t, svc, 2, "/api/v1/admin/settlements/mark-processed", "post", true)
	assertEnforce(t, svc, 2, "/api/v1/admin/settlements/5/revert", "POST", true)
	assertEnforce(t, svc, 2, "/api/v1/admin/commission-rates", "POST", false)

	assertEnforce(t, svc, 3, "/api/v1/admin/commission-rates/9", "PUT", true)
	assertEnforce(t, svc, 3, "/api/v1/admin/settlements/5/dates", "PATCH", true)
	assertEnforce(t, svc, 3, "/api/v1/admin/banking-report", "GET", true)

	assertEnforce(t, svc, 4, "/api/v1/admin/settlements", "GET", false)
}

func TestSetAdminRolesOverride(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.SetAdminRoles(2, []string{RoleReadonlyAuditor}); err != nil {
		t.Fatalf("set first role failed: %v", err)
	}
	if err := svc.SetAdminRoles(2, []string{RoleFinance}); err != nil {
		t.Fatalf("set second role failed: %v", err)
	}
	roles, err := svc.GetAdminRoles(2)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:finance" {
		t.Fatalf("roles want [role:finance], got=%v", roles)
	}

	policies, err := svc.GetAdminPolicies(2)
	if err != nil {
		t.Fatalf("get policies failed: %v", err)
	}
	found := false
	for _, policy := range policies {
		if policy.Object == "/admin/settlements/mark-complete" && policy.Action == "POST" {
			found = true
		}
	}
	if !found {
		t.Fatalf("inherited operator policy missing: %+v", policies)
	}
}

func TestSetAdminRolesRejectsUnknownRole(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.SetAdminRoles(1, []string{"superman"}); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := map[string]string{
		"":                        "/",
		"/api/v1":                 "/",
		"admin/settlements":       "/admin/settlements",
		"/api/v1/admin/bookings/": "/admin/bookings/",
	}
	for in, want := range cases {
		if got := NormalizeObject(in); got != want {
			t.Fatalf("NormalizeObject(%q) = %q, want %q", in, got, want)
		}
	}
}
