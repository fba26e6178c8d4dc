package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kb-scope-api/internal/domain"
	"github.com/kb-scope-api/internal/dto"
)

func TestLink_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	it := env.mustCreateDepartment(t, "IT", nil)
	hr := env.mustCreateDepartment(t, "HR", nil)

	req := &dto.KBLinkRequest{DepartmentIDs: []int64{it.ID, hr.ID}}
	first, err := env.kbService.Link(ctx, "kb-1", req)
	if err != nil {
		t.Fatalf("link failed: %v", err)
	}
	second, err := env.kbService.Link(ctx, "kb-1", req)
	if err != nil {
		t.Fatalf("repeated link failed: %v", err)
	}

	if len(first) != 2 || len(second) != 2 {
		t.Errorf("expected 2 links after both calls, got %d and %d", len(first), len(second))
	}

	var count int64
	env.db.Model(&domain.KBDepartmentRelation{}).Where("kb_id = ?", "kb-1").Count(&count)
	if count != 2 {
		t.Errorf("expected 2 relation rows, got %d", count)
	}
}

func TestLink_Replace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	it := env.mustCreateDepartment(t, "IT", nil)
	hr := env.mustCreateDepartment(t, "HR", nil)

	if _, err := env.kbService.Link(ctx, "kb-1", &dto.KBLinkRequest{DepartmentIDs: []int64{it.ID}}); err != nil {
		t.Fatalf("link failed: %v", err)
	}

	departments, err := env.kbService.Link(ctx, "kb-1", &dto.KBLinkRequest{
		DepartmentIDs: []int64{hr.ID},
		Replace:       true,
	})
	if err != nil {
		t.Fatalf("replace link failed: %v", err)
	}

	if len(departments) != 1 || departments[0].ID != hr.ID {
		t.Errorf("expected only HR after replace, got %v", departments)
	}
}

func TestLink_DepartmentNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.kbService.Link(context.Background(), "kb-1", &dto.KBLinkRequest{DepartmentIDs: []int64{999}})
	if !errors.Is(err, domain.ErrDepartmentNotFound) {
		t.Errorf("expected ErrDepartmentNotFound, got %v", err)
	}
}

func TestUnlink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	it := env.mustCreateDepartment(t, "IT", nil)

	if _, err := env.kbService.Link(ctx, "kb-1", &dto.KBLinkRequest{DepartmentIDs: []int64{it.ID}}); err != nil {
		t.Fatalf("link failed: %v", err)
	}
	if err := env.kbService.Unlink(ctx, "kb-1", it.ID); err != nil {
		t.Fatalf("unlink failed: %v", err)
	}

	departments, err := env.kbService.ListDepartments(ctx, "kb-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(departments) != 0 {
		t.Errorf("expected no departments after unlink, got %d", len(departments))
	}
}

func TestResolveKBIDs_EmptyInput(t *testing.T) {
	env := newTestEnv(t)

	kbIDs, err := env.kbService.ResolveKBIDs(context.Background(), nil, true)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(kbIDs) != 0 {
		t.Errorf("empty department set must resolve to empty kb set, got %v", kbIDs)
	}
}

// Сценарий: база привязана только к дочернему подразделению,
// видимость из корня зависит от включения поддеревьев
func TestResolveKBIDs_Subtrees(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	root := env.mustCreateDepartment(t, "Company", nil)
	child := env.mustCreateDepartment(t, "IT", &root.ID)

	if _, err := env.kbService.Link(ctx, "kb-child", &dto.KBLinkRequest{DepartmentIDs: []int64{child.ID}}); err != nil {
		t.Fatalf("link failed: %v", err)
	}

	withSubtrees, err := env.kbService.ResolveKBIDs(ctx, []int64{root.ID}, true)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(withSubtrees) != 1 || withSubtrees[0] != "kb-child" {
		t.Errorf("expected kb-child visible with subtrees, got %v", withSubtrees)
	}

	withoutSubtrees, err := env.kbService.ResolveKBIDs(ctx, []int64{root.ID}, false)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(withoutSubtrees) != 0 {
		t.Errorf("expected no bases without subtrees, got %v", withoutSubtrees)
	}

	// Монотонность: выборка с поддеревьями - надмножество выборки без них
	subtreeSet := make(map[string]struct{}, len(withSubtrees))
	for _, kbID := range withSubtrees {
		subtreeSet[kbID] = struct{}{}
	}
	for _, kbID := range withoutSubtrees {
		if _, ok := subtreeSet[kbID]; !ok {
			t.Errorf("subtree resolution must be a superset, missing %s", kbID)
		}
	}
}

func TestSearchKBs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	root := env.mustCreateDepartment(t, "Company", nil)
	child := env.mustCreateDepartment(t, "IT", &root.ID)

	if _, err := env.kbService.Link(ctx, "kb-1", &dto.KBLinkRequest{DepartmentIDs: []int64{child.ID}}); err != nil {
		t.Fatalf("link failed: %v", err)
	}

	kbs, err := env.kbService.SearchKBs(ctx, []int64{root.ID}, true)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(kbs) != 1 || kbs[0].KBID != "kb-1" {
		t.Fatalf("expected kb-1, got %v", kbs)
	}
	if len(kbs[0].Departments) != 1 || kbs[0].Departments[0].ID != child.ID {
		t.Errorf("expected linked department in result, got %v", kbs[0].Departments)
	}
}

// Сценарий: запрет и восстановление доступа для одной пары
func TestDenyAllow_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.mustCreateUser(t, "alice")

	denied, err := env.accessService.DeniedKBIDs(ctx, alice.ID, domain.RoleUser)
	if err != nil {
		t.Fatalf("denied lookup failed: %v", err)
	}
	if len(denied) != 0 {
		t.Errorf("expected empty deny list, got %v", denied)
	}

	count, err := env.accessService.Deny(ctx, "kb-1", &dto.AccessDenyRequest{
		UserIDs: []int64{alice.ID},
		Reason:  "policy violation",
	}, nil)
	if err != nil {
		t.Fatalf("deny failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 denied, got %d", count)
	}

	denied, err = env.accessService.DeniedKBIDs(ctx, alice.ID, domain.RoleUser)
	if err != nil {
		t.Fatalf("denied lookup failed: %v", err)
	}
	if len(denied) != 1 || denied[0] != "kb-1" {
		t.Errorf("expected deny list {kb-1}, got %v", denied)
	}

	removed, err := env.accessService.Allow(ctx, "kb-1", &dto.AccessAllowRequest{UserIDs: []int64{alice.ID}})
	if err != nil {
		t.Fatalf("allow failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}

	denied, _ = env.accessService.DeniedKBIDs(ctx, alice.ID, domain.RoleUser)
	if len(denied) != 0 {
		t.Errorf("expected empty deny list after allow, got %v", denied)
	}

	// Повторное восстановление - no-op
	removed, err = env.accessService.Allow(ctx, "kb-1", &dto.AccessAllowRequest{UserIDs: []int64{alice.ID}})
	if err != nil {
		t.Fatalf("repeated allow failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("expected no rows removed, got %d", removed)
	}
}

func TestDeny_UpsertDoesNotDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.mustCreateUser(t, "alice")
	operator := env.mustCreateUser(t, "admin")

	if _, err := env.accessService.Deny(ctx, "kb-1", &dto.AccessDenyRequest{UserIDs: []int64{alice.ID}, Reason: "first"}, nil); err != nil {
		t.Fatalf("deny failed: %v", err)
	}
	if _, err := env.accessService.Deny(ctx, "kb-1", &dto.AccessDenyRequest{UserIDs: []int64{alice.ID}, Reason: "second"}, &operator.ID); err != nil {
		t.Fatalf("repeated deny failed: %v", err)
	}

	var records []domain.KBAccessControl
	env.db.Where("kb_id = ? AND user_id = ?", "kb-1", alice.ID).Find(&records)
	if len(records) != 1 {
		t.Fatalf("expected single row after upsert, got %d", len(records))
	}
	if records[0].Reason != "second" {
		t.Errorf("expected updated reason, got %q", records[0].Reason)
	}
	if records[0].CreatedBy == nil || *records[0].CreatedBy != operator.ID {
		t.Error("expected updated operator")
	}
}

func TestCanAccess_DefaultAllowAndPairScope(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.mustCreateUser(t, "alice")
	bob := env.mustCreateUser(t, "bob")

	canAccess, err := env.accessService.CanAccess(ctx, alice.ID, "kb-1", domain.RoleUser)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !canAccess {
		t.Error("expected default allow")
	}

	if _, err := env.accessService.Deny(ctx, "kb-1", &dto.AccessDenyRequest{UserIDs: []int64{alice.ID}}, nil); err != nil {
		t.Fatalf("deny failed: %v", err)
	}

	canAccess, _ = env.accessService.CanAccess(ctx, alice.ID, "kb-1", domain.RoleUser)
	if canAccess {
		t.Error("expected deny after blacklist insert")
	}

	// Запрет действует только на конкретную пару
	canAccess, _ = env.accessService.CanAccess(ctx, bob.ID, "kb-1", domain.RoleUser)
	if !canAccess {
		t.Error("deny must not affect other users")
	}
	canAccess, _ = env.accessService.CanAccess(ctx, alice.ID, "kb-2", domain.RoleUser)
	if !canAccess {
		t.Error("deny must not affect other knowledge bases")
	}
}

func TestCanAccess_SuperadminBypass(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	root := env.mustCreateUser(t, "root")

	if _, err := env.accessService.Deny(ctx, "kb-1", &dto.AccessDenyRequest{UserIDs: []int64{root.ID}}, nil); err != nil {
		t.Fatalf("deny failed: %v", err)
	}

	canAccess, err := env.accessService.CanAccess(ctx, root.ID, "kb-1", domain.RoleSuperadmin)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !canAccess {
		t.Error("superadmin must bypass deny rows")
	}

	denied, err := env.accessService.DeniedKBIDs(ctx, root.ID, domain.RoleSuperadmin)
	if err != nil {
		t.Fatalf("denied lookup failed: %v", err)
	}
	if len(denied) != 0 {
		t.Errorf("expected empty deny list for superadmin, got %v", denied)
	}
}

func TestBatchCheck(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.mustCreateUser(t, "alice")

	if _, err := env.accessService.Deny(ctx, "kb-2", &dto.AccessDenyRequest{UserIDs: []int64{alice.ID}}, nil); err != nil {
		t.Fatalf("deny failed: %v", err)
	}

	kbIDs := []string{"kb-1", "kb-2", "kb-3"}
	result, err := env.accessService.BatchCheck(ctx, alice.ID, kbIDs, domain.RoleUser)
	if err != nil {
		t.Fatalf("batch check failed: %v", err)
	}

	expected := map[string]bool{"kb-1": true, "kb-2": false, "kb-3": true}
	for kbID, want := range expected {
		if result[kbID] != want {
			t.Errorf("kb %s: expected %v, got %v", kbID, want, result[kbID])
		}
	}

	// Superadmin получает true по всем базам
	result, err = env.accessService.BatchCheck(ctx, alice.ID, kbIDs, domain.RoleSuperadmin)
	if err != nil {
		t.Fatalf("batch check failed: %v", err)
	}
	for _, kbID := range kbIDs {
		if !result[kbID] {
			t.Errorf("superadmin batch check must be true for %s", kbID)
		}
	}
}

func TestAccessList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.mustCreateUser(t, "alice")
	env.mustCreateUser(t, "bob")
	env.mustCreateUser(t, "carol")
	admin := env.mustCreateUser(t, "admin")

	if _, err := env.accessService.Deny(ctx, "kb-1", &dto.AccessDenyRequest{
		UserIDs: []int64{alice.ID},
		Reason:  "contract ended",
	}, &admin.ID); err != nil {
		t.Fatalf("deny failed: %v", err)
	}

	acl, err := env.accessService.AccessList(ctx, "kb-1")
	if err != nil {
		t.Fatalf("access list failed: %v", err)
	}

	if acl.TotalUsers != 4 {
		t.Errorf("expected 4 total users, got %d", acl.TotalUsers)
	}
	if acl.DeniedCount != 1 {
		t.Errorf("expected 1 denied, got %d", acl.DeniedCount)
	}
	if acl.AllowedCount != 3 {
		t.Errorf("expected 3 allowed, got %d", acl.AllowedCount)
	}
	if len(acl.DeniedUsers) != 1 {
		t.Fatalf("expected 1 denied user, got %d", len(acl.DeniedUsers))
	}
	if acl.DeniedUsers[0].Username != "alice" {
		t.Errorf("expected alice in deny list, got %q", acl.DeniedUsers[0].Username)
	}
	if acl.DeniedUsers[0].DeniedByName != "admin" {
		t.Errorf("expected operator name, got %q", acl.DeniedUsers[0].DeniedByName)
	}
}
