package scope_test

import (
	"testing"

	"github.com/hotelaria/opshub/internal/models"
	"github.com/hotelaria/opshub/internal/scope"
)

var (
	activeLocations = []uint64{1, 2, 3}
	departments     = []string{"Alimentos y Bebidas", "Housekeeping", "RRHH"}
)

func TestResolveAdminSeesEverything(t *testing.T) {
	actor := scope.Actor{UserID: "u-admin", Role: models.RoleAdmin}

	r := scope.Resolve(actor, activeLocations, departments, "")

	if !r.AllLocations {
		t.Error("Expected admin to see all locations")
	}
	if r.Departments != nil {
		t.Errorf("Expected no department filter, got %v", r.Departments)
	}
	if r.Empty() {
		t.Error("Expected non-empty scope")
	}
}

func TestResolveSupervisorDepartmentFilter(t *testing.T) {
	actor := scope.Actor{UserID: "u-sup", Role: models.RoleSupervisor}

	r := scope.Resolve(actor, activeLocations, departments, "Housekeeping")

	if len(r.Departments) != 1 || r.Departments[0] != "Housekeeping" {
		t.Errorf("Expected [Housekeeping], got %v", r.Departments)
	}

	// "ALL" is a no-op filter for unrestricted roles.
	r = scope.Resolve(actor, activeLocations, departments, "ALL")
	if r.Departments != nil {
		t.Errorf("Expected no filter for ALL, got %v", r.Departments)
	}
}

func TestResolveInspectorLocationUnion(t *testing.T) {
	actor := scope.Actor{
		UserID:              "u-insp",
		Role:                models.RoleInspector,
		PrimaryLocationID:   2,
		AssignedLocationIDs: []uint64{1, 2},
	}

	r := scope.Resolve(actor, activeLocations, departments, "")

	if r.AllLocations {
		t.Error("Expected inspector scope to be location-restricted")
	}
	if len(r.LocationIDs) != 2 {
		t.Fatalf("Expected deduplicated union {1,2}, got %v", r.LocationIDs)
	}
	if !r.AllowsLocation(1) || !r.AllowsLocation(2) {
		t.Errorf("Expected locations 1 and 2 allowed, got %v", r.LocationIDs)
	}
	if r.AllowsLocation(3) {
		t.Error("Expected location 3 to be out of scope")
	}
	if r.Departments != nil {
		t.Errorf("Expected inspector departments unrestricted, got %v", r.Departments)
	}
}

func TestResolveInspectorWithoutAssignmentsIsEmpty(t *testing.T) {
	actor := scope.Actor{UserID: "u-insp", Role: models.RoleInspector}

	r := scope.Resolve(actor, activeLocations, departments, "")

	if !r.NoLocations || !r.Empty() {
		t.Errorf("Expected empty-by-permission scope, got %+v", r)
	}
	if r.AllowsLocation(1) {
		t.Error("Expected no locations allowed")
	}
}

func TestResolveDepartmentAdminIntersection(t *testing.T) {
	actor := scope.Actor{
		UserID:             "u-dept",
		Role:               models.RoleDepartmentAdmin,
		AllowedDepartments: []string{"rrhh", "Lavandería"},
	}

	// The allow-list intersects with the canonical catalog, keeping the
	// catalog's casing; unknown entries drop.
	r := scope.Resolve(actor, activeLocations, departments, "")

	if len(r.Departments) != 1 || r.Departments[0] != "RRHH" {
		t.Errorf("Expected [RRHH], got %v", r.Departments)
	}
	if !r.AllLocations {
		t.Error("Expected department admin to see all locations")
	}
}

func TestResolveDepartmentAdminAllExpandsToAllowListOnly(t *testing.T) {
	actor := scope.Actor{
		UserID:             "u-dept",
		Role:               models.RoleDepartmentAdmin,
		AllowedDepartments: []string{"RRHH", "Housekeeping"},
	}

	r := scope.Resolve(actor, activeLocations, departments, scope.DepartmentAll)

	if len(r.Departments) != 2 {
		t.Fatalf("Expected the 2-department allow-list, got %v", r.Departments)
	}
	if !r.AllowsDepartment("RRHH") || !r.AllowsDepartment("Housekeeping") {
		t.Errorf("Expected RRHH and Housekeeping allowed, got %v", r.Departments)
	}
	if r.AllowsDepartment("Alimentos y Bebidas") {
		t.Error("Expected Alimentos y Bebidas to stay out of scope")
	}
}

func TestResolveDepartmentAdminOutsideAllowListIsEmpty(t *testing.T) {
	actor := scope.Actor{
		UserID:             "u-dept",
		Role:               models.RoleDepartmentAdmin,
		AllowedDepartments: []string{"RRHH"},
	}

	r := scope.Resolve(actor, activeLocations, departments, "Housekeeping")

	if !r.NoDepartments || !r.Empty() {
		t.Errorf("Expected empty-by-permission scope, got %+v", r)
	}
}

func TestResolveDepartmentAdminEmptyIntersectionIsEmpty(t *testing.T) {
	actor := scope.Actor{
		UserID:             "u-dept",
		Role:               models.RoleDepartmentAdmin,
		AllowedDepartments: []string{"Mantenimiento"},
	}

	r := scope.Resolve(actor, activeLocations, departments, "")

	if !r.NoDepartments {
		t.Errorf("Expected NoDepartments for an allow-list outside the catalog, got %+v", r)
	}
}
