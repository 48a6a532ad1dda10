// Package scope computes, per actor, the location and department subset
// visible to list and statistics queries. Resolve is a pure function of the
// actor's assignment record and the supplied catalogs, so every dashboard
// entry point shares one testable authorization path instead of re-deriving
// role branches locally.
package scope

import (
	"strings"

	"github.com/hotelaria/opshub/internal/models"
)

// DepartmentAll is the synthetic selector dashboards send to mean "everything
// I am allowed to see". For unrestricted roles it is a no-op filter; for
// department-restricted roles it expands to exactly the allowed intersection,
// never the full catalog.
const DepartmentAll = "ALL"

// Actor is the resolver's view of the requesting user.
type Actor struct {
	UserID              string
	Name                string
	Role                string
	PrimaryLocationID   uint64
	AssignedLocationIDs []uint64
	AllowedDepartments  []string
}

// Result is the resolved query scope. NoLocations and NoDepartments are
// explicit "empty by permission" outcomes, distinct from an absent filter,
// so downstream queries short-circuit to empty results instead of silently
// returning everything.
type Result struct {
	AllLocations  bool
	LocationIDs   []uint64
	NoLocations   bool
	Departments   []string // nil means unrestricted
	NoDepartments bool
}

// Empty reports whether the scope cannot match any data by permission alone.
func (r Result) Empty() bool {
	return r.NoLocations || r.NoDepartments
}

// AllowsLocation reports whether the scope covers the location.
func (r Result) AllowsLocation(id uint64) bool {
	if r.NoLocations {
		return false
	}
	if r.AllLocations {
		return true
	}
	for _, lid := range r.LocationIDs {
		if lid == id {
			return true
		}
	}
	return false
}

// AllowsDepartment reports whether the scope covers the department.
func (r Result) AllowsDepartment(dept string) bool {
	if r.NoDepartments {
		return false
	}
	if r.Departments == nil {
		return true
	}
	for _, d := range r.Departments {
		if strings.EqualFold(d, dept) {
			return true
		}
	}
	return false
}

// Resolve computes the queryable scope for the actor.
// activeLocationIDs is the catalog of active locations; departmentCatalog is
// the canonical department list; requestedDepartment is the caller's filter
// selection ("" and DepartmentAll both mean no explicit narrowing).
func Resolve(actor Actor, activeLocationIDs []uint64, departmentCatalog []string, requestedDepartment string) Result {
	var r Result

	switch actor.Role {
	case models.RoleAdmin, models.RoleSupervisor:
		r.AllLocations = true
		r.LocationIDs = activeLocationIDs
		r.Departments = requestedFilter(requestedDepartment)

	case models.RoleDepartmentAdmin:
		r.AllLocations = true
		r.LocationIDs = activeLocationIDs
		r.resolveDepartments(actor.AllowedDepartments, departmentCatalog, requestedDepartment)

	default:
		r.LocationIDs = assignedUnion(actor)
		if len(r.LocationIDs) == 0 {
			r.NoLocations = true
		}
		r.Departments = requestedFilter(requestedDepartment)
	}

	return r
}

// requestedFilter maps an explicit department selection for unrestricted
// roles; "" and "ALL" are no-op filters.
func requestedFilter(requested string) []string {
	requested = strings.TrimSpace(requested)
	if requested == "" || strings.EqualFold(requested, DepartmentAll) {
		return nil
	}
	return []string{requested}
}

// assignedUnion is the union of explicitly assigned locations and the single
// primary location, deduplicated.
func assignedUnion(actor Actor) []uint64 {
	seen := make(map[uint64]struct{}, len(actor.AssignedLocationIDs)+1)
	union := make([]uint64, 0, len(actor.AssignedLocationIDs)+1)
	for _, id := range actor.AssignedLocationIDs {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			union = append(union, id)
		}
	}
	if actor.PrimaryLocationID != 0 {
		if _, ok := seen[actor.PrimaryLocationID]; !ok {
			union = append(union, actor.PrimaryLocationID)
		}
	}
	return union
}

// resolveDepartments intersects the allow-list with the canonical catalog
// (case-insensitive, trimmed), keeping the catalog's canonical casing.
func (r *Result) resolveDepartments(allowed, catalog []string, requested string) {
	intersected := make([]string, 0, len(allowed))
	for _, cat := range catalog {
		for _, a := range allowed {
			if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(cat)) {
				intersected = append(intersected, cat)
				break
			}
		}
	}

	if len(intersected) == 0 {
		r.NoDepartments = true
		return
	}

	requested = strings.TrimSpace(requested)
	if requested == "" || strings.EqualFold(requested, DepartmentAll) {
		r.Departments = intersected
		return
	}

	for _, dept := range intersected {
		if strings.EqualFold(dept, requested) {
			r.Departments = []string{dept}
			return
		}
	}
	// Requested a department outside the allow-list: empty by permission.
	r.NoDepartments = true
}
