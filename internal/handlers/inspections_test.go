package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/hotelaria/opshub/internal/handlers"
	"github.com/hotelaria/opshub/internal/middleware"
	"github.com/hotelaria/opshub/internal/models"
	"github.com/hotelaria/opshub/internal/scope"
	"github.com/hotelaria/opshub/internal/template"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Location{},
		&models.UserAssignment{},
		&models.Inspection{},
		&models.InspectionArea{},
		&models.InspectionItem{},
		&models.ItemEvidence{},
		&models.InspectionDeletionLog{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// setupApp wires the inspection routes behind a stub auth middleware that
// injects the given actor, standing in for the session-validating middleware.
func setupApp(t *testing.T, db *gorm.DB, actor scope.Actor) *fiber.App {
	t.Helper()

	catalog, err := template.Load()
	if err != nil {
		t.Fatalf("Failed to load template catalog: %v", err)
	}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.ActorKey, actor)
		return c.Next()
	})

	handler := &handlers.InspectionHandler{DB: db, Catalog: catalog}
	app.Post("/api/inspections", handler.CreateInspection)
	app.Get("/api/inspections", handler.ListInspections)
	app.Get("/api/inspections/stats", handler.GetAggregateStats)
	app.Get("/api/inspections/:id", handler.GetInspection)
	app.Post("/api/inspections/:id/items", handler.UpdateItems)
	app.Post("/api/inspections/:id/status", handler.TransitionStatus)
	app.Delete("/api/inspections/:id", handler.DeleteInspection)
	app.Put("/api/inspections/:id/items/:itemId/evidence/:slot", handler.AttachEvidence)

	return app
}

func createTestLocation(t *testing.T, db *gorm.DB) uint64 {
	t.Helper()
	loc := models.Location{Code: "HTL-01", Name: "Hotel Centro", Active: true}
	if err := db.Create(&loc).Error; err != nil {
		t.Fatalf("Failed to create location: %v", err)
	}
	return loc.ID
}

func postJSON(t *testing.T, app *fiber.App, method, url string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp.StatusCode, result
}

func TestCreateInspectionFromTemplate(t *testing.T) {
	db := setupTestDB(t)
	locID := createTestLocation(t, db)
	app := setupApp(t, db, scope.Actor{UserID: "inspector-1", Role: models.RoleInspector, PrimaryLocationID: locID})

	status, result := postJSON(t, app, "POST", "/api/inspections", fiber.Map{
		"location_id":     locID,
		"department":      "housekeeping",
		"inspection_date": "2026-03-10",
	})

	if status != fiber.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %v", status, result)
	}
	// Loosely-cased department resolves to the canonical catalog label.
	if dept, _ := result["department"].(string); dept != "Housekeeping" {
		t.Errorf("Expected canonical department casing, got %q", dept)
	}
	if result["status"] != models.StatusDraft {
		t.Errorf("Expected draft status, got %v", result["status"])
	}
	areas, _ := result["areas"].([]interface{})
	if len(areas) == 0 {
		t.Error("Expected template-expanded areas in response")
	}
	if result["inspector_user_id"] != "inspector-1" {
		t.Errorf("Expected inspector from the resolved actor, got %v", result["inspector_user_id"])
	}
}

func TestCreateInspectionUnknownCategory(t *testing.T) {
	db := setupTestDB(t)
	locID := createTestLocation(t, db)
	app := setupApp(t, db, scope.Actor{UserID: "inspector-1", Role: models.RoleInspector, PrimaryLocationID: locID})

	status, _ := postJSON(t, app, "POST", "/api/inspections", fiber.Map{
		"location_id":     locID,
		"department":      "Spa",
		"inspection_date": "2026-03-10",
	})

	if status != fiber.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown category, got %d", status)
	}
}

func TestCreateInspectionBadDate(t *testing.T) {
	db := setupTestDB(t)
	locID := createTestLocation(t, db)
	app := setupApp(t, db, scope.Actor{UserID: "inspector-1", Role: models.RoleInspector, PrimaryLocationID: locID})

	status, _ := postJSON(t, app, "POST", "/api/inspections", fiber.Map{
		"location_id":     locID,
		"department":      "Housekeeping",
		"inspection_date": "10/03/2026",
	})

	if status != fiber.StatusBadRequest {
		t.Errorf("Expected status 400 for malformed date, got %d", status)
	}
}

func TestGetInspectionScopeFiltered(t *testing.T) {
	db := setupTestDB(t)
	locID := createTestLocation(t, db)

	owner := scope.Actor{UserID: "inspector-1", Role: models.RoleInspector, PrimaryLocationID: locID}
	app := setupApp(t, db, owner)

	status, created := postJSON(t, app, "POST", "/api/inspections", fiber.Map{
		"location_id":     locID,
		"department":      "Housekeeping",
		"inspection_date": "2026-03-10",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("Failed to create: %d %v", status, created)
	}
	id := int(created["id"].(float64))

	// The owner reads it back.
	status, _ = postJSON(t, app, "GET", "/api/inspections/"+itoa(id), nil)
	if status != fiber.StatusOK {
		t.Errorf("Expected status 200 for in-scope read, got %d", status)
	}

	// An inspector assigned elsewhere reads it as missing.
	stranger := setupApp(t, db, scope.Actor{UserID: "inspector-2", Role: models.RoleInspector, PrimaryLocationID: locID + 100})
	status, _ = postJSON(t, stranger, "GET", "/api/inspections/"+itoa(id), nil)
	if status != fiber.StatusNotFound {
		t.Errorf("Expected status 404 for out-of-scope read, got %d", status)
	}
}

func TestUpdateItemsEndpointVersionConflict(t *testing.T) {
	db := setupTestDB(t)
	locID := createTestLocation(t, db)
	actor := scope.Actor{UserID: "inspector-1", Role: models.RoleInspector, PrimaryLocationID: locID}
	app := setupApp(t, db, actor)

	status, created := postJSON(t, app, "POST", "/api/inspections", fiber.Map{
		"location_id":     locID,
		"department":      "Housekeeping",
		"inspection_date": "2026-03-10",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("Failed to create: %d", status)
	}
	id := int(created["id"].(float64))
	areas := created["areas"].([]interface{})
	firstArea := areas[0].(map[string]interface{})
	items := firstArea["items"].([]interface{})
	itemID := int(items[0].(map[string]interface{})["id"].(float64))

	// Stale version conflicts with 409.
	status, result := postJSON(t, app, "POST", "/api/inspections/"+itoa(id)+"/items", fiber.Map{
		"version": 42,
		"items": []fiber.Map{
			{"item_id": itemID, "cumplimiento_valor": models.ComplianceCumple},
		},
	})
	if status != fiber.StatusConflict {
		t.Errorf("Expected status 409 for stale version, got %d: %v", status, result)
	}

	// The correct version applies and returns the bumped version and metrics.
	status, result = postJSON(t, app, "POST", "/api/inspections/"+itoa(id)+"/items", fiber.Map{
		"version": 0,
		"items": []fiber.Map{
			{"item_id": itemID, "cumplimiento_valor": models.ComplianceCumple, "calif_valor": 9},
		},
	})
	if status != fiber.StatusOK {
		t.Fatalf("Expected status 200, got %d: %v", status, result)
	}
	if result["newVersion"].(float64) != 1 {
		t.Errorf("Expected newVersion 1, got %v", result["newVersion"])
	}
}

func TestTransitionAndDeleteEndpoints(t *testing.T) {
	db := setupTestDB(t)
	locID := createTestLocation(t, db)
	inspector := scope.Actor{UserID: "inspector-1", Role: models.RoleInspector, PrimaryLocationID: locID}
	app := setupApp(t, db, inspector)

	status, created := postJSON(t, app, "POST", "/api/inspections", fiber.Map{
		"location_id":     locID,
		"department":      "Housekeeping",
		"inspection_date": "2026-03-10",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("Failed to create: %d", status)
	}
	id := int(created["id"].(float64))

	status, result := postJSON(t, app, "POST", "/api/inspections/"+itoa(id)+"/status", fiber.Map{"status": models.StatusCompleted})
	if status != fiber.StatusOK {
		t.Fatalf("Expected status 200 completing, got %d: %v", status, result)
	}
	if result["status"] != models.StatusCompleted {
		t.Errorf("Expected completed, got %v", result["status"])
	}

	// The inspector cannot approve; a supervisor can.
	status, _ = postJSON(t, app, "POST", "/api/inspections/"+itoa(id)+"/status", fiber.Map{"status": models.StatusApproved})
	if status != fiber.StatusForbidden {
		t.Errorf("Expected status 403 for inspector approval, got %d", status)
	}

	supervisor := setupApp(t, db, scope.Actor{UserID: "sup-1", Role: models.RoleSupervisor})

	// Deleting with a short acknowledgment fails; a real one succeeds.
	status, _ = postJSON(t, supervisor, "DELETE", "/api/inspections/"+itoa(id), fiber.Map{"acknowledgment": "demasiado corto"})
	if status != fiber.StatusBadRequest {
		t.Errorf("Expected status 400 for short acknowledgment, got %d", status)
	}

	status, result = postJSON(t, supervisor, "DELETE", "/api/inspections/"+itoa(id), fiber.Map{
		"acknowledgment": "Eliminación autorizada por registro duplicado",
	})
	if status != fiber.StatusOK {
		t.Fatalf("Expected status 200 deleting, got %d: %v", status, result)
	}

	status, _ = postJSON(t, app, "GET", "/api/inspections/"+itoa(id), nil)
	if status != fiber.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %d", status)
	}
}

func TestListAndStatsEndpoints(t *testing.T) {
	db := setupTestDB(t)
	locID := createTestLocation(t, db)
	inspector := scope.Actor{UserID: "inspector-1", Role: models.RoleInspector, PrimaryLocationID: locID}
	app := setupApp(t, db, inspector)

	for _, day := range []string{"2026-03-10", "2026-03-11"} {
		status, _ := postJSON(t, app, "POST", "/api/inspections", fiber.Map{
			"location_id":     locID,
			"department":      "Housekeeping",
			"inspection_date": day,
		})
		if status != fiber.StatusCreated {
			t.Fatalf("Failed to seed inspection: %d", status)
		}
	}

	status, result := postJSON(t, app, "GET", "/api/inspections", nil)
	if status != fiber.StatusOK {
		t.Fatalf("Expected status 200 listing, got %d", status)
	}
	list, _ := result["inspections"].([]interface{})
	if len(list) != 2 {
		t.Errorf("Expected 2 inspections, got %d", len(list))
	}
	if result["noAssignedScope"] != false {
		t.Errorf("Expected noAssignedScope false, got %v", result["noAssignedScope"])
	}

	status, result = postJSON(t, app, "GET", "/api/inspections/stats", nil)
	if status != fiber.StatusOK {
		t.Fatalf("Expected status 200 for stats, got %d", status)
	}
	if result["total"].(float64) != 2 {
		t.Errorf("Expected total 2, got %v", result["total"])
	}

	// An unassigned inspector gets the explicit empty-scope flag.
	unassigned := setupApp(t, db, scope.Actor{UserID: "inspector-9", Role: models.RoleInspector})
	status, result = postJSON(t, unassigned, "GET", "/api/inspections", nil)
	if status != fiber.StatusOK {
		t.Fatalf("Expected status 200, got %d", status)
	}
	if result["noAssignedScope"] != true {
		t.Errorf("Expected noAssignedScope true, got %v", result["noAssignedScope"])
	}
}

func TestAttachEvidenceEndpoint(t *testing.T) {
	db := setupTestDB(t)
	locID := createTestLocation(t, db)
	inspector := scope.Actor{UserID: "inspector-1", Role: models.RoleInspector, PrimaryLocationID: locID}
	app := setupApp(t, db, inspector)

	status, created := postJSON(t, app, "POST", "/api/inspections", fiber.Map{
		"location_id":     locID,
		"department":      "Housekeeping",
		"inspection_date": "2026-03-10",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("Failed to create: %d", status)
	}
	id := int(created["id"].(float64))
	areas := created["areas"].([]interface{})
	items := areas[0].(map[string]interface{})["items"].([]interface{})
	itemID := int(items[0].(map[string]interface{})["id"].(float64))

	url := "/api/inspections/" + itoa(id) + "/items/" + itoa(itemID) + "/evidence/1"
	status, result := postJSON(t, app, "PUT", url, fiber.Map{
		"file_name": "foto.jpg", "file_size": 1024, "mime_type": "image/jpeg",
	})
	if status != fiber.StatusOK {
		t.Fatalf("Expected status 200, got %d: %v", status, result)
	}
	evidence := result["evidence"].(map[string]interface{})
	firstPath := evidence["storage_path"].(string)
	if result["replacedPath"] != "" {
		t.Errorf("Expected empty replacedPath on first attach, got %v", result["replacedPath"])
	}

	status, result = postJSON(t, app, "PUT", url, fiber.Map{
		"file_name": "foto2.jpg", "file_size": 2048, "mime_type": "image/jpeg",
	})
	if status != fiber.StatusOK {
		t.Fatalf("Expected status 200 on replace, got %d: %v", status, result)
	}
	if result["replacedPath"] != firstPath {
		t.Errorf("Expected replacedPath %q, got %v", firstPath, result["replacedPath"])
	}

	// Slot 3 does not exist.
	status, _ = postJSON(t, app, "PUT", "/api/inspections/"+itoa(id)+"/items/"+itoa(itemID)+"/evidence/3", fiber.Map{
		"file_name": "foto.jpg", "file_size": 1024, "mime_type": "image/jpeg",
	})
	if status != fiber.StatusBadRequest {
		t.Errorf("Expected status 400 for slot 3, got %d", status)
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
