package category

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func setupApp() *fiber.App {
	parent := 1
	repo := NewInMemoryRepository([]Category{
		{ID: 1, Name: "Balloons", NameUz: "Sharlar", Slug: "balloons"},
		{ID: 2, Name: "Foil balloons", NameUz: "Folga sharlar", Slug: "foil-balloons", ParentID: &parent},
	})
	app := fiber.New()
	NewHandler(NewService(repo)).RegisterPublicRoutes(app)
	return app
}

func TestGetCategories(t *testing.T) {
	app := setupApp()
	res, err := app.Test(httptest.NewRequest("GET", "/api/categories/", nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	var items []Category
	if err := json.NewDecoder(res.Body).Decode(&items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].Slug != "balloons" {
		t.Fatalf("unexpected categories %+v", items)
	}
	if items[1].ParentID == nil || *items[1].ParentID != 1 {
		t.Fatalf("expected parent id on subcategory, got %+v", items[1])
	}
}

func TestGetCategory_NotFound(t *testing.T) {
	app := setupApp()
	res, _ := app.Test(httptest.NewRequest("GET", "/api/categories/99/", nil))
	if res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.StatusCode)
	}
}
