package product

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func intPtr(v int) *int { return &v }

func setupApp() *fiber.App {
	repo := NewInMemoryRepository([]Product{
		{ID: 1, Title: "Red balloon", TitleUz: "Qizil shar", Price: decimal.NewFromInt(12000), CategoryID: intPtr(1)},
		{ID: 2, Title: "Birthday candle", TitleUz: "Sham", Price: decimal.NewFromInt(125000), CategoryID: intPtr(2)},
		{ID: 3, Title: "Blue balloon", TitleUz: "Ko'k shar", Price: decimal.NewFromInt(13000), CategoryID: intPtr(1)},
	})
	app := fiber.New()
	NewHandler(NewService(repo)).RegisterPublicRoutes(app)
	return app
}

func TestGetProducts_Filters(t *testing.T) {
	app := setupApp()

	cases := []struct {
		url  string
		want int
	}{
		{"/api/products/", 3},
		{"/api/products/?category=1", 2},
		{"/api/products/?search=balloon", 2},
		{"/api/products/?search=SHAM", 1},
		{"/api/products/?category=2&search=balloon", 0},
	}
	for _, tc := range cases {
		res, err := app.Test(httptest.NewRequest("GET", tc.url, nil))
		if err != nil {
			t.Fatal(err)
		}
		var items []productResponse
		if err := json.NewDecoder(res.Body).Decode(&items); err != nil {
			t.Fatalf("%s: %v", tc.url, err)
		}
		if len(items) != tc.want {
			t.Fatalf("%s: expected %d products, got %d", tc.url, tc.want, len(items))
		}
	}
}

func TestGetProduct(t *testing.T) {
	app := setupApp()

	res, _ := app.Test(httptest.NewRequest("GET", "/api/products/2/", nil))
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	var p productResponse
	if err := json.NewDecoder(res.Body).Decode(&p); err != nil {
		t.Fatal(err)
	}
	if p.FormattedPrice != "125 000 сум" {
		t.Fatalf("unexpected formatted price %q", p.FormattedPrice)
	}

	res, _ = app.Test(httptest.NewRequest("GET", "/api/products/42/", nil))
	if res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.StatusCode)
	}
}
