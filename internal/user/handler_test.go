package user

import (
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// helper to build an app with a simple "bootstrap" middleware that injects a
// jwt.Token into locals when the X-User-ID header is provided.
func makeAppWithUserHandler(uHandler *Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			id, err := strconv.Atoi(v)
			if err == nil {
				claims := jwt.MapClaims{"user_id": id}
				tok := &jwt.Token{Claims: claims}
				c.Locals("user", tok)
			}
		}
		return c.Next()
	})
	uHandler.RegisterPublicRoutes(app)
	uHandler.RegisterProtectedRoutes(app)
	return app
}

func postJSON(t *testing.T, app *fiber.App, url, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("POST", url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	out := map[string]any{}
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res.StatusCode, out
}

func TestRegisterLoginMe(t *testing.T) {
	service := NewService(NewInMemoryRepository(nil), "secret")
	app := makeAppWithUserHandler(NewHandler(service))

	status, body := postJSON(t, app, "/api/auth/register/", `{"username":"aziz","email":"a@example.com","password":"party-time"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", status, body)
	}
	if body["password"] != nil {
		t.Fatalf("password must not be returned: %v", body)
	}

	status, _ = postJSON(t, app, "/api/auth/register/", `{"username":"aziz","password":"party-time"}`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate username, got %d", status)
	}

	status, body = postJSON(t, app, "/api/auth/register/", `{"username":"x","password":"short"}`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload, got %d", status)
	}
	if !strings.Contains(body["detail"].(string), "password") {
		t.Fatalf("expected password in validation detail, got %v", body)
	}

	status, _ = postJSON(t, app, "/api/auth/login/", `{"username":"aziz","password":"wrong-pass"}`)
	if status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", status)
	}

	status, body = postJSON(t, app, "/api/auth/login/", `{"username":"aziz","password":"party-time"}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if tok, _ := body["token"].(string); tok == "" {
		t.Fatalf("expected token in response: %v", body)
	}

	req := httptest.NewRequest("GET", "/api/auth/me/", nil)
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous me, got %d", res.StatusCode)
	}
	req = httptest.NewRequest("GET", "/api/auth/me/", nil)
	req.Header.Set("X-User-ID", "1")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for me, got %d", res.StatusCode)
	}
}

func TestJWTMiddleware_OptionalRoutes(t *testing.T) {
	service := NewService(NewInMemoryRepository([]User{{ID: 5, Username: "staff", IsStaff: true}}), "secret")
	token, err := service.IssueToken(User{ID: 5, Username: "staff"})
	if err != nil {
		t.Fatal(err)
	}

	app := fiber.New()
	app.Use(NewJWTMiddleware("secret", func(c *fiber.Ctx) bool { return c.Path() == "/open" }))
	app.Get("/open", func(c *fiber.Ctx) error {
		if id := OptionalUserID(c); id != nil {
			return c.SendString(strconv.Itoa(*id))
		}
		return c.SendString("anonymous")
	})
	app.Get("/closed", func(c *fiber.Ctx) error { return c.SendString("ok") })

	cases := []struct {
		path, auth string
		status     int
	}{
		{"/open", "", fiber.StatusOK},
		{"/open", "Bearer " + token, fiber.StatusOK},
		{"/open", "Bearer broken", fiber.StatusUnauthorized},
		{"/closed", "", fiber.StatusUnauthorized},
		{"/closed", "Bearer " + token, fiber.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", tc.path, nil)
		if tc.auth != "" {
			req.Header.Set("Authorization", tc.auth)
		}
		res, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		if res.StatusCode != tc.status {
			t.Fatalf("%s with %q: expected %d, got %d", tc.path, tc.auth, tc.status, res.StatusCode)
		}
	}
}

func TestRequireStaff(t *testing.T) {
	repo := NewInMemoryRepository([]User{
		{ID: 1, Username: "customer"},
		{ID: 2, Username: "admin", IsStaff: true},
	})
	service := NewService(repo, "secret")

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			id, _ := strconv.Atoi(v)
			c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": id}})
		}
		return c.Next()
	})
	app.Get("/admin", RequireStaff(service), func(c *fiber.Ctx) error { return c.SendString("ok") })

	for header, want := range map[string]int{"": 401, "1": 403, "2": 200, "9": 403} {
		req := httptest.NewRequest("GET", "/admin", nil)
		if header != "" {
			req.Header.Set("X-User-ID", header)
		}
		res, _ := app.Test(req)
		if res.StatusCode != want {
			t.Fatalf("user %q: expected %d, got %d", header, want, res.StatusCode)
		}
	}
}
