package moderation

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/wichananm65/partyland-backend/internal/order"
	"github.com/wichananm65/partyland-backend/internal/tguser"
	"github.com/wichananm65/partyland-backend/internal/user"
)

func makeAppWithModerationHandler(h *Handler) *fiber.App {
	app := fiber.New()
	h.RegisterPublicRoutes(app)
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
	h.RegisterProtectedRoutes(app)
	return app
}

func newHandlerEnv(t *testing.T) (*env, *fiber.App, string) {
	t.Helper()
	e := newEnv(t)
	if _, err := e.tgusers.UpdateProfile(t.Context(), 901, tguser.ProfileUpdate{}); err != nil {
		t.Fatalf("seed telegram user: %v", err)
	}
	users := user.NewService(user.NewInMemoryRepository([]user.User{
		{ID: 3, Username: "moderator", IsStaff: true},
		{ID: 4, Username: "customer"},
	}), "secret")
	dir := t.TempDir()
	h := NewHandler(e.svc, e.orders, e.payments, e.tgusers, users, dir)
	return e, makeAppWithModerationHandler(h), dir
}

func send(t *testing.T, app *fiber.App, method, url, userID, body string) (map[string]any, int) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	data, _ := io.ReadAll(res.Body)
	out := map[string]any{}
	_ = json.Unmarshal(data, &out)
	return out, res.StatusCode
}

func TestSubmitProofHandler_JSON(t *testing.T) {
	e, app, _ := newHandlerEnv(t)
	o, _ := e.placeOrder(t, tgID(555), order.StatusAwaitingProof, time.Now().Add(time.Hour))

	body, status := send(t, app, "POST", "/api/telegram/payment/proof/", "",
		`{"order_id":`+strconv.Itoa(o.ID)+`,"telegram_user_id":555,"telegram_file_id":"F1","message_id":"77"}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, body)
	}
	if body["status"] != "under_review" || body["order_status"] != "under_review" {
		t.Fatalf("unexpected response %v", body)
	}

	body, status = send(t, app, "POST", "/api/telegram/payment/proof/", "", `{"order_id":1,"telegram_user_id":555}`)
	if status != fiber.StatusBadRequest || body["detail"] != "Provide image upload or telegram_file_id." {
		t.Fatalf("unexpected %d %v", status, body)
	}
}

// pngImage starts with the PNG signature followed by an IHDR chunk header.
var pngImage = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func uploadProof(t *testing.T, app *fiber.App, fields map[string]string, filename, contentType string, content []byte) (map[string]any, int) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write(content)
	_ = w.Close()

	req := httptest.NewRequest("POST", "/api/telegram/payment/proof/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	data, _ := io.ReadAll(res.Body)
	out := map[string]any{}
	_ = json.Unmarshal(data, &out)
	return out, res.StatusCode
}

func storedProofs(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	files, err := os.ReadDir(filepath.Join(dir, ProofDir))
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("read upload dir: %v", err)
	}
	return files
}

func TestSubmitProofHandler_ImageUpload(t *testing.T) {
	e, app, dir := newHandlerEnv(t)
	o, p := e.placeOrder(t, nil, order.StatusAwaitingProof, time.Now().Add(time.Hour))

	fields := map[string]string{"order_id": strconv.Itoa(o.ID), "telegram_user_id": "555"}
	body, status := uploadProof(t, app, fields, "check.jpeg", "application/octet-stream", pngImage)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, body)
	}

	files := storedProofs(t, dir)
	if len(files) != 1 || filepath.Ext(files[0].Name()) != ".png" {
		t.Fatalf("expected one stored .png image, got %v", files)
	}
	d, err := e.payments.Detail(t.Context(), p, "", true)
	if err != nil || len(d.Proofs) != 1 || d.Proofs[0].ImageURL == nil {
		t.Fatalf("expected proof with image url, got %+v (%v)", d.Proofs, err)
	}
	if *d.Proofs[0].ImageURL != "/uploads/"+ProofDir+"/"+files[0].Name() {
		t.Fatalf("unexpected image url %s", *d.Proofs[0].ImageURL)
	}
}

func TestSubmitProofHandler_RejectsNonImageContent(t *testing.T) {
	e, app, dir := newHandlerEnv(t)
	o, _ := e.placeOrder(t, nil, order.StatusAwaitingProof, time.Now().Add(time.Hour))

	fields := map[string]string{"order_id": strconv.Itoa(o.ID), "telegram_user_id": "555"}
	body, status := uploadProof(t, app, fields, "evil.html", "image/png", []byte("<html><script>alert(1)</script></html>"))
	if status != fiber.StatusBadRequest || body["detail"] != "Upload a valid image." {
		t.Fatalf("expected 400 for html content, got %d %v", status, body)
	}
	if files := storedProofs(t, dir); len(files) != 0 {
		t.Fatalf("expected nothing stored, got %v", files)
	}
}

func TestSubmitProofHandler_RemovesUnusedImages(t *testing.T) {
	e, app, dir := newHandlerEnv(t)
	owned, _ := e.placeOrder(t, tgID(777), order.StatusAwaitingProof, time.Now().Add(time.Hour))
	o, _ := e.placeOrder(t, tgID(555), order.StatusAwaitingProof, time.Now().Add(time.Hour))

	body, status := uploadProof(t, app, map[string]string{
		"order_id": strconv.Itoa(owned.ID), "telegram_user_id": "555",
	}, "check.png", "image/png", pngImage)
	if status != fiber.StatusNotFound || body["detail"] != "Order not found for this user." {
		t.Fatalf("expected 404 for another user's order, got %d %v", status, body)
	}
	if files := storedProofs(t, dir); len(files) != 0 {
		t.Fatalf("expected rejected upload to be removed, got %v", files)
	}

	fields := map[string]string{"order_id": strconv.Itoa(o.ID), "telegram_user_id": "555", "message_id": "41"}
	if body, status := uploadProof(t, app, fields, "check.png", "image/png", pngImage); status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d %v", status, body)
	}
	if body, status := uploadProof(t, app, fields, "check.png", "image/png", pngImage); status != fiber.StatusOK {
		t.Fatalf("expected 200 for resubmission, got %d %v", status, body)
	}
	if files := storedProofs(t, dir); len(files) != 1 {
		t.Fatalf("expected only the first upload to be kept, got %v", files)
	}
}

func TestTelegramApproveHandler(t *testing.T) {
	e, app, _ := newHandlerEnv(t)
	_, p := e.placeOrder(t, tgID(555), order.StatusUnderReview, time.Now().Add(time.Hour))
	url := "/api/telegram/payment/" + strconv.Itoa(p.ID) + "/approve/"

	tests := []struct {
		name   string
		url    string
		body   string
		status int
		detail string
	}{
		{"unknown payment", "/api/telegram/payment/999/approve/", `{"telegram_admin_id":900}`, fiber.StatusNotFound, "payment not found"},
		{"missing admin", url, `{}`, fiber.StatusBadRequest, "telegram_admin_id is required."},
		{"unknown admin", url, `{"telegram_admin_id":12345}`, fiber.StatusNotFound, "admin user not found"},
		{"not an admin", url, `{"telegram_admin_id":901}`, fiber.StatusForbidden, "user is not an admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, status := send(t, app, "POST", tt.url, "", tt.body)
			if status != tt.status || body["detail"] != tt.detail {
				t.Fatalf("expected %d %q, got %d %v", tt.status, tt.detail, status, body)
			}
		})
	}

	body, status := send(t, app, "POST", url, "", `{"telegram_admin_id":900}`)
	if status != fiber.StatusOK || body["status"] != "paid" || body["order_status"] != "paid" {
		t.Fatalf("unexpected %d %v", status, body)
	}
	body, status = send(t, app, "POST", url, "", `{"telegram_admin_id":900}`)
	if status != fiber.StatusBadRequest || body["detail"] != "Payment already approved." {
		t.Fatalf("unexpected %d %v", status, body)
	}
}

func TestTelegramRejectHandler_NeedsReason(t *testing.T) {
	e, app, _ := newHandlerEnv(t)
	_, p := e.placeOrder(t, tgID(555), order.StatusUnderReview, time.Now().Add(time.Hour))
	url := "/api/telegram/payment/" + strconv.Itoa(p.ID) + "/reject/"

	body, status := send(t, app, "POST", url, "", `{"telegram_admin_id":900}`)
	if status != fiber.StatusBadRequest || body["detail"] != "Reason is required for rejection." {
		t.Fatalf("unexpected %d %v", status, body)
	}
	body, status = send(t, app, "POST", url, "", `{"telegram_admin_id":900,"reason":"wrong amount"}`)
	if status != fiber.StatusOK || body["reason"] != "wrong amount" || body["order_status"] != "rejected" {
		t.Fatalf("unexpected %d %v", status, body)
	}
}

func TestAdminPaymentRoutes(t *testing.T) {
	e, app, _ := newHandlerEnv(t)
	o, p := e.placeOrder(t, tgID(555), order.StatusAwaitingProof, time.Now().Add(time.Hour))
	e.placeOrder(t, tgID(556), order.StatusAwaitingProof, time.Now().Add(time.Hour))

	if _, status := send(t, app, "GET", "/api/admin/payments/", "4", ""); status != fiber.StatusForbidden {
		t.Fatalf("expected 403 for a customer, got %d", status)
	}
	if _, status := send(t, app, "GET", "/api/admin/payments/", "", ""); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous, got %d", status)
	}

	body, status := send(t, app, "GET", "/api/admin/payments/?status=bogus", "3", "")
	if status != fiber.StatusBadRequest || body["detail"] != "Unknown payment status: bogus" {
		t.Fatalf("unexpected %d %v", status, body)
	}

	if _, err := e.svc.SubmitProof(t.Context(), ProofSubmission{OrderID: o.ID, TelegramUserID: 555, TelegramFileID: "F1"}); err != nil {
		t.Fatalf("submit proof: %v", err)
	}
	req := httptest.NewRequest("GET", "/api/admin/payments/", nil)
	req.Header.Set("X-User-ID", "3")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var list []map[string]any
	data, _ := io.ReadAll(res.Body)
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatalf("decode: %v (%s)", err, data)
	}
	if len(list) != 1 || int(list[0]["id"].(float64)) != p.ID || list[0]["order_status"] != "under_review" {
		t.Fatalf("unexpected list %s", data)
	}

	body, status = send(t, app, "GET", "/api/admin/payments/"+strconv.Itoa(p.ID)+"/", "3", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if _, ok := body["payment"].(map[string]any); !ok {
		t.Fatalf("missing payment in %v", body)
	}
	orderBody, _ := body["order"].(map[string]any)
	if history, _ := orderBody["status_history"].([]any); len(history) != 1 {
		t.Fatalf("expected one history row, got %v", orderBody["status_history"])
	}

	body, status = send(t, app, "POST", "/api/admin/payments/"+strconv.Itoa(p.ID)+"/approve/", "3", "")
	if status != fiber.StatusOK || body["status"] != "paid" {
		t.Fatalf("unexpected %d %v", status, body)
	}
	stored, err := e.payments.Get(t.Context(), p.ID)
	if err != nil || stored.ReviewedBy == nil || *stored.ReviewedBy != 3 {
		t.Fatalf("expected reviewer 3, got %+v (%v)", stored.ReviewedBy, err)
	}
}

func TestAdminCancelHandler(t *testing.T) {
	e, app, _ := newHandlerEnv(t)
	o, _ := e.placeOrder(t, tgID(555), order.StatusAwaitingProof, time.Now().Add(time.Hour))
	url := "/api/admin/orders/" + strconv.Itoa(o.ID) + "/cancel/"

	if _, status := send(t, app, "POST", url, "3", `{}`); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 without reason, got %d", status)
	}
	body, status := send(t, app, "POST", url, "3", `{"reason":"duplicate order"}`)
	if status != fiber.StatusOK || body["status"] != "canceled" || body["reason"] != "duplicate order" {
		t.Fatalf("unexpected %d %v", status, body)
	}
	if _, status := send(t, app, "POST", "/api/admin/orders/999/cancel/", "3", `{"reason":"x"}`); status != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}
