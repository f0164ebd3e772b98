package moderation

import (
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wichananm65/partyland-backend/internal/apperror"
	"github.com/wichananm65/partyland-backend/internal/logger"
	"github.com/wichananm65/partyland-backend/internal/order"
	"github.com/wichananm65/partyland-backend/internal/payment"
	"github.com/wichananm65/partyland-backend/internal/tguser"
	"github.com/wichananm65/partyland-backend/internal/user"
)

// ProofDir is the folder under the upload root holding proof images.
const ProofDir = "payment_proofs"

var proofImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif", "image/heic"}

type Handler struct {
	service   *Service
	orders    *order.Service
	payments  *payment.Service
	tgusers   *tguser.Service
	users     *user.Service
	uploadDir string
}

func NewHandler(s *Service, orders *order.Service, payments *payment.Service, tgusers *tguser.Service,
	users *user.Service, uploadDir string) *Handler {
	return &Handler{
		service:   s,
		orders:    orders,
		payments:  payments,
		tgusers:   tgusers,
		users:     users,
		uploadDir: uploadDir,
	}
}

// RegisterPublicRoutes registers the endpoints the bot calls.
func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/telegram/payment/proof/", h.submitProof)
	app.Post("/api/telegram/order/remind/", h.remindOrder)
	app.Post("/api/telegram/payment/:id<int>/approve/", h.telegramApprove)
	app.Post("/api/telegram/payment/:id<int>/reject/", h.telegramReject)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	staff := user.RequireStaff(h.users)
	app.Get("/api/admin/payments/", staff, h.listPayments)
	app.Get("/api/admin/payments/:id<int>/", staff, h.getPayment)
	app.Post("/api/admin/payments/:id<int>/approve/", staff, h.adminApprove)
	app.Post("/api/admin/payments/:id<int>/reject/", staff, h.adminReject)
	app.Post("/api/admin/orders/:id<int>/cancel/", staff, h.adminCancel)
}

type proofRequest struct {
	OrderID        int    `json:"order_id" form:"order_id"`
	PaymentID      int    `json:"payment_id" form:"payment_id"`
	TelegramUserID int64  `json:"telegram_user_id" form:"telegram_user_id"`
	TelegramFileID string `json:"telegram_file_id" form:"telegram_file_id"`
	MessageID      string `json:"message_id" form:"message_id"`
	Comment        string `json:"comment" form:"comment"`
}

type remindRequest struct {
	OrderID        int   `json:"order_id"`
	TelegramUserID int64 `json:"telegram_user_id"`
}

type decisionRequest struct {
	TelegramAdminID int64  `json:"telegram_admin_id"`
	Reason          string `json:"reason"`
}

func (h *Handler) submitProof(c *fiber.Ctx) error {
	payload := new(proofRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperror.Respond(c, apperror.Validation("invalid request body"))
	}
	in := ProofSubmission{
		OrderID:        payload.OrderID,
		PaymentID:      payload.PaymentID,
		TelegramUserID: payload.TelegramUserID,
		TelegramFileID: payload.TelegramFileID,
		MessageID:      payload.MessageID,
		Comment:        payload.Comment,
	}
	var stored string
	if fh, err := c.FormFile("image"); err == nil {
		in.Image, stored, err = h.storeProofImage(c, fh)
		if err != nil {
			return apperror.Respond(c, err)
		}
	}

	res, err := h.service.SubmitProof(c.UserContext(), in)
	if stored != "" && (err != nil || res.ExistingProof) {
		if rmErr := os.Remove(stored); rmErr != nil {
			logger.Error(c.UserContext(), "Failed to remove unused proof image", rmErr, zap.String("path", stored))
		}
	}
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(res)
}

// storeProofImage writes the upload under ProofDir when its content is one
// of proofImageTypes. The file extension follows the detected type. It
// returns the path relative to the upload root and the path on disk.
func (h *Handler) storeProofImage(c *fiber.Ctx, fh *multipart.FileHeader) (string, string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", "", apperror.Validation("Upload a valid image.")
	}
	mtype, err := mimetype.DetectReader(f)
	f.Close()
	if err != nil || !mimetype.EqualsAny(mtype.String(), proofImageTypes...) {
		return "", "", apperror.Validation("Upload a valid image.")
	}

	dir := filepath.Join(h.uploadDir, ProofDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	name := uuid.NewString() + mtype.Extension()
	path := filepath.Join(dir, name)
	if err := c.SaveFile(fh, path); err != nil {
		return "", "", err
	}
	return ProofDir + "/" + name, path, nil
}

func (h *Handler) remindOrder(c *fiber.Ctx) error {
	payload := new(remindRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperror.Respond(c, apperror.Validation("invalid request body"))
	}
	res, err := h.service.Remind(c.UserContext(), payload.OrderID, payload.TelegramUserID)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(res)
}

// telegramDecision resolves the payment and checks the Telegram admin in
// the order the bot expects its errors.
func (h *Handler) telegramDecision(c *fiber.Ctx, needReason bool) (int, *decisionRequest, error) {
	id, err := c.ParamsInt("id")
	if err != nil {
		return 0, nil, apperror.Validation("invalid id")
	}
	ctx := c.UserContext()
	if _, err := h.payments.Get(ctx, id); err != nil {
		return 0, nil, err
	}
	payload := new(decisionRequest)
	if len(c.Body()) > 0 {
		if err := c.BodyParser(payload); err != nil {
			return 0, nil, apperror.Validation("invalid request body")
		}
	}
	if payload.TelegramAdminID == 0 {
		return 0, nil, apperror.Validation("telegram_admin_id is required.")
	}
	if needReason && strings.TrimSpace(payload.Reason) == "" {
		return 0, nil, apperror.Validation("Reason is required for rejection.")
	}
	if _, err := h.tgusers.RequireAdmin(ctx, payload.TelegramAdminID); err != nil {
		return 0, nil, err
	}
	logger.Info(ctx, "Telegram payment decision",
		zap.Int("payment_id", id),
		zap.Int64("telegram_admin_id", payload.TelegramAdminID),
		zap.Bool("reject", needReason))
	return id, payload, nil
}

func (h *Handler) telegramApprove(c *fiber.Ctx) error {
	id, _, err := h.telegramDecision(c, false)
	if err != nil {
		return apperror.Respond(c, err)
	}
	res, err := h.service.Approve(c.UserContext(), id, nil)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(res)
}

func (h *Handler) telegramReject(c *fiber.Ctx) error {
	id, payload, err := h.telegramDecision(c, true)
	if err != nil {
		return apperror.Respond(c, err)
	}
	res, err := h.service.Reject(c.UserContext(), id, nil, payload.Reason)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(res)
}

func (h *Handler) listPayments(c *fiber.Ctx) error {
	status := string(payment.StatusUnderReview)
	if c.Context().QueryArgs().Has("status") {
		status = c.Query("status")
	}
	ctx := c.UserContext()
	list, err := h.payments.ListByStatus(ctx, status)
	if err != nil {
		return apperror.Respond(c, err)
	}
	out := make([]payment.Detail, 0, len(list))
	for _, p := range list {
		o, err := h.orders.Get(ctx, p.OrderID)
		if err != nil {
			return apperror.Respond(c, err)
		}
		d, err := h.payments.Detail(ctx, p, string(o.Status), false)
		if err != nil {
			return apperror.Respond(c, err)
		}
		out = append(out, d)
	}
	return c.JSON(out)
}

func (h *Handler) getPayment(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return apperror.Respond(c, apperror.Validation("invalid id"))
	}
	ctx := c.UserContext()
	p, err := h.payments.Get(ctx, id)
	if err != nil {
		return apperror.Respond(c, err)
	}
	o, err := h.orders.Get(ctx, p.OrderID)
	if err != nil {
		return apperror.Respond(c, err)
	}
	pd, err := h.payments.Detail(ctx, p, string(o.Status), true)
	if err != nil {
		return apperror.Respond(c, err)
	}
	od, err := h.orders.Detail(ctx, o, h.payments, true)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"payment": pd, "order": od})
}

func (h *Handler) adminApprove(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return apperror.Respond(c, apperror.Validation("invalid id"))
	}
	reviewer := user.OptionalUserID(c)
	res, err := h.service.Approve(c.UserContext(), id, reviewer)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(res)
}

func (h *Handler) adminReject(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return apperror.Respond(c, apperror.Validation("invalid id"))
	}
	payload := new(decisionRequest)
	if len(c.Body()) > 0 {
		if err := c.BodyParser(payload); err != nil {
			return apperror.Respond(c, apperror.Validation("invalid request body"))
		}
	}
	ctx := c.UserContext()
	if _, err := h.payments.Get(ctx, id); err != nil {
		return apperror.Respond(c, err)
	}
	res, err := h.service.Reject(ctx, id, user.OptionalUserID(c), payload.Reason)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(res)
}

func (h *Handler) adminCancel(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return apperror.Respond(c, apperror.Validation("invalid id"))
	}
	payload := new(decisionRequest)
	if len(c.Body()) > 0 {
		if err := c.BodyParser(payload); err != nil {
			return apperror.Respond(c, apperror.Validation("invalid request body"))
		}
	}
	res, err := h.service.Cancel(c.UserContext(), id, user.OptionalUserID(c), payload.Reason)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(res)
}
