package handler

import (
	"github.com/gofiber/fiber/v2"

	"go-retail-ws/internal/middleware"
	"go-retail-ws/internal/service"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles staff authentication
// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	response, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return ok(c, "login successful", response)
}

// ResetPassword handles password change
// POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req service.ResetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.authService.ResetPassword(c.UserContext(), &req); err != nil {
		return err
	}
	return ok(c, "password updated, please log in again", nil)
}

// Me returns the staff member behind the token
// GET /api/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	session := middleware.SessionFrom(c)
	return ok(c, "", session.Staff.ToResponse())
}
