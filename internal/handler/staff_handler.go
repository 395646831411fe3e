package handler

import (
	"github.com/gofiber/fiber/v2"

	"go-retail-ws/internal/model"
	"go-retail-ws/internal/service"
)

type StaffHandler struct {
	staffService service.StaffService
}

func NewStaffHandler(staffService service.StaffService) *StaffHandler {
	return &StaffHandler{staffService: staffService}
}

// CreateStaff handles staff creation
// POST /api/staff
func (h *StaffHandler) CreateStaff(c *fiber.Ctx) error {
	var req service.CreateStaffRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	staff, err := h.staffService.CreateStaff(c.UserContext(), &req, actor(c))
	if err != nil {
		return err
	}
	return created(c, "staff created", staff)
}

// UpdateStaff handles staff updates
// PUT /api/staff/:id
func (h *StaffHandler) UpdateStaff(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req service.UpdateStaffRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	staff, err := h.staffService.UpdateStaff(c.UserContext(), id, &req, actor(c))
	if err != nil {
		return err
	}
	return ok(c, "staff updated", staff)
}

// GetStaff returns all staff
// GET /api/staff
func (h *StaffHandler) GetStaff(c *fiber.Ctx) error {
	staff, err := h.staffService.ListStaff(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, "", staff)
}

// GetStaffMember returns one staff member by ID
// GET /api/staff/:id
func (h *StaffHandler) GetStaffMember(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	staff, err := h.staffService.GetStaff(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, "", staff)
}

// GetPrivileges lists every privilege and the roles granting them
// GET /api/staff/privileges
func (h *StaffHandler) GetPrivileges(c *fiber.Ctx) error {
	roles := map[string][]string{}
	for _, role := range []string{model.RoleAdmin, model.RoleManager, model.RoleCashier} {
		roles[role] = model.PrivilegesFor(role)
	}
	return ok(c, "", fiber.Map{"privileges": model.DefaultPrivileges, "roles": roles})
}
