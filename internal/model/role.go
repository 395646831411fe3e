package model

// Role codes
const (
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
	RoleCashier = "CASHIER"
)

func ValidRole(code string) bool {
	_, ok := rolePrivileges[code]
	return ok
}

// Privilege represents a permission granted through a role
type Privilege struct {
	Code string `json:"code"` // e.g., "product:create"
	Name string `json:"name"` // e.g., "Create Product"
}

const (
	PrivStaffView       = "staff:view"
	PrivStaffManage     = "staff:manage"
	PrivProductView     = "product:view"
	PrivProductManage   = "product:manage"
	PrivInventoryView   = "inventory:view"
	PrivInventoryAdjust = "inventory:adjust"
	PrivCustomerView    = "customer:view"
	PrivCustomerManage  = "customer:manage"
	PrivOrderView       = "order:view"
	PrivOrderCreate     = "order:create"
	PrivOrderUpdate     = "order:update"
	PrivReturnView      = "return:view"
	PrivReturnCreate    = "return:create"
	PrivReturnProcess   = "return:process"
	PrivFinancialView   = "financial:view"
	PrivFinancialRecord = "financial:record"
	PrivFinancialManage = "financial:manage"
	PrivDashboardView   = "dashboard:view"
)

// DefaultPrivileges lists every privilege known to the system
var DefaultPrivileges = []Privilege{
	{Code: PrivStaffView, Name: "View Staff"},
	{Code: PrivStaffManage, Name: "Manage Staff"},
	{Code: PrivProductView, Name: "View Product"},
	{Code: PrivProductManage, Name: "Manage Product"},
	{Code: PrivInventoryView, Name: "View Inventory"},
	{Code: PrivInventoryAdjust, Name: "Adjust Inventory"},
	{Code: PrivCustomerView, Name: "View Customer"},
	{Code: PrivCustomerManage, Name: "Manage Customer"},
	{Code: PrivOrderView, Name: "View Order"},
	{Code: PrivOrderCreate, Name: "Create Order"},
	{Code: PrivOrderUpdate, Name: "Update Order"},
	{Code: PrivReturnView, Name: "View Return"},
	{Code: PrivReturnCreate, Name: "Create Return"},
	{Code: PrivReturnProcess, Name: "Process Return"},
	{Code: PrivFinancialView, Name: "View Financials"},
	{Code: PrivFinancialRecord, Name: "Record Transaction"},
	{Code: PrivFinancialManage, Name: "Manage Accounts and Expenses"},
	{Code: PrivDashboardView, Name: "View Dashboard"},
}

var rolePrivileges = map[string][]string{
	RoleAdmin: allPrivilegeCodes(),
	RoleManager: {
		PrivStaffView,
		PrivProductView, PrivProductManage,
		PrivInventoryView, PrivInventoryAdjust,
		PrivCustomerView, PrivCustomerManage,
		PrivOrderView, PrivOrderCreate, PrivOrderUpdate,
		PrivReturnView, PrivReturnCreate, PrivReturnProcess,
		PrivFinancialView, PrivFinancialRecord, PrivFinancialManage,
		PrivDashboardView,
	},
	RoleCashier: {
		PrivProductView,
		PrivInventoryView,
		PrivCustomerView, PrivCustomerManage,
		PrivOrderView, PrivOrderCreate,
		PrivReturnView, PrivReturnCreate,
		PrivFinancialRecord,
		PrivDashboardView,
	},
}

func allPrivilegeCodes() []string {
	codes := make([]string, len(DefaultPrivileges))
	for i, p := range DefaultPrivileges {
		codes[i] = p.Code
	}
	return codes
}

// PrivilegesFor returns a copy of the privilege codes of role.
func PrivilegesFor(role string) []string {
	codes := rolePrivileges[role]
	out := make([]string, len(codes))
	copy(out, codes)
	return out
}
