// Package navigation derives what a signed-in user may open from their
// role and permission flags. All functions are pure.
package navigation

import "vendtrack/models"

// Action identifies a navigable screen or command.
type Action string

const (
	ActionAdminPanel     Action = "adminPanel"
	ActionDashboard      Action = "dashboard"
	ActionIceCreamReport Action = "iceCreamReport"
	ActionFridgeReport   Action = "fridgeReport"
	ActionLogout         Action = "logout"
)

// Item is one toolbar or menu entry.
type Item struct {
	Action Action `json:"action"`
	Label  string `json:"label"`
	Path   string `json:"path,omitempty"`
}

var (
	adminPanel     = Item{Action: ActionAdminPanel, Label: "Admin Paneli", Path: "/admin"}
	dashboard      = Item{Action: ActionDashboard, Label: "Ana Sayfa", Path: "/"}
	iceCreamReport = Item{Action: ActionIceCreamReport, Label: "Dondurma Temizlik", Path: "/new-report"}
	fridgeReport   = Item{Action: ActionFridgeReport, Label: "Taze Dolap Dolum", Path: "/new-fridge-report"}
	logout         = Item{Action: ActionLogout, Label: "Çıkış Yap"}
)

var roleLabels = map[models.UserRole]string{
	models.RoleAdmin:    "Admin",
	models.RoleRouteman: "Operasyon Sorumlusu",
	models.RoleOperator: "Operasyon Yetkilisi",
	models.RoleDealer:   "Bayi",
	models.RoleViewer:   "İzleyici",
}

// RoleLabel returns the display name of a role; unknown roles show as-is.
func RoleLabel(role models.UserRole) string {
	if label, ok := roleLabels[role]; ok {
		return label
	}
	return string(role)
}

// CanSubmit reports whether the role may submit the given report form.
// Routemen submit both forms; operators only those their flags allow.
func CanSubmit(role models.UserRole, perms models.Permissions, t models.ReportType) bool {
	switch role {
	case models.RoleRouteman:
		return t.Valid()
	case models.RoleOperator:
		return perms.Allows(t)
	}
	return false
}

func formItems(role models.UserRole, perms models.Permissions) []Item {
	var items []Item
	if CanSubmit(role, perms, models.ReportTypeIceCream) {
		items = append(items, iceCreamReport)
	}
	if CanSubmit(role, perms, models.ReportTypeFridge) {
		items = append(items, fridgeReport)
	}
	return items
}

// ToolbarItems returns the toolbar entries: the admin panel for admins, the
// dashboard for everyone else, then the report forms the user may submit.
func ToolbarItems(role models.UserRole, perms models.Permissions) []Item {
	items := []Item{}
	switch role {
	case models.RoleAdmin:
		items = append(items, adminPanel)
	case models.RoleRouteman, models.RoleOperator, models.RoleDealer, models.RoleViewer:
		items = append(items, dashboard)
	}
	return append(items, formItems(role, perms)...)
}

// MenuItems returns the user menu: admin panel for admins, the same form
// entries as the toolbar, and logout for everyone.
func MenuItems(role models.UserRole, perms models.Permissions) []Item {
	items := []Item{}
	if role == models.RoleAdmin {
		items = append(items, adminPanel)
	}
	items = append(items, formItems(role, perms)...)
	return append(items, logout)
}

// AllowedActions is the union of toolbar and menu actions, in first-seen order.
func AllowedActions(role models.UserRole, perms models.Permissions) []Action {
	seen := map[Action]bool{}
	var actions []Action
	for _, item := range append(ToolbarItems(role, perms), MenuItems(role, perms)...) {
		if !seen[item.Action] {
			seen[item.Action] = true
			actions = append(actions, item.Action)
		}
	}
	return actions
}

// Allows reports whether action is available to the user.
func Allows(role models.UserRole, perms models.Permissions, action Action) bool {
	for _, a := range AllowedActions(role, perms) {
		if a == action {
			return true
		}
	}
	return false
}

// View is the navigation payload for one user.
type View struct {
	Role      models.UserRole `json:"role"`
	RoleLabel string          `json:"roleLabel"`
	Name      string          `json:"name"`
	Toolbar   []Item          `json:"toolbar"`
	Menu      []Item          `json:"menu"`
	Actions   []Action        `json:"actions"`
}

// For builds the navigation view for a user.
func For(user *models.User) View {
	return View{
		Role:      user.Role,
		RoleLabel: RoleLabel(user.Role),
		Name:      user.Name,
		Toolbar:   ToolbarItems(user.Role, user.Permissions),
		Menu:      MenuItems(user.Role, user.Permissions),
		Actions:   AllowedActions(user.Role, user.Permissions),
	}
}
