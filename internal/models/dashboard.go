package models

// Dashboard names one of the guarded back-office panels.
type Dashboard string

const (
	DashboardAdmin         Dashboard = "admin"
	DashboardUsuario       Dashboard = "usuario"
	DashboardAdministrador Dashboard = "administrador"
	DashboardComercial     Dashboard = "comercial"
)

// AllDashboards lists every panel in menu order.
var AllDashboards = []Dashboard{DashboardAdmin, DashboardUsuario, DashboardAdministrador, DashboardComercial}

var dashboardRoles = map[Dashboard][]Role{
	DashboardAdmin:         {RoleAdmin, RoleSuperadmin},
	DashboardUsuario:       PublicRoles,
	DashboardAdministrador: {RoleAdministrador},
	DashboardComercial:     {RoleComercial},
}

// AcceptedRoles returns the roles allowed into d. Unknown dashboards accept nothing.
func (d Dashboard) AcceptedRoles() []Role {
	return dashboardRoles[d]
}

// AllowsAdminEmail reports whether an allow-listed email opens d without a role.
func (d Dashboard) AllowsAdminEmail() bool {
	return d == DashboardAdmin
}

// Accepts reports whether r opens d.
func (d Dashboard) Accepts(r Role) bool {
	return containsRole(d.AcceptedRoles(), r)
}
