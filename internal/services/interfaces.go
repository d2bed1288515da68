package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"ecoaceite/internal/finance"
	"ecoaceite/internal/models"
	"ecoaceite/internal/pagination"
)

// RegisterInput holds the fields accepted at self-registration.
type RegisterInput struct {
	Email         string
	Password      string
	Nombre        string
	Role          models.Role
	Telefono      string
	Direccion     string
	Distrito      string
	CodigoPostal  string
	NumViviendas  int
	NombreEntidad string
}

// ProfileUpdate holds optional profile changes; nil fields are left untouched.
type ProfileUpdate struct {
	Nombre        *string
	Telefono      *string
	Direccion     *string
	Distrito      *string
	CodigoPostal  *string
	NumViviendas  *int
	NombreEntidad *string
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(input RegisterInput) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
	ClearRefreshTokenHash(userID string) error
	UpdateProfile(userID string, update ProfileUpdate) (*models.User, error)
	EnsureExternalUser(id Identity, nombre, provider string) (*models.User, error)
	ListUsers(page pagination.PageRequest, role *models.Role) (*pagination.PageResponse[models.User], error)
	ChangeRole(actorRole models.Role, userID string, role models.Role) (*models.User, error)
	SetActive(userID string, active bool) (*models.User, error)
	SetEmailVerified(userID string, verified bool) (*models.User, error)
	GrantRoleByEmail(email string, role models.Role) (*models.User, error)
}

// RoleSource names the lookup step that produced a role.
type RoleSource string

const (
	SourceUsers         RoleSource = "users"
	SourceUsuariosUID   RoleSource = "usuarios_uid"
	SourceUsuariosEmail RoleSource = "usuarios_email"
	SourceAdminEmail    RoleSource = "admin_email"
)

// Identity is the authenticated session as role resolution sees it.
// EmailVerified is set when the identity provider vouched for Email.
type Identity struct {
	UID           string
	Email         string
	EmailVerified bool
}

// RoleMatch is the outcome of a successful role resolution. AdminEmail
// reports a proven email on the admin allow-list.
type RoleMatch struct {
	Role       models.Role `json:"role"`
	Source     RoleSource  `json:"source"`
	AdminEmail bool        `json:"admin_email"`
}

// RoleResolver decides which role a session holds.
type RoleResolver interface {
	Resolve(id Identity, accepted []models.Role) (*RoleMatch, error)
	ResolveDashboard(id Identity, dashboard models.Dashboard) (*RoleMatch, error)
}

// UsuarioServicer manages the secondary profile collection.
type UsuarioServicer interface {
	CreateUsuario(uid, email, nombre string, role models.Role) (*models.Usuario, error)
	ListUsuarios(page pagination.PageRequest) (*pagination.PageResponse[models.Usuario], error)
	DeleteUsuario(id string) error
}

// FinanceFilter holds optional filter parameters for listing income and expense records.
type FinanceFilter struct {
	Estado     string
	ProyectoID string
	Year       int
	Range      pagination.DateRange
}

// IngresoInput holds the editable fields of an income record.
type IngresoInput struct {
	Concepto      string
	Cantidad      decimal.Decimal
	IVA           decimal.Decimal
	Fecha         time.Time
	Cliente       string
	NumeroFactura string
	Estado        models.IngresoEstado
	Categoria     string
	Origen        string
	ProyectoID    string
}

// IngresoServicer defines the contract for income records.
type IngresoServicer interface {
	CreateIngreso(actorID string, input IngresoInput) (*models.Ingreso, error)
	GetIngresoByID(id string) (*models.Ingreso, error)
	ListIngresos(page pagination.PageRequest, filter FinanceFilter) (*pagination.PageResponse[models.Ingreso], error)
	AllIngresos(filter FinanceFilter) ([]models.Ingreso, error)
	UpdateIngreso(id string, input IngresoInput) (*models.Ingreso, error)
	DeleteIngreso(id string) error
	MarkCobrada(ctx context.Context, id string, at time.Time) (*models.Ingreso, error)
	ListPendingIngresos() ([]models.Ingreso, error)
}

// GastoInput holds the editable fields of an expense record.
type GastoInput struct {
	Concepto      string
	Cantidad      decimal.Decimal
	IVA           decimal.Decimal
	Fecha         time.Time
	Proveedor     string
	NumeroFactura string
	Estado        models.GastoEstado
	Categoria     string
	Tipo          string
	ProyectoID    string
}

// GastoServicer defines the contract for expense records.
type GastoServicer interface {
	CreateGasto(actorID string, input GastoInput) (*models.Gasto, error)
	GetGastoByID(id string) (*models.Gasto, error)
	ListGastos(page pagination.PageRequest, filter FinanceFilter) (*pagination.PageResponse[models.Gasto], error)
	AllGastos(filter FinanceFilter) ([]models.Gasto, error)
	UpdateGasto(id string, input GastoInput) (*models.Gasto, error)
	DeleteGasto(id string) error
	MarkPagada(id string, at time.Time) (*models.Gasto, error)
	ListPendingGastos() ([]models.Gasto, error)
}

// ProjectInput holds the editable fields of a project.
type ProjectInput struct {
	Nombre      string
	Cliente     string
	Descripcion string
	Presupuesto decimal.Decimal
	FechaInicio time.Time
	FechaFin    *time.Time
	Estado      models.ProjectEstado
}

// ProjectServicer defines the contract for projects.
type ProjectServicer interface {
	CreateProject(input ProjectInput) (*models.Project, error)
	GetProjectByID(id string) (*models.Project, error)
	ListProjects(page pagination.PageRequest, estado *models.ProjectEstado) (*pagination.PageResponse[models.Project], error)
	UpdateProject(id string, input ProjectInput) (*models.Project, error)
	DeleteProject(id string) error
	GetProjectFinancials(id string) (*finance.ProjectFinancials, error)
}

// ConvocatoriaInput holds the editable fields of a grant announcement.
type ConvocatoriaInput struct {
	Titulo        string
	Descripcion   string
	Organismo     string
	Importe       decimal.Decimal
	FechaApertura time.Time
	FechaCierre   *time.Time
	URL           string
	Activa        bool
}

// ImportResult summarizes a bulk upsert.
type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// SolicitudInput holds the fields of an application.
type SolicitudInput struct {
	Entidad       string
	EmailContacto string
	Telefono      string
	Mensaje       string
}

// SolicitudFilter holds optional filter parameters for listing applications.
type SolicitudFilter struct {
	ConvocatoriaID string
	Estado         string
}

// ConvocatoriaServicer defines the contract for grant announcements and applications.
type ConvocatoriaServicer interface {
	CreateConvocatoria(input ConvocatoriaInput) (*models.Convocatoria, error)
	GetConvocatoriaByID(id string, activeOnly bool) (*models.Convocatoria, error)
	ListConvocatorias(page pagination.PageRequest, activeOnly bool) (*pagination.PageResponse[models.Convocatoria], error)
	UpdateConvocatoria(id string, input ConvocatoriaInput) (*models.Convocatoria, error)
	DeleteConvocatoria(id string) error
	ImportConvocatorias(inputs []ConvocatoriaInput) (*ImportResult, error)
	CreateSolicitud(ctx context.Context, userID, convocatoriaID string, input SolicitudInput) (*models.Solicitud, error)
	ListSolicitudes(page pagination.PageRequest, filter SolicitudFilter) (*pagination.PageResponse[models.Solicitud], error)
	ListUserSolicitudes(userID string) ([]models.Solicitud, error)
	UpdateSolicitudEstado(id string, estado models.SolicitudEstado) (*models.Solicitud, error)
}

// SignupInput holds the fields of a program sign-up form.
type SignupInput struct {
	Programa        models.Programa
	Nombre          string
	Email           string
	Telefono        string
	Direccion       string
	Distrito        string
	CodigoPostal    string
	NumViviendas    int
	Centro          string
	LitrosEstimados int
	Mensaje         string
	UserID          string
}

// SignupFilter holds optional filter parameters for listing sign-ups.
type SignupFilter struct {
	Programas []models.Programa
	Estado    string
	Distrito  string
}

// SignupServicer defines the contract for program sign-ups.
type SignupServicer interface {
	CreateSignup(ctx context.Context, input SignupInput) (*models.ProgramSignup, error)
	ListSignups(page pagination.PageRequest, filter SignupFilter) (*pagination.PageResponse[models.ProgramSignup], error)
	UpdateSignupEstado(id string, estado models.SignupEstado, allowed []models.Programa) (*models.ProgramSignup, error)
}

// ContactServicer defines the contract for contact form messages.
type ContactServicer interface {
	CreateContactMessage(ctx context.Context, nombre, email, asunto, mensaje string) (*models.ContactMessage, error)
	ListContactMessages(page pagination.PageRequest) (*pagination.PageResponse[models.ContactMessage], error)
}

// FinanceSummary is the payload of the finance overview.
type FinanceSummary struct {
	Month          finance.MonthSummary `json:"month"`
	IngresosSeries []decimal.Decimal    `json:"ingresos_series"`
	GastosSeries   []decimal.Decimal    `json:"gastos_series"`
}

// ProjectStats pairs a project with its derived figures.
type ProjectStats struct {
	Project    models.Project            `json:"project"`
	Financials finance.ProjectFinancials `json:"financials"`
}

// AdminDashboard is the payload of the admin panel.
type AdminDashboard struct {
	Finance             FinanceSummary   `json:"finance"`
	IngresosPendientes  []models.Ingreso `json:"ingresos_pendientes"`
	GastosPendientes    []models.Gasto   `json:"gastos_pendientes"`
	ProyectosActivos    []ProjectStats   `json:"proyectos_activos"`
	SignupsNuevas       int64            `json:"signups_nuevas"`
	SolicitudesEnviadas int64            `json:"solicitudes_enviadas"`
	MensajesContacto    int64            `json:"mensajes_contacto"`
}

// UsuarioDashboard is the payload of the regular user panel.
type UsuarioDashboard struct {
	User                  *models.User           `json:"user,omitempty"`
	Signups               []models.ProgramSignup `json:"signups"`
	Solicitudes           []models.Solicitud     `json:"solicitudes"`
	ConvocatoriasAbiertas []models.Convocatoria  `json:"convocatorias_abiertas"`
}

// AdministradorDashboard is the payload of the building administrator panel.
type AdministradorDashboard struct {
	User         *models.User           `json:"user,omitempty"`
	Distrito     string                 `json:"distrito"`
	Comunidades  []models.ProgramSignup `json:"comunidades"`
	NumViviendas int                    `json:"num_viviendas"`
}

// ComercialDashboard is the payload of the commercial panel.
type ComercialDashboard struct {
	PorEstado map[models.SignupEstado]int64 `json:"por_estado"`
	Recientes []models.ProgramSignup        `json:"recientes"`
}

// DashboardServicer assembles the dashboard payloads.
type DashboardServicer interface {
	FinanceSummary(year int, month time.Month) (*FinanceSummary, error)
	AdminDashboard(now time.Time) (*AdminDashboard, error)
	UsuarioDashboard(id Identity, now time.Time) (*UsuarioDashboard, error)
	AdministradorDashboard(uid string) (*AdministradorDashboard, error)
	ComercialDashboard() (*ComercialDashboard, error)
}

// AuditFilter narrows the audit trail.
type AuditFilter struct {
	UserID       string
	ResourceType string
	ResourceID   string
}

// AuditServicer records and lists back-office writes.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
	ListAuditLogs(page pagination.PageRequest, filter AuditFilter) (*pagination.PageResponse[models.AuditLog], error)
}
