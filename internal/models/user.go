package models

import (
	"time"

	"ecoaceite/internal/uuid"

	"gorm.io/gorm"
)

// Role gates access to the dashboards.
type Role string

const (
	RoleComunidad     Role = "comunidad"
	RoleRestaurante   Role = "restaurante"
	RoleHotel         Role = "hotel"
	RoleAsociacion    Role = "asociacion"
	RoleEscolar       Role = "escolar"
	RoleUsuario       Role = "usuario"
	RoleAdmin         Role = "admin"
	RoleAdministrador Role = "administrador"
	RoleComercial     Role = "comercial"
	RoleSuperadmin    Role = "superadmin"
)

// AllRoles lists every known role in display order.
var AllRoles = []Role{
	RoleComunidad, RoleRestaurante, RoleHotel, RoleAsociacion, RoleEscolar,
	RoleUsuario, RoleAdmin, RoleAdministrador, RoleComercial, RoleSuperadmin,
}

// PublicRoles are the roles a visitor may pick when registering.
var PublicRoles = []Role{
	RoleComunidad, RoleRestaurante, RoleHotel, RoleAsociacion, RoleEscolar, RoleUsuario,
}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return containsRole(AllRoles, r)
}

// IsPublic reports whether r can be self-assigned at registration.
func (r Role) IsPublic() bool {
	return containsRole(PublicRoles, r)
}

// IsPrivileged reports whether only a superadmin may grant r.
func (r Role) IsPrivileged() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}

// BeforeCreate assigns a UUIDv7 to local accounts.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New()
	}
	return nil
}

func containsRole(roles []Role, r Role) bool {
	for _, candidate := range roles {
		if candidate == r {
			return true
		}
	}
	return false
}

// User is the primary profile record, keyed by the session uid. Local
// accounts get a UUIDv7; accounts provisioned from the OpenID Connect
// provider keep the provider's subject as their id.
type User struct {
	ID               string         `gorm:"primaryKey;size:128" json:"id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
	Email            string         `gorm:"uniqueIndex;not null" json:"email"`
	EmailVerified    bool           `gorm:"not null;default:false" json:"email_verified"`
	Password         string         `json:"-"`
	Nombre           string         `json:"nombre"`
	Role             Role           `gorm:"not null;default:'usuario';index" json:"role"`
	Telefono         string         `json:"telefono,omitempty"`
	Direccion        string         `json:"direccion,omitempty"`
	Distrito         string         `json:"distrito,omitempty"`
	CodigoPostal     string         `json:"codigo_postal,omitempty"`
	NumViviendas     int            `json:"num_viviendas,omitempty"`
	NombreEntidad    string         `json:"nombre_entidad,omitempty"`
	Provider         string         `gorm:"not null;default:'local'" json:"provider"`
	IsActive         bool           `gorm:"default:true" json:"is_active"`
	RefreshTokenHash string         `gorm:"size:64" json:"-"`
	LastLoginAt      *time.Time     `json:"last_login_at,omitempty"`
}

// Usuario is an entry of the secondary profile collection. It predates the
// users table and is matched by uid or email during role resolution.
type Usuario struct {
	Base
	UID    string `gorm:"index" json:"uid,omitempty"`
	Email  string `gorm:"index" json:"email"`
	Nombre string `json:"nombre,omitempty"`
	Role   Role   `gorm:"not null" json:"role"`
}
