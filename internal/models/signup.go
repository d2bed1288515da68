package models

// Programa names the program a sign-up form belongs to.
type Programa string

const (
	ProgramaVoluntariado  Programa = "voluntariado"
	ProgramaEscolar       Programa = "escolar"
	ProgramaComunidad     Programa = "comunidad"
	ProgramaRestaurante   Programa = "restaurante"
	ProgramaHotel         Programa = "hotel"
	ProgramaPuntoRecogida Programa = "punto_recogida"
)

// CommercialProgramas are followed up by the commercial team.
var CommercialProgramas = []Programa{ProgramaRestaurante, ProgramaHotel, ProgramaPuntoRecogida}

// IsCommercial reports whether p is handled by the commercial dashboard.
func (p Programa) IsCommercial() bool {
	for _, c := range CommercialProgramas {
		if c == p {
			return true
		}
	}
	return false
}

// SignupEstado tracks follow-up of a sign-up.
type SignupEstado string

const (
	SignupNueva      SignupEstado = "nueva"
	SignupContactada SignupEstado = "contactada"
	SignupCerrada    SignupEstado = "cerrada"
)

// ProgramSignup is a submission of one of the public program forms
// (volunteering, schools, neighbour communities, hospitality, collection points).
type ProgramSignup struct {
	Base
	Programa        Programa     `gorm:"not null;index" json:"programa"`
	Nombre          string       `gorm:"not null" json:"nombre"`
	Email           string       `gorm:"not null" json:"email"`
	Telefono        string       `json:"telefono,omitempty"`
	Direccion       string       `json:"direccion,omitempty"`
	Distrito        string       `gorm:"index" json:"distrito,omitempty"`
	CodigoPostal    string       `json:"codigo_postal,omitempty"`
	NumViviendas    int          `json:"num_viviendas,omitempty"`
	Centro          string       `json:"centro,omitempty"`
	LitrosEstimados int          `json:"litros_estimados,omitempty"`
	Mensaje         string       `json:"mensaje,omitempty"`
	Estado          SignupEstado `gorm:"not null;default:'nueva';index" json:"estado"`
	UserID          *string      `gorm:"size:128;index" json:"user_id,omitempty"`
}

// ContactMessage is a submission of the public contact form.
type ContactMessage struct {
	Base
	Nombre  string `gorm:"not null" json:"nombre"`
	Email   string `gorm:"not null" json:"email"`
	Asunto  string `json:"asunto"`
	Mensaje string `gorm:"not null" json:"mensaje"`
}
