package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "ecoaceite/internal/errors"
	"ecoaceite/internal/finance"
	"ecoaceite/internal/models"
)

const recentLimit = 20

// dashboardService assembles dashboard payloads from full record sets.
type dashboardService struct {
	db *gorm.DB
}

// NewDashboardService creates a new DashboardServicer.
func NewDashboardService(db *gorm.DB) DashboardServicer {
	return &dashboardService{db: db}
}

func (s *dashboardService) loadFinance() ([]models.Ingreso, []models.Gasto, error) {
	var ingresos []models.Ingreso
	if err := s.db.Order("fecha ASC").Find(&ingresos).Error; err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	var gastos []models.Gasto
	if err := s.db.Order("fecha ASC").Find(&gastos).Error; err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return ingresos, gastos, nil
}

func summarize(ingresos []models.Ingreso, gastos []models.Gasto, year int, month time.Month) FinanceSummary {
	return FinanceSummary{
		Month:          finance.Summarize(ingresos, gastos, year, month),
		IngresosSeries: finance.MonthlySeries(ingresos, year),
		GastosSeries:   finance.MonthlySeries(gastos, year),
	}
}

// FinanceSummary returns the month block and the yearly series for year/month.
func (s *dashboardService) FinanceSummary(year int, month time.Month) (*FinanceSummary, error) {
	if month < time.January || month > time.December {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12")
	}
	ingresos, gastos, err := s.loadFinance()
	if err != nil {
		return nil, err
	}
	summary := summarize(ingresos, gastos, year, month)
	return &summary, nil
}

// AdminDashboard builds the admin panel for the month containing now.
func (s *dashboardService) AdminDashboard(now time.Time) (*AdminDashboard, error) {
	ingresos, gastos, err := s.loadFinance()
	if err != nil {
		return nil, err
	}

	var projects []models.Project
	if err := s.db.Where("estado = ?", models.ProjectActivo).Order("fecha_inicio DESC").Find(&projects).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	stats := make([]ProjectStats, 0, len(projects))
	for _, p := range projects {
		stats = append(stats, ProjectStats{
			Project:    p,
			Financials: finance.ForProject(p.ID, p.Presupuesto, ingresos, gastos),
		})
	}

	d := &AdminDashboard{
		Finance:            summarize(ingresos, gastos, now.Year(), now.Month()),
		IngresosPendientes: finance.PendingOnly(ingresos),
		GastosPendientes:   finance.PendingOnly(gastos),
		ProyectosActivos:   stats,
	}

	counts := []struct {
		model interface{}
		where string
		arg   interface{}
		dst   *int64
	}{
		{&models.ProgramSignup{}, "estado = ?", models.SignupNueva, &d.SignupsNuevas},
		{&models.Solicitud{}, "estado = ?", models.SolicitudEnviada, &d.SolicitudesEnviadas},
		{&models.ContactMessage{}, "created_at >= ?", now.AddDate(0, 0, -30), &d.MensajesContacto},
	}
	for _, c := range counts {
		if err := s.db.Model(c.model).Where(c.where, c.arg).Count(c.dst).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return d, nil
}

// UsuarioDashboard lists what a regular user has submitted and the grant
// announcements open at now. Sign-ups are matched by user id, and by email
// once that email is proven.
func (s *dashboardService) UsuarioDashboard(id Identity, now time.Time) (*UsuarioDashboard, error) {
	uid := id.UID
	user, err := s.optionalUser(uid)
	if err != nil {
		return nil, err
	}

	d := &UsuarioDashboard{
		Signups:               []models.ProgramSignup{},
		Solicitudes:           []models.Solicitud{},
		ConvocatoriasAbiertas: []models.Convocatoria{},
		User:                  user,
	}

	signups := s.db.Where("user_id = ?", uid)
	if email := provenEmail(id, user); email != "" {
		signups = s.db.Where("user_id = ? OR LOWER(email) = ?", uid, email)
	}
	if err := signups.Order("created_at DESC").Find(&d.Signups).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Preload("Convocatoria").Where("user_id = ?", uid).
		Order("created_at DESC").Find(&d.Solicitudes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var active []models.Convocatoria
	if err := s.db.Where("activa = ?", true).Order("fecha_apertura DESC").Find(&active).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, c := range active {
		if c.AcceptsApplications(now) {
			d.ConvocatoriasAbiertas = append(d.ConvocatoriasAbiertas, c)
		}
	}
	return d, nil
}

// AdministradorDashboard lists the comunidad sign-ups of the administrator's
// district, or of every district when the profile has none.
func (s *dashboardService) AdministradorDashboard(uid string) (*AdministradorDashboard, error) {
	user, err := s.optionalUser(uid)
	if err != nil {
		return nil, err
	}

	d := &AdministradorDashboard{User: user, Comunidades: []models.ProgramSignup{}}
	query := s.db.Where("programa = ?", models.ProgramaComunidad)
	if user != nil && strings.TrimSpace(user.Distrito) != "" {
		d.Distrito = strings.TrimSpace(user.Distrito)
		query = query.Where("LOWER(distrito) = ?", strings.ToLower(d.Distrito))
	}
	if err := query.Order("created_at DESC").Find(&d.Comunidades).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, c := range d.Comunidades {
		d.NumViviendas += c.NumViviendas
	}
	return d, nil
}

// ComercialDashboard counts commercial sign-ups by estado and lists the latest.
func (s *dashboardService) ComercialDashboard() (*ComercialDashboard, error) {
	var rows []struct {
		Estado models.SignupEstado
		Total  int64
	}
	if err := s.db.Model(&models.ProgramSignup{}).
		Select("estado, COUNT(*) AS total").
		Where("programa IN ?", models.CommercialProgramas).
		Group("estado").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	d := &ComercialDashboard{
		PorEstado: map[models.SignupEstado]int64{
			models.SignupNueva:      0,
			models.SignupContactada: 0,
			models.SignupCerrada:    0,
		},
		Recientes: []models.ProgramSignup{},
	}
	for _, r := range rows {
		d.PorEstado[r.Estado] = r.Total
	}

	if err := s.db.Where("programa IN ?", models.CommercialProgramas).
		Order("created_at DESC").Limit(recentLimit).Find(&d.Recientes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return d, nil
}

// optionalUser loads the users row of uid. Sessions resolved through the
// usuarios fallback have no such row, which is not an error here.
func (s *dashboardService) optionalUser(uid string) (*models.User, error) {
	if uid == "" {
		return nil, nil
	}
	var user models.User
	if err := s.db.Where("id = ?", uid).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}
