package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRolePredicates(t *testing.T) {
	assert.True(t, RoleComercial.IsValid())
	assert.False(t, Role("root").IsValid())

	assert.True(t, RoleEscolar.IsPublic())
	assert.False(t, RoleAdmin.IsPublic())
	assert.False(t, RoleAdministrador.IsPublic())

	assert.True(t, RoleSuperadmin.IsPrivileged())
	assert.False(t, RoleComercial.IsPrivileged())
}

func TestDashboardAccepts(t *testing.T) {
	cases := []struct {
		dashboard Dashboard
		role      Role
		want      bool
	}{
		{DashboardAdmin, RoleAdmin, true},
		{DashboardAdmin, RoleSuperadmin, true},
		{DashboardAdmin, RoleComercial, false},
		{DashboardUsuario, RoleHotel, true},
		{DashboardUsuario, RoleAdmin, false},
		{DashboardAdministrador, RoleAdministrador, true},
		{DashboardAdministrador, RoleComunidad, false},
		{DashboardComercial, RoleComercial, true},
		{Dashboard("unknown"), RoleSuperadmin, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.dashboard.Accepts(tc.role), "%s/%s", tc.dashboard, tc.role)
	}
	assert.True(t, DashboardAdmin.AllowsAdminEmail())
	assert.False(t, DashboardComercial.AllowsAdminEmail())
}

func TestConvocatoriaAcceptsApplications(t *testing.T) {
	open := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	closeAt := time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC)
	c := Convocatoria{FechaApertura: open, FechaCierre: &closeAt, Activa: true}

	assert.False(t, c.AcceptsApplications(open.Add(-time.Hour)), "before opening")
	assert.True(t, c.AcceptsApplications(open))
	assert.True(t, c.AcceptsApplications(closeAt))
	assert.False(t, c.AcceptsApplications(closeAt.Add(time.Minute)), "after closing")

	c.Activa = false
	assert.False(t, c.AcceptsApplications(open.AddDate(0, 0, 1)), "inactive")

	c.Activa = true
	c.FechaCierre = nil
	assert.True(t, c.AcceptsApplications(open.AddDate(5, 0, 0)), "no closing date")
}

func TestFinanceRecordViews(t *testing.T) {
	fecha := time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC)
	i := Ingreso{Cantidad: decimal.NewFromInt(10), Fecha: fecha, ProyectoID: "p", Estado: IngresoPendiente}
	assert.True(t, i.Pending())
	assert.Equal(t, fecha, i.Date())
	assert.Equal(t, "p", i.Project())
	assert.Equal(t, "10", i.Amount().String())

	g := Gasto{Estado: GastoPagada}
	assert.False(t, g.Pending())
}

func TestProgramaIsCommercial(t *testing.T) {
	assert.True(t, ProgramaPuntoRecogida.IsCommercial())
	assert.False(t, ProgramaVoluntariado.IsCommercial())
}
