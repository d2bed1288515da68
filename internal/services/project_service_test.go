package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ecoaceite/internal/models"
	"ecoaceite/internal/pagination"
	"ecoaceite/internal/testutil"
)

func TestCreateProject(t *testing.T) {
	t.Run("defaults_to_pendiente", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewProjectService(db)

		project, err := svc.CreateProject(ProjectInput{
			Nombre:      "Campaña colegios",
			Presupuesto: decimal.NewFromInt(3000),
			FechaInicio: utcDate(2024, time.September, 1),
		})
		testutil.AssertNoError(t, err)
		if project.Estado != models.ProjectPendiente {
			t.Errorf("expected pendiente, got %s", project.Estado)
		}
	})

	t.Run("end_before_start", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewProjectService(db)

		end := utcDate(2024, time.August, 1)
		_, err := svc.CreateProject(ProjectInput{
			Nombre:      "Campaña",
			FechaInicio: utcDate(2024, time.September, 1),
			FechaFin:    &end,
		})
		testutil.AssertAppError(t, err, "INVALID_PROJECT_DATES")
	})

	t.Run("negative_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewProjectService(db)

		_, err := svc.CreateProject(ProjectInput{
			Nombre:      "Campaña",
			Presupuesto: decimal.NewFromInt(-1),
			FechaInicio: utcDate(2024, time.September, 1),
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestListProjects(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewProjectService(db)

	testutil.CreateTestProject(t, db, "100")
	done := testutil.CreateTestProject(t, db, "200")
	db.Model(done).Update("estado", models.ProjectCompletado)

	activo := models.ProjectActivo
	page, err := svc.ListProjects(pagination.PageRequest{}, &activo)
	testutil.AssertNoError(t, err)
	if page.TotalItems != 1 {
		t.Errorf("expected 1 active project, got %d", page.TotalItems)
	}
}

func TestGetProjectFinancials(t *testing.T) {
	t.Run("totals_linked_records", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewProjectService(db)

		project := testutil.CreateTestProject(t, db, "1000")
		in := testutil.CreateTestIngreso(t, db, "500", utcDate(2024, time.March, 1))
		out := testutil.CreateTestGasto(t, db, "200", utcDate(2024, time.March, 2))
		db.Model(in).Update("proyecto_id", project.ID)
		db.Model(out).Update("proyecto_id", project.ID)
		testutil.CreateTestIngreso(t, db, "999", utcDate(2024, time.March, 3))

		f, err := svc.GetProjectFinancials(project.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "ingresos", f.Ingresos, "500")
		testutil.AssertDecimal(t, "gastos", f.Gastos, "200")
		testutil.AssertDecimal(t, "beneficio", f.Beneficio, "300")
		testutil.AssertDecimal(t, "rentabilidad", f.Rentabilidad, "60")
		testutil.AssertDecimal(t, "consumo", f.ConsumoPresupuesto, "20")
	})

	t.Run("zero_income_gives_zero_profitability", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewProjectService(db)

		project := testutil.CreateTestProject(t, db, "0")
		out := testutil.CreateTestGasto(t, db, "50", utcDate(2024, time.March, 2))
		db.Model(out).Update("proyecto_id", project.ID)

		f, err := svc.GetProjectFinancials(project.ID)
		testutil.AssertNoError(t, err)
		if !f.Rentabilidad.IsZero() || !f.ConsumoPresupuesto.IsZero() {
			t.Errorf("expected zero ratios, got %+v", f)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewProjectService(db)

		_, err := svc.GetProjectFinancials("0190a0e0-0000-7000-8000-000000000000")
		testutil.AssertAppError(t, err, "PROJECT_NOT_FOUND")
	})
}

func TestDeleteProject_KeepsLinkedRecords(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewProjectService(db)

	project := testutil.CreateTestProject(t, db, "1000")
	in := testutil.CreateTestIngreso(t, db, "500", utcDate(2024, time.March, 1))
	db.Model(in).Update("proyecto_id", project.ID)

	testutil.AssertNoError(t, svc.DeleteProject(project.ID))

	var reloaded models.Ingreso
	if err := db.First(&reloaded, "id = ?", in.ID).Error; err != nil {
		t.Fatalf("linked ingreso should survive: %v", err)
	}
	if reloaded.ProyectoID != project.ID {
		t.Errorf("expected proyecto_id to be kept, got %q", reloaded.ProyectoID)
	}
}
