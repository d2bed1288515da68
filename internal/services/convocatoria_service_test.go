package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ecoaceite/internal/models"
	"ecoaceite/internal/pagination"
	"ecoaceite/internal/testutil"
)

func convocatoriaInput(titulo string) ConvocatoriaInput {
	return ConvocatoriaInput{
		Titulo:        titulo,
		Organismo:     "Ayuntamiento de Madrid",
		Importe:       decimal.NewFromInt(12000),
		FechaApertura: time.Now().UTC().AddDate(0, 0, -1),
		Activa:        true,
	}
}

func TestCreateConvocatoria(t *testing.T) {
	t.Run("inactive_is_stored_inactive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConvocatoriaService(db, nil)

		input := convocatoriaInput("Economía circular")
		input.Activa = false
		conv, err := svc.CreateConvocatoria(input)
		testutil.AssertNoError(t, err)

		_, err = svc.GetConvocatoriaByID(conv.ID, true)
		testutil.AssertAppError(t, err, "CONVOCATORIA_NOT_FOUND")

		page, err := svc.ListConvocatorias(pagination.PageRequest{}, true)
		testutil.AssertNoError(t, err)
		if page.TotalItems != 0 {
			t.Errorf("expected no active announcements, got %d", page.TotalItems)
		}
	})

	t.Run("closing_before_opening", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConvocatoriaService(db, nil)

		input := convocatoriaInput("Economía circular")
		closing := input.FechaApertura.AddDate(0, 0, -2)
		input.FechaCierre = &closing
		_, err := svc.CreateConvocatoria(input)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestImportConvocatorias(t *testing.T) {
	t.Run("upserts_by_title_and_organism", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConvocatoriaService(db, nil)

		first, err := svc.ImportConvocatorias([]ConvocatoriaInput{
			convocatoriaInput("Residuos 2024"),
			convocatoriaInput("Educación ambiental"),
		})
		testutil.AssertNoError(t, err)
		if first.Created != 2 || first.Updated != 0 {
			t.Errorf("expected 2 created, got %+v", first)
		}

		changed := convocatoriaInput("Residuos 2024")
		changed.Importe = decimal.NewFromInt(20000)
		second, err := svc.ImportConvocatorias([]ConvocatoriaInput{changed, convocatoriaInput("Nueva")})
		testutil.AssertNoError(t, err)
		if second.Created != 1 || second.Updated != 1 {
			t.Errorf("expected 1 created and 1 updated, got %+v", second)
		}

		var conv models.Convocatoria
		db.Where("titulo = ?", "Residuos 2024").First(&conv)
		if !conv.Importe.Equal(decimal.NewFromInt(20000)) {
			t.Errorf("expected importe updated to 20000, got %s", conv.Importe)
		}
	})

	t.Run("restores_deleted_match", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConvocatoriaService(db, nil)

		conv, err := svc.CreateConvocatoria(convocatoriaInput("Residuos 2024"))
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, svc.DeleteConvocatoria(conv.ID))

		result, err := svc.ImportConvocatorias([]ConvocatoriaInput{convocatoriaInput("Residuos 2024")})
		testutil.AssertNoError(t, err)
		if result.Updated != 1 {
			t.Errorf("expected the deleted row to be updated, got %+v", result)
		}
		_, err = svc.GetConvocatoriaByID(conv.ID, false)
		testutil.AssertNoError(t, err)
	})

	t.Run("invalid_item_aborts_import", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConvocatoriaService(db, nil)

		_, err := svc.ImportConvocatorias([]ConvocatoriaInput{convocatoriaInput("Ok"), {Titulo: ""}})
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		var count int64
		db.Model(&models.Convocatoria{}).Count(&count)
		if count != 0 {
			t.Errorf("expected nothing imported, got %d", count)
		}
	})
}

func TestCreateSolicitud(t *testing.T) {
	t.Run("open_call_accepts_and_notifies", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		notifier := &recordingNotifier{}
		svc := NewConvocatoriaService(db, notifier)

		user := testutil.CreateTestUser(t, db)
		conv := testutil.CreateTestConvocatoria(t, db)

		sol, err := svc.CreateSolicitud(context.Background(), user.ID, conv.ID, SolicitudInput{
			Entidad:       "AMPA Colegio Sur",
			EmailContacto: "AMPA@Example.com",
		})
		testutil.AssertNoError(t, err)
		if sol.Estado != models.SolicitudEnviada || sol.EmailContacto != "ampa@example.com" {
			t.Errorf("unexpected solicitud: %+v", sol)
		}
		if got := notifier.types(); len(got) != 1 || got[0] != "solicitud.created" {
			t.Errorf("expected solicitud.created event, got %v", got)
		}

		mine, err := svc.ListUserSolicitudes(user.ID)
		testutil.AssertNoError(t, err)
		if len(mine) != 1 || mine[0].Convocatoria == nil {
			t.Errorf("expected one solicitud with its convocatoria, got %+v", mine)
		}
	})

	t.Run("closed_call", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConvocatoriaService(db, nil)

		conv := testutil.CreateTestConvocatoria(t, db)
		closed := time.Now().UTC().AddDate(0, 0, -1)
		db.Model(conv).Update("fecha_cierre", closed)

		_, err := svc.CreateSolicitud(context.Background(), "uid-1", conv.ID, SolicitudInput{
			Entidad:       "AMPA",
			EmailContacto: "ampa@example.com",
		})
		testutil.AssertAppError(t, err, "CONVOCATORIA_CLOSED")
	})

	t.Run("inactive_call", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConvocatoriaService(db, nil)

		conv := testutil.CreateTestConvocatoria(t, db)
		db.Model(conv).Update("activa", false)

		_, err := svc.CreateSolicitud(context.Background(), "uid-1", conv.ID, SolicitudInput{
			Entidad:       "AMPA",
			EmailContacto: "ampa@example.com",
		})
		testutil.AssertAppError(t, err, "CONVOCATORIA_CLOSED")
	})

	t.Run("missing_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConvocatoriaService(db, nil)

		conv := testutil.CreateTestConvocatoria(t, db)
		_, err := svc.CreateSolicitud(context.Background(), "uid-1", conv.ID, SolicitudInput{})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestUpdateSolicitudEstado(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewConvocatoriaService(db, nil)

	conv := testutil.CreateTestConvocatoria(t, db)
	sol, err := svc.CreateSolicitud(context.Background(), "uid-1", conv.ID, SolicitudInput{
		Entidad:       "AMPA",
		EmailContacto: "ampa@example.com",
	})
	testutil.AssertNoError(t, err)

	updated, err := svc.UpdateSolicitudEstado(sol.ID, models.SolicitudAceptada)
	testutil.AssertNoError(t, err)
	if updated.Estado != models.SolicitudAceptada {
		t.Errorf("expected aceptada, got %s", updated.Estado)
	}

	page, err := svc.ListSolicitudes(pagination.PageRequest{}, SolicitudFilter{Estado: "aceptada"})
	testutil.AssertNoError(t, err)
	if page.TotalItems != 1 {
		t.Errorf("expected 1 accepted solicitud, got %d", page.TotalItems)
	}

	_, err = svc.UpdateSolicitudEstado("0190a0e0-0000-7000-8000-000000000000", models.SolicitudRechazada)
	testutil.AssertAppError(t, err, "SOLICITUD_NOT_FOUND")
}
