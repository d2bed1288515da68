package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ecoaceite/internal/models"
	"ecoaceite/internal/pagination"
	"ecoaceite/internal/testutil"
)

func validIngresoInput() IngresoInput {
	return IngresoInput{
		Concepto: "Recogida marzo",
		Cantidad: decimal.RequireFromString("100.00"),
		IVA:      decimal.NewFromInt(21),
		Fecha:    utcDate(2024, time.March, 10),
		Cliente:  "Hotel Sol",
	}
}

func TestCreateIngreso(t *testing.T) {
	t.Run("success_derives_total", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIngresoService(db, nil)

		ingreso, err := svc.CreateIngreso("actor-1", validIngresoInput())
		testutil.AssertNoError(t, err)
		if !ingreso.Total.Equal(decimal.RequireFromString("121.00")) {
			t.Errorf("expected total 121.00, got %s", ingreso.Total)
		}
		if ingreso.Estado != models.IngresoPendiente {
			t.Errorf("expected pendiente by default, got %s", ingreso.Estado)
		}
		if ingreso.CreatedBy != "actor-1" {
			t.Errorf("expected created_by actor-1, got %s", ingreso.CreatedBy)
		}
	})

	t.Run("cobrada_on_create_stamps_date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIngresoService(db, nil)

		input := validIngresoInput()
		input.Estado = models.IngresoCobrada
		ingreso, err := svc.CreateIngreso("actor-1", input)
		testutil.AssertNoError(t, err)
		if ingreso.CobradaAt == nil {
			t.Error("expected cobrada_at to be set")
		}
	})

	t.Run("rejects_non_positive_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIngresoService(db, nil)

		input := validIngresoInput()
		input.Cantidad = decimal.Zero
		_, err := svc.CreateIngreso("actor-1", input)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("rejects_iva_over_100", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIngresoService(db, nil)

		input := validIngresoInput()
		input.IVA = decimal.NewFromInt(101)
		_, err := svc.CreateIngreso("actor-1", input)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("rejects_missing_concepto", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIngresoService(db, nil)

		input := validIngresoInput()
		input.Concepto = "   "
		_, err := svc.CreateIngreso("actor-1", input)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestListIngresos(t *testing.T) {
	t.Run("filters_by_year_and_estado", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIngresoService(db, nil)

		testutil.CreateTestIngreso(t, db, "10", utcDate(2023, time.December, 31))
		keep := testutil.CreateTestIngreso(t, db, "20", utcDate(2024, time.January, 1))
		paid := testutil.CreateTestIngreso(t, db, "30", utcDate(2024, time.June, 1))
		db.Model(paid).Update("estado", models.IngresoCobrada)

		page, err := svc.ListIngresos(pagination.PageRequest{}, FinanceFilter{Year: 2024, Estado: "pendiente"})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 1 || page.Data[0].ID != keep.ID {
			t.Errorf("expected only %s, got %+v", keep.ID, page.Data)
		}
	})

	t.Run("date_range_is_inclusive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIngresoService(db, nil)

		testutil.CreateTestIngreso(t, db, "10", utcDate(2024, time.March, 1))
		testutil.CreateTestIngreso(t, db, "10", utcDate(2024, time.March, 31))
		testutil.CreateTestIngreso(t, db, "10", utcDate(2024, time.April, 1))

		from := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
		to := pagination.EndOfDay(time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC))
		page, err := svc.ListIngresos(pagination.PageRequest{}, FinanceFilter{Range: pagination.DateRange{From: &from, To: &to}})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 2 {
			t.Errorf("expected 2 records in March, got %d", page.TotalItems)
		}
	})

	t.Run("instant_upper_bound_is_exact", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIngresoService(db, nil)

		testutil.CreateTestIngreso(t, db, "10", time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC))
		testutil.CreateTestIngreso(t, db, "10", time.Date(2024, time.March, 15, 18, 0, 0, 0, time.UTC))
		testutil.CreateTestIngreso(t, db, "10", time.Date(2024, time.March, 16, 9, 0, 0, 0, time.UTC))

		to := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
		page, err := svc.ListIngresos(pagination.PageRequest{}, FinanceFilter{Range: pagination.DateRange{To: &to}})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 1 {
			t.Errorf("expected only the morning record, got %d", page.TotalItems)
		}
	})

	t.Run("sorts_by_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIngresoService(db, nil)

		testutil.CreateTestIngreso(t, db, "50", utcDate(2024, time.March, 1))
		testutil.CreateTestIngreso(t, db, "5", utcDate(2024, time.March, 2))

		page, err := svc.ListIngresos(pagination.PageRequest{Sort: "cantidad"}, FinanceFilter{})
		testutil.AssertNoError(t, err)
		if !page.Data[0].Cantidad.Equal(decimal.NewFromInt(5)) {
			t.Errorf("expected ascending order, got %s first", page.Data[0].Cantidad)
		}
	})
}

func TestUpdateIngreso(t *testing.T) {
	t.Run("recomputes_total", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIngresoService(db, nil)

		existing := testutil.CreateTestIngreso(t, db, "10", utcDate(2024, time.March, 1))
		input := validIngresoInput()
		input.Cantidad = decimal.NewFromInt(200)
		input.IVA = decimal.NewFromInt(10)

		updated, err := svc.UpdateIngreso(existing.ID, input)
		testutil.AssertNoError(t, err)
		if !updated.Total.Equal(decimal.NewFromInt(220)) {
			t.Errorf("expected total 220, got %s", updated.Total)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIngresoService(db, nil)

		_, err := svc.UpdateIngreso("0190a0e0-0000-7000-8000-000000000000", validIngresoInput())
		testutil.AssertAppError(t, err, "INGRESO_NOT_FOUND")
	})

	t.Run("cannot_settle", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		notifier := &recordingNotifier{}
		svc := NewIngresoService(db, notifier)

		existing := testutil.CreateTestIngreso(t, db, "10", utcDate(2024, time.March, 1))
		input := validIngresoInput()
		input.Estado = models.IngresoCobrada

		_, err := svc.UpdateIngreso(existing.ID, input)
		testutil.AssertAppError(t, err, "SETTLE_ON_UPDATE")

		stored, err := svc.GetIngresoByID(existing.ID)
		testutil.AssertNoError(t, err)
		if stored.Estado != models.IngresoPendiente || stored.CobradaAt != nil {
			t.Errorf("record must stay pendiente, got %+v", stored)
		}
		if got := notifier.types(); len(got) != 0 {
			t.Errorf("expected no events, got %v", got)
		}
	})

	t.Run("reopens_collected_record", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIngresoService(db, nil)

		existing := testutil.CreateTestIngreso(t, db, "10", utcDate(2024, time.March, 1))
		_, err := svc.MarkCobrada(context.Background(), existing.ID, utcDate(2024, time.March, 5))
		testutil.AssertNoError(t, err)

		input := validIngresoInput()
		input.Estado = models.IngresoPendiente
		updated, err := svc.UpdateIngreso(existing.ID, input)
		testutil.AssertNoError(t, err)
		if updated.Estado != models.IngresoPendiente || updated.CobradaAt != nil {
			t.Errorf("expected pendiente without date, got %+v", updated)
		}
	})
}

func TestDeleteIngreso(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewIngresoService(db, nil)

	existing := testutil.CreateTestIngreso(t, db, "10", utcDate(2024, time.March, 1))
	testutil.AssertNoError(t, svc.DeleteIngreso(existing.ID))

	_, err := svc.GetIngresoByID(existing.ID)
	testutil.AssertAppError(t, err, "INGRESO_NOT_FOUND")
	testutil.AssertAppError(t, svc.DeleteIngreso(existing.ID), "INGRESO_NOT_FOUND")
}

func TestMarkCobrada(t *testing.T) {
	t.Run("leaves_pending_list_and_notifies", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		notifier := &recordingNotifier{}
		svc := NewIngresoService(db, notifier)

		existing := testutil.CreateTestIngreso(t, db, "75", utcDate(2024, time.March, 1))
		at := utcDate(2024, time.March, 20)

		ingreso, err := svc.MarkCobrada(context.Background(), existing.ID, at)
		testutil.AssertNoError(t, err)
		if ingreso.Estado != models.IngresoCobrada || ingreso.CobradaAt == nil {
			t.Errorf("expected cobrada with date, got %+v", ingreso)
		}

		pending, err := svc.ListPendingIngresos()
		testutil.AssertNoError(t, err)
		if len(pending) != 0 {
			t.Errorf("expected no pending records, got %d", len(pending))
		}

		got := notifier.types()
		if len(got) != 1 || got[0] != "ingreso.cobrada" {
			t.Errorf("expected one ingreso.cobrada event, got %v", got)
		}
	})

	t.Run("already_settled", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIngresoService(db, nil)

		existing := testutil.CreateTestIngreso(t, db, "75", utcDate(2024, time.March, 1))
		_, err := svc.MarkCobrada(context.Background(), existing.ID, time.Now())
		testutil.AssertNoError(t, err)

		_, err = svc.MarkCobrada(context.Background(), existing.ID, time.Now())
		testutil.AssertAppError(t, err, "ALREADY_SETTLED")
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIngresoService(db, nil)

		_, err := svc.MarkCobrada(context.Background(), "0190a0e0-0000-7000-8000-000000000000", time.Now())
		testutil.AssertAppError(t, err, "INGRESO_NOT_FOUND")
	})

	t.Run("notifier_failure_does_not_fail_request", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIngresoService(db, &recordingNotifier{err: errors.New("broker down")})

		existing := testutil.CreateTestIngreso(t, db, "75", utcDate(2024, time.March, 1))
		_, err := svc.MarkCobrada(context.Background(), existing.ID, time.Now())
		testutil.AssertNoError(t, err)
	})
}
