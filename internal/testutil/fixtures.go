package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"ecoaceite/internal/finance"
	"ecoaceite/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain-text password of every user fixture.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates an active usuario with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithRole(t, db, models.RoleUsuario)
}

// CreateTestUserWithRole creates a user holding role.
func CreateTestUserWithRole(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email, role)
}

// CreateTestUserWithEmail creates a user with the given email and role.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		Nombre:   "Test User",
		Role:     role,
		Provider: "local",
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestUsuario creates an entry in the secondary profile collection.
func CreateTestUsuario(t *testing.T, db *gorm.DB, uid, email string, role models.Role) *models.Usuario {
	t.Helper()

	u := &models.Usuario{UID: uid, Email: email, Role: role}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("failed to create test usuario: %v", err)
	}
	return u
}

// CreateTestIngreso creates a pending income record of amount (no VAT) on fecha.
func CreateTestIngreso(t *testing.T, db *gorm.DB, amount string, fecha time.Time) *models.Ingreso {
	t.Helper()

	cantidad := decimal.RequireFromString(amount)
	ingreso := &models.Ingreso{
		Concepto: fmt.Sprintf("Recogida %d", nextID()),
		Cantidad: cantidad,
		IVA:      decimal.Zero,
		Total:    finance.GrossTotal(cantidad, decimal.Zero),
		Fecha:    fecha,
		Cliente:  "Cliente Test",
		Estado:   models.IngresoPendiente,
	}
	if err := db.Create(ingreso).Error; err != nil {
		t.Fatalf("failed to create test ingreso: %v", err)
	}
	return ingreso
}

// CreateTestGasto creates a pending expense record of amount (no VAT) on fecha.
func CreateTestGasto(t *testing.T, db *gorm.DB, amount string, fecha time.Time) *models.Gasto {
	t.Helper()

	cantidad := decimal.RequireFromString(amount)
	gasto := &models.Gasto{
		Concepto:  fmt.Sprintf("Transporte %d", nextID()),
		Cantidad:  cantidad,
		IVA:       decimal.Zero,
		Total:     finance.GrossTotal(cantidad, decimal.Zero),
		Fecha:     fecha,
		Proveedor: "Proveedor Test",
		Estado:    models.GastoPendiente,
	}
	if err := db.Create(gasto).Error; err != nil {
		t.Fatalf("failed to create test gasto: %v", err)
	}
	return gasto
}

// CreateTestProject creates an active project with the given budget.
func CreateTestProject(t *testing.T, db *gorm.DB, budget string) *models.Project {
	t.Helper()

	project := &models.Project{
		Nombre:      fmt.Sprintf("Proyecto %d", nextID()),
		Cliente:     "Ayuntamiento",
		Presupuesto: decimal.RequireFromString(budget),
		FechaInicio: time.Now().AddDate(0, -1, 0),
		Estado:      models.ProjectActivo,
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}
	return project
}

// CreateTestConvocatoria creates an open grant announcement.
func CreateTestConvocatoria(t *testing.T, db *gorm.DB) *models.Convocatoria {
	t.Helper()

	conv := &models.Convocatoria{
		Titulo:        fmt.Sprintf("Convocatoria %d", nextID()),
		Organismo:     "Comunidad de Madrid",
		Importe:       decimal.NewFromInt(5000),
		FechaApertura: time.Now().AddDate(0, 0, -7),
		Activa:        true,
	}
	if err := db.Create(conv).Error; err != nil {
		t.Fatalf("failed to create test convocatoria: %v", err)
	}
	return conv
}

// CreateTestSignup creates a sign-up for programa in distrito.
func CreateTestSignup(t *testing.T, db *gorm.DB, programa models.Programa, distrito string) *models.ProgramSignup {
	t.Helper()

	n := nextID()
	signup := &models.ProgramSignup{
		Programa: programa,
		Nombre:   fmt.Sprintf("Solicitante %d", n),
		Email:    fmt.Sprintf("signup%d@test.com", n),
		Distrito: distrito,
		Estado:   models.SignupNueva,
	}
	if err := db.Create(signup).Error; err != nil {
		t.Fatalf("failed to create test signup: %v", err)
	}
	return signup
}
