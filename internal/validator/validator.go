// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"reflect"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"ecoaceite/internal/models"
)

var postalCodeESRegex = regexp.MustCompile(`^(0[1-9]|[1-4][0-9]|5[0-2])[0-9]{3}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn installs the custom tags and type functions on v.
func RegisterOn(v *validator.Validate) {
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	_ = v.RegisterValidation("role", validateRole)
	_ = v.RegisterValidation("public_role", validatePublicRole)
	_ = v.RegisterValidation("ingreso_estado", validateIngresoEstado)
	_ = v.RegisterValidation("gasto_estado", validateGastoEstado)
	_ = v.RegisterValidation("project_estado", validateProjectEstado)
	_ = v.RegisterValidation("programa", validatePrograma)
	_ = v.RegisterValidation("solicitud_estado", validateSolicitudEstado)
	_ = v.RegisterValidation("signup_estado", validateSignupEstado)
	_ = v.RegisterValidation("postal_code_es", validatePostalCodeES)
}

// decimalValue lets numeric tags such as gt=0 apply to decimal amounts.
func decimalValue(field reflect.Value) interface{} {
	d, ok := field.Interface().(decimal.Decimal)
	if !ok {
		return nil
	}
	f, _ := d.Float64()
	return f
}

func validateRole(fl validator.FieldLevel) bool {
	return models.Role(fl.Field().String()).IsValid()
}

func validatePublicRole(fl validator.FieldLevel) bool {
	return models.Role(fl.Field().String()).IsPublic()
}

func validateIngresoEstado(fl validator.FieldLevel) bool {
	switch models.IngresoEstado(fl.Field().String()) {
	case models.IngresoPendiente, models.IngresoCobrada:
		return true
	}
	return false
}

func validateGastoEstado(fl validator.FieldLevel) bool {
	switch models.GastoEstado(fl.Field().String()) {
	case models.GastoPendiente, models.GastoPagada:
		return true
	}
	return false
}

func validateProjectEstado(fl validator.FieldLevel) bool {
	switch models.ProjectEstado(fl.Field().String()) {
	case models.ProjectActivo, models.ProjectPendiente, models.ProjectCompletado, models.ProjectCancelado:
		return true
	}
	return false
}

func validatePrograma(fl validator.FieldLevel) bool {
	switch models.Programa(fl.Field().String()) {
	case models.ProgramaVoluntariado, models.ProgramaEscolar, models.ProgramaComunidad,
		models.ProgramaRestaurante, models.ProgramaHotel, models.ProgramaPuntoRecogida:
		return true
	}
	return false
}

func validateSolicitudEstado(fl validator.FieldLevel) bool {
	switch models.SolicitudEstado(fl.Field().String()) {
	case models.SolicitudEnviada, models.SolicitudEnRevision, models.SolicitudAceptada, models.SolicitudRechazada:
		return true
	}
	return false
}

func validateSignupEstado(fl validator.FieldLevel) bool {
	switch models.SignupEstado(fl.Field().String()) {
	case models.SignupNueva, models.SignupContactada, models.SignupCerrada:
		return true
	}
	return false
}

func validatePostalCodeES(fl validator.FieldLevel) bool {
	return postalCodeESRegex.MatchString(fl.Field().String())
}
