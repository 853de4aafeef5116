package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrDuplicate         = errors.New("registro duplicado")
	ErrValidation        = errors.New("entrada inválida")
	ErrRemoteWrite       = errors.New("falló la escritura remota")
	ErrMissingIdentifier = errors.New("el servicio remoto no devolvió identificador")
	ErrStepInFlight      = errors.New("hay un paso remoto en curso")
	ErrWorkflowClosed    = errors.New("el flujo ya terminó")
	ErrCancelled         = errors.New("el flujo fue cancelado")
	ErrForbidden         = errors.New("acceso denegado")
)

// ValidationError entrada local inválida. Nunca llega a la red.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validación: " + e.Reason
	}
	return fmt.Sprintf("validación: %s: %s", e.Field, e.Reason)
}

// Is permite errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError atajo para construir un *ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// RemoteWriteError la llamada de creación remota falló (transporte o HTTP no 2xx).
type RemoteWriteError struct {
	Op         string // customer.create, company.create, account.create
	StatusCode int    // 0 si no hubo respuesta HTTP
	Message    string // mensaje devuelto por el servicio, si lo hubo
	Err        error
}

func (e *RemoteWriteError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *RemoteWriteError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, ErrRemoteWrite).
func (e *RemoteWriteError) Is(target error) bool { return target == ErrRemoteWrite }

// MissingIdentifierError la llamada fue exitosa pero la respuesta no trae un id utilizable.
type MissingIdentifierError struct {
	Entity string // customer, company
}

func (e *MissingIdentifierError) Error() string {
	return fmt.Sprintf("%s creado, pero el servicio no devolvió su id", e.Entity)
}

// Is permite errors.Is(err, ErrMissingIdentifier).
func (e *MissingIdentifierError) Is(target error) bool { return target == ErrMissingIdentifier }
