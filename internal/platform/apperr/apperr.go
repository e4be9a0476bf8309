// Package apperr define la taxonomía cerrada de errores de la API:
// cada Key tiene un code, mensaje por defecto y status HTTP fijos.
package apperr

import (
	"errors"
	"net/http"
)

type Key string

const (
	MissingParameter    Key = "MissingParameter"
	MalformedIdentifier Key = "MalformedIdentifier"
	MissingDate         Key = "MissingDate"
	MalformedDateTime   Key = "MalformedDateTime"
	OutOfRange          Key = "OutOfRange"
	ValidationError     Key = "ValidationError"
	BadRequest          Key = "BadRequest"
	Unauthorized        Key = "Unauthorized"
	InvalidCredentials  Key = "InvalidCredentials"
	Forbidden           Key = "Forbidden"
	AdminRequired       Key = "AdminRequired"
	NotFound            Key = "NotFound"
	MethodNotAllowed    Key = "MethodNotAllowed"
	Conflict            Key = "Conflict"
	RateLimited         Key = "RateLimited"
	InvalidRecord       Key = "InvalidRecord"
	Internal            Key = "Internal"
)

type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindRateLimited  Kind = "rate_limited"
	KindInternal     Kind = "internal"
)

type entry struct {
	Code    string
	Message string
	Status  int
	Kind    Kind
}

var table = map[Key]entry{
	MissingParameter:    {"missing_parameter", "required parameter is missing", http.StatusUnprocessableEntity, KindValidation},
	MalformedIdentifier: {"invalid_id", "invalid identifier format", http.StatusUnprocessableEntity, KindValidation},
	MissingDate:         {"missing_date", "date is required", http.StatusUnprocessableEntity, KindValidation},
	MalformedDateTime:   {"invalid_datetime", "invalid date/time format, expected YYYY-MM-DD or YYYY-MM-DD HH:MM", http.StatusUnprocessableEntity, KindValidation},
	OutOfRange:          {"out_of_range", "date is out of the allowed range", http.StatusUnprocessableEntity, KindValidation},
	ValidationError:     {"validation_error", "validation failed", http.StatusUnprocessableEntity, KindValidation},
	BadRequest:          {"bad_request", "invalid request body", http.StatusBadRequest, KindValidation},
	Unauthorized:        {"unauthorized", "authentication required", http.StatusUnauthorized, KindUnauthorized},
	InvalidCredentials:  {"invalid_credentials", "invalid username or password", http.StatusUnauthorized, KindUnauthorized},
	Forbidden:           {"forbidden", "access denied", http.StatusForbidden, KindForbidden},
	AdminRequired:       {"admin_required", "administrator privileges required", http.StatusForbidden, KindForbidden},
	NotFound:            {"not_found", "resource not found", http.StatusNotFound, KindNotFound},
	MethodNotAllowed:    {"method_not_allowed", "method not allowed", http.StatusMethodNotAllowed, KindValidation},
	Conflict:            {"conflict", "resource already exists", http.StatusConflict, KindValidation},
	RateLimited:         {"rate_limited", "too many requests, try again later", http.StatusTooManyRequests, KindRateLimited},
	InvalidRecord:       {"invalid_record", "record is missing pet_id", http.StatusInternalServerError, KindInternal},
	Internal:            {"internal_error", "internal server error", http.StatusInternalServerError, KindInternal},
}

// Error es el error tipado que cruza las capas service -> handler.
type Error struct {
	Key     Key
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is permite errors.Is(err, apperr.New(apperr.NotFound)) comparando solo la Key.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Key == e.Key
}

func (e *Error) Code() string   { return lookup(e.Key).Code }
func (e *Error) Status() int    { return lookup(e.Key).Status }
func (e *Error) Kind() Kind     { return lookup(e.Key).Kind }
func (e *Error) Public() string { return e.Message }

// New crea un error de la tabla. msg opcional reemplaza el mensaje por defecto.
func New(key Key, msg ...string) *Error {
	m := lookup(key).Message
	if len(msg) > 0 && msg[0] != "" {
		m = msg[0]
	}
	return &Error{Key: key, Message: m}
}

// Wrap conserva la causa (solo para logs; nunca se expone al cliente).
func Wrap(key Key, err error) *Error {
	e := New(key)
	e.Err = err
	return e
}

// As extrae el *Error. Errores desconocidos no matchean.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Normalize convierte cualquier error al taxonomy: desconocidos => Internal.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}
	return Wrap(Internal, err)
}

func HasKey(err error, key Key) bool {
	e, ok := As(err)
	return ok && e.Key == key
}

func lookup(key Key) entry {
	if e, ok := table[key]; ok {
		return e
	}
	return table[Internal]
}
