package httpx

import (
	"errors"
	"net/http"

	"github.com/viajes-nova/viajes-api/internal/shared"
)

// Default client messages per sentinel.
const (
	MsgNotFound     = "Recurso no encontrado"
	MsgDuplicate    = "El registro ya existe"
	MsgConflict     = "El registro está en uso"
	MsgValidation   = "Datos inválidos"
	MsgBadReference = "Referencia inválida"
)

// RespondError maps domain errors to HTTP responses. Errors built with the
// shared.UserError helpers keep their own message. fallback is used for
// errors that do not match a known sentinel.
func RespondError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Error(w, http.StatusNotFound, shared.UserSafeMessage(err, MsgNotFound))
	case errors.Is(err, shared.ErrDuplicate):
		Error(w, http.StatusConflict, shared.UserSafeMessage(err, MsgDuplicate))
	case errors.Is(err, shared.ErrConflict):
		Error(w, http.StatusConflict, shared.UserSafeMessage(err, MsgConflict))
	case errors.Is(err, shared.ErrValidation):
		Error(w, http.StatusUnprocessableEntity, shared.UserSafeMessage(err, MsgValidation))
	case errors.Is(err, shared.ErrBadReference):
		Error(w, http.StatusBadRequest, shared.UserSafeMessage(err, MsgBadReference))
	default:
		Error(w, http.StatusInternalServerError, fallback)
	}
}

// RespondNotFound behaves like RespondError but uses notFound as the message
// for plain shared.ErrNotFound.
func RespondNotFound(w http.ResponseWriter, err error, notFound, fallback string) {
	if errors.Is(err, shared.ErrNotFound) {
		Error(w, http.StatusNotFound, shared.UserSafeMessage(err, notFound))
		return
	}
	RespondError(w, err, fallback)
}

// IsServerError reports whether RespondError would answer err with a 5xx.
func IsServerError(err error) bool {
	for _, sentinel := range []error{shared.ErrNotFound, shared.ErrDuplicate, shared.ErrConflict, shared.ErrValidation, shared.ErrBadReference} {
		if errors.Is(err, sentinel) {
			return false
		}
	}
	return true
}
