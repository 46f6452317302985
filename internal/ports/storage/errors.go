package storage

import "errors"

// Errores comunes de los adapters de storage. Los dominios los re-exportan
// para que errors.Is funcione entre capas sin importar adapters.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
