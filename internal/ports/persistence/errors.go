// Package persistence define los errores comunes que devuelven los adapters
// de storage (memory, mongo, postgres) para que los services no dependan del driver.
package persistence

import "errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")

	// ErrTransactionsUnsupported indica que el backend no soporta transacciones
	// multi-documento (ej: mongod standalone sin replica set).
	ErrTransactionsUnsupported = errors.New("transactions not supported by storage backend")
)
