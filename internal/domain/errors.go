package domain

import "errors"

var (
	// ErrInvalidCapital: el capital inicial debe ser finito y > 0.
	ErrInvalidCapital = errors.New("initial capital must be a positive finite number")

	// ErrEmptySeries se devuelve cuando una fuente de datos no trae precios.
	ErrEmptySeries = errors.New("price series is empty")

	// ErrInvalidPrice: los precios de cierre deben ser finitos y > 0.
	ErrInvalidPrice = errors.New("price must be a positive finite number")

	// ErrInvalidParameter marca parámetros de estrategia imposibles (periodos <= 0, etc.).
	ErrInvalidParameter = errors.New("invalid strategy parameter")

	// ErrNonFinite se devuelve cuando un indicador produce NaN o ±Inf.
	ErrNonFinite = errors.New("indicator produced a non-finite value")

	// ErrDuplicateStrategy: la misma instancia no puede correr en paralelo consigo misma.
	ErrDuplicateStrategy = errors.New("strategy instance submitted more than once")

	// ErrUnknownStrategy se devuelve al seleccionar un nombre que no está registrado.
	ErrUnknownStrategy = errors.New("unknown strategy")
)
