package models

import "errors"

// Sentinel errors returned by the resource-state mutators. Handlers map these
// to HTTP statuses with errors.Is.
var (
	// ErrInsufficientQuantity is returned when a tool assignment would drive
	// the available quantity negative. No write happens in that case.
	ErrInsufficientQuantity = errors.New("insufficient tool quantity")

	// ErrTerminalMission is returned when a status update targets a mission
	// that is already COMPLETED or CANCELLED.
	ErrTerminalMission = errors.New("mission is in a terminal state")
)

// ErrorMessageResponse returns the error message response struct
type ErrorMessageResponse struct {
	Response MessageError `json:"response"`
}

// MessageError contains the inner details for the error message response
type MessageError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// HealthCheckResponse returns the health check response struct
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}
