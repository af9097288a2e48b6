package errors

import "net/http"

const (
	CodeInvalidLimit   = "INVALID_LIMIT"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeDatabaseError  = "DATABASE_ERROR"
	CodeInternalServer = "INTERNAL_SERVER_ERROR"
	CodeNotFound       = "NOT_FOUND"
)

var (
	ErrInvalidLimit = New(
		CodeInvalidLimit,
		"limit must be an integer between 1 and 50000",
		http.StatusBadRequest,
	)

	ErrInvalidRequest = New(
		CodeInvalidRequest,
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrDatabaseError = New(
		CodeDatabaseError,
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrNotFound = New(
		CodeNotFound,
		"Resource not found",
		http.StatusNotFound,
	)

	ErrInternalServer = New(
		CodeInternalServer,
		"Internal server error",
		http.StatusInternalServerError,
	)
)
