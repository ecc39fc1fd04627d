/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses, realtime error events, and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message, the optional
// machine-readable wire code emitted on the realtime channel, and the HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format."},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format."},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Room and Collaboration Business Logic Errors
	ErrRoomNotFound:       {Code: ErrRoomNotFound, Message: "Room not found."},
	ErrWhiteboardNotFound: {Code: ErrWhiteboardNotFound, Message: "Whiteboard not found.", Status: http.StatusNotFound},
	ErrPayloadInvalid:     {Code: ErrPayloadInvalid, Message: "Malformed event payload."},

	// 3xxx: Authentication, Session, and Authorization Errors
	ErrTokenExpired:    {Code: ErrTokenExpired, WireCode: "TOKEN_EXPIRED", Message: "Your session has expired. Please sign in again.", Status: http.StatusUnauthorized},
	ErrTokenInvalid:    {Code: ErrTokenInvalid, WireCode: "INVALID_TOKEN", Message: "Authentication token is invalid.", Status: http.StatusUnauthorized},
	ErrAuthFailed:      {Code: ErrAuthFailed, WireCode: "AUTH_FAILED", Message: "Authentication failed.", Status: http.StatusUnauthorized},
	ErrSessionReplaced: {Code: ErrSessionReplaced, Message: "You connected from another device or tab."},
	ErrAccessDenied:    {Code: ErrAccessDenied, Message: "You do not have access to this resource.", Status: http.StatusForbidden},
	ErrUnauthorized:    {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
