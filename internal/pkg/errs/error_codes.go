/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1005
)

// 2xxx: Room and Collaboration Business Logic Errors
const (
	// ErrRoomNotFound indicates that the referenced room does not exist.
	ErrRoomNotFound = 2101

	// ErrWhiteboardNotFound indicates that the referenced whiteboard has no state,
	// neither live in memory nor persisted.
	ErrWhiteboardNotFound = 2102

	// ErrPayloadInvalid indicates that an inbound realtime event carried a payload
	// that does not match the declared event shape.
	ErrPayloadInvalid = 2201
)

// 3xxx: Authentication, Session, and Authorization Errors
const (
	// ErrTokenExpired indicates that the presented bearer token has expired.
	ErrTokenExpired = 3001

	// ErrTokenInvalid indicates that the presented bearer token failed verification.
	ErrTokenInvalid = 3002

	// ErrAuthFailed indicates that no usable token was presented at all.
	ErrAuthFailed = 3003

	// ErrSessionReplaced indicates that the current connection has been terminated
	// because the same user opened a newer connection.
	ErrSessionReplaced = 3004

	// ErrAccessDenied indicates that the user lacks access to the event or resource
	// backing the requested room.
	ErrAccessDenied = 3005

	// ErrUnauthorized indicates that the request requires authentication.
	ErrUnauthorized = 3006
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
