/*
Package user contains core data structures related to user identity.

It defines the basic representation of a platform user as seen by the realtime
layer (the User struct), used for passing identity both internally and to clients.
*/
package user

// User represents the identity of a connected participant. The realtime layer
// never creates users; identities come from verified token claims or from the
// join payload supplied by an already-authenticated client.
type User struct {

	// ID is the stable unique identifier for the user, issued by the platform.
	ID string `json:"id"`

	// Name is the display name shown to other participants.
	Name string `json:"name"`

	// Email is the authenticated email address carried in the token claims.
	Email string `json:"email,omitempty"`

	// Avatar is a reference (URL or key) to the user's avatar image.
	Avatar string `json:"avatar,omitempty"`
}
