package handler

const (
	errInternalServer = "Internal server error"
	errUserNotFound   = "User not found"
)

const (
	// FlashCookieName carries the message of the last auth outcome to the
	// page the client is redirected to.
	FlashCookieName = "charon_flash"

	flashInfo  = "info"
	flashError = "error"
)
