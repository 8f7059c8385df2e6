package service

// TokenSource mints the opaque random tokens that identify sessions.
type TokenSource interface {
	NewToken() string
}
