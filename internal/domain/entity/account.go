// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"
)

// Capability flags gating the admin screens. An owner account carries
// every flag; a regular account carries none until granted elsewhere.
const (
	CapManageContent  = "manageContent"
	CapManageUsers    = "manageUsers"
	CapManageSettings = "manageSettings"
)

// AllCapabilities returns the full capability-flag set with every flag
// set to the given value. Used by signup and the owner bootstrap.
func AllCapabilities(granted bool) map[string]bool {
	return map[string]bool{
		CapManageContent:  granted,
		CapManageUsers:    granted,
		CapManageSettings: granted,
	}
}

// Account is a local admin account. Username is the unique identifier
// within the credential store. CredentialHash holds a bcrypt hash; the
// plaintext credential is never persisted.
type Account struct {
	Username       string          `json:"username"`
	CredentialHash string          `json:"credential"`
	IsOwner        bool            `json:"isOwner"`
	Permissions    map[string]bool `json:"permissions"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Sanitized returns a copy of the account with the credential hash
// stripped, safe to hand to the delivery layer.
func (a *Account) Sanitized() *Account {
	clone := *a
	clone.CredentialHash = ""

	return &clone
}

// LoginAttempt tracks consecutive failed authentication attempts for one
// username. An absent record is equivalent to a zero count.
type LoginAttempt struct {
	Username      string    `json:"username"`
	Count         int       `json:"count"`
	LastAttemptAt time.Time `json:"lastAttempt"`
}

// Expired reports whether the lockout window has elapsed since the last
// failed attempt, meaning the accumulated count no longer applies.
func (a *LoginAttempt) Expired(now time.Time, window time.Duration) bool {
	return now.Sub(a.LastAttemptAt) >= window
}

// Locked reports whether the record currently locks the account out:
// the count reached the threshold and the window has not elapsed yet.
func (a *LoginAttempt) Locked(now time.Time, threshold int, window time.Duration) bool {
	return a.Count >= threshold && !a.Expired(now, window)
}

// Session is a server-side login session identified by an opaque random
// token. Expiry is evaluated lazily against LastActivityAt on restore,
// never by a background timer.
type Session struct {
	Token          string    `json:"token"`
	Username       string    `json:"username"`
	IsOwner        bool      `json:"isOwner"`
	CreatedAt      time.Time `json:"createdAt"`
	LastActivityAt time.Time `json:"lastActivity"`
}

// IdleExpired reports whether the session sat idle longer than the
// given timeout as of now.
func (s *Session) IdleExpired(now time.Time, idleTimeout time.Duration) bool {
	return now.Sub(s.LastActivityAt) > idleTimeout
}
