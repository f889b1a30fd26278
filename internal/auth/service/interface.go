// Package service provides technical services for authentication operations.
//
// This package implements reusable services for credential secret generation
// and hashing using cryptographically secure primitives.
package service

// TokenService defines operations for bearer credential generation and hashing.
// Implementations must use cryptographically secure random generation and a
// deterministic hash so that validation can perform an indexed O(1) lookup by
// hash instead of scanning raw secrets.
type TokenService interface {
	// GenerateToken creates a new cryptographically secure random token with at
	// least 256 bits of entropy, rendered as an opaque string of at least 40
	// characters. Returns both the plain text token (to be shown to the caller
	// exactly once) and the hashed version (to be stored).
	GenerateToken() (plainToken string, tokenHash string, error error)

	// HashToken hashes a plain text token using SHA-256.
	// Used for credential validation by comparing hashes.
	HashToken(plainToken string) string

	// CompareHash compares two token hashes in constant time to avoid timing
	// side-channels in the final equality check.
	CompareHash(a, b string) bool
}
