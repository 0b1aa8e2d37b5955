// Package credentials keeps the cached session token.
//
// The token is written to two sinks at once: a cookie (sent automatically
// with same-site requests) and a persistent key-value slot that the
// application reads back when it needs an Authorization header.
package credentials

// Slot is a key-value location the token can live in
type Slot interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}
