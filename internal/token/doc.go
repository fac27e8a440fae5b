// Package token signs and verifies the compact signed bearer tokens used by
// the authorization gate. Two token kinds exist: short-lived access tokens
// and long-lived refresh tokens, each signed under its own secret. The codec
// exposes a distinct issue/verify pair per kind so a caller cannot hand the
// wrong secret to a verification.
package token
