// Package auth provides the per-request authorization gate. Each protected
// route group is registered with its resource name; the gate verifies the
// bearer token for mutating requests and asks the permission resolver whether
// the token's role may perform "<resource>_<METHOD>". Read requests and the
// login/refreshToken endpoints are not gated.
package auth
