// Package auth implements the role/permission authorization core: the
// credential store reads and the per-request permission resolver. The HTTP
// gate in internal/web/middleware/auth builds on this package.
package auth
