// Package handlers implements the HTTP endpoints of the gallery server:
// photo delivery (originals and resized presets), session authentication,
// and operational endpoints.
package handlers
