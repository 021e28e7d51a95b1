// Package serve transmits permission-checked files over HTTP.
//
// It supports two delivery modes: direct reads for development, and
// webserver delegation (nginx X-Accel-Redirect or Apache X-SendFile) for
// production, where the response carries only a header naming the file and
// the front webserver streams the bytes. Conditional GET requests are
// answered with 304 when the file has not changed.
//
// The caller is responsible for the access decision; this package trusts
// the path it is handed.
package serve
