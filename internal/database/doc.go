// Package database stores the gallery catalog in SQLite: albums and photos
// discovered by the scanner, the access policies that decide who may view
// them, and user accounts with their sessions.
package database
