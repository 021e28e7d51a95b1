// Package scanner discovers albums and photos under the gallery root and
// records them in the database. Directories become albums; files whose
// content sniffs as a raster image become photos.
package scanner
