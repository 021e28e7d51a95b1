// Package thumbnail derives resized raster images from gallery photos.
//
// The pipeline is: decode, EXIF auto-rotation (JPEG only, best effort),
// optional center pre-crop to the target aspect ratio, shrink-only Lanczos
// resize, and an atomic encode to the target path. When libvips is
// available the same pipeline runs through decode-time shrinking instead,
// which is much cheaper on large sources.
package thumbnail
