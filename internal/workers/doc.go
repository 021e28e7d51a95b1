// Package workers computes worker pool sizes that respect container CPU
// limits.
package workers
