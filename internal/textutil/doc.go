// Package textutil sanitizes filenames and path segments for safe
// filesystem use.
package textutil
