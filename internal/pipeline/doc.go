// Package pipeline drives a segment plan through the adaptive worker pool,
// tracking per-segment state for resume, and reassembles completed segments
// into the final asset.
package pipeline
