// Package planstate persists the per-segment status snapshot that makes a
// transcode plan resumable, and guards each plan directory so only one
// pipeline driver owns it at a time.
package planstate
