// Package services defines the shared error taxonomy and context helpers
// used across pipeline, merge, and batch components.
package services
