// Package workerpool provides a bounded task executor whose worker count is
// adjusted by a feedback loop on system CPU load.
package workerpool
