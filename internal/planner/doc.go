// Package planner divides a probed asset into contiguous, non-overlapping
// time segments and owns the plan and segment types shared by the pipeline.
package planner
