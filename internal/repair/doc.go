// Package repair remediates malformed merged containers by trying an ordered
// list of strategies until one produces a valid output.
package repair
