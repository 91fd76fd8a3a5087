// Package ffprobe shells out to ffprobe to read container and stream
// metadata for an asset.
package ffprobe
