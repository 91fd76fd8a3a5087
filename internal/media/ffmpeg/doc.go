// Package ffmpeg wraps the ffmpeg command line as the transcode and concat
// clients used by the pipeline and merge engines.
package ffmpeg
