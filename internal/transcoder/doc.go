// Package transcoder runs the external encoder (FFmpeg) that converts an
// audio or video file into AAC audio in an M4A container.
//
// Arguments are assembled by [Args] and passed to the process directly,
// never through a shell. Every run is bounded by a timeout; on expiry the
// process is killed and the run fails with an [ExitError] whose TimedOut
// field is set. Running processes are tracked so that [Transcoder.Cleanup]
// can kill them during shutdown.
package transcoder
