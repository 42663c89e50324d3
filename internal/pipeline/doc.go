// Package pipeline runs the sequential transcode pipeline for one storage
// notification:
//
//  1. skip non-upload events (unless configured otherwise)
//  2. take the per-object lock
//  3. stat the object and decide eligibility from its metadata
//  4. download into a fresh scratch workspace
//  5. sniff the content when the declared type was application/octet-stream
//  6. run the encoder
//  7. upload the result as audio/mp4 and tag it transcoded=true
//  8. tag the source too when the output was renamed
//
// Every failure is returned as an error wrapping one of the sentinel errors
// in this package (or in pubsub for parse failures); skips and successes are
// described by a [Report]. The scratch workspace is removed and the lock
// released on every path.
package pipeline
