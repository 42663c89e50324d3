// Package storage defines the object storage capability used by the
// transcoding pipeline and implements it for Google Cloud Storage, Amazon S3
// (and S3-compatible stores) and MinIO.
//
// Every implementation satisfies [Backend]: stat an object, download it to a
// local path, upload a local file with a content type, and merge custom
// metadata into an existing object. A missing object is reported as
// [ErrObjectNotFound] regardless of backend.
//
// [New] builds the configured backend and wraps it so that every call is
// timed and counted in the storage Prometheus metrics.
package storage
