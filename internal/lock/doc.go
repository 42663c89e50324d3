// Package lock provides per-object mutual exclusion so that two deliveries
// of the same notification are never processed at the same time.
//
// Three backends implement [Locker]:
//
//   - redis: SET NX with a TTL and a random token, released by a
//     compare-and-delete script. Works across instances.
//   - file: a non-blocking flock(2) on a file derived from the object key.
//     Works across processes on one host.
//   - none: always succeeds.
//
// TryLock never blocks. When the object is already locked it returns
// [ErrLocked] and the caller answers with a conflict so that the push
// system redelivers later.
package lock
