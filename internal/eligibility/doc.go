// Package eligibility decides whether a storage object should be transcoded.
//
// [Decide] works from object metadata alone and is ordered cheapest check
// first, so already-processed objects are skipped before any bytes are
// downloaded. [Resolve] re-applies the same rules to a type sniffed from
// downloaded content when the declared type was application/octet-stream.
package eligibility
