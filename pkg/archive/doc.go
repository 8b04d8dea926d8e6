// Package archive keeps copies of captured media (voice recordings and
// camera snapshots) for later auditing.
//
// Objects are written through a [Store], which is either a local directory
// ([Local]) or an S3-compatible bucket ([S3Store]). The [Archiver] assigns
// date-partitioned keys and never lets a storage failure reach the caller's
// conversation flow: it logs and returns the error for inspection only.
package archive
