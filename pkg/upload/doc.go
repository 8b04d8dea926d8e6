// Package upload prepares and uploads chat attachments.
//
// Files are validated against a named Limits policy, images are re-encoded as
// JPEG no larger than 1920x1080, and the batch is uploaded in parallel. A
// batch either yields a remote id for every file or fails as a whole with an
// *UploadError.
//
// Two policies exist. GeneralLimits (20MB) governs files picked by the user
// and camera snapshots; CompactLimits (5MB) governs attachments sent inline
// with a message over the websocket bridge.
//
// An optional Cache (memory or BadgerDB) remembers content digests so that
// the same bytes are never uploaded twice.
package upload
