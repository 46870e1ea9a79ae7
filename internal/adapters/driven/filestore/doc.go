// Package filestore groups the driven.FileStore adapters that retain
// uploaded files for citation links.
//
// Adapters:
//   - local: a directory served by the HTTP adapter under /files/
//   - s3: an S3 compatible bucket
package filestore
