// Package objectstore uploads Parquet channel files to S3-compatible object
// storage using the concurrent multipart uploader.
package objectstore
