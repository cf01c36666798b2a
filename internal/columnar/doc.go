// Package columnar encodes prepared dataset splits as Parquet channel files.
package columnar
