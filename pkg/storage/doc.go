// Package storage keeps uploaded batch files until their job finishes.
//
// Two backends implement Storage: Local writes under a directory on disk,
// S3 writes to an S3-compatible bucket. Keys are generated by NewKey and are
// always relative, slash separated paths.
//
// Validation rules run before anything is written:
//
//	info, err := store.Put(ctx, storage.NewKey("uploads", fh.Filename), file, fh.Size,
//	    storage.WithValidation(storage.NotEmpty(), storage.MaxSize(16<<20),
//	        storage.AllowedExtensions(".csv", ".xlsx", ".xls")),
//	    storage.WithFilename(fh.Filename),
//	)
package storage
