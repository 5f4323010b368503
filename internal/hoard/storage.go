package hoard

import "io"

// ContentStore keeps the archived bytes and thumbnails under paths derived
// from the content digest:
//
//	<file_root>/<hex[0:2]>/<hex[2:4]>/<hex>[.<ext>]
//	<thumbnail_root>/<hex[0:2]>/<hex[2:4]>/<hex>.jpg
type ContentStore interface {
	// Put stores the content of r for post. Storing the same post twice is safe.
	Put(post *Post, r io.Reader) error

	// Open returns a reader for the stored file.
	Open(post *Post) (io.ReadCloser, error)

	// Remove deletes the stored file.
	Remove(post *Post) error

	// FilePath is where the post's file lives.
	FilePath(post *Post) string

	// ThumbnailPath is where the post's thumbnail lives, whether or not it exists.
	ThumbnailPath(post *Post) string

	// RemoveThumbnail deletes the thumbnail. A missing thumbnail is not an error.
	RemoveThumbnail(post *Post) error
}

// Thumbnailer produces a fixed-size raster thumbnail of src at dst,
// creating intermediate directories.
type Thumbnailer interface {
	Generate(src, dst string) error
}

// NopThumbnailer never produces anything. Used when thumbnails are disabled.
type NopThumbnailer struct{}

func (NopThumbnailer) Generate(string, string) error { return nil }
