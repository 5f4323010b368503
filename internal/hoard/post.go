package hoard

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Post is a detached snapshot of an archived file and its tags.
// Changing a Post does nothing until it is passed back to the Service.
type Post struct {
	ID           int64
	Hash         Digest
	Extension    string // without the leading dot; empty when the file had none
	OriginalName string
	Tags         TagSet
}

// NewPost builds an unpersisted post (ID 0) for content found at path.
func NewPost(hash Digest, path string) *Post {
	name := filepath.Base(path)
	return &Post{
		Hash:         hash,
		Extension:    extension(name),
		OriginalName: name,
		Tags:         NewTagSet(),
	}
}

// extension is the text after the last dot of name. A leading dot only
// marks a hidden file, so ".bashrc" has none.
func extension(name string) string {
	ext := filepath.Ext(name)
	if ext == name {
		return ""
	}
	return strings.TrimPrefix(ext, ".")
}

// Persisted reports whether the store has assigned this post an ID.
func (p *Post) Persisted() bool {
	return p.ID != 0
}

// FileName is the name of the stored file: the hex digest plus extension.
func (p *Post) FileName() string {
	if p.Extension == "" {
		return p.Hash.Hex()
	}
	return p.Hash.Hex() + "." + p.Extension
}

// TagString renders the tags sorted and comma-separated.
func (p *Post) TagString() string {
	return strings.Join(p.Tags.Sorted(), ",")
}

func (p *Post) String() string {
	return fmt.Sprintf("Post {\n  id: %d\n  file: %s\n  tags: [%s]\n}", p.ID, p.FileName(), p.TagString())
}

// Tag is a vocabulary entry. Tags outlive their last tagging.
type Tag struct {
	ID    int64
	Name  string
	Posts int64 // number of posts carrying the tag, when listed
}

// InsertResult distinguishes a fresh insert from a duplicate that the
// unique constraint swallowed. A duplicate is success, not an error.
type InsertResult struct {
	ID       int64
	Inserted bool
}

// AlreadyPresent reports whether the row existed before the insert.
func (r InsertResult) AlreadyPresent() bool {
	return !r.Inserted
}

// TagSet is an unordered set of tag names.
type TagSet map[string]struct{}

// NewTagSet returns a set holding names.
func NewTagSet(names ...string) TagSet {
	s := make(TagSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s TagSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s TagSet) Add(name string) {
	s[name] = struct{}{}
}

func (s TagSet) Remove(name string) {
	delete(s, name)
}

func (s TagSet) Len() int { return len(s) }

// Sorted returns the names in lexical order.
func (s TagSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether both sets hold the same names.
func (s TagSet) Equal(other TagSet) bool {
	if len(s) != len(other) {
		return false
	}
	for n := range s {
		if !other.Has(n) {
			return false
		}
	}
	return true
}
