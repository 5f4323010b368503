package hoard

// Database is the persisted side of the archive: posts, tags and the
// taggings that join them. Implementations own their connection and are
// not safe for concurrent use; the worker is their only caller.
//
// Lookups return an error matching ErrNotFound on a miss. Engine failures
// match ErrStorage.
type Database interface {
	// Post operations

	// InsertPost inserts post unless its hash is already stored.
	// The result says which happened; a duplicate is not an error.
	InsertPost(post *Post) (InsertResult, error)

	// GetPostByID returns the post with its tag set.
	GetPostByID(id int64) (*Post, error)

	// GetPostByHash returns the post stored under hash with its tag set.
	GetPostByHash(hash Digest) (*Post, error)

	// ListPosts returns every post with tags, oldest first.
	ListPosts() ([]*Post, error)

	// RemovePost deletes the post and all its taggings as one unit.
	RemovePost(id int64) error

	// Tag operations

	// FindTagID resolves a tag name.
	FindTagID(name string) (int64, error)

	// GetOrCreateTag returns the id of name, inserting the tag on first use.
	GetOrCreateTag(name string) (int64, error)

	// ListTags returns the whole vocabulary with usage counts, by name.
	ListTags() ([]*Tag, error)

	// RemoveTag deletes the tag and every tagging that references it,
	// returning the id it had.
	RemoveTag(name string) (int64, error)

	// Tagging operations

	// InsertTagging links a post and a tag. Redundant calls return false.
	InsertTagging(postID, tagID int64) (bool, error)

	// RemoveTagging unlinks a post and a tag. Redundant calls return false.
	RemoveTagging(postID, tagID int64) (bool, error)

	// Search returns posts carrying every include tag and no exclude tag.
	// An empty include list yields no posts.
	Search(include, exclude []string) ([]*Post, error)

	// WithTx runs fn against a transaction-bound Database. The transaction
	// commits when fn returns nil and rolls back otherwise.
	WithTx(fn func(tx Database) error) error

	// CheckMigrations verifies the schema is at the latest version.
	CheckMigrations() error

	// Close closes the database connection.
	Close() error
}
