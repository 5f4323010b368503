package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hoard-go/internal/database/migrations"
	"hoard-go/internal/database/sqlc"
	"hoard-go/internal/hoard"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements the hoard.Database interface using SQLite.
// A value returned by WithTx is bound to one transaction; every query it
// runs goes through that transaction.
type SQLiteDatabase struct {
	db      *sql.DB
	queries *sqlc.Queries
	tx      *sql.Tx
	path    string
}

// NewSQLiteDatabase opens the database at path and migrates it to the
// latest schema. path can be a file path or ":memory:".
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &SQLiteDatabase{
		db:      db,
		queries: sqlc.New(db),
		path:    path,
	}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured
// and migrated.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{
		db:      db,
		queries: sqlc.New(db),
	}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: ":memory:" databases are per connection, and the
	// worker is the only writer anyway.
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Post operations

func (s *SQLiteDatabase) InsertPost(post *hoard.Post) (hoard.InsertResult, error) {
	res, err := s.queries.InsertPost(context.Background(), sqlc.InsertPostParams{
		ContentHash:  post.Hash[:],
		Extension:    sql.NullString{String: post.Extension, Valid: post.Extension != ""},
		OriginalName: post.OriginalName,
	})
	if err != nil {
		return hoard.InsertResult{}, hoard.StorageError("inserting post", err)
	}

	// ON CONFLICT DO NOTHING leaves LastInsertId pointing at an older row,
	// so only trust it when a row was written.
	n, err := res.RowsAffected()
	if err != nil {
		return hoard.InsertResult{}, hoard.StorageError("inserting post", err)
	}
	if n == 0 {
		return hoard.InsertResult{}, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return hoard.InsertResult{}, hoard.StorageError("inserting post", err)
	}
	return hoard.InsertResult{ID: id, Inserted: true}, nil
}

func (s *SQLiteDatabase) GetPostByID(id int64) (*hoard.Post, error) {
	ctx := context.Background()
	row, err := s.queries.GetPostByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, hoard.NotFound(fmt.Sprintf("post %d", id))
		}
		return nil, hoard.StorageError("finding post by id", err)
	}
	return s.loadPost(ctx, row)
}

func (s *SQLiteDatabase) GetPostByHash(hash hoard.Digest) (*hoard.Post, error) {
	ctx := context.Background()
	row, err := s.queries.GetPostByHash(ctx, hash[:])
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, hoard.NotFound("post " + hash.Hex())
		}
		return nil, hoard.StorageError("finding post by hash", err)
	}
	return s.loadPost(ctx, row)
}

func (s *SQLiteDatabase) ListPosts() ([]*hoard.Post, error) {
	ctx := context.Background()
	rows, err := s.queries.ListPosts(ctx)
	if err != nil {
		return nil, hoard.StorageError("listing posts", err)
	}
	return s.attachTags(ctx, rows)
}

// RemovePost deletes the post's taggings and then the post, atomically.
func (s *SQLiteDatabase) RemovePost(id int64) error {
	return s.inTx(func(q *sqlc.Queries) error {
		ctx := context.Background()
		if err := q.DeleteTaggingsByPost(ctx, id); err != nil {
			return hoard.StorageError("removing taggings of post", err)
		}
		n, err := q.DeletePost(ctx, id)
		if err != nil {
			return hoard.StorageError("removing post", err)
		}
		if n == 0 {
			return hoard.NotFound(fmt.Sprintf("post %d", id))
		}
		return nil
	})
}

// Tag operations

func (s *SQLiteDatabase) FindTagID(name string) (int64, error) {
	id, err := s.queries.GetTagIDByName(context.Background(), name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, hoard.NotFound("tag " + name)
		}
		return 0, hoard.StorageError("finding tag", err)
	}
	return id, nil
}

func (s *SQLiteDatabase) GetOrCreateTag(name string) (int64, error) {
	id, err := s.FindTagID(name)
	if err == nil {
		return id, nil
	}
	if !hoard.IsNotFound(err) {
		return 0, err
	}

	id, err = s.queries.InsertTag(context.Background(), name)
	if err != nil {
		return 0, hoard.StorageError("inserting tag", err)
	}
	return id, nil
}

func (s *SQLiteDatabase) ListTags() ([]*hoard.Tag, error) {
	rows, err := s.queries.ListTagsWithCounts(context.Background())
	if err != nil {
		return nil, hoard.StorageError("listing tags", err)
	}

	tags := make([]*hoard.Tag, len(rows))
	for i, r := range rows {
		tags[i] = &hoard.Tag{ID: r.ID, Name: r.Name, Posts: r.Posts}
	}
	return tags, nil
}

// RemoveTag deletes the tag's taggings and then the tag, atomically.
func (s *SQLiteDatabase) RemoveTag(name string) (int64, error) {
	var id int64
	err := s.inTx(func(q *sqlc.Queries) error {
		ctx := context.Background()
		var err error
		id, err = q.GetTagIDByName(ctx, name)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return hoard.NotFound("tag " + name)
			}
			return hoard.StorageError("finding tag", err)
		}
		if err := q.DeleteTaggingsByTag(ctx, id); err != nil {
			return hoard.StorageError("removing taggings of tag", err)
		}
		if _, err := q.DeleteTag(ctx, id); err != nil {
			return hoard.StorageError("removing tag", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Tagging operations

func (s *SQLiteDatabase) InsertTagging(postID, tagID int64) (bool, error) {
	n, err := s.queries.InsertTagging(context.Background(), sqlc.InsertTaggingParams{
		PostID: postID,
		TagID:  tagID,
	})
	if err != nil {
		return false, hoard.StorageError("inserting tagging", err)
	}
	return n > 0, nil
}

func (s *SQLiteDatabase) RemoveTagging(postID, tagID int64) (bool, error) {
	n, err := s.queries.DeleteTagging(context.Background(), sqlc.DeleteTaggingParams{
		PostID: postID,
		TagID:  tagID,
	})
	if err != nil {
		return false, hoard.StorageError("removing tagging", err)
	}
	return n > 0, nil
}

// Search returns posts tagged with every include name and with no exclude
// name, by ascending id. Repeated names count once.
func (s *SQLiteDatabase) Search(include, exclude []string) ([]*hoard.Post, error) {
	include = dedupe(include)
	exclude = dedupe(exclude)
	if len(include) == 0 {
		return []*hoard.Post{}, nil
	}

	ctx := context.Background()
	var (
		rows []sqlc.Post
		err  error
	)
	// An empty slice renders as IN (NULL), and NOT IN (NULL) matches
	// nothing, so exclusion gets its own query.
	if len(exclude) == 0 {
		rows, err = s.queries.SearchPosts(ctx, sqlc.SearchPostsParams{
			Include:      include,
			IncludeCount: int64(len(include)),
		})
	} else {
		rows, err = s.queries.SearchPostsExcluding(ctx, sqlc.SearchPostsExcludingParams{
			Include:      include,
			Exclude:      exclude,
			IncludeCount: int64(len(include)),
		})
	}
	if err != nil {
		return nil, hoard.StorageError("searching posts", err)
	}
	return s.attachTags(ctx, rows)
}

// Transactions

// WithTx runs fn inside a transaction. A transaction-bound database runs
// fn directly, so nested calls join the outer transaction.
func (s *SQLiteDatabase) WithTx(fn func(tx hoard.Database) error) error {
	if s.tx != nil {
		return fn(s)
	}

	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return hoard.StorageError("starting transaction", err)
	}
	defer tx.Rollback()

	bound := &SQLiteDatabase{
		db:      s.db,
		queries: s.queries.WithTx(tx),
		tx:      tx,
		path:    s.path,
	}
	if err := fn(bound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return hoard.StorageError("committing transaction", err)
	}
	return nil
}

// inTx runs fn with queries bound to the current transaction, opening one
// when there is none.
func (s *SQLiteDatabase) inTx(fn func(q *sqlc.Queries) error) error {
	if s.tx != nil {
		return fn(s.queries)
	}

	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return hoard.StorageError("starting transaction", err)
	}
	defer tx.Rollback()

	if err := fn(s.queries.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return hoard.StorageError("committing transaction", err)
	}
	return nil
}

func (s *SQLiteDatabase) loadPost(ctx context.Context, row sqlc.Post) (*hoard.Post, error) {
	names, err := s.queries.GetPostTagNames(ctx, row.ID)
	if err != nil {
		return nil, hoard.StorageError("loading post tags", err)
	}
	return toPost(row, names)
}

// tagBatchSize bounds the ids bound into one ListPostTagNames query,
// well under SQLite's host parameter limit.
const tagBatchSize = 500

// attachTags converts rows and fills in their tag sets, loading only the
// taggings of those posts.
func (s *SQLiteDatabase) attachTags(ctx context.Context, rows []sqlc.Post) ([]*hoard.Post, error) {
	posts := make([]*hoard.Post, 0, len(rows))
	if len(rows) == 0 {
		return posts, nil
	}

	byID := make(map[int64]*hoard.Post, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		p, err := toPost(r, nil)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	for len(ids) > 0 {
		batch := ids[:min(len(ids), tagBatchSize)]
		ids = ids[len(batch):]

		taggings, err := s.queries.ListPostTagNames(ctx, batch)
		if err != nil {
			return nil, hoard.StorageError("loading post tags", err)
		}
		for _, t := range taggings {
			byID[t.PostID].Tags.Add(t.Name)
		}
	}
	return posts, nil
}

func toPost(row sqlc.Post, tags []string) (*hoard.Post, error) {
	hash, err := hoard.DigestFromBytes(row.ContentHash)
	if err != nil {
		return nil, hoard.StorageError(fmt.Sprintf("decoding hash of post %d", row.ID), err)
	}
	return &hoard.Post{
		ID:           row.ID,
		Hash:         hash,
		Extension:    row.Extension.String,
		OriginalName: row.OriginalName,
		Tags:         hoard.NewTagSet(tags...),
	}, nil
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	if s.tx != nil {
		return fmt.Errorf("cannot check migrations inside a transaction")
	}
	return migrations.CheckDBMigrationStatus(s.db)
}

// Close closes the database connection. Closing a transaction-bound
// database is a no-op; the owner of the transaction closes the connection.
func (s *SQLiteDatabase) Close() error {
	if s.tx != nil {
		return nil
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements hoard.Database interface
var _ hoard.Database = (*SQLiteDatabase)(nil)
