package hoard

import (
	"errors"
	"fmt"
	"strings"
)

// Service is the post lifecycle layer. It composes the database, the
// content store and the thumbnailer into the operations the worker and the
// CLI need. A Service is not safe for concurrent use.
type Service struct {
	database Database
	store    ContentStore
	thumbs   Thumbnailer
	fsmgr    FilesystemManager
	logger   Logger

	// afterCommit collects file removals made inside WithTx. They run only
	// once the transaction commits. nil outside a transaction.
	afterCommit *[]func()
}

// NewService creates a new Service with the provided dependencies.
func NewService(database Database, store ContentStore, thumbs Thumbnailer, fsmgr FilesystemManager, logger Logger) *Service {
	return &Service{
		database: database,
		store:    store,
		thumbs:   thumbs,
		fsmgr:    fsmgr,
		logger:   logger,
	}
}

// FilesystemManager returns the manager used to read ingested files.
func (s *Service) FilesystemManager() FilesystemManager {
	return s.fsmgr
}

// WithTx runs fn with a Service whose database calls share one transaction.
// If fn fails, nothing it did to the database is kept. Files already
// copied into the content store stay behind; they are addressed by hash and
// a later ingest of the same content reuses them. Stored files of posts
// deleted inside fn are removed after the commit, so a rollback never
// leaves a row without its file.
func (s *Service) WithTx(fn func(tx *Service) error) error {
	pending := s.afterCommit
	outermost := pending == nil
	if outermost {
		pending = new([]func())
	}

	err := s.database.WithTx(func(db Database) error {
		txs := *s
		txs.database = db
		txs.afterCommit = pending
		return fn(&txs)
	})
	if err != nil || !outermost {
		return err
	}

	for _, f := range *pending {
		f()
	}
	return nil
}

// IngestFile archives the file at path.
// Content that is already stored short-circuits to the existing post: no
// copy, no thumbnail. created reports whether a new post was made.
func (s *Service) IngestFile(path *Path) (post *Post, created bool, err error) {
	if path.IsDir() {
		return nil, false, fmt.Errorf("path is a directory, not a file: %s", path.String())
	}

	hash, err := HashFile(s.fsmgr, path)
	if err != nil {
		return nil, false, fmt.Errorf("hashing %s: %w", path.String(), err)
	}

	post = NewPost(hash, path.String())
	res, err := s.database.InsertPost(post)
	if err != nil {
		return nil, false, fmt.Errorf("inserting post: %w", err)
	}

	if res.AlreadyPresent() {
		s.logger.Info("file already in archive", "path", path.String(), "hash", hash.Hex())
		existing, err := s.database.GetPostByHash(hash)
		if err != nil {
			return nil, false, fmt.Errorf("loading existing post: %w", err)
		}
		return existing, false, nil
	}
	post.ID = res.ID

	if err := s.copyIn(post, path); err != nil {
		// Without its file the row is useless; take it back out.
		if rmErr := s.database.RemovePost(post.ID); rmErr != nil {
			s.logger.Error("removing post after failed copy", "id", post.ID, "error", rmErr)
		}
		return nil, false, err
	}

	if err := s.thumbs.Generate(s.store.FilePath(post), s.store.ThumbnailPath(post)); err != nil {
		s.logger.Warn("thumbnail generation failed", "name", post.OriginalName, "error", err)
	}

	s.logger.Info("post created", "id", post.ID, "name", post.OriginalName, "hash", hash.Hex(), "size", path.Size())
	return post, true, nil
}

func (s *Service) copyIn(post *Post, path *Path) error {
	f, err := s.fsmgr.Open(path)
	if err != nil {
		return IOError("opening "+path.String(), err)
	}
	defer f.Close()

	if err := s.store.Put(post, f); err != nil {
		return IOError("storing "+post.FileName(), err)
	}
	return nil
}

// AddTags tags post with each name, persisting as it goes.
// Tags the post already has are skipped. Returns how many were added.
func (s *Service) AddTags(post *Post, names []string) (int, error) {
	added := 0
	for _, name := range names {
		ok, err := s.addTag(post, name)
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	return added, nil
}

func (s *Service) addTag(post *Post, name string) (bool, error) {
	name, err := cleanTagName(name)
	if err != nil {
		return false, err
	}
	if post.Tags.Has(name) {
		return false, nil
	}

	tagID, err := s.database.GetOrCreateTag(name)
	if err != nil {
		return false, fmt.Errorf("resolving tag %q: %w", name, err)
	}
	if _, err := s.database.InsertTagging(post.ID, tagID); err != nil {
		return false, fmt.Errorf("tagging post %d: %w", post.ID, err)
	}

	post.Tags.Add(name)
	s.logger.Debug("tag added", "post", post.ID, "tag", name)
	return true, nil
}

// RemoveTags untags post. Names the post does not carry are ignored.
// Returns how many were removed.
func (s *Service) RemoveTags(post *Post, names []string) (int, error) {
	removed := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		if !post.Tags.Has(name) {
			continue
		}

		tagID, err := s.database.FindTagID(name)
		if err != nil && !IsNotFound(err) {
			return removed, fmt.Errorf("resolving tag %q: %w", name, err)
		}
		if err == nil {
			if _, err := s.database.RemoveTagging(post.ID, tagID); err != nil {
				return removed, fmt.Errorf("untagging post %d: %w", post.ID, err)
			}
		}

		// A tag removed globally since the post was loaded leaves nothing to
		// unlink; the snapshot just catches up.
		post.Tags.Remove(name)
		removed++
		s.logger.Debug("tag removed", "post", post.ID, "tag", name)
	}
	return removed, nil
}

// AddTagToPost tags the post with the given id.
func (s *Service) AddTagToPost(postID int64, name string) error {
	post, err := s.database.GetPostByID(postID)
	if err != nil {
		return fmt.Errorf("loading post %d: %w", postID, err)
	}
	_, err = s.addTag(post, name)
	return err
}

// RemoveTagFromPost untags the post with the given id. Unknown tags and
// tags the post lacks are no-ops.
func (s *Service) RemoveTagFromPost(postID int64, name string) error {
	name, err := cleanTagName(name)
	if err != nil {
		return err
	}
	tagID, err := s.database.FindTagID(name)
	if IsNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolving tag %q: %w", name, err)
	}
	if _, err := s.database.RemoveTagging(postID, tagID); err != nil {
		return fmt.Errorf("untagging post %d: %w", postID, err)
	}
	return nil
}

// DeletePost removes the post, its taggings, its stored file and its
// thumbnail. The post is terminal afterwards. Inside WithTx the files go
// only when the transaction commits.
func (s *Service) DeletePost(post *Post) error {
	if err := s.database.RemovePost(post.ID); err != nil {
		return fmt.Errorf("removing post %d: %w", post.ID, err)
	}

	if s.afterCommit != nil {
		*s.afterCommit = append(*s.afterCommit, func() {
			if err := s.removeFiles(post); err != nil {
				s.logger.Error("removing files of deleted post", "id", post.ID, "error", err)
			}
		})
		s.logger.Info("post deleted", "id", post.ID, "hash", post.Hash.Hex())
		return nil
	}

	if err := s.removeFiles(post); err != nil {
		return err
	}
	s.logger.Info("post deleted", "id", post.ID, "hash", post.Hash.Hex())
	return nil
}

func (s *Service) removeFiles(post *Post) error {
	if err := s.store.Remove(post); err != nil {
		return IOError("removing file "+post.FileName(), err)
	}
	if err := s.store.RemoveThumbnail(post); err != nil {
		s.logger.Warn("removing thumbnail failed", "id", post.ID, "error", err)
	}
	return nil
}

// DeletePostByID loads and deletes a post.
func (s *Service) DeletePostByID(id int64) (*Post, error) {
	post, err := s.database.GetPostByID(id)
	if err != nil {
		return nil, fmt.Errorf("loading post %d: %w", id, err)
	}
	return post, s.DeletePost(post)
}

// CreateTag adds name to the vocabulary and returns its id.
func (s *Service) CreateTag(name string) (int64, error) {
	name, err := cleanTagName(name)
	if err != nil {
		return 0, err
	}
	return s.database.GetOrCreateTag(name)
}

// RemoveTagGlobally deletes the tag and all its taggings. Posts loaded
// earlier that carry the tag are stale until reloaded.
func (s *Service) RemoveTagGlobally(name string) (int64, error) {
	name, err := cleanTagName(name)
	if err != nil {
		return 0, err
	}
	id, err := s.database.RemoveTag(name)
	if err != nil {
		return 0, fmt.Errorf("removing tag %q: %w", name, err)
	}
	s.logger.Info("tag removed", "tag", name, "id", id)
	return id, nil
}

// Search runs a tag query given as raw tokens.
func (s *Service) Search(tokens []string) ([]*Post, error) {
	q := ParseQuery(tokens)
	s.logger.Debug("searching", "include", strings.Join(q.Include, ","), "exclude", strings.Join(q.Exclude, ","))
	return s.SearchQuery(q)
}

// SearchQuery runs an already parsed query.
func (s *Service) SearchQuery(q Query) ([]*Post, error) {
	posts, err := s.database.Search(q.Include, q.Exclude)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	return posts, nil
}

// GetPost returns the post with the given id.
func (s *Service) GetPost(id int64) (*Post, error) {
	return s.database.GetPostByID(id)
}

// GetPostByHash returns the post stored under hash.
func (s *Service) GetPostByHash(hash Digest) (*Post, error) {
	return s.database.GetPostByHash(hash)
}

// AllPosts returns every post, oldest first.
func (s *Service) AllPosts() ([]*Post, error) {
	return s.database.ListPosts()
}

// Tags returns the vocabulary with usage counts.
func (s *Service) Tags() ([]*Tag, error) {
	return s.database.ListTags()
}

// FilePath is the stored location of post's file.
func (s *Service) FilePath(post *Post) string {
	return s.store.FilePath(post)
}

// ThumbnailPath is the location of post's thumbnail.
func (s *Service) ThumbnailPath(post *Post) string {
	return s.store.ThumbnailPath(post)
}

var errEmptyTag = errors.New("tag name cannot be empty")

func cleanTagName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errEmptyTag
	}
	if strings.HasPrefix(name, NegationMarker) {
		return "", fmt.Errorf("tag name cannot start with %q: %s", NegationMarker, name)
	}
	return name, nil
}
