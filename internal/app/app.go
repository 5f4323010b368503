package app

import (
	"fmt"
	"os"
	"time"

	"hoard-go/internal/config"
	"hoard-go/internal/database"
	"hoard-go/internal/fs"
	"hoard-go/internal/hoard"
	"hoard-go/internal/storage"
	"hoard-go/internal/thumbnail"
	"hoard-go/internal/worker"
)

// HoardApp is the application layer between the CLI and hoard.Service.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw CLI arguments, and manages the DB lifecycle on Close.
type HoardApp struct {
	cfg     *config.Config
	db      hoard.Database
	store   hoard.ContentStore
	fsmgr   hoard.FilesystemManager
	service *hoard.Service
	logger  hoard.Logger
	op      *Operation
	logFile *os.File
}

// AddedFile is the outcome of archiving one path.
type AddedFile struct {
	Path    string
	Post    *hoard.Post
	Created bool
}

// NamedTag pairs a tag name with its id.
type NamedTag struct {
	Name string
	ID   int64
}

// NewHoardApp creates a fully wired HoardApp from the given config.
// operation identifies the CLI command being run (e.g. "AddFiles", "Search").
// The caller must call Close when done.
func NewHoardApp(cfg *config.Config, operation string) (*HoardApp, error) {
	store, err := storage.NewStoreFromConfig(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("creating content store: %w", err)
	}
	if v, ok := store.(interface{ ValidateSetup() error }); ok {
		if err := v.ValidateSetup(); err != nil {
			return nil, fmt.Errorf("content store not usable: %w", err)
		}
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	op := NewOperation(operation, time.Now())
	slogger, logFile, err := newLogger(cfg.LogDir, op.ID)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}
	fsmgr := fs.NewOSFilesystemManager(cfg.Filesystem.Ignore, logger)

	var thumbs hoard.Thumbnailer = hoard.NopThumbnailer{}
	if cfg.Thumbnail.Enabled {
		thumbs = thumbnail.NewGenerator(cfg.Thumbnail.Size, cfg.Thumbnail.Quality)
	}

	svc := hoard.NewService(db, store, thumbs, fsmgr, logger)
	logger.Debug("operation started", "operation", op.Name)

	return &HoardApp{
		cfg:     cfg,
		db:      db,
		store:   store,
		fsmgr:   fsmgr,
		service: svc,
		logger:  logger,
		op:      op,
		logFile: logFile,
	}, nil
}

// track records a failed step on the operation and passes err through.
func (a *HoardApp) track(err error) error {
	if err != nil {
		a.op.Fail()
	}
	return err
}

// AddFiles archives each path in one transaction. Directories are rejected;
// use the worker to ingest a tree. Any failure rolls back every row.
func (a *HoardApp) AddFiles(rawPaths []string) ([]AddedFile, error) {
	var added []AddedFile
	err := a.service.WithTx(func(tx *hoard.Service) error {
		for _, raw := range rawPaths {
			p, err := a.fsmgr.Resolve(raw)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			post, created, err := tx.IngestFile(p)
			if err != nil {
				return err
			}
			added = append(added, AddedFile{Path: p.String(), Post: post, Created: created})
		}
		return nil
	})
	if err != nil {
		return nil, a.track(err)
	}
	return added, nil
}

// CreateTags adds each name to the vocabulary.
func (a *HoardApp) CreateTags(names []string) ([]NamedTag, error) {
	var tags []NamedTag
	err := a.service.WithTx(func(tx *hoard.Service) error {
		for _, name := range names {
			id, err := tx.CreateTag(name)
			if err != nil {
				return fmt.Errorf("creating tag %q: %w", name, err)
			}
			tags = append(tags, NamedTag{Name: name, ID: id})
		}
		return nil
	})
	if err != nil {
		return nil, a.track(err)
	}
	return tags, nil
}

// RemovePosts deletes posts with their files and thumbnails. If any id
// fails nothing is deleted; files are removed only once the rows are gone.
func (a *HoardApp) RemovePosts(ids []int64) ([]*hoard.Post, error) {
	var removed []*hoard.Post
	err := a.service.WithTx(func(tx *hoard.Service) error {
		for _, id := range ids {
			post, err := tx.DeletePostByID(id)
			if err != nil {
				return err
			}
			removed = append(removed, post)
		}
		return nil
	})
	if err != nil {
		return nil, a.track(err)
	}
	return removed, nil
}

// RemoveTags deletes tags from the vocabulary and from every post.
func (a *HoardApp) RemoveTags(names []string) ([]NamedTag, error) {
	var removed []NamedTag
	err := a.service.WithTx(func(tx *hoard.Service) error {
		for _, name := range names {
			id, err := tx.RemoveTagGlobally(name)
			if err != nil {
				return err
			}
			removed = append(removed, NamedTag{Name: name, ID: id})
		}
		return nil
	})
	if err != nil {
		return nil, a.track(err)
	}
	return removed, nil
}

// TagPost adds tags to a post, or removes them when remove is set.
// Returns the updated post and how many tags changed.
func (a *HoardApp) TagPost(postID int64, tags []string, remove bool) (*hoard.Post, int, error) {
	var post *hoard.Post
	var changed int
	err := a.service.WithTx(func(tx *hoard.Service) error {
		var err error
		post, err = tx.GetPost(postID)
		if err != nil {
			return err
		}
		if remove {
			changed, err = tx.RemoveTags(post, tags)
		} else {
			changed, err = tx.AddTags(post, tags)
		}
		return err
	})
	if err != nil {
		return nil, 0, a.track(err)
	}
	return post, changed, nil
}

// Search parses tokens and returns the query with its matches.
func (a *HoardApp) Search(tokens []string) (hoard.Query, []*hoard.Post, error) {
	q := hoard.ParseQuery(tokens)
	posts, err := a.service.SearchQuery(q)
	if err != nil {
		return q, nil, a.track(err)
	}
	return q, posts, nil
}

// GetPost returns one post by id.
func (a *HoardApp) GetPost(id int64) (*hoard.Post, error) {
	post, err := a.service.GetPost(id)
	return post, a.track(err)
}

// Tags returns the vocabulary with usage counts.
func (a *HoardApp) Tags() ([]*hoard.Tag, error) {
	tags, err := a.service.Tags()
	return tags, a.track(err)
}

// FilePath is where post's content is stored.
func (a *HoardApp) FilePath(post *hoard.Post) string {
	return a.service.FilePath(post)
}

// ThumbnailPath is where post's thumbnail is stored.
func (a *HoardApp) ThumbnailPath(post *hoard.Post) string {
	return a.service.ThumbnailPath(post)
}

// NewWorker hands the service to a background worker. The app must not be
// used for anything but Close while the worker runs.
func (a *HoardApp) NewWorker() *worker.Worker {
	return worker.New(a.service, a.logger, worker.Options{
		QueueSize: a.cfg.Worker.QueueSize,
	})
}

// NewThumbnailLoader returns a loader that decodes thumbnails from disk.
func (a *HoardApp) NewThumbnailLoader() *worker.ThumbnailLoader {
	return worker.NewThumbnailLoader(thumbnail.Load, a.logger)
}

// Fail marks the operation as failed for errors that happen outside the app.
func (a *HoardApp) Fail() {
	a.op.Fail()
}

// Close records how the operation ended and closes all resources.
func (a *HoardApp) Close() error {
	var firstErr error

	a.logger.Debug("operation finished",
		"operation", a.op.Name,
		"status", a.op.Status,
		"duration", time.Since(a.op.StartedAt).Truncate(time.Millisecond).String(),
	)

	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
