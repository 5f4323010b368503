package worker

import (
	"image"
	"sync"

	"hoard-go/internal/hoard"
)

// ThumbnailLoader decodes thumbnails off the caller's goroutine. Each post
// is decoded at most once; the result, image or failure, is kept for the
// lifetime of the loader. Poll never blocks, so a front end can call it on
// every redraw.
type ThumbnailLoader struct {
	load   func(path string) (image.Image, error)
	logger hoard.Logger

	mu      sync.Mutex
	entries map[int64]*thumbEntry
	wg      sync.WaitGroup
}

type thumbEntry struct {
	done bool
	img  image.Image
}

// NewThumbnailLoader uses load to decode thumbnail files.
func NewThumbnailLoader(load func(path string) (image.Image, error), logger hoard.Logger) *ThumbnailLoader {
	return &ThumbnailLoader{
		load:    load,
		logger:  logger,
		entries: make(map[int64]*thumbEntry),
	}
}

// Poll returns the thumbnail for post id once decoded. The first call for
// an id starts the decode and reports not ready. A post without a usable
// thumbnail is ready with a nil image.
func (l *ThumbnailLoader) Poll(id int64, path string) (image.Image, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[id]; ok {
		return e.img, e.done
	}

	l.entries[id] = &thumbEntry{}
	l.wg.Add(1)
	go l.decode(id, path)
	return nil, false
}

func (l *ThumbnailLoader) decode(id int64, path string) {
	defer l.wg.Done()

	img, err := l.load(path)
	if err != nil {
		l.logger.Debug("thumbnail unavailable", "post", id, "path", path, "error", err)
		img = nil
	}

	l.mu.Lock()
	l.entries[id] = &thumbEntry{done: true, img: img}
	l.mu.Unlock()
}

// Wait blocks until every decode started so far has finished.
func (l *ThumbnailLoader) Wait() {
	l.wg.Wait()
}
