// Package worker runs the archive on its own goroutine and talks to the
// front end through two bounded queues.
package worker

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"hoard-go/internal/hoard"
)

// DefaultQueueSize is the capacity of each queue when Options leaves it unset.
const DefaultQueueSize = 256

// RenderContext is the front end's wake-up hook. RequestRepaint must not
// block; the worker calls it after every event it emits.
type RenderContext interface {
	RequestRepaint()
}

// RenderFunc adapts a function to RenderContext.
type RenderFunc func()

func (f RenderFunc) RequestRepaint() { f() }

// Options configures a Worker.
type Options struct {
	QueueSize int
	IDs       hoard.IDGenerator
}

// Worker owns a Service exclusively and processes commands one at a time,
// each to completion. A full queue blocks its sender, so a lagging
// consumer throttles the producer instead of growing memory.
type Worker struct {
	svc      *hoard.Service
	logger   hoard.Logger
	ids      hoard.IDGenerator
	commands chan Command
	events   chan Event
	render   RenderContext
}

// New creates a Worker. Nothing runs until Run or Start.
func New(svc *hoard.Service, logger hoard.Logger, opts Options) *Worker {
	size := opts.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	ids := opts.IDs
	if ids == nil {
		ids = hoard.UUIDGenerator{}
	}
	return &Worker{
		svc:      svc,
		logger:   logger,
		ids:      ids,
		commands: make(chan Command, size),
		events:   make(chan Event, size),
	}
}

// Events is the outbound queue. It is closed when Run returns.
func (w *Worker) Events() <-chan Event {
	return w.events
}

// Send queues cmd, blocking while the queue is full.
func (w *Worker) Send(ctx context.Context, cmd Command) error {
	select {
	case w.commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start runs the worker on a new goroutine.
func (w *Worker) Start(ctx context.Context) {
	go func() {
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("worker stopped", "error", err)
		}
	}()
}

// Run processes commands until ctx is cancelled. Queued commands are
// abandoned on shutdown.
func (w *Worker) Run(ctx context.Context) error {
	defer close(w.events)

	if err := w.emit(ctx, RequestRenderContext{}); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-w.commands:
			if err := w.handle(ctx, cmd); err != nil {
				return err
			}
		}
	}
}

// handle returns an error only when the event queue can no longer be
// written; command failures are reported as events.
func (w *Worker) handle(ctx context.Context, cmd Command) error {
	switch c := cmd.(type) {
	case SendRenderContext:
		w.render = c.Ctx
		return nil
	case RequestAllPosts:
		return w.sendAllPosts(ctx)
	case RequestIngest:
		return w.ingest(ctx, c.Paths)
	case Search:
		posts, err := w.svc.Search(strings.Fields(c.Query))
		if err != nil {
			return w.fail(ctx, "search", err)
		}
		return w.emit(ctx, SetPosts{Posts: posts})
	case AddTag:
		if err := w.svc.AddTagToPost(c.PostID, c.Tag); err != nil {
			return w.fail(ctx, "add tag", err)
		}
		return nil
	case RemoveTag:
		if err := w.svc.RemoveTagFromPost(c.PostID, c.Tag); err != nil {
			return w.fail(ctx, "remove tag", err)
		}
		return nil
	case Select:
		return w.emit(ctx, SetSelected{Index: c.Index})
	case RemovePosts:
		for _, id := range c.IDs {
			if _, err := w.svc.DeletePostByID(id); err != nil {
				if err := w.fail(ctx, fmt.Sprintf("remove post %d", id), err); err != nil {
					return err
				}
			}
		}
		return w.sendAllPosts(ctx)
	case DeleteTag:
		if _, err := w.svc.RemoveTagGlobally(c.Name); err != nil {
			return w.fail(ctx, "delete tag", err)
		}
		return w.sendAllPosts(ctx)
	default:
		return w.fail(ctx, "dispatch", fmt.Errorf("unknown command %T", cmd))
	}
}

func (w *Worker) sendAllPosts(ctx context.Context) error {
	posts, err := w.svc.AllPosts()
	if err != nil {
		return w.fail(ctx, "list posts", err)
	}
	slices.Reverse(posts)
	return w.emit(ctx, SetPosts{Posts: posts})
}

// ingest processes a batch. Files that fail are logged and skipped; the
// batch always finishes with SetPosts and a hidden progress indicator.
func (w *Worker) ingest(ctx context.Context, raw []string) error {
	batch := w.ids.New()
	if err := w.emitAll(ctx,
		ShowProgress{Visible: true},
		SetProgress{Current: 0, Total: 100},
		SetProgressMessage{Text: "Reading..."},
	); err != nil {
		return err
	}

	paths := hoard.ExpandPaths(w.svc.FilesystemManager(), raw, func(path string, err error) {
		w.logger.Warn("skipping path", "batch", batch, "path", path, "error", err)
	})
	total := len(paths)
	w.logger.Info("ingest started", "batch", batch, "files", total)

	posts := make([]*hoard.Post, 0, total)
	created := 0
	for i, p := range paths {
		if err := w.emit(ctx, SetProgressMessage{Text: fmt.Sprintf("%d/%d  %s", i, total, p.String())}); err != nil {
			return err
		}

		post, isNew, err := w.svc.IngestFile(p)
		if err != nil {
			w.logger.Error("failed to add post", "batch", batch, "path", p.String(), "error", err)
		} else {
			posts = append(posts, post)
			if isNew {
				created++
			}
		}

		if err := w.emit(ctx, SetProgress{Current: i + 1, Total: total}); err != nil {
			return err
		}
	}

	w.logger.Info("ingest finished", "batch", batch, "files", total, "created", created)
	slices.Reverse(posts)
	return w.emitAll(ctx, SetPosts{Posts: posts}, ShowProgress{Visible: false})
}

func (w *Worker) fail(ctx context.Context, op string, err error) error {
	w.logger.Error("command failed", "op", op, "error", err)
	return w.emit(ctx, ReportError{Err: fmt.Errorf("%s: %w", op, err)})
}

func (w *Worker) emitAll(ctx context.Context, events ...Event) error {
	for _, ev := range events {
		if err := w.emit(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// emit queues ev and wakes the front end.
func (w *Worker) emit(ctx context.Context, ev Event) error {
	select {
	case w.events <- ev:
	case <-ctx.Done():
		return ctx.Err()
	}
	if w.render != nil {
		w.render.RequestRepaint()
	}
	return nil
}
