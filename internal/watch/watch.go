// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package watch monitors a transcript directory and processes new files as
// they land. Transcripts are handled sequentially so the call budget and
// registry stay single-writer.
package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/concept-refinery/internal/driver"
)

// settleDelay gives the writing process time to finish before the
// transcript is read.
const settleDelay = 500 * time.Millisecond

// Handler processes one newly created transcript file.
type Handler func(ctx context.Context, path string) error

// Watcher reacts to transcript files appearing in one directory.
type Watcher struct {
	inputDir string
	handler  Handler
	fsw      *fsnotify.Watcher
	log      *logrus.Entry
}

// New creates a watcher over inputDir.
func New(inputDir string, handler Handler, log *logrus.Entry) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(inputDir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", inputDir, err)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Watcher{
		inputDir: inputDir,
		handler:  handler,
		fsw:      fsw,
		log:      log.WithField("component", "watch"),
	}, nil
}

// Start blocks processing create events until ctx is cancelled. Handler
// failures are logged and watching continues.
func (w *Watcher) Start(ctx context.Context) error {
	w.log.WithField("dir", w.inputDir).Info("watching for transcripts")

	for {
		select {
		case <-ctx.Done():
			w.log.Info("watcher stopped")
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !driver.IsTranscript(event.Name) {
				w.log.WithField("file", event.Name).Debug("ignoring non-transcript file")
				continue
			}

			w.log.WithField("file", event.Name).Info("new transcript detected")

			// Give the writer time to finish the file.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(settleDelay):
			}

			if err := w.handler(ctx, event.Name); err != nil {
				w.log.WithField("file", event.Name).WithError(err).Error("processing failed")
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.log.WithError(err).Error("watcher error")
		}
	}
}

// Stop closes the underlying filesystem watcher.
func (w *Watcher) Stop() error {
	return w.fsw.Close()
}
