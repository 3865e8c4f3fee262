package dataset

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch loads path once and again each time it is written, calling onLoad
// with every table that loads cleanly. A failed reload is passed to onError
// and the previous table stays current. It runs until ctx is cancelled.
//
// The parent directory is watched rather than the file so atomic saves
// (write temp, rename over) are seen as Create events.
func Watch(ctx context.Context, path string, opt LoadOptions, onLoad func(*Table), onError func(error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	t, err := Open(path, opt)
	if err != nil {
		return err
	}
	onLoad(t)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			t, err := Open(path, opt)
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			onLoad(t)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}
