package viewer

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/taigrr/volshade/pkg/shaders"
)

// reloadDebounce collapses the burst of events an editor save produces.
const reloadDebounce = 200 * time.Millisecond

// WatchShaders reloads the shader files whenever one of them changes and
// queues a pipeline rebuild. It blocks until ctx is done. The parent
// directories are watched so editors that save by rename keep working.
func (v *Viewer) WatchShaders(ctx context.Context, vertexPath, fragmentPath string) error {
	paths := shaders.Paths(vertexPath, fragmentPath)
	if len(paths) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create shader watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]bool, len(paths))
	dirs := make(map[string]bool, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("watch shader %s: %w", p, err)
		}
		watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch shader directory %s: %w", dir, err)
		}
	}
	v.logger.Info("watching shaders", zap.Strings("paths", paths))

	debounce := time.NewTimer(reloadDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !shouldReload(event, watched) {
				continue
			}
			v.logger.Debug("shader changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			debounce.Reset(reloadDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			v.logger.Warn("shader watcher error", zap.Error(err))

		case <-debounce.C:
			src, err := shaders.Load(vertexPath, fragmentPath)
			if err != nil {
				v.logger.Warn("shader reload skipped", zap.Error(err))
				if v.opts.onReload != nil {
					v.post(func() { v.opts.onReload(err) })
				}
				continue
			}
			v.ReloadShaders(src, func(err error) {
				if err != nil {
					v.logger.Warn("shader reload failed, keeping previous program", zap.Error(err))
				}
				if v.opts.onReload != nil {
					v.opts.onReload(err)
				}
			})
		}
	}
}

func shouldReload(event fsnotify.Event, watched map[string]bool) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return watched[abs]
}
