package params

import (
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Watch re-reads path with ReadFile whenever it changes on disk, until stop
// is closed. Per the resource-model policy ("parameter store: read-any-time,
// write-only-outside-solve"), callers must only start a Watch outside of a
// solve and must stop it before entering search; Watch itself does not know
// about engine state and will happily clobber values if misused.
func (s *Store) Watch(path string, logger *logrus.Logger, stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "params.Watch: creating fsnotify watcher")
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return errors.Wrapf(err, "params.Watch: watching %s", path)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-stop:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := s.ReadFile(path, logger); err != nil {
					logger.WithError(err).Warnf("params.Watch: reload of %s failed", path)
				} else {
					logger.Infof("params.Watch: reloaded %s", path)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.WithError(err).Warn("params.Watch: fsnotify error")
			}
		}
	}()
	return nil
}
