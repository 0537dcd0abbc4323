package manager

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"histoscan/internal/common/fsutil"
)

// WatchArtifacts watches the directories of the artifact candidates and
// attempts a load once a candidate file appears and has been quiet for the
// settle period. It returns when the model is ready, when ctx is cancelled,
// or when no candidate directory exists. A loaded model is never reloaded.
func (m *Manager) WatchArtifacts(ctx context.Context) error {
	if m.Ready() {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	targets := make(map[string]struct{}, len(m.candidates))
	dirs := make(map[string]struct{})
	for _, c := range m.candidates {
		abs, err := filepath.Abs(c)
		if err != nil {
			continue
		}
		targets[abs] = struct{}{}
		dir := filepath.Dir(abs)
		if _, seen := dirs[dir]; seen || !fsutil.DirExists(dir) {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			m.log.Warn().Str("dir", dir).Err(err).Msg("cannot watch candidate directory")
			continue
		}
		dirs[dir] = struct{}{}
	}
	if len(dirs) == 0 {
		return errors.New("watch: no candidate directory exists")
	}
	m.log.Info().Int("dirs", len(dirs)).Msg("watching for model artifact")

	settle := time.NewTimer(m.watchSettle)
	if !settle.Stop() {
		<-settle.C
	}
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil {
				continue
			}
			if _, ok := targets[abs]; !ok {
				continue
			}
			// Copies arrive as a burst of writes; wait for them to stop.
			settle.Reset(m.watchSettle)

		case <-settle.C:
			if m.Ready() {
				return nil
			}
			if err := m.LoadModel(); err != nil {
				m.log.Warn().Err(err).Msg("load after artifact change failed")
				continue
			}
			return nil

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.log.Error().Err(err).Msg("artifact watcher error")
		}
	}
}
