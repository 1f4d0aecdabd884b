package ml

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// LoadArtifacts loads the fitted scaler and trained model pair from disk.
// Absence of either file is a fatal startup condition for the caller.
func LoadArtifacts(modelType, modelPath, scalerPath string) (*StandardScaler, TrainableModel, error) {
	scaler, err := LoadScaler(scalerPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load scaler %s: %w", scalerPath, err)
	}
	model, err := LoadModel(modelType, modelPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load model %s: %w", modelPath, err)
	}
	return scaler, model, nil
}

// ArtifactWatcher swaps the service's scaler/model pair when either
// artifact file is rewritten, e.g. after a retrain.
type ArtifactWatcher struct {
	service    *PredictionService
	modelType  string
	modelPath  string
	scalerPath string
	watcher    *fsnotify.Watcher
	done       chan struct{}
}

func NewArtifactWatcher(service *PredictionService, modelType, modelPath, scalerPath string) (*ArtifactWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch directories, not files: trainers replace artifacts atomically
	// and inode-level watches break on rename.
	watched := make(map[string]bool)
	for _, path := range []string{modelPath, scalerPath} {
		dir := filepath.Dir(path)
		if watched[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, err
		}
		watched[dir] = true
	}

	aw := &ArtifactWatcher{
		service:    service,
		modelType:  modelType,
		modelPath:  filepath.Clean(modelPath),
		scalerPath: filepath.Clean(scalerPath),
		watcher:    watcher,
		done:       make(chan struct{}),
	}
	go aw.loop()
	return aw, nil
}

func (aw *ArtifactWatcher) loop() {
	var pending <-chan time.Time
	for {
		select {
		case event, ok := <-aw.watcher.Events:
			if !ok {
				return
			}
			if !aw.relevant(event) {
				continue
			}
			// debounce: a retrain writes both files back to back
			pending = time.After(200 * time.Millisecond)
		case err, ok := <-aw.watcher.Errors:
			if !ok {
				return
			}
			zap.S().Warnw("artifact watcher error", "error", err)
		case <-pending:
			pending = nil
			aw.reload()
		case <-aw.done:
			return
		}
	}
}

func (aw *ArtifactWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(event.Name)
	return name == aw.modelPath || name == aw.scalerPath
}

func (aw *ArtifactWatcher) reload() {
	scaler, model, err := LoadArtifacts(aw.modelType, aw.modelPath, aw.scalerPath)
	if err != nil {
		// keep serving with the previous pair
		zap.S().Errorw("artifact reload failed", "error", err)
		return
	}
	aw.service.Swap(scaler, model)
	zap.S().Infow("artifacts reloaded", "model", aw.modelPath, "scaler", aw.scalerPath)
}

func (aw *ArtifactWatcher) Close() error {
	close(aw.done)
	return aw.watcher.Close()
}
