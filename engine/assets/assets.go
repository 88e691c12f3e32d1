package assets

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

type Info struct {
	// Name is the slash separated path relative to the asset root.
	Name    string
	Kind    Kind
	Size    int64
	ModTime time.Time
}

/**
 * @brief Indexes the files under an asset directory and turns them into
 * textures, materials and meshes on the given backend. With Watch the index
 * follows the directory and every change is fired as EVENT_CODE_ASSET_CHANGED.
 */
type Manager struct {
	root    string
	backend native.Backend

	mutex  sync.RWMutex
	assets map[string]Info

	fsnotify *fsnotify.Watcher
	done     chan struct{}
	stopped  chan struct{}
	once     sync.Once
}

func NewManager(backend native.Backend, root string) (*Manager, error) {
	if backend == nil {
		return nil, core.InvalidArgument("asset manager backend is nil")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, core.InvalidArgument("asset root %q is not a directory", root)
	}
	am := &Manager{
		root:    abs,
		backend: backend,
		assets:  make(map[string]Info),
	}
	if err := am.Rescan(); err != nil {
		return nil, err
	}
	return am, nil
}

func (am *Manager) Root() string {
	return am.root
}

// Rescan rebuilds the index from the directory contents.
func (am *Manager) Rescan() error {
	index := make(map[string]Info)
	err := filepath.WalkDir(am.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if info, ok := am.stat(path); ok {
			index[info.Name] = info
		}
		return nil
	})
	if err != nil {
		return err
	}
	am.mutex.Lock()
	am.assets = index
	am.mutex.Unlock()
	core.LogDebug("indexed %d assets under %s", len(index), am.root)
	return nil
}

// stat describes the file at path, or reports false when it is not an asset.
func (am *Manager) stat(path string) (Info, bool) {
	kind := kindOf(path)
	if kind == KindNone {
		return Info{}, false
	}
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return Info{}, false
	}
	return Info{
		Name:    am.name(path),
		Kind:    kind,
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
	}, true
}

func (am *Manager) name(path string) string {
	rel, err := filepath.Rel(am.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Lookup returns the index entry of name.
func (am *Manager) Lookup(name string) (Info, error) {
	am.mutex.RLock()
	info, ok := am.assets[name]
	am.mutex.RUnlock()
	if !ok {
		return Info{}, core.InvalidArgument("asset %q not found under %s", name, am.root)
	}
	return info, nil
}

// List returns the indexed assets of kind sorted by name; KindNone lists all of them.
func (am *Manager) List(kind Kind) []Info {
	am.mutex.RLock()
	out := make([]Info, 0, len(am.assets))
	for _, info := range am.assets {
		if kind == KindNone || info.Kind == kind {
			out = append(out, info)
		}
	}
	am.mutex.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// read returns the bytes of an indexed asset of the expected kind.
func (am *Manager) read(name string, want Kind) ([]byte, error) {
	info, err := am.Lookup(name)
	if err != nil {
		return nil, err
	}
	if info.Kind != want {
		return nil, core.InvalidArgument("asset %q is a %s, not a %s", name, info.Kind, want)
	}
	return os.ReadFile(filepath.Join(am.root, filepath.FromSlash(name)))
}

// Watch starts following the asset directory and its sub-directories.
func (am *Manager) Watch() error {
	if am.fsnotify != nil {
		return core.InvalidOperation("asset manager is already watching %s", am.root)
	}
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	am.fsnotify = fsWatch
	am.done = make(chan struct{})
	am.stopped = make(chan struct{})
	if err := am.watchRecursive(am.root); err != nil {
		fsWatch.Close()
		am.fsnotify = nil
		return err
	}
	go am.start()
	return nil
}

// watchRecursive adds path and every directory below it to the watch list.
func (am *Manager) watchRecursive(path string) error {
	return filepath.WalkDir(path, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

func (am *Manager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			if e.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(e.Name); err == nil && fi.IsDir() {
					if err := am.watchRecursive(e.Name); err != nil {
						core.LogWarn("cannot watch %s: %s", e.Name, err)
					}
					continue
				}
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(e.Name)
			}
			// A removed or renamed entry can't be stat'ed; drop it from the
			// index and the watch list whatever it was.
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
				am.fsnotify.Remove(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-am.done:
			return
		}
	}
}

// Handle the creation or modification of a file
func (am *Manager) handleFileEvent(path string) {
	info, ok := am.stat(path)
	if !ok {
		return
	}
	am.mutex.Lock()
	prev, known := am.assets[info.Name]
	am.assets[info.Name] = info
	am.mutex.Unlock()
	if known && prev.ModTime.Equal(info.ModTime) && prev.Size == info.Size {
		return
	}
	core.LogDebug("asset %s changed", info.Name)
	am.fire(info, false)
}

// Remove the asset from the index if it was deleted
func (am *Manager) removeAsset(path string) {
	name := am.name(path)
	am.mutex.Lock()
	info, ok := am.assets[name]
	delete(am.assets, name)
	am.mutex.Unlock()
	if ok {
		core.LogDebug("asset %s removed", name)
		am.fire(info, true)
	}
}

func (am *Manager) fire(info Info, removed bool) {
	ctx := core.EventContext{Path: info.Name, Bool: removed}
	ctx.I32[0] = int32(info.Kind)
	core.EventFire(core.EVENT_CODE_ASSET_CHANGED, am, ctx)
}

// Close stops watching. The index stays usable.
func (am *Manager) Close() error {
	if am.fsnotify == nil {
		return nil
	}
	var err error
	am.once.Do(func() {
		close(am.done)
		err = am.fsnotify.Close()
		<-am.stopped
	})
	return err
}
