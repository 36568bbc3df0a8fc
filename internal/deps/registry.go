package deps

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tliron/commonlog"
)

const DefaultManifest = "package.json"

type Config struct {
	Root     string
	Manifest string
	Fields   []string
	// Debounce coalesces bursts of file events into one reload.
	Debounce time.Duration
}

// Event is published when the dependency key set changes. Subscribers that
// fall behind only see the latest event, so Previous may skip intermediate
// sets.
type Event struct {
	Previous Set
	Current  Set
}

// Registry loads and caches the dependency names of a project manifest.
type Registry struct {
	path     string
	fields   []string
	debounce time.Duration
	log      commonlog.Logger

	mu     sync.Mutex
	cache  *Set
	subs   []chan Event
	closed bool

	watchOnce sync.Once
	watcher   *fsnotify.Watcher
	watches   int
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewRegistry(config Config) *Registry {
	manifest := config.Manifest
	if manifest == "" {
		manifest = DefaultManifest
	}
	fields := config.Fields
	if len(fields) == 0 {
		fields = DefaultFields
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		path:     filepath.Clean(filepath.Join(config.Root, manifest)),
		fields:   fields,
		debounce: config.Debounce,
		log:      commonlog.GetLogger("liblinker.deps"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Path is the manifest location.
func (r *Registry) Path() string {
	return r.path
}

// Names returns the cached dependency set, loading it on first use. A
// missing or malformed manifest yields the empty set; the failure is logged
// and loading is retried on the next call. The first call also installs the
// manifest watch.
func (r *Registry) Names() Set {
	r.watchOnce.Do(r.watch)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cache != nil {
		return *r.cache
	}

	set, err := ReadManifest(r.path, r.fields)
	if err != nil {
		r.log.Warningf("Could not load dependencies from %s: %s", r.path, err)
		return Set{}
	}
	r.log.Infof("Loaded %d dependencies from %s", set.Len(), r.path)
	r.cache = &set
	return set
}

// Reload re-reads the manifest and replaces the cache only when the key set
// differs from the cached one. It reports whether the cache changed. Read
// and parse failures keep the cached set.
func (r *Registry) Reload() (Set, bool) {
	set, err := ReadManifest(r.path, r.fields)

	r.mu.Lock()
	defer r.mu.Unlock()

	var previous Set
	if r.cache != nil {
		previous = *r.cache
	}
	if err != nil {
		r.log.Warningf("Keeping cached dependencies: %s", err)
		return previous, false
	}
	if previous.Equal(set) {
		if r.cache == nil {
			r.cache = &set
		}
		return previous, false
	}

	r.log.Infof("Dependencies of %s changed (%d -> %d)", r.path, previous.Len(), set.Len())
	r.cache = &set
	r.publish(Event{Previous: previous, Current: set})
	return set, true
}

// Subscribe returns a channel receiving change events until ctx is done or
// the registry is closed.
func (r *Registry) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, 1)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		close(ch)
		return ch
	}
	r.subs = append(r.subs, ch)
	r.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			r.unsubscribe(ch)
		case <-r.ctx.Done():
		}
	}()
	return ch
}

// Close stops the manifest watch and closes every subscription.
func (r *Registry) Close() error {
	// No watch may be installed after Close.
	r.watchOnce.Do(func() {})
	r.cancel()

	var err error
	if r.watcher != nil {
		err = r.watcher.Close()
	}
	r.wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.closed = true
		for _, ch := range r.subs {
			close(ch)
		}
		r.subs = nil
	}
	return err
}

// publish must be called with r.mu held.
func (r *Registry) publish(event Event) {
	for _, ch := range r.subs {
		select {
		case ch <- event:
		default:
			// latest wins
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- event:
			default:
			}
		}
	}
}

func (r *Registry) unsubscribe(ch chan Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, sub := range r.subs {
		if sub == ch {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// watch installs the single manifest watch. The directory is watched rather
// than the file so that saves done by rename are still observed.
func (r *Registry) watch() {
	if r.ctx.Err() != nil {
		return
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		r.log.Errorf("Could not create manifest watcher: %s", err)
		return
	}
	dir := filepath.Dir(r.path)
	if err := watcher.Add(dir); err != nil {
		r.log.Errorf("Could not watch %s: %s", dir, err)
		watcher.Close()
		return
	}
	r.watcher = watcher
	r.watches++
	r.log.Debugf("Watching %s", r.path)

	r.wg.Add(1)
	go r.processEvents(watcher)
}

func (r *Registry) processEvents(watcher *fsnotify.Watcher) {
	defer r.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-r.ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != r.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if r.debounce <= 0 {
				r.Reload()
				continue
			}
			if timer == nil {
				timer = time.NewTimer(r.debounce)
			} else {
				timer.Reset(r.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			r.Reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			r.log.Warningf("Manifest watcher error: %s", err)
		}
	}
}
