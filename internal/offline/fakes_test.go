package offline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"

	"github.com/davidiaz1251/apostolV2/internal/domain"
)

type fakeRemote struct {
	mu      sync.Mutex
	data    map[string][]domain.Record
	errs    map[string]error
	calls   map[string]int
	queries int

	gate    chan struct{} // when set, lists block until it is closed
	started chan struct{} // closed on the first list call
	once    sync.Once
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		data:  map[string][]domain.Record{},
		errs:  map[string]error{},
		calls: map[string]int{},
	}
}

func (f *fakeRemote) set(name string, docs ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	records := make([]domain.Record, 0, len(docs))
	for _, d := range docs {
		raw, err := json.Marshal(d)
		if err != nil {
			panic(err)
		}
		records = append(records, domain.Record{ID: d["id"].(string), Data: raw})
	}
	f.data[name] = records
}

func (f *fakeRemote) fail(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[name] = err
}

func (f *fakeRemote) callsTo(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeRemote) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.queries
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeRemote) ListCollection(ctx context.Context, name, orderBy string) ([]domain.Record, error) {
	f.mu.Lock()
	f.calls[name]++
	gate, started := f.gate, f.started
	f.mu.Unlock()

	if started != nil {
		f.once.Do(func() { close(started) })
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[name]; err != nil {
		return nil, err
	}
	return f.data[name], nil
}

func (f *fakeRemote) QueryCollection(ctx context.Context, name, field, value string) ([]domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	var out []domain.Record
	for _, r := range f.data[name] {
		var fields map[string]any
		if err := json.Unmarshal(r.Data, &fields); err != nil {
			return nil, err
		}
		if fields[field] == value {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeVersion struct {
	mu    sync.Mutex
	value string
	err   error
	hang  bool // block until ctx is done
	calls atomic.Int32
}

func (f *fakeVersion) FetchAndActivate(ctx context.Context) error {
	f.calls.Add(1)
	f.mu.Lock()
	hang := f.hang
	f.mu.Unlock()
	if hang {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeVersion) GetString(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if key != defaultVersionKey {
		return ""
	}
	return f.value
}

func (f *fakeVersion) setValue(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = v
}

// sequentialStore has no batch support and can be told to fail one key.
type sequentialStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	failKey string
	writes  []string
}

func newSequentialStore() *sequentialStore {
	return &sequentialStore{data: map[string][]byte{}}
}

func (s *sequentialStore) Get(key string, dest any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (s *sequentialStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key == s.failKey {
		return errors.New("disk full")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.data[key] = raw
	s.writes = append(s.writes, key)
	return nil
}

type fakeImages struct {
	mu      sync.Mutex
	fail    map[string]bool
	missing map[string]bool // handles whose blob is gone
	calls   map[string]int
}

func newFakeImages() *fakeImages {
	return &fakeImages{fail: map[string]bool{}, missing: map[string]bool{}, calls: map[string]int{}}
}

func (f *fakeImages) Has(handle string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.missing[handle]
}

func (f *fakeImages) remove(handle string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.missing[handle] = true
}

func (f *fakeImages) EnsureLocal(ctx context.Context, remoteURL, suggestedName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[remoteURL]++
	if f.fail[remoteURL] {
		return "", &domain.AssetDownloadError{URL: remoteURL, Err: errors.New("timeout")}
	}
	handle := "images/" + suggestedName + ".jpg"
	delete(f.missing, handle)
	return handle, nil
}

func (f *fakeImages) callsTo(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

// gatedStore blocks the first read of one key until gate is closed.
type gatedStore struct {
	domain.KeyValueStore
	key     string
	gate    chan struct{}
	reached chan struct{}
	once    sync.Once
}

func newGatedStore(kv domain.KeyValueStore, key string) *gatedStore {
	return &gatedStore{
		KeyValueStore: kv,
		key:           key,
		gate:          make(chan struct{}),
		reached:       make(chan struct{}),
	}
}

func (s *gatedStore) Get(key string, dest any) (bool, error) {
	if key == s.key {
		first := false
		s.once.Do(func() { first = true })
		if first {
			close(s.reached)
			<-s.gate
		}
	}
	return s.KeyValueStore.Get(key, dest)
}
