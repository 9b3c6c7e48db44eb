package lookup

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logbarn/logbarn/pkg/types"
)

type fakeResolver struct {
	mu        sync.Mutex
	hostCalls int
	codeCalls int
	hosts     map[string]int64
	codes     map[string]int64
	nextID    int64
	fail      bool
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		hosts:  make(map[string]int64),
		codes:  make(map[string]int64),
		nextID: 1,
	}
}

func (f *fakeResolver) EnsureHost(ctx context.Context, hostname string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return 0, errors.New("database down")
	}
	f.hostCalls++
	if id, ok := f.hosts[hostname]; ok {
		return id, nil
	}
	id := f.nextID
	f.nextID++
	f.hosts[hostname] = id
	return id, nil
}

func (f *fakeResolver) EnsureHTTPCode(ctx context.Context, code string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return 0, errors.New("database down")
	}
	f.codeCalls++
	if id, ok := f.codes[code]; ok {
		return id, nil
	}
	id := f.nextID
	f.nextID++
	f.codes[code] = id
	return id, nil
}

func (f *fakeResolver) ListHosts(ctx context.Context) ([]*types.Host, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("database down")
	}
	hosts := []*types.Host{}
	for name, id := range f.hosts {
		hosts = append(hosts, &types.Host{ID: id, Hostname: name})
	}
	return hosts, nil
}

func (f *fakeResolver) ListHTTPCodes(ctx context.Context) ([]*types.HTTPCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("database down")
	}
	codes := []*types.HTTPCode{}
	for code, id := range f.codes {
		codes = append(codes, &types.HTTPCode{ID: id, Code: code})
	}
	return codes, nil
}

func TestHostIDCachesAfterFirstResolve(t *testing.T) {
	resolver := newFakeResolver()
	caches := NewCaches(resolver)
	ctx := context.Background()

	id1, err := caches.HostID(ctx, "web1")
	require.NoError(t, err)

	id2, err := caches.HostID(ctx, "web1")
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, resolver.hostCalls)
}

func TestCodeIDNotApplicableShortCircuits(t *testing.T) {
	resolver := newFakeResolver()
	caches := NewCaches(resolver)
	ctx := context.Background()

	for _, code := range []string{"", types.CodeNotApplicable} {
		id, err := caches.CodeID(ctx, code)
		require.NoError(t, err)
		assert.Equal(t, types.CodeIDNotApplicable, id)
	}
	assert.Zero(t, resolver.codeCalls, "sentinel codes must not reach the database")
}

func TestCodeIDResolvesAndCaches(t *testing.T) {
	resolver := newFakeResolver()
	caches := NewCaches(resolver)
	ctx := context.Background()

	id1, err := caches.CodeID(ctx, "200")
	require.NoError(t, err)
	id2, err := caches.CodeID(ctx, "200")
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, resolver.codeCalls)
}

func TestHostIDConcurrentSingleInsert(t *testing.T) {
	resolver := newFakeResolver()
	caches := NewCaches(resolver)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := caches.HostID(ctx, "web1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, resolver.hostCalls, "concurrent misses must collapse to one resolve")
}

func TestWarmSeedsBothCaches(t *testing.T) {
	resolver := newFakeResolver()
	resolver.hosts["web1"] = 7
	resolver.codes["200"] = 200
	caches := NewCaches(resolver)
	ctx := context.Background()

	require.NoError(t, caches.Warm(ctx))

	id, err := caches.HostID(ctx, "web1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	codeID, err := caches.CodeID(ctx, "200")
	require.NoError(t, err)
	assert.Equal(t, int64(200), codeID)

	assert.Zero(t, resolver.hostCalls)
	assert.Zero(t, resolver.codeCalls)
}

func TestResolveErrorNotCached(t *testing.T) {
	resolver := newFakeResolver()
	resolver.fail = true
	caches := NewCaches(resolver)
	ctx := context.Background()

	_, err := caches.HostID(ctx, "web1")
	require.Error(t, err)

	resolver.fail = false
	id, err := caches.HostID(ctx, "web1")
	require.NoError(t, err)
	assert.NotZero(t, id)
}
