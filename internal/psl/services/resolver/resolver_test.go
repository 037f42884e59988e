package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-psl/internal/psl/common/clock"
	"github.com/haukened/rr-psl/internal/psl/domain"
	"github.com/haukened/rr-psl/internal/psl/repos/lookup"
	"github.com/haukened/rr-psl/internal/psl/repos/lookup/bloom"
	"github.com/haukened/rr-psl/internal/psl/repos/lookup/lru"
	"github.com/haukened/rr-psl/internal/psl/repos/snapshot"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) Fetch(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	lines, _ := args.Get(0).([]string)
	return lines, args.Error(1)
}

func (m *MockSource) Name() string {
	return m.Called().String(0)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Save(s snapshot.Snapshot) (snapshot.Snapshot, error) {
	args := m.Called(s)
	return args.Get(0).(snapshot.Snapshot), args.Error(1)
}

func (m *MockStore) Load(source string) (snapshot.Snapshot, error) {
	args := m.Called(source)
	return args.Get(0).(snapshot.Snapshot), args.Error(1)
}

func (m *MockStore) Stats() snapshot.StoreStats {
	return m.Called().Get(0).(snapshot.StoreStats)
}

func (m *MockStore) Close() error {
	return m.Called().Error(0)
}

var testList = []string{
	"// ===BEGIN ICANN DOMAINS===",
	"com",
	"jp",
	"*.kawasaki.jp",
	"!city.kawasaki.jp",
	"",
	"// ===BEGIN PRIVATE DOMAINS===",
	"blogspot.com",
}

var testNow = time.Unix(1_700_000_000, 0)

func newTestRepo(t *testing.T) lookup.Repository {
	t.Helper()
	cache, err := lru.New(64)
	require.NoError(t, err)
	return lookup.NewRepository(cache, bloom.NewFactory(), 0.01, clock.NewMockClock(testNow))
}

func newTestResolver(t *testing.T, src LineSource, store snapshot.Store, compare bool) *Resolver {
	t.Helper()
	var opts Options
	opts.Source = src
	opts.Lookup = newTestRepo(t)
	opts.Clock = clock.NewMockClock(testNow)
	opts.CompareBuiltin = compare
	if store != nil {
		opts.Snapshots = store
	}
	r, err := New(opts)
	require.NoError(t, err)
	return r
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Options{Lookup: newTestRepo(t)})
	assert.ErrorIs(t, err, ErrNoSource)

	_, err = New(Options{Source: &MockSource{}})
	assert.ErrorIs(t, err, ErrNoLookup)

	r, err := New(Options{Source: &MockSource{}, Lookup: newTestRepo(t)})
	require.NoError(t, err)
	assert.NotNil(t, r.clock)
	assert.NotNil(t, r.logger)
}

func TestResolver_Load_SavesSnapshot(t *testing.T) {
	src := &MockSource{}
	src.On("Name").Return("list.dat")
	src.On("Fetch", mock.Anything).Return(testList, nil)
	store := &MockStore{}
	store.On("Save", snapshot.Snapshot{Source: "list.dat", Lines: testList, UpdatedUnix: testNow.Unix()}).
		Return(snapshot.Snapshot{Source: "list.dat", Version: 1}, nil)

	r := newTestResolver(t, src, store, false)
	require.NoError(t, r.Load(context.Background()))

	store.AssertExpectations(t)
	store.AssertNotCalled(t, "Load", mock.Anything)
	assert.Equal(t, 5, r.Stats().Rules)
	assert.Equal(t, uint64(1), r.Stats().Version)
}

func TestResolver_Load_SaveFailureIsNotFatal(t *testing.T) {
	src := &MockSource{}
	src.On("Name").Return("list.dat")
	src.On("Fetch", mock.Anything).Return(testList, nil)
	store := &MockStore{}
	store.On("Save", mock.Anything).Return(snapshot.Snapshot{}, errors.New("disk full"))

	r := newTestResolver(t, src, store, false)
	require.NoError(t, r.Load(context.Background()))
	assert.Equal(t, 5, r.Stats().Rules)
}

func TestResolver_Load_FallsBackToSnapshot(t *testing.T) {
	src := &MockSource{}
	src.On("Name").Return("list.dat")
	src.On("Fetch", mock.Anything).Return(nil, errors.New("connection refused"))
	store := &MockStore{}
	store.On("Load", "list.dat").Return(snapshot.Snapshot{Source: "list.dat", Lines: []string{"uk", "co.uk"}, Version: 3}, nil)

	r := newTestResolver(t, src, store, false)
	require.NoError(t, r.Load(context.Background()))

	store.AssertNotCalled(t, "Save", mock.Anything)
	d, ok := r.Domain("www.bbc.co.uk")
	assert.True(t, ok)
	assert.Equal(t, "bbc.co.uk", d)
}

func TestResolver_Load_Errors(t *testing.T) {
	fetchErr := errors.New("connection refused")

	t.Run("fetch fails without store", func(t *testing.T) {
		src := &MockSource{}
		src.On("Name").Return("list.dat")
		src.On("Fetch", mock.Anything).Return(nil, fetchErr)
		r := newTestResolver(t, src, nil, false)
		err := r.Load(context.Background())
		assert.ErrorIs(t, err, fetchErr)
	})

	t.Run("fetch fails and no snapshot", func(t *testing.T) {
		src := &MockSource{}
		src.On("Name").Return("list.dat")
		src.On("Fetch", mock.Anything).Return(nil, fetchErr)
		store := &MockStore{}
		store.On("Load", "list.dat").Return(snapshot.Snapshot{}, snapshot.ErrNotFound)
		r := newTestResolver(t, src, store, false)
		err := r.Load(context.Background())
		assert.ErrorIs(t, err, fetchErr)
		assert.ErrorIs(t, err, snapshot.ErrNotFound)
	})

	t.Run("only comments", func(t *testing.T) {
		src := &MockSource{}
		src.On("Name").Return("list.dat")
		src.On("Fetch", mock.Anything).Return([]string{"// nothing here", ""}, nil)
		r := newTestResolver(t, src, nil, false)
		assert.ErrorIs(t, r.Load(context.Background()), ErrNoRules)
	})

	t.Run("invalid rule keeps previous rules", func(t *testing.T) {
		src := &MockSource{}
		src.On("Name").Return("list.dat")
		src.On("Fetch", mock.Anything).Return(testList, nil).Once()
		src.On("Fetch", mock.Anything).Return([]string{"com", "bad\xff"}, nil).Once()
		r := newTestResolver(t, src, nil, false)
		require.NoError(t, r.Load(context.Background()))

		err := r.Load(context.Background())
		assert.ErrorIs(t, err, domain.ErrInvalidRule)
		assert.ErrorIs(t, err, domain.ErrDecoding)
		assert.Equal(t, 5, r.Stats().Rules)
	})
}

func TestResolver_Resolve(t *testing.T) {
	src := &MockSource{}
	src.On("Name").Return("list.dat")
	src.On("Fetch", mock.Anything).Return(testList, nil)
	r := newTestResolver(t, src, nil, false)
	require.NoError(t, r.Load(context.Background()))

	tests := []struct {
		host      string
		tld       string
		domain    string
		hasDomain bool
		parents   []string
	}{
		{"a.b.example.com", "com", "example.com", true, []string{"b.example.com", "example.com"}},
		{"Foo.Blogspot.COM", "blogspot.com", "foo.blogspot.com", true, nil},
		{"www.foo.kawasaki.jp", "foo.kawasaki.jp", "www.foo.kawasaki.jp", true, nil},
		{"www.city.kawasaki.jp", "kawasaki.jp", "city.kawasaki.jp", true, []string{"city.kawasaki.jp"}},
		{"com", "com", "", false, nil},
		{"example.unknown", "unknown", "example.unknown", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			res := r.Resolve(tt.host)
			assert.Nil(t, res.Builtin)
			assert.Equal(t, tt.tld, res.TLD)
			assert.Equal(t, tt.domain, res.Domain)
			assert.Equal(t, tt.hasDomain, res.HasDomain)
			assert.Equal(t, tt.parents, res.Parents)

			assert.Equal(t, tt.tld, r.TLD(tt.host))
			d, ok := r.Domain(tt.host)
			assert.Equal(t, tt.domain, d)
			assert.Equal(t, tt.hasDomain, ok)
			assert.Equal(t, tt.parents, r.Parents(tt.host))
			p, ok := r.Parent(tt.host)
			assert.Equal(t, len(tt.parents) > 0, ok)
			if ok {
				assert.Equal(t, tt.parents[0], p)
			}
		})
	}
}

func TestResolver_Load_ExtraRules(t *testing.T) {
	src := &MockSource{}
	src.On("Name").Return("list.dat")
	src.On("Fetch", mock.Anything).Return([]string{"com"}, nil)
	store := &MockStore{}
	store.On("Save", snapshot.Snapshot{Source: "list.dat", Lines: []string{"com"}, UpdatedUnix: testNow.Unix()}).
		Return(snapshot.Snapshot{Version: 1}, nil)

	r, err := New(Options{
		Source:    src,
		Lookup:    newTestRepo(t),
		Snapshots: store,
		Clock:     clock.NewMockClock(testNow),
		Extra:     []string{"corp.example.com", "// note"},
	})
	require.NoError(t, err)
	require.NoError(t, r.Load(context.Background()))

	store.AssertExpectations(t)
	assert.Equal(t, 2, r.Stats().Rules)
	assert.Equal(t, "corp.example.com", r.TLD("git.corp.example.com"))
}

func TestResolver_Load_InvalidExtraRule(t *testing.T) {
	src := &MockSource{}
	src.On("Name").Return("list.dat")
	src.On("Fetch", mock.Anything).Return([]string{"com"}, nil)

	r, err := New(Options{Source: src, Lookup: newTestRepo(t), Extra: []string{"bad\xff"}})
	require.NoError(t, err)
	assert.ErrorIs(t, r.Load(context.Background()), domain.ErrInvalidRule)
	assert.Equal(t, 0, r.Stats().Rules)
}

func TestResolver_Resolve_CompareBuiltin(t *testing.T) {
	src := &MockSource{}
	src.On("Name").Return("list.dat")
	src.On("Fetch", mock.Anything).Return([]string{"com", "example.com"}, nil)
	r := newTestResolver(t, src, nil, true)
	require.NoError(t, r.Load(context.Background()))

	res := r.Resolve("www.google.com")
	require.NotNil(t, res.Builtin)
	assert.True(t, res.Builtin.Agrees)
	assert.True(t, res.Builtin.ICANN)
	assert.Equal(t, "google.com", res.Builtin.Domain)

	// example.com is a suffix only in the loaded list.
	res = r.Resolve("a.example.com")
	require.NotNil(t, res.Builtin)
	assert.False(t, res.Builtin.Agrees)
	assert.Equal(t, "example.com", res.TLD)
	assert.Equal(t, "com", res.Builtin.TLD)
	assert.Equal(t, "example.com", res.Builtin.Domain)
}
