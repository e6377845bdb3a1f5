package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jamscout/jamscout/internal/config"
	"github.com/jamscout/jamscout/internal/jam"
	"github.com/jamscout/jamscout/internal/store"
)

// The tests swap the package-level newApp factory, so none of them may
// run in parallel.

func testJam(t *testing.T, id, name string, category jam.Category) *jam.Jam {
	t.Helper()

	j, err := jam.New(id, name,
		time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), 9,
		[]jam.Owner{{ID: "alice", Name: "Alice"}})
	require.NoError(t, err)
	j.Category = category
	return j
}

func withFakeApp(t *testing.T, st *fakeStore) *fakeApp {
	t.Helper()

	fake := &fakeApp{store: st, logger: zap.NewNop()}
	orig := newApp
	newApp = func(context.Context, string, bool) (App, error) {
		return fake, nil
	}
	t.Cleanup(func() { newApp = orig })
	return fake
}

func runCommand(t *testing.T, in string, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(in))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestListCommandDefaultsToCurrentTabletop(t *testing.T) {
	st := newFakeStore(
		testJam(t, "autumn-jam", "Autumn Jam", jam.CategoryTabletop),
		testJam(t, "dice-days", "Dice Days", jam.CategoryTabletop),
	)
	st.queryIDs = []string{"autumn-jam", "dice-days"}
	app := withFakeApp(t, st)

	out, _, err := runCommand(t, "", "list")
	require.NoError(t, err)

	f := st.filter()
	require.NotNil(t, f.Category)
	require.Equal(t, jam.CategoryTabletop, *f.Category)
	require.Equal(t, store.TemporalCurrent, f.Temporal)

	require.Contains(t, out, "Current tabletop jams (2):")
	require.Contains(t, out, "Autumn Jam")
	require.Contains(t, out, "Dice Days")
	require.True(t, app.closed.Load())
}

func TestListCommandAllOldJSON(t *testing.T) {
	st := newFakeStore(testJam(t, "pixel-week", "Pixel Week", jam.CategoryDigital))
	st.queryIDs = []string{"pixel-week"}
	withFakeApp(t, st)

	out, _, err := runCommand(t, "", "list", "--all", "--old", "--format", "json")
	require.NoError(t, err)

	f := st.filter()
	require.True(t, f.All)
	require.Equal(t, store.TemporalAny, f.Temporal)

	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	require.Equal(t, "pixel-week", got[0]["id"])
}

func TestListCommandRejectsConflictingSelectors(t *testing.T) {
	withFakeApp(t, newFakeStore())

	_, _, err := runCommand(t, "", "list", "--type", "tabletop", "--all")
	require.Error(t, err)
	require.Contains(t, err.Error(), "none of the others can be")
}

func TestListCommandRejectsUnknownFormat(t *testing.T) {
	withFakeApp(t, newFakeStore())

	_, _, err := runCommand(t, "", "list", "--format", "yaml")
	require.ErrorContains(t, err, "unknown output format")
}

func TestShowCommandPrintsJamAndReportsMissing(t *testing.T) {
	j := testJam(t, "autumn-jam", "Autumn Jam", jam.CategoryTabletop)
	j.Description = "<p>Roll dice.</p>"
	st := newFakeStore(j)
	withFakeApp(t, st)

	out, errOut, err := runCommand(t, "", "show", "autumn-jam", "missing")
	require.NoError(t, err)
	require.Contains(t, out, "Jam: Autumn Jam (autumn-jam)")
	require.Contains(t, out, "Roll dice.")
	require.Contains(t, errOut, "missing not found")
}

func TestClassifyCommandAssignsType(t *testing.T) {
	st := newFakeStore(testJam(t, "autumn-jam", "Autumn Jam", jam.CategoryUnclassified))
	withFakeApp(t, st)

	out, _, err := runCommand(t, "", "classify", "--type", "tabletop", "autumn-jam")
	require.NoError(t, err)
	require.Contains(t, out, "Classifying autumn-jam as tabletop")
	require.Equal(t, jam.CategoryTabletop, st.jam(t, "autumn-jam").Category)
}

func TestClassifyCommandSelectsUnclassifiedByDefault(t *testing.T) {
	st := newFakeStore(
		testJam(t, "autumn-jam", "Autumn Jam", jam.CategoryUnclassified),
		testJam(t, "pixel-week", "Pixel Week", jam.CategoryUnclassified),
	)
	st.queryIDs = []string{"autumn-jam", "pixel-week"}
	withFakeApp(t, st)

	_, _, err := runCommand(t, "", "classify", "--type", "digital")
	require.NoError(t, err)

	f := st.filter()
	require.NotNil(t, f.Category)
	require.Equal(t, jam.CategoryUnclassified, *f.Category)
	require.Equal(t, jam.CategoryDigital, st.jam(t, "autumn-jam").Category)
	require.Equal(t, jam.CategoryDigital, st.jam(t, "pixel-week").Category)
}

func TestClassifyCommandInteractive(t *testing.T) {
	st := newFakeStore(
		testJam(t, "autumn-jam", "Autumn Jam", jam.CategoryUnclassified),
		testJam(t, "pixel-week", "Pixel Week", jam.CategoryUnclassified),
	)
	withFakeApp(t, st)

	// First jam gets a valid answer after one typo; the blank line leaves
	// the second jam untouched.
	out, _, err := runCommand(t, "ttrgp\ntabletop\n\n",
		"classify", "autumn-jam", "pixel-week")
	require.NoError(t, err)
	require.Contains(t, out, "Game type [tabletop/digital/unclassified")
	require.Contains(t, out, `Unknown type "ttrgp"`)
	require.Contains(t, out, "Classifying autumn-jam as tabletop")
	require.Equal(t, jam.CategoryTabletop, st.jam(t, "autumn-jam").Category)
	require.Equal(t, jam.CategoryUnclassified, st.jam(t, "pixel-week").Category)
}

func TestClassifyCommandStopsOnClosedInput(t *testing.T) {
	st := newFakeStore(testJam(t, "autumn-jam", "Autumn Jam", jam.CategoryUnclassified))
	withFakeApp(t, st)

	_, _, err := runCommand(t, "", "classify", "autumn-jam")
	require.NoError(t, err)
	require.Equal(t, jam.CategoryUnclassified, st.jam(t, "autumn-jam").Category)
}

func TestDeleteCommandRemovesAndReportsMissing(t *testing.T) {
	st := newFakeStore(testJam(t, "autumn-jam", "Autumn Jam", jam.CategoryTabletop))
	withFakeApp(t, st)

	out, errOut, err := runCommand(t, "", "delete", "autumn-jam", "ghost")
	require.NoError(t, err)
	require.Contains(t, out, "Deleting autumn-jam")
	require.Contains(t, errOut, "ghost not found")
	require.Nil(t, st.rawJam("autumn-jam"))
}

func TestRootCommandReportsFactoryFailure(t *testing.T) {
	orig := newApp
	newApp = func(context.Context, string, bool) (App, error) {
		return nil, errFactory
	}
	t.Cleanup(func() { newApp = orig })

	_, _, err := runCommand(t, "", "list")
	require.ErrorContains(t, err, "initialize application services")
}

// --- fakes ---

var errFactory = errors.New("load config: database.url is required")

type fakeApp struct {
	store  *fakeStore
	logger *zap.Logger
	closed atomic.Bool
}

func (a *fakeApp) Close()                   { a.closed.Store(true) }
func (a *fakeApp) GetConfig() config.Config { return config.Config{} }
func (a *fakeApp) GetLogger() *zap.Logger   { return a.logger }
func (a *fakeApp) GetStore() store.Store    { return a.store }

type fakeStore struct {
	mu         sync.Mutex
	jams       map[string]*jam.Jam
	queryIDs   []string
	lastFilter store.Filter
}

func newFakeStore(jams ...*jam.Jam) *fakeStore {
	st := &fakeStore{jams: make(map[string]*jam.Jam)}
	for _, j := range jams {
		cp := *j
		st.jams[j.ID] = &cp
	}
	return st
}

func (s *fakeStore) Init(context.Context) error { return nil }

func (s *fakeStore) UpsertJam(_ context.Context, j *jam.Jam) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *j
	s.jams[j.ID] = &cp
	return nil
}

func (s *fakeStore) LoadJam(_ context.Context, id string) (*jam.Jam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jams[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (s *fakeStore) DeleteJam(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jams[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.jams, id)
	return nil
}

func (s *fakeStore) QueryJams(_ context.Context, f store.Filter) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFilter = f
	return append([]string(nil), s.queryIDs...), nil
}

func (s *fakeStore) KnownIDs(context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make(map[string]struct{}, len(s.jams))
	for id := range s.jams {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (s *fakeStore) Close() {}

func (s *fakeStore) filter() store.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFilter
}

func (s *fakeStore) jam(t *testing.T, id string) *jam.Jam {
	t.Helper()
	j := s.rawJam(id)
	require.NotNil(t, j, "jam %s not stored", id)
	return j
}

func (s *fakeStore) rawJam(id string) *jam.Jam {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jams[id]
	if !ok {
		return nil
	}
	cp := *j
	return &cp
}
