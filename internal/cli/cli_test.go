package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tourflow/tourflow/internal/assistant"
	"github.com/tourflow/tourflow/internal/model"
	"github.com/tourflow/tourflow/internal/store"
)

type harness struct {
	t         *testing.T
	persister *store.MemoryPersister
	config    string
	completer assistant.Completer
	remote    store.Remote
}

func newHarness(t *testing.T) *harness {
	return &harness{
		t:         t,
		persister: store.NewMemoryPersister(),
		config:    filepath.Join(t.TempDir(), "config.yaml"),
		completer: stubCompleter{reply: "Load-in is at 10:00."},
	}
}

// run executes one command line against the shared workspace.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	a := NewApp(&out)
	a.openPersister = func(context.Context, string) (store.Persister, func() error, error) {
		return h.persister, nil, nil
	}
	a.newCompleter = func(FileConfig, *zap.Logger) assistant.Completer { return h.completer }
	a.newRemote = func(FileConfig) (store.Remote, error) {
		if h.remote == nil {
			return nil, errors.New("not configured")
		}
		return h.remote, nil
	}
	cmd := a.Command()
	cmd.SetArgs(append([]string{"--config", h.config}, args...))
	cmd.SetIn(strings.NewReader(""))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) must(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "tourflow %s", strings.Join(args, " "))
	return out
}

func (h *harness) snapshot() store.Snapshot {
	h.t.Helper()
	snap, ok, err := h.persister.Load(context.Background())
	require.NoError(h.t, err)
	require.True(h.t, ok, "nothing saved")
	return snap
}

type stubCompleter struct {
	reply string
	err   error
}

func (s stubCompleter) Complete(context.Context, []assistant.Message) (string, error) {
	return s.reply, s.err
}

func TestTourAndShowLifecycle(t *testing.T) {
	h := newHarness(t)

	h.must("tour", "add", "Spring Run", "--artist", "The Band", "--start", "2026-03-01", "--end", "2026-03-20")
	tour := h.snapshot().Tours[0]
	assert.Equal(t, "The Band", tour.Artist)

	out := h.must("show", "add", tour.ID[:6], "The Fillmore", "--date", "2026-03-02", "--city", "San Francisco", "--doors", "19:00")
	assert.Contains(t, out, "The Fillmore")

	snap := h.snapshot()
	require.Len(t, snap.Tours[0].Shows, 1)
	show := snap.Tours[0].Shows[0]
	assert.Equal(t, "19:00", show.Timeline.Doors)

	out = h.must("tour", "list")
	assert.Contains(t, out, "Spring Run")
	assert.Contains(t, out, "2026-03-01 to 2026-03-20")

	h.must("tour", "update", tour.ID, "--name", "Spring Run II")
	assert.Equal(t, "Spring Run II", h.snapshot().Tours[0].Name)
	assert.Equal(t, "The Band", h.snapshot().Tours[0].Artist, "unchanged fields survive")

	h.must("show", "rm", show.ID)
	assert.Empty(t, h.snapshot().Tours[0].Shows)

	h.must("tour", "rm", tour.ID)
	assert.Empty(t, h.snapshot().Tours)
}

func TestRejectsInvalidInput(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("tour", "add", "X", "--start", "March 1")
	assert.ErrorIs(t, err, model.ErrInvalid)

	_, err = h.run("tour", "add", "X", "--start", "2025-05-01", "--end", "2025-04-01")
	assert.ErrorIs(t, err, model.ErrInvalid)

	_, err = h.run("tour", "rm", "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = h.run("inputs", "set", "33", "--source", "Kick")
	assert.ErrorIs(t, err, model.ErrChannelRange)

	_, err = h.run("show", "settle", "x", "--gross", "ten")
	assert.Error(t, err)
}

func TestTourListStatusMatchesInBothModes(t *testing.T) {
	h := newHarness(t)
	h.must("tour", "add", "Old Run", "--start", "2001-03-01", "--end", "2001-03-20")

	var tours []model.Tour
	require.NoError(t, json.Unmarshal([]byte(h.must("--json", "tour", "list")), &tours))
	require.Len(t, tours, 1)
	assert.Equal(t, model.TourCompleted, tours[0].Status)
	assert.Contains(t, h.must("tour", "list"), string(model.TourCompleted))
}

func TestAmbiguousPrefix(t *testing.T) {
	_, err := matchID("tour", "ab", []string{"abc", "abd"})
	assert.ErrorContains(t, err, "ambiguous")

	id, err := matchID("tour", "abc", []string{"abc", "abcd"})
	require.NoError(t, err)
	assert.Equal(t, "abc", id, "exact match wins over prefix")
}

func TestSettleAndDaySheet(t *testing.T) {
	h := newHarness(t)
	h.must("tour", "add", "Fall")
	tour := h.snapshot().Tours[0]
	h.must("show", "add", tour.ID, "Red Rocks", "--date", "2026-09-12", "--load-in", "10:00")
	show := h.snapshot().Tours[0].Shows[0]

	out := h.must("show", "settle", show.ID,
		"--guarantee", "5,000", "--gross", "20000", "--expenses", "8000", "--percentage", "85")
	assert.Contains(t, out, "$12000.00") // net
	assert.Contains(t, out, "$10200.00") // 85% of net beats the guarantee

	set := h.snapshot().Tours[0].Shows[0].Settlement
	require.NotNil(t, set)
	assert.Equal(t, int64(500000), set.GuaranteeCents)

	out = h.must("show", "daysheet", show.ID)
	assert.Contains(t, out, "Red Rocks")
	assert.Contains(t, out, "10:00")

	dir := t.TempDir()
	h.must("show", "daysheet", show.ID, "-o", dir)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "Day Sheet - Red Rocks"))
}

func TestGearCommands(t *testing.T) {
	h := newHarness(t)
	h.must("gear", "add", "SM58", "--category", "microphones", "-n", "4", "--weight", "0.3", "--fly")
	h.must("gear", "add", "Amp rack", "--weight", "40")

	gear := h.snapshot().Gear
	require.Len(t, gear, 2)
	assert.Equal(t, model.GearOther, gear[1].Category)
	assert.Equal(t, model.ConditionGood, gear[1].Condition)

	h.must("gear", "cycle", gear[1].ID)
	assert.Equal(t, model.ConditionFair, h.snapshot().Gear[1].Condition)

	h.must("gear", "fly", gear[0].ID)
	assert.False(t, h.snapshot().Gear[0].FlyPack)

	out := h.must("--json", "gear", "manifest")
	var m model.Manifest
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, 2, m.Ground.Items)
	assert.Equal(t, 5, m.Ground.Pieces)

	out = h.must("gear", "list", "-q", "sm5")
	assert.Contains(t, out, "SM58")
	assert.NotContains(t, out, "Amp rack")

	h.must("gear", "rm", gear[0].ID)
	assert.Len(t, h.snapshot().Gear, 1)
}

func TestInputsSetOnlyChangesGivenFields(t *testing.T) {
	h := newHarness(t)
	h.must("inputs", "set", "1", "--source", "Kick In", "--mic", "Beta 91A", "--phantom")
	h.must("inputs", "set", "1", "--notes", "gate")

	ch := h.snapshot().InputList[0]
	assert.Equal(t, "Kick In", ch.Source)
	assert.Equal(t, "Beta 91A", ch.Mic)
	assert.True(t, ch.Phantom)
	assert.Equal(t, "gate", ch.Notes)

	out := h.must("inputs", "show")
	assert.Contains(t, out, "Kick In")
	assert.Equal(t, 2, strings.Count(strings.TrimSpace(out), "\n")+1, "header and one patched channel")

	h.must("inputs", "reset")
	assert.True(t, h.snapshot().InputList[0].Empty())
	assert.Len(t, h.snapshot().InputList, model.ChannelCount)
}

func TestImportInputListAndGear(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()

	inputs := filepath.Join(dir, "inputs.txt")
	require.NoError(t, os.WriteFile(inputs, []byte("1. Kick In - Beta 91A\n2. Snare Top - SM57\n"), 0o644))
	out := h.must("import", "input_list", inputs)
	assert.Contains(t, out, "2 channels")

	snap := h.snapshot()
	assert.Equal(t, "Kick In", snap.InputList[0].Source)
	require.Len(t, snap.Documents, 1)
	assert.Equal(t, model.DocInputList, snap.Documents[0].Type)
	assert.Equal(t, "inputs", snap.Documents[0].Name)

	gear := filepath.Join(dir, "gear.txt")
	require.NoError(t, os.WriteFile(gear, []byte("2x Shure SM58\nDI box\n"), 0o644))
	h.must("import", "gear-list", gear, "--name", "Backline advance")

	snap = h.snapshot()
	assert.NotEmpty(t, snap.Gear)
	require.Len(t, snap.Documents, 2)
	assert.Equal(t, model.DocAdvance, snap.Documents[1].Type, "gear lists are stored as advance documents")

	_, err := h.run("import", "stage_plot", gear)
	assert.ErrorIs(t, err, model.ErrInvalid)
}

func TestImportBadTourLeavesWorkspaceAlone(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	first := filepath.Join(dir, "first.txt")
	require.NoError(t, os.WriteFile(first, []byte("1. Kick In - Beta 91A\n"), 0o644))
	h.must("import", "input_list", first)

	second := filepath.Join(dir, "second.txt")
	require.NoError(t, os.WriteFile(second, []byte("1. Lead Vox - SM58\n"), 0o644))
	_, err := h.run("import", "input_list", second, "--tour", "nope")
	require.ErrorIs(t, err, store.ErrNotFound)

	snap := h.snapshot()
	assert.Equal(t, "Kick In", snap.InputList[0].Source)
	assert.Len(t, snap.Documents, 1)
}

func TestParseDoesNotSave(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "rider.txt")
	require.NoError(t, os.WriteFile(path, []byte("HOSPITALITY\n- 12 towels\n- water\n"), 0o644))

	out := h.must("parse", "rider", path)
	assert.Contains(t, out, "towels")

	_, ok, err := h.persister.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCrewShareAndTasks(t *testing.T) {
	h := newHarness(t)
	h.must("crew", "add", "Audio")
	crew := h.snapshot().Crews[0]
	h.must("crew", "member-add", crew.ID, "Sam", "--email", "Sam@Example.com", "--position", "FOH")

	member := h.snapshot().Crews[0].Members[0]
	assert.Equal(t, "sam@example.com", member.Email)

	path := filepath.Join(t.TempDir(), "plot.txt")
	require.NoError(t, os.WriteFile(path, []byte("drums upstage center"), 0o644))
	h.must("doc", "add", "Stage plot", path, "--type", "stage_plot")
	doc := h.snapshot().Documents[0]

	h.must("crew", "share", crew.ID, doc.ID)
	h.must("crew", "share", crew.ID, doc.ID)
	assert.Len(t, h.snapshot().Crews[0].Documents, 1, "sharing twice is a no-op")

	assert.Equal(t, "drums upstage center", h.must("doc", "cat", doc.ID))

	h.must("crew", "member-rm", crew.ID, member.ID[:5])
	assert.Empty(t, h.snapshot().Crews[0].Members)

	h.must("task", "add", "Advance hotel", "--priority", "high", "--due", "2026-04-01")
	h.must("task", "add", "Print laminates")
	task := h.snapshot().Tasks[0]
	h.must("task", "done", task.ID)
	assert.Equal(t, model.TaskDone, h.snapshot().Tasks[0].Status)

	out := h.must("task", "list", "--open")
	assert.Contains(t, out, "Print laminates")
	assert.NotContains(t, out, "Advance hotel")
}

func TestChatKeepsTranscriptInWorkspace(t *testing.T) {
	h := newHarness(t)

	out := h.must("chat", "ask", "when", "is", "load-in?")
	assert.Contains(t, out, "Load-in is at 10:00.")

	chat := h.snapshot().Chat
	require.Len(t, chat, 2)
	assert.Equal(t, model.ChatUser, chat[0].Role)
	assert.Equal(t, "when is load-in?", chat[0].Content)

	h.completer = stubCompleter{err: errors.New("down")}
	out = h.must("chat", "ask", "hello")
	assert.Contains(t, out, assistant.FallbackReply)

	out = h.must("chat", "history")
	assert.Equal(t, 4, strings.Count(out, "\n"))

	h.must("chat", "clear")
	assert.Empty(t, h.snapshot().Chat)
}

type countingRemote struct {
	mu     sync.Mutex
	tables []string
}

func (r *countingRemote) Upsert(_ context.Context, table string, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables = append(r.tables, table)
	return nil
}

func (r *countingRemote) Count(_ context.Context, table string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tables {
		if t == table {
			n++
		}
	}
	return n, nil
}

func TestSyncVerifyReadsBack(t *testing.T) {
	h := newHarness(t)
	h.remote = &countingRemote{}
	h.must("tour", "add", "Winter")

	out := h.must("--json", "sync", "--verify")
	var rows []syncRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.NotEmpty(t, rows)
	for _, r := range rows {
		assert.Equal(t, 1, r.Remote, r.Table)
	}
	assert.Contains(t, h.must("sync", "--verify"), "PUSHED")
}

func TestSyncPushesWorkspace(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("sync")
	assert.ErrorContains(t, err, "supabase")

	remote := &countingRemote{}
	h.remote = remote
	h.must("tour", "add", "Winter")

	out := h.must("--json", "sync")
	var report store.SyncReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report["tours"])
	assert.Equal(t, model.ChannelCount, report["input_channels"])
	assert.Contains(t, remote.tables, "tours")
}

func TestConfigInitAndShow(t *testing.T) {
	h := newHarness(t)
	h.must("config", "init")

	_, err := h.run("config", "init")
	assert.ErrorContains(t, err, "already exists")

	cfg, err := LoadConfig(h.config)
	require.NoError(t, err)
	cfg.Assistant.APIKey = "sk-secret-1234"
	require.NoError(t, cfg.Save(h.config))

	out := h.must("config", "show")
	assert.Contains(t, out, "****1234")
	assert.NotContains(t, out, "sk-secret")

	_, ok, err := h.persister.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "config commands never open the workspace")
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: [oops"), 0o600))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestParseCents(t *testing.T) {
	for in, want := range map[string]int64{
		"":          0,
		"1500":      150000,
		"$1,250.50": 125050,
		"0.1":       10,
	} {
		got, err := parseCents(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseCents("-5")
	assert.Error(t, err)
}

func TestSQLiteWorkspaceSurvivesRuns(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ws.db")
	cfg := filepath.Join(t.TempDir(), "config.yaml")

	var out bytes.Buffer
	require.Equal(t, 0, Execute(context.Background(), &out, []string{"--config", cfg, "--db", db, "tour", "add", "Persisted"}))
	out.Reset()
	require.Equal(t, 0, Execute(context.Background(), &out, []string{"--config", cfg, "--db", db, "--json", "tour", "list"}))

	var tours []model.Tour
	require.NoError(t, json.Unmarshal(out.Bytes(), &tours))
	require.Len(t, tours, 1)
	assert.Equal(t, "Persisted", tours[0].Name)
}

func TestFreshHomeCreatesWorkspace(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfg := filepath.Join(home, "nope.yaml")

	var out bytes.Buffer
	require.Equal(t, 0, Execute(context.Background(), &out, []string{"--config", cfg, "tour", "list"}), out.String())
	assert.FileExists(t, filepath.Join(home, ".tourflow", "workspace.db"))
}
