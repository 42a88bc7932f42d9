package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinv-group/vinv-go/internal/paths"
)

// testEnv holds isolated config and data directories for one test.
type testEnv struct {
	configDir string
	dataDir   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	t.Setenv(paths.EnvConfigDir, "")
	t.Setenv(paths.EnvDataDir, "")
	return &testEnv{
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
	}
}

// run executes vinv with args and returns stdout, stderr and the exit code.
func (e *testEnv) run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	a := newApp()
	root := a.rootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...))
	code := a.execute(root, &stderr)
	return stdout.String(), stderr.String(), code
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, code := e.run(t, args...)
	require.Equal(t, exitSuccess, code, "stderr: %s", errOut)
	return out
}

func TestInitCreatesWorkingCopyAndConfig(t *testing.T) {
	e := newTestEnv(t)
	out := e.mustRun(t, "init")
	assert.Contains(t, out, "Inventory initialized (version 0.1-alpha, 0 records)")

	data, err := os.ReadFile(filepath.Join(e.dataDir, paths.WorkingCopyFile))
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":"0.1-alpha"}`, string(data))

	cfg, err := os.ReadFile(filepath.Join(e.configDir, paths.ConfigFile))
	require.NoError(t, err)
	assert.Contains(t, string(cfg), "driver: sqlite")
	assert.Contains(t, string(cfg), "log_level: warn")

	out = e.mustRun(t, "init")
	assert.Contains(t, out, "already initialized")
}

func TestAddShowScenario(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun(t, "init")

	out := e.mustRun(t, "add", `{"species":"Oak","height":12}`, "--id", "t1")
	assert.Equal(t, "t1\n", out)

	_, errOut, code := e.run(t, "add", `{"species":"Oak","height":12}`, "--id", "t1")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "record id already exists")

	out = e.mustRun(t, "show")
	assert.Contains(t, out, "records: 1")
	assert.Contains(t, out, "t1")
	assert.Contains(t, out, "Oak")

	out = e.mustRun(t, "--json", "show")
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "0.1-alpha", doc["v"])
}

func TestAddRejectsInvalidRecord(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun(t, "init")

	_, errOut, code := e.run(t, "add", `{"height":-1,"color":"green"}`)
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "record rejected:")
	assert.Contains(t, errOut, "/height")

	out := e.mustRun(t, "show")
	assert.Contains(t, out, "records: 0")
}

func TestAddGeneratesID(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun(t, "init")

	out := e.mustRun(t, "--json", "add", `{"species":"Ash"}`)
	var res map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.NotEmpty(t, res["id"])
}

func TestAddFromFile(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun(t, "init")
	f := filepath.Join(t.TempDir(), "tree.json")
	require.NoError(t, os.WriteFile(f, []byte(`{"species":"Fir","dbh":30}`), 0o644))

	out := e.mustRun(t, "add", "--file", f, "--id", "fir-1")
	assert.Equal(t, "fir-1\n", out)

	_, _, code := e.run(t, "add", "--file", f, `{"species":"x"}`)
	assert.Equal(t, exitUserError, code)
}

func TestCommandsRequireInit(t *testing.T) {
	e := newTestEnv(t)
	for _, args := range [][]string{
		{"add", `{"species":"Oak"}`},
		{"show"},
		{"export"},
		{"schema"},
	} {
		t.Run(args[0], func(t *testing.T) {
			_, errOut, code := e.run(t, args...)
			assert.Equal(t, exitUserError, code)
			assert.Contains(t, errOut, "vinv init")
		})
	}
}

func TestInitFromFile(t *testing.T) {
	e := newTestEnv(t)
	dir := t.TempDir()

	good := filepath.Join(dir, "good.vinv")
	require.NoError(t, os.WriteFile(good, []byte(`{"v":"0.1-alpha","trees":[{"a":{"species":"Elm"}},[]]}`), 0o644))
	out := e.mustRun(t, "init", "--from", good)
	assert.Contains(t, out, "1 records")

	bad := filepath.Join(dir, "bad.vinv")
	require.NoError(t, os.WriteFile(bad, []byte(`{"v":"7.0"}`), 0o644))
	_, errOut, code := e.run(t, "init", "--from", bad)
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "unsupported version")

	out = e.mustRun(t, "show")
	assert.Contains(t, out, "records: 1", "failed init keeps the inventory")
}

func TestExportImport(t *testing.T) {
	e := newTestEnv(t)
	saved := now
	now = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = saved })

	e.mustRun(t, "init")
	e.mustRun(t, "add", `{"species":"Oak"}`, "--id", "t1")

	out := e.mustRun(t, "export")
	assert.Contains(t, out, "Exported virtual-inventory-2026-10-18.vinv")
	exported := filepath.Join(e.dataDir, "exchange", "virtual-inventory-2026-10-18.vinv")
	require.FileExists(t, exported)

	e.mustRun(t, "add", `{"species":"Elm"}`, "--id", "t2")
	other := filepath.Join(e.dataDir, "exchange", "bad.vinv")
	require.NoError(t, os.WriteFile(other, []byte(`{"v":"0.1-alpha","extra":1}`), 0o644))

	out = e.mustRun(t, "import", "--list")
	assert.Contains(t, out, "bad.vinv")
	assert.Contains(t, out, "virtual-inventory-2026-10-18.vinv")

	out, errOut, code := e.run(t, "import", "virtual-inventory-2026-10-18.vinv", "bad.vinv")
	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "Imported virtual-inventory-2026-10-18.vinv")
	assert.Contains(t, errOut, "import bad.vinv")

	out = e.mustRun(t, "show")
	assert.Contains(t, out, "records: 1", "last valid import wins")

	_, _, code = e.run(t, "import", "missing.vinv")
	assert.Equal(t, exitUserError, code)

	_, _, code = e.run(t, "export", "../escape.vinv")
	assert.Equal(t, exitUserError, code)
}

func TestSchemaCommand(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun(t, "init")

	out := e.mustRun(t, "schema")
	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	tree := env["properties"].(map[string]any)["tree"].(map[string]any)
	assert.Equal(t, "Tree", tree["title"])
	assert.NotContains(t, out, `"$ref"`)

	out = e.mustRun(t, "schema", "--raw")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "{"))
	assert.NotContains(t, out, `"tree"`)
}

func TestHistory(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun(t, "init")
	e.mustRun(t, "add", `{"species":"Oak"}`, "--id", "t1")

	out := e.mustRun(t, "history")
	assert.Contains(t, out, "REVISION")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 3)

	out = e.mustRun(t, "--json", "history", "--limit", "1")
	var revs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &revs))
	require.Len(t, revs, 1)
	assert.EqualValues(t, 1, revs[0]["record_count"])
}

func TestHistoryDisabled(t *testing.T) {
	e := newTestEnv(t)
	t.Setenv("VINV_ARCHIVE_DRIVER", "none")
	e.mustRun(t, "init")

	_, errOut, code := e.run(t, "history")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "disabled")
}

func TestVersionsAndExternalSchemaDir(t *testing.T) {
	e := newTestEnv(t)
	out := e.mustRun(t, "versions")
	assert.Equal(t, "0.1-alpha\n", out)

	set := filepath.Join(e.configDir, paths.SchemaDirName, "0.2-beta")
	require.NoError(t, os.MkdirAll(filepath.Join(set, "definitions"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(set, "vinv.yaml"), []byte("type: object\nrequired: [v]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(set, "definitions", "trees.yaml"), []byte("type: object\nrequired: [species]\n"), 0o644))

	out = e.mustRun(t, "versions")
	assert.Equal(t, "0.1-alpha\n0.2-beta\n", out)

	f := filepath.Join(t.TempDir(), "beta.vinv")
	require.NoError(t, os.WriteFile(f, []byte(`{"v":"0.2-beta"}`), 0o644))
	e.mustRun(t, "init", "--from", f)
	e.mustRun(t, "add", `{"species":"Yew","anything":true}`, "--id", "y")
}

func TestVersionCommand(t *testing.T) {
	e := newTestEnv(t)
	out := e.mustRun(t, "version")
	assert.Contains(t, out, "vinv v"+Version)
	assert.Contains(t, out, modulePath)
}

func TestMetricsFlag(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun(t, "init")
	_, errOut, code := e.run(t, "--metrics", "add", `{"species":"Oak"}`, "--id", "t1")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, errOut, `vinv_record_add_total{outcome="ok"} 1`)
	assert.Contains(t, errOut, `vinv_initialize_total{outcome="ok"} 1`)
}

func TestLogLevelFlag(t *testing.T) {
	e := newTestEnv(t)
	_, errOut, code := e.run(t, "--log-level", "debug", "init")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, errOut, "configuration loaded")

	_, errOut, code = e.run(t, "--log-level", "loud", "show")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "unknown log level")
}

func TestTransactionalAddFromEnv(t *testing.T) {
	e := newTestEnv(t)
	t.Setenv("VINV_TRANSACTIONAL_ADD", "true")
	e.mustRun(t, "init")
	e.mustRun(t, "add", `{"species":"Oak"}`, "--id", "t1")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitUserError, exitCode(assert.AnError))
	assert.Equal(t, exitSysError, exitCode(sysErrorf("disk: %w", assert.AnError)))
}

func TestCorruptWorkingCopyIsKept(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun(t, "init")
	e.mustRun(t, "add", `{"species":"Oak"}`, "--id", "t1")
	e.mustRun(t, "add", `{"species":"Elm"}`, "--id", "t2")

	wc := filepath.Join(e.dataDir, paths.WorkingCopyFile)
	data, err := os.ReadFile(wc)
	require.NoError(t, err)
	truncated := data[:len(data)-3]
	require.NoError(t, os.WriteFile(wc, truncated, 0o644))

	_, errOut, code := e.run(t, "add", `{"species":"Ash"}`, "--id", "t3")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, wc)
	assert.Contains(t, errOut, "malformed inventory input")

	_, _, code = e.run(t, "init")
	assert.Equal(t, exitUserError, code)
	_, _, code = e.run(t, "show")
	assert.Equal(t, exitUserError, code)

	after, err := os.ReadFile(wc)
	require.NoError(t, err)
	assert.Equal(t, truncated, after, "working copy must not be overwritten")

	out := e.mustRun(t, "restore")
	assert.Contains(t, out, "2 records")
	out = e.mustRun(t, "show")
	assert.Contains(t, out, "records: 2")
}

func TestInitForceReplacesCorruptWorkingCopy(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun(t, "init")
	wc := filepath.Join(e.dataDir, paths.WorkingCopyFile)
	require.NoError(t, os.WriteFile(wc, []byte(`{"v":`), 0o644))

	out := e.mustRun(t, "init", "--force")
	assert.Contains(t, out, "0 records")
	data, err := os.ReadFile(wc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":"0.1-alpha"}`, string(data))
}

func TestRestoreRevision(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun(t, "init")
	e.mustRun(t, "add", `{"species":"Oak"}`, "--id", "t1")

	var revs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(e.mustRun(t, "--json", "history", "--limit", "1")), &revs))
	require.Len(t, revs, 1)
	oneRecord := revs[0]["revision_id"].(string)

	e.mustRun(t, "add", `{"species":"Elm"}`, "--id", "t2")

	out := e.mustRun(t, "restore", "--revision", oneRecord)
	assert.Contains(t, out, "Restored revision "+oneRecord)
	out = e.mustRun(t, "show")
	assert.Contains(t, out, "records: 1")
	assert.NotContains(t, out, "t2")

	_, errOut, code := e.run(t, "restore", "--revision", "missing")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "revision not found")
}

func TestRestoreWithoutArchive(t *testing.T) {
	e := newTestEnv(t)
	t.Setenv("VINV_ARCHIVE_DRIVER", "none")
	e.mustRun(t, "init")

	_, errOut, code := e.run(t, "restore")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "disabled")
}
