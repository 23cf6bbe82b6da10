package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marmos91/dittoreg/pkg/store/record"
	"github.com/marmos91/dittoreg/pkg/store/record/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv is a config file pointing at a private sqlite database and
// snapshot directory.
type testEnv struct {
	configPath  string
	dbPath      string
	snapshotDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		configPath:  filepath.Join(dir, "config.yaml"),
		dbPath:      filepath.Join(dir, "registry.db"),
		snapshotDir: filepath.Join(dir, "snapshots"),
	}

	content := `
logging:
  level: ERROR
  output: ` + filepath.Join(dir, "dittoreg.log") + `
store:
  type: sqlite
  sqlite:
    path: ` + env.dbPath + `
snapshot:
  target: file
  format: json
  file:
    dir: ` + env.snapshotDir + `
`
	require.NoError(t, os.WriteFile(env.configPath, []byte(content), 0644))
	return env
}

type result struct {
	code   int
	stdout string
	stderr string
}

func (env *testEnv) run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config", env.configPath}, args...)
	code := run(context.Background(), full, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func (env *testEnv) readJSON(t *testing.T, id string) *record.Record {
	t.Helper()
	res := env.run(t, "", "--output", "json", "read", id)
	require.Equal(t, exitOK, res.code, res.stderr)
	if strings.TrimSpace(res.stdout) == "null" {
		return nil
	}
	var rec record.Record
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &rec))
	return &rec
}

func TestCLI_Scenario(t *testing.T) {
	env := newTestEnv(t)

	res := env.run(t, "", "create", "--as", "alice", "--name", "report.pdf", "--kind", "pdf", "--size", "1024", "--description", "Q1 report")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Equal(t, "0\n", res.stdout)

	rec := env.readJSON(t, "0")
	require.NotNil(t, rec)
	assert.Equal(t, "report.pdf", rec.Name)
	assert.Equal(t, record.KindPdf, rec.Kind)
	assert.Equal(t, uint64(1024), rec.Size)
	assert.Equal(t, record.Identity("alice"), rec.Owner)

	res = env.run(t, "", "update", "--as", "bob", "--id", "0", "--name", "report_v2.pdf", "--kind", "pdf", "--size", "2048", "--description", "revised")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Equal(t, "false\n", res.stdout)
	assert.Equal(t, "report.pdf", env.readJSON(t, "0").Name)

	res = env.run(t, "", "update", "--as", "alice", "--id", "0", "--name", "report_v2.pdf", "--kind", "pdf", "--size", "2048", "--description", "revised")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Equal(t, "true\n", res.stdout)

	rec = env.readJSON(t, "0")
	assert.Equal(t, "report_v2.pdf", rec.Name)
	assert.Equal(t, uint64(2048), rec.Size)
	assert.Equal(t, "revised", rec.Description)

	res = env.run(t, "", "delete", "--as", "bob", "--id", "0")
	assert.Equal(t, "false\n", res.stdout)

	res = env.run(t, "", "delete", "--as", "alice", "--id", "0")
	assert.Equal(t, "true\n", res.stdout)

	assert.Nil(t, env.readJSON(t, "0"))

	res = env.run(t, "", "read", "0")
	assert.Equal(t, exitOK, res.code)
	assert.Equal(t, "not found\n", res.stdout)
}

func TestCLI_ReadText(t *testing.T) {
	env := newTestEnv(t)

	res := env.run(t, "", "create", "--as", "carol", "--name", "notes.txt", "--kind", "TXT", "--size", "12")
	require.Equal(t, exitOK, res.code, res.stderr)

	res = env.run(t, "", "read", "0")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "notes.txt")
	assert.Contains(t, res.stdout, "txt")
	assert.Contains(t, res.stdout, "carol")

	res = env.run(t, "", "--output", "yaml", "read", "0")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "name: notes.txt")
	assert.Contains(t, res.stdout, "kind: txt")
}

func TestCLI_UnknownKindIsStoredAsUnknown(t *testing.T) {
	env := newTestEnv(t)

	res := env.run(t, "", "create", "--as", "alice", "--name", "archive.tar", "--kind", "tar")
	require.Equal(t, exitOK, res.code, res.stderr)

	assert.Equal(t, record.KindUnknown, env.readJSON(t, "0").Kind)
}

func TestCLI_ExhaustionExitsWithTwo(t *testing.T) {
	env := newTestEnv(t)

	store, err := sqlite.Open(context.Background(), sqlite.SQLiteRecordStoreConfig{Path: env.dbPath})
	require.NoError(t, err)
	require.NoError(t, store.Update(context.Background(), func(tx record.Tx) error {
		return tx.SetNextID(math.MaxUint64)
	}))
	require.NoError(t, store.Close())

	res := env.run(t, "", "create", "--as", "alice", "--name", "late.pdf")
	assert.Equal(t, exitExhausted, res.code)
	assert.Contains(t, res.stderr, "exhausted")
	assert.Empty(t, res.stdout)
}

func TestCLI_UsageErrors(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, exitFailure, env.run(t, "").code)
	assert.Equal(t, exitFailure, env.run(t, "", "frobnicate").code)
	assert.Equal(t, exitFailure, env.run(t, "", "read").code)
	assert.Equal(t, exitFailure, env.run(t, "", "read", "abc").code)
	assert.Equal(t, exitFailure, env.run(t, "", "delete", "--as", "alice", "--id", "-1").code)
	assert.Equal(t, exitFailure, env.run(t, "", "create", "--as", "", "--name", "x").code)
	assert.Equal(t, exitFailure, env.run(t, "", "--output", "xml", "read", "0").code)
}

func TestCLI_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"version"}, strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "dittoreg dev\n", stdout.String())
}

func TestCLI_Init(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"init", "--path", path}, strings.NewReader(""), &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.FileExists(t, path)

	code = run(context.Background(), []string{"init", "--path", path}, strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, exitFailure, code)

	code = run(context.Background(), []string{"init", "--path", path, "--force"}, strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, exitOK, code)
}

func TestCLI_ExportImport(t *testing.T) {
	env := newTestEnv(t)

	for _, name := range []string{"a.pdf", "b.png"} {
		res := env.run(t, "", "create", "--as", "alice", "--name", name)
		require.Equal(t, exitOK, res.code, res.stderr)
	}

	for _, format := range []string{"json", "yaml", "xdr"} {
		t.Run(format, func(t *testing.T) {
			res := env.run(t, "", "export", "--format", format)
			require.Equal(t, exitOK, res.code, res.stderr)
			location := strings.TrimSpace(res.stdout)
			assert.True(t, strings.HasPrefix(location, env.snapshotDir))
			assert.FileExists(t, location)

			res = env.run(t, "", "delete", "--as", "alice", "--id", "0")
			require.Equal(t, "true\n", res.stdout)

			res = env.run(t, "", "import", filepath.Base(location))
			require.Equal(t, exitOK, res.code, res.stderr)
			assert.Equal(t, "imported 2 records, next id 2\n", res.stdout)

			assert.Equal(t, "a.pdf", env.readJSON(t, "0").Name)
		})
	}

	res := env.run(t, "", "import", "missing.json")
	assert.Equal(t, exitFailure, res.code)
}

func TestShell(t *testing.T) {
	env := newTestEnv(t)

	script := strings.Join([]string{
		"create report.pdf pdf 1024 Q1 report",
		"as bob",
		"whoami",
		"update 0 hijack.pdf pdf 1 mine now",
		"delete 0",
		"as alice",
		"update 0 report_v2.pdf pdf 2048 revised",
		"read 0",
		"stats",
		"bogus",
		"quit",
		"create never.txt txt 1",
	}, "\n")

	res := env.run(t, script, "shell", "--as", "alice")
	require.Equal(t, exitOK, res.code, res.stderr)

	out := res.stdout
	assert.Contains(t, out, "alice> ")
	assert.Contains(t, out, "created 0")
	assert.Contains(t, out, "bob\n")
	assert.Equal(t, 2, strings.Count(out, "false\n"))
	assert.Contains(t, out, "true\n")
	assert.Contains(t, out, "report_v2.pdf")
	assert.Contains(t, out, "next id: 1")
	assert.Contains(t, out, `error: unknown command "bogus"`)
	assert.NotContains(t, out, "created 1", "commands after quit must not run")

	assert.Equal(t, "revised", env.readJSON(t, "0").Description)
}

func TestParseFields(t *testing.T) {
	fields, err := parseFields([]string{"a.csv", "CSV", "10", "quarterly", "numbers"})
	require.NoError(t, err)
	assert.Equal(t, record.Fields{Name: "a.csv", Kind: record.KindCsv, Size: 10, Description: "quarterly numbers"}, fields)

	_, err = parseFields([]string{"a.csv", "csv"})
	assert.Error(t, err)

	_, err = parseFields([]string{"a.csv", "csv", "-3"})
	assert.Error(t, err)
}
