package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const capture = `{"version":"0.5.2","architecture":"WaveNet","config":{},"weights":[1,1,1,1,1,1,1,1,1,1,1,1]}`

type run struct {
	code   int
	stdout string
	stderr string
}

func cli(t *testing.T, args ...string) run {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr)
	return run{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// workspace isolates config and .env lookups and returns the input dir.
func workspace(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	testChdir(t, dir)

	in := filepath.Join(dir, "in")
	require.NoError(t, os.Mkdir(in, 0755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(in, name), []byte(content), 0644))
	}
	return in
}

func TestExportSingleFile(t *testing.T) {
	in := workspace(t, map[string]string{"clean.nam": capture})

	r := cli(t, "export", "-i", filepath.Join(in, "clean.nam"), "--gain-db", "3", "-o", "out")
	require.Equal(t, exitOK, r.code, r.stderr)

	out := filepath.Join("out", "clean_+3_0db.nam")
	assert.FileExists(t, out)
	assert.Contains(t, r.stderr, "Processing 1 file(s) × 1 gain(s)…")
	assert.Contains(t, r.stderr, "Wrote: "+out)
}

func TestExportArchivesByDefault(t *testing.T) {
	in := workspace(t, map[string]string{"a.nam": capture, "b.nam": capture, "notes.txt": "skip"})

	r := cli(t, "--input-dir", in, "--gain-linear", "0.5, 2", "-o", "out")
	require.Equal(t, exitOK, r.code, r.stderr)

	entries, err := os.ReadDir("out")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "nam_volume_knob_lin.zip", entries[0].Name())
	assert.Contains(t, r.stderr, "Processing 2 file(s) × 2 gain(s)…")
}

func TestExportNoArchive(t *testing.T) {
	in := workspace(t, map[string]string{"a.nam": capture})

	r := cli(t, "export", "--input-dir", in, "--gain-db", "-6, 6", "--no-archive", "-o", "out")
	require.Equal(t, exitOK, r.code, r.stderr)

	assert.FileExists(t, filepath.Join("out", "a_-6_0db.nam"))
	assert.FileExists(t, filepath.Join("out", "a_+6_0db.nam"))
	assert.Contains(t, r.stderr, "Wrote 2 file(s).")
}

func TestExportGateErrors(t *testing.T) {
	in := workspace(t, map[string]string{"a.nam": capture})
	input := filepath.Join(in, "a.nam")

	tests := []struct {
		name    string
		args    []string
		message string
	}{
		{"parse", []string{"-i", input, "--gain-db", "3, abc"}, "Gain list contains non-numeric value(s)."},
		{"ceiling", []string{"-i", input, "--gain-db", "9.5"}, "Max gain is +9 dB."},
		{"missing gains", []string{"-i", input}, "Enter one or more gains (comma-separated)."},
		{"no files", []string{"--gain-db", "3"}, "Drop one or more .nam files first."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := cli(t, append([]string{"export", "-o", "out"}, tt.args...)...)
			assert.Equal(t, exitUsage, r.code)
			assert.Contains(t, r.stderr, tt.message)
			assert.NoDirExists(t, "out")
		})
	}
}

func TestExportMutuallyExclusiveGains(t *testing.T) {
	in := workspace(t, map[string]string{"a.nam": capture})

	r := cli(t, "export", "-i", filepath.Join(in, "a.nam"), "--gain-db", "3", "--gain-linear", "2")
	assert.Equal(t, exitUsage, r.code)
	assert.Contains(t, r.stderr, "--gain-db and --gain-linear cannot be used together")

	r = cli(t, "preview", "-i", filepath.Join(in, "a.nam"), "--gain-db", "3", "--gain-linear", "2")
	assert.Equal(t, exitUsage, r.code)

	r = cli(t, "watch", in, "--gain-db", "3", "--gain-linear", "2", "-o", "out")
	assert.Equal(t, exitUsage, r.code)
}

func TestExportOutputExcludesOutputDir(t *testing.T) {
	in := workspace(t, map[string]string{"a.nam": capture})

	r := cli(t, "-i", filepath.Join(in, "a.nam"), "--gain-db", "1", "--output", "louder.nam", "-o", "out")
	assert.Equal(t, exitUsage, r.code)
	assert.Contains(t, r.stderr, "--output and --output-dir cannot be used together")
	assert.NoFileExists(t, "louder.nam")
	assert.NoDirExists(t, "out")
}

func TestExportPartialFailure(t *testing.T) {
	in := workspace(t, map[string]string{"good.nam": capture, "bad.nam": "{broken"})

	r := cli(t, "--input-dir", in, "--gain-db", "1", "-o", "out")
	assert.Equal(t, exitPartial, r.code)
	assert.Contains(t, r.stderr, "Error processing bad.nam: ")
	assert.FileExists(t, filepath.Join("out", "good_+1_0db.nam"))
}

func TestExportSingleOutputPath(t *testing.T) {
	in := workspace(t, map[string]string{"a.nam": capture})

	r := cli(t, "-i", filepath.Join(in, "a.nam"), "--gain-db", "1", "--output", "louder.nam")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.FileExists(t, "louder.nam")

	r = cli(t, "-i", filepath.Join(in, "a.nam"), "--gain-db", "1, 2", "--no-archive", "--output", "second.nam")
	assert.Equal(t, exitUsage, r.code)
	assert.Contains(t, r.stderr, "--output can only be used when producing exactly one output")
	assert.NoFileExists(t, "second.nam")

	r = cli(t, "-i", filepath.Join(in, "a.nam"), "--gain-db", "1, 2", "--output", "bundle.zip")
	assert.Equal(t, exitUsage, r.code)
	assert.NoFileExists(t, "bundle.zip")
}

func TestPreview(t *testing.T) {
	in := workspace(t, map[string]string{"b.nam": capture, "a.nam": capture})

	r := cli(t, "preview", "--input-dir", in, "--gain-db", "0, -1.25")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Equal(t, "a_+0_0db.nam\na_-1_25db.nam\nb_+0_0db.nam\nb_-1_25db.nam\n→ nam_volume_knob_db.zip\n", r.stdout)
	assert.NoDirExists(t, "out")
}

func TestHistoryAfterExport(t *testing.T) {
	in := workspace(t, map[string]string{"a.nam": capture})
	t.Setenv("NAMKNOB_HISTORY", "true")

	r := cli(t, "-i", filepath.Join(in, "a.nam"), "--gain-db", "1, 2", "-o", "out")
	require.Equal(t, exitOK, r.code, r.stderr)

	r = cli(t, "history")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "1 file(s) × 2 gain(s) → 2 export(s) [1, 2 db]")

	r = cli(t, "history", "--events", "-n", "0")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "delivery")
	assert.Contains(t, r.stdout, "export")
}

func TestConfigInit(t *testing.T) {
	workspace(t, nil)
	t.Setenv("NAMKNOB_ARCHIVE_LABEL", "rig")

	r := cli(t, "config", "init", "conf/namknob.yaml")
	require.Equal(t, exitOK, r.code, r.stderr)

	data, err := os.ReadFile(filepath.Join("conf", "namknob.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "archive_label: rig")
}

// testChdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func testChdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
