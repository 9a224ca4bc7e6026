package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyblish/pyblish-minbender/pkg/exitcode"
	"github.com/pyblish/pyblish-minbender/pkg/record"
)

// execRoot runs a fresh command tree and returns stdout; logs and messages go to stderr.
func execRoot(t *testing.T, args []string) (string, error) {
	t.Helper()
	out, _, err := execRootSplit(t, args)
	return out, err
}

func execRootSplit(t *testing.T, args []string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	registerSubcommands(cmd)

	var outBuf, errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(append([]string{"--log-level", "error", "--no-color"}, args...))
	err := cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

// isolateConfig keeps the developer's own configuration and project out of tests.
func isolateConfig(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MINDBENDER_HOME", filepath.Join(home, ".mindbender"))
	t.Setenv("MINDBENDER_ROOT", "")
	t.Setenv("PROJECTDIR", "")
	t.Setenv("MINDBENDER_AUTHOR", "test-user")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func versionRecord(t *testing.T, dir string, n int, families ...string) string {
	t.Helper()
	v := record.Version{
		Schema:   record.SchemaVersion,
		Version:  n,
		Path:     dir,
		Time:     "20240101T120000Z",
		Author:   "marcus",
		Source:   "/projects/hulk/work/hero.ma",
		Families: families,
		Comment:  "first pass",
		Representations: []record.Representation{
			{Schema: record.SchemaRepresentation, Format: ".ma", Path: "{dirname}/hero{format}"},
			{Schema: record.SchemaRepresentation, Format: ".abc", Path: "{dirname}/hero{format}"},
		},
	}
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

// projectFixture publishes hero/modelDefault v001-v002 and hero/rigDefault v001 under <root>/assets.
func projectFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, p := range []struct {
		subset string
		n      int
		family string
	}{
		{"modelDefault", 1, "mindbender.model"},
		{"modelDefault", 2, "mindbender.model"},
		{"rigDefault", 1, "mindbender.rig"},
	} {
		dir := filepath.Join(root, "assets", "hero", "publish", p.subset, fmt.Sprintf("v%03d", p.n))
		writeFile(t, filepath.Join(dir, ".metadata.json"), versionRecord(t, filepath.ToSlash(dir), p.n, p.family))
	}
	return root
}

func TestInitializeLogger(t *testing.T) {
	for _, level := range []string{"info", "debug", "invalid"} {
		cmd := &cobra.Command{}
		cmd.Flags().String("log-level", level, "")
		cmd.Flags().Bool("json", false, "")
		cmd.Flags().Bool("no-color", true, "")
		// This should not panic
		initializeLogger(cmd)
	}
}

func TestRootCmd_Help(t *testing.T) {
	out, err := execRoot(t, []string{"--help"})
	require.NoError(t, err)
	assert.Contains(t, out, "Record Commands:")
	assert.Contains(t, out, "Library Commands:")
	assert.Contains(t, out, "Support Commands:")
	for _, name := range []string{"validate", "schema", "ls", "load", "create", "info", "version"} {
		assert.Contains(t, out, "  "+name)
	}
}

func TestRootCmd_SubcommandHelp(t *testing.T) {
	out, err := execRoot(t, []string{"validate", "--help"})
	require.NoError(t, err)
	assert.Contains(t, out, "--schema")
	assert.NotContains(t, out, "Library Commands:")
}

func TestRootCmd_VersionFlag(t *testing.T) {
	out, err := execRoot(t, []string{"--version"})
	require.NoError(t, err)
	assert.Equal(t, "mindbender dev\n", out)
}

func TestRootCmd_InvalidFlag(t *testing.T) {
	_, err := execRoot(t, []string{"--invalid-flag"})
	require.Error(t, err)
	assert.Equal(t, exitcode.UsageError, exitcode.Code(err))
}

func TestUnsupportedFormat(t *testing.T) {
	isolateConfig(t)
	_, err := execRoot(t, []string{"info", "--format", "xml"})
	require.Error(t, err)
	assert.Equal(t, exitcode.UsageError, exitcode.Code(err))
}

func TestInvalidConfigFile(t *testing.T) {
	isolateConfig(t)
	path := filepath.Join(t.TempDir(), "mindbender.yaml")
	writeFile(t, path, "silo: \"\"\n")

	_, err := execRoot(t, []string{"--config", path, "info"})
	require.Error(t, err)
	assert.Equal(t, exitcode.ConfigError, exitcode.Code(err))
	assert.True(t, strings.Contains(err.Error(), "silo"), err.Error())
}
