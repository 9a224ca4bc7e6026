package cmd

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyblish/pyblish-minbender/pkg/exitcode"
	"github.com/pyblish/pyblish-minbender/pkg/library"
	"github.com/pyblish/pyblish-minbender/pkg/pipeline"
	"github.com/pyblish/pyblish-minbender/pkg/record"
)

func TestLs_Text(t *testing.T) {
	isolateConfig(t)
	root := projectFixture(t)

	out, err := execRoot(t, []string{"ls", "--root", root})
	require.NoError(t, err, out)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ASSET"))
	assert.Regexp(t, `^hero\s+modelDefault\s+2\s+v002\s+marcus\s+2024-01-01 12:00$`, lines[1])
	assert.Regexp(t, `^hero\s+rigDefault\s+1\s+v001`, lines[2])
}

func TestLs_JSONUsesProjectDir(t *testing.T) {
	isolateConfig(t)
	root := projectFixture(t)
	t.Setenv("PROJECTDIR", root)

	out, err := execRoot(t, []string{"ls", "--format", "json", "--asset", "her*"})
	require.NoError(t, err, out)

	var listing library.Listing
	require.NoError(t, json.Unmarshal([]byte(out), &listing))
	require.Len(t, listing.Assets, 1)
	assert.Equal(t, "hero", listing.Assets[0].Name)
	assert.Len(t, listing.Assets[0].Subsets, 2)
}

func TestLs_Errors(t *testing.T) {
	isolateConfig(t)

	_, err := execRoot(t, []string{"ls"})
	require.Error(t, err)
	assert.Equal(t, exitcode.FileSystemError, exitcode.Code(err))

	_, err = execRoot(t, []string{"ls", "--root", projectFixture(t), "--silo", "film"})
	require.Error(t, err)
	assert.Equal(t, exitcode.NotFound, exitcode.Code(err))
}

func TestLs_ReportsProblemsOnStderr(t *testing.T) {
	isolateConfig(t)
	root := projectFixture(t)
	writeFile(t, filepath.Join(root, "assets/hero/publish/modelDefault/v003/.metadata.json"), `{"schema":"pyblish-mindbender:version-1.0"}`)

	out, stderr, err := execRootSplit(t, []string{"ls", "--root", root})
	require.NoError(t, err)
	assert.Contains(t, out, "v002")
	assert.Contains(t, stderr, "1 problem(s)")
}

func TestLoad_Text(t *testing.T) {
	isolateConfig(t)
	root := projectFixture(t)

	out, err := execRoot(t, []string{"load", "hero", "modelDefault", "--root", root})
	require.NoError(t, err, out)
	want := filepath.ToSlash(filepath.Join(root, "assets/hero/publish/modelDefault/v002")) + "/hero.ma"
	assert.Contains(t, out, "file:      "+want)
	assert.Contains(t, out, "version:   v002 (.ma)")
	assert.Contains(t, out, "loader:    generic")
	assert.Contains(t, out, `"id": "pyblish.mindbender.container"`)
}

func TestLoad_WarnsWhenFileOutsideRoot(t *testing.T) {
	isolateConfig(t)
	root := projectFixture(t)
	dir := filepath.Join(root, "assets", "hero", "publish", "lookDefault", "v001")
	writeFile(t, filepath.Join(dir, ".metadata.json"), versionRecord(t, "/mnt/archive/hero/lookDefault/v001", 1, "mindbender.model"))

	out, stderr, err := execRootSplit(t, []string{"load", "hero", "lookDefault", "--root", root, "--log-level", "warn"})
	require.NoError(t, err, out)
	assert.Contains(t, out, "file:      /mnt/archive/hero/lookDefault/v001/hero.ma")
	assert.Contains(t, stderr, "Representation resolves outside the project root")

	_, stderr, err = execRootSplit(t, []string{"load", "hero", "modelDefault", "--root", root, "--log-level", "warn"})
	require.NoError(t, err)
	assert.NotContains(t, stderr, "outside the project root")
}

func TestLoad_JSONRigCreatesInstance(t *testing.T) {
	isolateConfig(t)
	root := projectFixture(t)

	out, err := execRoot(t, []string{"load", "hero", "rigDefault", "--root", root, "--representation", "abc", "--format", "json"})
	require.NoError(t, err, out)

	var loaded pipeline.Loaded
	require.NoError(t, json.Unmarshal([]byte(out), &loaded))
	assert.Equal(t, pipeline.LoaderRig, loaded.Loader)
	assert.Equal(t, ".abc", loaded.Representation.Format)
	assert.Equal(t, "hero01", loaded.Container.Name)
	assert.Equal(t, "first pass", loaded.Container.Comment)
	assert.Equal(t, "test-user", loaded.User)
	require.Len(t, loaded.Instances, 1)
	assert.Equal(t, pipeline.FamilyAnimation, loaded.Instances[0].Family)
}

func TestLoad_Errors(t *testing.T) {
	isolateConfig(t)
	root := projectFixture(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown asset", []string{"load", "villain", "modelDefault"}},
		{"unknown subset", []string{"load", "hero", "lookDefault"}},
		{"version out of range", []string{"load", "hero", "modelDefault", "--version", "5"}},
		{"no representation", []string{"load", "hero", "modelDefault", "--representation", ".fbx"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execRoot(t, append(tt.args, "--root", root))
			require.Error(t, err)
			assert.Equal(t, exitcode.NotFound, exitcode.Code(err))
		})
	}
}

func TestCreate(t *testing.T) {
	isolateConfig(t)

	out, err := execRoot(t, []string{"create", "hero", "--family", "mindbender.animation"})
	require.NoError(t, err, out)

	var inst record.Instance
	require.NoError(t, json.Unmarshal([]byte(out), &inst))
	assert.Equal(t, record.InstanceID, inst.ID)
	assert.Equal(t, "hero", inst.Subset)
	assert.Equal(t, float64(1001), inst.Data["startFrame"])

	_, err = execRoot(t, []string{"create", "hero", "--family", "mindbender.look"})
	require.Error(t, err)
	assert.Equal(t, exitcode.NotFound, exitcode.Code(err))

	_, err = execRoot(t, []string{"create", "hero", "--family", "mindbender.model", "--existing", "hero_SET"})
	require.Error(t, err)
	assert.Equal(t, exitcode.UsageError, exitcode.Code(err))

	_, err = execRoot(t, []string{"create", "hero"})
	assert.Error(t, err)
}

func TestCreate_ConfiguredFamily(t *testing.T) {
	isolateConfig(t)
	cfg := filepath.Join(t.TempDir(), "mindbender.yaml")
	writeFile(t, cfg, `
families:
  - name: mindbender.lookdev
    loader: lookdev
    data:
      - key: subset
        value: "look{name}"
      - key: shaderSet
        value: "{name}Shaders"
      - key: startFrame
        value: 1001
`)

	out, err := execRoot(t, []string{"--config", cfg, "create", "hero", "--family", "mindbender.lookdev"})
	require.NoError(t, err, out)
	var inst record.Instance
	require.NoError(t, json.Unmarshal([]byte(out), &inst))
	assert.Equal(t, "lookhero", inst.Subset)
	assert.Equal(t, "mindbender.lookdev", inst.Family)
	assert.Equal(t, "heroShaders", inst.Data["shaderSet"])
	assert.Equal(t, float64(1001), inst.Data["startFrame"])
	assert.NotContains(t, inst.Data, "shaderset")
	assert.NotContains(t, inst.Data, "startframe")
}

func TestInfo(t *testing.T) {
	isolateConfig(t)
	t.Setenv("PROJECTDIR", "/projects/hulk")

	out, err := execRoot(t, []string{"info", "--format", "json"})
	require.NoError(t, err, out)
	var report map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "/projects/hulk", report["root"])
	assert.Equal(t, "test-user", report["author"])
	assert.Len(t, report["families"], 3)

	out, err = execRoot(t, []string{"info"})
	require.NoError(t, err)
	assert.Contains(t, out, "Config:   (defaults)")
	assert.Contains(t, out, "mindbender.rig")
}

func TestVersion(t *testing.T) {
	out, err := execRoot(t, []string{"version"})
	require.NoError(t, err)
	assert.Equal(t, "mindbender dev\n", out)

	out, err = execRoot(t, []string{"version", "--extended"})
	require.NoError(t, err)
	assert.Contains(t, out, "Go:")
	assert.Contains(t, out, "Platform:")

	out, err = execRoot(t, []string{"version", "--json"})
	require.NoError(t, err)
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "dev", v["version"])
	assert.NotEmpty(t, v["go_version"])
	assert.NotEmpty(t, v["platform"])
}
