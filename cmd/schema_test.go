package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyblish/pyblish-minbender/pkg/exitcode"
)

func TestSchemaList(t *testing.T) {
	out, err := execRoot(t, []string{"schema", "list"})
	require.NoError(t, err)
	assert.Contains(t, out, "version-1.0")
	assert.Contains(t, out, "pyblish-mindbender:representation-1.0")
	assert.Contains(t, out, "Draft-07")

	out, err = execRoot(t, []string{"schema", "list", "--format", "json"})
	require.NoError(t, err)
	var infos []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	assert.Len(t, infos, 7)
}

func TestSchemaShow(t *testing.T) {
	out, err := execRoot(t, []string{"schema", "show", "version"})
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc["required"], "representations")

	_, err = execRoot(t, []string{"schema", "show", "nope"})
	require.Error(t, err)
	assert.Equal(t, exitcode.NotFound, exitcode.Code(err))
}
