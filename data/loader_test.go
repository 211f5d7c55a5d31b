package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileEmbedding(t *testing.T) {
	files, err := dataFilesRoot.ReadDir(dataBasePath + "/" + payloadsDir)
	require.NoError(t, err)
	assert.NotEqual(t, 0, len(files))
}

func TestPayloadNames(t *testing.T) {
	names, err := PayloadNames()
	require.NoError(t, err)
	assert.Subset(t, names, []string{
		"create-employee", "delete-employee", "fixture-employee",
		"invalid-email", "missing-email", "update-employee",
	})
}

func TestLoadDataFileExpandsParameters(t *testing.T) {
	sources, err := LoadDataFile("payloads/invalid-email.yaml")
	require.NoError(t, err)
	require.Len(t, sources, 3)
	for _, s := range sources {
		assert.Equal(t, "invalid-email.yaml", s.BaseName)
		assert.Equal(t, "payloads/invalid-email.yaml", s.FilePath)
		assert.Contains(t, s.Params, "email")
	}
}

func TestLoadDataFileNotFound(t *testing.T) {
	_, err := LoadDataFile("payloads/no-such-file.yaml")
	assert.Error(t, err)
}

func TestLoadAllDataFiles(t *testing.T) {
	sources, err := LoadAllDataFiles(payloadsDir)
	require.NoError(t, err)
	names, err := PayloadNames()
	require.NoError(t, err)
	// the one parameterized file contributes three entries
	assert.Len(t, sources, len(names)+2)
}
