package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAuthorListRanksByAppearanceOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "authors.ini")
	content := "[authors]\nscanloc = 1\nanalyst = 1\nimported = 1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	al, err := LoadAuthorList(path)
	require.NoError(t, err)

	scanlocRank, ok := al.Priority("scanloc")
	require.True(t, ok)
	analystRank, ok := al.Priority("analyst")
	require.True(t, ok)
	assert.Less(t, scanlocRank, analystRank)

	_, ok = al.Priority("unknown")
	assert.False(t, ok)
}

func TestAuthorListPickPriorityRanksMostTrustedHighest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "authors.ini")
	content := "[authors]\nscanloc = 1\nanalyst = 1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	al, err := LoadAuthorList(path)
	require.NoError(t, err)

	assert.Greater(t, al.PickPriority("scanloc"), al.PickPriority("analyst"))
	assert.Equal(t, 0, al.PickPriority("unknown"), "an unlisted author must get priority 0")
	assert.Greater(t, al.PickPriority("scanloc"), 0)
}

func TestLoadAuthorListRequiresAuthorsSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "authors.ini")
	require.NoError(t, os.WriteFile(path, []byte("[other]\nfoo = 1\n"), 0o644))

	_, err := LoadAuthorList(path)
	assert.Error(t, err)
}
