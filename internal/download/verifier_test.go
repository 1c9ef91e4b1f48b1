package download

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sha1 of "hello world"
const helloSHA1 = "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed"

func writeFixture(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.jar")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestHashFile(t *testing.T) {
	path := writeFixture(t, "hello world")

	digest, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, helloSHA1, digest)
}

func TestHashFile_MissingIsAbsentNotError(t *testing.T) {
	digest, err := HashFile(filepath.Join(t.TempDir(), "nope.jar"))

	require.NoError(t, err)
	assert.Empty(t, digest)
}

func TestVerifySHA1(t *testing.T) {
	path := writeFixture(t, "hello world")
	missing := filepath.Join(t.TempDir(), "nope.jar")
	dir := t.TempDir()

	tests := []struct {
		name     string
		path     string
		expected string
		want     bool
	}{
		{"no_expected_existing_file", path, "", true},
		{"no_expected_missing_file", missing, "", false},
		{"no_expected_directory", dir, "", false},
		{"matching_digest", path, helloSHA1, true},
		{"mismatching_digest", path, "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef", false},
		{"expected_but_missing_file", missing, helloSHA1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifySHA1(tt.path, tt.expected))
		})
	}
}

func TestIsValid(t *testing.T) {
	path := writeFixture(t, "hello world")

	assert.True(t, IsValid(path, ""))
	assert.True(t, IsValid(path, helloSHA1))
	assert.False(t, IsValid(path, "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef"))
	assert.False(t, IsValid(filepath.Join(t.TempDir(), "nope.jar"), ""))
}

func TestIsValid_DirectoryDoesNotSatisfy(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a.jar")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	assert.False(t, IsValid(dir, ""))
	assert.False(t, IsValid(dir, helloSHA1))
}
