package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modfetch/modfetch/internal/errs"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	t.Cleanup(c.Close)

	return c
}

func TestClient_GetProject(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/project/sodium", r.URL.Path)
		fmt.Fprint(w, `{"id": "AANobbMI", "slug": "sodium", "title": "Sodium", "project_type": "mod"}`)
	}))

	project, err := c.GetProject(context.Background(), "sodium")
	require.NoError(t, err)
	require.NotNil(t, project)

	assert.Equal(t, "AANobbMI", project.ID)
	assert.Equal(t, "sodium", project.Name())
}

func TestClient_GetProject_NotFoundIsAbsentNotError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	project, err := c.GetProject(context.Background(), "no-such-mod")
	require.NoError(t, err)
	assert.Nil(t, project)
}

func TestClient_GetProject_ServerErrorIsAPIError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.GetProject(context.Background(), "sodium")
	require.Error(t, err)

	var apiErr *errs.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

const versionListBody = `[
	{
		"id": "v-new", "version_number": "2.0.0",
		"files": [
			{"url": "https://cdn.example/extra.jar", "filename": "extra.jar", "primary": false},
			{"url": "https://cdn.example/new.jar", "filename": "new.jar", "primary": true,
			 "hashes": {"sha1": "abc123"}}
		]
	},
	{
		"id": "v-old", "version_number": "1.0.0",
		"files": [
			{"url": "https://cdn.example/old.jar", "filename": "old.jar", "primary": false}
		]
	}
]`

func TestClient_GetVersion(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/project/sodium/version", r.URL.Path)
		require.Equal(t, `["1.21"]`, r.URL.Query().Get("game_versions"))
		require.Equal(t, `["fabric"]`, r.URL.Query().Get("loaders"))
		fmt.Fprint(w, versionListBody)
	}))

	version, file, err := c.GetVersion(context.Background(), "sodium", "1.21", LoaderFabric, "")
	require.NoError(t, err)
	require.NotNil(t, version)

	// The API returns newest first; the first result wins.
	assert.Equal(t, "v-new", version.ID)

	// The primary-flagged file is selected over the first listed one.
	assert.Equal(t, "new.jar", file.Filename)
	assert.Equal(t, "abc123", file.SHA1())
}

func TestClient_GetVersion_Pinned(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, versionListBody)
	}))

	t.Run("by_version_number", func(t *testing.T) {
		version, file, err := c.GetVersion(context.Background(), "sodium", "1.21", LoaderFabric, "1.0.0")
		require.NoError(t, err)
		require.NotNil(t, version)

		assert.Equal(t, "v-old", version.ID)
		assert.Equal(t, "old.jar", file.Filename)
	})

	t.Run("by_version_id", func(t *testing.T) {
		version, _, err := c.GetVersion(context.Background(), "sodium", "1.21", LoaderFabric, "v-new")
		require.NoError(t, err)
		require.NotNil(t, version)
		assert.Equal(t, "v-new", version.ID)
	})

	t.Run("no_match_is_absent", func(t *testing.T) {
		version, file, err := c.GetVersion(context.Background(), "sodium", "1.21", LoaderFabric, "9.9.9")
		require.NoError(t, err)
		assert.Nil(t, version)
		assert.Nil(t, file)
	})
}

func TestClient_GetVersion_NoLoaderFilterForPacks(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.False(t, r.URL.Query().Has("loaders"))
		fmt.Fprint(w, versionListBody)
	}))

	_, _, err := c.GetVersion(context.Background(), "some-resourcepack", "1.21", "", "")
	require.NoError(t, err)
}

func TestClient_GetVersion_EmptyListIsAbsent(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[]`)
	}))

	version, file, err := c.GetVersion(context.Background(), "sodium", "1.21", LoaderFabric, "")
	require.NoError(t, err)
	assert.Nil(t, version)
	assert.Nil(t, file)
}

func TestClient_LoaderVersion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fabric/1.21", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"loader": {"version": "0.16.5"}}, {"loader": {"version": "0.16.4"}}]`)
	})
	mux.HandleFunc("/forge.json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"1.20.1": ["1.20.1-47.0.1", "1.20.1-47.3.0"], "1.19": ["1.19-41.0.1"]}`)
	})
	mux.HandleFunc("/neoforge/1.21", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"version": "21.0.1"}, {"version": "21.0.8"}]`)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	c := NewClient(WithHTTPClient(server.Client()))
	defer c.Close()
	c.fabricMetaURL = server.URL + "/fabric/%s"
	c.quiltMetaURL = server.URL + "/quilt/%s"
	c.forgeMetaURL = server.URL + "/forge.json"
	c.neoForgeURL = server.URL + "/neoforge/%s"

	t.Run("fabric_takes_newest_first", func(t *testing.T) {
		version, ok := c.LoaderVersion(context.Background(), LoaderFabric, "1.21")
		require.True(t, ok)
		assert.Equal(t, "0.16.5", version)
	})

	t.Run("forge_takes_last_for_game_version", func(t *testing.T) {
		version, ok := c.LoaderVersion(context.Background(), LoaderForge, "1.20.1")
		require.True(t, ok)
		assert.Equal(t, "1.20.1-47.3.0", version)
	})

	t.Run("forge_unknown_game_version", func(t *testing.T) {
		_, ok := c.LoaderVersion(context.Background(), LoaderForge, "1.8.9")
		assert.False(t, ok)
	})

	t.Run("neoforge_takes_last", func(t *testing.T) {
		version, ok := c.LoaderVersion(context.Background(), LoaderNeoForge, "1.21")
		require.True(t, ok)
		assert.Equal(t, "21.0.8", version)
	})

	t.Run("quilt_endpoint_missing_degrades_to_absent", func(t *testing.T) {
		_, ok := c.LoaderVersion(context.Background(), LoaderQuilt, "1.21")
		assert.False(t, ok)
	})
}

func TestParseLoader(t *testing.T) {
	for _, name := range []string{"forge", "fabric", "quilt", "neoforge"} {
		loader, err := ParseLoader(name)
		require.NoError(t, err)
		assert.Equal(t, Loader(name), loader)
	}

	_, err := ParseLoader("rift")
	assert.Error(t, err)
}

func TestVersionInfo_PrimaryFile(t *testing.T) {
	t.Run("no_files", func(t *testing.T) {
		v := &VersionInfo{}
		_, ok := v.PrimaryFile()
		assert.False(t, ok)
	})

	t.Run("no_primary_flag_falls_back_to_first", func(t *testing.T) {
		v := &VersionInfo{Files: []FileInfo{{Filename: "first.jar"}, {Filename: "second.jar"}}}
		file, ok := v.PrimaryFile()
		require.True(t, ok)
		assert.Equal(t, "first.jar", file.Filename)
	})
}
