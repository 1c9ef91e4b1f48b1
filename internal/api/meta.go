package api

import (
	"context"
	"fmt"

	"github.com/modfetch/modfetch/internal/logger"
)

// LoaderVersion fetches the current loader release for a game version. Each
// loader has its own metadata endpoint with its own JSON shape. This is
// cosmetic metadata for packaging, so every failure degrades to absent.
func (c *Client) LoaderVersion(ctx context.Context, loader Loader, gameVersion string) (string, bool) {
	switch loader {
	case LoaderFabric:
		return c.loaderMetaVersion(ctx, fmt.Sprintf(c.fabricMetaURL, gameVersion))
	case LoaderQuilt:
		return c.loaderMetaVersion(ctx, fmt.Sprintf(c.quiltMetaURL, gameVersion))
	case LoaderForge:
		return c.forgeVersion(ctx, gameVersion)
	case LoaderNeoForge:
		return c.neoForgeVersion(ctx, gameVersion)
	}

	return "", false
}

// loaderMetaVersion handles the fabricmc/quiltmc meta shape:
// [{"loader": {"version": "..."}}, ...], newest first.
func (c *Client) loaderMetaVersion(ctx context.Context, url string) (string, bool) {
	var entries []struct {
		Loader struct {
			Version string `json:"version"`
		} `json:"loader"`
	}

	found, err := c.getJSON(ctx, url, nil, &entries)
	if err != nil || !found || len(entries) == 0 {
		if err != nil {
			logger.Debugf("loader metadata fetch failed: %v", err)
		}
		return "", false
	}

	return entries[0].Loader.Version, entries[0].Loader.Version != ""
}

// forgeVersion reads the forge maven metadata: {"<mc>": ["...-oldest", ..., "...-newest"]}.
func (c *Client) forgeVersion(ctx context.Context, gameVersion string) (string, bool) {
	var byGame map[string][]string

	found, err := c.getJSON(ctx, c.forgeMetaURL, nil, &byGame)
	if err != nil || !found {
		if err != nil {
			logger.Debugf("forge metadata fetch failed: %v", err)
		}
		return "", false
	}

	versions := byGame[gameVersion]
	if len(versions) == 0 {
		return "", false
	}

	return versions[len(versions)-1], true
}

// neoForgeVersion reads the bmclapi neoforge list: [{"version": "..."}, ...].
func (c *Client) neoForgeVersion(ctx context.Context, gameVersion string) (string, bool) {
	var entries []struct {
		Version string `json:"version"`
	}

	found, err := c.getJSON(ctx, fmt.Sprintf(c.neoForgeURL, gameVersion), nil, &entries)
	if err != nil || !found || len(entries) == 0 {
		if err != nil {
			logger.Debugf("neoforge metadata fetch failed: %v", err)
		}
		return "", false
	}

	last := entries[len(entries)-1].Version
	return last, last != ""
}
