package resolver

import (
	"context"
	"slices"

	"github.com/modfetch/modfetch/internal/api"
)

// Matcher decides whether a configured entry applies to the current target
// version and feature set.
type Matcher struct {
	client *api.Client
}

func NewMatcher(client *api.Client) *Matcher {
	return &Matcher{client: client}
}

// Conditional is the subset of a manifest entry the matcher inspects. Both
// Entry and ExtraURL satisfy it through their condition fields.
type Conditional interface {
	VersionConditions() []string
	FeatureConditions() []string
}

// ShouldInclude applies the entry's conditions. only_version excludes the
// entry when the target version is not listed. The feature rule is
// exclusionary, not a requirement: an entry listing features is dropped once
// ALL of them are enabled, on the premise that the active features supersede
// it. An entry with no conditions always includes.
func (m *Matcher) ShouldInclude(entry Conditional, gameVersion string, enabledFeatures []string) bool {
	if only := entry.VersionConditions(); len(only) > 0 {
		if !slices.Contains(only, gameVersion) {
			return false
		}
	}

	if features := entry.FeatureConditions(); len(features) > 0 {
		allEnabled := true
		for _, feature := range features {
			if !slices.Contains(enabledFeatures, feature) {
				allEnabled = false
				break
			}
		}
		if allEnabled {
			return false
		}
	}

	return true
}

// LoaderVersion delegates to the API client's per-loader metadata endpoint.
func (m *Matcher) LoaderVersion(ctx context.Context, loader api.Loader, gameVersion string) (string, bool) {
	if m.client == nil {
		return "", false
	}

	return m.client.LoaderVersion(ctx, loader, gameVersion)
}
