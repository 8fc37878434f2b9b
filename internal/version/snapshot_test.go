package version

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/buildstamp/internal/model"
)

// --- ParseBuildID tests ---

func TestParseBuildID_Valid(t *testing.T) {
	ctx, err := ParseBuildID("feature-x", "20240115.7")
	require.NoError(t, err)

	assert.Equal(t, "feature-x", ctx.Branch)
	assert.Equal(t, "20240115", ctx.BuildDate)
	assert.Equal(t, "007", ctx.Sequence, "sequence should be zero-padded to 3 digits")
}

func TestParseBuildID_Malformed(t *testing.T) {
	cases := []struct {
		name    string
		buildID string
	}{
		{"no dot", "20240115"},
		{"three tokens", "2024.01.15"},
		{"empty sequence", "20240115."},
		{"empty date", ".7"},
		{"empty string", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseBuildID("feature-x", tc.buildID)
			require.Error(t, err, "build id %q should be rejected", tc.buildID)

			// The failure must carry the parse exit code so the CLI layer
			// maps it correctly.
			var cliErr *model.CLIError
			require.True(t, errors.As(err, &cliErr))
			assert.Equal(t, model.ExitParse, cliErr.Code)
		})
	}
}

// --- PadSequence tests ---

// TestPadSequence covers the minimum-width contract: pad up to 3 digits,
// never truncate, and leave wider sequences alone.
func TestPadSequence(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"7", "007"},
		{"12", "012"},
		{"123", "123"},
		{"1234", "1234"}, // padding is a no-op above the minimum width
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, PadSequence(tc.in), "PadSequence(%q)", tc.in)
	}
}

// --- Snapshot tests ---

func TestSnapshot_AppendsDevSuffix(t *testing.T) {
	ctx, err := ParseBuildID("feature-x", "20240115.7")
	require.NoError(t, err)

	assert.Equal(t, "1.2.0-dev20240115007", Snapshot("1.2.0", ctx))
}

func TestSnapshot_LongSequence(t *testing.T) {
	ctx, err := ParseBuildID("feature-x", "20240115.123")
	require.NoError(t, err)

	assert.Equal(t, "1.2.0-dev20240115123", Snapshot("1.2.0", ctx),
		"a 3-digit sequence should pass through without padding")
}

// --- IsReleaseBranch tests ---

func TestIsReleaseBranch(t *testing.T) {
	cases := []struct {
		name          string
		branch        string
		releaseBranch string
		want          bool
	}{
		{"short name matches", "main", "main", true},
		{"fully-qualified ref matches short release branch", "refs/heads/main", "main", true},
		{"short name matches fully-qualified release branch", "main", "refs/heads/main", true},
		{"feature branch does not match", "feature-x", "main", false},
		{"tag ref does not match a branch of the same name", "refs/tags/main", "main", false},
		{"custom release branch", "release", "release", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsReleaseBranch(tc.branch, tc.releaseBranch))
		})
	}
}
