package registry

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, descriptors ...Descriptor) *Registry {
	t.Helper()
	r := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	for _, d := range descriptors {
		if d.New == nil {
			d.New = func(context.Context, map[string]any) (any, error) { return struct{}{}, nil }
		}
		require.NoError(t, r.Register(d))
	}
	return r
}

func TestValidateAcyclicGraph(t *testing.T) {
	r := newTestRegistry(t,
		Descriptor{Name: "wallet.store"},
		Descriptor{Name: "wallet.events"},
		Descriptor{Name: "wallet.service", Dependencies: []string{"wallet.store", "wallet.events"}},
		Descriptor{Name: "ramp.service", Dependencies: []string{"wallet.service"}},
	)

	report := r.Validate()
	assert.True(t, report.Valid)
	assert.Empty(t, report.Errors)
}

func TestValidateReportsCycle(t *testing.T) {
	r := newTestRegistry(t,
		Descriptor{Name: "a", Dependencies: []string{"b"}},
		Descriptor{Name: "b", Dependencies: []string{"a"}},
	)

	report := r.Validate()
	require.False(t, report.Valid)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "cycle")
	assert.Contains(t, report.Errors[0], "a")
	assert.Contains(t, report.Errors[0], "b")
}

func TestValidateReportsSelfCycle(t *testing.T) {
	r := newTestRegistry(t,
		Descriptor{Name: "narcissist", Dependencies: []string{"narcissist"}},
	)

	report := r.Validate()
	require.False(t, report.Valid)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "cycle")
	assert.Contains(t, report.Errors[0], "narcissist -> narcissist")
}

func TestValidateReportsMissingDependency(t *testing.T) {
	r := newTestRegistry(t,
		Descriptor{Name: "card.service", Dependencies: []string{"kyc.provider"}},
	)

	report := r.Validate()
	require.False(t, report.Valid)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "kyc.provider")
	assert.Contains(t, report.Errors[0], "not registered")
}

// Missing dependencies and cycles are distinct errors, and one validation run
// aggregates all of them instead of stopping at the first.
func TestValidateAggregatesAllErrors(t *testing.T) {
	r := newTestRegistry(t,
		Descriptor{Name: "a", Dependencies: []string{"b"}},
		Descriptor{Name: "b", Dependencies: []string{"a"}},
		Descriptor{Name: "user.service", Dependencies: []string{"user.store"}},
		Descriptor{Name: "tx.service", Dependencies: []string{"ledger"}},
	)

	report := r.Validate()
	require.False(t, report.Valid)
	require.Len(t, report.Errors, 3)

	var cycles, missing int
	for _, msg := range report.Errors {
		if strings.Contains(msg, "cycle") {
			cycles++
		} else {
			missing++
		}
	}
	assert.Equal(t, 1, cycles)
	assert.Equal(t, 2, missing)
}
