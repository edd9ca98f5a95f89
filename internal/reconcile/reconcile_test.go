package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		expected []string
		assigned []string
		want     Plan
	}{
		{
			name:     "equal sets",
			expected: []string{"a", "b"},
			assigned: []string{"b", "a"},
			want:     Plan{},
		},
		{
			name:     "stale assignment",
			expected: []string{"x"},
			assigned: []string{"x", "y"},
			want:     Plan{Changed: true, Remove: []string{"x", "y"}, Add: []string{"x"}},
		},
		{
			name:     "missing assignment",
			expected: []string{"x", "y"},
			assigned: []string{"x"},
			want:     Plan{Changed: true, Remove: []string{"x"}, Add: []string{"x", "y"}},
		},
		{
			name:     "same size different members",
			expected: []string{"a"},
			assigned: []string{"b"},
			want:     Plan{Changed: true, Remove: []string{"b"}, Add: []string{"a"}},
		},
		{
			name:     "empty expected removes all",
			expected: nil,
			assigned: []string{"a", "b"},
			want:     Plan{Changed: true, Remove: []string{"a", "b"}, Add: []string{}},
		},
		{
			name:     "nothing assigned yet",
			expected: []string{"a"},
			assigned: nil,
			want:     Plan{Changed: true, Remove: []string{}, Add: []string{"a"}},
		},
		{
			name:     "both empty",
			expected: nil,
			assigned: nil,
			want:     Plan{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Diff(tt.expected, tt.assigned))
		})
	}
}

func TestReconcileRemovesStale(t *testing.T) {
	linked := map[string]bool{"X": true, "Y": true}
	lookup := func(ctx context.Context) ([]string, error) {
		var ids []string
		for id := range linked {
			ids = append(ids, id)
		}
		return ids, nil
	}
	remover := RemoverFunc(func(ctx context.Context, ids []string) error {
		for _, id := range ids {
			delete(linked, id)
		}
		return nil
	})

	plan, err := Reconcile(context.Background(), []string{"X"}, lookup, remover)
	require.NoError(t, err)
	assert.True(t, plan.Changed)

	// the caller re-adds the expected set
	for _, id := range plan.Add {
		linked[id] = true
	}
	assert.Equal(t, map[string]bool{"X": true}, linked)
}

func TestReconcileSkipsRemoveWhenUnchanged(t *testing.T) {
	called := false
	remover := RemoverFunc(func(ctx context.Context, ids []string) error {
		called = true
		return nil
	})
	lookup := func(ctx context.Context) ([]string, error) { return []string{"a"}, nil }

	plan, err := Reconcile(context.Background(), []string{"a"}, lookup, remover)
	require.NoError(t, err)
	assert.False(t, plan.Changed)
	assert.False(t, called)
}

func TestReconcilePropagatesErrors(t *testing.T) {
	boom := errors.New("boom")

	_, err := Reconcile(context.Background(), nil,
		func(ctx context.Context) ([]string, error) { return nil, boom },
		RemoverFunc(func(ctx context.Context, ids []string) error { return nil }))
	assert.ErrorIs(t, err, boom)

	_, err = Reconcile(context.Background(), nil,
		func(ctx context.Context) ([]string, error) { return []string{"a"}, nil },
		RemoverFunc(func(ctx context.Context, ids []string) error { return boom }))
	assert.ErrorIs(t, err, boom)
}
