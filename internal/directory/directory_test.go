package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWildcardQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"dev", "*dev*"},
		{"*dev", "*dev*"},
		{"dev**", "*dev*"},
		{"", "**"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, WildcardQuery(tt.in))
		})
	}
}

func TestBatchIndexAndNames(t *testing.T) {
	b := Batch{{Name: "a"}, {Name: "b"}, {Name: "a"}}
	assert.Equal(t, 0, b.Index("a"))
	assert.Equal(t, 1, b.Index("b"))
	assert.Equal(t, -1, b.Index("c"))
	assert.Equal(t, []string{"a", "b", "a"}, b.Names())
}

func TestNodeChildAndLeaf(t *testing.T) {
	n := Node{Name: "dev", Children: []Node{{Name: "p1"}, {Name: "p2"}}}
	assert.False(t, n.Leaf())
	assert.True(t, n.Children[0].Leaf())
	assert.Equal(t, 1, n.Child("p2"))
	assert.Equal(t, -1, n.Child("missing"))
}

func TestSlicePages(t *testing.T) {
	ctx := context.Background()
	p := NewSlicePages(Batch{{Name: "a"}}, Batch{{Name: "b"}})
	assert.Equal(t, 2, p.Remaining())

	b, err := p.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, b.Names())

	b, err = p.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, b.Names())

	_, err = p.Next(ctx)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Zero(t, p.Remaining())
}

func TestSlicePagesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewSlicePages(Batch{{Name: "a"}})

	_, err := p.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, p.Remaining(), "a cancelled call must not consume a page")
}

func TestSourceFunc(t *testing.T) {
	var got string
	src := SourceFunc(func(_ context.Context, device string) (Pages, Batch, error) {
		got = device
		return nil, Batch{{Name: device}}, nil
	})
	_, first, err := src.Search(context.Background(), "dev1")
	require.NoError(t, err)
	assert.Equal(t, "dev1", got)
	assert.Equal(t, []string{"dev1"}, first.Names())
}
