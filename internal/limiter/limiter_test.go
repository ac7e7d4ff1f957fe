package limiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid limit only",
			cfg:  Config{Limit: 10},
		},
		{
			name: "valid offset only",
			cfg:  Config{Offset: 5},
		},
		{
			name: "valid limit and offset",
			cfg:  Config{Limit: 10, Offset: 5},
		},
		{
			name: "tail ignores offset (valid)",
			cfg:  Config{Tail: 10, Offset: 5},
		},
		{
			name:    "limit and tail mutually exclusive",
			cfg:     Config{Limit: 10, Tail: 5},
			wantErr: true,
			errMsg:  "mutually exclusive",
		},
		{
			name:    "negative limit invalid",
			cfg:     Config{Limit: -1},
			wantErr: true,
			errMsg:  "non-negative",
		},
		{
			name:    "negative offset invalid",
			cfg:     Config{Offset: -1},
			wantErr: true,
			errMsg:  "non-negative",
		},
		{
			name:    "negative tail invalid",
			cfg:     Config{Tail: -3},
			wantErr: true,
			errMsg:  "--tail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestApply(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{"inactive", Config{}, items},
		{"limit", Config{Limit: 2}, []string{"a", "b"}},
		{"offset", Config{Offset: 3}, []string{"d", "e"}},
		{"limit and offset", Config{Limit: 2, Offset: 1}, []string{"b", "c"}},
		{"limit past end", Config{Limit: 10, Offset: 4}, []string{"e"}},
		{"offset past end", Config{Offset: 9}, []string{}},
		{"tail", Config{Tail: 2}, []string{"d", "e"}},
		{"tail larger than input", Config{Tail: 9}, items},
		{"tail ignores offset", Config{Tail: 1, Offset: 2}, []string{"e"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Apply(tt.cfg, items))
		})
	}
}

func TestApplyEmpty(t *testing.T) {
	assert.Empty(t, Apply(Config{Limit: 3, Offset: 1}, []int(nil)))
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name string
		size int
		want [][]int
	}{
		{"zero size is one page", 0, [][]int{{1, 2, 3, 4, 5}}},
		{"negative size is one page", -1, [][]int{{1, 2, 3, 4, 5}}},
		{"exact fit", 5, [][]int{{1, 2, 3, 4, 5}}},
		{"even split", 1, [][]int{{1}, {2}, {3}, {4}, {5}}},
		{"remainder", 2, [][]int{{1, 2}, {3, 4}, {5}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Paginate(items, tt.size))
		})
	}
}

func TestPaginateEmpty(t *testing.T) {
	assert.Nil(t, Paginate([]int{}, 3))
}

func TestPaginatePagesDoNotAlias(t *testing.T) {
	pages := Paginate([]int{1, 2, 3, 4}, 2)
	require.Len(t, pages, 2)
	pages[0] = append(pages[0], 99)
	assert.Equal(t, []int{3, 4}, pages[1])
}
