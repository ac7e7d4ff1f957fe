package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/paramsel/internal/directory"
	"github.com/oakwood-commons/paramsel/pkg/paramname"
)

func dev2Batch() directory.Batch {
	return directory.Batch{
		{Name: "dev2", Children: []directory.Node{
			{Name: "prop2", Children: []directory.Node{{Name: "field2"}}},
		}},
	}
}

func TestSelectorSingleResultValue(t *testing.T) {
	tests := []struct {
		name   string
		fields bool
		want   string
	}{
		{"with fields", true, "dev2/prop2#field2"},
		{"without fields", false, "dev2/prop2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			s := NewSelector(f.coord, SelectorOptions{EnableFields: tt.fields})

			f.coord.RequestSearch("dev2")
			f.source.next(t).reply <- reply{first: dev2Batch()}
			f.drain(t)

			assert.Equal(t, tt.want, s.Value())
		})
	}
}

func TestSelectorFollowsSelection(t *testing.T) {
	f := newFixture()
	s := NewSelector(f.coord, SelectorOptions{EnableFields: true})
	var seen []string
	s.ValueChanged.Connect(func(v string) { seen = append(seen, v) })

	f.coord.RequestSearch("dev1")
	f.source.next(t).reply <- reply{first: sampleBatch()}
	f.drain(t)
	assert.Equal(t, "", s.Value(), "no property selected yet")

	f.coord.Properties().UpdateSelection(0)
	assert.Equal(t, "dev1/propA", s.Value())

	f.coord.Fields().UpdateSelection(1)
	assert.Equal(t, "dev1/propA#f2", s.Value())
	assert.Equal(t, "dev1/propA#f2", seen[len(seen)-1])

	f.coord.Devices().UpdateSelection(0)
	assert.Equal(t, "dev/p", s.Value(), "single property is selected automatically")
}

func TestSelectorSetValue(t *testing.T) {
	f := newFixture()
	s := NewSelector(f.coord, SelectorOptions{EnableFields: true, EnableProtocols: true})

	req, err := s.SetValue("RDA3://svc/dev1/propA#f1")
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, "dev1/propA#f1", req.Query)
	assert.Equal(t, "rda3", s.Protocol())

	call := f.source.next(t)
	assert.Equal(t, "dev1", call.device)
	call.reply <- reply{first: sampleBatch()}
	f.drain(t)

	assert.Equal(t, "rda3:///dev1/propA#f1", s.Value())
	assert.Empty(t, s.Name().Service)
}

func TestSelectorSetValueDropsDisabledParts(t *testing.T) {
	tests := []struct {
		name      string
		opts      SelectorOptions
		in        string
		wantQuery string
		wantProto string
	}{
		{"unknown protocol", SelectorOptions{EnableFields: true, EnableProtocols: true}, "foo:///dev/p#x", "dev/p#x", ""},
		{"protocols disabled", SelectorOptions{EnableFields: true}, "rda3:///dev/p#x", "dev/p#x", ""},
		{"fields disabled", SelectorOptions{EnableProtocols: true}, "tgm:///dev/p#x", "dev/p", "tgm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			s := NewSelector(f.coord, tt.opts)
			req, err := s.SetValue(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantQuery, req.Query)
			assert.Equal(t, tt.wantProto, s.Protocol())
			req.Cancel()
		})
	}
}

func TestSelectorSetValueInvalid(t *testing.T) {
	f := newFixture()
	s := NewSelector(f.coord, SelectorOptions{})
	_, err := s.SetValue("just-a-device")
	require.ErrorIs(t, err, paramname.ErrInvalid)
	assert.Empty(t, f.statuses)
}

func TestSelectorNewSearchKeepsProtocol(t *testing.T) {
	f := newFixture()
	s := NewSelector(f.coord, SelectorOptions{EnableFields: true, EnableProtocols: true})
	require.NoError(t, s.SetProtocol("rda"))

	f.coord.RequestSearch("dev2")
	f.source.next(t).reply <- reply{first: dev2Batch()}
	f.drain(t)
	assert.Equal(t, "rda:///dev2/prop2#field2", s.Value())

	f.coord.RequestSearch("other")
	assert.Equal(t, "", s.Value())
	assert.Equal(t, "rda", s.Protocol())
}

func TestSelectorSetProtocol(t *testing.T) {
	f := newFixture()
	s := NewSelector(f.coord, SelectorOptions{EnableProtocols: true})
	assert.Error(t, s.SetProtocol("carrier-pigeon"))
	require.NoError(t, s.SetProtocol("TGM"))
	assert.Equal(t, "tgm", s.Protocol())
	require.NoError(t, s.SetProtocol(""))
	assert.Equal(t, "", s.Protocol())
}

func TestSelectorCycleProtocol(t *testing.T) {
	f := newFixture()
	s := NewSelector(f.coord, SelectorOptions{EnableProtocols: true})

	var got []string
	for range len(paramname.KnownProtocols) + 1 {
		got = append(got, s.CycleProtocol())
	}
	want := append(append([]string{}, paramname.KnownProtocols...), "")
	assert.Equal(t, want, got)
}
