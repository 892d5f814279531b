// AngelaMos | 2026
// entity_test.go

package post

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		raw  string
		want Tags
	}{
		{"a, b,c", Tags{"a", "b", "c"}},
		{"", Tags{}},
		{" , ,", Tags{}},
		{"go,,  web  ", Tags{"go", "web"}},
		{"zeta,alpha", Tags{"zeta", "alpha"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParseTags(tt.raw)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTags_Value(t *testing.T) {
	v, err := Tags{"go", "web"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["go","web"]`, v)

	v, err = Tags(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestTags_Scan(t *testing.T) {
	var tags Tags

	require.NoError(t, tags.Scan([]byte(`["go","web"]`)))
	assert.Equal(t, Tags{"go", "web"}, tags)

	require.NoError(t, tags.Scan(`["one"]`))
	assert.Equal(t, Tags{"one"}, tags)

	require.NoError(t, tags.Scan(nil))
	assert.Equal(t, Tags{}, tags)

	require.NoError(t, tags.Scan([]byte(`null`)))
	assert.Equal(t, Tags{}, tags)

	assert.Error(t, tags.Scan(42))
	assert.Error(t, tags.Scan([]byte(`{"not":"a list"}`)))
}
