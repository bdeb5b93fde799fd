package websearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/models"
)

func TestHostFilter(t *testing.T) {
	f, err := NewHostFilter([]string{"*.Pinterest.com", "www.youtube.com", " "})
	require.NoError(t, err)

	assert.True(t, f.Excluded("https://www.pinterest.com/pin/1"))
	assert.True(t, f.Excluded("https://WWW.YOUTUBE.COM/watch?v=x"))
	assert.False(t, f.Excluded("https://pinterest.com.evil.org/"))
	assert.False(t, f.Excluded("https://example.com/pinterest.com"))
	assert.True(t, f.Excluded("not a url"))

	in := []models.WebResult{
		{Link: "https://a.com"},
		{Link: "https://uk.pinterest.com/x"},
		{Link: "https://b.com"},
	}
	assert.Equal(t, []models.WebResult{{Link: "https://a.com"}, {Link: "https://b.com"}}, f.Apply(in))
}

func TestHostFilter_InvalidPattern(t *testing.T) {
	_, err := NewHostFilter([]string{"[a-"})
	assert.Error(t, err)
}

func TestLimit(t *testing.T) {
	in := []models.WebResult{{Link: "1"}, {Link: "2"}, {Link: "3"}}
	assert.Len(t, Limit(in, 1), 1)
	assert.Equal(t, "1", Limit(in, 1)[0].Link)
	assert.Len(t, Limit(in, 0), 3)
	assert.Len(t, Limit(in, 10), 3)
}
