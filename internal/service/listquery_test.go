package service

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesona-id/pesona-backend/internal/apperror"
)

func TestParseListQueryDefaults(t *testing.T) {
	q, err := ParseListQuery(url.Values{}, ListOptions{DefaultLimit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 10, q.Limit)
	assert.Equal(t, "desc", q.OrderBy)
	assert.Empty(t, q.Search)
	assert.Nil(t, q.IsPublished)
}

func TestParseListQueryValues(t *testing.T) {
	values := url.Values{
		"page":        {"3"},
		"limit":       {"25"},
		"search":      {"  beach  "},
		"sortBy":      {"name"},
		"orderBy":     {"ASC"},
		"isPublished": {"true"},
	}
	q, err := ParseListQuery(values, ListOptions{
		DefaultLimit:   10,
		SortKeys:       map[string]string{"name": "name"},
		AllowPublished: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 25, q.Limit)
	assert.Equal(t, "beach", q.Search)
	assert.Equal(t, "name", q.SortBy)
	assert.Equal(t, "asc", q.OrderBy)
	require.NotNil(t, q.IsPublished)
	assert.True(t, *q.IsPublished)
	assert.Equal(t, 50, q.Offset())
}

func TestParseListQueryRejectsBadInput(t *testing.T) {
	cases := []url.Values{
		{"page": {"0"}},
		{"page": {"abc"}},
		{"limit": {"101"}},
		{"orderBy": {"sideways"}},
		{"sortBy": {"unknown"}},
		{"isPublished": {"maybe"}},
		{"role": {"ROOT"}},
	}
	opts := ListOptions{DefaultLimit: 10, SortKeys: map[string]string{"name": "name"}, AllowPublished: true, AllowRole: true}
	for _, values := range cases {
		_, err := ParseListQuery(values, opts)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation), "values %v", values)
	}
}

func TestNewPagination(t *testing.T) {
	q := ListQuery{Page: 2, Limit: 10}
	p := NewPagination(q, 25)
	assert.Equal(t, int64(25), p.Total)
	assert.Equal(t, 3, p.Pages)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)

	last := NewPagination(ListQuery{Page: 3, Limit: 10}, 25)
	assert.False(t, last.HasNext)

	empty := NewPagination(ListQuery{Page: 1, Limit: 10}, 0)
	assert.Equal(t, 0, empty.Pages)
	assert.False(t, empty.HasNext)
	assert.False(t, empty.HasPrev)
}
