package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListParams_Normalize(t *testing.T) {
	p := ListParams{Page: 0, Limit: 500}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxPageLimit, p.Limit)
	assert.Equal(t, int64(0), p.Skip())

	p = ListParams{Page: 3, Limit: 10}.Normalize()
	assert.Equal(t, int64(20), p.Skip())
}

func TestNewPage(t *testing.T) {
	params := ListParams{Page: 2, Limit: 10}.Normalize()
	page := NewPage[int](nil, params, 21)

	assert.NotNil(t, page.Data)
	assert.Equal(t, int64(3), page.Pagination.Pages)
	assert.Equal(t, int64(21), page.Pagination.Total)
}
