package v1

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		query     string
		wantPage  uint64
		wantLimit uint64
		wantErr   bool
	}{
		{name: "defaults", query: "", wantPage: 1, wantLimit: 10},
		{name: "explicit", query: "?page=3&limit=25", wantPage: 3, wantLimit: 25},
		{name: "zero page", query: "?page=0", wantErr: true},
		{name: "limit too large", query: "?limit=101", wantErr: true},
		{name: "not a number", query: "?page=abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest("GET", "/expenses"+tt.query, nil)

			page, limit, err := parsePagination(r)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}
