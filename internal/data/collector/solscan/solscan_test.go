package solscan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/tokenlens/internal/data"
)

const testAddress = "GBUxQFRXQjSPjkxymAUKPfbUbSpRY8Ui7az1HCxtpump"

func TestSolscanDataSource_FetchMetadata(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		apiKey       string
		expectError  error
		wantAnyErr   bool
		wantName     string
		wantSymbol   string
		wantDecimals int
		wantSupply   string
	}{
		{
			name:         "string supply",
			status:       http.StatusOK,
			body:         `{"name":"Test Token","symbol":"TEST","decimals":6,"supply":"1000000000000000"}`,
			apiKey:       "secret",
			wantName:     "Test Token",
			wantSymbol:   "TEST",
			wantDecimals: 6,
			wantSupply:   "1000000000000000",
		},
		{
			name:         "numeric total supply and no name",
			status:       http.StatusOK,
			body:         `{"symbol":"TEST","decimals":9,"totalSupply":42}`,
			wantName:     "TEST",
			wantSymbol:   "TEST",
			wantDecimals: 9,
			wantSupply:   "42",
		},
		{
			name:        "empty payload",
			status:      http.StatusOK,
			body:        `{}`,
			expectError: data.ErrNotFound,
		},
		{
			name:        "not found",
			status:      http.StatusNotFound,
			body:        `{"error":"not found"}`,
			expectError: data.ErrNotFound,
		},
		{
			name:       "rate limited",
			status:     http.StatusTooManyRequests,
			body:       `{}`,
			wantAnyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/token/meta", r.URL.Path)
				assert.Equal(t, testAddress, r.URL.Query().Get("tokenAddress"))
				assert.Equal(t, tt.apiKey, r.Header.Get("token"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			ds := NewSolscanDataSource(server.URL, tt.apiKey, resty.NewWithClient(server.Client()))
			got, err := ds.FetchMetadata(context.Background(), testAddress)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				return
			}
			if tt.wantAnyErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, testAddress, got.Address)
			assert.Equal(t, tt.wantName, got.Name)
			assert.Equal(t, tt.wantSymbol, got.Symbol)
			assert.Equal(t, tt.wantDecimals, got.Decimals)
			assert.Equal(t, tt.wantSupply, got.Supply)
		})
	}
}
