package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/allocation-ledger/business/market/app"
	"github.com/fd1az/allocation-ledger/business/market/infra/mock"
	"github.com/fd1az/allocation-ledger/internal/logger"
	"github.com/fd1az/allocation-ledger/internal/web"
)

func TestHandleGetTicker(t *testing.T) {
	svc, err := app.NewMarketService(mock.NewSource(mock.Config{StartPrice: decimal.NewFromInt(3400)}), time.Minute, logger.Nop())
	require.NoError(t, err)
	defer svc.Close()

	r := web.NewRouter(logger.Nop(), nil)
	NewHandler(svc, logger.Nop()).RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/market/ethusdc", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "ETHUSDC", out["symbol"])
	assert.Equal(t, "mock", out["source"])
	assert.EqualValues(t, 3400, out["price"])
}
