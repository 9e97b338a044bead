package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/allocation-ledger/business/ledger/app"
	"github.com/fd1az/allocation-ledger/business/ledger/domain"
	"github.com/fd1az/allocation-ledger/business/ledger/infra/memory"
	"github.com/fd1az/allocation-ledger/internal/logger"
	"github.com/fd1az/allocation-ledger/internal/web"
)

func newRouter(t *testing.T, decider app.Decider) chi.Router {
	t.Helper()
	l, err := app.NewLedger(app.Config{
		Policy:      domain.DefaultFeePolicy(),
		NativeAsset: "ETH",
	}, decider, memory.NewStore(), logger.Nop())
	require.NoError(t, err)

	r := web.NewRouter(logger.Nop(), nil)
	NewHandler(l, logger.Nop()).RegisterRoutes(r)
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var out map[string]any
	dec := json.NewDecoder(bytes.NewReader(rec.Body.Bytes()))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&out), rec.Body.String())
	return rec, out
}

func TestHandleDeposit_Scenario(t *testing.T) {
	r := newRouter(t, app.FixedDecider(domain.Invested))

	rec, out := do(t, r, http.MethodPost, "/api/deposit", `{"investor":"inv1","strategyId":"s1","amount":1000}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "inv1", out["investor"])
	assert.Equal(t, "s1", out["strategyId"])
	assert.Equal(t, "ETH", out["asset"])
	assert.Equal(t, json.Number("995"), out["newBalance"])
	assert.Equal(t, "INVESTED", out["allocation"])
	assert.Equal(t, json.Number("5"), out["feeCharged"])
	assert.Equal(t, json.Number("5"), out["platformTotalFees"])
	assert.Equal(t, true, out["simulated"])
	assert.NotEmpty(t, out["decidedAt"])

	rec, out = do(t, r, http.MethodPost, "/api/deposit", `{"investor":"inv1","strategyId":"s1","amount":500}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, json.Number("1495"), out["newBalance"])
	assert.Equal(t, json.Number("0"), out["feeCharged"])

	rec, out = do(t, r, http.MethodGet, "/api/accounts/inv1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, json.Number("1495"), out["balance"])

	rec, out = do(t, r, http.MethodGet, "/api/fees", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, json.Number("5"), out["platformTotalFees"])
}

func TestHandleDeposit_Validation(t *testing.T) {
	r := newRouter(t, app.FixedDecider(domain.Invested))

	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"empty investor", `{"investor":"","strategyId":"s1","amount":100}`, domain.MsgInvestorRequired},
		{"investor before bad amount", `{"strategyId":"s1","amount":"abc"}`, domain.MsgInvestorRequired},
		{"strategy before missing amount", `{"investor":"inv1"}`, domain.MsgStrategyRequired},
		{"missing amount", `{"investor":"inv1","strategyId":"s1"}`, domain.MsgAmountRequired},
		{"string amount", `{"investor":"inv1","strategyId":"s1","amount":"100"}`, domain.MsgAmountNotNumber},
		{"zero amount", `{"investor":"inv1","strategyId":"s1","amount":0}`, domain.MsgAmountPositive},
		{"negative amount", `{"investor":"inv1","strategyId":"s1","amount":-5}`, domain.MsgAmountPositive},
		{"huge exponent", `{"investor":"inv1","strategyId":"s1","amount":1e10000000}`, domain.MsgAmountTooLarge},
		{"tiny exponent", `{"investor":"inv1","strategyId":"s1","amount":1e-10000000}`, domain.MsgAmountPositive},
		{"not an object", `[1,2]`, "Request body must be a JSON object"},
		{"wrong investor type", `{"investor":1,"strategyId":"s1","amount":1}`, "investor must be a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := do(t, r, http.MethodPost, "/api/deposit", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Validation failed", out["error"])
			assert.Equal(t, tt.msg, out["message"])
		})
	}

	_, out := do(t, r, http.MethodGet, "/api/fees", "")
	assert.Equal(t, json.Number("0"), out["platformTotalFees"])

	rec, _ := do(t, r, http.MethodGet, "/api/accounts/inv1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDeposit_InternalFailureIsGeneric(t *testing.T) {
	r := newRouter(t, app.DeciderFunc(func(domain.Snapshot, domain.MarketContext) domain.Allocation {
		panic("stack trace with secrets")
	}))

	rec, out := do(t, r, http.MethodPost, "/api/deposit", `{"investor":"inv1","strategyId":"s1","amount":10}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", out["error"])
	assert.Equal(t, "An unexpected error occurred", out["message"])
	assert.NotContains(t, rec.Body.String(), "secrets")
}

func TestHandleDeposit_SuppliedAssetIsEchoed(t *testing.T) {
	r := newRouter(t, app.FixedDecider(domain.Stable))

	rec, out := do(t, r, http.MethodPost, "/api/deposit", `{"investor":"inv1","strategyId":"s1","amount":10,"asset":"USDC"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "USDC", out["asset"])
	assert.Equal(t, json.Number("10"), out["newBalance"])
}

func TestHandleDeposit_InvestorIDIsTrimmed(t *testing.T) {
	r := newRouter(t, app.FixedDecider(domain.Stable))

	rec, _ := do(t, r, http.MethodPost, "/api/deposit", `{"investor":" inv1 ","strategyId":"s1","amount":10}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, out := do(t, r, http.MethodPost, "/api/deposit", `{"investor":"inv1","strategyId":"s1","amount":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "inv1", out["investor"])
	assert.Equal(t, json.Number("15"), out["newBalance"])

	rec, out = do(t, r, http.MethodGet, "/api/accounts/inv1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, json.Number("15"), out["balance"])
}
