package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iwvelando/property-analyzer/internal/analysis"
	"github.com/iwvelando/property-analyzer/internal/equity"
	"github.com/iwvelando/property-analyzer/internal/mao"
	"github.com/iwvelando/property-analyzer/internal/store"
	"github.com/iwvelando/property-analyzer/internal/strategy"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const mapleJSON = `{
	"analysis_name": "Maple St",
	"analysis_type": "LTR",
	"address": "12 Maple St",
	"purchase_price": "$180,000.00",
	"monthly_rent": 2000,
	"property_taxes": 200,
	"insurance": 100,
	"management_percentage": "8%",
	"capex_percentage": 5,
	"vacancy_percentage": 5,
	"repairs_percentage": 5,
	"loan1": {"loan_amount": 150000, "interest_rate": 6, "loan_term": 360, "down_payment": 30000, "closing_costs": 5000}
}`

func newTestHandler() http.Handler {
	return NewHandler(zap.NewNop(), strategy.NewCalculator(zap.NewNop()), store.NewMemory(), constants.DefaultMaxUploadSizeBytes, "1.2.3")
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
}

func withOwner(body, owner string) string {
	return strings.Replace(body, "{", `{"owner": "`+owner+`",`, 1)
}

func TestHandleCalculate(t *testing.T) {
	rr := do(t, newTestHandler(), http.MethodPost, "/api/calculate", mapleJSON)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var m strategy.Metrics
	decode(t, rr, &m)
	if m.Type != analysis.TypeLTR {
		t.Errorf("type = %q", m.Type)
	}
	if !m.MonthlyCashFlow.Equal(decimal.RequireFromString("340.67")) {
		t.Errorf("monthly cash flow = %s, want 340.67", m.MonthlyCashFlow)
	}
	if m.CashOnCashReturn != 11.68 {
		t.Errorf("cash on cash = %v, want 11.68", m.CashOnCashReturn)
	}
}

func TestHandleCalculateErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantField  string
	}{
		{
			name:       "malformed JSON",
			body:       `{"analysis_name":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unparseable money",
			body:       `{"analysis_name": "X", "analysis_type": "LTR", "purchase_price": "lots"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing fields",
			body:       `{"analysis_name": "X", "analysis_type": "LTR"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "purchase_price",
		},
		{
			name:       "unknown type",
			body:       `{"analysis_name": "X", "analysis_type": "Flip", "address": "1 Main", "purchase_price": 1}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "analysis_type",
		},
	}

	h := newTestHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/api/calculate", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}
			var resp errorResponse
			decode(t, rr, &resp)
			if resp.Error == "" {
				t.Error("expected an error message")
			}
			if tt.wantField != "" && !resp.Errors.Has(tt.wantField) {
				t.Errorf("expected a violation on %s, got %v", tt.wantField, resp.Errors)
			}
		})
	}
}

func TestHandleCalculateTooLarge(t *testing.T) {
	h := NewHandler(zap.NewNop(), nil, nil, 64, "")
	body := `{"analysis_name": "` + strings.Repeat("x", 128) + `"}`
	rr := do(t, h, http.MethodPost, "/api/calculate", body)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rr.Code)
	}
}

func TestHandleValidate(t *testing.T) {
	h := newTestHandler()

	rr := do(t, h, http.MethodPost, "/api/validate", mapleJSON)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var ok validationResponse
	decode(t, rr, &ok)
	if !ok.Valid || len(ok.Errors) != 0 {
		t.Errorf("response = %+v", ok)
	}

	rr = do(t, h, http.MethodPost, "/api/validate", `{"analysis_type": "BRRRR", "management_percentage": 120}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rr.Code)
	}
	var bad validationResponse
	decode(t, rr, &bad)
	if bad.Valid {
		t.Error("record should be invalid")
	}
	for _, field := range []string{"analysis_name", "address", "purchase_price", "management_percentage"} {
		if !bad.Errors.Has(field) {
			t.Errorf("expected a violation on %s, got %v", field, bad.Errors)
		}
	}
}

func TestHandleAmortization(t *testing.T) {
	h := newTestHandler()

	rr := do(t, h, http.MethodPost, "/api/amortization", `{"loan_amount": "1,200", "interest_rate": 0, "loan_term": 12}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp amortizationResponse
	decode(t, rr, &resp)
	if resp.MonthlyPayment != "100.00" || resp.TotalInterest != "0.00" {
		t.Errorf("payment %s, interest %s", resp.MonthlyPayment, resp.TotalInterest)
	}
	if len(resp.Entries) != 12 || !resp.Entries[11].Balance.IsZero() {
		t.Errorf("expected 12 entries ending at zero, got %d", len(resp.Entries))
	}

	rr = do(t, h, http.MethodPost, "/api/amortization", `{"loan_amount": 1000, "interest_rate": 5, "loan_term": 0}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422 for a zero term, got %d", rr.Code)
	}
}

func TestHandleMAO(t *testing.T) {
	h := newTestHandler()

	body := `{
		"analysis_name": "Oak Ct", "analysis_type": "BRRRR", "address": "40 Oak Ct",
		"purchase_price": 150000, "after_repair_value": 235000, "renovation_costs": 30000,
		"renovation_duration": 3, "property_taxes": 200, "insurance": 100,
		"refinance_loan": {"ltv": 75, "closing_costs": 4000}
	}`
	rr := do(t, h, http.MethodPost, "/api/mao", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var res mao.Result
	decode(t, rr, &res)
	if res.Error != "" || res.MAO.IsZero() {
		t.Errorf("result = %+v", res)
	}
	if !res.ARV.Equal(decimal.NewFromInt(235000)) {
		t.Errorf("arv = %s", res.ARV)
	}

	rr = do(t, h, http.MethodPost, "/api/mao", `{"analysis_name": "X", "analysis_type": "LTR", "purchase_price": 1}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	decode(t, rr, &res)
	if res.Error != mao.ErrMissingARV.Error() {
		t.Errorf("error = %q, want %q", res.Error, mao.ErrMissingARV.Error())
	}
}

func TestHandleAllocate(t *testing.T) {
	h := newTestHandler()
	body := strings.Replace(mapleJSON, `"address"`, `"partners": [{"name": "Dana", "equity_share": 60, "is_property_manager": true}, {"name": "Lee", "equity_share": 40}], "address"`, 1)

	rr := do(t, h, http.MethodPost, "/api/allocate", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var allocations []equity.Allocation
	decode(t, rr, &allocations)
	if len(allocations) != 2 || allocations[0].Partner != "Dana" {
		t.Fatalf("allocations = %+v", allocations)
	}
	if !allocations[1].Metrics.TotalCashInvested.Equal(decimal.NewFromInt(14000)) {
		t.Errorf("Lee's cash invested = %s, want 14000", allocations[1].Metrics.TotalCashInvested)
	}

	rr = do(t, h, http.MethodPost, "/api/allocate", mapleJSON)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422 without partners, got %d", rr.Code)
	}
}

func TestAnalysesLifecycle(t *testing.T) {
	h := newTestHandler()

	rr := do(t, h, http.MethodPost, "/api/analyses", withOwner(mapleJSON, "Dana"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var saved analysis.Record
	decode(t, rr, &saved)
	if saved.ID == "" {
		t.Fatal("saved record should have an ID")
	}

	rr = do(t, h, http.MethodGet, "/api/analyses/"+saved.ID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get: expected status 200, got %d", rr.Code)
	}
	var got analysis.Record
	decode(t, rr, &got)
	if got.Name != "Maple St" || got.Owner != "Dana" {
		t.Errorf("got %+v", got)
	}

	rr = do(t, h, http.MethodGet, "/api/analyses?owner=dana", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list: expected status 200, got %d", rr.Code)
	}
	var listed []analysis.Record
	decode(t, rr, &listed)
	if len(listed) != 1 || listed[0].ID != saved.ID {
		t.Errorf("listed = %+v", listed)
	}

	rr = do(t, h, http.MethodGet, "/api/analyses/"+saved.ID+"/export", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("export: expected status 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/x-yaml" {
		t.Errorf("content type = %q", ct)
	}
	var exported map[string]interface{}
	if err := yaml.Unmarshal(rr.Body.Bytes(), &exported); err != nil {
		t.Fatalf("export is not valid YAML: %v", err)
	}
	if exported["analysis_name"] != "Maple St" {
		t.Errorf("exported name = %v", exported["analysis_name"])
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("id: ")) {
		t.Errorf("export should lead with the id:\n%s", rr.Body.String())
	}

	rr = do(t, h, http.MethodDelete, "/api/analyses/"+saved.ID, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: expected status 204, got %d", rr.Code)
	}
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rr = do(t, h, method, "/api/analyses/"+saved.ID, "")
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s after delete: expected status 404, got %d", method, rr.Code)
		}
	}
}

func TestAnalysesRequestErrors(t *testing.T) {
	h := newTestHandler()

	if rr := do(t, h, http.MethodPost, "/api/analyses", mapleJSON); rr.Code != http.StatusBadRequest {
		t.Errorf("save without owner: expected status 400, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodPost, "/api/analyses", withOwner(`{"analysis_type": "LTR"}`, "Dana")); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("save invalid record: expected status 422, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/api/analyses", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("list without owner: expected status 400, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/api/portfolio", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("portfolio without owner: expected status 400, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/api/analyses/missing/export", ""); rr.Code != http.StatusNotFound {
		t.Errorf("export of unknown id: expected status 404, got %d", rr.Code)
	}
}

func TestHandlePortfolio(t *testing.T) {
	h := newTestHandler()

	owned := strings.Replace(withOwner(mapleJSON, "Dana"), `"address"`, `"partners": [{"name": "Dana", "equity_share": 50, "is_property_manager": true}, {"name": "Lee", "equity_share": 50}], "address"`, 1)
	notOwned := strings.Replace(withOwner(mapleJSON, "Dana"), "Maple St", "Birch Ln", 1)
	notOwned = strings.Replace(notOwned, `"address"`, `"partners": [{"name": "Lee", "equity_share": 100, "is_property_manager": true}], "address"`, 1)
	for _, body := range []string{owned, notOwned} {
		if rr := do(t, h, http.MethodPost, "/api/analyses", body); rr.Code != http.StatusCreated {
			t.Fatalf("save: expected status 201, got %d: %s", rr.Code, rr.Body.String())
		}
	}

	rr := do(t, h, http.MethodGet, "/api/portfolio?owner=Dana", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var summary equity.PortfolioSummary
	decode(t, rr, &summary)
	if summary.PropertyCount != 1 || len(summary.Skipped) != 1 || summary.Skipped[0].Name != "Birch Ln" {
		t.Errorf("summary = %+v", summary)
	}
	if !summary.TotalCashInvested.Equal(decimal.NewFromInt(17500)) {
		t.Errorf("cash invested = %s, want 17500", summary.TotalCashInvested)
	}
}

func TestHandleVersion(t *testing.T) {
	rr := do(t, newTestHandler(), http.MethodGet, "/api/version", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp map[string]string
	decode(t, rr, &resp)
	if resp["version"] != "1.2.3" {
		t.Errorf("version = %q", resp["version"])
	}

	rr = do(t, NewHandler(nil, nil, nil, 0, "  "), http.MethodGet, "/api/version", "")
	decode(t, rr, &resp)
	if resp["version"] != "dev" {
		t.Errorf("blank version should default to dev, got %q", resp["version"])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rr := do(t, newTestHandler(), http.MethodGet, "/api/calculate", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rr.Code)
	}
}
