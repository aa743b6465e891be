package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/iwvelando/property-analyzer/internal/analysis"
	"github.com/iwvelando/property-analyzer/internal/equity"
	"github.com/iwvelando/property-analyzer/internal/mao"
	"github.com/iwvelando/property-analyzer/internal/store"
	"github.com/iwvelando/property-analyzer/internal/strategy"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/iwvelando/property-analyzer/pkg/loans"
	"github.com/iwvelando/property-analyzer/pkg/validation"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type handler struct {
	logger        *zap.Logger
	calc          *strategy.Calculator
	store         store.Store
	maxUploadSize int64
	version       string
}

// NewHandler constructs the HTTP handler that serves the analysis API. A nil
// calculator is replaced by one with the default assumptions and a nil store
// by an in-memory one.
func NewHandler(logger *zap.Logger, calc *strategy.Calculator, st store.Store, maxUploadSize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if calc == nil {
		calc = strategy.NewCalculator(logger)
	}
	if st == nil {
		st = store.NewMemory()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, calc: calc, store: st, maxUploadSize: maxUploadSize, version: trimmedVersion}

	mux := http.NewServeMux()

	// Stateless calculation endpoints
	mux.HandleFunc("POST /api/validate", h.handleValidate)
	mux.HandleFunc("POST /api/calculate", h.handleCalculate)
	mux.HandleFunc("POST /api/amortization", h.handleAmortization)
	mux.HandleFunc("POST /api/mao", h.handleMAO)
	mux.HandleFunc("POST /api/allocate", h.handleAllocate)

	// Stored analyses
	mux.HandleFunc("POST /api/analyses", h.handleSave)
	mux.HandleFunc("GET /api/analyses", h.handleList)
	mux.HandleFunc("GET /api/analyses/{id}", h.handleGet)
	mux.HandleFunc("DELETE /api/analyses/{id}", h.handleDelete)
	mux.HandleFunc("GET /api/analyses/{id}/export", h.handleExport)
	mux.HandleFunc("GET /api/portfolio", h.handlePortfolio)

	// Version endpoint for client metadata
	mux.HandleFunc("GET /api/version", h.handleVersion)

	return mux
}

type validationResponse struct {
	Valid  bool              `json:"valid"`
	Errors validation.Errors `json:"errors,omitempty"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Errors validation.Errors `json:"errors,omitempty"`
}

type amortizationResponse struct {
	MonthlyPayment string        `json:"monthly_payment"`
	TotalInterest  string        `json:"total_interest"`
	Entries        []loans.Entry `json:"entries"`
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleValidate"
	rec, ok := h.readRecord(w, r, op)
	if !ok {
		return
	}
	rec = analysis.Normalize(rec)

	err := analysis.Validate(rec.Type, rec)
	if err == nil {
		h.writeJSON(w, http.StatusOK, validationResponse{Valid: true})
		return
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		h.writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Errors: verrs})
		return
	}
	h.respondError(w, http.StatusUnprocessableEntity, err.Error(), op)
}

func (h *handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCalculate"
	start := time.Now()
	rec, ok := h.readRecord(w, r, op)
	if !ok {
		return
	}

	metrics, err := h.calc.Evaluate(rec.Type, rec)
	if err != nil {
		h.respondCalculationError(w, err, op)
		return
	}

	h.logger.Info("analysis computed",
		zap.String("op", op),
		zap.String("analysis", metrics.Name),
		zap.String("type", metrics.Type.String()),
		zap.Duration("duration", time.Since(start)),
	)
	h.writeJSON(w, http.StatusOK, metrics)
}

func (h *handler) handleAmortization(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAmortization"
	payload, ok := h.readPayload(w, r, op)
	if !ok {
		return
	}

	var terms analysis.LoanTerms
	if err := decodeInto(payload, &terms); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	schedule, err := loans.NewSchedule(terms.Terms())
	if err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, err.Error(), op)
		return
	}

	entries := schedule.Entries()
	resp := amortizationResponse{
		MonthlyPayment: schedule.MonthlyPayment().StringFixed(constants.DecimalPlaces),
		TotalInterest:  "0.00",
		Entries:        entries,
	}
	if n := len(entries); n > 0 {
		resp.TotalInterest = entries[n-1].CumulativeInterest.StringFixed(constants.DecimalPlaces)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleMAO(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleMAO"
	rec, ok := h.readRecord(w, r, op)
	if !ok {
		return
	}

	a, err := analysis.Build(analysis.Normalize(rec))
	if err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, mao.ForAnalysis(a, h.calc.MAOConfig()))
}

func (h *handler) handleAllocate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAllocate"
	rec, ok := h.readRecord(w, r, op)
	if !ok {
		return
	}
	if len(rec.Partners) == 0 {
		h.respondError(w, http.StatusUnprocessableEntity, "partners are required for allocation", op)
		return
	}

	metrics, err := h.calc.Evaluate(rec.Type, rec)
	if err != nil {
		h.respondCalculationError(w, err, op)
		return
	}
	allocations, err := equity.AllocatePartners(metrics, analysis.Normalize(rec).Partners)
	if err != nil {
		h.respondCalculationError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, allocations)
}

func (h *handler) handleSave(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSave"
	rec, ok := h.readRecord(w, r, op)
	if !ok {
		return
	}
	rec = analysis.Normalize(rec)
	if err := analysis.Validate(rec.Type, rec); err != nil {
		h.respondCalculationError(w, err, op)
		return
	}

	saved, err := h.store.Save(r.Context(), rec)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	h.logger.Debug(fmt.Sprintf("saved analysis %s for %s", saved.ID, saved.Owner), zap.String("op", op))
	h.writeJSON(w, http.StatusCreated, saved)
}

func (h *handler) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadRecord(w, r, "server.handleGet")
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

func (h *handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDelete"
	if err := h.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.respondStoreError(w, err, op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleList(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleList"
	owner := strings.TrimSpace(r.URL.Query().Get("owner"))
	if owner == "" {
		h.respondError(w, http.StatusBadRequest, "owner query parameter is required", op)
		return
	}
	records, err := h.store.ListByOwner(r.Context(), owner)
	if err != nil {
		h.respondStoreError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, records)
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExport"
	rec, ok := h.loadRecord(w, r, op)
	if !ok {
		return
	}

	out, err := marshalRecordYAML(rec)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode analysis: %v", err), op)
		return
	}
	w.Header().Set("Content-Type", "application/x-yaml")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.ID+".yaml"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		h.logger.Error("failed to write YAML response", zap.String("op", op), zap.Error(err))
	}
}

func (h *handler) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePortfolio"
	owner := strings.TrimSpace(r.URL.Query().Get("owner"))
	if owner == "" {
		h.respondError(w, http.StatusBadRequest, "owner query parameter is required", op)
		return
	}
	records, err := h.store.ListByOwner(r.Context(), owner)
	if err != nil {
		h.respondStoreError(w, err, op)
		return
	}

	summary, err := equity.ForOwner(h.logger, h.calc, owner, records)
	if err != nil {
		// Failed properties are listed in the summary; the rest is still valid.
		h.logger.Warn("portfolio computed with skipped properties",
			zap.String("op", op),
			zap.String("owner", owner),
			zap.Error(err),
		)
	}
	h.writeJSON(w, http.StatusOK, summary)
}

func (h *handler) loadRecord(w http.ResponseWriter, r *http.Request, op string) (analysis.Record, bool) {
	rec, err := h.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondStoreError(w, err, op)
		return analysis.Record{}, false
	}
	return rec, true
}

// readPayload decodes a JSON object body, enforcing the upload limit.
func (h *handler) readPayload(w http.ResponseWriter, r *http.Request, op string) (map[string]interface{}, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var payload map[string]interface{}
	if err := dec.Decode(&payload); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return nil, false
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return nil, false
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	return payload, true
}

func (h *handler) readRecord(w http.ResponseWriter, r *http.Request, op string) (analysis.Record, bool) {
	payload, ok := h.readPayload(w, r, op)
	if !ok {
		return analysis.Record{}, false
	}
	rec, err := analysis.Decode(payload)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return analysis.Record{}, false
	}
	return rec, true
}

func decodeInto(input interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       analysis.DecodeHook(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// marshalRecordYAML renders a record with its identifying keys first and the
// remaining non-empty keys in sorted order.
func marshalRecordYAML(rec analysis.Record) ([]byte, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	items := make([]orderedItem, 0, len(payload))
	seen := make(map[string]struct{})
	for _, key := range []string{"id", "owner", "analysis_name", "analysis_type", "address"} {
		if value, ok := payload[key]; ok {
			items = append(items, orderedItem{key: key, value: value})
			seen[key] = struct{}{}
		}
	}

	remainingKeys := make([]string, 0, len(payload))
	for key, value := range payload {
		if _, already := seen[key]; already || value == nil {
			continue
		}
		remainingKeys = append(remainingKeys, key)
	}
	sort.Strings(remainingKeys)
	for _, key := range remainingKeys {
		items = append(items, orderedItem{key: key, value: payload[key]})
	}

	return yaml.Marshal(orderedMap{items: items})
}

type orderedMap struct {
	items []orderedItem
}

type orderedItem struct {
	key   string
	value interface{}
}

func (o orderedMap) MarshalYAML() (interface{}, error) {
	mapNode := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}

	for _, item := range o.items {
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: item.key,
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(item.value); err != nil {
			return nil, err
		}
		mapNode.Content = append(mapNode.Content, keyNode, valueNode)
	}

	return mapNode, nil
}

// respondCalculationError maps validation failures to 422 with every
// violation listed; anything else is a bad request.
func (h *handler) respondCalculationError(w http.ResponseWriter, err error, op string) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		h.logger.Debug("request failed validation",
			zap.String("op", op),
			zap.Int("violations", len(verrs)),
		)
		h.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Errors: verrs})
		return
	}
	status := http.StatusBadRequest
	if errors.Is(err, analysis.ErrUnknownType) || errors.Is(err, equity.ErrInvalidShare) {
		status = http.StatusUnprocessableEntity
	}
	h.respondError(w, status, err.Error(), op)
}

func (h *handler) respondStoreError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, store.ErrNotFound) {
		h.respondError(w, http.StatusNotFound, err.Error(), op)
		return
	}
	h.respondError(w, http.StatusInternalServerError, err.Error(), op)
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, errorResponse{Error: msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
