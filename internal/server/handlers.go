package server

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vanshika/bizflow/internal/domain"
	"github.com/vanshika/bizflow/internal/generator"
	"github.com/vanshika/bizflow/internal/notify"
	"github.com/vanshika/bizflow/internal/service"
)

// IngestionService is the write and query surface of the transaction service.
type IngestionService interface {
	Submit(ctx context.Context, input service.TransactionInput) (domain.Transaction, error)
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)
}

// BusinessDirectory lists known businesses.
type BusinessDirectory interface {
	ListAll(ctx context.Context) ([]domain.Business, error)
}

// BatchGenerator produces one-off mock batches.
type BatchGenerator interface {
	GenerateBatch(ctx context.Context, n int) ([]domain.Transaction, error)
}

// GeneratorController manages the recurring mock load job.
type GeneratorController interface {
	Start(ctx context.Context, batchSize int, interval time.Duration) ([]domain.Transaction, error)
	Stop() error
	Status() generator.Status
}

// EventSource hands out live observer subscriptions.
type EventSource interface {
	Subscribe() *notify.Subscription
}

// APIDependencies collects the services behind the REST API.
type APIDependencies struct {
	Ingestion  IngestionService
	Directory  BusinessDirectory
	Batches    BatchGenerator
	Controller GeneratorController
	Events     EventSource
	KeepAlive  time.Duration
}

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger *slog.Logger
	deps   APIDependencies
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, deps APIDependencies) *APIHandlers {
	if deps.KeepAlive <= 0 {
		deps.KeepAlive = 15 * time.Second
	}
	return &APIHandlers{
		logger: logger,
		deps:   deps,
	}
}

func (h *APIHandlers) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createTransaction(w, r)
	case http.MethodGet:
		h.listTransactions(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (h *APIHandlers) createTransaction(w http.ResponseWriter, r *http.Request) {
	var payload transactionRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	input, err := payload.toServiceInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := h.deps.Ingestion.Submit(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, "failed to persist transaction", err, "from", input.From, "to", input.To)
		return
	}

	respondJSON(w, http.StatusCreated, tx)
}

func (h *APIHandlers) listTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTransactionFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := h.deps.Ingestion.ListTransactions(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, "failed to list transactions", err)
		return
	}

	respondJSON(w, http.StatusOK, transactionListResponse{
		Items: nonNil(txs),
		Count: len(txs),
	})
}

func (h *APIHandlers) handleExportTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	filter, err := parseTransactionFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := h.deps.Ingestion.ListTransactions(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, "failed to export transactions", err)
		return
	}

	if !strings.EqualFold(r.URL.Query().Get("format"), "csv") {
		respondJSON(w, http.StatusOK, nonNil(txs))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"from", "to", "amount", "timestamp"})
	for _, tx := range txs {
		_ = cw.Write([]string{
			tx.From,
			tx.To,
			strconv.FormatFloat(tx.Amount, 'f', 2, 64),
			formatTime(tx.Timestamp),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Error("csv export failed", "error", err)
	}
}

func (h *APIHandlers) handleBusinesses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	businesses, err := h.deps.Directory.ListAll(r.Context())
	if err != nil {
		h.writeServiceError(w, "failed to list businesses", err)
		return
	}

	respondJSON(w, http.StatusOK, businessListResponse{
		Items: nonNil(businesses),
		Count: len(businesses),
	})
}

func (h *APIHandlers) handleGenerateBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var payload batchRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.Count < 1 || payload.Count > generator.MaxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("count must be between 1 and %d", generator.MaxBatchSize))
		return
	}

	txs, err := h.deps.Batches.GenerateBatch(r.Context(), payload.Count)
	if err != nil {
		h.writeServiceError(w, "failed to generate batch", err, "count", payload.Count)
		return
	}

	respondJSON(w, http.StatusCreated, transactionListResponse{
		Items: nonNil(txs),
		Count: len(txs),
	})
}

func (h *APIHandlers) handleGeneratorStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var payload startRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	interval := time.Duration(payload.IntervalMs) * time.Millisecond
	txs, err := h.deps.Controller.Start(r.Context(), payload.BatchSize, interval)
	if err != nil {
		h.writeServiceError(w, "failed to start generator", err, "batch_size", payload.BatchSize)
		return
	}

	respondJSON(w, http.StatusAccepted, startResponse{
		Status:       h.deps.Controller.Status(),
		InitialBatch: nonNil(txs),
	})
}

func (h *APIHandlers) handleGeneratorStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	if err := h.deps.Controller.Stop(); err != nil {
		h.writeServiceError(w, "failed to stop generator", err)
		return
	}

	respondJSON(w, http.StatusOK, h.deps.Controller.Status())
}

func (h *APIHandlers) handleGeneratorStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	respondJSON(w, http.StatusOK, h.deps.Controller.Status())
}

// handleEvents streams transaction events to the caller as Server-Sent Events
// until the client goes away.
func (h *APIHandlers) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	sub := h.deps.Events.Subscribe()
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		h.logger.Error("event stream unsupported", "error", err)
		return
	}

	h.logger.Debug("observer connected", "subscription", sub.ID)
	defer h.logger.Debug("observer disconnected", "subscription", sub.ID)

	keepAlive := time.NewTicker(h.deps.KeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			data, err := json.Marshal(ev.Transaction)
			if err != nil {
				h.logger.Error("encode event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", ev.ID, ev.Type, data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func (h *APIHandlers) writeServiceError(w http.ResponseWriter, msg string, err error, attrs ...any) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, append(attrs, "error", err)...)
		writeError(w, status, msg)
		return
	}
	h.logger.Info(msg, append(attrs, "error", err, "status", status)...)
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrAlreadyRunning),
		errors.Is(err, domain.ErrNotRunning),
		errors.Is(err, domain.ErrStartAborted),
		errors.Is(err, domain.ErrControllerClosed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrStore):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type transactionRequest struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Amount    float64 `json:"amount"`
	Timestamp string  `json:"timestamp,omitempty"`
}

type batchRequest struct {
	Count int `json:"count"`
}

type startRequest struct {
	BatchSize  int   `json:"batchSize"`
	IntervalMs int64 `json:"intervalMs"`
}

type transactionListResponse struct {
	Items []domain.Transaction `json:"items"`
	Count int                  `json:"count"`
}

type businessListResponse struct {
	Items []domain.Business `json:"items"`
	Count int               `json:"count"`
}

type startResponse struct {
	Status       generator.Status     `json:"status"`
	InitialBatch []domain.Transaction `json:"initialBatch"`
}

func (req transactionRequest) toServiceInput() (service.TransactionInput, error) {
	input := service.TransactionInput{
		From:   req.From,
		To:     req.To,
		Amount: req.Amount,
	}
	if req.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			return service.TransactionInput{}, fmtError("invalid timestamp")
		}
		input.Timestamp = ts
	}
	return input, nil
}

func parseTransactionFilter(r *http.Request) (domain.TransactionFilter, error) {
	query := r.URL.Query()
	filter := domain.TransactionFilter{
		From:  query.Get("from"),
		To:    query.Get("to"),
		Limit: parseInt(query.Get("limit"), 0),
	}

	for _, p := range []struct {
		key string
		dst **time.Time
	}{
		{"start", &filter.StartTime},
		{"end", &filter.EndTime},
	} {
		if v := query.Get(p.key); v != "" {
			ts, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return domain.TransactionFilter{}, fmtError("invalid " + p.key)
			}
			*p.dst = &ts
		}
	}

	for _, p := range []struct {
		key string
		dst **float64
	}{
		{"minAmount", &filter.MinAmount},
		{"maxAmount", &filter.MaxAmount},
	} {
		if v := query.Get(p.key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return domain.TransactionFilter{}, fmtError("invalid " + p.key)
			}
			*p.dst = &f
		}
	}

	return filter, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func fmtError(msg string) error {
	return errors.New(msg)
}
