package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/okalita/spot-optimizer/internal/condition"
	"github.com/okalita/spot-optimizer/internal/exprstore"
	"github.com/okalita/spot-optimizer/internal/pricestore"
	"github.com/okalita/spot-optimizer/internal/pricing"
	"github.com/okalita/spot-optimizer/pkg/logger"
)

// Handler holds the dependencies of the HTTP API.
type Handler struct {
	prices      *pricestore.Store
	expressions exprstore.Store
	tariff      pricestore.Tariff
	location    *time.Location

	// now is swappable so tests can pin the clock
	now func() time.Time
}

// NewHandler creates the API handler.
func NewHandler(prices *pricestore.Store, expressions exprstore.Store, tariff pricestore.Tariff, location *time.Location) *Handler {
	return &Handler{
		prices:      prices,
		expressions: expressions,
		tariff:      tariff,
		location:    location,
		now:         time.Now,
	}
}

// marketNow returns the current instant in the market timezone.
func (h *Handler) marketNow() time.Time {
	return h.now().In(h.location)
}

// HourPrice is one hour of a priced day.
type HourPrice struct {
	Hour  int     `json:"hour"`
	Price float64 `json:"price"`
}

// PricesResponse is the payload of GET /prices.
type PricesResponse struct {
	Date          string    `json:"date"`
	Prices        []float64 `json:"prices"`
	TotalPrices   []float64 `json:"total_prices"`
	TariffLabels  []string  `json:"tariff_labels"`
	Cheapest      HourPrice `json:"cheapest_hour"`
	MostExpensive HourPrice `json:"most_expensive_hour"`
}

// HandleGetPrices handles GET /prices?date=YYYY-MM-DD. The date defaults to
// the current day in the market timezone.
func (h *Handler) HandleGetPrices(w http.ResponseWriter, r *http.Request) {
	date := h.marketNow()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation(pricestore.DateFormat, raw, h.location)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid date %q, expected YYYY-MM-DD", raw))
			return
		}
		date = parsed
	}

	day, err := h.prices.GetDay(r.Context(), date)
	if err != nil {
		logger.Error("Failed to load day prices",
			logger.String("date", date.Format(pricestore.DateFormat)),
			logger.ErrorField(err),
		)
		respondWithError(w, http.StatusBadGateway, "Price data unavailable")
		return
	}

	total := h.tariff.TotalPrices(day)
	labels := h.tariff.Labels()
	cheapIdx, cheapPrice := pricing.CheapestHour(day[:])
	dearIdx, dearPrice := pricing.MostExpensiveHour(day[:])

	respondWithJSON(w, http.StatusOK, PricesResponse{
		Date:          date.Format(pricestore.DateFormat),
		Prices:        day[:],
		TotalPrices:   total[:],
		TariffLabels:  labels[:],
		Cheapest:      HourPrice{Hour: cheapIdx, Price: cheapPrice},
		MostExpensive: HourPrice{Hour: dearIdx, Price: dearPrice},
	})
}

// EvaluateResponse is the payload of GET /evaluate.
type EvaluateResponse struct {
	Result     bool      `json:"result"`
	Expression string    `json:"expression"`
	Now        time.Time `json:"now"`
	NowIndex   int       `json:"now_index"`
	Price      float64   `json:"price"`
}

// HandleEvaluate handles GET /evaluate?exp=<json>&date=&hour=. The
// expression is evaluated once, at the current hour by default; date and
// hour shift the evaluation instant.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	root, ok := h.parseExpressionParam(w, r)
	if !ok {
		return
	}
	instant, ok := h.parseInstantParams(w, r)
	if !ok {
		return
	}

	ctx, err := h.prices.EvaluationContext(r.Context(), instant)
	if err != nil {
		logger.Error("Failed to build evaluation context", logger.ErrorField(err))
		respondWithError(w, http.StatusBadGateway, "Price data unavailable")
		return
	}

	result := root.Evaluate(ctx)
	logger.EvaluationsTotal.WithLabelValues("point").Inc()

	normalized, err := condition.Format(root)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to render expression")
		return
	}

	respondWithJSON(w, http.StatusOK, EvaluateResponse{
		Result:     result,
		Expression: normalized,
		Now:        ctx.Now,
		NowIndex:   ctx.NowIndex,
		Price:      ctx.CurrentPrice(),
	})
}

// EvaluateAllResponse is the payload of GET /evaluate/all.
type EvaluateAllResponse struct {
	Results  []bool    `json:"results"`
	Prices   []float64 `json:"prices"`
	NowIndex int       `json:"now_index"`
}

// HandleEvaluateAll handles GET /evaluate/all?exp=<json>&date=. The
// expression is replayed over every hour of the loaded series.
func (h *Handler) HandleEvaluateAll(w http.ResponseWriter, r *http.Request) {
	root, ok := h.parseExpressionParam(w, r)
	if !ok {
		return
	}
	instant, ok := h.parseInstantParams(w, r)
	if !ok {
		return
	}

	ctx, err := h.prices.EvaluationContext(r.Context(), instant)
	if err != nil {
		logger.Error("Failed to build evaluation context", logger.ErrorField(err))
		respondWithError(w, http.StatusBadGateway, "Price data unavailable")
		return
	}

	results := root.EvaluateAll(ctx)
	logger.EvaluationsTotal.WithLabelValues("batch").Inc()

	respondWithJSON(w, http.StatusOK, EvaluateAllResponse{
		Results:  results,
		Prices:   ctx.Prices,
		NowIndex: ctx.NowIndex,
	})
}

// EditExpressionRequest is the payload of POST /expressions/edit.
type EditExpressionRequest struct {
	Expression string                 `json:"expression"`
	Edit       *condition.EditRequest `json:"edit"`
}

// EditExpressionResponse carries the edited expression along with the node
// the edit created or changed and its canonical path.
type EditExpressionResponse struct {
	Expression string          `json:"expression"`
	Node       *condition.Node `json:"node"`
	Path       string          `json:"path"`
}

// HandleEditExpression handles POST /expressions/edit: apply one structural
// edit to an expression and return the rewritten form.
func (h *Handler) HandleEditExpression(w http.ResponseWriter, r *http.Request) {
	var req EditExpressionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Edit == nil {
		respondWithError(w, http.StatusBadRequest, "Missing edit")
		return
	}

	root, err := condition.Parse(req.Expression)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid expression: %v", err))
		return
	}

	node, path, err := condition.ApplyEdit(root, req.Edit)
	if err != nil {
		if errors.Is(err, condition.ErrPathOutOfRange) || errors.Is(err, condition.ErrUnsupportedEdit) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to apply edit")
		return
	}

	edited, err := condition.Format(root)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to render expression")
		return
	}

	respondWithJSON(w, http.StatusOK, EditExpressionResponse{
		Expression: edited,
		Node:       node,
		Path:       path,
	})
}

// HandleListExpressions handles GET /expressions.
func (h *Handler) HandleListExpressions(w http.ResponseWriter, r *http.Request) {
	all, err := h.expressions.List()
	if err != nil {
		logger.Error("Failed to list expressions", logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list expressions")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"expressions": all,
		"count":       len(all),
	})
}

// HandleGetExpression handles GET /expressions/{id}.
func (h *Handler) HandleGetExpression(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	expr, err := h.expressions.Get(id)
	if err != nil {
		if errors.Is(err, exprstore.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Expression not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to get expression")
		return
	}
	respondWithJSON(w, http.StatusOK, expr)
}

// HandleCreateExpression handles POST /expressions.
func (h *Handler) HandleCreateExpression(w http.ResponseWriter, r *http.Request) {
	var expr exprstore.Expression
	if err := json.NewDecoder(r.Body).Decode(&expr); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if expr.ID == "" {
		expr.ID = uuid.New().String()
	}

	if err := h.expressions.Add(&expr); err != nil {
		switch {
		case errors.Is(err, exprstore.ErrAlreadyExists):
			respondWithError(w, http.StatusConflict, "Expression already exists")
		case errors.Is(err, exprstore.ErrInvalidName), errors.Is(err, condition.ErrInvalidExpression):
			respondWithError(w, http.StatusBadRequest, err.Error())
		default:
			logger.Error("Failed to create expression", logger.ErrorField(err))
			respondWithError(w, http.StatusInternalServerError, "Failed to create expression")
		}
		return
	}

	logger.Info("Expression created",
		logger.String("expression_id", expr.ID),
		logger.String("name", expr.Name),
	)
	respondWithJSON(w, http.StatusCreated, expr)
}

// HandleUpdateExpression handles PUT /expressions/{id}.
func (h *Handler) HandleUpdateExpression(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var expr exprstore.Expression
	if err := json.NewDecoder(r.Body).Decode(&expr); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	expr.ID = id

	if err := h.expressions.Update(&expr); err != nil {
		switch {
		case errors.Is(err, exprstore.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Expression not found")
		case errors.Is(err, exprstore.ErrInvalidName), errors.Is(err, condition.ErrInvalidExpression):
			respondWithError(w, http.StatusBadRequest, err.Error())
		default:
			logger.Error("Failed to update expression", logger.ErrorField(err))
			respondWithError(w, http.StatusInternalServerError, "Failed to update expression")
		}
		return
	}
	respondWithJSON(w, http.StatusOK, expr)
}

// HandleDeleteExpression handles DELETE /expressions/{id}.
func (h *Handler) HandleDeleteExpression(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.expressions.Delete(id); err != nil {
		if errors.Is(err, exprstore.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Expression not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to delete expression")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// HandleEvaluateExpression handles GET /expressions/{id}/evaluate: evaluate a
// saved expression at the current hour.
func (h *Handler) HandleEvaluateExpression(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	expr, err := h.expressions.Get(id)
	if err != nil {
		if errors.Is(err, exprstore.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Expression not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to get expression")
		return
	}
	if !expr.Enabled {
		respondWithError(w, http.StatusConflict, "Expression is disabled")
		return
	}

	root, err := condition.Parse(expr.Expression)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Stored expression is invalid")
		return
	}

	ctx, err := h.prices.EvaluationContext(r.Context(), h.marketNow())
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Price data unavailable")
		return
	}

	result := root.Evaluate(ctx)
	logger.EvaluationsTotal.WithLabelValues("point").Inc()

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"id":        expr.ID,
		"name":      expr.Name,
		"result":    result,
		"now":       ctx.Now,
		"now_index": ctx.NowIndex,
		"price":     ctx.CurrentPrice(),
	})
}

// HandleHealth handles GET /healthz.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// parseInstantParams resolves the optional date and hour query parameters
// into an evaluation instant, defaulting to the current market time. It
// writes the error response itself when a parameter is malformed.
func (h *Handler) parseInstantParams(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	instant := h.marketNow()

	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation(pricestore.DateFormat, raw, h.location)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid date %q, expected YYYY-MM-DD", raw))
			return time.Time{}, false
		}
		instant = parsed.Add(time.Duration(instant.Hour()) * time.Hour)
	}

	if raw := r.URL.Query().Get("hour"); raw != "" {
		hour, err := strconv.Atoi(raw)
		if err != nil || hour < 0 || hour > 23 {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid hour %q, expected 0-23", raw))
			return time.Time{}, false
		}
		day := time.Date(instant.Year(), instant.Month(), instant.Day(), 0, 0, 0, 0, h.location)
		instant = day.Add(time.Duration(hour) * time.Hour)
	}

	return instant, true
}

// parseExpressionParam reads and parses the exp query parameter, writing the
// error response itself when the expression is missing or malformed.
func (h *Handler) parseExpressionParam(w http.ResponseWriter, r *http.Request) (*condition.Node, bool) {
	raw := r.URL.Query().Get("exp")
	if raw == "" {
		respondWithError(w, http.StatusBadRequest, "Missing exp query parameter")
		return nil, false
	}
	root, err := condition.Parse(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid expression: %v", err))
		return nil, false
	}
	return root, true
}
