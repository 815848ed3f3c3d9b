package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router builds the HTTP route table with the standard middleware chain.
func (h *Handler) Router() http.Handler {
	router := mux.NewRouter()

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/prices", h.HandleGetPrices).Methods("GET")
	v1.HandleFunc("/evaluate", h.HandleEvaluate).Methods("GET")
	v1.HandleFunc("/evaluate/all", h.HandleEvaluateAll).Methods("GET")
	v1.HandleFunc("/expressions/edit", h.HandleEditExpression).Methods("POST")
	v1.HandleFunc("/expressions", h.HandleListExpressions).Methods("GET")
	v1.HandleFunc("/expressions", h.HandleCreateExpression).Methods("POST")
	v1.HandleFunc("/expressions/{id}", h.HandleGetExpression).Methods("GET")
	v1.HandleFunc("/expressions/{id}", h.HandleUpdateExpression).Methods("PUT")
	v1.HandleFunc("/expressions/{id}", h.HandleDeleteExpression).Methods("DELETE")
	v1.HandleFunc("/expressions/{id}/evaluate", h.HandleEvaluateExpression).Methods("GET")

	router.HandleFunc("/healthz", h.HandleHealth).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	chain := ChainMiddleware(
		RecoveryMiddleware(),
		LoggingMiddleware(),
		CORSMiddleware(),
	)
	return chain(router)
}
