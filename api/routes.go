package api

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// RegisterRoutes wires all endpoints onto a router with CORS support.
func (h *Handler) RegisterRoutes() http.Handler {
	router := mux.NewRouter()

	// Order endpoints
	router.HandleFunc("/api/orders", h.CreateOrder).Methods("POST")
	router.HandleFunc("/api/orders", h.ListOrders).Methods("GET")
	router.HandleFunc("/api/order_details/{order_id}", h.GetOrderDetails).Methods("GET")
	router.HandleFunc("/api/complete_delivery", h.CompleteDelivery).Methods("POST")

	// Fleet endpoints
	router.HandleFunc("/api/deploy_drivers", h.DeployDrivers).Methods("POST")
	router.HandleFunc("/api/drivers", h.ListDrivers).Methods("GET")
	router.HandleFunc("/api/drivers/nearby", h.NearbyDrivers).Methods("GET")

	// Auto order generation lifecycle
	router.HandleFunc("/api/start_auto_orders", h.StartAutoOrders).Methods("POST")
	router.HandleFunc("/api/stop_auto_orders", h.StopAutoOrders).Methods("POST")
	router.HandleFunc("/api/auto_order_status", h.AutoOrderStatus).Methods("GET")

	// Demand statistics
	router.HandleFunc("/api/hexagon_stats", h.HexagonStats).Methods("GET")

	// Geometry endpoints
	router.HandleFunc("/api/osrm_route", h.OSRMRoute).Methods("GET")
	router.HandleFunc("/api/distance", h.Distance).Methods("POST")

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	return cors(router)
}
