package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"fleet-dispatch-system/balancer"
	"fleet-dispatch-system/config"
	"fleet-dispatch-system/dispatch"
	"fleet-dispatch-system/geo"
	"fleet-dispatch-system/logger"
	"fleet-dispatch-system/models"
	"fleet-dispatch-system/routing"
	"fleet-dispatch-system/store"
)

// Handler bundles the engine and its collaborators behind the HTTP
// surface.
type Handler struct {
	Store     store.FleetStore
	Engine    *dispatch.Engine
	Generator *dispatch.AutoOrderGenerator
	Balancer  *balancer.DemandBalancer
	Router    routing.Provider
	Grid      *geo.Grid
	Index     *geo.Index
	Fleet     config.FleetConfig
	Log       logger.Logger
}

type location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"success": false, "error": msg})
}

// CreateOrder handles POST /api/orders: nearest-match assignment, or
// a pending order when the fleet has no capacity.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pickup      location `json:"pickup"`
		Destination location `json:"destination"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	order, err := dispatch.NewOrder("order", req.Pickup.Lat, req.Pickup.Lon, req.Destination.Lat, req.Destination.Lon)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err = h.Engine.Assign(r.Context(), order)
	switch {
	case errors.Is(err, dispatch.ErrNoCapacity):
		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"message": "No available drivers, order queued",
			"order":   order,
		})
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to create order")
	default:
		writeJSON(w, http.StatusCreated, map[string]any{"success": true, "order": order})
	}
}

// DeployDrivers handles POST /api/deploy_drivers: fleet reset plus
// uniform placement, and kicks off automatic order generation.
func (h *Handler) DeployDrivers(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	}
	// Body is optional; config supplies the defaults.
	_ = json.NewDecoder(r.Body).Decode(&body)

	centerLat, centerLon := h.Fleet.CenterLat, h.Fleet.CenterLon
	if body.Lat != nil {
		centerLat = *body.Lat
	}
	if body.Lon != nil {
		centerLon = *body.Lon
	}

	count := h.Fleet.Count
	radius := h.Fleet.RadiusM
	var err error
	if v := r.URL.Query().Get("count"); v != "" {
		if count, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid query params")
			return
		}
	}
	if v := r.URL.Query().Get("radius_m"); v != "" {
		if radius, err = strconv.ParseFloat(v, 64); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid query params")
			return
		}
	}

	drivers, err := h.Engine.DeployFleet(r.Context(), centerLat, centerLon, count, radius)
	if err != nil {
		if errors.Is(err, dispatch.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to deploy drivers")
		return
	}

	h.Generator.Start()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "drivers": drivers})
}

// ListDrivers handles GET /api/drivers.
func (h *Handler) ListDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := h.Store.ListDrivers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "drivers": drivers})
}

// ListOrders handles GET /api/orders, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	limit := 200
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}
	orders, err := h.Store.ListOrders(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "orders": orders})
}

// GetOrderDetails handles GET /api/order_details/{order_id}.
func (h *Handler) GetOrderDetails(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["order_id"]
	order, err := h.Store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	resp := map[string]any{"success": true, "order": order}
	if order.DriverID != nil {
		if driver, err := h.Store.GetDriver(r.Context(), *order.DriverID); err == nil {
			resp["driver_name"] = driver.Name
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// CompleteDelivery handles POST /api/complete_delivery: the order is
// delivered and the freed driver is immediately reused.
func (h *Handler) CompleteDelivery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID  string `json:"order_id"`
		DriverID string `json:"driver_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" || req.DriverID == "" {
		writeError(w, http.StatusBadRequest, "Missing order_id or driver_id")
		return
	}

	if err := h.Engine.CompleteAndReassign(r.Context(), req.OrderID, req.DriverID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to complete delivery")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Delivery completed successfully"})
}

// StartAutoOrders handles POST /api/start_auto_orders. Idempotent.
func (h *Handler) StartAutoOrders(w http.ResponseWriter, r *http.Request) {
	h.Generator.Start()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Automatic order generation started"})
}

// StopAutoOrders handles POST /api/stop_auto_orders. Idempotent.
func (h *Handler) StopAutoOrders(w http.ResponseWriter, r *http.Request) {
	h.Generator.Stop()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Automatic order generation stopped"})
}

// AutoOrderStatus handles GET /api/auto_order_status.
func (h *Handler) AutoOrderStatus(w http.ResponseWriter, r *http.Request) {
	min, max := h.Generator.IntervalWindow()
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"running":        h.Generator.Running(),
		"min_interval_s": int(min.Seconds()),
		"max_interval_s": int(max.Seconds()),
	})
}

// HexagonStats handles GET /api/hexagon_stats: a read-only snapshot
// of the demand balancer.
func (h *Handler) HexagonStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "hexagons": h.Balancer.Snapshot()})
}

func parseCoord(q string, r *http.Request) (float64, bool) {
	v, err := strconv.ParseFloat(r.URL.Query().Get(q), 64)
	return v, err == nil
}

// OSRMRoute handles GET /api/osrm_route, proxying the routing
// provider. Provider failures degrade to an error body; they never
// touch store state.
func (h *Handler) OSRMRoute(w http.ResponseWriter, r *http.Request) {
	startLat, ok1 := parseCoord("start_lat", r)
	startLon, ok2 := parseCoord("start_lon", r)
	endLat, ok3 := parseCoord("end_lat", r)
	endLon, ok4 := parseCoord("end_lon", r)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		writeError(w, http.StatusBadRequest, "Invalid coordinates")
		return
	}

	route, err := h.Router.Route(r.Context(), startLat, startLon, endLat, endLon)
	switch {
	case errors.Is(err, routing.ErrNoRoute):
		writeError(w, http.StatusNotFound, "No route found")
	case errors.Is(err, routing.ErrUnavailable):
		writeError(w, http.StatusBadGateway, "Routing provider unavailable")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Routing failed")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "route": route})
	}
}

// Distance handles POST /api/distance: great-circle distance between
// two points.
func (h *Handler) Distance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Start location `json:"start"`
		End   location `json:"end"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	meters := geo.Haversine(req.Start.Lat, req.Start.Lon, req.End.Lat, req.End.Lon)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "distance_meters": meters})
}

// NearbyDrivers handles GET /api/drivers/nearby: available drivers
// around a point via the selected spatial technique.
func (h *Handler) NearbyDrivers(w http.ResponseWriter, r *http.Request) {
	lat, ok1 := parseCoord("lat", r)
	lon, ok2 := parseCoord("lon", r)
	if !ok1 || !ok2 {
		writeError(w, http.StatusBadRequest, "Invalid coordinates")
		return
	}
	radius := 1000.0
	if v := r.URL.Query().Get("radius_m"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid radius")
			return
		}
		radius = f
	}
	technique := geo.Technique(r.URL.Query().Get("technique"))

	available, err := h.Store.ListDriversByStatus(r.Context(), models.DriverAvailable)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	h.Index.Rebuild(available)

	drivers, err := h.Index.SearchNearby(lat, lon, radius, technique, 4)
	if err != nil {
		if errors.Is(err, geo.ErrNoNearbyDrivers) {
			writeError(w, http.StatusNotFound, "No nearby drivers found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "drivers": drivers})
}
