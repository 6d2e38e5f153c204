package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

func (a *API) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	order, err := a.ordering.CreateOrder(r.Context(), req.CustomerID, req.RestaurantID, toItems(req.Items))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/orders/"+order.ID)
	writeJSON(w, http.StatusCreated, newOrderResponse(order))
}

func (a *API) previewTotal(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	total, err := a.ordering.PreviewTotal(r.Context(), req.RestaurantID, toItems(req.Items))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, previewResponse{RestaurantID: req.RestaurantID, Total: money(total)})
}

func (a *API) listOrders(w http.ResponseWriter, r *http.Request) {
	filter, err := orderFilterFromQuery(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	orders, err := a.ordering.ListOrders(r.Context(), filter)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponses(orders))
}

func (a *API) getOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	order, err := a.ordering.GetOrder(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	events, err := a.ordering.Timeline(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	resp := newOrderResponse(order)
	resp.Timeline = newTimelineResponse(events)
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	order, err := a.ordering.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(order))
}

func (a *API) cancelOrder(w http.ResponseWriter, r *http.Request) {
	if _, err := a.ordering.CancelOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) customerOrders(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	orders, err := a.ordering.ListByCustomer(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponses(orders))
}

func (a *API) restaurantOrders(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	orders, err := a.ordering.ListByRestaurant(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponses(orders))
}

func orderFilterFromQuery(r *http.Request) (domain.OrderFilter, error) {
	from, err := queryTime(r, "from", false)
	if err != nil {
		return domain.OrderFilter{}, err
	}
	to, err := queryTime(r, "to", true)
	if err != nil {
		return domain.OrderFilter{}, err
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		return domain.OrderFilter{}, err
	}
	return domain.OrderFilter{
		Status: domain.OrderStatus(strings.TrimSpace(r.URL.Query().Get("status"))),
		From:   from,
		To:     to,
		Limit:  limit,
	}, nil
}
