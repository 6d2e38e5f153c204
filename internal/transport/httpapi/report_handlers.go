package httpapi

import (
	"net/http"
)

func (a *API) salesByRestaurant(w http.ResponseWriter, r *http.Request) {
	sales, err := a.reporting.SalesByRestaurant(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := make([]restaurantSalesResponse, 0, len(sales))
	for _, s := range sales {
		out = append(out, restaurantSalesResponse{
			RestaurantID:   s.RestaurantID,
			RestaurantName: s.RestaurantName,
			Orders:         s.Orders,
			Total:          money(s.Total),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) topProducts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	products, err := a.reporting.TopProducts(r.Context(), limit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := make([]productSalesResponse, 0, len(products))
	for _, p := range products {
		out = append(out, productSalesResponse{ProductID: p.ProductID, ProductName: p.ProductName, Quantity: p.Quantity})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) customerRanking(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	ranking, err := a.reporting.CustomerRanking(r.Context(), limit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := make([]customerOrdersResponse, 0, len(ranking))
	for _, c := range ranking {
		out = append(out, customerOrdersResponse{CustomerID: c.CustomerID, CustomerName: c.CustomerName, Orders: c.Orders})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) revenueByCategory(w http.ResponseWriter, r *http.Request) {
	revenue, err := a.reporting.RevenueByCategory(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := make([]categoryRevenueResponse, 0, len(revenue))
	for _, c := range revenue {
		out = append(out, categoryRevenueResponse{Category: c.Category, Total: money(c.Total)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) ordersByPeriod(w http.ResponseWriter, r *http.Request) {
	from, err := queryTime(r, "from", false)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	to, err := queryTime(r, "to", true)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	orders, err := a.reporting.OrdersByPeriod(r.Context(), from, to)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponses(orders))
}
