package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

func (a *API) registerCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	customer, err := a.catalog.RegisterCustomer(r.Context(), req.profile())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCustomerResponse(customer))
}

func (a *API) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := a.catalog.ListCustomers(r.Context(), true)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := make([]customerResponse, 0, len(customers))
	for _, c := range customers {
		out = append(out, newCustomerResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) getCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := a.catalog.GetCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCustomerResponse(customer))
}

func (a *API) updateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	customer, err := a.catalog.UpdateCustomer(r.Context(), chi.URLParam(r, "id"), req.profile())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCustomerResponse(customer))
}

func (a *API) deactivateCustomer(w http.ResponseWriter, r *http.Request) {
	if _, err := a.catalog.DeactivateCustomer(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) registerRestaurant(w http.ResponseWriter, r *http.Request) {
	var req restaurantRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	restaurant, err := a.catalog.RegisterRestaurant(r.Context(), req.profile())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newRestaurantResponse(restaurant))
}

func (a *API) listRestaurants(w http.ResponseWriter, r *http.Request) {
	activeOnly, err := queryBool(r, "active")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	restaurants, err := a.catalog.ListRestaurants(r.Context(), domain.RestaurantFilter{
		Category:   strings.TrimSpace(r.URL.Query().Get("category")),
		ActiveOnly: activeOnly,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := make([]restaurantResponse, 0, len(restaurants))
	for _, rest := range restaurants {
		out = append(out, newRestaurantResponse(rest))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) getRestaurant(w http.ResponseWriter, r *http.Request) {
	restaurant, err := a.catalog.GetRestaurant(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRestaurantResponse(restaurant))
}

func (a *API) updateRestaurant(w http.ResponseWriter, r *http.Request) {
	var req restaurantRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	restaurant, err := a.catalog.UpdateRestaurant(r.Context(), chi.URLParam(r, "id"), req.profile())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRestaurantResponse(restaurant))
}

func (a *API) setRestaurantActive(w http.ResponseWriter, r *http.Request) {
	active, err := decodeActive(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	restaurant, err := a.catalog.SetRestaurantActive(r.Context(), chi.URLParam(r, "id"), active)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRestaurantResponse(restaurant))
}

func (a *API) restaurantProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.catalog.RestaurantProducts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductResponses(products))
}

func (a *API) registerProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	product, err := a.catalog.RegisterProduct(r.Context(), req.RestaurantID, req.details())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newProductResponse(product))
}

func (a *API) searchProducts(w http.ResponseWriter, r *http.Request) {
	activeOnly, err := queryBool(r, "active")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	query := r.URL.Query()
	filter := domain.ProductFilter{
		NameContains: strings.TrimSpace(query.Get("name")),
		Category:     strings.TrimSpace(query.Get("category")),
		ActiveOnly:   activeOnly,
	}
	if raw := strings.TrimSpace(query.Get("max_price")); raw != "" {
		maxPrice, err := decimal.NewFromString(raw)
		if err != nil {
			a.writeError(w, r, badRequest("max_price must be a decimal number"))
			return
		}
		filter.MaxPrice = decimal.NewNullDecimal(maxPrice)
	}

	products, err := a.catalog.SearchProducts(r.Context(), filter)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductResponses(products))
}

func (a *API) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := a.catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductResponse(product))
}

func (a *API) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	product, err := a.catalog.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req.details())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductResponse(product))
}

func (a *API) setProductActive(w http.ResponseWriter, r *http.Request) {
	active, err := decodeActive(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	product, err := a.catalog.SetProductActive(r.Context(), chi.URLParam(r, "id"), active)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductResponse(product))
}

func (a *API) deactivateProduct(w http.ResponseWriter, r *http.Request) {
	if _, err := a.catalog.DeactivateProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeActive(r *http.Request) (bool, error) {
	var req activeRequest
	if err := decodeJSON(r, &req); err != nil {
		return false, err
	}
	if req.Active == nil {
		return false, badRequest("active is required")
	}
	return *req.Active, nil
}

func newProductResponses(products []domain.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, newProductResponse(p))
	}
	return out
}
