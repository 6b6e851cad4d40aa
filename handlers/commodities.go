package handlers

import (
	"net/http"
	"vendtrack/service"

	"github.com/go-chi/chi/v5"
)

type CommodityHandler struct {
	commodities *service.CommodityService
}

func NewCommodityHandler(commodities *service.CommodityService) *CommodityHandler {
	return &CommodityHandler{commodities: commodities}
}

// GetCommodities returns the catalog
func (h *CommodityHandler) GetCommodities(w http.ResponseWriter, r *http.Request) {
	commodities, err := h.commodities.GetAllCommodities(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"commodities": commodities,
		"count":       len(commodities),
	})
}

func (h *CommodityHandler) GetCommodity(w http.ResponseWriter, r *http.Request) {
	commodity, err := h.commodities.GetCommodityByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"commodity": commodity})
}

func (h *CommodityHandler) CreateCommodity(w http.ResponseWriter, r *http.Request) {
	var input service.CommodityInput
	if !decodeJSON(w, r, &input) {
		return
	}

	commodity, err := h.commodities.CreateCommodity(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]interface{}{"commodity": commodity})
}

func (h *CommodityHandler) UpdateCommodity(w http.ResponseWriter, r *http.Request) {
	var patch map[string]interface{}
	if !decodeJSON(w, r, &patch) {
		return
	}

	commodity, err := h.commodities.UpdateCommodity(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"commodity": commodity})
}

func (h *CommodityHandler) DeleteCommodity(w http.ResponseWriter, r *http.Request) {
	if err := h.commodities.DeleteCommodity(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"message": "Commodity deleted"})
}
