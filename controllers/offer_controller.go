package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"amora_server/services"
)

// OfferController lists and manages subscription offers
type OfferController struct {
	OfferService *services.OfferService
}

func NewOfferController(offerService *services.OfferService) *OfferController {
	return &OfferController{OfferService: offerService}
}

func (c *OfferController) ListOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := c.OfferService.ListActiveOffers(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", offers)
}

func (c *OfferController) GetOffer(w http.ResponseWriter, r *http.Request) {
	offer, err := c.OfferService.GetOffer(r.Context(), mux.Vars(r)["offerId"])
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", offer)
}

func (c *OfferController) CreateOffer(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	var in services.OfferInput
	if !decode(w, r, &in) {
		return
	}
	offer, err := c.OfferService.CreateOffer(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, "Offer created", offer)
}

func (c *OfferController) UpdateOffer(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	var in services.OfferInput
	if !decode(w, r, &in) {
		return
	}
	offer, err := c.OfferService.UpdateOffer(r.Context(), mux.Vars(r)["offerId"], in)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "Offer updated", offer)
}

func (c *OfferController) DeactivateOffer(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	if err := c.OfferService.DeactivateOffer(r.Context(), mux.Vars(r)["offerId"]); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "Offer deactivated", nil)
}
