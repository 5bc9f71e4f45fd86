package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"realty-marketplace/internal/domain"
	"realty-marketplace/internal/domain/model"
)

type subscribeRequest struct {
	PlanTier     string `json:"planName" validate:"required"`
	BillingCycle string `json:"billingCycle" validate:"omitempty,oneof=monthly yearly"`
}

type planRequest struct {
	DisplayName       string   `json:"displayName" validate:"required,max=100"`
	Description       string   `json:"description" validate:"max=1000"`
	PriceMonthly      int64    `json:"priceMonthly" validate:"gte=0"`
	PriceYearly       int64    `json:"priceYearly" validate:"gte=0"`
	StorageLimitBytes int64    `json:"storageLimitBytes" validate:"gt=0"`
	ListingLimit      int      `json:"listingLimit" validate:"gt=0"`
	Features          []string `json:"features"`
	IsActive          *bool    `json:"isActive"`
}

func (s *Server) listPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.Subscriptions.ListPlans(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"plans": plans})
}

func (s *Server) getPlan(w http.ResponseWriter, r *http.Request) {
	tier, err := model.ParsePlanTier(chi.URLParam(r, "tier"))
	if err != nil {
		s.writeError(w, r, domain.ErrPlanNotFound)
		return
	}
	p, err := s.Subscriptions.GetPlan(r.Context(), tier)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.Subscriptions.Subscribe(r.Context(), owner(r), model.PlanTier(req.PlanTier), model.BillingCycle(req.BillingCycle))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) renew(w http.ResponseWriter, r *http.Request) {
	st, err := s.Subscriptions.Renew(r.Context(), owner(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) subscriptionStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.Subscriptions.Status(r.Context(), owner(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) cancelSubscription(w http.ResponseWriter, r *http.Request) {
	st, err := s.Subscriptions.Cancel(r.Context(), owner(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// upsertPlan replaces a catalog entry. Agencies keep the limits copied at
// their last subscribe.
func (s *Server) upsertPlan(w http.ResponseWriter, r *http.Request) {
	tier, err := model.ParsePlanTier(chi.URLParam(r, "tier"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req planRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := model.NewPlan(tier, req.DisplayName, req.PriceMonthly, req.PriceYearly, model.Limits{
		StorageLimitBytes: req.StorageLimitBytes,
		ListingLimit:      req.ListingLimit,
	}, req.Features)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p.Description = req.Description
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if err := s.Subscriptions.UpsertPlan(r.Context(), p); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
