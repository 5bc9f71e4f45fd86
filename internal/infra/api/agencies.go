package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"realty-marketplace/internal/domain/model"
	"realty-marketplace/internal/usecase"
)

type registerAgencyRequest struct {
	Name         string                  `json:"agencyName" validate:"required,max=200"`
	Description  string                  `json:"description" validate:"max=5000"`
	Email        string                  `json:"email" validate:"required,email"`
	Phone        string                  `json:"phone" validate:"required,max=40"`
	Address      model.Address           `json:"address"`
	Logo         string                  `json:"logo"`
	Website      string                  `json:"website" validate:"omitempty,url"`
	SocialLinks  model.AgencySocialLinks `json:"socialLinks"`
	PlanTier     string                  `json:"subscriptionPlan"`
	BillingCycle string                  `json:"billingCycle"`
}

func (s *Server) registerAgency(w http.ResponseWriter, r *http.Request) {
	var req registerAgencyRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.Agencies.Register(r.Context(), owner(r), usecase.RegisterAgencyInput{
		Profile: model.AgencyProfile{
			Name:        req.Name,
			Description: req.Description,
			Email:       req.Email,
			Phone:       req.Phone,
			Address:     req.Address,
			Logo:        req.Logo,
			Website:     req.Website,
			SocialLinks: req.SocialLinks,
		},
		PlanTier:     model.PlanTier(req.PlanTier),
		BillingCycle: model.BillingCycle(req.BillingCycle),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) getMyAgency(w http.ResponseWriter, r *http.Request) {
	v, err := s.Agencies.GetMine(r.Context(), owner(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) updateMyAgency(w http.ResponseWriter, r *http.Request) {
	var patch usecase.AgencyProfilePatch
	if err := s.decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.Agencies.UpdateProfile(r.Context(), owner(r), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) dashboardStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.Agencies.DashboardStats(r.Context(), owner(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) getPublicAgency(w http.ResponseWriter, r *http.Request) {
	a, err := s.Agencies.GetPublic(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) listAgencies(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	page, err := intParam(v, "page")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := intParam(v, "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.Agencies.ListPublic(r.Context(), v.Get("search"), page, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
