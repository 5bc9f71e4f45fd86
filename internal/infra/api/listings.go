package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"realty-marketplace/internal/domain"
	"realty-marketplace/internal/domain/model"
	"realty-marketplace/internal/usecase"
)

func (s *Server) browseListings(w http.ResponseWriter, r *http.Request) {
	q, err := browseQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := s.Listings.Browse(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// browseQuery reads the public search parameters. Unknown enum values are
// passed through and simply match nothing.
func browseQuery(v url.Values) (usecase.BrowseQuery, error) {
	var (
		q   usecase.BrowseQuery
		err error
	)
	f := &q.Filter
	if q.Page, err = intParam(v, "page"); err != nil {
		return q, err
	}
	if q.Limit, err = intParam(v, "limit"); err != nil {
		return q, err
	}
	if f.MinPrice, err = int64Param(v, "minPrice"); err != nil {
		return q, err
	}
	if f.MaxPrice, err = int64Param(v, "maxPrice"); err != nil {
		return q, err
	}
	if s := v.Get("bedrooms"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return q, &domain.MalformedInputError{Field: "bedrooms", Err: err}
		}
		f.Bedrooms = &n
	}
	if s := v.Get("propertyType"); s != "" {
		t := model.PropertyType(s)
		f.PropertyType = &t
	}
	if s := v.Get("furnished"); s != "" {
		fu := model.Furnished(s)
		f.Furnished = &fu
	}
	if s := v.Get("availability"); s != "" {
		a := model.Availability(s)
		f.Availability = &a
	}
	if s := v.Get("listingType"); s != "" {
		lt := model.ListingType(s)
		f.ListingType = &lt
	}
	f.CityContains = v.Get("city")
	f.AgencyID = v.Get("agencyId")
	f.Text = v.Get("search")
	f.SortBy = model.SortField(v.Get("sortBy"))
	if f.SortBy != "" {
		f.SortDesc = !strings.EqualFold(v.Get("sortOrder"), "asc")
	}
	return q, nil
}

func intParam(v url.Values, key string) (int, error) {
	s := v.Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &domain.MalformedInputError{Field: key, Err: err}
	}
	return n, nil
}

func int64Param(v url.Values, key string) (*int64, error) {
	s := v.Get(key)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, &domain.MalformedInputError{Field: key, Err: err}
	}
	return &n, nil
}

func (s *Server) getListing(w http.ResponseWriter, r *http.Request) {
	l, err := s.Listings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) myListings(w http.ResponseWriter, r *http.Request) {
	items, err := s.Listings.ListMine(r.Context(), owner(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"properties": items})
}

func (s *Server) createListing(w http.ResponseWriter, r *http.Request) {
	var draft usecase.ListingDraft
	files, err := s.readListingRequest(w, r, &draft)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	l, err := s.Listings.Create(r.Context(), owner(r), draft, files)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (s *Server) updateListing(w http.ResponseWriter, r *http.Request) {
	var patch usecase.ListingPatch
	files, err := s.readListingRequest(w, r, &patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	l, err := s.Listings.Update(r.Context(), owner(r), chi.URLParam(r, "id"), patch, files)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) deleteListing(w http.ResponseWriter, r *http.Request) {
	if err := s.Listings.Delete(r.Context(), owner(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Property deleted successfully"})
}
