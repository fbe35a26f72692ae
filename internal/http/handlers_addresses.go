package http

import (
	"net/http"

	"cashbook/internal/core"
)

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleListAddresses(w http.ResponseWriter, r *http.Request) {
	if cached, ok := s.addressCache.Get(addressCacheKey); ok {
		// Copy so callers cannot mutate the cached slice.
		out := make([]core.Address, len(cached))
		copy(out, cached)
		writeJSON(w, http.StatusOK, out)
		return
	}

	addresses, err := s.ledger.ListAddresses(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.addressCache.Set(addressCacheKey, addresses)
	writeJSON(w, http.StatusOK, addresses)
}

func (s *Server) handleCreateAddress(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	address, err := s.ledger.CreateAddress(r.Context(), req.toInput())
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.addressCache.Delete(addressCacheKey)
	writeJSON(w, http.StatusCreated, address)
}

func (s *Server) handleUpdateAddress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req addressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	address, err := s.ledger.UpdateAddress(r.Context(), id, req.toInput())
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.addressCache.Delete(addressCacheKey)
	writeJSON(w, http.StatusOK, address)
}

func (s *Server) handleDeleteAddress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.ledger.DeleteAddress(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	s.addressCache.Delete(addressCacheKey)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Address deleted successfully"})
}
