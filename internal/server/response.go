package server

import (
	"encoding/json"
	"net/http"

	"github.com/lumilabs/healthd/internal/constants"
)

// sendJSONResponse encodes v as a JSON response with the given status code
func (s *Server) sendJSONResponse(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// sendRawJSON writes a pre-serialized JSON body
func (s *Server) sendRawJSON(w http.ResponseWriter, statusCode int, body []byte) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}

// sendErrorResponse sends a JSON error response
func (s *Server) sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	s.sendJSONResponse(w, statusCode, map[string]string{"error": message})
}
