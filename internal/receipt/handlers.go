package receipt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/zombor/receipt-processor/internal/scoring"
)

// maxBodySize caps the size of a submitted receipt
const maxBodySize = 1 << 20 // 1MB

var errTrailingData = errors.New("unexpected data after receipt")

const (
	msgInvalidReceipt = "Invalid receipt"
	msgNotFound       = "Receipt not found"
	msgInternalError  = "Internal server error"
)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON writes v as a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError writes an {"error": message} response
func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

// decodeProcessRequest decodes a single JSON object, rejecting anything
// but whitespace after it.
func decodeProcessRequest(body io.Reader) (ProcessRequest, error) {
	var req ProcessRequest
	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		return ProcessRequest{}, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ProcessRequest{}, errTrailingData
	}
	return req, nil
}

// handleProcessReceipt scores a receipt and returns its new ID
func (s *Server) handleProcessReceipt(w http.ResponseWriter, r *http.Request) {
	req, err := decodeProcessRequest(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		slog.Warn("Error decoding receipt", "error", err)
		writeError(w, http.StatusBadRequest, msgInvalidReceipt)
		return
	}

	id, err := s.service.ProcessReceipt(req)
	if err != nil {
		var formatErr *scoring.FormatError
		switch {
		case errors.As(err, &formatErr):
			slog.Warn("Malformed receipt", "error", err)
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":             msgInvalidReceipt,
				"error_description": formatErr.Error(),
			})
		case errors.Is(err, ErrInvalidReceipt):
			slog.Warn("Invalid receipt", "error", err)
			writeError(w, http.StatusBadRequest, msgInvalidReceipt)
		default:
			slog.Error("Error processing receipt", "error", err)
			writeError(w, http.StatusInternalServerError, msgInternalError)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

// handleGetPoints returns the points awarded to a receipt
func (s *Server) handleGetPoints(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	points, err := s.service.GetPoints(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, msgNotFound)
			return
		}
		slog.Error("Error getting points", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"points": points})
}
