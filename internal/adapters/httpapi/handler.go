// Package httpapi serves the prediction, colour and sheet parsing operations
// over HTTP.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"realvision/internal/blob"
	"realvision/internal/core"
	"realvision/internal/ingest"
	"realvision/internal/layer"
	"realvision/internal/logging"
	"realvision/internal/naming"
	"realvision/internal/predict"
	"realvision/pkg/domain"
)

const (
	pathPredict    = "/api/v2/vision/predict"
	pathParseSheet = "/api/v2/vision/parse-sheet"
	pathColor      = "/api/v2/color"
	pathMetrics    = "/metrics"
	pathHealth     = "/healthz"

	maxSheetBytes   = 10 << 20
	maxRequestBytes = 1 << 20

	reasonBadRequest = "invalid_request"
	reasonNoCSV      = "csv_missing"
	reasonInternal   = "internal_error"
	reasonNoSource   = "sheet_source_missing"
)

// Service is the subset of core.Service the handler calls.
type Service interface {
	Predict(ctx context.Context, in core.PredictInput) (*predict.Result, error)
	Color(ctx context.Context, breed string, layers []string) (*naming.Info, error)
	ParseSheet(ctx context.Context, breed string, r io.Reader) (domain.Sheet, error)
	PutSheet(ctx context.Context, breed string, r io.Reader) (blob.Object, domain.Sheet, error)
}

var _ Service = (*core.Service)(nil)

// Handler routes API requests to the service.
type Handler struct {
	Service Service
	// BaseURL prefixes layer keys in prediction responses.
	BaseURL string
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	Log      logging.Logger
}

// NewHandler constructs a handler with the default layer base URL.
func NewHandler(svc Service) *Handler {
	return &Handler{Service: svc, BaseURL: layer.DefaultBaseURL, Log: logging.Nop()}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	switch path {
	case pathPredict:
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed", reasonBadRequest)
			return
		}
		h.handlePredict(w, r)
	case pathColor:
		h.handleColor(w, r)
	case pathParseSheet:
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed", reasonBadRequest)
			return
		}
		h.handleParseSheet(w, r)
	case pathMetrics:
		if h.Gatherer == nil {
			http.NotFound(w, r)
			return
		}
		promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	case pathHealth:
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	default:
		http.NotFound(w, r)
	}
}

type horseInfo struct {
	Sex   string `json:"sex"`
	Breed string `json:"breed"`
}

type predictRequest struct {
	HorseInfo horseInfo         `json:"horse_info"`
	LayerURLs json.RawMessage   `json:"layer_urls"`
	Genes     map[string]string `json:"genes"`
}

type layerDetail struct {
	Key       string         `json:"key"`
	Category  layer.Category `json:"category"`
	HorseType string         `json:"horse_type"`
	BodyPart  string         `json:"body_part"`
	Size      string         `json:"size"`
	ID        string         `json:"id"`
	URL       string         `json:"url"`
	Index     int            `json:"index"`
	Enabled   bool           `json:"enabled"`
}

func newLayerDetail(k layer.Key, baseURL string, index int) layerDetail {
	return layerDetail{
		Key:       k.String(),
		Category:  k.Category,
		HorseType: k.HorseType,
		BodyPart:  k.BodyPart,
		Size:      k.Size,
		ID:        k.ID,
		URL:       k.URL(baseURL),
		Index:     index,
		Enabled:   true,
	}
}

type predictResponse struct {
	Horse      horseInfo `json:"horse"`
	ColorInfo  colorInfo `json:"color_info"`
	Prediction struct {
		Layers []layerDetail `json:"layers"`
	} `json:"prediction"`
	SelectedGenes map[string]string `json:"selected_genes"`
}

type colorInfo struct {
	Dilution string   `json:"dilution"`
	Color    string   `json:"color"`
	Notes    []string `json:"notes"`
}

// decodeLayerURLs accepts a JSON array of strings or one newline separated string.
func decodeLayerURLs(raw json.RawMessage) ([]string, error) {
	invalid := &domain.ValidationError{Reason: domain.ReasonLayersType, Message: "invalid layer URLs passed"}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, invalid
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var joined string
	if err := json.Unmarshal(raw, &joined); err == nil {
		return layer.SplitLines(joined), nil
	}
	return nil, invalid
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", reasonBadRequest)
		return
	}
	urls, err := decodeLayerURLs(req.LayerURLs)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	genes := req.Genes
	if genes == nil {
		genes = map[string]string{}
	}
	res, err := h.Service.Predict(r.Context(), core.PredictInput{
		Breed:  req.HorseInfo.Breed,
		Sex:    req.HorseInfo.Sex,
		Layers: urls,
		Genes:  genes,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	var resp predictResponse
	resp.Horse = req.HorseInfo
	resp.ColorInfo = colorInfo{Dilution: res.Dilution, Color: res.Color, Notes: nonNil(res.Notes)}
	resp.Prediction.Layers = make([]layerDetail, len(res.Layers))
	for i, k := range res.Layers {
		resp.Prediction.Layers[i] = newLayerDetail(k, h.BaseURL, i)
	}
	resp.SelectedGenes = genes
	writeJSON(w, http.StatusOK, resp)
}

type colorRequest struct {
	Breed  string   `json:"breed"`
	Layers []string `json:"layer"`
}

func (h *Handler) handleColor(w http.ResponseWriter, r *http.Request) {
	var req colorRequest
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Breed = q.Get("breed")
		req.Layers = q["layer"]
	case http.MethodPost:
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body", reasonBadRequest)
			return
		}
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", reasonBadRequest)
		return
	}
	if strings.TrimSpace(req.Breed) == "" {
		writeError(w, http.StatusBadRequest, "breed is required", reasonBadRequest)
		return
	}
	info, err := h.Service.Color(r.Context(), req.Breed, req.Layers)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, colorInfo{Dilution: info.Dilution, Color: info.Color, Notes: nonNil(info.Notes)})
}

type storedSheet struct {
	Object blob.Object  `json:"object"`
	Sheet  domain.Sheet `json:"sheet"`
}

// handleParseSheet accepts a multipart upload in field "csv" or a raw CSV
// body. The breed comes from the "breed" parameter or the file name. With
// store=1 a valid sheet is also saved to the sheet source.
func (h *Handler) handleParseSheet(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSheetBytes)
	breed := r.URL.Query().Get("breed")
	var body io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, hdr, err := r.FormFile("csv")
		if err != nil {
			writeError(w, http.StatusBadRequest, "must provide a CSV to parse", reasonNoCSV)
			return
		}
		defer func() { _ = file.Close() }()
		if v := r.FormValue("breed"); v != "" {
			breed = v
		}
		if breed == "" {
			breed = ingest.BreedFromKey(hdr.Filename)
		}
		body = file
	}
	if store, _ := strconv.ParseBool(r.URL.Query().Get("store")); store {
		obj, sh, err := h.Service.PutSheet(r.Context(), breed, body)
		if err != nil {
			h.logger().Debug("failed to store sheet", "breed", breed, "error", err)
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, storedSheet{Object: obj, Sheet: sh})
		return
	}
	sh, err := h.Service.ParseSheet(r.Context(), breed, body)
	if err != nil {
		h.logger().Debug("failed to parse sheet", "breed", breed, "error", err)
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sh)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var nf *domain.NotFoundError
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &nf):
		writeError(w, http.StatusNotFound, nf.Error(), nf.Reason)
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error(), ve.Reason)
	case errors.Is(err, core.ErrNoSheetSource):
		writeError(w, http.StatusNotImplemented, "no sheet source configured", reasonNoSource)
	default:
		h.logger().Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error", reasonInternal)
	}
}

func (h *Handler) logger() logging.Logger {
	if h.Log == nil {
		return logging.Nop()
	}
	return h.Log
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, name string) {
	writeJSON(w, status, map[string]any{"error": message, "name": name})
}
