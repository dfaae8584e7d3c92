package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ssargent/slow5/internal/logging"
	"github.com/ssargent/slow5/pkg/query"
	"github.com/ssargent/slow5/pkg/slow5"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// Server holds the API server state. A Reader is single-goroutine, so every
// handler touching it holds mu.
type Server struct {
	mu      sync.Mutex
	source  ReadSource
	queries *query.SimpleQueryEngine
	config  ServerConfig
	metrics *Metrics
	logger  zerolog.Logger
}

// NewServer creates a new API server over an open file
func NewServer(source ReadSource, config ServerConfig, metrics *Metrics) *Server {
	return &Server{
		source:  source,
		queries: query.NewSimpleQueryEngine(source, nil),
		config:  config,
		metrics: metrics,
		logger:  logging.Logger("api"),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

func (s *Server) handleHeader(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.mu.Lock()
	resp, err := s.header()
	s.mu.Unlock()
	s.metrics.RecordFileOperation("header", err == nil, time.Since(start))
	if err != nil {
		s.sendSlow5Error(w, err)
		return
	}
	sendSuccess(w, resp)
}

func (s *Server) header() (*HeaderResponse, error) {
	h := s.source.Header()
	resp := &HeaderResponse{
		Path:              s.source.Path(),
		NumReadGroups:     h.NumReadGroups(),
		RecordCompression: h.RecordCompression().String(),
		SignalCompression: h.SignalCompression().String(),
		Attributes:        make([]map[string]string, h.NumReadGroups()),
		Fields:            []FieldResponse{},
	}
	keys := h.AttributeKeys()
	for g := uint32(0); g < h.NumReadGroups(); g++ {
		attrs := make(map[string]string, len(keys))
		for _, key := range keys {
			v, err := h.Attribute(key, g)
			if errors.Is(err, slow5.ErrAttributeNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			attrs[key] = v
		}
		resp.Attributes[g] = attrs
	}
	for _, d := range s.source.Fields() {
		f := FieldResponse{
			Name:       d.Name,
			Type:       d.Type.String(),
			Policy:     d.Policy.String(),
			EnumLabels: d.EnumLabels,
		}
		if d.Default.IsValid() {
			f.Default = jsonValue(d.Default.Interface())
		}
		resp.Fields = append(resp.Fields, f)
	}
	return resp, nil
}

func (s *Server) handleListReads(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxListLimit {
			sendError(w, fmt.Sprintf("limit must be between 1 and %d", maxListLimit), http.StatusBadRequest)
			return
		}
		limit = n
	}
	after := r.URL.Query().Get("after")
	where, err := query.ParseFieldQueries(r.URL.Query()["where"])
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	resp, found, err := s.listReads(r.Context(), where, after, limit)
	s.mu.Unlock()
	s.metrics.RecordFileOperation("list", err == nil && found, time.Since(start))
	if err != nil {
		s.sendSlow5Error(w, err)
		return
	}
	if !found {
		sendError(w, fmt.Sprintf("Unknown cursor %q", after), http.StatusBadRequest)
		return
	}
	sendSuccess(w, resp)
}

// listReads returns up to limit ids matching where and following after.
// found is false when after names no listed read.
func (s *Server) listReads(ctx context.Context, where []query.FieldQuery, after string, limit int) (*ReadListResponse, bool, error) {
	resp := &ReadListResponse{ReadIDs: []string{}}
	skipping := after != ""
	page := func(id string) bool {
		if skipping {
			if id == after {
				skipping = false
			}
			return true
		}
		if len(resp.ReadIDs) == limit {
			resp.Next = resp.ReadIDs[limit-1]
			return false
		}
		resp.ReadIDs = append(resp.ReadIDs, id)
		return true
	}

	if len(where) > 0 {
		ids, err := s.queries.ReadIDs(ctx, where...)
		if err != nil {
			return nil, false, err
		}
		for _, id := range ids {
			if !page(id) {
				break
			}
		}
		return resp, !skipping, nil
	}

	it := s.source.ReadIDs()
	for it.Next() {
		if !page(it.ReadID()) {
			break
		}
	}
	if err := it.Err(); err != nil {
		return nil, false, err
	}
	return resp, !skipping, nil
}

func (s *Server) handleGetRead(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	readID := chi.URLParam(r, "id")
	if readID == "" {
		sendError(w, "Read id is required", http.StatusBadRequest)
		return
	}
	signal := r.URL.Query().Get("signal")
	switch signal {
	case "", "raw", "picoamps", "none":
	default:
		sendError(w, "signal must be one of raw, picoamps, none", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	rec, err := s.source.Get(readID)
	s.mu.Unlock()
	s.metrics.RecordFileOperation("get", err == nil, time.Since(start))
	if err != nil {
		s.sendSlow5Error(w, err)
		return
	}
	sendSuccess(w, NewReadResponse(rec, signal))
}

// NewReadResponse converts a record. signal is "raw" (or empty),
// "picoamps" or "none". Records are independent of the Reader, so this runs
// without the lock.
func NewReadResponse(rec *slow5.Record, signal string) *ReadResponse {
	resp := &ReadResponse{
		ReadID:       rec.ReadID(),
		ReadGroup:    rec.ReadGroup(),
		Digitisation: finite(rec.Digitisation()),
		Offset:       finite(rec.Offset()),
		Range:        finite(rec.Range()),
		SamplingRate: finite(rec.SamplingRate()),
		LenRawSignal: rec.Len(),
	}
	switch signal {
	case "", "raw":
		resp.RawSignal = rec.RawSignal()
	case "picoamps":
		pa := rec.Picoamps()
		resp.Picoamps = make([]*float64, len(pa))
		for i, f := range pa {
			resp.Picoamps[i] = finite(f)
		}
	}
	for _, name := range rec.AuxNames() {
		v, err := rec.Aux(name)
		if err != nil {
			continue
		}
		if resp.Aux == nil {
			resp.Aux = make(map[string]interface{})
		}
		resp.Aux[name] = jsonValue(v.Interface())
	}
	return resp
}

// finite returns nil for NaN and the infinities, which JSON cannot carry
func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// jsonValue makes an aux value encodable: byte arrays become numbers and
// non-finite floats become null.
func jsonValue(v interface{}) interface{} {
	switch x := v.(type) {
	case []uint8:
		out := make([]uint16, len(x))
		for i, b := range x {
			out[i] = uint16(b)
		}
		return out
	case float32:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return nil
		}
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
	case []float32:
		out := make([]interface{}, len(x))
		for i, f := range x {
			out[i] = jsonValue(f)
		}
		return out
	case []float64:
		out := make([]interface{}, len(x))
		for i, f := range x {
			out[i] = jsonValue(f)
		}
		return out
	}
	return v
}

// sendSlow5Error maps a library error onto an HTTP status
func (s *Server) sendSlow5Error(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, slow5.ErrReadIDNotFound):
		sendError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, slow5.ErrHandleClosed):
		sendError(w, err.Error(), http.StatusServiceUnavailable)
	case slow5.KindOf(err) == slow5.KindValidation, errors.Is(err, query.ErrInvalidQuery):
		sendError(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error().Err(err).Msg("request failed")
		sendError(w, err.Error(), http.StatusInternalServerError)
	}
}
