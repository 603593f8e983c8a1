package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ori-shem-tov/stark-vrf-oracle/codec"
	"github.com/ori-shem-tov/stark-vrf-oracle/vrf"
	log "github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

var (
	errRateLimited = errors.New("rate limit exceeded")
	errBadRequest  = errors.New("bad request")
)

// InfoResponse is the body of GET /info.
type InfoResponse = vrf.PublicKeyInfo

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (v *VRFDaemon) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(v.instrument)

	r.HandleFunc("/", v.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/info", v.handleInfo).Methods(http.MethodGet)
	r.Handle("/metrics", v.metrics.handler()).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	api.Use(v.rateLimit)
	api.HandleFunc("/proof", v.handleProof).Methods(http.MethodPost)
	api.HandleFunc("/outside_execution", v.handleOutsideExecution).Methods(http.MethodPost)
	return r
}

func (v *VRFDaemon) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("OK"))
}

func (v *VRFDaemon) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := v.Prover.PublicKeyInfo(r.Context())
	if err != nil {
		writeError(w, r, http.StatusBadGateway, fmt.Errorf("%w: %v", ErrProvider, err))
		return
	}
	writeJSON(w, r, http.StatusOK, info)
}

func (v *VRFDaemon) handleProof(w http.ResponseWriter, r *http.Request) {
	var req vrf.ProofRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if len(req.Seed) == 0 {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("%w: seed is required", errBadRequest))
		return
	}
	seed, err := codec.ParseFelt(req.Seed[0])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	proof, hint, err := vrf.ProveWithHint(r.Context(), v.Prover, seed)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	rnd, err := vrf.ProofToHash(proof)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	v.metrics.proofs.WithLabelValues("Seed").Inc()
	writeJSON(w, r, http.StatusOK, vrf.ProofResponse{Result: vrf.NewProofResult(proof, hint, rnd)})
}

func (v *VRFDaemon) handleOutsideExecution(w http.ResponseWriter, r *http.Request) {
	var req OutsideExecutionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	result, err := v.OutsideExecution(r.Context(), req)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, r, http.StatusOK, OutsideExecutionResponse{Result: result})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNoRequestRandom), errors.Is(err, ErrNoCallAfterRequestRandom):
		return http.StatusNotFound
	case errors.Is(err, ErrRequestContext), errors.Is(err, codec.ErrEncoding):
		return http.StatusBadRequest
	case errors.Is(err, ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	b, err := json.Marshal(body)
	if err != nil {
		log.WithField("request_id", RequestID(r.Context())).Errorf("failed encoding response: %v", err)
		status = http.StatusInternalServerError
		b, _ = json.Marshal(errorResponse{Error: "failed encoding response", RequestID: RequestID(r.Context())})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	entry := log.WithFields(log.Fields{"request_id": RequestID(r.Context()), "status": status})
	if status >= http.StatusInternalServerError {
		entry.Errorf("request failed: %v", err)
	} else {
		entry.Infof("request rejected: %v", err)
	}
	writeJSON(w, r, status, errorResponse{Error: err.Error(), RequestID: RequestID(r.Context())})
}
