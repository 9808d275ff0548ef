// Command decrim-mock stands in for the identity vendor during local runs.
// Point DECRIM_REGISTRO_URL and DECRIM_CONSULTA_URL at it.
package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
)

type server struct {
	nextCase atomic.Int64
	mu       sync.Mutex
	cases    map[string]string // case id -> document
	byDoc    map[string]string // document -> case id
	verdict  string
	baseURL  string
	logger   *slog.Logger
}

type envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	s := &server{
		cases:   map[string]string{},
		byDoc:   map[string]string{},
		verdict: getenv("MOCK_VERDICT", "5"),
		baseURL: getenv("MOCK_PUBLIC_URL", "http://localhost:9090"),
		logger:  logger,
	}
	s.nextCase.Store(1000)

	r := chi.NewRouter()
	r.Post("/api/digital/crear/registro.php", s.register)
	r.Post("/api/validacion/consultar/caso.php", s.query)

	addr := getenv("MOCK_ADDR", ":9090")
	logger.Info("decrim mock listening", "addr", addr, "verdict", s.verdict)
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Error("mock stopped", "error", err)
		os.Exit(1)
	}
}

func (s *server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Dni     string `json:"Dni"`
		Nombres string `json:"Nombres"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Dni == "" {
		writeJSON(w, http.StatusBadRequest, envelope{Status: http.StatusBadRequest, Message: "Dni requerido"})
		return
	}
	id := strconv.FormatInt(s.nextCase.Add(1), 10)
	s.mu.Lock()
	s.cases[id] = req.Dni
	s.byDoc[req.Dni] = id
	s.mu.Unlock()

	s.logger.Info("case registered", "case_id", id, "dni", req.Dni)
	writeJSON(w, http.StatusOK, envelope{Status: http.StatusOK, Data: map[string]string{
		"Codigo": id,
		"Url":    s.baseURL + "/validar/" + id,
	}})
}

func (s *server) query(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Idcaso string `json:"Idcaso"`
		Dni    string `json:"Dni"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Status: http.StatusBadRequest, Message: "JSON invalido"})
		return
	}

	s.mu.Lock()
	caseID := req.Idcaso
	if caseID == "" || caseID == "0" {
		caseID = s.byDoc[req.Dni]
	}
	_, known := s.cases[caseID]
	s.mu.Unlock()

	if !known {
		writeJSON(w, http.StatusOK, envelope{Status: http.StatusNotFound, Message: "Caso no encontrado"})
		return
	}
	writeJSON(w, http.StatusOK, envelope{Status: http.StatusOK, Data: map[string]string{
		"Estado":        s.verdict,
		"Idcaso":        caseID,
		"Justificacion": "Respuesta simulada",
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
