// Package api exposes the header database core over HTTP: unauthenticated
// reads, and bearer-JWT-authenticated writes, mirroring the split
// go-ethereum draws between its public RPC surface and its Engine API
// (which requires exactly this JWT bearer scheme against a shared
// secret).
package api

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/cors"

	"github.com/ethergate/headerdb/core/headerdb"
	"github.com/ethergate/headerdb/core/types"
	"github.com/ethergate/headerdb/query"
)

// Server is the HTTP front end over a ChainWriter. GET endpoints are
// open; POST /headers requires a valid bearer JWT.
type Server struct {
	writer    *headerdb.ChainWriter
	jwtSecret []byte
	mux       *http.ServeMux
}

// NewServer builds a Server. jwtSecret authenticates mutating requests;
// a nil or empty secret disables the mutating endpoint entirely rather
// than accepting unauthenticated writes.
func NewServer(writer *headerdb.ChainWriter, jwtSecret []byte) *Server {
	s := &Server{writer: writer, jwtSecret: jwtSecret, mux: http.NewServeMux()}
	s.mux.HandleFunc("/headers/", s.handleGetHeader)
	s.mux.HandleFunc("/head", s.handleGetHead)
	s.mux.HandleFunc("/query", s.handleQuery)
	s.mux.HandleFunc("/headers", s.handlePostHeaders)
	return s
}

// Handler wraps the server's mux with a browser-safe CORS policy, the
// same role rs/cors plays in front of go-ethereum's own JSON-RPC HTTP
// handler.
func (s *Server) Handler(corsDomains []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: corsDomains,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	return c.Handler(s.mux)
}

func (s *Server) handleGetHeader(w http.ResponseWriter, r *http.Request) {
	hashHex := strings.TrimPrefix(r.URL.Path, "/headers/")
	hash := common.HexToHash(hashHex)
	header, err := s.writer.Store().GetHeaderByHash(hash)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, header)
}

func (s *Server) handleGetHead(w http.ResponseWriter, r *http.Request) {
	head, err := s.writer.Canon().GetCanonicalHead()
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, head)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	fromStr, toStr, expr := r.URL.Query().Get("from"), r.URL.Query().Get("to"), r.URL.Query().Get("expr")
	from, err := strconv.ParseUint(fromStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid 'from': %w", err))
		return
	}
	to, err := strconv.ParseUint(toStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid 'to': %w", err))
		return
	}
	var filter *query.Filter
	if expr != "" {
		filter, err = query.NewFilter(expr)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	var matches []*types.Header
	for n := from; n <= to; n++ {
		header, err := s.writer.Canon().GetCanonicalHeaderByNumber(n)
		if err != nil {
			continue
		}
		if filter == nil {
			matches = append(matches, header)
			continue
		}
		ok, err := filter.Match(header)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if ok {
			matches = append(matches, header)
		}
	}
	writeJSON(w, matches)
}

type insertRequest struct {
	Headers []*types.Header `json:"headers"`
}

type insertResponse struct {
	NewCanonical int `json:"newCanonical"`
	OldCanonical int `json:"oldCanonical"`
}

func (s *Server) handlePostHeaders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	if err := s.authenticate(r); err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	var req insertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	newCanonical, oldCanonical, err := s.writer.PersistChain(req.Headers)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	log.Info("Inserted headers via API", "count", len(req.Headers), "new", len(newCanonical), "old", len(oldCanonical))
	writeJSON(w, insertResponse{NewCanonical: len(newCanonical), OldCanonical: len(oldCanonical)})
}

// authenticate validates the bearer JWT the same way go-ethereum's Engine
// API validates its own: HS256 signed with the shared secret, issued (iat)
// within the last and next 60 seconds to bound replay.
func (s *Server) authenticate(r *http.Request) error {
	if len(s.jwtSecret) == 0 {
		return fmt.Errorf("api: mutating endpoint disabled, no JWT secret configured")
	}
	auth := r.Header.Get("Authorization")
	tokenStr, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return fmt.Errorf("api: missing bearer token")
	}
	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("api: unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return fmt.Errorf("api: invalid token: %w", err)
	}
	if claims.IssuedAt == nil || time.Since(claims.IssuedAt.Time).Abs() > 60*time.Second {
		return fmt.Errorf("api: stale token")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("Failed to encode API response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// DecodeJWTSecret parses a hex-encoded 32-byte secret the way
// go-ethereum's Engine API JWT loader does, tolerating an optional "0x"
// prefix.
func DecodeJWTSecret(hexSecret string) ([]byte, error) {
	hexSecret = strings.TrimPrefix(hexSecret, "0x")
	secret, err := hex.DecodeString(hexSecret)
	if err != nil {
		return nil, fmt.Errorf("api: invalid JWT secret: %w", err)
	}
	if len(secret) != 32 {
		return nil, fmt.Errorf("api: JWT secret must be 32 bytes, got %d", len(secret))
	}
	return secret, nil
}
