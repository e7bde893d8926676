package dirserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/atinylittleshell/userfind/internal/directory"
	"github.com/atinylittleshell/userfind/pkg/userline"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Users is the backing store for the directory endpoint.
type Users interface {
	FindByUsername(ctx context.Context, username string) ([]userline.UserRecord, error)
	All(ctx context.Context) ([]userline.UserRecord, error)
}

// Server serves GET /users in the same shape as the public directory.
type Server struct {
	users  Users
	logger *zap.Logger
}

func New(users Users, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{users: users, logger: logger}
}

// Handler returns the HTTP routes of the directory.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/users", s.usersHandler())
	return mux
}

func (s *Server) usersHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(directory.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(directory.RequestIDHeader, requestID)
		logger := s.logger.With(zap.String("request_id", requestID))

		if r.Method != http.MethodGet {
			w.Header().Set("Allow", "GET")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var (
			users []userline.UserRecord
			err   error
		)
		query := r.URL.Query()
		if query.Has("username") {
			users, err = s.users.FindByUsername(r.Context(), query.Get("username"))
		} else {
			users, err = s.users.All(r.Context())
		}
		if err != nil {
			logger.Error("dirserver query failed", zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if users == nil {
			users = []userline.UserRecord{}
		}

		data, err := json.Marshal(users)
		if err != nil {
			logger.Error("dirserver failed to encode users", zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Add("Vary", "Accept-Encoding")
		if acceptsBrotli(r.Header.Get("Accept-Encoding")) {
			compressed, err := compress(data)
			if err != nil {
				logger.Error("dirserver failed to compress response", zap.Error(err))
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Encoding", "br")
			data = compressed
		}

		if _, err := w.Write(data); err != nil {
			logger.Debug("dirserver failed to write response", zap.Error(err))
			return
		}
		logger.Debug("dirserver served users",
			zap.String("username", query.Get("username")),
			zap.Int("count", len(users)),
		)
	})
}

// acceptsBrotli reports whether br appears in Accept-Encoding without q=0.
func acceptsBrotli(header string) bool {
	for _, part := range strings.Split(header, ",") {
		fields := strings.Split(part, ";")
		if strings.TrimSpace(strings.ToLower(fields[0])) != "br" {
			continue
		}
		for _, param := range fields[1:] {
			param = strings.ReplaceAll(param, " ", "")
			if param == "q=0" || param == "q=0.0" || param == "q=0.00" || param == "q=0.000" {
				return false
			}
		}
		return true
	}
	return false
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
	if _, err := writer.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Serve runs the directory on listener until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(listener)
	}()
	s.logger.Info("dirserver listening", zap.String("addr", listener.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("directory server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("directory server shutdown: %w", err)
	}
	s.logger.Info("dirserver stopped")
	return nil
}

// ListenAndServe binds addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}
