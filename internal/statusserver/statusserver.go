package statusserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/muhsaibcf/mcf-bot/internal/editwindow"
	"github.com/muhsaibcf/mcf-bot/internal/logger"
	"github.com/muhsaibcf/mcf-bot/internal/storage"
)

type middlewareFunc func(next http.Handler) http.Handler

// StatusServer отдает состояние бота для проверок хостинга
type StatusServer struct {
	Log        logger.Logger
	middlwares []middlewareFunc
	mux        http.Handler
	address    string
	server     *http.Server
}

// healthInfo — тело ответа /health
type healthInfo struct {
	Rows           int  `json:"rows"`
	EditingAllowed bool `json:"editing_allowed"`
	DaysLeft       int  `json:"days_left"`
	OpenPolls      int  `json:"open_polls"`
}

// NewRouter собирает маршруты статусного сервера
func NewRouter(roster storage.Roster, state *storage.StateStore, window *editwindow.Window, log logger.Logger) chi.Router {
	r := chi.NewRouter()

	return r.Route("/", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			if _, err := w.Write([]byte("pong")); err != nil {
				log.Errorf("Ошибка записи ответа /ping: %v", err)
			}
		})

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			now := time.Now()
			info := healthInfo{
				Rows:           roster.Len(),
				EditingAllowed: window.Allowed(now),
				DaysLeft:       window.DaysLeft(now),
				OpenPolls:      len(state.OpenPolls(now)),
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			if err := json.NewEncoder(w).Encode(info); err != nil {
				log.Errorf("Ошибка записи ответа /health: %v", err)
			}
		})
	})
}

func NewStatusServer(adress string, mux http.Handler, Log logger.Logger) *StatusServer {
	return &StatusServer{
		address: adress,
		mux:     mux,
		Log:     Log,
	}
}

func (ss *StatusServer) AddMidleware(funcs ...middlewareFunc) {
	ss.middlwares = append(ss.middlwares, funcs...)
}

func (ss *StatusServer) RunServer() {
	handler := ss.mux

	for _, f := range ss.middlwares {
		handler = f(handler)
	}

	ss.server = &http.Server{
		Addr:    ss.address,
		Handler: handler,
	}
	ss.Log.Infof("Starting server on %s", ss.address)
	if err := ss.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		ss.Log.Errorf("starting server on %s error: %s", ss.address, err)
	}
}

func (ss *StatusServer) Shutdown(ctx context.Context) error {
	return ss.server.Shutdown(ctx)
}
