package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router thin wrapper over the standard http.ServeMux (no third-party
// routing dependency needed for this surface).
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler supports the http.Handler interface (promhttp etc.).
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterPeopleRoutes registers the person CRUD surface behind the auth
// gate. Identified routes parse the id out of the path; a missing or
// non-numeric id is not-found, same as an unknown one.
func (r *Router) RegisterPeopleRoutes(h *PersonHandler, gate AuthGate) {
	r.Handle("/people", gate.RequireSession(func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.List(w, req)
		case http.MethodPost:
			h.Create(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))

	r.Handle("/people/new", gate.RequireSession(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.NewForm(w, req)
	}))

	r.Handle("/people/export", gate.RequireSession(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Export(w, req)
	}))

	// /people/{id}[/edit|/delete]
	r.Handle("/people/", gate.RequireSession(func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/people/")
		idPart, action, _ := strings.Cut(rest, "/")
		id, ok := parseInt64(idPart)
		if !ok {
			writeJSON(w, http.StatusNotFound, Fail("person not found"))
			return
		}

		switch action {
		case "":
			if req.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.Detail(w, req, id)
		case "edit":
			switch req.Method {
			case http.MethodGet:
				h.EditForm(w, req, id)
			case http.MethodPost:
				h.Edit(w, req, id)
			default:
				w.WriteHeader(http.StatusMethodNotAllowed)
			}
		case "delete":
			switch req.Method {
			case http.MethodGet:
				h.DeleteForm(w, req, id)
			case http.MethodPost:
				h.DeleteConfirmed(w, req, id)
			default:
				w.WriteHeader(http.StatusMethodNotAllowed)
			}
		default:
			writeJSON(w, http.StatusNotFound, Fail("person not found"))
		}
	}))
}

// RegisterAuthRoutes login/logout redirect flow; never behind the gate.
func (r *Router) RegisterAuthRoutes(h *AuthHandler) {
	r.Handle("/auth/login", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Login(w, req)
	})
	r.Handle("/auth/callback", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Callback(w, req)
	})
	r.Handle("/auth/logout", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Logout(w, req)
	})
}

// RegisterOpsRoutes health and metrics; never behind the gate.
func (r *Router) RegisterOpsRoutes(metricsHandler http.Handler) {
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "up"}))
	})
	r.HandleHandler("/metrics", metricsHandler)
}
