package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/kb-scope-api/internal/middleware"
)

// Router настраивает маршруты API
type Router struct {
	mux           *http.ServeMux
	logger        *slog.Logger
	deptHandler   *DepartmentHandler
	kbHandler     *KBHandler
	searchHandler *SearchHandler
}

// NewRouter создаёт новый роутер
func NewRouter(
	deptHandler *DepartmentHandler,
	kbHandler *KBHandler,
	searchHandler *SearchHandler,
	logger *slog.Logger,
) *Router {
	return &Router{
		mux:           http.NewServeMux(),
		logger:        logger,
		deptHandler:   deptHandler,
		kbHandler:     kbHandler,
		searchHandler: searchHandler,
	}
}

// Setup настраивает все маршруты
func (r *Router) Setup() http.Handler {
	// Регистрируем обработчики
	r.mux.HandleFunc("/departments/", r.departmentsRouter)
	r.mux.HandleFunc("/kb/", r.kbRouter)
	r.mux.HandleFunc("/files/", r.filesRouter)
	r.mux.HandleFunc("/users/", r.usersRouter)

	// Health check
	r.mux.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Применяем middleware
	handler := middleware.WithIdentity(r.mux)
	handler = middleware.ContentType(handler)
	handler = middleware.Logger(r.logger)(handler)
	handler = middleware.Recoverer(r.logger)(handler)

	return handler
}

// departmentsRouter обрабатывает все запросы к /departments/
func (r *Router) departmentsRouter(w http.ResponseWriter, req *http.Request) {
	path := strings.TrimPrefix(req.URL.Path, "/departments")
	path = strings.Trim(path, "/")

	// POST /departments/ - создание подразделения
	if path == "" && req.Method == http.MethodPost {
		r.deptHandler.Create(w, req)
		return
	}

	// GET /departments/tree - дерево с числом пользователей
	if path == "tree" && req.Method == http.MethodGet {
		r.deptHandler.GetTree(w, req)
		return
	}

	parts := strings.Split(path, "/")

	if len(parts) == 1 && parts[0] != "" {
		id, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid department id", err.Error())
			return
		}

		// /departments/{id}
		switch req.Method {
		case http.MethodPatch:
			r.deptHandler.Update(w, req, id)
		case http.MethodDelete:
			r.deptHandler.Delete(w, req, id)
		default:
			http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		}
		return
	}

	if len(parts) == 2 && parts[1] == "subtree" && req.Method == http.MethodGet {
		// GET /departments/{id}/subtree
		id, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid department id", err.Error())
			return
		}
		r.deptHandler.GetSubtree(w, req, id)
		return
	}

	http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
}

// kbRouter обрабатывает все запросы к /kb/
func (r *Router) kbRouter(w http.ResponseWriter, req *http.Request) {
	path := strings.TrimPrefix(req.URL.Path, "/kb")
	path = strings.Trim(path, "/")

	// POST /kb/search - поиск баз по подразделениям
	if path == "search" && req.Method == http.MethodPost {
		r.kbHandler.SearchKBs(w, req)
		return
	}

	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] == "" {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	kbID := parts[0]

	switch {
	case len(parts) == 2 && parts[1] == "departments":
		// /kb/{id}/departments
		switch req.Method {
		case http.MethodPost:
			r.kbHandler.Link(w, req, kbID)
		case http.MethodGet:
			r.kbHandler.ListDepartments(w, req, kbID)
		default:
			http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		}

	case len(parts) == 3 && parts[1] == "departments":
		// DELETE /kb/{id}/departments/{deptId}
		if req.Method != http.MethodDelete {
			http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
			return
		}
		deptID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid department id", err.Error())
			return
		}
		r.kbHandler.Unlink(w, req, kbID, deptID)

	case len(parts) == 2 && parts[1] == "access":
		// GET /kb/{id}/access - список контроля доступа
		if req.Method != http.MethodGet {
			http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
			return
		}
		r.kbHandler.AccessList(w, req, kbID)

	case len(parts) == 3 && parts[1] == "access":
		switch {
		case parts[2] == "deny" && req.Method == http.MethodPost:
			r.kbHandler.Deny(w, req, kbID)
		case parts[2] == "allow" && req.Method == http.MethodPost:
			r.kbHandler.Allow(w, req, kbID)
		case parts[2] == "check" && req.Method == http.MethodGet:
			r.kbHandler.CheckAccess(w, req, kbID)
		default:
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		}

	default:
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}
}

// filesRouter обрабатывает все запросы к /files/
func (r *Router) filesRouter(w http.ResponseWriter, req *http.Request) {
	path := strings.TrimPrefix(req.URL.Path, "/files")
	path = strings.Trim(path, "/")

	if path == "search" {
		switch req.Method {
		case http.MethodPost:
			r.searchHandler.Search(w, req)
		case http.MethodGet:
			r.searchHandler.SearchGet(w, req)
		default:
			http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		}
		return
	}

	http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
}

// usersRouter обрабатывает все запросы к /users/
func (r *Router) usersRouter(w http.ResponseWriter, req *http.Request) {
	path := strings.TrimPrefix(req.URL.Path, "/users")
	path = strings.Trim(path, "/")

	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] != "departments" {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id", err.Error())
		return
	}

	switch {
	case len(parts) == 2:
		// /users/{id}/departments
		switch req.Method {
		case http.MethodPost:
			r.deptHandler.AssignUserDepartments(w, req, userID)
		case http.MethodGet:
			r.deptHandler.ListUserDepartments(w, req, userID)
		default:
			http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		}

	case len(parts) == 3:
		// DELETE /users/{id}/departments/{deptId}
		if req.Method != http.MethodDelete {
			http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
			return
		}
		deptID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid department id", err.Error())
			return
		}
		r.deptHandler.RemoveUserDepartment(w, req, userID, deptID)

	case len(parts) == 4 && parts[3] == "primary":
		// PUT /users/{id}/departments/{deptId}/primary
		if req.Method != http.MethodPut {
			http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
			return
		}
		deptID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid department id", err.Error())
			return
		}
		r.deptHandler.SetPrimaryUserDepartment(w, req, userID, deptID)

	default:
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}
}
