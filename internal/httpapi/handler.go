package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gtechitgaminghub-byte/gamezone/internal/models"
	"github.com/gtechitgaminghub-byte/gamezone/internal/store"
)

type Handler struct {
	store      store.Store
	cookies    *cookieCodec
	sessionTTL time.Duration
}

type Options struct {
	CookieSecret string
	CookieSecure bool
	SessionTTL   time.Duration
}

type errorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func NewHandler(store store.Store, options Options) *Handler {
	ttl := options.SessionTTL
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Handler{
		store:      store,
		cookies:    newCookieCodec(options.CookieSecret, options.CookieSecure),
		sessionTTL: ttl,
	}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", h.handleLogin)
	mux.HandleFunc("/api/auth/logout", h.handleLogout)
	mux.HandleFunc("/api/auth/me", h.handleMe)
	mux.HandleFunc("/api/users", h.handleUsers)
	mux.HandleFunc("/api/users/", h.handleUser)
	mux.HandleFunc("/api/pcs", h.handlePcs)
	mux.HandleFunc("/api/pcs/", h.handlePc)
	mux.HandleFunc("/api/sessions", h.handleSessions)
	mux.HandleFunc("/api/sessions/", h.handleSessionEnd)
	mux.HandleFunc("/api/stats", h.handleStats)
	mux.HandleFunc("/healthz", h.handleHealth)
	return mux
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !CheckPassword(user.Password, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	session, err := h.store.CreateAuthSession(r.Context(), user.ID, time.Now().UTC().Add(h.sessionTTL))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	cookie, err := h.cookies.sessionCookie(session.Token, session.ExpiresAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	http.SetCookie(w, cookie)
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if token := h.cookies.token(r); token != "" {
		if err := h.store.DeleteAuthSession(r.Context(), token); err != nil {
			log.Printf("delete auth session: %v", err)
		}
	}
	http.SetCookie(w, h.cookies.expiredCookie())
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user, ok := h.requireAuth(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type createUserRequest struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	Role           string `json:"role"`
	BalanceMinutes int    `json:"balanceMinutes"`
}

func (h *Handler) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := h.requireAuth(w, r); !ok {
			return
		}
		users, err := h.store.ListUsers(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if users == nil {
			users = []models.User{}
		}
		writeJSON(w, http.StatusOK, users)
	case http.MethodPost:
		// Registration stays open; everything else on users requires a session.
		var req createUserRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" {
			writeFieldError(w, http.StatusBadRequest, "username is required", "username")
			return
		}
		if req.Password == "" {
			writeFieldError(w, http.StatusBadRequest, "password is required", "password")
			return
		}
		if req.Role == "" {
			req.Role = models.RoleRenter
		}
		if !models.ValidRole(req.Role) {
			writeFieldError(w, http.StatusBadRequest, "role must be super_admin, admin, or renter", "role")
			return
		}
		if req.BalanceMinutes < 0 {
			writeFieldError(w, http.StatusBadRequest, "balanceMinutes must not be negative", "balanceMinutes")
			return
		}

		hashed, err := HashPassword(req.Password)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		user, err := h.store.CreateUser(r.Context(), store.CreateUserInput{
			Username:       req.Username,
			Password:       hashed,
			Role:           req.Role,
			BalanceMinutes: req.BalanceMinutes,
		})
		if err != nil {
			if errors.Is(err, store.ErrUsernameTaken) {
				writeFieldError(w, http.StatusBadRequest, "username already taken", "username")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		h.recordAudit(r, "user.create", fmt.Sprintf("user %d (%s)", user.ID, user.Username))
		writeJSON(w, http.StatusCreated, user)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type updateUserRequest struct {
	Username       *string `json:"username"`
	Password       *string `json:"password"`
	Role           *string `json:"role"`
	BalanceMinutes *int    `json:"balanceMinutes"`
}

func (h *Handler) handleUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAuth(w, r); !ok {
		return
	}
	id, ok := parseID(strings.TrimPrefix(r.URL.Path, "/api/users/"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req updateUserRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if req.Username != nil && strings.TrimSpace(*req.Username) == "" {
			writeFieldError(w, http.StatusBadRequest, "username must not be empty", "username")
			return
		}
		if req.Role != nil && !models.ValidRole(*req.Role) {
			writeFieldError(w, http.StatusBadRequest, "role must be super_admin, admin, or renter", "role")
			return
		}
		if req.BalanceMinutes != nil && *req.BalanceMinutes < 0 {
			writeFieldError(w, http.StatusBadRequest, "balanceMinutes must not be negative", "balanceMinutes")
			return
		}
		input := store.UpdateUserInput{
			Username:       req.Username,
			Role:           req.Role,
			BalanceMinutes: req.BalanceMinutes,
		}
		if req.Password != nil {
			if *req.Password == "" {
				writeFieldError(w, http.StatusBadRequest, "password must not be empty", "password")
				return
			}
			hashed, err := HashPassword(*req.Password)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			input.Password = &hashed
		}
		user, err := h.store.UpdateUser(r.Context(), id, input)
		if err != nil {
			switch {
			case errors.Is(err, store.ErrUserNotFound):
				writeError(w, http.StatusNotFound, "user not found")
			case errors.Is(err, store.ErrUsernameTaken):
				writeFieldError(w, http.StatusBadRequest, "username already taken", "username")
			default:
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
			return
		}
		h.recordAudit(r, "user.update", fmt.Sprintf("user %d", id))
		writeJSON(w, http.StatusOK, user)
	case http.MethodDelete:
		if err := h.store.DeleteUser(r.Context(), id); err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				writeError(w, http.StatusNotFound, "user not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		h.recordAudit(r, "user.delete", fmt.Sprintf("user %d", id))
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type createPcRequest struct {
	Name       string `json:"name"`
	IPAddress  string `json:"ipAddress"`
	MACAddress string `json:"macAddress"`
	Status     string `json:"status"`
}

func (h *Handler) handlePcs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		pcs, err := h.store.ListPcs(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if pcs == nil {
			pcs = []models.Pc{}
		}
		writeJSON(w, http.StatusOK, pcs)
	case http.MethodPost:
		if _, ok := h.requireAuth(w, r); !ok {
			return
		}
		var req createPcRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeFieldError(w, http.StatusBadRequest, "name is required", "name")
			return
		}
		if req.Status != "" && !models.ValidPcStatus(req.Status) {
			writeFieldError(w, http.StatusBadRequest, "status must be online, offline, or in_session", "status")
			return
		}
		pc, err := h.store.CreatePc(r.Context(), store.CreatePcInput{
			Name:       req.Name,
			IPAddress:  req.IPAddress,
			MACAddress: req.MACAddress,
			Status:     req.Status,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		h.recordAudit(r, "pc.create", fmt.Sprintf("pc %d (%s)", pc.ID, pc.Name))
		writeJSON(w, http.StatusCreated, pc)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type updatePcRequest struct {
	Name       *string `json:"name"`
	IPAddress  *string `json:"ipAddress"`
	MACAddress *string `json:"macAddress"`
	Status     *string `json:"status"`
}

func (h *Handler) handlePc(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/pcs/")

	// Device heartbeat; stations report in without a login session.
	if suffix, ok := strings.CutSuffix(rest, "/ping"); ok {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		id, ok := parseID(suffix)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid pc id")
			return
		}
		pc, err := h.store.RecordPcPing(r.Context(), id, time.Now().UTC())
		if err != nil {
			if errors.Is(err, store.ErrPcNotFound) {
				writeError(w, http.StatusNotFound, "pc not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		writeJSON(w, http.StatusOK, pc)
		return
	}

	if _, ok := h.requireAuth(w, r); !ok {
		return
	}
	id, ok := parseID(rest)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid pc id")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req updatePcRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
			writeFieldError(w, http.StatusBadRequest, "name must not be empty", "name")
			return
		}
		if req.Status != nil && !models.ValidPcStatus(*req.Status) {
			writeFieldError(w, http.StatusBadRequest, "status must be online, offline, or in_session", "status")
			return
		}
		pc, err := h.store.UpdatePc(r.Context(), id, store.UpdatePcInput{
			Name:       req.Name,
			IPAddress:  req.IPAddress,
			MACAddress: req.MACAddress,
			Status:     req.Status,
		})
		if err != nil {
			if errors.Is(err, store.ErrPcNotFound) {
				writeError(w, http.StatusNotFound, "pc not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		h.recordAudit(r, "pc.update", fmt.Sprintf("pc %d", id))
		writeJSON(w, http.StatusOK, pc)
	case http.MethodDelete:
		if err := h.store.DeletePc(r.Context(), id); err != nil {
			if errors.Is(err, store.ErrPcNotFound) {
				writeError(w, http.StatusNotFound, "pc not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		h.recordAudit(r, "pc.delete", fmt.Sprintf("pc %d", id))
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type createSessionRequest struct {
	UserID          int64 `json:"userId"`
	PcID            int64 `json:"pcId"`
	AssignedMinutes int   `json:"assignedMinutes"`
}

func (h *Handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		filter, err := sessionFilterFromQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		details, err := h.store.ListSessionDetails(r.Context(), filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if details == nil {
			details = []models.SessionDetail{}
		}
		writeJSON(w, http.StatusOK, details)
	case http.MethodPost:
		if _, ok := h.requireAuth(w, r); !ok {
			return
		}
		var req createSessionRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if req.UserID <= 0 {
			writeFieldError(w, http.StatusBadRequest, "userId is required", "userId")
			return
		}
		if req.PcID <= 0 {
			writeFieldError(w, http.StatusBadRequest, "pcId is required", "pcId")
			return
		}
		if req.AssignedMinutes < 1 {
			writeFieldError(w, http.StatusBadRequest, "assignedMinutes must be at least 1", "assignedMinutes")
			return
		}
		session, err := h.store.StartSession(r.Context(), store.StartSessionInput{
			UserID:          req.UserID,
			PcID:            req.PcID,
			AssignedMinutes: req.AssignedMinutes,
		})
		if err != nil {
			switch {
			case errors.Is(err, store.ErrUserNotFound):
				writeFieldError(w, http.StatusBadRequest, "user does not exist", "userId")
			case errors.Is(err, store.ErrPcNotFound):
				writeFieldError(w, http.StatusBadRequest, "pc does not exist", "pcId")
			case errors.Is(err, store.ErrPcBusy):
				writeError(w, http.StatusConflict, "pc already has an active session")
			default:
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
			return
		}
		h.recordAudit(r, "session.start", fmt.Sprintf("session %d pc %d user %d", session.ID, session.PcID, session.UserID))
		writeJSON(w, http.StatusCreated, session)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleSessionEnd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	suffix, ok := strings.CutSuffix(rest, "/end")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if _, authed := h.requireAuth(w, r); !authed {
		return
	}
	id, ok := parseID(suffix)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	session, err := h.store.EndSession(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "session not found")
		case errors.Is(err, store.ErrSessionCompleted):
			writeError(w, http.StatusConflict, "session already completed")
		default:
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	h.recordAudit(r, "session.end", fmt.Sprintf("session %d pc %d", session.ID, session.PcID))
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// recordAudit writes an admin_logs row for the acting user, when one is
// known. Audit failures are logged, never surfaced to the caller.
func (h *Handler) recordAudit(r *http.Request, action, details string) {
	actor, err := h.currentUser(r)
	if err != nil {
		return
	}
	if err := h.store.RecordAdminLog(r.Context(), actor.ID, action, details); err != nil {
		log.Printf("record admin log: %v", err)
	}
}

func sessionFilterFromQuery(r *http.Request) (store.SessionFilter, error) {
	var filter store.SessionFilter
	query := r.URL.Query()
	if query.Get("active") == "true" {
		filter.Active = true
	}
	if raw := query.Get("pcId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return store.SessionFilter{}, errors.New("pcId must be a positive integer")
		}
		filter.PcID = id
	}
	if raw := query.Get("userId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return store.SessionFilter{}, errors.New("userId must be a positive integer")
		}
		filter.UserID = id
	}
	return filter, nil
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

func writeFieldError(w http.ResponseWriter, status int, message, field string) {
	writeJSON(w, status, errorResponse{Message: message, Field: field})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
