package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/so647/study-time-tracker/internal/apperror"
	"github.com/so647/study-time-tracker/internal/auth"
	"github.com/so647/study-time-tracker/internal/domain"
	"github.com/so647/study-time-tracker/internal/storage"
)

// maxAvatarBytes caps avatar uploads.
const maxAvatarBytes = 10 << 20

// flashMessages maps redirect codes (?m=...) to user-facing text.
var flashMessages = map[string]string{
	"registered":       "Account has been created. You can now log in",
	"reset_sent":       "An email has been sent with instructions to reset your password.",
	"password_updated": "Your password has been updated! You are now able to log in",
	"bad_token":        "That is an invalid or expired token",
	"account_updated":  "Account has been updated",
}

// Handlers coordinates HTTP requests with the services.
type Handlers struct {
	render     *Renderer
	authSvc    *auth.Service
	recorder   *domain.Recorder
	reporter   *domain.Reporter
	activities domain.ActivityRepository
	users      domain.UserRepository
	avatars    storage.AvatarStore
	log        zerolog.Logger
}

// NewHandlers builds Handlers.
func NewHandlers(render *Renderer, authSvc *auth.Service, recorder *domain.Recorder, reporter *domain.Reporter, activities domain.ActivityRepository, users domain.UserRepository, avatars storage.AvatarStore, log zerolog.Logger) *Handlers {
	return &Handlers{
		render:     render,
		authSvc:    authSvc,
		recorder:   recorder,
		reporter:   reporter,
		activities: activities,
		users:      users,
		avatars:    avatars,
		log:        log,
	}
}

// RegisterRoutes wires all endpoints onto the router. requireUser guards the
// authenticated group.
func (h *Handlers) RegisterRoutes(r chi.Router, requireUser func(http.Handler) http.Handler) {
	r.Get("/", h.home)
	r.Get("/home", h.home)
	r.Get("/about", h.about)

	r.Get("/register", h.registerForm)
	r.Post("/register", h.registerSubmit)
	r.Get("/login", h.loginForm)
	r.Post("/login", h.loginSubmit)

	r.Get("/reset_password", h.resetRequestForm)
	r.Post("/reset_password", h.resetRequestSubmit)
	r.Get("/reset_password/{token}", h.resetForm)
	r.Post("/reset_password/{token}", h.resetSubmit)

	r.Group(func(r chi.Router) {
		r.Use(requireUser)
		r.Get("/logout", h.logout)
		r.Get("/account", h.accountForm)
		r.Post("/account", h.accountSubmit)
		r.Get("/activity", h.listActivities)
		r.Post("/record_activity", h.recordActivity)
		r.Get("/daychart", h.dayChart)
		r.Get("/weekchart", h.weekChart)
		r.Get("/monthchart", h.monthChart)
		r.Get("/yearchart", h.yearChart)
	})

	r.Get("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// basePage carries the fields every template needs.
type basePage struct {
	Title   string
	User    *domain.User
	Error   string
	Message string
}

func (h *Handlers) base(r *http.Request, title string) basePage {
	user, _ := auth.UserFrom(r.Context())
	page := basePage{Title: title, User: user}
	if code := r.URL.Query().Get("m"); code != "" {
		page.Message = flashMessages[code]
	}
	return page
}

func (h *Handlers) avatarURL(user *domain.User) string {
	if user == nil || user.ImageFile == "" || user.ImageFile == domain.DefaultImageFile {
		return "/assets/default.svg"
	}
	return h.avatars.URL(user.ImageFile)
}

func (h *Handlers) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func (h *Handlers) renderPage(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	if err := h.render.Render(w, status, name, data); err != nil {
		h.serverError(w, r, err)
	}
}

// --- Pages ---

type homePage struct {
	basePage
	AvatarURL string
}

func (h *Handlers) home(w http.ResponseWriter, r *http.Request) {
	page := homePage{basePage: h.base(r, "Home")}
	page.AvatarURL = h.avatarURL(page.User)
	h.renderPage(w, r, http.StatusOK, "home.html", page)
}

func (h *Handlers) about(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, "about.html", h.base(r, "About"))
}

// --- Registration ---

type registerPage struct {
	basePage
	Username string
	Email    string
}

func (h *Handlers) registerForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserFrom(r.Context()); ok {
		http.Redirect(w, r, "/home", http.StatusSeeOther)
		return
	}
	h.renderPage(w, r, http.StatusOK, "register.html", registerPage{basePage: h.base(r, "Register")})
}

func (h *Handlers) registerSubmit(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserFrom(r.Context()); ok {
		http.Redirect(w, r, "/home", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	page := registerPage{
		basePage: h.base(r, "Register"),
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
	}

	password := r.PostFormValue("password")
	if password != r.PostFormValue("confirm_password") {
		page.Error = "passwords do not match"
		h.renderPage(w, r, http.StatusBadRequest, "register.html", page)
		return
	}

	if _, err := h.authSvc.Register(r.Context(), page.Username, page.Email, password); err != nil {
		if apperror.IsType(err, apperror.Validation) {
			page.Error = apperror.Message(err)
			h.renderPage(w, r, http.StatusBadRequest, "register.html", page)
			return
		}
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/login?m=registered", http.StatusSeeOther)
}

// --- Login / logout ---

type loginPage struct {
	basePage
	Email string
	Next  string
}

func (h *Handlers) loginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserFrom(r.Context()); ok {
		http.Redirect(w, r, "/home", http.StatusSeeOther)
		return
	}
	page := loginPage{basePage: h.base(r, "Login"), Next: r.URL.Query().Get("next")}
	h.renderPage(w, r, http.StatusOK, "login.html", page)
}

func (h *Handlers) loginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	page := loginPage{
		basePage: h.base(r, "Login"),
		Email:    r.PostFormValue("email"),
		Next:     r.PostFormValue("next"),
	}
	remember := r.PostFormValue("remember") != ""

	_, session, err := h.authSvc.Login(r.Context(), page.Email, r.PostFormValue("password"), remember)
	if err != nil {
		if apperror.IsType(err, apperror.Auth) {
			page.Error = apperror.Message(err)
			h.renderPage(w, r, http.StatusUnauthorized, "login.html", page)
			return
		}
		h.serverError(w, r, err)
		return
	}

	auth.SetSessionCookie(w, session, remember)
	http.Redirect(w, r, safeNext(page.Next), http.StatusSeeOther)
}

// safeNext restricts the post-login redirect to local paths.
func safeNext(next string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return "/home"
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		if err := h.authSvc.Logout(r.Context(), cookie.Value); err != nil {
			h.log.Warn().Err(err).Msg("logout failed")
		}
	}
	auth.ClearSessionCookie(w)
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

// --- Password reset ---

type resetRequestPage struct {
	basePage
	Email string
}

func (h *Handlers) resetRequestForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserFrom(r.Context()); ok {
		http.Redirect(w, r, "/home", http.StatusSeeOther)
		return
	}
	h.renderPage(w, r, http.StatusOK, "reset_request.html", resetRequestPage{basePage: h.base(r, "Reset Password")})
}

func (h *Handlers) resetRequestSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	if err := h.authSvc.RequestPasswordReset(r.Context(), r.PostFormValue("email")); err != nil {
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/login?m=reset_sent", http.StatusSeeOther)
}

type resetPasswordPage struct {
	basePage
	Token string
}

func (h *Handlers) resetForm(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if _, err := h.authSvc.VerifyResetToken(token); err != nil {
		http.Redirect(w, r, "/reset_password?m=bad_token", http.StatusSeeOther)
		return
	}
	page := resetPasswordPage{basePage: h.base(r, "Reset Password"), Token: token}
	h.renderPage(w, r, http.StatusOK, "reset_password.html", page)
}

func (h *Handlers) resetSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	token := chi.URLParam(r, "token")

	page := resetPasswordPage{basePage: h.base(r, "Reset Password"), Token: token}
	password := r.PostFormValue("password")
	if password != r.PostFormValue("confirm_password") {
		page.Error = "passwords do not match"
		h.renderPage(w, r, http.StatusBadRequest, "reset_password.html", page)
		return
	}

	if err := h.authSvc.ResetPassword(r.Context(), token, password); err != nil {
		switch {
		case apperror.IsType(err, apperror.Token):
			http.Redirect(w, r, "/reset_password?m=bad_token", http.StatusSeeOther)
		case apperror.IsType(err, apperror.Validation):
			page.Error = apperror.Message(err)
			h.renderPage(w, r, http.StatusBadRequest, "reset_password.html", page)
		default:
			h.serverError(w, r, err)
		}
		return
	}
	http.Redirect(w, r, "/login?m=password_updated", http.StatusSeeOther)
}

// --- Account ---

type accountPage struct {
	basePage
	Username  string
	Email     string
	AvatarURL string
}

func (h *Handlers) accountForm(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	page := accountPage{
		basePage:  h.base(r, "Account"),
		Username:  user.Username,
		Email:     user.Email,
		AvatarURL: h.avatarURL(user),
	}
	h.renderPage(w, r, http.StatusOK, "account.html", page)
}

func (h *Handlers) accountSubmit(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	page := accountPage{
		basePage:  h.base(r, "Account"),
		Username:  strings.TrimSpace(r.PostFormValue("username")),
		Email:     strings.ToLower(strings.TrimSpace(r.PostFormValue("email"))),
		AvatarURL: h.avatarURL(user),
	}

	imageFile := user.ImageFile
	if name, err := h.saveAvatar(r); err != nil {
		page.Error = err.Error()
		h.renderPage(w, r, http.StatusBadRequest, "account.html", page)
		return
	} else if name != "" {
		imageFile = name
	}

	err := h.users.UpdateProfile(r.Context(), user.ID, page.Username, page.Email, imageFile)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUsernameTaken):
			page.Error = "that username is taken"
		case errors.Is(err, domain.ErrEmailTaken):
			page.Error = "that email is already registered"
		default:
			h.serverError(w, r, err)
			return
		}
		h.renderPage(w, r, http.StatusBadRequest, "account.html", page)
		return
	}
	http.Redirect(w, r, "/account?m=account_updated", http.StatusSeeOther)
}

// saveAvatar stores an uploaded picture, if any, and returns its stored
// name. An absent file field is not an error.
func (h *Handlers) saveAvatar(r *http.Request) (string, error) {
	file, header, err := r.FormFile("picture")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", errors.New("could not read the uploaded picture")
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return "", errors.New("picture must be a .jpg or .png file")
	}

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes))
	if err != nil {
		return "", errors.New("could not read the uploaded picture")
	}

	name, err := storage.RandomName(ext)
	if err != nil {
		return "", errors.New("could not store the uploaded picture")
	}
	if err := h.avatars.Save(r.Context(), name, data); err != nil {
		h.log.Error().Err(err).Msg("avatar save failed")
		return "", errors.New("could not store the uploaded picture")
	}
	return name, nil
}

// --- Activities ---

type activityRow struct {
	Start    string
	End      string
	Duration string
}

type activitiesPage struct {
	basePage
	Activities []activityRow
}

func (h *Handlers) listActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.activities.ListAll(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	page := activitiesPage{basePage: h.base(r, "Activity")}
	page.Activities = make([]activityRow, 0, len(activities))
	for _, a := range activities {
		page.Activities = append(page.Activities, activityRow{
			Start:    a.StartTime.Local().Format("2006-01-02 15:04:05"),
			End:      a.EndTime.Local().Format("2006-01-02 15:04:05"),
			Duration: a.Duration().String(),
		})
	}
	h.renderPage(w, r, http.StatusOK, "activities.html", page)
}

// recordRequest is the payload for POST /record_activity.
type recordRequest struct {
	Duration string `json:"duration"`
}

func (h *Handlers) recordActivity(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "unable to parse body")
		return
	}

	if _, err := h.recorder.Record(r.Context(), user.ID, req.Duration); err != nil {
		if apperror.IsType(err, apperror.Validation) {
			writeError(w, http.StatusBadRequest, apperror.Message(err))
			return
		}
		h.log.Error().Err(err).Msg("record activity failed")
		writeError(w, http.StatusInternalServerError, "failed to record activity")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Activity recorded successfully"})
}

// --- Charts ---

type chartPage struct {
	basePage
	LabelsJSON template.JS
	SeriesJSON template.JS
	Unit       string
	Total      string
}

func (h *Handlers) chart(w http.ResponseWriter, r *http.Request, title, unit string, labels interface{}, series interface{}, total string) {
	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	seriesJSON, err := json.Marshal(series)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	page := chartPage{
		basePage:   h.base(r, title),
		LabelsJSON: template.JS(labelsJSON),
		SeriesJSON: template.JS(seriesJSON),
		Unit:       unit,
		Total:      total,
	}
	h.renderPage(w, r, http.StatusOK, "chart.html", page)
}

func (h *Handlers) dayChart(w http.ResponseWriter, r *http.Request) {
	report, err := h.reporter.Day(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	labels := make([]string, 24)
	for i := range labels {
		labels[i] = fmt.Sprintf("%02d", i)
	}
	h.chart(w, r, "Day Chart", "minutes", labels, report.Buckets, report.Total)
}

func (h *Handlers) weekChart(w http.ResponseWriter, r *http.Request) {
	report, err := h.reporter.Week(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.chart(w, r, "Week Chart", "hours", domain.WeekdayNames, report.Buckets, report.Total)
}

func (h *Handlers) monthChart(w http.ResponseWriter, r *http.Request) {
	report, err := h.reporter.Month(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	labels := []string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	}
	h.chart(w, r, "Month Chart", "hours", labels, report.Buckets, report.Total)
}

func (h *Handlers) yearChart(w http.ResponseWriter, r *http.Request) {
	report, err := h.reporter.Year(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	years := make([]int, 0, len(report.Buckets))
	hours := make([]float64, 0, len(report.Buckets))
	for _, b := range report.Buckets {
		years = append(years, b.Year)
		hours = append(hours, b.Hours)
	}
	h.chart(w, r, "Year Chart", "hours", years, hours, report.Total)
}

// --- JSON helpers ---

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"error": detail})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
