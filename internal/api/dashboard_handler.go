package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nhalm/canonlog"
	"github.com/yourorg/catalogdash/internal/dashboard"
	"github.com/yourorg/catalogdash/internal/form"
	"github.com/yourorg/catalogdash/internal/models"
	"github.com/yourorg/catalogdash/internal/prompt"
	"github.com/yourorg/catalogdash/internal/view"
)

const keepAliveInterval = 15 * time.Second

var errSessionExpired = errors.New("session_expired")

type sessionKey struct{}

func sessionFrom(ctx context.Context) *session {
	sess, _ := ctx.Value(sessionKey{}).(*session)
	return sess
}

func (h *Handler) sessionFromCookie(r *http.Request) (*session, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil, false
	}
	return h.sessions.lookup(cookie.Value)
}

// requireSession answers 410 when the cookie names no live dashboard, which
// tells the browser to reload and start over.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := h.sessionFromCookie(r)
		if !ok {
			Gone(w, r, errSessionExpired, "dashboard session expired")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}

func logSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess := sessionFrom(r.Context()); sess != nil {
			canonlog.AddRequestFields(r.Context(), map[string]any{"session_id": sess.id})
		}
		next.ServeHTTP(w, r)
	})
}

func pageFromState(s dashboard.State) view.Page {
	return view.Page{
		SearchText: s.SearchText,
		List: view.NewListView(view.ListInput{
			Products:    s.Products(),
			Loading:     s.Loading,
			Err:         s.Err,
			CurrentPage: s.CurrentPage,
			TotalPages:  s.TotalPages(),
			Total:       s.Total(),
		}),
		Dialog: view.NewDialogView(s.Dialog.Open, s.Dialog.Editing(), s.ActionInFlight, s.Dialog.Form),
	}
}

// DashboardPage serves the dashboard document, starting a session on first visit.
func (h *Handler) DashboardPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromCookie(r)
	if !ok {
		var err error
		if sess, err = h.sessions.open(); err != nil {
			handleServiceError(w, r, err)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    sess.id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	canonlog.AddRequestFields(r.Context(), map[string]any{
		"session_id":  sess.id,
		"new_session": !ok,
	})

	var buf bytes.Buffer
	if err := h.renderer.Page(&buf, pageFromState(sess.dash.Snapshot())); err != nil {
		InternalError(w, r, err, "failed to render dashboard")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// DashboardEvents streams the rendered dashboard after every state change,
// plus confirm and alert prompts, as server-sent events.
func (h *Handler) DashboardEvents(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	rc := http.NewResponseController(w)
	// The server write timeout would otherwise cut the stream.
	_ = rc.SetWriteDeadline(time.Time{})

	changes, unsubscribe := sess.dash.Subscribe()
	defer unsubscribe()
	sess.attachStream(time.Now())
	defer func() { sess.detachStream(time.Now()) }()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	err := h.writeState(w, sess)
	if err == nil {
		err = rc.Flush()
	}

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for err == nil {
		select {
		case <-r.Context().Done():
			return
		case _, open := <-changes:
			if !open {
				return
			}
			err = h.writeState(w, sess)
		case p := <-sess.prompts.Prompts():
			err = writePrompt(w, p)
		case <-keepAlive.C:
			_, err = io.WriteString(w, ": keep-alive\n\n")
		}
		if err == nil {
			err = rc.Flush()
		}
	}
	slog.WarnContext(r.Context(), "dashboard event stream ended", "session_id", sess.id, "error", err)
}

func (h *Handler) writeState(w io.Writer, sess *session) error {
	var buf bytes.Buffer
	if err := h.renderer.Fragment(&buf, pageFromState(sess.dash.Snapshot())); err != nil {
		return err
	}
	return writeEvent(w, "state", buf.String())
}

func writePrompt(w io.Writer, p prompt.Prompt) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return writeEvent(w, string(p.Kind), string(data))
}

// writeEvent frames data as one event, one data line per input line.
func writeEvent(w io.Writer, event, data string) error {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(event)
	b.WriteByte('\n')
	for _, line := range strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

// parseSeq reads the optional seq value the browser attaches to keystrokes.
func parseSeq(r *http.Request) (uint64, bool, error) {
	raw := r.FormValue("seq")
	if raw == "" {
		return 0, false, nil
	}
	seq, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return seq, true, nil
}

// DashboardSearch records search text. Keystrokes carrying a seq older than one
// already applied are dropped.
func (h *Handler) DashboardSearch(w http.ResponseWriter, r *http.Request) {
	seq, ordered, err := parseSeq(r)
	if err != nil {
		BadRequest(w, r, err, "seq must be a non-negative integer", "seq")
		return
	}

	dash := sessionFrom(r.Context()).dash
	if ordered {
		dash.SetSearchSeq(seq, r.FormValue("q"))
	} else {
		dash.SetSearch(r.FormValue("q"))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DashboardSetPage(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.FormValue("page"))
	if err != nil {
		BadRequest(w, r, err, "page must be an integer", "page")
		return
	}
	sessionFrom(r.Context()).dash.SetPage(page)
	w.WriteHeader(http.StatusNoContent)
}

// DashboardOpenDialog opens the edit dialog for id, or the add dialog when no
// id is posted.
func (h *Handler) DashboardOpenDialog(w http.ResponseWriter, r *http.Request) {
	dash := sessionFrom(r.Context()).dash
	if productID := r.FormValue("id"); productID != "" {
		if err := dash.OpenEdit(models.ProductID(productID)); err != nil {
			handleServiceError(w, r, err)
			return
		}
	} else {
		dash.OpenCreate()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DashboardCloseDialog(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r.Context()).dash.CloseDialog()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DashboardEditField(w http.ResponseWriter, r *http.Request) {
	seq, ordered, err := parseSeq(r)
	if err != nil {
		BadRequest(w, r, err, "seq must be a non-negative integer", "seq")
		return
	}

	dash := sessionFrom(r.Context()).dash
	field, value := r.FormValue("field"), r.FormValue("value")
	if ordered {
		err = dash.EditFieldSeq(seq, field, value)
	} else {
		err = dash.EditField(field, value)
	}
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DashboardSubmit applies the posted form values and submits the dialog. Save
// failures reach the user as an alert, so they only go to the request log here.
func (h *Handler) DashboardSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequest(w, r, err, "invalid form body", "")
		return
	}

	dash := sessionFrom(r.Context()).dash
	for _, field := range form.Fields {
		values, ok := r.PostForm[field]
		if !ok || len(values) == 0 {
			continue
		}
		if err := dash.EditField(field, values[0]); err != nil {
			handleServiceError(w, r, err)
			return
		}
	}

	if err := dash.Submit(r.Context()); err != nil {
		if errors.Is(err, dashboard.ErrDialogClosed) {
			handleServiceError(w, r, err)
			return
		}
		canonlog.AddRequestError(r.Context(), err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DashboardDelete(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	canonlog.AddRequestFields(r.Context(), map[string]any{"product_id": productID})

	if err := sessionFrom(r.Context()).dash.Delete(r.Context(), models.ProductID(productID)); err != nil {
		canonlog.AddRequestError(r.Context(), err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// DashboardAnswerPrompt resolves a pending confirmation with answer=yes or no.
func (h *Handler) DashboardAnswerPrompt(w http.ResponseWriter, r *http.Request) {
	promptID := chi.URLParam(r, "id")
	if err := sessionFrom(r.Context()).prompts.Answer(promptID, r.FormValue("answer") == "yes"); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
