package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/catalogdash/internal/prompt"
)

type sseEvent struct {
	name string
	data string
}

type dashboardClient struct {
	t      *testing.T
	base   string
	client *http.Client
	events *bufio.Reader
}

func newDashboardClient(t *testing.T, catalog *fakeCatalog) *dashboardClient {
	t.Helper()
	srv := httptest.NewServer(newTestHandler(t, catalog).Routes())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	c := &dashboardClient{t: t, base: srv.URL, client: &http.Client{Jar: jar}}

	resp, err := c.client.Get(srv.URL + "/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return c
}

// stream opens the event stream; it ends when the test does.
func (c *dashboardClient) stream() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	c.t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/dashboard/events", nil)
	require.NoError(c.t, err)
	resp, err := c.client.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	assert.Equal(c.t, "text/event-stream", resp.Header.Get("Content-Type"))
	c.events = bufio.NewReader(resp.Body)
}

func (c *dashboardClient) post(path string, values url.Values) int {
	resp, err := c.client.PostForm(c.base+path, values)
	require.NoError(c.t, err)
	_ = resp.Body.Close()
	return resp.StatusCode
}

func (c *dashboardClient) next() sseEvent {
	var ev sseEvent
	var data []string
	for {
		line, err := c.events.ReadString('\n')
		require.NoError(c.t, err)
		line = strings.TrimSuffix(line, "\n")
		switch {
		case line == "":
			if ev.name == "" {
				continue
			}
			ev.data = strings.Join(data, "\n")
			return ev
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = append(data, strings.TrimPrefix(line, "data: "))
		}
	}
}

func (c *dashboardClient) waitFor(name, contains string) sseEvent {
	for range 50 {
		ev := c.next()
		if ev.name == name && strings.Contains(ev.data, contains) {
			return ev
		}
	}
	c.t.Fatalf("no %s event containing %q", name, contains)
	return sseEvent{}
}

func (c *dashboardClient) waitForPrompt(kind prompt.Kind) prompt.Prompt {
	ev := c.waitFor(string(kind), "")
	var p prompt.Prompt
	require.NoError(c.t, json.Unmarshal([]byte(ev.data), &p))
	return p
}

func Test_DashboardPage_StartsSession(t *testing.T) {
	// given
	h := newTestHandler(t, &fakeCatalog{result: onePage()})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	// when
	h.Routes().ServeHTTP(rec, req)

	// then
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<title>Product Dashboard</title>")
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookieName, cookies[0].Name)
	assert.True(t, strings.HasPrefix(cookies[0].Value, "sess_"))
	assert.Equal(t, 1, h.Sessions().Len())
}

func Test_Dashboard_UnknownSessionIsGone(t *testing.T) {
	h := newTestHandler(t, &fakeCatalog{result: onePage()})
	routes := h.Routes()

	for _, path := range []string{"/dashboard/search", "/dashboard/dialog/open", "/dashboard/form/submit"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess_missing"})
		rec := httptest.NewRecorder()
		routes.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusGone, rec.Code, path)
	}
}

func Test_DashboardEvents_StreamsState(t *testing.T) {
	// given
	c := newDashboardClient(t, &fakeCatalog{result: onePage()})
	c.stream()

	// when
	c.waitFor("state", "Essence Mascara")
	status := c.post("/dashboard/dialog/open", nil)

	// then
	assert.Equal(t, http.StatusNoContent, status)
	c.waitFor("state", "Add New Product")
}

func Test_Dashboard_SearchCommitsAfterDebounce(t *testing.T) {
	catalog := &fakeCatalog{result: onePage()}
	c := newDashboardClient(t, catalog)

	assert.Equal(t, http.StatusNoContent, c.post("/dashboard/search", url.Values{"q": {"mascara"}}))

	assert.Eventually(t, func() bool {
		return catalog.callCount() == 2 && catalog.lastCall().search == "mascara"
	}, 2*time.Second, 10*time.Millisecond)
}

func Test_Dashboard_SearchKeepsNewestKeystroke(t *testing.T) {
	// given
	catalog := &fakeCatalog{result: onePage()}
	c := newDashboardClient(t, catalog)
	require.Eventually(t, func() bool { return catalog.callCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	// when
	newer := c.post("/dashboard/search", url.Values{"q": {"abc"}, "seq": {"2"}})
	older := c.post("/dashboard/search", url.Values{"q": {"ab"}, "seq": {"1"}})

	// then
	assert.Equal(t, http.StatusNoContent, newer)
	assert.Equal(t, http.StatusNoContent, older)
	assert.Eventually(t, func() bool {
		return catalog.callCount() == 2 && catalog.lastCall().search == "abc"
	}, 2*time.Second, 10*time.Millisecond)
	assert.Never(t, func() bool { return catalog.callCount() > 2 }, 100*time.Millisecond, 10*time.Millisecond)
}

func Test_Dashboard_EditFieldKeepsNewestKeystroke(t *testing.T) {
	// given
	c := newDashboardClient(t, &fakeCatalog{result: onePage()})
	c.stream()
	c.waitFor("state", "Essence Mascara")
	require.Equal(t, http.StatusNoContent, c.post("/dashboard/dialog/open", nil))

	// when
	require.Equal(t, http.StatusNoContent, c.post("/dashboard/form/field",
		url.Values{"field": {"title"}, "value": {"Marker"}, "seq": {"9"}}))
	require.Equal(t, http.StatusNoContent, c.post("/dashboard/form/field",
		url.Values{"field": {"title"}, "value": {"Mark"}, "seq": {"8"}}))
	require.Equal(t, http.StatusNoContent, c.post("/dashboard/form/field",
		url.Values{"field": {"brand"}, "value": {"Sharpie"}, "seq": {"10"}}))

	// then
	ev := c.waitFor("state", `value="Sharpie"`)
	assert.Contains(t, ev.data, `value="Marker"`)
	assert.NotContains(t, ev.data, `value="Mark"`)
}

func Test_Dashboard_SearchRejectsBadSeq(t *testing.T) {
	c := newDashboardClient(t, &fakeCatalog{result: onePage()})

	status := c.post("/dashboard/search", url.Values{"q": {"abc"}, "seq": {"-1"}})

	assert.Equal(t, http.StatusBadRequest, status)
}

func Test_Dashboard_SetPageRejectsGarbage(t *testing.T) {
	c := newDashboardClient(t, &fakeCatalog{result: onePage()})

	assert.Equal(t, http.StatusBadRequest, c.post("/dashboard/page", url.Values{"page": {"two"}}))
	assert.Equal(t, http.StatusNoContent, c.post("/dashboard/page", url.Values{"page": {"1"}}))
}

func Test_Dashboard_OpenEditUnknownProduct(t *testing.T) {
	c := newDashboardClient(t, &fakeCatalog{result: onePage()})

	assert.Equal(t, http.StatusNotFound, c.post("/dashboard/dialog/open", url.Values{"id": {"999"}}))
}

func Test_Dashboard_EditFieldWithoutDialog(t *testing.T) {
	c := newDashboardClient(t, &fakeCatalog{result: onePage()})

	status := c.post("/dashboard/form/field", url.Values{"field": {"title"}, "value": {"Pen"}})

	assert.Equal(t, http.StatusConflict, status)
}

func Test_Dashboard_SubmitInvalidShowsErrors(t *testing.T) {
	// given
	catalog := &fakeCatalog{result: onePage()}
	c := newDashboardClient(t, catalog)
	c.stream()
	c.waitFor("state", "Essence Mascara")
	require.Equal(t, http.StatusNoContent, c.post("/dashboard/dialog/open", nil))

	// when
	status := c.post("/dashboard/form/submit", url.Values{"title": {""}, "price": {"abc"}})

	// then
	assert.Equal(t, http.StatusNoContent, status)
	ev := c.waitFor("state", "Title is required")
	assert.Contains(t, ev.data, "Valid price is required")
	assert.Equal(t, 1, catalog.callCount())
}

func Test_Dashboard_SubmitCreatesAndReloads(t *testing.T) {
	// given
	catalog := &fakeCatalog{result: onePage()}
	c := newDashboardClient(t, catalog)
	c.stream()
	c.waitFor("state", "Essence Mascara")
	require.Equal(t, http.StatusNoContent, c.post("/dashboard/dialog/open", nil))

	// when
	status := c.post("/dashboard/form/submit", url.Values{
		"title":    {"Pen"},
		"price":    {"1.5"},
		"stock":    {"10"},
		"category": {"Office"},
	})

	// then
	assert.Equal(t, http.StatusNoContent, status)
	alert := c.waitForPrompt(prompt.KindAlert)
	assert.Equal(t, `Product "Pen" has been added successfully!`, alert.Message)
	assert.Eventually(t, func() bool { return catalog.callCount() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func Test_Dashboard_DeleteConfirmed(t *testing.T) {
	// given
	catalog := &fakeCatalog{result: onePage()}
	c := newDashboardClient(t, catalog)
	c.stream()
	c.waitFor("state", "Essence Mascara")

	deleted := make(chan int, 1)
	go func() {
		resp, err := c.client.PostForm(c.base+"/dashboard/products/1/delete", nil)
		if err != nil {
			deleted <- 0
			return
		}
		_ = resp.Body.Close()
		deleted <- resp.StatusCode
	}()

	// when
	confirm := c.waitForPrompt(prompt.KindConfirm)
	status := c.post("/dashboard/prompts/"+confirm.ID, url.Values{"answer": {"yes"}})

	// then
	assert.Equal(t, "Are you sure you want to delete this product?", confirm.Message)
	assert.Equal(t, http.StatusNoContent, status)
	alert := c.waitForPrompt(prompt.KindAlert)
	assert.Equal(t, "Product has been deleted successfully!", alert.Message)
	assert.Equal(t, http.StatusNoContent, <-deleted)
	assert.Eventually(t, func() bool { return catalog.callCount() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func Test_Dashboard_DeleteDeclined(t *testing.T) {
	// given
	catalog := &fakeCatalog{result: onePage()}
	c := newDashboardClient(t, catalog)
	c.stream()
	c.waitFor("state", "Essence Mascara")

	deleted := make(chan int, 1)
	go func() {
		resp, err := c.client.PostForm(c.base+"/dashboard/products/1/delete", nil)
		if err != nil {
			deleted <- 0
			return
		}
		_ = resp.Body.Close()
		deleted <- resp.StatusCode
	}()

	// when
	confirm := c.waitForPrompt(prompt.KindConfirm)
	status := c.post("/dashboard/prompts/"+confirm.ID, url.Values{"answer": {"no"}})

	// then
	assert.Equal(t, http.StatusNoContent, status)
	assert.Equal(t, http.StatusNoContent, <-deleted)
	assert.Equal(t, 1, catalog.callCount())
}

func Test_Dashboard_AnswerUnknownPrompt(t *testing.T) {
	c := newDashboardClient(t, &fakeCatalog{result: onePage()})

	status := c.post("/dashboard/prompts/prm_unknown", url.Values{"answer": {"yes"}})

	assert.Equal(t, http.StatusNotFound, status)
}

func Test_WriteEvent_SplitsLines(t *testing.T) {
	var b strings.Builder

	require.NoError(t, writeEvent(&b, "state", "<div>\r\n  <p>x</p>\n</div>"))

	assert.Equal(t, "event: state\ndata: <div>\ndata:   <p>x</p>\ndata: </div>\n\n", b.String())
}
