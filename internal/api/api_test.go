package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"taleloom/internal/store"
	"taleloom/internal/tale"
	"taleloom/internal/testutil"
)

type testServer struct {
	srv      *httptest.Server
	ctrl     *tale.Controller
	payments *testutil.ScriptedGateway
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	notes := NewNotificationBuffer()
	payments := testutil.NewScriptedGateway()
	gw := tale.Gateways{
		Sender:    testutil.NewScriptedSender(),
		Payments:  payments,
		Generator: testutil.NewStubGenerator(),
		Tokens:    &testutil.StaticTokens{},
	}
	ctrl := tale.NewController(store.NewMemoryStore(), gw, notes, tale.NewNopLogger(), testutil.FixedClock(), testutil.NewStubIDGenerator(), tale.Options{})

	srv := httptest.NewServer(NewServer(ctrl, notes, tale.NewNopLogger()).Router())
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, ctrl: ctrl, payments: payments}
}

func (ts *testServer) getState(t *testing.T) response {
	t.Helper()
	res, err := http.Get(ts.srv.URL + "/v1/state")
	if err != nil {
		t.Fatalf("GET /v1/state: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("GET /v1/state status = %d", res.StatusCode)
	}
	var out response
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decoding state: %v", err)
	}
	return out
}

func (ts *testServer) post(t *testing.T, name string, body any) (int, response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	res, err := http.Post(fmt.Sprintf("%s/v1/commands/%s", ts.srv.URL, name), "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", name, err)
	}
	defer res.Body.Close()
	var out response
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decoding %s response: %v", name, err)
	}
	return res.StatusCode, out
}

func (ts *testServer) mustPost(t *testing.T, name string, body any) response {
	t.Helper()
	status, out := ts.post(t, name, body)
	if status != http.StatusOK {
		t.Fatalf("POST %s status = %d, error = %q", name, status, out.Error)
	}
	return out
}

func TestStateEndpoint(t *testing.T) {
	ts := newTestServer(t)

	out := ts.getState(t)
	if out.Snapshot == nil {
		t.Fatal("state response has no snapshot")
	}
	if out.Snapshot.Screen != tale.ScreenSplash {
		t.Errorf("initial screen = %q, want splash", out.Snapshot.Screen)
	}
	if len(out.Snapshot.Plans) != 3 {
		t.Errorf("plans = %d, want 3", len(out.Snapshot.Plans))
	}
	if out.Snapshot.Plan.ID != tale.PlanFree {
		t.Errorf("active plan = %q, want free", out.Snapshot.Plan.ID)
	}
}

func TestCommandDispatch(t *testing.T) {
	ts := newTestServer(t)

	out := ts.mustPost(t, "start-up", nil)
	if out.Snapshot.Screen != tale.ScreenOnboarding {
		t.Errorf("screen after start-up = %q", out.Snapshot.Screen)
	}

	out = ts.mustPost(t, "complete-onboarding", nil)
	if out.Snapshot.Screen != tale.ScreenAuth {
		t.Errorf("screen = %q, want auth", out.Snapshot.Screen)
	}
	if out.Notification == nil || out.Notification.Severity != tale.SeverityInfo {
		t.Errorf("notification = %+v", out.Notification)
	}

	// Notifications are delivered once, not replayed.
	out = ts.getState(t)
	if out.Notification != nil {
		t.Errorf("state carried a stale notification: %+v", out.Notification)
	}
}

func TestNavigationCommands(t *testing.T) {
	ts := newTestServer(t)

	out := ts.mustPost(t, "go-home", nil)
	if out.Snapshot.Screen != tale.ScreenHome {
		t.Fatalf("screen = %q", out.Snapshot.Screen)
	}
	out = ts.mustPost(t, "open-settings", nil)
	if out.Snapshot.Screen != tale.ScreenSettings {
		t.Fatalf("screen = %q", out.Snapshot.Screen)
	}
	out = ts.mustPost(t, "open-plans", nil)
	if out.Snapshot.Screen != tale.ScreenPlans {
		t.Fatalf("screen = %q", out.Snapshot.Screen)
	}
	out = ts.mustPost(t, "back", nil)
	if out.Snapshot.Screen != tale.ScreenSettings {
		t.Fatalf("screen after back = %q", out.Snapshot.Screen)
	}
}

func TestAddChildCommand(t *testing.T) {
	ts := newTestServer(t)

	out := ts.mustPost(t, "add-child", tale.ChildInput{Name: "Liam", Age: 5})
	if len(out.Snapshot.Children) != 1 || out.Snapshot.Children[0].Name != "Liam" {
		t.Errorf("children = %+v", out.Snapshot.Children)
	}
	if out.Notification == nil || out.Notification.Message != "Liam added" {
		t.Errorf("notification = %+v", out.Notification)
	}
}

func TestGenerateAndSaveOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	out := ts.mustPost(t, "add-child", tale.ChildInput{Name: "Emma", Age: 6})
	childID := out.Snapshot.Children[0].ID

	out = ts.mustPost(t, "generate-story", tale.StoryRequest{ChildID: childID, Themes: []string{"Space"}})
	if out.Snapshot.Screen != tale.ScreenStoryResult {
		t.Errorf("screen = %q, want story-result", out.Snapshot.Screen)
	}
	if out.Snapshot.GeneratedStory == nil {
		t.Fatal("no generated story in snapshot")
	}
	if out.Snapshot.Usage.UsedToday != 1 {
		t.Errorf("UsedToday = %d, want 1", out.Snapshot.Usage.UsedToday)
	}

	out = ts.mustPost(t, "save-story", nil)
	if len(out.Snapshot.Stories) != 1 {
		t.Errorf("library = %d stories, want 1", len(out.Snapshot.Stories))
	}
}

func TestErrorMapping(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		ts := newTestServer(t)
		status, out := ts.post(t, "add-child", tale.ChildInput{Name: "", Age: 5})
		if status != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", status)
		}
		if out.Error == "" || out.Snapshot == nil {
			t.Errorf("error envelope incomplete: %+v", out)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		ts := newTestServer(t)
		status, _ := ts.post(t, "add-child", "not an object")
		if status != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", status)
		}
	})

	t.Run("wrong verification code", func(t *testing.T) {
		ts := newTestServer(t)
		status, _ := ts.post(t, "verify-code", map[string]string{"code": "000000"})
		if status != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", status)
		}
	})

	t.Run("not found", func(t *testing.T) {
		ts := newTestServer(t)
		status, _ := ts.post(t, "delete-child", map[string]string{"id": "ghost"})
		if status != http.StatusNotFound {
			t.Errorf("status = %d, want 404", status)
		}
	})

	t.Run("quota exhausted", func(t *testing.T) {
		ts := newTestServer(t)
		out := ts.mustPost(t, "add-child", tale.ChildInput{Name: "Emma", Age: 6})
		req := tale.StoryRequest{ChildID: out.Snapshot.Children[0].ID, Themes: []string{"Space"}}
		ts.mustPost(t, "generate-story", req)

		status, out := ts.post(t, "generate-story", req)
		if status != http.StatusTooManyRequests {
			t.Errorf("status = %d, want 429", status)
		}
		if out.Notification == nil || out.Notification.Severity != tale.SeverityWarning {
			t.Errorf("notification = %+v", out.Notification)
		}
	})

	t.Run("payment declined", func(t *testing.T) {
		ts := newTestServer(t)
		ts.mustPost(t, "select-plan", map[string]string{"plan_id": tale.PlanPremium})
		ts.payments.Queue(tale.ErrDeclined)

		status, _ := ts.post(t, "confirm-checkout", map[string]string{"period": "monthly"})
		if status != http.StatusPaymentRequired {
			t.Errorf("status = %d, want 402", status)
		}
	})
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{tale.ErrBusy, http.StatusConflict},
		{tale.ErrTimeout, http.StatusGatewayTimeout},
		{tale.ErrRateLimited, http.StatusTooManyRequests},
		{tale.ErrDailyLimit, http.StatusTooManyRequests},
		{tale.ErrMonthlyLimit, http.StatusTooManyRequests},
		{tale.ErrDeclined, http.StatusPaymentRequired},
		{tale.ErrNotFound, http.StatusNotFound},
		{tale.ErrCodeMismatch, http.StatusBadRequest},
		{&tale.ValidationError{Field: "name", Reason: "empty"}, http.StatusBadRequest},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	ts := newTestServer(t)
	res, err := http.Post(ts.srv.URL+"/v1/commands/self-destruct", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", res.StatusCode)
	}
}
