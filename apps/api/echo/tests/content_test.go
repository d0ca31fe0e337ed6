package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/kampi/core/content"
	testutil "github.com/trezcool/kampi/tests"
)

func createPost(t *testing.T, title string, published bool, position int) content.Post {
	t.Helper()

	svc := content.NewService(cntRepo)
	p, err := svc.CreatePost(context.Background(), content.NewPost{
		Title:     title,
		Body:      "lorem ipsum",
		Published: published,
	})
	if err != nil {
		t.Fatalf("CreatePost(): %v", err)
	}
	if p.Position != position {
		t.Fatalf("CreatePost(): position = %v; want %v", p.Position, position)
	}
	return p
}

func Test_contentApi_posts(t *testing.T) {
	app := setup(t)

	hero := testutil.CreateRegistrant(t, regRepo, "Hero", "hero01", "hero@camp.cd", "", nil, true)
	admin := testutil.CreateAdmin(t, regRepo, "Admin", "admin01", "admin@camp.cd", "", false)
	adminToken := getToken(t, admin)

	pub := createPost(t, "Camp Schedule", true, 0)
	draft := createPost(t, "Unfinished Business", false, 1)

	tests := []httpTest{
		{name: "public listing shows published only", method: http.MethodGet, path: "/v1/posts", wantCode: http.StatusOK, wantData: marchallList(t, pub)},
		{name: "public detail by slug", method: http.MethodGet, path: "/v1/posts/" + pub.Slug, wantCode: http.StatusOK, wantData: marchallObj(t, pub)},
		{name: "unknown slug", method: http.MethodGet, path: "/v1/posts/nope", wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{
			name: "drafts need admin", method: http.MethodGet, path: "/v1/posts/all", token: getToken(t, hero),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "admin sees drafts", method: http.MethodGet, path: "/v1/posts/all", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, pub, draft),
		},
		{
			name: "create needs admin", method: http.MethodPost, path: "/v1/posts", token: getToken(t, hero),
			body:     marchallObj(t, content.NewPost{Title: "Sneaky", Body: "lol"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("admin creates a post", func(t *testing.T) {
		body := marchallObj(t, content.NewPost{Title: "What to Bring", Body: "A blanket.", Published: true})
		req, rec := newAuthRequest(http.MethodPost, "/v1/posts", adminToken, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var p content.Post
		if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if p.Slug != "what-to-bring" {
			t.Errorf("failed! slug = %v; want %v", p.Slug, "what-to-bring")
		}
		if p.Position != 2 {
			t.Errorf("failed! position = %v; want %v", p.Position, 2)
		}
	})

	t.Run("admin reorders posts", func(t *testing.T) {
		body := marchallObj(t, content.PostOrder{IDs: []string{draft.ID, pub.ID}})
		req, rec := newAuthRequest(http.MethodPut, "/v1/posts/reorder", adminToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusNoContent, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/posts/all", adminToken)
		app.ServeHTTP(rec, req)
		var posts []content.Post
		if err := json.Unmarshal(rec.Body.Bytes(), &posts); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if len(posts) < 2 || posts[0].ID != draft.ID || posts[1].ID != pub.ID {
			t.Errorf("failed! unexpected order: %+v", posts)
		}
	})

	t.Run("admin updates a post", func(t *testing.T) {
		published := true
		body := marchallObj(t, content.UpdatePost{Title: "Finished Business", Published: &published})
		req, rec := newAuthRequest(http.MethodPut, "/v1/posts/"+draft.ID, adminToken, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var p content.Post
		if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if p.Slug != "finished-business" {
			t.Errorf("failed! slug = %v; want %v", p.Slug, "finished-business")
		}
		if !p.Published {
			t.Error("failed! post still a draft")
		}
	})

	t.Run("admin deletes a post", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/posts/"+draft.ID, adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
		}
	})
}

func Test_contentApi_notifications(t *testing.T) {
	app := setup(t)

	hero := testutil.CreateRegistrant(t, regRepo, "Hero", "hero01", "hero@camp.cd", "", nil, true)
	admin := testutil.CreateAdmin(t, regRepo, "Admin", "admin01", "admin@camp.cd", "", false)
	adminToken := getToken(t, admin)

	t.Run("create needs admin", func(t *testing.T) {
		body := marchallObj(t, content.NewNotification{Title: "Sneaky", Body: "lol"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/notifications", getToken(t, hero), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	var created content.Notification
	t.Run("admin creates a notification", func(t *testing.T) {
		body := marchallObj(t, content.NewNotification{Title: "Bus leaves at 6am", Body: "Sharp!"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/notifications", adminToken, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
	})

	t.Run("public listing", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/notifications")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, created)}, rec)
	})

	t.Run("admin deletes a notification", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/notifications/"+created.ID, adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
		}

		req, rec = newRequest(http.MethodGet, "/v1/notifications")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, []interface{}{}...)}, rec)
	})
}
