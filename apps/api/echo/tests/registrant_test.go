package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"

	echoapi "github.com/trezcool/kampi/apps/api/echo"
	"github.com/trezcool/kampi/core"
	"github.com/trezcool/kampi/core/registrant"
	"github.com/trezcool/kampi/core/settings"
	testutil "github.com/trezcool/kampi/tests"
)

func Test_registrantApi_register(t *testing.T) {
	app := setup(t)

	body := func(name, uname, email, category, campType, pwd string) []byte {
		return marchallObj(t, registrant.NewRegistrant{
			Name:            name,
			Username:        uname,
			Email:           email,
			Category:        category,
			CampType:        campType,
			Password:        pwd,
			PasswordConfirm: pwd,
		})
	}

	taken := testutil.CreateRegistrant(t, regRepo, "Taken", "takenuname", "taken@camp.cd", "", nil, true)

	tests := []httpTest{
		{
			name: "invalid category", wantCode: http.StatusBadRequest,
			body:     body("Jim", "jimraynor", "jim@camp.cd", "wizard", registrant.CampTypeCamp, "LolC@t123"),
			wantData: marchallObj(t, map[string]string{"category": "invalid category"}),
		},
		{
			name: "invalid camp package", wantCode: http.StatusBadRequest,
			body:     body("Jim", "jimraynor", "jim@camp.cd", registrant.CategoryStudent, "glamping", "LolC@t123"),
			wantData: marchallObj(t, map[string]string{"camp_type": "invalid camp package"}),
		},
		{
			name: "username or email required", wantCode: http.StatusBadRequest,
			body: body("Jim", "", "", registrant.CategoryStudent, registrant.CampTypeCamp, "LolC@t123"),
			wantData: marchallObj(t, map[string]string{
				"username": "one of username or email is required",
				"email":    "one of username or email is required",
			}),
		},
		{
			name: "password complexity", wantCode: http.StatusBadRequest,
			body:     body("Jim", "jimraynor", "jim@camp.cd", registrant.CategoryStudent, registrant.CampTypeCamp, "lol12345"),
			wantData: marchallObj(t, map[string]string{"password": "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"}),
		},
		{
			name: "account exists", wantCode: http.StatusBadRequest,
			body: body("Copy Cat", taken.Username, taken.Email, registrant.CategoryStudent, registrant.CampTypeCamp, "LolC@t123"),
			wantData: marchallObj(t, map[string]string{
				"username": "an account with this username or email already exists",
				"email":    "an account with this username or email already exists",
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/registrants/register", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("registered", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/registrants/register",
			body("Jim Raynor", "jimraynor", "jim@camp.cd", registrant.CategoryGuest, registrant.CampTypeConference, "LetsD@nce1"))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var reg registrant.Registrant
		if err := json.Unmarshal(rec.Body.Bytes(), &reg); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if reg.RegistrationStatus != registrant.StatusPending {
			t.Errorf("failed! status = %v; want %v", reg.RegistrationStatus, registrant.StatusPending)
		}
		if reg.Balance != 42000 {
			t.Errorf("failed! balance = %v; want %v", reg.Balance, 42000)
		}
		if reg.PaymentRequestStatus != registrant.PaymentRequestNone {
			t.Errorf("failed! paymentRequestStatus = %v; want %v", reg.PaymentRequestStatus, registrant.PaymentRequestNone)
		}
	})
}

func Test_registrantApi_registerClosed(t *testing.T) {
	app := setup(t)

	body := marchallObj(t, registrant.NewRegistrant{
		Name:            "Late Larry",
		Username:        "latelarry",
		Email:           "larry@camp.cd",
		Category:        registrant.CategoryStudent,
		CampType:        registrant.CampTypeCamp,
		Password:        "LolC@t123",
		PasswordConfirm: "LolC@t123",
	})

	createSnapshot := func(msg string) {
		if _, err := setRepo.CreateSettings(context.Background(), settings.Settings{
			ID:                        "snapshot-" + strconv.Itoa(int(time.Now().UnixNano())),
			PaymentPortalOpen:         true,
			PortalRegistrationOpen:    false,
			RegistrationClosedMessage: msg,
			CreatedAt:                 time.Now().UTC(),
		}); err != nil {
			t.Fatalf("CreateSettings(): %v", err)
		}
	}

	createSnapshot("")
	t.Run("default message", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/registrants/register", body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "registration is currently closed"}),
		}, rec)
	})

	createSnapshot("See you next year!")
	t.Run("custom message", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/registrants/register", body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "See you next year!"}),
		}, rec)
	})
}

func Test_registrantApi_login(t *testing.T) {
	app := setup(t)

	hero := testutil.CreateRegistrant(t, regRepo, "Hero", "hero01", "hero@camp.cd", "LolC@t123", nil, true)
	naughty := testutil.CreateRegistrant(t, regRepo, "N Dog", "ndog01", "ndog@camp.cd", "LolC@t123", nil, false) // 😂

	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "this field is required", "password": "this field is required"}),
		},
		{
			name: "unknown account", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Username: "whodis", Password: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Error: "invalid credentials"}),
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Username: hero.Username, Password: "nope nope"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", wantCode: http.StatusForbidden,
			body:     marchallObj(t, echoapi.LoginRequest{Username: naughty.Username, Password: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "by username", wantCode: http.StatusOK, body: marchallObj(t, echoapi.LoginRequest{Username: hero.Username, Password: "LolC@t123"})},
		{name: "by email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.LoginRequest{Username: hero.Email, Password: "LolC@t123"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/registrants/login", tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_registrantApi_refreshToken(t *testing.T) {
	app := setup(t)

	naughty := testutil.CreateRegistrant(t, regRepo, "N Dog", "ndog01", "ndog@camp.cd", "", nil, false) // 😂
	hero := testutil.CreateRegistrant(t, regRepo, "Hero", "hero01", "hero@camp.cd", "", nil, true)

	now := time.Now()
	unrefreshableClaims := &echoapi.Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   hero.ID,
			Audience:  "Camp",
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Add(-2 * core.Conf.Server.JWTRefreshExpirationDelta).Unix(), // older than threshold
		IsRegistrant: hero.IsRegistrant(),
		IsAdmin:      hero.IsAdmin(),
		Roles:        hero.Roles,
	}
	unrefreshableToken, err := echoapi.GenerateToken(unrefreshableClaims)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Inactive registrant not allowed", token: getToken(t, naughty), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "Refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})},
		{name: "Token refreshed", token: getToken(t, hero), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/registrants/token-refresh", tt.token, tt.body)
			app.ServeHTTP(rec, req)

			// cannot guess new token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_registrantApi_query(t *testing.T) {
	app := setup(t)

	path := func(search, status, category string, isActive *bool, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if status != "" {
			v.Add("status", status)
		}
		if category != "" {
			v.Add("category", category)
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/v1/registrants?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	hero := testutil.CreateRegistrant(t, regRepo, "Hero", "hero01", "hero@camp.cd", "", nil, true)
	naughty := testutil.CreateRegistrant(t, regRepo, "N Dog", "ndog01", "ndog@camp.cd", "", nil, false) // 😂
	admin := testutil.CreateAdmin(t, regRepo, "Admin", "admin01", "admin@camp.cd", "", false)
	superAdmin := testutil.CreateAdmin(t, regRepo, "Big Boss", "bigboss", "boss@camp.cd", "", true)

	adminToken := getToken(t, admin)
	empty := marchallList(t, []interface{}{}...)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/registrants", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/registrants", token: getToken(t, hero), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{name: "Get all", path: "/v1/registrants", token: adminToken, wantData: marchallList(t, hero, naughty, admin, superAdmin)},
		{name: "search (unknown)", path: path("lmaooolol", "", "", nil), token: adminToken, wantData: empty},
		{name: "search=hero", path: path("hero", "", "", nil), token: adminToken, wantData: marchallList(t, hero)},
		{name: "role=admin:", path: path("", "", "", nil, registrant.RoleAdmin), token: adminToken, wantData: marchallList(t, admin, superAdmin)},
		{name: "is_active=false", path: path("", "", "", bPtr(false)), token: adminToken, wantData: marchallList(t, naughty)},
		{name: "status=pending", path: path("", registrant.StatusPending, "", nil), token: adminToken, wantData: marchallList(t, hero, naughty)},
		{name: "category=student", path: path("", "", registrant.CategoryStudent, nil), token: adminToken, wantData: marchallList(t, hero, naughty)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_registrantApi_retrieve(t *testing.T) {
	app := setup(t)

	hero := testutil.CreateRegistrant(t, regRepo, "Hero", "hero01", "hero@camp.cd", "", nil, true)
	other := testutil.CreateRegistrant(t, regRepo, "Other", "other01", "other@camp.cd", "", nil, true)
	admin := testutil.CreateAdmin(t, regRepo, "Admin", "admin01", "admin@camp.cd", "", false)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/registrants/" + hero.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Self", path: "/v1/registrants/" + hero.ID, token: getToken(t, hero), wantCode: http.StatusOK, wantData: marchallObj(t, hero)},
		{
			name: "Someone else's account appears to not exist", path: "/v1/registrants/" + other.ID, token: getToken(t, hero),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{name: "Admin sees anyone", path: "/v1/registrants/" + hero.ID, token: getToken(t, admin), wantCode: http.StatusOK, wantData: marchallObj(t, hero)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_registrantApi_update(t *testing.T) {
	app := setup(t)

	hero := testutil.CreateRegistrant(t, regRepo, "Hero", "hero01", "hero@camp.cd", "", nil, true)
	admin := testutil.CreateAdmin(t, regRepo, "Admin", "admin01", "admin@camp.cd", "", false)

	t.Run("self cannot touch roles", func(t *testing.T) {
		body := marchallObj(t, registrant.UpdateRegistrant{Roles: registrant.AdminRoles})
		req, rec := newAuthRequest(http.MethodPut, "/v1/registrants/"+hero.ID, getToken(t, hero), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("self updates own name", func(t *testing.T) {
		body := marchallObj(t, registrant.UpdateRegistrant{Name: "Hero Reborn"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/registrants/"+hero.ID, getToken(t, hero), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var reg registrant.Registrant
		if err := json.Unmarshal(rec.Body.Bytes(), &reg); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if reg.Name != "Hero Reborn" {
			t.Errorf("failed! name = %v; want %v", reg.Name, "Hero Reborn")
		}
	})

	t.Run("admin cannot grant a role above their own", func(t *testing.T) {
		body := marchallObj(t, registrant.UpdateRegistrant{Roles: []string{registrant.RoleAdminSuper}})
		req, rec := newAuthRequest(http.MethodPut, "/v1/registrants/"+hero.ID, getToken(t, admin), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"roles": "not enough rights to set these roles"}),
		}, rec)
	})

	t.Run("admin deactivates account", func(t *testing.T) {
		isActive := false
		body := marchallObj(t, registrant.UpdateRegistrant{IsActive: &isActive})
		req, rec := newAuthRequest(http.MethodPut, "/v1/registrants/"+hero.ID, getToken(t, admin), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var reg registrant.Registrant
		if err := json.Unmarshal(rec.Body.Bytes(), &reg); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if reg.IsActive == nil || *reg.IsActive {
			t.Error("failed! account still active")
		}
	})
}

func Test_registrantApi_setStatus(t *testing.T) {
	app := setup(t)

	hero := testutil.CreateRegistrant(t, regRepo, "Hero", "hero01", "hero@camp.cd", "", nil, true)
	admin := testutil.CreateAdmin(t, regRepo, "Admin", "admin01", "admin@camp.cd", "", false)
	adminToken := getToken(t, admin)

	path := "/v1/registrants/" + hero.ID + "/status"

	t.Run("admin required", func(t *testing.T) {
		body := marchallObj(t, registrant.StatusUpdate{Action: registrant.ActionApprove})
		req, rec := newAuthRequest(http.MethodPut, path, getToken(t, hero), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	decide := func(t *testing.T, action, comment, wantStatus string) registrant.Registrant {
		t.Helper()
		body := marchallObj(t, registrant.StatusUpdate{Action: action, AdminComment: comment})
		req, rec := newAuthRequest(http.MethodPut, path, adminToken, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var reg registrant.Registrant
		if err := json.Unmarshal(rec.Body.Bytes(), &reg); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if reg.RegistrationStatus != wantStatus {
			t.Errorf("failed! status = %v; want %v", reg.RegistrationStatus, wantStatus)
		}
		return reg
	}

	t.Run("approve", func(t *testing.T) { decide(t, registrant.ActionApprove, "", registrant.StatusApproved) })
	t.Run("approve again is a no-op", func(t *testing.T) { decide(t, registrant.ActionApprove, "", registrant.StatusApproved) })
	t.Run("reject overrides", func(t *testing.T) {
		reg := decide(t, registrant.ActionReject, "docs missing", registrant.StatusRejected)
		if reg.AdminComment != "docs missing" {
			t.Errorf("failed! adminComment = %v; want %v", reg.AdminComment, "docs missing")
		}
	})

	t.Run("invalid action", func(t *testing.T) {
		body := marchallObj(t, registrant.StatusUpdate{Action: "obliterate"})
		req, rec := newAuthRequest(http.MethodPut, path, adminToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusBadRequest)
		}
	})
}

func Test_registrantApi_paymentAccess(t *testing.T) {
	app := setup(t)

	hero := testutil.CreateRegistrant(t, regRepo, "Hero", "hero01", "hero@camp.cd", "", nil, true)
	admin := testutil.CreateAdmin(t, regRepo, "Admin", "admin01", "admin@camp.cd", "", false)

	path := "/v1/registrants/" + hero.ID + "/payment-access"

	t.Run("registrant requests access", func(t *testing.T) {
		body := marchallObj(t, registrant.PaymentAccessRequest{Message: "my transfer only clears next week, please bear with me"})
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, hero), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var reg registrant.Registrant
		if err := json.Unmarshal(rec.Body.Bytes(), &reg); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if reg.PaymentRequestStatus != registrant.PaymentRequestPending {
			t.Errorf("failed! paymentRequestStatus = %v; want %v", reg.PaymentRequestStatus, registrant.PaymentRequestPending)
		}
		if reg.PaymentAccessGranted {
			t.Error("failed! access granted without review")
		}
	})

	t.Run("registrant cannot review", func(t *testing.T) {
		body := marchallObj(t, registrant.PaymentAccessReview{Action: registrant.ActionApprove})
		req, rec := newAuthRequest(http.MethodPut, path, getToken(t, hero), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("admin approves", func(t *testing.T) {
		body := marchallObj(t, registrant.PaymentAccessReview{Action: registrant.ActionApprove})
		req, rec := newAuthRequest(http.MethodPut, path, getToken(t, admin), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var reg registrant.Registrant
		if err := json.Unmarshal(rec.Body.Bytes(), &reg); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if reg.PaymentRequestStatus != registrant.PaymentRequestApproved {
			t.Errorf("failed! paymentRequestStatus = %v; want %v", reg.PaymentRequestStatus, registrant.PaymentRequestApproved)
		}
		if !reg.PaymentAccessGranted {
			t.Error("failed! access not granted")
		}
	})

	t.Run("admin revokes", func(t *testing.T) {
		body := marchallObj(t, registrant.PaymentAccessReview{Action: registrant.ActionRevoke, AdminComment: "deadline extension over"})
		req, rec := newAuthRequest(http.MethodPut, path, getToken(t, admin), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var reg registrant.Registrant
		if err := json.Unmarshal(rec.Body.Bytes(), &reg); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if reg.PaymentRequestStatus != registrant.PaymentRequestRevoked {
			t.Errorf("failed! paymentRequestStatus = %v; want %v", reg.PaymentRequestStatus, registrant.PaymentRequestRevoked)
		}
		if reg.PaymentAccessGranted {
			t.Error("failed! access still granted")
		}
	})
}

func Test_registrantApi_destroy(t *testing.T) {
	app := setup(t)

	hero := testutil.CreateRegistrant(t, regRepo, "Hero", "hero01", "hero@camp.cd", "", nil, true)
	admin := testutil.CreateAdmin(t, regRepo, "Admin", "admin01", "admin@camp.cd", "", false)
	adminToken := getToken(t, admin)

	t.Run("admin required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/registrants/"+hero.ID, getToken(t, hero))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("Say No to Suicide", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/registrants/"+admin.ID, adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("deleted", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/registrants/"+hero.ID, adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
		}

		if _, err := regRepo.GetRegistrant(context.Background(), registrant.GetFilter{ID: hero.ID}); err != registrant.ErrNotFound {
			t.Errorf("failed! err = %v; want %v", err, registrant.ErrNotFound)
		}
	})
}

func Test_registrantApi_destroyMultiple(t *testing.T) {
	app := setup(t)

	hero := testutil.CreateRegistrant(t, regRepo, "Hero", "hero01", "hero@camp.cd", "", nil, true)
	other := testutil.CreateRegistrant(t, regRepo, "Other", "other01", "other@camp.cd", "", nil, true)
	admin := testutil.CreateAdmin(t, regRepo, "Admin", "admin01", "admin@camp.cd", "", false)
	adminToken := getToken(t, admin)

	path := func(ids ...string) string {
		v := make(url.Values)
		for _, id := range ids {
			v.Add("id", id)
		}
		return "/v1/registrants?" + v.Encode()
	}

	t.Run("Say No to Suicide", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, path(hero.ID, admin.ID), adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("deleted", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, path(hero.ID, other.ID), adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
		}
	})
}

func Test_registrantApi_queryRoles(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateAdmin(t, regRepo, "Admin", "admin01", "admin@camp.cd", "", false)

	req, rec := newAuthRequest(http.MethodGet, "/v1/registrants/roles", getToken(t, admin))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, registrant.Roles)}, rec)
}

func Test_registrantApi_resetPassword(t *testing.T) {
	app := setup(t)

	hero := testutil.CreateRegistrant(t, regRepo, "Hero", "hero01", "hero@camp.cd", "LolC@t123", nil, true)
	successData := marchallObj(t, echoapi.SuccessResponse{Success: "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."})

	tests := []httpTest{
		{name: "required fields", wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"email": "this field is required"})},
		{
			name: "invalid email", wantCode: http.StatusBadRequest, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol"}),
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		// same response either way: do not leak which emails exist
		{name: "unknown email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol@camp.cd"}), wantData: successData},
		{name: "known email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: hero.Email}), wantData: successData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/registrants/password-reset", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
