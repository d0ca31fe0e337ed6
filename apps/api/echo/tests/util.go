package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/kampi/apps/api/echo"
	"github.com/trezcool/kampi/core"
	"github.com/trezcool/kampi/core/content"
	"github.com/trezcool/kampi/core/payment"
	"github.com/trezcool/kampi/core/registrant"
	"github.com/trezcool/kampi/core/settings"
	"github.com/trezcool/kampi/core/slip"
	emailsvc "github.com/trezcool/kampi/services/email"
	dummydb "github.com/trezcool/kampi/storage/database/dummy"
)

var (
	regRepo  registrant.Repository
	pmtRepo  payment.Repository
	slipRepo slip.Repository
	setRepo  settings.Repository
	cntRepo  content.Repository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
)

func setup(t *testing.T) Server {
	t.Helper()

	// set up DB & repos
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}
	regRepo = dummydb.NewRegistrantRepository(db)
	pmtRepo = dummydb.NewPaymentRepository(db)
	slipRepo = dummydb.NewSlipRepository(db)
	setRepo = dummydb.NewSettingsRepository(db)
	cntRepo = dummydb.NewContentRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock()
	regSvc := registrant.NewServiceMock(nil, regRepo, mailSvc)
	setSvc := settings.NewService(setRepo)
	pmtSvc := payment.NewService(nil, pmtRepo, regSvc, setSvc, mailSvc)
	slipSvc := slip.NewService(slipRepo)
	cntSvc := content.NewService(cntRepo)

	// set up validation
	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	registrant.RegisterValidators(validate, translator)

	// set up server
	return NewServer(
		&Options{
			DisableReqLogs: true,
			Validate:       validate,
			Translator:     translator,

			RegistrantSvc: regSvc,
			PaymentSvc:    pmtSvc,
			SettingsSvc:   setSvc,
			SlipSvc:       slipSvc,
			ContentSvc:    cntSvc,
		},
	)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, reg registrant.Registrant) string {
	claims := GetRegistrantClaims(reg)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

// nolint
func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
