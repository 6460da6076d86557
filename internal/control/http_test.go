package control

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouterPatchSettingsRejectsNonJSONContentType(t *testing.T) {
	settings := New("", false, false)
	settings.AddPropWithValidator(PropQuiet, Value{Kind: KindBool}, nil)
	r := Router(settings, nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/settings/", strings.NewReader(`{"prop":"quiet","value":true}`))
	req.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}

func TestRouterPatchSettingsAcceptsJSONContentType(t *testing.T) {
	settings := New("", false, false)
	settings.AddPropWithValidator(PropQuiet, Value{Kind: KindBool}, nil)
	r := Router(settings, nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/settings/", strings.NewReader(`{"prop":"quiet","value":true}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
