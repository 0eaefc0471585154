package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"estate-crm/internal/core/apperr"
)

func init() { gin.SetMode(gin.TestMode) }

func failWith(err error) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Fail(c, err)
	return w
}

func TestFailHidesStorageCause(t *testing.T) {
	w := failWith(errors.New("pq: relation contacts does not exist"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error != "Internal server error" || body.Kind != apperr.KindStorage {
		t.Fatalf("body = %+v", body)
	}
}

func TestFailKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   apperr.Kind
	}{
		{apperr.MissingCredential("Access token required"), 401, apperr.KindAuthentication},
		{apperr.InvalidCredential("Invalid or expired token"), 403, apperr.KindAuthentication},
		{apperr.Forbidden("missing capability: manage_users"), 403, apperr.KindAuthorization},
		{apperr.BadRequest("name is required"), 400, apperr.KindValidation},
		{apperr.Conflict("Email already exists"), 409, apperr.KindConflict},
		{apperr.NotFound("Lead not found"), 404, apperr.KindNotFound},
	}
	for _, tc := range cases {
		w := failWith(tc.err)
		var body ErrorBody
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if w.Code != tc.status || body.Kind != tc.kind || body.Error != tc.err.Error() {
			t.Errorf("%v: got %d %+v", tc.err, w.Code, body)
		}
	}
}
