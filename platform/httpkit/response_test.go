package httpkit

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"crm_pipeline_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

func handleOnTestContext(t *testing.T, err error) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if handled := HandleError(c, err); !handled {
		t.Fatal("expected error to be handled")
	}
	return recorder, c
}

func TestHandleError_DomainErrorMapsKind(t *testing.T) {
	recorder, _ := handleOnTestContext(t, apperr.Validation("invalid stage id"))

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "invalid stage id") {
		t.Fatalf("expected validation message in body, got %s", recorder.Body.String())
	}
}

func TestHandleError_InternalKindMasked(t *testing.T) {
	err := apperr.Wrap(apperr.KindInternal, "failed to move placement", errors.New("pq: out of shared memory"))
	recorder, _ := handleOnTestContext(t, err)

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", recorder.Code)
	}
	body := recorder.Body.String()
	if strings.Contains(body, "shared memory") || strings.Contains(body, "failed to move placement") {
		t.Fatalf("internal cause leaked to client: %s", body)
	}
}

func TestHandleError_UntypedErrorDoesNotLeak(t *testing.T) {
	cause := errors.New("failed to connect to host=db.internal user=crm password=hunter2")
	recorder, c := handleOnTestContext(t, cause)

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for untyped error, got %d", recorder.Code)
	}
	body := recorder.Body.String()
	if strings.Contains(body, "hunter2") || strings.Contains(body, "db.internal") {
		t.Fatalf("datastore error text leaked to client: %s", body)
	}
	if !strings.Contains(body, "internal error") {
		t.Fatalf("expected generic message, got %s", body)
	}

	// The cause must still be available to the request logger.
	if last := c.Errors.Last(); last == nil || !errors.Is(last.Err, cause) {
		t.Fatal("expected cause attached to the gin context")
	}
}

func TestHandleError_NilError(t *testing.T) {
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)

	if HandleError(c, nil) {
		t.Fatal("nil error must not be handled")
	}
}
