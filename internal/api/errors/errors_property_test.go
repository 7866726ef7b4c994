package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestPropertyErrorBodyCarriesMessageAndCode(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	genCode := gen.OneConstOf(CodeInvalidRequest, CodeNotFound, CodeCommandFailed, CodeInternalError)
	genRequestID := gen.RegexMatch(`[a-z0-9/-]{0,24}`)

	properties.Property("body has error and code, request_id only when set", prop.ForAll(
		func(code, message, requestID string) bool {
			rr := httptest.NewRecorder()
			WriteError(rr, New(code, message).WithRequestID(requestID))

			if rr.Header().Get("Content-Type") != "application/json" {
				return false
			}

			var body map[string]any
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				return false
			}
			if body["error"] != message || body["code"] != code {
				return false
			}
			_, hasID := body["request_id"]
			return hasID == (requestID != "")
		},
		genCode,
		gen.AlphaString(),
		genRequestID,
	))

	properties.Property("status code follows the error code", prop.ForAll(
		func(code string) bool {
			rr := httptest.NewRecorder()
			WriteError(rr, New(code, "x"))

			switch code {
			case CodeInvalidRequest:
				return rr.Code == http.StatusBadRequest
			case CodeNotFound:
				return rr.Code == http.StatusNotFound
			default:
				return rr.Code == http.StatusInternalServerError
			}
		},
		genCode,
	))

	properties.TestingRun(t)
}

func TestErrorString(t *testing.T) {
	if got := NewCommandFailed("rig not found").Error(); got != "command_failed: rig not found" {
		t.Fatalf("unexpected error string %q", got)
	}
}
