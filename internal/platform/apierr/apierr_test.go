package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestFromUnwrapsWrappedError(t *testing.T) {
	inner := BadRequest("invalid_request", errors.New("topics required"))
	got := From(fmt.Errorf("handler: %w", inner), "internal")
	if got.Status != http.StatusBadRequest || got.Code != "invalid_request" {
		t.Fatalf("got status=%d code=%q", got.Status, got.Code)
	}
}

func TestFromFallsBackToInternal(t *testing.T) {
	got := From(errors.New("boom"), "lesson_plan_failed")
	if got.Status != http.StatusInternalServerError || got.Code != "lesson_plan_failed" {
		t.Fatalf("got status=%d code=%q", got.Status, got.Code)
	}
	if got.Error() != "boom" {
		t.Fatalf("message=%q", got.Error())
	}
	if From(nil, "x") != nil {
		t.Fatalf("nil error should map to nil")
	}
}
