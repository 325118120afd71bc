package validator

import (
	"testing"

	"areabutler_backend/platform/apperr"
)

type statusRequest struct {
	Status string `json:"status" validate:"omitempty,status"`
	Name   string `json:"name" validate:"required"`
}

func TestRegisterEnumRejectsUnknownValue(t *testing.T) {
	val := New()
	if err := val.RegisterEnum("status", "KAUF", "MIETE"); err != nil {
		t.Fatalf("register: %v", err)
	}

	err := val.Struct(statusRequest{Status: "ALLE", Name: "x"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation kind, got %v", err)
	}

	appErr := err.(*apperr.Error)
	details, ok := appErr.Details.([]apperr.FieldDetails)
	if !ok || len(details) != 1 {
		t.Fatalf("expected one field detail, got %#v", appErr.Details)
	}
	if details[0].Field != "status" || details[0].Reason != "status" {
		t.Fatalf("unexpected detail %+v", details[0])
	}
}

func TestRegisterEnumAllowsEmptyAndKnown(t *testing.T) {
	val := New()
	if err := val.RegisterEnum("status", "KAUF"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := val.Struct(statusRequest{Name: "x"}); err != nil {
		t.Fatalf("empty status should pass: %v", err)
	}
	if err := val.Struct(statusRequest{Status: "KAUF", Name: "x"}); err != nil {
		t.Fatalf("known status should pass: %v", err)
	}
}
