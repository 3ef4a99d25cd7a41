package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func TestBearerToken(t *testing.T) {
	cases := map[string]struct {
		header string
		want   string
		ok     bool
	}{
		"bearer":         {header: "Bearer abc.def", want: "abc.def", ok: true},
		"lowercase":      {header: "bearer   abc", want: "abc", ok: true},
		"empty":          {header: "", ok: false},
		"missing scheme": {header: "abc.def", ok: false},
		"scheme only":    {header: "Bearer ", ok: false},
		"basic":          {header: "Basic dXNlcjpwYXNz", ok: false},
	}
	for name, tc := range cases {
		got, err := BearerToken(tc.header)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%s: expected %q, got %q (%v)", name, tc.want, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%s: expected error, got %q", name, got)
		}
	}
}

type orderBody struct {
	Email    string `json:"customer_email" validate:"required,email"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

func TestDecodeJSONBodyReportsFieldsByJSONName(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"customer_email":"nope","quantity":0}`))
	var body orderBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details %T", typed.Details())
	}
	if details["customer_email"] != "must be a valid email" {
		t.Fatalf("unexpected email detail %q", details["customer_email"])
	}
	if details["quantity"] != "must be greater than 0" {
		t.Fatalf("unexpected quantity detail %q", details["quantity"])
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"customer_email":"a@b.co","quantity":1,"coupon":"x"}`))
	var body orderBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest("GET", "/?limit=7&bad=x&big=500", nil)
	if v, err := ParseQueryInt(req, "limit", 10, 1, 100); err != nil || v != 7 {
		t.Fatalf("expected 7, got %d (%v)", v, err)
	}
	if v, err := ParseQueryInt(req, "missing", 10, 1, 100); err != nil || v != 10 {
		t.Fatalf("expected default 10, got %d (%v)", v, err)
	}
	if _, err := ParseQueryInt(req, "bad", 10, 1, 100); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for non numeric value")
	}
	if _, err := ParseQueryInt(req, "big", 10, 1, 100); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for out of range value")
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  leave at door  ", 5); got != "leave" {
		t.Fatalf("unexpected %q", got)
	}
	if got := SanitizeString(" ok ", 0); got != "ok" {
		t.Fatalf("unexpected %q", got)
	}
}
