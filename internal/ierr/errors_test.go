package ierr

import (
	"errors"
	"fmt"
	"testing"
)

func TestMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{Public(ErrValidation, "Please enter the admin password"), "Please enter the admin password"},
		{&APIError{StatusCode: 500, Message: "API Error: 500", Endpoint: "/admin/licenses"}, "API Error: 500"},
		{fmt.Errorf("%w: GET /admin/activity", ErrTimeout), "Request timeout. Please check your connection."},
		{errors.New("boom"), "boom"},
	}
	for _, tc := range cases {
		if got := Message(tc.err); got != tc.want {
			t.Fatalf("Message(%v) = %q want %q", tc.err, got, tc.want)
		}
	}
}

func TestAPIErrorKinds(t *testing.T) {
	if !errors.Is(&APIError{StatusCode: 404}, ErrNotFound) {
		t.Fatalf("404 should unwrap to ErrNotFound")
	}
	if !errors.Is(&APIError{StatusCode: 401}, ErrUnauthorized) {
		t.Fatalf("401 should unwrap to ErrUnauthorized")
	}
	if !errors.Is(&APIError{StatusCode: 409}, ErrBackend) {
		t.Fatalf("other statuses should unwrap to ErrBackend")
	}
	if IsUnreachable(&APIError{StatusCode: 500}) {
		t.Fatalf("500 is not unreachable")
	}
	if !IsUnreachable(fmt.Errorf("%w: dial", ErrNetwork)) {
		t.Fatalf("network errors are unreachable")
	}
}

func TestPublicErrorKind(t *testing.T) {
	err := Public(ErrInvalidCredentials, "Invalid admin password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("public error must keep its kind")
	}
}
