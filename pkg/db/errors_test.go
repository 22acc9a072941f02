package db

import (
	"errors"
	"testing"
)

func TestIsUniqueViolation(t *testing.T) {
	err := errors.New(`duplicate key value violates unique constraint "ux_appointments_doctor_slot"`)

	if !IsUniqueViolation(err, "") {
		t.Fatal("expected generic duplicate key match")
	}
	if !IsUniqueViolation(err, "ux_appointments_doctor_slot") {
		t.Fatal("expected constraint name match")
	}
	if IsUniqueViolation(err, "ux_users_email") {
		t.Fatal("unexpected match for other constraint")
	}
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil error must not match")
	}
	if IsUniqueViolation(errors.New("connection refused"), "") {
		t.Fatal("unrelated error must not match")
	}
}
