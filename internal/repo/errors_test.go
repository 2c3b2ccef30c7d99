package repo

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"
)

func TestCheckID(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"6f1c1c3e-8a8b-4c1e-9a55-2f4d2f0b9a11", true},
		{"6F1C1C3E-8A8B-4C1E-9A55-2F4D2F0B9A11", true},
		{"", false},
		{"123", false},
		{"{6f1c1c3e-8a8b-4c1e-9a55-2f4d2f0b9a11}", false},
		{"6f1c1c3e8a8b4c1e9a552f4d2f0b9a11", false},
		{"zzzzzzzz-8a8b-4c1e-9a55-2f4d2f0b9a11", false},
	}
	for _, tc := range cases {
		err := checkID("User", "id", tc.in)
		if (err == nil) != tc.ok {
			t.Fatalf("checkID(%q) = %v, want ok=%v", tc.in, err, tc.ok)
		}
	}
}

func TestIsDuplicate(t *testing.T) {
	if !isDuplicate(gorm.ErrDuplicatedKey) {
		t.Fatal("gorm.ErrDuplicatedKey should be a duplicate")
	}
	if !isDuplicate(fmt.Errorf("wrap: %w", gorm.ErrDuplicatedKey)) {
		t.Fatal("wrapped gorm.ErrDuplicatedKey should be a duplicate")
	}
	if !isDuplicate(errors.New("UNIQUE constraint failed: users.email")) {
		t.Fatal("sqlite message should be a duplicate")
	}
	if isDuplicate(errors.New("disk I/O error")) {
		t.Fatal("unrelated error should not be a duplicate")
	}
}

func TestDuplicateKeyError_Unwrap(t *testing.T) {
	err := &DuplicateKeyError{Model: "User", Field: "email", Err: gorm.ErrDuplicatedKey}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatal("DuplicateKeyError should unwrap to its cause")
	}
}
