package schema

import (
	"testing"

	"github.com/shahed-archive/shahed-archive-go/internal/model"
)

// TestValidateComplete verifies that a payload with all required fields passes.
func TestValidateComplete(t *testing.T) {
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("NewValidator() error = %v", err)
	}

	req := model.CreateRecordRequest{
		PersonalInfo: model.PersonalInfo{
			Name:            "محمد الدرة",
			NameEnglish:     "Muhammad al-Durrah",
			DateOfBirth:     "1988-12-01",
			DateOfMartyrdom: "2000-09-30",
			MartyrdomPlace:  "Gaza",
		},
	}

	if err := v.Validate(req); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

// TestValidateMissingFields verifies that missing required fields are reported
// by dotted path.
func TestValidateMissingFields(t *testing.T) {
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("NewValidator() error = %v", err)
	}

	req := model.CreateRecordRequest{
		PersonalInfo: model.PersonalInfo{
			Name: "اسم",
			// dates absent
		},
	}

	err = v.Validate(req)
	if err == nil {
		t.Fatal("Validate() error = nil, want missing-field error")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("Validate() error type = %T, want *ValidationError", err)
	}

	want := map[string]bool{
		"personalInfo.dateOfBirth":     false,
		"personalInfo.dateOfMartyrdom": false,
	}
	for _, f := range verr.MissingFields {
		if _, known := want[f]; known {
			want[f] = true
		}
	}
	for f, seen := range want {
		if !seen {
			t.Errorf("Validate() missing fields %v do not include %q", verr.MissingFields, f)
		}
	}
}

// TestValidateBadDateFormat verifies that malformed dates fail validation
// without being reported as missing.
func TestValidateBadDateFormat(t *testing.T) {
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("NewValidator() error = %v", err)
	}

	req := model.CreateRecordRequest{
		PersonalInfo: model.PersonalInfo{
			Name:            "اسم",
			DateOfBirth:     "12/01/1988",
			DateOfMartyrdom: "2000-09-30",
		},
	}

	err = v.Validate(req)
	if err == nil {
		t.Fatal("Validate() error = nil, want pattern violation")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("Validate() error type = %T, want *ValidationError", err)
	}
	if len(verr.MissingFields) != 0 {
		t.Errorf("Validate() MissingFields = %v, want none", verr.MissingFields)
	}
	if len(verr.Problems) == 0 {
		t.Error("Validate() Problems is empty, want pattern violation")
	}
}
