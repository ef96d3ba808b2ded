package shared

import "testing"

func TestValidEmail(t *testing.T) {
	for _, email := range []string{"jane@example.com", "j.doe+hr@corp.io"} {
		if !ValidEmail(email) {
			t.Errorf("expected %q to be valid", email)
		}
	}
	for _, email := range []string{"", "not-an-email", "missing@tld"} {
		if ValidEmail(email) {
			t.Errorf("expected %q to be invalid", email)
		}
	}
}

func TestValidPhone(t *testing.T) {
	for _, phone := range []string{"+254712345678", "0712 345 678", "(020) 123-4567"} {
		if !ValidPhone(phone) {
			t.Errorf("expected %q to be valid", phone)
		}
	}
	for _, phone := range []string{"", "abc", "12"} {
		if ValidPhone(phone) {
			t.Errorf("expected %q to be invalid", phone)
		}
	}
}

func TestValidatorCollectsAndSortsIssues(t *testing.T) {
	v := NewValidator()
	v.Required("last_name", "", "last name is required")
	v.Required("first_name", "", "first name is required")
	v.Email("email", "nope")

	issues := v.Issues()
	if len(issues) != 3 {
		t.Fatalf("expected 3 issues, got %d", len(issues))
	}
	if issues[0].Field != "email" || issues[1].Field != "first_name" {
		t.Fatalf("issues not sorted: %+v", issues)
	}
}

func TestValidatorDate(t *testing.T) {
	v := NewValidator()
	parsed, ok := v.Date("hire_date", "2024-02-29")
	if !ok || parsed.Day() != 29 {
		t.Fatalf("expected parse to succeed, got %v %v", parsed, ok)
	}

	if _, ok := v.Date("hire_date", "02/29/2024"); ok {
		t.Fatal("expected parse to fail")
	}
	if !v.HasIssues() {
		t.Fatal("expected an issue recorded")
	}
}

func TestParseDate(t *testing.T) {
	if _, err := ParseDate("2024-06-01"); err != nil {
		t.Fatalf("plain date: %v", err)
	}
	if _, err := ParseDate("2024-06-01T10:00:00Z"); err != nil {
		t.Fatalf("rfc3339: %v", err)
	}
	if _, err := ParseDate("June 1st"); err == nil {
		t.Fatal("expected error for free-text date")
	}
}
