package directory

import (
	"errors"
	"testing"
)

func TestSplitFullName(t *testing.T) {
	first, last, err := SplitFullName("Jane Doe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != "Jane" || last != "Doe" {
		t.Fatalf("got %q %q", first, last)
	}
}

func TestSplitFullNameMultiWordLastName(t *testing.T) {
	first, last, err := SplitFullName("Maria  van der Berg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != "Maria" || last != "van der Berg" {
		t.Fatalf("got %q %q", first, last)
	}
}

func TestSplitFullNameIncomplete(t *testing.T) {
	for _, input := range []string{"", "Jane", "  Jane  "} {
		if _, _, err := SplitFullName(input); !errors.Is(err, ErrIncompleteName) {
			t.Errorf("SplitFullName(%q): expected ErrIncompleteName, got %v", input, err)
		}
	}
}

func TestFullName(t *testing.T) {
	emp := Employee{FirstName: "Jane", LastName: "Doe"}
	if emp.FullName() != "Jane Doe" {
		t.Fatalf("got %q", emp.FullName())
	}
}
