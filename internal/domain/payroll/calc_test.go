package payroll

import "testing"

func TestComputeTotal(t *testing.T) {
	if got := ComputeTotal(1000, 200, 50, 100); got != 1150 {
		t.Fatalf("expected 1150, got %v", got)
	}
}

func TestComputeTotalZeroComponents(t *testing.T) {
	if got := ComputeTotal(500, 0, 0, 0); got != 500 {
		t.Fatalf("expected 500, got %v", got)
	}
}

func TestComputeTotalDeductionsExceedPay(t *testing.T) {
	if got := ComputeTotal(100, 0, 0, 250); got != -150 {
		t.Fatalf("expected -150, got %v", got)
	}
}
