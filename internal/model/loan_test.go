package model

import (
	"testing"
)

func TestLoanCanTransitionTo(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{LoanStatusPending, LoanStatusActive, true},
		{LoanStatusPending, LoanStatusRejected, true},
		{LoanStatusPending, LoanStatusRepaid, false},
		{LoanStatusActive, LoanStatusRepaid, true},
		{LoanStatusActive, LoanStatusDefaulted, true},
		{LoanStatusActive, LoanStatusPending, false},
		{LoanStatusDefaulted, LoanStatusRepaid, true},
		{LoanStatusDefaulted, LoanStatusActive, false},
		{LoanStatusRepaid, LoanStatusActive, false},
		{LoanStatusRejected, LoanStatusActive, false},
		{"UNKNOWN", LoanStatusActive, false},
	}

	for _, tt := range tests {
		if got := LoanCanTransitionTo(tt.from, tt.to); got != tt.want {
			t.Errorf("LoanCanTransitionTo(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTotalExpectedRepayment(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		bps      int
		months   int
		expected int64
	}{
		// 100_000 cents at 1%/month for 6 months: 6_000 interest
		{"one percent six months", 100000, 100, 6, 106000},
		{"zero interest", 50000, 0, 12, 50000},
		{"zero duration", 50000, 500, 0, 50000},
		// 2_000_00 cents at 2.5%/month for 3 months: 15_000 interest
		{"fractional rate", 200000, 250, 3, 215000},
		// truncation: 99 * 100 * 1 / 10000 = 0 cents interest
		{"interest truncates down", 99, 100, 1, 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TotalExpectedRepayment(tt.amount, tt.bps, tt.months); got != tt.expected {
				t.Errorf("TotalExpectedRepayment(%d, %d, %d) = %d, want %d",
					tt.amount, tt.bps, tt.months, got, tt.expected)
			}
		})
	}
}

func TestChamaCanTransitionTo(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{ChamaStatusPending, ChamaStatusActive, true},
		{ChamaStatusPending, ChamaStatusRejected, true},
		{ChamaStatusPending, ChamaStatusClosed, false},
		{ChamaStatusActive, ChamaStatusSuspended, true},
		{ChamaStatusActive, ChamaStatusClosed, true},
		{ChamaStatusActive, ChamaStatusPending, false},
		{ChamaStatusSuspended, ChamaStatusActive, true},
		{ChamaStatusSuspended, ChamaStatusClosed, true},
		{ChamaStatusClosed, ChamaStatusActive, false},
		{ChamaStatusRejected, ChamaStatusActive, false},
	}

	for _, tt := range tests {
		if got := ChamaCanTransitionTo(tt.from, tt.to); got != tt.want {
			t.Errorf("ChamaCanTransitionTo(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIsValidOperationType(t *testing.T) {
	for _, op := range []string{OperationEqualSharing, OperationRotation, OperationGroupPurchase} {
		if !IsValidOperationType(op) {
			t.Errorf("IsValidOperationType(%s) = false, want true", op)
		}
	}
	if IsValidOperationType("LOTTERY") {
		t.Error("IsValidOperationType(LOTTERY) = true, want false")
	}
}
