package model

import (
	"testing"
)

func TestContributionCanTransitionTo(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{ContributionStatusPending, ContributionStatusConfirmed, true},
		{ContributionStatusPending, ContributionStatusFailed, true},
		{ContributionStatusConfirmed, ContributionStatusFailed, false},
		{ContributionStatusConfirmed, ContributionStatusPending, false},
		{ContributionStatusFailed, ContributionStatusConfirmed, false},
	}

	for _, tt := range tests {
		if got := ContributionCanTransitionTo(tt.from, tt.to); got != tt.want {
			t.Errorf("ContributionCanTransitionTo(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIsValidManualMethod(t *testing.T) {
	if !IsValidManualMethod(PaymentMethodCash) || !IsValidManualMethod(PaymentMethodBank) {
		t.Error("cash and bank must be valid manual methods")
	}
	// M-Pesa rows are only created through the STK push flow
	if IsValidManualMethod(PaymentMethodMpesa) {
		t.Error("MPESA must not be accepted as a manual method")
	}
	if IsValidManualMethod("CHEQUE") {
		t.Error("unknown method accepted")
	}
}
