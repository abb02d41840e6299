package service

import (
	"encoding/json"
	"math/rand"
)

// Pure payout arithmetic, kept free of storage so it can be tested directly.

// SplitEqually divides total cents across n recipients. Integer division
// leaves up to n-1 remainder cents; those go one each to the earliest
// recipients so the split always sums to exactly total.
func SplitEqually(total int64, n int) []int64 {
	if n <= 0 {
		return nil
	}
	base := total / int64(n)
	remainder := total - base*int64(n)

	shares := make([]int64, n)
	for i := range shares {
		shares[i] = base
		if int64(i) < remainder {
			shares[i]++
		}
	}
	return shares
}

// RotationDisbursement returns the amount actually paid out and the shortfall
// for a rotation payout: min(balance, target), never blocking on an
// underfunded pool. A chama without a target disburses the whole pool.
func RotationDisbursement(balance, target int64) (payout, shortfall int64) {
	if target <= 0 {
		return balance, 0
	}
	if balance >= target {
		return target, 0
	}
	return balance, target - balance
}

// NextRotationIndex advances the recipient pointer by one, wrapping.
func NextRotationIndex(current, length int) int {
	if length <= 0 {
		return 0
	}
	return (current + 1) % length
}

// ShuffleOrder reorders the rotation list in place with a uniform
// Fisher-Yates shuffle.
func ShuffleOrder(order []int64) {
	for i := len(order) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}
}

// ParseRotationOrder decodes the stored JSON order; empty input is an empty order.
func ParseRotationOrder(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	var order []int64
	if err := json.Unmarshal([]byte(raw), &order); err != nil {
		return nil, err
	}
	return order, nil
}

// EncodeRotationOrder encodes an order list for storage.
func EncodeRotationOrder(order []int64) string {
	b, _ := json.Marshal(order)
	return string(b)
}
