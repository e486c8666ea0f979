package service

import (
    "context"

    "github.com/shopspring/decimal"
)

// Verdict is the gateway's answer for one charge attempt.
type Verdict struct {
    Approved       bool   `json:"approved"`
    TransactionRef string `json:"transaction_ref"`
}

// PaymentGateway yields a success/fail verdict for a booking's amount.
// The call may take seconds on a real provider, so it is always invoked
// outside any database transaction; its verdict is then fed into
// Confirm or Cancel.
type PaymentGateway interface {
    Charge(ctx context.Context, bookingID uint64, amount decimal.Decimal, metadata map[string]string) (Verdict, error)
}

// MockGateway approves every charge and mints a TXN_ reference. It
// stands in for a real provider in development and tests; declining
// behaviour can be exercised by setting Decline.
type MockGateway struct {
    Decline bool
}

// Charge implements PaymentGateway.
func (g *MockGateway) Charge(_ context.Context, _ uint64, _ decimal.Decimal, _ map[string]string) (Verdict, error) {
    if g.Decline {
        return Verdict{Approved: false, TransactionRef: NewTransactionRef()}, nil
    }
    return Verdict{Approved: true, TransactionRef: NewTransactionRef()}, nil
}
