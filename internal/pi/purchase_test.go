package pi

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amaan007S/piq-sync/internal/models"
	"github.com/Amaan007S/piq-sync/internal/state"
)

type fakePayments struct {
	created   []PaymentRequest
	approved  []string
	completed []string
	failAt    string
}

func (f *fakePayments) CreatePayment(ctx context.Context, req PaymentRequest) (Payment, error) {
	if f.failAt == "create" {
		return Payment{}, errors.New("create failed")
	}
	f.created = append(f.created, req)
	return Payment{Identifier: "pay-1", Amount: req.Amount, Status: "pending"}, nil
}

func (f *fakePayments) ApprovePayment(ctx context.Context, identifier string) (Payment, error) {
	if f.failAt == "approve" {
		return Payment{}, errors.New("approve failed")
	}
	f.approved = append(f.approved, identifier)
	return Payment{Identifier: identifier, Status: "approved", TxID: "tx-1"}, nil
}

func (f *fakePayments) CompletePayment(ctx context.Context, identifier, txid string) (Payment, error) {
	f.completed = append(f.completed, identifier)
	return Payment{Identifier: identifier, Status: "completed", TxID: txid}, nil
}

func setupFlow() (*PurchaseFlow, *state.Wallet, *state.PowerUps, *state.History, *fakePayments) {
	wallet := state.NewWallet()
	powerUps := state.NewPowerUps(nil)
	history := state.NewHistory(nil)
	payments := &fakePayments{}
	return NewPurchaseFlow(payments, wallet, powerUps, history), wallet, powerUps, history, payments
}

func TestBuyPowerUpDebitsAndCredits(t *testing.T) {
	flow, wallet, powerUps, history, _ := setupFlow()
	wallet.Add(10)

	// Skip Question costs 3
	require.NoError(t, flow.BuyPowerUp(models.PowerUpSkipQuestion, 2))

	assert.Equal(t, 4.0, wallet.Snapshot().PiBalance)
	assert.Equal(t, 2, powerUps.Snapshot()[models.PowerUpSkipQuestion])

	entries := history.Snapshot()
	require.Len(t, entries, 1)
	assert.Equal(t, models.TransactionTypePurchase, entries[0].Type)
	assert.Equal(t, "Skip Question ×2", entries[0].Detail)
	assert.Equal(t, -6.0, entries[0].Amount)
}

func TestBuyPowerUpInsufficientBalance(t *testing.T) {
	flow, wallet, powerUps, history, _ := setupFlow()
	wallet.Add(2)

	err := flow.BuyPowerUp(models.PowerUpSkipQuestion, 1)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// Nothing moved
	assert.Equal(t, 2.0, wallet.Snapshot().PiBalance)
	assert.Equal(t, 0, powerUps.Snapshot()[models.PowerUpSkipQuestion])
	assert.Empty(t, history.Snapshot())
}

func TestBuyPowerUpUnknownName(t *testing.T) {
	flow, wallet, _, _, _ := setupFlow()
	wallet.Add(100)

	err := flow.BuyPowerUp("Time Machine", 1)
	assert.ErrorIs(t, err, ErrUnknownPowerUp)
	assert.Equal(t, 100.0, wallet.Snapshot().PiBalance)
}

func TestTopUpCreditsWalletOnCompletion(t *testing.T) {
	flow, wallet, _, history, payments := setupFlow()

	require.NoError(t, flow.TopUp(context.Background(), 5, ""))

	assert.Equal(t, 5.0, wallet.Snapshot().PiBalance)
	require.Len(t, payments.created, 1)
	assert.Equal(t, "Top-up PiQ Wallet", payments.created[0].Memo)
	assert.Equal(t, []string{"pay-1"}, payments.approved)
	assert.Equal(t, []string{"pay-1"}, payments.completed)

	entries := history.Snapshot()
	require.Len(t, entries, 1)
	assert.Equal(t, models.TransactionTypeTopUp, entries[0].Type)
	assert.Equal(t, 5.0, entries[0].Amount)
}

func TestTopUpFailureLeavesWalletUntouched(t *testing.T) {
	flow, wallet, _, history, payments := setupFlow()
	payments.failAt = "approve"

	err := flow.TopUp(context.Background(), 5, "")
	assert.Error(t, err)
	assert.Equal(t, 0.0, wallet.Snapshot().PiBalance)
	assert.Empty(t, history.Snapshot())
}
