package pi

import (
	"context"
	"errors"
	"fmt"

	"github.com/Amaan007S/piq-sync/internal/models"
	"github.com/Amaan007S/piq-sync/internal/state"
)

var (
	ErrUnknownPowerUp      = errors.New("unknown power-up")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Payments is the subset of the platform client the top-up flow needs.
type Payments interface {
	CreatePayment(ctx context.Context, req PaymentRequest) (Payment, error)
	ApprovePayment(ctx context.Context, identifier string) (Payment, error)
	CompletePayment(ctx context.Context, identifier, txid string) (Payment, error)
}

// PurchaseFlow owns the price-checked paths into the wallet: store purchases
// paid from the Pi balance and testnet top-ups paid through the platform.
// The slices themselves never enforce prices.
type PurchaseFlow struct {
	payments Payments
	wallet   *state.Wallet
	powerUps *state.PowerUps
	history  *state.History
}

func NewPurchaseFlow(payments Payments, wallet *state.Wallet, powerUps *state.PowerUps, history *state.History) *PurchaseFlow {
	return &PurchaseFlow{
		payments: payments,
		wallet:   wallet,
		powerUps: powerUps,
		history:  history,
	}
}

// BuyPowerUp debits quantity times the catalog price and credits the
// power-ups. ErrInsufficientBalance leaves everything untouched; the UI
// turns it into a toast, never a crash.
func (f *PurchaseFlow) BuyPowerUp(name string, quantity int) error {
	info, ok := models.FindPowerUp(name)
	if !ok {
		return ErrUnknownPowerUp
	}
	if quantity < 1 {
		return fmt.Errorf("invalid quantity %d", quantity)
	}

	total := info.Price * float64(quantity)
	if !f.wallet.Deduct(total) {
		return ErrInsufficientBalance
	}

	for i := 0; i < quantity; i++ {
		f.powerUps.Buy(name)
	}
	f.history.Append(models.TransactionTypePurchase,
		fmt.Sprintf("%s ×%d", name, quantity), -total)
	return nil
}

// TopUp runs the testnet payment flow and credits the wallet once the
// payment completes.
func (f *PurchaseFlow) TopUp(ctx context.Context, amount float64, memo string) error {
	if amount <= 0 {
		return fmt.Errorf("invalid top-up amount %v", amount)
	}
	if memo == "" {
		memo = "Top-up PiQ Wallet"
	}

	payment, err := f.payments.CreatePayment(ctx, PaymentRequest{
		Amount:   amount,
		Memo:     memo,
		Metadata: map[string]any{"app": "PiQ", "reason": "wallet_topup"},
	})
	if err != nil {
		return err
	}

	if payment, err = f.payments.ApprovePayment(ctx, payment.Identifier); err != nil {
		return err
	}
	if _, err = f.payments.CompletePayment(ctx, payment.Identifier, payment.TxID); err != nil {
		return err
	}

	f.wallet.Add(amount)
	f.history.Append(models.TransactionTypeTopUp, memo, amount)
	return nil
}
