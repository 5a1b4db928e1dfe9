package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"contas/internal/forecast"
	"contas/internal/storage"
)

// ForecastService projects future account balances from the stored
// monthly net history.
type ForecastService struct {
	accounts storage.AccountStore
	history  storage.HistoryReader
	window   int
	months   int
}

func NewForecastService(accounts storage.AccountStore, history storage.HistoryReader, window, months int) *ForecastService {
	if window <= 0 {
		window = forecast.DefaultWindow
	}
	return &ForecastService{accounts: accounts, history: history, window: window, months: months}
}

// ProjectBalance returns the projected end-of-month balances for the
// account over the configured horizon.
func (s *ForecastService) ProjectBalance(ctx context.Context, accountID uuid.UUID) ([]forecast.MonthBalance, error) {
	account, err := s.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	history, err := s.history.MonthlyNetHistory(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load net history: %w", err)
	}

	return forecast.Project(account.OpeningBalance, history, s.window, s.months), nil
}
