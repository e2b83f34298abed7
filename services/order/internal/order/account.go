package order

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// BoothAccount is the bank account customers transfer to when paying.
type BoothAccount struct {
	BoothID       int64     `json:"boothId" bson:"_id"`
	AccountBank   string    `json:"accountBank" bson:"account_bank"`
	AccountNo     string    `json:"accountNo" bson:"account_no"`
	AccountHolder string    `json:"accountHolder" bson:"account_holder"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updated_at"`
}

func (a *BoothAccount) ResourceType() string {
	return "booth account"
}

func (a *BoothAccount) BeforeUpdate() {
	a.UpdatedAt = time.Now()
}

type BoothAccountRequest struct {
	AccountBank   string `json:"accountBank"`
	AccountNo     string `json:"accountNo"`
	AccountHolder string `json:"accountHolder"`
}

func (s *Service) GetBoothAccount(ctx context.Context, boothID int64) (*BoothAccount, error) {
	account, err := s.repos.BoothAccountRepo.Get(ctx, boothID)
	if err != nil {
		return nil, fmt.Errorf("cannot get booth account: %w", err)
	}
	if account == nil {
		return nil, &NotFoundError{Resource: "booth account", ID: boothID}
	}
	return account, nil
}

// SetBoothAccount replaces the booth's account, creating it on first use.
func (s *Service) SetBoothAccount(ctx context.Context, boothID int64, req BoothAccountRequest) (*BoothAccount, error) {
	if errs := ValidateBoothAccount(req); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	account := &BoothAccount{
		BoothID:       boothID,
		AccountBank:   strings.TrimSpace(req.AccountBank),
		AccountNo:     strings.TrimSpace(req.AccountNo),
		AccountHolder: strings.TrimSpace(req.AccountHolder),
	}
	account.BeforeUpdate()

	if err := s.repos.BoothAccountRepo.Upsert(ctx, account); err != nil {
		return nil, fmt.Errorf("cannot save booth account: %w", err)
	}
	return account, nil
}
