// Package notify dispatches customer and tenant notifications. Everything
// here is an edge effect: only the voucher SMS result feeds back into the
// ledger, and even that never blocks a committed fulfillment.
package notify

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/ssewanyana/hotspotbill-backend/pkg/db/models"
	"github.com/ssewanyana/hotspotbill-backend/pkg/logger"
)

type smsSender interface {
	Send(ctx context.Context, msisdn, message string) error
}

type mailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// ServiceParams groups dependencies for the notification service.
type ServiceParams struct {
	SMS    smsSender
	Mail   mailSender
	Logger *logger.Logger
}

// Service fans out notifications.
type Service struct {
	sms  smsSender
	mail mailSender
	logg *logger.Logger
}

// NewService builds a notification service.
func NewService(params ServiceParams) (*Service, error) {
	if params.SMS == nil {
		return nil, stderrors.New("sms sender is required")
	}
	if params.Mail == nil {
		return nil, stderrors.New("mail sender is required")
	}
	if params.Logger == nil {
		return nil, stderrors.New("logger is required")
	}
	return &Service{sms: params.SMS, mail: params.Mail, logg: params.Logger}, nil
}

// SendVoucherSMS delivers the purchased code to the payer. The error is
// surfaced so the caller can refund the SMS debit on failure.
func (s *Service) SendVoucherSMS(ctx context.Context, msisdn, code, packageName, validity string) error {
	msg := fmt.Sprintf("Your %s voucher code is %s. Valid for %s.", packageName, code, validity)
	return s.sms.Send(ctx, msisdn, msg)
}

// NotifySale emails the tenant about a completed purchase. Best effort.
func (s *Service) NotifySale(ctx context.Context, tenant *models.Tenant, packageName string, amount int64, voucherCode string) {
	if tenant == nil || tenant.Email == "" {
		return
	}
	body := fmt.Sprintf("Package %s sold for %d UGX.", packageName, amount)
	if voucherCode != "" {
		body += fmt.Sprintf(" Voucher %s was issued.", voucherCode)
	} else {
		body += " No voucher was available; follow up with the buyer."
	}
	if err := s.mail.Send(ctx, tenant.Email, "New voucher sale", body); err != nil {
		s.logg.Warn(s.logg.WithTenantID(ctx, tenant.ID.String()), "sale email failed: "+err.Error())
	}
}

// NotifyLowBalance warns the tenant their SMS credit is nearly exhausted.
// Best effort.
func (s *Service) NotifyLowBalance(ctx context.Context, tenant *models.Tenant, balance int64) {
	if tenant == nil {
		return
	}
	body := fmt.Sprintf("Your SMS credit balance is down to %d. Top up to keep voucher delivery running.", balance)
	if err := s.mail.Send(ctx, tenant.Email, "Low SMS credit balance", body); err != nil {
		s.logg.Warn(s.logg.WithTenantID(ctx, tenant.ID.String()), "low balance email failed: "+err.Error())
	}
}

// SendWithdrawalOTP emails a payout confirmation code to the tenant.
func (s *Service) SendWithdrawalOTP(ctx context.Context, tenant *models.Tenant, code string, amount int64) error {
	if tenant == nil || tenant.Email == "" {
		return stderrors.New("tenant has no email on file")
	}
	body := fmt.Sprintf("Confirm your withdrawal of %d UGX with code %s. The code expires shortly.", amount, code)
	return s.mail.Send(ctx, tenant.Email, "Withdrawal confirmation code", body)
}
