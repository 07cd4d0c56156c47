package service

import (
	"context"
	"fmt"
	"strings"

	"fxdesk-ledger/internal/domain"
	"fxdesk-ledger/internal/logger"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendGridAlertService struct {
	apiKey    string
	fromEmail string
	fromName  string
	to        string
}

// NewSendGridAlertService mails supervisor alerts through SendGrid.
func NewSendGridAlertService(apiKey, fromEmail, fromName, to string) AlertService {
	return &sendGridAlertService{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
		to:        to,
	}
}

func (s *sendGridAlertService) SendLegMismatchAlert(ctx context.Context, mismatch *domain.ReconciliationMismatch, currency string) error {
	subject := fmt.Sprintf("Settlement mismatch on %s", mismatch.TransactionID)
	body := fmt.Sprintf("Hello,\n\nThe settlement legs of transaction %s do not add up.\n\nCurrency: %s\nExpected: %s\nLegs total: %s\n\nPlease review the legs before the day is closed.",
		mismatch.TransactionID, currency, mismatch.Expected.String(), mismatch.Actual.String())
	return s.send(ctx, subject, body)
}

func (s *sendGridAlertService) SendSwapFailureAlert(ctx context.Context, failure *domain.SwapPartialFailure) error {
	subject := fmt.Sprintf("Swap %s partially failed", failure.SwapID)
	posted := strings.Join(failure.PostedIDs(), ", ")
	action := "These transactions are still posted and need manual attention: " + posted
	if failure.Compensated {
		action = "These transactions were cancelled automatically: " + posted
	}
	body := fmt.Sprintf("Hello,\n\nThe %s side of swap %s failed after the swap had written to the ledger.\n\nCause: %v\n\n%s",
		strings.ToLower(string(failure.FailedSide)), failure.SwapID, failure.Err, action)
	return s.send(ctx, subject, body)
}

func (s *sendGridAlertService) send(ctx context.Context, subject, body string) error {
	logger.ExternalServiceCall("sendgrid", "Send", "to", s.to, "subject", subject)

	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail("Desk supervisor", s.to)
	message := mail.NewSingleEmail(from, subject, recipient, body, "")

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		err = fmt.Errorf("failed to send alert: %w", err)
	} else if response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}

	logger.ExternalServiceResult("sendgrid", "Send", err, "to", s.to)
	return err
}

type logAlertService struct{}

// NewLogAlertService writes alerts to the log only.
func NewLogAlertService() AlertService {
	return logAlertService{}
}

func (logAlertService) SendLegMismatchAlert(ctx context.Context, mismatch *domain.ReconciliationMismatch, currency string) error {
	logger.WarnContext(ctx, "ALERT settlement mismatch", "transactionID", mismatch.TransactionID,
		"currency", currency, "expected", mismatch.Expected.String(), "actual", mismatch.Actual.String())
	return nil
}

func (logAlertService) SendSwapFailureAlert(ctx context.Context, failure *domain.SwapPartialFailure) error {
	logger.WarnContext(ctx, "ALERT swap partially failed", "swapID", failure.SwapID,
		"failedSide", failure.FailedSide, "sell", failure.SellTransactionID, "buy", failure.BuyTransactionID, "compensated", failure.Compensated, "error", failure.Err)
	return nil
}
