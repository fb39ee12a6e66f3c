package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"opensox/internal/models"
	"opensox/internal/repositories"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
)

const receiptBucket = "receipts"

// ReceiptService renders a PDF receipt for a captured payment, archives
// it in object storage, and hands back a presigned download URL.
type ReceiptService interface {
	GenerateReceipt(ctx context.Context, userID, paymentID uuid.UUID) (string, error)
	BucketName() string
}

type receiptService struct {
	paymentRepo repositories.PaymentRepository
	planRepo    repositories.PlanRepository
	storage     ObjectStorageService
}

func NewReceiptService(paymentRepo repositories.PaymentRepository, planRepo repositories.PlanRepository, storage ObjectStorageService) ReceiptService {
	return &receiptService{
		paymentRepo: paymentRepo,
		planRepo:    planRepo,
		storage:     storage,
	}
}

func (s *receiptService) BucketName() string {
	return receiptBucket
}

func (s *receiptService) GenerateReceipt(ctx context.Context, userID, paymentID uuid.UUID) (string, error) {
	payment, err := s.paymentRepo.GetByID(ctx, userID, paymentID)
	if err != nil {
		return "", fmt.Errorf("failed to load payment: %w", err)
	}
	if payment == nil {
		return "", ErrPaymentNotFound
	}
	if payment.Status != models.PaymentStatusCaptured {
		return "", fmt.Errorf("receipt is only available for captured payments (status: %s)", payment.Status)
	}

	pdfBytes, err := s.renderReceiptPDF(payment)
	if err != nil {
		return "", fmt.Errorf("failed to render receipt: %w", err)
	}
	if len(pdfBytes) == 0 {
		return "", fmt.Errorf("rendered receipt is empty")
	}

	objectName := fmt.Sprintf("%s-%s.pdf", payment.UserID.String(), payment.ID.String())
	if err := s.storage.Upload(ctx, receiptBucket, objectName, bytes.NewReader(pdfBytes), int64(len(pdfBytes)), "application/pdf"); err != nil {
		return "", fmt.Errorf("failed to archive receipt: %w", err)
	}

	url, err := s.storage.GetPresignedURL(receiptBucket, objectName, 24*time.Hour)
	if err != nil {
		return "", fmt.Errorf("failed to presign receipt url: %w", err)
	}
	return url, nil
}

func (s *receiptService) renderReceiptPDF(payment *models.Payment) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 12, "Opensox Payment Receipt")
	pdf.Ln(16)

	pdf.SetFont("Helvetica", "", 11)
	line := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(55, 8, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, value, "", 1, "L", false, 0, "")
	}

	line("Receipt ID", payment.ID.String())
	line("Gateway Payment ID", payment.RazorpayPaymentID)
	line("Gateway Order ID", payment.RazorpayOrderID)
	line("Amount", fmt.Sprintf("%.2f %s", float64(payment.Amount)/100, payment.Currency))
	line("Status", payment.Status)
	line("Date", payment.CreatedAt.Format("02 Jan 2006 15:04 MST"))

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 6, "This receipt was generated automatically. Amounts are shown in major currency units.")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
