package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"legalizador/internal/catalog"
	"legalizador/internal/common"
	"legalizador/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type ReceiptServiceTestSuite struct {
	suite.Suite
	mockRepo    *MockInvoiceRepository
	mockStorage *MockStorageService
	service     *receiptService
	invoice     *models.Invoice
}

func (suite *ReceiptServiceTestSuite) SetupTest() {
	suite.mockRepo = &MockInvoiceRepository{}
	suite.mockStorage = &MockStorageService{}
	suite.mockRepo.Test(suite.T())
	suite.mockStorage.Test(suite.T())

	suite.service = NewReceiptService(suite.mockRepo, suite.mockStorage, zap.NewNop()).(*receiptService)
	suite.service.now = func() time.Time { return time.UnixMilli(1710061200000) }

	invoiceDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	received := 8.0
	voucher := 900.0
	suite.invoice = &models.Invoice{
		ID:            3,
		InvoiceNumber: "FE-1001",
		InvoiceDate:   &invoiceDate,
		CustomerName:  "Tienda Ñandú",
		CustomerCity:  "Bogotá",
		Status:        catalog.StatusComplete,
		VoucherAmount: &voucher,
		Details: []models.InvoiceDetail{
			{ID: 1, SKU: "SKU-1", ProductName: "Café molido", Quantity: 10, UnitPrice: 100, NetAmount: 1000, ReceivedUnits: &received},
		},
	}
}

func (suite *ReceiptServiceTestSuite) TearDownTest() {
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockStorage.AssertExpectations(suite.T())
}

func TestReceiptServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReceiptServiceTestSuite))
}

func (suite *ReceiptServiceTestSuite) TestRender_ProducesPDF() {
	buf, err := suite.service.Render(suite.invoice)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func (suite *ReceiptServiceTestSuite) TestGenerate_PresignedURL() {
	ctx := context.Background()
	suite.mockRepo.On("GetByID", ctx, int64(3)).Return(suite.invoice, nil)
	suite.mockStorage.On("Put", ctx, "1710061200000-recibo-FE-1001.pdf", mock.Anything, mock.AnythingOfType("int64"), "application/pdf").Return(nil)
	suite.mockStorage.On("PresignedURL", ctx, "1710061200000-recibo-FE-1001.pdf").Return("https://minio.local/receipts/x?sig=1", nil)

	url, err := suite.service.Generate(ctx, 3)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "https://minio.local/receipts/x?sig=1", url)
}

func (suite *ReceiptServiceTestSuite) TestGenerate_FallsBackToUploadsRoute() {
	ctx := context.Background()
	suite.mockRepo.On("GetByID", ctx, int64(3)).Return(suite.invoice, nil)
	suite.mockStorage.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything, "application/pdf").Return(nil)
	suite.mockStorage.On("PresignedURL", ctx, mock.Anything).Return("", nil)

	url, err := suite.service.Generate(ctx, 3)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), strings.HasPrefix(url, "/uploads/1710061200000-recibo-"))
}

func (suite *ReceiptServiceTestSuite) TestGenerate_NotFound() {
	ctx := context.Background()
	suite.mockRepo.On("GetByID", ctx, int64(9)).Return(nil, common.NotFound("Factura no encontrada"))

	_, err := suite.service.Generate(ctx, 9)
	assert.True(suite.T(), errors.Is(err, common.ErrNotFound))
}

func (suite *ReceiptServiceTestSuite) TestGenerate_StorageError() {
	ctx := context.Background()
	suite.mockRepo.On("GetByID", ctx, int64(3)).Return(suite.invoice, nil)
	suite.mockStorage.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bucket gone"))

	_, err := suite.service.Generate(ctx, 3)
	assert.EqualError(suite.T(), err, "bucket gone")
}
