package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/DubeTracker/dube_ledger_app/internal/apperrors"
	"github.com/DubeTracker/dube_ledger_app/internal/core/allocation"
	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
	portsrepo "github.com/DubeTracker/dube_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/DubeTracker/dube_ledger_app/internal/core/ports/services"
	"github.com/DubeTracker/dube_ledger_app/internal/core/services"
	"github.com/DubeTracker/dube_ledger_app/internal/dto"
)

// --- Mock CreditRepository ---
type MockCreditRepository struct {
	mock.Mock

	// What the applier-based writes would have persisted.
	appliedCredits  []domain.Credit
	appliedPayments []domain.PaymentRecord
}

var _ portsrepo.CreditRepositoryFacade = (*MockCreditRepository)(nil)

func (m *MockCreditRepository) FindCreditByID(ctx context.Context, creditID string) (*domain.Credit, error) {
	args := m.Called(ctx, creditID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Credit), args.Error(1)
}

func (m *MockCreditRepository) ListCreditsByCustomer(ctx context.Context, customerID string) ([]domain.Credit, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Credit), args.Error(1)
}

func (m *MockCreditRepository) ListEligibleCreditsByCustomer(ctx context.Context, customerID string) ([]domain.Credit, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Credit), args.Error(1)
}

func (m *MockCreditRepository) SaveCredit(ctx context.Context, credit domain.Credit, initialPayment *domain.PaymentRecord) error {
	args := m.Called(ctx, credit, initialPayment)
	return args.Error(0)
}

func (m *MockCreditRepository) UpdateCredit(ctx context.Context, credit domain.Credit) error {
	args := m.Called(ctx, credit)
	return args.Error(0)
}

func (m *MockCreditRepository) DeleteCredit(ctx context.Context, creditID string) error {
	args := m.Called(ctx, creditID)
	return args.Error(0)
}

// ApplyToCredits runs the applier against the credits the expectation returns
// as its first value, standing in for the rows a real repository locks and
// re-reads inside the write transaction.
func (m *MockCreditRepository) ApplyToCredits(ctx context.Context, creditIDs []string, apply portsrepo.PaymentApplier) error {
	args := m.Called(ctx, creditIDs, apply)
	if args.Error(1) != nil {
		return args.Error(1)
	}
	return m.runApplier(args.Get(0).([]domain.Credit), apply)
}

func (m *MockCreditRepository) ApplyToEligibleCredits(ctx context.Context, customerID string, apply portsrepo.PaymentApplier) error {
	args := m.Called(ctx, customerID, apply)
	if args.Error(1) != nil {
		return args.Error(1)
	}
	return m.runApplier(args.Get(0).([]domain.Credit), apply)
}

func (m *MockCreditRepository) runApplier(lockedRows []domain.Credit, apply portsrepo.PaymentApplier) error {
	updated, payments, err := apply(lockedRows)
	if err != nil {
		return err
	}
	m.appliedCredits = append(m.appliedCredits, updated...)
	m.appliedPayments = append(m.appliedPayments, payments...)
	return nil
}

func (m *MockCreditRepository) FindPaymentsByCreditID(ctx context.Context, creditID string) ([]domain.PaymentRecord, error) {
	args := m.Called(ctx, creditID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PaymentRecord), args.Error(1)
}

func (m *MockCreditRepository) ListPaymentsByCreditID(ctx context.Context, creditID string, limit int, nextToken *string) ([]domain.PaymentRecord, *string, error) {
	args := m.Called(ctx, creditID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.PaymentRecord), returnedNextToken, args.Error(2)
}

// --- Mock CustomerRepository ---
type MockCustomerRepository struct {
	mock.Mock
}

var _ portsrepo.CustomerRepositoryFacade = (*MockCustomerRepository)(nil)

func (m *MockCustomerRepository) FindCustomerByID(ctx context.Context, customerID string) (*domain.Customer, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) ListCustomersByOwner(ctx context.Context, ownerUserID string, limit int, offset int) ([]domain.Customer, error) {
	args := m.Called(ctx, ownerUserID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) SaveCustomer(ctx context.Context, customer domain.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) UpdateCustomer(ctx context.Context, customer domain.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) DeleteCustomer(ctx context.Context, customerID string) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

// --- Test Suite Setup ---
type CreditServiceTestSuite struct {
	suite.Suite
	mockCreditRepo   *MockCreditRepository
	mockCustomerRepo *MockCustomerRepository
	service          portssvc.CreditSvcFacade
	ownerID          string
	customer         domain.Customer
}

func (suite *CreditServiceTestSuite) SetupTest() {
	suite.mockCreditRepo = new(MockCreditRepository)
	suite.mockCustomerRepo = new(MockCustomerRepository)
	suite.service = services.NewCreditService(suite.mockCreditRepo, suite.mockCustomerRepo)

	suite.ownerID = uuid.NewString()
	suite.customer = domain.Customer{
		CustomerID:  uuid.NewString(),
		OwnerUserID: suite.ownerID,
		Name:        "Abebe Kebede",
		Phone:       "0911234567",
	}
}

// newCredit builds a credit with recomputed derived fields.
func (suite *CreditServiceTestSuite) newCredit(total, paid int64, creditDate time.Time) domain.Credit {
	c := domain.Credit{
		CreditID:    uuid.NewString(),
		CustomerID:  suite.customer.CustomerID,
		Item:        "teff 25kg",
		CreditDate:  creditDate,
		TotalAmount: decimal.NewFromInt(total),
		PaidAmount:  decimal.NewFromInt(paid),
	}
	c.Recalculate()
	return c
}

func (suite *CreditServiceTestSuite) expectCustomerLookup() {
	suite.mockCustomerRepo.On("FindCustomerByID", mock.Anything, suite.customer.CustomerID).Return(&suite.customer, nil)
}

// --- Test Cases ---

func (suite *CreditServiceTestSuite) TestCreateCredit_Success() {
	ctx := context.Background()
	suite.expectCustomerLookup()
	suite.mockCreditRepo.On("SaveCredit", ctx, mock.AnythingOfType("domain.Credit"), (*domain.PaymentRecord)(nil)).Return(nil).Once()

	req := dto.CreateCreditRequest{
		Item:        "fertilizer 50kg",
		TotalAmount: decimal.NewFromInt(1200),
	}

	credit, err := suite.service.CreateCredit(ctx, suite.customer.CustomerID, req, suite.ownerID)

	suite.Require().NoError(err)
	suite.Require().NotNil(credit)
	suite.NotEmpty(credit.CreditID)
	suite.Equal(domain.StatusUnpaid, credit.Status)
	suite.True(credit.RemainingAmount.Equal(decimal.NewFromInt(1200)))
	suite.True(credit.PaidAmount.IsZero())
	suite.mockCreditRepo.AssertExpectations(suite.T())
}

func (suite *CreditServiceTestSuite) TestCreateCredit_WithInitialPayment() {
	ctx := context.Background()
	suite.expectCustomerLookup()

	var savedInitial *domain.PaymentRecord
	suite.mockCreditRepo.On("SaveCredit", ctx, mock.AnythingOfType("domain.Credit"), mock.AnythingOfType("*domain.PaymentRecord")).
		Run(func(args mock.Arguments) {
			savedInitial = args.Get(2).(*domain.PaymentRecord)
		}).Return(nil).Once()

	down := decimal.NewFromInt(200)
	req := dto.CreateCreditRequest{
		Item:           "cement 5 bags",
		TotalAmount:    decimal.NewFromInt(1000),
		InitialPayment: &down,
	}

	credit, err := suite.service.CreateCredit(ctx, suite.customer.CustomerID, req, suite.ownerID)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusPartiallyPaid, credit.Status)
	suite.True(credit.RemainingAmount.Equal(decimal.NewFromInt(800)))
	suite.Require().NotNil(savedInitial)
	suite.True(savedInitial.Amount.Equal(down))
	suite.True(savedInitial.RemainingAfterPayment.Equal(decimal.NewFromInt(800)))
}

func (suite *CreditServiceTestSuite) TestCreateCredit_NonPositiveTotal() {
	ctx := context.Background()
	suite.expectCustomerLookup()

	req := dto.CreateCreditRequest{Item: "salt", TotalAmount: decimal.Zero}

	_, err := suite.service.CreateCredit(ctx, suite.customer.CustomerID, req, suite.ownerID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockCreditRepo.AssertNotCalled(suite.T(), "SaveCredit", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *CreditServiceTestSuite) TestCreateCredit_ForbiddenForOtherUser() {
	ctx := context.Background()
	suite.expectCustomerLookup()

	req := dto.CreateCreditRequest{Item: "sugar", TotalAmount: decimal.NewFromInt(100)}

	_, err := suite.service.CreateCredit(ctx, suite.customer.CustomerID, req, uuid.NewString())

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *CreditServiceTestSuite) TestRecordPayment_Partial() {
	ctx := context.Background()
	credit := suite.newCredit(500, 0, time.Now())
	suite.expectCustomerLookup()
	suite.mockCreditRepo.On("FindCreditByID", mock.Anything, credit.CreditID).Return(&credit, nil).Once()
	suite.mockCreditRepo.On("ApplyToCredits", ctx, []string{credit.CreditID}, mock.Anything).
		Return([]domain.Credit{credit}, nil).Once()

	updated, payment, overpayment, err := suite.service.RecordPayment(ctx, credit.CreditID, decimal.NewFromInt(200), "first installment", suite.ownerID)

	suite.Require().NoError(err)
	suite.False(overpayment)
	suite.Equal(domain.StatusPartiallyPaid, updated.Status)
	suite.True(updated.RemainingAmount.Equal(decimal.NewFromInt(300)))
	suite.True(payment.RemainingAfterPayment.Equal(decimal.NewFromInt(300)))
	suite.Require().Len(suite.mockCreditRepo.appliedCredits, 1)
	suite.Require().Len(suite.mockCreditRepo.appliedPayments, 1)
	suite.True(suite.mockCreditRepo.appliedPayments[0].Amount.Equal(decimal.NewFromInt(200)))
}

func (suite *CreditServiceTestSuite) TestRecordPayment_OverpaymentFloorsAtZero() {
	ctx := context.Background()
	credit := suite.newCredit(500, 400, time.Now())
	suite.expectCustomerLookup()
	suite.mockCreditRepo.On("FindCreditByID", mock.Anything, credit.CreditID).Return(&credit, nil).Once()
	suite.mockCreditRepo.On("ApplyToCredits", ctx, []string{credit.CreditID}, mock.Anything).
		Return([]domain.Credit{credit}, nil).Once()

	updated, payment, overpayment, err := suite.service.RecordPayment(ctx, credit.CreditID, decimal.NewFromInt(150), "", suite.ownerID)

	suite.Require().NoError(err)
	suite.True(overpayment)
	suite.Equal(domain.StatusPaid, updated.Status)
	suite.True(updated.RemainingAmount.IsZero())
	suite.True(payment.RemainingAfterPayment.IsZero())
}

func (suite *CreditServiceTestSuite) TestRecordPayment_RejectsNonPositive() {
	ctx := context.Background()
	credit := suite.newCredit(500, 0, time.Now())
	suite.expectCustomerLookup()
	suite.mockCreditRepo.On("FindCreditByID", mock.Anything, credit.CreditID).Return(&credit, nil).Once()
	suite.mockCreditRepo.On("ApplyToCredits", ctx, []string{credit.CreditID}, mock.Anything).
		Return([]domain.Credit{credit}, nil).Once()

	_, _, _, err := suite.service.RecordPayment(ctx, credit.CreditID, decimal.Zero, "", suite.ownerID)

	suite.Require().Error(err)
	suite.ErrorIs(err, allocation.ErrInvalidAmount)
	// The rejection aborts the transaction, so nothing may be persisted.
	suite.Empty(suite.mockCreditRepo.appliedCredits)
	suite.Empty(suite.mockCreditRepo.appliedPayments)
}

func (suite *CreditServiceTestSuite) TestPreviewBulkPayment_OldestFirst() {
	ctx := context.Background()
	now := time.Now()
	older := suite.newCredit(500, 0, now.Add(-48*time.Hour))
	newer := suite.newCredit(300, 0, now)
	suite.expectCustomerLookup()
	suite.mockCreditRepo.On("ListEligibleCreditsByCustomer", ctx, suite.customer.CustomerID).
		Return([]domain.Credit{newer, older}, nil).Once()

	entries, err := suite.service.PreviewBulkPayment(ctx, suite.customer.CustomerID, decimal.NewFromInt(600), "", suite.ownerID)

	suite.Require().NoError(err)
	suite.Require().Len(entries, 2)
	suite.Equal(older.CreditID, entries[0].CreditID)
	suite.Equal(allocation.FullyPaid, entries[0].Status)
	suite.True(entries[0].AmountToBePaid.Equal(decimal.NewFromInt(500)))
	suite.Equal(newer.CreditID, entries[1].CreditID)
	suite.Equal(allocation.PartialPayment, entries[1].Status)
	suite.True(entries[1].AmountToBePaid.Equal(decimal.NewFromInt(100)))
	suite.True(entries[1].NewRemaining.Equal(decimal.NewFromInt(200)))
}

func (suite *CreditServiceTestSuite) TestPreviewBulkPayment_ExceedsOutstanding() {
	ctx := context.Background()
	older := suite.newCredit(500, 0, time.Now())
	suite.expectCustomerLookup()
	suite.mockCreditRepo.On("ListEligibleCreditsByCustomer", ctx, suite.customer.CustomerID).
		Return([]domain.Credit{older}, nil).Once()

	_, err := suite.service.PreviewBulkPayment(ctx, suite.customer.CustomerID, decimal.NewFromInt(900), "", suite.ownerID)

	suite.Require().Error(err)
	suite.ErrorIs(err, allocation.ErrExceedsOutstanding)
}

func (suite *CreditServiceTestSuite) TestPreviewBulkPayment_UnknownPolicy() {
	ctx := context.Background()
	suite.expectCustomerLookup()

	_, err := suite.service.PreviewBulkPayment(ctx, suite.customer.CustomerID, decimal.NewFromInt(100), "biggest_first", suite.ownerID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockCreditRepo.AssertNotCalled(suite.T(), "ListEligibleCreditsByCustomer", mock.Anything, mock.Anything)
}

func (suite *CreditServiceTestSuite) TestApplyBulkPayment_PersistsTouchedCreditsOnly() {
	ctx := context.Background()
	now := time.Now()
	first := suite.newCredit(500, 0, now.Add(-72*time.Hour))
	second := suite.newCredit(300, 0, now.Add(-48*time.Hour))
	third := suite.newCredit(400, 0, now)
	suite.expectCustomerLookup()
	suite.mockCreditRepo.On("ApplyToEligibleCredits", ctx, suite.customer.CustomerID, mock.Anything).
		Return([]domain.Credit{first, second, third}, nil).Once()

	entries, records, err := suite.service.ApplyBulkPayment(ctx, suite.customer.CustomerID, decimal.NewFromInt(800), "market day collection", "", suite.ownerID)

	suite.Require().NoError(err)
	suite.Require().Len(entries, 3)
	suite.Equal(allocation.FullyPaid, entries[0].Status)
	suite.Equal(allocation.FullyPaid, entries[1].Status)
	suite.Equal(allocation.NoChange, entries[2].Status)

	// The untouched third credit must not be written.
	savedCredits := suite.mockCreditRepo.appliedCredits
	savedPayments := suite.mockCreditRepo.appliedPayments
	suite.Require().Len(savedCredits, 2)
	suite.Require().Len(savedPayments, 2)
	suite.Len(records, 2)
	for _, c := range savedCredits {
		suite.NotEqual(third.CreditID, c.CreditID)
		suite.Equal(domain.StatusPaid, c.Status)
	}
	for _, p := range savedPayments {
		suite.Equal("market day collection", p.Note)
	}
}

func (suite *CreditServiceTestSuite) TestApplyBulkPayment_NoEligibleCredits() {
	ctx := context.Background()
	suite.expectCustomerLookup()
	suite.mockCreditRepo.On("ApplyToEligibleCredits", ctx, suite.customer.CustomerID, mock.Anything).
		Return([]domain.Credit{}, nil).Once()

	entries, records, err := suite.service.ApplyBulkPayment(ctx, suite.customer.CustomerID, decimal.NewFromInt(100), "", "", suite.ownerID)

	suite.Require().NoError(err)
	suite.Empty(entries)
	suite.Empty(records)
	suite.Empty(suite.mockCreditRepo.appliedCredits)
	suite.Empty(suite.mockCreditRepo.appliedPayments)
}

// Balances handed to the distribution must be the ones read under the row
// locks, not the ones from any earlier read. The repository stub returns a
// credit whose balance has moved since it was created; the allocation and the
// written history must reflect the moved balance.
func (suite *CreditServiceTestSuite) TestApplyBulkPayment_AllocatesFromLockedRows() {
	ctx := context.Background()
	credit := suite.newCredit(500, 200, time.Now())
	suite.expectCustomerLookup()
	suite.mockCreditRepo.On("ApplyToEligibleCredits", ctx, suite.customer.CustomerID, mock.Anything).
		Return([]domain.Credit{credit}, nil).Once()

	entries, records, err := suite.service.ApplyBulkPayment(ctx, suite.customer.CustomerID, decimal.NewFromInt(300), "", "", suite.ownerID)

	suite.Require().NoError(err)
	suite.Require().Len(entries, 1)
	suite.True(entries[0].CurrentRemaining.Equal(decimal.NewFromInt(300)))
	suite.Equal(allocation.FullyPaid, entries[0].Status)

	suite.Require().Len(records, 1)
	suite.True(records[0].RemainingAfterPayment.IsZero())
	suite.Require().Len(suite.mockCreditRepo.appliedCredits, 1)
	saved := suite.mockCreditRepo.appliedCredits[0]
	suite.True(saved.PaidAmount.Equal(decimal.NewFromInt(500)))
	suite.Equal(domain.StatusPaid, saved.Status)
	// The eligible set is read inside the repository transaction only.
	suite.mockCreditRepo.AssertNotCalled(suite.T(), "ListEligibleCreditsByCustomer", mock.Anything, mock.Anything)
}

// Recording the same payment twice against the applier-based contract must
// keep paidAmount equal to the sum of the history, with the second write
// computed from the balance the first one left behind.
func (suite *CreditServiceTestSuite) TestRecordPayment_SequentialWritesSeeFreshBalance() {
	ctx := context.Background()
	credit := suite.newCredit(500, 0, time.Now())
	suite.expectCustomerLookup()
	suite.mockCreditRepo.On("FindCreditByID", mock.Anything, credit.CreditID).Return(&credit, nil).Twice()

	// Each call hands the applier the credit as the previous write left it.
	suite.mockCreditRepo.On("ApplyToCredits", ctx, []string{credit.CreditID}, mock.Anything).
		Return([]domain.Credit{credit}, nil).Once()

	_, _, _, err := suite.service.RecordPayment(ctx, credit.CreditID, decimal.NewFromInt(100), "", suite.ownerID)
	suite.Require().NoError(err)
	afterFirst := suite.mockCreditRepo.appliedCredits[0]

	suite.mockCreditRepo.On("ApplyToCredits", ctx, []string{credit.CreditID}, mock.Anything).
		Return([]domain.Credit{afterFirst}, nil).Once()

	_, _, _, err = suite.service.RecordPayment(ctx, credit.CreditID, decimal.NewFromInt(100), "", suite.ownerID)
	suite.Require().NoError(err)

	final := suite.mockCreditRepo.appliedCredits[len(suite.mockCreditRepo.appliedCredits)-1]
	suite.True(final.PaidAmount.Equal(decimal.NewFromInt(200)))
	suite.True(final.RemainingAmount.Equal(decimal.NewFromInt(300)))

	historySum := decimal.Zero
	for _, p := range suite.mockCreditRepo.appliedPayments {
		historySum = historySum.Add(p.Amount)
	}
	suite.True(final.PaidAmount.Equal(historySum))
}

func (suite *CreditServiceTestSuite) TestUpdateCredit_RecomputesDerivedFields() {
	ctx := context.Background()
	credit := suite.newCredit(500, 200, time.Now())
	suite.expectCustomerLookup()
	suite.mockCreditRepo.On("FindCreditByID", mock.Anything, credit.CreditID).Return(&credit, nil).Once()

	var savedCredit domain.Credit
	suite.mockCreditRepo.On("UpdateCredit", ctx, mock.AnythingOfType("domain.Credit")).
		Run(func(args mock.Arguments) {
			savedCredit = args.Get(1).(domain.Credit)
		}).Return(nil).Once()

	newTotal := decimal.NewFromInt(200)
	updated, err := suite.service.UpdateCredit(ctx, credit.CreditID, dto.UpdateCreditRequest{TotalAmount: &newTotal}, suite.ownerID)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusPaid, updated.Status)
	suite.True(updated.RemainingAmount.IsZero())
	suite.Equal(domain.StatusPaid, savedCredit.Status)
}

func (suite *CreditServiceTestSuite) TestGetCreditByID_WithPayments() {
	ctx := context.Background()
	credit := suite.newCredit(500, 200, time.Now())
	history := []domain.PaymentRecord{
		{PaymentID: uuid.NewString(), CreditID: credit.CreditID, Amount: decimal.NewFromInt(200)},
	}
	suite.expectCustomerLookup()
	suite.mockCreditRepo.On("FindCreditByID", mock.Anything, credit.CreditID).Return(&credit, nil).Once()
	suite.mockCreditRepo.On("FindPaymentsByCreditID", ctx, credit.CreditID).Return(history, nil).Once()

	got, err := suite.service.GetCreditByID(ctx, credit.CreditID, true, suite.ownerID)

	suite.Require().NoError(err)
	suite.Require().Len(got.Payments, 1)
	suite.True(got.Payments[0].Amount.Equal(decimal.NewFromInt(200)))
}

// --- Run Test Suite ---
func TestCreditService(t *testing.T) {
	suite.Run(t, new(CreditServiceTestSuite))
}
