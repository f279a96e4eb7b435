package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/meisterleads/backend/internal/models"
	"github.com/meisterleads/backend/internal/repository"
)

// TxBeginner starts database transactions. Satisfied by pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PurchaseLeadStore is the lead access the purchase flow needs.
type PurchaseLeadStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// PurchaseContractorStore reads and debits contractor wallets.
type PurchaseContractorStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contractor, error)
	DebitWallet(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	WalletBalanceTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (decimal.Decimal, error)
}

// PurchaseMatchStore checks and flips the match records that gate purchasing.
type PurchaseMatchStore interface {
	GetByLeadAndContractor(ctx context.Context, leadID, contractorID uuid.UUID) (*models.Match, error)
	CountPurchased(ctx context.Context, tx pgx.Tx, leadID uuid.UUID) (int, error)
	MarkPurchased(ctx context.Context, tx pgx.Tx, leadID, contractorID uuid.UUID) (bool, error)
}

// PurchaseLedgerStore appends wallet ledger entries.
type PurchaseLedgerStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, t *models.Transaction) error
}

// PurchaseVoucherStore redeems voucher codes inside the purchase transaction.
type PurchaseVoucherStore interface {
	Redeem(ctx context.Context, tx pgx.Tx, code string) (*models.Voucher, error)
}

// PurchaseNotificationStore marks the offer notification as handled.
type PurchaseNotificationStore interface {
	MarkRead(ctx context.Context, leadID, contractorID uuid.UUID) error
}

// PurchaseConversationStore bootstraps the customer/contractor thread.
type PurchaseConversationStore interface {
	Ensure(ctx context.Context, leadID, contractorID, customerID uuid.UUID) (uuid.UUID, bool, error)
	CreateMessage(ctx context.Context, m *models.Message) error
}

// PurchaseService executes a contractor's purchase of a lead: one transaction
// covering the sold-out cap check, optional voucher redemption, the wallet
// debit, the ledger entry, and the match flip.
type PurchaseService struct {
	Pool          TxBeginner
	Leads         PurchaseLeadStore
	Contractors   PurchaseContractorStore
	Matches       PurchaseMatchStore
	Ledger        PurchaseLedgerStore
	Vouchers      PurchaseVoucherStore
	Notifications PurchaseNotificationStore
	Conversations PurchaseConversationStore
	Logger        *slog.Logger
}

func NewPurchaseService(
	pool TxBeginner,
	leads PurchaseLeadStore,
	contractors PurchaseContractorStore,
	matches PurchaseMatchStore,
	ledger PurchaseLedgerStore,
	vouchers PurchaseVoucherStore,
	notifications PurchaseNotificationStore,
	conversations PurchaseConversationStore,
	logger *slog.Logger,
) *PurchaseService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PurchaseService{
		Pool:          pool,
		Leads:         leads,
		Contractors:   contractors,
		Matches:       matches,
		Ledger:        ledger,
		Vouchers:      vouchers,
		Notifications: notifications,
		Conversations: conversations,
		Logger:        logger,
	}
}

// PurchaseResult reports a completed purchase. PricePaid reflects any voucher
// discount; Lead carries the full contact details unlocked by the purchase.
type PurchaseResult struct {
	Lead           *models.Lead    `json:"lead"`
	PricePaid      decimal.Decimal `json:"price_paid"`
	NewBalance     decimal.Decimal `json:"new_balance"`
	VoucherApplied bool            `json:"voucher_applied"`
}

// Purchase buys the lead for the contractor. voucherCode may be empty. The
// flow validates contractor, lead, match, and duplicate state up front, then
// serializes on the lead row so at most MaxPurchasesPerLead purchases can ever
// commit for one lead regardless of concurrency.
func (s *PurchaseService) Purchase(ctx context.Context, leadID, contractorID uuid.UUID, voucherCode string) (*PurchaseResult, error) {
	contractor, err := s.Contractors.GetByID(ctx, contractorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContractorNotFound
		}
		return nil, fmt.Errorf("load contractor: %w", err)
	}

	lead, err := s.Leads.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("load lead: %w", err)
	}
	if lead.FinalPrice == nil {
		return nil, fmt.Errorf("%w: lead %s was never priced", ErrPricingConfigMissing, leadID)
	}

	match, err := s.Matches.GetByLeadAndContractor(ctx, leadID, contractorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoMatchFound
		}
		return nil, fmt.Errorf("load match: %w", err)
	}
	if match.Purchased {
		return nil, ErrAlreadyPurchased
	}

	price := *lead.FinalPrice
	voucherApplied := false

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin purchase tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serialize concurrent purchases of the same lead on the lead row.
	if err := s.Leads.LockForUpdate(ctx, tx, leadID); err != nil {
		return nil, fmt.Errorf("lock lead: %w", err)
	}

	sold, err := s.Matches.CountPurchased(ctx, tx, leadID)
	if err != nil {
		return nil, fmt.Errorf("count purchases: %w", err)
	}
	if sold >= models.MaxPurchasesPerLead {
		return nil, ErrLeadSoldOut
	}

	if voucherCode != "" {
		voucher, err := s.Vouchers.Redeem(ctx, tx, voucherCode)
		switch {
		case err == nil:
			price = voucher.Apply(price)
			voucherApplied = true
		case errors.Is(err, repository.ErrVoucherNotRedeemable):
			// Soft failure: charge full price rather than abort the purchase.
			s.Logger.Warn("voucher not redeemable", "code", voucherCode, "contractor_id", contractorID)
		default:
			return nil, fmt.Errorf("redeem voucher: %w", err)
		}
	}

	newBalance, err := s.Contractors.DebitWallet(ctx, tx, contractorID, price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			balance, balErr := s.Contractors.WalletBalanceTx(ctx, tx, contractorID)
			if balErr != nil {
				balance = contractor.WalletBalance
			}
			return nil, &InsufficientBalanceError{Required: price, Balance: balance}
		}
		return nil, fmt.Errorf("debit wallet: %w", err)
	}

	metadata, _ := json.Marshal(map[string]any{
		"voucher_applied": voucherApplied,
		"list_price":      lead.FinalPrice,
	})
	if err := s.Ledger.CreateTx(ctx, tx, &models.Transaction{
		ID:           uuid.New(),
		ContractorID: contractorID,
		LeadID:       &leadID,
		Type:         models.TxTypeLeadPurchase,
		Amount:       price.Neg(),
		BalanceAfter: newBalance,
		Description:  fmt.Sprintf("Purchase of lead %q", lead.Title),
		Metadata:     metadata,
	}); err != nil {
		return nil, fmt.Errorf("record ledger entry: %w", err)
	}

	flipped, err := s.Matches.MarkPurchased(ctx, tx, leadID, contractorID)
	if err != nil {
		return nil, fmt.Errorf("mark match purchased: %w", err)
	}
	if !flipped {
		// Lost a race against an identical request; roll everything back.
		return nil, ErrAlreadyPurchased
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit purchase: %w", err)
	}

	s.Logger.Info("lead purchased",
		"lead_id", leadID, "contractor_id", contractorID,
		"price", price, "voucher_applied", voucherApplied)

	s.afterPurchase(ctx, lead, contractor)

	if sold+1 >= models.MaxPurchasesPerLead {
		if err := s.Leads.UpdateStatus(ctx, leadID, models.LeadStatusClosed); err != nil {
			s.Logger.Warn("close sold-out lead", "lead_id", leadID, "error", err)
		}
	}

	return &PurchaseResult{
		Lead:           lead,
		PricePaid:      price,
		NewBalance:     newBalance,
		VoucherApplied: voucherApplied,
	}, nil
}

// afterPurchase runs the best-effort post-commit steps: mark the offer
// notification handled and bootstrap the conversation thread. Failures are
// logged, never surfaced; the purchase has already committed.
func (s *PurchaseService) afterPurchase(ctx context.Context, lead *models.Lead, contractor *models.Contractor) {
	if err := s.Notifications.MarkRead(ctx, lead.ID, contractor.ID); err != nil {
		s.Logger.Warn("mark notification read", "lead_id", lead.ID, "contractor_id", contractor.ID, "error", err)
	}

	convID, created, err := s.Conversations.Ensure(ctx, lead.ID, contractor.ID, lead.CustomerID)
	if err != nil {
		s.Logger.Warn("ensure conversation", "lead_id", lead.ID, "contractor_id", contractor.ID, "error", err)
		return
	}
	if !created {
		return
	}
	intro := &models.Message{
		ID:             uuid.New(),
		ConversationID: convID,
		SenderID:       contractor.ID,
		SenderRole:     models.SenderContractor,
		Body:           fmt.Sprintf("Hello, this is %s. We received your request %q and would like to discuss it.", contractor.CompanyName, lead.Title),
	}
	if err := s.Conversations.CreateMessage(ctx, intro); err != nil {
		s.Logger.Warn("seed conversation message", "conversation_id", convID, "error", err)
	}
}
