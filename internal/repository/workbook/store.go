package workbook

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"fxdesk-ledger/internal/domain"
	"fxdesk-ledger/internal/repository"

	"github.com/shopspring/decimal"
)

// NewStore exposes the workbook as the ledger repositories.
func NewStore(b *Book) *repository.Store {
	return &repository.Store{
		Transactions: &transactionRepository{b: b},
		Legs:         &legRepository{b: b},
		Adjustments:  &adjustmentRepository{b: b},
		Inventory:    &inventoryRepository{b: b},
		Sequences:    &sequenceRepository{b: b},
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(domain.DateLayout, s)
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func inRange(d, from, through time.Time) bool {
	return !d.Before(from) && !d.After(through)
}

func corrupt(sheet string, row int, err error) error {
	return fmt.Errorf("%s row %d: %w", sheet, row+2, err)
}

type transactionRepository struct {
	b *Book
}

func transactionRow(tx *domain.Transaction) []string {
	return []string{
		tx.ID, tx.Date.Format(domain.DateLayout), tx.Customer, string(tx.Type), tx.Currency,
		tx.Amount.String(), tx.Rate.String(), tx.ValueInBase.String(),
		tx.Nature, tx.Source, tx.Staff, string(tx.Status), tx.Notes, tx.SwapID,
		formatTime(tx.CreatedAt), formatTime(tx.UpdatedAt),
	}
}

func parseTransaction(r []string) (domain.Transaction, error) {
	tx := domain.Transaction{
		ID:        r[0],
		Customer:  r[2],
		Type:      domain.TransactionType(r[3]),
		Currency:  r[4],
		Nature:    r[8],
		Source:    r[9],
		Staff:     r[10],
		Status:    domain.TransactionStatus(r[11]),
		Notes:     r[12],
		SwapID:    r[13],
		CreatedAt: parseTime(r[14]),
		UpdatedAt: parseTime(r[15]),
	}
	var err error
	if tx.Date, err = parseDate(r[1]); err != nil {
		return tx, err
	}
	if tx.Amount, err = parseDecimal(r[5]); err != nil {
		return tx, err
	}
	if tx.Rate, err = parseDecimal(r[6]); err != nil {
		return tx, err
	}
	tx.ValueInBase, err = parseDecimal(r[7])
	return tx, err
}

// scan decodes every transaction row, returning each with its row index.
func (r *transactionRepository) scan() ([]domain.Transaction, error) {
	rows, err := r.b.rows(SheetTransactions)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Transaction, 0, len(rows))
	for i, row := range rows {
		tx, err := parseTransaction(row)
		if err != nil {
			return nil, corrupt(SheetTransactions, i, err)
		}
		out = append(out, tx)
	}
	return out, nil
}

func (r *transactionRepository) indexOf(all []domain.Transaction, id string) int {
	for i := range all {
		if all[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	all, err := r.scan()
	if err != nil {
		return err
	}
	if r.indexOf(all, tx.ID) >= 0 {
		return repository.ErrDuplicate
	}
	now := time.Now().UTC()
	tx.CreatedAt, tx.UpdatedAt = now, now
	return r.b.append(SheetTransactions, transactionRow(tx))
}

func (r *transactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	all, err := r.scan()
	if err != nil {
		return nil, err
	}
	i := r.indexOf(all, id)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	return &all[i], nil
}

func (r *transactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	all, err := r.scan()
	if err != nil {
		return err
	}
	i := r.indexOf(all, tx.ID)
	if i < 0 {
		return repository.ErrNotFound
	}
	tx.CreatedAt = all[i].CreatedAt
	tx.UpdatedAt = time.Now().UTC()
	return r.b.update(SheetTransactions, i, transactionRow(tx))
}

func (r *transactionRepository) ListByDateAndCurrency(ctx context.Context, date time.Time, currency string) ([]domain.Transaction, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	all, err := r.scan()
	if err != nil {
		return nil, err
	}
	var out []domain.Transaction
	for _, tx := range all {
		if tx.Date.Equal(date) && tx.Currency == currency {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *transactionRepository) ListDates(ctx context.Context, currency string, from, through time.Time) ([]time.Time, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	all, err := r.scan()
	if err != nil {
		return nil, err
	}
	var dates []time.Time
	for _, tx := range all {
		if tx.Currency == currency && inRange(tx.Date, from, through) {
			dates = append(dates, tx.Date)
		}
	}
	return repository.MergeDates(dates), nil
}

type legRepository struct {
	b *Book
}

func legRow(leg *domain.SettlementLeg) []string {
	return []string{
		leg.ID, leg.TransactionID, strconv.Itoa(leg.Ordinal), string(leg.SettlementType), leg.Currency,
		leg.Amount.String(), leg.BankAccount, leg.Status, leg.Notes, string(leg.ValidationFlag),
		formatTime(leg.CreatedAt),
	}
}

func parseLeg(r []string) (domain.SettlementLeg, error) {
	leg := domain.SettlementLeg{
		ID:             r[0],
		TransactionID:  r[1],
		SettlementType: domain.SettlementType(r[3]),
		Currency:       r[4],
		BankAccount:    r[6],
		Status:         r[7],
		Notes:          r[8],
		ValidationFlag: domain.ValidationFlag(r[9]),
		CreatedAt:      parseTime(r[10]),
	}
	var err error
	if leg.Ordinal, err = strconv.Atoi(r[2]); err != nil {
		return leg, err
	}
	leg.Amount, err = parseDecimal(r[5])
	return leg, err
}

func (r *legRepository) scan() ([]domain.SettlementLeg, error) {
	rows, err := r.b.rows(SheetLegs)
	if err != nil {
		return nil, err
	}
	out := make([]domain.SettlementLeg, 0, len(rows))
	for i, row := range rows {
		leg, err := parseLeg(row)
		if err != nil {
			return nil, corrupt(SheetLegs, i, err)
		}
		out = append(out, leg)
	}
	return out, nil
}

func (r *legRepository) Create(ctx context.Context, leg *domain.SettlementLeg) error {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	all, err := r.scan()
	if err != nil {
		return err
	}
	for _, existing := range all {
		if existing.ID == leg.ID {
			return repository.ErrDuplicate
		}
	}
	leg.CreatedAt = time.Now().UTC()
	return r.b.append(SheetLegs, legRow(leg))
}

func (r *legRepository) CountByTransaction(ctx context.Context, transactionID string) (int, error) {
	legs, err := r.ListByTransaction(ctx, transactionID)
	return len(legs), err
}

func (r *legRepository) ListByTransaction(ctx context.Context, transactionID string) ([]domain.SettlementLeg, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	all, err := r.scan()
	if err != nil {
		return nil, err
	}
	var out []domain.SettlementLeg
	for _, leg := range all {
		if leg.TransactionID == transactionID {
			out = append(out, leg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out, nil
}

func (r *legRepository) UpdateValidationFlag(ctx context.Context, legID string, flag domain.ValidationFlag) error {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	all, err := r.scan()
	if err != nil {
		return err
	}
	for i := range all {
		if all[i].ID == legID {
			all[i].ValidationFlag = flag
			return r.b.update(SheetLegs, i, legRow(&all[i]))
		}
	}
	return repository.ErrNotFound
}

type adjustmentRepository struct {
	b *Book
}

func adjustmentRow(adj *domain.Adjustment) []string {
	return []string{
		adj.ID, adj.Date.Format(domain.DateLayout), adj.Currency, adj.Amount.String(),
		adj.Reason, adj.Staff, formatTime(adj.CreatedAt),
	}
}

func parseAdjustment(r []string) (domain.Adjustment, error) {
	adj := domain.Adjustment{
		ID:        r[0],
		Currency:  r[2],
		Reason:    r[4],
		Staff:     r[5],
		CreatedAt: parseTime(r[6]),
	}
	var err error
	if adj.Date, err = parseDate(r[1]); err != nil {
		return adj, err
	}
	adj.Amount, err = parseDecimal(r[3])
	return adj, err
}

func (r *adjustmentRepository) scan() ([]domain.Adjustment, error) {
	rows, err := r.b.rows(SheetAdjustments)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Adjustment, 0, len(rows))
	for i, row := range rows {
		adj, err := parseAdjustment(row)
		if err != nil {
			return nil, corrupt(SheetAdjustments, i, err)
		}
		out = append(out, adj)
	}
	return out, nil
}

func (r *adjustmentRepository) Create(ctx context.Context, adj *domain.Adjustment) error {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	adj.CreatedAt = time.Now().UTC()
	return r.b.append(SheetAdjustments, adjustmentRow(adj))
}

func (r *adjustmentRepository) ListByDateAndCurrency(ctx context.Context, date time.Time, currency string) ([]domain.Adjustment, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	all, err := r.scan()
	if err != nil {
		return nil, err
	}
	var out []domain.Adjustment
	for _, adj := range all {
		if adj.Date.Equal(date) && adj.Currency == currency {
			out = append(out, adj)
		}
	}
	return out, nil
}

func (r *adjustmentRepository) ListDates(ctx context.Context, currency string, from, through time.Time) ([]time.Time, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	all, err := r.scan()
	if err != nil {
		return nil, err
	}
	var dates []time.Time
	for _, adj := range all {
		if adj.Currency == currency && inRange(adj.Date, from, through) {
			dates = append(dates, adj.Date)
		}
	}
	return repository.MergeDates(dates), nil
}

type inventoryRepository struct {
	b *Book
}

func inventoryRow(e *domain.DailyInventoryEntry) []string {
	return []string{
		e.Date.Format(domain.DateLayout), e.Currency, e.OpeningBalance.String(), e.BuysTotal.String(),
		e.SellsTotal.String(), e.AdjustmentsTotal.String(), e.ClosingBalance.String(), formatTime(e.UpdatedAt),
	}
}

func parseInventory(r []string) (domain.DailyInventoryEntry, error) {
	e := domain.DailyInventoryEntry{Currency: r[1], UpdatedAt: parseTime(r[7])}
	var err error
	if e.Date, err = parseDate(r[0]); err != nil {
		return e, err
	}
	fields := []*decimal.Decimal{&e.OpeningBalance, &e.BuysTotal, &e.SellsTotal, &e.AdjustmentsTotal, &e.ClosingBalance}
	for i, f := range fields {
		if *f, err = parseDecimal(r[2+i]); err != nil {
			return e, err
		}
	}
	return e, nil
}

func (r *inventoryRepository) scan() ([]domain.DailyInventoryEntry, error) {
	rows, err := r.b.rows(SheetDailyInventory)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DailyInventoryEntry, 0, len(rows))
	for i, row := range rows {
		e, err := parseInventory(row)
		if err != nil {
			return nil, corrupt(SheetDailyInventory, i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *inventoryRepository) Upsert(ctx context.Context, entry *domain.DailyInventoryEntry) error {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	all, err := r.scan()
	if err != nil {
		return err
	}
	entry.UpdatedAt = time.Now().UTC()
	for i := range all {
		if all[i].Date.Equal(entry.Date) && all[i].Currency == entry.Currency {
			return r.b.update(SheetDailyInventory, i, inventoryRow(entry))
		}
	}
	return r.b.append(SheetDailyInventory, inventoryRow(entry))
}

func (r *inventoryRepository) Get(ctx context.Context, date time.Time, currency string) (*domain.DailyInventoryEntry, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	all, err := r.scan()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Date.Equal(date) && all[i].Currency == currency {
			return &all[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *inventoryRepository) GetLatestBefore(ctx context.Context, date time.Time, currency string) (*domain.DailyInventoryEntry, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	all, err := r.scan()
	if err != nil {
		return nil, err
	}
	var latest *domain.DailyInventoryEntry
	for i := range all {
		e := &all[i]
		if e.Currency != currency || !e.Date.Before(date) {
			continue
		}
		if latest == nil || e.Date.After(latest.Date) {
			latest = e
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	return latest, nil
}

func (r *inventoryRepository) ListByCurrency(ctx context.Context, currency string, from, through time.Time) ([]domain.DailyInventoryEntry, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	all, err := r.scan()
	if err != nil {
		return nil, err
	}
	var out []domain.DailyInventoryEntry
	for _, e := range all {
		if e.Currency == currency && inRange(e.Date, from, through) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

type sequenceRepository struct {
	b *Book
}

func (r *sequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	rows, err := r.b.rows(SheetSequences)
	if err != nil {
		return 0, err
	}
	for i, row := range rows {
		if row[0] != name {
			continue
		}
		v, err := strconv.ParseInt(row[1], 10, 64)
		if err != nil {
			return 0, corrupt(SheetSequences, i, err)
		}
		v++
		return v, r.b.update(SheetSequences, i, []string{name, strconv.FormatInt(v, 10)})
	}
	return 1, r.b.append(SheetSequences, []string{name, "1"})
}
