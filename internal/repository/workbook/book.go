// Package workbook persists the ledger in a single spreadsheet file, one sheet
// per record type, mirroring the desk's original bookkeeping workbook.
package workbook

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"fxdesk-ledger/internal/logger"

	"github.com/xuri/excelize/v2"
)

const backend = "workbook"

const (
	SheetTransactions   = "Transactions"
	SheetLegs           = "Legs"
	SheetAdjustments    = "Adjustments"
	SheetDailyInventory = "DailyInventory"
	SheetSequences      = "Sequences"
)

var headers = map[string][]string{
	SheetTransactions: {"ID", "Date", "Customer", "Type", "Currency", "Amount", "Rate", "ValueInBase",
		"Nature", "Source", "Staff", "Status", "Notes", "SwapID", "CreatedAt", "UpdatedAt"},
	SheetLegs: {"ID", "TransactionID", "Ordinal", "SettlementType", "Currency", "Amount",
		"BankAccount", "Status", "Notes", "ValidationFlag", "CreatedAt"},
	SheetAdjustments:    {"ID", "Date", "Currency", "Amount", "Reason", "Staff", "CreatedAt"},
	SheetDailyInventory: {"Date", "Currency", "Opening", "Buys", "Sells", "Adjustments", "Closing", "UpdatedAt"},
	SheetSequences:      {"Name", "Value"},
}

var sheetOrder = []string{SheetTransactions, SheetLegs, SheetAdjustments, SheetDailyInventory, SheetSequences}

// Book is a workbook file guarded by one mutex. Every write is saved before
// the lock is released.
type Book struct {
	mu   sync.Mutex
	file *excelize.File
	path string
}

// Open loads the workbook at path, creating it with empty sheets when missing.
func Open(path string) (*Book, error) {
	var f *excelize.File
	if _, err := os.Stat(path); err == nil {
		f, err = excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open workbook %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		f = excelize.NewFile()
	} else {
		return nil, err
	}

	b := &Book{file: f, path: path}
	if err := b.ensureSheets(); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := b.file.SaveAs(path); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("save workbook %s: %w", path, err)
	}
	return b, nil
}

// Close releases the underlying file.
func (b *Book) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}

func (b *Book) ensureSheets() error {
	for _, name := range sheetOrder {
		idx, err := b.file.GetSheetIndex(name)
		if err != nil {
			return err
		}
		if idx >= 0 {
			continue
		}
		if _, err := b.file.NewSheet(name); err != nil {
			return err
		}
		header := headers[name]
		row := make([]interface{}, len(header))
		for i, h := range header {
			row[i] = h
		}
		if err := b.file.SetSheetRow(name, "A1", &row); err != nil {
			return err
		}
	}
	if idx, _ := b.file.GetSheetIndex("Sheet1"); idx >= 0 {
		return b.file.DeleteSheet("Sheet1")
	}
	return nil
}

// rows returns the data rows of a sheet, header excluded. Rows are padded to
// the header width since trailing blank cells are not stored.
func (b *Book) rows(sheet string) ([][]string, error) {
	all, err := b.file.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(all) <= 1 {
		return nil, nil
	}
	width := len(headers[sheet])
	out := make([][]string, 0, len(all)-1)
	for _, r := range all[1:] {
		if len(r) < width {
			padded := make([]string, width)
			copy(padded, r)
			r = padded
		}
		out = append(out, r)
	}
	return out, nil
}

// append writes values after the last data row and saves.
func (b *Book) append(sheet string, values []string) error {
	all, err := b.file.GetRows(sheet)
	if err != nil {
		return err
	}
	return b.write(sheet, len(all), values, "append")
}

// update overwrites the i-th data row (zero based) and saves.
func (b *Book) update(sheet string, i int, values []string) error {
	return b.write(sheet, i+1, values, "update")
}

func (b *Book) write(sheet string, rowOffset int, values []string, op string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowOffset+1)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	logger.StoreCall(backend, op, "sheet", sheet, "cell", cell)
	if err := b.file.SetSheetRow(sheet, cell, &row); err != nil {
		logger.StoreResult(backend, op, 0, err, "sheet", sheet)
		return err
	}
	err = b.file.Save()
	logger.StoreResult(backend, op, 1, err, "sheet", sheet)
	return err
}
