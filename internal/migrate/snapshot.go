// Package migrate replays token holder snapshots onto a new chain.
package migrate

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Decimals is the token precision balances are scaled to.
const Decimals = 18

const headerCell = "HolderAddress"

var (
	// ErrLengthMismatch is returned when a row has no balance for its account.
	ErrLengthMismatch = errors.New("accounts and balances differ in length")
	// ErrMalformedRow is returned for a row whose address or balance cannot be parsed.
	ErrMalformedRow = errors.New("malformed row")
)

// Holder is one snapshot row.
type Holder struct {
	Line    int
	Address common.Address
	Balance decimal.Decimal
	Wei     *big.Int
}

// Snapshot is the ordered holder list for one token.
type Snapshot struct {
	Symbol  string
	Path    string
	Holders []Holder
}

// Total returns the sum of all balances in token units.
func (s *Snapshot) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, h := range s.Holders {
		sum = sum.Add(h.Balance)
	}
	return sum
}

// TotalWei returns the sum of all balances in base units.
func (s *Snapshot) TotalWei() *big.Int {
	sum := new(big.Int)
	for _, h := range s.Holders {
		sum.Add(sum, h.Wei)
	}
	return sum
}

// SnapshotPath returns dir/<SYMBOL>Holders.csv.
func SnapshotPath(dir, symbol string) string {
	return filepath.Join(dir, strings.ToUpper(symbol)+"Holders.csv")
}

// LoadSnapshot reads a holder CSV. The symbol is taken from the file name.
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	symbol := strings.TrimSuffix(filepath.Base(path), "Holders.csv")
	s, err := ParseSnapshot(symbol, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Path = path
	return s, nil
}

// ParseSnapshot parses rows of (address, balance). Rows whose first cell is
// HolderAddress are headers and skipped. Extra columns are ignored.
func ParseSnapshot(symbol string, r io.Reader) (*Snapshot, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	s := &Snapshot{Symbol: symbol}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRow, err)
		}
		line, _ := cr.FieldPos(0)
		first := strings.TrimPrefix(strings.TrimSpace(rec[0]), "\ufeff")
		if first == headerCell {
			continue
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("line %d: %w", line, ErrLengthMismatch)
		}
		h, err := parseRow(first, rec[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %v", line, ErrMalformedRow, err)
		}
		h.Line = line
		s.Holders = append(s.Holders, h)
	}
	return s, nil
}

func parseRow(addr, balance string) (Holder, error) {
	if !common.IsHexAddress(addr) {
		return Holder{}, fmt.Errorf("invalid address %q", addr)
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(balance), ",", ""))
	if err != nil {
		return Holder{}, fmt.Errorf("invalid balance %q", balance)
	}
	wei, err := ToWei(d)
	if err != nil {
		return Holder{}, err
	}
	return Holder{Address: common.HexToAddress(addr), Balance: d, Wei: wei}, nil
}

// ToWei scales d by 10^18. Negative values and values with more than 18
// fractional digits are rejected.
func ToWei(d decimal.Decimal) (*big.Int, error) {
	if d.IsNegative() {
		return nil, fmt.Errorf("negative balance %s", d)
	}
	scaled := d.Shift(Decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("balance %s has more than %d decimals", d, Decimals)
	}
	return scaled.BigInt(), nil
}
