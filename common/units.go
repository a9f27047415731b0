package common

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Conversion factors relative to wei.
var ethUnits = map[string]decimal.Decimal{
	"wei":    decimal.New(1, 0),
	"kwei":   decimal.New(1, 3),
	"mwei":   decimal.New(1, 6),
	"gwei":   decimal.New(1, 9),
	"szabo":  decimal.New(1, 12),
	"finney": decimal.New(1, 15),
	"ether":  decimal.New(1, 18),
}

// ConvertEthUnit converts a value between ethereum denominations,
// preserving precision.
func ConvertEthUnit(value decimal.Decimal, fromUnit, toUnit string) (decimal.Decimal, error) {
	from, ok := ethUnits[strings.ToLower(fromUnit)]
	if !ok {
		return decimal.Zero, fmt.Errorf("invalid from unit: %s", fromUnit)
	}
	to, ok := ethUnits[strings.ToLower(toUnit)]
	if !ok {
		return decimal.Zero, fmt.Errorf("invalid to unit: %s", toUnit)
	}

	wei := value.Mul(from)
	return wei.Div(to), nil
}

// WeiToEther renders a wei amount in ether. Used for human readable logs.
func WeiToEther(wei *big.Int) decimal.Decimal {
	d := decimal.NewFromBigInt(wei, 0)
	converted, _ := ConvertEthUnit(d, "wei", "ether")
	return converted
}

// EtherToWei parses a decimal ether amount (e.g. "1.5") into wei.
// The result must be a whole number of wei.
func EtherToWei(ether string) (*big.Int, error) {
	d, err := decimal.NewFromString(ether)
	if err != nil {
		return nil, fmt.Errorf("invalid ether amount %q: %w", ether, err)
	}
	wei, err := ConvertEthUnit(d, "ether", "wei")
	if err != nil {
		return nil, err
	}
	if !wei.IsInteger() {
		return nil, fmt.Errorf("amount %s is below wei precision", ether)
	}
	return wei.BigInt(), nil
}
