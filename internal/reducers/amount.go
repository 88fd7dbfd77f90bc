package reducers

import "math/big"

// Token amounts travel the wire as unsigned decimal strings (spec §3)
// but every arithmetic operation is done through math/big.Int, the same
// arbitrary-precision type the teacher uses for its own ledger amounts
// (core/coin.go, core/central_banking_node.go), so overflow is never a
// concern regardless of supply.

func parseAmount(s string) (*big.Int, bool) {
	if s == "" {
		return big.NewInt(0), true
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return nil, false
	}
	return n, true
}

func formatAmount(n *big.Int) string {
	return n.String()
}

func addAmount(a, b string) (string, bool) {
	an, ok := parseAmount(a)
	if !ok {
		return "", false
	}
	bn, ok := parseAmount(b)
	if !ok {
		return "", false
	}
	return formatAmount(new(big.Int).Add(an, bn)), true
}

// subAmount returns a-b and false if the inputs are malformed or the
// result would be negative.
func subAmount(a, b string) (string, bool) {
	an, ok := parseAmount(a)
	if !ok {
		return "", false
	}
	bn, ok := parseAmount(b)
	if !ok {
		return "", false
	}
	if an.Cmp(bn) < 0 {
		return "", false
	}
	return formatAmount(new(big.Int).Sub(an, bn)), true
}

func cmpAmount(a, b string) (int, bool) {
	an, ok := parseAmount(a)
	if !ok {
		return 0, false
	}
	bn, ok := parseAmount(b)
	if !ok {
		return 0, false
	}
	return an.Cmp(bn), true
}

func isPositiveAmount(a string) bool {
	n, ok := parseAmount(a)
	return ok && n.Sign() > 0
}

func isNonNegativeAmount(a string) bool {
	n, ok := parseAmount(a)
	return ok && n.Sign() >= 0
}

func zeroAmount() string { return "0" }
