package template

import (
	crand "crypto/rand"
	"encoding/hex"
	"math/rand/v2"
	"strconv"
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// randomInt returns a value in [lo, hi]; the bounds are swapped when reversed.
func randomInt(lo, hi int64) string {
	if hi < lo {
		lo, hi = hi, lo
	}
	return strconv.FormatInt(lo+rand.Int64N(hi-lo+1), 10)
}

func randomFloat(lo, hi float64, precision int) string {
	if hi < lo {
		lo, hi = hi, lo
	}
	if precision < 0 {
		precision = 2
	}
	return strconv.FormatFloat(lo+rand.Float64()*(hi-lo), 'f', precision, 64)
}

func randomString(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = alphanumeric[rand.IntN(len(alphanumeric))]
	}
	return string(b)
}

func randomHex(n int) string {
	b := make([]byte, n/2)
	if _, err := crand.Read(b); err != nil {
		return ""
	}
	return hex.EncodeToString(b)
}
