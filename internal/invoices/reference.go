package invoices

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// NewReferenceNo returns a candidate invoice reference number, e.g.
// "PLEX-x7Rq2-1719936000". Uniqueness is enforced by the store's
// unique constraint; callers retry on collision.
func NewReferenceNo() string {
	random := make([]byte, 5)
	max := big.NewInt(int64(len(referenceAlphabet)))
	for i := range random {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform source is
			// broken; fall back to a time-derived index.
			n = big.NewInt(time.Now().UnixNano() % int64(len(referenceAlphabet)))
		}
		random[i] = referenceAlphabet[n.Int64()]
	}
	return fmt.Sprintf("PLEX-%s-%d", random, time.Now().Unix())
}
