package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

var idSeq uint64

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// fall back to time+counter; ids must never block record creation
		return fmt.Sprintf("%x-%06d", time.Now().UTC().UnixNano(), atomic.AddUint64(&idSeq, 1))
	}
	return hex.EncodeToString(b)
}

// GenID returns a random record id with the given type prefix, e.g.
// GenID("bl") -> "bl_9f2c...".
func GenID(prefix string) string {
	return prefix + "_" + randomHex(8)
}

// GenBlessingID returns a new blessing id.
func GenBlessingID() string { return GenID("bl") }

// GenIntentionID returns a new intention id.
func GenIntentionID() string { return GenID("in") }

// GenProofID returns a new proof-of-service id.
func GenProofID() string { return GenID("pf") }

// GenTokenID returns a new token id.
func GenTokenID() string { return GenID("tk") }

// GenOfferingID returns a new offering id.
func GenOfferingID() string { return GenID("of") }
