package execution

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

func NewExecutionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "exec-unknown"
	}
	return fmt.Sprintf("exec_%s", hex.EncodeToString(b))
}

// NewTxHash fabricates a random 32-byte transaction hash.
func NewTxHash() (string, error) {
	var h common.Hash
	if _, err := rand.Read(h[:]); err != nil {
		return "", err
	}
	return h.Hex(), nil
}
