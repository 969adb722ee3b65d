package token

import (
	"math/big"

	"dividendtoken/engine/library"
)

const (
	ReceiptClaim        = "claim"
	ReceiptStart        = "start"
	ReceiptTransfer     = "transfer"
	ReceiptBurn         = "burn"
	ReceiptDistribution = "distribution"
	ReceiptWithdrawal   = "withdrawal"
	ReceiptApproval     = "approval"
	ReceiptAuthority    = "authority"
	ReceiptBlacklist    = "blacklist"
	ReceiptControl      = "control"
)

// Receipt describes one effect of an accepted operation.
type Receipt struct {
	Kind   string          `json:"kind"`
	From   library.Account `json:"from,omitempty"`
	To     library.Account `json:"to,omitempty"`
	Amount *big.Int        `json:"amount,omitempty"`
	Era    uint64          `json:"era,omitempty"`
	Note   string          `json:"note,omitempty"`
}
