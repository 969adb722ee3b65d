package eventconductor

import (
	"dividendtoken/engine/library"
)

// Operation kinds. The author of the event is the caller of the operation.
// Start and withdraw carry no content.
const (
	KindClaim           = 641000
	KindStart           = 641002
	KindTransfer        = 641004
	KindBurn            = 641006
	KindWithdraw        = 641008
	KindAuthorityKey    = 641010
	KindSetBlacklisted  = 641012
	KindApprove         = 641014
	KindTransferFrom    = 641016
	KindTransferControl = 641018
)

// Kinds lists every kind the conductor applies.
var Kinds = []int{
	KindClaim, KindStart, KindTransfer, KindBurn, KindWithdraw,
	KindAuthorityKey, KindSetBlacklisted, KindApprove, KindTransferFrom, KindTransferControl,
}

// Amounts are base 10 strings of base units.

//Kind641000 claims one token for the author under an endorsed identifier.
type Kind641000 struct {
	Identifier library.Identifier `json:"identifier"`
	V          byte               `json:"v"`
	R          string             `json:"r"`
	S          string             `json:"s"`
}

type Kind641004 struct {
	To     library.Account `json:"to"`
	Amount string          `json:"amount"`
}

type Kind641006 struct {
	Amount string `json:"amount"`
}

//Kind641010 replaces the claim authority with a hex encoded secp256k1 public key.
type Kind641010 struct {
	Key string `json:"key"`
}

type Kind641012 struct {
	Account     library.Account `json:"account"`
	Blacklisted bool            `json:"blacklisted"`
}

type Kind641014 struct {
	Spender library.Account `json:"spender"`
	Amount  string          `json:"amount"`
}

type Kind641016 struct {
	From   library.Account `json:"from"`
	To     library.Account `json:"to"`
	Amount string          `json:"amount"`
}

type Kind641018 struct {
	Controller library.Account `json:"controller"`
}
