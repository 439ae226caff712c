package model

import "github.com/ethereum/go-ethereum/common"

// WrapperKind identifies how a token relates to the input token.
type WrapperKind string

const (
	WrapperDirect   WrapperKind = "direct"
	WrapperButton   WrapperKind = "button"
	WrapperUnbutton WrapperKind = "unbutton"
)

// DerivativeKinds lists the registry sections searched for wrapped tokens, in lookup order.
var DerivativeKinds = []WrapperKind{WrapperButton, WrapperUnbutton}

// Converts reports whether balances of this kind need a wrapper-to-underlying conversion.
func (k WrapperKind) Converts() bool {
	return k == WrapperButton || k == WrapperUnbutton
}

// WrappedTokenLink describes a derivative token of the input token.
type WrappedTokenLink struct {
	Kind      WrapperKind
	Unwrapped common.Address
	Wrapped   common.Address
}
