package token

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const erc20ABIJSON = `[
  {"inputs": [], "name": "totalSupply", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "account", "type": "address"}], "name": "balanceOf", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "decimals", "outputs": [{"internalType": "uint8", "name": "", "type": "uint8"}], "stateMutability": "view", "type": "function"}
]`

// Button and unbutton tokens share this conversion method.
const wrapperABIJSON = `[
  {"inputs": [{"internalType": "uint256", "name": "wrapperAmount", "type": "uint256"}], "name": "wrapperToUnderlying", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

var (
	erc20ABI       abi.ABI
	erc20ABIOnce   sync.Once
	erc20ABIErr    error
	wrapperABI     abi.ABI
	wrapperABIOnce sync.Once
	wrapperABIErr  error
)

// ERC20ABI returns the parsed subset of the ERC20 ABI used for pool reads.
func ERC20ABI() (abi.ABI, error) {
	erc20ABIOnce.Do(func() {
		erc20ABI, erc20ABIErr = abi.JSON(strings.NewReader(erc20ABIJSON))
	})
	return erc20ABI, erc20ABIErr
}

// WrapperABI returns the parsed wrapper conversion ABI.
func WrapperABI() (abi.ABI, error) {
	wrapperABIOnce.Do(func() {
		wrapperABI, wrapperABIErr = abi.JSON(strings.NewReader(wrapperABIJSON))
	})
	return wrapperABI, wrapperABIErr
}
