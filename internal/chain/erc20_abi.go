package chain

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const erc20SymbolStringJSON = `[
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`

// Some older tokens (MKR, SAI) return bytes32 from symbol().
const erc20SymbolBytes32JSON = `[
  {"inputs": [], "name": "symbol", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`

var (
	symbolStringABI      abi.ABI
	symbolStringABIOnce  sync.Once
	symbolStringABIErr   error
	symbolBytes32ABI     abi.ABI
	symbolBytes32ABIOnce sync.Once
	symbolBytes32ABIErr  error
)

func symbolStringABIInstance() (abi.ABI, error) {
	symbolStringABIOnce.Do(func() {
		symbolStringABI, symbolStringABIErr = abi.JSON(strings.NewReader(erc20SymbolStringJSON))
	})
	return symbolStringABI, symbolStringABIErr
}

func symbolBytes32ABIInstance() (abi.ABI, error) {
	symbolBytes32ABIOnce.Do(func() {
		symbolBytes32ABI, symbolBytes32ABIErr = abi.JSON(strings.NewReader(erc20SymbolBytes32JSON))
	})
	return symbolBytes32ABI, symbolBytes32ABIErr
}
