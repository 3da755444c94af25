package chain

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// simStarterBalance is credited to wallets the sim chain sees for the
// first time, so transfers work without an explicit faucet call.
var simStarterBalance = decimal.NewFromInt(1000)

// SimTx is one recorded sim-chain transfer.
type SimTx struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
	Status string          `json:"status"`
}

// SimChain is an in-memory chain stand-in. It keeps balances and a
// transfer log and needs no node process, which makes it the backend for
// tests and local mode.
type SimChain struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
	txs      []SimTx
}

// NewSimChain constructs an empty sim chain.
func NewSimChain() *SimChain {
	return &SimChain{balances: make(map[string]decimal.Decimal)}
}

// CreateWallet generates a funded wallet and returns its address.
func (s *SimChain) CreateWallet() string {
	address := "0x" + strings.ReplaceAll(uuid.NewString(), "-", "")

	s.mu.Lock()
	s.balances[address] = simStarterBalance
	s.mu.Unlock()

	return address
}

// Balance returns the balance of the address, zero when unknown.
func (s *SimChain) Balance(address string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[address]
}

// Faucet credits the address with the given amount.
func (s *SimChain) Faucet(address string, amount decimal.Decimal) {
	s.mu.Lock()
	s.balances[address] = s.balances[address].Add(amount)
	s.mu.Unlock()
}

// Transfer moves tokens between addresses and records the transfer. A
// sender the chain has never seen is seeded with the starter balance
// first. An uncovered amount returns [ErrInsufficientFunds] and records
// nothing.
func (s *SimChain) Transfer(from, to string, amount decimal.Decimal) (SimTx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.balances[from]; !ok {
		s.balances[from] = simStarterBalance
	}

	if s.balances[from].LessThan(amount) {
		return SimTx{}, ErrInsufficientFunds
	}

	s.balances[from] = s.balances[from].Sub(amount)
	s.balances[to] = s.balances[to].Add(amount)

	tx := SimTx{From: from, To: to, Amount: amount, Status: "success"}
	s.txs = append(s.txs, tx)

	return tx, nil
}

// Transactions returns a copy of the transfer log.
func (s *SimChain) Transactions() []SimTx {
	s.mu.Lock()
	defer s.mu.Unlock()

	txs := make([]SimTx, len(s.txs))
	copy(txs, s.txs)
	return txs
}
