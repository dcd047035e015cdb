package localcoin

import (
	"fmt"
	"math"
	"math/big"

	"voucherchain/core/events"
	"voucherchain/core/host"
	"voucherchain/crypto"
	"voucherchain/native/common"
)

// CodeName is the name the token code registers under.
const CodeName = "localcoin"

// merchantDirectory is the slice of the issuance contract a token consults to
// enforce merchant eligibility.
type merchantDirectory interface {
	MerchantsAssociated(env *host.Env, token [20]byte) ([][20]byte, error)
}

// Contract is the merchant-restricted token ledger. It is stateless; every
// instance keeps its state in its own host keyspace.
type Contract struct{}

// New returns the token code.
func New() Contract { return Contract{} }

var _ API = Contract{}

// Initialize binds the admin and display metadata. It can run only once.
func (Contract) Initialize(env *host.Env, admin [20]byte, decimal uint32, name, symbol string) error {
	ok, err := env.Instance().Has(keyAdmin)
	if err != nil {
		return err
	}
	if ok {
		return ErrAlreadyInitialized
	}
	if decimal > math.MaxUint8 {
		return ErrDecimalTooLarge
	}
	if err := env.Instance().Set(keyAdmin, admin); err != nil {
		return err
	}
	return env.Instance().Set(keyMetadata, &Metadata{Decimal: decimal, Name: name, Symbol: symbol})
}

// Mint credits amount to to and grows the supply. Admin only.
func (c Contract) Mint(env *host.Env, to [20]byte, amount *big.Int) error {
	if err := checkNonNegative(amount); err != nil {
		return err
	}
	admin, err := c.Admin(env)
	if err != nil {
		return err
	}
	if err := env.RequireAuth(admin); err != nil {
		return err
	}
	if err := receiveBalance(env, to, amount); err != nil {
		return err
	}
	supply, err := readLedger(env, keyTotalSupply)
	if err != nil {
		return err
	}
	next, err := common.AddAmounts(supply, amount)
	if err != nil {
		return err
	}
	if err := writeLedger(env, keyTotalSupply, next); err != nil {
		return err
	}
	env.Emit(events.LocalCoinMint{Admin: admin, To: to, Amount: common.CloneBigInt(amount)})
	return nil
}

// Burn destroys amount from from. Holders cannot burn their own balance; the
// admin performs burns during settlement.
func (c Contract) Burn(env *host.Env, from [20]byte, amount *big.Int) error {
	admin, err := c.Admin(env)
	if err != nil {
		return err
	}
	if err := env.RequireAuth(admin); err != nil {
		return err
	}
	if err := checkNonNegative(amount); err != nil {
		return err
	}
	if err := spendBalance(env, from, amount); err != nil {
		return err
	}
	supply, err := readLedger(env, keyTotalSupply)
	if err != nil {
		return err
	}
	burned, err := readLedger(env, keyTokenBurned)
	if err != nil {
		return err
	}
	nextBurned, err := common.AddAmounts(burned, amount)
	if err != nil {
		return err
	}
	if err := writeLedger(env, keyTotalSupply, new(big.Int).Sub(supply, amount)); err != nil {
		return err
	}
	if err := writeLedger(env, keyTokenBurned, nextBurned); err != nil {
		return err
	}
	env.Emit(events.LocalCoinBurn{From: from, Amount: common.CloneBigInt(amount)})
	return nil
}

// Transfer moves amount from from to to. from must authorise.
func (Contract) Transfer(env *host.Env, from, to [20]byte, amount *big.Int) error {
	if err := env.RequireAuth(from); err != nil {
		return err
	}
	if err := checkNonNegative(amount); err != nil {
		return err
	}
	if err := spendBalance(env, from, amount); err != nil {
		return err
	}
	if err := receiveBalance(env, to, amount); err != nil {
		return err
	}
	env.Emit(events.LocalCoinTransfer{From: from, To: to, Amount: common.CloneBigInt(amount)})
	return nil
}

// RecipientToMerchantTransfer transfers only to merchants the issuance
// contract associates with this token.
func (c Contract) RecipientToMerchantTransfer(env *host.Env, from, to [20]byte, amount *big.Int) error {
	issuanceAddr, err := c.IssuanceManagement(env)
	if err != nil {
		return err
	}
	impl, child, err := env.Call(issuanceAddr)
	if err != nil {
		return err
	}
	directory, ok := impl.(merchantDirectory)
	if !ok {
		return fmt.Errorf("%w: %s", host.ErrWrongInterface, crypto.FormatAccount(issuanceAddr))
	}
	merchants, err := directory.MerchantsAssociated(child, env.CurrentContract())
	if err != nil {
		return err
	}
	if !common.Contains(merchants, to) {
		return ErrMerchantNotAccepted
	}
	return c.Transfer(env, from, to, amount)
}

// SetAdmin rotates the mint/burn authority. Admin only.
func (c Contract) SetAdmin(env *host.Env, newAdmin [20]byte) error {
	admin, err := c.Admin(env)
	if err != nil {
		return err
	}
	if err := env.RequireAuth(admin); err != nil {
		return err
	}
	if err := env.Instance().Set(keyAdmin, newAdmin); err != nil {
		return err
	}
	env.Emit(events.LocalCoinAdminSet{Previous: admin, Admin: newAdmin})
	return nil
}

// SetIssuanceManagement binds the issuance contract exactly once. Before
// initialisation the binding needs no authorisation so the deploying
// issuance contract can set it; afterwards the admin must authorise.
func (c Contract) SetIssuanceManagement(env *host.Env, issuance [20]byte) error {
	ok, err := env.Instance().Has(keyIssuance)
	if err != nil {
		return err
	}
	if ok {
		return ErrIssuanceAlreadySet
	}
	var admin [20]byte
	initialized, err := env.Instance().Get(keyAdmin, &admin)
	if err != nil {
		return err
	}
	if initialized {
		if err := env.RequireAuth(admin); err != nil {
			return err
		}
	}
	return env.Instance().Set(keyIssuance, issuance)
}

// Upgrade replaces the token code while keeping its balances. Admin only.
func (c Contract) Upgrade(env *host.Env, code [32]byte) error {
	admin, err := c.Admin(env)
	if err != nil {
		return err
	}
	if err := env.RequireAuth(admin); err != nil {
		return err
	}
	return env.UpdateCurrentContractCode(code)
}

// BalanceOf returns the balance of holder, zero when absent.
func (Contract) BalanceOf(env *host.Env, holder [20]byte) (*big.Int, error) {
	return readLedger(env, balanceKey(holder))
}

// TotalSupply returns minted minus burned supply.
func (Contract) TotalSupply(env *host.Env) (*big.Int, error) {
	return readLedger(env, keyTotalSupply)
}

// TotalBurned returns the cumulative burned amount.
func (Contract) TotalBurned(env *host.Env) (*big.Int, error) {
	return readLedger(env, keyTokenBurned)
}

// Admin returns the mint/burn authority.
func (Contract) Admin(env *host.Env) ([20]byte, error) {
	var admin [20]byte
	ok, err := env.Instance().Get(keyAdmin, &admin)
	if err != nil {
		return admin, err
	}
	if !ok {
		return admin, ErrNotInitialized
	}
	return admin, nil
}

// IssuanceManagement returns the bound issuance contract.
func (Contract) IssuanceManagement(env *host.Env) ([20]byte, error) {
	var addr [20]byte
	ok, err := env.Instance().Get(keyIssuance, &addr)
	if err != nil {
		return addr, err
	}
	if !ok {
		return addr, ErrIssuanceNotSet
	}
	return addr, nil
}

// Decimals returns the display precision.
func (Contract) Decimals(env *host.Env) (uint32, error) {
	meta, err := readMetadata(env)
	if err != nil {
		return 0, err
	}
	return meta.Decimal, nil
}

// Name returns the display name.
func (Contract) Name(env *host.Env) (string, error) {
	meta, err := readMetadata(env)
	if err != nil {
		return "", err
	}
	return meta.Name, nil
}

// Symbol returns the ticker.
func (Contract) Symbol(env *host.Env) (string, error) {
	meta, err := readMetadata(env)
	if err != nil {
		return "", err
	}
	return meta.Symbol, nil
}

func readMetadata(env *host.Env) (*Metadata, error) {
	meta := new(Metadata)
	ok, err := env.Instance().Get(keyMetadata, meta)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotInitialized
	}
	return meta, nil
}

func checkNonNegative(amount *big.Int) error {
	if err := common.CheckAmount(amount); err != nil {
		return err
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeAmount, amount)
	}
	return nil
}

// readLedger reads a balance or supply counter. Archived entries are restored
// first so ledger reads never fail on idle holders.
func readLedger(env *host.Env, key []byte) (*big.Int, error) {
	store := env.Persistent()
	if _, err := store.Restore(key); err != nil {
		return nil, err
	}
	value := new(big.Int)
	ok, err := store.Get(key, value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	if err := store.ExtendTTL(key, BalanceLifetimeThreshold, BalanceBumpAmount); err != nil {
		return nil, err
	}
	return value, nil
}

func writeLedger(env *host.Env, key []byte, value *big.Int) error {
	store := env.Persistent()
	if err := store.Set(key, value); err != nil {
		return err
	}
	return store.ExtendTTL(key, BalanceLifetimeThreshold, BalanceBumpAmount)
}

func receiveBalance(env *host.Env, holder [20]byte, amount *big.Int) error {
	balance, err := readLedger(env, balanceKey(holder))
	if err != nil {
		return err
	}
	next, err := common.AddAmounts(balance, amount)
	if err != nil {
		return err
	}
	return writeLedger(env, balanceKey(holder), next)
}

func spendBalance(env *host.Env, holder [20]byte, amount *big.Int) error {
	balance, err := readLedger(env, balanceKey(holder))
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	return writeLedger(env, balanceKey(holder), new(big.Int).Sub(balance, amount))
}
