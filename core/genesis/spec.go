// core/genesis/spec.go
package genesis

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"voucherchain/crypto"
)

// GenesisSpec describes the initial deployment of the voucher contracts.
type GenesisSpec struct {
	SuperAdmin string            `yaml:"superAdmin"`
	StableCoin StableCoinSpec    `yaml:"stableCoin"`
	Alloc      map[string]string `yaml:"alloc"` // addr -> stable coin amount
	Merchants  []MerchantSpec    `yaml:"merchants"`
	Tokens     []TokenSpec       `yaml:"tokens"`

	superAdmin [20]byte
	alloc      []allocation
}

// StableCoinSpec is the metadata of the backing asset.
type StableCoinSpec struct {
	Name     string `yaml:"name"`
	Symbol   string `yaml:"symbol"`
	Decimals uint32 `yaml:"decimals"`
}

// MerchantSpec registers a merchant, and verifies it when Verified is set.
type MerchantSpec struct {
	Address    string `yaml:"address"`
	Proprietor string `yaml:"proprietor"`
	PhoneNo    string `yaml:"phoneNo"`
	StoreName  string `yaml:"storeName"`
	Location   string `yaml:"location"`
	Verified   bool   `yaml:"verified"`

	account [20]byte
}

// TokenSpec issues a local coin through the issuance contract.
type TokenSpec struct {
	Name      string   `yaml:"name"`
	Symbol    string   `yaml:"symbol"`
	Decimals  uint32   `yaml:"decimals"`
	Items     []string `yaml:"items"`
	Merchants []string `yaml:"merchants"`

	merchants [][20]byte
}

type allocation struct {
	account [20]byte
	amount  *big.Int
}

// LoadGenesisSpec reads and validates a YAML manifest.
func LoadGenesisSpec(path string) (*GenesisSpec, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("genesis spec path must be provided")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis spec %q: %w", path, err)
	}
	spec, err := ParseGenesisSpec(raw)
	if err != nil {
		return nil, fmt.Errorf("genesis spec %q: %w", path, err)
	}
	return spec, nil
}

// ParseGenesisSpec decodes and validates a YAML manifest. Unknown fields are
// rejected.
func ParseGenesisSpec(raw []byte) (*GenesisSpec, error) {
	var spec GenesisSpec
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("invalid: %w", err)
	}
	return &spec, nil
}

// SuperAdminAccount returns the parsed super-admin.
func (s *GenesisSpec) SuperAdminAccount() [20]byte { return s.superAdmin }

func (s *GenesisSpec) validate() error {
	if strings.TrimSpace(s.SuperAdmin) == "" {
		return fmt.Errorf("superAdmin must be provided")
	}
	admin, err := crypto.ParseAccount(strings.TrimSpace(s.SuperAdmin))
	if err != nil {
		return fmt.Errorf("superAdmin: %w", err)
	}
	s.superAdmin = admin

	if err := s.StableCoin.validate(); err != nil {
		return fmt.Errorf("stableCoin: %w", err)
	}

	// alloc
	accounts := make([]string, 0, len(s.Alloc))
	for account := range s.Alloc {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	s.alloc = s.alloc[:0]
	for _, account := range accounts {
		addr, err := crypto.ParseAccount(account)
		if err != nil {
			return fmt.Errorf("alloc[%q]: %w", account, err)
		}
		amount, err := parseAmountString(s.Alloc[account])
		if err != nil {
			return fmt.Errorf("alloc[%q]: %w", account, err)
		}
		s.alloc = append(s.alloc, allocation{account: addr, amount: amount})
	}

	// merchants
	registered := make(map[[20]byte]bool, len(s.Merchants))
	for i := range s.Merchants {
		m := &s.Merchants[i]
		addr, err := crypto.ParseAccount(strings.TrimSpace(m.Address))
		if err != nil {
			return fmt.Errorf("merchant[%d]: %w", i, err)
		}
		if _, dup := registered[addr]; dup {
			return fmt.Errorf("merchant[%d]: duplicate address %q", i, m.Address)
		}
		if strings.TrimSpace(m.StoreName) == "" {
			return fmt.Errorf("merchant[%d]: storeName must be provided", i)
		}
		m.account = addr
		registered[addr] = m.Verified
	}

	// tokens
	symbols := map[string]struct{}{
		strings.ToUpper(strings.TrimSpace(s.StableCoin.Symbol)): {},
	}
	for i := range s.Tokens {
		t := &s.Tokens[i]
		if err := validateMetadata(t.Name, t.Symbol, t.Decimals); err != nil {
			return fmt.Errorf("token[%d]: %w", i, err)
		}
		key := strings.ToUpper(strings.TrimSpace(t.Symbol))
		if _, exists := symbols[key]; exists {
			return fmt.Errorf("token[%d]: duplicate symbol %q", i, t.Symbol)
		}
		symbols[key] = struct{}{}
		t.merchants = t.merchants[:0]
		for j, raw := range t.Merchants {
			addr, err := crypto.ParseAccount(strings.TrimSpace(raw))
			if err != nil {
				return fmt.Errorf("token[%d].merchants[%d]: %w", i, j, err)
			}
			if verified, ok := registered[addr]; !ok || !verified {
				return fmt.Errorf("token[%d].merchants[%d]: %q is not a verified genesis merchant", i, j, raw)
			}
			t.merchants = append(t.merchants, addr)
		}
	}
	return nil
}

func (c *StableCoinSpec) validate() error {
	return validateMetadata(c.Name, c.Symbol, c.Decimals)
}

func validateMetadata(name, symbol string, decimals uint32) error {
	if strings.TrimSpace(symbol) == "" {
		return fmt.Errorf("symbol must be provided")
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name must be provided")
	}
	if decimals > math.MaxUint8 {
		return fmt.Errorf("decimals must fit in a u8")
	}
	return nil
}

func parseAmountString(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount must be provided")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}
