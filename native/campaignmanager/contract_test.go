package campaignmanager

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"voucherchain/core/host"
	"voucherchain/crypto"
	"voucherchain/native/campaign"
	"voucherchain/native/common"
	"voucherchain/storage"
)

var errMockInsufficient = errors.New("mock: insufficient balance")

type mockToken struct {
	decimals uint32
	balances map[[20]byte]*big.Int
	burned   *big.Int
	code     [32]byte
}

func newMockToken(decimals uint32) *mockToken {
	return &mockToken{decimals: decimals, balances: make(map[[20]byte]*big.Int), burned: big.NewInt(0)}
}

func (m *mockToken) Decimals() (uint32, error) { return m.decimals, nil }

func (m *mockToken) Mint(to [20]byte, amount *big.Int) error {
	m.balances[to] = new(big.Int).Add(m.balance(to), amount)
	return nil
}

func (m *mockToken) Burn(from [20]byte, amount *big.Int) error {
	if m.balance(from).Cmp(amount) < 0 {
		return errMockInsufficient
	}
	m.balances[from] = new(big.Int).Sub(m.balance(from), amount)
	m.burned.Add(m.burned, amount)
	return nil
}

func (m *mockToken) Transfer(from, to [20]byte, amount *big.Int) error {
	if m.balance(from).Cmp(amount) < 0 {
		return errMockInsufficient
	}
	m.balances[from] = new(big.Int).Sub(m.balance(from), amount)
	m.balances[to] = new(big.Int).Add(m.balance(to), amount)
	return nil
}

func (m *mockToken) BalanceOf(holder [20]byte) (*big.Int, error) {
	return new(big.Int).Set(m.balance(holder)), nil
}

func (m *mockToken) Upgrade(code [32]byte) error {
	m.code = code
	return nil
}

func (m *mockToken) balance(holder [20]byte) *big.Int {
	if v, ok := m.balances[holder]; ok {
		return v
	}
	return big.NewInt(0)
}

type mockRegistry struct {
	admin    [20]byte
	tokens   [][20]byte
	verified [][20]byte
	owners   map[[20]byte][20]byte
}

func (m *mockRegistry) SuperAdmin() ([20]byte, error) { return m.admin, nil }
func (m *mockRegistry) AvailableTokens() ([][20]byte, error) { return m.tokens, nil }
func (m *mockRegistry) VerifiedMerchants() ([][20]byte, error) { return m.verified, nil }

func (m *mockRegistry) SetCampaignAdmin(campaign, admin [20]byte) error {
	m.owners[campaign] = admin
	return nil
}

func (m *mockRegistry) CampaignAdmin(campaign [20]byte) ([20]byte, error) {
	owner, ok := m.owners[campaign]
	if !ok {
		return owner, errors.New("mock: unknown campaign")
	}
	return owner, nil
}

type mockCampaign struct {
	name     string
	capacity uint32
	token    [20]byte
	manager  [20]byte
	ended    bool
}

func (m *mockCampaign) SetCampaignInfo(name, _ string, capacity uint32, token, _, management [20]byte, _ string) error {
	m.name, m.capacity, m.token, m.manager = name, capacity, token, management
	return nil
}

func (m *mockCampaign) SetCampaignEndStatus(status bool) error {
	m.ended = status
	return nil
}

func (m *mockCampaign) IsEnded() (bool, error) { return m.ended, nil }

type mockDialer struct {
	registry  *mockRegistry
	tokens    map[[20]byte]*mockToken
	campaigns map[[20]byte]*mockCampaign
}

func (d *mockDialer) Registry(_ *host.Env, _ [20]byte) (Registry, error) { return d.registry, nil }

func (d *mockDialer) Token(_ *host.Env, addr [20]byte) (Token, error) {
	token, ok := d.tokens[addr]
	if !ok {
		return nil, host.ErrContractNotFound
	}
	return token, nil
}

func (d *mockDialer) Campaign(_ *host.Env, addr [20]byte) (Campaign, error) {
	c, ok := d.campaigns[addr]
	if !ok {
		c = &mockCampaign{}
		d.campaigns[addr] = c
	}
	return c, nil
}

type managerFixture struct {
	host     *host.Host
	dialer   *mockDialer
	manager  [20]byte
	admin    [20]byte
	creator  [20]byte
	merchant [20]byte
	token    [20]byte
	stable   [20]byte
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(func() { _ = db.Close() })
	h := host.New(db, host.Config{})

	f := &managerFixture{
		host:     h,
		admin:    crypto.AccountFromSeed("super-admin"),
		creator:  crypto.AccountFromSeed("creator"),
		merchant: crypto.AccountFromSeed("merchant"),
		token:    crypto.AccountFromSeed("food-token"),
		stable:   crypto.AccountFromSeed("usdc"),
	}
	f.dialer = &mockDialer{
		registry: &mockRegistry{
			admin:    f.admin,
			tokens:   [][20]byte{f.token},
			verified: [][20]byte{f.merchant},
			owners:   make(map[[20]byte][20]byte),
		},
		tokens: map[[20]byte]*mockToken{
			f.token:  newMockToken(2),
			f.stable: newMockToken(2),
		},
		campaigns: make(map[[20]byte]*mockCampaign),
	}
	code := h.RegisterCode(CodeName, New().WithDialer(f.dialer))
	h.RegisterCode(campaign.CodeName, campaign.New())
	require.NoError(t, f.dialer.tokens[f.stable].Mint(f.creator, big.NewInt(1_000_000)))

	require.NoError(t, h.Execute(context.Background(), [][20]byte{f.admin}, func(env *host.Env) error {
		var err error
		if f.manager, err = env.Deploy(f.admin, code, crypto.CounterSalt(0)); err != nil {
			return err
		}
		m, err := Dial(env, f.manager)
		if err != nil {
			return err
		}
		if err := m.Initialize(crypto.AccountFromSeed("registry")); err != nil {
			return err
		}
		return m.SetStableCoinAddress(f.stable)
	}))
	return f
}

func (f *managerFixture) exec(signers [][20]byte, fn func(m *Client) error) error {
	return f.host.Execute(context.Background(), signers, func(env *host.Env) error {
		m, err := Dial(env, f.manager)
		if err != nil {
			return err
		}
		return fn(m)
	})
}

func (f *managerFixture) create(t *testing.T, amount int64) [20]byte {
	t.Helper()
	var addr [20]byte
	require.NoError(t, f.exec([][20]byte{f.creator}, func(m *Client) error {
		var err error
		addr, err = m.CreateCampaign("Winter meals", "Hot food", 3, f.token, big.NewInt(amount), f.creator, "Lagos")
		return err
	}))
	return addr
}

func (f *managerFixture) tokenBalance(addr, holder [20]byte) *big.Int {
	balance, _ := f.dialer.tokens[addr].BalanceOf(holder)
	return balance
}

func TestInitializeTwice(t *testing.T) {
	f := newManagerFixture(t)
	err := f.exec(nil, func(m *Client) error {
		return m.Initialize(crypto.AccountFromSeed("other"))
	})
	require.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestSetStableCoinRequiresSuperAdmin(t *testing.T) {
	f := newManagerFixture(t)
	err := f.exec([][20]byte{f.creator}, func(m *Client) error {
		return m.SetStableCoinAddress(f.creator)
	})
	require.ErrorIs(t, err, host.ErrAuthFailed)
}

func TestCreateCampaignThreshold(t *testing.T) {
	f := newManagerFixture(t)
	floor := minimumFor(2)
	require.Equal(t, big.NewInt(10_000), floor)

	err := f.exec([][20]byte{f.creator}, func(m *Client) error {
		_, err := m.CreateCampaign("Too small", "", 1, f.token, new(big.Int).Sub(floor, big.NewInt(1)), f.creator, "")
		return err
	})
	require.ErrorIs(t, err, ErrAmountTooLow)

	addr := f.create(t, floor.Int64())
	expected := crypto.ContractAddress(f.creator, crypto.CounterSalt(0), host.CodeHash(campaign.CodeName))
	require.Equal(t, expected, addr)

	require.Equal(t, floor, f.tokenBalance(f.token, addr), "campaign funded with minted tokens")
	require.Equal(t, floor, f.tokenBalance(f.stable, f.manager), "stable asset escrowed")
	require.Equal(t, f.creator, f.dialer.registry.owners[addr])
	camp := f.dialer.campaigns[addr]
	require.Equal(t, "Winter meals", camp.name)
	require.Equal(t, f.manager, camp.manager)

	require.NoError(t, f.host.View(context.Background(), func(env *host.Env) error {
		m, err := Dial(env, f.manager)
		require.NoError(t, err)
		campaigns, err := m.Campaigns()
		require.NoError(t, err)
		require.Equal(t, [][20]byte{addr}, campaigns)
		name, err := m.CampaignName(addr)
		require.NoError(t, err)
		require.Equal(t, "Winter meals", name)
		owned, err := m.CampaignsInfo(f.creator)
		require.NoError(t, err)
		require.Len(t, owned, 1)
		require.Equal(t, floor, owned[0].TokenMinted)
		require.Equal(t, uint32(3), owned[0].Capacity)
		salt, err := m.SaltCounter()
		require.NoError(t, err)
		require.Equal(t, uint32(1), salt)
		return nil
	}))

	second := f.create(t, floor.Int64())
	require.NotEqual(t, addr, second)
}

func TestCreateCampaignGuards(t *testing.T) {
	f := newManagerFixture(t)
	unknown := crypto.AccountFromSeed("unknown-token")
	err := f.exec([][20]byte{f.creator}, func(m *Client) error {
		_, err := m.CreateCampaign("x", "", 1, unknown, big.NewInt(10_000), f.creator, "")
		return err
	})
	require.ErrorIs(t, err, ErrTokenNotAvailable)

	err = f.exec([][20]byte{f.merchant}, func(m *Client) error {
		_, err := m.CreateCampaign("x", "", 1, f.token, big.NewInt(10_000), f.creator, "")
		return err
	})
	require.ErrorIs(t, err, host.ErrAuthFailed)

	err = f.exec([][20]byte{f.creator}, func(m *Client) error {
		_, err := m.CreateCampaign("x", "", 1, f.token, big.NewInt(10_000_000), f.creator, "")
		return err
	})
	require.ErrorIs(t, err, errMockInsufficient, "creator cannot escrow more than they hold")
}

func TestEndCampaignRefundsUndisbursedShare(t *testing.T) {
	f := newManagerFixture(t)
	addr := f.create(t, 10_000)
	recipient := crypto.AccountFromSeed("recipient")
	require.NoError(t, f.dialer.tokens[f.token].Transfer(addr, recipient, big.NewInt(2_500)))

	err := f.exec([][20]byte{f.merchant}, func(m *Client) error {
		return m.EndCampaign(addr, f.merchant)
	})
	require.ErrorIs(t, err, ErrNotCampaignOwner)

	err = f.exec([][20]byte{f.creator}, func(m *Client) error {
		return m.EndCampaign(crypto.AccountFromSeed("nowhere"), f.creator)
	})
	require.ErrorIs(t, err, ErrCampaignNotFound)

	before := f.tokenBalance(f.stable, f.creator)
	require.NoError(t, f.exec([][20]byte{f.creator}, func(m *Client) error {
		return m.EndCampaign(addr, f.creator)
	}))
	refunded := new(big.Int).Sub(f.tokenBalance(f.stable, f.creator), before)
	require.Equal(t, big.NewInt(7_500), refunded)
	require.Zero(t, f.tokenBalance(f.token, addr).Sign())
	require.Equal(t, big.NewInt(7_500), f.dialer.tokens[f.token].burned)
	require.True(t, f.dialer.campaigns[addr].ended)

	err = f.exec([][20]byte{f.creator}, func(m *Client) error {
		return m.EndCampaign(addr, f.creator)
	})
	require.ErrorIs(t, err, ErrCampaignEnded)
}

func TestRefundForScalesEscrow(t *testing.T) {
	detail := &CampaignDetail{TokenMinted: big.NewInt(300), Escrowed: big.NewInt(600)}
	require.Equal(t, big.NewInt(200), refundFor(detail, big.NewInt(100)))
	require.Zero(t, refundFor(detail, big.NewInt(0)).Sign())
	require.Zero(t, refundFor(&CampaignDetail{}, big.NewInt(5)).Sign())
}

func TestRequestCampaignSettlement(t *testing.T) {
	f := newManagerFixture(t)
	addr := f.create(t, 10_000)
	require.NoError(t, f.dialer.tokens[f.token].Transfer(addr, f.merchant, big.NewInt(4_000)))
	outsider := crypto.AccountFromSeed("unverified")
	require.NoError(t, f.dialer.tokens[f.token].Transfer(addr, outsider, big.NewInt(1_000)))

	settle := func(from [20]byte, amount int64) error {
		return f.exec([][20]byte{from}, func(m *Client) error {
			return m.RequestCampaignSettlement(from, big.NewInt(amount), f.token)
		})
	}
	require.ErrorIs(t, settle(outsider, 500), ErrNotMerchant)
	require.ErrorIs(t, settle(f.merchant, 0), ErrAmountNotPositive)
	require.ErrorIs(t, settle(f.merchant, -5), ErrAmountNotPositive)
	require.ErrorIs(t, settle(f.merchant, 4_001), ErrInsufficientTokens)

	require.NoError(t, settle(f.merchant, 4_000))
	require.Zero(t, f.tokenBalance(f.token, f.merchant).Sign())
	require.Equal(t, big.NewInt(4_000), f.tokenBalance(f.stable, f.admin))
	require.Equal(t, big.NewInt(6_000), f.tokenBalance(f.stable, f.manager))

	err := f.exec([][20]byte{f.merchant}, func(m *Client) error {
		return m.RequestCampaignSettlement(f.merchant, big.NewInt(1), crypto.AccountFromSeed("unknown-token"))
	})
	require.ErrorIs(t, err, ErrTokenNotAvailable)
}

func TestSettlementRequiresEscrow(t *testing.T) {
	f := newManagerFixture(t)
	require.NoError(t, f.dialer.tokens[f.token].Mint(f.merchant, big.NewInt(50)))
	err := f.exec([][20]byte{f.merchant}, func(m *Client) error {
		return m.RequestCampaignSettlement(f.merchant, big.NewInt(50), f.token)
	})
	require.ErrorIs(t, err, ErrInsufficientStable)
}

func TestUpgradeTokenRequiresSuperAdmin(t *testing.T) {
	f := newManagerFixture(t)
	code := host.CodeHash("localcoin-v2")
	err := f.exec([][20]byte{f.creator}, func(m *Client) error {
		return m.UpgradeToken(f.token, code)
	})
	require.ErrorIs(t, err, host.ErrAuthFailed)

	require.NoError(t, f.exec([][20]byte{f.admin}, func(m *Client) error {
		return m.UpgradeToken(f.token, code)
	}))
	require.Equal(t, code, f.dialer.tokens[f.token].code)
}

func TestMinimumScalesWithDecimals(t *testing.T) {
	require.Equal(t, big.NewInt(100), minimumFor(0))
	require.Equal(t, new(big.Int).Mul(big.NewInt(100), common.Pow10(7)), minimumFor(7))
}
