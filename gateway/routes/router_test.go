package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"voucherchain/core/events"
	"voucherchain/core/genesis"
	"voucherchain/core/host"
	"voucherchain/crypto"
	"voucherchain/gateway/middleware"
	"voucherchain/indexer"
	"voucherchain/native/campaign"
	"voucherchain/native/campaignmanager"
	"voucherchain/native/protocol"
	"voucherchain/storage"
)

type gatewayFixture struct {
	handler    http.Handler
	host       *host.Host
	deployment *genesis.Deployment
	creator    [20]byte
	grocer     [20]byte
	recipient  [20]byte
	campaign   [20]byte
}

func newGatewayFixture(t *testing.T, limiter *middleware.RateLimiter) *gatewayFixture {
	t.Helper()
	f := &gatewayFixture{
		creator:   crypto.AccountFromSeed("gateway-creator"),
		grocer:    crypto.AccountFromSeed("gateway-grocer"),
		recipient: crypto.AccountFromSeed("gateway-recipient"),
	}
	admin := crypto.AccountFromSeed("gateway-admin")
	manifest := fmt.Sprintf(`superAdmin: %s
stableCoin: {name: USD Coin, symbol: USDC, decimals: 2}
alloc:
  %s: "1000000"
merchants:
  - {address: %s, storeName: Grocer, proprietor: Amina, phoneNo: "+255712345678", verified: true}
tokens:
  - {name: Food Coin, symbol: FOOD, decimals: 2, items: [bread, rice], merchants: [%s]}
`,
		crypto.FormatAccount(admin),
		crypto.FormatAccount(f.creator),
		crypto.FormatAccount(f.grocer),
		crypto.FormatAccount(f.grocer),
	)
	spec, err := genesis.ParseGenesisSpec([]byte(manifest))
	require.NoError(t, err)

	index, err := indexer.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	db := storage.NewMemDB()
	t.Cleanup(func() { _ = db.Close() })
	f.host = host.New(db, host.Config{})
	f.host.SetEmitter(events.MultiEmitter{index})
	protocol.Register(f.host)
	f.deployment, err = genesis.Apply(context.Background(), f.host, spec)
	require.NoError(t, err)
	food := f.deployment.Tokens[0].Address

	ctx := context.Background()
	require.NoError(t, f.host.Execute(ctx, [][20]byte{f.creator}, func(env *host.Env) error {
		m, err := campaignmanager.Dial(env, f.deployment.CampaignManager)
		if err != nil {
			return err
		}
		f.campaign, err = m.CreateCampaign("Winter meals", "Hot food", 5, food, big.NewInt(10_000), f.creator, "Dar")
		return err
	}))
	require.NoError(t, f.host.Execute(ctx, [][20]byte{f.creator, f.recipient}, func(env *host.Env) error {
		c, err := campaign.Dial(env, f.campaign)
		if err != nil {
			return err
		}
		if err := c.JoinCampaign("neema", f.recipient); err != nil {
			return err
		}
		if err := c.VerifyRecipients([]string{"neema"}); err != nil {
			return err
		}
		return c.TransferTokensToRecipient(f.recipient, big.NewInt(300))
	}))

	f.handler, err = New(Config{
		Query:          NewQuery(f.host, f.deployment),
		Events:         index,
		EventPageLimit: 50,
		RateLimiter:    limiter,
		Observability:  middleware.NewObservability(nil, false),
	})
	require.NoError(t, err)
	return f
}

func (f *gatewayFixture) get(t *testing.T, path string, out interface{}) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)
	if out != nil && res.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), out))
	}
	return res.Code
}

func TestHealthz(t *testing.T) {
	f := newGatewayFixture(t, nil)
	require.Equal(t, http.StatusOK, f.get(t, "/healthz", nil))
}

func TestDeploymentRoute(t *testing.T) {
	f := newGatewayFixture(t, nil)
	var view deploymentView
	require.Equal(t, http.StatusOK, f.get(t, "/v1/deployment", &view))
	require.Equal(t, crypto.FormatAccount(f.deployment.CampaignManager), view.CampaignManager)
	require.Equal(t, []deployedTokenView{{Symbol: "FOOD", Address: crypto.FormatAccount(f.deployment.Tokens[0].Address)}}, view.Tokens)
	require.Greater(t, view.Ledger, view.GenesisLedger)
}

func TestTokenRoutes(t *testing.T) {
	f := newGatewayFixture(t, nil)
	food := crypto.FormatAccount(f.deployment.Tokens[0].Address)

	var list []tokenView
	require.Equal(t, http.StatusOK, f.get(t, "/v1/tokens", &list))
	require.Len(t, list, 2)
	require.True(t, list[0].Stable)
	require.Equal(t, "USDC", list[0].Symbol)
	require.Equal(t, "FOOD", list[1].Symbol)
	require.Equal(t, "10000", list[1].TotalSupply)

	var bySymbol tokenView
	require.Equal(t, http.StatusOK, f.get(t, "/v1/tokens/FOOD", &bySymbol))
	require.Equal(t, food, bySymbol.Address)
	require.Equal(t, []string{"bread", "rice"}, bySymbol.Items)
	require.Equal(t, []string{crypto.FormatAccount(f.grocer)}, bySymbol.Merchants)

	var balance balanceView
	require.Equal(t, http.StatusOK, f.get(t, "/v1/tokens/"+food+"/balances/"+crypto.FormatAccount(f.recipient), &balance))
	require.Equal(t, "300", balance.Balance)

	require.Equal(t, http.StatusNotFound, f.get(t, "/v1/tokens/NOPE", nil))
	require.Equal(t, http.StatusNotFound, f.get(t, "/v1/tokens/"+crypto.FormatAccount(f.grocer), nil))
	require.Equal(t, http.StatusBadRequest, f.get(t, "/v1/tokens/FOOD/balances/garbage", nil))
}

func TestHolderBalancesRoute(t *testing.T) {
	f := newGatewayFixture(t, nil)

	var creator []balanceView
	require.Equal(t, http.StatusOK, f.get(t, "/v1/holders/"+crypto.FormatAccount(f.creator)+"/balances", &creator))
	require.Len(t, creator, 1)
	require.Equal(t, "USDC", creator[0].Symbol)
	require.Equal(t, "990000", creator[0].Balance)

	var recipient []balanceView
	require.Equal(t, http.StatusOK, f.get(t, "/v1/holders/"+crypto.FormatAccount(f.recipient)+"/balances", &recipient))
	require.Len(t, recipient, 1)
	require.Equal(t, "FOOD", recipient[0].Symbol)
	require.Equal(t, "300", recipient[0].Balance)
}

func TestMerchantRoutesMaskPhoneNumbers(t *testing.T) {
	f := newGatewayFixture(t, nil)

	var list []merchantView
	require.Equal(t, http.StatusOK, f.get(t, "/v1/merchants", &list))
	require.Len(t, list, 1)
	require.True(t, list[0].Verified)
	require.Equal(t, "**********78", list[0].PhoneNo)

	var one merchantView
	require.Equal(t, http.StatusOK, f.get(t, "/v1/merchants/"+crypto.FormatAccount(f.grocer), &one))
	require.Equal(t, "Grocer", one.StoreName)
	require.Equal(t, http.StatusNotFound, f.get(t, "/v1/merchants/"+crypto.FormatAccount(f.creator), nil))
}

func TestCampaignRoutes(t *testing.T) {
	f := newGatewayFixture(t, nil)
	addr := crypto.FormatAccount(f.campaign)

	var list []campaignView
	require.Equal(t, http.StatusOK, f.get(t, "/v1/campaigns", &list))
	require.Len(t, list, 1)
	require.Equal(t, addr, list[0].Address)
	require.Empty(t, list[0].Recipients)

	var detail campaignView
	require.Equal(t, http.StatusOK, f.get(t, "/v1/campaigns/"+addr, &detail))
	require.Equal(t, "Winter meals", detail.Name)
	require.Equal(t, "10000", detail.Escrowed)
	require.Equal(t, "9700", detail.Balance)
	require.False(t, detail.Ended)
	require.Equal(t, []recipientView{{
		Username:       "neema",
		Address:        crypto.FormatAccount(f.recipient),
		Verified:       true,
		AmountReceived: "300",
	}}, detail.Recipients)

	var mine []campaignView
	require.Equal(t, http.StatusOK, f.get(t, "/v1/creators/"+crypto.FormatAccount(f.creator)+"/campaigns", &mine))
	require.Len(t, mine, 1)

	require.Equal(t, http.StatusNotFound, f.get(t, "/v1/campaigns/"+crypto.FormatAccount(f.grocer), nil))
}

func TestEventsRoute(t *testing.T) {
	f := newGatewayFixture(t, nil)

	var funded []indexer.Record
	require.Equal(t, http.StatusOK, f.get(t, "/v1/events?type="+events.TypeRecipientFunded, &funded))
	require.Len(t, funded, 1)
	require.Equal(t, "300", funded[0].Attributes["amount"])
	require.Equal(t, crypto.FormatAccount(f.campaign), funded[0].Contract)

	var page []indexer.Record
	require.Equal(t, http.StatusOK, f.get(t, "/v1/events?limit=2", &page))
	require.Len(t, page, 2)

	var next []indexer.Record
	require.Equal(t, http.StatusOK, f.get(t, fmt.Sprintf("/v1/events?limit=2&after=%d", page[1].ID), &next))
	require.Len(t, next, 2)
	require.Greater(t, next[0].ID, page[1].ID)

	require.Equal(t, http.StatusBadRequest, f.get(t, "/v1/events?limit=-1", nil))
	require.Equal(t, http.StatusBadRequest, f.get(t, "/v1/events?contract=bogus", nil))
}

func TestRateLimitedRoutes(t *testing.T) {
	limiter := middleware.NewRateLimiter(middleware.RateLimit{RequestsPerSecond: 0.001, Burst: 1}, nil)
	f := newGatewayFixture(t, limiter)

	require.Equal(t, http.StatusOK, f.get(t, "/v1/tokens", nil))
	require.Equal(t, http.StatusTooManyRequests, f.get(t, "/v1/tokens", nil))
	require.Equal(t, http.StatusOK, f.get(t, "/healthz", nil))
}

func TestNewRequiresQuery(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}
