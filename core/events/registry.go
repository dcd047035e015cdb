package events

import (
	"strconv"

	"voucherchain/core/types"
)

const (
	// TypeMerchantRegistered is emitted when a merchant submits a
	// registration request.
	TypeMerchantRegistered = "registry.merchant.registered"
	// TypeMerchantVerified is emitted when the super-admin verifies a merchant.
	TypeMerchantVerified = "registry.merchant.verified"
	// TypeMerchantUpdated is emitted when the super-admin rewrites a verified
	// merchant's profile, possibly demoting it.
	TypeMerchantUpdated = "registry.merchant.updated"
	// TypeCampaignAdminSet is emitted when campaign management records a
	// campaign owner.
	TypeCampaignAdminSet = "registry.campaign_admin.set"
	// TypeTokenAdded is emitted when issuance registers a deployed token.
	TypeTokenAdded = "registry.token.added"

	// TypeTokenIssued is emitted when a new local coin is deployed.
	TypeTokenIssued = "issuance.token.issued"
	// TypeTokenItemsAdded is emitted when a token's item list grows.
	TypeTokenItemsAdded = "issuance.token.items_added"
	// TypeTokenMerchantsAdded is emitted when a token's merchant list grows.
	TypeTokenMerchantsAdded = "issuance.token.merchants_added"
)

// MerchantRegistered captures a new registration request. The phone number is
// deliberately left out of the rendered attributes.
type MerchantRegistered struct {
	Merchant   [20]byte
	Proprietor string
	StoreName  string
	Location   string
}

// EventType implements the Event interface.
func (MerchantRegistered) EventType() string { return TypeMerchantRegistered }

// Event renders the registration for indexers.
func (e MerchantRegistered) Event() *types.Event {
	return types.NewEvent(TypeMerchantRegistered).
		Set("merchant", formatAccount(e.Merchant)).
		Set("proprietor", e.Proprietor).
		Set("storeName", e.StoreName).
		Set("location", e.Location)
}

// MerchantVerified captures a verification.
type MerchantVerified struct {
	Merchant  [20]byte
	StoreName string
}

// EventType implements the Event interface.
func (MerchantVerified) EventType() string { return TypeMerchantVerified }

// Event renders the verification for indexers.
func (e MerchantVerified) Event() *types.Event {
	return types.NewEvent(TypeMerchantVerified).
		Set("merchant", formatAccount(e.Merchant)).
		Set("storeName", e.StoreName)
}

// MerchantUpdated captures a profile update.
type MerchantUpdated struct {
	Merchant  [20]byte
	Verified  bool
	StoreName string
	Location  string
}

// EventType implements the Event interface.
func (MerchantUpdated) EventType() string { return TypeMerchantUpdated }

// Event renders the update for indexers.
func (e MerchantUpdated) Event() *types.Event {
	return types.NewEvent(TypeMerchantUpdated).
		Set("merchant", formatAccount(e.Merchant)).
		Set("verified", strconv.FormatBool(e.Verified)).
		Set("storeName", e.StoreName).
		Set("location", e.Location)
}

// CampaignAdminSet captures the owner index write for a campaign.
type CampaignAdminSet struct {
	Campaign [20]byte
	Admin    [20]byte
}

// EventType implements the Event interface.
func (CampaignAdminSet) EventType() string { return TypeCampaignAdminSet }

// Event renders the owner assignment for indexers.
func (e CampaignAdminSet) Event() *types.Event {
	return types.NewEvent(TypeCampaignAdminSet).
		Set("campaign", formatAccount(e.Campaign)).
		Set("admin", formatAccount(e.Admin))
}

// TokenAdded captures a token appended to the deployed-token list.
type TokenAdded struct {
	Token [20]byte
}

// EventType implements the Event interface.
func (TokenAdded) EventType() string { return TypeTokenAdded }

// Event renders the addition for indexers.
func (e TokenAdded) Event() *types.Event {
	return types.NewEvent(TypeTokenAdded).Set("token", formatAccount(e.Token))
}

// TokenIssued captures the deployment of a merchant-scoped local coin.
type TokenIssued struct {
	Token     [20]byte
	Name      string
	Symbol    string
	Decimals  uint32
	Items     []string
	Merchants [][20]byte
}

// EventType implements the Event interface.
func (TokenIssued) EventType() string { return TypeTokenIssued }

// Event renders the issuance for indexers.
func (e TokenIssued) Event() *types.Event {
	return types.NewEvent(TypeTokenIssued).
		Set("token", formatAccount(e.Token)).
		Set("name", e.Name).
		Set("symbol", e.Symbol).
		Set("decimals", strconv.FormatUint(uint64(e.Decimals), 10)).
		Set("items", joinStrings(e.Items)).
		Set("merchants", joinAccounts(e.Merchants))
}

// TokenItemsAdded captures items appended to a token's eligibility list.
type TokenItemsAdded struct {
	Token [20]byte
	Items []string
}

// EventType implements the Event interface.
func (TokenItemsAdded) EventType() string { return TypeTokenItemsAdded }

// Event renders the addition for indexers.
func (e TokenItemsAdded) Event() *types.Event {
	return types.NewEvent(TypeTokenItemsAdded).
		Set("token", formatAccount(e.Token)).
		Set("items", joinStrings(e.Items))
}

// TokenMerchantsAdded captures merchants appended to a token's eligibility
// list.
type TokenMerchantsAdded struct {
	Token     [20]byte
	Merchants [][20]byte
}

// EventType implements the Event interface.
func (TokenMerchantsAdded) EventType() string { return TypeTokenMerchantsAdded }

// Event renders the addition for indexers.
func (e TokenMerchantsAdded) Event() *types.Event {
	return types.NewEvent(TypeTokenMerchantsAdded).
		Set("token", formatAccount(e.Token)).
		Set("merchants", joinAccounts(e.Merchants))
}
