package events

import (
	"math/big"
	"strconv"

	"voucherchain/core/types"
)

const (
	// TypeCampaignCreated is emitted when campaign management deploys and
	// funds a campaign.
	TypeCampaignCreated = "campaigns.campaign.created"
	// TypeCampaignEnded is emitted when a creator closes a campaign and
	// reclaims unspent escrow.
	TypeCampaignEnded = "campaigns.campaign.ended"
	// TypeSettlementRequested is emitted when a merchant redeems local coin
	// for the backing stable asset.
	TypeSettlementRequested = "campaigns.settlement.requested"

	// TypeCampaignInfoSet is emitted once per campaign when its identity is
	// bound.
	TypeCampaignInfoSet = "campaign.info.set"
	// TypeRecipientJoined is emitted when a username joins a campaign.
	TypeRecipientJoined = "campaign.recipient.joined"
	// TypeRecipientsVerified is emitted when the owner verifies a batch of
	// usernames.
	TypeRecipientsVerified = "campaign.recipients.verified"
	// TypeRecipientFunded is emitted when the owner disburses tokens to a
	// verified recipient.
	TypeRecipientFunded = "campaign.recipient.funded"
)

// CampaignCreated captures a freshly deployed campaign.
type CampaignCreated struct {
	Campaign [20]byte
	Creator  [20]byte
	Token    [20]byte
	Amount   *big.Int
	Name     string
	Capacity uint32
}

// EventType implements the Event interface.
func (CampaignCreated) EventType() string { return TypeCampaignCreated }

// Event renders the creation for indexers.
func (e CampaignCreated) Event() *types.Event {
	return types.NewEvent(TypeCampaignCreated).
		Set("campaign", formatAccount(e.Campaign)).
		Set("creator", formatAccount(e.Creator)).
		Set("token", formatAccount(e.Token)).
		Set("amount", amountString(e.Amount)).
		Set("name", e.Name).
		Set("capacity", strconv.FormatUint(uint64(e.Capacity), 10))
}

// CampaignEnded captures the closing of a campaign.
type CampaignEnded struct {
	Campaign [20]byte
	Creator  [20]byte
	Burned   *big.Int
	Refund   *big.Int
}

// EventType implements the Event interface.
func (CampaignEnded) EventType() string { return TypeCampaignEnded }

// Event renders the closure for indexers.
func (e CampaignEnded) Event() *types.Event {
	return types.NewEvent(TypeCampaignEnded).
		Set("campaign", formatAccount(e.Campaign)).
		Set("creator", formatAccount(e.Creator)).
		Set("burned", amountString(e.Burned)).
		Set("refund", amountString(e.Refund))
}

// SettlementRequested captures a merchant redemption.
type SettlementRequested struct {
	Merchant    [20]byte
	Token       [20]byte
	Amount      *big.Int
	Beneficiary [20]byte
}

// EventType implements the Event interface.
func (SettlementRequested) EventType() string { return TypeSettlementRequested }

// Event renders the settlement for indexers.
func (e SettlementRequested) Event() *types.Event {
	return types.NewEvent(TypeSettlementRequested).
		Set("merchant", formatAccount(e.Merchant)).
		Set("token", formatAccount(e.Token)).
		Set("amount", amountString(e.Amount)).
		Set("beneficiary", formatAccount(e.Beneficiary))
}

// CampaignInfoSet captures the identity snapshot bound to a campaign.
type CampaignInfoSet struct {
	Creator   [20]byte
	Token     [20]byte
	TokenName string
	Name      string
	Capacity  uint32
	Location  string
}

// EventType implements the Event interface.
func (CampaignInfoSet) EventType() string { return TypeCampaignInfoSet }

// Event renders the snapshot for indexers.
func (e CampaignInfoSet) Event() *types.Event {
	return types.NewEvent(TypeCampaignInfoSet).
		Set("creator", formatAccount(e.Creator)).
		Set("token", formatAccount(e.Token)).
		Set("tokenName", e.TokenName).
		Set("name", e.Name).
		Set("capacity", strconv.FormatUint(uint64(e.Capacity), 10)).
		Set("location", e.Location)
}

// RecipientJoined captures a join request.
type RecipientJoined struct {
	Username  string
	Recipient [20]byte
}

// EventType implements the Event interface.
func (RecipientJoined) EventType() string { return TypeRecipientJoined }

// Event renders the join for indexers.
func (e RecipientJoined) Event() *types.Event {
	return types.NewEvent(TypeRecipientJoined).
		Set("username", e.Username).
		Set("recipient", formatAccount(e.Recipient))
}

// RecipientsVerified captures a verified batch.
type RecipientsVerified struct {
	Usernames  []string
	Recipients [][20]byte
}

// EventType implements the Event interface.
func (RecipientsVerified) EventType() string { return TypeRecipientsVerified }

// Event renders the batch for indexers.
func (e RecipientsVerified) Event() *types.Event {
	return types.NewEvent(TypeRecipientsVerified).
		Set("usernames", joinStrings(e.Usernames)).
		Set("recipients", joinAccounts(e.Recipients)).
		Set("count", strconv.Itoa(len(e.Usernames)))
}

// RecipientFunded captures a disbursement.
type RecipientFunded struct {
	Recipient [20]byte
	Amount    *big.Int
	Total     *big.Int
}

// EventType implements the Event interface.
func (RecipientFunded) EventType() string { return TypeRecipientFunded }

// Event renders the disbursement for indexers.
func (e RecipientFunded) Event() *types.Event {
	return types.NewEvent(TypeRecipientFunded).
		Set("recipient", formatAccount(e.Recipient)).
		Set("amount", amountString(e.Amount)).
		Set("total", amountString(e.Total))
}
