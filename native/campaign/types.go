package campaign

import (
	"sort"

	"voucherchain/core/state"
)

var (
	keyOwner              = state.Key("Owner")
	keyTokenAddress       = state.Key("TokenAddress")
	keyManagement         = state.Key("CampaignManagement")
	keyInfo               = state.Key("CampaignInfo")
	keyRecipientsStatus   = state.Key("RecipientsStatus")
	keyVerifiedRecipients = state.Key("VerifiedRecipientList")
	keyIsEnded            = state.Key("IsEnded")
)

func amountReceivedKey(recipient [20]byte) []byte {
	return state.Key("AmountReceived", recipient[:])
}

// Info is the immutable identity snapshot taken when the campaign is bound.
type Info struct {
	Name           string
	Description    string
	NoOfRecipients uint32
	TokenAddress   [20]byte
	TokenName      string
	Creator        [20]byte
	Location       string
}

// RecipientStatus is one joined username.
type RecipientStatus struct {
	Username  string
	Verified  bool
	Recipient [20]byte
}

// recipientBook keeps joined usernames sorted for deterministic storage.
type recipientBook []RecipientStatus

func (b recipientBook) find(username string) (int, bool) {
	idx := sort.Search(len(b), func(i int) bool { return b[i].Username >= username })
	return idx, idx < len(b) && b[idx].Username == username
}

func (b recipientBook) insert(entry RecipientStatus) recipientBook {
	idx, _ := b.find(entry.Username)
	out := make(recipientBook, 0, len(b)+1)
	out = append(out, b[:idx]...)
	out = append(out, entry)
	return append(out, b[idx:]...)
}
