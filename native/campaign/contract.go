package campaign

import (
	"math/big"
	"strings"

	"voucherchain/core/events"
	"voucherchain/core/host"
	"voucherchain/core/state"
	"voucherchain/native/common"
	"voucherchain/native/localcoin"
)

// CodeName is the name the campaign code registers under.
const CodeName = "campaign"

// Token is the part of a local coin a campaign pays out of.
type Token interface {
	Name() (string, error)
	Transfer(from, to [20]byte, amount *big.Int) error
	BalanceOf(holder [20]byte) (*big.Int, error)
}

// TokenDialer resolves the campaign token from a contract frame.
type TokenDialer func(env *host.Env, addr [20]byte) (Token, error)

func dialLocalCoin(env *host.Env, addr [20]byte) (Token, error) {
	return localcoin.Dial(env, addr)
}

// Contract is a single donation campaign.
type Contract struct {
	dialToken TokenDialer
}

// New returns the campaign code paying out of local coins.
func New() Contract { return Contract{dialToken: dialLocalCoin} }

// NewWithTokenDialer returns campaign code resolving tokens through dial.
func NewWithTokenDialer(dial TokenDialer) Contract { return Contract{dialToken: dial} }

var _ API = Contract{}

func (c Contract) token(env *host.Env) (Token, error) {
	addr, err := c.TokenAddress(env)
	if err != nil {
		return nil, err
	}
	dial := c.dialToken
	if dial == nil {
		dial = dialLocalCoin
	}
	return dial(env, addr)
}

// SetCampaignInfo binds the campaign identity. It transitions the campaign
// to active and can run only once.
func (c Contract) SetCampaignInfo(env *host.Env, name, description string, noOfRecipients uint32, tokenAddr, creator, management [20]byte, location string) error {
	ok, err := env.Instance().Has(keyOwner)
	if err != nil {
		return err
	}
	if ok {
		return ErrInfoAlreadySet
	}
	if err := env.Instance().Set(keyOwner, creator); err != nil {
		return err
	}
	if err := env.Instance().Set(keyTokenAddress, tokenAddr); err != nil {
		return err
	}
	token, err := c.token(env)
	if err != nil {
		return err
	}
	tokenName, err := token.Name()
	if err != nil {
		return err
	}
	if err := env.Instance().Set(keyManagement, management); err != nil {
		return err
	}
	if err := env.Instance().Set(keyIsEnded, false); err != nil {
		return err
	}
	info := &Info{
		Name:           name,
		Description:    description,
		NoOfRecipients: noOfRecipients,
		TokenAddress:   tokenAddr,
		TokenName:      tokenName,
		Creator:        creator,
		Location:       location,
	}
	if err := env.Instance().Set(keyInfo, info); err != nil {
		return err
	}
	env.Emit(events.CampaignInfoSet{
		Creator:   creator,
		Token:     tokenAddr,
		TokenName: tokenName,
		Name:      name,
		Capacity:  noOfRecipients,
		Location:  location,
	})
	return nil
}

// SetCampaignEndStatus ends or reopens the campaign. Only the campaign
// manager recorded at creation may call it.
func (c Contract) SetCampaignEndStatus(env *host.Env, status bool) error {
	management, err := c.CampaignManagement(env)
	if err != nil {
		return err
	}
	if err := env.RequireAuth(management); err != nil {
		return err
	}
	return env.Instance().Set(keyIsEnded, status)
}

// JoinCampaign records username as an unverified recipient. Usernames are
// unique; the same address may join under several usernames.
func (c Contract) JoinCampaign(env *host.Env, username string, recipient [20]byte) error {
	if err := env.RequireAuth(recipient); err != nil {
		return err
	}
	if strings.TrimSpace(username) == "" {
		return ErrUsernameRequired
	}
	if err := c.requireActive(env); err != nil {
		return err
	}
	book, err := readBook(env)
	if err != nil {
		return err
	}
	if _, ok := book.find(username); ok {
		return ErrAlreadyJoined
	}
	book = book.insert(RecipientStatus{Username: username, Recipient: recipient})
	if err := env.Instance().Set(keyRecipientsStatus, book); err != nil {
		return err
	}
	env.Emit(events.RecipientJoined{Username: username, Recipient: recipient})
	return nil
}

// VerifyRecipients verifies a batch of joined usernames. Owner only. One bad
// entry, or a batch that would exceed the campaign capacity, fails the whole
// call.
func (c Contract) VerifyRecipients(env *host.Env, usernames []string) error {
	owner, err := c.Owner(env)
	if err != nil {
		return err
	}
	if err := env.RequireAuth(owner); err != nil {
		return err
	}
	if err := c.requireActive(env); err != nil {
		return err
	}
	info, err := c.CampaignInfo(env)
	if err != nil {
		return err
	}
	book, err := readBook(env)
	if err != nil {
		return err
	}
	verified, err := c.VerifiedRecipients(env)
	if err != nil {
		return err
	}
	recipients := make([][20]byte, 0, len(usernames))
	for _, username := range usernames {
		idx, ok := book.find(username)
		if !ok {
			return ErrNotJoined
		}
		recipient := book[idx].Recipient
		if common.Contains(verified, recipient) {
			return ErrAlreadyVerified
		}
		book[idx].Verified = true
		verified = append(verified, recipient)
		recipients = append(recipients, recipient)
	}
	if uint64(len(verified)) > uint64(info.NoOfRecipients) {
		return ErrRecipientLimit
	}
	if err := env.Instance().Set(keyRecipientsStatus, book); err != nil {
		return err
	}
	if err := env.Instance().Set(keyVerifiedRecipients, verified); err != nil {
		return err
	}
	env.Emit(events.RecipientsVerified{Usernames: append([]string(nil), usernames...), Recipients: recipients})
	return nil
}

// TransferTokensToRecipient pays amount of the campaign token to a verified
// recipient and adds it to the recipient's cumulative receipt. Owner only.
func (c Contract) TransferTokensToRecipient(env *host.Env, to [20]byte, amount *big.Int) error {
	owner, err := c.Owner(env)
	if err != nil {
		return err
	}
	if err := env.RequireAuth(owner); err != nil {
		return err
	}
	if err := common.CheckAmount(amount); err != nil {
		return err
	}
	verified, err := c.VerifiedRecipients(env)
	if err != nil {
		return err
	}
	if !common.Contains(verified, to) {
		return ErrRecipientUnverified
	}
	if amount.Sign() <= 0 {
		return ErrAmountNotPositive
	}
	if err := c.requireActive(env); err != nil {
		return err
	}
	previous, err := c.AmountReceived(env, to)
	if err != nil {
		return err
	}
	total, err := common.AddAmounts(previous, amount)
	if err != nil {
		return err
	}
	if err := env.Instance().Set(amountReceivedKey(to), total); err != nil {
		return err
	}
	token, err := c.token(env)
	if err != nil {
		return err
	}
	if err := token.Transfer(env.CurrentContract(), to, amount); err != nil {
		return err
	}
	env.Emit(events.RecipientFunded{Recipient: to, Amount: common.CloneBigInt(amount), Total: total})
	return nil
}

// RecipientLimitExceeded reports whether the verified recipients reached the
// declared capacity.
func (c Contract) RecipientLimitExceeded(env *host.Env) (bool, error) {
	info, err := c.CampaignInfo(env)
	if err != nil {
		return false, err
	}
	verified, err := c.VerifiedRecipients(env)
	if err != nil {
		return false, err
	}
	return uint64(len(verified)) >= uint64(info.NoOfRecipients), nil
}

// RecipientsStatus lists joined usernames ordered by username.
func (Contract) RecipientsStatus(env *host.Env) ([]RecipientStatus, error) {
	book, err := readBook(env)
	if err != nil {
		return nil, err
	}
	return []RecipientStatus(book), nil
}

// VerifiedRecipients lists verified recipient addresses in verification
// order.
func (Contract) VerifiedRecipients(env *host.Env) ([][20]byte, error) {
	var list [][20]byte
	if _, err := env.Instance().Get(keyVerifiedRecipients, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = make([][20]byte, 0)
	}
	return list, nil
}

// AmountReceived returns the cumulative amount paid to recipient.
func (Contract) AmountReceived(env *host.Env, recipient [20]byte) (*big.Int, error) {
	amount := new(big.Int)
	ok, err := env.Instance().Get(amountReceivedKey(recipient), amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return amount, nil
}

// CampaignBalance returns the campaign's own token balance.
func (c Contract) CampaignBalance(env *host.Env) (*big.Int, error) {
	token, err := c.token(env)
	if err != nil {
		return nil, err
	}
	return token.BalanceOf(env.CurrentContract())
}

// CampaignInfo returns the identity snapshot.
func (Contract) CampaignInfo(env *host.Env) (*Info, error) {
	info := new(Info)
	ok, err := env.Instance().Get(keyInfo, info)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOwnerNotSet
	}
	return info, nil
}

// Owner returns the creator.
func (Contract) Owner(env *host.Env) ([20]byte, error) {
	return readAccount(env.Instance(), keyOwner, ErrOwnerNotSet)
}

// TokenAddress returns the token the campaign pays out of.
func (Contract) TokenAddress(env *host.Env) ([20]byte, error) {
	return readAccount(env.Instance(), keyTokenAddress, ErrTokenNotSet)
}

// CampaignManagement returns the manager that created the campaign.
func (Contract) CampaignManagement(env *host.Env) ([20]byte, error) {
	return readAccount(env.Instance(), keyManagement, ErrManagementNotSet)
}

// IsEnded reports whether the campaign was closed.
func (Contract) IsEnded(env *host.Env) (bool, error) {
	var ended bool
	_, err := env.Instance().Get(keyIsEnded, &ended)
	return ended, err
}

func (c Contract) requireActive(env *host.Env) error {
	ok, err := env.Instance().Has(keyOwner)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOwnerNotSet
	}
	ended, err := c.IsEnded(env)
	if err != nil {
		return err
	}
	if ended {
		return ErrCampaignEnded
	}
	return nil
}

func readBook(env *host.Env) (recipientBook, error) {
	var book recipientBook
	if _, err := env.Instance().Get(keyRecipientsStatus, &book); err != nil {
		return nil, err
	}
	return book, nil
}

func readAccount(store *state.Store, key []byte, missing error) ([20]byte, error) {
	var addr [20]byte
	ok, err := store.Get(key, &addr)
	if err != nil {
		return addr, err
	}
	if !ok {
		return addr, missing
	}
	return addr, nil
}
