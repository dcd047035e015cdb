package routes

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"voucherchain/crypto"
	"voucherchain/indexer"
)

func (a *api) deployment(w http.ResponseWriter, r *http.Request) {
	view, err := a.query.Deployment(r.Context())
	if err != nil {
		writeQueryError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *api) tokens(w http.ResponseWriter, r *http.Request) {
	list, err := a.query.Tokens(r.Context())
	if err != nil {
		writeQueryError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *api) token(w http.ResponseWriter, r *http.Request) {
	view, err := a.query.Token(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeQueryError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *api) tokenBalance(w http.ResponseWriter, r *http.Request) {
	holder, ok := accountParam(w, r, "holder")
	if !ok {
		return
	}
	view, err := a.query.TokenBalance(r.Context(), chi.URLParam(r, "token"), holder)
	if err != nil {
		writeQueryError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *api) holderBalances(w http.ResponseWriter, r *http.Request) {
	holder, ok := accountParam(w, r, "holder")
	if !ok {
		return
	}
	list, err := a.query.HolderBalances(r.Context(), holder)
	if err != nil {
		writeQueryError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *api) merchants(w http.ResponseWriter, r *http.Request) {
	list, err := a.query.Merchants(r.Context())
	if err != nil {
		writeQueryError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *api) merchant(w http.ResponseWriter, r *http.Request) {
	addr, ok := accountParam(w, r, "merchant")
	if !ok {
		return
	}
	view, err := a.query.Merchant(r.Context(), addr)
	if err != nil {
		writeQueryError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *api) campaigns(w http.ResponseWriter, r *http.Request) {
	list, err := a.query.Campaigns(r.Context())
	if err != nil {
		writeQueryError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *api) campaign(w http.ResponseWriter, r *http.Request) {
	addr, ok := accountParam(w, r, "campaign")
	if !ok {
		return
	}
	view, err := a.query.Campaign(r.Context(), addr)
	if err != nil {
		writeQueryError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *api) creatorCampaigns(w http.ResponseWriter, r *http.Request) {
	creator, ok := accountParam(w, r, "creator")
	if !ok {
		return
	}
	list, err := a.query.CreatorCampaigns(r.Context(), creator)
	if err != nil {
		writeQueryError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *api) listEvents(w http.ResponseWriter, r *http.Request) {
	if a.events == nil {
		writeError(w, http.StatusServiceUnavailable, "event index disabled")
		return
	}
	values := r.URL.Query()
	filter := indexer.Filter{
		Type:     strings.TrimSpace(values.Get("type")),
		Contract: strings.TrimSpace(values.Get("contract")),
	}
	if filter.Contract != "" {
		if _, err := crypto.ParseAccount(filter.Contract); err != nil {
			writeError(w, http.StatusBadRequest, "invalid contract address")
			return
		}
	}
	if raw := values.Get("after"); raw != "" {
		after, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || after < 0 {
			writeError(w, http.StatusBadRequest, "invalid after cursor")
			return
		}
		filter.AfterID = after
	}
	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}
	if filter.Limit == 0 {
		filter.Limit = min(indexer.DefaultLimit, a.pageLimit)
	}
	if filter.Limit > a.pageLimit {
		filter.Limit = a.pageLimit
	}
	records, err := a.events.List(r.Context(), filter)
	if err != nil {
		writeQueryError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func accountParam(w http.ResponseWriter, r *http.Request, name string) ([20]byte, bool) {
	addr, err := crypto.ParseAccount(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name+" address")
		return [20]byte{}, false
	}
	return addr, true
}
