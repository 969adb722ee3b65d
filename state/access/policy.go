package access

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"dividendtoken/engine/library"
)

// Policy answers who may run privileged operations and whose outbound
// transfers are excluded from emission. It has no lock of its own; the token
// serializes every call.
type Policy struct {
	controller library.Account
	blacklist  map[library.Account]struct{}
}

func New(controller library.Account) *Policy {
	return &Policy{
		controller: controller,
		blacklist:  make(map[library.Account]struct{}),
	}
}

func (p *Policy) Controller() library.Account {
	return p.controller
}

// Authorize returns ErrForbidden unless caller is the controller.
func (p *Policy) Authorize(caller library.Account) error {
	if len(p.controller) == 0 || caller != p.controller {
		return fmt.Errorf("%s: %w", caller, library.ErrForbidden)
	}
	return nil
}

func (p *Policy) Blacklisted(account library.Account) bool {
	_, ok := p.blacklist[account]
	return ok
}

func (p *Policy) SetBlacklisted(caller, account library.Account, blacklisted bool) error {
	if err := p.Authorize(caller); err != nil {
		return err
	}
	if blacklisted {
		p.blacklist[account] = struct{}{}
	} else {
		delete(p.blacklist, account)
	}
	return nil
}

// TransferControl hands the controller capability to another account.
func (p *Policy) TransferControl(caller, next library.Account) error {
	if err := p.Authorize(caller); err != nil {
		return err
	}
	if !library.ValidAccount(next) {
		return fmt.Errorf("new controller %q is not a valid account", next)
	}
	p.controller = next
	return nil
}

// BlacklistedAccounts returns the blacklist in sorted order.
func (p *Policy) BlacklistedAccounts() []library.Account {
	accounts := maps.Keys(p.blacklist)
	slices.Sort(accounts)
	return accounts
}

// Restore replaces the whole policy state.
func (p *Policy) Restore(controller library.Account, blacklisted []library.Account) {
	p.controller = controller
	p.blacklist = make(map[library.Account]struct{}, len(blacklisted))
	for _, account := range blacklisted {
		p.blacklist[account] = struct{}{}
	}
}
