package main

import (
	"fmt"
	"time"

	"github.com/eiannone/keyboard"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"dividendtoken/engine/actors"
	"dividendtoken/state/replay"
	"dividendtoken/state/token"
)

// cliListener is a cheap and nasty way to speed up development cycles. It listens for keypresses and executes commands.
func cliListener(interrupt chan struct{}, tk *token.Token, chain *replay.Chain) {
	fmt.Println("VIEW CURRENT STATE:\nh: holders\ne: emission\nw: current wallet\nc: engine config\nr: replay chain\nq: to quit\nSee cliListener.go for more")
	for {
		r, k, err := keyboard.GetSingleKey()
		if err != nil {
			fmt.Println(err)
			return
		}
		str := string(r)
		switch str {
		default:
			if k == keyboard.KeyEnter {
				fmt.Println("\n-----------------------------------")
				break
			}
			if r == 0 {
				break
			}
			fmt.Println("Key " + str + " is not bound to any test procedures. See main.cliListener for more details.")
		case "h":
			fmt.Printf("\nTotal Supply: %s\n", tk.TotalSupply())
			holders := tk.Holders()
			accounts := maps.Keys(holders)
			slices.Sort(accounts)
			for _, account := range accounts {
				balance := holders[account]
				fmt.Printf("\nAccount: %s\nBalance: %s\nWithdrawable: %s\nWithdrawn: %s\nBlacklisted: %v\n",
					account, balance, tk.WithdrawableDividendOf(account), tk.WithdrawnDividendOf(account), tk.Blacklisted(account))
			}
		case "e":
			started, ok := tk.StartedAt()
			if !ok {
				fmt.Println("Emission has not started")
				break
			}
			era := tk.CurrentHalvingEra()
			fmt.Printf("Started: %s (%s ago)\nEra: %d\n", started.Format(time.RFC3339), time.Since(started).Round(time.Second), era)
			if !tk.Emitting() {
				fmt.Println("Emission has ended")
			}
		case "q":
			close(interrupt)
			return
		case "w":
			fmt.Printf("Current Wallet: \n%s\n", actors.MyWallet().Account)
			fmt.Printf("Controller: \n%s\n", tk.Controller())
		case "r":
			fmt.Println(chain.CurrentHash(actors.MyWallet().Account))
		case "c":
			fmt.Println("CURRENT CONFIG")
			for k, v := range actors.MakeOrGetConfig().AllSettings() {
				fmt.Printf("\nKey: %s; Value: %v\n", k, v)
			}
		}
	}
}
