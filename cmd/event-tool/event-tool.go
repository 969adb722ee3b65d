package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/nbd-wtf/go-nostr"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"dividendtoken/engine/actors"
	"dividendtoken/engine/library"
	ec "dividendtoken/messaging/eventconductor"
	"dividendtoken/messaging/relays"
	"dividendtoken/state/claims"
	"dividendtoken/state/replay"
)

type options struct {
	op              string
	to              string
	from            string
	account         string
	amount          string
	key             string
	identifier      string
	claimant        string
	authoritySecret string
	v               uint8
	r               string
	s               string
	blacklisted     bool
	previous        string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var o options
	flag.StringVar(&o.op, "op", "", "claim, start, transfer, burn, withdraw, authority, blacklist, approve, transferFrom, control or endorse")
	flag.StringVar(&o.to, "to", "", "recipient account")
	flag.StringVar(&o.from, "from", "", "account to spend from (transferFrom)")
	flag.StringVar(&o.account, "account", "", "target account (blacklist, approve spender, control)")
	flag.StringVar(&o.amount, "amount", "", "amount in base units")
	flag.StringVar(&o.key, "key", "", "new authority public key, hex")
	flag.StringVar(&o.identifier, "identifier", "", "claim identifier, hex")
	flag.StringVar(&o.claimant, "claimant", "", "account being endorsed (endorse), defaults to the wallet account")
	flag.StringVar(&o.authoritySecret, "authority-secret", "", "authority private key, hex (endorse)")
	flag.Uint8Var(&o.v, "v", 0, "endorsement recovery byte (claim)")
	flag.StringVar(&o.r, "r", "", "endorsement r, hex (claim)")
	flag.StringVar(&o.s, "s", "", "endorsement s, hex (claim)")
	flag.BoolVar(&o.blacklisted, "blacklisted", true, "blacklist or clear (blacklist)")
	flag.StringVar(&o.previous, "previous", replay.Genesis, "ID of the wallet's last accepted event")
	publish := flag.Bool("publish", false, "publish the event to relaysMust")
	flag.Parse()

	conf := viper.New()
	actors.InitConfig(conf)
	actors.SetConfig(conf)
	wallet := actors.MyWallet()

	if o.op == "endorse" {
		return endorse(o, wallet.Account)
	}
	e, err := buildEvent(o, time.Now())
	if err != nil {
		return err
	}
	if err = actors.Sign(wallet, &e); err != nil {
		return err
	}
	b, err := json.MarshalIndent(e, "", " ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	if *publish {
		relays.PublishToRelays(context.Background(), []nostr.Event{e}, conf.GetStringSlice("relaysMust"))
	}
	return nil
}

// buildEvent returns the unsigned event for o.
func buildEvent(o options, now time.Time) (nostr.Event, error) {
	var kind int
	var content any
	switch o.op {
	case "claim":
		id, err := library.ParseIdentifier(o.identifier)
		if err != nil {
			return nostr.Event{}, err
		}
		kind, content = ec.KindClaim, ec.Kind641000{Identifier: id, V: o.v, R: o.r, S: o.s}
	case "start":
		kind = ec.KindStart
	case "transfer":
		kind, content = ec.KindTransfer, ec.Kind641004{To: o.to, Amount: o.amount}
	case "burn":
		kind, content = ec.KindBurn, ec.Kind641006{Amount: o.amount}
	case "withdraw":
		kind = ec.KindWithdraw
	case "authority":
		kind, content = ec.KindAuthorityKey, ec.Kind641010{Key: o.key}
	case "blacklist":
		kind, content = ec.KindSetBlacklisted, ec.Kind641012{Account: o.account, Blacklisted: o.blacklisted}
	case "approve":
		kind, content = ec.KindApprove, ec.Kind641014{Spender: o.account, Amount: o.amount}
	case "transferFrom":
		kind, content = ec.KindTransferFrom, ec.Kind641016{From: o.from, To: o.to, Amount: o.amount}
	case "control":
		kind, content = ec.KindTransferControl, ec.Kind641018{Controller: o.account}
	default:
		return nostr.Event{}, fmt.Errorf("unknown op %q", o.op)
	}
	e := nostr.Event{
		CreatedAt: nostr.Timestamp(now.Unix()),
		Kind:      kind,
		Tags:      nostr.Tags{nostr.Tag{"r", o.previous}},
	}
	if content != nil {
		b, err := json.Marshal(content)
		if err != nil {
			return nostr.Event{}, err
		}
		e.Content = string(b)
	}
	return e, nil
}

func endorse(o options, wallet library.Account) error {
	claimant := o.claimant
	if len(claimant) == 0 {
		claimant = wallet
	}
	secret, err := hex.DecodeString(o.authoritySecret)
	if err != nil {
		return fmt.Errorf("authority-secret: %w", err)
	}
	key, _ := btcec.PrivKeyFromBytes(secret)
	id, err := library.ParseIdentifier(o.identifier)
	if err != nil {
		return err
	}
	e, err := claims.Endorse(key, id, claimant)
	if err != nil {
		return err
	}
	fmt.Printf("--identifier %s --v %d --r %s --s %s\n", id, e.V, hex.EncodeToString(e.R[:]), hex.EncodeToString(e.S[:]))
	return nil
}
