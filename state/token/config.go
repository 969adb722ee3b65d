package token

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/viper"

	"dividendtoken/engine/library"
	"dividendtoken/state/claims"
)

// DefaultPool holds emitted rewards until they are withdrawn. Zero is not the
// x coordinate of any secp256k1 point, so no key signs for it. A configured
// pool must likewise not be a public key, or its holder could spend rewards
// that are owed to everyone else.
var DefaultPool library.Account = strings.Repeat("0", 64)

type Config struct {
	// Controller may run privileged operations.
	Controller library.Account
	// Authority endorses claims. Claims fail until one is set.
	Authority *btcec.PublicKey
	// StartRecipient receives the bulk mint at start. Defaults to Controller.
	StartRecipient library.Account
	Pool           library.Account
	HalvingPeriod  time.Duration
	// FinalEra is the last era that emits. Nil means emission.FinalEra.
	FinalEra *uint64
	Clock    clockwork.Clock
}

func (cfg *Config) Validate() error {
	if !library.ValidAccount(cfg.Controller) {
		return errors.New("controller must be a 32 byte hex account")
	}
	if len(cfg.Pool) == 0 {
		cfg.Pool = DefaultPool
	}
	if cfg.Pool == cfg.Controller {
		return errors.New("the pool cannot be the controller")
	}
	if err := checkPool(cfg.Pool); err != nil {
		return err
	}
	if len(cfg.StartRecipient) == 0 {
		cfg.StartRecipient = cfg.Controller
	}
	if cfg.StartRecipient == cfg.Pool {
		return errors.New("the start recipient cannot be the pool")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

// checkPool rejects a pool account that is not 32 bytes of hex or that some
// private key could sign for.
func checkPool(pool library.Account) error {
	if !library.ValidAccount(pool) {
		return fmt.Errorf("pool %q must be a 32 byte hex account", pool)
	}
	b, _ := hex.DecodeString(pool)
	if _, err := schnorr.ParsePubKey(b); err == nil {
		return fmt.Errorf("pool %s is a public key; its owner could spend the pool", pool)
	}
	return nil
}

// ConfigFromViper reads the token settings written by actors.InitConfig.
func ConfigFromViper(conf *viper.Viper) (cfg Config, err error) {
	cfg.Controller = conf.GetString("controller")
	cfg.StartRecipient = conf.GetString("startRecipient")
	cfg.Pool = conf.GetString("poolAccount")
	cfg.HalvingPeriod = conf.GetDuration("halvingPeriod")
	if conf.IsSet("finalEra") {
		finalEra := conf.GetUint64("finalEra")
		cfg.FinalEra = &finalEra
	}
	if key := conf.GetString("authorityKey"); len(key) > 0 {
		if cfg.Authority, err = claims.ParseAuthority(key); err != nil {
			return cfg, fmt.Errorf("authorityKey: %w", err)
		}
	}
	return cfg, cfg.Validate()
}
