package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"

	"github.com/ArkEcosystemArchive/ark-cli/internal/chain"
	"github.com/ArkEcosystemArchive/ark-cli/internal/log"
	"github.com/ArkEcosystemArchive/ark-cli/internal/wallet"
	"github.com/ArkEcosystemArchive/ark-cli/pkg/crypto"
	"github.com/ArkEcosystemArchive/ark-cli/pkg/tx"
)

// signFlags are the options shared by every command that submits a
// transaction.
type signFlags struct {
	fee    *string
	second *bool
	ledger *int
}

func addSignFlags(fs *flag.FlagSet, withSecond bool) signFlags {
	sf := signFlags{
		fee:    fs.String("fee", "", "Fee in ARK (default: the node's static fee)"),
		ledger: fs.Int("ledger", -1, "Sign with this hardware account index instead of a passphrase"),
	}
	if withSecond {
		sf.second = fs.Bool("second", false, "Also sign with a second passphrase")
	} else {
		sf.second = new(bool)
	}
	return sf
}

// sender is the account a transaction is signed with. Passphrase is empty
// for hardware accounts.
type sender struct {
	account    wallet.Account
	passphrase string
}

func (c *cli) sender(sf signFlags) (*sender, error) {
	if *sf.ledger >= 0 {
		if !c.ledger.IsSupported() {
			_, err := c.ledger.Account(0)
			return nil, err
		}
		acc, err := c.ledger.Account(uint32(*sf.ledger))
		if err != nil {
			return nil, err
		}
		return &sender{account: acc}, nil
	}

	passphrase, err := c.passphrase("Passphrase: ")
	if err != nil {
		return nil, err
	}
	acc, err := c.signer.Derive(passphrase)
	if err != nil {
		return nil, err
	}
	return &sender{account: acc, passphrase: passphrase}, nil
}

type submission struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Sender      string          `json:"sender"`
	Fee         uint64          `json:"fee"`
	Server      string          `json:"server"`
	Relayed     int             `json:"relayed"`
	Transaction *tx.Transaction `json:"transaction"`
}

// submit sets the fee, signs b as s, posts the result to the server and
// relays it to other peers.
func (c *cli) submit(ctx context.Context, t tx.Type, b *tx.Builder, s *sender, sf signFlags) error {
	fee, err := c.fee(ctx, t, *sf.fee)
	if err != nil {
		return err
	}
	b.SetFee(fee)

	pub, err := publicKeyBytes(s.account)
	if err != nil {
		return err
	}
	b.SetSender(pub)
	payload, err := b.SigningBytes()
	if err != nil {
		return err
	}

	var sig []byte
	if s.passphrase == "" {
		sig, err = c.ledger.Sign(s.account.Path, payload)
	} else {
		sig, err = c.signer.Sign(s.passphrase, payload)
	}
	if err != nil {
		return err
	}
	if err := b.SetSignature(sig); err != nil {
		return fmt.Errorf("signature rejected: %w", err)
	}

	if *sf.second {
		second, err := c.passphrase("Second passphrase: ")
		if err != nil {
			return err
		}
		key, err := crypto.PrivateKeyFromPassphrase(second)
		if err != nil {
			return err
		}
		defer key.Zero()
		if err := b.SecondSign(key); err != nil {
			return err
		}
	}

	signed, err := b.Build()
	if err != nil {
		return err
	}
	log.Wallet.Info().Str("id", signed.ID).Str("type", t.String()).Msg("Posting transaction")

	receipt, relayed, err := c.client.Submit(ctx, signed)
	if err != nil {
		return err
	}

	out := submission{
		ID:          signed.ID,
		Type:        t.String(),
		Sender:      s.account.Address,
		Fee:         fee,
		Server:      receipt.Peer,
		Relayed:     relayed,
		Transaction: signed,
	}
	if err := c.out.result(out, []field{
		{"Transaction", out.ID},
		{"Type", out.Type},
		{"Sender", out.Sender},
		{"Fee", wallet.FormatAmount(fee) + " " + c.def.Symbol},
		{"Accepted by", out.Server},
		{"Relayed to", strconv.Itoa(relayed) + " peers"},
	}); err != nil {
		return err
	}
	c.out.notice(true, "Transaction sent")
	return nil
}

// fee returns the explicit fee when one was given, otherwise the node's
// static fee for t.
func (c *cli) fee(ctx context.Context, t tx.Type, explicit string) (uint64, error) {
	if explicit != "" {
		fee, err := wallet.ParseAmount(explicit)
		if err != nil {
			return 0, fmt.Errorf("fee: %w", err)
		}
		return fee, nil
	}
	nodeCfg, err := c.client.NodeConfig(ctx)
	if err != nil {
		log.Wallet.Warn().Err(err).Msg("Node fees unavailable, using static fee")
		return tx.DefaultFee(t), nil
	}
	return tx.ResolveFee(t, nodeCfg.Fee), nil
}

// ── send ────────────────────────────────────────────────────────────────

func (c *cli) cmdWalletSend(ctx context.Context, args []string) error {
	fs := c.flagSet("wallet send")
	sf := addSignFlags(fs, true)
	vendor := fs.String("vendor", "", "Public memo, at most 64 bytes")
	if err := parse(fs, args, 2, "wallet send [--fee ARK] [--vendor text] [--second] [--ledger N] <address> <amount>"); err != nil {
		return err
	}
	recipient := fs.Arg(0)
	if err := crypto.ValidateAddress(recipient, c.def.Version); err != nil {
		return fmt.Errorf("%s is not a %s address: %w", recipient, c.def.Name, err)
	}
	amount, err := wallet.ParseAmount(fs.Arg(1))
	if err != nil {
		return err
	}

	s, err := c.sender(sf)
	if err != nil {
		return err
	}
	if _, err := c.connect(ctx); err != nil {
		return err
	}
	b := tx.NewTransfer(c.def.Version, recipient, amount, *vendor)
	return c.submit(ctx, tx.TypeTransfer, b, s, sf)
}

// ── vote / unvote ───────────────────────────────────────────────────────

// votes returns the current votes of address; unknown wallets have none.
func (c *cli) votes(ctx context.Context, address string) ([]chain.Delegate, error) {
	votes, err := c.reader.Votes(ctx, address)
	if errors.Is(err, chain.ErrNotFound) {
		return nil, nil
	}
	return votes, err
}

func (c *cli) cmdWalletVote(ctx context.Context, args []string) error {
	fs := c.flagSet("wallet vote")
	sf := addSignFlags(fs, true)
	if err := parse(fs, args, 1, "wallet vote [--fee ARK] [--second] [--ledger N] <username|address|publicKey>"); err != nil {
		return err
	}

	s, err := c.sender(sf)
	if err != nil {
		return err
	}
	if _, err := c.connect(ctx); err != nil {
		return err
	}
	delegate, err := c.reader.Delegate(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	current, err := c.votes(ctx, s.account.Address)
	if err != nil {
		return err
	}
	if len(current) > 0 {
		if current[0].PublicKey == delegate.PublicKey {
			return fmt.Errorf("already voting for %s", delegate.Username)
		}
		return fmt.Errorf("already voting for %s, unvote first", current[0].Username)
	}

	b := tx.NewVote(c.def.Version, "+"+delegate.PublicKey)
	return c.submit(ctx, tx.TypeVote, b, s, sf)
}

func (c *cli) cmdWalletUnvote(ctx context.Context, args []string) error {
	fs := c.flagSet("wallet unvote")
	sf := addSignFlags(fs, true)
	if err := parse(fs, args, 0, "wallet unvote [--fee ARK] [--second] [--ledger N]"); err != nil {
		return err
	}

	s, err := c.sender(sf)
	if err != nil {
		return err
	}
	if _, err := c.connect(ctx); err != nil {
		return err
	}
	current, err := c.votes(ctx, s.account.Address)
	if err != nil {
		return err
	}
	if len(current) == 0 {
		return fmt.Errorf("%s has no vote to remove", s.account.Address)
	}

	b := tx.NewVote(c.def.Version, "-"+current[0].PublicKey)
	return c.submit(ctx, tx.TypeVote, b, s, sf)
}

// ── delegate ────────────────────────────────────────────────────────────

func (c *cli) cmdWalletDelegate(ctx context.Context, args []string) error {
	fs := c.flagSet("wallet delegate")
	sf := addSignFlags(fs, true)
	if err := parse(fs, args, 1, "wallet delegate [--fee ARK] [--second] [--ledger N] <username>"); err != nil {
		return err
	}
	username := fs.Arg(0)
	if err := tx.ValidateUsername(username); err != nil {
		return err
	}

	s, err := c.sender(sf)
	if err != nil {
		return err
	}
	if _, err := c.connect(ctx); err != nil {
		return err
	}
	if _, err := c.reader.Delegate(ctx, username); err == nil {
		return fmt.Errorf("username %q is already registered", username)
	} else if !errors.Is(err, chain.ErrNotFound) {
		return err
	}
	w, err := c.reader.Wallet(ctx, s.account.Address)
	if err != nil && !errors.Is(err, chain.ErrNotFound) {
		return err
	}
	if w != nil && w.Username != "" {
		return fmt.Errorf("%s is already registered as delegate %s", s.account.Address, w.Username)
	}

	b := tx.NewDelegateRegistration(c.def.Version, username)
	return c.submit(ctx, tx.TypeDelegateRegistration, b, s, sf)
}

// ── second passphrase ───────────────────────────────────────────────────

func (c *cli) cmdWalletSecondPassphrase(ctx context.Context, args []string) error {
	fs := c.flagSet("wallet second-passphrase")
	sf := addSignFlags(fs, false)
	if err := parse(fs, args, 0, "wallet second-passphrase [--fee ARK] [--ledger N]"); err != nil {
		return err
	}

	s, err := c.sender(sf)
	if err != nil {
		return err
	}
	second, err := c.passphrase("New second passphrase: ")
	if err != nil {
		return err
	}
	repeat, err := c.passphrase("Repeat second passphrase: ")
	if err != nil {
		return err
	}
	if second != repeat {
		return fmt.Errorf("second passphrases do not match")
	}
	key, err := crypto.PrivateKeyFromPassphrase(second)
	if err != nil {
		return err
	}
	secondPub := key.PublicKey()
	key.Zero()

	if _, err := c.connect(ctx); err != nil {
		return err
	}
	w, err := c.reader.Wallet(ctx, s.account.Address)
	if err != nil && !errors.Is(err, chain.ErrNotFound) {
		return err
	}
	if w != nil && w.SecondPublicKey != "" {
		return fmt.Errorf("%s already has a second passphrase", s.account.Address)
	}

	b := tx.NewSecondSignature(c.def.Version, secondPub)
	return c.submit(ctx, tx.TypeSecondSignature, b, s, sf)
}
