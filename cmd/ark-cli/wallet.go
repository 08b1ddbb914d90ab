package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/ArkEcosystemArchive/ark-cli/internal/chain"
	"github.com/ArkEcosystemArchive/ark-cli/internal/log"
	"github.com/ArkEcosystemArchive/ark-cli/internal/wallet"
	"github.com/ArkEcosystemArchive/ark-cli/pkg/crypto"
)

// maxLedgerAccounts bounds the account scan of "wallet ledger".
const maxLedgerAccounts = 20

// ── wallet ──────────────────────────────────────────────────────────────

func (c *cli) cmdWallet(ctx context.Context, args []string) error {
	sub, rest, err := subcommand("wallet", args)
	if err != nil {
		return err
	}
	switch sub {
	case "create":
		return c.cmdWalletCreate(rest)
	case "address":
		return c.cmdWalletAddress(rest)
	case "status":
		return c.cmdWalletStatus(ctx, rest)
	case "send":
		return c.cmdWalletSend(ctx, rest)
	case "vote":
		return c.cmdWalletVote(ctx, rest)
	case "unvote":
		return c.cmdWalletUnvote(ctx, rest)
	case "delegate":
		return c.cmdWalletDelegate(ctx, rest)
	case "second-passphrase":
		return c.cmdWalletSecondPassphrase(ctx, rest)
	case "ledger":
		return c.cmdWalletLedger(ctx, rest)
	default:
		return usageError("unknown wallet subcommand %q", sub)
	}
}

type createdWallet struct {
	Passphrase string `json:"passphrase"`
	wallet.Account
}

func (c *cli) cmdWalletCreate(args []string) error {
	fs := c.flagSet("wallet create")
	if err := parse(fs, args, 0, "wallet create"); err != nil {
		return err
	}

	passphrase, err := wallet.GeneratePassphrase()
	if err != nil {
		return err
	}
	acc, err := c.signer.Derive(passphrase)
	if err != nil {
		return err
	}
	log.Wallet.Info().Str("address", acc.Address).Msg("Created wallet")

	out := createdWallet{Passphrase: passphrase, Account: acc}
	if err := c.out.result(out, []field{
		{"Passphrase", passphrase},
		{"Address", acc.Address},
		{"Public key", acc.PublicKey},
	}); err != nil {
		return err
	}
	c.out.hint("Write the passphrase down. It cannot be recovered.")
	return nil
}

func (c *cli) cmdWalletAddress(args []string) error {
	fs := c.flagSet("wallet address")
	if err := parse(fs, args, 0, "wallet address"); err != nil {
		return err
	}
	passphrase, err := c.passphrase("Passphrase: ")
	if err != nil {
		return err
	}
	acc, err := c.signer.Derive(passphrase)
	if err != nil {
		return err
	}
	return c.out.result(acc, []field{
		{"Address", acc.Address},
		{"Public key", acc.PublicKey},
	})
}

type walletStatus struct {
	chain.Wallet
	Known    bool             `json:"known"`
	Votes    []chain.Delegate `json:"votes"`
	Currency string           `json:"currency,omitempty"`
	Price    float64          `json:"price,omitempty"`
	Value    float64          `json:"value,omitempty"`
}

func (c *cli) cmdWalletStatus(ctx context.Context, args []string) error {
	fs := c.flagSet("wallet status")
	currency := fs.String("currency", "", "Show the balance value in this fiat currency")
	if err := parse(fs, args, 1, "wallet status [--currency USD] <address>"); err != nil {
		return err
	}
	address := fs.Arg(0)
	if err := crypto.ValidateAddress(address, c.def.Version); err != nil {
		return fmt.Errorf("%s is not a %s address: %w", address, c.def.Name, err)
	}

	if _, err := c.connect(ctx); err != nil {
		return err
	}
	status := walletStatus{Wallet: chain.Wallet{Address: address}, Votes: []chain.Delegate{}}
	w, err := c.reader.Wallet(ctx, address)
	switch {
	case err == nil:
		status.Wallet = *w
		status.Known = true
		votes, err := c.reader.Votes(ctx, address)
		if err != nil {
			return err
		}
		if votes != nil {
			status.Votes = votes
		}
	case errors.Is(err, chain.ErrNotFound):
	default:
		return err
	}

	if *currency != "" {
		p, err := c.prices.Price(ctx, "ARK", *currency)
		if err != nil {
			log.Price.Warn().Err(err).Msg("No fiat value")
		} else {
			status.Currency = *currency
			status.Price = p
			status.Value = p * float64(status.Balance) / wallet.ArktoshiPerArk
		}
	}

	fields := []field{
		{"Address", status.Address},
		{"Balance", wallet.FormatAmount(status.Balance) + " " + c.def.Symbol},
	}
	if status.Currency != "" {
		fields = append(fields, field{"Value", fmt.Sprintf("%.2f %s", status.Value, status.Currency)})
	}
	if status.PublicKey != "" {
		fields = append(fields, field{"Public key", status.PublicKey})
	}
	if status.SecondPublicKey != "" {
		fields = append(fields, field{"Second key", status.SecondPublicKey})
	}
	if status.Username != "" {
		fields = append(fields, field{"Delegate", status.Username})
	}
	for _, d := range status.Votes {
		fields = append(fields, field{"Vote", d.Username + " " + d.PublicKey})
	}
	if err := c.out.result(status, fields); err != nil {
		return err
	}
	if !status.Known {
		c.out.hint("This address has no transactions on %s yet.", c.def.Name)
	}
	return nil
}

// ── ledger ──────────────────────────────────────────────────────────────

type ledgerAccount struct {
	wallet.Account
	Balance uint64 `json:"balance"`
	Used    bool   `json:"used"`
}

// cmdWalletLedger lists hardware accounts until the first one the network
// has never seen, which is the next account to use.
func (c *cli) cmdWalletLedger(ctx context.Context, args []string) error {
	fs := c.flagSet("wallet ledger")
	if err := parse(fs, args, 0, "wallet ledger"); err != nil {
		return err
	}
	if !c.ledger.IsSupported() {
		_, err := c.ledger.Account(0)
		return err
	}
	if _, err := c.connect(ctx); err != nil {
		return err
	}

	var accounts []ledgerAccount
	for i := 0; i < maxLedgerAccounts; i++ {
		acc, err := c.ledger.Account(uint32(i))
		if err != nil {
			return err
		}
		entry := ledgerAccount{Account: acc}
		w, err := c.reader.Wallet(ctx, acc.Address)
		if err != nil && !errors.Is(err, chain.ErrNotFound) {
			return err
		}
		if err == nil {
			entry.Used = true
			entry.Balance = w.Balance
		}
		accounts = append(accounts, entry)
		if !entry.Used {
			break
		}
	}

	rows := make([][]string, 0, len(accounts))
	for i, a := range accounts {
		state := "new"
		if a.Used {
			state = wallet.FormatAmount(a.Balance) + " " + c.def.Symbol
		}
		rows = append(rows, []string{strconv.Itoa(i), a.Path, a.Address, state})
	}
	return c.out.table(accounts, []string{"#", "PATH", "ADDRESS", "BALANCE"}, rows)
}

// publicKeyBytes decodes an account's hex public key.
func publicKeyBytes(acc wallet.Account) ([]byte, error) {
	pub, err := hex.DecodeString(acc.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("account public key: %w", err)
	}
	return pub, nil
}
