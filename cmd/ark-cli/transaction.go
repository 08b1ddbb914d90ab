package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ArkEcosystemArchive/ark-cli/internal/chain"
	"github.com/ArkEcosystemArchive/ark-cli/internal/wallet"
	"github.com/ArkEcosystemArchive/ark-cli/pkg/tx"
)

// ── transaction ─────────────────────────────────────────────────────────

func (c *cli) cmdTransaction(ctx context.Context, args []string) error {
	sub, rest, err := subcommand("transaction", args)
	if err != nil {
		return err
	}
	if sub != "status" {
		return usageError("unknown transaction subcommand %q", sub)
	}

	fs := c.flagSet("transaction status")
	if err := parse(fs, rest, 1, "transaction status <id>"); err != nil {
		return err
	}
	id := fs.Arg(0)
	if len(id) != 64 || !chain.IsHex(id) {
		return fmt.Errorf("%q is not a transaction id", id)
	}

	if _, err := c.connect(ctx); err != nil {
		return err
	}
	t, err := c.reader.Transaction(ctx, id)
	if err != nil {
		return err
	}

	fields := []field{
		{"Transaction", t.ID},
		{"Type", tx.Type(t.Type).String()},
		{"Sender", t.Sender},
	}
	if t.Recipient != "" {
		fields = append(fields, field{"Recipient", t.Recipient})
	}
	fields = append(fields,
		field{"Amount", wallet.FormatAmount(t.Amount) + " " + c.def.Symbol},
		field{"Fee", wallet.FormatAmount(t.Fee) + " " + c.def.Symbol},
		field{"Time", tx.Epoch.Add(time.Duration(t.Timestamp) * time.Second).Format("2006-01-02 15:04:05 UTC")},
		field{"Confirmations", strconv.FormatUint(t.Confirmations, 10)},
	)
	if t.VendorField != "" {
		fields = append(fields, field{"Vendor field", t.VendorField})
	}
	if t.BlockID != "" {
		fields = append(fields, field{"Block", t.BlockID})
	}
	return c.out.result(t, fields)
}
