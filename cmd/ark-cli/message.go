package main

import (
	"errors"

	"github.com/ArkEcosystemArchive/ark-cli/pkg/crypto"
)

// errBadSignature makes "message verify" exit non-zero on a mismatch.
var errBadSignature = errors.New("signature does not match")

// ── message ─────────────────────────────────────────────────────────────

func (c *cli) cmdMessage(args []string) error {
	sub, rest, err := subcommand("message", args)
	if err != nil {
		return err
	}
	switch sub {
	case "sign":
		return c.cmdMessageSign(rest)
	case "verify":
		return c.cmdMessageVerify(rest)
	default:
		return usageError("unknown message subcommand %q", sub)
	}
}

func (c *cli) cmdMessageSign(args []string) error {
	fs := c.flagSet("message sign")
	if err := parse(fs, args, 1, "message sign <message>"); err != nil {
		return err
	}
	passphrase, err := c.passphrase("Passphrase: ")
	if err != nil {
		return err
	}
	signed, err := crypto.SignMessage(fs.Arg(0), passphrase, c.def.Version)
	if err != nil {
		return err
	}
	return c.out.result(signed, []field{
		{"Message", signed.Message},
		{"Address", signed.Address},
		{"Public key", signed.PublicKey},
		{"Signature", signed.Signature},
	})
}

type verification struct {
	Message   string `json:"message"`
	PublicKey string `json:"publickey"`
	Signature string `json:"signature"`
	Valid     bool   `json:"valid"`
}

func (c *cli) cmdMessageVerify(args []string) error {
	fs := c.flagSet("message verify")
	if err := parse(fs, args, 3, "message verify <message> <signature> <publicKey>"); err != nil {
		return err
	}
	v := verification{Message: fs.Arg(0), Signature: fs.Arg(1), PublicKey: fs.Arg(2)}
	ok, err := crypto.VerifyMessage(v.Message, v.Signature, v.PublicKey)
	if err != nil {
		return err
	}
	v.Valid = ok

	if c.out.json {
		if err := c.out.encode(v); err != nil {
			return err
		}
	} else if ok {
		c.out.notice(true, "Signature is valid")
	}
	if !ok {
		return errBadSignature
	}
	return nil
}
