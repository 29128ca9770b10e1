// sigclaim runs an airdrop node and the client side of off-line claims.
//
//	sigclaim keygen  --out distributor.key
//	sigclaim serve   --config node.yaml
//	sigclaim sign    --key distributor.key --recipient R --mint M --project 1 --nonce 7 --amount 100 --expiry T --out auth.yaml
//	sigclaim claim   --relay 127.0.0.1:7400 --key recipient.key --auth auth.yaml
//	sigclaim inspect message|nullifier|balance ...
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/eigerco/sigclaim/internal/crypto"
)

type command struct {
	name  string
	usage string
	run   func(args []string) error
}

var commands = []command{
	{"keygen", "generate an ed25519 key file", runKeygen},
	{"serve", "bootstrap the ledger and run the relay", runServe},
	{"sign", "sign a claim message as a distributor", runSign},
	{"claim", "submit a claim authorized by distributor signatures", runClaim},
	{"inspect", "decode a claim message or query a relay", runInspect},
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return errors.New("missing command")
	}
	for _, c := range commands {
		if c.name == args[0] {
			return c.run(args[1:])
		}
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage()
		return nil
	}
	printUsage()
	return fmt.Errorf("unknown command %q", args[0])
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: sigclaim <command> [flags]\n\nCommands:")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", c.name, c.usage)
	}
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("sigclaim "+name, pflag.ContinueOnError)
	fs.SortFlags = false
	return fs
}

// keyValue is a hex public key flag.
type keyValue struct {
	key *crypto.PublicKey
}

func newKeyValue(p *crypto.PublicKey) *keyValue {
	return &keyValue{key: p}
}

func (v *keyValue) String() string {
	if v.key == nil || v.key.IsZero() {
		return ""
	}
	return v.key.String()
}

func (v *keyValue) Set(s string) error {
	k, err := crypto.ParsePublicKey(s)
	if err != nil {
		return err
	}
	*v.key = k
	return nil
}

func (v *keyValue) Type() string {
	return "pubkey"
}

func required(fs *pflag.FlagSet, names ...string) error {
	for _, n := range names {
		if !fs.Changed(n) {
			return fmt.Errorf("--%s is required", n)
		}
	}
	return nil
}
