package main

import (
	"crypto/rand"
	"fmt"

	"github.com/eigerco/sigclaim/internal/crypto/ed25519"
)

func runKeygen(args []string) error {
	fs := newFlagSet("keygen")
	out := fs.String("out", "", "file to write the hex seed to")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "out"); err != nil {
		return err
	}

	kp, err := ed25519.GenerateKeypair(rand.Reader)
	if err != nil {
		return err
	}
	if err := ed25519.SaveKeypair(*out, kp); err != nil {
		return err
	}
	fmt.Println(kp.Public)
	return nil
}
