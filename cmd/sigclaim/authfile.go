package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/sigverify"
)

// authorization is the file a distributor hands to a claimant: the encoded
// claim message and one or more signatures over it.
type authorization struct {
	Message    string           `yaml:"message"`
	Signatures []signatureEntry `yaml:"signatures"`
}

type signatureEntry struct {
	Key       crypto.PublicKey `yaml:"key"`
	Signature string           `yaml:"signature"`
}

func (a authorization) message() ([]byte, error) {
	return hex.DecodeString(a.Message)
}

func (a authorization) entries() ([]sigverify.Entry, error) {
	entries := make([]sigverify.Entry, 0, len(a.Signatures))
	for _, s := range a.Signatures {
		raw, err := hex.DecodeString(s.Signature)
		if err != nil {
			return nil, fmt.Errorf("signature of %s: %w", s.Key, err)
		}
		if len(raw) != crypto.SignatureSize {
			return nil, fmt.Errorf("signature of %s: invalid length %d", s.Key, len(raw))
		}
		e := sigverify.Entry{PublicKey: s.Key}
		copy(e.Signature[:], raw)
		entries = append(entries, e)
	}
	return entries, nil
}

func writeAuthorization(path string, a authorization) error {
	out, err := yaml.Marshal(a)
	if err != nil {
		return err
	}
	if path == "" || path == "-" {
		_, err = os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

func readAuthorization(path string) (authorization, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return authorization{}, err
	}
	var a authorization
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&a); err != nil {
		return authorization{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return a, nil
}

// mergeAuthorizations combines files signed over the same message, keeping
// the first signature of each key in file order.
func mergeAuthorizations(paths []string) (authorization, error) {
	if len(paths) == 0 {
		return authorization{}, errors.New("no authorization files")
	}
	var merged authorization
	seen := crypto.NewPublicKeySet()
	for i, p := range paths {
		a, err := readAuthorization(p)
		if err != nil {
			return authorization{}, err
		}
		if i == 0 {
			merged.Message = a.Message
		} else if a.Message != merged.Message {
			return authorization{}, fmt.Errorf("%s signs a different message", p)
		}
		for _, s := range a.Signatures {
			if seen.Has(s.Key) {
				continue
			}
			seen.Add(s.Key)
			merged.Signatures = append(merged.Signatures, s)
		}
	}
	return merged, nil
}
