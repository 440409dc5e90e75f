package blueprint

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"aiken/internal/uplc"
)

// HashSize is the script digest length in bytes (blake2b-224).
const HashSize = 28

// languageTag returns the ledger's language prefix byte for hashing.
func languageTag(plutusVersion string) (byte, error) {
	switch plutusVersion {
	case "v1":
		return 0x01, nil
	case "v2":
		return 0x02, nil
	case "v3":
		return 0x03, nil
	}
	return 0, fmt.Errorf("blueprint: unknown plutus version %q", plutusVersion)
}

// ScriptHash computes blake2b-224 over the language tag byte followed by
// the serialized script, i.e. the compiledCode bytes as they appear in a
// transaction witness.
func ScriptHash(plutusVersion string, compiledCode []byte) ([]byte, error) {
	tag, err := languageTag(plutusVersion)
	if err != nil {
		return nil, err
	}
	h, err := blake2b.New(HashSize, nil)
	if err != nil {
		return nil, fmt.Errorf("blueprint: init blake2b: %w", err)
	}
	h.Write([]byte{tag})
	h.Write(compiledCode)
	return h.Sum(nil), nil
}

// Address derives the enterprise (no stake part) payment address locking
// funds to the script, as bech32. Network is mainnet, preprod or
// preview; everything but mainnet uses the test header bit and the
// addr_test prefix.
func Address(network string, scriptHash []byte) (string, error) {
	if len(scriptHash) != HashSize {
		return "", fmt.Errorf("blueprint: script hash must be %d bytes, got %d", HashSize, len(scriptHash))
	}
	var netBit byte
	hrp := "addr_test"
	switch network {
	case "mainnet":
		netBit = 1
		hrp = "addr"
	case "preprod", "preview":
		netBit = 0
	default:
		return "", fmt.Errorf("blueprint: unknown network %q", network)
	}

	// Header nibble 0111: payment credential is a script, no delegation.
	payload := make([]byte, 0, 1+HashSize)
	payload = append(payload, 0x70|netBit)
	payload = append(payload, scriptHash...)

	grouped, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("blueprint: regroup address bits: %w", err)
	}
	addr, err := bech32.Encode(hrp, grouped)
	if err != nil {
		return "", fmt.Errorf("blueprint: bech32 encode: %w", err)
	}
	return addr, nil
}

// PolicyID returns the minting policy identifier for the validator,
// which is its script hash in hex.
func PolicyID(plutusVersion string, compiledCode []byte) (string, error) {
	digest, err := ScriptHash(plutusVersion, compiledCode)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(digest), nil
}

// Envelope is the cardano-cli text envelope produced by Convert.
type Envelope struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	CborHex     string `json:"cborHex"`
}

// Convert wraps a validator's compiled code into the cardano-cli text
// envelope format. The envelope's cborHex carries the script bytes
// wrapped in one more CBOR byte string, per the cli's convention.
func Convert(plutusVersion string, v *Validator) (*Envelope, error) {
	code, err := hex.DecodeString(v.CompiledCode)
	if err != nil {
		return nil, fmt.Errorf("blueprint: decode compiledCode of %q: %w", v.Title, err)
	}
	wrapped, err := cbor.Marshal(code)
	if err != nil {
		return nil, fmt.Errorf("blueprint: cbor wrap: %w", err)
	}
	var typ string
	switch plutusVersion {
	case "v1":
		typ = "PlutusScriptV1"
	case "v2":
		typ = "PlutusScriptV2"
	case "v3":
		typ = "PlutusScriptV3"
	default:
		return nil, fmt.Errorf("blueprint: unknown plutus version %q", plutusVersion)
	}
	return &Envelope{
		Type:        typ,
		Description: v.Title,
		CborHex:     hex.EncodeToString(wrapped),
	}, nil
}

// ApplyParameter applies one Plutus-data parameter (CBOR bytes) to the
// validator in place: the flat program is unwrapped from its CBOR byte
// string, the data constant is spliced as an application around the
// body, and code, hash and the consumed parameter slot are updated.
func (b *Blueprint) ApplyParameter(v *Validator, dataCBOR []byte) error {
	if len(v.Parameters) == 0 {
		return fmt.Errorf("blueprint: validator %q takes no parameters", v.Title)
	}
	code, err := hex.DecodeString(v.CompiledCode)
	if err != nil {
		return fmt.Errorf("blueprint: decode compiledCode of %q: %w", v.Title, err)
	}
	var flat []byte
	if err := cbor.Unmarshal(code, &flat); err != nil {
		return fmt.Errorf("blueprint: unwrap script of %q: %w", v.Title, err)
	}
	prog, err := uplc.Parse(flat)
	if err != nil {
		return fmt.Errorf("blueprint: %q: %w", v.Title, err)
	}
	applied, err := prog.ApplyData(dataCBOR)
	if err != nil {
		return fmt.Errorf("blueprint: %q: %w", v.Title, err)
	}
	encoded, err := applied.Encode()
	if err != nil {
		return fmt.Errorf("blueprint: %q: %w", v.Title, err)
	}
	rewrapped, err := cbor.Marshal(encoded)
	if err != nil {
		return fmt.Errorf("blueprint: rewrap script of %q: %w", v.Title, err)
	}
	digest, err := ScriptHash(b.Preamble.PlutusVersion, rewrapped)
	if err != nil {
		return err
	}
	v.CompiledCode = hex.EncodeToString(rewrapped)
	v.Hash = hex.EncodeToString(digest)
	v.Parameters = v.Parameters[1:]
	if len(v.Parameters) == 0 {
		v.Parameters = nil
	}
	return nil
}
