package pasetotoken

import (
	"fmt"
	"strings"

	paseto "aidanwoods.dev/go-paseto"
)

// Mode selects the v4 purpose: local tokens are encrypted, public ones signed.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModePublic Mode = "public"
)

// Keys is the material for one Mode. A verify-only public deployment holds
// Public without Secret.
type Keys struct {
	Mode Mode

	Symmetric *paseto.V4SymmetricKey
	Secret    *paseto.V4AsymmetricSecretKey
	Public    *paseto.V4AsymmetricPublicKey
}

// KeyStrings is the hex key material as written in authentication.paseto.
type KeyStrings struct {
	Mode Mode

	SymmetricHex string
	SecretHex    string
	PublicHex    string
}

func LoadKeys(in KeyStrings) (Keys, error) {
	switch in.Mode {
	case ModeLocal:
		return loadLocal(strings.TrimSpace(in.SymmetricHex))
	case ModePublic:
		return loadPublic(strings.TrimSpace(in.SecretHex), strings.TrimSpace(in.PublicHex))
	default:
		return Keys{}, &ConfigError{Field: "mode", Msg: fmt.Sprintf("%q is neither local nor public", in.Mode)}
	}
}

func loadLocal(hex string) (Keys, error) {
	if hex == "" {
		return Keys{}, &ConfigError{Field: "local_key_hex", Msg: "required in local mode"}
	}
	k, err := paseto.V4SymmetricKeyFromHex(hex)
	if err != nil {
		return Keys{}, &ConfigError{Field: "local_key_hex", Msg: "not a v4 symmetric key", Err: err}
	}
	return Keys{Mode: ModeLocal, Symmetric: &k}, nil
}

// loadPublic derives the public key from the secret when only the secret is
// configured. When both are configured they must form a pair.
func loadPublic(secretHex, publicHex string) (Keys, error) {
	if secretHex == "" && publicHex == "" {
		return Keys{}, &ConfigError{Field: "secret_key_hex", Msg: "secret_key_hex or public_key_hex is required in public mode"}
	}

	out := Keys{Mode: ModePublic}
	if secretHex != "" {
		sk, err := paseto.NewV4AsymmetricSecretKeyFromHex(secretHex)
		if err != nil {
			return Keys{}, &ConfigError{Field: "secret_key_hex", Msg: "not a v4 secret key", Err: err}
		}
		pk := sk.Public()
		out.Secret, out.Public = &sk, &pk
	}
	if publicHex != "" {
		pk, err := paseto.NewV4AsymmetricPublicKeyFromHex(publicHex)
		if err != nil {
			return Keys{}, &ConfigError{Field: "public_key_hex", Msg: "not a v4 public key", Err: err}
		}
		if out.Public != nil && out.Public.ExportHex() != pk.ExportHex() {
			return Keys{}, &ConfigError{Field: "public_key_hex", Msg: "does not match secret_key_hex"}
		}
		out.Public = &pk
	}
	return out, nil
}

// NewLocalKeys generates a random symmetric key.
func NewLocalKeys() Keys {
	k := paseto.NewV4SymmetricKey()
	return Keys{Mode: ModeLocal, Symmetric: &k}
}

// NewPublicKeys generates a random signing pair.
func NewPublicKeys() Keys {
	sk := paseto.NewV4AsymmetricSecretKey()
	pk := sk.Public()
	return Keys{Mode: ModePublic, Secret: &sk, Public: &pk}
}
