package committee

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/xerrors"
)

// File names of the per-identity key material directory. Each file holds
// a single tagged text line.
const (
	CommunicationKeyFile  = "communication_key.sk"
	MemberSecretKeyFile   = "member_secret_key.sk"
	EncryptingVoteKeyFile = "encrypting_vote_key.pk"
)

// WriteDirectory persists the generated key material under dir, one
// subdirectory per committee identity with the three tagged key files.
func WriteDirectory(dir string, materials []KeyMaterial) error {
	for _, km := range materials {
		sub := filepath.Join(dir, km.ID)
		if err := os.MkdirAll(sub, 0700); err != nil {
			return xerrors.Errorf("creating %s: %v", sub, err)
		}
		comm, err := km.Communication.EncodeText()
		if err != nil {
			return err
		}
		secret, err := km.EncodeSecretShare()
		if err != nil {
			return err
		}
		election, err := km.EncodeElectionKey()
		if err != nil {
			return err
		}
		files := map[string]string{
			CommunicationKeyFile:  comm,
			MemberSecretKeyFile:   secret,
			EncryptingVoteKeyFile: election,
		}
		for name, line := range files {
			path := filepath.Join(sub, name)
			if err := writeKeyFile(path, line); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadDirectory loads one identity's key material back from the layout
// written by WriteDirectory. The alias is not stored on disk and is left
// empty; the member public key is rederived from the secret share.
func ReadDirectory(dir string, id string) (*KeyMaterial, error) {
	sub := filepath.Join(dir, id)

	commLine, err := ReadKeyFile(filepath.Join(sub, CommunicationKeyFile))
	if err != nil {
		return nil, err
	}
	comm, err := DecodeCommunicationKey(commLine)
	if err != nil {
		return nil, xerrors.Errorf("reading %s: %w", CommunicationKeyFile, err)
	}

	secretLine, err := ReadKeyFile(filepath.Join(sub, MemberSecretKeyFile))
	if err != nil {
		return nil, err
	}
	secret, err := DecodeSecretShare(secretLine)
	if err != nil {
		return nil, xerrors.Errorf("reading %s: %w", MemberSecretKeyFile, err)
	}

	electionLine, err := ReadKeyFile(filepath.Join(sub, EncryptingVoteKeyFile))
	if err != nil {
		return nil, err
	}
	election, err := DecodePublicKey(electionLine)
	if err != nil {
		return nil, xerrors.Errorf("reading %s: %w", EncryptingVoteKeyFile, err)
	}

	return &KeyMaterial{
		ID:            id,
		Communication: comm,
		SecretShare:   secret,
		PublicKey:     publicOf(secret),
		ElectionKey:   election,
	}, nil
}

// ReadKeyFile returns the first line of a key file, trimmed.
func ReadKeyFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", xerrors.Errorf("opening key file: %v", err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", xerrors.Errorf("reading %s: %v", path, err)
		}
		return "", xerrors.Errorf("key file %s is empty", path)
	}
	return strings.TrimSpace(scanner.Text()), nil
}

func writeKeyFile(path string, line string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return xerrors.Errorf("creating key file: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		return xerrors.Errorf("writing %s: %v", path, err)
	}
	return nil
}
