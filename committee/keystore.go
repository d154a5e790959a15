package committee

import (
	"go.dedis.ch/cothority/v3"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/protobuf"
	"go.etcd.io/bbolt"
	"golang.org/x/xerrors"
)

var keyBucket = []byte("committee-keys")

// keyRecord is the stored form of one member's key material.
type keyRecord struct {
	Alias       string
	ID          string
	CommSecret  []byte
	SecretShare []byte
	PublicKey   []byte
	ElectionKey []byte
}

// Store is a durable keystore for committee key material, one record per
// identity. It follows the single-writer/multiple-reader discipline: the
// operator writes the material once after generation, decryption-time
// processes only read.
type Store struct {
	db *bbolt.DB
}

// OpenStore opens (or creates) the keystore database at path.
func OpenStore(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, xerrors.Errorf("opening keystore: %v", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(keyBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, xerrors.Errorf("creating bucket: %v", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores one member's key material, overwriting any previous record
// for the same identity.
func (s *Store) Put(km KeyMaterial) error {
	rec, err := newKeyRecord(km)
	if err != nil {
		return err
	}
	buf, err := protobuf.Encode(rec)
	if err != nil {
		return xerrors.Errorf("encoding key record: %v", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(keyBucket).Put([]byte(km.ID), buf)
	})
}

// Get loads the key material stored for the given identity.
func (s *Store) Get(id string) (*KeyMaterial, error) {
	var buf []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(keyBucket).Get([]byte(id))
		if v == nil {
			return xerrors.Errorf("no key material for identity %s", id)
		}
		buf = append(buf, v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	rec := &keyRecord{}
	if err := protobuf.Decode(buf, rec); err != nil {
		return nil, xerrors.Errorf("decoding key record: %v", err)
	}
	return rec.keyMaterial()
}

// List returns the stored identities in byte order.
func (s *Store) List() ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(keyBucket).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// MemberPublicKeys returns the member public key of every stored record.
func (s *Store) MemberPublicKeys() ([]kyber.Point, error) {
	ids, err := s.List()
	if err != nil {
		return nil, err
	}
	publics := make([]kyber.Point, len(ids))
	for i, id := range ids {
		km, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		publics[i] = km.PublicKey
	}
	return publics, nil
}

func newKeyRecord(km KeyMaterial) (*keyRecord, error) {
	comm, err := km.Communication.Secret.MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("marshalling communication key: %v", err)
	}
	secret, err := km.SecretShare.MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("marshalling secret share: %v", err)
	}
	public, err := km.PublicKey.MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("marshalling public key: %v", err)
	}
	election, err := km.ElectionKey.MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("marshalling election key: %v", err)
	}
	return &keyRecord{
		Alias:       km.Alias,
		ID:          km.ID,
		CommSecret:  comm,
		SecretShare: secret,
		PublicKey:   public,
		ElectionKey: election,
	}, nil
}

func (rec *keyRecord) keyMaterial() (*KeyMaterial, error) {
	commSecret := cothority.Suite.Scalar().SetBytes(rec.CommSecret)
	secret := cothority.Suite.Scalar().SetBytes(rec.SecretShare)
	public := cothority.Suite.Point()
	if err := public.UnmarshalBinary(rec.PublicKey); err != nil {
		return nil, xerrors.Errorf("unmarshalling public key: %v", err)
	}
	election := cothority.Suite.Point()
	if err := election.UnmarshalBinary(rec.ElectionKey); err != nil {
		return nil, xerrors.Errorf("unmarshalling election key: %v", err)
	}
	return &KeyMaterial{
		Alias: rec.Alias,
		ID:    rec.ID,
		Communication: CommunicationKeyPair{
			Secret: commSecret,
			Public: publicOf(commSecret),
		},
		SecretShare: secret,
		PublicKey:   public,
		ElectionKey: election,
	}, nil
}
