package store

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"strings"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"

	"github.com/sheikhrachel/go-life/model"
)

// LatestSnapshot is the name the game loop saves every generation under
const LatestSnapshot = "latest"

var (
	snapshotBucket = []byte("snapshots")
	configBucket   = []byte("config")
	configSSHKey   = []byte("ssh-private-key")

	ErrNoSnapshot = errors.New("no snapshot stored")
)

// Database stores board snapshots and the spectator server's host key
type Database struct {
	*bolt.DB
}

// Snapshot is a board together with the generation it was taken at
type Snapshot struct {
	Generation int
	Board      *model.Board
}

type snapshotRecord struct {
	Generation int       `json:"generation"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Rows       []string  `json:"rows"`
	SavedAt    time.Time `json:"saved_at"`
}

// NewDatabase opens (or creates) the bolt file at loc. When reset is set all
// stored snapshots are dropped.
func NewDatabase(loc string, reset bool) (*Database, error) {
	b, err := bolt.Open(loc, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "[NewDatabase] failed to open database: %+v", loc)
	}
	db := &Database{DB: b}
	if reset {
		err = db.Update(func(tx *bolt.Tx) error {
			if err := tx.DeleteBucket(snapshotBucket); err != nil && err != bolt.ErrBucketNotFound {
				return err
			}
			return nil
		})
		if err != nil {
			b.Close()
			return nil, errors.Wrap(err, "[NewDatabase] failed to reset snapshots")
		}
	}
	return db, nil
}

// SaveSnapshot stores s under name, replacing any earlier snapshot
func (db *Database) SaveSnapshot(name string, s Snapshot) error {
	rec := snapshotRecord{
		Generation: s.Generation,
		Width:      s.Board.GetWidth(),
		Height:     s.Board.GetHeight(),
		Rows:       splitRows(s.Board.String()),
		SavedAt:    time.Now().UTC(),
	}
	val, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrapf(err, "[SaveSnapshot] failed to marshal snapshot: %+v", name)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(snapshotBucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(name), val)
	})
	if err != nil {
		return errors.Wrapf(err, "[SaveSnapshot] failed to save snapshot: %+v", name)
	}
	return nil
}

// LoadSnapshot returns the snapshot stored under name or ErrNoSnapshot
func (db *Database) LoadSnapshot(name string) (Snapshot, error) {
	var rec snapshotRecord
	found := false
	err := db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(snapshotBucket)
		if bucket == nil {
			return nil
		}
		val := bucket.Get([]byte(name))
		if val == nil {
			return nil
		}
		found = true
		return json.Unmarshal(val, &rec)
	})
	if err != nil {
		return Snapshot{}, errors.Wrapf(err, "[LoadSnapshot] failed to load snapshot: %+v", name)
	}
	if !found {
		return Snapshot{}, errors.Wrapf(ErrNoSnapshot, "[LoadSnapshot] %s", name)
	}

	rows := make([][]bool, len(rec.Rows))
	for y, line := range rec.Rows {
		rows[y] = make([]bool, len(line))
		for x := 0; x < len(line); x++ {
			rows[y][x] = line[x] == '1'
		}
	}
	board, err := model.NewBoardFromRows(rows)
	if err != nil {
		return Snapshot{}, errors.Wrapf(err, "[LoadSnapshot] corrupt snapshot: %+v", name)
	}
	if board.GetWidth() != rec.Width || board.GetHeight() != rec.Height {
		return Snapshot{}, errors.Errorf("[LoadSnapshot] snapshot %s is %dx%d, header says %dx%d",
			name, board.GetWidth(), board.GetHeight(), rec.Width, rec.Height)
	}
	return Snapshot{Generation: rec.Generation, Board: board}, nil
}

// HostKey returns the spectator server's private key, generating and
// storing one the first time it is asked for
func (db *Database) HostKey() (ssh.Signer, error) {
	var key []byte
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(configBucket)
		if b == nil {
			return nil
		}
		if v := b.Get(configSSHKey); v != nil {
			key = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "[HostKey] failed to read host key")
	}
	if key != nil {
		if signer, err := ssh.ParsePrivateKey(key); err == nil {
			return signer, nil
		}
	}

	key, err = GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, errors.Wrap(err, "[HostKey] failed to parse generated key")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(configBucket)
		if err != nil {
			return err
		}
		return b.Put(configSSHKey, key)
	})
	if err != nil {
		return nil, errors.Wrap(err, "[HostKey] failed to store host key")
	}
	return signer, nil
}

// GeneratePrivateKey creates a PEM encoded ECDSA P-256 key
func GeneratePrivateKey() ([]byte, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "[GeneratePrivateKey] failed to generate key")
	}
	ec, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		return nil, errors.Wrap(err, "[GeneratePrivateKey] failed to marshal ECDSA private key")
	}
	return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: ec}), nil
}

func splitRows(text string) []string {
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
