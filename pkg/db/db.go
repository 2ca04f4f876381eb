package db

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

// DB is a thin wrapper around a Bolt database. It centralizes functions
// which interact with the database.
type DB struct {
	DB *bbolt.DB

	err  error
	once sync.Once
}

func (d *DB) init() error {
	d.once.Do(d._init)
	return d.err
}

var (
	bFiles = []byte("files")
	bStats = []byte("stats")

	buckets = [...][]byte{
		bFiles,
		bStats,
	}
)

// kTimeoutsTotal is the bStats key counting how many distinct uploads
// have ever needed the diff engine's deadline-breach path, across the
// lifetime of the database.
var kTimeoutsTotal = []byte("timeouts_total")

func (d *DB) _init() {
	err := d.DB.Update(func(tx *bbolt.Tx) error {
		for _, buck := range buckets {
			_, err := tx.CreateBucketIfNotExists(buck)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		d.err = fmt.Errorf("initialization error: %w", err)
	}
}

// File
// -----------------------------------------------------------------------------

// File represents an uploaded file pair, as rendered by pkg/diff.
type File struct {
	CreatedAt time.Time `json:"created_at"`
	Sum       string    `json:"sum"`
	// DefaultIgnoreWhitespace is the uploader's chosen default for the
	// "w" query parameter: when true, a viewer who hasn't explicitly
	// picked a whitespace mode sees the diff with IgnoreTrimWhitespace
	// already applied, instead of always defaulting to off.
	DefaultIgnoreWhitespace bool `json:"default_ignore_ws,omitempty"`
	// HitTimeout records whether computing this diff has ever hit
	// pkg/diff's deadline-breach path. It is set the first time that
	// happens and never cleared, so a once-too-large diff keeps
	// warning viewers even if the server later has spare budget.
	HitTimeout bool `json:"hit_timeout,omitempty"`
}

func (f File) IsZero() bool {
	return f.Sum == ""
}

func (d *DB) HasFile(name string) (bool, error) {
	if err := d.init(); err != nil {
		return false, err
	}

	var has bool
	err := d.DB.View(func(tx *bbolt.Tx) error {
		has = tx.Bucket(bFiles).Get([]byte(name)) != nil
		return nil
	})
	return has, err
}

func (d *DB) PutFile(name string, f File) error {
	if err := d.init(); err != nil {
		return err
	}

	encoded, err := json.Marshal(f)
	if err != nil {
		return err
	}

	return d.DB.Batch(func(tx *bbolt.Tx) error {
		return tx.Bucket(bFiles).Put([]byte(name), encoded)
	})
}

func (d *DB) GetFile(name string) (File, error) {
	if err := d.init(); err != nil {
		return File{}, err
	}

	var buf []byte
	err := d.DB.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bFiles).Get([]byte(name))
		buf = append(buf, data...)
		return nil
	})
	if err != nil || len(buf) == 0 {
		return File{}, err
	}

	var f File
	err = json.Unmarshal(buf, &f)
	return f, err
}

// MarkTimedOut records that computing name's diff hit pkg/diff's
// deadline-breach path at least once. It is idempotent: a file already
// marked is left untouched and newlyMarked is false. Returns
// (false, nil) for an id with no stored file, since there is nothing
// to flag.
func (d *DB) MarkTimedOut(name string) (newlyMarked bool, err error) {
	if err := d.init(); err != nil {
		return false, err
	}

	err = d.DB.Batch(func(tx *bbolt.Tx) error {
		fb := tx.Bucket(bFiles)
		data := fb.Get([]byte(name))
		if len(data) == 0 {
			return nil
		}

		var f File
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		if f.HitTimeout {
			return nil
		}
		f.HitTimeout = true

		encoded, err := json.Marshal(f)
		if err != nil {
			return err
		}
		if err := fb.Put([]byte(name), encoded); err != nil {
			return err
		}

		sb := tx.Bucket(bStats)
		total := decodeUint64(sb.Get(kTimeoutsTotal)) + 1
		newlyMarked = true
		return sb.Put(kTimeoutsTotal, encodeUint64(total))
	})
	return newlyMarked, err
}

// TimeoutsTotal returns the number of distinct uploads that have ever
// hit pkg/diff's deadline-breach path, across the database's lifetime.
func (d *DB) TimeoutsTotal() (uint64, error) {
	if err := d.init(); err != nil {
		return 0, err
	}

	var total uint64
	err := d.DB.View(func(tx *bbolt.Tx) error {
		total = decodeUint64(tx.Bucket(bStats).Get(kTimeoutsTotal))
		return nil
	})
	return total, err
}

func encodeUint64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func decodeUint64(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// UsageStat
// -----------------------------------------------------------------------------

type UsageStat struct {
	Period   string `json:"p"`
	NumBytes uint64 `json:"nb"`
	NumCalls uint64 `json:"nc"`
}

type UploadLimits struct {
	MaxBytes uint64
	MaxCalls uint64
}

var ErrLimitsExceeded = errors.New("limits exceeded")

// AddAmountsAndCompare increases the stats for name, and ensures that the
// updated stats are within the given limits. If the limits are exceeded,
// [ErrLimitsExceeded] is returned.
func (d *DB) AddAmountsAndCompare(name string, deltaStat UsageStat, limits UploadLimits) error {
	if err := d.init(); err != nil {
		return err
	}
	err := d.DB.Batch(func(tx *bbolt.Tx) error {
		// get the current value of stat, if any.
		bk := tx.Bucket(bStats)
		val := bk.Get([]byte(name))
		var stat UsageStat
		if len(val) != 0 {
			if err := json.Unmarshal(val, &stat); err != nil {
				return err
			}
		}

		// increase the values in stat.
		if stat.Period == deltaStat.Period {
			stat.NumCalls += deltaStat.NumCalls
			stat.NumBytes += deltaStat.NumBytes
		} else {
			// if the period switched, use the new deltaStat directly.
			stat = deltaStat
		}

		// if the values exceed the limits, retujrn an error.
		if stat.NumBytes > limits.MaxBytes ||
			stat.NumCalls > limits.MaxCalls {
			return ErrLimitsExceeded
		}

		// set the new stats.
		res, err := json.Marshal(stat)
		if err != nil {
			return err
		}
		return bk.Put([]byte(name), res)
	})
	return err
}
