// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/elastic/gosigar"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/computemarket/capstake/config"
	"github.com/computemarket/capstake/eventdb"
	"github.com/computemarket/capstake/kv"
	"github.com/computemarket/capstake/lvldb"
)

const (
	metaBucket = kv.Bucket("m")

	stateDirName = "state"
	eventsDBName = "events.db"
)

var (
	headKey   = []byte("head")
	paramsKey = []byte("params")
)

// dataDir holds the databases of one ledger instance.
type dataDir struct {
	path   string
	db     *lvldb.LevelDB
	events *eventdb.EventDB
}

func openDataDir(path string, cacheMB int) (*dataDir, error) {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create data dir [%v]", path)
	}
	db, err := lvldb.New(filepath.Join(path, stateDirName), lvldb.Options{
		CacheSize:              normalizeCacheSize(cacheMB),
		OpenFilesCacheCapacity: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open state db")
	}
	events, err := eventdb.New(filepath.Join(path, eventsDBName))
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "open event db")
	}
	return &dataDir{path: path, db: db, events: events}, nil
}

func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 16 {
		sizeMB = 16
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		logger.Warn("failed to get total mem", "err", err)
	} else {
		// limit to 1/2 os physical ram
		limitMB := int(mem.Total / 1024 / 1024 / 2)
		if sizeMB > limitMB {
			sizeMB = limitMB
			logger.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

func (d *dataDir) Close() {
	if err := d.events.Close(); err != nil {
		logger.Warn("failed to close event db", "error", err)
	}
	if err := d.db.Close(); err != nil {
		logger.Warn("failed to close state db", "error", err)
	}
}

// head returns the height the last applied step ran at.
func (d *dataDir) head() (uint32, error) {
	data, err := metaBucket.NewGetter(d.db).Get(headKey)
	if err != nil {
		if d.db.IsNotFound(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "get head")
	}
	if len(data) != 4 {
		return 0, errors.Errorf("corrupted head, %d bytes", len(data))
	}
	return binary.BigEndian.Uint32(data), nil
}

func (d *dataDir) setHead(height uint32) error {
	var data [4]byte
	binary.BigEndian.PutUint32(data[:], height)
	return errors.Wrap(metaBucket.NewPutter(d.db).Put(headKey, data[:]), "put head")
}

// params returns the stored parameters. When a file is given on first use it is
// validated and stored. Later runs must pass the same parameters or none.
func (d *dataDir) params(file string) (*config.Params, error) {
	getter := metaBucket.NewGetter(d.db)
	stored, err := getter.Get(paramsKey)
	if err != nil && !d.db.IsNotFound(err) {
		return nil, errors.Wrap(err, "get params")
	}

	if file == "" {
		if stored == nil {
			return nil, errors.Errorf("data dir [%v] has no params, pass --%s", d.path, paramsFlag.Name)
		}
		return config.Parse(stored)
	}

	p, err := config.Load(file)
	if err != nil {
		return nil, err
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(err, "encode params")
	}
	if stored != nil {
		if string(stored) != string(data) {
			return nil, errors.Errorf("params in [%v] differ from the ones the data dir was created with", file)
		}
		return p, nil
	}
	if err := metaBucket.NewPutter(d.db).Put(paramsKey, data); err != nil {
		return nil, errors.Wrap(err, "put params")
	}
	return p, nil
}
