// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/elastic/gosigar"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/brcdchain/brcd/brc"
	"github.com/brcdchain/brcd/lvldb"
)

var logger = log.New("pkg", "state")

// minAvailableSpace is the least free disk space (in bytes) required at the
// database path. Open failures with less free space than this are classified
// as NotEnoughAvailableSpace rather than a lock conflict.
const minAvailableSpace = 1024

// OpenDB opens the persistent state database under basePath.
//
// The database lives at <base>/<hex(genesisHash[0:4])>/<schema version>/state/.
// When killExisting is set, the state/ subdirectory under the base path is
// wiped first. On open failure, insufficient disk space raises
// ErrNotEnoughAvailableSpace; everything else is attributed to another
// running instance holding the lock and raises ErrDatabaseAlreadyOpen.
func OpenDB(basePath string, genesisHash brc.Bytes32, killExisting bool, opts lvldb.Options) (*lvldb.LevelDB, error) {
	if killExisting {
		logger.Debug("killing state database")
		if err := os.RemoveAll(filepath.Join(basePath, "state")); err != nil {
			return nil, errors.Wrap(err, "state.OpenDB()")
		}
	}

	path := filepath.Join(
		basePath,
		hex.EncodeToString(genesisHash[:4]),
		fmt.Sprintf("%d", brc.DatabaseVersion),
	)
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, errors.Wrap(err, "state.OpenDB()")
	}

	db, err := lvldb.New(filepath.Join(path, "state"), opts)
	if err != nil {
		var usage gosigar.FileSystemUsage
		if usageErr := usage.Get(path); usageErr == nil && usage.Avail < minAvailableSpace {
			logger.Warn("not enough available space on hard drive", "path", path, "avail", usage.Avail)
			return nil, errors.WithMessage(ErrNotEnoughAvailableSpace, "state.OpenDB()")
		}
		logger.Warn("state database appears to be open by another instance", "path", path, "err", err)
		return nil, errors.WithMessage(ErrDatabaseAlreadyOpen, "state.OpenDB()")
	}
	logger.Debug("opened state database", "path", path)
	return db, nil
}
