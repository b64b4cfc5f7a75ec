// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

// create a table for ledger events
const eventTableSchema = `
create table if not exists event (
	seq integer primary key autoincrement,
	kind text not null,
	height integer not null,
	epoch integer not null,
	pool integer not null,
	account blob(20),
	peer blob(20),
	commitment integer not null,
	amount blob
);

CREATE INDEX if not exists heightIndex on event(height);
CREATE INDEX if not exists kindIndex on event(kind);
CREATE INDEX if not exists accountIndex on event(account);
CREATE INDEX if not exists peerIndex on event(peer);
CREATE INDEX if not exists commitmentIndex on event(commitment);
`
