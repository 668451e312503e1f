// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import (
	"github.com/kvchain/kvchain/metrics"
)

var metricTxAddedCount = metrics.LazyLoadCounterVec("txpool_tx_added_count", []string{"source"})
