// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package executor

import (
	"github.com/kvchain/kvchain/metrics"
)

var (
	metricBlockExecutedCount  = metrics.LazyLoadCounter("executor_block_executed_count")
	metricBlockCommittedCount = metrics.LazyLoadCounter("executor_block_committed_count")
	metricTxDroppedCount      = metrics.LazyLoadCounterVec("executor_tx_dropped_count", []string{"reason"})
	metricStagedGauge         = metrics.LazyLoadGauge("executor_staged_block_count")
)
