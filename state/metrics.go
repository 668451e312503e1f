// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import "github.com/kvchain/kvchain/metrics"

var metricAccountUpdateCount = metrics.LazyLoadCounter("account_state_update_count")
