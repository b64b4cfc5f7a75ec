// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"strings"

	"github.com/computemarket/capstake/metrics"
)

var (
	metricStoredCount          = metrics.LazyLoadCounterVec("eventdb_stored_count", []string{"kind"})
	metricCriteriaLengthBucket = metrics.LazyLoadHistogramVec("eventdb_criteria_length_bucket", nil, []int64{0, 2, 5, 10, 25, 100})
	metricQueryParameters      = metrics.LazyLoadCounterVec("eventdb_query_parameters", []string{"parameters"})
	metricQueryOrderCounter    = metrics.LazyLoadCounterVec("eventdb_query_order", []string{"order"})
	metricLimitBucket          = metrics.LazyLoadHistogramVec("eventdb_query_limit_bucket", nil, []int64{
		0, 5, 10, 25, 50, 100, 250, 500, 1000,
	})
)

func metricsHandleFilter(filter *Filter) {
	metricCriteriaLengthBucket().ObserveWithLabels(int64(len(filter.CriteriaSet)), nil)

	if filter.Order == DESC {
		metricQueryOrderCounter().AddWithLabel(1, map[string]string{"order": "desc"})
	} else {
		metricQueryOrderCounter().AddWithLabel(1, map[string]string{"order": "asc"})
	}
	if filter.Options != nil {
		limit := filter.Options.Limit
		if limit > 1000 {
			limit = 1001
		}
		metricLimitBucket().ObserveWithLabels(int64(limit), nil)
	}

	for _, c := range filter.CriteriaSet {
		used := make([]string, 0, 5)
		if c.Kind != nil {
			used = append(used, "kind")
		}
		if c.Account != nil {
			used = append(used, "account")
		}
		if c.Peer != nil {
			used = append(used, "peer")
		}
		if c.Pool != nil {
			used = append(used, "pool")
		}
		if c.Commitment != nil {
			used = append(used, "commitment")
		}
		metricQueryParameters().AddWithLabel(1, map[string]string{"parameters": strings.Join(used, ",")})
	}
}
