package memo

import "github.com/prometheus/client_golang/prometheus"

func LookupsTotal() *prometheus.CounterVec { return lookupsTotal }

func ComputationsTotal() *prometheus.CounterVec { return computationsTotal }

var GoroutineID = goroutineID
