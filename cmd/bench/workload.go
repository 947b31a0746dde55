package main

import (
	"math/rand"

	"github.com/kvpage/bplus/index"
)

// WorkloadType names a mixed read/write distribution to drive an index
// through, mirroring the three access patterns a storage engine is
// typically profiled against.
type WorkloadType string

const (
	OLTP      WorkloadType = "OLTP (90/10 read/write)"
	OLAP      WorkloadType = "OLAP (10/90 read/write)"
	Reporting WorkloadType = "Reporting (range scan)"
)

// ExecuteWorkload runs ops operations of the given mix against idx. Keys
// are drawn uniformly from [0, ops) so every workload type exercises a
// working set the backend has already loaded.
func ExecuteWorkload(idx index.Index, wType WorkloadType, ops int) {
	for i := 0; i < ops; i++ {
		choice := rand.Intn(100)
		key := int64(rand.Intn(ops))

		switch wType {
		case OLTP:
			if choice < 90 {
				_, _ = idx.Get(key)
			} else {
				_ = idx.Insert(key, []byte("x"))
			}
		case OLAP:
			if choice < 10 {
				_, _ = idx.Get(key)
			} else {
				_ = idx.Insert(key, []byte("x"))
			}
		case Reporting:
			it, err := idx.Range(key, key+100)
			if err != nil || it == nil {
				continue
			}
			for it.Next() {
			}
			it.Close()
		}
	}
}
