package registry

// PoolStats describes one pool's usage against its configured ceiling.
type PoolStats struct {
	Engine   Engine `json:"engine"`
	MaxConns int32  `json:"max_conns"`
	Open     int32  `json:"open"`
	Idle     int32  `json:"idle"`
}

// RegistryStats is a point-in-time snapshot of the whole registry.
type RegistryStats struct {
	TotalPools    int                  `json:"total_pools"`
	PoolsByEngine map[Engine]int       `json:"pools_by_engine"`
	Pools         map[string]PoolStats `json:"pools"`
}

// Stats snapshots every pool. Safe to call concurrently with lookups.
func (r *Registry) Stats() RegistryStats {
	stats := RegistryStats{
		TotalPools:    len(r.conns),
		PoolsByEngine: make(map[Engine]int),
		Pools:         make(map[string]PoolStats, len(r.conns)),
	}
	for name, conn := range r.conns {
		stats.PoolsByEngine[conn.Engine()]++
		stats.Pools[name] = conn.Stat()
	}
	return stats
}
