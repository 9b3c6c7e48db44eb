/*
Package cluster provides the process-identity guard for singleton tasks.

logbarn runs as a group of identical worker processes behind one listener.
Most work (ingestion, the HTTP surface) is safe on every worker, but three
tasks must run exactly once per deployment: boot migrations, the upstream sync
worker, and the housekeeping scheduler. The guard designates one process,
worker-zero, to run them.

# How It Works

The process manager (pm2 or equivalent) sets NODE_APP_INSTANCE on each worker
it forks: "0", "1", "2", ... The worker whose value is the string "0" is
worker-zero. An unset variable means the process was started standalone, which
also counts as worker-zero so single-process deployments behave normally.

	inst := cluster.FromEnv()
	if inst.IsWorkerZero() {
		// run migrations, start sync worker, start housekeeping
	}

Coordination happens through this identity alone, never through the database:
no locks, no leases, no leader election. The trade-off is that the guard only
covers workers forked by one process manager on one host; multi-host
deployments point exactly one host at upstream sync and housekeeping.

# Re-checking

Long-running loops call IsWorkerZero() on every cycle rather than caching the
result at startup. The identity itself is immutable for a process lifetime,
but the callers' contract is written against the check, keeping the gate in
one obvious place per cycle.

# Integration Points

  - cmd/logbarn: gates the boot migration run
  - pkg/upstream: gates every sync cycle
  - pkg/housekeeping: gates every scheduler cycle
*/
package cluster
