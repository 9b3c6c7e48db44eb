package cluster

import (
	"os"
)

// EnvInstance is the environment variable naming this process within its
// process group. Cluster managers such as pm2 set it per worker.
const EnvInstance = "NODE_APP_INSTANCE"

// WorkerZero is the instance value designating the singleton worker
const WorkerZero = "0"

// Instance is the process identity used to gate singleton tasks.
// Migrations, upstream sync, and housekeeping run on worker-zero only.
type Instance struct {
	id string
}

// FromEnv reads the instance identity from the environment.
// An unset variable means a single-process deployment, which is worker-zero.
func FromEnv() Instance {
	id := os.Getenv(EnvInstance)
	if id == "" {
		id = WorkerZero
	}
	return Instance{id: id}
}

// New returns an instance with an explicit identity (used by tests)
func New(id string) Instance {
	if id == "" {
		id = WorkerZero
	}
	return Instance{id: id}
}

// ID returns the raw instance identifier
func (i Instance) ID() string {
	return i.id
}

// IsWorkerZero reports whether this process is the singleton worker.
// Callers must re-check on every cycle; membership can change between cycles.
func (i Instance) IsWorkerZero() bool {
	return i.id == WorkerZero
}
