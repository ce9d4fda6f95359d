package main

import "sync"

type jobState int

const (
	jobInit jobState = iota
	jobBuilding
	jobPacking
	jobDelivered
)

// job is one product X order moving through the pipeline. Product X
// is a package of two customized parts built in parallel and packed
// together once both are ready.
type job struct {
	mu    sync.Mutex
	id    string
	state jobState

	partA, partB  string
	partAOperator string
	partBOperator string
	packOperator  string
}

// beginBuild moves a fresh job into the building state. Returns false
// when the job has already been dispatched.
func (j *job) beginBuild() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != jobInit {
		return false
	}
	j.state = jobBuilding
	return true
}

func (j *job) setPartA(part, operator string) {
	j.mu.Lock()
	j.partA, j.partAOperator = part, operator
	j.mu.Unlock()
}

func (j *job) setPartB(part, operator string) {
	j.mu.Lock()
	j.partB, j.partBOperator = part, operator
	j.mu.Unlock()
}

// beginPack moves a job with both parts built into the packing state.
// Returns false while parts are missing or once packing has started.
func (j *job) beginPack() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != jobBuilding || j.partA == "" || j.partB == "" {
		return false
	}
	j.state = jobPacking
	return true
}

func (j *job) deliver(operator string) {
	j.mu.Lock()
	j.packOperator = operator
	j.state = jobDelivered
	j.mu.Unlock()
}

func (j *job) delivered() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state == jobDelivered
}
