package worklist

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jcvera13/radiology-worklist/types"
)

// Workload is a point-in-time summary of one worker's load.
type Workload struct {
	WorkerID    string  `json:"workerId"`
	WorkerName  string  `json:"workerName"`
	CurrentLoad float64 `json:"currentLoad"`
	Ceiling     float64 `json:"ceiling"`

	// UtilizationPct is CurrentLoad over Ceiling as a percentage, zero when
	// the ceiling is zero.
	UtilizationPct float64 `json:"utilizationPct"`

	Assigned  int `json:"assigned"`
	Locked    int `json:"locked"`
	Completed int `json:"completed"`
}

// Workload builds a load summary for one worker from the durable registry
// and item store.
func (c *Coordinator) Workload(ctx context.Context, workerID string) (*Workload, error) {
	worker, err := c.workers.Get(ctx, workerID)
	if err != nil {
		return nil, err
	}

	items, err := c.items.ListByWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}

	w := &Workload{
		WorkerID:    worker.ID,
		WorkerName:  worker.Name,
		CurrentLoad: worker.CurrentLoad,
		Ceiling:     worker.Ceiling,
	}
	if worker.Ceiling > 0 {
		w.UtilizationPct = worker.CurrentLoad / worker.Ceiling * 100
	}
	for _, item := range items {
		switch item.Status {
		case types.StatusAssigned:
			w.Assigned++
		case types.StatusLocked:
			w.Locked++
		case types.StatusCompleted:
			w.Completed++
		}
	}

	return w, nil
}

// WorkerShare is one worker's slice of a FairnessReport.
type WorkerShare struct {
	WorkerID    string  `json:"workerId"`
	WorkerName  string  `json:"workerName"`
	Assignments int     `json:"assignments"`
	Charged     float64 `json:"charged"`
}

// FairnessReport summarizes how evenly work was spread over a window.
type FairnessReport struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	// Shares lists every worker that received at least one assignment in
	// the window, ordered by charged weight descending.
	Shares []WorkerShare `json:"shares"`

	TotalAssignments int     `json:"totalAssignments"`
	TotalCharged     float64 `json:"totalCharged"`

	// Score is 1 for a perfectly even spread of charged weight, degrading
	// toward 0 as the spread skews. Computed as max(0, 1 - stdev/mean) over
	// the per-worker charged totals.
	Score float64 `json:"score"`
}

// FairnessReport computes the distribution of assignments over [from, to]
// from the assignment history. Charged weight comes from each assigned
// item's weight; records whose item has since vanished count with weight
// zero rather than poisoning the report.
func (c *Coordinator) FairnessReport(ctx context.Context, from, to time.Time) (*FairnessReport, error) {
	records, err := c.records.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load assignment history: %w", err)
	}

	type tally struct {
		count   int
		charged float64
	}
	tallies := make(map[string]*tally)

	report := &FairnessReport{From: from, To: to}
	for _, r := range records {
		if r.AssignedAt.Before(from) || r.AssignedAt.After(to) {
			continue
		}

		weight := 0.0
		if item, err := c.items.Get(ctx, r.ItemID); err == nil {
			weight = item.Weight
		}

		t := tallies[r.WorkerID]
		if t == nil {
			t = &tally{}
			tallies[r.WorkerID] = t
		}
		t.count++
		t.charged += weight

		report.TotalAssignments++
		report.TotalCharged += weight
	}

	for workerID, t := range tallies {
		share := WorkerShare{WorkerID: workerID, Assignments: t.count, Charged: t.charged}
		if w, err := c.workers.Get(ctx, workerID); err == nil {
			share.WorkerName = w.Name
		}
		report.Shares = append(report.Shares, share)
	}
	sort.Slice(report.Shares, func(i, j int) bool {
		if report.Shares[i].Charged == report.Shares[j].Charged {
			return report.Shares[i].WorkerID < report.Shares[j].WorkerID
		}

		return report.Shares[i].Charged > report.Shares[j].Charged
	})

	report.Score = fairnessScore(report.Shares)

	return report, nil
}

// fairnessScore maps the spread of per-worker charged totals onto [0, 1].
func fairnessScore(shares []WorkerShare) float64 {
	if len(shares) == 0 {
		return 1
	}

	mean := 0.0
	for _, s := range shares {
		mean += s.Charged
	}
	mean /= float64(len(shares))
	if mean == 0 {
		return 1
	}

	variance := 0.0
	for _, s := range shares {
		d := s.Charged - mean
		variance += d * d
	}
	variance /= float64(len(shares))

	return math.Max(0, 1-math.Sqrt(variance)/mean)
}
