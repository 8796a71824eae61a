package lifecycle

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
)

// ItemFunc applies one bulk action to a single record and returns the changed
// fields, or an error scoped to that record alone. Every action the executor
// runs, for either record kind, implements this contract.
type ItemFunc func(ctx context.Context, id string) (map[string]interface{}, error)

// BulkItem is one successfully mutated record; its changed fields are
// flattened next to the id on the wire.
type BulkItem struct {
	ID      string
	Changes map[string]interface{}
}

func (it BulkItem) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(it.Changes)+1)
	for k, v := range it.Changes {
		m[k] = v
	}
	m["id"] = it.ID
	return json.Marshal(m)
}

// BulkFailure is one record that could not be mutated.
type BulkFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BulkResult aggregates a bulk operation. failed_count and failed_items are
// only present on the wire when at least one item failed.
type BulkResult struct {
	Success      bool          `json:"success"`
	UpdatedCount int           `json:"updated_count"`
	Items        []BulkItem    `json:"items"`
	FailedCount  int           `json:"failed_count,omitempty"`
	FailedItems  []BulkFailure `json:"failed_items,omitempty"`
}

// StatusCode selects the protocol status: 200 when every item succeeded,
// 207 when any item failed. A batch where every item failed is still 207,
// not a 4xx: the request itself was well-formed and each failure is
// item-scoped. Kept deliberately for compatibility.
func (r *BulkResult) StatusCode() int {
	if r.FailedCount == 0 {
		return http.StatusOK
	}
	return http.StatusMultiStatus
}

type itemOutcome struct {
	id      string
	changes map[string]interface{}
	err     error
}

// executeBulk runs fn once per id with strict isolation: one item's failure
// is captured and the loop moves on, it never blocks or rolls back any other
// item. Results are reported in request order. With workers > 1 the items are
// processed by a pool; each still commits independently.
func executeBulk(ctx context.Context, ids []string, workers int, fn ItemFunc) *BulkResult {
	outcomes := make([]itemOutcome, len(ids))
	if workers > 1 {
		runPool(ctx, ids, workers, fn, outcomes)
	} else {
		for i, id := range ids {
			changes, err := fn(ctx, id)
			outcomes[i] = itemOutcome{id: id, changes: changes, err: err}
		}
	}

	result := &BulkResult{Items: []BulkItem{}}
	for _, o := range outcomes {
		if o.err != nil {
			result.FailedItems = append(result.FailedItems, BulkFailure{ID: o.id, Error: o.err.Error()})
			continue
		}
		result.Items = append(result.Items, BulkItem{ID: o.id, Changes: o.changes})
	}
	result.UpdatedCount = len(result.Items)
	result.FailedCount = len(result.FailedItems)
	result.Success = result.FailedCount == 0
	return result
}

// runPool fans ids out to a fixed worker pool. Each job carries its index so
// the outcome slice keeps request order regardless of completion order.
func runPool(ctx context.Context, ids []string, workers int, fn ItemFunc, outcomes []itemOutcome) {
	type job struct {
		idx int
		id  string
	}

	jobs := make(chan job)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				changes, err := fn(ctx, j.id)
				outcomes[j.idx] = itemOutcome{id: j.id, changes: changes, err: err}
			}
		}()
	}

	for i, id := range ids {
		jobs <- job{idx: i, id: id}
	}
	close(jobs)
	wg.Wait()
}

// asFloat coerces a decoded JSON payload value to float64, accepting the
// numeric types encoding/json can produce.
func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// asInt coerces a decoded JSON payload value to an integral int.
func asInt(v interface{}) (int, bool) {
	f, ok := asFloat(v)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}
