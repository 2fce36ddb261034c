package scope

import (
	"context"
	"fmt"
)

// Aggregator resolves the union of projects affected by a set of scenarios.
type Aggregator struct {
	Oracle Oracle
}

// Aggregate asks the oracle once for the projects affected by scenarios.
// Duplicate scenarios are sent once. The answer is deduplicated and sorted
// and may be empty.
func (a *Aggregator) Aggregate(ctx context.Context, scenarios []string) ([]string, error) {
	unique := dedupe(scenarios)
	if len(unique) == 0 {
		return nil, fmt.Errorf("aggregating scope: no change scenarios selected")
	}
	affected, err := a.Oracle.ResolveDependents(ctx, unique)
	if err != nil {
		return nil, err
	}
	return sorted(dedupe(affected)), nil
}
