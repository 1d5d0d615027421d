package inventory

import (
	"context"
	"sort"

	"github.com/angelmondragon/tablepos-backend/pkg/logger"
	"github.com/angelmondragon/tablepos-backend/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// Delta is a signed stock change for one (product, scope) pair. A positive
// change releases units back to stock, a negative one reserves them.
type Delta struct {
	ProductID uuid.UUID
	Scope     string
	Change    int
}

type deltaKey struct {
	productID uuid.UUID
	scope     string
}

// Journal records the ledger operations applied during one order mutation
// so they can be undone if the mutation fails after stock already moved.
// A Journal is not safe for concurrent use.
type Journal struct {
	ledger  *service
	logg    *logger.Logger
	metrics *metrics.POSMetrics
	applied []Delta
}

func newJournal(ledger *service, logg *logger.Logger, m *metrics.POSMetrics) *Journal {
	return &Journal{ledger: ledger, logg: logg, metrics: m}
}

// Apply nets deltas per (product, scope), drops zero entries and applies the
// rest: reservations first, then releases, each group by product id and scope.
// It stops at the first failure; everything applied before it stays recorded
// for Revert.
func (j *Journal) Apply(ctx context.Context, tx *gorm.DB, deltas []Delta) error {
	for _, d := range Net(deltas) {
		var err error
		if d.Change > 0 {
			err = j.ledger.Release(ctx, tx, d.ProductID, d.Change, d.Scope)
		} else {
			err = j.ledger.Reserve(ctx, tx, d.ProductID, -d.Change, d.Scope)
		}
		if err != nil {
			return err
		}
		j.applied = append(j.applied, d)
	}
	return nil
}

// Revert replays the inverse of every applied delta in reverse order.
func (j *Journal) Revert(ctx context.Context, tx *gorm.DB) error {
	var errs error
	for i := len(j.applied) - 1; i >= 0; i-- {
		d := j.applied[i]
		var err error
		if d.Change > 0 {
			err = j.ledger.Reserve(ctx, tx, d.ProductID, d.Change, d.Scope)
		} else {
			err = j.ledger.Release(ctx, tx, d.ProductID, -d.Change, d.Scope)
		}
		if err != nil {
			j.metrics.IncCompensation(metrics.CompensationFailed)
			logCtx := j.logg.WithFields(ctx, map[string]any{
				"product_id": d.ProductID.String(),
				"scope":      d.Scope,
				"change":     d.Change,
			})
			j.logg.Error(logCtx, "inventory.compensation_failed", err)
			errs = multierr.Append(errs, err)
			continue
		}
		j.metrics.IncCompensation(metrics.CompensationOK)
	}
	j.applied = nil
	return errs
}

// Discard forgets the applied deltas once the surrounding transaction commits.
func (j *Journal) Discard() {
	j.applied = nil
}

// Totals returns the units reserved and released so far.
func (j *Journal) Totals() (reserved, released int) {
	for _, d := range j.applied {
		if d.Change < 0 {
			reserved += -d.Change
		} else {
			released += d.Change
		}
	}
	return reserved, released
}

// Net collapses deltas that target the same (product, scope) and returns the
// non-zero results in application order.
func Net(deltas []Delta) []Delta {
	totals := make(map[deltaKey]int, len(deltas))
	for _, d := range deltas {
		totals[deltaKey{productID: d.ProductID, scope: d.Scope}] += d.Change
	}

	out := make([]Delta, 0, len(totals))
	for key, change := range totals {
		if change == 0 {
			continue
		}
		out = append(out, Delta{ProductID: key.productID, Scope: key.scope, Change: change})
	}
	sort.Slice(out, func(a, b int) bool {
		reserveA, reserveB := out[a].Change < 0, out[b].Change < 0
		if reserveA != reserveB {
			return reserveA
		}
		idA, idB := out[a].ProductID.String(), out[b].ProductID.String()
		if idA != idB {
			return idA < idB
		}
		return out[a].Scope < out[b].Scope
	})
	return out
}
